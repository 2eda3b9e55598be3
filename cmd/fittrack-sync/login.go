package main

import (
	"context"
	"fmt"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	loginUsername string
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and store the session token",
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session token",
	RunE:  runLogout,
}

func init() {
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "Username or email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Password (will prompt if not provided)")
	loginCmd.MarkFlagRequired("username")

	rootCmd.AddCommand(loginCmd, logoutCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	password := loginPassword
	if password == "" {
		fmt.Print("Password: ")
		pw, err := term.ReadPassword(int(syscall.Stdin))
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Println()
		password = string(pw)
	}

	resp, err := s.client.Login(context.Background(), loginUsername, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	if err := s.storage.SaveToken(resp.Token); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	fmt.Printf("Logged in as %s (session valid until %s)\n",
		resp.User.Username, resp.ExpiresAt.Local().Format("2006-01-02 15:04"))
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.storage.SaveToken(""); err != nil {
		return err
	}
	fmt.Println("Logged out")
	return nil
}
