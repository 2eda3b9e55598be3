package main

import (
	"context"
	"fmt"
	"os"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/foxzi/fittrack/internal/auth"
	"github.com/foxzi/fittrack/internal/email"
	"github.com/foxzi/fittrack/internal/models"
	"github.com/foxzi/fittrack/internal/repository"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "User management commands",
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new user",
	RunE:  runUserCreate,
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all users",
	RunE:  runUserList,
}

var (
	userName     string
	userEmail    string
	userPassword string
	userAdmin    bool
)

func init() {
	userCreateCmd.Flags().StringVar(&userName, "username", "", "Username")
	userCreateCmd.Flags().StringVar(&userEmail, "email", "", "User email")
	userCreateCmd.Flags().StringVar(&userPassword, "password", "", "User password (will prompt if not provided)")
	userCreateCmd.Flags().BoolVar(&userAdmin, "admin", false, "Grant the admin role")
	userCreateCmd.MarkFlagRequired("username")
	userCreateCmd.MarkFlagRequired("email")

	userCmd.AddCommand(userCreateCmd, userListCmd)
	rootCmd.AddCommand(userCmd)
}

// readPassword prompts twice on the terminal
func readPassword() (string, error) {
	fmt.Print("Enter password: ")
	pw, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	fmt.Println()

	fmt.Print("Confirm password: ")
	confirm, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	fmt.Println()

	if string(pw) != string(confirm) {
		return "", fmt.Errorf("passwords do not match")
	}
	return string(pw), nil
}

func runUserCreate(cmd *cobra.Command, args []string) error {
	address, err := email.Normalize(userEmail)
	if err != nil {
		return fmt.Errorf("%w: %s", err, userEmail)
	}

	database, err := openDatabase()
	if err != nil {
		return err
	}
	defer database.Close()

	password := userPassword
	if password == "" {
		if password, err = readPassword(); err != nil {
			return err
		}
	}
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	role := models.RoleUser
	if userAdmin {
		role = models.RoleAdmin
	}

	u := &models.User{
		Username:     userName,
		Email:        address,
		PasswordHash: hash,
		Role:         role,
	}
	if err := repository.NewUserRepository(database.DB).Create(context.Background(), u); err != nil {
		return err
	}

	fmt.Printf("User created: %s (%s, %s)\n", u.Username, u.ID, u.Role)
	return nil
}

func runUserList(cmd *cobra.Command, args []string) error {
	database, err := openDatabase()
	if err != nil {
		return err
	}
	defer database.Close()

	users, err := repository.NewUserRepository(database.DB).List(context.Background())
	if err != nil {
		return err
	}

	if len(users) == 0 {
		fmt.Println("No users found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSERNAME\tEMAIL\tROLE\tCREATED")
	for _, u := range users {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			u.ID, u.Username, u.Email, u.Role, u.CreatedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}
