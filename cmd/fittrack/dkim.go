package main

import (
	"context"
	"crypto"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/foxzi/fittrack/internal/dkim"
)

var (
	dkimDomain   string
	dkimSelector string
	dkimKeyFile  string
	dkimOutDir   string
)

var dkimCmd = &cobra.Command{
	Use:   "dkim",
	Short: "DKIM keys for signing admin notifications",
}

var dkimGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a new DKIM key pair",
	Long:  `Generate a new RSA 2048-bit DKIM key and print the DNS record to publish.`,
	RunE:  runDKIMGenerate,
}

var dkimShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show DKIM DNS record from existing key",
	RunE:  runDKIMShow,
}

var dkimCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check the published DKIM, SPF and DMARC records",
	Long: `Look up the DNS records receivers use to verify notification mail.
With --key the published DKIM key must match the local signing key.`,
	RunE: runDKIMCheck,
}

func init() {
	dkimGenerateCmd.Flags().StringVar(&dkimDomain, "domain", "", "Signing domain (required)")
	dkimGenerateCmd.Flags().StringVar(&dkimSelector, "selector", "fittrack", "DKIM selector")
	dkimGenerateCmd.Flags().StringVar(&dkimOutDir, "out", ".", "Output directory for key file")
	dkimGenerateCmd.MarkFlagRequired("domain")

	dkimShowCmd.Flags().StringVar(&dkimKeyFile, "key", "", "Path to private key file (required)")
	dkimShowCmd.Flags().StringVar(&dkimDomain, "domain", "", "Signing domain (required)")
	dkimShowCmd.Flags().StringVar(&dkimSelector, "selector", "fittrack", "DKIM selector")
	dkimShowCmd.MarkFlagRequired("key")
	dkimShowCmd.MarkFlagRequired("domain")

	dkimCheckCmd.Flags().StringVar(&dkimKeyFile, "key", "", "Path to private key file")
	dkimCheckCmd.Flags().StringVar(&dkimDomain, "domain", "", "Signing domain (required)")
	dkimCheckCmd.Flags().StringVar(&dkimSelector, "selector", "fittrack", "DKIM selector")
	dkimCheckCmd.MarkFlagRequired("domain")

	dkimCmd.AddCommand(dkimGenerateCmd, dkimShowCmd, dkimCheckCmd)
	rootCmd.AddCommand(dkimCmd)
}

func runDKIMGenerate(cmd *cobra.Command, args []string) error {
	key, err := dkim.GenerateKey()
	if err != nil {
		return err
	}

	keyPath := filepath.Join(dkimOutDir, dkimDomain+".key")
	if err := dkim.SavePrivateKey(keyPath, key); err != nil {
		return err
	}

	record, err := dkim.DNSRecord(key)
	if err != nil {
		return err
	}

	fmt.Printf("DKIM key generated successfully\n\n")
	fmt.Printf("Private key saved to: %s\n\n", keyPath)
	printDNSRecord(record)
	fmt.Println()
	fmt.Println("Add to the notify section of the server config:")
	fmt.Printf("  dkim:\n    enabled: true\n    domain: %q\n    selector: %q\n    key_file: %q\n", dkimDomain, dkimSelector, keyPath)
	return nil
}

func runDKIMShow(cmd *cobra.Command, args []string) error {
	key, err := dkim.LoadPrivateKey(dkimKeyFile)
	if err != nil {
		return err
	}

	record, err := dkim.DNSRecord(key)
	if err != nil {
		return err
	}
	printDNSRecord(record)
	return nil
}

func printDNSRecord(record string) {
	fmt.Printf("DNS Record:\n")
	fmt.Printf("  Name: %s\n", dkim.DNSName(dkimSelector, dkimDomain))
	fmt.Printf("  Type: TXT\n")
	fmt.Printf("  Value: %s\n", record)
}

func runDKIMCheck(cmd *cobra.Command, args []string) error {
	var key crypto.Signer
	if dkimKeyFile != "" {
		k, err := dkim.LoadPrivateKey(dkimKeyFile)
		if err != nil {
			return err
		}
		key = k
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	results, err := dkim.CheckDomain(ctx, nil, dkimDomain, dkimSelector, key)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CHECK\tNAME\tSTATUS\tMESSAGE")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Type, r.Name, r.Status, r.Message)
	}
	w.Flush()

	if results[0].Status != dkim.StatusOK {
		return fmt.Errorf("DKIM record for %s is not usable", dkim.DNSName(dkimSelector, dkimDomain))
	}
	return nil
}
