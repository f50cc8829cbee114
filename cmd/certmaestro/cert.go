package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <serial>",
	Short: "Fetch a certificate by serial number",
	Long: `Fetch a single certificate by serial number.

The serial is accepted in decimal or hexadecimal form (0x prefix and
colon separators allowed).

Examples:
  certmaestro get 1a2b3c
  certmaestro get 0x1A2B3C
  certmaestro get 1715004`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List every certificate known to the authority",
	Long: `List every certificate currently known to the authority.

Ordering follows the underlying storage and differs between backends.`,
	RunE: runList,
}

var caCertCmd = &cobra.Command{
	Use:   "ca-cert",
	Short: "Print the CA certificate",
	RunE:  runCACert,
}

func runGet(cmd *cobra.Command, args []string) error {
	b, err := loadBackend()
	if err != nil {
		return err
	}
	cert, err := b.GetCert(args[0])
	if err != nil {
		return err
	}
	fmt.Print(cert.PEM())
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	b, err := loadBackend()
	if err != nil {
		return err
	}

	count := 0
	for cert, err := range b.ListCerts() {
		if err != nil {
			return err
		}
		fmt.Printf("%-24s %-30s expires %s\n",
			cert.Serial(), cert.CommonName(), cert.NotAfter().Format("2006-01-02"))
		count++
	}
	fmt.Printf("%d certificate(s)\n", count)
	return nil
}

func runCACert(cmd *cobra.Command, args []string) error {
	b, err := loadBackend()
	if err != nil {
		return err
	}
	cert, err := b.CACert()
	if err != nil {
		return err
	}
	fmt.Print(cert.PEM())
	return nil
}
