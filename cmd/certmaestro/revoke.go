package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var revokeCmd = &cobra.Command{
	Use:   "revoke <serial>",
	Short: "Revoke a certificate by serial number",
	Long: `Revoke the certificate with the given serial number.

The serial is accepted in decimal or hexadecimal form.

Examples:
  certmaestro revoke 1a2b3c`,
	Args: cobra.ExactArgs(1),
	RunE: runRevoke,
}

func runRevoke(cmd *cobra.Command, args []string) error {
	b, err := loadBackend()
	if err != nil {
		return err
	}
	revoked, err := b.RevokeCert(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("Revoked certificate %s at %s\n",
		revoked.Serial, revoked.RevokedAt.Format("2006-01-02 15:04:05 MST"))
	return nil
}
