package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var crlCmd = &cobra.Command{
	Use:   "crl",
	Short: "Print the current certificate revocation list",
	Long: `Fetch and print the authority's current Certificate Revocation
List as PEM.

Examples:
  certmaestro crl
  certmaestro crl --serials`,
	RunE: runCRL,
}

var crlSerialsOnly bool

func runCRL(cmd *cobra.Command, args []string) error {
	b, err := loadBackend()
	if err != nil {
		return err
	}
	crl, err := b.CRL()
	if err != nil {
		return err
	}

	if crlSerialsOnly {
		for _, serial := range crl.RevokedSerials() {
			fmt.Println(serial)
		}
		return nil
	}
	fmt.Print(crl.PEM())
	return nil
}

func init() {
	crlCmd.Flags().BoolVar(&crlSerialsOnly, "serials", false, "Print revoked serial numbers instead of the PEM")
}
