package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/certmaestro/certmaestro/pkg/pki"
)

var issueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Issue a new certificate",
	Long: `Issue a new certificate for a subject.

The backend generates the key pair and signs the certificate; both are
printed as PEM. Use --key-out / --cert-out to write files instead.

Examples:
  # Issue for a common name
  certmaestro issue --common-name example.com

  # Full subject, written to files
  certmaestro issue --common-name example.com --country HU --org Company \
      --key-out example.key --cert-out example.pem`,
	RunE: runIssue,
}

var (
	issueCommonName string
	issueCountry    string
	issueState      string
	issueLocality   string
	issueOrgName    string
	issueOrgUnit    string
	issueEmail      string
	issueKeyOut     string
	issueCertOut    string
)

func runIssue(cmd *cobra.Command, args []string) error {
	b, err := loadBackend()
	if err != nil {
		return err
	}

	req := &pki.Request{
		CommonName: issueCommonName,
		Country:    issueCountry,
		State:      issueState,
		Locality:   issueLocality,
		OrgName:    issueOrgName,
		OrgUnit:    issueOrgUnit,
		Email:      issueEmail,
	}

	key, cert, err := b.IssueCert(req)
	if err != nil {
		return err
	}

	fmt.Printf("Issued certificate %s for %s\n", cert.Serial(), cert.Subject())

	if issueKeyOut != "" {
		if err := os.WriteFile(issueKeyOut, []byte(key.PEM()), 0600); err != nil {
			return fmt.Errorf("failed to write private key: %w", err)
		}
	} else {
		fmt.Print(key.PEM())
	}

	if issueCertOut != "" {
		if err := os.WriteFile(issueCertOut, []byte(cert.PEM()), 0644); err != nil {
			return fmt.Errorf("failed to write certificate: %w", err)
		}
	} else {
		fmt.Print(cert.PEM())
	}
	return nil
}

func init() {
	issueCmd.Flags().StringVar(&issueCommonName, "common-name", "", "Subject common name")
	issueCmd.Flags().StringVar(&issueCountry, "country", "", "Subject country (C)")
	issueCmd.Flags().StringVar(&issueState, "state", "", "Subject state or province (ST)")
	issueCmd.Flags().StringVar(&issueLocality, "locality", "", "Subject locality (L)")
	issueCmd.Flags().StringVar(&issueOrgName, "org", "", "Subject organization name (O)")
	issueCmd.Flags().StringVar(&issueOrgUnit, "org-unit", "", "Subject organizational unit (OU)")
	issueCmd.Flags().StringVar(&issueEmail, "email", "", "Subject email address")
	issueCmd.Flags().StringVar(&issueKeyOut, "key-out", "", "Write the private key to this file")
	issueCmd.Flags().StringVar(&issueCertOut, "cert-out", "", "Write the certificate to this file")
	_ = issueCmd.MarkFlagRequired("common-name")
}
