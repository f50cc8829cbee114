// Command certmaestro is a non-interactive CLI over the certificate
// authority backends. Each subcommand maps onto one backend operation.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/certmaestro/certmaestro/pkg/audit"
	"github.com/certmaestro/certmaestro/pkg/backend"
	"github.com/certmaestro/certmaestro/pkg/config"
)

// Build-time variables (injected by the release pipeline)
var (
	version = "dev"
	commit  = "none"
)

// Global flags
var (
	configPath   string
	auditLogPath string
)

var rootCmd = &cobra.Command{
	Use:   "certmaestro",
	Short: "Manage X.509 certificates through interchangeable CA backends",
	Long: `Certmaestro manages certificate authority operations (issue, revoke,
list, fetch CRL) through interchangeable backends: a local OpenSSL-based
authority or a remote Vault PKI service.

The backend and its parameters are read from a YAML configuration file
(default: certmaestro.yaml).

Examples:
  # Issue a certificate
  certmaestro issue --common-name example.com

  # Revoke by serial number (hex or decimal)
  certmaestro revoke 1a2b3c

  # List every known certificate
  certmaestro list`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return audit.InitFile(auditLogPath)
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return audit.Close()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		_ = audit.Close()
		os.Exit(1)
	}
}

// loadBackend builds the backend selected by the configuration file.
func loadBackend() (backend.Backend, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return cfg.Build()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Path to the certmaestro config file")
	rootCmd.PersistentFlags().StringVar(&auditLogPath, "audit-log", "", "Append audit events to this JSONL file")

	rootCmd.AddCommand(issueCmd)
	rootCmd.AddCommand(revokeCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(caCertCmd)
	rootCmd.AddCommand(crlCmd)
	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(paramsCmd)
	rootCmd.AddCommand(versionCmd)
}
