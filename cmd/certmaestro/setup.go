package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/certmaestro/certmaestro/pkg/backend"
	"github.com/certmaestro/certmaestro/pkg/config"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Provision the authority for first-time use",
	Long: `Perform first-time provisioning of the configured backend.

For the Vault backend this enables the pki secret engine, tunes its
maximum lease TTL, generates the internal root certificate and creates
the issuance role. The OpenSSL backend is provisioned by an operator and
does not support this command.

Setup parameters are given as key=value pairs; run 'certmaestro params'
to see what the configured backend accepts.

Examples:
  # Check whether provisioning would succeed, then provision
  certmaestro setup --validate-only
  certmaestro setup common_name=example.com allowed_domains=example.com`,
	RunE: runSetup,
}

var paramsCmd = &cobra.Command{
	Use:   "params",
	Short: "Show the configured backend's parameters",
	Long: `Show the connection and setup parameters declared by the
configured backend, with defaults and help text.`,
	RunE: runParams,
}

var setupValidateOnly bool

func runSetup(cmd *cobra.Command, args []string) error {
	b, err := loadBackend()
	if err != nil {
		return err
	}

	params := make(map[string]string, len(args))
	for _, arg := range args {
		key, value, found := strings.Cut(arg, "=")
		if !found {
			return fmt.Errorf("setup parameters must be key=value pairs, got %q", arg)
		}
		params[key] = value
	}

	if err := b.ValidateSetup(params); err != nil {
		return err
	}
	if setupValidateOnly {
		fmt.Println("Setup would succeed.")
		return nil
	}

	if err := b.Setup(params); err != nil {
		return err
	}
	fmt.Println("Setup completed.")
	return nil
}

func runParams(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	initParams, err := cfg.InitParams()
	if err != nil {
		return err
	}
	setupParams, err := cfg.SetupParams()
	if err != nil {
		return err
	}

	fmt.Printf("Backend: %s\n\nConnection parameters:\n", cfg.Backend)
	printParams(initParams)
	fmt.Println("\nSetup parameters:")
	if len(setupParams) == 0 {
		fmt.Println("  (none: provisioning is performed by an operator)")
	}
	printParams(setupParams)
	return nil
}

func printParams(params backend.Params) {
	for _, p := range params {
		required := "optional"
		if p.Required() {
			required = "required"
		}
		line := fmt.Sprintf("  %-18s %s  %s", p.Name, required, p.Help)
		if p.Default != "" {
			line += fmt.Sprintf(" (default: %s)", p.Default)
		}
		fmt.Println(line)
	}
}

func init() {
	setupCmd.Flags().BoolVar(&setupValidateOnly, "validate-only", false, "Only check that provisioning would succeed")
}
