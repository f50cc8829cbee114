package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show CLI and backend versions",
	RunE:  runVersion,
}

func runVersion(cmd *cobra.Command, args []string) error {
	fmt.Printf("certmaestro %s (%s)\n", version, commit)

	b, err := loadBackend()
	if err != nil {
		// Still useful without a reachable backend.
		fmt.Println("backend: unavailable:", err)
		return nil
	}
	v, err := b.Version()
	if err != nil {
		return err
	}
	fmt.Println("backend:", v)
	return nil
}
