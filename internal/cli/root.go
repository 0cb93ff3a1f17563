// Package cli implements the placebadges commands.
package cli

import (
	"github.com/spf13/cobra"
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "placebadges",
	Short: "Turn position readings into place badges",
	Long: "placebadges watches position readings, resolves the place name for fresh ones " +
		"and records each newly visited place once.",
	SilenceUsage: true,
}
