package main

import "github.com/spf13/cobra"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "pricectl",
		Short: "Look up the current price of a product page",
		Long: `pricectl runs the price extraction engine once against a product URL.

Usage:
  pricectl get <url> [flags]`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newGetCmd())
	return root
}
