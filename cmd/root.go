package cmd

import (
	"github.com/spf13/cobra"
	"worker-analysis/config"
)

func Root(config *config.Config) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "worker-analysis",
		Short:        "video analysis worker",
		SilenceUsage: true,
	}
	rootCmd.AddCommand(server(config))
	rootCmd.AddCommand(analyze(config))
	return rootCmd
}
