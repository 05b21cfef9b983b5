package cmd

import (
	"github.com/spf13/cobra"
	"worker-analysis/config"
	server2 "worker-analysis/server"
)

func server(config *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "start http server and analysis queue consumer",
		Run: func(cmd *cobra.Command, args []string) {
			server2.RunHttp(config)
		},
	}
}
