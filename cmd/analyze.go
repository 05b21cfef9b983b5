package cmd

import (
	"github.com/spf13/cobra"
	"worker-analysis/config"
	"worker-analysis/constant"
	server2 "worker-analysis/server"
)

func analyze(config *config.Config) *cobra.Command {
	opts := server2.AnalyzeOptions{}
	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "run the analysis pipeline once on a local video file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.File = args[0]
			return server2.RunAnalyze(config, opts, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&opts.UserId, "user", "local", "owner id used in the storage path")
	cmd.Flags().StringVar(&opts.Target, "target", string(constant.TargetAudienceUnspecified), "target audience: host, guest or unspecified")
	cmd.Flags().StringVar(&opts.MimeType, "mime-type", "", "override the detected mime type")
	cmd.Flags().BoolVar(&opts.Transcode, "transcode", false, "normalize the video before upload")
	return cmd
}
