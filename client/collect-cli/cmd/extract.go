package cmd

import (
	"fmt"
	"strings"

	"github.com/5hixia0jie/SYNAPSEAUTOMATION/internal/creative_collection/extractor"
	"github.com/spf13/cobra"
)

func newExtractCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "extract [share text]",
		Short: "Print the link that collect would submit for the given text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			videoURL := extractor.Extract(strings.TrimSpace(strings.Join(args, " ")))
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", videoURL, extractor.DetectPlatform(videoURL))
			return nil
		},
	}
}
