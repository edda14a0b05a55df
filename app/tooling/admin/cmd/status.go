package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the current node status.",
	RunE:  statusRun,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func statusRun(cmd *cobra.Command, args []string) error {
	resp, err := publicClient().R().Get("/v1/node/status")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("node status: %s", resp.Status())
	}

	return printJSON(resp.Body())
}
