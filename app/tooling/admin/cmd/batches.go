package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var withHistory bool

var batchesCmd = &cobra.Command{
	Use:   "batches [id]",
	Short: "Print the settlement batches, one batch, or the proof history.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  batchesRun,
}

func init() {
	rootCmd.AddCommand(batchesCmd)
	batchesCmd.Flags().BoolVar(&withHistory, "history", false, "Print the fraud proof history instead.")
}

func batchesRun(cmd *cobra.Command, args []string) error {
	path := "/v1/batches/list"
	switch {
	case withHistory:
		path = "/v1/settlement/history"
	case len(args) == 1:
		path = "/v1/batches/" + args[0]
	}

	resp, err := publicClient().R().Get(path)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("batches: %s", resp.Status())
	}

	return printJSON(resp.Body())
}
