package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	fromHeight string
	toHeight   string
)

var chainCmd = &cobra.Command{
	Use:   "chain",
	Short: "Print the canonical chain hashes or a block range.",
	RunE:  chainRun,
}

func init() {
	rootCmd.AddCommand(chainCmd)
	chainCmd.Flags().StringVar(&fromHeight, "from", "", "First height of a block range to print.")
	chainCmd.Flags().StringVar(&toHeight, "to", "latest", "Last height of a block range to print.")
}

func chainRun(cmd *cobra.Command, args []string) error {
	path := "/v1/chain/list"
	if fromHeight != "" {
		path = fmt.Sprintf("/v1/blocks/list/%s/%s", fromHeight, toHeight)
	}

	resp, err := publicClient().R().Get(path)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("chain list: %s", resp.Status())
	}

	return printJSON(resp.Body())
}
