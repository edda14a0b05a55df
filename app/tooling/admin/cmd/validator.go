package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var validatorCmd = &cobra.Command{
	Use:   "validator",
	Short: "Validator stake operations.",
}

var validatorListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the registered validators and slash history.",
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := publicClient().R().Get("/v1/validators/list")
		if err != nil {
			return err
		}
		if resp.IsError() {
			return fmt.Errorf("validator list: %s", resp.Status())
		}

		return printJSON(resp.Body())
	},
}

var validatorRegisterCmd = &cobra.Command{
	Use:   "register <address> <deposit>",
	Short: "Register a validator with an initial deposit.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		deposit, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("parse deposit: %w", err)
		}

		body := struct {
			Address string `json:"address"`
			Deposit uint64 `json:"deposit"`
		}{
			Address: args[0],
			Deposit: deposit,
		}

		resp, err := privateClient().R().SetBody(body).Post("/v1/node/validator/register")
		if err != nil {
			return err
		}
		if resp.IsError() {
			return fmt.Errorf("validator register: %s: %s", resp.Status(), resp.String())
		}

		return printJSON(resp.Body())
	},
}

func init() {
	rootCmd.AddCommand(validatorCmd)
	validatorCmd.AddCommand(validatorListCmd)
	validatorCmd.AddCommand(validatorRegisterCmd)
}
