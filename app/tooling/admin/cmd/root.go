// Package cmd contains the admin commands for a running node.
package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"
)

var (
	publicURL  string
	privateURL string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&publicURL, "url", "u", "http://localhost:8080", "Url of the node public API.")
	rootCmd.PersistentFlags().StringVar(&privateURL, "private-url", "http://localhost:9080", "Url of the node private API.")
}

var rootCmd = &cobra.Command{
	Use:   "admin",
	Short: "Administration against a running node",
}

// Execute runs the selected command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// publicClient returns a client against the node public API.
func publicClient() *resty.Client {
	return resty.New().SetBaseURL(publicURL)
}

// privateClient returns a client against the node private API.
func privateClient() *resty.Client {
	return resty.New().SetBaseURL(privateURL)
}

// printJSON re-indents a response body for the terminal.
func printJSON(body []byte) error {
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return err
	}

	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	fmt.Println(string(out))
	return nil
}
