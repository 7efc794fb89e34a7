// Command finagent runs the investment analysis agent: an HTTP chat service
// plus maintenance subcommands for the document index.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "finagent",
	Short: "Conversational investment analysis agent",
	Long: `finagent serves a tool-augmented conversational agent for financial
market questions over an OpenAI-compatible chat API, backed by a local
document index and session store.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to YAML config file")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(initDBCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
