package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func Main() {
	root := newRootCmd(os.Stdout, os.Stderr)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:          "hookscan",
		Short:        "Extract hooks and script templates from short-form videos",
		SilenceUsage: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SilenceErrors = true

	root.PersistentFlags().String("config", "", "Path to a YAML config file (overrides CONFIG_FILE)")

	root.AddCommand(
		newServeCmd(),
		newAnalyzeCmd(),
		newHooksCmd(),
	)
	return root
}
