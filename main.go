// Command mindmap_backend turns PDFs into topic lists and mind maps, either
// as an HTTP API (serve) or one document at a time from the command line.
package main

import (
	"fmt"
	"os"

	"mindmap_backend/core"

	"github.com/spf13/cobra"
)

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	envFile string
	quiet   bool
}

func main() {
	// The service control manager starts the binary without a terminal.
	if handled, err := RunAsService(); handled {
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(core.ExitCodeError)
		}
		return
	}

	os.Exit(run(os.Args[1:]))
}

// run executes the CLI with args and maps the outcome to an exit code.
func run(args []string) int {
	root := newRootCmd()
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return core.ExitCodeForError(err)
	}
	return core.ExitCodeSuccess
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "mindmap_backend",
		Short: "PDF topic detection and mind map generation",
		Long: `Extracts the text of a PDF, asks a chat completion backend for its main
topics and builds a validated mind map for a chosen topic.

Configuration is read from the environment, optionally loaded from a .env file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.Version = core.GetVersion()
	root.SetVersionTemplate(fmt.Sprintf("mindmap_backend %s (API %s)\n", core.GetVersionInfo(), core.APIVersion))
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "Path of the .env file to load")
	root.PersistentFlags().BoolVarP(&opts.quiet, "quiet", "q", false, "Do not print pipeline progress")

	root.AddCommand(
		newServeCmd(opts),
		newTopicsCmd(opts),
		newMindmapCmd(opts),
		newCheckCmd(opts),
		newHistoryCmd(opts),
		newMCPCmd(opts),
		newServiceCmd(opts),
	)
	return root
}
