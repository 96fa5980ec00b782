package main

import (
	"github.com/sagarc03/dirserve/clientcli"
	"github.com/spf13/cobra"
)

var listRecursive bool

var listCmd = &cobra.Command{
	Use:     "list [directory]",
	Aliases: []string{"ls"},
	Short:   "List a directory on the server",
	Long: `List a directory on the server.

Directories are listed first. Hidden entries only show up when the server
was started with --hidden.

Examples:
  dirserve-cli list
  dirserve-cli list photos/2024
  dirserve-cli list -r --json docs`,
	Args: cobra.MaximumNArgs(1),
	RunE: runList,
}

func init() {
	listCmd.Flags().BoolVarP(&listRecursive, "recursive", "r", false, "descend into subdirectories")
}

func runList(cmd *cobra.Command, args []string) error {
	dir := "/"
	if len(args) > 0 {
		dir = args[0]
	}

	client, err := getClient()
	if err != nil {
		return handleError(err)
	}

	result, err := client.List(cmd.Context(), clientcli.ListOptions{
		Path:      dir,
		Recursive: listRecursive,
	})
	if err != nil {
		return handleError(err)
	}

	return getFormatter().FormatList(cmd.OutOrStdout(), result)
}
