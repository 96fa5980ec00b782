package main

import (
	"errors"
	"io"
	"os"

	"github.com/sagarc03/dirserve/clientcli"
	"github.com/spf13/cobra"
)

var (
	downloadTo     string
	downloadStdout bool
)

var downloadCmd = &cobra.Command{
	Use:     "download <remote-path>...",
	Aliases: []string{"get"},
	Short:   "Download files from the server",
	Long: `Download one or more files from the server.

Files land in the current directory under their remote names unless -o
names a target. With several files -o must be a directory. Partial
downloads never replace an existing local file.

Examples:
  dirserve-cli download docs/report.pdf
  dirserve-cli download -o ./report-2024.pdf docs/report.pdf
  dirserve-cli download -o ./backup docs/a.txt docs/b.txt
  dirserve-cli download --stdout config.json | jq .`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDownload,
}

func init() {
	downloadCmd.Flags().StringVarP(&downloadTo, "output", "o", "", "local file, or directory for several files")
	downloadCmd.Flags().BoolVar(&downloadStdout, "stdout", false, "stream a single file to stdout")
	downloadCmd.MarkFlagsMutuallyExclusive("output", "stdout")
}

func runDownload(cmd *cobra.Command, args []string) error {
	if downloadStdout && len(args) > 1 {
		return handleError(errors.New("--stdout takes a single file"))
	}

	client, err := getClient()
	if err != nil {
		return handleError(err)
	}

	if downloadStdout {
		return streamDownload(cmd, client, args[0])
	}

	if len(args) > 1 && downloadTo != "" {
		if err := os.MkdirAll(downloadTo, 0o750); err != nil {
			return handleError(err)
		}
	}

	formatter := getFormatter()
	var failed bool
	for _, remote := range args {
		result, _, dlErr := client.Download(cmd.Context(), clientcli.DownloadOptions{
			RemotePath: remote,
			LocalPath:  downloadTo,
		})
		if dlErr != nil {
			failed = true
			_ = handleError(dlErr)
			continue
		}
		if err := formatter.FormatDownload(cmd.OutOrStdout(), result); err != nil {
			return err
		}
	}

	if failed {
		return errors.New("one or more downloads failed")
	}
	return nil
}

// streamDownload copies the file to stdout; with --json the metadata goes to
// stderr after the body.
func streamDownload(cmd *cobra.Command, client *clientcli.Client, remote string) error {
	result, body, err := client.Download(cmd.Context(), clientcli.DownloadOptions{
		RemotePath: remote,
		LocalPath:  "-",
	})
	if err != nil {
		return handleError(err)
	}
	defer func() { _ = body.Close() }()

	if _, err := io.Copy(cmd.OutOrStdout(), body); err != nil {
		return handleError(err)
	}
	if jsonOutput {
		return getFormatter().FormatDownload(cmd.ErrOrStderr(), result)
	}
	return nil
}
