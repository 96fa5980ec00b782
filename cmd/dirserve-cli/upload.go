package main

import (
	"errors"

	"github.com/sagarc03/dirserve/clientcli"
	"github.com/spf13/cobra"
)

var (
	uploadDir  string
	uploadName string
)

var uploadCmd = &cobra.Command{
	Use:   "upload <local-path>...",
	Short: "Upload files into a server directory",
	Long: `Upload one or more files into a directory on the server.

The server must be started with --upload-files. Existing files are never
overwritten: uploading a name that is already taken fails with a conflict.

Examples:
  dirserve-cli upload ./report.pdf
  dirserve-cli upload -d docs ./a.txt ./b.txt
  dirserve-cli upload -d inbox --name renamed.txt ./original.txt`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().StringVarP(&uploadDir, "dir", "d", "/", "remote directory to upload into")
	uploadCmd.Flags().StringVarP(&uploadName, "name", "n", "", "remote file name (single file only)")
}

func runUpload(cmd *cobra.Command, args []string) error {
	if uploadName != "" && len(args) > 1 {
		return handleError(errors.New("--name can only be used with a single file"))
	}

	client, err := getClient()
	if err != nil {
		return handleError(err)
	}

	var results []clientcli.UploadResult
	if uploadName != "" {
		res, uploadErr := client.Upload(cmd.Context(), clientcli.UploadOptions{
			LocalPath: args[0],
			RemoteDir: uploadDir,
			FileName:  uploadName,
		})
		if uploadErr != nil {
			results = []clientcli.UploadResult{{LocalPath: args[0], Err: uploadErr}}
		} else {
			results = []clientcli.UploadResult{*res}
		}
	} else {
		results = client.UploadMany(cmd.Context(), uploadDir, args)
	}

	if err := getFormatter().FormatUpload(cmd.OutOrStdout(), results); err != nil {
		return err
	}

	if clientcli.HasUploadErrors(results) {
		return errors.New("one or more uploads failed")
	}
	return nil
}
