package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/dirserve/config"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "dirserve [PATH]",
	Short:   "Serve a directory over HTTP",
	Long: `dirserve exposes a directory tree over HTTP for browsing and downloading,
with optional uploads and HTTP Basic authentication.

PATH defaults to the current directory. Subcommand names take precedence over
PATH, so a directory called "hash" or "init" must be given as "./hash" or
"./init".

Examples:
  dirserve
  dirserve ./public -p 9000
  dirserve ./init
  dirserve /srv/share -u -a alice:sha256:9f735e0df9a1ddc702bf0a1a7b83033f9f7153a00c29de82cedadc9957289b05`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd == rootCmd && len(args) == 1 {
			if err := cmd.Flags().Set("path", args[0]); err != nil {
				return err
			}
		}

		var configFiles []string
		if cf, _ := cmd.Flags().GetString("config"); cf != "" {
			configFiles = append(configFiles, cf)
		}

		cfg, err := config.Load(configFiles, cmd.Flags())
		if err != nil {
			return err
		}

		setupLogging(cfg)
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	},
	RunE: runServe,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./dirserve.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (env: DIRSERVE_LOG_LEVEL)")
	rootCmd.PersistentFlags().String("env", "", "environment; prod or production switches to JSON logs (env: DIRSERVE_ENV)")

	rootCmd.Flags().BoolP("version", "V", false, "print version information")
	rootCmd.SetVersionTemplate("{{.Name}} {{.Version}}\n")

	rootCmd.Flags().IntP("port", "p", 8080, "port to listen on")
	rootCmd.Flags().StringSliceP("interfaces", "i", nil, "interface IPs to listen on (default: all)")
	rootCmd.Flags().StringP("auth", "a", "", "require credentials: user:password, user:sha256:<hex> or user:sha512:<hex>")
	rootCmd.Flags().String("auth-file", "", "JSON file holding the credentials")
	rootCmd.Flags().String("realm", "", "realm for the Basic auth challenge (default: dirserve)")
	rootCmd.Flags().BoolP("upload-files", "u", false, "enable file uploading")
	rootCmd.Flags().Int64("max-upload-size", 0, "maximum upload size in bytes (0: unlimited)")
	rootCmd.Flags().StringP("title", "t", "", "title shown on listing pages")
	rootCmd.Flags().BoolP("hidden", "H", false, "show hidden files")
	rootCmd.Flags().BoolP("no-symlinks", "P", false, "hide symlinks and refuse to follow them")
	rootCmd.Flags().Bool("random-route", false, "serve under a random URL prefix")
	rootCmd.Flags().String("path", ".", "directory to serve")
	_ = rootCmd.Flags().MarkHidden("path")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
