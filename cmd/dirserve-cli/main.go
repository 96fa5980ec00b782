package main

import (
	"errors"
	"os"

	"github.com/sagarc03/dirserve/clientcli"
	"github.com/spf13/cobra"
)

var (
	version = "dev"

	cfgFile    string
	profile    string
	endpoint   string
	username   string
	password   string
	jsonOutput bool
	quiet      bool
)

var rootCmd = &cobra.Command{
	Use:     "dirserve-cli",
	Version: version,
	Short:   "Client for dirserve file servers",
	Long: `dirserve-cli - client for dirserve file servers

Lists, downloads and uploads files through the same HTTP pages a browser uses.
Uploads only work when the server was started with --upload-files.

Connection settings are resolved in this order (later wins):
  1. profile from the config file (~/.dirserve/config.yaml)
  2. DIRSERVE_ENDPOINT, DIRSERVE_USERNAME, DIRSERVE_PASSWORD
  3. --endpoint, --username, --password`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ~/.dirserve/config.yaml, env: DIRSERVE_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&profile, "profile", "", "profile name (env: DIRSERVE_PROFILE)")
	rootCmd.PersistentFlags().StringVarP(&endpoint, "endpoint", "e", "", "server URL including any route prefix (default: "+clientcli.DefaultEndpoint+")")
	rootCmd.PersistentFlags().StringVarP(&username, "username", "u", "", "basic auth username (env: DIRSERVE_USERNAME)")
	rootCmd.PersistentFlags().StringVarP(&password, "password", "p", "", "basic auth password (env: DIRSERVE_PASSWORD)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-essential output")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(configureCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// getConfigPath returns the profile file path from flag, env or default.
func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if p := os.Getenv(clientcli.EnvConfigPath); p != "" {
		return p
	}
	return clientcli.DefaultProfilePath()
}

// buildConfig layers flags over env vars over the selected profile.
// A missing profile file is only an error when a file or profile was named.
func buildConfig() (*clientcli.Config, error) {
	profileName := profile
	if profileName == "" {
		profileName = os.Getenv(clientcli.EnvProfile)
	}
	explicit := cfgFile != "" || os.Getenv(clientcli.EnvConfigPath) != "" || profileName != ""

	cfg := &clientcli.Config{}
	if configPath := getConfigPath(); configPath != "" {
		file, err := clientcli.LoadProfileFile(configPath)
		if err != nil && (explicit || !errors.Is(err, os.ErrNotExist)) {
			return nil, err
		}
		if file != nil {
			p, lookupErr := file.Lookup(profileName)
			switch {
			case lookupErr == nil:
				cfg = p.Config()
			case profileName != "" || !errors.Is(lookupErr, clientcli.ErrNoProfiles) && !errors.Is(lookupErr, clientcli.ErrNoDefaultProfile):
				return nil, lookupErr
			}
		}
	}

	flags := &clientcli.Config{Endpoint: endpoint, Username: username, Password: password}
	return cfg.Overlay(clientcli.EnvConfig()).Overlay(flags), nil
}

// getFormatter returns the appropriate formatter based on flags.
func getFormatter() clientcli.Formatter {
	return clientcli.NewFormatter(jsonOutput, quiet)
}

// getClient creates and returns a configured client.
func getClient() (*clientcli.Client, error) {
	cfg, err := buildConfig()
	if err != nil {
		return nil, err
	}
	return clientcli.New(cfg)
}

// handleError prints err with the active formatter and returns it.
func handleError(err error) error {
	_ = getFormatter().FormatError(os.Stderr, err)
	return err
}
