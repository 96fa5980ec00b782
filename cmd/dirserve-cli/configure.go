package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/sagarc03/dirserve/clientcli"
	"github.com/spf13/cobra"
)

var (
	showSecrets    bool
	addPasswordEnv string
	addDefault     bool
	addNoVerify    bool
	removeYes      bool
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Manage server profiles",
	Long: `Manage saved server profiles.

A profile stores an endpoint and optional Basic auth credentials. Select one
with --profile or DIRSERVE_PROFILE; otherwise the default profile is used.

Profiles are stored in ~/.dirserve/config.yaml unless --config or
DIRSERVE_CONFIG points elsewhere.`,
}

var configureListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List saved profiles",
	Args:    cobra.NoArgs,
	RunE:    runConfigureList,
}

var configureAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add or replace a profile",
	Long: `Add or replace a profile.

Values given with --endpoint, --username and --password are used as-is;
anything missing is prompted for. When --endpoint is given no prompts are
shown at all, which makes the command usable from scripts.

The server is contacted before saving unless --no-verify is set.

Examples:
  dirserve-cli configure add nas
  dirserve-cli configure add nas -e http://nas:8080/a1b2c3 -u alice --password-env NAS_PASSWORD
  dirserve-cli configure add local -e http://localhost:8080 --default --no-verify`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigureAdd,
}

var configureRemoveCmd = &cobra.Command{
	Use:     "remove <name>",
	Aliases: []string{"rm"},
	Short:   "Remove a profile",
	Args:    cobra.ExactArgs(1),
	RunE:    runConfigureRemove,
}

var configureSetDefaultCmd = &cobra.Command{
	Use:   "set-default <name>",
	Short: "Set the default profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigureSetDefault,
}

var configureShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show one profile",
	Long: `Show one profile, the default profile when no name is given.

Passwords are masked unless --show-secrets is set.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigureShow,
}

func init() {
	configureCmd.AddCommand(configureListCmd, configureAddCmd, configureRemoveCmd, configureSetDefaultCmd, configureShowCmd)

	for _, c := range []*cobra.Command{configureListCmd, configureShowCmd} {
		c.Flags().BoolVar(&showSecrets, "show-secrets", false, "print passwords in clear text")
	}

	configureAddCmd.Flags().StringVar(&addPasswordEnv, "password-env", "", "read the password from this environment variable at run time instead of storing it")
	configureAddCmd.Flags().BoolVar(&addDefault, "default", false, "make this the default profile")
	configureAddCmd.Flags().BoolVar(&addNoVerify, "no-verify", false, "save without contacting the server")

	configureRemoveCmd.Flags().BoolVarP(&removeYes, "yes", "y", false, "do not ask for confirmation")
}

func runConfigureList(cmd *cobra.Command, _ []string) error {
	file, err := clientcli.OpenProfileFile(getConfigPath())
	if err != nil {
		return err
	}

	if len(file.Profiles) == 0 {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No profiles configured. Run 'dirserve-cli configure add <name>' to create one.")
		return nil
	}

	return getFormatter().FormatProfileList(cmd.OutOrStdout(), file.List(), file.DefaultName(), showSecrets)
}

func runConfigureAdd(cmd *cobra.Command, args []string) error {
	configPath := getConfigPath()
	file, err := clientcli.OpenProfileFile(configPath)
	if err != nil {
		return err
	}

	profile, err := collectProfile(args[0], cmd.Flags().Changed("endpoint"))
	if err != nil {
		return err
	}

	if !addNoVerify {
		if verifyErr := verifyProfile(cmd.Context(), profile); verifyErr != nil {
			return fmt.Errorf("verify %s: %w (use --no-verify to save anyway)", profile.Endpoint, verifyErr)
		}
	}

	replaced, err := file.Put(profile)
	if err != nil {
		return err
	}
	if addDefault {
		if err := file.SetDefault(profile.Name); err != nil {
			return err
		}
	}

	if err := file.Save(configPath); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	verb := "added"
	if replaced {
		verb = "updated"
	}
	_, _ = fmt.Fprintf(out, "Profile '%s' %s.\n", profile.Name, verb)
	if file.Default == profile.Name {
		_, _ = fmt.Fprintf(out, "'%s' is the default profile.\n", profile.Name)
	}
	return nil
}

// collectProfile builds the profile from root flags, prompting for whatever
// is missing unless the command runs non-interactively.
func collectProfile(name string, nonInteractive bool) (clientcli.Profile, error) {
	p := clientcli.Profile{
		Name:        name,
		Endpoint:    endpoint,
		Username:    username,
		Password:    password,
		PasswordEnv: addPasswordEnv,
	}

	if !nonInteractive {
		if err := promptProfile(&p); err != nil {
			return clientcli.Profile{}, err
		}
	}

	p.Endpoint = strings.TrimSuffix(p.Endpoint, "/")
	if err := validateEndpoint(p.Endpoint); err != nil {
		return clientcli.Profile{}, err
	}
	if p.Username != "" && p.Password == "" && p.PasswordEnv == "" {
		return clientcli.Profile{}, clientcli.ErrPasswordRequired
	}
	return p, nil
}

func promptProfile(p *clientcli.Profile) error {
	var err error

	endpointPrompt := promptui.Prompt{
		Label:    "Endpoint URL",
		Default:  clientcli.DefaultEndpoint,
		Validate: validateEndpoint,
	}
	if p.Endpoint, err = endpointPrompt.Run(); err != nil {
		return promptError(err)
	}

	if p.Username == "" {
		usernamePrompt := promptui.Prompt{Label: "Username (empty for an open server)"}
		if p.Username, err = usernamePrompt.Run(); err != nil {
			return promptError(err)
		}
	}

	if p.Username != "" && p.Password == "" && p.PasswordEnv == "" {
		passwordPrompt := promptui.Prompt{
			Label: "Password",
			Mask:  '*',
			Validate: func(input string) error {
				if input == "" {
					return clientcli.ErrPasswordRequired
				}
				return nil
			},
		}
		if p.Password, err = passwordPrompt.Run(); err != nil {
			return promptError(err)
		}
	}

	return nil
}

func validateEndpoint(input string) error {
	if input == "" {
		return errors.New("endpoint URL is required")
	}
	u, err := url.Parse(input)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("URL must start with http:// or https://")
	}
	if u.Host == "" {
		return errors.New("URL must include a host")
	}
	return nil
}

// verifyProfile lists the root directory, which proves the server is
// reachable and accepts the credentials.
func verifyProfile(ctx context.Context, p clientcli.Profile) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	client, err := clientcli.New(p.Config(), clientcli.WithTimeout(5*time.Second))
	if err != nil {
		return err
	}
	if _, err := client.List(ctx, clientcli.ListOptions{Path: "/"}); err != nil {
		if errors.Is(err, clientcli.ErrUnauthorized) {
			return fmt.Errorf("credentials rejected: %w", err)
		}
		return err
	}
	return nil
}

func runConfigureRemove(cmd *cobra.Command, args []string) error {
	name := args[0]
	configPath := getConfigPath()

	file, err := clientcli.LoadProfileFile(configPath)
	if err != nil {
		return err
	}
	if _, err := file.Lookup(name); err != nil {
		return err
	}

	if !removeYes && !confirm(fmt.Sprintf("Remove profile '%s'", name)) {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
		return nil
	}

	if err := file.Delete(name); err != nil {
		return err
	}
	if err := file.Save(configPath); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Profile '%s' removed.\n", name)
	return nil
}

func runConfigureSetDefault(cmd *cobra.Command, args []string) error {
	configPath := getConfigPath()

	file, err := clientcli.LoadProfileFile(configPath)
	if err != nil {
		return err
	}
	if err := file.SetDefault(args[0]); err != nil {
		return err
	}
	if err := file.Save(configPath); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Default profile set to '%s'.\n", args[0])
	return nil
}

func runConfigureShow(cmd *cobra.Command, args []string) error {
	file, err := clientcli.LoadProfileFile(getConfigPath())
	if err != nil {
		return err
	}

	name := ""
	if len(args) > 0 {
		name = args[0]
	}
	p, err := file.Lookup(name)
	if err != nil {
		return err
	}

	return getFormatter().FormatProfileShow(cmd.OutOrStdout(), p, p.Name == file.DefaultName(), showSecrets)
}

func confirm(label string) bool {
	prompt := promptui.Prompt{Label: label, IsConfirm: true}
	_, err := prompt.Run()
	return err == nil
}

var errCancelled = errors.New("cancelled")

func promptError(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) || errors.Is(err, promptui.ErrAbort) {
		return errCancelled
	}
	return fmt.Errorf("prompt: %w", err)
}

