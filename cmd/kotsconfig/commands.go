package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/replicatedhq/kots-sub006/internal/appconfig"
	"github.com/replicatedhq/kots-sub006/internal/config"
	"github.com/replicatedhq/kots-sub006/internal/consoleclient"
	"github.com/replicatedhq/kots-sub006/internal/fileinput"
	"github.com/replicatedhq/kots-sub006/internal/form"
	"github.com/replicatedhq/kots-sub006/internal/ui"
)

// PasswordEnvVar supplies the console password non-interactively. Without it
// the password is prompted with echo disabled.
const PasswordEnvVar = "KOTSCONFIG_PASSWORD"

// Command flags
var (
	consoleName  string
	consoleURL   string
	appSlug      string
	appNickname  string
	sequence     int64
	username     string
	outputFormat string
	newVersion   bool
	outputPath   string
)

func init() {
	// Common flags for console commands (persistent on root)
	rootCmd.PersistentFlags().StringVar(&consoleName, "console", "", "Named console from the local registry (default: registry default)")
	rootCmd.PersistentFlags().StringVar(&consoleURL, "url", "", "Console API base URL (overrides the registry)")
	rootCmd.PersistentFlags().StringVar(&appSlug, "app", "", "Application slug")
	rootCmd.PersistentFlags().StringVar(&appNickname, "nickname", "", "Friendly name to remember for --app in the registry")
	rootCmd.PersistentFlags().Int64Var(&sequence, "sequence", 0, "Config sequence (default: last saved, else 1)")
	rootCmd.PersistentFlags().StringVar(&username, "username", "", "Basic auth username")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "detailed", "Output format (detailed, json, yaml)")

	// Add subcommands directly to root
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(saveCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(editCmd)
}

// target is a resolved console connection plus the (app, sequence) pair the
// command operates on.
type target struct {
	client   *consoleclient.Client
	registry *config.Registry
	console  string
	app      string
	sequence int64
}

// resolveTarget combines flags with the local registry: flags win, the
// registry fills the gaps, and whatever was learned is written back so the
// next invocation needs fewer flags.
func resolveTarget() (*target, error) {
	reg, err := config.LoadRegistry()
	if err != nil {
		return nil, fmt.Errorf("failed to load registry: %w", err)
	}

	name := consoleName
	if name == "" {
		name = reg.DefaultConsole()
	}

	url := consoleURL
	if url == "" {
		if console := reg.GetConsole(name); console != nil {
			url = console.URL
		}
	}
	if url == "" {
		return nil, fmt.Errorf("no console configured. Use --url, or --console with a registered name")
	}

	user := username
	if user == "" {
		if console := reg.GetConsole(name); console != nil {
			user = console.Username
		}
	}

	client := consoleclient.New(url)
	if user != "" {
		password, err := resolvePassword(user)
		if err != nil {
			return nil, err
		}
		client.SetAuth(user, password)
	}

	if name != "" {
		reg.UpdateConsoleLastSeen(name, url)
		if user != "" {
			reg.SetConsoleAuth(name, user)
		}
	}

	t := &target{client: client, registry: reg, console: name}

	t.app = appSlug
	if t.app == "" {
		if console := reg.GetConsole(name); console != nil && len(console.Apps) == 1 {
			for slug := range console.Apps {
				t.app = slug
			}
		}
	}
	if t.app == "" {
		return nil, fmt.Errorf("no application specified. Use --app <slug>")
	}

	t.sequence = sequence
	if t.sequence <= 0 {
		if console := reg.GetConsole(name); console != nil {
			if meta, ok := console.Apps[t.app]; ok && meta.LastSequence > 0 {
				t.sequence = meta.LastSequence
			}
		}
	}
	if t.sequence <= 0 {
		t.sequence = 1
	}

	// Remember what was learned under the console's registry name. Best
	// effort: a read-only config dir never blocks the command itself.
	if name != "" {
		if appNickname != "" {
			reg.SetAppNickname(name, t.app, appNickname)
		}
		if err := config.SaveGlobal(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not update registry: %v\n", err)
		}
	}

	return t, nil
}

// resolvePassword reads the password from the environment, falling back to a
// no-echo terminal prompt.
func resolvePassword(user string) (string, error) {
	if password := os.Getenv(PasswordEnvVar); password != "" {
		return password, nil
	}

	fmt.Fprintf(os.Stderr, "Password for %s: ", user)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(raw), nil
}

// recordSave writes the saved sequence back to the registry. Best effort:
// a registry write failure never fails the command that saved successfully.
func (t *target) recordSave(savedSequence int64) {
	if t.console == "" {
		return
	}
	t.registry.RecordSave(t.console, t.app, savedSequence)
	if err := config.SaveGlobal(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not update registry: %v\n", err)
	}
}

func (t *target) fetchGroups(ctx context.Context) ([]appconfig.ConfigGroup, error) {
	resp, err := t.client.GetConfig(ctx, t.app, t.sequence)
	if err != nil {
		return nil, fmt.Errorf("failed to get config: %w", err)
	}
	return resp.ConfigGroups, nil
}

// getCmd fetches and prints the config tree
var getCmd = &cobra.Command{
	Use:   "get",
	Short: "Fetch and print the config tree",
	Long: `Fetch the config schema tree for an application sequence and print it.

Password values are masked in the detailed format. Use --format json or
--format yaml for the raw tree, suitable for scripting.`,
	Example: `  # Print the current config
  kotsconfig get --url http://localhost:3000 --app myapp

  # A specific sequence, as JSON
  kotsconfig get --app myapp --sequence 4 --format json`,
	RunE: runGet,
}

func runGet(cmd *cobra.Command, args []string) error {
	t, err := resolveTarget()
	if err != nil {
		return err
	}

	groups, err := t.fetchGroups(cmd.Context())
	if err != nil {
		return err
	}

	switch outputFormat {
	case "json":
		data, err := json.MarshalIndent(groups, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(data))
	case "yaml":
		data, err := yaml.Marshal(struct {
			ConfigGroups []appconfig.ConfigGroup `yaml:"config_groups"`
		}{ConfigGroups: groups})
		if err != nil {
			return fmt.Errorf("failed to marshal YAML: %w", err)
		}
		fmt.Print(string(data))
	case "detailed":
		fallthrough
	default:
		printDetailed(groups)
	}

	return nil
}

// printDetailed renders the visible tree for humans, one group per section.
func printDetailed(groups []appconfig.ConfigGroup) {
	visible := appconfig.DefaultVisibility{}.FilterGroups(groups)

	for gi, group := range visible {
		if gi > 0 {
			fmt.Println()
		}

		title := group.Title
		if title == "" {
			title = group.Name
		}
		fmt.Printf("%s (%s)\n", title, group.Name)
		if group.Description != "" {
			fmt.Printf("  %s\n", group.Description)
		}

		for _, item := range group.Items {
			if item.IsHidden() || item.Type.Structural() {
				continue
			}

			marker := ""
			if item.Required {
				marker = " (required)"
			} else if item.Recommended {
				marker = " (recommended)"
			}

			if item.Repeatable && item.HasInstances(group.Name) {
				fmt.Printf("  %s%s:\n", item.Name, marker)
				bucket := item.ValuesByGroup[group.Name]
				for _, key := range item.InstanceKeys(group.Name) {
					fmt.Printf("    [%s] %s\n", key, displayScalar(item.Type, bucket[key]))
				}
				continue
			}

			fmt.Printf("  %s%s = %s\n", item.Name, marker, displayScalar(item.Type, item.EffectiveValue()))
			if item.ValidationError != "" {
				fmt.Printf("    ✗ %s\n", item.ValidationError)
			}
			if item.Error != "" {
				fmt.Printf("    ✗ %s\n", item.Error)
			}
		}
	}
}

func displayScalar(itemType appconfig.ItemType, value string) string {
	if value == "" {
		return "(empty)"
	}
	if itemType == appconfig.TypePassword {
		return appconfig.MaskValue(value)
	}
	return value
}

// setCmd applies value changes and saves
var setCmd = &cobra.Command{
	Use:   "set <group.item=value> [group.item=value ...]",
	Short: "Set config values and save",
	Long: `Apply one or more value changes to the config tree and save it.

Each argument is group.item=value. Omitting =value on a password item
prompts for the value with echo disabled. Prefixing a file item's value
with @ reads and uploads the named file.

The edited tree is validated against the console before saving; any
validation errors abort the save.`,
	Example: `  # Set a text value
  kotsconfig set network.hostname=db.internal --app myapp

  # Prompt for a password without echo
  kotsconfig set auth.admin_password --app myapp

  # Upload a certificate file
  kotsconfig set tls.ca_cert=@ca.pem --app myapp

  # Save as a new version
  kotsconfig set network.port=8443 --app myapp --new-version`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSet,
}

func init() {
	setCmd.Flags().BoolVar(&newVersion, "new-version", false, "Save as a new sequence instead of updating in place")
}

func runSet(cmd *cobra.Command, args []string) error {
	t, err := resolveTarget()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	groups, err := t.fetchGroups(ctx)
	if err != nil {
		return err
	}

	engine := form.NewEngine(groups)
	defer engine.Close()

	for _, arg := range args {
		if err := applyAssignment(ctx, engine, groups, arg); err != nil {
			return err
		}
	}

	edited := engine.Snapshot().Groups

	// One-shot validation pass before saving.
	live, err := t.client.LiveConfig(ctx, t.app, t.sequence, edited)
	if err != nil {
		return fmt.Errorf("validation request failed: %w", err)
	}
	if len(live.ValidationErrors) > 0 {
		printValidationErrors(live.ValidationErrors)
		return fmt.Errorf("validation failed, config not saved")
	}

	return saveGroups(ctx, t, edited)
}

// applyAssignment parses one group.item=value argument and routes it into the
// engine.
func applyAssignment(ctx context.Context, engine *form.Engine, groups []appconfig.ConfigGroup, arg string) error {
	spec, value, hasValue := strings.Cut(arg, "=")

	groupName, itemName, ok := strings.Cut(spec, ".")
	if !ok {
		return fmt.Errorf("invalid assignment %q (want group.item=value)", arg)
	}

	group := appconfig.FindGroup(groups, groupName)
	if group == nil {
		return fmt.Errorf("unknown group %q", groupName)
	}
	item := group.FindItem(itemName)
	if item == nil {
		return fmt.Errorf("unknown item %q in group %q", itemName, groupName)
	}

	switch {
	case item.Type == appconfig.TypePassword && !hasValue:
		prompted, err := resolvePassword(groupName + "." + itemName)
		if err != nil {
			return err
		}
		value = prompted

	case item.Type == appconfig.TypeFile && strings.HasPrefix(value, "@"):
		results := fileinput.ReadAll(ctx, []string{strings.TrimPrefix(value, "@")})
		if errs := fileinput.Failures(results); len(errs) > 0 {
			return errs[0]
		}
		file := fileinput.Successes(results)[0]
		return engine.ApplyChange(groupName, itemName, []string{file.Data}, file.Name)

	case !hasValue:
		return fmt.Errorf("missing value in %q (want group.item=value)", arg)
	}

	return engine.ApplyChange(groupName, itemName, []string{value}, "")
}

// saveGroups persists an edited tree and reports the outcome, updating the
// registry on success.
func saveGroups(ctx context.Context, t *target, groups []appconfig.ConfigGroup) error {
	resp, err := t.client.SaveConfig(ctx, t.app, t.sequence, groups, newVersion)
	if err != nil {
		return fmt.Errorf("save failed: %w", err)
	}

	if !resp.Success {
		if len(resp.RequiredItems) > 0 {
			fmt.Println("Missing required items:")
			for _, name := range resp.RequiredItems {
				fmt.Printf("  - %s\n", name)
			}
		}
		printValidationErrors(resp.ValidationErrors)
		if resp.Error != "" {
			return fmt.Errorf("save rejected: %s", resp.Error)
		}
		return fmt.Errorf("save rejected")
	}

	saved := resp.Sequence
	if saved == 0 {
		saved = t.sequence
	}
	fmt.Printf("✓ Config saved (sequence %d)\n", saved)
	t.recordSave(saved)
	return nil
}

func printValidationErrors(overlay []appconfig.GroupValidationErrors) {
	if len(overlay) == 0 {
		return
	}
	fmt.Println("Validation errors:")
	for _, group := range overlay {
		for _, item := range group.ItemErrors {
			for _, e := range item.ValidationErrors {
				fmt.Printf("  %s.%s: %s\n", group.Name, item.Name, e.Message)
			}
		}
	}
}

// addCmd adds a repeatable-item instance
var addCmd = &cobra.Command{
	Use:   "add <group.item>",
	Short: "Add a repeatable-item instance",
	Long: `Add one instance to a repeatable item and save the tree.

The new instance's key is printed; set its value with
'kotsconfig set group.item=value' once supported by the item, or through
the interactive editor.`,
	Example: `  # Add another certificate slot
  kotsconfig add tls.extra_certs --app myapp`,
	Args: cobra.ExactArgs(1),
	RunE: runAdd,
}

func runAdd(cmd *cobra.Command, args []string) error {
	t, err := resolveTarget()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	groupName, itemName, ok := strings.Cut(args[0], ".")
	if !ok {
		return fmt.Errorf("invalid item %q (want group.item)", args[0])
	}

	groups, err := t.fetchGroups(ctx)
	if err != nil {
		return err
	}

	engine := form.NewEngine(groups)
	defer engine.Close()

	key, err := engine.AddInstance(groupName, itemName)
	if err != nil {
		return err
	}
	fmt.Printf("Added instance %q\n", key)

	return saveGroups(ctx, t, engine.Snapshot().Groups)
}

// removeCmd removes a repeatable-item instance
var removeCmd = &cobra.Command{
	Use:   "remove <group.item> <key>",
	Short: "Remove a repeatable-item instance",
	Long:  `Remove the keyed instance from a repeatable item and save the tree.`,
	Example: `  # Remove one certificate slot
  kotsconfig remove tls.extra_certs extra_certs-2 --app myapp`,
	Args: cobra.ExactArgs(2),
	RunE: runRemove,
}

func runRemove(cmd *cobra.Command, args []string) error {
	t, err := resolveTarget()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	groupName, itemName, ok := strings.Cut(args[0], ".")
	if !ok {
		return fmt.Errorf("invalid item %q (want group.item)", args[0])
	}

	groups, err := t.fetchGroups(ctx)
	if err != nil {
		return err
	}

	engine := form.NewEngine(groups)
	defer engine.Close()

	if err := engine.RemoveInstance(groupName, itemName, args[1]); err != nil {
		return err
	}
	fmt.Printf("Removed instance %q\n", args[1])

	return saveGroups(ctx, t, engine.Snapshot().Groups)
}

// validateCmd runs one validation pass without saving
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the config without saving",
	Long: `Run one live-validation pass over the current config tree.

Prints any validation errors and missing required items. Exits non-zero
when the tree would not save cleanly.`,
	Example: `  kotsconfig validate --app myapp`,
	RunE:    runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	t, err := resolveTarget()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	groups, err := t.fetchGroups(ctx)
	if err != nil {
		return err
	}

	live, err := t.client.LiveConfig(ctx, t.app, t.sequence, groups)
	if err != nil {
		return fmt.Errorf("validation request failed: %w", err)
	}

	required := appconfig.RequiredItems(live.ConfigGroups)
	if len(required) > 0 {
		fmt.Println("Missing required items:")
		for _, name := range required {
			fmt.Printf("  - %s\n", name)
		}
	}
	printValidationErrors(live.ValidationErrors)

	if len(required) > 0 || len(live.ValidationErrors) > 0 {
		return fmt.Errorf("config is not valid")
	}

	fmt.Println("✓ Config is valid")
	return nil
}

// saveCmd saves the current tree as-is
var saveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save the config tree",
	Long: `Save the current config tree back to the console.

Useful with --new-version to promote the current values to a new
sequence. The console rejects the save if required items are missing or
validation errors remain.`,
	Example: `  # Promote the current values to a new sequence
  kotsconfig save --app myapp --new-version`,
	RunE: runSave,
}

func init() {
	saveCmd.Flags().BoolVar(&newVersion, "new-version", false, "Save as a new sequence instead of updating in place")
}

func runSave(cmd *cobra.Command, args []string) error {
	t, err := resolveTarget()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	groups, err := t.fetchGroups(ctx)
	if err != nil {
		return err
	}

	return saveGroups(ctx, t, groups)
}

// downloadCmd fetches an uploaded file
var downloadCmd = &cobra.Command{
	Use:   "download <filename>",
	Short: "Download an uploaded config file",
	Long: `Download a previously uploaded file's contents from the console.

The file is written under its original name unless --output is given.`,
	Example: `  # Download a certificate to the current directory
  kotsconfig download ca.pem --app myapp

  # Download to a specific path
  kotsconfig download ca.pem --app myapp --output /tmp/ca.pem`,
	Args: cobra.ExactArgs(1),
	RunE: runDownload,
}

func init() {
	downloadCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write to this path instead of the original filename")
}

func runDownload(cmd *cobra.Command, args []string) error {
	t, err := resolveTarget()
	if err != nil {
		return err
	}

	filename := args[0]
	data, err := t.client.DownloadFile(cmd.Context(), t.app, t.sequence, filename)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}

	dest := outputPath
	if dest == "" {
		dest = filename
	}
	if err := os.WriteFile(dest, data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", dest, err)
	}

	fmt.Printf("✓ Wrote %d bytes to %s\n", len(data), dest)
	return nil
}

// editCmd launches the interactive TUI editor
var editCmd = &cobra.Command{
	Use:   "edit",
	Short: "Launch the interactive config editor",
	Long: `Launch an interactive terminal editor over the config tree.

Edits are validated against the console as you type, on the debounce
schedule from the local registry's preferences. Ctrl+S saves.

This is the recommended way to edit config for most users.`,
	Example: `  # Launch the editor
  kotsconfig edit --app myapp
  # Or simply (edit is default):
  kotsconfig --app myapp`,
	RunE: runEdit,
}

func runEdit(cmd *cobra.Command, args []string) error {
	t, err := resolveTarget()
	if err != nil {
		return err
	}

	groups, err := t.fetchGroups(cmd.Context())
	if err != nil {
		return err
	}

	var validator form.Validator
	debounce := form.DefaultDebounce
	if prefs := t.registry.Preferences; prefs != nil {
		if prefs.LiveValidation {
			validator = &form.ClientValidator{Client: t.client, AppSlug: t.app, Sequence: t.sequence}
		}
		if prefs.DebounceMillis > 0 {
			debounce = time.Duration(prefs.DebounceMillis) * time.Millisecond
		}
	}

	saver := &form.ClientSaver{Client: t.client, AppSlug: t.app, Sequence: t.sequence}

	return ui.Run(groups, validator, saver, debounce)
}
