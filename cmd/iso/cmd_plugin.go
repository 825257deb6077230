package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ri0t/isomer/cmd/iso/ui"
	"github.com/ri0t/isomer/internal/errors"
	"github.com/ri0t/isomer/internal/scaffold"
	"github.com/ri0t/isomer/internal/template"
)

var (
	pluginName        string
	pluginComponent   string
	pluginDescription string
	pluginAuthor      string
	pluginEmail       string
	pluginLicense     string
	pluginRelease     string
	pluginURL         string
	pluginKeywords    []string
	pluginTarget      string
	pluginForce       bool
	pluginNoInput     bool
)

var pluginCmd = &cobra.Command{
	Use:   "plugin",
	Short: "Create and inspect Isomer plugin packages",
}

var pluginCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Scaffold a new plugin package",
	Long: `Creates a complete plugin package below the target directory:
manifest (setup.py), README, LICENSE, tox.ini, docs stub, and the
namespaced module with a component and a schema stub.

Missing answers are collected interactively; pass --non-interactive to
require everything as flags.`,
	Args: rangeArgs(0, 1),
	RunE: runPluginCreate,
}

var pluginTokensCmd = &cobra.Command{
	Use:   "tokens",
	Short: "List the placeholder tokens of the manifest template",
	Args:  exactArgs(0),
	RunE:  runPluginTokens,
}

var pluginValidateCmd = &cobra.Command{
	Use:   "validate <dir>",
	Short: "Check a generated plugin package for unresolved template markers",
	Args:  exactArgs(1),
	RunE:  runPluginValidate,
}

func runPluginCreate(cmd *cobra.Command, args []string) error {
	p := &scaffold.Plugin{
		Name:          pluginName,
		ComponentName: pluginComponent,
		Description:   pluginDescription,
		AuthorName:    pluginAuthor,
		AuthorEmail:   pluginEmail,
		License:       pluginLicense,
		Version:       pluginRelease,
		GithubURL:     pluginURL,
		Keywords:      pluginKeywords,
	}
	if len(args) == 1 {
		p.Name = args[0]
	}

	if pluginNoInput {
		if p.Name == "" {
			return usagef("a plugin name is required with --non-interactive")
		}
	} else {
		q := scaffold.NewQuestionnaire(cmd.InOrStdin(), cmd.OutOrStdout())
		if err := q.Run(p); err != nil {
			return err
		}
	}

	res, err := scaffold.New(p, pluginTarget, pluginForce)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, styles.Success.Render(fmt.Sprintf("Created plugin %q in %s", p.Name, res.Dir)))
	table := ui.NewTable("", "File", "Status")
	for _, rel := range res.Created {
		table.AddRow(rel, "written")
	}
	for _, rel := range res.Skipped {
		table.AddRow(rel, "unchanged")
	}
	fmt.Fprint(out, table.View(styles))
	return nil
}

func runPluginTokens(cmd *cobra.Command, args []string) error {
	tokens, err := scaffold.ManifestTokens()
	if err != nil {
		return err
	}

	sample := &scaffold.Plugin{
		Name:          "weather",
		ComponentName: "Weather",
		Description:   "Weather data for Isomer",
		AuthorName:    "A. Developer",
		AuthorEmail:   "dev@example.com",
		Year:          time.Now().Year(),
	}
	sample.ApplyDefaults()
	ctx, err := sample.Tokens()
	if err != nil {
		return err
	}

	table := ui.NewTable("Manifest tokens", "Token", "Example")
	for _, tok := range tokens {
		table.AddRow(tok, firstLine(ctx[tok], 48))
	}
	fmt.Fprint(cmd.OutOrStdout(), table.View(styles))
	return nil
}

func runPluginValidate(cmd *cobra.Command, args []string) error {
	dir := args[0]
	if _, err := os.Stat(filepath.Join(dir, "setup.py")); err != nil {
		return errors.Wrap(errors.TemplateIncomplete, "no setup.py manifest in "+dir, err)
	}

	var bad []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" || d.Name() == ".tox" {
				return filepath.SkipDir
			}
			return nil
		}
		switch filepath.Ext(path) {
		case ".py", ".rst", ".ini", ".cfg", ".txt", "":
		default:
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if leftover := template.Unresolved(string(content)); len(leftover) > 0 {
			rel, _ := filepath.Rel(dir, path)
			bad = append(bad, fmt.Sprintf("%s: %s", rel, strings.Join(leftover, ", ")))
		}
		return nil
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(bad) > 0 {
		for _, b := range bad {
			fmt.Fprintln(out, styles.Error.Render(b))
		}
		return errors.Newf(errors.TemplateIncomplete,
			"%d file(s) contain unresolved template markers", len(bad))
	}
	fmt.Fprintln(out, styles.Success.Render("package is fully rendered, no template markers left"))
	return nil
}

func firstLine(s string, max int) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > max {
		return s[:max-3] + "..."
	}
	return s
}

func init() {
	pluginCreateCmd.Flags().StringVarP(&pluginName, "name", "n", "", "Plugin name (lowercase)")
	pluginCreateCmd.Flags().StringVar(&pluginComponent, "component", "", "Component name (CamelCase, derived from name)")
	pluginCreateCmd.Flags().StringVarP(&pluginDescription, "description", "d", "", "Short description")
	pluginCreateCmd.Flags().StringVar(&pluginAuthor, "author-name", "", "Author name")
	pluginCreateCmd.Flags().StringVar(&pluginEmail, "author-email", "", "Author email")
	pluginCreateCmd.Flags().StringVar(&pluginLicense, "license", "", "License id (default "+scaffold.DefaultLicense+")")
	pluginCreateCmd.Flags().StringVar(&pluginRelease, "set-version", "", "Initial version (default 0.0.1)")
	pluginCreateCmd.Flags().StringVar(&pluginURL, "url", "", "Repository URL")
	pluginCreateCmd.Flags().StringSliceVar(&pluginKeywords, "keywords", nil, "Keywords")
	pluginCreateCmd.Flags().StringVarP(&pluginTarget, "target", "t", ".", "Directory to create the package in")
	pluginCreateCmd.Flags().BoolVar(&pluginForce, "force", false, "Overwrite an existing package directory")
	pluginCreateCmd.Flags().BoolVar(&pluginNoInput, "non-interactive", false, "Never prompt, require flags")

	pluginCmd.AddCommand(pluginCreateCmd)
	pluginCmd.AddCommand(pluginTokensCmd)
	pluginCmd.AddCommand(pluginValidateCmd)
}
