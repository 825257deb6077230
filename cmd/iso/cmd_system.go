package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ri0t/isomer/cmd/iso/ui"
	"github.com/ri0t/isomer/internal/config"
	"github.com/ri0t/isomer/internal/registry"
)

var (
	systemBase  string
	systemForce bool
)

var systemCmd = &cobra.Command{
	Use:   "system",
	Short: "Configure, check and run an Isomer instance",
}

var systemConfigureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Write a default configuration and create the instance paths",
	Args:  exactArgs(0),
	RunE:  runSystemConfigure,
}

var systemCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the configuration and the instance environment",
	Args:  exactArgs(0),
	RunE:  runSystemCheck,
}

var systemPathsCmd = &cobra.Command{
	Use:   "paths",
	Short: "Show the instance paths and their state",
	Args:  exactArgs(0),
	RunE:  runSystemPaths,
}

var systemUpgradeCmd = &cobra.Command{
	Use:   "upgrade",
	Short: "Upgrade the configuration file to the current version",
	Args:  exactArgs(0),
	RunE:  runSystemUpgrade,
}

var systemLaunchCmd = &cobra.Command{
	Use:   "launch [components...]",
	Short: "Run the registered components until interrupted",
	Long: `Opens the object database and launches the named components, or all
registered ones when none are given. Components run until the process
receives SIGINT or SIGTERM.`,
	RunE: runSystemLaunch,
}

func runSystemConfigure(cmd *cobra.Command, args []string) error {
	cfg := config.Default(systemBase)
	path := configPath()

	if err := cfg.Write(path, systemForce); err != nil {
		return err
	}
	if err := cfg.EnsurePaths(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, styles.Success.Render("wrote "+path))
	for _, st := range cfg.CheckPaths() {
		fmt.Fprintf(out, "  %s %s\n", styles.Muted.Render(st.Name+":"), st.Path)
	}
	return nil
}

func runSystemCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.CheckEnvironment(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %s (config version %d)\n",
		styles.Success.Render("environment ok"), cfg.Instance, cfg.Version)
	return nil
}

func runSystemPaths(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	table := ui.NewTable("Instance paths", "Name", "Path", "Exists", "Writable", "Free MB")
	for _, st := range cfg.CheckPaths() {
		table.AddRow(st.Name, st.Path,
			yesNo(st.Exists), yesNo(st.Writable), strconv.FormatInt(st.FreeMB, 10))
	}
	fmt.Fprint(cmd.OutOrStdout(), table.View(styles))
	return nil
}

func runSystemUpgrade(cmd *cobra.Command, args []string) error {
	applied, err := config.Upgrade(configPath())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(applied) == 0 {
		fmt.Fprintln(out, styles.Muted.Render("configuration already at the current version"))
		return nil
	}
	steps := make([]string, len(applied))
	for i, v := range applied {
		steps[i] = strconv.Itoa(v)
	}
	fmt.Fprintln(out, styles.Success.Render(
		"applied upgrade step(s) "+strings.Join(steps, ", ")))
	return nil
}

func runSystemLaunch(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	store, cfg, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	names := args
	if len(names) == 0 {
		names = registry.Names()
	}
	logger.Info("launching components", zap.Strings("components", names))
	fmt.Fprintln(cmd.OutOrStdout(), styles.Muted.Render(
		"running "+strings.Join(names, ", ")+", ctrl-c to stop"))

	return registry.Launch(ctx, cfg, store, names...)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func init() {
	systemConfigureCmd.Flags().StringVar(&systemBase, "base", "", "Instance base directory (default /var/lib/isomer)")
	systemConfigureCmd.Flags().BoolVar(&systemForce, "force", false, "Overwrite an existing configuration")

	systemCmd.AddCommand(systemConfigureCmd)
	systemCmd.AddCommand(systemCheckCmd)
	systemCmd.AddCommand(systemPathsCmd)
	systemCmd.AddCommand(systemUpgradeCmd)
	systemCmd.AddCommand(systemLaunchCmd)
}
