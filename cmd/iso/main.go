// Command iso is the Isomer management tool. It operates on an
// instance's object database and schemata, provisions default data,
// scaffolds plugin packages, maintains the error documentation pages
// and emits the CI environment matrix.
package main

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ri0t/isomer/cmd/iso/ui"
	"github.com/ri0t/isomer/internal/config"
	"github.com/ri0t/isomer/internal/database"
	"github.com/ri0t/isomer/internal/errors"
	"github.com/ri0t/isomer/internal/logging"
)

// Version is stamped at build time.
var Version = "1.0.0"

const defaultConfigPath = "/etc/isomer/isomer.conf"

var (
	// Global flags
	flagConfig  string
	flagVerbose bool
	flagQuiet   bool
	flagNoColor bool

	logger *zap.Logger
	styles ui.Styles
)

var rootCmd = &cobra.Command{
	Use:   "iso",
	Short: "Isomer instance and plugin management tool",
	Long: `iso manages Isomer instances and plugin development.

It operates on the object database (view, modify, validate, export),
the registered schemata, default data provisioning, plugin package
scaffolding, the error documentation pages and the CI environment
matrix.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.CloseAll()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the iso tool version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", styles.Badge.Render("iso"), Version)
	},
}

func setup(cmd *cobra.Command, args []string) error {
	styles = ui.NewStyles(flagNoColor || os.Getenv("NO_COLOR") != "")

	zcfg := zap.NewProductionConfig()
	zcfg.OutputPaths = []string{"stderr"}
	switch {
	case flagQuiet:
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.ErrorLevel)
	case flagVerbose:
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	default:
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	}
	var err error
	logger, err = zcfg.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	// Categorized file logging follows the config file when one exists.
	if err := logging.Initialize(configPath()); err != nil {
		logger.Debug("file logging unavailable", zap.Error(err))
	}
	if flagVerbose {
		logging.SetLevel(logging.LevelVerbose)
	}
	if flagQuiet {
		logging.SetLevel(logging.LevelError)
	}
	return nil
}

func configPath() string {
	if flagConfig != "" {
		return flagConfig
	}
	if env := os.Getenv("ISOMER_CONFIG"); env != "" {
		return env
	}
	return defaultConfigPath
}

func loadConfig() (*config.Config, error) {
	return config.Load(configPath())
}

// openStore loads the configuration and opens the object database,
// the shared preamble of every db subcommand.
func openStore(ctx context.Context) (*database.Store, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	store, err := database.Initialize(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return store, cfg, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// confirm asks a yes/no question on the command's streams. Anything
// but an explicit yes declines.
func confirm(cmd *cobra.Command, prompt string) bool {
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N]: ", prompt)
	line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	line = strings.ToLower(strings.TrimSpace(line))
	return line == "y" || line == "yes"
}

// usageError marks command line mistakes so they exit with 64 instead
// of a runtime error code.
type usageError struct {
	err error
}

func (u *usageError) Error() string { return u.err.Error() }
func (u *usageError) Unwrap() error { return u.err }

func usagef(format string, args ...interface{}) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return usagef("%s expects %d argument(s), got %d", cmd.CommandPath(), n, len(args))
		}
		return nil
	}
}

func rangeArgs(min, max int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) < min || len(args) > max {
			return usagef("%s expects between %d and %d arguments, got %d",
				cmd.CommandPath(), min, max, len(args))
		}
		return nil
	}
}

func exitCodeFor(err error) int {
	var ue *usageError
	if stderrors.As(err, &ue) {
		return errors.UsageExitCode
	}
	// cobra reports unknown commands and flags as plain errors.
	if strings.HasPrefix(err.Error(), "unknown command") ||
		strings.HasPrefix(err.Error(), "unknown flag") ||
		strings.HasPrefix(err.Error(), "unknown shorthand flag") {
		return errors.UsageExitCode
	}
	return errors.ExitCode(err)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "Path to isomer.conf (default "+defaultConfigPath+")")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Only report errors")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(pluginCmd)
	rootCmd.AddCommand(errorsCmd)
	rootCmd.AddCommand(matrixCmd)
	rootCmd.AddCommand(schemataCmd)
	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(systemCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		errors.Print(os.Stderr, err)
		code := exitCodeFor(err)
		if code == errors.UsageExitCode {
			fmt.Fprintln(os.Stderr, "run 'iso --help' for usage")
		}
		os.Exit(code)
	}
}
