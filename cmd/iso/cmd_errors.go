package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ri0t/isomer/cmd/iso/ui"
	"github.com/ri0t/isomer/internal/docs"
	"github.com/ri0t/isomer/internal/errors"
)

var (
	docsDir     string
	docsBaseURL string
)

var errorsCmd = &cobra.Command{
	Use:   "errors",
	Short: "Inspect the stable error codes and their documentation",
}

var errorsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every registered error code",
	Args:  exactArgs(0),
	RunE:  runErrorsList,
}

var errorsShowCmd = &cobra.Command{
	Use:   "show <code>",
	Short: "Show one error page in full",
	Args:  exactArgs(1),
	RunE:  runErrorsShow,
}

var errorsDocsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Generate and verify the error documentation pages",
}

var docsGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write one RST page per registered error code",
	Args:  exactArgs(0),
	RunE:  runDocsGenerate,
}

var docsVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check the page directory against the registry",
	Args:  exactArgs(0),
	RunE:  runDocsVerify,
}

var docsWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Revalidate pages as they change, until interrupted",
	Args:  exactArgs(0),
	RunE:  runDocsWatch,
}

func runErrorsList(cmd *cobra.Command, args []string) error {
	pages, err := errors.Pages()
	if err != nil {
		return err
	}
	table := ui.NewTable("Registered error codes", "Code", "Title")
	for _, page := range pages {
		table.AddRow(strconv.Itoa(int(page.Code)), page.Title)
	}
	fmt.Fprint(cmd.OutOrStdout(), table.View(styles))
	return nil
}

func runErrorsShow(cmd *cobra.Command, args []string) error {
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return usagef("%q is not a numeric error code", args[0])
	}
	page, err := errors.Lookup(errors.Code(n))
	if err != nil {
		return err
	}

	baseURL := errors.DefaultDocsBaseURL
	if cfg, err := loadConfig(); err == nil {
		baseURL = cfg.Docs.BaseURL
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %s\n\n", styles.Badge.Render(strconv.Itoa(int(page.Code))), styles.Title.Render(page.Title))
	fmt.Fprintln(out, page.Message)
	if len(page.Symptoms) > 0 {
		fmt.Fprintf(out, "\n%s\n", styles.Bold.Render("Symptoms"))
		for _, s := range page.Symptoms {
			fmt.Fprintf(out, "  - %s\n", s)
		}
	}
	if len(page.Remedies) > 0 {
		fmt.Fprintf(out, "\n%s\n", styles.Bold.Render("Remedies"))
		for _, r := range page.Remedies {
			fmt.Fprintf(out, "  - %s\n", r)
		}
	}
	fmt.Fprintf(out, "\n%s\n", styles.Muted.Render(page.DocURL(baseURL)))
	return nil
}

func runDocsGenerate(cmd *cobra.Command, args []string) error {
	res, err := docs.Generate(docsDir, docsBaseURL)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), styles.Success.Render(fmt.Sprintf(
		"%d created, %d updated, %d unchanged in %s",
		len(res.Created), len(res.Updated), len(res.Unchanged), docsDir)))
	return nil
}

func runDocsVerify(cmd *cobra.Command, args []string) error {
	problems, err := docs.VerifyDir(docsDir)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(problems) == 0 {
		fmt.Fprintln(out, styles.Success.Render("all error pages match the registry"))
		return nil
	}
	table := ui.NewTable("Page problems", "Page", "Problem")
	for _, p := range problems {
		table.AddRow(p.Path, p.Err.Error())
	}
	fmt.Fprint(out, table.View(styles))
	return errors.Newf(errors.PageInvalid, "%d documentation page problem(s)", len(problems))
}

func runDocsWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	out := cmd.OutOrStdout()
	watcher, err := docs.NewWatcher(docsDir, func(path string, err error) {
		if err != nil {
			fmt.Fprintf(out, "%s %s: %v\n", styles.Error.Render("FAIL"), path, err)
			return
		}
		fmt.Fprintf(out, "%s %s\n", styles.Success.Render("OK"), path)
	})
	if err != nil {
		return err
	}

	if err := watcher.Start(ctx); err != nil {
		return err
	}
	defer watcher.Stop()

	if err := watcher.CheckAll(); err != nil {
		return err
	}
	logger.Info("watching error pages", zap.String("dir", docsDir))
	fmt.Fprintln(out, styles.Muted.Render("watching "+docsDir+", ctrl-c to stop"))

	<-ctx.Done()
	stats := watcher.Stats()
	fmt.Fprintf(out, "\n%d change(s), %d check(s), %d failure(s)\n",
		stats.FilesChanged, stats.ChecksRun, stats.Failures)
	return nil
}

func init() {
	errorsDocsCmd.PersistentFlags().StringVar(&docsDir, "dir", "docs/errors", "Page directory")
	errorsDocsCmd.PersistentFlags().StringVar(&docsBaseURL, "base-url", errors.DefaultDocsBaseURL, "Hosted documentation base URL")

	errorsDocsCmd.AddCommand(docsGenerateCmd)
	errorsDocsCmd.AddCommand(docsVerifyCmd)
	errorsDocsCmd.AddCommand(docsWatchCmd)

	errorsCmd.AddCommand(errorsListCmd)
	errorsCmd.AddCommand(errorsShowCmd)
	errorsCmd.AddCommand(errorsDocsCmd)
}
