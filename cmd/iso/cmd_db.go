package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ri0t/isomer/cmd/iso/ui"
	"github.com/ri0t/isomer/internal/database"
	"github.com/ri0t/isomer/internal/errors"
	"github.com/ri0t/isomer/internal/provisions"
)

var (
	dbFilters      []string
	dbUUID         string
	dbYes          bool
	dbExportDir    string
	dbExportPretty bool
	dbExportOmit   []string
	dbWipe         bool
	dbSkipExisting bool
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Operate on the object database",
}

var dbStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show store location, size and collection counts",
	Args:  exactArgs(0),
	RunE:  runDBStatus,
}

var dbViewCmd = &cobra.Command{
	Use:   "view <schema>",
	Short: "Print objects of a schema as JSON",
	Args:  exactArgs(1),
	RunE:  runDBView,
}

var dbModifyCmd = &cobra.Command{
	Use:   "modify <schema> <uuid> <field> <value>",
	Short: "Set one field of a stored object",
	Long: `Sets a single field and saves the object back through schema
validation. The value is parsed as JSON when possible, otherwise it is
taken as a plain string.`,
	Args: exactArgs(4),
	RunE: runDBModify,
}

var dbDeleteCmd = &cobra.Command{
	Use:   "delete <schema> <uuid>",
	Short: "Delete one object",
	Args:  exactArgs(2),
	RunE:  runDBDelete,
}

var dbDropCmd = &cobra.Command{
	Use:   "drop <schema>",
	Short: "Delete every object of a schema",
	Args:  exactArgs(1),
	RunE:  runDBDrop,
}

var dbValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate every stored object against its schema",
	Args:  exactArgs(0),
	RunE:  runDBValidate,
}

var dbExportCmd = &cobra.Command{
	Use:   "export [schema]",
	Short: "Export collections as JSON",
	Long: `With a schema argument the collection is written to stdout (or into
--output). Without one, every collection is exported into --output,
one JSON file per schema.`,
	Args: rangeArgs(0, 1),
	RunE: runDBExport,
}

var dbProvisionCmd = &cobra.Command{
	Use:   "provision [names...]",
	Short: "Install the default provisioned objects",
	RunE:  runDBProvision,
}

func runDBStatus(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	store, _, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	stats, err := store.Stats()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %s\n", styles.Bold.Render("Store:"), stats.Path)
	fmt.Fprintf(out, "%s %d bytes\n", styles.Bold.Render("Size:"), stats.SizeBytes)

	names := make([]string, 0, len(stats.Collections))
	for name := range stats.Collections {
		names = append(names, name)
	}
	sort.Strings(names)

	table := ui.NewTable("Collections", "Schema", "Objects")
	for _, name := range names {
		table.AddRow(name, strconv.FormatInt(stats.Collections[name], 10))
	}
	fmt.Fprint(out, table.View(styles))
	return nil
}

func runDBView(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	store, _, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	schema := args[0]
	var objects []database.Object
	if dbUUID != "" {
		obj, err := store.FindOne(ctx, schema, dbUUID)
		if err != nil {
			return err
		}
		objects = []database.Object{obj}
	} else {
		filter, err := parseFilters(dbFilters)
		if err != nil {
			return err
		}
		objects, err = store.Find(ctx, schema, filter)
		if err != nil {
			return err
		}
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	for _, obj := range objects {
		if err := enc.Encode(obj); err != nil {
			return err
		}
	}
	fmt.Fprintln(cmd.OutOrStdout(), styles.Muted.Render(
		fmt.Sprintf("%d object(s)", len(objects))))
	return nil
}

func runDBModify(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	store, _, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	schema, id, field, raw := args[0], args[1], args[2], args[3]
	obj, err := store.FindOne(ctx, schema, id)
	if err != nil {
		return err
	}

	obj[field] = parseJSONValue(raw)
	if _, err := store.Save(ctx, schema, obj); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), styles.Success.Render(
		fmt.Sprintf("updated %s %s", schema, id)))
	return nil
}

func runDBDelete(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	schema, id := args[0], args[1]
	if !dbYes && !confirm(cmd, fmt.Sprintf("Delete %s object %s?", schema, id)) {
		fmt.Fprintln(cmd.OutOrStdout(), styles.Muted.Render("aborted"))
		return nil
	}

	store, _, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Delete(ctx, schema, id); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), styles.Success.Render(
		fmt.Sprintf("deleted %s %s", schema, id)))
	return nil
}

func runDBDrop(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	schema := args[0]
	if !dbYes && !confirm(cmd, fmt.Sprintf("Drop ALL objects of schema %q?", schema)) {
		fmt.Fprintln(cmd.OutOrStdout(), styles.Muted.Render("aborted"))
		return nil
	}

	store, _, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Drop(ctx, schema); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), styles.Success.Render("dropped "+schema))
	return nil
}

func runDBValidate(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	store, _, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	invalid, err := store.ValidateAll(ctx)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(invalid) == 0 {
		fmt.Fprintln(out, styles.Success.Render("all stored objects conform to their schemata"))
		return nil
	}

	table := ui.NewTable("Invalid objects", "Schema", "UUID", "Problem")
	for _, p := range invalid {
		table.AddRow(p.Schema, p.UUID, p.Err.Error())
	}
	fmt.Fprint(out, table.View(styles))
	return errors.Newf(errors.ObjectInvalid, "%d invalid object(s)", len(invalid))
}

func runDBExport(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	store, _, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	opts := database.ExportOptions{Pretty: dbExportPretty, Omit: dbExportOmit}
	out := cmd.OutOrStdout()

	if len(args) == 1 {
		schema := args[0]
		if dbExportDir == "" {
			return store.Export(ctx, schema, out, opts)
		}
		if err := os.MkdirAll(dbExportDir, 0o755); err != nil {
			return err
		}
		path := filepath.Join(dbExportDir, schema+".json")
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := store.Export(ctx, schema, f, opts); err != nil {
			return err
		}
		fmt.Fprintln(out, styles.Success.Render("wrote "+path))
		return nil
	}

	if dbExportDir == "" {
		return usagef("--output is required when exporting all collections")
	}
	written, err := store.ExportAll(ctx, dbExportDir, opts)
	if err != nil {
		return err
	}
	for _, path := range written {
		fmt.Fprintln(out, styles.Muted.Render("wrote "+path))
	}
	fmt.Fprintln(out, styles.Success.Render(
		fmt.Sprintf("exported %d collection(s) to %s", len(written), dbExportDir)))
	return nil
}

func runDBProvision(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	if dbWipe && !dbYes && !confirm(cmd, "Wipe existing objects before provisioning?") {
		fmt.Fprintln(cmd.OutOrStdout(), styles.Muted.Render("aborted"))
		return nil
	}

	store, _, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	res, err := provisions.Apply(ctx, store,
		provisions.Options{Wipe: dbWipe, SkipExisting: dbSkipExisting}, args...)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), styles.Success.Render(fmt.Sprintf(
		"provisioned %d object(s), skipped %d, wiped %d", res.Provisioned, res.Skipped, res.Wiped)))
	return nil
}

func parseFilters(raw []string) (map[string]interface{}, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	filter := make(map[string]interface{}, len(raw))
	for _, pair := range raw {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, usagef("filter %q is not key=value", pair)
		}
		filter[key] = parseJSONValue(value)
	}
	return filter, nil
}

// parseJSONValue interprets raw as a JSON literal when it is one, so
// booleans and numbers filter as their typed form.
func parseJSONValue(raw string) interface{} {
	var v interface{}
	if err := json.Unmarshal([]byte(raw), &v); err == nil {
		return v
	}
	return raw
}

func init() {
	dbViewCmd.Flags().StringArrayVarP(&dbFilters, "filter", "f", nil, "Field equality filter key=value, repeatable")
	dbViewCmd.Flags().StringVar(&dbUUID, "uuid", "", "Fetch one object by uuid")

	dbDeleteCmd.Flags().BoolVarP(&dbYes, "yes", "y", false, "Skip confirmation")
	dbDropCmd.Flags().BoolVarP(&dbYes, "yes", "y", false, "Skip confirmation")
	dbProvisionCmd.Flags().BoolVarP(&dbYes, "yes", "y", false, "Skip confirmation")

	dbExportCmd.Flags().StringVarP(&dbExportDir, "output", "o", "", "Directory to export into")
	dbExportCmd.Flags().BoolVar(&dbExportPretty, "pretty", false, "Indent the exported JSON")
	dbExportCmd.Flags().StringSliceVar(&dbExportOmit, "omit", nil, "Fields to leave out of the export")

	dbProvisionCmd.Flags().BoolVar(&dbWipe, "wipe", false, "Drop provisioned collections first")
	dbProvisionCmd.Flags().BoolVar(&dbSkipExisting, "skip-existing", false, "Keep objects that already exist")

	dbCmd.AddCommand(dbStatusCmd)
	dbCmd.AddCommand(dbViewCmd)
	dbCmd.AddCommand(dbModifyCmd)
	dbCmd.AddCommand(dbDeleteCmd)
	dbCmd.AddCommand(dbDropCmd)
	dbCmd.AddCommand(dbValidateCmd)
	dbCmd.AddCommand(dbExportCmd)
	dbCmd.AddCommand(dbProvisionCmd)
}
