package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ri0t/isomer/cmd/iso/ui"
	"github.com/ri0t/isomer/internal/errors"
	"github.com/ri0t/isomer/internal/schemata"
)

var schemataCmd = &cobra.Command{
	Use:   "schemata",
	Short: "Inspect the registered object schemata",
}

var schemataListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered schemata",
	Args:  exactArgs(0),
	RunE:  runSchemataList,
}

var schemataShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show one schema definition",
	Args:  exactArgs(1),
	RunE:  runSchemataShow,
}

var schemataValidateCmd = &cobra.Command{
	Use:   "validate <name> <file.json>",
	Short: "Validate a JSON document against a schema",
	Args:  exactArgs(2),
	RunE:  runSchemataValidate,
}

func runSchemataList(cmd *cobra.Command, args []string) error {
	table := ui.NewTable("Registered schemata", "Name", "Fields", "Create roles", "Form")
	for _, name := range schemata.Names() {
		def, err := schemata.Get(name)
		if err != nil {
			return err
		}
		form := "-"
		if len(def.Form) > 0 {
			form = "yes"
		}
		table.AddRow(name,
			strconv.Itoa(len(def.Schema.Properties)),
			strings.Join(def.Schema.RolesCreate, ", "),
			form)
	}
	fmt.Fprint(cmd.OutOrStdout(), table.View(styles))
	return nil
}

func runSchemataShow(cmd *cobra.Command, args []string) error {
	def, err := schemata.Get(args[0])
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(def)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, styles.Title.Render("Schema "+args[0]))
	fmt.Fprint(out, string(data))
	return nil
}

func runSchemataValidate(cmd *cobra.Command, args []string) error {
	name, path := args[0], args[1]
	def, err := schemata.Get(name)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var obj map[string]interface{}
	if err := json.Unmarshal(data, &obj); err != nil {
		return errors.Wrap(errors.ObjectInvalid, path+" is not a JSON document", err)
	}

	if err := schemata.ValidateObject(def.Schema, obj); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), styles.Success.Render(
		fmt.Sprintf("%s conforms to schema %q", path, name)))
	return nil
}

func init() {
	schemataCmd.AddCommand(schemataListCmd)
	schemataCmd.AddCommand(schemataShowCmd)
	schemataCmd.AddCommand(schemataValidateCmd)
}
