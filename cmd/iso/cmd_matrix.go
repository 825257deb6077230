package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ri0t/isomer/cmd/iso/ui"
	"github.com/ri0t/isomer/internal/matrix"
)

var (
	matrixFile   string
	matrixOutput string
)

var matrixCmd = &cobra.Command{
	Use:   "matrix",
	Short: "Manage the tested environments matrix",
}

var matrixShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the environment matrix",
	Args:  exactArgs(0),
	RunE:  runMatrixShow,
}

var matrixWriteCmd = &cobra.Command{
	Use:   "write",
	Short: "Emit the matrix as a tox.ini",
	Args:  exactArgs(0),
	RunE:  runMatrixWrite,
}

func loadMatrix() (matrix.Matrix, error) {
	if matrixFile == "" {
		return matrix.Default(), nil
	}
	return matrix.Load(matrixFile)
}

func runMatrixShow(cmd *cobra.Command, args []string) error {
	m, err := loadMatrix()
	if err != nil {
		return err
	}
	table := ui.NewTable("Environments", "Env", "Description", "Commands")
	for _, env := range m.Envs {
		table.AddRow(env.Name, env.Description, strings.Join(env.Commands, "; "))
	}
	fmt.Fprint(cmd.OutOrStdout(), table.View(styles))
	return nil
}

func runMatrixWrite(cmd *cobra.Command, args []string) error {
	m, err := loadMatrix()
	if err != nil {
		return err
	}
	if matrixOutput == "-" {
		return m.WriteTox(cmd.OutOrStdout())
	}
	if err := m.WriteToxFile(matrixOutput); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), styles.Success.Render("wrote "+matrixOutput))
	return nil
}

func init() {
	matrixCmd.PersistentFlags().StringVar(&matrixFile, "file", "", "Matrix definition file (default: built-in matrix)")
	matrixWriteCmd.Flags().StringVarP(&matrixOutput, "output", "o", "tox.ini", "Output path, - for stdout")

	matrixCmd.AddCommand(matrixShowCmd)
	matrixCmd.AddCommand(matrixWriteCmd)
}
