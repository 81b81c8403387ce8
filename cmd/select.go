package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	selectRemove bool
	selectClear  bool
	selectKill   bool
)

var selectCmd = &cobra.Command{
	Use:   "select [name...]",
	Short: "Manage the saved selection of process names",
	Long: `With names, adds them to the saved selection (or removes them with
--remove). --clear empties it and --kill terminates every running process
whose name is selected. Without arguments the selection is printed.`,
	RunE: runSelect,
}

func init() {
	selectCmd.Flags().BoolVar(&selectRemove, "remove", false, "remove the names instead of adding them")
	selectCmd.Flags().BoolVar(&selectClear, "clear", false, "clear the selection")
	selectCmd.Flags().BoolVar(&selectKill, "kill", false, "terminate every selected process")
}

func runSelect(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	b := a.booster
	switch {
	case selectClear:
		if err := b.ClearSelection(); err != nil {
			return err
		}
	case len(args) > 0 && selectRemove:
		if err := b.Deselect(args...); err != nil {
			return err
		}
	case len(args) > 0:
		if err := b.Select(args...); err != nil {
			return err
		}
	}

	if selectKill {
		if _, err := b.Poll(cmd.Context()); err != nil {
			return err
		}
		a.printReport(b.KillSelected(a.decision()))
		return nil
	}

	selected := b.Selected()
	fmt.Printf("Selected: %d\n", len(selected))
	for _, n := range selected {
		fmt.Printf("  %s\n", n)
	}
	return nil
}
