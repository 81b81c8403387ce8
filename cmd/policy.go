package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Inspect and edit the whitelist and blacklist",
}

var policyListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the critical set, whitelist and blacklist",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		p := a.booster.Policy()
		printList("Critical (built in)", p.Critical())
		printList("Whitelist", p.Whitelist())
		printList("Blacklist", p.Blacklist())
		return nil
	},
}

func printList(title string, names []string) {
	fmt.Printf("%s: %d\n", title, len(names))
	for _, n := range names {
		fmt.Printf("  %s\n", n)
	}
	fmt.Println()
}

func init() {
	policyCmd.AddCommand(policyListCmd)
	policyCmd.AddCommand(policyEditCmd("protect", "Add names to the whitelist", "whitelisted", func(a *app) func(string) (bool, error) { return a.booster.Protect }))
	policyCmd.AddCommand(policyEditCmd("unprotect", "Remove names from the whitelist", "removed from whitelist", func(a *app) func(string) (bool, error) { return a.booster.Unprotect }))
	policyCmd.AddCommand(policyEditCmd("flag", "Add names to the blacklist", "blacklisted", func(a *app) func(string) (bool, error) { return a.booster.Flag }))
	policyCmd.AddCommand(policyEditCmd("unflag", "Remove names from the blacklist", "removed from blacklist", func(a *app) func(string) (bool, error) { return a.booster.Unflag }))
}

func policyEditCmd(use, short, verb string, op func(*app) func(string) (bool, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <name>...",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			fn := op(a)
			for _, name := range args {
				changed, err := fn(name)
				if err != nil {
					return err
				}
				if changed {
					a.notifier.Info(fmt.Sprintf("%s: %s", name, verb))
				} else {
					a.notifier.Info(fmt.Sprintf("%s: no change", name))
				}
			}
			return nil
		},
	}
}
