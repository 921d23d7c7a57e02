package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/selkies-project/selkies/internal/settings/filestore"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Inspect or edit persisted settings for a namespace",
	Long: `settings reads and writes the same on-disk state the Settings
Reconciler merges against server_settings pushes (spec.md §4.D) — useful
for seeding a namespace's starting values before the first connect.`,
}

var settingsGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one persisted setting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := filestore.New(cfg.StateDir)
		v, ok := store.Get(cfg.Namespace, args[0])
		if !ok {
			return fmt.Errorf("no value for %q in namespace %q", args[0], cfg.Namespace)
		}
		fmt.Println(v)
		return nil
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Persist one setting",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := filestore.New(cfg.StateDir)
		return store.Set(cfg.Namespace, args[0], args[1])
	},
}

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsGetCmd, settingsSetCmd)
}
