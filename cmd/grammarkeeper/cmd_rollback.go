package main

import (
	"fmt"

	"github.com/b4fun/grammarkeeper-go/versionstore"
	"github.com/spf13/cobra"
)

func newRollbackCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rollback <version-id>",
		Short: "Make a stored grammar version current again",
		Long: `Make a stored grammar version current again.

Each invocation starts from the latest stored version, so the restored grammar
is stored once more as a new version that later invocations pick up.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.manager()
			if err != nil {
				return err
			}
			v, err := m.Rollback(args[0])
			if err != nil {
				return err
			}
			restored, err := m.AddVersion(v.Grammar, "rollback to "+v.ID, versionstore.CreatedByManual)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "current version: %s (restored from %s)\n", restored.ID, v.ID)
			return nil
		},
	}

	return cmd
}
