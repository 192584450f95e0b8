package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newBackupCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup [dir]",
		Short: "Copy every grammar version into a backup directory",
		Long: `Copy every grammar version into a backup directory together with a
backup_info.json manifest. Defaults to grammar.backup_dir.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := a.cfg.Grammar.BackupDir
			if len(args) == 1 {
				dir = args[0]
			}
			if dir == "" {
				return fmt.Errorf("no backup directory given")
			}

			m, err := a.manager()
			if err != nil {
				return err
			}
			manifest, err := m.Backup(dir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "backed up %d versions to %s (backup %s)\n",
				manifest.VersionsCount, dir, manifest.BackupID)
			return nil
		},
	}

	return cmd
}
