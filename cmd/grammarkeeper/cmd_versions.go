package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newVersionsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "versions",
		Short: "List stored grammar versions, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.manager()
			if err != nil {
				return err
			}
			versions, err := m.Versions()
			if err != nil {
				return err
			}

			current := m.Current().ID
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "\tID\tCREATED\tBY\tDESCRIPTION")
			for _, v := range versions {
				marker := ""
				if v.ID == current {
					marker = "*"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					marker, v.ID, v.CreatedAt.Local().Format(time.DateTime), v.CreatedBy, v.Description)
			}
			return w.Flush()
		},
	}

	return cmd
}
