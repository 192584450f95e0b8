package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func newInfoCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show the current grammar version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.manager()
			if err != nil {
				return err
			}
			info, err := m.Info()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			}
			fmt.Fprintf(out, "current version: %s\n", info.CurrentVersionID)
			fmt.Fprintf(out, "description:     %s\n", info.Description)
			fmt.Fprintf(out, "created:         %s by %s\n", info.CreatedAt.Local().Format(time.DateTime), info.CreatedBy)
			fmt.Fprintf(out, "versions:        %d\n", info.VersionsCount)
			fmt.Fprintf(out, "rules:           %s\n", strings.Join(info.Rules, ", "))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")

	return cmd
}
