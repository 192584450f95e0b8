package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/b4fun/grammarkeeper-go/merge"
	"github.com/b4fun/grammarkeeper-go/versionstore"
	"github.com/spf13/cobra"
)

func newExtendCmd(a *app) *cobra.Command {
	var description string
	var createdBy string

	cmd := &cobra.Command{
		Use:   "extend <rules-file>",
		Short: "Merge a grammar fragment into the current grammar",
		Long: `Merge a grammar fragment into the current grammar.

Lines of the form "# UPDATE_RULE: rule |= alternative" append an alternative
to an existing rule. Every other line is appended to the grammar. The result
becomes current only when it compiles.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fragment, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read rules file: %w", err)
			}
			if description == "" {
				description = filepath.Base(args[0])
			}

			m, err := a.manager()
			if err != nil {
				return err
			}
			result, err := m.Extend(merge.Proposal{
				Fragment:    string(fragment),
				Description: description,
				CreatedBy:   createdBy,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, d := range result.Applied {
				fmt.Fprintf(out, "updated rule: %s\n", d)
			}
			for _, d := range result.Mismatched {
				fmt.Fprintf(out, "rule not found, skipped: %s\n", d)
			}
			fmt.Fprintf(out, "current version: %s\n", result.Version.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "version description (default: file name)")
	cmd.Flags().StringVar(&createdBy, "created-by", versionstore.CreatedByManual, "author recorded on the version")

	return cmd
}
