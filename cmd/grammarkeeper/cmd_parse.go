package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/b4fun/grammarkeeper-go/nodes"
	"github.com/b4fun/grammarkeeper-go/rulegen"
	"github.com/b4fun/grammarkeeper-go/selfextend"
	"github.com/spf13/cobra"
)

func newParseCmd(a *app) *cobra.Command {
	var outputFormat string
	var noExtend bool
	var maxAttempts int

	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Parse a 1C source file, extending the grammar when it fails",
		Long: `Parse a 1C source file with the current grammar.

When parsing fails and the agent is enabled, known constructs found around the
failure are added to the grammar as a new version and the file is parsed again,
up to the configured number of attempts.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read source file: %w", err)
			}

			m, err := a.manager()
			if err != nil {
				return err
			}

			attempts := a.cfg.Agent.MaxCorrectionAttempts
			if cmd.Flags().Changed("max-attempts") {
				attempts = maxAttempts
			}
			coordinator := selfextend.New(m, rulegen.NewPatternProposer(),
				selfextend.WithEnabled(a.cfg.Agent.Enabled && !noExtend),
				selfextend.WithAutoCommit(a.cfg.Agent.AutoUpdateGrammar),
				selfextend.WithMaxAttempts(attempts),
				selfextend.WithLogger(a.logger))

			outcome := coordinator.Run(string(data))
			return writeOutcome(cmd, outcome, outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "output", "o", "tree", "output format (tree, json)")
	cmd.Flags().BoolVar(&noExtend, "no-extend", false, "report failures without extending the grammar")
	cmd.Flags().IntVar(&maxAttempts, "max-attempts", 0, "override agent.max_correction_attempts")

	return cmd
}

func writeOutcome(cmd *cobra.Command, outcome *selfextend.Outcome, outputFormat string) error {
	out := cmd.OutOrStdout()

	switch outputFormat {
	case "json":
		report := struct {
			*selfextend.Outcome
			Tree       *nodes.TreeNode `json:"tree,omitempty"`
			Extensions []string        `json:"extensions,omitempty"`
		}{Outcome: outcome}
		if outcome.Tree != nil {
			report.Tree = nodes.ToTree(outcome.Tree)
		}
		for _, ext := range outcome.Extensions {
			report.Extensions = append(report.Extensions, ext.Version.ID)
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
	case "tree":
		for _, ext := range outcome.Extensions {
			fmt.Fprintf(out, "grammar extended: %s (%s)\n", ext.Version.ID, ext.Version.Description)
		}
		if outcome.Succeeded() {
			fmt.Fprint(out, nodes.DumpRuleTree(outcome.Tree))
			return nil
		}
		if d := outcome.Diagnostic; d != nil {
			fmt.Fprintf(out, "%s\n%s\n", d.Summary(), d.Context)
		}
	default:
		return fmt.Errorf("unknown output format: %s", outputFormat)
	}

	if !outcome.Succeeded() {
		return errors.New("parse failed: " + outcome.Reason.String())
	}
	return nil
}
