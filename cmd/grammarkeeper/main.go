package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	a := &app{}
	err := newRootCmd(a).Execute()
	a.close()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "grammarkeeper",
		Short: "Versioned, self-extending grammar for 1C source code",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "grammarkeeper.yaml", "path to the YAML or JSON config file")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "shorthand for --log-level debug")

	rootCmd.AddCommand(newParseCmd(a))
	rootCmd.AddCommand(newVersionsCmd(a))
	rootCmd.AddCommand(newRollbackCmd(a))
	rootCmd.AddCommand(newBackupCmd(a))
	rootCmd.AddCommand(newExtendCmd(a))
	rootCmd.AddCommand(newExportCmd(a))
	rootCmd.AddCommand(newInfoCmd(a))

	return rootCmd
}
