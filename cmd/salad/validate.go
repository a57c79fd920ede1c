package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	salad "github.com/reoring/salad"
)

func newValidateCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE...",
		Short: "Check that documents conform to the schema",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prog, err := loadProgram(v)
			if err != nil {
				return err
			}
			failed := 0
			for _, path := range args {
				if err := validateFile(prog, path); err != nil {
					failed++
					fmt.Fprintf(cmd.ErrOrStderr(), "%s %s\n%s\n", color.RedString("✗"), path, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", color.GreenString("✓"), path)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d documents are invalid", failed, len(args))
			}
			return nil
		},
	}
}

func validateFile(prog *salad.Program, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	u, err := fileURI(path)
	if err != nil {
		return err
	}
	_, err = prog.LoadDocumentFromText(data, u, nil)
	return err
}
