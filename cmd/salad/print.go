package main

import (
	"fmt"
	"os"

	gojson "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

func newPrintCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "print FILE",
		Short: "Load a document and print it in normalized form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prog, err := loadProgram(v)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			u, err := fileURI(args[0])
			if err != nil {
				return err
			}
			doc, err := prog.LoadDocumentFromText(data, u, nil)
			if err != nil {
				return err
			}
			out, err := prog.SaveDocument(doc, u, v.GetBool("relative"))
			if err != nil {
				return err
			}
			var b []byte
			switch f := v.GetString("format"); f {
			case "yaml":
				b, err = yaml.Marshal(out)
			case "json":
				b, err = gojson.MarshalIndent(out, "", "  ")
				b = append(b, '\n')
			default:
				return fmt.Errorf("unknown format %q", f)
			}
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(b)
			return err
		},
	}
	cmd.Flags().StringP("format", "f", "yaml", "output format: yaml or json")
	cmd.Flags().Bool("relative", true, "write URIs relative to the document")
	_ = v.BindPFlags(cmd.Flags())
	return cmd
}
