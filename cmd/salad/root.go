package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	salad "github.com/reoring/salad"
	"github.com/reoring/salad/compiler"
	"github.com/reoring/salad/i18n"
	"github.com/reoring/salad/schema"
	"github.com/reoring/salad/source/gojson"
	"github.com/reoring/salad/source/goyaml"
)

const (
	colorModeAuto   = "auto"
	colorModeNever  = "never"
	colorModeAlways = "always"
)

var longRootCmdDescription = `salad compiles a resolved schema type list and uses it to validate
documents or print them back in normalized form.

Every flag can also be set through a SALAD_<FLAG> environment variable or
a config file.`

func newRootCmd() *cobra.Command {
	v := viper.New()
	root := &cobra.Command{
		Use:           "salad",
		Short:         "Validate and normalize schema-described documents",
		Long:          longRootCmdDescription,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initConfig(v)
		},
	}
	pf := root.PersistentFlags()
	pf.String("config", "", "config file (yaml, json or toml)")
	pf.StringP("schema", "s", "", "resolved schema type list (yaml or json)")
	pf.String("parser", "yaml", "document parser: yaml, go-yaml or json")
	pf.String("lang", "en", "message language: en or ja")
	pf.String("color", colorModeAuto, fmt.Sprintf("color mode, one of %v", []string{colorModeAuto, colorModeAlways, colorModeNever}))
	pf.BoolP("debug", "d", false, "turn on debug logging")
	pf.StringSlice("root", nil, "record types accepted at the document root (default: documentRoot records)")
	_ = v.BindPFlags(pf)

	root.AddCommand(newValidateCmd(v), newPrintCmd(v))
	return root
}

// initConfig reads in config file and ENV variables if set.
func initConfig(v *viper.Viper) error {
	v.SetEnvPrefix("SALAD")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if cfg := v.GetString("config"); cfg != "" {
		v.SetConfigFile(cfg)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", cfg, err)
		}
	}

	logrus.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	if v.GetBool("debug") {
		logrus.SetLevel(logrus.DebugLevel)
	}
	i18n.SetLanguage(v.GetString("lang"))

	switch v.GetString("color") {
	case colorModeAlways:
		color.NoColor = false
	case colorModeNever:
		color.NoColor = true
	default:
		color.NoColor = !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd())
	}

	switch p := v.GetString("parser"); p {
	case "yaml", "":
		salad.UseDefaultParser()
	case "go-yaml":
		salad.SetParser(goyaml.Parser())
	case "json":
		salad.SetParser(gojson.Parser())
	default:
		return fmt.Errorf("unknown parser %q", p)
	}
	return nil
}

// loadProgram reads and compiles the schema named by --schema.
func loadProgram(v *viper.Viper) (*salad.Program, error) {
	path := v.GetString("schema")
	if path == "" {
		return nil, fmt.Errorf("--schema is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var (
		types []schema.Type
		diag  schema.Diag
	)
	if strings.EqualFold(filepath.Ext(path), ".json") {
		types, diag, err = schema.ImportJSON(data, schema.Options{})
	} else {
		types, diag, err = schema.ImportYAML(data, schema.Options{})
	}
	if err != nil {
		return nil, err
	}
	for _, w := range diag.Warnings() {
		logrus.Warn(w)
	}
	return compiler.Compile(types, compiler.Options{RootTypes: v.GetStringSlice("root")})
}

// fileURI returns the file URI of a local path.
func fileURI(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	p := filepath.ToSlash(abs)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return "file://" + p, nil
}
