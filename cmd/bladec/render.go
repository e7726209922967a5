package main

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dangdungcntt/go-blade/v2/internal/args"
)

func newRenderCmd(a *app) *cobra.Command {
	var dataFile string
	var vars []string
	cmd := &cobra.Command{
		Use:   "render <template>",
		Short: "Render a template to standard output",
		Example: `  bladec render pages.home --views views --data home.yaml
  bladec render pages.home --var name=John --var 'title="Hello, world"'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, argv []string) error {
			data, err := loadData(dataFile)
			if err != nil {
				return err
			}
			maps.Copy(data, parseVars(vars))
			e, err := a.engine(nil)
			if err != nil {
				return err
			}
			return e.Render(cmd.OutOrStdout(), argv[0], data)
		},
	}
	cmd.Flags().StringVarP(&dataFile, "data", "d", "", "json or yaml file with the template data")
	cmd.Flags().StringArrayVar(&vars, "var", nil, "name=value pairs added to the data")
	return cmd
}

// loadData reads a json or yaml object.
func loadData(file string) (map[string]any, error) {
	data := map[string]any{}
	if file == "" {
		return data, nil
	}
	raw, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(file)) {
	case ".json":
		err = json.Unmarshal(raw, &data)
	default:
		err = yaml.Unmarshal(raw, &data)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", file, err)
	}
	return data, nil
}

// parseVars turns name=value pairs into data; quoted values are unquoted
// and a name alone is true.
func parseVars(pairs []string) map[string]any {
	out := map[string]any{}
	for _, pair := range pairs {
		for _, a := range args.Parse(pair, ',', '=', true) {
			if a.Bare {
				out[a.Key] = true
				continue
			}
			out[a.Key] = args.StripQuotes(a.Value)
		}
	}
	return out
}
