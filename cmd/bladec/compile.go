package main

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
)

func newCompileCmd(a *app) *cobra.Command {
	var printSource bool
	cmd := &cobra.Command{
		Use:   "compile [template...]",
		Short: "Compile templates, writing artifacts when --compiled is set",
		Long: `Compile every template found in the views, or only the named ones.
With --print the compiled text/template source is written to standard output.`,
		RunE: func(cmd *cobra.Command, names []string) error {
			e, err := a.engine(nil)
			if err != nil {
				return err
			}
			if err := e.Load(); err != nil {
				return err
			}
			compiled := e.GetDebugTemplates()
			if len(names) == 0 {
				for name := range compiled {
					names = append(names, name)
				}
				slices.Sort(names)
			}
			for _, name := range names {
				text, ok := compiled[name]
				if !ok {
					return fmt.Errorf("template %q not found", name)
				}
				if printSource {
					fmt.Fprintf(cmd.OutOrStdout(), "== %s\n%s\n", name, text)
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&printSource, "print", "p", false, "print the compiled source")
	return cmd
}
