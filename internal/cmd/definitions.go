package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/andriiyaremenko/tinyioc/web"
)

func newDefinitionsCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:     "definitions",
		Aliases: []string{"defs"},
		Short:   "List definitions the app would register",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := o.newApp(cmd)
			if err != nil {
				return err
			}

			c := a.Context()
			if err := web.NewPlugin().DiscoverRoutes().Register(c); err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "NAME\tTYPE\tLAZY\tSTART\tSTOP\n")

			for _, name := range c.DefinitionNames() {
				def, err := c.GetDefinitionByName(name)
				if err != nil {
					return err
				}

				fmt.Fprintf(w, "%s\t%s\t%t\t%s\t%s\n",
					def.Name(), def.TypeName(), def.IsLazy(), orDash(def.StartMethod()), orDash(def.StopMethod()))
			}

			return w.Flush()
		},
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}

	return s
}
