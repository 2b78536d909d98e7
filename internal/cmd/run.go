package cmd

import (
	"github.com/spf13/cobra"

	"github.com/andriiyaremenko/tinyioc/web"
)

func newRunCommand(o *options) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the app and serve HTTP until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := o.newApp(cmd)
			if err != nil {
				return err
			}

			if addr != "" {
				a.Config().Set(web.AddrKey, addr)
			}

			if err := a.Use(web.NewPlugin().DiscoverRoutes()); err != nil {
				return err
			}

			return a.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides web.addr")

	return cmd
}
