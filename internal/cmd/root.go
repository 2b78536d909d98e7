package cmd

import (
	"github.com/spf13/cobra"

	"github.com/andriiyaremenko/tinyioc/app"
	"github.com/andriiyaremenko/tinyioc/config"
	"github.com/andriiyaremenko/tinyioc/web"
)

type options struct {
	configFile string
	envFiles   []string
	envPrefix  string
	modules    []string
}

func NewRootCommand() *cobra.Command {
	var o options

	root := &cobra.Command{
		Use:   "tinyioc",
		Short: "Demo application built on tinyioc",
		Long: `tinyioc runs a small web application assembled by the tinyioc container:
modules are picked from a catalog by glob patterns, wired from configuration
and started and stopped together with the app.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&o.configFile, "config", "c", "", "config file (yaml, json or toml)")
	root.PersistentFlags().StringSliceVar(&o.envFiles, "env-file", []string{".env"}, ".env files loaded into environment, missing ones are skipped")
	root.PersistentFlags().StringVar(&o.envPrefix, "env-prefix", "TINYIOC", "prefix of environment variables overriding config")
	root.PersistentFlags().StringSliceVarP(&o.modules, "modules", "m", nil, `module patterns, "!" excludes (default all modules)`)

	root.AddCommand(newRunCommand(&o), newDefinitionsCommand(&o))

	return root
}

// Execute runs the root command
func Execute() error {
	return NewRootCommand().Execute()
}

func (o *options) newApp(cmd *cobra.Command) (*app.App, error) {
	opts := []config.Option{
		config.WithDefaults(map[string]any{
			app.ContextNameKey: app.DefaultContextName,
			web.AddrKey:        web.DefaultAddr,
			"logging.level":    app.LevelInfo,
			"logging.format":   "text",
		}),
		config.WithEnvFiles(o.envFiles...),
		config.WithEnvPrefix(o.envPrefix),
	}

	if o.configFile != "" {
		opts = append(opts, config.WithFile(o.configFile))
	}

	cfg, err := config.New(opts...)
	if err != nil {
		return nil, err
	}

	a, err := app.New(app.WithConfig(cfg), app.WithLogger(app.NewLogger(cfg, cmd.ErrOrStderr())))
	if err != nil {
		return nil, err
	}

	if err := a.AddModules(Modules(), o.modules...); err != nil {
		return nil, err
	}

	return a, nil
}
