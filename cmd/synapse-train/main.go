// Command synapse-train trains a model described by a description file.
package main

import (
	"context"

	"github.com/abhissng/synapse/adapters/viper"
	_ "github.com/abhissng/synapse/desc/linear"
	"github.com/abhissng/synapse/engine"
	"github.com/abhissng/synapse/utils/constant"
	"github.com/abhissng/synapse/utils/graceful"
	"github.com/abhissng/synapse/utils/helpers"
	"github.com/spf13/cobra"
)

func newCommand() *cobra.Command {
	var configFile string
	cmd := &cobra.Command{
		Use:           "synapse-train --desc FILE --data-dir DIR [flags]",
		Short:         "Train a model from a description file",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v := viper.NewViper(constant.EnvPrefix, viper.WithConfigFile(configFile))
			if err := v.BindFlags(cmd.Flags()); err != nil {
				return err
			}
			if err := v.InitialiseViper(); err != nil {
				return err
			}
			args, err := engine.ParseArgs(v)
			if err != nil {
				return err
			}

			ctx, stop := graceful.SignalContext(cmd.Context())
			defer stop()
			return engine.New(args).Run(ctx)
		},
	}
	cmd.Flags().StringVar(&configFile, "config", "", "optional config file with flag values")
	engine.RegisterFlags(cmd.Flags())
	return cmd
}

func main() {
	if err := newCommand().ExecuteContext(context.Background()); err != nil {
		helpers.Println(constant.FATAL, err.Error())
	}
}
