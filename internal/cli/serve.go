package cli

import (
	"tablebook/pkg/app"
	"tablebook/pkg/config"

	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load(app.ServiceName)
			if port != "" {
				cfg.Port = port
			}

			svc, err := openServices(cmd.Context(), cfg)
			if err != nil {
				cfg.Log.Error("Failed to start", "error", err)
				return err
			}
			defer svc.Close(cfg)

			application := app.NewApplication(cfg)
			application.SetApp(svc.db, svc.handlers(cfg)...)
			return application.Run()
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "listen port (overrides PORT)")
	return cmd
}
