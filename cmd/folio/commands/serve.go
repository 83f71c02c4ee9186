package commands

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dnnweb/folio"
)

func serveCmd() *cobra.Command {
	var addr string
	var lazy bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.SessionSecret == "" {
				cfg.SessionSecret = folio.MustEnv("SESSION_SECRET")
			}
			if addr != "" {
				cfg.Addr = addr
			}
			if cmd.Flags().Changed("lazy") {
				cfg.LazySections = lazy
			}

			app := folio.New(cfg)
			defer app.Close()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return app.Start(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides ADDR)")
	cmd.Flags().BoolVar(&lazy, "lazy", false, "render section skeletons and load them from the browser")
	return cmd
}
