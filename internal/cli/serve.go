package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formwizard/internal/logger"
	"github.com/goliatone/go-formwizard/pkg/renderers/html"
	"github.com/goliatone/go-formwizard/pkg/schema"
	"github.com/goliatone/go-formwizard/pkg/server"
	"github.com/goliatone/go-formwizard/pkg/submit"
)

func newServeCommand(flags *globalFlags) *cobra.Command {
	backend := &backendFlags{}
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Host wizard sessions over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			closeLog, err := flags.setup(cmd)
			if err != nil {
				return err
			}
			defer closeLog()
			log := logger.FromContext(cmd.Context())

			if backend.baseURL == "" {
				return errors.New("--base-url is required for serve")
			}
			store, err := flags.definitions(cmd.Context())
			if err != nil {
				return err
			}
			renderer, err := html.New()
			if err != nil {
				return err
			}

			srv := server.New(store,
				server.WithLogger(log),
				server.WithHTMLRenderer(renderer),
				server.WithBackend(func(def schema.Definition) (server.Backend, error) {
					return submit.New(backend.baseURL, def.Endpoint,
						submit.WithAuthToken(backend.token),
						submit.WithTimeout(backend.timeout),
						submit.WithLogger(log),
					), nil
				}),
			)
			httpServer := &http.Server{
				Addr:              addr,
				Handler:           srv.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				log.Info("serving wizards", "addr", addr, "wizards", store.IDs())
				errCh <- httpServer.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return fmt.Errorf("serve: %w", err)
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			log.Info("shutting down")
			return httpServer.Shutdown(shutdownCtx)
		},
	}
	backend.register(cmd)
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	return cmd
}
