package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chenBenjamin97/pushup-analyzer/pkg/api"
	"github.com/chenBenjamin97/pushup-analyzer/pkg/dataset"
	"github.com/chenBenjamin97/pushup-analyzer/pkg/live"
	"github.com/chenBenjamin97/pushup-analyzer/pkg/store"
	"github.com/chenBenjamin97/pushup-analyzer/pkg/video"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API: uploads, datasets, session history and the live verdict feed",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			extractor, release, err := newExtractor(cfg)
			if err != nil {
				return err
			}
			defer release()

			verdicts := store.New(cfg.Redis)
			defer verdicts.Close()
			if verdicts.Enabled() {
				if err := verdicts.Ping(ctx); err != nil {
					logrus.Warnf("serve: %v", err)
				}
			}

			hub := live.NewHub()
			go hub.Run(ctx)

			builder := dataset.NewBuilder(video.OpenSource, extractor, shapeOf(cfg))
			s := api.NewServer(cfg.Directory, builder, hub, verdicts)

			return runHTTP(ctx, ":"+cfg.HTTP.Port, s.SetRouter())
		},
	}
}

//runHTTP serves h until ctx is done, then shuts down gracefully
func runHTTP(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{Addr: addr, Handler: h}

	errC := make(chan error, 1)
	go func() {
		logrus.Infof("listening on %s", addr)
		errC <- srv.ListenAndServe()
	}()

	select {
	case err := <-errC:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
