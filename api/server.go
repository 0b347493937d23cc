package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/golang/glog"
	"github.com/livepeer/trip-analyzer/analysis"
	"golang.org/x/sync/errgroup"
)

type ServerOptions struct {
	Host                string
	Port                uint
	ShutdownGracePeriod time.Duration
	APIHandlerOptions
}

func ListenAndServe(ctx context.Context, opts ServerOptions, analyzer *analysis.Analyzer) error {
	srv := &http.Server{
		Addr:    net.JoinHostPort(opts.Host, strconv.Itoa(int(opts.Port))),
		Handler: NewHandler(ctx, opts.APIHandlerOptions, analyzer),
	}
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		<-ctx.Done()
		glog.Infof("Shutting down api server gracePeriod=%v", opts.ShutdownGracePeriod)
		shutCtx, cancel := context.WithTimeout(context.Background(), opts.ShutdownGracePeriod)
		defer cancel()
		if err := srv.Shutdown(shutCtx); err != nil {
			if closeErr := srv.Close(); closeErr != nil {
				err = fmt.Errorf("shutdownErr=%w closeErr=%q", err, closeErr)
			}
			return fmt.Errorf("api server shutdown error: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		glog.Infof("Listening for api requests addr=%q", srv.Addr)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			return fmt.Errorf("api server listen and serve error: %w", err)
		}
		return nil
	})
	return eg.Wait()
}
