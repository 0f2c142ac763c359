package control

import (
	"context"
	"log/slog"
	"net"
	"net/http"

	gwruntime "github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"github.com/soheilhy/cmux"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
)

// Serve runs the gRPC service and the HTTP gateway on ln until ctx is done.
// Connections are split by protocol: HTTP/2 with a gRPC content type goes to
// the gRPC server, everything else to the gateway.
func Serve(ctx context.Context, ln net.Listener, svc *Service) error {
	mux, err := NewGateway(svc)
	if err != nil {
		return err
	}

	m := cmux.New(ln)
	grpcL := m.MatchWithWriters(cmux.HTTP2MatchHeaderFieldSendSettings("content-type", "application/grpc"))
	httpL := m.Match(cmux.Any())

	gs := grpc.NewServer()
	gs.RegisterService(&ServiceDesc, svc)
	hs := &http.Server{}

	g, ctx := errgroup.WithContext(ctx)
	serve := func(name string, fn func() error) {
		g.Go(func() error {
			err := fn()
			if ctx.Err() != nil {
				return nil
			}
			slog.Error("control server stopped", "server", name, "err", err)
			return err
		})
	}
	serve("grpc", func() error { return gs.Serve(grpcL) })
	serve("http", func() error { return serveHTTPGateway(hs, httpL, mux) })
	serve("mux", m.Serve)

	g.Go(func() error {
		<-ctx.Done()
		gs.Stop()
		_ = hs.Close()
		_ = ln.Close()
		return nil
	})

	slog.Info("control surface listening", "addr", ln.Addr().String())
	return g.Wait()
}

// serveHTTPGateway runs an HTTP/1.1 server on ln serving the gateway mux.
func serveHTTPGateway(srv *http.Server, ln net.Listener, mux *gwruntime.ServeMux) error {
	srv.Handler = mux
	return srv.Serve(ln)
}
