package supervisor_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/steamcompass/compass/internal/supervisor"
	"github.com/steamcompass/compass/pkg/logger"
)

func init() {
	_ = logger.Init()
}

type mockHTTPServer struct {
	listenErr  error
	stopCh     chan struct{}
	stopOnce   sync.Once
	started    chan struct{}
	shutdowns  atomic.Int32
	startCount atomic.Int32
}

func newMockHTTPServer() *mockHTTPServer {
	return &mockHTTPServer{stopCh: make(chan struct{}), started: make(chan struct{}, 8)}
}

func (m *mockHTTPServer) ListenAndServe() error {
	m.startCount.Add(1)
	m.started <- struct{}{}
	if m.listenErr != nil {
		return m.listenErr
	}
	<-m.stopCh
	return http.ErrServerClosed
}

func (m *mockHTTPServer) Shutdown(context.Context) error {
	m.shutdowns.Add(1)
	m.stopOnce.Do(func() { close(m.stopCh) })
	return nil
}

type countingRefresher struct {
	calls atomic.Int32
}

func (c *countingRefresher) Refresh(_ context.Context, users map[string]string) int {
	c.calls.Add(1)
	return len(users)
}

func TestHTTPServerService(t *testing.T) {
	Convey("Given an HTTP server service", t, func() {
		srv := newMockHTTPServer()
		svc := supervisor.NewHTTPServerService(srv, time.Second)

		Convey("When its context is canceled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			errCh := make(chan error, 1)
			go func() { errCh <- svc.Serve(ctx) }()
			<-srv.started
			cancel()

			Convey("Then the server is shut down gracefully", func() {
				So(errors.Is(<-errCh, context.Canceled), ShouldBeTrue)
				So(srv.shutdowns.Load(), ShouldEqual, 1)
				So(svc.String(), ShouldEqual, "http-server")
			})
		})

		Convey("When the listener fails", func() {
			srv.listenErr = errors.New("address in use")
			err := svc.Serve(context.Background())

			Convey("Then the failure is returned for a restart", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "address in use")
			})
		})
	})
}

func TestRefreshService(t *testing.T) {
	Convey("Given a refresh service", t, func() {
		ref := &countingRefresher{}

		Convey("When it has users and a short interval", func() {
			svc := supervisor.NewRefreshService(ref, map[string]string{"alice": "1"}, 10*time.Millisecond)
			ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
			defer cancel()
			err := svc.Serve(ctx)

			Convey("Then it refreshes on every tick until canceled", func() {
				So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
				So(ref.calls.Load(), ShouldBeGreaterThanOrEqualTo, 2)
			})
		})

		Convey("When the interval is zero", func() {
			svc := supervisor.NewRefreshService(ref, map[string]string{"alice": "1"}, 0)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
			defer cancel()
			_ = svc.Serve(ctx)

			Convey("Then it never refreshes", func() {
				So(ref.calls.Load(), ShouldEqual, 0)
				So(svc.String(), ShouldEqual, "refresher")
			})
		})
	})
}

func TestTree(t *testing.T) {
	Convey("Given a supervision tree with both layers", t, func() {
		tree := supervisor.NewTree(logger.Slog(), supervisor.TreeConfig{ShutdownTimeout: time.Second})
		srv := newMockHTTPServer()
		ref := &countingRefresher{}
		tree.AddAPIService(supervisor.NewHTTPServerService(srv, time.Second))
		tree.AddEngineService(supervisor.NewRefreshService(ref, map[string]string{"a": "1"}, 10*time.Millisecond))

		ctx, cancel := context.WithCancel(context.Background())
		errCh := tree.ServeBackground(ctx)
		<-srv.started
		time.Sleep(40 * time.Millisecond)
		cancel()

		Convey("Then services run and stop with the tree", func() {
			select {
			case <-errCh:
			case <-time.After(3 * time.Second):
				So("tree did not stop", ShouldBeEmpty)
			}
			So(ref.calls.Load(), ShouldBeGreaterThan, 0)
			So(srv.shutdowns.Load(), ShouldEqual, 1)
		})
	})
}
