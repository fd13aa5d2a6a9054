package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/dougsko/rxcore/pkg/client"
	"github.com/dougsko/rxcore/pkg/config"
	"github.com/dougsko/rxcore/pkg/engine"
	"github.com/dougsko/rxcore/pkg/logging"
)

// statusInterval paces the /ws/status stream.
const statusInterval = 500 * time.Millisecond

// Daemon runs the core engine and the web surface in front of its socket.
type Daemon struct {
	config       *config.Config
	coreEngine   *engine.CoreEngine
	socketClient *client.SocketClient
	webServer    *http.Server
}

// NewDaemon creates a daemon instance
func NewDaemon(cfg *config.Config) (*Daemon, error) {
	core, err := engine.NewCoreEngine(cfg, cfg.API.UnixSocket)
	if err != nil {
		return nil, fmt.Errorf("failed to create core engine: %w", err)
	}
	return newDaemon(cfg, core, client.NewSocketClient(cfg.API.UnixSocket)), nil
}

func newDaemon(cfg *config.Config, core *engine.CoreEngine, sc *client.SocketClient) *Daemon {
	d := &Daemon{
		config:       cfg,
		coreEngine:   core,
		socketClient: sc,
	}
	d.webServer = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Web.BindAddress, cfg.Web.Port),
		Handler: d.router(),
	}
	return d
}

// Run serves until SIGINT/SIGTERM or until the engine or web server fails.
func (d *Daemon) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		return d.coreEngine.Run(ctx)
	})

	eg.Go(func() error {
		if err := d.waitForSocket(ctx); err != nil {
			return err
		}
		logging.Info("daemon", "web server listening", map[string]interface{}{"addr": d.webServer.Addr})
		if err := d.webServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("web server: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-ctx.Done()
		logging.Info("daemon", "shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return d.webServer.Shutdown(shutdownCtx)
	})

	if err := eg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// waitForSocket blocks until the engine answers PING.
func (d *Daemon) waitForSocket(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	deadline := time.After(5 * time.Second)

	for !d.socketClient.IsConnected() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline:
			return fmt.Errorf("core engine socket %s not answering", d.config.API.UnixSocket)
		case <-ticker.C:
		}
	}
	return nil
}

func (d *Daemon) router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	api := router.Group("/api/v1")
	{
		api.GET("/status", d.handleGetStatus)
		api.GET("/vfos", d.handleGetVFOs)
		api.PUT("/vfos/:index/active", d.handleSwitchVFO)
		api.PUT("/vfos/:index/mode", d.handleToggleMode)
		api.PUT("/params/:param", d.handleSetParam)
		api.POST("/tx", d.handleTX)
		api.POST("/scan", d.handleScan)
		api.GET("/scan/cps", d.handleGetCps)
		api.POST("/keys", d.handleKey)
		api.GET("/loot", d.handleGetLoot)
	}
	router.GET("/ws/status", d.handleStatusWebSocket)

	return router
}
