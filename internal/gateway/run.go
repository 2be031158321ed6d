package gateway

import (
	"fmt"
	"time"

	ginpprof "github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"google.golang.org/grpc"

	"github.com/agentrelay/agentrelay/internal/cache"
	"github.com/agentrelay/agentrelay/internal/conversation"
	"github.com/agentrelay/agentrelay/internal/options"
	"github.com/agentrelay/agentrelay/internal/pkg/server"
	"github.com/agentrelay/agentrelay/internal/pool"
	"github.com/agentrelay/agentrelay/pkg/app"
	"github.com/agentrelay/agentrelay/pkg/logger"
)

// NewApp builds the cobra-backed application for the gatewayd binary.
func NewApp(basename string) *app.App {
	opts := options.NewOptions()
	return app.NewApp("agentrelay gateway", basename,
		app.WithOptions(opts),
		app.WithDescription("OpenAI-compatible chat-completions gateway fronting an agent CLI subprocess pool."),
		app.WithDefaultValidArgs(),
		app.WithRunFunc(func(basename string) error {
			return Run(basename, opts)
		}),
	)
}

// Run builds every gateway component from opts, mounts the HTTP routes,
// and blocks serving the HTTP and gRPC-health listeners until shutdown is
// triggered.
func Run(basename string, opts *options.Options) error {
	logger.Info("%s starting with options: %s", basename, opts.String())

	p := pool.New(opts.PoolOptions, opts.TransportOptions, nil)
	p.Start()

	respCache := cache.New(opts.CacheOptions.TTL, opts.CacheOptions.MaxEntries)
	stopSweep := make(chan struct{})
	respCache.RunSweeper(opts.CacheOptions.SweepEvery, stopSweep)

	sessionTimeout := time.Duration(opts.ConversationOptions.SessionTimeoutMinutes) * time.Minute
	store := conversation.NewStore(sessionTimeout)
	stopCleanup := make(chan struct{})
	store.RunCleanup(opts.ConversationOptions.CleanupInterval, stopCleanup)

	h := New(opts.GatewayOptions, opts.ConversationOptions, opts.BudgetOptions, opts.RetryOptions, opts.CacheOptions, p, respCache, store)

	cfg := server.NewConfig()
	cfg.BindAddress = opts.ServerOptions.BindAddress
	cfg.BindPort = opts.ServerOptions.BindPort
	cfg.ReadTimeout = opts.ServerOptions.ReadTimeout
	cfg.WriteTimeout = opts.ServerOptions.WriteTimeout

	apiServer, err := cfg.Complete().New()
	if err != nil {
		return err
	}
	RegisterRoutes(apiServer.Engine, h, opts.GatewayOptions)
	if opts.ServerOptions.EnablePprof {
		registerPprof(apiServer.Engine)
	}

	healthAddr := fmt.Sprintf("%s:%d", opts.ServerOptions.BindAddress, opts.ServerOptions.HealthPort)
	grpcSrv := server.NewGRPCAPIServer(grpc.NewServer(), healthAddr)

	gs := server.New()
	gs.AddShutdownManager(server.NewPosixSignalManager())
	gs.AddShutdownCallback(server.Func(func(name string) error {
		apiServer.Close()
		grpcSrv.Stop()
		close(stopSweep)
		close(stopCleanup)
		p.Stop()
		return nil
	}))
	if err := gs.Start(); err != nil {
		return err
	}

	go grpcSrv.Run()
	return apiServer.Run()
}

func registerPprof(engine *gin.Engine) {
	ginpprof.Register(engine)
}
