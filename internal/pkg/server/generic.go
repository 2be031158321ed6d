package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/agentrelay/agentrelay/pkg/logger"
)

// GenericAPIServer wraps a gin Engine in an http.Server, following the
// teacher's split between route registration (left to the caller, via
// Engine) and process lifecycle (Run/Close here).
type GenericAPIServer struct {
	Engine *gin.Engine
	httpSrv *http.Server
}

// New builds the HTTP server bound to the completed config's address.
func (c completedConfig) New() (*GenericAPIServer, error) {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	addr := fmt.Sprintf("%s:%d", c.BindAddress, c.BindPort)
	return &GenericAPIServer{
		Engine: engine,
		httpSrv: &http.Server{
			Addr:         addr,
			Handler:      engine,
			ReadTimeout:  c.ReadTimeout,
			WriteTimeout: c.WriteTimeout,
		},
	}, nil
}

// Run serves until Close is called, returning http.ErrServerClosed in the
// ordinary shutdown case (the caller should treat that as success).
func (s *GenericAPIServer) Run() error {
	logger.Info("generic API server listening on %s", s.httpSrv.Addr)
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close shuts the server down with a bounded deadline, the HTTP-facing
// analogue of the subprocess transport's staged teardown.
func (s *GenericAPIServer) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.httpSrv.Shutdown(ctx); err != nil {
		logger.Warn("generic API server shutdown: %v", err)
	}
}
