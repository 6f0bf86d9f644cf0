package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/JayLeung362573/373-sub000/internal/platform/timeouts"
	"github.com/JayLeung362573/373-sub000/internal/services/game/api/grpc/metadata"
	"github.com/JayLeung362573/373-sub000/internal/services/game/api/grpc/sessions"
	"github.com/JayLeung362573/373-sub000/internal/services/game/seat"
	"github.com/JayLeung362573/373-sub000/internal/services/game/session"
	"github.com/JayLeung362573/373-sub000/internal/services/game/storage/sqlite"
)

// Config holds everything the game server needs to start.
type Config struct {
	Addr        string
	DBPath      string
	RulesetsDir string
	// SeatKey signs seat grants. Empty disables grants.
	SeatKey     string
	SeatTTL     time.Duration
	IdleTimeout time.Duration
	// ReapInterval defaults to timeouts.ReapInterval.
	ReapInterval time.Duration
	Logger       *log.Logger
}

// Server hosts the rules session API and its storage.
type Server struct {
	listener     net.Listener
	grpcServer   *grpc.Server
	health       *health.Server
	store        *sqlite.Store
	manager      *session.Manager
	reapInterval time.Duration
	logger       *log.Logger
}

// New opens storage, recovers waiting sessions and binds the listener.
func New(ctx context.Context, cfg Config) (*Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	if strings.TrimSpace(cfg.RulesetsDir) == "" {
		return nil, errors.New("rulesets dir is required")
	}
	if info, err := os.Stat(cfg.RulesetsDir); err != nil {
		return nil, fmt.Errorf("stat rulesets dir: %w", err)
	} else if !info.IsDir() {
		return nil, fmt.Errorf("rulesets dir %s is not a directory", cfg.RulesetsDir)
	}

	var grants *seat.Grants
	if cfg.SeatKey != "" {
		g, err := seat.New(seat.Config{Key: []byte(cfg.SeatKey), TTL: cfg.SeatTTL})
		if err != nil {
			return nil, fmt.Errorf("configure seat grants: %w", err)
		}
		grants = g
	}

	store, err := openSessionStore(ctx, cfg.DBPath)
	if err != nil {
		return nil, err
	}
	manager, err := session.NewManager(session.Config{
		Store:       store,
		Rulesets:    session.NewRulesets(os.DirFS(cfg.RulesetsDir)),
		IdleTimeout: cfg.IdleTimeout,
		Logger:      logger,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	recovered, err := manager.Recover(ctx)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("recover sessions: %w", err)
	}
	if recovered > 0 {
		logger.Printf("recovered %d waiting sessions", recovered)
	}

	listener, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("listen on %s: %w", cfg.Addr, err)
	}

	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(metadata.UnaryServerInterceptor(nil)),
	)
	healthServer := health.NewServer()
	sessions.RegisterRulesSessionServer(grpcServer, sessions.NewService(manager, grants))
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(sessions.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	reapInterval := cfg.ReapInterval
	if reapInterval <= 0 {
		reapInterval = timeouts.ReapInterval
	}
	return &Server{
		listener:     listener,
		grpcServer:   grpcServer,
		health:       healthServer,
		store:        store,
		manager:      manager,
		reapInterval: reapInterval,
		logger:       logger,
	}, nil
}

// Addr returns the listener address for the game server.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Run creates and serves a game server until the context ends.
func Run(ctx context.Context, cfg Config) error {
	srv, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	return srv.Serve(ctx)
}

// Serve runs the gRPC server and the idle-session reaper until ctx ends or
// the server fails.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil {
		return errors.New("server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.closeStore()

	s.logger.Printf("game server listening at %v", s.listener.Addr())
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := s.grpcServer.Serve(s.listener)
		if err == nil || errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("serve gRPC: %w", err)
	})
	g.Go(func() error {
		s.reap(gctx)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.shutdown()
		return nil
	})
	return g.Wait()
}

func (s *Server) reap(ctx context.Context) {
	ticker := time.NewTicker(s.reapInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := s.manager.Reap(now); n > 0 {
				s.logger.Printf("evicted %d idle sessions", n)
			}
		}
	}
}

// shutdown drains in-flight calls, forcing a stop after timeouts.Shutdown.
func (s *Server) shutdown() {
	s.health.Shutdown()
	stopped := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(timeouts.Shutdown):
		s.logger.Printf("graceful stop timed out; forcing")
		s.grpcServer.Stop()
	}
}

func (s *Server) closeStore() {
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Printf("close session store: %v", err)
		}
	}
}

func openSessionStore(ctx context.Context, path string) (*sqlite.Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = filepath.Join("data", "game.db")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	store, err := sqlite.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	return store, nil
}
