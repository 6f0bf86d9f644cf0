package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"google.golang.org/grpc"

	platformgrpc "github.com/JayLeung362573/373-sub000/internal/platform/grpc"
	"github.com/JayLeung362573/373-sub000/internal/platform/timeouts"
	"github.com/JayLeung362573/373-sub000/internal/services/game/api/grpc/sessions"
	"github.com/JayLeung362573/373-sub000/internal/services/mcp/domain"
)

const (
	serverName    = "fracturing-space-rules"
	serverVersion = "0.1.0"
)

// Config configures the MCP bridge.
type Config struct {
	GRPCAddr string
	Logger   *log.Logger
}

// Server hosts the MCP server and its game connection.
type Server struct {
	mcpServer *mcp.Server
	conn      *grpc.ClientConn
}

// Run dials the game server and serves MCP over stdio until ctx ends.
func Run(ctx context.Context, cfg Config) error {
	return runWithTransport(ctx, cfg, &mcp.StdioTransport{})
}

func runWithTransport(ctx context.Context, cfg Config, transport mcp.Transport) error {
	conn, err := dialGameGRPC(ctx, cfg)
	if err != nil {
		return err
	}
	server, err := newServer(conn, sessions.NewClient(conn))
	if err != nil {
		_ = conn.Close()
		return err
	}
	return server.serveWithTransport(ctx, transport)
}

// newServer registers every rules session tool against client.
func newServer(conn *grpc.ClientConn, client domain.SessionClient) (*Server, error) {
	mcpServer := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)
	if err := registerRulesSessionTools(mcpServer, client); err != nil {
		return nil, err
	}
	return &Server{mcpServer: mcpServer, conn: conn}, nil
}

func registerRulesSessionTools(server *mcp.Server, client domain.SessionClient) error {
	if client == nil {
		return domain.ErrMissingClient
	}
	mcp.AddTool(server, domain.RulesSessionStartTool(), domain.RulesSessionStartHandler(client))
	mcp.AddTool(server, domain.RulesSessionSubmitTool(), domain.RulesSessionSubmitHandler(client))
	mcp.AddTool(server, domain.RulesSessionGetTool(), domain.RulesSessionGetHandler(client))
	mcp.AddTool(server, domain.RulesSessionJournalTool(), domain.RulesSessionJournalHandler(client))
	return nil
}

// Close releases the game connection.
func (s *Server) Close() error {
	if s == nil || s.conn == nil {
		return nil
	}
	if err := s.conn.Close(); err != nil {
		return err
	}
	s.conn = nil
	return nil
}

// serveWithTransport runs the MCP server and closes the game connection on
// the same exit path.
func (s *Server) serveWithTransport(ctx context.Context, transport mcp.Transport) error {
	if s == nil || s.mcpServer == nil {
		return fmt.Errorf("MCP server is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	err := s.mcpServer.Run(ctx, transport)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}
	closeErr := s.Close()
	if closeErr != nil {
		if err == nil {
			return fmt.Errorf("close gRPC connection: %w", closeErr)
		}
		return fmt.Errorf("serve MCP: %v; close gRPC connection: %w", err, closeErr)
	}
	if err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}
	return nil
}

func dialGameGRPC(ctx context.Context, cfg Config) (*grpc.ClientConn, error) {
	addr := strings.TrimSpace(cfg.GRPCAddr)
	if addr == "" {
		return nil, errors.New("game address is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	logf := func(format string, args ...any) {
		logger.Printf("game %s", fmt.Sprintf(format, args...))
	}
	conn, err := platformgrpc.DialWithHealth(ctx, addr, timeouts.GRPCDial, logf)
	if err != nil {
		var dialErr *platformgrpc.DialError
		if errors.As(err, &dialErr) && dialErr.Stage == platformgrpc.DialStageConnect {
			return nil, fmt.Errorf("connect to game server at %s: %w", addr, dialErr.Err)
		}
		return nil, err
	}
	return conn, nil
}
