package tui

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/bubbletea"

	"github.com/vovakirdan/nodewar/internal/runner"
)

// SpectatorConfig holds configuration for the SSH spectator server.
type SpectatorConfig struct {
	// Address is the host:port to listen on (e.g., ":23235").
	Address string

	// HostKeyPath is the path to the host key file.
	// If empty, a key will be auto-generated at ~/.nodewar/host_key.
	HostKeyPath string

	// IdleTimeout is how long to wait before closing idle connections.
	IdleTimeout time.Duration

	// Title is shown in every spectator's header.
	Title string
}

// DefaultSpectatorConfig returns a config with sensible defaults.
func DefaultSpectatorConfig() SpectatorConfig {
	return SpectatorConfig{
		Address:     ":23235",
		IdleTimeout: 30 * time.Minute,
		Title:       "nodewar",
	}
}

// SpectatorServer serves a read-only watch screen of one runner over SSH.
type SpectatorServer struct {
	config SpectatorConfig
	runner *runner.Runner
	server *ssh.Server
	logger *log.Logger
}

// NewSpectatorServer creates a spectator server for r.
func NewSpectatorServer(cfg SpectatorConfig, r *runner.Runner, logger *log.Logger) (*SpectatorServer, error) {
	if logger == nil {
		logger = log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			Prefix:          "nodewar-ssh",
		})
	}

	srv := &SpectatorServer{
		config: cfg,
		runner: r,
		logger: logger,
	}

	hostKeyPath := cfg.HostKeyPath
	if hostKeyPath == "" {
		home, homeErr := os.UserHomeDir()
		if homeErr != nil {
			return nil, fmt.Errorf("cannot get home directory: %w", homeErr)
		}
		hostKeyPath = filepath.Join(home, ".nodewar", "host_key")
	}

	if mkdirErr := os.MkdirAll(filepath.Dir(hostKeyPath), 0o700); mkdirErr != nil {
		return nil, fmt.Errorf("cannot create host key directory: %w", mkdirErr)
	}

	server, err := wish.NewServer(
		wish.WithAddress(cfg.Address),
		wish.WithHostKeyPath(hostKeyPath),
		wish.WithIdleTimeout(cfg.IdleTimeout),
		wish.WithMiddleware(
			bubbletea.Middleware(srv.teaHandler),
			srv.loggingMiddleware,
		),
	)
	if err != nil {
		return nil, fmt.Errorf("cannot create SSH server: %w", err)
	}

	srv.server = server
	return srv, nil
}

// teaHandler gives each SSH session its own read-only watch model.
func (s *SpectatorServer) teaHandler(sshSession ssh.Session) (tea.Model, []tea.ProgramOption) {
	pty, _, ok := sshSession.Pty()
	if !ok {
		s.logger.Warn("no PTY requested", "user", sshSession.User())
		return nil, nil
	}

	sub := s.runner.Subscribe(frameBufferSize)
	go func() {
		<-sshSession.Context().Done()
		sub.Close()
	}()

	model := NewWatchModel(s.runner, sub, s.config.Title, true)
	model.width = pty.Window.Width
	model.height = pty.Window.Height
	model.table = model.createTable()
	model.table.SetRows(NodeRows(model.frame.World))

	return model, []tea.ProgramOption{
		tea.WithAltScreen(),
	}
}

// loggingMiddleware logs SSH session events.
func (s *SpectatorServer) loggingMiddleware(next ssh.Handler) ssh.Handler {
	return func(sshSession ssh.Session) {
		s.logger.Info("spectator joined",
			"user", sshSession.User(),
			"remote", sshSession.RemoteAddr().String(),
		)
		next(sshSession)
		s.logger.Info("spectator left",
			"user", sshSession.User(),
			"remote", sshSession.RemoteAddr().String(),
			"watching", s.runner.Subscribers(),
		)
	}
}

// ListenAndServe starts the SSH server and blocks until ctx is cancelled.
func (s *SpectatorServer) ListenAndServe(ctx context.Context) error {
	s.logger.Info("starting SSH spectator server", "address", s.config.Address)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			s.logger.Error("server error", "error", err)
			return err
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down...")
	return s.Shutdown()
}

// Shutdown gracefully stops the server.
func (s *SpectatorServer) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// Addr returns the server's listen address string.
func (s *SpectatorServer) Addr() string {
	return s.config.Address
}

// Serve accepts spectators on l until the server is shut down.
func (s *SpectatorServer) Serve(l net.Listener) error {
	err := s.server.Serve(l)
	if errors.Is(err, ssh.ErrServerClosed) {
		return nil
	}
	return err
}
