package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/nodewar/internal/platform/tui"
	"github.com/vovakirdan/nodewar/internal/transport/observer"
)

var (
	serveFlags      liveFlags
	flagSSHAddr     string
	flagHostKey     string
	flagWSAddr      string
	flagIdleTimeout int
)

var serveCmd = &cobra.Command{
	Use:   "serve <scenario|file>",
	Short: "Run a scenario for remote spectators",
	Long: `Run a scenario in real time and let others watch it.

SSH spectators get a read-only watch screen. Websocket observers on loopback
receive one JSON message per tick with the digest and the tick's events.

Host key handling:
  - If --host-key is provided, uses that key file
  - Otherwise, auto-generates a key at ~/.nodewar/host_key

Examples:
  nodewar serve frontier                      # SSH on :23235
  nodewar serve frontier --ws 127.0.0.1:8088  # Also serve /observe
  nodewar serve diamond --ssh "" --ws 127.0.0.1:8088 --db ./runs.db

Spectators can connect with:
  ssh localhost -p 23235`,
	Args: cobra.ExactArgs(1),
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveFlags.speed, "speed", "", "Speed preset: slow, normal, fast, max")
	serveCmd.Flags().Uint64Var(&serveFlags.maxTicks, "ticks", 0, "Stop after this many ticks (0 = until interrupted)")
	serveCmd.Flags().StringVar(&serveFlags.dbPath, "db", "", "Record the run into this SQLite database")
	serveCmd.Flags().StringVar(&flagSSHAddr, "ssh", ":23235", "SSH spectator address (empty to disable)")
	serveCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to host key file (auto-generated if not specified)")
	serveCmd.Flags().StringVar(&flagWSAddr, "ws", "", "Websocket observer address, e.g. 127.0.0.1:8088 (empty to disable)")
	serveCmd.Flags().IntVar(&flagIdleTimeout, "idle-timeout", 30, "Idle timeout in minutes before disconnecting spectators")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg, "nodewar")

	if flagSSHAddr == "" && flagWSAddr == "" {
		return errors.New("nothing to serve: set --ssh or --ws")
	}

	r, s, closeStore, err := newLiveRunner(cfg, args[0], serveFlags, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	if flagSSHAddr != "" {
		sshCfg := tui.DefaultSpectatorConfig()
		sshCfg.Address = flagSSHAddr
		sshCfg.HostKeyPath = flagHostKey
		sshCfg.IdleTimeout = time.Duration(flagIdleTimeout) * time.Minute
		sshCfg.Title = s.Name

		spectators, err := tui.NewSpectatorServer(sshCfg, r, logger.WithPrefix("nodewar-ssh"))
		if err != nil {
			return err
		}
		g.Go(func() error { return spectators.ListenAndServe(ctx) })
		fmt.Printf("Spectate with: ssh localhost -p %s\n", portOf(flagSSHAddr))
	}

	if flagWSAddr != "" {
		obs := observer.NewServer(r, logger.WithPrefix("nodewar-ws"))
		mux := http.NewServeMux()
		mux.Handle("/observe", obs.Handler())
		srv := &http.Server{
			Addr:              flagWSAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			logger.Info("starting websocket observer", "address", flagWSAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		err := r.Run(ctx)
		// A finished run stops the servers too.
		stop()
		return err
	})

	fmt.Println("Press Ctrl+C to stop")
	if err := g.Wait(); err != nil {
		return err
	}
	fmt.Printf("tick %d  digest %s\n", r.World().CurrentTick, r.Digest())
	return nil
}

func portOf(addr string) string {
	if _, port, err := net.SplitHostPort(addr); err == nil {
		return port
	}
	return addr
}
