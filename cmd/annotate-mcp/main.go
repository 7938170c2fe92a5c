package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ironsheep/annotate-mcp/internal/config"
	"github.com/ironsheep/annotate-mcp/internal/httpapi"
	"github.com/ironsheep/annotate-mcp/internal/logging"
	"github.com/ironsheep/annotate-mcp/internal/server"
	"github.com/ironsheep/annotate-mcp/internal/session"
	"github.com/ironsheep/annotate-mcp/internal/storage"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func usage() {
	fmt.Println("annotate-mcp - MCP server for interactive image annotation")
	fmt.Println()
	fmt.Println("Usage: annotate-mcp [options]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --config, -c PATH   Read settings from a YAML file")
	fmt.Println("  --version, -v       Print version information")
	fmt.Println("  --help, -h          Print this help message")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  ANNOTATE_MCP_LOG_LEVEL=debug         Enable debug logging")
	fmt.Println("  ANNOTATE_MCP_SERVER_TRANSPORT=http   Serve the tools over HTTP")
	fmt.Println("  ANNOTATE_MCP_REDIS_ENABLED=true      Persist annotations to Redis")
	fmt.Println()
	fmt.Println("By default the server speaks MCP over stdin/stdout.")
	fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
}

func main() {
	configPath := ""
	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--version", "-v", "version":
			fmt.Printf("annotate-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			usage()
			return
		case "--config", "-c":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "--config needs a path")
				os.Exit(2)
			}
			i++
			configPath = args[i]
		default:
			fmt.Fprintf(os.Stderr, "unknown option %q\n", args[i])
			usage()
			os.Exit(2)
		}
	}

	if err := run(configPath); err != nil {
		fmt.Fprintf(os.Stderr, "annotate-mcp: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := logging.Init(cfg.Server.Mode, cfg.Log.Level); err != nil {
		return err
	}
	defer logging.Sync()
	log := logging.L()

	log.Info("starting annotate-mcp",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit),
		zap.String("transport", cfg.Server.Transport))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var snapshots storage.Snapshotter
	if cfg.Redis.Enabled {
		snapshots = storage.Open(ctx, storage.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Redis.TTL,
		})
	} else {
		snapshots = storage.NewMemory()
	}

	srv := server.New(server.Options{
		Editor: session.Config{
			PaintRadius:   cfg.Editor.PaintRadius,
			EraserRadius:  cfg.Editor.EraserRadius,
			AreaThreshold: cfg.Editor.AreaThreshold,
			Interpolate:   cfg.Editor.Interpolate,
		},
		FillOpacity: cfg.Editor.FillOpacity,
		Storage:     snapshots,
		Logger:      log,
		Version:     Version,
	})
	defer func() {
		if err := srv.Close(); err != nil {
			log.Warn("failed to close storage", zap.Error(err))
		}
	}()

	switch cfg.Server.Transport {
	case "http":
		if cfg.Server.Mode == "release" {
			gin.SetMode(gin.ReleaseMode)
		}
		router := httpapi.NewRouter(srv, httpapi.BuildInfo{
			Version:   Version,
			BuildTime: BuildTime,
			GitCommit: GitCommit,
		}, log)
		log.Info("listening", zap.String("addr", cfg.Server.Port))
		err = httpapi.Run(ctx, cfg.Server.Port, router, cfg.Server.ReadTimeout, cfg.Server.WriteTimeout)
	default:
		err = srv.Run(ctx)
	}
	if err != nil && ctx.Err() == nil {
		log.Error("server error", zap.Error(err))
		return err
	}
	log.Info("shutdown complete")
	return nil
}
