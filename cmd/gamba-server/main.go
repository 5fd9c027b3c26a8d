// Command gamba-server runs the card game session server.
//
// Usage:
//
//	gamba-server [--config path] [--ip addr] [--port n]
//
// Settings come from the optional config file with flag overrides on top.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/cyberinferno/gamba-server/cacher"
	"github.com/cyberinferno/gamba-server/internal/archive"
	"github.com/cyberinferno/gamba-server/internal/config"
	"github.com/cyberinferno/gamba-server/internal/server"
	"github.com/cyberinferno/gamba-server/logger"
)

const serviceName = "gamba_server"

func main() {
	var (
		configPath string
		ip         string
		port       int
	)

	flag.StringVar(&configPath, "config", "", "path to a key = value config file")
	flag.StringVar(&configPath, "c", "", "shorthand for --config")
	flag.StringVar(&ip, "ip", "", "bind address override")
	flag.IntVar(&port, "port", 0, "bind port override")
	flag.IntVar(&port, "p", 0, "shorthand for --port")
	flag.Parse()

	os.Exit(run(configPath, ip, port))
}

func run(configPath, ip string, port int) int {
	cfg := config.Default()

	bootLog := logger.NewZerologLogger(zerolog.New(os.Stdout), serviceName, zerolog.InfoLevel)

	if configPath != "" {
		if err := cfg.LoadFile(configPath, bootLog); err != nil {
			bootLog.Error("failed to load config", logger.Field{Key: "error", Value: err})
			return 1
		}
	}

	if ip != "" {
		cfg.IP = ip
	}
	if port != 0 {
		cfg.Port = port
	}

	cfg.Normalize(bootLog)

	log := buildLogger(cfg)
	defer log.Close()

	arch := buildArchive(cfg, log)

	srv := server.New(cfg, arch, log)
	if err := srv.Start(); err != nil {
		log.Error("startup failed", logger.Field{Key: "error", Value: err})
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("serving",
		logger.Field{Key: "addr", Value: srv.Addr()},
		logger.Field{Key: "max_rooms", Value: cfg.MaxRooms})

	if err := srv.Run(ctx); err != nil {
		log.Error("server exited with error", logger.Field{Key: "error", Value: err})
		return 1
	}

	return 0
}

// buildLogger picks the rotating file logger or plain stdout per config. The
// file logger rotates daily inside the log_file directory.
func buildLogger(cfg config.Config) logger.Logger {
	if !cfg.EnableFileLogging {
		return logger.NewZerologLogger(zerolog.New(os.Stdout), serviceName, zerolog.InfoLevel)
	}

	dir := filepath.Dir(cfg.LogFile)
	service := strings.TrimSuffix(filepath.Base(cfg.LogFile), ".log")
	if service == "" || service == "." {
		service = serviceName
	}

	return logger.NewZerologFileLogger(service, dir, zerolog.InfoLevel)
}

// buildArchive wires the match archive over redis when redis_addr is set and
// over the in-process cache otherwise.
func buildArchive(cfg config.Config, log logger.Logger) *archive.Archive {
	ttl := time.Duration(cfg.MatchArchiveTTLSec) * time.Second

	var backend cacher.Cacher[archive.MatchSummary]
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		backend = cacher.NewRedisCacher[archive.MatchSummary](client)
		log.Info("match archive backed by redis", logger.Field{Key: "addr", Value: cfg.RedisAddr})
	} else {
		backend = cacher.NewMemoryCacher[archive.MatchSummary](ttl, ttl/2+time.Second)
	}

	return archive.New(backend, ttl, log)
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: gamba-server [options]\n\n")
		fmt.Fprintf(flag.CommandLine.Output(), "Two-player card game session server.\n\nOptions:\n")
		flag.PrintDefaults()
	}
}
