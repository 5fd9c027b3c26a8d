// Package config loads server settings from an optional key = value file
// with command-line overrides. Unknown keys and malformed values are warned
// about and skipped; the server always starts with a complete configuration.
package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/cyberinferno/gamba-server/logger"
)

// Defaults for every recognized setting.
const (
	DefaultIP                = "127.0.0.1"
	DefaultPort              = 8080
	DefaultMaxRooms          = 10
	DefaultMaxPlayersPerRoom = 2
	DefaultPlayerTimeoutSec  = 60
	DefaultHeartbeatSec      = 10
	DefaultCleanupSec        = 120
	DefaultInvalidMsgLimit   = 3
	DefaultLogFile           = "logs/gamba_server.log"
	DefaultArchiveTTLSec     = 3600
)

// Config is the read-only settings record handed to the server components.
type Config struct {
	IP                     string
	Port                   int
	MaxRooms               int
	MaxPlayersPerRoom      int
	PlayerTimeoutSeconds   int
	HeartbeatCheckInterval int
	CleanupThresholdSec    int
	InvalidMessageLimit    int
	LogFile                string
	EnableFileLogging      bool
	MatchArchiveTTLSec     int
	RedisAddr              string
}

// Default returns a Config with every field at its default.
func Default() Config {
	return Config{
		IP:                     DefaultIP,
		Port:                   DefaultPort,
		MaxRooms:               DefaultMaxRooms,
		MaxPlayersPerRoom:      DefaultMaxPlayersPerRoom,
		PlayerTimeoutSeconds:   DefaultPlayerTimeoutSec,
		HeartbeatCheckInterval: DefaultHeartbeatSec,
		CleanupThresholdSec:    DefaultCleanupSec,
		InvalidMessageLimit:    DefaultInvalidMsgLimit,
		LogFile:                DefaultLogFile,
		EnableFileLogging:      true,
		MatchArchiveTTLSec:     DefaultArchiveTTLSec,
	}
}

// Addr returns the listen address in host:port form.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.IP, c.Port)
}

// LoadFile reads key = value settings from path into c. Lines starting with
// '#' and blank lines are skipped. Unknown keys and unparseable values log a
// warning and leave the current value in place.
func (c *Config) LoadFile(path string, log logger.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, found := strings.Cut(line, "=")
		if !found {
			log.Warn("config: skipping malformed line",
				logger.Field{Key: "file", Value: path},
				logger.Field{Key: "line", Value: lineNo})
			continue
		}

		c.apply(strings.TrimSpace(key), strings.TrimSpace(value), log)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	return nil
}

func (c *Config) apply(key, value string, log logger.Logger) {
	warnValue := func() {
		log.Warn("config: ignoring unparseable value",
			logger.Field{Key: "key", Value: key},
			logger.Field{Key: "value", Value: value})
	}

	setInt := func(dst *int) {
		n, err := strconv.Atoi(value)
		if err != nil {
			warnValue()
			return
		}

		*dst = n
	}

	switch key {
	case "ip":
		c.IP = value
	case "port":
		setInt(&c.Port)
	case "max_rooms":
		setInt(&c.MaxRooms)
	case "max_players_per_room":
		setInt(&c.MaxPlayersPerRoom)
	case "player_timeout_seconds":
		setInt(&c.PlayerTimeoutSeconds)
	case "heartbeat_check_interval":
		setInt(&c.HeartbeatCheckInterval)
	case "cleanup_threshold_seconds":
		setInt(&c.CleanupThresholdSec)
	case "invalid_message_limit":
		setInt(&c.InvalidMessageLimit)
	case "log_file":
		c.LogFile = value
	case "enable_file_logging":
		b, err := strconv.ParseBool(value)
		if err != nil {
			warnValue()
			return
		}

		c.EnableFileLogging = b
	case "match_archive_ttl_seconds":
		setInt(&c.MatchArchiveTTLSec)
	case "redis_addr":
		c.RedisAddr = value
	default:
		log.Warn("config: unknown key", logger.Field{Key: "key", Value: key})
	}
}

// Normalize clamps settings the server cannot honor, warning about each
// adjustment. The game flow supports exactly two players per room.
func (c *Config) Normalize(log logger.Logger) {
	if c.MaxPlayersPerRoom != DefaultMaxPlayersPerRoom {
		log.Warn("config: max_players_per_room is fixed",
			logger.Field{Key: "requested", Value: c.MaxPlayersPerRoom},
			logger.Field{Key: "using", Value: DefaultMaxPlayersPerRoom})
		c.MaxPlayersPerRoom = DefaultMaxPlayersPerRoom
	}

	if c.Port <= 0 || c.Port > 65535 {
		log.Warn("config: port out of range",
			logger.Field{Key: "requested", Value: c.Port},
			logger.Field{Key: "using", Value: DefaultPort})
		c.Port = DefaultPort
	}
}
