// Package game parses game command flags and starts the session host.
package game

import (
	"context"
	"flag"
	"fmt"
	"time"

	entrypoint "github.com/JayLeung362573/373-sub000/internal/platform/cmd"
	server "github.com/JayLeung362573/373-sub000/internal/services/game/app"
)

// Config holds game command configuration.
type Config struct {
	Port        int           `env:"GAME_PORT"         envDefault:"8082"`
	Addr        string        `env:"GAME_ADDR"`
	DBPath      string        `env:"GAME_DB_PATH"      envDefault:"data/game.db"`
	RulesetsDir string        `env:"GAME_RULESETS_DIR" envDefault:"rulesets"`
	SeatKey     string        `env:"GAME_SEAT_KEY"`
	SeatTTL     time.Duration `env:"GAME_SEAT_TTL"     envDefault:"12h"`
	IdleTimeout time.Duration `env:"GAME_IDLE_TIMEOUT" envDefault:"30m"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The game server port")
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "The game server listen address (overrides -port)")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path of the session database")
	fs.StringVar(&cfg.RulesetsDir, "rulesets", cfg.RulesetsDir, "Directory holding .lua and .yaml rulesets")
	fs.DurationVar(&cfg.IdleTimeout, "idle-timeout", cfg.IdleTimeout, "Evict sessions idle this long from memory (0 disables)")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ServerConfig converts cfg into the server's configuration.
func (c Config) ServerConfig() server.Config {
	addr := c.Addr
	if addr == "" {
		addr = fmt.Sprintf(":%d", c.Port)
	}
	return server.Config{
		Addr:        addr,
		DBPath:      c.DBPath,
		RulesetsDir: c.RulesetsDir,
		SeatKey:     c.SeatKey,
		SeatTTL:     c.SeatTTL,
		IdleTimeout: c.IdleTimeout,
	}
}

// Run starts the game session service.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceGame, func(ctx context.Context) error {
		return server.Run(ctx, cfg.ServerConfig())
	})
}
