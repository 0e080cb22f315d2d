package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/benbeisheim/chessadvisor-backend/internal/eval"
	"github.com/benbeisheim/chessadvisor-backend/internal/store"
	"github.com/rs/zerolog"
)

type Config struct {
	Addr         string
	AllowOrigins string
	StorePath    string
	ModelPath    string
	Variant      string
	Rules        string
	Dedupe       string
	TrainLimit   int
	TrainEpochs  int
	LogLevel     string
	Pretty       bool
}

func Default() Config {
	return Config{
		Addr:         ":3000",
		AllowOrigins: "http://localhost:5173",
		StorePath:    "learned_games.csv",
		ModelPath:    "chess_model.json",
		Variant:      string(eval.Extended),
		Rules:        string(eval.PseudoRules),
		Dedupe:       string(store.KeepFirst),
		TrainLimit:   100_000,
		TrainEpochs:  200,
		LogLevel:     "info",
	}
}

// Load parses args on top of the defaults. A CHESS_<NAME> environment
// variable, if set, replaces the default of the flag <name> before parsing.
func Load(name string, args []string) (Config, error) {
	cfg := Default()
	fs := flag.NewFlagSet(name, flag.ContinueOnError)

	fs.StringVar(&cfg.Addr, "addr", env("CHESS_ADDR", cfg.Addr), "HTTP listen address")
	fs.StringVar(&cfg.AllowOrigins, "origins", env("CHESS_ORIGINS", cfg.AllowOrigins), "Comma separated CORS origins")
	fs.StringVar(&cfg.StorePath, "store", env("CHESS_STORE", cfg.StorePath), "Path to the game history CSV")
	fs.StringVar(&cfg.ModelPath, "model", env("CHESS_MODEL", cfg.ModelPath), "Path to the evaluation model")
	fs.StringVar(&cfg.Variant, "features", env("CHESS_FEATURES", cfg.Variant), "Feature variant: classic or extended")
	fs.StringVar(&cfg.Rules, "rules", env("CHESS_RULES", cfg.Rules), "Mobility rules: pseudo or full")
	fs.StringVar(&cfg.Dedupe, "dedupe", env("CHESS_DEDUPE", cfg.Dedupe), "Duplicate FEN policy: first or last")
	fs.IntVar(&cfg.TrainLimit, "limit", envInt("CHESS_LIMIT", cfg.TrainLimit), "Max rows read for training")
	fs.IntVar(&cfg.TrainEpochs, "epochs", envInt("CHESS_EPOCHS", cfg.TrainEpochs), "Number of training epochs")
	fs.StringVar(&cfg.LogLevel, "log-level", env("CHESS_LOG_LEVEL", cfg.LogLevel), "Log level")
	fs.BoolVar(&cfg.Pretty, "pretty", envBool("CHESS_PRETTY", cfg.Pretty), "Human readable console logs")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if _, err := eval.ParseVariant(c.Variant); err != nil {
		return err
	}
	if _, err := eval.ParseRules(c.Rules); err != nil {
		return err
	}
	if _, err := store.ParseDedupePolicy(c.Dedupe); err != nil {
		return err
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log level %q: %w", c.LogLevel, err)
	}
	if c.TrainLimit <= 0 {
		return fmt.Errorf("training limit must be positive, got %d", c.TrainLimit)
	}
	if c.TrainEpochs <= 0 {
		return fmt.Errorf("training epochs must be positive, got %d", c.TrainEpochs)
	}
	return nil
}

func (c Config) Extractor() *eval.Extractor {
	return eval.NewExtractor(eval.Variant(c.Variant), eval.Rules(c.Rules))
}

func (c Config) Origins() string {
	parts := strings.Split(c.AllowOrigins, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return strings.Join(parts, ",")
}

func (c Config) Logger() zerolog.Logger {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	var logger zerolog.Logger
	if c.Pretty {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	return logger.Level(level).With().Timestamp().Logger()
}

func env(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
