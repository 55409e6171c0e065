package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/dukerupert/larder/internal/model"
)

// Config holds the runtime settings read from the environment.
type Config struct {
	Port      string `env:"PORT" envDefault:"8080"`
	DBPath    string `env:"DB_PATH" envDefault:"larder.db"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	JWTSecret string        `env:"JWT_SECRET,required"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"24h"`

	// Redis is optional. When RedisAddr is empty, checkout notifications only
	// reach clients connected to this instance.
	RedisAddr    string `env:"REDIS_ADDR"`
	RedisChannel string `env:"REDIS_CHANNEL" envDefault:"larder:checkout"`

	NotifyTimeout time.Duration `env:"NOTIFY_TIMEOUT" envDefault:"3s"`

	// ShoppingListCatalogSize bounds the shopping-list catalog merged into a
	// single item view.
	ShoppingListCatalogSize int `env:"SHOPPING_LIST_CATALOG_SIZE" envDefault:"1000"`

	// Items with an amount at or below LowQuantityThreshold are low on stock.
	LowQuantityThreshold int `env:"LOW_QUANTITY_THRESHOLD" envDefault:"1"`
}

// Load reads an optional .env file from the working directory and then parses
// LARDER_-prefixed environment variables into a Config.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}

	cfg, err := env.ParseAsWithOptions[Config](env.Options{Prefix: "LARDER_"})
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.ShoppingListCatalogSize < 1 || cfg.ShoppingListCatalogSize > model.MaxPageSize {
		return Config{}, fmt.Errorf("LARDER_SHOPPING_LIST_CATALOG_SIZE must be between 1 and %d", model.MaxPageSize)
	}
	if cfg.LowQuantityThreshold < 0 {
		return Config{}, fmt.Errorf("LARDER_LOW_QUANTITY_THRESHOLD must not be negative")
	}
	return cfg, nil
}
