package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jaam8/voting_booth/pkg/tarantool"
	"github.com/joho/godotenv"
)

const (
	BackendTarantool = "tarantool"
	BackendMemory    = "memory"
)

type Config struct {
	RestPort              string        `yaml:"REST_PORT" env:"REST_PORT" env-default:"8080"`
	LogLevel              string        `yaml:"LOG_LEVEL" env:"LOG_LEVEL" env-default:"debug"`
	JWTSecret             string        `yaml:"JWT_SECRET" env:"JWT_SECRET" env-required:"true"`
	TokenTTL              time.Duration `yaml:"TOKEN_TTL" env:"TOKEN_TTL" env-default:"30m"`
	TokenLength           int           `yaml:"TOKEN_LENGTH" env:"TOKEN_LENGTH" env-default:"32"`
	StoreBackend          string        `yaml:"STORE_BACKEND" env:"STORE_BACKEND" env-default:"tarantool"`
	CacheBackend          string        `yaml:"CACHE_BACKEND" env:"CACHE_BACKEND" env-default:"tarantool"`
	CacheSize             int           `yaml:"CACHE_SIZE" env:"CACHE_SIZE" env-default:"100000"`
	SweepInterval         time.Duration `yaml:"SWEEP_INTERVAL" env:"SWEEP_INTERVAL" env-default:"1m"`
	StrictTaskKinds       bool          `yaml:"STRICT_TASK_KINDS" env:"STRICT_TASK_KINDS" env-default:"true"`
	InvitationConcurrency int           `yaml:"INVITATION_CONCURRENCY" env:"INVITATION_CONCURRENCY" env-default:"16"`
	CORSOrigins           []string      `yaml:"CORS_ORIGINS" env:"CORS_ORIGINS" env-default:"*"`

	Mattermost Mattermost
	Tarantool  tarantool.Config
}

// Mattermost is optional: without MM_URL invitations are only logged.
type Mattermost struct {
	URL       string `yaml:"MM_URL" env:"MM_URL"`
	BotToken  string `yaml:"BOT_TOKEN" env:"BOT_TOKEN"`
	InviteURL string `yaml:"MM_INVITE_URL" env:"MM_INVITE_URL"`
}

type Booth struct {
	LogLevel        string `yaml:"LOG_LEVEL" env:"LOG_LEVEL" env-default:"info"`
	PrivateKey      string `yaml:"BOOTH_PRIVATE_KEY" env:"BOOTH_PRIVATE_KEY" env-required:"true"`
	DataFile        string `yaml:"BOOTH_DATA_FILE" env:"BOOTH_DATA_FILE" env-default:"booth.json"`
	Nonce           uint64 `yaml:"BOOTH_NONCE" env:"BOOTH_NONCE" env-default:"0"`
	FestivalChainID string `yaml:"BOOTH_FESTIVAL_CHAIN_ID" env:"BOOTH_FESTIVAL_CHAIN_ID"`
	VoteURL         string `yaml:"BOOTH_VOTE_URL" env:"BOOTH_VOTE_URL"`
	MaxSelections   int    `yaml:"BOOTH_MAX_SELECTIONS" env:"BOOTH_MAX_SELECTIONS" env-default:"0"`
}

func New() (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	var config Config
	if err := cleanenv.ReadEnv(&config); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := config.validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func NewBooth() (*Booth, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	var config Booth
	if err := cleanenv.ReadEnv(&config); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if config.MaxSelections < 0 {
		return nil, fmt.Errorf("config: BOOTH_MAX_SELECTIONS must not be negative")
	}
	return &config, nil
}

func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("config: load .env: %w", err)
	}
	return nil
}

func (c *Config) validate() error {
	for name, backend := range map[string]string{"STORE_BACKEND": c.StoreBackend, "CACHE_BACKEND": c.CacheBackend} {
		if backend != BackendTarantool && backend != BackendMemory {
			return fmt.Errorf("config: %s must be %q or %q, got %q", name, BackendTarantool, BackendMemory, backend)
		}
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("config: TOKEN_TTL must be positive")
	}
	if c.TokenLength < 16 {
		return fmt.Errorf("config: TOKEN_LENGTH must be at least 16")
	}
	if c.CacheSize <= 0 {
		return fmt.Errorf("config: CACHE_SIZE must be positive")
	}
	if c.InvitationConcurrency <= 0 {
		return fmt.Errorf("config: INVITATION_CONCURRENCY must be positive")
	}
	return nil
}

// UsesTarantool reports whether any backend needs a tarantool connection.
func (c *Config) UsesTarantool() bool {
	return c.StoreBackend == BackendTarantool || c.CacheBackend == BackendTarantool
}

type Admin struct {
	JWTSecret string `yaml:"JWT_SECRET" env:"JWT_SECRET" env-required:"true"`
}

// NewAdmin reads only what the admin-token command needs.
func NewAdmin() (*Admin, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	var config Admin
	if err := cleanenv.ReadEnv(&config); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &config, nil
}
