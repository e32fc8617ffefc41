package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// PathEnv overrides where the config file is read from.
const PathEnv = "CONFIG_PATH"

var (
	ErrRedisAddrNotFound = errors.New("redis address is empty")
	ErrInvalidRooms      = errors.New("invalid rooms config")
)

type Config struct {
	LogLevel          string `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort          string `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	SocketPort        string `yaml:"socket-port" env:"SOCKET_PORT" env-default:"8080"`
	Redis             Redis  `yaml:"redis"`
	Rooms             Rooms  `yaml:"rooms"`
	SQLiteStoragePath string `yaml:"sqlite-storage-path" env:"SQLITE_STORAGE_PATH"`
}

type Redis struct {
	Host     string        `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port     string        `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string        `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int           `yaml:"db" env:"REDIS_DB" env-default:"0"`
	RoomTTL  time.Duration `yaml:"room-ttl" env:"REDIS_ROOM_TTL" env-default:"24h"`
}

// Rooms holds the defaults a new room is created with.
type Rooms struct {
	MaxPlayers       int  `yaml:"max-players" env:"ROOMS_MAX_PLAYERS" env-default:"2"`
	// AutoStart applies to two seat rooms only. Larger rooms wait for the creator unless the request asks.
	AutoStart        bool `yaml:"auto-start" env:"ROOMS_AUTO_START"`
	MaxSubmitRetries int  `yaml:"max-submit-retries" env:"ROOMS_MAX_SUBMIT_RETRIES" env-default:"3"`
	CodeAttempts     int  `yaml:"code-attempts" env:"ROOMS_CODE_ATTEMPTS" env-default:"5"`
}

// Path - the file named by CONFIG_PATH, or config.yml in the working directory.
func Path() (string, error) {
	if path := os.Getenv(PathEnv); path != "" {
		return path, nil
	}

	baseDir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}

	return filepath.Join(baseDir, "config.yml"), nil
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	// env-default would also replace an explicit false, so true is preset here
	config := &Config{Rooms: Rooms{AutoStart: true}}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	if err := config.Validate(); err != nil {
		panic(fmt.Errorf("invalid config: %w", err))
	}

	return config
}

// Validate rejects configurations no room operation could run with.
func (that *Config) Validate() error {
	if that.Redis.Host == "" || that.Redis.Port == "" {
		return ErrRedisAddrNotFound
	}

	if that.Rooms.MaxPlayers < 2 || that.Rooms.MaxPlayers > 8 {
		return fmt.Errorf("%w: max-players %d", ErrInvalidRooms, that.Rooms.MaxPlayers)
	}

	if that.Rooms.MaxSubmitRetries < 1 {
		return fmt.Errorf("%w: max-submit-retries %d", ErrInvalidRooms, that.Rooms.MaxSubmitRetries)
	}

	if that.Rooms.CodeAttempts < 1 {
		return fmt.Errorf("%w: code-attempts %d", ErrInvalidRooms, that.Rooms.CodeAttempts)
	}

	return nil
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}

// SlogLevel maps log-level to a slog level. Unknown values log at info.
func (that *Config) SlogLevel() slog.Level {
	switch that.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
