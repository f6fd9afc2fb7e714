package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the pick service.
type Config struct {
	DB     DBConfig
	Redis  RedisConfig
	TMDB   TMDBConfig
	Engine EngineConfig
	Port   string
}

// DBConfig holds PostgreSQL configuration.
type DBConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	SSLRootCert string
}

// DSN returns the PostgreSQL connection string.
func (d DBConfig) DSN() string {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
	if d.SSLRootCert != "" {
		dsn += fmt.Sprintf(" sslrootcert=%s", d.SSLRootCert)
	}
	return dsn
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// TMDBConfig holds TMDB API configuration.
type TMDBConfig struct {
	APIKey  string
	BaseURL string
}

// EngineConfig holds the selection engine policy knobs. The quality floors
// apply to every candidate fetch and are never caller-overridable.
type EngineConfig struct {
	MinRuntime          int
	MinVoteCount        int
	MinVoteAverage      float64
	CandidateCap        int
	RecentExcludeLimit  int
	FirstPickPercentile float64
	FirstPickMinPool    int
	DefaultBrowseLimit  int
	ImageBaseURL        string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	dbPort, _ := strconv.Atoi(getEnv("DB_PORT", "5432"))
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))

	cfg := &Config{
		DB: DBConfig{
			Host:        getEnv("DB_HOST", "localhost"),
			Port:        dbPort,
			User:        getEnv("DB_USER", "postgres"),
			Password:    getEnv("DB_PASSWORD", "postgres"),
			DBName:      getEnv("DB_NAME", "muse"),
			SSLMode:     getEnv("DB_SSLMODE", "disable"),
			SSLRootCert: getEnv("DB_SSLROOTCERT", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		TMDB: TMDBConfig{
			APIKey:  getEnv("TMDB_API_KEY", ""),
			BaseURL: getEnv("TMDB_BASE_URL", "https://api.themoviedb.org/3"),
		},
		Engine: EngineConfig{
			MinRuntime:          getEnvInt("ENGINE_MIN_RUNTIME", 60),
			MinVoteCount:        getEnvInt("ENGINE_MIN_VOTE_COUNT", 50),
			MinVoteAverage:      getEnvFloat("ENGINE_MIN_VOTE_AVERAGE", 5.0),
			CandidateCap:        getEnvInt("ENGINE_CANDIDATE_CAP", 1000),
			RecentExcludeLimit:  getEnvInt("ENGINE_RECENT_EXCLUDE_LIMIT", 20),
			FirstPickPercentile: getEnvFloat("ENGINE_FIRST_PICK_PERCENTILE", 0.3),
			FirstPickMinPool:    getEnvInt("ENGINE_FIRST_PICK_MIN_POOL", 10),
			DefaultBrowseLimit:  getEnvInt("ENGINE_DEFAULT_BROWSE_LIMIT", 30),
			ImageBaseURL:        getEnv("IMAGE_BASE_URL", "https://image.tmdb.org/t/p/w500"),
		},
		Port: getEnv("SERVER_PORT", "8080"),
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
