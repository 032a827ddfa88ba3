package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Solver   SolverConfig
	Costbook CostbookConfig
	Sizing   SizingConfig
	App      AppConfig
}

type ServerConfig struct {
	Port string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type SolverConfig struct {
	URL            string
	TimeoutSeconds int
	CallsPerSecond float64
}

type CostbookConfig struct {
	FeedURL string
	Enabled bool
}

type SizingConfig struct {
	SupplyTempC      float64
	ReturnTempC      float64
	SafetyFactor     float64
	DiversityFactor  float64
	DesignHourMethod string
	TopNHours        int
	FullLoadHours    float64
	MaxIterations    int
	CostOptimize     bool
	Workers          int
	PlantPressurePa  float64
}

type AppConfig struct {
	Environment string
	LogLevel    string
	Version     string
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "heatgrid"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Solver: SolverConfig{
			URL:            getEnv("SOLVER_URL", ""),
			TimeoutSeconds: getEnvAsInt("SOLVER_TIMEOUT_SECONDS", 60),
			CallsPerSecond: getEnvAsFloat("SOLVER_CALLS_PER_SECOND", 2),
		},
		Costbook: CostbookConfig{
			FeedURL: getEnv("COST_FEED_URL", ""),
			Enabled: getEnvAsBool("COST_FEED_ENABLED", false),
		},
		Sizing: SizingConfig{
			SupplyTempC:      getEnvAsFloat("SUPPLY_TEMP_C", 80),
			ReturnTempC:      getEnvAsFloat("RETURN_TEMP_C", 50),
			SafetyFactor:     getEnvAsFloat("SAFETY_FACTOR", 1.1),
			DiversityFactor:  getEnvAsFloat("DIVERSITY_FACTOR", 0.8),
			DesignHourMethod: getEnv("DESIGN_HOUR_METHOD", "peak_hour"),
			TopNHours:        getEnvAsInt("TOP_N_HOURS", 10),
			FullLoadHours:    getEnvAsFloat("FULL_LOAD_HOURS", 1800),
			MaxIterations:    getEnvAsInt("MAX_RESIZE_ITERATIONS", 4),
			CostOptimize:     getEnvAsBool("COST_OPTIMIZE", false),
			Workers:          getEnvAsInt("SIZING_WORKERS", 0),
			PlantPressurePa:  getEnvAsFloat("PLANT_PRESSURE_PA", 600000),
		},
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}

	if c.Sizing.SupplyTempC <= c.Sizing.ReturnTempC {
		return fmt.Errorf("SUPPLY_TEMP_C must exceed RETURN_TEMP_C")
	}

	if c.Sizing.MaxIterations < 1 {
		return fmt.Errorf("MAX_RESIZE_ITERATIONS must be at least 1")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Warning: Invalid float for %s, using default: %g", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid boolean for %s, using default: %v", key, defaultValue)
		return defaultValue
	}

	return value
}
