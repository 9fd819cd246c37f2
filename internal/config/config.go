package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	SourceExt       string
	TargetExt       string
	LocalizationDir string
	DedupPolicy     string
	InputEncoding   string
	DatabaseURL     string
	Neo4jURI        string
	Neo4jUser       string
	Neo4jPassword   string
	BatchSize       int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using environment variables")
	}

	return &Config{
		SourceExt:       getEnv("LOCMERGE_SOURCE_EXT", ".int"),
		TargetExt:       getEnv("LOCMERGE_TARGET_EXT", ".chn"),
		LocalizationDir: getEnv("LOCMERGE_LOCALIZATION_DIR", "Localization"),
		DedupPolicy:     getEnv("LOCMERGE_DEDUP_POLICY", "first"),
		InputEncoding:   getEnv("LOCMERGE_INPUT_ENCODING", "utf-16le"),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		Neo4jURI:        getEnv("NEO4J_URI", ""),
		Neo4jUser:       getEnv("NEO4J_USER", "neo4j"),
		Neo4jPassword:   getEnv("NEO4J_PASSWORD", ""),
		BatchSize:       getEnvInt("BATCH_SIZE", 500),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
