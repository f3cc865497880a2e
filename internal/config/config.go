package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	ServerPort string
	MySQLDSN   string
	RedisAddr  string
	RedisDB    int
	RedisPass  string

	// SecretKey signs session and lifecycle tokens.
	SecretKey string
	// AdminEmail is the sentinel address that receives the all-bits role.
	AdminEmail string
	TokenTTL   time.Duration

	PostsPerPage     int
	FollowersPerPage int
	CommentsPerPage  int

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	MailSender   string
	MailPrefix   string
}

// Load builds Config from environment with sensible defaults.
func Load() *Config {
	return &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),
		MySQLDSN:   getEnv("MYSQL_DSN", "user:password@tcp(localhost:3306)/inkwell?charset=utf8mb4&parseTime=True&loc=Local"),
		RedisAddr:  getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:    getEnvInt("REDIS_DB", 0),
		RedisPass:  os.Getenv("REDIS_PASSWORD"),

		SecretKey:  getEnv("SECRET_KEY", "hard to guess string"),
		AdminEmail: os.Getenv("ADMIN_EMAIL"),
		TokenTTL:   time.Duration(getEnvInt("TOKEN_TTL_SECONDS", 3600)) * time.Second,

		PostsPerPage:     getEnvInt("POSTS_PER_PAGE", 20),
		FollowersPerPage: getEnvInt("FOLLOWERS_PER_PAGE", 50),
		CommentsPerPage:  getEnvInt("COMMENTS_PER_PAGE", 20),

		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnvInt("SMTP_PORT", 25),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		MailSender:   getEnv("MAIL_SENDER", "admin@inkwell.local"),
		MailPrefix:   getEnv("MAIL_PREFIX", "[Inkwell]"),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}
