package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the components need at construction time. There
// is no ambient application state; main builds one of these and passes the
// pieces down.
type Config struct {
	ListenAddr      string
	MongoURI        string
	MongoDatabase   string
	PhotoCollection string
	UserCollection  string
	UploadDirectory string
	SecretKey       string
	ThumbnailWidth  int
	ThumbnailHeight int
	MaxUploadBytes  int64
	TokenTTL        time.Duration
}

// Load reads a .env file if present, then the environment, with defaults
// for everything except the JWT secret.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ListenAddr:      getenv("LISTEN_ADDR", ":8080"),
		MongoURI:        getenv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:   getenv("MONGO_DATABASE", "cloudalbum"),
		PhotoCollection: getenv("MONGO_PHOTO_COLLECTION", "photos"),
		UserCollection:  getenv("MONGO_USER_COLLECTION", "users"),
		UploadDirectory: getenv("UPLOAD_FOLDER", "./.uploads"),
		SecretKey:       os.Getenv("SECRET_KEY"),
		ThumbnailWidth:  getenvInt("THUMBNAIL_WIDTH", 300),
		ThumbnailHeight: getenvInt("THUMBNAIL_HEIGHT", 200),
		MaxUploadBytes:  getenvInt64("MAX_UPLOAD_BYTES", 10*1024*1024),
		TokenTTL:        getenvDuration("TOKEN_TTL", 24*time.Hour),
	}

	if cfg.SecretKey == "" {
		return nil, errors.New("SECRET_KEY must be set")
	}

	return cfg, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getenvInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
