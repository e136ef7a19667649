package config

import (
	"os"
	"strconv"
)

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
	PublicURL  string
}

type Config struct {
	ContentAPIBaseURL string
	UploadEndpoint    string
	UploadBackend     string // "remote" or "r2"
	RedisURI          string
	FrontendURL       string
	R2                R2
	SecretKey         string
	CookieName        string
	DefaultRole       string
	SessionTTLMinutes int
	DraftIdleMinutes  int
}

func LoadConfig() *Config {
	return &Config{
		ContentAPIBaseURL: getEnv("CONTENT_API_BASE_URL", ""),
		UploadEndpoint:    getEnv("UPLOAD_ENDPOINT", "/upload"),
		UploadBackend:     getEnv("UPLOAD_BACKEND", "remote"),
		RedisURI:          getEnv("REDIS_URI", ""),
		FrontendURL:       getEnv("FRONTEND_URL", "http://localhost:5173"),
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
			PublicURL:  getEnv("R2_PUBLIC_URL", ""),
		},
		SecretKey:         getEnv("SECRET_KEY", ""),
		CookieName:        getEnv("COOKIE_NAME", ""),
		DefaultRole:       getEnv("DEFAULT_ROLE", "member"),
		SessionTTLMinutes: getEnvInt("SESSION_TTL_MINUTES", 720),
		DraftIdleMinutes:  getEnvInt("DRAFT_IDLE_MINUTES", 120),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
