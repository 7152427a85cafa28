// Package config centralizes environment-driven configuration for chatshot.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds everything the service reads from the environment.
type Config struct {
	// HTTPPort is the port the render API listens on.
	HTTPPort string

	// ChatAppURL is the locally served chat front end the renderer drives.
	ChatAppURL string

	// MaxConcurrent bounds simultaneously running render jobs.
	MaxConcurrent int
	// MaxPooled bounds idle pooled browser processes.
	MaxPooled int

	// BrowserTimeout bounds navigation and readiness waits.
	BrowserTimeout time.Duration
	// SettleDelay is the pause between message injection and measurement.
	SettleDelay time.Duration

	// DefaultHeight/DefaultWidth are used when the caller omits imgSize.
	DefaultHeight int
	DefaultWidth  int

	// OutputDir is where screenshots are written before persistence.
	OutputDir string

	// UploadMode enables remote persistence via the storage provider.
	UploadMode bool
	// StorageProvider selects localfs, httpstore or gdrive.
	StorageProvider string
	// StorageBaseURL and StorageBucket configure the httpstore provider.
	StorageBaseURL string
	StorageBucket  string

	// RedisAddr and QueueName configure the worker intake.
	RedisAddr string
	QueueName string
}

// Load reads configuration from the environment, applying defaults.
func Load() (*Config, error) {
	cfg := &Config{
		HTTPPort:        Env("HTTP_PORT", "3001"),
		ChatAppURL:      Env("CHAT_APP_URL", "http://localhost:8089"),
		MaxConcurrent:   IntEnv("MAX_CONCURRENT_REQUESTS", 5),
		MaxPooled:       IntEnv("MAX_POOLED_BROWSERS", 3),
		BrowserTimeout:  DurationEnv("BROWSER_TIMEOUT", 30*time.Second),
		SettleDelay:     DurationEnv("SETTLE_DELAY", 500*time.Millisecond),
		DefaultHeight:   IntEnv("DEFAULT_IMAGE_HEIGHT", 1920),
		DefaultWidth:    IntEnv("DEFAULT_IMAGE_WIDTH", 1080),
		OutputDir:       Env("OUTPUT_DIR", "./screenshots"),
		UploadMode:      BoolEnv("UPLOAD_MODE", false),
		StorageProvider: Env("STORAGE_PROVIDER", "localfs"),
		StorageBaseURL:  Env("STORAGE_BASE_URL", ""),
		StorageBucket:   Env("STORAGE_BUCKET", "chat-screenshots"),
		RedisAddr:       Env("REDIS_ADDR", "localhost:6379"),
		QueueName:       Env("JOB_QUEUE_NAME", "chatshot:jobs"),
	}

	if cfg.MaxConcurrent < 1 {
		return nil, fmt.Errorf("MAX_CONCURRENT_REQUESTS must be >= 1, got %d", cfg.MaxConcurrent)
	}
	if cfg.MaxPooled < 1 {
		return nil, fmt.Errorf("MAX_POOLED_BROWSERS must be >= 1, got %d", cfg.MaxPooled)
	}
	if cfg.UploadMode && cfg.StorageProvider == "httpstore" && cfg.StorageBaseURL == "" {
		return nil, fmt.Errorf("STORAGE_BASE_URL is required when STORAGE_PROVIDER=httpstore")
	}

	return cfg, nil
}

func Env(k, def string) string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	return v
}

func MustEnv(k string) string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		panic("missing env: " + k)
	}
	return v
}

// BoolEnv reads an env var as bool. If empty or invalid, returns def.
// strconv.ParseBool accepts: 1,t,T,TRUE,true,True,0,f,F,FALSE,false,False.
func BoolEnv(k string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// IntEnv reads an env var as int. If empty or invalid, returns def.
func IntEnv(k string, def int) int {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// DurationEnv reads an env var as a Go duration string ("30s", "500ms").
// Bare integers are treated as seconds. If empty or invalid, returns def.
func DurationEnv(k string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
