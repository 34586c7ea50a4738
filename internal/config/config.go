package config

import (
	"log"
	"os"
	"time"
)

type Config struct {
	AppPort string

	PostgresDSN string
	RedisAddr   string

	CronSpec string

	BasicAuthUser string
	BasicAuthPass string

	// PipelineFile 可选的 YAML 覆盖文件，为空时只用内置默认配置
	PipelineFile string
	// DetailRenderer 详情页加载方式：http（默认）或 browser
	DetailRenderer string
}

func Load() *Config {
	cfg := &Config{
		AppPort:        getEnv("APP_PORT", "9000"),
		PostgresDSN:    getEnv("POSTGRES_DSN", "host=localhost user=scanner password=scanner dbname=startup_scanner port=5432 sslmode=disable TimeZone=UTC"),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		CronSpec:       getEnv("CRON_SPEC", "0 8 * * 1"),
		BasicAuthUser:  getEnv("APP_BASIC_USER", ""),
		BasicAuthPass:  getEnv("APP_BASIC_PASS", ""),
		PipelineFile:   getEnv("SCANNER_CONFIG", ""),
		DetailRenderer: getEnv("DETAIL_RENDERER", RendererHTTP),
	}

	log.Printf("config loaded: port=%s cron=%s renderer=%s", cfg.AppPort, cfg.CronSpec, cfg.DetailRenderer)
	return cfg
}

const (
	RendererHTTP    = "http"
	RendererBrowser = "browser"
)

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Now returns current time, 方便后续做可测试封装
func Now() time.Time {
	return time.Now()
}
