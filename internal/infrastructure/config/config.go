package config

import (
	"fmt"
	"net/netip"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

// Config アプリケーション全体の設定
type Config struct {
	Server        ServerConfig
	GRPC          GRPCConfig
	API           APIConfig
	Device        DeviceConfig
	Session       SessionConfig
	Presentation  PresentationConfig
	OpenTelemetry OpenTelemetryConfig
	LogLevel      string
	Environment   string
}

// ServerConfig RESTサーバー設定
type ServerConfig struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// GRPCConfig gRPCヘルスサーバー設定
type GRPCConfig struct {
	Enabled bool
	Port    int
}

// APIConfig ギフティコンAPI設定
type APIConfig struct {
	BaseURL  string
	Timeout  time.Duration
	PageSize int
}

// DeviceConfig 端末ストア設定
type DeviceConfig struct {
	DatabasePath string
}

// SessionConfig 起動時に端末ストアへ書き込むセッション（任意）
type SessionConfig struct {
	UserID      string
	AccessToken string
}

// PresentationConfig 表示層設定
type PresentationConfig struct {
	APIKey         string // 空ならAPIキーを検証しない
	AllowedIPs     []string
	Locale         string
	TimeZone       string
	AllowedOrigins []string
}

// OpenTelemetryConfig OpenTelemetry設定
type OpenTelemetryConfig struct {
	Enabled         bool
	ServiceName     string
	ServiceVersion  string
	OTLPEndpoint    string
	OTLPInsecure    bool
	TraceExporter   string // "otlp", "none"
	MetricsExporter string // "otlp", "none"
}

// Load 設定を読み込む
func Load() (*Config, error) {
	// .envファイルを読み込む（存在しない場合は無視）
	_ = godotenv.Load()

	env := getEnv("ENVIRONMENT", "development")

	cfg := &Config{
		Environment: env,
		LogLevel:    strings.ToUpper(getEnv("LOG_LEVEL", "INFO")),
		Server: ServerConfig{
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		GRPC: GRPCConfig{
			Enabled: getEnvAsBool("GRPC_ENABLED", true),
			Port:    getEnvAsInt("GRPC_PORT", 9090),
		},
		API: APIConfig{
			BaseURL:  strings.TrimRight(getEnv("GIFTICON_API_BASE_URL", ""), "/"),
			Timeout:  getEnvAsDuration("GIFTICON_API_TIMEOUT", 10*time.Second),
			PageSize: getEnvAsInt("GIFTICON_API_PAGE_SIZE", 10),
		},
		Device: DeviceConfig{
			DatabasePath: getEnv("DEVICE_DB_PATH", "gifticon-wallet.db"),
		},
		Session: SessionConfig{
			UserID:      getEnv("SESSION_USER_ID", ""),
			AccessToken: getEnv("SESSION_ACCESS_TOKEN", ""),
		},
		Presentation: PresentationConfig{
			APIKey:         getEnv("PRESENTATION_API_KEY", ""),
			AllowedIPs:     getEnvAsList("PRESENTATION_ALLOWED_IPS", nil),
			Locale:         getEnv("PRESENTATION_LOCALE", "ko"),
			TimeZone:       getEnv("PRESENTATION_TIMEZONE", "Asia/Seoul"),
			AllowedOrigins: getEnvAsList("PRESENTATION_ALLOWED_ORIGINS", []string{"*"}),
		},
		OpenTelemetry: OpenTelemetryConfig{
			Enabled:         getEnvAsBool("OTEL_ENABLED", true),
			ServiceName:     getEnv("OTEL_SERVICE_NAME", "gifticon-wallet"),
			ServiceVersion:  getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			OTLPEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://localhost:4318"),
			OTLPInsecure:    getEnvAsBool("OTEL_EXPORTER_OTLP_INSECURE", true),
			TraceExporter:   getEnv("OTEL_TRACES_EXPORTER", "otlp"),
			MetricsExporter: getEnv("OTEL_METRICS_EXPORTER", "otlp"),
		},
	}

	// 必須設定の検証
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate 設定の検証
func (c *Config) validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("GIFTICON_API_BASE_URL is required")
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("GIFTICON_API_BASE_URL must be an absolute URL: %q", c.API.BaseURL)
	}
	if c.API.PageSize < 1 || c.API.PageSize > 100 {
		return fmt.Errorf("GIFTICON_API_PAGE_SIZE must be between 1 and 100")
	}
	if c.Device.DatabasePath == "" {
		return fmt.Errorf("DEVICE_DB_PATH is required")
	}
	switch c.Presentation.Locale {
	case "ko", "en":
	default:
		return fmt.Errorf("PRESENTATION_LOCALE must be ko or en: %q", c.Presentation.Locale)
	}
	if _, err := time.LoadLocation(c.Presentation.TimeZone); err != nil {
		return fmt.Errorf("PRESENTATION_TIMEZONE is invalid: %w", err)
	}
	for _, entry := range c.Presentation.AllowedIPs {
		if _, err := netip.ParsePrefix(entry); err == nil {
			continue
		}
		if _, err := netip.ParseAddr(entry); err != nil {
			return fmt.Errorf("PRESENTATION_ALLOWED_IPS has an invalid entry: %q", entry)
		}
	}
	if c.GRPC.Enabled && c.GRPC.Port == c.Server.Port {
		return fmt.Errorf("GRPC_PORT must differ from SERVER_PORT")
	}
	return nil
}

// IsProduction 本番環境かどうか
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Location 表示用のタイムゾーンを返す（検証済みのため失敗時はUTC）
func (c *PresentationConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// getEnv 環境変数を取得（デフォルト値付き）
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt 環境変数を整数として取得
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsBool 環境変数を真偽値として取得
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration 環境変数を時間として取得
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsList カンマ区切りの環境変数をリストとして取得
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var values []string
	for _, v := range strings.Split(valueStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return defaultValue
	}
	return values
}
