package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	GigaChat GigaChatConfig
	Upload   UploadConfig
	OCR      OCRConfig
	Logger   LoggerConfig
}

type LoggerConfig struct {
	Level string
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig selects the item store backend. Driver is "sqlite" or "postgres".
type DatabaseConfig struct {
	Driver     string
	Host       string
	Port       string
	User       string
	Password   string
	DBName     string
	SSLMode    string
	SQLitePath string
}

type GigaChatConfig struct {
	APIKey             string
	Scope              string
	InsecureSkipVerify bool
	BaseURL            string
	OAuthURL           string
	Model              string
	// VisionEnabled turns the primary analyzer off entirely, every upload then goes through OCR.
	VisionEnabled bool
	Timeout       time.Duration
}

type UploadConfig struct {
	Dir          string
	MaxBytes     int64
	AllowedTypes []string
}

type OCRConfig struct {
	Language string
	DPI      float64
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

func Load() (*Config, error) {
	// .env is optional, plain environment variables work the same way (Docker/K8s)
	envFiles := []string{".env", "../.env", "../../.env"}
	for _, envFile := range envFiles {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}

	readTimeout, _ := strconv.Atoi(getEnv("SERVER_READ_TIMEOUT", "30"))
	writeTimeout, _ := strconv.Atoi(getEnv("SERVER_WRITE_TIMEOUT", "60"))
	visionTimeout, _ := strconv.Atoi(getEnv("VISION_TIMEOUT_SECONDS", "20"))
	maxBytes, err := strconv.ParseInt(getEnv("UPLOAD_MAX_BYTES", "10485760"), 10, 64)
	if err != nil || maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	dpi, err := strconv.ParseFloat(getEnv("OCR_DPI", "300"), 64)
	if err != nil || dpi <= 0 {
		dpi = 300
	}
	if visionTimeout <= 0 {
		visionTimeout = 20
	}

	apiKey := getEnv("GIGACHAT_API_KEY", "")

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8000"),
			ReadTimeout:  time.Duration(readTimeout) * time.Second,
			WriteTimeout: time.Duration(writeTimeout) * time.Second,
		},
		Database: DatabaseConfig{
			Driver:     strings.ToLower(getEnv("DB_DRIVER", DriverSQLite)),
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       getEnv("DB_PORT", "5432"),
			User:       getEnv("DB_USER", "postgres"),
			Password:   getEnv("DB_PASSWORD", "postgres"),
			DBName:     getEnv("DB_NAME", "snaplens"),
			SSLMode:    getEnv("DB_SSLMODE", "disable"),
			SQLitePath: getEnv("DB_SQLITE_PATH", "data/snaplens.db"),
		},
		GigaChat: GigaChatConfig{
			APIKey:             apiKey,
			Scope:              getEnv("GIGACHAT_SCOPE", "GIGACHAT_API_PERS"),
			InsecureSkipVerify: getEnv("GIGACHAT_INSECURE_SKIP_VERIFY", "true") == "true",
			BaseURL:            getEnv("GIGACHAT_BASE_URL", "https://gigachat.devices.sberbank.ru/api/v1"),
			OAuthURL:           getEnv("GIGACHAT_OAUTH_URL", "https://ngw.devices.sberbank.ru:9443/api/v2/oauth"),
			Model:              getEnv("GIGACHAT_MODEL", "GigaChat-Pro"),
			VisionEnabled:      apiKey != "" && getEnv("VISION_ENABLED", "true") == "true",
			Timeout:            time.Duration(visionTimeout) * time.Second,
		},
		Upload: UploadConfig{
			Dir:          getEnv("UPLOAD_DIR", "uploads"),
			MaxBytes:     maxBytes,
			AllowedTypes: splitList(getEnv("UPLOAD_ALLOWED_TYPES", "image/png,image/jpeg,image/webp,image/bmp")),
		},
		OCR: OCRConfig{
			Language: getEnv("OCR_LANGUAGE", "eng"),
			DPI:      dpi,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(strings.ToLower(part)); part != "" {
			out = append(out, part)
		}
	}
	return out
}
