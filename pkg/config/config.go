package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// DatabaseConfig agrupa os parâmetros de conexão com o PostgreSQL
type DatabaseConfig struct {
	Host        string
	Port        string
	User        string
	Password    string
	Name        string
	MaxConns    int32
	AutoMigrate bool
}

// DSN monta a URL de conexão aceita tanto pelo pgx quanto pelo golang-migrate
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name,
	)
}

type TelemetryConfig struct {
	Enabled      bool
	OTLPEndpoint string
}

type HTTPConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// SuggestionConfig configura o gateway de sugestão de descrição.
// APIKey vazio desabilita o gateway (Suggest devolve erro de configuração).
type SuggestionConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Config é carregada uma única vez na inicialização e injetada nos componentes
type Config struct {
	ServiceName string
	LogLevel    string
	HTTP        HTTPConfig
	Database    DatabaseConfig
	Telemetry   TelemetryConfig

	// usados apenas pelo serviço de faturamento
	ProductsServiceURL    string
	ProductsClientTimeout time.Duration

	// usado apenas pelo serviço de produtos
	Suggestion SuggestionConfig
}

// Defaults são os valores que variam entre os serviços
type Defaults struct {
	ServiceName  string
	Port         string
	DatabaseName string
}

// Load lê o .env (se existir) e depois as variáveis de ambiente
func Load(defaults Defaults) Config {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("no .env file found, using environment variables")
	}

	return Config{
		ServiceName: getEnv("SERVICE_NAME", defaults.ServiceName),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		HTTP: HTTPConfig{
			Port:            getEnv("PORT", defaults.Port),
			ReadTimeout:     getDuration("HTTP_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getDuration("HTTP_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:     getDuration("HTTP_IDLE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getDuration("HTTP_SHUTDOWN_TIMEOUT", 15*time.Second),
		},
		Database: DatabaseConfig{
			Host:        getEnv("DATABASE_HOST", "localhost"),
			Port:        getEnv("DATABASE_PORT", "5432"),
			User:        getEnv("DATABASE_USER", "root"),
			Password:    getEnv("DATABASE_PASSWORD", "pass"),
			Name:        getEnv("DATABASE_NAME", defaults.DatabaseName),
			MaxConns:    int32(getInt("DATABASE_MAX_CONNS", 10)),
			AutoMigrate: getBool("AUTO_MIGRATE", true),
		},
		Telemetry: TelemetryConfig{
			Enabled:      getBool("OTEL_ENABLED", true),
			OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		},
		ProductsServiceURL:    getEnv("PRODUCTS_SERVICE_URL", "http://localhost:8080"),
		ProductsClientTimeout: getDuration("PRODUCTS_CLIENT_TIMEOUT", 10*time.Second),
		Suggestion: SuggestionConfig{
			APIKey:  os.Getenv("OPENAI_API_KEY"),
			BaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Timeout: getDuration("SUGGESTION_TIMEOUT", 20*time.Second),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return n
}

func getBool(key string, defaultValue bool) bool {
	b, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return b
}

// getDuration aceita "10s", "500ms" etc.
func getDuration(key string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return d
}
