package services

import (
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	AI        AIConfig
	Voice     VoiceConfig
	JWT       JWTConfig
	WebSocket WebSocketConfig
	Interview InterviewConfig
}

type ServerConfig struct {
	Port string
}

type DatabaseConfig struct {
	URL          string
	Seed         bool
	LogLevel     string
	MaxIdleConns int
	MaxOpenConns int
}

type AIConfig struct {
	GeminiAPIKey string
}

type VoiceConfig struct {
	APIKey      string
	BaseURL     string
	WorkflowID  string
	AssistantID string
}

type JWTConfig struct {
	Secret string
}

type WebSocketConfig struct {
	AllowedOrigins string
}

// InterviewConfig carries the hand-tuned interview behavior knobs. The
// defaults match production behavior; tests override them.
type InterviewConfig struct {
	DedupWindow    time.Duration
	AutoEndGrace   time.Duration
	ClosingPhrases []string
}

// LoadConfig loads configuration from environment variables and config files
func LoadConfig() *Config {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("websocket.allowed_origins", "")
	viper.SetDefault("gemini.api_key", "")
	viper.SetDefault("vapi.api_key", "")
	viper.SetDefault("vapi.base_url", "https://api.vapi.ai")
	viper.SetDefault("vapi.workflow_id", "")
	viper.SetDefault("vapi.assistant_id", "")
	viper.SetDefault("jwt.secret", "")
	viper.SetDefault("database.url", "")
	viper.SetDefault("database.seed", "true")
	viper.SetDefault("database.log_level", "silent")
	viper.SetDefault("database.max_idle_conns", "10")
	viper.SetDefault("database.max_open_conns", "100")
	viper.SetDefault("interview.dedup_window", "60s")
	viper.SetDefault("interview.auto_end_grace", "3s")
	viper.SetDefault("interview.closing_phrases", "")

	// Map environment variables to config keys
	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("websocket.allowed_origins", "WEBSOCKET_ALLOWED_ORIGINS")
	viper.BindEnv("gemini.api_key", "GEMINI_API_KEY")
	viper.BindEnv("vapi.api_key", "VAPI_API_KEY")
	viper.BindEnv("vapi.base_url", "VAPI_BASE_URL")
	viper.BindEnv("vapi.workflow_id", "VAPI_WORKFLOW_ID")
	viper.BindEnv("vapi.assistant_id", "VAPI_ASSISTANT_ID")
	viper.BindEnv("jwt.secret", "JWT_SECRET")
	viper.BindEnv("database.url", "DATABASE_URL")
	viper.BindEnv("database.seed", "DATABASE_SEED")
	viper.BindEnv("database.log_level", "DATABASE_LOG_LEVEL")
	viper.BindEnv("database.max_idle_conns", "DATABASE_MAX_IDLE_CONNS")
	viper.BindEnv("database.max_open_conns", "DATABASE_MAX_OPEN_CONNS")
	viper.BindEnv("interview.dedup_window", "INTERVIEW_DEDUP_WINDOW")
	viper.BindEnv("interview.auto_end_grace", "INTERVIEW_AUTO_END_GRACE")
	viper.BindEnv("interview.closing_phrases", "INTERVIEW_CLOSING_PHRASES")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			slog.Warn("Config file not found, using defaults and environment variables")
		} else {
			slog.Error("Error reading config file", "error", err)
		}
	}

	return &Config{
		Server: ServerConfig{
			Port: viper.GetString("server.port"),
		},
		Database: DatabaseConfig{
			URL:          viper.GetString("database.url"),
			Seed:         viper.GetBool("database.seed"),
			LogLevel:     viper.GetString("database.log_level"),
			MaxIdleConns: viper.GetInt("database.max_idle_conns"),
			MaxOpenConns: viper.GetInt("database.max_open_conns"),
		},
		AI: AIConfig{
			GeminiAPIKey: viper.GetString("gemini.api_key"),
		},
		Voice: VoiceConfig{
			APIKey:      viper.GetString("vapi.api_key"),
			BaseURL:     viper.GetString("vapi.base_url"),
			WorkflowID:  viper.GetString("vapi.workflow_id"),
			AssistantID: viper.GetString("vapi.assistant_id"),
		},
		JWT: JWTConfig{
			Secret: viper.GetString("jwt.secret"),
		},
		WebSocket: WebSocketConfig{
			AllowedOrigins: viper.GetString("websocket.allowed_origins"),
		},
		Interview: InterviewConfig{
			DedupWindow:    viper.GetDuration("interview.dedup_window"),
			AutoEndGrace:   viper.GetDuration("interview.auto_end_grace"),
			ClosingPhrases: splitClosingPhrases(viper.GetString("interview.closing_phrases")),
		},
	}
}

// splitClosingPhrases parses the comma-separated phrase override; an empty
// value keeps the built-in phrase list
func splitClosingPhrases(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	phrases := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			phrases = append(phrases, strings.ToLower(trimmed))
		}
	}
	return phrases
}
