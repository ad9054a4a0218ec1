package config

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config is the global configuration for the agent and its servers.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Evolution EvolutionConfig `mapstructure:"evolution"`
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
	DeepSeek  DeepSeekConfig  `mapstructure:"deepseek"`
	TTS       TTSConfig       `mapstructure:"tts"`
	Files     FilesConfig     `mapstructure:"files"`
	Security  SecurityConfig  `mapstructure:"security"`
}

func (c Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

// GetDSN builds the MySQL DSN from the database section.
func (c Config) GetDSN() string {
	d := c.Database
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=True&loc=Local",
		d.Username, d.Password, d.Host, d.Port, d.DBName, d.Charset)
}

// ServerConfig covers the webhook + file server.
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Host string `mapstructure:"host"`
	Mode string `mapstructure:"mode"`
}

// DatabaseConfig covers connection and pool settings.
type DatabaseConfig struct {
	Host             string        `mapstructure:"host"`
	Port             int           `mapstructure:"port"`
	Username         string        `mapstructure:"username"`
	Password         string        `mapstructure:"password"`
	DBName           string        `mapstructure:"dbname"`
	Charset          string        `mapstructure:"charset"`
	MaxOpenConns     int           `mapstructure:"max_open_conns"`
	MaxIdleConns     int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime  time.Duration `mapstructure:"conn_max_lifetime"`
	AcquireTimeout   time.Duration `mapstructure:"acquire_timeout"`
	StatementTimeout time.Duration `mapstructure:"statement_timeout"`
}

// EvolutionConfig covers the WhatsApp transport (Evolution API).
type EvolutionConfig struct {
	URL      string        `mapstructure:"url"`
	Instance string        `mapstructure:"instance"`
	APIKey   string        `mapstructure:"api_key"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// OpenAIConfig covers Whisper transcription.
type OpenAIConfig struct {
	APIKey          string        `mapstructure:"api_key"`
	BaseURL         string        `mapstructure:"base_url"`
	WhisperModel    string        `mapstructure:"whisper_model"`
	WhisperLanguage string        `mapstructure:"whisper_language"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

// DeepSeekConfig covers the intent classification model.
type DeepSeekConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

// TTSConfig covers voice replies (ElevenLabs). Disabled unless both the flag
// and the API key are set.
type TTSConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	VoiceID string        `mapstructure:"voice_id"`
	ModelID string        `mapstructure:"model_id"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// FilesConfig covers generated artifacts (charts, spreadsheets).
type FilesConfig struct {
	ExportsDir     string `mapstructure:"exports_dir"`
	PublicBaseURL  string `mapstructure:"public_base_url"`
	DeliveryMethod string `mapstructure:"delivery_method"` // both, attachment, url
	MaxFileSizeMB  int    `mapstructure:"max_file_size_mb"`
	RetentionDays  int    `mapstructure:"retention_days"`
}

// SecurityConfig covers the SQL allow/deny policy.
type SecurityConfig struct {
	DenyKeywords      []string `mapstructure:"deny_keywords"`
	AllowedLeading    []string `mapstructure:"allowed_leading"`
	AllowedProcedures []string `mapstructure:"allowed_procedures"`
	MaxQueryLength    int      `mapstructure:"max_query_length"`
}

// AppConfig is the process-wide configuration instance.
var AppConfig *Config

// InitConfig loads config.toml (optional) over the defaults and binds
// EVODATA_* environment variables.
func InitConfig() {
	viper.SetConfigName("config")
	viper.SetConfigType("toml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("evodata")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("[Config] no config file, using defaults: %v", err)
	} else {
		log.Printf("[Config] using config file: %s", viper.ConfigFileUsed())
	}

	AppConfig = &Config{}
	if err := viper.Unmarshal(AppConfig); err != nil {
		log.Fatalf("[Config] unable to decode into struct: %v", err)
	}

	log.Printf("[Config] loaded server=%s db=%s exports=%s",
		AppConfig.GetServerAddr(), AppConfig.Database.DBName, AppConfig.Files.ExportsDir)
}

func setDefaults() {
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.mode", "release")

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 3306)
	viper.SetDefault("database.username", "evodata")
	viper.SetDefault("database.password", "")
	viper.SetDefault("database.dbname", "analytics")
	viper.SetDefault("database.charset", "utf8mb4")
	viper.SetDefault("database.max_open_conns", 15)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", "30m")
	viper.SetDefault("database.acquire_timeout", "5s")
	viper.SetDefault("database.statement_timeout", "30s")

	viper.SetDefault("evolution.url", "http://localhost:8080")
	viper.SetDefault("evolution.instance", "clientes")
	viper.SetDefault("evolution.api_key", "")
	viper.SetDefault("evolution.timeout", "30s")

	viper.SetDefault("openai.base_url", "https://api.openai.com/v1")
	viper.SetDefault("openai.whisper_model", "whisper-1")
	viper.SetDefault("openai.whisper_language", "es")
	viper.SetDefault("openai.timeout", "60s")

	viper.SetDefault("deepseek.base_url", "")
	viper.SetDefault("deepseek.model", "deepseek-chat")

	viper.SetDefault("tts.enabled", false)
	viper.SetDefault("tts.api_key", "")
	viper.SetDefault("tts.base_url", "https://api.elevenlabs.io/v1")
	viper.SetDefault("tts.voice_id", "21m00Tcm4TlvDq8ikWAM")
	viper.SetDefault("tts.model_id", "eleven_multilingual_v2")
	viper.SetDefault("tts.timeout", "30s")

	viper.SetDefault("files.exports_dir", "./exports")
	viper.SetDefault("files.public_base_url", "http://localhost:8080/exports")
	viper.SetDefault("files.delivery_method", "both")
	viper.SetDefault("files.max_file_size_mb", 25)
	viper.SetDefault("files.retention_days", 7)

	viper.SetDefault("security.deny_keywords", []string{
		"DROP", "DELETE", "TRUNCATE", "ALTER", "CREATE", "INSERT", "UPDATE",
		"GRANT", "REVOKE", "EXEC", "EXECUTE", "CALL",
	})
	viper.SetDefault("security.allowed_leading", []string{"SELECT", "WITH"})
	viper.SetDefault("security.allowed_procedures", []string{})
	viper.SetDefault("security.max_query_length", 10000)
}
