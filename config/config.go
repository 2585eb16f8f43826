// Package config handles loading and validating the agrimesh configuration.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hupe1980/agrimesh/logging"
	"github.com/mattn/go-isatty"
	"github.com/spf13/viper"
)

// Config is the root configuration for the agrimesh server.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Agent       AgentConfig       `mapstructure:"agent"`
	Session     SessionConfig     `mapstructure:"session"`
	LLM         LLMConfig         `mapstructure:"llm"`
	Weather     WeatherConfig     `mapstructure:"weather"`
	Agriculture AgricultureConfig `mapstructure:"agriculture"`
	Language    LanguageConfig    `mapstructure:"language"`
	Sarvam      SarvamConfig      `mapstructure:"sarvam"`
	Speech      SpeechConfig      `mapstructure:"speech"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// ServerConfig holds the HTTP and gRPC listener settings.
type ServerConfig struct {
	Host                string   `mapstructure:"host"`
	Port                int      `mapstructure:"port"`
	GRPCPort            int      `mapstructure:"grpc_port"` // 0 disables the gRPC health server
	OutputDir           string   `mapstructure:"output_dir"`
	MaxAudioSeconds     int      `mapstructure:"max_audio_seconds"`
	AllowedAudioFormats []string `mapstructure:"allowed_audio_formats"`
	MaxUploadBytes      int64    `mapstructure:"max_upload_bytes"`
	// PublicURL prefixes audio links; empty means derive from the request.
	PublicURL string `mapstructure:"public_url"`
}

// AgentConfig bounds a turn and selects the planner.
type AgentConfig struct {
	Planner      string        `mapstructure:"planner"` // "model" or "intent"
	MaxToolCalls int           `mapstructure:"max_tool_calls"`
	TurnTimeout  time.Duration `mapstructure:"turn_timeout"`
	MaxHistory   int           `mapstructure:"max_history"`
}

// SessionConfig controls idle session eviction.
type SessionConfig struct {
	TTL           time.Duration `mapstructure:"ttl"` // 0 keeps sessions until cleared
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// LLMConfig selects and configures the language model.
type LLMConfig struct {
	Provider    string  `mapstructure:"provider"` // "openai", "anthropic" or "gemini"
	Model       string  `mapstructure:"model"`
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
	Project     string  `mapstructure:"project"`  // Vertex AI (gemini only)
	Location    string  `mapstructure:"location"` // Vertex AI (gemini only)
}

// WeatherConfig configures OpenWeatherMap.
type WeatherConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Units   string        `mapstructure:"units"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// AgricultureConfig configures the data.gov.in mandi price resource.
type AgricultureConfig struct {
	APIKey     string        `mapstructure:"api_key"`
	BaseURL    string        `mapstructure:"base_url"`
	MaxRecords int           `mapstructure:"max_records"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// LanguageConfig configures the language envelope.
type LanguageConfig struct {
	DefaultLanguage    string   `mapstructure:"default_language"`
	WorkingLanguage    string   `mapstructure:"working_language"`
	SupportedLanguages []string `mapstructure:"supported_languages"`
	MaxChunkChars      int      `mapstructure:"max_chunk_chars"`
}

// SarvamConfig configures the Sarvam AI language and speech APIs.
type SarvamConfig struct {
	APIKey   string        `mapstructure:"api_key"`
	BaseURL  string        `mapstructure:"base_url"`
	TTSModel string        `mapstructure:"tts_model"`
	Speaker  string        `mapstructure:"speaker"`
	STTModel string        `mapstructure:"stt_model"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// SpeechConfig selects the speech backends.
type SpeechConfig struct {
	STT    string       `mapstructure:"stt"` // "sarvam" or "openai"
	TTS    string       `mapstructure:"tts"` // "sarvam", "openai", "piper" or "none"
	OpenAI OpenAIConfig `mapstructure:"openai"`
	Piper  PiperConfig  `mapstructure:"piper"`
}

// OpenAIConfig holds the Whisper and OpenAI TTS settings.
type OpenAIConfig struct {
	APIKey             string `mapstructure:"api_key"`
	BaseURL            string `mapstructure:"base_url"`
	TranscriptionModel string `mapstructure:"transcription_model"`
	SpeechModel        string `mapstructure:"speech_model"`
	Voice              string `mapstructure:"voice"`
}

// PiperConfig holds Piper TTS settings (Wyoming protocol).
type PiperConfig struct {
	Endpoint string            `mapstructure:"endpoint"`
	Voices   map[string]string `mapstructure:"voices"` // ISO-639-1 code -> Piper voice
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level     string `mapstructure:"level"`  // debug, info, warn, error
	Format    string `mapstructure:"format"` // json, text, auto
	AddSource bool   `mapstructure:"add_source"`
}

// Load reads the configuration from file, environment variables, and defaults.
// If configFile is non-empty it is used directly; otherwise the standard
// search order applies: ./agrimesh.yaml, ./configs/agrimesh.yaml, /etc/agrimesh/agrimesh.yaml.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("agrimesh")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/agrimesh")
	}

	// Environment variables: AGRIMESH_SERVER_PORT, AGRIMESH_LLM_PROVIDER, etc.
	v.SetEnvPrefix("AGRIMESH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The provider keys are also read from their conventional names.
	for key, env := range map[string]string{
		"weather.api_key":     "OPENWEATHERMAP_API_KEY",
		"agriculture.api_key": "DATA_GOV_API_KEY",
		"sarvam.api_key":      "SARVAM_AI_API_KEY",
	} {
		if err := v.BindEnv(key, "AGRIMESH_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, fmt.Errorf("binding %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	cfg.resolveSecrets()
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.grpc_port", 50051)
	v.SetDefault("server.output_dir", "outputs")
	v.SetDefault("server.max_audio_seconds", 20)
	v.SetDefault("server.allowed_audio_formats", []string{".mp3", ".wav"})
	v.SetDefault("server.max_upload_bytes", 25<<20)
	v.SetDefault("server.public_url", "")
	v.SetDefault("agent.planner", "model")
	v.SetDefault("agent.max_tool_calls", 3)
	v.SetDefault("agent.turn_timeout", "60s")
	v.SetDefault("agent.max_history", 50)
	v.SetDefault("session.ttl", "0s")
	v.SetDefault("session.sweep_interval", "1m")
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.max_tokens", 1000)
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.project", "")
	v.SetDefault("llm.location", "")
	v.SetDefault("weather.base_url", "https://api.openweathermap.org/data/2.5/weather")
	v.SetDefault("weather.units", "metric")
	v.SetDefault("weather.timeout", "10s")
	v.SetDefault("agriculture.base_url", "https://api.data.gov.in/resource/9ef84268-d588-465a-a308-a864a43d0070")
	v.SetDefault("agriculture.max_records", 1000)
	v.SetDefault("agriculture.timeout", "10s")
	v.SetDefault("language.default_language", "en-IN")
	v.SetDefault("language.working_language", "en")
	v.SetDefault("language.supported_languages", []string{"en", "hi", "gu", "bn", "te", "ta", "kn", "ml", "mr", "pa"})
	v.SetDefault("language.max_chunk_chars", 1000)
	v.SetDefault("sarvam.base_url", "https://api.sarvam.ai")
	v.SetDefault("sarvam.tts_model", "bulbul:v2")
	v.SetDefault("sarvam.speaker", "anushka")
	v.SetDefault("sarvam.stt_model", "saarika:v2.5")
	v.SetDefault("sarvam.timeout", "30s")
	v.SetDefault("speech.stt", "sarvam")
	v.SetDefault("speech.tts", "sarvam")
	v.SetDefault("speech.openai.api_key", "")
	v.SetDefault("speech.openai.base_url", "")
	v.SetDefault("speech.openai.transcription_model", "whisper-1")
	v.SetDefault("speech.openai.speech_model", "tts-1")
	v.SetDefault("speech.openai.voice", "alloy")
	v.SetDefault("speech.piper.endpoint", "localhost:10200")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "auto")
	v.SetDefault("logging.add_source", false)
}

// resolveSecrets expands "${VAR}" references and falls back to the
// conventional provider variables for model keys.
func (c *Config) resolveSecrets() {
	c.LLM.APIKey = resolveEnvRef(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		c.LLM.APIKey = os.Getenv(llmKeyEnv(c.LLM.Provider))
	}
	c.Weather.APIKey = resolveEnvRef(c.Weather.APIKey)
	c.Agriculture.APIKey = resolveEnvRef(c.Agriculture.APIKey)
	c.Sarvam.APIKey = resolveEnvRef(c.Sarvam.APIKey)
	c.Speech.OpenAI.APIKey = resolveEnvRef(c.Speech.OpenAI.APIKey)
	if c.Speech.OpenAI.APIKey == "" {
		c.Speech.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	}
}

func llmKeyEnv(provider string) string {
	switch provider {
	case "anthropic":
		return "ANTHROPIC_API_KEY"
	case "gemini":
		return "GOOGLE_GEMINI_API_KEY"
	default:
		return "OPENAI_API_KEY"
	}
}

// resolveEnvRef replaces "${VAR_NAME}" patterns with the corresponding env var value.
func resolveEnvRef(val string) string {
	if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
		envKey := val[2 : len(val)-1]
		if envVal := os.Getenv(envKey); envVal != "" {
			return envVal
		}
		return ""
	}
	return val
}

// Validate reports every missing or inconsistent setting at once.
func (c *Config) Validate() error {
	var problems []string
	missing := func(ok bool, name string) {
		if !ok {
			problems = append(problems, "missing "+name)
		}
	}
	oneOf := func(val, name string, allowed ...string) {
		for _, a := range allowed {
			if val == a {
				return
			}
		}
		problems = append(problems, fmt.Sprintf("%s must be one of %s, got %q", name, strings.Join(allowed, "|"), val))
	}

	oneOf(c.LLM.Provider, "llm.provider", "openai", "anthropic", "gemini")
	oneOf(c.Agent.Planner, "agent.planner", "model", "intent")
	oneOf(c.Speech.STT, "speech.stt", "sarvam", "openai")
	oneOf(c.Speech.TTS, "speech.tts", "sarvam", "openai", "piper", "none")

	vertex := c.LLM.Provider == "gemini" && c.LLM.Project != "" && c.LLM.Location != ""
	missing(c.LLM.APIKey != "" || vertex, "llm.api_key ("+llmKeyEnv(c.LLM.Provider)+")")
	missing(c.Weather.APIKey != "", "weather.api_key (OPENWEATHERMAP_API_KEY)")
	missing(c.Sarvam.APIKey != "", "sarvam.api_key (SARVAM_AI_API_KEY)")
	if c.Speech.STT == "openai" || c.Speech.TTS == "openai" {
		missing(c.Speech.OpenAI.APIKey != "", "speech.openai.api_key (OPENAI_API_KEY)")
	}

	if c.Server.Port <= 0 {
		problems = append(problems, "server.port must be positive")
	}
	if c.Server.MaxAudioSeconds <= 0 {
		problems = append(problems, "server.max_audio_seconds must be positive")
	}
	if len(c.Server.AllowedAudioFormats) == 0 {
		problems = append(problems, "server.allowed_audio_formats must not be empty")
	}
	if c.Agent.MaxToolCalls < 0 {
		problems = append(problems, "agent.max_tool_calls must not be negative")
	}
	if c.Language.MaxChunkChars <= 0 {
		problems = append(problems, "language.max_chunk_chars must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// MaxAudioDuration returns the upload length limit.
func (s ServerConfig) MaxAudioDuration() time.Duration {
	return time.Duration(s.MaxAudioSeconds) * time.Second
}

// Addr returns the HTTP listen address.
func (s ServerConfig) Addr() string { return fmt.Sprintf("%s:%d", s.Host, s.Port) }

// NewLogger builds the process logger from the logging section. The "auto"
// format writes text to a terminal and JSON otherwise.
func NewLogger(cfg LoggingConfig, out *os.File) *logging.StructuredLogger {
	format := strings.ToLower(cfg.Format)
	if format == "auto" || format == "" {
		format = "json"
		if isatty.IsTerminal(out.Fd()) || isatty.IsCygwinTerminal(out.Fd()) {
			format = "text"
		}
	}
	return logging.NewLogger(&logging.LoggerConfig{
		Level:     logging.ParseLevel(cfg.Level),
		Format:    format,
		Output:    out,
		AddSource: cfg.AddSource,
	})
}
