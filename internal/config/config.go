// Package config loads the assistant configuration from a YAML file
// with environment variable overrides for credentials.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Default configuration values.
const (
	DefaultChatBaseURL   = "https://api.deepseek.com/v1"
	DefaultChatModel     = "deepseek-chat"
	DefaultTTSEndpoint   = "http://127.0.0.1:9880"
	DefaultWebAddr       = ":8090"
	DefaultRecordSeconds = 5
)

// Config holds all configuration for the assistant.
// Flag parsing is done in cmd/xiaoyu/main.go; this struct is data only.
type Config struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	Audio    Audio    `yaml:"audio"`
	ASR      ASR      `yaml:"asr"`
	Chat     Chat     `yaml:"chat"`
	TTS      TTS      `yaml:"tts"`
	Pipeline Pipeline `yaml:"pipeline"`
	Web      Web      `yaml:"web"`
}

// Audio configures the capture/playback devices.
type Audio struct {
	// Backend selects the audio backend: auto, alsa, mock.
	Backend string `yaml:"backend"`

	// Device is the platform-specific device identifier (e.g. "hw:0,0").
	Device string `yaml:"device"`

	// SampleRate of the capture device in Hz. The pipeline records
	// 16 kHz mono PCM16; other device rates are resampled.
	SampleRate int `yaml:"sample_rate"`
}

// ASR configures the transcription backends.
type ASR struct {
	// Provider selects the backend: "baidu" or "ifly".
	Provider string `yaml:"provider"`

	Baidu BaiduASR `yaml:"baidu"`
	Ifly  IflyASR  `yaml:"ifly"`
}

// BaiduASR holds Baidu short-speech credentials and endpoints.
type BaiduASR struct {
	APIKey    string `yaml:"api_key"`
	SecretKey string `yaml:"secret_key"`
	TokenURL  string `yaml:"token_url"`
	ASRURL    string `yaml:"asr_url"`
	CUID      string `yaml:"cuid"`
}

// IflyASR holds iFlytek OST credentials.
type IflyASR struct {
	AppID     string `yaml:"app_id"`
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	Host      string `yaml:"host"`
	UploadURL string `yaml:"upload_url"`
}

// Chat configures the chat completion service.
type Chat struct {
	APIKey       string `yaml:"api_key"`
	BaseURL      string `yaml:"base_url"`
	Model        string `yaml:"model"`
	SystemPrompt string `yaml:"system_prompt"`
}

// TTS configures the speech synthesis endpoints.
// Multiple endpoints form a fallback chain, tried in order.
type TTS struct {
	Endpoints []string `yaml:"endpoints"`
	Language  string   `yaml:"language"`
}

// Pipeline configures the turn loop.
type Pipeline struct {
	// RecordSeconds is the fixed capture window per turn.
	RecordSeconds int `yaml:"record_seconds"`

	// TranscriptLog is an optional JSONL file receiving one
	// {timestamp, user, ai} object per completed turn.
	TranscriptLog string `yaml:"transcript_log"`
}

// Web configures the optional debug dashboard.
type Web struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		LogLevel: "info",
		Audio: Audio{
			Backend:    "auto",
			SampleRate: 16000,
		},
		ASR: ASR{
			Provider: "baidu",
		},
		Chat: Chat{
			BaseURL: DefaultChatBaseURL,
			Model:   DefaultChatModel,
		},
		TTS: TTS{
			Endpoints: []string{DefaultTTSEndpoint},
			Language:  "zh",
		},
		Pipeline: Pipeline{
			RecordSeconds: DefaultRecordSeconds,
		},
		Web: Web{
			Addr: DefaultWebAddr,
		},
	}
}

// Load reads a YAML config file on top of the defaults.
// A missing path returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		cfg.LoadEnv()
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	cfg.LoadEnv()
	return cfg, nil
}

// LoadEnv applies environment variable overrides for credentials.
// Call this after file parsing so the environment wins.
func (c *Config) LoadEnv() {
	setIfEnv(&c.ASR.Baidu.APIKey, "BAIDU_API_KEY")
	setIfEnv(&c.ASR.Baidu.SecretKey, "BAIDU_SECRET_KEY")
	setIfEnv(&c.ASR.Ifly.AppID, "IFLY_APP_ID")
	setIfEnv(&c.ASR.Ifly.APIKey, "IFLY_API_KEY")
	setIfEnv(&c.ASR.Ifly.APISecret, "IFLY_API_SECRET")
	setIfEnv(&c.Chat.APIKey, "DEEPSEEK_API_KEY")
}

func setIfEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Validate checks that required configuration is present for the
// selected providers.
func (c *Config) Validate() error {
	switch c.ASR.Provider {
	case "baidu":
		if c.ASR.Baidu.APIKey == "" || c.ASR.Baidu.SecretKey == "" {
			return &Error{Field: "asr.baidu", Message: "BAIDU_API_KEY and BAIDU_SECRET_KEY are required for the baidu provider"}
		}
	case "ifly":
		if c.ASR.Ifly.AppID == "" || c.ASR.Ifly.APIKey == "" || c.ASR.Ifly.APISecret == "" {
			return &Error{Field: "asr.ifly", Message: "IFLY_APP_ID, IFLY_API_KEY and IFLY_API_SECRET are required for the ifly provider"}
		}
	default:
		return &Error{Field: "asr.provider", Message: fmt.Sprintf("unknown ASR provider %q (want baidu or ifly)", c.ASR.Provider)}
	}

	if c.Chat.APIKey == "" {
		return &Error{Field: "chat.api_key", Message: "DEEPSEEK_API_KEY environment variable is required"}
	}
	if len(c.TTS.Endpoints) == 0 {
		return &Error{Field: "tts.endpoints", Message: "at least one TTS endpoint is required"}
	}
	if c.Pipeline.RecordSeconds <= 0 {
		return &Error{Field: "pipeline.record_seconds", Message: "record_seconds must be positive"}
	}
	return nil
}

// Error represents a configuration validation error.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}
