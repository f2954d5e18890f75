package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultConfigPath     = "config.yaml"
	defaultProvider       = "groq"
	defaultGroqModel      = "llama-3.1-8b-instant"
	defaultMetadataModel  = "openai/gpt-oss-20b"
	defaultGeminiModel    = "gemini-2.5-flash"
	defaultGeminiLocation = "us-central1"
	defaultMode           = "story"
	defaultTopic          = "Ghost story with real places included"
	defaultStoryMinWords  = 280
	defaultStoryMaxWords  = 340
	defaultDialogueMin    = 1200
	defaultDialogueMax    = 1500
	defaultMaxTokens      = 3500
	defaultTemperature    = 0.7
	defaultAttempts       = 2
	defaultMaleVoice      = "en-US-GuyNeural"
	defaultFemaleVoice    = "en-US-JennyNeural"
	defaultVoiceRate      = "-10%"
	defaultVoicePitch     = "-3Hz"
	defaultImageBaseURL   = "https://image.pollinations.ai/prompt/"
	defaultImageModel     = "flux"
	defaultImageWidth     = 720
	defaultImageHeight    = 1280
	defaultImageRetries   = 3
	defaultImageBackoff   = 3
	defaultResolution     = "1080x1920"
	defaultWorkspaceDir   = "./outputs"
	defaultPrivacyStatus  = "public"
	defaultCategoryID     = "22"
	defaultTitleSuffix    = " | Horror Story Shorts"
	defaultDisclaimer     = "This video is AI-generated. The story is fictional and narrated with a synthetic voice. #Shorts"
	defaultTokenPath      = "./youtube_token.json"
	defaultLedgerPath     = "./data/storycast.db"
	defaultGCSPrefix      = "videos"
	defaultServerPort     = 5000
)

type Config struct {
	GroqAPIKey          string
	GeminiAPIKey        string
	GCPProject          string
	YouTubeClientID     string
	YouTubeClientSecret string
	YouTubeTokenPath    string
	GCSBucket           string

	LLM     LLMConfig     `yaml:"llm"`
	Groq    GroqConfig    `yaml:"groq"`
	Gemini  GeminiConfig  `yaml:"gemini"`
	Content ContentConfig `yaml:"content"`
	Voices  VoicesConfig  `yaml:"voices"`
	Image   ImageConfig   `yaml:"image"`
	Video   VideoConfig   `yaml:"video"`
	YouTube YouTubeConfig `yaml:"youtube"`
	GCS     GCSConfig     `yaml:"gcs"`
	Ledger  LedgerConfig  `yaml:"ledger"`
	Server  ServerConfig  `yaml:"server"`
	Secrets SecretsConfig `yaml:"secrets"`
}

type LLMConfig struct {
	Provider string `yaml:"provider"` // "groq" or "gemini"
}

type GroqConfig struct {
	Model         string `yaml:"model"`
	MetadataModel string `yaml:"metadata_model"`
}

type GeminiConfig struct {
	Model    string `yaml:"model"`
	Location string `yaml:"location"`
}

type ContentConfig struct {
	Mode             string  `yaml:"mode"` // "story" or "dialogue"
	DefaultTopic     string  `yaml:"default_topic"`
	StoryMinWords    int     `yaml:"story_min_words"`
	StoryMaxWords    int     `yaml:"story_max_words"`
	DialogueMinWords int     `yaml:"dialogue_min_words"`
	DialogueMaxWords int     `yaml:"dialogue_max_words"`
	MaxTokens        int     `yaml:"max_tokens"`
	Temperature      float64 `yaml:"temperature"`
	Attempts         int     `yaml:"attempts"`
}

type VoicesConfig struct {
	Engine  string `yaml:"engine"` // "edge-tts" or "silent"
	Command string `yaml:"command"`
	Male    string `yaml:"male"`
	Female  string `yaml:"female"`
	AI1     string `yaml:"ai1"`
	AI2     string `yaml:"ai2"`
	Rate    string `yaml:"rate"`
	Pitch   string `yaml:"pitch"`
}

type ImageConfig struct {
	BaseURL        string `yaml:"base_url"`
	Model          string `yaml:"model"`
	Width          int    `yaml:"width"`
	Height         int    `yaml:"height"`
	MaxRetries     int    `yaml:"max_retries"`
	BackoffSeconds int    `yaml:"backoff_seconds"`
}

type VideoConfig struct {
	Resolution   string `yaml:"resolution"`
	WorkspaceDir string `yaml:"workspace_dir"`
	ArchiveDir   string `yaml:"archive_dir"`
	FFmpegPath   string `yaml:"ffmpeg_path"`
	FFprobePath  string `yaml:"ffprobe_path"`
}

type YouTubeConfig struct {
	DefaultTags   []string `yaml:"default_tags"`
	PrivacyStatus string   `yaml:"privacy_status"`
	CategoryID    string   `yaml:"category_id"`
	TitleSuffix   string   `yaml:"title_suffix"`
	Disclaimer    string   `yaml:"disclaimer"`
	Thumbnails    bool     `yaml:"thumbnails"`
}

type GCSConfig struct {
	Enabled bool   `yaml:"enabled"`
	Prefix  string `yaml:"prefix"`
}

type LedgerConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type SecretsConfig struct {
	Enabled bool `yaml:"enabled"`
}

func Load(ctx context.Context) (*Config, error) {
	return LoadFrom(ctx, defaultConfigPath)
}

func LoadFrom(ctx context.Context, path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		GroqAPIKey:          os.Getenv("GROQ_API_KEY"),
		GeminiAPIKey:        os.Getenv("GEMINI_API_KEY"),
		GCPProject:          os.Getenv("GOOGLE_CLOUD_PROJECT"),
		YouTubeClientID:     os.Getenv("YOUTUBE_CLIENT_ID"),
		YouTubeClientSecret: os.Getenv("YOUTUBE_CLIENT_SECRET"),
		YouTubeTokenPath:    getEnvOrDefault("YOUTUBE_TOKEN_PATH", defaultTokenPath),
		GCSBucket:           os.Getenv("GCS_BUCKET"),
	}

	if err := loadYAMLConfig(path, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)

	if cfg.Secrets.Enabled && cfg.GCPProject != "" {
		if err := resolveSecrets(ctx, cfg); err != nil {
			slog.Warn("Secret Manager lookup failed", "error", err)
		}
	}

	return cfg, nil
}

func loadYAMLConfig(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func applyDefaults(cfg *Config) {
	applyLLMDefaults(cfg)
	applyContentDefaults(cfg)
	applyVoiceDefaults(cfg)
	applyImageDefaults(cfg)
	applyVideoDefaults(cfg)
	applyYouTubeDefaults(cfg)
	applyStorageDefaults(cfg)
}

func applyLLMDefaults(cfg *Config) {
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = defaultProvider
	}
	if cfg.Groq.Model == "" {
		cfg.Groq.Model = defaultGroqModel
	}
	if cfg.Groq.MetadataModel == "" {
		cfg.Groq.MetadataModel = defaultMetadataModel
	}
	if cfg.Gemini.Model == "" {
		cfg.Gemini.Model = defaultGeminiModel
	}
	if cfg.Gemini.Location == "" {
		cfg.Gemini.Location = defaultGeminiLocation
	}
}

func applyContentDefaults(cfg *Config) {
	if cfg.Content.Mode == "" {
		cfg.Content.Mode = defaultMode
	}
	if cfg.Content.DefaultTopic == "" {
		cfg.Content.DefaultTopic = defaultTopic
	}
	if cfg.Content.StoryMinWords == 0 {
		cfg.Content.StoryMinWords = defaultStoryMinWords
	}
	if cfg.Content.StoryMaxWords == 0 {
		cfg.Content.StoryMaxWords = defaultStoryMaxWords
	}
	if cfg.Content.DialogueMinWords == 0 {
		cfg.Content.DialogueMinWords = defaultDialogueMin
	}
	if cfg.Content.DialogueMaxWords == 0 {
		cfg.Content.DialogueMaxWords = defaultDialogueMax
	}
	// an inverted range collapses to its minimum
	if cfg.Content.StoryMaxWords < cfg.Content.StoryMinWords {
		cfg.Content.StoryMaxWords = cfg.Content.StoryMinWords
	}
	if cfg.Content.DialogueMaxWords < cfg.Content.DialogueMinWords {
		cfg.Content.DialogueMaxWords = cfg.Content.DialogueMinWords
	}
	if cfg.Content.MaxTokens == 0 {
		cfg.Content.MaxTokens = defaultMaxTokens
	}
	if cfg.Content.Temperature == 0 {
		cfg.Content.Temperature = defaultTemperature
	}
	if cfg.Content.Attempts == 0 {
		cfg.Content.Attempts = defaultAttempts
	}
}

func applyVoiceDefaults(cfg *Config) {
	if cfg.Voices.Engine == "" {
		cfg.Voices.Engine = "edge-tts"
	}
	if cfg.Voices.Command == "" {
		cfg.Voices.Command = "edge-tts"
	}
	if cfg.Voices.Male == "" {
		cfg.Voices.Male = defaultMaleVoice
	}
	if cfg.Voices.Female == "" {
		cfg.Voices.Female = defaultFemaleVoice
	}
	if cfg.Voices.AI1 == "" {
		cfg.Voices.AI1 = defaultMaleVoice
	}
	if cfg.Voices.AI2 == "" {
		cfg.Voices.AI2 = defaultFemaleVoice
	}
	if cfg.Voices.Rate == "" {
		cfg.Voices.Rate = defaultVoiceRate
	}
	if cfg.Voices.Pitch == "" {
		cfg.Voices.Pitch = defaultVoicePitch
	}
}

func applyImageDefaults(cfg *Config) {
	if cfg.Image.BaseURL == "" {
		cfg.Image.BaseURL = defaultImageBaseURL
	}
	if cfg.Image.Model == "" {
		cfg.Image.Model = defaultImageModel
	}
	if cfg.Image.Width == 0 {
		cfg.Image.Width = defaultImageWidth
	}
	if cfg.Image.Height == 0 {
		cfg.Image.Height = defaultImageHeight
	}
	if cfg.Image.MaxRetries == 0 {
		cfg.Image.MaxRetries = defaultImageRetries
	}
	if cfg.Image.BackoffSeconds == 0 {
		cfg.Image.BackoffSeconds = defaultImageBackoff
	}
}

func applyVideoDefaults(cfg *Config) {
	if cfg.Video.Resolution == "" {
		cfg.Video.Resolution = defaultResolution
	}
	if cfg.Video.WorkspaceDir == "" {
		cfg.Video.WorkspaceDir = defaultWorkspaceDir
	}
}

func applyYouTubeDefaults(cfg *Config) {
	if len(cfg.YouTube.DefaultTags) == 0 {
		cfg.YouTube.DefaultTags = []string{"Artificial Intelligence"}
	}
	if cfg.YouTube.PrivacyStatus == "" {
		cfg.YouTube.PrivacyStatus = defaultPrivacyStatus
	}
	if cfg.YouTube.CategoryID == "" {
		cfg.YouTube.CategoryID = defaultCategoryID
	}
	if cfg.YouTube.TitleSuffix == "" {
		cfg.YouTube.TitleSuffix = defaultTitleSuffix
	}
	if cfg.YouTube.Disclaimer == "" {
		cfg.YouTube.Disclaimer = defaultDisclaimer
	}
}

func applyStorageDefaults(cfg *Config) {
	if cfg.GCS.Prefix == "" {
		cfg.GCS.Prefix = defaultGCSPrefix
	}
	if cfg.Ledger.Path == "" {
		cfg.Ledger.Path = defaultLedgerPath
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaultServerPort
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
