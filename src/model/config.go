package model

import "time"

// ----------------------------------------------------
// ================ Config ================

// LogConfig holds configuration for the global logger
type LogConfig struct {
	Level      string `envconfig:"LEVEL" default:"info"`
	Format     string `envconfig:"FORMAT" default:"json"`
	Output     string `envconfig:"OUTPUT" default:"stdout"`
	FilePath   string `envconfig:"FILE_PATH" default:"logs/onboarding_bot.log"`
	TimeFormat string `envconfig:"TIME_FORMAT" default:"rfc3339"`
}

// SlackConfig holds the platform credentials
type SlackConfig struct {
	BotToken string `envconfig:"BOT_TOKEN" required:"true"`
	AppToken string `envconfig:"APP_TOKEN" required:"true"`
	Debug    bool   `envconfig:"DEBUG" default:"false"`
}

// AdminConfig identifies who receives completed questionnaires
type AdminConfig struct {
	UserID string `envconfig:"USER_ID" required:"true"`
	Email  string `envconfig:"EMAIL"`
}

// InterviewConfig controls questionnaire delivery
type InterviewConfig struct {
	DelayMinutes int `envconfig:"DELAY_MINUTES" default:"1440"`
	// blocks, modal or text
	Renderer string `envconfig:"RENDERER" default:"blocks"`
	// transcript or document
	Handoff     string `envconfig:"HANDOFF" default:"transcript"`
	CatalogFile string `envconfig:"CATALOG_FILE"`
	// dedupe or restart
	JoinPolicy string `envconfig:"JOIN_POLICY" default:"dedupe"`
}

// RedisConfig holds the optional join ledger backend
type RedisConfig struct {
	URL       string        `envconfig:"URL"`
	LedgerTTL time.Duration `envconfig:"LEDGER_TTL" default:"720h"`
}

// DocsConfig holds credentials for the document hand-off medium
type DocsConfig struct {
	CredentialsFile string `envconfig:"CREDENTIALS_FILE"`
}

// SummaryConfig selects the optional model that summarizes responses in documents
type SummaryConfig struct {
	// openai, ollama, deepseek or ark; empty disables summaries
	Provider string `envconfig:"PROVIDER"`
	Model    string `envconfig:"MODEL"`
	APIKey   string `envconfig:"API_KEY"`
	BaseURL  string `envconfig:"BASE_URL"`
}

// MetricsConfig holds the metrics and health listener
type MetricsConfig struct {
	Addr string `envconfig:"ADDR" default:":9090"`
}
