package src

import (
	"fmt"
	"strings"
	"time"

	"onboarding_bot/src/model"

	"github.com/kelseyhightower/envconfig"
)

// testModeDelay replaces the interview delay when TEST_MODE is set
const testModeDelay = time.Minute

type Config struct {
	TestMode bool `envconfig:"TEST_MODE" default:"false"`

	LogConfig       model.LogConfig       `envconfig:"LOG"`
	SlackConfig     model.SlackConfig     `envconfig:"SLACK"`
	AdminConfig     model.AdminConfig     `envconfig:"ADMIN"`
	InterviewConfig model.InterviewConfig `envconfig:"INTERVIEW"`
	RedisConfig     model.RedisConfig     `envconfig:"REDIS"`
	DocsConfig      model.DocsConfig      `envconfig:"DOCS"`
	SummaryConfig   model.SummaryConfig   `envconfig:"SUMMARY"`
	MetricsConfig   model.MetricsConfig   `envconfig:"METRICS"`
}

func LoadConfig() (*Config, error) {
	var config Config
	err := envconfig.Process("", &config)
	if err != nil {
		return nil, fmt.Errorf("error processing environment configuration: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate normalizes and checks the enumerated settings envconfig cannot express
func (c *Config) Validate() error {
	c.InterviewConfig.Renderer = strings.ToLower(strings.TrimSpace(c.InterviewConfig.Renderer))
	c.InterviewConfig.Handoff = strings.ToLower(strings.TrimSpace(c.InterviewConfig.Handoff))
	c.InterviewConfig.JoinPolicy = strings.ToLower(strings.TrimSpace(c.InterviewConfig.JoinPolicy))
	c.SummaryConfig.Provider = strings.ToLower(strings.TrimSpace(c.SummaryConfig.Provider))

	switch c.InterviewConfig.Renderer {
	case "blocks", "modal", "text":
	default:
		return fmt.Errorf("invalid INTERVIEW_RENDERER %q: want blocks, modal or text", c.InterviewConfig.Renderer)
	}

	switch c.InterviewConfig.Handoff {
	case "transcript":
	case "document":
		if c.DocsConfig.CredentialsFile == "" {
			return fmt.Errorf("INTERVIEW_HANDOFF=document requires DOCS_CREDENTIALS_FILE")
		}
	default:
		return fmt.Errorf("invalid INTERVIEW_HANDOFF %q: want transcript or document", c.InterviewConfig.Handoff)
	}

	switch c.InterviewConfig.JoinPolicy {
	case "dedupe", "restart":
	default:
		return fmt.Errorf("invalid INTERVIEW_JOIN_POLICY %q: want dedupe or restart", c.InterviewConfig.JoinPolicy)
	}

	switch c.SummaryConfig.Provider {
	case "", "openai", "ollama", "deepseek", "ark":
	default:
		return fmt.Errorf("invalid SUMMARY_PROVIDER %q", c.SummaryConfig.Provider)
	}

	if c.InterviewConfig.DelayMinutes < 0 {
		return fmt.Errorf("INTERVIEW_DELAY_MINUTES must not be negative, got %d", c.InterviewConfig.DelayMinutes)
	}

	return nil
}

// InterviewDelay is the wait between a join event and the first question
func (c *Config) InterviewDelay() time.Duration {
	if c.TestMode {
		return testModeDelay
	}
	return time.Duration(c.InterviewConfig.DelayMinutes) * time.Minute
}
