package app

import (
	"errors"
	"fmt"
	"os"
	"time"

	"challan-backend/internal/api"
	"challan-backend/internal/components/telemetry"
	"challan-backend/internal/history"
	"challan-backend/lib/configutil"
)

type ERPConfig struct {
	BaseURL        string `json:"base_url"`
	Username       string `json:"username"`
	Password       string `json:"password"`
	DeleteUsername string `json:"delete_username"`
	DeletePassword string `json:"delete_password"`
	MenuID         string `json:"menu_id"`
	UserAgent      string `json:"user_agent"`
	// TimeoutSeconds bounds one workflow call.
	TimeoutSeconds        int     `json:"timeout_seconds"`
	RequestTimeoutSeconds int     `json:"request_timeout_seconds"`
	RetryAttempts         int     `json:"retry_attempts"`
	RetryStepMillis       int     `json:"retry_step_ms"`
	RequestsPerSecond     float64 `json:"requests_per_second"`
	CloudflareBypass      bool    `json:"cloudflare_bypass"`
	InlineReportAssets    bool    `json:"inline_report_assets"`
	// Companies maps company ids to display names.
	Companies map[string]string `json:"companies"`
}

func (c ERPConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type SecurityConfig struct {
	CSRFSecret        string `json:"csrf_secret"`
	CSRFTTLMinutes    int    `json:"csrf_ttl_minutes"`
	DeleteUsername    string `json:"delete_username"`
	DeletePassword    string `json:"delete_password"`
	DeleteTokenSecret string `json:"delete_token_secret"`
	// SweepSpec is the cron spec expired limiter and challenge entries are reclaimed on.
	SweepSpec string `json:"sweep_spec"`
}

type HTTPConfig struct {
	Port            int `json:"port"`
	ShutdownSeconds int `json:"shutdown_seconds"`
	api.Config
}

type Config struct {
	ERP       ERPConfig        `json:"erp"`
	History   history.Config   `json:"history"`
	Security  SecurityConfig   `json:"security"`
	HTTP      HTTPConfig       `json:"http"`
	Telemetry telemetry.Config `json:"telemetry"`
	// CaptureDir keeps every raw ERP exchange when set.
	CaptureDir string `json:"capture_dir"`
	// Workers bounds the background tasks running at once.
	Workers int `json:"workers"`
}

// applyEnv fills secrets from the environment, they win over the configuration file.
func (c *Config) applyEnv() {
	configutil.Env(&c.ERP.BaseURL, "ERP_BASE_URL")
	configutil.Env(&c.ERP.Username, "ERP_USERNAME")
	configutil.Env(&c.ERP.Password, "ERP_PASSWORD")
	configutil.Env(&c.ERP.DeleteUsername, "DELETE_ERP_USERNAME")
	configutil.Env(&c.ERP.DeletePassword, "DELETE_ERP_PASSWORD")
	configutil.Env(&c.History.URI, "MONGODB_URI")
	configutil.Env(&c.Security.CSRFSecret, "API_HMAC_SECRET")
	configutil.Env(&c.Security.DeleteUsername, "DELETE_USERNAME")
	configutil.Env(&c.Security.DeletePassword, "DELETE_PASSWORD")
	configutil.Env(&c.Security.DeleteTokenSecret, "DELETE_TOKEN_SECRET")
}

func (c *Config) applyDefaults() {
	if c.ERP.TimeoutSeconds <= 0 {
		c.ERP.TimeoutSeconds = 90
	}
	if c.History.Database == "" {
		c.History.Database = "challan_input"
	}
	if c.Security.SweepSpec == "" {
		c.Security.SweepSpec = "@every 5m"
	}
	if c.HTTP.Port <= 0 {
		c.HTTP.Port = 8000
	}
	if c.HTTP.ShutdownSeconds <= 0 {
		c.HTTP.ShutdownSeconds = 30
	}
	if c.Workers <= 0 {
		c.Workers = 4
	}
}

func (c Config) validate() error {
	if c.ERP.BaseURL == "" {
		return fmt.Errorf("erp.base_url (or ERP_BASE_URL) is required")
	}
	if c.History.URI == "" {
		return fmt.Errorf("history.uri (or MONGODB_URI) is required")
	}
	return nil
}

// LoadConfig reads the .env file, the json5 configuration at path (plus its local override) and
// the environment, in increasing priority. A missing configuration file is fine as long as the
// environment provides what is required.
func LoadConfig(path string) (Config, error) {
	err := configutil.LoadEnv(".env")
	if err != nil {
		return Config{}, err
	}
	config, err := configutil.ReadConfig[Config](path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, err
	}
	config.applyEnv()
	config.applyDefaults()
	return config, config.validate()
}
