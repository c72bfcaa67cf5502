package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/authkeeper/internal/flagx"
	"github.com/dmitrijs2005/authkeeper/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON
// unmarshalling. It uses timex.Duration for lifetime fields, which allows
// parsing both string values such as "15m" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON
// configuration files; after unmarshalling, its fields are copied into the
// runtime Config struct which uses time.Duration.
type JsonConfig struct {
	DatabaseDSN                  string         `json:"database_dsn"`
	SecretKey                    string         `json:"secret_key"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration"`
	ResetTokenValidityDuration   timex.Duration `json:"reset_token_validity_duration"`
	ConfirmTokenValidityDuration timex.Duration `json:"confirm_token_validity_duration"`
	TokenCleanupInterval         timex.Duration `json:"token_cleanup_interval"`
	DefaultRoleID                string         `json:"default_role_id"`
	GoogleClientID               string         `json:"google_client_id"`
	GoogleClientSecret           string         `json:"google_client_secret"`
	GoogleRedirectURL            string         `json:"google_redirect_url"`
	PostmarkServerToken          string         `json:"postmark_server_token"`
	EmailFrom                    string         `json:"email_from"`
	AppBaseURL                   string         `json:"app_base_url"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance. The file path comes from the -c or -config command-line
// flags; if neither is set, no JSON file is loaded. If the file cannot be
// read or contains invalid JSON, the function panics.
func parseJson(config *Config) {

	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(data, c); err != nil {
		panic(err)
	}

	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.SecretKey != "" {
		config.SecretKey = c.SecretKey
	}
	if c.AccessTokenValidityDuration != 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Std()
	}
	if c.RefreshTokenValidityDuration != 0 {
		config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Std()
	}
	if c.ResetTokenValidityDuration != 0 {
		config.ResetTokenValidityDuration = c.ResetTokenValidityDuration.Std()
	}
	if c.ConfirmTokenValidityDuration != 0 {
		config.ConfirmTokenValidityDuration = c.ConfirmTokenValidityDuration.Std()
	}
	if c.TokenCleanupInterval != 0 {
		config.TokenCleanupInterval = c.TokenCleanupInterval.Std()
	}
	if c.DefaultRoleID != "" {
		config.DefaultRoleID = c.DefaultRoleID
	}
	if c.GoogleClientID != "" {
		config.GoogleClientID = c.GoogleClientID
	}
	if c.GoogleClientSecret != "" {
		config.GoogleClientSecret = c.GoogleClientSecret
	}
	if c.GoogleRedirectURL != "" {
		config.GoogleRedirectURL = c.GoogleRedirectURL
	}
	if c.PostmarkServerToken != "" {
		config.PostmarkServerToken = c.PostmarkServerToken
	}
	if c.EmailFrom != "" {
		config.EmailFrom = c.EmailFrom
	}
	if c.AppBaseURL != "" {
		config.AppBaseURL = c.AppBaseURL
	}
}
