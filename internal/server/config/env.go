package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// EnvConfig mirrors Config with env tags. Like JsonConfig it is a DTO:
// only variables that are actually set override earlier layers.
type EnvConfig struct {
	DatabaseDSN                  string        `env:"DATABASE_DSN"`
	SecretKey                    string        `env:"SECRET_KEY"`
	AccessTokenValidityDuration  time.Duration `env:"ACCESS_TOKEN_VALIDITY_DURATION"`
	RefreshTokenValidityDuration time.Duration `env:"REFRESH_TOKEN_VALIDITY_DURATION"`
	ResetTokenValidityDuration   time.Duration `env:"RESET_TOKEN_VALIDITY_DURATION"`
	ConfirmTokenValidityDuration time.Duration `env:"CONFIRM_TOKEN_VALIDITY_DURATION"`
	TokenCleanupInterval         time.Duration `env:"TOKEN_CLEANUP_INTERVAL"`
	DefaultRoleID                string        `env:"DEFAULT_ROLE_ID"`
	GoogleClientID               string        `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret           string        `env:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL            string        `env:"GOOGLE_REDIRECT_URL"`
	PostmarkServerToken          string        `env:"POSTMARK_SERVER_TOKEN"`
	EmailFrom                    string        `env:"EMAIL_FROM"`
	AppBaseURL                   string        `env:"APP_BASE_URL"`
}

// parseEnv overlays environment variables onto the provided Config.
// Invalid values (e.g. a malformed duration) cause a panic, matching the
// behavior of the JSON layer.
func parseEnv(config *Config) {
	c := EnvConfig{}
	if err := env.Parse(&c); err != nil {
		panic(err)
	}

	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.SecretKey != "" {
		config.SecretKey = c.SecretKey
	}
	if c.AccessTokenValidityDuration != 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration
	}
	if c.RefreshTokenValidityDuration != 0 {
		config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration
	}
	if c.ResetTokenValidityDuration != 0 {
		config.ResetTokenValidityDuration = c.ResetTokenValidityDuration
	}
	if c.ConfirmTokenValidityDuration != 0 {
		config.ConfirmTokenValidityDuration = c.ConfirmTokenValidityDuration
	}
	if c.TokenCleanupInterval != 0 {
		config.TokenCleanupInterval = c.TokenCleanupInterval
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
