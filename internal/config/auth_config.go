package config

import (
	"time"

	"gopkg.in/yaml.v2"
)

type AuthConfig struct {
	JwtSecret []byte
	TokenTtl  time.Duration
}

func (a *AuthConfig) UnmarshalYAML(unmarshal func(any) error) error {
	var raw struct {
		JwtSecret     string `yaml:"jwt-secret"`
		TokenTtlHours uint32 `yaml:"token-ttl-hours"`
	}

	if err := unmarshal(&raw); err != nil {
		return err
	}

	if raw.JwtSecret == "" {
		return &yaml.TypeError{Errors: []string{"auth jwt-secret is required"}}
	}

	a.JwtSecret = []byte(raw.JwtSecret)
	a.TokenTtl = time.Duration(raw.TokenTtlHours) * time.Hour

	if a.TokenTtl == 0 {
		a.TokenTtl = 24 * time.Hour
	}

	return nil
}
