package config

import (
	"os"
	"sync"
)

type AuthConfig struct {
	UserInfoURL string
}

var (
	authConfig *AuthConfig
	authOnce   sync.Once
)

func LoadAuthConfig() *AuthConfig {
	authOnce.Do(func() {
		authConfig = &AuthConfig{
			UserInfoURL: os.Getenv("AUTH_USERINFO_URL"),
		}
	})
	return authConfig
}
