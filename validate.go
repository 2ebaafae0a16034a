package auth

import (
	"fmt"
	"strings"

	"github.com/jamesread/strategyshim/authpublic"
)

// validateJwtConfig validates JWT configuration
func validateJwtConfig(cfg *authpublic.Config) error {
	methods := 0
	for _, v := range []string{cfg.Jwt.PubKeyPath, cfg.Jwt.HmacSecret, cfg.Jwt.Jwks} {
		if v != "" {
			methods++
		}
	}

	if methods > 1 {
		return fmt.Errorf("JWT configuration error: specify only one of pubKeyPath, hmacSecret and jwks")
	}
	return nil
}

// validateBasePath validates the path prefix for default routes
func validateBasePath(cfg *authpublic.Config) error {
	if !strings.HasPrefix(cfg.GetBasePath(), "/") {
		return fmt.Errorf("configuration error: basePath must start with /, got %q", cfg.BasePath)
	}
	return nil
}

// validateProviderConfig validates the overrides of one provider
func validateProviderConfig(name string, p *authpublic.ProviderConfig) error {
	for _, path := range []string{p.RequestPath, p.CallbackPath} {
		if path != "" && !strings.HasPrefix(path, "/") {
			return fmt.Errorf("provider %s configuration error: path %q must start with /", name, path)
		}
	}

	if p.RequestPath != "" && p.RequestPath == p.CallbackPath {
		return fmt.Errorf("provider %s configuration error: requestPath and callbackPath must differ", name)
	}

	for _, m := range p.CallbackMethods {
		if !isToken(m) {
			return fmt.Errorf("provider %s configuration error: invalid callback method %q", name, m)
		}
	}

	if p.CallbackPort < 0 || p.CallbackPort > 65535 {
		return fmt.Errorf("provider %s configuration error: callbackPort %d out of range", name, p.CallbackPort)
	}

	return nil
}

func isToken(method string) bool {
	if method == "" {
		return false
	}

	for _, c := range method {
		if c <= ' ' || c >= 0x7f || strings.ContainsRune(`()<>@,;:\"/[]?={}`, c) {
			return false
		}
	}
	return true
}

// validateConfig validates the configuration for consistency and required fields.
func validateConfig(cfg *authpublic.Config) error {
	if err := validateBasePath(cfg); err != nil {
		return err
	}

	if err := validateJwtConfig(cfg); err != nil {
		return err
	}

	for name, p := range cfg.Providers {
		if p == nil {
			continue
		}
		if err := validateProviderConfig(name, p); err != nil {
			return err
		}
	}

	return nil
}
