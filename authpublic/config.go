package authpublic

import (
	"fmt"
	"os"

	"dario.cat/mergo"
	"github.com/goccy/go-yaml"
)

type Config struct {
	// BasePath is the prefix used to derive default request and callback paths
	// Defaults to "/auth" if not set
	BasePath string `yaml:"basePath"`

	// TrustForwardedHeaders makes X-Forwarded-Proto/Host/Port override the
	// transport facts used when building absolute URLs
	TrustForwardedHeaders bool `yaml:"trustForwardedHeaders"`

	// StateCookieName is the cookie carrying the CSRF state param between phases
	// Defaults to "auth-state" if not set
	StateCookieName string `yaml:"stateCookieName"`

	// Providers holds per-provider overrides, keyed by the provider name the
	// strategy was registered under
	Providers map[string]*ProviderConfig `yaml:"providers"`

	Jwt JwtConfig `yaml:"jwt"`

	LocalUsers LocalUsersConfig `yaml:"localUsers"`

	OAuth2Providers map[string]*OAuth2Provider `yaml:"oauth2Providers"`

	BearerToken BearerTokenConfig `yaml:"bearerToken"`

	HttpHeader HttpHeaderConfig `yaml:"httpHeader"`

	Mtls MtlsConfig `yaml:"mtls"`
}

// ProviderConfig overrides the defaults a strategy declares. Zero values mean
// "use the default".
type ProviderConfig struct {
	RequestPath     string         `yaml:"requestPath"`
	CallbackPath    string         `yaml:"callbackPath"`
	CallbackMethods []string       `yaml:"callbackMethods"`
	Options         map[string]any `yaml:"options"`

	// CallbackURL replaces the computed callback URL entirely
	CallbackURL    string   `yaml:"callbackUrl"`
	CallbackScheme string   `yaml:"callbackScheme"`
	CallbackPort   int      `yaml:"callbackPort"`
	CallbackParams []string `yaml:"callbackParams"`

	// IgnoreStateParam disables the CSRF state check in the callback phase
	IgnoreStateParam bool `yaml:"ignoreStateParam"`
}

// JwtConfig contains configuration for signed assertion authentication
type JwtConfig struct {
	// PubKeyPath is the path to a local RSA public key file
	PubKeyPath string `yaml:"pubKeyPath"`

	// HmacSecret is the HMAC secret for JWT verification
	HmacSecret string `yaml:"hmacSecret"`

	// Jwks is an inline JSON Web Key Set
	Jwks string `yaml:"jwks"`

	// Aud is the expected audience claim
	Aud string `yaml:"aud"`

	// Issuer is the expected issuer claim
	Issuer string `yaml:"issuer"`

	// ClaimUsername is the JWT claim key for username
	ClaimUsername string `yaml:"claimUsername"`

	// ClaimUserGroup is the JWT claim key for user groups
	ClaimUserGroup string `yaml:"claimUserGroup"`

	// InsecureAllowDumpJwtClaims allows dumping JWT claims in debug logs (insecure)
	InsecureAllowDumpJwtClaims bool `yaml:"insecureAllowDumpJwtClaims"`
}

// BearerTokenConfig contains configuration for static bearer tokens
type BearerTokenConfig struct {
	// Header is the HTTP header carrying the token, defaults to "Authorization"
	Header string                      `yaml:"header"`
	Tokens map[string]*BearerTokenUser `yaml:"tokens"`
}

type BearerTokenUser struct {
	Username  string `yaml:"username"`
	Usergroup string `yaml:"usergroup"`
}

// HttpHeaderConfig names the headers a trusted reverse proxy sets
type HttpHeaderConfig struct {
	// Username is the HTTP header name containing the username
	Username string `yaml:"username"`

	// UserGroup is the HTTP header name containing the user group
	UserGroup string `yaml:"userGroup"`

	// UserGroupSep is the separator for multiple groups in the user group header
	UserGroupSep string `yaml:"userGroupSep"`
}

// MtlsConfig contains configuration for client certificate authentication
type MtlsConfig struct {
	// UsernameFromCN extracts username from Common Name (CN) field
	UsernameFromCN bool `yaml:"usernameFromCN"`

	// UsernameFromSANEmail extracts username from SAN email addresses
	UsernameFromSANEmail bool `yaml:"usernameFromSANEmail"`

	// UsernameStripEmailDomain strips the domain part from email addresses
	UsernameStripEmailDomain bool `yaml:"usernameStripEmailDomain"`

	// GroupFromOU extracts groups from Organizational Unit (OU) fields
	GroupFromOU bool `yaml:"groupFromOU"`

	// GroupFromSANDNS extracts groups from SAN DNS names
	GroupFromSANDNS bool `yaml:"groupFromSANDNS"`

	// GroupSANPrefix filters SAN DNS names by prefix
	GroupSANPrefix string `yaml:"groupSANPrefix"`
}

type LocalUsersConfig struct {
	Users []*LocalUser `yaml:"users"`
}

type LocalUser struct {
	Username  string `yaml:"username"`
	Usergroup string `yaml:"usergroup"`
	Password  string `yaml:"password"`
}

type OAuth2Provider struct {
	Title        string   `yaml:"title"`
	AuthUrl      string   `yaml:"authUrl"`
	TokenUrl     string   `yaml:"tokenUrl"`
	ClientID     string   `yaml:"clientId"`
	ClientSecret string   `yaml:"clientSecret"`
	Scopes       []string `yaml:"scopes"`
}

// GetBasePath returns the path prefix for default strategy routes, with default fallback
func (c *Config) GetBasePath() string {
	if c.BasePath != "" {
		return c.BasePath
	}
	return "/auth"
}

// GetStateCookieName returns the CSRF state cookie name, with default fallback
func (c *Config) GetStateCookieName() string {
	if c.StateCookieName != "" {
		return c.StateCookieName
	}
	return "auth-state"
}

// GetProvider returns the overrides for a provider, never nil.
func (c *Config) GetProvider(name string) *ProviderConfig {
	if p, ok := c.Providers[name]; ok && p != nil {
		return p
	}
	return &ProviderConfig{}
}

func (c *Config) FindUserByUsername(username string) *LocalUser {
	for _, user := range c.LocalUsers.Users {
		if user.Username == username {
			return user
		}
	}

	return nil
}

// LoadConfigFile reads a YAML config file.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	return ParseConfig(data)
}

// ParseConfig decodes YAML and fills every field left empty from
// DefaultConfig.
func ParseConfig(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := mergo.Merge(cfg, DefaultConfig()); err != nil {
		return nil, fmt.Errorf("apply config defaults: %w", err)
	}

	return cfg, nil
}

func DefaultConfig() *Config {
	return &Config{
		BasePath:        "/auth",
		StateCookieName: "auth-state",
		BearerToken: BearerTokenConfig{
			Header: "Authorization",
		},
	}
}
