package hasoauth2

import (
	"fmt"
	"strings"

	"github.com/jamesread/strategyshim/authpublic"
	"github.com/jamesread/strategyshim/helpers"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

// Options passed through to the provider's authorize URL when set.
var authorizeParams = []string{"prompt", "access_type", "login_hint", "hd"}

// OAuth2Strategy runs the authorization code flow up to the point where the
// code is handed back. Exchanging the code is left to the application, which
// can get a matching config from OAuth2Config.
type OAuth2Strategy struct {
	provider *authpublic.OAuth2Provider
}

func NewOAuth2Strategy(provider *authpublic.OAuth2Provider) (*OAuth2Strategy, error) {
	if provider == nil {
		return nil, fmt.Errorf("OAuth2 configuration error: provider cannot be nil")
	}

	if provider.AuthUrl == "" || provider.ClientID == "" {
		return nil, fmt.Errorf("OAuth2 configuration error: authUrl and clientId are required")
	}

	return &OAuth2Strategy{provider: provider}, nil
}

func (s *OAuth2Strategy) Defaults() authpublic.StrategyDefaults {
	return authpublic.StrategyDefaults{
		CallbackMethods: []string{"GET"},
		Options: authpublic.Options{
			"scope": strings.Join(s.provider.Scopes, " "),
		},
	}
}

// OAuth2Config returns the provider config for this request, with the
// callback URL as redirect URL and the scope option applied.
func (s *OAuth2Strategy) OAuth2Config(conn *authpublic.Conn) (*oauth2.Config, error) {
	callbackURL, err := helpers.CallbackURL(conn, nil)
	if err != nil {
		return nil, err
	}

	return &oauth2.Config{
		ClientID:     s.provider.ClientID,
		ClientSecret: s.provider.ClientSecret,
		Scopes:       strings.Fields(helpers.OptionString(conn, "scope")),
		Endpoint: oauth2.Endpoint{
			AuthURL:  s.provider.AuthUrl,
			TokenURL: s.provider.TokenUrl,
		},
		RedirectURL: callbackURL,
	}, nil
}

func (s *OAuth2Strategy) HandleRequest(conn *authpublic.Conn) authpublic.Result {
	cfg, err := s.OAuth2Config(conn)
	if err != nil {
		helpers.Fail(conn, "invalid_callback_url", err.Error())
		return authpublic.Continue
	}

	state, err := helpers.AddStateParam(conn)
	if err != nil {
		helpers.Fail(conn, "state_error", err.Error())
		return authpublic.Continue
	}

	loginUrl := cfg.AuthCodeURL(state, authCodeOptions(conn)...)

	log.WithFields(log.Fields{
		"provider": helpers.StrategyName(conn),
		"redirect": cfg.RedirectURL,
	}).Debugf("OAuth2 redirecting to provider")

	return helpers.Redirect(conn, loginUrl)
}

func authCodeOptions(conn *authpublic.Conn) []oauth2.AuthCodeOption {
	opts := []oauth2.AuthCodeOption{}

	query := conn.Request.URL.Query()
	for _, name := range authorizeParams {
		value := query.Get(name)
		if value == "" {
			value = helpers.OptionString(conn, name)
		}

		if value != "" {
			opts = append(opts, oauth2.SetAuthURLParam(name, value))
		}
	}

	return opts
}

// HandleCallback records either the provider's error response or the code.
func (s *OAuth2Strategy) HandleCallback(conn *authpublic.Conn) authpublic.Result {
	query := conn.Request.URL.Query()

	if providerError := query.Get("error"); providerError != "" {
		helpers.SetErrors(conn, helpers.Fields{
			helpers.FieldMessageKey: providerError,
			helpers.FieldMessage:    query.Get("error_description"),
		})
		return authpublic.Continue
	}

	code := query.Get("code")
	if code == "" {
		helpers.Fail(conn, "missing_code", "No code received")
		return authpublic.Continue
	}

	redirectURL, err := helpers.CallbackURL(conn, nil)
	if err != nil {
		helpers.Fail(conn, "invalid_callback_url", err.Error())
		return authpublic.Continue
	}

	helpers.SetAuth(conn, &authpublic.AuthenticatedUser{
		Credentials: map[string]string{
			"code":         code,
			"redirect_uri": redirectURL,
		},
		Extra: map[string]any{
			"title": s.provider.Title,
		},
	})

	return authpublic.Continue
}
