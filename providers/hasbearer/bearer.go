package hasbearer

import (
	"strings"

	"github.com/jamesread/golure/pkg/redact"
	"github.com/jamesread/strategyshim/authpublic"
	"github.com/jamesread/strategyshim/helpers"
	log "github.com/sirupsen/logrus"
)

// BearerStrategy accepts static bearer tokens from the configured token map.
type BearerStrategy struct {
	cfg *authpublic.Config
}

func NewBearerStrategy(cfg *authpublic.Config) *BearerStrategy {
	return &BearerStrategy{cfg: cfg}
}

func (s *BearerStrategy) Defaults() authpublic.StrategyDefaults {
	return authpublic.StrategyDefaults{
		CallbackMethods: []string{"GET", "POST"},
		Options: authpublic.Options{
			"header": getBearerHeaderName(s.cfg.BearerToken.Header),
		},
	}
}

// HandleRequest sends the client straight to the callback, carrying along any
// forwarded params. Tokens are presented there.
func (s *BearerStrategy) HandleRequest(conn *authpublic.Conn) authpublic.Result {
	target, err := helpers.CallbackURL(conn, nil)
	if err != nil {
		helpers.Fail(conn, "invalid_callback_url", err.Error())
		return authpublic.Continue
	}

	return helpers.Redirect(conn, target)
}

func (s *BearerStrategy) HandleCallback(conn *authpublic.Conn) authpublic.Result {
	token := extractBearerToken(conn)
	if token == "" {
		helpers.Fail(conn, "missing_token", "No bearer token received")
		return authpublic.Continue
	}

	tokenUser, ok := s.cfg.BearerToken.Tokens[token]
	if !ok || tokenUser == nil {
		log.WithFields(log.Fields{
			"token": redact.RedactString(token),
		}).Debug("Bearer token not found in configured tokens")

		helpers.Fail(conn, "invalid_token", "Bearer token is not recognised")
		return authpublic.Continue
	}

	helpers.SetAuth(conn, &authpublic.AuthenticatedUser{
		Username:      tokenUser.Username,
		UsergroupLine: tokenUser.Usergroup,
	})

	log.WithFields(log.Fields{
		"username":  tokenUser.Username,
		"usergroup": tokenUser.Usergroup,
		"provider":  helpers.StrategyName(conn),
	}).Infof("Bearer token authentication successful")

	return authpublic.Continue
}

// extractBearerToken reads the token from the header named by the "header"
// option.
func extractBearerToken(conn *authpublic.Conn) string {
	headerName := getBearerHeaderName(helpers.OptionString(conn, "header"))
	authHeader := conn.Request.Header.Get(headerName)

	if !strings.HasPrefix(authHeader, "Bearer ") {
		return ""
	}

	return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
}

// getBearerHeaderName returns the header name, defaulting to "Authorization"
func getBearerHeaderName(configured string) string {
	if configured != "" {
		return configured
	}
	return "Authorization"
}
