package hasbasic

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/jamesread/strategyshim/authpublic"
	"github.com/jamesread/strategyshim/helpers"
	"github.com/jamesread/strategyshim/providers/haslocal"
	log "github.com/sirupsen/logrus"
)

// BasicStrategy validates HTTP Basic credentials against the configured local
// users. The request phase sends the challenge; the callback phase checks the
// Authorization header the browser sends back.
type BasicStrategy struct {
	cfg *authpublic.Config
}

func NewBasicStrategy(cfg *authpublic.Config) *BasicStrategy {
	return &BasicStrategy{cfg: cfg}
}

func (s *BasicStrategy) Defaults() authpublic.StrategyDefaults {
	return authpublic.StrategyDefaults{
		CallbackMethods: []string{"GET", "POST"},
		Options: authpublic.Options{
			"realm": "Restricted",
		},
	}
}

// HandleRequest challenges the client. Once the browser retries with
// credentials it is sent on to the callback, which sits below the request
// path so the credentials are sent there as well.
func (s *BasicStrategy) HandleRequest(conn *authpublic.Conn) authpublic.Result {
	callbackURL, err := helpers.CallbackURL(conn, nil)
	if err != nil {
		helpers.Fail(conn, "invalid_callback_url", err.Error())
		return authpublic.Continue
	}

	if _, _, ok := extractBasicAuthCredentials(conn.Request); ok {
		return helpers.Redirect(conn, callbackURL)
	}

	if conn.Status == 0 {
		conn.Status = http.StatusUnauthorized
	}

	conn.Writer.Header().Set("WWW-Authenticate", fmt.Sprintf(`Basic realm=%q, charset="UTF-8"`, helpers.OptionString(conn, "realm")))
	conn.Writer.Header().Set("Content-Location", callbackURL)
	conn.Writer.WriteHeader(conn.Status)

	return authpublic.Handled
}

func (s *BasicStrategy) HandleCallback(conn *authpublic.Conn) authpublic.Result {
	username, password, ok := extractBasicAuthCredentials(conn.Request)
	if !ok {
		helpers.Fail(conn, "missing_credentials", "HTTP Basic credentials are required")
		return authpublic.Continue
	}

	if !haslocal.CheckUserPassword(s.cfg, username, password) {
		log.WithFields(log.Fields{
			"username": username,
		}).Debug("HTTP Basic: Invalid credentials")
		helpers.Fail(conn, "invalid_credentials", "Invalid username or password")
		return authpublic.Continue
	}

	cfgUser := s.cfg.FindUserByUsername(username)

	helpers.SetAuth(conn, &authpublic.AuthenticatedUser{
		Username:      cfgUser.Username,
		UsergroupLine: cfgUser.Usergroup,
	})

	log.WithFields(log.Fields{
		"username":  cfgUser.Username,
		"usergroup": cfgUser.Usergroup,
		"provider":  helpers.StrategyName(conn),
	}).Infof("HTTP Basic authentication successful")

	return authpublic.Continue
}

// extractBasicAuthCredentials extracts username and password from Authorization header
func extractBasicAuthCredentials(r *http.Request) (string, string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Basic ") {
		return "", "", false
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(authHeader, "Basic "))
	if err != nil {
		log.WithFields(log.Fields{
			"error": err,
		}).Debug("HTTP Basic: Failed to decode base64 credentials")
		return "", "", false
	}

	username, password, found := strings.Cut(string(decoded), ":")
	if !found {
		log.Debug("HTTP Basic: Invalid credential format (expected username:password)")
		return "", "", false
	}

	return username, password, true
}
