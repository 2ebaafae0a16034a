package hastrustedheaders

import (
	"net/http"
	"strings"

	"github.com/jamesread/strategyshim/authpublic"
	"github.com/jamesread/strategyshim/helpers"
	log "github.com/sirupsen/logrus"
)

// TrustedHeadersStrategy reads the identity a reverse proxy has already
// established from request headers. Only register it behind a proxy that
// strips these headers from client requests.
type TrustedHeadersStrategy struct {
	headers authpublic.HttpHeaderConfig
}

func NewTrustedHeadersStrategy(cfg *authpublic.Config) *TrustedHeadersStrategy {
	return &TrustedHeadersStrategy{headers: cfg.HttpHeader}
}

func (s *TrustedHeadersStrategy) Defaults() authpublic.StrategyDefaults {
	return authpublic.StrategyDefaults{
		CallbackMethods: []string{"GET"},
		Options: authpublic.Options{
			"username_header":  s.headers.Username,
			"usergroup_header": s.headers.UserGroup,
			"usergroup_sep":    s.headers.UserGroupSep,
		},
	}
}

func (s *TrustedHeadersStrategy) HandleRequest(conn *authpublic.Conn) authpublic.Result {
	target, err := helpers.CallbackURL(conn, nil)
	if err != nil {
		helpers.Fail(conn, "invalid_callback_url", err.Error())
		return authpublic.Continue
	}

	return helpers.Redirect(conn, target)
}

//gocyclo:ignore
func (s *TrustedHeadersStrategy) HandleCallback(conn *authpublic.Conn) authpublic.Result {
	usernameHeader := helpers.OptionString(conn, "username_header")
	if usernameHeader == "" {
		helpers.Fail(conn, "not_configured", "No username header is configured")
		return authpublic.Continue
	}

	u := &authpublic.AuthenticatedUser{
		Username: getHeaderKeyOrEmpty(conn.Request.Header, usernameHeader),
	}

	if u.Username == "" {
		log.WithFields(log.Fields{
			"header": usernameHeader,
		}).Debug("Trusted headers: username header missing")

		helpers.Fail(conn, "missing_username", "The proxy did not supply a username")
		return authpublic.Continue
	}

	if groupHeader := helpers.OptionString(conn, "usergroup_header"); groupHeader != "" {
		u.UsergroupLine = normalizeGroupLine(getHeaderKeyOrEmpty(conn.Request.Header, groupHeader), helpers.OptionString(conn, "usergroup_sep"))
	}

	if prov := getHeaderKeyOrEmpty(conn.Request.Header, "provider"); prov != "" {
		u.Extra = map[string]any{"upstreamProvider": prov}
	}

	helpers.SetAuth(conn, u)

	return authpublic.Continue
}

// normalizeGroupLine rewrites a separator-delimited group header into the
// space-separated line used everywhere else.
func normalizeGroupLine(line, sep string) string {
	if sep == "" {
		return strings.TrimSpace(line)
	}

	u := &authpublic.AuthenticatedUser{UsergroupLine: line}
	return strings.Join(u.Groups(sep), " ")
}

func getHeaderKeyOrEmpty(headers http.Header, key string) string {
	values := headers.Values(key)
	if len(values) > 0 {
		return values[0]
	}
	return ""
}
