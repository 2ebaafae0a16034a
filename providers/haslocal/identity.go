package haslocal

import (
	"html/template"
	"net/http"

	"github.com/jamesread/strategyshim/authpublic"
	"github.com/jamesread/strategyshim/helpers"
	log "github.com/sirupsen/logrus"
)

var loginForm = template.Must(template.New("login").Parse(`<!DOCTYPE html>
<html>
<head><title>{{.Title}}</title></head>
<body>
	<form method="post" action="{{.Action}}">
		<input type="hidden" name="state" value="{{.State}}">
		<label>Username <input name="{{.UsernameField}}" autocomplete="username"></label>
		<label>Password <input type="password" name="{{.PasswordField}}" autocomplete="current-password"></label>
		<button type="submit">Sign in</button>
	</form>
</body>
</html>
`))

type loginFormData struct {
	Title         string
	Action        string
	State         string
	UsernameField string
	PasswordField string
}

// IdentityStrategy authenticates a username and password posted from a form
// against the local users in the config.
type IdentityStrategy struct {
	cfg *authpublic.Config
}

func NewIdentityStrategy(cfg *authpublic.Config) *IdentityStrategy {
	return &IdentityStrategy{cfg: cfg}
}

func (s *IdentityStrategy) Defaults() authpublic.StrategyDefaults {
	return authpublic.StrategyDefaults{
		CallbackMethods: []string{"POST"},
		Options: authpublic.Options{
			"username_field": "username",
			"password_field": "password",
			"title":          "Sign in",
		},
	}
}

// HandleRequest renders the login form.
func (s *IdentityStrategy) HandleRequest(conn *authpublic.Conn) authpublic.Result {
	action, err := helpers.CallbackURL(conn, nil)
	if err != nil {
		helpers.Fail(conn, "invalid_callback_url", err.Error())
		return authpublic.Continue
	}

	state, err := helpers.AddStateParam(conn)
	if err != nil {
		helpers.Fail(conn, "state_error", err.Error())
		return authpublic.Continue
	}

	if conn.Status == 0 {
		conn.Status = http.StatusOK
	}

	conn.Writer.Header().Set("Content-Type", "text/html; charset=utf-8")
	conn.Writer.WriteHeader(conn.Status)

	err = loginForm.Execute(conn.Writer, loginFormData{
		Title:         helpers.OptionString(conn, "title"),
		Action:        action,
		State:         state,
		UsernameField: fieldName(conn, "username_field", "username"),
		PasswordField: fieldName(conn, "password_field", "password"),
	})
	if err != nil {
		log.WithError(err).Warn("Failed to render login form")
	}

	return authpublic.Handled
}

func (s *IdentityStrategy) HandleCallback(conn *authpublic.Conn) authpublic.Result {
	username := conn.Request.PostFormValue(fieldName(conn, "username_field", "username"))
	password := conn.Request.PostFormValue(fieldName(conn, "password_field", "password"))

	var missing []helpers.ErrorInput
	if username == "" {
		missing = append(missing, helpers.Typed(helpers.Error("missing_username", "Username is required")))
	}
	if password == "" {
		missing = append(missing, helpers.Typed(helpers.Error("missing_password", "Password is required")))
	}
	if len(missing) > 0 {
		helpers.SetErrors(conn, missing...)
		return authpublic.Continue
	}

	if !CheckUserPassword(s.cfg, username, password) {
		helpers.Fail(conn, "invalid_credentials", "Invalid username or password")
		return authpublic.Continue
	}

	user := s.cfg.FindUserByUsername(username)

	helpers.SetAuth(conn, &authpublic.AuthenticatedUser{
		Username:      user.Username,
		UsergroupLine: user.Usergroup,
	})

	log.WithFields(log.Fields{
		"username":  user.Username,
		"usergroup": user.Usergroup,
		"provider":  helpers.StrategyName(conn),
	}).Infof("Local password authentication successful")

	return authpublic.Continue
}

func fieldName(conn *authpublic.Conn, option, fallback string) string {
	if name := helpers.OptionString(conn, option); name != "" {
		return name
	}
	return fallback
}
