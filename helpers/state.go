package helpers

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"io"
	"net/http"

	"github.com/jamesread/strategyshim/authpublic"
)

// StateParam is the query or form parameter carrying the CSRF state.
const StateParam = "state"

const defaultStateCookieName = "auth-state"

func randString(nByte int) (string, error) {
	b := make([]byte, nByte)

	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}

func stateCookieName(conn *authpublic.Conn) string {
	if rc, ok := Resolve(conn); ok && rc.StateCookieName != "" {
		return rc.StateCookieName
	}
	return defaultStateCookieName
}

// AddStateParam generates a state value, stores it in a cookie for the
// callback phase and returns it so the strategy can send it to the provider.
func AddStateParam(conn *authpublic.Conn) (string, error) {
	state, err := randString(24)
	if err != nil {
		return "", err
	}

	http.SetCookie(conn.Writer, &http.Cookie{
		Name:     stateCookieName(conn),
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   conn.Scheme == "https",
		SameSite: http.SameSiteLaxMode,
	})

	return state, nil
}

// ValidateStateParam compares the state cookie with the state param and
// expires the cookie. Requests without a state cookie pass, since the
// strategy did not ask for one.
func ValidateStateParam(conn *authpublic.Conn) bool {
	name := stateCookieName(conn)

	cookie, err := conn.Request.Cookie(name)
	if err != nil {
		return true
	}

	http.SetCookie(conn.Writer, &http.Cookie{
		Name:   name,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	param := conn.Request.FormValue(StateParam)
	if param == "" || cookie.Value == "" {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(param), []byte(cookie.Value)) == 1
}
