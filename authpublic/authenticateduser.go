package authpublic

import (
	"slices"
	"strings"

	log "github.com/sirupsen/logrus"
)

// AuthenticatedUser is attached to the Conn when a callback succeeds.
type AuthenticatedUser struct {
	Username      string
	UsergroupLine string

	Provider string
	Strategy Strategy

	// Credentials holds whatever the strategy received that the application
	// may need later, e.g. an authorization code.
	Credentials map[string]string
	Extra       map[string]any
}

// Groups splits UsergroupLine by sep, or by whitespace when sep is empty.
func (u *AuthenticatedUser) Groups(sep string) []string {
	ret := []string{}

	if sep != "" {
		for _, v := range strings.Split(u.UsergroupLine, sep) {
			trimmed := strings.TrimSpace(v)

			if trimmed != "" {
				ret = append(ret, trimmed)
			}
		}
	} else {
		ret = strings.Fields(u.UsergroupLine)
	}

	log.Debugf("Groups: %v, %v, sep:%v", u.UsergroupLine, ret, sep)

	return ret
}

func (u *AuthenticatedUser) InAnyGroup(matchUsergroups []string, sep string) bool {
	for _, group := range u.Groups(sep) {
		if slices.Contains(matchUsergroups, group) {
			return true
		}
	}

	return false
}
