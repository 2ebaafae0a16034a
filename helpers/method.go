package helpers

import (
	"slices"
	"strings"

	"github.com/jamesread/strategyshim/authpublic"
)

// CallbackMethodAllowed reports whether the request method is one of the
// allowed callback methods. No configured methods means nothing is allowed.
func CallbackMethodAllowed(conn *authpublic.Conn) bool {
	method := strings.ToUpper(conn.Method())
	if method == "" {
		return false
	}

	return slices.ContainsFunc(AllowedCallbackMethods(conn), func(allowed string) bool {
		return strings.EqualFold(allowed, method)
	})
}
