package helpers

import (
	"fmt"
	"html"
	"net/http"

	"github.com/jamesread/strategyshim/authpublic"
)

const redirectBody = `<html><body>You are being <a href="%s">redirected</a>.</body></html>`

// Redirect writes a redirect to target. The Location header carries target
// as given; only the link in the body is HTML escaped. The status is
// conn.Status when set, else 302.
func Redirect(conn *authpublic.Conn, target string) authpublic.Result {
	if conn.Status == 0 {
		conn.Status = http.StatusFound
	}

	headers := conn.Writer.Header()
	headers.Set("Location", target)
	headers.Set("Content-Type", "text/html; charset=utf-8")

	conn.Writer.WriteHeader(conn.Status)
	fmt.Fprintf(conn.Writer, redirectBody, html.EscapeString(target))

	return authpublic.Handled
}
