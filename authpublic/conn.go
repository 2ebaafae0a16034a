package authpublic

import (
	"net"
	"net/http"
	"strconv"
	"strings"
)

// Conn is one request/response pair as seen by strategies. It is owned by
// the goroutine serving the request.
type Conn struct {
	Request *http.Request
	Writer  http.ResponseWriter

	Scheme string
	Host   string
	Port   int

	// Status is the response status a strategy wants; 0 means unset.
	Status int

	// Private is nil until the pipeline attaches a RequestContext.
	Private *RequestContext

	Failure *Failure
	Auth    *AuthenticatedUser
}

// NewConn derives the transport facts from the request. Forwarded headers are
// only read when trustForwarded is set.
func NewConn(w http.ResponseWriter, r *http.Request, trustForwarded bool) *Conn {
	conn := &Conn{
		Request: r,
		Writer:  w,
		Scheme:  "http",
	}

	if r.TLS != nil {
		conn.Scheme = "https"
	}

	conn.Host, conn.Port = splitHostPort(r.Host)

	if trustForwarded {
		applyForwardedHeaders(conn, r.Header)
	}

	if conn.Port == 0 {
		conn.Port = DefaultPort(conn.Scheme)
	}

	return conn
}

func (c *Conn) Method() string {
	if c == nil || c.Request == nil {
		return ""
	}
	return c.Request.Method
}

func (c *Conn) Path() string {
	if c == nil || c.Request == nil || c.Request.URL == nil {
		return ""
	}
	return c.Request.URL.Path
}

// DefaultPort returns the well-known port for http and https, else 0.
func DefaultPort(scheme string) int {
	switch strings.ToLower(scheme) {
	case "http":
		return 80
	case "https":
		return 443
	}
	return 0
}

func applyForwardedHeaders(conn *Conn, headers http.Header) {
	if proto := getHeaderKeyOrEmpty(headers, "X-Forwarded-Proto"); proto != "" {
		conn.Scheme = strings.ToLower(strings.TrimSpace(strings.Split(proto, ",")[0]))
		conn.Port = 0
	}

	if host := getHeaderKeyOrEmpty(headers, "X-Forwarded-Host"); host != "" {
		conn.Host, conn.Port = splitHostPort(strings.TrimSpace(strings.Split(host, ",")[0]))
	}

	if port := getHeaderKeyOrEmpty(headers, "X-Forwarded-Port"); port != "" {
		if p, err := strconv.Atoi(strings.TrimSpace(port)); err == nil {
			conn.Port = p
		}
	}
}

func splitHostPort(hostport string) (string, int) {
	host, portStr, err := net.SplitHostPort(hostport)
	if err != nil {
		return strings.Trim(hostport, "[]"), 0
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return host, 0
	}

	return host, port
}

func getHeaderKeyOrEmpty(headers http.Header, key string) string {
	values := headers.Values(key)
	if len(values) > 0 {
		return values[0]
	}
	return ""
}
