package authpublic

import "context"

// RequestContext is the per-request strategy configuration. The pipeline
// builds it with defaults already merged in; readers treat it as read-only.
type RequestContext struct {
	StrategyName    string
	Strategy        Strategy
	RequestPath     string
	CallbackPath    string
	CallbackMethods []string
	Options         Options

	CallbackURL     string
	CallbackScheme  string
	CallbackPort    int
	CallbackParams  []string
	StateCookieName string
}

type connKey struct{}

// WithConn stores the Conn so handlers after the pipeline can read the
// attached Failure or AuthenticatedUser.
func WithConn(ctx context.Context, conn *Conn) context.Context {
	return context.WithValue(ctx, connKey{}, conn)
}

func ConnFromContext(ctx context.Context) (*Conn, bool) {
	conn, ok := ctx.Value(connKey{}).(*Conn)
	return conn, ok && conn != nil
}
