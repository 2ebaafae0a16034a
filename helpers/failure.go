package helpers

import (
	"github.com/jamesread/strategyshim/authpublic"
)

// SetErrors attaches a Failure built from the resolved provider, strategy and
// the normalized errors, replacing any earlier Failure. Inputs that are not
// one of the ErrorInput shapes are a programming error and panic with a
// *ShapeError.
func SetErrors(conn *authpublic.Conn, errs ...ErrorInput) {
	normalized, err := Normalize(errs)
	if err != nil {
		panic(err)
	}

	attachFailure(conn, normalized)
}

// SetErrorsFrom is SetErrors for loosely typed input; the Conn is left
// untouched when the input has an unrecognised shape.
func SetErrorsFrom(conn *authpublic.Conn, raw any) error {
	normalized, err := NormalizeAny(raw)
	if err != nil {
		return err
	}

	attachFailure(conn, normalized)

	return nil
}

// Fail is SetErrors with a single error.
func Fail(conn *authpublic.Conn, key, message string) {
	SetErrors(conn, Typed(Error(key, message)))
}

// SetAuth attaches a successful result, filling in provider and strategy.
func SetAuth(conn *authpublic.Conn, user *authpublic.AuthenticatedUser) {
	user.Provider = StrategyName(conn)
	user.Strategy = Strategy(conn)
	conn.Auth = user
}

func attachFailure(conn *authpublic.Conn, errs []authpublic.ErrorEntry) {
	conn.Failure = &authpublic.Failure{
		Provider: StrategyName(conn),
		Strategy: Strategy(conn),
		Errors:   errs,
	}
}
