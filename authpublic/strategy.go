package authpublic

// Options is the free-form option mapping handed to a strategy.
type Options map[string]any

// Result tells the pipeline whether a phase produced the response.
type Result int

const (
	// Continue hands the request on to the next handler.
	Continue Result = iota
	// Handled means the response has been written; nothing else runs.
	Handled
)

func (r Result) String() string {
	if r == Handled {
		return "handled"
	}
	return "continue"
}

// StrategyDefaults are the values a strategy wants when the provider config
// does not override them.
type StrategyDefaults struct {
	CallbackMethods []string
	Options         Options
}

// Strategy is a provider-specific authentication implementation.
type Strategy interface {
	Defaults() StrategyDefaults
	HandleRequest(conn *Conn) Result
	HandleCallback(conn *Conn) Result
}
