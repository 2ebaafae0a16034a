package auth

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/jamesread/strategyshim/authpublic"
	"github.com/jamesread/strategyshim/helpers"
	log "github.com/sirupsen/logrus"
)

// ShimContext holds the configuration and the registered strategies. It is
// the main entry point for users of the library.
//
// The Config should not be mutated after ShimContext creation. Request
// contexts are derived from it on every request.
type ShimContext struct {
	Config     *authpublic.Config
	strategies []*registeredStrategy
	mu         sync.RWMutex
}

type registeredStrategy struct {
	name     string
	strategy authpublic.Strategy
}

// NewShimContext validates cfg and returns a context with no strategies.
func NewShimContext(cfg *authpublic.Config) (*ShimContext, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return &ShimContext{
		Config:     cfg,
		strategies: make([]*registeredStrategy, 0),
	}, nil
}

// AddStrategy registers s under the provider name. The name selects the
// provider overrides in the config and the default request/callback paths.
func (ctx *ShimContext) AddStrategy(name string, s authpublic.Strategy) error {
	if name == "" {
		return fmt.Errorf("strategy name cannot be empty")
	}

	if s == nil {
		return fmt.Errorf("strategy %q cannot be nil", name)
	}

	candidate := &registeredStrategy{name: name, strategy: s}
	candidateCtx := ctx.buildRequestContext(candidate)

	ctx.mu.Lock()
	defer ctx.mu.Unlock()

	for _, existing := range ctx.strategies {
		if existing.name == name {
			return fmt.Errorf("strategy %q is already registered", name)
		}

		if err := checkPathConflict(candidateCtx, ctx.buildRequestContext(existing)); err != nil {
			return err
		}
	}

	ctx.strategies = append(ctx.strategies, candidate)

	log.WithFields(log.Fields{
		"provider":     name,
		"requestPath":  candidateCtx.RequestPath,
		"callbackPath": candidateCtx.CallbackPath,
		"methods":      candidateCtx.CallbackMethods,
	}).Debugf("Strategy registered")

	return nil
}

// RemoveStrategy removes the strategy registered under name.
func (ctx *ShimContext) RemoveStrategy(name string) error {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()

	for i, existing := range ctx.strategies {
		if existing.name == name {
			ctx.strategies = append(ctx.strategies[:i], ctx.strategies[i+1:]...)
			return nil
		}
	}

	return fmt.Errorf("strategy %q is not registered", name)
}

// StrategyNames returns the registered provider names in registration order.
func (ctx *ShimContext) StrategyNames() []string {
	ctx.mu.RLock()
	defer ctx.mu.RUnlock()

	ret := make([]string, 0, len(ctx.strategies))
	for _, s := range ctx.strategies {
		ret = append(ret, s.name)
	}
	return ret
}

func (ctx *ShimContext) snapshot() []*registeredStrategy {
	ctx.mu.RLock()
	defer ctx.mu.RUnlock()

	ret := make([]*registeredStrategy, len(ctx.strategies))
	copy(ret, ctx.strategies)
	return ret
}

// Handler runs the request or callback phase of the matching strategy and
// passes everything else to next. When a phase returns Continue, next sees
// the Conn (with any Failure or AuthenticatedUser) via
// authpublic.ConnFromContext.
func (ctx *ShimContext) Handler(next http.Handler) http.Handler {
	if next == nil {
		next = http.NotFoundHandler()
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn := authpublic.NewConn(w, r, ctx.Config.TrustForwardedHeaders)

		m := ctx.match(conn)
		if m == nil {
			next.ServeHTTP(w, r)
			return
		}

		conn.Private = m.requestContext

		if m.phase == phaseCallback && !helpers.CallbackMethodAllowed(conn) {
			log.WithFields(log.Fields{
				"provider": m.entry.name,
				"method":   conn.Method(),
				"path":     conn.Path(),
			}).Debugf("Callback method not allowed, passing through")
			next.ServeHTTP(w, r)
			return
		}

		if ctx.runPhase(conn, m) == authpublic.Handled {
			return
		}

		next.ServeHTTP(w, r.WithContext(authpublic.WithConn(r.Context(), conn)))
	})
}

func (ctx *ShimContext) runPhase(conn *authpublic.Conn, m *phaseMatch) authpublic.Result {
	attemptID := uuid.NewString()

	logger := log.WithFields(log.Fields{
		"attempt":  attemptID,
		"provider": m.entry.name,
		"phase":    m.phase.String(),
		"path":     conn.Path(),
	})

	if m.phase == phaseCallback && !ctx.Config.GetProvider(m.entry.name).IgnoreStateParam {
		if !helpers.ValidateStateParam(conn) {
			logger.Warnf("State param mismatch in callback")
			helpers.Fail(conn, "csrf_attack", "Cross-Site Request Forgery attack")
			return authpublic.Continue
		}
	}

	phaseFunc := m.entry.strategy.HandleRequest
	if m.phase == phaseCallback {
		phaseFunc = m.entry.strategy.HandleCallback
	}

	result := runPhaseWithPanicRecovery(phaseFunc, conn, logger)

	fields := log.Fields{"result": result.String()}
	if conn.Failure != nil {
		fields["failure"] = conn.Failure.Keys()
	}
	if conn.Auth != nil {
		fields["username"] = conn.Auth.Username
	}
	logger.WithFields(fields).Debugf("Strategy phase complete")

	return result
}

// runPhaseWithPanicRecovery turns a panicking strategy into a failure so the
// application still sees the attempt.
func runPhaseWithPanicRecovery(phase func(*authpublic.Conn) authpublic.Result, conn *authpublic.Conn, logger *log.Entry) (result authpublic.Result) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithFields(log.Fields{
				"panic": r,
			}).Errorf("Panic recovered in authentication strategy")

			helpers.Fail(conn, "strategy_error", fmt.Sprintf("%v", r))
			result = authpublic.Continue
		}
	}()

	return phase(conn)
}
