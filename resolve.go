package auth

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/jamesread/strategyshim/authpublic"
)

type phase int

const (
	phaseRequest phase = iota
	phaseCallback
)

func (p phase) String() string {
	if p == phaseCallback {
		return "callback"
	}
	return "request"
}

type phaseMatch struct {
	entry          *registeredStrategy
	requestContext *authpublic.RequestContext
	phase          phase
}

// match finds the strategy whose request or callback path equals the
// request path. Request contexts are rebuilt on every call.
func (ctx *ShimContext) match(conn *authpublic.Conn) *phaseMatch {
	path := trimPath(conn.Path())

	for _, entry := range ctx.snapshot() {
		rc := ctx.buildRequestContext(entry)

		switch path {
		case trimPath(rc.RequestPath):
			return &phaseMatch{entry: entry, requestContext: rc, phase: phaseRequest}
		case trimPath(rc.CallbackPath):
			return &phaseMatch{entry: entry, requestContext: rc, phase: phaseCallback}
		}
	}

	return nil
}

// buildRequestContext merges the provider overrides from the config with the
// strategy defaults.
func (ctx *ShimContext) buildRequestContext(entry *registeredStrategy) *authpublic.RequestContext {
	override := ctx.Config.GetProvider(entry.name)
	defaults := entry.strategy.Defaults()
	base := strings.TrimSuffix(ctx.Config.GetBasePath(), "/")

	rc := &authpublic.RequestContext{
		StrategyName:    entry.name,
		Strategy:        entry.strategy,
		RequestPath:     firstNonEmpty(override.RequestPath, base+"/"+entry.name),
		CallbackPath:    firstNonEmpty(override.CallbackPath, base+"/"+entry.name+"/callback"),
		CallbackMethods: callbackMethods(override.CallbackMethods, defaults.CallbackMethods),
		Options:         mergeOptions(override.Options, defaults.Options),
		CallbackURL:     override.CallbackURL,
		CallbackScheme:  override.CallbackScheme,
		CallbackPort:    override.CallbackPort,
		CallbackParams:  override.CallbackParams,
		StateCookieName: ctx.Config.GetStateCookieName() + "-" + entry.name,
	}

	return rc
}

func callbackMethods(configured, defaults []string) []string {
	methods := configured
	if len(methods) == 0 {
		methods = defaults
	}
	if len(methods) == 0 {
		methods = []string{"GET"}
	}

	ret := make([]string, 0, len(methods))
	for _, m := range methods {
		ret = append(ret, strings.ToUpper(strings.TrimSpace(m)))
	}
	return ret
}

// mergeOptions returns a fresh map: defaults first, then every configured
// key on top, including zero values such as false. Nested values are copied
// so a request can never write through to the defaults.
func mergeOptions(configured, defaults authpublic.Options) authpublic.Options {
	merged := make(authpublic.Options, len(defaults)+len(configured))

	for k, v := range defaults {
		merged[k] = copyOptionValue(v)
	}

	for k, v := range configured {
		merged[k] = copyOptionValue(v)
	}

	return merged
}

func copyOptionValue(v any) any {
	switch t := v.(type) {
	case authpublic.Options:
		return copyOptionMap(t)
	case map[string]any:
		return copyOptionMap(t)
	case []any:
		ret := make([]any, len(t))
		for i, item := range t {
			ret[i] = copyOptionValue(item)
		}
		return ret
	case []string:
		return slices.Clone(t)
	case map[string]string:
		return maps.Clone(t)
	}

	return v
}

func copyOptionMap(in map[string]any) map[string]any {
	ret := make(map[string]any, len(in))
	for k, v := range in {
		ret[k] = copyOptionValue(v)
	}
	return ret
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func trimPath(path string) string {
	if len(path) > 1 {
		return strings.TrimSuffix(path, "/")
	}
	return path
}

func checkPathConflict(candidate, existing *authpublic.RequestContext) error {
	candidatePaths := []string{trimPath(candidate.RequestPath), trimPath(candidate.CallbackPath)}

	for _, p := range []string{trimPath(existing.RequestPath), trimPath(existing.CallbackPath)} {
		for _, c := range candidatePaths {
			if p == c {
				return fmt.Errorf("strategy %q path %s conflicts with strategy %q", candidate.StrategyName, c, existing.StrategyName)
			}
		}
	}

	return nil
}
