package hasjwt

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jamesread/golure/pkg/redact"
	"github.com/jamesread/strategyshim/authpublic"
	"github.com/jamesread/strategyshim/helpers"
	log "github.com/sirupsen/logrus"
)

const defaultClaimUsername = "sub"

// JWTStrategy accepts signed assertions posted to (or presented at) the
// callback. Keys are resolved once, when the strategy is built.
type JWTStrategy struct {
	cfg     authpublic.JwtConfig
	keyfunc jwt.Keyfunc
	method  string
	opts    []jwt.ParserOption
}

// NewJWTStrategy picks exactly one key source from cfg.Jwt: an HMAC secret, a
// local RSA public key file, or an inline JWKS document.
func NewJWTStrategy(cfg *authpublic.Config) (*JWTStrategy, error) {
	s := &JWTStrategy{
		cfg:  cfg.Jwt,
		opts: buildJwtParserOptions(cfg.Jwt),
	}

	var err error

	switch {
	case cfg.Jwt.Jwks != "":
		s.method = "JWKS"
		s.keyfunc, err = jwksKeyfunc(cfg.Jwt.Jwks)
	case cfg.Jwt.PubKeyPath != "":
		s.method = fmt.Sprintf("local key (path: %s)", cfg.Jwt.PubKeyPath)
		s.keyfunc, err = localKeyKeyfunc(cfg.Jwt.PubKeyPath)
	case cfg.Jwt.HmacSecret != "":
		s.method = "HMAC"
		s.keyfunc = hmacKeyfunc(cfg.Jwt.HmacSecret)
	default:
		err = errors.New("no JWT authentication method configured")
	}

	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"method": s.method,
	}).Debug("JWT strategy ready")

	return s, nil
}

func (s *JWTStrategy) Defaults() authpublic.StrategyDefaults {
	username := s.cfg.ClaimUsername
	if username == "" {
		username = defaultClaimUsername
	}

	return authpublic.StrategyDefaults{
		CallbackMethods: []string{"POST", "GET"},
		Options: authpublic.Options{
			"claim_username":  username,
			"claim_usergroup": s.cfg.ClaimUserGroup,
		},
	}
}

// HandleRequest redirects to the callback; assertions are only ever read
// there.
func (s *JWTStrategy) HandleRequest(conn *authpublic.Conn) authpublic.Result {
	target, err := helpers.CallbackURL(conn, nil)
	if err != nil {
		helpers.Fail(conn, "invalid_callback_url", err.Error())
		return authpublic.Continue
	}

	return helpers.Redirect(conn, target)
}

func (s *JWTStrategy) HandleCallback(conn *authpublic.Conn) authpublic.Result {
	token := extractToken(conn)
	if token == "" {
		helpers.Fail(conn, "missing_token", "No token received")
		return authpublic.Continue
	}

	claims, err := s.parse(token)
	if err != nil {
		log.WithFields(log.Fields{
			"method": s.method,
			"error":  err,
			"token":  redact.RedactString(token),
		}).Warnf("JWT claim extraction error")

		helpers.SetErrors(conn, errorInputs(err)...)
		return authpublic.Continue
	}

	if s.cfg.InsecureAllowDumpJwtClaims {
		log.Debugf("JWT Claims %+v", claims)
	}

	username, err := getRequiredClaim(claims, helpers.OptionString(conn, "claim_username"), "username")
	if err != nil {
		log.Warnf("jwt validation error: %v", err)
		helpers.Fail(conn, "missing_claim", err.Error())
		return authpublic.Continue
	}

	helpers.SetAuth(conn, &authpublic.AuthenticatedUser{
		Username:      username,
		UsergroupLine: parseGroupClaim(helpers.OptionString(conn, "claim_usergroup"), claims),
		Credentials: map[string]string{
			"token": token,
		},
		Extra: map[string]any{
			"claims": map[string]any(claims),
		},
	})

	return authpublic.Continue
}

func (s *JWTStrategy) parse(jwtString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(jwtString, s.keyfunc, s.opts...)
	if err != nil {
		return nil, err
	}

	return extractClaimsFromToken(token)
}

// extractToken prefers a "token" form value and falls back to a bearer
// Authorization header.
func extractToken(conn *authpublic.Conn) string {
	if token := strings.TrimSpace(conn.Request.FormValue("token")); token != "" {
		return token
	}

	header := conn.Request.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}

	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

// buildJwtParserOptions builds parser options from JWT config
func buildJwtParserOptions(jwtCfg authpublic.JwtConfig) []jwt.ParserOption {
	opts := []jwt.ParserOption{
		jwt.WithLeeway(5 * time.Second),
	}
	if jwtCfg.Aud != "" {
		opts = append(opts, jwt.WithAudience(jwtCfg.Aud))
	}
	if jwtCfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(jwtCfg.Issuer))
	}
	return opts
}

// extractClaimsFromToken extracts claims from a validated JWT token
func extractClaimsFromToken(token *jwt.Token) (jwt.MapClaims, error) {
	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("jwt token validation failed: token.Valid=%v, claims type=%T", token.Valid, token.Claims)
}

func jwksKeyfunc(raw string) (jwt.Keyfunc, error) {
	k, err := keyfunc.NewJWKSetJSON(json.RawMessage(raw))
	if err != nil {
		return nil, fmt.Errorf("error parsing inline JWKS: %w", err)
	}

	return k.Keyfunc, nil
}

func localKeyKeyfunc(keyPath string) (jwt.Keyfunc, error) {
	keyBytes, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("couldn't read public key from file %s: %w", keyPath, err)
	}

	pubKey, err := jwt.ParseRSAPublicKeyFromPEM(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("error parsing public key object (from %s): %w", keyPath, err)
	}

	return func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("expected token algorithm RSA but got: %v", token.Header["alg"])
		}

		return pubKey, nil
	}, nil
}

// Hash-based Message Authentication Code
func hmacKeyfunc(secret string) jwt.Keyfunc {
	return func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("expected token algorithm HMAC but got: %v", token.Header["alg"])
		}

		return []byte(secret), nil
	}
}

var parseErrorKeys = []struct {
	err error
	key string
}{
	{jwt.ErrTokenMalformed, "malformed_token"},
	{jwt.ErrTokenUnverifiable, "unverifiable_token"},
	{jwt.ErrTokenSignatureInvalid, "invalid_signature"},
	{jwt.ErrTokenExpired, "token_expired"},
	{jwt.ErrTokenNotValidYet, "token_not_valid_yet"},
	{jwt.ErrTokenUsedBeforeIssued, "token_used_before_issued"},
	{jwt.ErrTokenInvalidAudience, "invalid_audience"},
	{jwt.ErrTokenInvalidIssuer, "invalid_issuer"},
}

// errorInputs maps a (possibly joined) parse error onto one failure entry per
// recognised cause.
func errorInputs(err error) []helpers.ErrorInput {
	ret := []helpers.ErrorInput{}

	for _, candidate := range parseErrorKeys {
		if errors.Is(err, candidate.err) {
			ret = append(ret, helpers.Typed(helpers.Error(candidate.key, candidate.err.Error())))
		}
	}

	if len(ret) == 0 {
		ret = append(ret, helpers.Typed(helpers.Error("invalid_token", err.Error())))
	}

	return ret
}

// getRequiredClaim fetches a required claim from JWT claims and validates it is present and non-empty.
// Returns an error if the claim is missing or empty.
func getRequiredClaim(claims jwt.MapClaims, claimKey string, claimName string) (string, error) {
	if claimKey == "" {
		return "", fmt.Errorf("required claim key for %s is not configured", claimName)
	}

	val, ok := claims[claimKey]
	if !ok || val == nil {
		return "", fmt.Errorf("required JWT claim '%s' (key: '%s') is missing", claimName, claimKey)
	}

	claimValue := strings.TrimSpace(fmt.Sprintf("%v", val))
	if claimValue == "" {
		return "", fmt.Errorf("required JWT claim '%s' (key: '%s') is present but empty", claimName, claimKey)
	}

	return claimValue, nil
}

func parseGroupClaim(groupClaim string, claims jwt.MapClaims) string {
	usergroup := ""
	if val, ok := claims[groupClaim]; ok {
		if array, ok := val.([]any); ok {
			groups := make([]string, len(array))
			for i, v := range array {
				groups[i] = fmt.Sprintf("%v", v)
			}
			usergroup = strings.Join(groups, " ")
		} else {
			usergroup = fmt.Sprintf("%v", val)
		}
	}
	return usergroup
}
