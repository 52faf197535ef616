package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"imgexport/internal/domain"
)

// TokenClaims is the HS256 payload issued by the account service.
type TokenClaims struct {
	Sub      string `json:"sub"`
	Locale   string `json:"locale,omitempty"`
	Exp      int64  `json:"exp,omitempty"`
	Issuer   string `json:"iss,omitempty"`
	Audience string `json:"aud,omitempty"`
}

type sessionKey struct{}

var (
	errMalformedToken = errors.New("invalid token")
	errBadSignature   = errors.New("invalid signature")
	errExpiredToken   = errors.New("token expired")
)

func SignJWT(secret string, claims TokenClaims) (string, error) {
	headerJSON, err := json.Marshal(map[string]string{"alg": "HS256", "typ": "JWT"})
	if err != nil {
		return "", err
	}
	payloadJSON, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}
	data := base64.RawURLEncoding.EncodeToString(headerJSON) + "." + base64.RawURLEncoding.EncodeToString(payloadJSON)
	return data + "." + hmacSign(secret, data), nil
}

func hmacSign(secret, data string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(data))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func VerifyJWT(secret, token string, now time.Time) (*TokenClaims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, errMalformedToken
	}
	expected := hmacSign(secret, parts[0]+"."+parts[1])
	if !hmac.Equal([]byte(expected), []byte(parts[2])) {
		return nil, errBadSignature
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, errMalformedToken
	}
	var claims TokenClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, errMalformedToken
	}
	if claims.Exp != 0 && now.Unix() > claims.Exp {
		return nil, errExpiredToken
	}
	if strings.TrimSpace(claims.Sub) == "" {
		return nil, errMalformedToken
	}
	return &claims, nil
}

// OptionalAuth attaches a session to every request. Requests without an
// Authorization header continue anonymously; a header that does not verify
// is rejected with 401.
func OptionalAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}
			scheme, token, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") {
				unauthorized(w, "invalid authorization")
				return
			}
			claims, err := VerifyJWT(secret, strings.TrimSpace(token), time.Now())
			if err != nil {
				unauthorized(w, err.Error())
				return
			}
			session := domain.Session{UserID: claims.Sub, Locale: claims.Locale}
			next.ServeHTTP(w, r.WithContext(ContextWithSession(r.Context(), session)))
		})
	}
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"code": "unauthorized", "message": msg})
}

// SessionFromContext returns the request session; anonymous when unset.
func SessionFromContext(ctx context.Context) domain.Session {
	if s, ok := ctx.Value(sessionKey{}).(domain.Session); ok {
		return s
	}
	return domain.Session{}
}

func ContextWithSession(ctx context.Context, s domain.Session) context.Context {
	if !s.Authenticated() {
		return ctx
	}
	return context.WithValue(ctx, sessionKey{}, s)
}
