// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/blinklabs-io/etched/ledger"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken  = errors.New("missing bearer token")
	ErrInvalidToken  = errors.New("invalid bearer token")
	ErrNoTokenSecret = errors.New("no token secret configured")
)

// AuthTypeWallet marks tokens issued for a wallet signature login
const AuthTypeWallet = "wallet"

// Claims are the JWT claims of an API bearer token. The subject is the
// caller's address.
type Claims struct {
	Role     string `json:"role,omitempty"`
	AuthType string `json:"auth_type,omitempty"`
	jwt.RegisteredClaims
}

type callerContextKey struct{}

// GenerateToken issues a signed bearer token for address
func GenerateToken(
	secret []byte,
	issuer string,
	address string,
	role string,
	ttl time.Duration,
) (string, error) {
	if len(secret) == 0 {
		return "", ErrNoTokenSecret
	}
	addr, err := ledger.NormalizeAddress(address)
	if err != nil {
		return "", err
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	now := time.Now()
	claims := &Claims{
		Role:     role,
		AuthType: AuthTypeWallet,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   addr,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ValidateToken parses and verifies a bearer token and returns its claims
func ValidateToken(secret []byte, issuer string, tokenString string) (*Claims, error) {
	if len(secret) == 0 {
		return nil, ErrNoTokenSecret
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (any, error) {
			return secret, nil
		},
		opts...,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if _, err := ledger.NormalizeAddress(claims.Subject); err != nil {
		return nil, fmt.Errorf("%w: bad subject: %w", ErrInvalidToken, err)
	}
	return claims, nil
}

func parseBearer(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// authMiddleware attaches the caller of a valid bearer token to the request
// context. Requests without a token pass through anonymously.
func (a *Api) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}
		tokenString, ok := parseBearer(header)
		if !ok {
			writeError(w, http.StatusUnauthorized, ErrMissingToken)
			return
		}
		claims, err := ValidateToken(a.config.JwtSecret, a.config.JwtIssuer, tokenString)
		if err != nil {
			a.config.Logger.Debug(
				"rejected bearer token",
				"error", err,
				"request_id", requestIdFromContext(r.Context()),
			)
			writeError(w, http.StatusUnauthorized, ErrInvalidToken)
			return
		}
		caller, _ := ledger.NormalizeAddress(claims.Subject)
		ctx := context.WithValue(r.Context(), callerContextKey{}, caller)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireAuth rejects anonymous requests
func (a *Api) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if callerFromContext(r.Context()) == "" {
			writeError(w, http.StatusUnauthorized, ErrMissingToken)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// callerFromContext returns the authenticated address, or an empty string
func callerFromContext(ctx context.Context) string {
	caller, _ := ctx.Value(callerContextKey{}).(string)
	return caller
}
