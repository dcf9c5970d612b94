// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (Hashing, JWT Signing) from
// the domain logic. It acts as an Infrastructure service injected into the
// Application layer (auth service, middleware) through narrow interfaces.
//
// # Token Kinds
//
// Access and refresh tokens are signed with two independent HMAC secrets and
// carry a "typ" claim, so possession of one secret can never mint the other
// kind and a refresh token is never accepted as an access token.
package sec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// # Verification Errors

var (
	// ErrTokenExpired is returned when the current time is past the token's expiry.
	ErrTokenExpired = errors.New("sec: token expired")

	// ErrTokenInvalid is returned for every other verification failure
	// (bad signature, malformed structure, wrong kind, wrong issuer).
	ErrTokenInvalid = errors.New("sec: token invalid")

	// ErrSecretMissing is returned at construction when a signing secret is unset.
	ErrSecretMissing = errors.New("sec: signing secret is not configured")
)

// TokenKind distinguishes the two token families.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

// # Claims

// AccessClaims represents the payload embedded inside a JWT Access Token.
//
// The identity is carried in full so the authenticator can rebuild the
// principal without a database round-trip. The refresh version is never
// part of an access token.
type AccessClaims struct {
	jwt.RegisteredClaims

	// Custom application claims are abbreviated to keep the JWT payload small.
	UserID   string    `json:"uid"`
	Email    string    `json:"eml"`
	Role     string    `json:"rol"`
	TenantID string    `json:"tid,omitempty"`
	Kind     TokenKind `json:"typ"`
}

// Principal converts verified claims into a request principal.
func (claims *AccessClaims) Principal() *Principal {
	role, _ := ParseRole(claims.Role)
	return &Principal{
		UserID:   claims.UserID,
		Email:    claims.Email,
		Role:     role,
		TenantID: claims.TenantID,
	}
}

// RefreshClaims represents the payload of a refresh token.
//
// Version is the credential record's refresh-token counter captured at
// issuance; the token is only honoured while the counter still equals it.
type RefreshClaims struct {
	jwt.RegisteredClaims

	UserID  string    `json:"uid"`
	Version int64     `json:"ver"`
	Kind    TokenKind `json:"typ"`
}

// # Codec

// TokenCodec signs and verifies access and refresh tokens using HS256.
//
// It is stateless apart from immutable configuration and is safe for
// concurrent use.
type TokenCodec struct {
	accessSecret  []byte
	refreshSecret []byte
	issuer        string
	now           func() time.Time
}

// CodecOption customizes a [TokenCodec].
type CodecOption func(*TokenCodec)

// WithClock overrides the time source used for issuing and validating tokens.
func WithClock(now func() time.Time) CodecOption {
	return func(codec *TokenCodec) {
		if now != nil {
			codec.now = now
		}
	}
}

// NewTokenCodec creates a new TokenCodec.
//
// It fails when either secret is empty or when both secrets are identical.
func NewTokenCodec(accessSecret, refreshSecret, issuer string, opts ...CodecOption) (*TokenCodec, error) {
	if accessSecret == "" || refreshSecret == "" {
		return nil, ErrSecretMissing
	}
	if accessSecret == refreshSecret {
		return nil, errors.New("sec: access and refresh secrets must differ")
	}

	codec := &TokenCodec{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		issuer:        issuer,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(codec)
	}
	return codec, nil
}

// Now returns the codec's current time.
func (codec *TokenCodec) Now() time.Time {
	return codec.now()
}

// SignAccess creates a signed access token valid for timeToLive.
func (codec *TokenCodec) SignAccess(claims AccessClaims, timeToLive time.Duration) (string, error) {
	return codec.signAccessAt(codec.now(), claims, timeToLive)
}

// SignRefresh creates a signed refresh token valid for timeToLive.
func (codec *TokenCodec) SignRefresh(claims RefreshClaims, timeToLive time.Duration) (string, error) {
	return codec.signRefreshAt(codec.now(), claims, timeToLive)
}

func (codec *TokenCodec) signAccessAt(issuedAt time.Time, claims AccessClaims, timeToLive time.Duration) (string, error) {
	claims.RegisteredClaims = codec.registered(claims.UserID, issuedAt, timeToLive)
	claims.Kind = TokenKindAccess
	return sign(claims, codec.accessSecret)
}

func (codec *TokenCodec) signRefreshAt(issuedAt time.Time, claims RefreshClaims, timeToLive time.Duration) (string, error) {
	claims.RegisteredClaims = codec.registered(claims.UserID, issuedAt, timeToLive)
	claims.Kind = TokenKindRefresh
	return sign(claims, codec.refreshSecret)
}

// VerifyAccess checks the signature, expiry and kind of an access token.
func (codec *TokenCodec) VerifyAccess(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := codec.parse(tokenString, claims, codec.accessSecret); err != nil {
		return nil, err
	}

	if claims.Kind != TokenKindAccess || claims.UserID == "" {
		return nil, ErrTokenInvalid
	}
	if _, ok := ParseRole(claims.Role); !ok {
		return nil, fmt.Errorf("%w: unknown role %q", ErrTokenInvalid, claims.Role)
	}

	return claims, nil
}

// VerifyRefresh checks the signature, expiry and kind of a refresh token.
//
// It does not consult the credential store; version comparison is the
// caller's responsibility.
func (codec *TokenCodec) VerifyRefresh(tokenString string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := codec.parse(tokenString, claims, codec.refreshSecret); err != nil {
		return nil, err
	}

	if claims.Kind != TokenKindRefresh || claims.UserID == "" || claims.Version < 0 {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}

// registered builds the standard claim block shared by both token kinds.
func (codec *TokenCodec) registered(subject string, issuedAt time.Time, timeToLive time.Duration) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    codec.issuer,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(issuedAt.Add(timeToLive)),
	}
}

// parse verifies tokenString into claims and classifies the failure.
func (codec *TokenCodec) parse(tokenString string, claims jwt.Claims, secret []byte) error {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(codec.now),
	}
	if codec.issuer != "" {
		options = append(options, jwt.WithIssuer(codec.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("sec: unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	}, options...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	if !token.Valid {
		return ErrTokenInvalid
	}

	return nil
}

// sign encodes claims with HS256.
func sign(claims jwt.Claims, secret []byte) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign token: %w", err)
	}
	return signedToken, nil
}
