// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"fmt"
	"time"
)

// TokenPair is the result of a successful issuance.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// Issuer produces access/refresh pairs for an authenticated principal.
//
// It never touches the credential store: the caller passes the record's
// current refresh version and the issuer embeds it verbatim.
type Issuer struct {
	codec      *TokenCodec
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewIssuer creates an Issuer over codec with the configured lifetimes.
func NewIssuer(codec *TokenCodec, accessTTL, refreshTTL time.Duration) *Issuer {
	return &Issuer{
		codec:      codec,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// AccessTTL returns the configured access token lifetime.
func (issuer *Issuer) AccessTTL() time.Duration { return issuer.accessTTL }

// RefreshTTL returns the configured refresh token lifetime.
func (issuer *Issuer) RefreshTTL() time.Duration { return issuer.refreshTTL }

// Issue signs a new access token for principal and a refresh token carrying refreshVersion.
func (issuer *Issuer) Issue(principal Principal, refreshVersion int64) (*TokenPair, error) {
	issuedAt := issuer.codec.Now()

	accessToken, err := issuer.codec.signAccessAt(issuedAt, AccessClaims{
		UserID:   principal.UserID,
		Email:    principal.Email,
		Role:     string(principal.Role),
		TenantID: principal.TenantID,
	}, issuer.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("sec: issue access token: %w", err)
	}

	refreshToken, err := issuer.codec.signRefreshAt(issuedAt, RefreshClaims{
		UserID:  principal.UserID,
		Version: refreshVersion,
	}, issuer.refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("sec: issue refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		AccessExpiresAt:  issuedAt.Add(issuer.accessTTL),
		RefreshExpiresAt: issuedAt.Add(issuer.refreshTTL),
	}, nil
}
