// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package tenantid canonicalizes tenant identifiers.
//
// Canonicalization only trims surrounding whitespace and lower-cases. Input
// outside the identifier alphabet is rejected rather than rewritten, so two
// different client identifiers never resolve to the same tenant.
package tenantid

import (
	"errors"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// MaxLength is the longest accepted identifier (one DNS label).
const MaxLength = 63

// ErrInvalid reports an identifier outside [a-z0-9_-] or longer than [MaxLength].
var ErrInvalid = errors.New("tenantid: invalid identifier")

var (
	pattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)
	lower   = cases.Lower(language.Und)
)

// Normalize returns the canonical form of raw. Blank input yields "" and no
// error; callers treat it as an absent tenant.
func Normalize(raw string) (string, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", nil
	}

	value = lower.String(value)
	if len(value) > MaxLength || !pattern.MatchString(value) {
		return "", ErrInvalid
	}
	return value, nil
}
