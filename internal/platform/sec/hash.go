// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes a plain-text password using the bcrypt algorithm.
func HashPassword(plainTextPassword string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(plainTextPassword), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("auth: failed to hash password: %w", err)
	}
	return string(hashedBytes), nil
}

// CheckPasswordHash compares a plain-text password with its hashed version.
func CheckPasswordHash(plainTextPassword, existingHash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(existingHash), []byte(plainTextPassword))
	return err == nil
}

// BcryptHasher adapts the package functions to the service-level hasher contract.
//
// Cost is configurable so tests can use [bcrypt.MinCost].
type BcryptHasher struct {
	Cost int
}

// Hash returns the bcrypt hash of plainTextPassword.
func (hasher BcryptHasher) Hash(plainTextPassword string) (string, error) {
	cost := hasher.Cost
	if cost == 0 {
		return HashPassword(plainTextPassword)
	}
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(plainTextPassword), cost)
	if err != nil {
		return "", fmt.Errorf("auth: failed to hash password: %w", err)
	}
	return string(hashedBytes), nil
}

// Compare reports whether plainTextPassword matches existingHash.
func (hasher BcryptHasher) Compare(plainTextPassword, existingHash string) bool {
	return CheckPasswordHash(plainTextPassword, existingHash)
}
