// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package uuid generates the time-ordered identifiers used as user primary keys.

Version 7 values sort by creation time, which keeps the PostgreSQL B-tree
index on users.account append-mostly.
*/
package uuid

import "github.com/google/uuid"

// New generates a new UUIDv7 string.
//
// Entropy failure is unrecoverable, so it panics.
func New() string {
	id, err := uuid.NewV7()
	if err != nil {
		panic("uuid: failed to generate v7: " + err.Error())
	}
	return id.String()
}

