// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package migration_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/tenantgate/internal/platform/migration"
)

func TestMigrateURL(t *testing.T) {
	tests := map[string]string{
		"postgres://u:p@db:5432/app?sslmode=disable": "pgx5://u:p@db:5432/app?sslmode=disable",
		"postgresql://db/app":                        "pgx5://db/app",
		"pgx5://db/app":                              "pgx5://db/app",
		"host=db dbname=app":                         "host=db dbname=app",
	}

	for input, want := range tests {
		assert.Equal(t, want, migration.MigrateURL(input), input)
	}
}
