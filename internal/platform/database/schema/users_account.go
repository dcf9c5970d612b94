// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package schema names the tables and columns used by the Postgres repositories.
package schema

import "strings"

// UserAccountTable represents the 'users.account' table
type UserAccountTable struct {
	Table               string
	ID                  string
	Email               string
	Password            string
	DisplayName         string
	Role                string
	TenantID            string
	RefreshTokenVersion string
	CreatedAt           string
	UpdatedAt           string
}

// UserAccount is the schema definition for users.account
var UserAccount = UserAccountTable{
	Table:               "users.account",
	ID:                  "id",
	Email:               "email",
	Password:            "passwordhash",
	DisplayName:         "displayname",
	Role:                "role",
	TenantID:            "tenantid",
	RefreshTokenVersion: "refreshtokenversion",
	CreatedAt:           "createdat",
	UpdatedAt:           "updatedat",
}

// Columns returns all standard column names in scan order.
func (t UserAccountTable) Columns() []string {
	return []string{
		t.ID, t.Email, t.Password, t.DisplayName, t.Role,
		t.TenantID, t.RefreshTokenVersion, t.CreatedAt, t.UpdatedAt,
	}
}

// SelectList returns [UserAccountTable.Columns] joined for a SELECT or RETURNING clause.
func (t UserAccountTable) SelectList() string {
	return strings.Join(t.Columns(), ", ")
}
