// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

// # Response Messages

const (
	MessageRegistered = "User registered successfully"
	MessageLoggedIn   = "Login successful"
	MessageRefreshed  = "Token refreshed successfully"
	MessageLoggedOut  = "Logged out successfully"
)
