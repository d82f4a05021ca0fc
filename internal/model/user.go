// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines the domain types exchanged with the newsletter backend:
// user profiles and roles, sources, topics, newsletters and the list envelope.
package model

import (
	"encoding/json"
	"strconv"
)

// RoleIDAdmin is the backend role id carrying admin capability.
const RoleIDAdmin = 1

// Role is the authorization role derived from a backend role id.
type Role int

// Roles known to the client.
const (
	RoleStandard Role = iota
	RoleAdmin
)

// String returns the role name.
func (r Role) String() string {
	if r == RoleAdmin {
		return "admin"
	}
	return "standard"
}

// RoleForID maps a backend role id to a Role. This is the only place that
// knows the mapping; every other check goes through it.
func RoleForID(roleID int) Role {
	if roleID == RoleIDAdmin {
		return RoleAdmin
	}
	return RoleStandard
}

// IsAdmin reports whether the role id grants admin capability.
func IsAdmin(roleID int) bool {
	return RoleForID(roleID) == RoleAdmin
}

// RoleName returns the backend display name for a role id.
func RoleName(roleID int) string {
	if IsAdmin(roleID) {
		return "superadmin"
	}
	return "user"
}

// UserProfile is the minimal profile kept for the authenticated user.
type UserProfile struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	RoleID    int    `json:"role_id"`
}

// Role returns the role derived from the profile's role id.
func (u *UserProfile) Role() Role {
	if u == nil {
		return RoleStandard
	}
	return RoleForID(u.RoleID)
}

// FullName joins first and last name.
func (u *UserProfile) FullName() string {
	if u == nil {
		return ""
	}
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// UnmarshalJSON accepts role_id either flat or as the nested role.pk form,
// and tolerates role ids encoded as strings.
func (u *UserProfile) UnmarshalJSON(data []byte) error {
	var raw struct {
		FirstName string          `json:"first_name"`
		LastName  string          `json:"last_name"`
		RoleID    json.RawMessage `json:"role_id"`
		Role      *struct {
			PK json.RawMessage `json:"pk"`
		} `json:"role"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	u.FirstName = raw.FirstName
	u.LastName = raw.LastName
	u.RoleID = 0

	id, ok := parseRoleID(raw.RoleID)
	if !ok && raw.Role != nil {
		id, ok = parseRoleID(raw.Role.PK)
	}
	if ok {
		u.RoleID = id
	}
	return nil
}

func parseRoleID(raw json.RawMessage) (int, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
