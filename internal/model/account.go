package model

import (
    "strings"
    "time"
)

// Role is the authorization role of an account.  Regular viewers and
// administrators share one table and one token format; only the role differs.
type Role string

const (
    RoleUser  Role = "user"
    RoleAdmin Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool { return r == RoleUser || r == RoleAdmin }

// Account represents a row in the `accounts` table.
//
// Fields:
//  ID           – primary key identifier.
//  Email        – unique, stored trimmed and lower-cased.
//  PasswordHash – bcrypt hash; the plain password is never stored.
//  Role         – user or admin.
//  FirstName    – optional given name.
//  LastName     – optional family name.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
//
// The password-reset ticket (hash + expiry) lives in the same row but is only
// read and written by the repository's ticket methods, so it is not exposed here.
type Account struct {
    ID           uint64
    Email        string
    PasswordHash string
    Role         Role
    FirstName    string
    LastName     string
    CreatedAt    time.Time
    UpdatedAt    time.Time
}

// Identity is the authenticated subject bound to a request once its session
// token has been verified.
type Identity struct {
    ID   uint64
    Role Role
}

// NormalizeEmail trims and lower-cases an email so lookups are case-insensitive.
func NormalizeEmail(email string) string {
    return strings.ToLower(strings.TrimSpace(email))
}

// ResetNotice is what the password-reset flow hands to the delivery channel.
// ResetURL embeds the plaintext secret and must only travel out of band.
type ResetNotice struct {
    Email     string    `json:"email"`
    Name      string    `json:"name"`
    ResetURL  string    `json:"reset_url"`
    ExpiresAt time.Time `json:"expires_at"`
}
