// Package domain contains core business types and interfaces.
//
// This file defines the Account type. Accounts are separate from the
// repository models so business rules (tier flags, subscription windows)
// can live next to the data they guard.
package domain

import (
	"database/sql"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"
)

// VerificationManualAdmin tags a verification performed by an administrator.
const VerificationManualAdmin = "Manual Admin"

// Account represents a registered user of the analysis platform.
type Account struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string // Never expose this in API responses
	FullName     string
	Phone        string
	WhatsApp     string
	Country      string

	Tier    Tier
	Credits int
	Premium bool
	Whale   bool
	Admin   bool

	Verified           bool
	VerifiedAt         *time.Time
	VerificationMethod string
	RegistrationIP     string
	Flagged            bool

	SubscriptionStart *time.Time
	SubscriptionEnd   *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// SetTier moves the account to t and recomputes both derived flags together.
func (a *Account) SetTier(t Tier) {
	flags := DeriveFlags(t)
	a.Tier = t
	a.Premium = flags.Premium
	a.Whale = flags.Whale
}

// CanDebit reports whether the analysis gate may let this account through
// the credit precondition.
func (a *Account) CanDebit() bool {
	return a.Whale || a.Credits > 0
}

// SubscriptionActive reports whether now falls inside the subscription window.
func (a *Account) SubscriptionActive(now time.Time) bool {
	if a.SubscriptionStart == nil || a.SubscriptionEnd == nil {
		return false
	}
	return !now.Before(*a.SubscriptionStart) && now.Before(*a.SubscriptionEnd)
}

// DisplayName returns the account's name or email if name is empty.
func (a *Account) DisplayName() string {
	if a.FullName != "" {
		return a.FullName
	}
	return a.Email
}

// RegisterParams contains the parameters for account registration.
type RegisterParams struct {
	Email          string
	Password       string // Raw password, will be hashed by service
	FullName       string
	Phone          string
	WhatsApp       string
	Country        string
	Tier           string // Free-form; unknown values register as Trial
	RegistrationIP string
}

// LoginResult contains the result of a successful login.
type LoginResult struct {
	Account   *Account
	Token     string
	ExpiresAt time.Time
}

// NormalizeEmail lower-cases and trims an email. Every write and lookup goes
// through it.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// =============================================================================
// Conversion helpers from repository types
// =============================================================================

// NullStringValue safely extracts a string from sql.NullString.
func NullStringValue(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// NullTimeValue safely extracts a time pointer from sql.NullTime.
func NullTimeValue(nt sql.NullTime) *time.Time {
	if nt.Valid {
		t := nt.Time.UTC()
		return &t
	}
	return nil
}

// ToNullString converts a string to sql.NullString.
func ToNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}

// ToNullTime converts a time pointer to sql.NullTime.
func ToNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{Valid: false}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

// ParseIP returns the address in s, or nil when s is not an IP.
func ParseIP(s string) net.IP {
	return net.ParseIP(strings.TrimSpace(s))
}
