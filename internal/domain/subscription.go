package domain

import "time"

// SubscriptionPeriod is the length of one verified-access period.
const SubscriptionPeriod = 30 * 24 * time.Hour

// Verify marks the account verified by an administrator. The first
// verification of an account without a window opens one at now.
func (a *Account) Verify(now time.Time) {
	now = now.UTC()
	if !a.Verified {
		a.VerifiedAt = &now
		a.VerificationMethod = VerificationManualAdmin
	}
	a.Verified = true

	if a.SubscriptionStart == nil {
		start := now
		end := now.Add(SubscriptionPeriod)
		a.SubscriptionStart = &start
		a.SubscriptionEnd = &end
	}
}

// Unverify clears the verified flag. The window is left as it was.
func (a *Account) Unverify() {
	a.Verified = false
}

// Renew adds one period to the subscription. A window that is still open is
// extended from its current end; an expired or missing window restarts at
// now. Each call adds another period.
func (a *Account) Renew(now time.Time) {
	now = now.UTC()
	end := RenewedEnd(a.SubscriptionEnd, now)
	a.SubscriptionEnd = &end
	if a.SubscriptionStart == nil {
		start := now
		a.SubscriptionStart = &start
	}
}

// RenewedEnd computes the end of a window after one renewal.
func RenewedEnd(end *time.Time, now time.Time) time.Time {
	if end != nil && end.After(now) {
		return end.UTC().Add(SubscriptionPeriod)
	}
	return now.UTC().Add(SubscriptionPeriod)
}
