package domain

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// MaxCredits is the largest balance the credits column can hold.
const MaxCredits = math.MaxInt32

// CheckCredits rejects a credit value the store cannot hold.
func CheckCredits(op string, n int) error {
	if n < 0 {
		return Invalid(op, "Credits cannot be negative")
	}
	if n > MaxCredits {
		return Invalid(op, fmt.Sprintf("Credits cannot exceed %d", MaxCredits))
	}
	return nil
}

// AccountPatch is an administrative update. Nil fields are left untouched.
type AccountPatch struct {
	AccountID uuid.UUID
	Tier      *Tier
	Credits   *int
	Verified  *bool
	Renew     bool
	Flagged   *bool
}

// Empty reports whether the patch changes nothing.
func (p AccountPatch) Empty() bool {
	return p.Tier == nil && p.Credits == nil && p.Verified == nil && !p.Renew && p.Flagged == nil
}

// Validate checks the patch before it touches an account.
func (p AccountPatch) Validate(op string) error {
	if p.Tier != nil && !p.Tier.Valid() {
		return Invalid(op, "Unknown tier")
	}
	if p.Credits != nil {
		return CheckCredits(op, *p.Credits)
	}
	return nil
}

// ApplyPatch mutates the account in a fixed order: tier and credits, then
// verification, then renewal, then flagging. Verification may open the
// window that renewal then extends.
//
// A tier change resets credits to the new tier's grant. An explicit credit
// value only applies when the tier is absent or unchanged.
func (a *Account) ApplyPatch(p AccountPatch, now time.Time) {
	tierChanged := p.Tier != nil && *p.Tier != a.Tier
	switch {
	case tierChanged:
		a.SetTier(*p.Tier)
		a.Credits = DefaultCredits(*p.Tier)
	case p.Credits != nil:
		a.Credits = *p.Credits
	}

	if p.Verified != nil {
		if *p.Verified {
			a.Verify(now)
		} else {
			a.Unverify()
		}
	}

	if p.Renew {
		a.Renew(now)
	}

	if p.Flagged != nil {
		a.Flagged = *p.Flagged
	}
}
