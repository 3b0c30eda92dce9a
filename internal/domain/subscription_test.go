package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 12, 29, 10, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func TestAccount_Verify_FirstVerificationOpensWindow(t *testing.T) {
	a := &Account{}
	a.Verify(now)

	assert.True(t, a.Verified)
	assert.Equal(t, VerificationManualAdmin, a.VerificationMethod)
	require.NotNil(t, a.VerifiedAt)
	assert.Equal(t, now, *a.VerifiedAt)
	require.NotNil(t, a.SubscriptionStart)
	require.NotNil(t, a.SubscriptionEnd)
	assert.Equal(t, now, *a.SubscriptionStart)
	assert.Equal(t, now.Add(30*24*time.Hour), *a.SubscriptionEnd)
}

func TestAccount_Verify_ExistingWindowUntouched(t *testing.T) {
	start := now.Add(-90 * 24 * time.Hour)
	end := now.Add(-60 * 24 * time.Hour)
	a := &Account{SubscriptionStart: &start, SubscriptionEnd: &end}

	a.Verify(now)

	assert.Equal(t, start, *a.SubscriptionStart)
	assert.Equal(t, end, *a.SubscriptionEnd)
	assert.Equal(t, now, *a.VerifiedAt)
}

func TestAccount_Verify_AlreadyVerifiedKeepsTimestamp(t *testing.T) {
	earlier := now.Add(-time.Hour)
	a := &Account{}
	a.Verify(earlier)
	a.Verify(now)

	assert.Equal(t, earlier, *a.VerifiedAt)
}

func TestAccount_Renew(t *testing.T) {
	tests := []struct {
		name string
		end  *time.Time
		want time.Time
	}{
		// Unused time is kept and a full period stacks on top.
		{"ten days left", ptr(now.Add(10 * 24 * time.Hour)), now.Add(40 * 24 * time.Hour)},
		{"expired", ptr(now.Add(-5 * 24 * time.Hour)), now.Add(30 * 24 * time.Hour)},
		{"ends exactly now", ptr(now), now.Add(30 * 24 * time.Hour)},
		{"no window", nil, now.Add(30 * 24 * time.Hour)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start := now.Add(-20 * 24 * time.Hour)
			a := &Account{SubscriptionStart: &start, SubscriptionEnd: tt.end}
			a.Renew(now)

			require.NotNil(t, a.SubscriptionEnd)
			assert.Equal(t, tt.want, *a.SubscriptionEnd)
			assert.False(t, a.SubscriptionEnd.Before(*a.SubscriptionStart))
		})
	}
}

func TestAccount_Renew_TwiceStacksTwoPeriods(t *testing.T) {
	end := now.Add(10 * 24 * time.Hour)
	a := &Account{SubscriptionStart: ptr(now.Add(-20 * 24 * time.Hour)), SubscriptionEnd: &end}

	a.Renew(now)
	a.Renew(now)

	assert.Equal(t, end.Add(2*SubscriptionPeriod), *a.SubscriptionEnd)
}

func TestAccount_Renew_OpensStartWhenMissing(t *testing.T) {
	a := &Account{}
	a.Renew(now)

	require.NotNil(t, a.SubscriptionStart)
	assert.Equal(t, now, *a.SubscriptionStart)
	assert.Equal(t, now.Add(SubscriptionPeriod), *a.SubscriptionEnd)
}

func TestAccount_SubscriptionActive(t *testing.T) {
	a := &Account{}
	assert.False(t, a.SubscriptionActive(now))

	a.Verify(now)
	assert.True(t, a.SubscriptionActive(now.Add(time.Hour)))
	assert.False(t, a.SubscriptionActive(now.Add(SubscriptionPeriod)))
}
