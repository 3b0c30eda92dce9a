// Package domain contains core business types and interfaces.
//
// This file defines the subscription tier enumeration and the credit policy
// attached to it.
package domain

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Tier is the subscription plan of an account.
type Tier string

const (
	TierTrial    Tier = "Trial"
	TierBasic    Tier = "Basic"
	TierPro      Tier = "Pro"
	TierPlatinum Tier = "Platinum"
)

// Tiers lists every tier in ascending order.
var Tiers = []Tier{TierTrial, TierBasic, TierPro, TierPlatinum}

// TierCredits maps a tier to the credits granted when an account enters it.
var TierCredits = map[Tier]int{
	TierTrial:    3,
	TierBasic:    20,
	TierPro:      40,
	TierPlatinum: 200,
}

var tierCaser = cases.Title(language.English)

// ParseTier normalizes user input ("platinum", " PRO ") to a known tier.
// The second return value is false when the input names no tier.
func ParseTier(s string) (Tier, bool) {
	t := Tier(tierCaser.String(strings.ToLower(strings.TrimSpace(s))))
	if _, ok := TierCredits[t]; !ok {
		return "", false
	}
	return t, true
}

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool {
	_, ok := TierCredits[t]
	return ok
}

// DefaultCredits returns the credit grant for a tier. Unknown tiers fail
// closed to the Trial grant.
func DefaultCredits(t Tier) int {
	if credits, ok := TierCredits[t]; ok {
		return credits
	}
	return TierCredits[TierTrial]
}

// TierFlags are the capability flags derived from a tier.
type TierFlags struct {
	Premium bool
	Whale   bool
}

// DeriveFlags computes the capability flags of a tier. Premium is any paid
// tier; whale is Platinum only.
func DeriveFlags(t Tier) TierFlags {
	return TierFlags{
		Premium: t != TierTrial,
		Whale:   t == TierPlatinum,
	}
}

// rank returns the position of t in Tiers, or -1.
func (t Tier) rank() int {
	for i, known := range Tiers {
		if known == t {
			return i
		}
	}
	return -1
}

// AtLeast reports whether t is the same plan as min or a higher one.
func (t Tier) AtLeast(min Tier) bool {
	r := t.rank()
	return r >= 0 && r >= min.rank()
}
