package domain

import (
	"fmt"
	"strings"
	"time"
)

// MembershipType is the billing period a member signed up for.
type MembershipType string

const (
	MembershipMonthly   MembershipType = "monthly"
	MembershipQuarterly MembershipType = "quarterly"
	MembershipYearly    MembershipType = "yearly"
)

// MembershipTypes lists the accepted membership types in display order.
var MembershipTypes = []MembershipType{MembershipMonthly, MembershipQuarterly, MembershipYearly}

// membershipTerms is the fixed lookup table behind durations and pricing.
var membershipTerms = map[MembershipType]struct {
	months       int
	periodPrice  float64 // charged once per membership period
	monthlyPrice float64 // steady-state monthly run-rate
}{
	MembershipMonthly:   {months: 1, periodPrice: 50, monthlyPrice: 50},
	MembershipQuarterly: {months: 3, periodPrice: 135, monthlyPrice: 45},
	MembershipYearly:    {months: 12, periodPrice: 480, monthlyPrice: 40},
}

// ParseMembershipType accepts monthly, quarterly or yearly in any case.
func ParseMembershipType(s string) (MembershipType, error) {
	t := MembershipType(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := membershipTerms[t]; !ok {
		return "", fmt.Errorf("unknown membership type %q", s)
	}
	return t, nil
}

// Valid reports whether t is one of the known membership types.
func (t MembershipType) Valid() bool {
	_, ok := membershipTerms[t]
	return ok
}

// Months is the length of one membership period.
func (t MembershipType) Months() int {
	if terms, ok := membershipTerms[t]; ok {
		return terms.months
	}
	return 1
}

// EndDate returns start plus one membership period.
func (t MembershipType) EndDate(start time.Time) time.Time {
	return AddMonths(start, t.Months())
}

// PeriodPrice is the revenue recognised for one membership period.
func (t MembershipType) PeriodPrice() float64 {
	return membershipTerms[t].periodPrice
}

// MonthlyPrice is the monthly-equivalent price used for run-rate projections.
func (t MembershipType) MonthlyPrice() float64 {
	return membershipTerms[t].monthlyPrice
}
