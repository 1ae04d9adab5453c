package domain

import (
	"fmt"
	"math"
)

// PlanType selects the tier of a subscription plan.
type PlanType string

const (
	PlanBasic     PlanType = "BASIC"
	PlanStandard  PlanType = "STANDARD"
	PlanPremium   PlanType = "PREMIUM"
	PlanUnlimited PlanType = "UNLIMITED"
)

// UnlimitedWorkoutsPerWeek is the weekly cap stored for UNLIMITED plans.
const UnlimitedWorkoutsPerWeek = math.MaxInt32

var planTiers = map[PlanType]struct {
	maxWorkoutsPerWeek      int
	includesPersonalTrainer bool
	benefits                string
}{
	PlanBasic:     {3, false, "Access to gym equipment, group classes"},
	PlanStandard:  {5, false, "Access to gym equipment, all group classes, nutrition consultation"},
	PlanPremium:   {7, true, "Unlimited gym access, personal trainer, nutrition plan, priority booking"},
	PlanUnlimited: {UnlimitedWorkoutsPerWeek, true, "24/7 gym access, dedicated personal trainer, custom meal plans, VIP services"},
}

// ParsePlanType converts a stored plan type name.
func ParsePlanType(s string) (PlanType, error) {
	t := PlanType(s)
	if _, ok := planTiers[t]; !ok {
		return "", fmt.Errorf("unknown plan type %q", s)
	}
	return t, nil
}

// SubscriptionPlan is an entry in the informational plan catalog.
type SubscriptionPlan struct {
	PlanID                  string   `bson:"planId" json:"planId"`
	PlanName                string   `bson:"planName" json:"planName"`
	Description             *string  `bson:"description,omitempty" json:"description,omitempty"`
	Price                   float64  `bson:"price" json:"price"`
	DurationMonths          int      `bson:"durationMonths" json:"durationMonths"`
	PlanType                PlanType `bson:"planType" json:"planType"`
	IsActive                bool     `bson:"isActive" json:"isActive"`
	Benefits                string   `bson:"benefits" json:"benefits"`
	MaxWorkoutsPerWeek      int      `bson:"maxWorkoutsPerWeek" json:"maxWorkoutsPerWeek"`
	IncludesPersonalTrainer bool     `bson:"includesPersonalTrainer" json:"includesPersonalTrainer"`
}

// NewSubscriptionPlan creates an active plan with the tier defaults for planType.
func NewSubscriptionPlan(planID, planName string, price float64, durationMonths int, planType PlanType) SubscriptionPlan {
	tier := planTiers[planType]
	return SubscriptionPlan{
		PlanID:                  planID,
		PlanName:                planName,
		Price:                   price,
		DurationMonths:          durationMonths,
		PlanType:                planType,
		IsActive:                true,
		Benefits:                tier.benefits,
		MaxWorkoutsPerWeek:      tier.maxWorkoutsPerWeek,
		IncludesPersonalTrainer: tier.includesPersonalTrainer,
	}
}

// MonthlyPrice spreads the plan price across its duration.
func (p SubscriptionPlan) MonthlyPrice() float64 {
	if p.DurationMonths <= 0 {
		return p.Price
	}
	return p.Price / float64(p.DurationMonths)
}

// AllowsWorkoutsPerWeek reports whether n weekly workouts fit the plan.
func (p SubscriptionPlan) AllowsWorkoutsPerWeek(n int) bool {
	return n <= p.MaxWorkoutsPerWeek
}

// DefaultSubscriptionPlans is the catalog seeded when none is persisted.
func DefaultSubscriptionPlans() []SubscriptionPlan {
	return []SubscriptionPlan{
		NewSubscriptionPlan("BASIC_MONTHLY", "Basic Monthly", 50, 1, PlanBasic),
		NewSubscriptionPlan("STANDARD_MONTHLY", "Standard Monthly", 75, 1, PlanStandard),
		NewSubscriptionPlan("PREMIUM_MONTHLY", "Premium Monthly", 100, 1, PlanPremium),
		NewSubscriptionPlan("BASIC_YEARLY", "Basic Yearly", 480, 12, PlanBasic),
		NewSubscriptionPlan("PREMIUM_YEARLY", "Premium Yearly", 960, 12, PlanPremium),
	}
}
