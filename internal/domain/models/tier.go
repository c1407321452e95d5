// internal/domain/models/tier.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Billing cycles
const (
	CycleMonthly = "monthly"
	CycleYearly  = "yearly"
	CycleOneTime = "one_time"
)

// AllBillingCycles returns all valid billing cycles.
func AllBillingCycles() []string {
	return []string{
		CycleMonthly,
		CycleYearly,
		CycleOneTime,
	}
}

// IsValidBillingCycle checks if a billing cycle is valid.
func IsValidBillingCycle(s string) bool {
	for _, v := range AllBillingCycles() {
		if v == s {
			return true
		}
	}
	return false
}

// oneTimeYears is the subscription length used for one-time purchases.
// There is no perpetual-access flag; a far-future end date stands in for one.
const oneTimeYears = 100

// NextSubscriptionEnd computes the new subscription end date for a renewal:
// the greater of now and the current end date, advanced by one billing unit.
// A zero currentEnd is treated as a first-time subscription starting now.
func NextSubscriptionEnd(cycle string, now, currentEnd time.Time) time.Time {
	base := now
	if currentEnd.After(now) {
		base = currentEnd
	}
	switch cycle {
	case CycleYearly:
		return base.AddDate(1, 0, 0)
	case CycleOneTime:
		return base.AddDate(oneTimeYears, 0, 0)
	default: // monthly
		return base.AddDate(0, 1, 0)
	}
}

// MembershipTier is a membership plan controlling price, billing cycle, and features.
type MembershipTier struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Slug        string             `bson:"slug" json:"slug"` // unique
	Description string             `bson:"description,omitempty" json:"description,omitempty"`

	PriceCents   int64    `bson:"price_cents" json:"price_cents"`
	BillingCycle string   `bson:"billing_cycle" json:"billing_cycle"` // monthly, yearly, one_time
	Features     []string `bson:"features" json:"features"`

	// SubscriberCount moves only by atomic $inc.
	SubscriberCount int64 `bson:"subscriber_count" json:"subscriber_count"`

	Active bool `bson:"active" json:"active"`
	Order  int  `bson:"order" json:"order"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
