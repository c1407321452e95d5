// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents a registered member or administrator.
//
// Auth fields:
//   - Email: What the user types to sign in (stored lowercase, unique)
//   - EmailCI: Case/diacritic-insensitive version for matching (folded)
//   - AuthMethod: password, google
type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName   string             `bson:"full_name" json:"full_name"`
	FullNameCI string             `bson:"full_name_ci" json:"-"` // lowercase, diacritics-stripped

	Email      string `bson:"email" json:"email"`             // sign-in identifier (lowercase)
	EmailCI    string `bson:"email_ci" json:"-"`              // folded for case/diacritic-insensitive matching
	AuthMethod string `bson:"auth_method" json:"auth_method"` // password, google

	PasswordHash *string `bson:"password_hash,omitempty" json:"-"` // bcrypt hash (never in JSON)

	Role   string `bson:"role" json:"role"`     // admin, user
	Status string `bson:"status" json:"status"` // active, disabled

	// Membership is the user's current membership subscription, if any.
	Membership *Membership `bson:"membership,omitempty" json:"membership,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Membership records a user's subscription to a membership tier.
// The subscription window is pure bookkeeping; there is no payment gateway.
type Membership struct {
	TierID       primitive.ObjectID `bson:"tier_id" json:"tier_id"`
	TierSlug     string             `bson:"tier_slug" json:"tier_slug"`
	BillingCycle string             `bson:"billing_cycle" json:"billing_cycle"` // monthly, yearly, one_time
	Status       string             `bson:"status" json:"status"`               // active, cancelled, expired
	StartedAt    time.Time          `bson:"started_at" json:"started_at"`
	ExpiresAt    time.Time          `bson:"expires_at" json:"expires_at"`
}

// IsActive reports whether the membership grants access at the given time.
// A cancelled membership keeps access until its end date.
func (m *Membership) IsActive(now time.Time) bool {
	if m == nil {
		return false
	}
	if m.Status == MembershipExpired {
		return false
	}
	return now.Before(m.ExpiresAt)
}

// Membership statuses
const (
	MembershipActive    = "active"
	MembershipCancelled = "cancelled"
	MembershipExpired   = "expired"
)

// User roles
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// AllRoles returns all valid user roles.
func AllRoles() []string {
	return []string{
		RoleAdmin,
		RoleUser,
	}
}

// IsValidRole checks if a role is valid.
func IsValidRole(role string) bool {
	for _, r := range AllRoles() {
		if r == role {
			return true
		}
	}
	return false
}
