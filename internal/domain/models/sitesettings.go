// internal/domain/models/sitesettings.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SiteSettings holds site-wide configuration that can be edited by admins.
// A single document in the site_settings collection.
type SiteSettings struct {
	ID primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`

	SiteName     string `bson:"site_name" json:"site_name"`
	ContactEmail string `bson:"contact_email,omitempty" json:"contact_email,omitempty"`

	// Logo (uploaded to object storage)
	LogoPath string `bson:"logo_path,omitempty" json:"logo_path,omitempty"`
	LogoName string `bson:"logo_name,omitempty" json:"logo_name,omitempty"`

	// RequireLoginOTP gates credential login behind a one-time email code.
	// Applied uniformly to every password login when enabled.
	RequireLoginOTP bool `bson:"require_login_otp" json:"require_login_otp"`

	// Email notification toggles (opt-in)
	NotifyUserOnRegister bool `bson:"notify_user_on_register" json:"notify_user_on_register"`
	NotifyUserOnRenewal  bool `bson:"notify_user_on_renewal" json:"notify_user_on_renewal"`

	// Audit fields
	UpdatedAt     *time.Time          `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
	UpdatedByID   *primitive.ObjectID `bson:"updated_by_id,omitempty" json:"-"`
	UpdatedByName string              `bson:"updated_by_name,omitempty" json:"-"`
}

// HasLogo returns true if a logo has been uploaded.
func (s *SiteSettings) HasLogo() bool {
	return s.LogoPath != ""
}

// DefaultSiteName is used when no settings document exists yet.
const DefaultSiteName = "Wellspring"
