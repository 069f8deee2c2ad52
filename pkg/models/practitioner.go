package models

import (
	"encoding/json"
	"time"
)

// PractitionerStatus constants
const (
	PractitionerStatusActive   = "active"
	PractitionerStatusInactive = "inactive"
)

// Practitioner is a directory record for an equine-care professional.
// Records are never hard-deleted; they are deactivated instead.
type Practitioner struct {
	ID             string          `json:"id" db:"id"`
	Name           string          `json:"name" db:"name"`
	Specialty      string          `json:"specialty" db:"specialty"`
	Region         string          `json:"region" db:"region"`
	City           *string         `json:"city,omitempty" db:"city"`
	AddressFull    *string         `json:"address_full,omitempty" db:"address_full"`
	Lat            *float64        `json:"lat,omitempty" db:"lat"`
	Lng            *float64        `json:"lng,omitempty" db:"lng"`
	PhoneNorm      *string         `json:"phone_norm,omitempty" db:"phone_norm"`
	Website        *string         `json:"website,omitempty" db:"website"`
	ProfileURL     *string         `json:"profile_url,omitempty" db:"profile_url"`
	Status         string          `json:"status" db:"status"`
	IsClaimed      bool            `json:"is_claimed" db:"is_claimed"`
	IsVerified     bool            `json:"is_verified" db:"is_verified"`
	ClaimedAt      *time.Time      `json:"claimed_at,omitempty" db:"claimed_at"`
	ClaimedContact json.RawMessage `json:"claimed_contact,omitempty" db:"claimed_contact"`
	QualityScore   *float64        `json:"quality_score,omitempty" db:"quality_score"`
	SlugSEO        string          `json:"slug_seo" db:"slug_seo"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}

// MatchFields is the slice of a practitioner record used for duplicate
// detection during imports. One bulk read of these builds the match index.
type MatchFields struct {
	ID         string  `json:"id" db:"id"`
	Name       string  `json:"name" db:"name"`
	SlugSEO    string  `json:"slug_seo" db:"slug_seo"`
	PhoneNorm  *string `json:"phone_norm,omitempty" db:"phone_norm"`
	ProfileURL *string `json:"profile_url,omitempty" db:"profile_url"`
}

// CreatePractitionerRequest is the request to create a practitioner
type CreatePractitionerRequest struct {
	Name        string   `json:"name" validate:"required"`
	Specialty   string   `json:"specialty" validate:"required"`
	Region      string   `json:"region"`
	City        *string  `json:"city,omitempty"`
	AddressFull *string  `json:"address_full,omitempty"`
	Lat         *float64 `json:"lat,omitempty"`
	Lng         *float64 `json:"lng,omitempty"`
	PhoneNorm   *string  `json:"phone_norm,omitempty"`
	Website     *string  `json:"website,omitempty"`
	ProfileURL  *string  `json:"profile_url,omitempty"`
	Status      string   `json:"status"`
	IsVerified  bool     `json:"is_verified"`
	SlugSEO     string   `json:"slug_seo"`
}

// UpdatePractitionerRequest is a sparse update; nil fields are left untouched.
type UpdatePractitionerRequest struct {
	Name        *string  `json:"name,omitempty"`
	Specialty   *string  `json:"specialty,omitempty"`
	Region      *string  `json:"region,omitempty"`
	City        *string  `json:"city,omitempty"`
	AddressFull *string  `json:"address_full,omitempty"`
	Lat         *float64 `json:"lat,omitempty"`
	Lng         *float64 `json:"lng,omitempty"`
	PhoneNorm   *string  `json:"phone_norm,omitempty"`
	Website     *string  `json:"website,omitempty"`
	ProfileURL  *string  `json:"profile_url,omitempty"`
	Status      *string  `json:"status,omitempty"`
	IsVerified  *bool    `json:"is_verified,omitempty"`
}

// SearchPractitionersRequest captures the public search filters.
type SearchPractitionersRequest struct {
	Specialty string
	City      string
	Query     string
	Sort      string // pertinence | alpha | recent
	Page      int
	PageSize  int
}

// PractitionerListResponse is a paginated list of practitioners
type PractitionerListResponse struct {
	Items      []Practitioner `json:"items"`
	TotalCount int            `json:"total_count"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
}

// DirectoryStats backs the admin data-health dashboard.
type DirectoryStats struct {
	Total               int            `json:"total"`
	ActiveCount         int            `json:"active_count"`
	InactiveCount       int            `json:"inactive_count"`
	ClaimedCount        int            `json:"claimed_count"`
	VerifiedCount       int            `json:"verified_count"`
	MissingCoords       int            `json:"missing_coords"`
	MissingCity         int            `json:"missing_city"`
	MissingPhone        int            `json:"missing_phone"`
	PendingClaims       int            `json:"pending_claims"`
	RecentPractitioners []Practitioner `json:"recent_practitioners"`
}
