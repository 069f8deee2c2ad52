package models

import "time"

// ClaimStatus constants
const (
	ClaimStatusPending  = "pending"
	ClaimStatusApproved = "approved"
	ClaimStatusRejected = "rejected"
)

// ClaimRequest is an end-user assertion of ownership over a directory entry,
// held for administrator moderation.
type ClaimRequest struct {
	ID             string     `json:"id" db:"id"`
	PractitionerID string     `json:"practitioner_id" db:"practitioner_id"`
	ClaimerName    string     `json:"claimer_name" db:"claimer_name"`
	ClaimerEmail   string     `json:"claimer_email" db:"claimer_email"`
	ClaimerPhone   *string    `json:"claimer_phone,omitempty" db:"claimer_phone"`
	Message        *string    `json:"message,omitempty" db:"message"`
	Consent        bool       `json:"consent" db:"consent"`
	IPAddress      string     `json:"ip_address" db:"ip_address"`
	Status         string     `json:"status" db:"status"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty" db:"resolved_at"`
}

// SubmitClaimRequest is the public request body to claim a profile.
// Consent is mandatory; a claim without it is rejected up front.
type SubmitClaimRequest struct {
	PractitionerID string  `json:"practitioner_id" validate:"required,uuid4"`
	ClaimerName    string  `json:"claimer_name" validate:"required"`
	ClaimerEmail   string  `json:"claimer_email" validate:"required,email"`
	ClaimerPhone   *string `json:"claimer_phone,omitempty"`
	Message        *string `json:"message,omitempty"`
	Consent        bool    `json:"consent" validate:"required"`
}

// ClaimContact is the contact payload stored on the practitioner when a
// claim is approved.
type ClaimContact struct {
	ClaimerName  string  `json:"claimer_name"`
	ClaimerEmail string  `json:"claimer_email"`
	ClaimerPhone *string `json:"claimer_phone,omitempty"`
	IP           string  `json:"ip"`
}
