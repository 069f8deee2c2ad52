package models

// RowStatus is the disposition assigned to an import row. It determines how
// (or whether) the row is applied at publish time.
type RowStatus string

const (
	RowStatusOK          RowStatus = "OK"           // new entity, safe to insert
	RowStatusUpdate      RowStatus = "UPDATE"       // matched an existing record
	RowStatusWarning     RowStatus = "WARNING"      // insertable after slug disambiguation
	RowStatusError       RowStatus = "ERROR"        // failed validation, never published
	RowStatusNeedsReview RowStatus = "NEEDS_REVIEW" // ambiguous match, never auto-published
)

// MatchType identifies which signal linked an import row to an existing record.
type MatchType string

const (
	MatchTypeProfileURL MatchType = "profile_url"
	MatchTypePhone      MatchType = "phone"
	MatchTypeSlug       MatchType = "slug"
)

// ImportCandidate is the normalized payload of one import row.
type ImportCandidate struct {
	Name        string   `json:"name"`
	Specialty   string   `json:"specialty"`
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

// ImportRow is one classified row of an import preview. Rows are transient:
// produced by a preview, consumed once by a publish, never persisted.
// ExistingID is set only for UPDATE rows.
type ImportRow struct {
	Status        RowStatus       `json:"status"`
	Reasons       []string        `json:"reasons"`
	MatchType     MatchType       `json:"match_type,omitempty"`
	ExistingID    string          `json:"existing_id,omitempty"`
	Data          ImportCandidate `json:"data"`
	OriginalIndex int             `json:"original_index"`
}

// RowError is a per-row publish failure surfaced in the summary.
type RowError struct {
	OriginalIndex int    `json:"original_index"`
	Name          string `json:"name"`
	Reason        string `json:"reason"`
}

// ImportSummary is the aggregate result of a publish batch.
type ImportSummary struct {
	Total        int        `json:"total"`
	Inserted     int        `json:"inserted"`
	Updated      int        `json:"updated"`
	Skipped      int        `json:"skipped"`
	Errors       int        `json:"errors"`
	ErrorDetails []RowError `json:"error_details,omitempty"`
}
