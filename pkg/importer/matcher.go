package importer

import (
	"fmt"
	"strings"

	"github.com/equisoins/clover/pkg/models"
)

// matchIndex holds one snapshot of the existing directory, keyed by the three
// duplicate-detection signals. Phone numbers can legitimately be shared (a
// clinic's front desk), so that key maps to a list.
type matchIndex struct {
	byProfileURL map[string]models.MatchFields
	bySlug       map[string]models.MatchFields
	byPhone      map[string][]models.MatchFields
}

func newMatchIndex(existing []models.MatchFields) *matchIndex {
	index := &matchIndex{
		byProfileURL: make(map[string]models.MatchFields),
		bySlug:       make(map[string]models.MatchFields),
		byPhone:      make(map[string][]models.MatchFields),
	}
	for _, record := range existing {
		if record.ProfileURL != nil && *record.ProfileURL != "" {
			index.byProfileURL[*record.ProfileURL] = record
		}
		if record.SlugSEO != "" {
			index.bySlug[record.SlugSEO] = record
		}
		if record.PhoneNorm != nil && *record.PhoneNorm != "" {
			index.byPhone[*record.PhoneNorm] = append(index.byPhone[*record.PhoneNorm], record)
		}
	}
	return index
}

// classify runs the duplicate-detection ladder against one candidate and
// fills in the row's disposition. Signals are checked strongest first and
// the first hit wins: profile URL, then phone, then slug.
func (idx *matchIndex) classify(row *models.ImportRow) {
	if row.Status == models.RowStatusError {
		return
	}

	if row.Data.ProfileURL != nil {
		if existing, ok := idx.byProfileURL[*row.Data.ProfileURL]; ok {
			row.Status = models.RowStatusUpdate
			row.MatchType = models.MatchTypeProfileURL
			row.ExistingID = existing.ID
			row.Reasons = append(row.Reasons, "update matched by profile URL")
			return
		}
	}

	if row.Data.PhoneNorm != nil {
		if matches, ok := idx.byPhone[*row.Data.PhoneNorm]; ok {
			if len(matches) > 1 {
				row.Status = models.RowStatusNeedsReview
				row.MatchType = models.MatchTypePhone
				row.Reasons = append(row.Reasons, fmt.Sprintf("phone shared by %d existing records", len(matches)))
			} else {
				row.Status = models.RowStatusUpdate
				row.MatchType = models.MatchTypePhone
				row.ExistingID = matches[0].ID
				row.Reasons = append(row.Reasons, "update matched by phone")
			}
			return
		}
	}

	if existing, ok := idx.bySlug[row.Data.SlugSEO]; ok {
		if strings.EqualFold(existing.Name, row.Data.Name) {
			row.Status = models.RowStatusUpdate
			row.MatchType = models.MatchTypeSlug
			row.ExistingID = existing.ID
			row.Reasons = append(row.Reasons, "update matched by slug and name")
		} else {
			// Same slug, different person. Suffix now so the preview shows
			// the slug that will be attempted; publish still handles a fresh
			// collision with its own retry.
			row.Status = models.RowStatusWarning
			row.Data.SlugSEO = row.Data.SlugSEO + "-1"
			row.Reasons = append(row.Reasons, "slug collision, renamed")
		}
	}
}
