package importer

import (
	"fmt"
	"strconv"

	"github.com/equisoins/clover/pkg/models"
	"github.com/equisoins/clover/pkg/normalizers"
	"github.com/equisoins/clover/pkg/specialties"
)

// normalizeRow turns one raw CSV record into an import candidate. Validation
// failures mark the row ERROR but normalization still completes so the
// preview can show what was read.
func normalizeRow(raw map[string]string) (models.ImportCandidate, models.RowStatus, []string) {
	status := models.RowStatusOK
	var reasons []string

	name := raw["name"]
	if name == "" {
		status = models.RowStatusError
		reasons = append(reasons, "missing name")
	}

	specialty := raw["specialty"]
	if specialty == "" {
		status = models.RowStatusError
		reasons = append(reasons, "missing specialty")
	} else {
		resolved, ok := specialties.Resolve(specialty)
		if ok {
			specialty = resolved
		} else {
			status = models.RowStatusError
			reasons = append(reasons, fmt.Sprintf("unknown specialty: %s", specialty))
		}
	}

	phoneRaw := raw["phone"]
	if phoneRaw == "" {
		phoneRaw = raw["phone_norm"]
	}
	phoneNorm := normalizers.NormalizePhone(phoneRaw)

	slug := raw["slug"]
	if slug == "" {
		slug = normalizers.Slugify(name)
	}

	address := raw["address_full"]
	if address == "" {
		address = raw["address"]
	}

	rowStatus := raw["status"]
	if rowStatus == "" {
		rowStatus = models.PractitionerStatusActive
	}

	candidate := models.ImportCandidate{
		Name:        name,
		Specialty:   specialty,
		Region:      raw["region"],
		City:        optString(raw["city"]),
		AddressFull: optString(address),
		Lat:         optFloat(raw["lat"]),
		Lng:         optFloat(raw["lng"]),
		PhoneNorm:   optString(phoneNorm),
		Website:     optString(raw["website"]),
		ProfileURL:  optString(raw["profile_url"]),
		Status:      rowStatus,
		IsVerified:  raw["is_verified"] == "true" || raw["is_verified"] == "1",
		SlugSEO:     slug,
	}

	return candidate, status, reasons
}

func optString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func optFloat(value string) *float64 {
	if value == "" {
		return nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil
	}
	return &parsed
}
