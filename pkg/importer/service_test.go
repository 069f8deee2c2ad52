package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/equisoins/clover/internal/repositories/practitioner"
	"github.com/equisoins/clover/pkg/events"
	"github.com/equisoins/clover/pkg/models"
)

type fakeStore struct {
	existing []models.MatchFields
	created  []models.CreatePractitionerRequest
	patches  map[string]map[string]any

	takenSlugs  map[string]bool
	failAll     bool
	failSlug    string
	failSlugErr error
}

func (f *fakeStore) MatchFields(_ context.Context) ([]models.MatchFields, error) {
	return f.existing, nil
}

func (f *fakeStore) Create(_ context.Context, req models.CreatePractitionerRequest) (*models.Practitioner, error) {
	if f.failSlugErr != nil && req.SlugSEO == f.failSlug {
		return nil, f.failSlugErr
	}
	if f.failAll || f.takenSlugs[req.SlugSEO] {
		return nil, practitioner.ErrSlugTaken
	}
	f.created = append(f.created, req)
	id := fmt.Sprintf("id-%d", len(f.created))
	return &models.Practitioner{ID: id, Name: req.Name, PhoneNorm: req.PhoneNorm, ProfileURL: req.ProfileURL, SlugSEO: req.SlugSEO}, nil
}

func (f *fakeStore) SparsePatch(_ context.Context, id string, patch map[string]any) error {
	if f.patches == nil {
		f.patches = map[string]map[string]any{}
	}
	f.patches[id] = patch
	return nil
}

type fakeAudit struct {
	actions []string
}

func (f *fakeAudit) Record(_ context.Context, action, _, _ string, _, _ any) {
	f.actions = append(f.actions, action)
}

func newTestService(store *fakeStore) (*Service, *fakeAudit) {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	audits := &fakeAudit{}
	return NewService(store, audits, events.NewEmitter(nil, logger), logger, 0, 3), audits
}

func strPtr(s string) *string { return &s }

func TestPreviewClassifiesNewRow(t *testing.T) {
	service, _ := newTestService(&fakeStore{})

	csv := "name,specialty,region,city\nJean Dupont,Ostéopathe animalier,Bretagne,Rennes\n"
	rows, err := service.Preview(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, models.RowStatusOK, rows[0].Status)
	assert.Equal(t, "jean-dupont", rows[0].Data.SlugSEO)
	assert.Equal(t, "Ostéopathe animalier", rows[0].Data.Specialty)
	assert.Equal(t, "active", rows[0].Data.Status)
	require.NotNil(t, rows[0].Data.City)
	assert.Equal(t, "Rennes", *rows[0].Data.City)
}

func TestPreviewValidationErrors(t *testing.T) {
	service, _ := newTestService(&fakeStore{})

	csv := "name,specialty\n,Pareur\nJean Dupont,\nJean Dupont,Astrologue\n"
	rows, err := service.Preview(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, models.RowStatusError, rows[0].Status)
	assert.Contains(t, rows[0].Reasons, "missing name")

	assert.Equal(t, models.RowStatusError, rows[1].Status)
	assert.Contains(t, rows[1].Reasons, "missing specialty")

	assert.Equal(t, models.RowStatusError, rows[2].Status)
	assert.Contains(t, rows[2].Reasons, "unknown specialty: Astrologue")
}

func TestPreviewAccentInsensitiveSpecialty(t *testing.T) {
	service, _ := newTestService(&fakeStore{})

	csv := "name,specialty\nJean Dupont,osteopathe animalier diplômé\n"
	rows, err := service.Preview(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, models.RowStatusOK, rows[0].Status)
	assert.Equal(t, "Ostéopathe animalier", rows[0].Data.Specialty)
}

func TestPreviewProfileURLBeatsPhone(t *testing.T) {
	store := &fakeStore{
		existing: []models.MatchFields{
			{ID: "by-url", Name: "Jean Dupont", SlugSEO: "jean-dupont", ProfileURL: strPtr("https://example.com/p/jean")},
			{ID: "by-phone", Name: "Autre Nom", SlugSEO: "autre-nom", PhoneNorm: strPtr("0612345678")},
		},
	}
	service, _ := newTestService(store)

	csv := "name,specialty,phone,profile_url\nJean Dupont,Pareur,+33 6 12 34 56 78,https://example.com/p/jean\n"
	rows, err := service.Preview(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, models.RowStatusUpdate, rows[0].Status)
	assert.Equal(t, models.MatchTypeProfileURL, rows[0].MatchType)
	assert.Equal(t, "by-url", rows[0].ExistingID)
}

func TestPreviewUniquePhoneUpdates(t *testing.T) {
	store := &fakeStore{
		existing: []models.MatchFields{
			{ID: "p1", Name: "Jean Dupont", SlugSEO: "jean-dupont", PhoneNorm: strPtr("0612345678")},
		},
	}
	service, _ := newTestService(store)

	csv := "name,specialty,phone\nJean Dupont,Shiatsu,+33612345678\n"
	rows, err := service.Preview(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)

	assert.Equal(t, models.RowStatusUpdate, rows[0].Status)
	assert.Equal(t, models.MatchTypePhone, rows[0].MatchType)
	assert.Equal(t, "p1", rows[0].ExistingID)
}

func TestPreviewSharedPhoneNeedsReview(t *testing.T) {
	store := &fakeStore{
		existing: []models.MatchFields{
			{ID: "p1", Name: "Cabinet A", SlugSEO: "cabinet-a", PhoneNorm: strPtr("0612345678")},
			{ID: "p2", Name: "Cabinet B", SlugSEO: "cabinet-b", PhoneNorm: strPtr("0612345678")},
		},
	}
	service, _ := newTestService(store)

	csv := "name,specialty,phone\nJean Dupont,Shiatsu,0612345678\n"
	rows, err := service.Preview(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)

	assert.Equal(t, models.RowStatusNeedsReview, rows[0].Status)
	assert.Equal(t, models.MatchTypePhone, rows[0].MatchType)
	assert.Empty(t, rows[0].ExistingID)
	assert.Contains(t, rows[0].Reasons, "phone shared by 2 existing records")
}

func TestPreviewSlugMatchSameNameUpdates(t *testing.T) {
	store := &fakeStore{
		existing: []models.MatchFields{
			{ID: "p1", Name: "JEAN DUPONT", SlugSEO: "jean-dupont"},
		},
	}
	service, _ := newTestService(store)

	csv := "name,specialty\nJean Dupont,Masseur\n"
	rows, err := service.Preview(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)

	assert.Equal(t, models.RowStatusUpdate, rows[0].Status)
	assert.Equal(t, models.MatchTypeSlug, rows[0].MatchType)
	assert.Equal(t, "p1", rows[0].ExistingID)
}

func TestPreviewSlugCollisionDifferentNameWarns(t *testing.T) {
	store := &fakeStore{
		existing: []models.MatchFields{
			{ID: "p1", Name: "Jeanne Dupont", SlugSEO: "jean-dupont"},
		},
	}
	service, _ := newTestService(store)

	csv := "name,specialty,slug\nJean Dupont,Masseur,jean-dupont\n"
	rows, err := service.Preview(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)

	assert.Equal(t, models.RowStatusWarning, rows[0].Status)
	assert.Equal(t, "jean-dupont-1", rows[0].Data.SlugSEO)
	assert.Empty(t, rows[0].ExistingID)
}

func TestPublishCounters(t *testing.T) {
	store := &fakeStore{}
	service, audits := newTestService(store)

	rows := []models.ImportRow{
		{Status: models.RowStatusOK, Data: models.ImportCandidate{Name: "A", Specialty: "Pareur", SlugSEO: "a", Status: "active"}},
		{Status: models.RowStatusUpdate, ExistingID: "p1", Data: models.ImportCandidate{Name: "B", Specialty: "Masseur", SlugSEO: "b", Status: "active"}},
		{Status: models.RowStatusError, Data: models.ImportCandidate{SlugSEO: "c"}},
		{Status: models.RowStatusNeedsReview, Data: models.ImportCandidate{Name: "D", SlugSEO: "d"}},
	}

	summary := service.Publish(context.Background(), rows)

	assert.Equal(t, 4, summary.Total)
	assert.Equal(t, 1, summary.Inserted)
	assert.Equal(t, 1, summary.Updated)
	assert.Equal(t, 2, summary.Skipped)
	assert.Equal(t, 0, summary.Errors)
	assert.Equal(t, []string{"import.bulk"}, audits.actions)
}

func TestPublishUpdateSkipsEmptyFields(t *testing.T) {
	store := &fakeStore{}
	service, _ := newTestService(store)

	rows := []models.ImportRow{
		{Status: models.RowStatusUpdate, ExistingID: "p1", Data: models.ImportCandidate{
			Name:      "Jean Dupont",
			Specialty: "Pareur",
			City:      strPtr("Rennes"),
			Status:    "active",
		}},
	}

	summary := service.Publish(context.Background(), rows)
	require.Equal(t, 1, summary.Updated)

	patch := store.patches["p1"]
	assert.Equal(t, "Pareur", patch["specialty"])
	assert.Equal(t, "Rennes", patch["city"])
	assert.NotContains(t, patch, "name")
	assert.NotContains(t, patch, "phone_norm")
	assert.NotContains(t, patch, "website")
}

func TestPublishUpdateWithNothingToApplySkips(t *testing.T) {
	service, _ := newTestService(&fakeStore{})

	rows := []models.ImportRow{
		{Status: models.RowStatusUpdate, ExistingID: "p1", Data: models.ImportCandidate{Name: "Jean"}},
	}

	summary := service.Publish(context.Background(), rows)
	assert.Equal(t, 0, summary.Updated)
	assert.Equal(t, 1, summary.Skipped)
}

func TestPublishRetriesSlugCollision(t *testing.T) {
	store := &fakeStore{takenSlugs: map[string]bool{"jean-dupont": true}}
	service, _ := newTestService(store)

	rows := []models.ImportRow{
		{Status: models.RowStatusOK, Data: models.ImportCandidate{Name: "Jean Dupont", Specialty: "Pareur", SlugSEO: "jean-dupont", Status: "active"}},
	}

	summary := service.Publish(context.Background(), rows)

	assert.Equal(t, 1, summary.Inserted)
	assert.Equal(t, 0, summary.Errors)
	require.Len(t, store.created, 1)
	assert.True(t, strings.HasPrefix(store.created[0].SlugSEO, "jean-dupont-"))
}

func TestPublishSlugRetryExhaustionCountsError(t *testing.T) {
	store := &fakeStore{failAll: true}
	service, _ := newTestService(store)

	rows := []models.ImportRow{
		{Status: models.RowStatusOK, OriginalIndex: 7, Data: models.ImportCandidate{Name: "Jean Dupont", SlugSEO: "jean-dupont"}},
	}

	summary := service.Publish(context.Background(), rows)

	assert.Equal(t, 0, summary.Inserted)
	assert.Equal(t, 1, summary.Errors)
	require.Len(t, summary.ErrorDetails, 1)
	assert.Equal(t, 7, summary.ErrorDetails[0].OriginalIndex)
	assert.Contains(t, summary.ErrorDetails[0].Reason, "slug collision persisted")
}

func TestPublishNonSlugErrorIsolatedToRow(t *testing.T) {
	store := &fakeStore{failSlug: "b", failSlugErr: errors.New("connection reset")}
	service, _ := newTestService(store)

	rows := []models.ImportRow{
		{Status: models.RowStatusOK, Data: models.ImportCandidate{Name: "A", SlugSEO: "a"}},
		{Status: models.RowStatusOK, OriginalIndex: 1, Data: models.ImportCandidate{Name: "B", SlugSEO: "b"}},
		{Status: models.RowStatusOK, Data: models.ImportCandidate{Name: "C", SlugSEO: "c"}},
	}

	summary := service.Publish(context.Background(), rows)

	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 2, summary.Inserted)
	assert.Equal(t, 1, summary.Errors)
	require.Len(t, summary.ErrorDetails, 1)
	assert.Equal(t, 1, summary.ErrorDetails[0].OriginalIndex)
	assert.Equal(t, "connection reset", summary.ErrorDetails[0].Reason)
	require.Len(t, store.created, 2)
}

func TestPreviewPublishIsIdempotent(t *testing.T) {
	csv := "name,specialty,phone,profile_url\n" +
		"Jean Dupont,Pareur,+33 6 12 34 56 78,https://example.com/p/jean\n" +
		"Marie Martin,Shiatsu,,\n"

	store := &fakeStore{}
	service, _ := newTestService(store)

	rows, err := service.Preview(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)
	first := service.Publish(context.Background(), rows)
	require.Equal(t, 2, first.Inserted)
	require.Equal(t, 0, first.Errors)

	// Same file against the now-populated store: every row must match an
	// existing record instead of inserting again.
	repopulated := &fakeStore{}
	for i, req := range store.created {
		repopulated.existing = append(repopulated.existing, models.MatchFields{
			ID:         fmt.Sprintf("id-%d", i+1),
			Name:       req.Name,
			SlugSEO:    req.SlugSEO,
			PhoneNorm:  req.PhoneNorm,
			ProfileURL: req.ProfileURL,
		})
	}
	service, _ = newTestService(repopulated)

	rows, err = service.Preview(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)
	for _, row := range rows {
		assert.Equal(t, models.RowStatusUpdate, row.Status, "row %d should match an existing record", row.OriginalIndex)
		assert.NotEmpty(t, row.ExistingID)
	}

	second := service.Publish(context.Background(), rows)
	assert.Equal(t, 0, second.Inserted)
	assert.Equal(t, 2, second.Updated)
	assert.Equal(t, 0, second.Errors)
	assert.Empty(t, repopulated.created)
}

func TestParseCSVPadsAndTruncates(t *testing.T) {
	csv := "name,specialty,city\nJean,Pareur\nMarie,Shiatsu,Rennes,extra\n"
	records, err := parseCSV(strings.NewReader(csv), 0)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "", records[0]["city"])
	assert.Equal(t, "Rennes", records[1]["city"])
}

func TestParseCSVRejectsEmptyFile(t *testing.T) {
	_, err := parseCSV(strings.NewReader(""), 0)
	assert.Error(t, err)

	_, err = parseCSV(strings.NewReader("name,specialty\n"), 0)
	assert.Error(t, err)
}

func TestParseCSVEnforcesRowLimit(t *testing.T) {
	csv := "name\nA\nB\nC\n"
	_, err := parseCSV(strings.NewReader(csv), 2)
	assert.Error(t, err)
}
