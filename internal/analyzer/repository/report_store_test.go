package repository

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang-zone-analyzer/internal/analyzer/dto"
	"golang-zone-analyzer/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDecision() *dto.CombinedDecision {
	return &dto.CombinedDecision{
		RunID:            "run-1",
		Pair:             "EURUSD",
		Strategy:         dto.StrategySwing,
		Status:           dto.StatusConfirmed,
		Valid:            true,
		Signal:           dto.SignalBuy,
		Confidence:       0.775,
		PrimaryTimeframe: "D1",
		EntryTimeframe:   "H4",
		PrimaryZone:      dto.ZoneCandidate{PriceHigh: 1.105, PriceLow: 1.1, ZoneKind: dto.ZoneSupport},
		Validation: dto.DecisionValidation{
			Primary: dto.ValidationOutcome{Valid: true, Errors: []string{}, Warnings: []string{"PIP WIDTH: near limit"}},
			Entry:   &dto.ValidationOutcome{Valid: true, Errors: []string{}, Warnings: []string{"TOLERANCE WARNING: edge"}},
		},
		CreatedAt: time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC),
	}
}

func TestReportKey(t *testing.T) {
	assert.Equal(t, "EURUSD_swing_20240305T143000", ReportKey(sampleDecision()))
}

func TestFileReportStoreSave(t *testing.T) {
	dir := t.TempDir()
	store := NewFileReportStore(dir)

	images := []dto.RenderedImage{
		{Timeframe: "D1", Role: dto.RolePrimary, PNG: []byte("primary")},
		{Timeframe: "h4", Role: dto.RoleEntry, PNG: []byte("entry")},
	}
	stored, err := store.Save(context.Background(), sampleDecision(), images)
	require.NoError(t, err)

	assert.Equal(t, "EURUSD_swing_20240305T143000", stored.Key)
	assert.Equal(t, filepath.Join(dir, "EURUSD_swing_20240305T143000.json"), stored.ReportPath)
	assert.Equal(t, filepath.Join(dir, "EURUSD_swing_20240305T143000_primary_D1.png"), stored.ImagePaths["primary"])
	assert.Equal(t, filepath.Join(dir, "EURUSD_swing_20240305T143000_entry_H4.png"), stored.ImagePaths["entry"])

	raw, err := os.ReadFile(stored.ReportPath)
	require.NoError(t, err)
	var decoded dto.CombinedDecision
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, dto.StatusConfirmed, decoded.Status)
	assert.Equal(t, 0.775, decoded.Confidence)

	png, err := os.ReadFile(stored.ImagePaths["entry"])
	require.NoError(t, err)
	assert.Equal(t, []byte("entry"), png)
}

func TestFileReportStoreWithoutImages(t *testing.T) {
	store := NewFileReportStore(filepath.Join(t.TempDir(), "nested"))

	stored, err := store.Save(context.Background(), sampleDecision(), nil)
	require.NoError(t, err)
	assert.Empty(t, stored.ImagePaths)
	assert.FileExists(t, stored.ReportPath)
}

type fakeReportRepository struct {
	created []*entity.AnalysisReport
	err     error
}

func (f *fakeReportRepository) Create(ctx context.Context, report *entity.AnalysisReport) error {
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, report)
	return nil
}

func (f *fakeReportRepository) GetLatest(ctx context.Context, pair string, strategy string) (*entity.AnalysisReport, error) {
	if len(f.created) == 0 {
		return nil, nil
	}
	return f.created[len(f.created)-1], nil
}

func TestPostgresReportStoreSave(t *testing.T) {
	repo := &fakeReportRepository{}
	store := NewPostgresReportStore(NewFileReportStore(t.TempDir()), repo)

	images := []dto.RenderedImage{{Timeframe: "D1", Role: dto.RolePrimary, PNG: []byte("x")}}
	stored, err := store.Save(context.Background(), sampleDecision(), images)
	require.NoError(t, err)
	require.Len(t, repo.created, 1)

	row := repo.created[0]
	assert.Equal(t, stored.Key, row.ReportKey)
	assert.Equal(t, "run-1", row.RunID)
	assert.Equal(t, "swing", row.Strategy)
	assert.Equal(t, "CONFIRMED", row.Status)
	assert.Equal(t, stored.ImagePaths["primary"], row.PrimaryImagePath)
	assert.Empty(t, row.EntryImagePath)
	assert.Empty(t, row.Errors)
	assert.Equal(t, []string{"PIP WIDTH: near limit", "TOLERANCE WARNING: edge"}, []string(row.Warnings))

	decision, err := DecisionFromEntity(row)
	require.NoError(t, err)
	assert.Equal(t, dto.SignalBuy, decision.Signal)
}

func TestPostgresReportStoreInsertFailure(t *testing.T) {
	repo := &fakeReportRepository{err: errors.New("connection refused")}
	store := NewPostgresReportStore(NewFileReportStore(t.TempDir()), repo)

	_, err := store.Save(context.Background(), sampleDecision(), nil)
	assert.ErrorContains(t, err, "connection refused")
}
