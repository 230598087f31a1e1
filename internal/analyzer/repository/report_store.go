package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang-zone-analyzer/internal/analyzer/dto"
	"golang-zone-analyzer/internal/entity"
	"golang-zone-analyzer/pkg/utils"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// ReportKey builds the shared key of a decision report and its images.
func ReportKey(decision *dto.CombinedDecision) string {
	return fmt.Sprintf("%s_%s_%s", decision.Pair, decision.Strategy, utils.ReportTimestamp(decision.CreatedAt))
}

type fileReportStore struct {
	dir string
}

// NewFileReportStore writes <key>.json and <key>_<role>_<timeframe>.png files under dir.
func NewFileReportStore(dir string) ReportStore {
	return &fileReportStore{dir: dir}
}

func (s *fileReportStore) Save(ctx context.Context, decision *dto.CombinedDecision, images []dto.RenderedImage) (*dto.StoredReport, error) {
	if decision == nil {
		return nil, fmt.Errorf("decision is required")
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create report dir: %w", err)
	}

	key := ReportKey(decision)
	report := &dto.StoredReport{Key: key, ImagePaths: make(map[string]string, len(images))}

	for _, img := range images {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := fmt.Sprintf("%s_%s_%s.png", key, img.Role, strings.ToUpper(img.Timeframe))
		path := filepath.Join(s.dir, name)
		if err := os.WriteFile(path, img.PNG, 0o644); err != nil {
			return nil, fmt.Errorf("failed to write image %s: %w", name, err)
		}
		report.ImagePaths[string(img.Role)] = path
	}

	data, err := json.MarshalIndent(decision, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal decision: %w", err)
	}
	report.ReportPath = filepath.Join(s.dir, key+".json")
	if err := os.WriteFile(report.ReportPath, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write report: %w", err)
	}

	return report, nil
}

type postgresReportStore struct {
	files   ReportStore
	reports AnalysisReportRepository
}

// NewPostgresReportStore keeps images and the JSON file on disk and indexes the decision in postgres.
func NewPostgresReportStore(files ReportStore, reports AnalysisReportRepository) ReportStore {
	return &postgresReportStore{files: files, reports: reports}
}

func (s *postgresReportStore) Save(ctx context.Context, decision *dto.CombinedDecision, images []dto.RenderedImage) (*dto.StoredReport, error) {
	stored, err := s.files.Save(ctx, decision, images)
	if err != nil {
		return nil, err
	}

	row, err := NewAnalysisReportEntity(decision, stored)
	if err != nil {
		return nil, err
	}
	if err := s.reports.Create(ctx, row); err != nil {
		return nil, fmt.Errorf("failed to insert analysis report: %w", err)
	}
	return stored, nil
}

// NewAnalysisReportEntity flattens a decision into its database row.
func NewAnalysisReportEntity(decision *dto.CombinedDecision, stored *dto.StoredReport) (*entity.AnalysisReport, error) {
	data, err := json.Marshal(decision)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal decision: %w", err)
	}

	errs := append([]string{}, decision.Validation.Primary.Errors...)
	warnings := append([]string{}, decision.Validation.Primary.Warnings...)
	if entry := decision.Validation.Entry; entry != nil {
		errs = append(errs, entry.Errors...)
		warnings = append(warnings, entry.Warnings...)
	}

	row := &entity.AnalysisReport{
		RunID:      decision.RunID,
		Pair:       decision.Pair,
		Strategy:   string(decision.Strategy),
		Status:     string(decision.Status),
		Signal:     string(decision.Signal),
		Valid:      decision.Valid,
		Confidence: decision.Confidence,
		Errors:     pq.StringArray(errs),
		Warnings:   pq.StringArray(warnings),
		Data:       datatypes.JSON(data),
		CreatedAt:  decision.CreatedAt,
	}
	if stored != nil {
		row.ReportKey = stored.Key
		row.PrimaryImagePath = stored.ImagePaths[string(dto.RolePrimary)]
		row.EntryImagePath = stored.ImagePaths[string(dto.RoleEntry)]
	} else {
		row.ReportKey = ReportKey(decision)
	}
	return row, nil
}

// DecisionFromEntity restores the decision stored in a report row.
func DecisionFromEntity(row *entity.AnalysisReport) (*dto.CombinedDecision, error) {
	var decision dto.CombinedDecision
	if err := json.Unmarshal(row.Data, &decision); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report %s: %w", row.ReportKey, err)
	}
	return &decision, nil
}
