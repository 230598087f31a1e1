package repository

import (
	"context"
	"errors"

	"golang-zone-analyzer/internal/entity"

	"gorm.io/gorm"
)

type analysisReportRepository struct {
	db *gorm.DB
}

// NewAnalysisReportRepository creates a new instance of AnalysisReportRepository.
func NewAnalysisReportRepository(db *gorm.DB) AnalysisReportRepository {
	return &analysisReportRepository{db: db}
}

func (r *analysisReportRepository) Create(ctx context.Context, report *entity.AnalysisReport) error {
	return r.db.WithContext(ctx).Create(report).Error
}

// GetLatest returns nil without error when the pair has no report yet.
func (r *analysisReportRepository) GetLatest(ctx context.Context, pair string, strategy string) (*entity.AnalysisReport, error) {
	var report entity.AnalysisReport
	err := r.db.WithContext(ctx).
		Where("pair = ? AND strategy = ?", pair, strategy).
		Order("created_at DESC").
		First(&report).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &report, nil
}
