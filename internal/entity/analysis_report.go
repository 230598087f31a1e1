package entity

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// AnalysisReport is one persisted pair x strategy decision.
type AnalysisReport struct {
	ID               int64          `json:"id"`
	RunID            string         `json:"run_id"`
	ReportKey        string         `gorm:"uniqueIndex" json:"report_key"`
	Pair             string         `json:"pair"`
	Strategy         string         `json:"strategy"`
	Status           string         `json:"status"`
	Signal           string         `json:"signal"`
	Valid            bool           `json:"valid"`
	Confidence       float64        `json:"confidence"`
	Errors           pq.StringArray `gorm:"type:text[]" json:"errors"`
	Warnings         pq.StringArray `gorm:"type:text[]" json:"warnings"`
	Data             datatypes.JSON `gorm:"type:jsonb" json:"data"`
	PrimaryImagePath string         `json:"primary_image_path"`
	EntryImagePath   string         `json:"entry_image_path"`
	CreatedAt        time.Time      `json:"created_at"`
}

func (AnalysisReport) TableName() string {
	return "analysis_reports"
}
