package history

import (
	"time"

	"github.com/google/uuid"
)

// Record is one persisted analysis result, the raw material for the caller's
// daily and weekly rollups.
type Record struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        string    `gorm:"index:idx_records_user_day;not null" json:"user_id"`
	Day           string    `gorm:"index:idx_records_user_day;not null" json:"day"`
	ImageHash     string    `gorm:"not null" json:"image_hash"`
	Calories      float64   `json:"calories"`
	Protein       float64   `json:"protein_g"`
	Carbs         float64   `json:"carbs_g"`
	Fats          float64   `json:"fats_g"`
	Confidence    float64   `json:"confidence"`
	DetectedFoods string    `json:"detected_foods"`
	Description   string    `json:"description"`
	Degraded      bool      `json:"degraded"`
	CreatedAt     time.Time `json:"created_at"`
}

// TableName sets the table name for GORM.
func (Record) TableName() string {
	return "analysis_records"
}
