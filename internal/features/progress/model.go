package progress

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/openlearn/courseware-server/pkg/types"
)

// UnitCompletion records a learner's completion state for a single course
// unit. One row per (user, course, unit).
type UnitCompletion struct {
	types.BaseModel
	UserID    uuid.UUID             `gorm:"type:uuid;not null;uniqueIndex:idx_completion_user_course_unit" json:"user_id"`
	CourseKey string                `gorm:"size:255;not null;uniqueIndex:idx_completion_user_course_unit;index" json:"course_key"`
	UnitID    string                `gorm:"size:255;not null;uniqueIndex:idx_completion_user_course_unit" json:"unit_id"`
	State     types.CompletionState `gorm:"size:20;not null;default:'incomplete'" json:"state"`
}

func (UnitCompletion) TableName() string {
	return "unit_completions"
}

// Summary aggregates a learner's unit states for one course.
type Summary struct {
	Complete   int64
	Incomplete int64
	Locked     int64
}

// Total is the number of units the summary covers.
func (s Summary) Total() int64 {
	return s.Complete + s.Incomplete + s.Locked
}

// SummaryProvider reports per-course completion counts for a learner.
type SummaryProvider interface {
	Summary(ctx context.Context, userID uuid.UUID, courseKey string) (Summary, error)
}

// GormSummaryProvider computes summaries from the unit_completions table.
type GormSummaryProvider struct {
	db *gorm.DB
}

func NewGormSummaryProvider(db *gorm.DB) *GormSummaryProvider {
	return &GormSummaryProvider{db: db}
}

func (p *GormSummaryProvider) Summary(ctx context.Context, userID uuid.UUID, courseKey string) (Summary, error) {
	var rows []struct {
		State types.CompletionState
		Count int64
	}

	err := p.db.WithContext(ctx).
		Model(&UnitCompletion{}).
		Select("state, COUNT(*) AS count").
		Where("user_id = ? AND course_key = ?", userID, courseKey).
		Group("state").
		Find(&rows).Error
	if err != nil {
		return Summary{}, err
	}

	var summary Summary
	for _, row := range rows {
		switch row.State {
		case types.CompletionStateComplete:
			summary.Complete = row.Count
		case types.CompletionStateIncomplete:
			summary.Incomplete = row.Count
		case types.CompletionStateLocked:
			summary.Locked = row.Count
		}
	}
	return summary, nil
}

// SetUnitState upserts one unit's completion state for a learner.
func SetUnitState(ctx context.Context, db *gorm.DB, userID uuid.UUID, courseKey, unitID string, state types.CompletionState) error {
	completion := UnitCompletion{
		UserID:    userID,
		CourseKey: courseKey,
		UnitID:    unitID,
		State:     state,
	}
	return db.WithContext(ctx).
		Where("user_id = ? AND course_key = ? AND unit_id = ?", userID, courseKey, unitID).
		Assign("state", state).
		FirstOrCreate(&completion).Error
}
