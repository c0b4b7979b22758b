package progress

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/openlearn/courseware-server/internal/features/enrollment"
	"github.com/openlearn/courseware-server/internal/features/user"
	"github.com/openlearn/courseware-server/internal/services/analytics"
	"github.com/openlearn/courseware-server/pkg/types"
	"github.com/openlearn/courseware-server/pkg/validation"
)

// EventCourseProgress is emitted whenever a learner's course progress is
// recalculated.
const EventCourseProgress = "user.course.progress"

// UserChecker reports whether a learner account exists.
type UserChecker interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// EnrollmentModeReader resolves the mode a learner is enrolled with.
// The bool result is false when the learner has no enrollment.
type EnrollmentModeReader interface {
	Mode(ctx context.Context, userID uuid.UUID, courseKey string) (types.EnrollmentMode, bool, error)
}

// Calculator recomputes a learner's course completion percentage and emits
// the result as an analytics event.
type Calculator struct {
	summaries   SummaryProvider
	users       UserChecker
	enrollments EnrollmentModeReader
	tracker     analytics.Tracker
	logger      *slog.Logger
}

func NewCalculator(summaries SummaryProvider, users UserChecker, enrollments EnrollmentModeReader, tracker analytics.Tracker, logger *slog.Logger) *Calculator {
	return &Calculator{
		summaries:   summaries,
		users:       users,
		enrollments: enrollments,
		tracker:     tracker,
		logger:      logger,
	}
}

// NewGormCalculator wires a Calculator against the database tables.
func NewGormCalculator(db *gorm.DB, tracker analytics.Tracker, logger *slog.Logger) *Calculator {
	return NewCalculator(
		NewGormSummaryProvider(db),
		gormUserChecker{db: db},
		gormEnrollmentReader{db: db},
		tracker,
		logger,
	)
}

// Calculate computes the learner's completion counts for courseKey and emits
// EventCourseProgress. Invalid course keys and unknown users are logged and
// skipped rather than failed: the learner or course may have been deleted
// between enqueue and execution. A course with no units emits nothing.
func (c *Calculator) Calculate(ctx context.Context, userID uuid.UUID, courseKey string) error {
	normalizedKey, err := validation.NormalizeCourseKey(courseKey)
	if err != nil {
		c.logger.Warn("skipping progress calculation for invalid course key",
			"course_key", courseKey, "error", err)
		return nil
	}

	exists, err := c.users.Exists(ctx, userID)
	if err != nil {
		return fmt.Errorf("checking user %s: %w", userID, err)
	}
	if !exists {
		c.logger.Warn("skipping progress calculation for unknown user",
			"user_id", userID, "course_key", normalizedKey)
		return nil
	}

	summary, err := c.summaries.Summary(ctx, userID, normalizedKey)
	if err != nil {
		return fmt.Errorf("summarizing completions for %s: %w", normalizedKey, err)
	}

	total := summary.Total()
	if total == 0 {
		c.logger.Warn("course has no units, skipping progress event",
			"user_id", userID, "course_key", normalizedKey)
		return nil
	}

	mode, enrolled, err := c.enrollments.Mode(ctx, userID, normalizedKey)
	if err != nil {
		return fmt.Errorf("resolving enrollment mode for %s: %w", normalizedKey, err)
	}

	percentage := decimal.NewFromInt(summary.Complete).
		Div(decimal.NewFromInt(total)).
		RoundBank(2)

	payload := map[string]any{
		"user_id":             userID.String(),
		"course_id":           normalizedKey,
		"num_total_units":     total,
		"complete_units":      summary.Complete,
		"incomplete_units":    summary.Incomplete,
		"locked_units":        summary.Locked,
		"complete_percentage": percentage.InexactFloat64(),
	}
	if enrolled {
		payload["enrollment_mode"] = string(mode)
	} else {
		payload["enrollment_mode"] = nil
	}

	if err := c.tracker.Emit(ctx, EventCourseProgress, payload); err != nil {
		return fmt.Errorf("emitting progress event: %w", err)
	}
	return nil
}

// Task adapts one Calculate invocation to the background dispatcher.
type Task struct {
	calculator *Calculator
	userID     uuid.UUID
	courseKey  string
}

func (c *Calculator) NewTask(userID uuid.UUID, courseKey string) *Task {
	return &Task{calculator: c, userID: userID, courseKey: courseKey}
}

func (t *Task) Name() string { return "course_progress" }

func (t *Task) Execute(ctx context.Context) error {
	return t.calculator.Calculate(ctx, t.userID, t.courseKey)
}

type gormUserChecker struct {
	db *gorm.DB
}

func (c gormUserChecker) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	_, err := user.Get(c.db.WithContext(ctx), id)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

type gormEnrollmentReader struct {
	db *gorm.DB
}

func (r gormEnrollmentReader) Mode(ctx context.Context, userID uuid.UUID, courseKey string) (types.EnrollmentMode, bool, error) {
	enr, err := enrollment.Get(r.db.WithContext(ctx), userID, courseKey)
	if err != nil {
		if errors.Is(err, enrollment.ErrEnrollmentNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return enr.Mode, true, nil
}
