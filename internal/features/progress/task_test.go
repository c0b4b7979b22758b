package progress

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openlearn/courseware-server/internal/services/analytics"
	"github.com/openlearn/courseware-server/pkg/types"
)

type stubSummaries struct {
	summary Summary
}

func (s stubSummaries) Summary(context.Context, uuid.UUID, string) (Summary, error) {
	return s.summary, nil
}

type stubUsers struct {
	exists bool
}

func (s stubUsers) Exists(context.Context, uuid.UUID) (bool, error) {
	return s.exists, nil
}

type stubEnrollments struct {
	mode     types.EnrollmentMode
	enrolled bool
}

func (s stubEnrollments) Mode(context.Context, uuid.UUID, string) (types.EnrollmentMode, bool, error) {
	return s.mode, s.enrolled, nil
}

func newTestCalculator(summary Summary, userExists bool, mode types.EnrollmentMode, enrolled bool) (*Calculator, *analytics.RecordingTracker) {
	tracker := &analytics.RecordingTracker{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	calc := NewCalculator(
		stubSummaries{summary: summary},
		stubUsers{exists: userExists},
		stubEnrollments{mode: mode, enrolled: enrolled},
		tracker,
		logger,
	)
	return calc, tracker
}

const testCourseKey = "course-v1:OpenLearn+CS101+2026"

func TestCalculateEmitsProgressEvent(t *testing.T) {
	summary := Summary{Complete: 5, Incomplete: 2, Locked: 1}
	calc, tracker := newTestCalculator(summary, true, types.EnrollmentModeVerified, true)
	userID := uuid.New()

	require.NoError(t, calc.Calculate(context.Background(), userID, testCourseKey))
	require.Len(t, tracker.Events, 1)

	event := tracker.Events[0]
	assert.Equal(t, EventCourseProgress, event.Name)
	assert.Equal(t, userID.String(), event.Payload["user_id"])
	assert.Equal(t, testCourseKey, event.Payload["course_id"])
	assert.Equal(t, "verified", event.Payload["enrollment_mode"])
	assert.Equal(t, int64(8), event.Payload["num_total_units"])
	assert.Equal(t, int64(5), event.Payload["complete_units"])
	assert.Equal(t, int64(2), event.Payload["incomplete_units"])
	assert.Equal(t, int64(1), event.Payload["locked_units"])
	assert.Equal(t, 0.62, event.Payload["complete_percentage"])
}

func TestCalculatePercentageRounding(t *testing.T) {
	tests := []struct {
		name     string
		summary  Summary
		expected float64
	}{
		{"all complete", Summary{Complete: 4}, 1.0},
		{"none complete", Summary{Incomplete: 3}, 0.0},
		{"one third", Summary{Complete: 1, Incomplete: 2}, 0.33},
		{"two thirds", Summary{Complete: 2, Incomplete: 1}, 0.67},
		{"half-even rounds down", Summary{Complete: 5, Incomplete: 3}, 0.62},
		{"half-even rounds up", Summary{Complete: 3, Incomplete: 5}, 0.38},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calc, tracker := newTestCalculator(tt.summary, true, types.EnrollmentModeAudit, true)
			require.NoError(t, calc.Calculate(context.Background(), uuid.New(), testCourseKey))
			require.Len(t, tracker.Events, 1)
			assert.Equal(t, tt.expected, tracker.Events[0].Payload["complete_percentage"])
		})
	}
}

func TestCalculateSkipsInvalidCourseKey(t *testing.T) {
	calc, tracker := newTestCalculator(Summary{Complete: 1}, true, types.EnrollmentModeAudit, true)

	require.NoError(t, calc.Calculate(context.Background(), uuid.New(), "not-a-course-key"))
	assert.Empty(t, tracker.Events)
}

func TestCalculateSkipsUnknownUser(t *testing.T) {
	calc, tracker := newTestCalculator(Summary{Complete: 1}, false, types.EnrollmentModeAudit, true)

	require.NoError(t, calc.Calculate(context.Background(), uuid.New(), testCourseKey))
	assert.Empty(t, tracker.Events)
}

func TestCalculateSkipsEmptyCourse(t *testing.T) {
	calc, tracker := newTestCalculator(Summary{}, true, types.EnrollmentModeAudit, true)

	require.NoError(t, calc.Calculate(context.Background(), uuid.New(), testCourseKey))
	assert.Empty(t, tracker.Events)
}

func TestCalculateWithoutEnrollment(t *testing.T) {
	calc, tracker := newTestCalculator(Summary{Complete: 2}, true, "", false)

	require.NoError(t, calc.Calculate(context.Background(), uuid.New(), testCourseKey))
	require.Len(t, tracker.Events, 1)
	assert.Nil(t, tracker.Events[0].Payload["enrollment_mode"])
}

func TestTaskName(t *testing.T) {
	calc, _ := newTestCalculator(Summary{}, true, "", false)
	task := calc.NewTask(uuid.New(), testCourseKey)
	assert.Equal(t, "course_progress", task.Name())
}
