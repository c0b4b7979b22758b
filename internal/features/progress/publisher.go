package progress

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/openlearn/courseware-server/pkg/types"
)

// completeThreshold is the completion fraction at which a unit counts as
// complete rather than merely started.
const completeThreshold = 0.95

// Publisher records learner completion signals against course units. It can
// be disabled by configuration, which consumers must surface as a feature-off
// condition rather than an error.
type Publisher struct {
	db      *gorm.DB
	enabled bool
}

func NewPublisher(db *gorm.DB, enabled bool) *Publisher {
	return &Publisher{db: db, enabled: enabled}
}

func (p *Publisher) Enabled() bool {
	return p.enabled
}

func (p *Publisher) Publish(ctx context.Context, userID uuid.UUID, courseKey, unitID string, completion float64) error {
	state := types.CompletionStateIncomplete
	if completion >= completeThreshold {
		state = types.CompletionStateComplete
	}
	return SetUnitState(ctx, p.db, userID, courseKey, unitID, state)
}
