package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"cadastro/pkg/requestcontext"
)

// Action names a person lifecycle change.
type Action string

const (
	ActionPersonCreated Action = "person_created"
	ActionPersonUpdated Action = "person_updated"
	ActionPersonDeleted Action = "person_deleted"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID        uuid.UUID `json:"id"`
	Action    Action    `json:"action"`
	PersonID  uuid.UUID `json:"person_id"`
	RequestID string    `json:"request_id,omitempty"`
	// ActorID is the authenticated subject that performed the change.
	ActorID   string    `json:"actor_id,omitempty"`
	ClientIP  string    `json:"client_ip,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEvent builds an event for personID enriched with the request-scoped
// values the middleware chain placed on ctx.
func NewEvent(ctx context.Context, action Action, personID uuid.UUID) Event {
	return Event{
		ID:        uuid.New(),
		Action:    action,
		PersonID:  personID,
		RequestID: requestcontext.RequestID(ctx),
		ActorID:   requestcontext.Actor(ctx),
		ClientIP:  requestcontext.ClientIP(ctx),
		UserAgent: requestcontext.UserAgent(ctx),
		Timestamp: requestcontext.Now(ctx),
	}
}
