package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
)

// Deal lifecycle event types published to the deals topic.
const (
	EventMatchAccepted     = "match.accepted"
	EventDocumentGenerated = "document.generated"
	EventDocumentSigned    = "document.signed"
)

// DealEvent is the envelope published for every deal lifecycle transition.
type DealEvent struct {
	Type       string    `json:"type"`
	MatchID    uuid.UUID `json:"match_id"`
	ListingID  uuid.UUID `json:"listing_id,omitempty"`
	ActorID    uuid.UUID `json:"actor_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// DealEventPublisher publishes deal lifecycle events. Services treat a nil
// publisher as a no-op so tests and single-process deploys need no broker.
type DealEventPublisher struct {
	publisher *pubsub.Publisher
}

// NewDealEventPublisher wraps the topic publisher handle.
func NewDealEventPublisher(publisher *pubsub.Publisher) *DealEventPublisher {
	return &DealEventPublisher{publisher: publisher}
}

// Publish sends the event and waits for the server acknowledgement.
func (p *DealEventPublisher) Publish(ctx context.Context, event DealEvent) error {
	if p == nil || p.publisher == nil {
		return nil
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal deal event: %w", err)
	}
	result := p.publisher.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: map[string]string{"type": event.Type},
	})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publish deal event: %w", err)
	}
	return nil
}
