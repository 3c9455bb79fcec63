package outbox

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EnvelopeVersion is the newest envelope layout this build can read.
const EnvelopeVersion = 1

// ActorRef identifies who produced the event. Guests carry their session id.
type ActorRef struct {
	UserID         *uuid.UUID `json:"userId,omitempty"`
	GuestSessionID string     `json:"guestSessionId,omitempty"`
	Role           string     `json:"role,omitempty"`
}

// PayloadEnvelope is what outbox_events.payload holds and what subscribers
// receive. EventID equals the outbox row id, so broker message ids, DLQ
// entries and requeues all refer to the same identifier.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}

// DecodeEnvelope parses a stored payload and rejects layouts newer than
// EnvelopeVersion.
func DecodeEnvelope(raw []byte) (PayloadEnvelope, error) {
	var env PayloadEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return PayloadEnvelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Version > EnvelopeVersion {
		return PayloadEnvelope{}, fmt.Errorf("envelope version %d not supported (max %d)", env.Version, EnvelopeVersion)
	}
	return env, nil
}
