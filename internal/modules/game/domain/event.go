package domain

import "time"

// EventType classifies a realtime game event
type EventType string

const (
	// EventRoundOpened announces a new round and its seed commitment
	EventRoundOpened EventType = "round_opened"
	// EventBettingClosed announces the end of the betting window
	EventBettingClosed EventType = "betting_closed"
	// EventTick carries the current multiplier of a running crash round
	EventTick EventType = "tick"
	// EventSpinning announces that the wheel started spinning
	EventSpinning EventType = "spinning"
	// EventRoundClosed announces the outcome and reveals the server seed
	EventRoundClosed EventType = "round_closed"
)

// Event is a realtime message pushed to connected clients. Round-opened
// events carry the published commitment (server seed hash, client seed,
// nonce); round-closed events carry the revealed server seed and outcome so
// clients can verify fairness.
type Event struct {
	Game      GameType               `json:"game"`
	Type      EventType              `json:"type"`
	RoundID   string                 `json:"round_id,omitempty"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	Timestamp int64                  `json:"timestamp"`
}

// NewEvent creates an event stamped with the current time
func NewEvent(game GameType, eventType EventType, roundID string, payload map[string]interface{}) *Event {
	return &Event{
		Game:      game,
		Type:      eventType,
		RoundID:   roundID,
		Payload:   payload,
		Timestamp: time.Now().UnixMilli(),
	}
}

// Broadcaster pushes events to connected clients. Implementations must not
// block the caller: engines broadcast from their tick loop.
type Broadcaster interface {
	Broadcast(event *Event)
	SendToUser(userID int64, event *Event)
}
