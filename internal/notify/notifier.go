package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

type EventType string

const (
	EventCreated EventType = "created"
	EventUpdated EventType = "updated"
	EventDeleted EventType = "deleted"
)

// ClaimSnapshot is the claim state carried in a change event. It mirrors the
// claim entity but stays a plain wire type so subscribers need no domain import.
type ClaimSnapshot struct {
	ID         string     `json:"id"`
	RoomID     string     `json:"room_id"`
	OwnerID    string     `json:"owner_id"`
	StartTime  time.Time  `json:"start_time"`
	EndTime    time.Time  `json:"end_time"`
	Status     string     `json:"status"`
	HoldExpiry *time.Time `json:"hold_expiry,omitempty"`
}

// Event is one claim change broadcast to everyone watching the room.
type Event struct {
	Type  EventType     `json:"type"`
	Claim ClaimSnapshot `json:"claim"`
}

// RoomChannel returns the pub/sub channel name for a room's claim events.
func RoomChannel(roomID string) string {
	return "claims:room:" + roomID
}

// Notifier broadcasts claim change events over Redis pub/sub so every
// client watching a room can recompute availability without polling.
// Delivery is best-effort: a fresh subscription replays nothing, so
// consumers pair it with a full fetch plus a periodic refetch backstop.
type Notifier struct {
	rdb *redis.Client
}

func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// Publish sends an event to the room's channel.
func (n *Notifier) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal claim event: %w", err)
	}

	if err := n.rdb.Publish(ctx, RoomChannel(event.Claim.RoomID), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish claim event: %w", err)
	}
	return nil
}

// Subscription is an active subscription to one room's claim events.
// Caller must call Close() when done to clean up resources.
type Subscription struct {
	events <-chan Event
	errors <-chan error
	cancel func()
	once   sync.Once
}

// Events returns the channel of claim change events.
// The channel is closed when the subscription is closed or the context is cancelled.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

// Errors returns the channel of subscription errors.
// Errors are non-fatal (e.g. malformed payloads); the subscription continues.
func (s *Subscription) Errors() <-chan error {
	return s.errors
}

// Close stops the subscription and cleans up resources. Implements io.Closer.
// Safe to call multiple times.
func (s *Subscription) Close() error {
	s.once.Do(s.cancel)
	return nil
}

// Subscribe starts listening for claim change events on a room.
// Only events published after the subscription starts are delivered.
// Events arrive on a buffered channel; a subscriber that falls far behind
// may miss messages (Redis pub/sub is at-most-once), which the periodic
// refetch backstop papers over.
func (n *Notifier) Subscribe(ctx context.Context, roomID string) (*Subscription, error) {
	pubsub := n.rdb.Subscribe(ctx, RoomChannel(roomID))

	eventsChan := make(chan Event, 16)
	errorsChan := make(chan error, 16)

	subCtx, cancelFunc := context.WithCancel(ctx)

	go func() {
		defer close(eventsChan)
		defer close(errorsChan)
		defer pubsub.Close()

		ch := pubsub.Channel()

		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				var event Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					select {
					case errorsChan <- fmt.Errorf("failed to unmarshal claim event: %w", err):
					case <-subCtx.Done():
						return
					}
					continue
				}

				select {
				case eventsChan <- event:
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	return &Subscription{
		events: eventsChan,
		errors: errorsChan,
		cancel: cancelFunc,
	}, nil
}
