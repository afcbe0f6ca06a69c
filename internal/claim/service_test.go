package claim

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/TECHINNNNNNNN/occupied-reservation-backend/internal/notify"
	"github.com/TECHINNNNNNNN/occupied-reservation-backend/internal/pkg/clock"
	"github.com/TECHINNNNNNNN/occupied-reservation-backend/internal/room"
)

// fakeRepo is an in-memory Repository. WithTx serializes callers the way
// the database's transaction isolation does, so racing goroutines observe
// each other's committed writes, never partial state.
type fakeRepo struct {
	txMu sync.Mutex
	mu   sync.Mutex
	seq  int
	data map[string]*Claim
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{data: make(map[string]*Claim)}
}

func cloneClaim(c *Claim) *Claim {
	cp := *c
	if c.HoldExpiry != nil {
		e := *c.HoldExpiry
		cp.HoldExpiry = &e
	}
	return &cp
}

// seed inserts a claim directly, bypassing constraint checks.
func (r *fakeRepo) seed(c *Claim) *Claim {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	if c.ID == "" {
		c.ID = fmt.Sprintf("claim-%d", r.seq)
	}
	r.data[c.ID] = cloneClaim(c)
	return c
}

func (r *fakeRepo) get(id string) *Claim {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.data[id]; ok {
		return cloneClaim(c)
	}
	return nil
}

func (r *fakeRepo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()
	return fn(ctx)
}

func (r *fakeRepo) Create(ctx context.Context, c *Claim) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Mirror the exclusion constraint: active-status rows with intersecting
	// ranges reject the insert regardless of hold expiry.
	for _, other := range r.data {
		if other.RoomID != c.RoomID {
			continue
		}
		if other.Status != StatusHeld && other.Status != StatusConfirmed {
			continue
		}
		if Overlaps(c.StartTime, c.EndTime, other.StartTime, other.EndTime) {
			return ErrSlotTaken
		}
	}
	if c.IdempotencyKey != "" {
		for _, other := range r.data {
			if other.OwnerID == c.OwnerID && other.IdempotencyKey == c.IdempotencyKey {
				return ErrIdempotencyConflict
			}
		}
	}

	r.seq++
	c.ID = fmt.Sprintf("claim-%d", r.seq)
	r.data[c.ID] = cloneClaim(c)
	return nil
}

func (r *fakeRepo) GetByID(ctx context.Context, id string) (*Claim, error) {
	if c := r.get(id); c != nil {
		return c, nil
	}
	return nil, ErrNotFound
}

func (r *fakeRepo) GetForUpdate(ctx context.Context, id string) (*Claim, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeRepo) List(ctx context.Context, filter Filter) ([]*Claim, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Claim
	for _, c := range r.data {
		if filter.OwnerID != "" && c.OwnerID != filter.OwnerID {
			continue
		}
		if filter.RoomID != "" && c.RoomID != filter.RoomID {
			continue
		}
		if filter.Status != "" && string(c.Status) != filter.Status {
			continue
		}
		out = append(out, cloneClaim(c))
	}
	return out, len(out), nil
}

func (r *fakeRepo) ListActive(ctx context.Context, roomID string, now time.Time) ([]*Claim, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Claim
	for _, c := range r.data {
		if c.RoomID == roomID && c.ActiveAt(now) {
			out = append(out, cloneClaim(c))
		}
	}
	return out, nil
}

func (r *fakeRepo) HasOverlap(ctx context.Context, roomID string, start, end time.Time, excludeClaimID string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.data {
		if c.RoomID != roomID || c.ID == excludeClaimID {
			continue
		}
		if !c.ActiveAt(now) {
			continue
		}
		if Overlaps(start, end, c.StartTime, c.EndTime) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRepo) SetConfirmed(ctx context.Context, id, agenda string, partySize int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.data[id]
	if !ok {
		return ErrNotFound
	}
	c.Status = StatusConfirmed
	c.HoldExpiry = nil
	c.Agenda = agenda
	c.PartySize = partySize
	return nil
}

func (r *fakeRepo) SetStatus(ctx context.Context, id string, status Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.data[id]
	if !ok {
		return ErrNotFound
	}
	c.Status = status
	c.HoldExpiry = nil
	return nil
}

func (r *fakeRepo) ExpireStale(ctx context.Context, roomID string, now time.Time) ([]*Claim, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var expired []*Claim
	for _, c := range r.data {
		if roomID != "" && c.RoomID != roomID {
			continue
		}
		if c.Status == StatusHeld && c.HoldExpiry != nil && !c.HoldExpiry.After(now) {
			c.Status = StatusExpired
			expired = append(expired, cloneClaim(c))
		}
	}
	return expired, nil
}

func (r *fakeRepo) FindByIdempotencyKey(ctx context.Context, ownerID, key string) (*Claim, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.data {
		if c.OwnerID == ownerID && c.IdempotencyKey == key {
			return cloneClaim(c), nil
		}
	}
	return nil, nil
}

// fakeRoomService resolves a fixed set of room ids.
type fakeRoomService struct {
	ids map[string]bool
}

func (s *fakeRoomService) Create(ctx context.Context, req room.CreateRequest) (*room.Room, error) {
	return nil, nil
}

func (s *fakeRoomService) GetByID(ctx context.Context, id string) (*room.Room, error) {
	if s.ids[id] {
		return &room.Room{ID: id, Name: "Room " + id, Capacity: 8}, nil
	}
	return nil, room.ErrNotFound
}

func (s *fakeRoomService) List(ctx context.Context, filter room.Filter) ([]*room.Room, int, error) {
	return nil, 0, nil
}

// fakePublisher records published events.
type fakePublisher struct {
	mu     sync.Mutex
	events []notify.Event
}

func (p *fakePublisher) Publish(ctx context.Context, event notify.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *fakePublisher) all() []notify.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]notify.Event(nil), p.events...)
}

func (p *fakePublisher) last() *notify.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.events) == 0 {
		return nil
	}
	e := p.events[len(p.events)-1]
	return &e
}

const testRoom = "room-1"

var allDays = map[time.Weekday]bool{
	time.Sunday: true, time.Monday: true, time.Tuesday: true,
	time.Wednesday: true, time.Thursday: true, time.Friday: true,
	time.Saturday: true,
}

// testNow is 08:00 on a Wednesday; the test slots start at 09:00 so holds
// can expire without the slots themselves elapsing.
var testNow = time.Date(2026, 2, 11, 8, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (Service, *fakeRepo, *fakePublisher, *clock.Mock) {
	t.Helper()
	repo := newFakeRepo()
	pub := &fakePublisher{}
	clk := clock.NewMock(testNow)
	rooms := &fakeRoomService{ids: map[string]bool{testRoom: true}}

	svc := NewService(repo, rooms, pub, clk, Settings{
		HoldTTL:          30 * time.Second,
		SlotInterval:     30 * time.Minute,
		MaxSlotsPerClaim: 4,
		Hours: OperatingHours{
			Open:  8 * time.Hour,
			Close: 20 * time.Hour,
			Days:  allDays,
		},
	})
	return svc, repo, pub, clk
}

func slotTime(h, m int) time.Time {
	return time.Date(2026, 2, 11, h, m, 0, 0, time.UTC)
}

func TestCreateHold(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a hold with TTL expiry", func(t *testing.T) {
		svc, repo, pub, _ := newTestService(t)

		held, err := svc.CreateHold(ctx, CreateHoldRequest{
			RoomID:    testRoom,
			OwnerID:   "alice",
			StartTime: slotTime(9, 0),
			EndTime:   slotTime(10, 0),
		})
		require.NoError(t, err)
		require.NotEmpty(t, held.ID)
		require.Equal(t, StatusHeld, held.Status)
		require.NotNil(t, held.HoldExpiry)
		require.Equal(t, testNow.Add(30*time.Second), *held.HoldExpiry)

		stored := repo.get(held.ID)
		require.NotNil(t, stored)
		require.Equal(t, StatusHeld, stored.Status)

		events := pub.all()
		require.Len(t, events, 1)
		require.Equal(t, notify.EventCreated, events[0].Type)
		require.Equal(t, held.ID, events[0].Claim.ID)
	})

	t.Run("rejects overlap with existing hold", func(t *testing.T) {
		svc, _, _, _ := newTestService(t)

		_, err := svc.CreateHold(ctx, CreateHoldRequest{
			RoomID: testRoom, OwnerID: "alice",
			StartTime: slotTime(9, 0), EndTime: slotTime(10, 0),
		})
		require.NoError(t, err)

		_, err = svc.CreateHold(ctx, CreateHoldRequest{
			RoomID: testRoom, OwnerID: "bob",
			StartTime: slotTime(9, 30), EndTime: slotTime(10, 30),
		})
		require.ErrorIs(t, err, ErrSlotTaken)
	})

	t.Run("adjacent intervals do not conflict", func(t *testing.T) {
		svc, _, _, _ := newTestService(t)

		_, err := svc.CreateHold(ctx, CreateHoldRequest{
			RoomID: testRoom, OwnerID: "alice",
			StartTime: slotTime(9, 0), EndTime: slotTime(10, 0),
		})
		require.NoError(t, err)

		_, err = svc.CreateHold(ctx, CreateHoldRequest{
			RoomID: testRoom, OwnerID: "bob",
			StartTime: slotTime(10, 0), EndTime: slotTime(10, 30),
		})
		require.NoError(t, err)
	})

	t.Run("expired hold frees the interval", func(t *testing.T) {
		svc, repo, pub, clk := newTestService(t)

		first, err := svc.CreateHold(ctx, CreateHoldRequest{
			RoomID: testRoom, OwnerID: "alice",
			StartTime: slotTime(9, 0), EndTime: slotTime(10, 0),
		})
		require.NoError(t, err)

		// Past the hold TTL without a confirm.
		clk.Advance(31 * time.Second)

		second, err := svc.CreateHold(ctx, CreateHoldRequest{
			RoomID: testRoom, OwnerID: "carol",
			StartTime: slotTime(9, 0), EndTime: slotTime(9, 30),
		})
		require.NoError(t, err)
		require.NotEqual(t, first.ID, second.ID)

		require.Equal(t, StatusExpired, repo.get(first.ID).Status)

		// The lapsed hold's removal is broadcast before the new hold.
		events := pub.all()
		require.Equal(t, notify.EventDeleted, events[len(events)-2].Type)
		require.Equal(t, first.ID, events[len(events)-2].Claim.ID)
		require.Equal(t, notify.EventCreated, events[len(events)-1].Type)
	})

	t.Run("validation failures", func(t *testing.T) {
		svc, _, _, _ := newTestService(t)

		cases := []struct {
			name    string
			req     CreateHoldRequest
			wantErr error
		}{
			{
				"misaligned start",
				CreateHoldRequest{RoomID: testRoom, OwnerID: "alice", StartTime: slotTime(9, 10), EndTime: slotTime(9, 40)},
				ErrNotAligned,
			},
			{
				"too many slots",
				CreateHoldRequest{RoomID: testRoom, OwnerID: "alice", StartTime: slotTime(9, 0), EndTime: slotTime(11, 30)},
				ErrTooManySlots,
			},
			{
				"start in the past",
				CreateHoldRequest{RoomID: testRoom, OwnerID: "alice", StartTime: slotTime(7, 0), EndTime: slotTime(7, 30)},
				ErrStartTimePast,
			},
			{
				"outside operating hours",
				CreateHoldRequest{RoomID: testRoom, OwnerID: "alice", StartTime: slotTime(19, 30), EndTime: slotTime(20, 30)},
				ErrOutsideHours,
			},
			{
				"not the current day",
				CreateHoldRequest{RoomID: testRoom, OwnerID: "alice", StartTime: slotTime(9, 0).AddDate(0, 0, 1), EndTime: slotTime(10, 0).AddDate(0, 0, 1)},
				ErrNotToday,
			},
			{
				"unknown room",
				CreateHoldRequest{RoomID: "room-404", OwnerID: "alice", StartTime: slotTime(9, 0), EndTime: slotTime(9, 30)},
				ErrRoomNotFound,
			},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := svc.CreateHold(ctx, tc.req)
				require.ErrorIs(t, err, tc.wantErr)
			})
		}
	})

	t.Run("same idempotency key replays the original hold", func(t *testing.T) {
		svc, _, pub, _ := newTestService(t)

		req := CreateHoldRequest{
			RoomID: testRoom, OwnerID: "alice",
			StartTime: slotTime(9, 0), EndTime: slotTime(10, 0),
			IdempotencyKey: "retry-1",
		}

		first, err := svc.CreateHold(ctx, req)
		require.NoError(t, err)

		second, err := svc.CreateHold(ctx, req)
		require.NoError(t, err)
		require.Equal(t, first.ID, second.ID)

		// The replay publishes nothing new.
		require.Len(t, pub.all(), 1)
	})

	t.Run("same idempotency key with different interval conflicts", func(t *testing.T) {
		svc, _, _, _ := newTestService(t)

		_, err := svc.CreateHold(ctx, CreateHoldRequest{
			RoomID: testRoom, OwnerID: "alice",
			StartTime: slotTime(9, 0), EndTime: slotTime(10, 0),
			IdempotencyKey: "retry-2",
		})
		require.NoError(t, err)

		_, err = svc.CreateHold(ctx, CreateHoldRequest{
			RoomID: testRoom, OwnerID: "alice",
			StartTime: slotTime(11, 0), EndTime: slotTime(11, 30),
			IdempotencyKey: "retry-2",
		})
		require.ErrorIs(t, err, ErrIdempotencyConflict)
	})

	t.Run("exactly one of two racing holds wins", func(t *testing.T) {
		svc, _, _, _ := newTestService(t)

		req := func(owner string) CreateHoldRequest {
			return CreateHoldRequest{
				RoomID: testRoom, OwnerID: owner,
				StartTime: slotTime(9, 0), EndTime: slotTime(9, 30),
			}
		}

		errs := make(chan error, 2)
		var wg sync.WaitGroup
		for _, owner := range []string{"alice", "bob"} {
			wg.Add(1)
			go func(owner string) {
				defer wg.Done()
				_, err := svc.CreateHold(ctx, req(owner))
				errs <- err
			}(owner)
		}
		wg.Wait()
		close(errs)

		var wins, conflicts int
		for err := range errs {
			switch {
			case err == nil:
				wins++
			case err == ErrSlotTaken:
				conflicts++
			default:
				t.Fatalf("unexpected error: %v", err)
			}
		}
		require.Equal(t, 1, wins)
		require.Equal(t, 1, conflicts)
	})
}

func TestConfirm(t *testing.T) {
	ctx := context.Background()

	hold := func(t *testing.T, svc Service, owner string, startH, startM, endH, endM int) *Claim {
		t.Helper()
		c, err := svc.CreateHold(ctx, CreateHoldRequest{
			RoomID: testRoom, OwnerID: owner,
			StartTime: slotTime(startH, startM), EndTime: slotTime(endH, endM),
		})
		require.NoError(t, err)
		return c
	}

	t.Run("confirms a live hold", func(t *testing.T) {
		svc, repo, pub, _ := newTestService(t)
		held := hold(t, svc, "alice", 9, 0, 10, 0)

		confirmed, err := svc.Confirm(ctx, ConfirmRequest{
			ClaimID: held.ID, OwnerID: "alice",
			Agenda: "sprint planning", PartySize: 6,
		})
		require.NoError(t, err)
		require.Equal(t, StatusConfirmed, confirmed.Status)
		require.Nil(t, confirmed.HoldExpiry)
		require.Equal(t, "sprint planning", confirmed.Agenda)
		require.Equal(t, 6, confirmed.PartySize)

		require.Equal(t, StatusConfirmed, repo.get(held.ID).Status)

		last := pub.last()
		require.Equal(t, notify.EventUpdated, last.Type)
		require.Equal(t, held.ID, last.Claim.ID)
	})

	t.Run("rejects a confirm after hold expiry", func(t *testing.T) {
		svc, repo, pub, clk := newTestService(t)
		held := hold(t, svc, "alice", 9, 0, 10, 0)

		clk.Advance(31 * time.Second)

		_, err := svc.Confirm(ctx, ConfirmRequest{
			ClaimID: held.ID, OwnerID: "alice",
			Agenda: "too late", PartySize: 2,
		})
		require.ErrorIs(t, err, ErrHoldExpired)

		// The lapsed hold is terminal and its removal broadcast.
		require.Equal(t, StatusExpired, repo.get(held.ID).Status)
		last := pub.last()
		require.Equal(t, notify.EventDeleted, last.Type)
		require.Equal(t, held.ID, last.Claim.ID)
	})

	t.Run("loses the race to an interleaved confirm", func(t *testing.T) {
		svc, repo, _, _ := newTestService(t)
		held := hold(t, svc, "alice", 9, 0, 10, 0)

		// A competing confirmed claim landed between hold and confirm.
		repo.seed(&Claim{
			RoomID: testRoom, OwnerID: "bob",
			StartTime: slotTime(9, 30), EndTime: slotTime(10, 30),
			Status: StatusConfirmed,
		})

		_, err := svc.Confirm(ctx, ConfirmRequest{
			ClaimID: held.ID, OwnerID: "alice",
			Agenda: "doomed", PartySize: 2,
		})
		require.ErrorIs(t, err, ErrRaceLost)
	})

	t.Run("second confirm is rejected", func(t *testing.T) {
		svc, _, _, _ := newTestService(t)
		held := hold(t, svc, "alice", 9, 0, 10, 0)

		_, err := svc.Confirm(ctx, ConfirmRequest{ClaimID: held.ID, OwnerID: "alice", Agenda: "standup", PartySize: 3})
		require.NoError(t, err)

		_, err = svc.Confirm(ctx, ConfirmRequest{ClaimID: held.ID, OwnerID: "alice", Agenda: "standup", PartySize: 3})
		require.ErrorIs(t, err, ErrNotHeld)
	})

	t.Run("owner mismatch reads as not found", func(t *testing.T) {
		svc, _, _, _ := newTestService(t)
		held := hold(t, svc, "alice", 9, 0, 10, 0)

		_, err := svc.Confirm(ctx, ConfirmRequest{ClaimID: held.ID, OwnerID: "mallory", Agenda: "hijack", PartySize: 1})
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("requires agenda and party size", func(t *testing.T) {
		svc, _, _, _ := newTestService(t)
		held := hold(t, svc, "alice", 9, 0, 10, 0)

		_, err := svc.Confirm(ctx, ConfirmRequest{ClaimID: held.ID, OwnerID: "alice", PartySize: 3})
		require.ErrorIs(t, err, ErrAgendaRequired)

		_, err = svc.Confirm(ctx, ConfirmRequest{ClaimID: held.ID, OwnerID: "alice", Agenda: "standup"})
		require.ErrorIs(t, err, ErrInvalidPartySize)
	})
}

func TestCancel(t *testing.T) {
	ctx := context.Background()

	t.Run("cancelling a booking frees its slots", func(t *testing.T) {
		svc, _, pub, _ := newTestService(t)

		held, err := svc.CreateHold(ctx, CreateHoldRequest{
			RoomID: testRoom, OwnerID: "alice",
			StartTime: slotTime(14, 0), EndTime: slotTime(14, 30),
		})
		require.NoError(t, err)
		_, err = svc.Confirm(ctx, ConfirmRequest{ClaimID: held.ID, OwnerID: "alice", Agenda: "1:1", PartySize: 2})
		require.NoError(t, err)

		require.NoError(t, svc.Cancel(ctx, held.ID, "alice"))

		last := pub.last()
		require.Equal(t, notify.EventDeleted, last.Type)
		require.Equal(t, held.ID, last.Claim.ID)

		// The interval is immediately holdable by someone else.
		_, err = svc.CreateHold(ctx, CreateHoldRequest{
			RoomID: testRoom, OwnerID: "bob",
			StartTime: slotTime(14, 0), EndTime: slotTime(14, 30),
		})
		require.NoError(t, err)
	})

	t.Run("cancelling a hold releases it", func(t *testing.T) {
		svc, repo, _, _ := newTestService(t)

		held, err := svc.CreateHold(ctx, CreateHoldRequest{
			RoomID: testRoom, OwnerID: "alice",
			StartTime: slotTime(9, 0), EndTime: slotTime(9, 30),
		})
		require.NoError(t, err)

		require.NoError(t, svc.Cancel(ctx, held.ID, "alice"))
		require.Equal(t, StatusExpired, repo.get(held.ID).Status)
	})

	t.Run("only the owner may cancel", func(t *testing.T) {
		svc, _, _, _ := newTestService(t)

		held, err := svc.CreateHold(ctx, CreateHoldRequest{
			RoomID: testRoom, OwnerID: "alice",
			StartTime: slotTime(9, 0), EndTime: slotTime(9, 30),
		})
		require.NoError(t, err)

		require.ErrorIs(t, svc.Cancel(ctx, held.ID, "bob"), ErrNotOwner)
	})

	t.Run("cannot cancel a booking that already ended", func(t *testing.T) {
		svc, repo, _, _ := newTestService(t)

		past := repo.seed(&Claim{
			RoomID: testRoom, OwnerID: "alice",
			StartTime: slotTime(6, 0), EndTime: slotTime(6, 30),
			Status: StatusConfirmed,
		})

		require.ErrorIs(t, svc.Cancel(ctx, past.ID, "alice"), ErrAlreadyPast)
	})

	t.Run("terminal claims read as not found", func(t *testing.T) {
		svc, repo, _, _ := newTestService(t)

		gone := repo.seed(&Claim{
			RoomID: testRoom, OwnerID: "alice",
			StartTime: slotTime(9, 0), EndTime: slotTime(9, 30),
			Status: StatusCancelled,
		})

		require.ErrorIs(t, svc.Cancel(ctx, gone.ID, "alice"), ErrNotFound)
	})
}

// TestBookingScenario walks the end-to-end contention sequence: overlapping
// holds conflict, adjacent holds coexist, and expiry hands the interval on.
func TestBookingScenario(t *testing.T) {
	ctx := context.Background()
	svc, _, _, clk := newTestService(t)

	// Client A holds [09:00, 10:00).
	_, err := svc.CreateHold(ctx, CreateHoldRequest{
		RoomID: testRoom, OwnerID: "a",
		StartTime: slotTime(9, 0), EndTime: slotTime(10, 0),
	})
	require.NoError(t, err)

	// Client B tries [09:30, 10:30): overlap at 09:30-10:00.
	_, err = svc.CreateHold(ctx, CreateHoldRequest{
		RoomID: testRoom, OwnerID: "b",
		StartTime: slotTime(9, 30), EndTime: slotTime(10, 30),
	})
	require.ErrorIs(t, err, ErrSlotTaken)

	// Client B takes the adjacent [10:00, 10:30) instead.
	bHold, err := svc.CreateHold(ctx, CreateHoldRequest{
		RoomID: testRoom, OwnerID: "b",
		StartTime: slotTime(10, 0), EndTime: slotTime(10, 30),
	})
	require.NoError(t, err)

	// B confirms; A abandons the flow and the hold lapses.
	_, err = svc.Confirm(ctx, ConfirmRequest{ClaimID: bHold.ID, OwnerID: "b", Agenda: "retro", PartySize: 5})
	require.NoError(t, err)

	clk.Advance(31 * time.Second)

	// Client C can now take part of A's lapsed interval.
	_, err = svc.CreateHold(ctx, CreateHoldRequest{
		RoomID: testRoom, OwnerID: "c",
		StartTime: slotTime(9, 0), EndTime: slotTime(9, 30),
	})
	require.NoError(t, err)

	// B's confirmed booking is unaffected by the passage of hold TTLs.
	_, err = svc.CreateHold(ctx, CreateHoldRequest{
		RoomID: testRoom, OwnerID: "c",
		StartTime: slotTime(10, 0), EndTime: slotTime(10, 30),
	})
	require.ErrorIs(t, err, ErrSlotTaken)
}

func TestGetAvailability(t *testing.T) {
	ctx := context.Background()
	svc, repo, _, _ := newTestService(t)

	repo.seed(&Claim{
		RoomID: testRoom, OwnerID: "alice",
		StartTime: slotTime(9, 0), EndTime: slotTime(10, 0),
		Status: StatusConfirmed,
	})
	expiry := testNow.Add(30 * time.Second)
	repo.seed(&Claim{
		RoomID: testRoom, OwnerID: "bob",
		StartTime: slotTime(10, 0), EndTime: slotTime(10, 30),
		Status: StatusHeld, HoldExpiry: &expiry,
	})

	availability, err := svc.GetAvailability(ctx, testRoom)
	require.NoError(t, err)
	require.NotEmpty(t, availability)

	byStart := make(map[string]SlotStatus)
	for _, a := range availability {
		byStart[a.Slot.StartTime.Format("15:04")] = a.Status
	}

	require.Equal(t, SlotBooked, byStart["09:00"])
	require.Equal(t, SlotBooked, byStart["09:30"])
	require.Equal(t, SlotHeld, byStart["10:00"])
	require.Equal(t, SlotFree, byStart["10:30"])
}

func TestListSlotsUnknownRoom(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.ListSlots(context.Background(), "room-404")
	require.ErrorIs(t, err, ErrRoomNotFound)
}
