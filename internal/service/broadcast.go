package service

import (
	"context"
	"slices"
	"sync"

	"github.com/msomdec/clinic-booking/internal/domain"
	"github.com/msomdec/clinic-booking/internal/store"
)

type ScopeKind int

const (
	// ScopeSelf is the active identity's own appointments: booked by the
	// user, or for a doctor account, booked with that doctor.
	ScopeSelf ScopeKind = iota
	// ScopeAll is every appointment.
	ScopeAll
)

// Scope selects the read model a subscriber sees.
type Scope struct {
	Kind ScopeKind
	User domain.User
}

func SelfScope(user domain.User) Scope { return Scope{Kind: ScopeSelf, User: user} }

func AllScope() Scope { return Scope{Kind: ScopeAll} }

// ViewState is the data every read model is computed from. Users is optional;
// when present it refreshes the identity of ScopeSelf subscribers so a
// renamed doctor account keeps matching the right profile.
type ViewState struct {
	Users        []domain.User
	Doctors      []domain.Doctor
	Appointments []domain.Appointment
}

// Broadcaster republishes appointment views to subscribers whenever the
// underlying state changes. A new subscriber immediately receives the view of
// the latest published state.
type Broadcaster struct {
	mu    sync.Mutex
	state ViewState
	subs  map[*Subscription]struct{}
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[*Subscription]struct{})}
}

// Attach republishes every commit of st. It also publishes st's current
// state right away.
func (b *Broadcaster) Attach(st *store.Store) {
	st.OnCommit(func(snap *domain.Snapshot) {
		b.Publish(ViewState{Users: snap.Users, Doctors: snap.Doctors, Appointments: snap.Appointments})
	})
}

// Publish replaces the current state and pushes the recomputed view to every
// subscriber. It never blocks on a slow subscriber: each one only keeps the
// newest undelivered view. The slices in state must not be modified later.
func (b *Broadcaster) Publish(state ViewState) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.state = state
	for sub := range b.subs {
		sub.deliver(b.viewLocked(sub.scope))
	}
}

// Current returns the view for scope computed from the latest state.
func (b *Broadcaster) Current(scope Scope) []domain.Appointment {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.viewLocked(scope)
}

// Subscribe registers a subscriber for scope and replays the current view to
// it. Subscribing has no effect on the published state, so subscribing again
// is harmless. The subscription ends when ctx is done or Close is called.
func (b *Broadcaster) Subscribe(ctx context.Context, scope Scope) *Subscription {
	sub := &Subscription{
		scope: scope,
		ch:    make(chan []domain.Appointment, 1),
		b:     b,
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[sub] = struct{}{}
	sub.deliver(b.viewLocked(scope))
	sub.stop = context.AfterFunc(ctx, sub.Close)
	return sub
}

// Subscribers reports the number of live subscriptions.
func (b *Broadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

func (b *Broadcaster) viewLocked(scope Scope) []domain.Appointment {
	var view []domain.Appointment

	switch scope.Kind {
	case ScopeAll:
		view = slices.Clone(b.state.Appointments)
	case ScopeSelf:
		user := scope.User
		if i := slices.IndexFunc(b.state.Users, func(u domain.User) bool { return u.ID == user.ID }); i >= 0 {
			user = b.state.Users[i]
		}
		if user.Role == domain.RoleDoctor {
			view = AppointmentsForDoctor(user, b.state.Doctors, b.state.Appointments)
		} else {
			for _, a := range b.state.Appointments {
				if a.UserID == user.ID {
					view = append(view, a)
				}
			}
		}
	}

	if view == nil {
		view = []domain.Appointment{}
	}
	sortNewestFirst(view)
	return view
}

// Subscription receives successive views of one scope.
type Subscription struct {
	scope  Scope
	ch     chan []domain.Appointment
	b      *Broadcaster
	stop   func() bool
	closed bool
}

// Updates yields each new view. It is closed when the subscription ends.
func (s *Subscription) Updates() <-chan []domain.Appointment {
	return s.ch
}

func (s *Subscription) Close() {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	delete(s.b.subs, s)
	close(s.ch)
	if s.stop != nil {
		s.stop()
	}
}

// deliver replaces any unread view with v. Callers hold the broadcaster lock,
// which makes the drain-then-send pair safe.
func (s *Subscription) deliver(v []domain.Appointment) {
	if s.closed {
		return
	}
	select {
	case <-s.ch:
	default:
	}
	s.ch <- v
}
