package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Skotchmaster/recommend_shop/internal/db/dbtest"
	"github.com/Skotchmaster/recommend_shop/internal/repo"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock { return &clock{now: time.Now().UTC()} }

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordedEvent struct {
	Topic string
	Key   string
	Event UserEvent
}

type eventRecorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *eventRecorder) PublishEvent(_ context.Context, topic, key string, event any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{Topic: topic, Key: key, Event: event.(UserEvent)})
	return nil
}

func (r *eventRecorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Event.Type)
	}
	return out
}

type fixture struct {
	Repo   *repo.GormRepo
	Clock  *clock
	Events *eventRecorder
	Auth   *AuthService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	r := repo.NewGormRepo(dbtest.Open(t))
	clk := newClock()
	ev := &eventRecorder{}

	creds := &CredentialStore{Users: r, Now: clk.Now, ResetTTL: time.Hour}
	issuer := &TokenIssuer{
		Tokens:     r,
		Users:      r,
		JWTSecret:  []byte("test-jwt-secret"),
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
		Now:        clk.Now,
	}
	return &fixture{
		Repo:   r,
		Clock:  clk,
		Events: ev,
		Auth: &AuthService{
			Credentials:     creds,
			Tokens:          issuer,
			Events:          ev,
			UserEventsTopic: "user_events",
		},
	}
}
