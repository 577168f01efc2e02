package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"allowance/internal/amqp"
	"allowance/internal/core"
)

// Session carries the owner every service call acts for. Handlers build it
// from the request and pass it explicitly.
type Session struct {
	OwnerID string
}

func NewSession(ownerID string) (Session, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return Session{}, core.ErrEmptyOwner
	}
	return Session{OwnerID: ownerID}, nil
}

// ActivityPublisher is satisfied by *amqp.Client.
type ActivityPublisher interface {
	PublishActivity(ctx context.Context, msg *amqp.ActivityMessage) error
}

// deps holds what every service shares: clock, id source, event sink.
type deps struct {
	publisher ActivityPublisher
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string
}

func newDeps(publisher ActivityPublisher, logger *slog.Logger) deps {
	if logger == nil {
		logger = slog.Default()
	}
	return deps{
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// notify publishes an activity message. Failures are logged and swallowed:
// the write has already been stored.
func (d deps) notify(ctx context.Context, ownerID string, kind amqp.ActivityKind, recordID string) {
	if d.publisher == nil {
		return
	}
	msg := amqp.NewActivityMessage(ownerID, kind, recordID)
	if err := d.publisher.PublishActivity(ctx, msg); err != nil {
		d.logger.ErrorContext(ctx, "Failed to publish activity message",
			"owner_id", ownerID,
			"kind", kind,
			"record_id", recordID,
			"error", err)
	}
}

// Option overrides a shared dependency.
type Option func(*deps)

func WithClock(now func() time.Time) Option {
	return func(d *deps) { d.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(d *deps) { d.newID = newID }
}

func WithPublisher(p ActivityPublisher) Option {
	return func(d *deps) { d.publisher = p }
}

func WithLogger(l *slog.Logger) Option {
	return func(d *deps) {
		if l != nil {
			d.logger = l
		}
	}
}

func applyOptions(opts []Option) deps {
	d := newDeps(nil, nil)
	for _, opt := range opts {
		opt(&d)
	}
	return d
}
