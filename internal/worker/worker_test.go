package worker

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"allowance/internal/amqp"
	"allowance/internal/core"
	recmem "allowance/internal/records/memory"
	"allowance/internal/services"
	"allowance/internal/sheets"
	sheetmem "allowance/internal/sheets/memory"
)

type fixture struct {
	store  *recmem.Store
	ledger *sheetmem.Ledger
	worker *ActivityWorker
	badges *services.BadgeService
}

func newFixture(t *testing.T, withLedger bool) fixture {
	t.Helper()
	store := recmem.New()
	clock := func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	badges := services.NewBadgeService(store, services.WithClock(clock))

	f := fixture{store: store, badges: badges}
	if withLedger {
		f.ledger = sheetmem.New()
		f.worker = NewActivityWorker(badges, store, f.ledger, nil)
	} else {
		f.worker = NewActivityWorker(badges, store, nil, nil)
	}
	return f
}

func addIncome(t *testing.T, store *recmem.Store, id, date string) core.Transaction {
	t.Helper()
	tx := core.Transaction{
		ID: id, OwnerID: "kid", Type: core.Income, Amount: 5,
		Description: "chore", Date: core.MustParseDate(date),
	}
	require.NoError(t, store.InsertTransaction(context.Background(), tx))
	return tx
}

func TestHandleActivityAwardsBadgesAndMirrors(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	tx := addIncome(t, f.store, "t1", "2024-05-01")

	msg := amqp.NewActivityMessage("kid", amqp.TransactionCreated, tx.ID)
	require.NoError(t, f.worker.HandleActivity(ctx, msg))

	badges, err := f.store.ListBadges(ctx, "kid")
	require.NoError(t, err)
	// a lone chore month is also a saver month
	assert.ElementsMatch(t, []core.BadgeID{core.BadgeFirstChore, core.BadgeSaverMonth}, core.PersistedBadgeIDs(badges))

	rows := f.ledger.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "t1", rows[0].ID)

	// replaying the message changes nothing
	require.NoError(t, f.worker.HandleActivity(ctx, msg))
	badges, err = f.store.ListBadges(ctx, "kid")
	require.NoError(t, err)
	assert.Len(t, badges, 2)
	assert.Len(t, f.ledger.Rows(), 1)
}

func TestHandleActivityDelete(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	tx := addIncome(t, f.store, "t1", "2024-05-01")
	require.NoError(t, f.worker.HandleActivity(ctx, amqp.NewActivityMessage("kid", amqp.TransactionCreated, tx.ID)))

	require.NoError(t, f.store.DeleteTransaction(ctx, "kid", tx.ID))
	require.NoError(t, f.worker.HandleActivity(ctx, amqp.NewActivityMessage("kid", amqp.TransactionDeleted, tx.ID)))
	assert.Empty(t, f.ledger.Rows())

	// a second delete of a missing row is acknowledged
	require.NoError(t, f.worker.HandleActivity(ctx, amqp.NewActivityMessage("kid", amqp.TransactionDeleted, tx.ID)))
}

func TestHandleActivitySkipsVanishedTransaction(t *testing.T) {
	f := newFixture(t, true)
	msg := amqp.NewActivityMessage("kid", amqp.TransactionUpdated, "gone")
	require.NoError(t, f.worker.HandleActivity(context.Background(), msg))
	assert.Empty(t, f.ledger.Rows())
}

func TestHandleActivityGoalKindDoesNotMirror(t *testing.T) {
	f := newFixture(t, true)
	addIncome(t, f.store, "t1", "2024-05-01")
	msg := amqp.NewActivityMessage("kid", amqp.GoalCreated, "g1")
	require.NoError(t, f.worker.HandleActivity(context.Background(), msg))
	assert.Empty(t, f.ledger.Rows())
}

func TestHandleActivityWithoutLedger(t *testing.T) {
	f := newFixture(t, false)
	tx := addIncome(t, f.store, "t1", "2024-05-01")
	msg := amqp.NewActivityMessage("kid", amqp.TransactionCreated, tx.ID)
	require.NoError(t, f.worker.HandleActivity(context.Background(), msg))
}

type failingReconciler struct{ err error }

func (f failingReconciler) Reconcile(context.Context, string) ([]core.Badge, error) { return nil, f.err }
func (f failingReconciler) ReconcileAll(context.Context) (int, error)               { return 0, f.err }

func TestHandleActivityReconcileErrorRequeues(t *testing.T) {
	boom := errors.New("store down")
	w := NewActivityWorker(failingReconciler{err: boom}, recmem.New(), nil, nil)
	err := w.HandleActivity(context.Background(), amqp.NewActivityMessage("kid", amqp.TransactionCreated, "x"))
	assert.ErrorIs(t, err, boom)
}

type failingLedger struct{ err error }

func (f failingLedger) UpsertTransaction(context.Context, core.Transaction) (string, error) {
	return "", f.err
}
func (f failingLedger) DeleteTransaction(context.Context, string) error { return f.err }

func TestHandleActivityRejectedMirrorIsAcked(t *testing.T) {
	store := recmem.New()
	badges := services.NewBadgeService(store)
	ctx := context.Background()
	tx := addIncome(t, store, "t1", "2024-05-01")

	rejected := fmt.Errorf("%w: update 2024 Ledger!A2:F2: googleapi: Error 403: forbidden", sheets.ErrRejected)
	w := NewActivityWorker(badges, store, failingLedger{err: rejected}, nil)

	for _, kind := range []amqp.ActivityKind{amqp.TransactionCreated, amqp.TransactionDeleted} {
		require.NoError(t, w.HandleActivity(ctx, amqp.NewActivityMessage("kid", kind, tx.ID)))
	}

	awarded, err := store.ListBadges(ctx, "kid")
	require.NoError(t, err)
	assert.NotEmpty(t, awarded)
}

func TestHandleActivityTransientMirrorErrorRequeues(t *testing.T) {
	store := recmem.New()
	tx := addIncome(t, store, "t1", "2024-05-01")
	unavailable := errors.New("googleapi: Error 503: backend unavailable")
	w := NewActivityWorker(services.NewBadgeService(store), store, failingLedger{err: unavailable}, nil)

	err := w.HandleActivity(context.Background(), amqp.NewActivityMessage("kid", amqp.TransactionCreated, tx.ID))
	assert.ErrorIs(t, err, unavailable)
}

func TestSweeperRunOnce(t *testing.T) {
	f := newFixture(t, false)
	addIncome(t, f.store, "t1", "2024-05-01")
	addIncome(t, f.store, "t2", "2024-05-02")
	addIncome(t, f.store, "t3", "2024-05-03")

	s, err := NewSweeper(f.badges, "", nil)
	require.NoError(t, err)
	assert.True(t, s.LastRun().IsZero())

	// first chore and saver month
	assert.Equal(t, 2, s.RunOnce(context.Background()))
	assert.Equal(t, 0, s.RunOnce(context.Background()))
	assert.False(t, s.LastRun().IsZero())

	s.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}

func TestSweeperRejectsBadSchedule(t *testing.T) {
	_, err := NewSweeper(failingReconciler{}, "not a schedule", nil)
	assert.Error(t, err)
}
