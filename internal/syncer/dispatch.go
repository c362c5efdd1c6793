package syncer

import (
	"context"
	"errors"
	"fmt"
	"log"

	"taskdeck/internal/models"
	"taskdeck/internal/store"
)

// ErrNoTargetDate means a task cannot become a calendar event.
var ErrNoTargetDate = errors.New("task has no target date")

// Dispatcher formats tasks and drives the transport, recording per-task sync
// flags in the store. Success is inferred purely from the transport call not
// failing; there is no retry policy, retries are manual.
type Dispatcher struct {
	store     *store.Store
	transport Transport
}

// New creates a dispatcher over a store and a transport.
func New(s *store.Store, t Transport) *Dispatcher {
	return &Dispatcher{store: s, transport: t}
}

// SyncSheet pushes the given tasks as one batch of rows and marks them
// sheet-synced on success.
func (d *Dispatcher) SyncSheet(ctx context.Context, ids ...string) error {
	tasks := make([]models.Task, 0, len(ids))
	for _, id := range ids {
		t, err := d.store.Get(id)
		if err != nil {
			return err
		}
		tasks = append(tasks, t)
	}
	if len(tasks) == 0 {
		return nil
	}

	rows := make([][]string, len(tasks))
	for i, t := range tasks {
		rows[i] = SheetRow(t)
	}
	if err := d.transport.Dispatch(ctx, SheetPayload{Action: "sheet", Rows: rows}); err != nil {
		return err
	}
	for _, t := range tasks {
		if _, err := d.store.MarkSynced(t.ID, true, false); err != nil {
			return fmt.Errorf("mark synced: %w", err)
		}
	}
	return nil
}

// SyncSheetAll pushes every task not yet sheet-synced.
func (d *Dispatcher) SyncSheetAll(ctx context.Context) (int, error) {
	var ids []string
	for _, t := range d.store.List() {
		if !t.SyncedSheet {
			ids = append(ids, t.ID)
		}
	}
	if len(ids) == 0 {
		return 0, nil
	}
	if err := d.SyncSheet(ctx, ids...); err != nil {
		return 0, err
	}
	return len(ids), nil
}

// SyncCalendar pushes one task as a calendar event and marks it
// calendar-synced on success. The task must have a target date.
func (d *Dispatcher) SyncCalendar(ctx context.Context, id string) error {
	t, err := d.store.Get(id)
	if err != nil {
		return err
	}
	if t.TargetDate == "" {
		return ErrNoTargetDate
	}
	payload := CalendarPayload{
		Action:      "calendar",
		Title:       EventTitle(t),
		Date:        t.TargetDate,
		Description: EventDescription(t),
	}
	if err := d.transport.Dispatch(ctx, payload); err != nil {
		return err
	}
	if _, err := d.store.MarkSynced(t.ID, false, true); err != nil {
		return fmt.Errorf("mark synced: %w", err)
	}
	return nil
}

// AutoSyncSheet is the silent after-create path: a failure is logged and
// swallowed, leaving the flag false so a later manual sync can retry.
func (d *Dispatcher) AutoSyncSheet(ctx context.Context, id string) {
	if err := d.SyncSheet(ctx, id); err != nil {
		log.Printf("auto sheet sync for %s failed (will retry on manual sync): %v", id, err)
	}
}
