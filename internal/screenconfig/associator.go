package screenconfig

import (
	"context"
	"time"
)

// EventAssociator links saved screens to the active event.
type EventAssociator struct {
	Store  Store
	Events ActiveEventSource
	Now    func() time.Time
}

// Associate upserts the (event, screen) link. Repeating it for the same pair
// only refreshes last_active_at. No active event is not an error.
func (a *EventAssociator) Associate(ctx context.Context, screenID string) error {
	if a == nil || a.Events == nil {
		return nil
	}
	eventID, ok, err := a.Events.ActiveEventID(ctx)
	if err != nil {
		return &AssociationError{ScreenID: screenID, Err: err}
	}
	if !ok {
		return nil
	}

	now := time.Now()
	if a.Now != nil {
		now = a.Now()
	}
	link := &EventScreen{
		EventID:      eventID,
		ScreenID:     screenID,
		LastActiveAt: now.UTC(),
		CreatedAt:    now.UTC(),
	}
	if err := a.Store.UpsertEventScreen(ctx, link); err != nil {
		return &AssociationError{EventID: eventID, ScreenID: screenID, Err: err}
	}
	return nil
}
