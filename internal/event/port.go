package event

import (
	"context"

	"photobooth-admin-api/internal/screenconfig"
)

type EventServiceAPI interface {
	List(ctx context.Context) ([]Event, error)
	Create(ctx context.Context, input CreateEventInput) (*Event, error)
	Activate(ctx context.Context, id string) (*Event, error)
	Deactivate(ctx context.Context) error
	Screens(ctx context.Context, id string) ([]screenconfig.EventScreen, error)
}
