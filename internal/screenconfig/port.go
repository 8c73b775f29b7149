package screenconfig

import (
	"context"
	"time"
)

// Store is the data-store collaborator. Read returns ErrNotFound for a
// missing row; every other error is a store failure.
type Store interface {
	Read(ctx context.Context, id string) (*ScreenConfigRow, error)
	Upsert(ctx context.Context, row *ScreenConfigRow) error
	ListByScreenKeys(ctx context.Context, keys []string) ([]ScreenConfigRow, error)
	List(ctx context.Context) ([]ScreenConfigRow, error)
	UpsertEventScreen(ctx context.Context, link *EventScreen) error
}

// ActiveEventSource reports the event screens are currently being set up for.
type ActiveEventSource interface {
	ActiveEventID(ctx context.Context) (string, bool, error)
}

// Notifier is told about every successful save.
type Notifier interface {
	ConfigSaved(ctx context.Context, cfg *ScreenConfig) error
}

// Archiver keeps a copy of an exported document and returns where it went.
type Archiver interface {
	Archive(ctx context.Context, screenKey string, doc []byte) (string, error)
	List(ctx context.Context, screenKey string) ([]string, error)
}

// Auditor records operator actions.
type Auditor interface {
	Record(ctx context.Context, operatorID *uint, action, screenKey, message string, metadata any) error
}

type ScreenConfigServiceAPI interface {
	Screens(ctx context.Context) []ScreenSummary
	Get(ctx context.Context, screenKey string) (*ScreenView, error)
	Update(ctx context.Context, screenKey string, path, value any) (*ScreenView, error)
	Save(ctx context.Context, screenKey string, operatorID *uint) (*ScreenView, error)
	Export(ctx context.Context, screenKey string) ([]byte, error)
	ArchiveExport(ctx context.Context, screenKey string, operatorID *uint) (string, error)
	Archives(ctx context.Context, screenKey string) ([]string, error)
	Import(ctx context.Context, screenKey string, doc any, operatorID *uint) (*ScreenView, error)
	CloseSession(screenKey string) bool
	Report(ctx context.Context) ([]byte, error)
	GetIfModified(ctx context.Context, screenKey string, since *time.Time) (*TerminalConfigResult, error)
}
