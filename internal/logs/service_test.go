package logs

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockGorm(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, func()) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}

	gdb, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 db,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("gorm.Open: %v", err)
	}

	cleanup := func() { _ = db.Close() }
	return gdb, mock, cleanup
}

func insertArgs() []driver.Value {
	args := make([]driver.Value, 8)
	for i := range args {
		args[i] = sqlmock.AnyArg()
	}
	return args
}

func TestAuditService_Record(t *testing.T) {
	t.Run("with screen and metadata", func(t *testing.T) {
		db, mock, cleanup := newMockGorm(t)
		defer cleanup()

		as := &AuditService{DB: db}

		mock.ExpectQuery(`INSERT INTO "audit_logs"`).
			WithArgs(insertArgs()...).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

		op := ptrUint(7)
		err := as.Record(context.Background(), op, "screen_config.save", "booth-1", "saved", map[string]any{"screen_id": "s1"})
		if err != nil {
			t.Fatalf("expected nil err, got %v", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatalf("expectations: %v", err)
		}
	})

	t.Run("metadata marshal fails (ignored)", func(t *testing.T) {
		db, mock, cleanup := newMockGorm(t)
		defer cleanup()

		as := &AuditService{DB: db, Service: "screens"}

		mock.ExpectQuery(`INSERT INTO "audit_logs"`).
			WithArgs(insertArgs()...).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2))

		err := as.Record(context.Background(), nil, "screen_config.import", "", "imported", func() {})
		if err != nil {
			t.Fatalf("expected nil err, got %v", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatalf("expectations: %v", err)
		}
	})

	t.Run("insert error", func(t *testing.T) {
		db, mock, cleanup := newMockGorm(t)
		defer cleanup()

		as := &AuditService{DB: db}

		mock.ExpectQuery(`INSERT INTO "audit_logs"`).
			WillReturnError(errors.New("insert failed"))

		err := as.Record(context.Background(), nil, "screen_config.save", "booth-1", "saved", nil)
		if err == nil || err.Error() != "insert failed" {
			t.Fatalf("expected insert failed, got %v", err)
		}
	})
}

func TestAuditService_List_InvalidDateRange_ReturnsError(t *testing.T) {
	db, mock, cleanup := newMockGorm(t)
	defer cleanup()

	as := &AuditService{DB: db}

	start := "bad-date"
	_, _, _, _, err := as.List(context.Background(), AuditFilterInput{StartDate: &start})
	if !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestAuditService_List_CountError_ReturnsError(t *testing.T) {
	db, mock, cleanup := newMockGorm(t)
	defer cleanup()

	as := &AuditService{DB: db}

	mock.ExpectQuery(`SELECT count\(\*\)`).
		WillReturnError(errors.New("count failed"))

	_, _, _, _, err := as.List(context.Background(), AuditFilterInput{Page: 1, PageSize: 10})
	if err == nil || err.Error() != "count failed" {
		t.Fatalf("expected count failed, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestAuditService_List_HappyPath_WithAggregates(t *testing.T) {
	db, mock, cleanup := newMockGorm(t)
	defer cleanup()

	as := &AuditService{DB: db}

	mock.ExpectQuery(`SELECT count\(\*\) FROM "audit_logs" WHERE .*audit_logs\.action = .*audit_logs\.screens &&`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	cols := []string{"id", "level", "service", "operator_id", "action", "message", "screens", "metadata", "created_at"}
	now := time.Now()
	meta := `{"screen_id":"s1"}`

	mock.ExpectQuery(`SELECT \* FROM "audit_logs" WHERE .* ORDER BY audit_logs\.created_at DESC`).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(1, "info", "screens", 7, "screen_config.save", "saved", []byte(`{booth-1}`), meta, now).
			AddRow(2, "info", "screens", nil, "screen_config.save", "saved", []byte(`{booth-2}`), nil, now.Add(-time.Minute)))

	mock.ExpectQuery(`SELECT x\.action AS label, COUNT\(\*\) AS count FROM \(SELECT audit_logs\.action, audit_logs\.screens`).
		WillReturnRows(sqlmock.NewRows([]string{"label", "count"}).AddRow("screen_config.save", 3))

	mock.ExpectQuery(`JOIN LATERAL unnest\(x\.screens\) AS s ON TRUE`).
		WillReturnRows(sqlmock.NewRows([]string{"label", "count"}).
			AddRow("booth-1", 2).
			AddRow("booth-2", 1))

	action := " screen_config.save "
	rows, aggs, total, totalPages, err := as.List(context.Background(), AuditFilterInput{
		Action:   &action,
		Screens:  []string{"booth-1", "booth-2"},
		Page:     1,
		PageSize: 2,
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if total != 3 || totalPages != 2 {
		t.Fatalf("expected total=3 pages=2 got %d %d", total, totalPages)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows got %d", len(rows))
	}
	if rows[0].OperatorID == nil || *rows[0].OperatorID != 7 {
		t.Fatalf("unexpected operator on first row: %#v", rows[0].OperatorID)
	}
	if len(rows[0].Screens) != 1 || rows[0].Screens[0] != "booth-1" {
		t.Fatalf("unexpected screens: %#v", rows[0].Screens)
	}
	if len(aggs.ByAction) != 1 || aggs.ByAction[0].Count != 3 {
		t.Fatalf("unexpected ByAction: %#v", aggs.ByAction)
	}
	if len(aggs.ByScreen) != 2 || aggs.ByScreen[0].Label != "booth-1" {
		t.Fatalf("unexpected ByScreen: %#v", aggs.ByScreen)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestAuditService_List_EmptyAggregatesAreNotNil(t *testing.T) {
	db, mock, cleanup := newMockGorm(t)
	defer cleanup()

	as := &AuditService{DB: db}

	mock.ExpectQuery(`SELECT count\(\*\)`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`SELECT \* FROM "audit_logs"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`x\.action AS label`).
		WillReturnRows(sqlmock.NewRows([]string{"label", "count"}))
	mock.ExpectQuery(`unnest`).
		WillReturnRows(sqlmock.NewRows([]string{"label", "count"}))

	_, aggs, total, totalPages, err := as.List(context.Background(), AuditFilterInput{})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if total != 0 || totalPages != 1 {
		t.Fatalf("expected total=0 pages=1 got %d %d", total, totalPages)
	}
	if aggs.ByAction == nil || aggs.ByScreen == nil {
		t.Fatalf("expected empty slices, got %#v", aggs)
	}
}

func ptrStr(s string) *string { return &s }
func ptrUint(u uint) *uint    { return &u }
