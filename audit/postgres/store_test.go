package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/MrEthical07/authcore/internal/audit"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return NewWithDB(db), mock
}

func TestInsertManyBulk(t *testing.T) {
	s, mock := newMockStore(t)

	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	events := []audit.Event{
		{ID: "01A", Timestamp: ts, EventType: audit.EventLoginSuccess, Severity: audit.SeverityLow,
			SubjectID: "u1", Action: "login", IPAddress: "1.2.3.4"},
		{ID: "01B", Timestamp: ts, EventType: audit.EventRefreshReuse, Severity: audit.SeverityCritical,
			SubjectID: "u1", Action: "refresh", Details: map[string]string{"family_id": "f1"}},
	}

	mock.ExpectExec(`insert into audit_events`).
		WithArgs(
			"01A", ts, audit.EventLoginSuccess, "low", "u1", nil, "login", []byte(nil), "1.2.3.4", nil,
			"01B", ts, audit.EventRefreshReuse, "critical", "u1", nil, "refresh", []byte(`{"family_id":"f1"}`), nil, nil,
		).
		WillReturnResult(sqlmock.NewResult(0, 2))

	if err := s.InsertMany(context.Background(), events); err != nil {
		t.Fatalf("InsertMany failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestInsertManyEmptyBatchNoop(t *testing.T) {
	s, mock := newMockStore(t)

	if err := s.InsertMany(context.Background(), nil); err != nil {
		t.Fatalf("InsertMany failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestQueryBuildsFilters(t *testing.T) {
	s, mock := newMockStore(t)

	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "ts", "event_type", "severity", "subject_id", "resource",
		"action", "details", "ip_address", "user_agent",
	}).AddRow("01A", ts, audit.EventLoginFailed, "medium", "u1", nil, "login",
		[]byte(`{"reason":"bad credentials"}`), "1.2.3.4", "curl")

	mock.ExpectQuery(`select .* from audit_events where subject_id = \$1 and event_type = \$2 and ts >= \$3 order by ts desc, id desc limit \$4 offset \$5`).
		WithArgs("u1", audit.EventLoginFailed, ts.Add(-time.Hour), 10, 20).
		WillReturnRows(rows)

	got, err := s.Query(context.Background(), audit.Filter{
		SubjectID: "u1",
		EventType: audit.EventLoginFailed,
		Since:     ts.Add(-time.Hour),
	}, audit.Page{Limit: 10, Offset: 20})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}

	if len(got) != 1 {
		t.Fatalf("got %d events, want 1", len(got))
	}
	e := got[0]
	if e.ID != "01A" || e.Severity != audit.SeverityMedium || e.SubjectID != "u1" {
		t.Fatalf("unexpected event: %+v", e)
	}
	if e.Details["reason"] != "bad credentials" {
		t.Fatalf("details not decoded: %+v", e.Details)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestQueryDefaultsLimit(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`select .* from audit_events order by ts desc, id desc limit \$1`).
		WithArgs(100).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "ts", "event_type", "severity", "subject_id", "resource",
			"action", "details", "ip_address", "user_agent",
		}))

	got, err := s.Query(context.Background(), audit.Filter{}, audit.Page{})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("got %d events, want 0", len(got))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
