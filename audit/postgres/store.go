package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/MrEthical07/authcore/internal/audit"
)

// Store persists audit events in a single audit_events table. Provisioning
// the table is the host application's concern:
//
//	CREATE TABLE audit_events (
//	    id         text PRIMARY KEY,
//	    ts         timestamptz NOT NULL,
//	    event_type text NOT NULL,
//	    severity   text NOT NULL,
//	    subject_id text,
//	    resource   text,
//	    action     text NOT NULL,
//	    details    jsonb,
//	    ip_address text,
//	    user_agent text
//	);
type Store struct {
	db *sql.DB
}

var _ audit.Store = (*Store)(nil)

// Open connects via the pgx stdlib driver with pool defaults tuned for a
// background writer plus an occasional admin query.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

// NewWithDB wraps an existing database handle. Used by tests and embedders
// that manage their own pool.
func NewWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close releases the connection pool.
func (s *Store) Close() error { return s.db.Close() }

// InsertMany bulk-inserts a batch in one statement.
func (s *Store) InsertMany(ctx context.Context, events []audit.Event) error {
	if len(events) == 0 {
		return nil
	}

	var (
		sb   strings.Builder
		args = make([]any, 0, len(events)*10)
	)
	sb.WriteString(`insert into audit_events
		(id, ts, event_type, severity, subject_id, resource, action, details, ip_address, user_agent)
		values `)

	for i, e := range events {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * 10
		sb.WriteString("(")
		for j := 1; j <= 10; j++ {
			if j > 1 {
				sb.WriteString(", ")
			}
			sb.WriteString("$" + strconv.Itoa(base+j))
		}
		sb.WriteString(")")

		var details []byte
		if len(e.Details) > 0 {
			var err error
			details, err = json.Marshal(e.Details)
			if err != nil {
				return fmt.Errorf("marshal details: %w", err)
			}
		}

		args = append(args,
			e.ID,
			e.Timestamp,
			e.EventType,
			e.Severity.String(),
			nullIfEmpty(e.SubjectID),
			nullIfEmpty(e.Resource),
			e.Action,
			details,
			nullIfEmpty(e.IPAddress),
			nullIfEmpty(e.UserAgent),
		)
	}

	if _, err := s.db.ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("audit insert: %w", err)
	}
	return nil
}

// Query returns events matching the filter, newest first.
func (s *Store) Query(ctx context.Context, filter audit.Filter, page audit.Page) ([]audit.Event, error) {
	var (
		sb    strings.Builder
		args  []any
		conds []string
	)
	sb.WriteString(`select id, ts, event_type, severity, subject_id, resource, action, details, ip_address, user_agent
		from audit_events`)

	addCond := func(expr string, value any) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf(expr, len(args)))
	}

	if filter.SubjectID != "" {
		addCond("subject_id = $%d", filter.SubjectID)
	}
	if filter.EventType != "" {
		addCond("event_type = $%d", filter.EventType)
	}
	if filter.Severity != nil {
		addCond("severity = $%d", filter.Severity.String())
	}
	if !filter.Since.IsZero() {
		addCond("ts >= $%d", filter.Since)
	}
	if !filter.Until.IsZero() {
		addCond("ts <= $%d", filter.Until)
	}

	if len(conds) > 0 {
		sb.WriteString(" where ")
		sb.WriteString(strings.Join(conds, " and "))
	}
	sb.WriteString(" order by ts desc, id desc")

	limit := page.Limit
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	args = append(args, limit)
	sb.WriteString(" limit $" + strconv.Itoa(len(args)))
	if page.Offset > 0 {
		args = append(args, page.Offset)
		sb.WriteString(" offset $" + strconv.Itoa(len(args)))
	}

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("audit query: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var (
			e        audit.Event
			severity string
			subject  sql.NullString
			resource sql.NullString
			details  []byte
			ip       sql.NullString
			ua       sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.EventType, &severity,
			&subject, &resource, &e.Action, &details, &ip, &ua); err != nil {
			return nil, fmt.Errorf("audit scan: %w", err)
		}

		e.Severity = parseSeverity(severity)
		e.SubjectID = subject.String
		e.Resource = resource.String
		e.IPAddress = ip.String
		e.UserAgent = ua.String
		if len(details) > 0 {
			if err := json.Unmarshal(details, &e.Details); err != nil {
				return nil, fmt.Errorf("audit details decode: %w", err)
			}
		}

		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("audit rows: %w", err)
	}

	return events, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func parseSeverity(s string) audit.Severity {
	switch s {
	case "medium":
		return audit.SeverityMedium
	case "critical":
		return audit.SeverityCritical
	default:
		return audit.SeverityLow
	}
}
