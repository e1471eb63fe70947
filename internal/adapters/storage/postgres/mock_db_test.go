package postgres

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// MockDB implements db.DBTX and records every statement it receives.
type MockDB struct {
	ExecFunc     func(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryFunc    func(ctx context.Context, sql string, arguments ...any) (pgx.Rows, error)
	QueryRowFunc func(ctx context.Context, sql string, arguments ...any) pgx.Row

	mu         sync.Mutex
	statements []string
}

func (m *MockDB) record(sql string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statements = append(m.statements, sql)
}

func (m *MockDB) Statements() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.statements...)
}

func (m *MockDB) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	m.record(sql)
	if m.ExecFunc != nil {
		return m.ExecFunc(ctx, sql, arguments...)
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (m *MockDB) Query(ctx context.Context, sql string, arguments ...any) (pgx.Rows, error) {
	m.record(sql)
	if m.QueryFunc != nil {
		return m.QueryFunc(ctx, sql, arguments...)
	}
	return rowsFrom(), nil
}

func (m *MockDB) QueryRow(ctx context.Context, sql string, arguments ...any) pgx.Row {
	m.record(sql)
	if m.QueryRowFunc != nil {
		return m.QueryRowFunc(ctx, sql, arguments...)
	}
	return &MockRow{err: pgx.ErrNoRows}
}

// MockRow implements pgx.Row. err is returned when ScanFunc is unset.
type MockRow struct {
	ScanFunc func(dest ...any) error
	err      error
}

func (m *MockRow) Scan(dest ...any) error {
	if m.ScanFunc != nil {
		return m.ScanFunc(dest...)
	}
	return m.err
}

// MockRows implements pgx.Rows over a fixed list of per-row scanners.
type MockRows struct {
	scanners []func(dest ...any) error
	pos      int
	closed   bool

	ErrFunc func() error
}

func rowsFrom(scanners ...func(dest ...any) error) *MockRows {
	return &MockRows{scanners: scanners}
}

func (m *MockRows) Next() bool {
	if m.closed || m.pos >= len(m.scanners) {
		m.closed = true
		return false
	}
	m.pos++
	return true
}

func (m *MockRows) Scan(dest ...any) error {
	return m.scanners[m.pos-1](dest...)
}

func (m *MockRows) Close() { m.closed = true }

func (m *MockRows) Err() error {
	if m.ErrFunc != nil {
		return m.ErrFunc()
	}
	return nil
}

func (m *MockRows) CommandTag() pgconn.CommandTag                { return pgconn.NewCommandTag("SELECT") }
func (m *MockRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (m *MockRows) Values() ([]any, error)                       { return nil, nil }
func (m *MockRows) RawValues() [][]byte                          { return nil }
func (m *MockRows) Conn() *pgx.Conn                              { return nil }
