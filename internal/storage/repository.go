package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"emipilot/internal/core"

	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

// Dialect names a supported SQL database. Its value is also the migrations
// sub-directory.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

func (d Dialect) driverName() string {
	return string(d)
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (d Dialect) rebind(query string) string {
	if d != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// timeArg converts t to the value stored in timestamp columns. SQLite keeps
// RFC 3339 text so values sort and parse unambiguously.
func (d Dialect) timeArg(t time.Time) interface{} {
	t = t.UTC().Truncate(time.Microsecond)
	if d == DialectSQLite {
		return t.Format(time.RFC3339Nano)
	}
	return t
}

const (
	emiColumns = "id, name, monthly_amount, due_date, loan_type, tenure, created_at"

	listEMIsQuery  = "SELECT " + emiColumns + " FROM emis ORDER BY due_date ASC, id ASC"
	getEMIQuery    = "SELECT " + emiColumns + " FROM emis WHERE id = ?"
	createEMIQuery = `INSERT INTO emis (name, monthly_amount, due_date, loan_type, tenure, created_at)
VALUES (?, ?, ?, ?, ?, ?) RETURNING id`
	updateEMIQuery = `UPDATE emis SET name = ?, monthly_amount = ?, due_date = ?, loan_type = ?, tenure = ?
WHERE id = ?`
	deleteEMIQuery = "DELETE FROM emis WHERE id = ?"

	getIncomeQuery    = "SELECT instance, monthly_income, updated_at FROM user_income WHERE instance = ?"
	ensureIncomeQuery = `INSERT INTO user_income (instance, monthly_income, updated_at)
VALUES (?, ?, ?) ON CONFLICT (instance) DO NOTHING`
	saveIncomeQuery = `INSERT INTO user_income (instance, monthly_income, updated_at)
VALUES (?, ?, ?)
ON CONFLICT (instance) DO UPDATE SET monthly_income = excluded.monthly_income, updated_at = excluded.updated_at`
)

// SQLRepository implements Store on database/sql for SQLite and PostgreSQL.
type SQLRepository struct {
	db      *sql.DB
	dialect Dialect
}

var _ Store = (*SQLRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open(DialectSQLite.driverName(), dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time.
	db.SetMaxOpenConns(1)

	return openRepository(db, DialectSQLite, dbPath)
}

func NewPostgresRepository(dsn string) (*SQLRepository, error) {
	db, err := sql.Open(DialectPostgres.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	return openRepository(db, DialectPostgres, dsn)
}

func openRepository(db *sql.DB, d Dialect, dsn string) (*SQLRepository, error) {
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(d, dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLRepository{db: db, dialect: d}, nil
}

func (r *SQLRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *SQLRepository) scanEMI(row rowScanner) (core.EMI, error) {
	var (
		e         core.EMI
		loanType  sql.NullString
		tenure    sql.NullInt64
		createdAt interface{}
	)
	if err := row.Scan(&e.ID, &e.Name, &e.MonthlyAmount, &e.DueDate, &loanType, &tenure, &createdAt); err != nil {
		return core.EMI{}, err
	}
	if loanType.Valid {
		v := loanType.String
		e.LoanType = &v
	}
	if tenure.Valid {
		v := int(tenure.Int64)
		e.Tenure = &v
	}
	t, err := parseTime(createdAt)
	if err != nil {
		return core.EMI{}, fmt.Errorf("parse created_at: %w", err)
	}
	e.CreatedAt = t
	return e, nil
}

func (r *SQLRepository) ListEMIs(ctx context.Context) ([]core.EMI, error) {
	rows, err := r.db.QueryContext(ctx, r.dialect.rebind(listEMIsQuery))
	if err != nil {
		return nil, fmt.Errorf("list emis: %w", err)
	}
	defer rows.Close()

	emis := []core.EMI{}
	for rows.Next() {
		e, err := r.scanEMI(rows)
		if err != nil {
			return nil, fmt.Errorf("scan emi: %w", err)
		}
		emis = append(emis, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list emis: %w", err)
	}
	return emis, nil
}

func (r *SQLRepository) GetEMI(ctx context.Context, id int64) (core.EMI, error) {
	row := r.db.QueryRowContext(ctx, r.dialect.rebind(getEMIQuery), id)
	e, err := r.scanEMI(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.EMI{}, fmt.Errorf("get emi %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.EMI{}, fmt.Errorf("get emi %d: %w", id, err)
	}
	return e, nil
}

func (r *SQLRepository) CreateEMI(ctx context.Context, e core.EMI) (core.EMI, error) {
	e.CreatedAt = e.CreatedAt.UTC().Truncate(time.Microsecond)

	err := r.db.QueryRowContext(ctx, r.dialect.rebind(createEMIQuery),
		e.Name,
		e.MonthlyAmount.String(),
		e.DueDate,
		nullString(e.LoanType),
		nullInt(e.Tenure),
		r.dialect.timeArg(e.CreatedAt),
	).Scan(&e.ID)
	if err != nil {
		return core.EMI{}, fmt.Errorf("create emi: %w", err)
	}

	slog.DebugContext(ctx, "EMI stored", "emi_id", e.ID, "dialect", r.dialect)
	return e, nil
}

func (r *SQLRepository) UpdateEMI(ctx context.Context, e core.EMI) (core.EMI, error) {
	res, err := r.db.ExecContext(ctx, r.dialect.rebind(updateEMIQuery),
		e.Name,
		e.MonthlyAmount.String(),
		e.DueDate,
		nullString(e.LoanType),
		nullInt(e.Tenure),
		e.ID,
	)
	if err != nil {
		return core.EMI{}, fmt.Errorf("update emi %d: %w", e.ID, err)
	}
	if err := requireAffected(res); err != nil {
		return core.EMI{}, fmt.Errorf("update emi %d: %w", e.ID, err)
	}
	return r.GetEMI(ctx, e.ID)
}

func (r *SQLRepository) DeleteEMI(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, r.dialect.rebind(deleteEMIQuery), id)
	if err != nil {
		return fmt.Errorf("delete emi %d: %w", id, err)
	}
	if err := requireAffected(res); err != nil {
		return fmt.Errorf("delete emi %d: %w", id, err)
	}
	return nil
}

func (r *SQLRepository) GetIncome(ctx context.Context, instance string) (core.Income, error) {
	var (
		inc       core.Income
		updatedAt interface{}
	)
	err := r.db.QueryRowContext(ctx, r.dialect.rebind(getIncomeQuery), instance).
		Scan(&inc.Instance, &inc.MonthlyIncome, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Income{}, fmt.Errorf("get income %q: %w", instance, core.ErrNotFound)
	}
	if err != nil {
		return core.Income{}, fmt.Errorf("get income %q: %w", instance, err)
	}

	t, err := parseTime(updatedAt)
	if err != nil {
		return core.Income{}, fmt.Errorf("parse updated_at: %w", err)
	}
	inc.UpdatedAt = t
	return inc, nil
}

func (r *SQLRepository) GetOrCreateIncome(ctx context.Context, instance string, now time.Time) (core.Income, error) {
	_, err := r.db.ExecContext(ctx, r.dialect.rebind(ensureIncomeQuery),
		instance, decimal.Zero.String(), r.dialect.timeArg(now))
	if err != nil {
		return core.Income{}, fmt.Errorf("ensure income %q: %w", instance, err)
	}
	return r.GetIncome(ctx, instance)
}

func (r *SQLRepository) SaveIncome(ctx context.Context, inc core.Income) (core.Income, error) {
	_, err := r.db.ExecContext(ctx, r.dialect.rebind(saveIncomeQuery),
		inc.Instance, inc.MonthlyIncome.String(), r.dialect.timeArg(inc.UpdatedAt))
	if err != nil {
		return core.Income{}, fmt.Errorf("save income %q: %w", inc.Instance, err)
	}
	return r.GetIncome(ctx, inc.Instance)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt(i *int) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*i), Valid: true}
}

// parseTime accepts the representations drivers return for timestamp
// columns.
func parseTime(v interface{}) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), nil
	case string:
		return parseTimeString(t)
	case []byte:
		return parseTimeString(string(t))
	default:
		return time.Time{}, fmt.Errorf("unsupported time value %T", v)
	}
}

func parseTimeString(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999999-07:00", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised time %q", s)
}
