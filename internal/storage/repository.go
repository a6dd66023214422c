// Package storage persists the ledger in SQLite. Amounts travel as
// decimal strings so no float ever touches the database.
package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"fintrack/internal/core"
)

//go:embed migrations/*.sql
var schemaFS embed.FS

// ErrNotFound is returned when a row does not exist or belongs to a
// different owner. Callers cannot distinguish the two cases.
var ErrNotFound = errors.New("not found")

// ReportSnapshot is one precomputed monthly report row, maintained by
// the report worker.
type ReportSnapshot struct {
	ID          int64
	OwnerID     int64
	Year        int
	Month       int
	Income      decimal.Decimal
	Expense     decimal.Decimal
	Balance     decimal.Decimal
	Entries     int
	GeneratedAt time.Time
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := migrateSchema(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

// migrateSchema applies the embedded migrations. It opens its own
// connection because the migrate driver closes whatever handle it is
// given, and the repository pool has to outlive it.
func migrateSchema(dbPath string) error {
	src, err := iofs.New(schemaFS, "migrations")
	if err != nil {
		return fmt.Errorf("load embedded migrations: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}

	driver, err := sqlite.WithInstance(conn, &sqlite.Config{})
	if err != nil {
		conn.Close()
		return fmt.Errorf("wrap migration connection: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		conn.Close()
		return fmt.Errorf("build migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) CreateUser(ctx context.Context, username, passwordHash string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash) VALUES (?, ?)`,
		username, passwordHash)
	if err != nil {
		return 0, fmt.Errorf("create user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("user insert id: %w", err)
	}

	slog.InfoContext(ctx, "User created", "id", id, "username", username)
	return id, nil
}

func (r *SQLiteRepository) GetUserByUsername(ctx context.Context, username string) (int64, string, error) {
	var (
		id   int64
		hash string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, password_hash FROM users WHERE username = ?`,
		username).Scan(&id, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, "", ErrNotFound
	}
	if err != nil {
		return 0, "", fmt.Errorf("get user: %w", err)
	}
	return id, hash, nil
}

func (r *SQLiteRepository) ListUserIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *SQLiteRepository) InsertTransaction(ctx context.Context, tx core.Transaction) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (user_id, kind, amount, category, description, date)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		tx.OwnerID, string(tx.Kind), tx.Amount.String(), tx.Category, tx.Description, tx.Date.ISO())
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("transaction insert id: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", id,
		"owner", tx.OwnerID,
		"kind", tx.Kind,
		"amount", tx.Amount.String(),
		"category", tx.Category)

	return id, nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, ownerID, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, kind, amount, category, description, date
		 FROM transactions WHERE id = ? AND user_id = ?`,
		id, ownerID)

	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return tx, nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, ownerID int64) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, kind, amount, category, description, date
		 FROM transactions WHERE user_id = ? ORDER BY date, id`,
		ownerID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, tx core.Transaction) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions
		 SET kind = ?, amount = ?, category = ?, description = ?, date = ?
		 WHERE id = ? AND user_id = ?`,
		string(tx.Kind), tx.Amount.String(), tx.Category, tx.Description, tx.Date.ISO(),
		tx.ID, tx.OwnerID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return requireRow(res, "update transaction")
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, ownerID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = ? AND user_id = ?`,
		id, ownerID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return requireRow(res, "delete transaction")
}

func (r *SQLiteRepository) UpsertBudget(ctx context.Context, b core.Budget) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO budgets (user_id, category, monthly_limit)
		 VALUES (?, ?, ?)
		 ON CONFLICT (user_id, category) DO UPDATE SET monthly_limit = excluded.monthly_limit
		 RETURNING id`,
		b.OwnerID, b.Category, b.Limit.String()).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert budget: %w", err)
	}

	slog.InfoContext(ctx, "Budget saved",
		"id", id, "owner", b.OwnerID, "category", b.Category, "limit", b.Limit.String())

	return id, nil
}

func (r *SQLiteRepository) ListBudgets(ctx context.Context, ownerID int64) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, category, monthly_limit
		 FROM budgets WHERE user_id = ? ORDER BY category`,
		ownerID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var budgets []core.Budget
	for rows.Next() {
		var (
			b     core.Budget
			limit string
		)
		if err := rows.Scan(&b.ID, &b.OwnerID, &b.Category, &limit); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		b.Limit, err = decimal.NewFromString(limit)
		if err != nil {
			return nil, fmt.Errorf("parse budget limit: %w", err)
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, ownerID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM budgets WHERE id = ? AND user_id = ?`,
		id, ownerID)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return requireRow(res, "delete budget")
}

func (r *SQLiteRepository) UpsertSnapshot(ctx context.Context, s ReportSnapshot) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO report_snapshots (user_id, year, month, income, expense, balance, entries, generated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (user_id, year, month) DO UPDATE SET
		   income = excluded.income,
		   expense = excluded.expense,
		   balance = excluded.balance,
		   entries = excluded.entries,
		   generated_at = CURRENT_TIMESTAMP`,
		s.OwnerID, s.Year, s.Month,
		s.Income.String(), s.Expense.String(), s.Balance.String(), s.Entries)
	if err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	return nil
}

// DeficitAlerted reports whether a deficit alert has already gone out
// for the given month. A missing snapshot row counts as not alerted.
func (r *SQLiteRepository) DeficitAlerted(ctx context.Context, ownerID int64, year, month int) (bool, error) {
	var alerted bool
	err := r.db.QueryRowContext(ctx,
		`SELECT deficit_alerted FROM report_snapshots
		 WHERE user_id = ? AND year = ? AND month = ?`,
		ownerID, year, month).Scan(&alerted)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get deficit alert state: %w", err)
	}
	return alerted, nil
}

// SetDeficitAlerted records or clears the alert marker for a month.
func (r *SQLiteRepository) SetDeficitAlerted(ctx context.Context, ownerID int64, year, month int, alerted bool) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE report_snapshots SET deficit_alerted = ?
		 WHERE user_id = ? AND year = ? AND month = ?`,
		alerted, ownerID, year, month)
	if err != nil {
		return fmt.Errorf("set deficit alert state: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListSnapshots(ctx context.Context, ownerID int64) ([]ReportSnapshot, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, year, month, income, expense, balance, entries, generated_at
		 FROM report_snapshots WHERE user_id = ? ORDER BY year, month`,
		ownerID)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []ReportSnapshot
	for rows.Next() {
		var (
			s                        ReportSnapshot
			income, expense, balance string
		)
		if err := rows.Scan(&s.ID, &s.OwnerID, &s.Year, &s.Month,
			&income, &expense, &balance, &s.Entries, &s.GeneratedAt); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		if s.Income, err = decimal.NewFromString(income); err != nil {
			return nil, fmt.Errorf("parse snapshot income: %w", err)
		}
		if s.Expense, err = decimal.NewFromString(expense); err != nil {
			return nil, fmt.Errorf("parse snapshot expense: %w", err)
		}
		if s.Balance, err = decimal.NewFromString(balance); err != nil {
			return nil, fmt.Errorf("parse snapshot balance: %w", err)
		}
		snaps = append(snaps, s)
	}
	return snaps, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		tx           core.Transaction
		kind, amount string
		date         string
	)
	if err := row.Scan(&tx.ID, &tx.OwnerID, &kind, &amount, &tx.Category, &tx.Description, &date); err != nil {
		return core.Transaction{}, err
	}

	tx.Kind = core.Kind(kind)

	var err error
	if tx.Amount, err = decimal.NewFromString(amount); err != nil {
		return core.Transaction{}, fmt.Errorf("parse amount: %w", err)
	}
	if tx.Date, err = core.ParseISO(date); err != nil {
		return core.Transaction{}, fmt.Errorf("parse date: %w", err)
	}
	return tx, nil
}

func requireRow(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
