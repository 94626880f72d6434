package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"marina/internal/account/models"
	id "marina/pkg/domain"
	"marina/pkg/platform/sentinel"
	txcontext "marina/pkg/platform/tx"
)

// Postgres persists accounts in PostgreSQL. This store is pure I/O — all
// domain logic (transition checks, stamping) belongs in the models and
// services; Execute only provides the lock that keeps them atomic.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed account store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const pgUniqueViolation = "23505"

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Postgres) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const accountColumns = `id, email, display_name, role, status, email_verified, password_hash, created_at, updated_at`

// CreateIfEmailAvailable inserts the account, translating the unique index
// on lower(email) into ErrAlreadyUsed.
func (s *Postgres) CreateIfEmailAvailable(ctx context.Context, account *models.Account) error {
	query := `
		INSERT INTO accounts (id, email, display_name, role, status, email_verified, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(account.ID),
		account.Email,
		account.DisplayName,
		string(account.Role),
		string(account.Status),
		account.EmailVerified,
		account.PasswordHash,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// FindByID loads an account or returns ErrNotFound.
func (s *Postgres) FindByID(ctx context.Context, accountID id.AccountID) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	account, err := scanAccount(s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(accountID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find account by id: %w", err)
	}
	return account, nil
}

// FindByEmail loads an account by case-insensitive email or returns ErrNotFound.
func (s *Postgres) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE lower(email) = lower($1)`
	account, err := scanAccount(s.execer(ctx).QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find account by email: %w", err)
	}
	return account, nil
}

// ExistsByID reports whether the account row is present.
func (s *Postgres) ExistsByID(ctx context.Context, accountID id.AccountID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM accounts WHERE id = $1)`
	if err := s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(accountID)).Scan(&exists); err != nil {
		return false, fmt.Errorf("account exists: %w", err)
	}
	return exists, nil
}

// Update overwrites the mutable columns of an existing account.
func (s *Postgres) Update(ctx context.Context, account *models.Account) error {
	query := `
		UPDATE accounts
		SET email = $2, display_name = $3, role = $4, status = $5,
		    email_verified = $6, password_hash = $7, updated_at = $8
		WHERE id = $1
	`
	res, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(account.ID),
		account.Email,
		account.DisplayName,
		string(account.Role),
		string(account.Status),
		account.EmailVerified,
		account.PasswordHash,
		account.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update account rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// Execute loads the row FOR UPDATE, runs validate then mutate, and writes the
// result back, all inside one transaction. When the context already carries a
// transaction the row lock joins it; otherwise a local transaction is opened.
func (s *Postgres) Execute(ctx context.Context, accountID id.AccountID, validate func(*models.Account) error, mutate func(*models.Account)) (*models.Account, error) {
	if tx, ok := txcontext.From(ctx); ok {
		return s.executeIn(ctx, tx, accountID, validate, mutate)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin account execute: %w", err)
	}
	account, err := s.executeIn(ctx, tx, accountID, validate, mutate)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit account execute: %w", err)
	}
	return account, nil
}

func (s *Postgres) executeIn(ctx context.Context, tx *sql.Tx, accountID id.AccountID, validate func(*models.Account) error, mutate func(*models.Account)) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 FOR UPDATE`
	account, err := scanAccount(tx.QueryRowContext(ctx, query, uuid.UUID(accountID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("lock account: %w", err)
	}
	if err := validate(account); err != nil {
		return nil, err
	}
	mutate(account)

	update := `
		UPDATE accounts
		SET status = $2, email_verified = $3, updated_at = $4
		WHERE id = $1
	`
	if _, err := tx.ExecContext(ctx, update,
		uuid.UUID(account.ID),
		string(account.Status),
		account.EmailVerified,
		account.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("write account mutation: %w", err)
	}
	return account, nil
}

// List returns all accounts, newest first.
func (s *Postgres) List(ctx context.Context) ([]*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts ORDER BY created_at DESC`
	rows, err := s.execer(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		account, err := scanAccountRow(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}
	return accounts, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	var (
		account   models.Account
		accountID uuid.UUID
		role      string
		status    string
	)
	err := row.Scan(
		&accountID,
		&account.Email,
		&account.DisplayName,
		&role,
		&status,
		&account.EmailVerified,
		&account.PasswordHash,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	account.ID = id.AccountID(accountID)
	account.Role = models.Role(role)
	account.Status = models.Status(status)
	return &account, nil
}

func scanAccountRow(rows *sql.Rows) (*models.Account, error) {
	account, err := scanAccount(rows)
	if err != nil {
		return nil, fmt.Errorf("scan account: %w", err)
	}
	return account, nil
}
