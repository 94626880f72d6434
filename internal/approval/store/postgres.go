package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"marina/internal/approval/models"
	id "marina/pkg/domain"
	"marina/pkg/platform/sentinel"
	txcontext "marina/pkg/platform/tx"
)

// Postgres persists approval requests in PostgreSQL. Pure I/O; workflow
// rules live in the lifecycle service.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed approval request store.
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

const requestColumns = `id, target_kind, target_id, request_type, documents, status, created_at, updated_at`

// Create inserts a new request row.
func (s *Postgres) Create(ctx context.Context, request *models.Request) error {
	query := `
		INSERT INTO approval_requests (id, target_kind, target_id, request_type, documents, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(request.ID),
		string(request.TargetKind),
		request.TargetID,
		request.RequestType,
		request.Documents,
		string(request.Status),
		request.CreatedAt,
		request.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert approval request: %w", err)
	}
	return nil
}

// FindByID loads a request or returns ErrNotFound.
func (s *Postgres) FindByID(ctx context.Context, requestID id.RequestID) (*models.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM approval_requests WHERE id = $1`
	request, err := scanRequest(s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(requestID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find approval request: %w", err)
	}
	return request, nil
}

// Update overwrites the workflow columns of an existing request.
func (s *Postgres) Update(ctx context.Context, request *models.Request) error {
	query := `
		UPDATE approval_requests
		SET documents = $2, status = $3, updated_at = $4
		WHERE id = $1
	`
	res, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(request.ID),
		request.Documents,
		string(request.Status),
		request.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update approval request: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update approval request rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// List returns requests newest first, optionally filtered by status.
func (s *Postgres) List(ctx context.Context, status *models.RequestStatus) ([]*models.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM approval_requests`
	args := []any{}
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, string(*status))
	}
	query += ` ORDER BY created_at DESC, id`

	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list approval requests: %w", err)
	}
	defer rows.Close()
	return collectRequests(rows)
}

// Search returns one page of requests newest first plus the total match
// count. Pages are 1-based.
func (s *Postgres) Search(ctx context.Context, status *models.RequestStatus, page, perPage int) ([]*models.Request, int, error) {
	countQuery := `SELECT COUNT(*) FROM approval_requests`
	listQuery := `SELECT ` + requestColumns + ` FROM approval_requests`
	args := []any{}
	if status != nil {
		countQuery += ` WHERE status = $1`
		listQuery += ` WHERE status = $1`
		args = append(args, string(*status))
	}

	var total int
	if err := s.execer(ctx).QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count approval requests: %w", err)
	}

	offset := (page - 1) * perPage
	listQuery += fmt.Sprintf(` ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, perPage, offset)

	rows, err := s.execer(ctx).QueryContext(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("search approval requests: %w", err)
	}
	defer rows.Close()

	requests, err := collectRequests(rows)
	if err != nil {
		return nil, 0, err
	}
	return requests, total, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*models.Request, error) {
	var (
		request   models.Request
		requestID uuid.UUID
		kind      string
		status    string
	)
	err := row.Scan(
		&requestID,
		&kind,
		&request.TargetID,
		&request.RequestType,
		&request.Documents,
		&status,
		&request.CreatedAt,
		&request.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	request.ID = id.RequestID(requestID)
	request.TargetKind = models.EntityKind(kind)
	request.Status = models.RequestStatus(status)
	return &request, nil
}

func collectRequests(rows *sql.Rows) ([]*models.Request, error) {
	var requests []*models.Request
	for rows.Next() {
		request, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan approval request: %w", err)
		}
		requests = append(requests, request)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate approval requests: %w", err)
	}
	return requests, nil
}
