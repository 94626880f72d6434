package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"marina/internal/profile/models"
	id "marina/pkg/domain"
	"marina/pkg/platform/sentinel"
	txcontext "marina/pkg/platform/tx"
)

const pgUniqueViolation = "23505"

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func execer(ctx context.Context, db *sql.DB) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return db
}

// PostgresBoatman persists boatman profiles in PostgreSQL.
type PostgresBoatman struct {
	db *sql.DB
}

// NewPostgresBoatman constructs a PostgreSQL-backed boatman store.
func NewPostgresBoatman(db *sql.DB) *PostgresBoatman {
	return &PostgresBoatman{db: db}
}

const boatmanColumns = `id, account_id, license_no, vessel_name, home_port, rating, trip_count, approved_at, created_at, updated_at`

// CreateIfAccountFree inserts the profile, translating the unique index on
// account_id into ErrAlreadyUsed.
func (s *PostgresBoatman) CreateIfAccountFree(ctx context.Context, profile *models.Boatman) error {
	query := `
		INSERT INTO boatman_profiles (id, account_id, license_no, vessel_name, home_port, rating, trip_count, approved_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := execer(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(profile.ID),
		uuid.UUID(profile.AccountID),
		profile.LicenseNo,
		profile.VesselName,
		profile.HomePort,
		profile.Rating,
		profile.TripCount,
		profile.ApprovedAt,
		profile.CreatedAt,
		profile.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert boatman profile: %w", err)
	}
	return nil
}

// FindByID loads a profile or returns ErrNotFound.
func (s *PostgresBoatman) FindByID(ctx context.Context, boatmanID id.BoatmanID) (*models.Boatman, error) {
	query := `SELECT ` + boatmanColumns + ` FROM boatman_profiles WHERE id = $1`
	profile, err := scanBoatman(execer(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(boatmanID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find boatman by id: %w", err)
	}
	return profile, nil
}

// FindByAccount loads the profile owned by the account or returns ErrNotFound.
func (s *PostgresBoatman) FindByAccount(ctx context.Context, accountID id.AccountID) (*models.Boatman, error) {
	query := `SELECT ` + boatmanColumns + ` FROM boatman_profiles WHERE account_id = $1`
	profile, err := scanBoatman(execer(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(accountID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find boatman by account: %w", err)
	}
	return profile, nil
}

// Update overwrites the mutable columns of an existing profile.
func (s *PostgresBoatman) Update(ctx context.Context, profile *models.Boatman) error {
	query := `
		UPDATE boatman_profiles
		SET license_no = $2, vessel_name = $3, home_port = $4, rating = $5,
		    trip_count = $6, approved_at = $7, updated_at = $8
		WHERE id = $1
	`
	res, err := execer(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(profile.ID),
		profile.LicenseNo,
		profile.VesselName,
		profile.HomePort,
		profile.Rating,
		profile.TripCount,
		profile.ApprovedAt,
		profile.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update boatman profile: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update boatman rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func scanBoatman(row *sql.Row) (*models.Boatman, error) {
	var (
		profile   models.Boatman
		boatmanID uuid.UUID
		accountID uuid.UUID
	)
	err := row.Scan(
		&boatmanID,
		&accountID,
		&profile.LicenseNo,
		&profile.VesselName,
		&profile.HomePort,
		&profile.Rating,
		&profile.TripCount,
		&profile.ApprovedAt,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	profile.ID = id.BoatmanID(boatmanID)
	profile.AccountID = id.AccountID(accountID)
	return &profile, nil
}

// PostgresAgency persists agency profiles in PostgreSQL.
type PostgresAgency struct {
	db *sql.DB
}

// NewPostgresAgency constructs a PostgreSQL-backed agency store.
func NewPostgresAgency(db *sql.DB) *PostgresAgency {
	return &PostgresAgency{db: db}
}

const agencyColumns = `id, account_id, company_name, tax_id, contact_phone, fleet_size, revenue_cents, approved_at, created_at, updated_at`

// CreateIfAccountFree inserts the profile, translating the unique index on
// account_id into ErrAlreadyUsed.
func (s *PostgresAgency) CreateIfAccountFree(ctx context.Context, profile *models.Agency) error {
	query := `
		INSERT INTO agency_profiles (id, account_id, company_name, tax_id, contact_phone, fleet_size, revenue_cents, approved_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := execer(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(profile.ID),
		uuid.UUID(profile.AccountID),
		profile.CompanyName,
		profile.TaxID,
		profile.ContactPhone,
		profile.FleetSize,
		profile.RevenueCents,
		profile.ApprovedAt,
		profile.CreatedAt,
		profile.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert agency profile: %w", err)
	}
	return nil
}

// FindByID loads a profile or returns ErrNotFound.
func (s *PostgresAgency) FindByID(ctx context.Context, agencyID id.AgencyID) (*models.Agency, error) {
	query := `SELECT ` + agencyColumns + ` FROM agency_profiles WHERE id = $1`
	profile, err := scanAgency(execer(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(agencyID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find agency by id: %w", err)
	}
	return profile, nil
}

// FindByAccount loads the profile owned by the account or returns ErrNotFound.
func (s *PostgresAgency) FindByAccount(ctx context.Context, accountID id.AccountID) (*models.Agency, error) {
	query := `SELECT ` + agencyColumns + ` FROM agency_profiles WHERE account_id = $1`
	profile, err := scanAgency(execer(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(accountID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find agency by account: %w", err)
	}
	return profile, nil
}

// Update overwrites the mutable columns of an existing profile.
func (s *PostgresAgency) Update(ctx context.Context, profile *models.Agency) error {
	query := `
		UPDATE agency_profiles
		SET company_name = $2, tax_id = $3, contact_phone = $4, fleet_size = $5,
		    revenue_cents = $6, approved_at = $7, updated_at = $8
		WHERE id = $1
	`
	res, err := execer(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(profile.ID),
		profile.CompanyName,
		profile.TaxID,
		profile.ContactPhone,
		profile.FleetSize,
		profile.RevenueCents,
		profile.ApprovedAt,
		profile.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update agency profile: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update agency rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func scanAgency(row *sql.Row) (*models.Agency, error) {
	var (
		profile  models.Agency
		agencyID uuid.UUID
		ownerID  uuid.UUID
	)
	err := row.Scan(
		&agencyID,
		&ownerID,
		&profile.CompanyName,
		&profile.TaxID,
		&profile.ContactPhone,
		&profile.FleetSize,
		&profile.RevenueCents,
		&profile.ApprovedAt,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	profile.ID = id.AgencyID(agencyID)
	profile.AccountID = id.AccountID(ownerID)
	return &profile, nil
}
