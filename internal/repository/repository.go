// Package repository implements all database queries for happenings and
// registrations. It uses pgx directly (no ORM).
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/happening-registration/internal/model"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

const uniqueViolation = "23505"

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const happeningColumns = `slug, title, happening_type, registration_date, happening_date,
	organizer_email, student_group_name, reg_verify_token`

func scanHappening(row pgx.Row) (*model.Happening, error) {
	var h model.Happening
	err := row.Scan(&h.Slug, &h.Title, &h.Type, &h.RegistrationDate, &h.HappeningDate,
		&h.OrganizerEmail, &h.StudentGroupName, &h.RegVerifyToken)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &h, nil
}

// selectHappening loads a happening row. With lock set the row is taken
// FOR UPDATE, which serializes every writer of that happening until commit.
func selectHappening(ctx context.Context, q querier, slug string, lock bool) (*model.Happening, error) {
	sql := `SELECT ` + happeningColumns + ` FROM happenings WHERE slug = $1`
	if lock {
		sql += ` FOR UPDATE`
	}
	h, err := scanHappening(q.QueryRow(ctx, sql, slug))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("select happening: %w", err)
	}
	return h, err
}

// selectSpotRanges returns a happening's ranges in their persisted order.
func selectSpotRanges(ctx context.Context, q querier, slug string) ([]model.SpotRange, error) {
	rows, err := q.Query(ctx,
		`SELECT spots, min_degree_year, max_degree_year
		 FROM spot_ranges
		 WHERE happening_slug = $1
		 ORDER BY ordinal ASC`,
		slug,
	)
	if err != nil {
		return nil, fmt.Errorf("select spot ranges: %w", err)
	}
	defer rows.Close()

	var ranges []model.SpotRange
	for rows.Next() {
		var r model.SpotRange
		if err := rows.Scan(&r.Spots, &r.MinDegreeYear, &r.MaxDegreeYear); err != nil {
			return nil, fmt.Errorf("scan spot range: %w", err)
		}
		ranges = append(ranges, r)
	}
	return ranges, rows.Err()
}

func insertSpotRanges(ctx context.Context, tx pgx.Tx, slug string, ranges []model.SpotRange) error {
	batch := &pgx.Batch{}
	for i, r := range ranges {
		batch.Queue(
			`INSERT INTO spot_ranges (happening_slug, ordinal, spots, min_degree_year, max_degree_year)
			 VALUES ($1, $2, $3, $4, $5)`,
			slug, i, r.Spots, r.MinDegreeYear, r.MaxDegreeYear,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert spot ranges: %w", err)
	}
	return nil
}

// HappeningRepository handles persistence for happenings and their spot ranges.
type HappeningRepository struct {
	db  *pgxpool.Pool
	log *zap.Logger
}

// NewHappeningRepository constructs a HappeningRepository.
func NewHappeningRepository(db *pgxpool.Pool, log *zap.Logger) *HappeningRepository {
	return &HappeningRepository{db: db, log: log}
}

// Get returns a happening with its spot ranges or ErrNotFound.
func (r *HappeningRepository) Get(ctx context.Context, slug string) (*model.Happening, error) {
	h, err := selectHappening(ctx, r.db, slug, false)
	if err != nil {
		return nil, err
	}
	if h.SpotRanges, err = selectSpotRanges(ctx, r.db, slug); err != nil {
		return nil, err
	}
	return h, nil
}

// GetByToken returns the happening whose verification token matches.
func (r *HappeningRepository) GetByToken(ctx context.Context, token string) (*model.Happening, error) {
	h, err := scanHappening(r.db.QueryRow(ctx,
		`SELECT `+happeningColumns+` FROM happenings WHERE reg_verify_token = $1`,
		token,
	))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get happening by token: %w", err)
	}
	return h, nil
}

// Upsert reconciles a normalized happening definition with the stored state.
//
// A new slug is inserted together with its ranges and h.RegVerifyToken. An
// existing slug is compared field by field: equal definitions write nothing,
// anything else updates the mutable columns and replaces the whole range set.
// The happening row is locked for the duration, so a concurrent registration
// either sees the old range set or the new one, never an empty one.
func (r *HappeningRepository) Upsert(ctx context.Context, h model.Happening) (model.UpsertStatus, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	existing, err := selectHappening(ctx, tx, h.Slug, true)
	if errors.Is(err, ErrNotFound) {
		tag, insertErr := tx.Exec(ctx,
			`INSERT INTO happenings (`+happeningColumns+`)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 ON CONFLICT (slug) DO NOTHING`,
			h.Slug, h.Title, h.Type, h.RegistrationDate, h.HappeningDate,
			h.OrganizerEmail, h.StudentGroupName, h.RegVerifyToken,
		)
		if insertErr != nil {
			return 0, fmt.Errorf("insert happening: %w", insertErr)
		}
		if tag.RowsAffected() == 1 {
			if err := insertSpotRanges(ctx, tx, h.Slug, h.SpotRanges); err != nil {
				return 0, err
			}
			if err := tx.Commit(ctx); err != nil {
				return 0, fmt.Errorf("commit transaction: %w", err)
			}
			return model.Created, nil
		}

		// A concurrent upsert created the slug first; diff against it instead.
		existing, err = selectHappening(ctx, tx, h.Slug, true)
	}
	if err != nil {
		return 0, err
	}

	if existing.SpotRanges, err = selectSpotRanges(ctx, tx, h.Slug); err != nil {
		return 0, err
	}
	if model.SameDefinition(*existing, h) {
		return model.Unchanged, nil
	}

	_, err = tx.Exec(ctx,
		`UPDATE happenings
		 SET title = $2, registration_date = $3, happening_date = $4,
		     organizer_email = $5, student_group_name = $6
		 WHERE slug = $1`,
		h.Slug, h.Title, h.RegistrationDate, h.HappeningDate, h.OrganizerEmail, h.StudentGroupName,
	)
	if err != nil {
		return 0, fmt.Errorf("update happening: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM spot_ranges WHERE happening_slug = $1`, h.Slug); err != nil {
		return 0, fmt.Errorf("delete spot ranges: %w", err)
	}
	if err := insertSpotRanges(ctx, tx, h.Slug, h.SpotRanges); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}
	return model.Updated, nil
}

// Delete removes a happening; spot ranges, registrations and answers cascade.
// It reports whether a row existed.
func (r *HappeningRepository) Delete(ctx context.Context, slug string) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM happenings WHERE slug = $1`, slug)
	if err != nil {
		return false, fmt.Errorf("delete happening: %w", err)
	}
	deleted := tag.RowsAffected() > 0
	r.log.Info("happening deleted", zap.String("slug", slug), zap.Bool("existed", deleted))
	return deleted, nil
}
