package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/happening-registration/internal/model"
)

// RegistrationRepository handles persistence for registrations and answers.
type RegistrationRepository struct {
	db  *pgxpool.Pool
	log *zap.Logger
}

// NewRegistrationRepository constructs a RegistrationRepository.
func NewRegistrationRepository(db *pgxpool.Pool, log *zap.Logger) *RegistrationRepository {
	return &RegistrationRepository{db: db, log: log}
}

// Register runs the admission decision for one validated registration.
//
// The happening row is locked with SELECT ... FOR UPDATE before anything is
// read, so all registrations for the same happening run their
// count-then-insert one at a time. Registrations for different happenings
// take different row locks and never wait on each other.
//
// Business outcomes (too early, not in range, ...) are returned as values;
// only infrastructure failures are errors, and they leave nothing behind.
func (r *RegistrationRepository) Register(ctx context.Context, reg model.Registration, now time.Time) (model.RegistrationOutcome, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return model.RegistrationOutcome{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	h, err := selectHappening(ctx, tx, reg.Slug, true)
	if errors.Is(err, ErrNotFound) {
		return model.RegistrationOutcome{Status: model.StatusHappeningDoesntExist}, nil
	}
	if err != nil {
		return model.RegistrationOutcome{}, err
	}

	if now.Before(h.RegistrationDate) {
		return model.RegistrationOutcome{Status: model.StatusTooEarly, OpensAt: h.RegistrationDate}, nil
	}

	var exists bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM registrations WHERE email = $1 AND happening_slug = $2
		 )`,
		reg.Email, reg.Slug,
	).Scan(&exists)
	if err != nil {
		return model.RegistrationOutcome{}, fmt.Errorf("check existing registration: %w", err)
	}
	if exists {
		return model.RegistrationOutcome{Status: model.StatusAlreadyExists}, nil
	}

	if h.SpotRanges, err = selectSpotRanges(ctx, tx, reg.Slug); err != nil {
		return model.RegistrationOutcome{}, err
	}
	rng, ok := model.MatchRange(h.SpotRanges, reg.DegreeYear)
	if !ok {
		return model.RegistrationOutcome{Status: model.StatusNotInRange, SpotRanges: h.SpotRanges}, nil
	}

	// Accepted and waitlisted rows both count against the range.
	var count int
	err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM registrations
		 WHERE happening_slug = $1 AND degree_year BETWEEN $2 AND $3`,
		reg.Slug, rng.MinDegreeYear, rng.MaxDegreeYear,
	).Scan(&count)
	if err != nil {
		return model.RegistrationOutcome{}, fmt.Errorf("count registrations: %w", err)
	}

	waitList, position := model.Admit(count, rng)

	_, err = tx.Exec(ctx,
		`INSERT INTO registrations
		 (email, happening_slug, first_name, last_name, degree, degree_year, terms, wait_list)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		reg.Email, reg.Slug, reg.FirstName, reg.LastName, reg.Degree, reg.DegreeYear, reg.Terms, waitList,
	)
	if err != nil {
		if isRegistrationConflict(err) {
			return model.RegistrationOutcome{Status: model.StatusAlreadyExists}, nil
		}
		return model.RegistrationOutcome{}, fmt.Errorf("insert registration: %w", err)
	}

	if err := insertAnswers(ctx, tx, reg); err != nil {
		return model.RegistrationOutcome{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return model.RegistrationOutcome{}, fmt.Errorf("commit transaction: %w", err)
	}

	if waitList {
		r.log.Info("registration waitlisted",
			zap.String("slug", reg.Slug),
			zap.Int("position", position),
			zap.Stringer("range", rng),
		)
		return model.RegistrationOutcome{Status: model.StatusWaitList, WaitListSpot: position, Happening: h}, nil
	}
	r.log.Info("registration accepted", zap.String("slug", reg.Slug), zap.Stringer("range", rng))
	return model.RegistrationOutcome{Status: model.StatusAccepted, Happening: h}, nil
}

func isRegistrationConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) &&
		pgErr.Code == uniqueViolation &&
		pgErr.ConstraintName == "registrations_pkey"
}

func insertAnswers(ctx context.Context, tx pgx.Tx, reg model.Registration) error {
	if len(reg.Answers) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for i, a := range reg.Answers {
		batch.Queue(
			`INSERT INTO answers (registration_email, happening_slug, ordinal, question, answer)
			 VALUES ($1, $2, $3, $4, $5)`,
			reg.Email, reg.Slug, i, a.Question, a.Answer,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert answers: %w", err)
	}
	return nil
}

// CountByRange returns accepted and waitlisted counts for each of the
// happening's ranges, in range order. An unknown slug yields an empty slice.
//
// Each registrant is counted against every range whose window contains its
// degree year, matching how admission counts.
func (r *RegistrationRepository) CountByRange(ctx context.Context, slug string) ([]model.SpotRangeCount, error) {
	rows, err := r.db.Query(ctx,
		`SELECT s.spots, s.min_degree_year, s.max_degree_year,
		        COUNT(reg.email) FILTER (WHERE NOT reg.wait_list),
		        COUNT(reg.email) FILTER (WHERE reg.wait_list)
		 FROM spot_ranges s
		 LEFT JOIN registrations reg
		   ON reg.happening_slug = s.happening_slug
		  AND reg.degree_year BETWEEN s.min_degree_year AND s.max_degree_year
		 WHERE s.happening_slug = $1
		 GROUP BY s.ordinal, s.spots, s.min_degree_year, s.max_degree_year
		 ORDER BY s.ordinal ASC`,
		slug,
	)
	if err != nil {
		return nil, fmt.Errorf("count by range: %w", err)
	}
	defer rows.Close()

	counts := []model.SpotRangeCount{}
	for rows.Next() {
		var c model.SpotRangeCount
		if err := rows.Scan(&c.Spots, &c.MinDegreeYear, &c.MaxDegreeYear, &c.RegCount, &c.WaitListCount); err != nil {
			return nil, fmt.Errorf("scan range count: %w", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// ListBySlug returns all registrations for a happening ordered by submit
// date, which is also waitlist order. Answers keep their submitted order.
func (r *RegistrationRepository) ListBySlug(ctx context.Context, slug string) ([]model.Registration, error) {
	rows, err := r.db.Query(ctx,
		`SELECT email, first_name, last_name, degree, degree_year, happening_slug,
		        terms, submit_date, wait_list
		 FROM registrations
		 WHERE happening_slug = $1
		 ORDER BY submit_date ASC, email ASC`,
		slug,
	)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()

	regs := []model.Registration{}
	index := make(map[string]int)
	for rows.Next() {
		var (
			reg       model.Registration
			submitted time.Time
		)
		err := rows.Scan(&reg.Email, &reg.FirstName, &reg.LastName, &reg.Degree, &reg.DegreeYear,
			&reg.Slug, &reg.Terms, &submitted, &reg.WaitList)
		if err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		reg.SubmitDate = &submitted
		reg.Answers = []model.Answer{}
		index[reg.Email] = len(regs)
		regs = append(regs, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(regs) == 0 {
		return regs, nil
	}

	answerRows, err := r.db.Query(ctx,
		`SELECT registration_email, question, answer
		 FROM answers
		 WHERE happening_slug = $1
		 ORDER BY registration_email, ordinal ASC`,
		slug,
	)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	defer answerRows.Close()

	for answerRows.Next() {
		var (
			email string
			a     model.Answer
		)
		if err := answerRows.Scan(&email, &a.Question, &a.Answer); err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		if i, ok := index[email]; ok {
			regs[i].Answers = append(regs[i].Answers, a)
		}
	}
	return regs, answerRows.Err()
}

// Delete removes one registration and its answers. Waitlisted registrants
// are not promoted; positions are recomputed from counts on read.
func (r *RegistrationRepository) Delete(ctx context.Context, slug, email string) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM registrations WHERE happening_slug = $1 AND email = $2`,
		slug, email,
	)
	if err != nil {
		return false, fmt.Errorf("delete registration: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
