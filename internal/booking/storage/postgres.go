package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/cuongbtq/booking-core/internal/booking/domain"
	"github.com/cuongbtq/booking-core/shared/postgresql"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const jobColumns = `
	j.id, j.user_id, j.from_language_id, j.due, j.immediate, j.duration, j.status,
	j.gender, j.certified, j.job_type, j.customer_phone_type, j.customer_physical_type,
	j.town, j.address, j.instructions, j.user_email, j.reference, j.admin_comments,
	j.by_admin, j.will_expire_at, j.created_at, j.end_at, j.session_time, j.withdraw_at,
	j.customer_notified_16h, j.customer_notified_48h`

const userSelect = `
	SELECT
		u.id, u.user_type, u.name, u.email, u.mobile, u.disabled,
		u.gender, u.translator_type, u.translator_level, u.consumer_type,
		u.city, u.address, u.instructions,
		u.not_get_notification, u.not_get_emergency, u.not_get_nighttime,
		COALESCE(ARRAY(SELECT ul.language_id FROM user_languages ul WHERE ul.user_id = u.id ORDER BY ul.language_id), '{}') AS languages,
		COALESCE(ARRAY(SELECT ut.town FROM user_towns ut WHERE ut.user_id = u.id ORDER BY ut.town), '{}') AS towns
	FROM users u`

// Postgres is the sqlx backed Store.
type Postgres struct {
	db     *sqlx.DB
	ext    sqlx.ExtContext
	inTx   bool
	logger *slog.Logger
}

// NewPostgres creates a Store over the shared PostgreSQL client.
func NewPostgres(pg *postgresql.Client, logger *slog.Logger) *Postgres {
	db := pg.GetDB()
	return &Postgres{db: db, ext: db, logger: logger}
}

func (s *Postgres) InTx(ctx context.Context, fn func(tx Store) error) error {
	if s.inTx {
		return fn(s)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(&Postgres{db: s.db, ext: tx, inTx: true, logger: s.logger}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("Failed to roll back transaction",
				slog.Any("error", rbErr),
			)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *Postgres) CreateJob(ctx context.Context, job *domain.Job) error {
	query := `
		INSERT INTO jobs (
			user_id, from_language_id, due, immediate, duration, status,
			gender, certified, job_type, customer_phone_type, customer_physical_type,
			town, address, instructions, user_email, reference, admin_comments,
			by_admin, will_expire_at, created_at, end_at, session_time, withdraw_at,
			customer_notified_16h, customer_notified_48h
		) VALUES (
			:user_id, :from_language_id, :due, :immediate, :duration, :status,
			:gender, :certified, :job_type, :customer_phone_type, :customer_physical_type,
			:town, :address, :instructions, :user_email, :reference, :admin_comments,
			:by_admin, :will_expire_at, :created_at, :end_at, :session_time, :withdraw_at,
			:customer_notified_16h, :customer_notified_48h
		)
		RETURNING id
	`

	rows, err := sqlx.NamedQueryContext(ctx, s.ext, query, job)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return fmt.Errorf("failed to create job: no id returned")
	}
	if err := rows.Scan(&job.ID); err != nil {
		return fmt.Errorf("failed to scan job id: %w", err)
	}
	return rows.Err()
}

func (s *Postgres) GetJob(ctx context.Context, id int64) (*domain.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs j WHERE j.id = $1`
	if s.inTx {
		query += ` FOR UPDATE`
	}

	var job domain.Job
	if err := sqlx.GetContext(ctx, s.ext, &job, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(domain.CodeJobNotFound, strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return &job, nil
}

func (s *Postgres) UpdateJob(ctx context.Context, job *domain.Job) error {
	query := `
		UPDATE jobs SET
			from_language_id = :from_language_id,
			due = :due,
			immediate = :immediate,
			duration = :duration,
			status = :status,
			gender = :gender,
			certified = :certified,
			job_type = :job_type,
			customer_phone_type = :customer_phone_type,
			customer_physical_type = :customer_physical_type,
			town = :town,
			address = :address,
			instructions = :instructions,
			user_email = :user_email,
			reference = :reference,
			admin_comments = :admin_comments,
			will_expire_at = :will_expire_at,
			created_at = :created_at,
			end_at = :end_at,
			session_time = :session_time,
			withdraw_at = :withdraw_at,
			customer_notified_16h = :customer_notified_16h,
			customer_notified_48h = :customer_notified_48h,
			updated_at = NOW()
		WHERE id = :id
	`

	res, err := sqlx.NamedExecContext(ctx, s.ext, query, job)
	if err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return domain.NotFound(domain.CodeJobNotFound, strconv.FormatInt(job.ID, 10))
	}

	s.logger.Debug("Job updated",
		slog.Int64("job_id", job.ID),
		slog.String("status", string(job.Status)),
	)
	return nil
}

func (s *Postgres) ListJobsByStatus(ctx context.Context, status domain.Status) ([]domain.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs j WHERE j.status = $1 ORDER BY j.due, j.id`

	var jobs []domain.Job
	if err := sqlx.SelectContext(ctx, s.ext, &jobs, query, string(status)); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	return jobs, nil
}

func (s *Postgres) ListUserJobs(ctx context.Context, userID int64) ([]domain.Job, error) {
	query := `
		SELECT DISTINCT ` + jobColumns + `
		FROM jobs j
		LEFT JOIN translator_job_rel r
			ON r.job_id = j.id AND r.cancel_at IS NULL AND r.completed_at IS NULL
		WHERE (j.user_id = $1 OR r.user_id = $1)
		  AND j.status = ANY($2)
		ORDER BY j.due, j.id
	`

	var jobs []domain.Job
	if err := sqlx.SelectContext(ctx, s.ext, &jobs, query, userID, pq.Array(activeStatuses)); err != nil {
		return nil, fmt.Errorf("failed to list user jobs: %w", err)
	}
	return jobs, nil
}

func (s *Postgres) TranslatorJobs(ctx context.Context, translatorID int64) ([]domain.Job, error) {
	query := `
		SELECT ` + jobColumns + `
		FROM jobs j
		JOIN translator_job_rel r ON r.job_id = j.id
		WHERE r.user_id = $1
		  AND r.cancel_at IS NULL
		  AND r.completed_at IS NULL
		  AND j.status = ANY($2)
	`

	var jobs []domain.Job
	if err := sqlx.SelectContext(ctx, s.ext, &jobs, query, translatorID, pq.Array(bookedStatuses)); err != nil {
		return nil, fmt.Errorf("failed to list translator jobs: %w", err)
	}
	return jobs, nil
}

func (s *Postgres) Relations(ctx context.Context, jobID int64) ([]domain.TranslatorRelation, error) {
	query := `
		SELECT id, job_id, user_id, created_at, cancel_at, completed_at, completed_by
		FROM translator_job_rel
		WHERE job_id = $1
		ORDER BY id
	`
	if s.inTx {
		query += ` FOR UPDATE`
	}

	var rels []domain.TranslatorRelation
	if err := sqlx.SelectContext(ctx, s.ext, &rels, query, jobID); err != nil {
		return nil, fmt.Errorf("failed to list translator relations: %w", err)
	}
	return rels, nil
}

func (s *Postgres) CreateRelation(ctx context.Context, rel *domain.TranslatorRelation) error {
	query := `
		INSERT INTO translator_job_rel (job_id, user_id, created_at, cancel_at, completed_at, completed_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := s.ext.QueryRowxContext(ctx, query,
		rel.JobID, rel.UserID, rel.CreatedAt, rel.CancelAt, rel.CompletedAt, rel.CompletedBy,
	).Scan(&rel.ID)
	if err != nil {
		return fmt.Errorf("failed to create translator relation: %w", err)
	}
	return nil
}

func (s *Postgres) UpdateRelation(ctx context.Context, rel *domain.TranslatorRelation) error {
	query := `
		UPDATE translator_job_rel
		SET cancel_at = $1, completed_at = $2, completed_by = $3
		WHERE id = $4
	`

	if _, err := s.ext.ExecContext(ctx, query, rel.CancelAt, rel.CompletedAt, rel.CompletedBy, rel.ID); err != nil {
		return fmt.Errorf("failed to update translator relation: %w", err)
	}
	return nil
}

func (s *Postgres) DeleteRelation(ctx context.Context, id int64) error {
	if _, err := s.ext.ExecContext(ctx, `DELETE FROM translator_job_rel WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete translator relation: %w", err)
	}
	return nil
}

type userRow struct {
	ID                 int64          `db:"id"`
	UserType           string         `db:"user_type"`
	Name               string         `db:"name"`
	Email              string         `db:"email"`
	Mobile             string         `db:"mobile"`
	Disabled           bool           `db:"disabled"`
	Gender             string         `db:"gender"`
	TranslatorType     string         `db:"translator_type"`
	TranslatorLevel    string         `db:"translator_level"`
	ConsumerType       string         `db:"consumer_type"`
	City               string         `db:"city"`
	Address            string         `db:"address"`
	Instructions       string         `db:"instructions"`
	NotGetNotification bool           `db:"not_get_notification"`
	NotGetEmergency    bool           `db:"not_get_emergency"`
	NotGetNighttime    bool           `db:"not_get_nighttime"`
	Languages          pq.Int64Array  `db:"languages"`
	Towns              pq.StringArray `db:"towns"`
}

func (r *userRow) toDomain() domain.User {
	return domain.User{
		ID:       r.ID,
		Type:     domain.UserType(r.UserType),
		Name:     r.Name,
		Email:    r.Email,
		Mobile:   r.Mobile,
		Disabled: r.Disabled,
		Meta: domain.UserMeta{
			Gender:             domain.Gender(r.Gender),
			TranslatorType:     domain.TranslatorType(r.TranslatorType),
			TranslatorLevel:    domain.TranslatorLevel(r.TranslatorLevel),
			ConsumerType:       domain.ConsumerType(r.ConsumerType),
			City:               r.City,
			Address:            r.Address,
			Instructions:       r.Instructions,
			NotGetNotification: r.NotGetNotification,
			NotGetEmergency:    r.NotGetEmergency,
			NotGetNighttime:    r.NotGetNighttime,
		},
		Languages: []int64(r.Languages),
		Towns:     []string(r.Towns),
	}
}

func (s *Postgres) findUser(ctx context.Context, where string, arg any, key string) (*domain.User, error) {
	var row userRow
	if err := sqlx.GetContext(ctx, s.ext, &row, userSelect+` WHERE `+where, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(domain.CodeUserNotFound, key)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	u := row.toDomain()
	return &u, nil
}

func (s *Postgres) FindUserByID(ctx context.Context, id int64) (*domain.User, error) {
	return s.findUser(ctx, `u.id = $1`, id, strconv.FormatInt(id, 10))
}

func (s *Postgres) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.findUser(ctx, `lower(u.email) = lower($1)`, email, email)
}

func (s *Postgres) ListTranslators(ctx context.Context) ([]domain.User, error) {
	var rows []userRow
	query := userSelect + ` WHERE u.user_type = $1 ORDER BY u.id`
	if err := sqlx.SelectContext(ctx, s.ext, &rows, query, string(domain.UserTranslator)); err != nil {
		return nil, fmt.Errorf("failed to list translators: %w", err)
	}

	users := make([]domain.User, len(rows))
	for i := range rows {
		users[i] = rows[i].toDomain()
	}
	return users, nil
}

func (s *Postgres) BlacklistFor(ctx context.Context, customerID int64) ([]int64, error) {
	var ids []int64
	query := `SELECT translator_id FROM users_blacklist WHERE user_id = $1`
	if err := sqlx.SelectContext(ctx, s.ext, &ids, query, customerID); err != nil {
		return nil, fmt.Errorf("failed to get blacklist: %w", err)
	}
	return ids, nil
}

func (s *Postgres) LanguageName(ctx context.Context, id int64) (string, error) {
	var name string
	if err := sqlx.GetContext(ctx, s.ext, &name, `SELECT name FROM languages WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", domain.NotFound(domain.CodeLanguageNotFound, strconv.FormatInt(id, 10))
		}
		return "", fmt.Errorf("failed to get language: %w", err)
	}
	return name, nil
}
