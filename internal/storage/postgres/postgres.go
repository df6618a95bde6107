package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"account_service/internal/config"
	"account_service/internal/models"
	"account_service/internal/storage"
	"account_service/internal/storage/migrations"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

type PostgresRepo struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, cfg *config.Config) (*PostgresRepo, error) {
	const op = "storage.postgres.New"

	dsn := dsn(cfg)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse config: %w", op, err)
	}

	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = time.Minute * 30

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create pool: %w", op, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: failed to ping database: %w", op, err)
	}

	if err := runMigrations(ctx, dsn); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: failed to run migrations: %w", op, err)
	}

	return &PostgresRepo{pool: pool}, nil
}

// runMigrations applies the embedded goose migrations over a short-lived
// database/sql connection; the pool itself never sees DDL.
func runMigrations(ctx context.Context, dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	return goose.UpContext(ctx, db, ".")
}

func (r *PostgresRepo) UserByID(ctx context.Context, id int64) (models.User, error) {
	query := `
		SELECT id, email, password, created_at
		FROM "user"
		WHERE id = $1;
	`

	row := r.pool.QueryRow(ctx, query, id)

	var u models.User
	var passHash string

	err := row.Scan(&u.ID, &u.Email, &passHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storage.ErrUserNotFound
		}

		return models.User{}, err
	}

	u.PassHash = []byte(passHash)

	return u, nil
}

func (r *PostgresRepo) UserIDByEmail(ctx context.Context, email string) (int64, error) {
	query := `SELECT id FROM "user" WHERE email = $1;`

	var id int64

	err := r.pool.QueryRow(ctx, query, strings.ToLower(email)).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, storage.ErrUserNotFound
		}

		return 0, err
	}

	return id, nil
}

// TeamsByUserID lists the user's teams, annotating each row with whether
// this user owns the team.
func (r *PostgresRepo) TeamsByUserID(ctx context.Context, userID int64) ([]models.Team, error) {
	const op = "storage.postgres.TeamsByUserID"

	query := `
		SELECT team.id, team.name, team.created_at, (team.owner_id = user_to_team.user_id) AS is_owner
		FROM team
		INNER JOIN user_to_team ON user_to_team.team_id = team.id
		WHERE user_to_team.user_id = $1;
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	teams := []models.Team{}

	for rows.Next() {
		var t models.Team

		if err := rows.Scan(&t.ID, &t.Name, &t.CreatedAt, &t.IsOwner); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		teams = append(teams, t)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("%s: %w", op, rows.Err())
	}

	return teams, nil
}

func (r *PostgresRepo) UpdateEmail(ctx context.Context, userID int64, email string) error {
	const op = "storage.postgres.UpdateEmail"

	query := `UPDATE "user" SET email = $1 WHERE id = $2;`

	_, err := r.pool.Exec(ctx, query, strings.ToLower(email), userID)
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == "23505" {
			return storage.ErrEmailTaken
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *PostgresRepo) UpdatePassword(ctx context.Context, userID int64, passHash []byte) error {
	const op = "storage.postgres.UpdatePassword"

	query := `UPDATE "user" SET password = $1 WHERE id = $2;`

	_, err := r.pool.Exec(ctx, query, string(passHash), userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// DeleteUser removes the user row; memberships and owned teams go with it
// through the schema's ON DELETE CASCADE.
func (r *PostgresRepo) DeleteUser(ctx context.Context, userID int64) error {
	const op = "storage.postgres.DeleteUser"

	query := `DELETE FROM "user" WHERE id = $1;`

	_, err := r.pool.Exec(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *PostgresRepo) ScheduledTasks(ctx context.Context) ([]models.ScheduledTask, error) {
	const op = "storage.postgres.ScheduledTasks"

	query := `SELECT name, interval_seconds, next_execution_time FROM scheduled_task;`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var tasks []models.ScheduledTask

	for rows.Next() {
		var t models.ScheduledTask

		if err := rows.Scan(&t.Name, &t.Interval, &t.NextExecutionTime); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		tasks = append(tasks, t)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("%s: %w", op, rows.Err())
	}

	return tasks, nil
}

func (r *PostgresRepo) Close() {
	r.pool.Close()
}

func dsn(cfg *config.Config) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s database=%s sslmode=%s",
		cfg.Postgres.Host,
		cfg.Postgres.Port,
		cfg.Postgres.User,
		cfg.Postgres.Password,
		cfg.Postgres.DBName,
		cfg.Postgres.SSLMode,
	)
}
