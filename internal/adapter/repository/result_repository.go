package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/eslsoft/lvgames/internal/entity"
	"github.com/eslsoft/lvgames/internal/repository"
)

const resultSchema = `
CREATE TABLE IF NOT EXISTS session_results (
	id          TEXT PRIMARY KEY,
	game        TEXT NOT NULL,
	mode        TEXT NOT NULL,
	finished_at TIMESTAMP NOT NULL,
	correct     INTEGER NOT NULL,
	total       INTEGER NOT NULL,
	duration_ms BIGINT NOT NULL,
	detail      TEXT NOT NULL DEFAULT ''
)`

const resultIndex = `CREATE INDEX IF NOT EXISTS session_results_game_finished ON session_results (game, finished_at)`

type resultRow struct {
	ID         string    `db:"id"`
	Game       string    `db:"game"`
	Mode       string    `db:"mode"`
	FinishedAt time.Time `db:"finished_at"`
	Correct    int       `db:"correct"`
	Total      int       `db:"total"`
	DurationMS int64     `db:"duration_ms"`
	Detail     string    `db:"detail"`
}

func toResultRow(r *entity.SessionResult) resultRow {
	return resultRow{
		ID:         r.ID,
		Game:       normalizeGame(r.Game),
		Mode:       string(r.Mode),
		FinishedAt: r.Timestamp.UTC(),
		Correct:    r.Correct,
		Total:      r.Total,
		DurationMS: r.Duration.Milliseconds(),
		Detail:     r.Detail,
	}
}

func (row resultRow) toEntity() entity.SessionResult {
	return entity.SessionResult{
		ID:        row.ID,
		Game:      row.Game,
		Mode:      entity.GameMode(row.Mode),
		Timestamp: row.FinishedAt.UTC(),
		Correct:   row.Correct,
		Total:     row.Total,
		Duration:  time.Duration(row.DurationMS) * time.Millisecond,
		Detail:    row.Detail,
	}
}

type sqlResultRepository struct {
	db    *sqlx.DB
	clock func() time.Time
}

// NewSQLResultRepository creates the session_results table if needed and
// returns a sqlx-backed ResultRepository (SQLite or PostgreSQL).
func NewSQLResultRepository(ctx context.Context, db *sqlx.DB) (repository.ResultRepository, error) {
	for _, stmt := range []string{resultSchema, resultIndex} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("create session_results: %w", err)
		}
	}
	return &sqlResultRepository{db: db, clock: time.Now}, nil
}

func (r *sqlResultRepository) Save(ctx context.Context, result *entity.SessionResult) (*entity.SessionResult, error) {
	if result == nil {
		return nil, fmt.Errorf("save result: %w", entity.ErrInvalidItem)
	}
	copy := *result
	copy.Normalize(r.clock())
	if copy.ID == "" {
		copy.ID = uuid.NewString()
	}
	row := toResultRow(&copy)
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO session_results (id, game, mode, finished_at, correct, total, duration_ms, detail)
		VALUES (:id, :game, :mode, :finished_at, :correct, :total, :duration_ms, :detail)`, row)
	if err != nil {
		return nil, fmt.Errorf("save result: %w", err)
	}
	saved := row.toEntity()
	return &saved, nil
}

func (r *sqlResultRepository) List(ctx context.Context, query *repository.ListResultQuery) ([]entity.SessionResult, int64, error) {
	if query == nil {
		query = &repository.ListResultQuery{}
	}
	where := ` WHERE 1 = 1`
	args := []any{}
	if game := normalizeGame(query.Game); game != "" {
		where += ` AND game = ?`
		args = append(args, game)
	}
	if !query.Since.IsZero() {
		where += ` AND finished_at >= ?`
		args = append(args, query.Since.UTC())
	}

	var total int64
	if err := r.db.GetContext(ctx, &total, r.db.Rebind(`SELECT COUNT(*) FROM session_results`+where), args...); err != nil {
		return nil, 0, fmt.Errorf("count results: %w", err)
	}

	stmt := `SELECT id, game, mode, finished_at, correct, total, duration_ms, detail FROM session_results` +
		where + ` ORDER BY finished_at DESC, id`
	if query.PageSize > 0 {
		stmt += fmt.Sprintf(` LIMIT %d OFFSET %d`, query.PageSize, query.Offset())
	}
	var rows []resultRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(stmt), args...); err != nil {
		return nil, 0, fmt.Errorf("list results: %w", err)
	}
	out := make([]entity.SessionResult, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntity())
	}
	return out, total, nil
}

func (r *sqlResultRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM session_results WHERE finished_at < ?`), cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("prune results: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune results: %w", err)
	}
	return n, nil
}
