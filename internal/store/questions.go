package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/visioneer/core/internal/chunkmodel"
	"github.com/visioneer/core/internal/verrors"
)

// CreateQuestion raises a new open question, optionally naming the
// tasks it blocks.
func (s *Store) CreateQuestion(ctx context.Context, q *chunkmodel.Question) (*chunkmodel.Question, error) {
	if q.ID == "" {
		q.ID = uuid.New().String()
	}
	if q.Status == "" {
		q.Status = chunkmodel.QuestionOpen
	}
	if q.AskedAt.IsZero() {
		q.AskedAt = nowUTC()
	}
	blocksTasks, _ := json.Marshal(q.BlocksTasks)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO questions (id, project_id, question, context, status, answer, blocks_tasks, asked_at, answered_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		q.ID, q.ProjectID, q.Question, q.Context, string(q.Status), q.Answer,
		string(blocksTasks), q.AskedAt, q.AnsweredAt)
	if err != nil {
		return nil, verrors.Transient("create question", err)
	}
	return q, nil
}

const questionColumns = `id, project_id, question, context, status, answer, blocks_tasks, asked_at, answered_at`

func scanQuestion(row interface{ Scan(dest ...any) error }) (*chunkmodel.Question, error) {
	q := &chunkmodel.Question{}
	var status, blocksTasks string
	var answeredAt sql.NullTime
	if err := row.Scan(&q.ID, &q.ProjectID, &q.Question, &q.Context, &status, &q.Answer,
		&blocksTasks, &q.AskedAt, &answeredAt); err != nil {
		return nil, err
	}
	q.Status = chunkmodel.QuestionStatus(status)
	json.Unmarshal([]byte(blocksTasks), &q.BlocksTasks)
	if answeredAt.Valid {
		q.AnsweredAt = &answeredAt.Time
	}
	return q, nil
}

// GetQuestion fetches a question by id.
func (s *Store) GetQuestion(ctx context.Context, id string) (*chunkmodel.Question, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+questionColumns+` FROM questions WHERE id = ?`, id)
	q, err := scanQuestion(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, verrors.NotFound("question", id)
		}
		return nil, verrors.Transient("get question", err)
	}
	return q, nil
}

// ListOpenQuestions returns every open question for a project, oldest
// first.
func (s *Store) ListOpenQuestions(ctx context.Context, projectID string) ([]*chunkmodel.Question, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE project_id = ? AND status = ? ORDER BY asked_at ASC`,
		projectID, string(chunkmodel.QuestionOpen))
	if err != nil {
		return nil, verrors.Transient("list open questions", err)
	}
	defer rows.Close()

	var out []*chunkmodel.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, verrors.Transient("scan question", err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// AnswerQuestion records an answer and marks the question answered.
func (s *Store) AnswerQuestion(ctx context.Context, id, answer string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE questions SET status = ?, answer = ?, answered_at = ? WHERE id = ?`,
		string(chunkmodel.QuestionAnswered), answer, nowUTC(), id)
	if err != nil {
		return verrors.Transient("answer question", err)
	}
	return rowsAffectedOrNotFound(res, "question", id)
}

// ListAnsweredSince returns questions answered at or after since, for the
// cycle driver's wake-up absorption step (§4.7): answers recorded by a
// CLI command between cycles are picked up the next time the driver
// wakes.
func (s *Store) ListAnsweredSince(ctx context.Context, projectID string, since time.Time) ([]*chunkmodel.Question, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE project_id = ? AND status = ? AND answered_at >= ? ORDER BY answered_at ASC`,
		projectID, string(chunkmodel.QuestionAnswered), since)
	if err != nil {
		return nil, verrors.Transient("list answered questions", err)
	}
	defer rows.Close()

	var out []*chunkmodel.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, verrors.Transient("scan question", err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}
