package repository

import (
	"errors"

	"classqa/internal/backend"
)

// ErrQuotaExceeded is the normal rejection outcome of a submission against
// a lecture that already holds the maximum number of questions.
var ErrQuotaExceeded = errors.New("lecture question quota exceeded")

// QuestionRepository admits or rejects student question submissions
// against the per-lecture quota.
type QuestionRepository struct {
	shared *backend.Shared
	max    int
}

func NewQuestionRepository(shared *backend.Shared, maxQuestions int) *QuestionRepository {
	return &QuestionRepository{shared: shared, max: maxQuestions}
}

const (
	countQuestionsQuery = "SELECT COUNT(*) FROM questions WHERE lec = $1"
	insertQuestionQuery = "INSERT INTO questions (lec, qtext) VALUES ($1, $2)"
)

// Submit counts the lecture's questions and inserts the new one if the
// quota allows. The guard is held across the whole count-then-insert
// sequence, so two concurrent submissions cannot both pass the check.
func (r *QuestionRepository) Submit(lec int64, prompt string) error {
	bg := r.shared.Acquire()
	defer r.shared.Release()

	rows, err := bg.Query(countQuestionsQuery, backend.Int64(lec))
	if err != nil {
		return err
	}
	count, err := rows[0][0].Int()
	if err != nil {
		return err
	}
	if count >= int64(r.max) {
		return ErrQuotaExceeded
	}

	return bg.Exec(insertQuestionQuery, backend.Int64(lec), backend.Text(prompt))
}
