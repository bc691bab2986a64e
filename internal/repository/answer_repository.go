package repository

import (
	"time"

	"classqa/internal/backend"
)

// AnswerRepository stores staff answers. One row exists per
// (email, lecture, question); re-answering overwrites it.
type AnswerRepository struct {
	shared *backend.Shared
}

func NewAnswerRepository(shared *backend.Shared) *AnswerRepository {
	return &AnswerRepository{shared: shared}
}

// Submit upserts the author's answer for a question with a fresh timestamp.
func (r *AnswerRepository) Submit(lec, question int64, email, text string) error {
	bg := r.shared.Acquire()
	defer r.shared.Release()
	return bg.Replace("answers",
		backend.Text(email),
		backend.Int64(lec),
		backend.Int64(question),
		backend.Text(text),
		backend.Time(time.Now()),
	)
}
