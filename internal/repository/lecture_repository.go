package repository

import (
	"sort"

	"classqa/internal/backend"
	"classqa/internal/entity"
)

// LectureRepository assembles the read views. Each method holds the shared
// guard only while rows are materialized; joining and sorting happen after
// release.
type LectureRepository struct {
	shared *backend.Shared
}

func NewLectureRepository(shared *backend.Shared) *LectureRepository {
	return &LectureRepository{shared: shared}
}

const rosterQuery = `
	SELECT lectures.id, lectures.label, lec_qcount.qcount, lec_acount.acount
	FROM lectures
	LEFT JOIN lec_qcount ON (lectures.id = lec_qcount.lec)
	LEFT JOIN lec_acount ON (lectures.id = lec_acount.lec)
	ORDER BY lectures.id`

// Roster returns every lecture with its question and answered counts.
// Lectures with no questions yet count as zero. Whether the requester is
// an admin is decided by the caller and passed straight through.
func (r *LectureRepository) Roster(isAdmin bool) (*entity.LectureList, error) {
	bg := r.shared.Acquire()
	rows, err := bg.Query(rosterQuery)
	r.shared.Release()
	if err != nil {
		return nil, err
	}

	list := &entity.LectureList{Admin: isAdmin, Lectures: make([]entity.LectureListEntry, 0, len(rows))}
	for _, row := range rows {
		id, err := row[0].Int()
		if err != nil {
			return nil, err
		}
		label, err := row[1].Text()
		if err != nil {
			return nil, err
		}
		entry := entity.LectureListEntry{ID: id, Label: label}
		if !row[2].IsNull() {
			if entry.NumQs, err = row[2].Int(); err != nil {
				return nil, err
			}
		}
		if !row[3].IsNull() {
			if entry.NumAnswered, err = row[3].Int(); err != nil {
				return nil, err
			}
		}
		list.Lectures = append(list.Lectures, entry)
	}
	return list, nil
}

const (
	ownAnswersQuery = "SELECT q, answer FROM answers WHERE lec = $1 AND email = $2"
	questionsQuery  = "SELECT id, qtext FROM questions WHERE lec = $1"
)

// StudentQuestions returns every question for a lecture, each joined
// against the requesting identity's own answer only. The join happens in
// memory: the answer set is small and identity-scoped.
func (r *LectureRepository) StudentQuestions(lec int64, email string) (*entity.LectureQuestions, error) {
	bg := r.shared.Acquire()
	answerRows, err := bg.Query(ownAnswersQuery, backend.Int64(lec), backend.Text(email))
	if err != nil {
		r.shared.Release()
		return nil, err
	}
	questionRows, err := bg.Query(questionsQuery, backend.Int64(lec))
	r.shared.Release()
	if err != nil {
		return nil, err
	}

	answers := make(map[int64]string, len(answerRows))
	for _, row := range answerRows {
		q, err := row[0].Int()
		if err != nil {
			return nil, err
		}
		text, err := row[1].Text()
		if err != nil {
			return nil, err
		}
		answers[q] = text
	}

	view := &entity.LectureQuestions{LectureID: lec, Questions: make([]entity.LectureQuestion, 0, len(questionRows))}
	for _, row := range questionRows {
		id, err := row[0].Int()
		if err != nil {
			return nil, err
		}
		prompt, err := row[1].Text()
		if err != nil {
			return nil, err
		}
		q := entity.LectureQuestion{ID: id, Prompt: prompt}
		if text, ok := answers[id]; ok {
			q.Answer = &text
		}
		view.Questions = append(view.Questions, q)
	}
	sort.Slice(view.Questions, func(i, j int) bool {
		return view.Questions[i].ID < view.Questions[j].ID
	})
	return view, nil
}

const lectureAnswersQuery = "SELECT email, lec, q, answer, time FROM answers WHERE lec = $1"

// StaffAnswers returns every answer row for a lecture in natural store
// order. The caller is responsible for only letting admins reach this.
func (r *LectureRepository) StaffAnswers(lec int64) (*entity.LectureAnswers, error) {
	bg := r.shared.Acquire()
	rows, err := bg.Query(lectureAnswersQuery, backend.Int64(lec))
	r.shared.Release()
	if err != nil {
		return nil, err
	}

	view := &entity.LectureAnswers{LectureID: lec, Answers: make([]entity.Answer, 0, len(rows))}
	for _, row := range rows {
		var a entity.Answer
		if a.Email, err = row[0].Text(); err != nil {
			return nil, err
		}
		if a.Lecture, err = row[1].Int(); err != nil {
			return nil, err
		}
		if a.QuestionID, err = row[2].Int(); err != nil {
			return nil, err
		}
		if a.Text, err = row[3].Text(); err != nil {
			return nil, err
		}
		if !row[4].IsNull() {
			t, err := row[4].Time()
			if err != nil {
				return nil, err
			}
			a.Time = &t
		}
		view.Answers = append(view.Answers, a)
	}
	return view, nil
}

// CreateLecture inserts a new lecture row. Admin glue path.
func (r *LectureRepository) CreateLecture(id int64, label string) error {
	bg := r.shared.Acquire()
	defer r.shared.Release()
	return bg.Insert("lectures", backend.Int64(id), backend.Text(label))
}
