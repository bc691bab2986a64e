package repository

import (
	"errors"
	"path/filepath"
	"reflect"
	"sync"
	"testing"

	"classqa/internal/backend"
)

func newTestShared(t *testing.T) *backend.Shared {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	b, err := backend.New(backend.Config{
		Driver: "sqlite3",
		DSN:    path,
		Prime:  true,
	})
	if err != nil {
		t.Fatalf("backend.New failed: %v", err)
	}
	shared := backend.NewShared(b)
	t.Cleanup(func() {
		_ = shared.Close()
	})
	return shared
}

func mustCreateLecture(t *testing.T, lectures *LectureRepository, id int64, label string) {
	t.Helper()
	if err := lectures.CreateLecture(id, label); err != nil {
		t.Fatalf("CreateLecture(%d) failed: %v", id, err)
	}
}

func mustSubmit(t *testing.T, questions *QuestionRepository, lec int64, prompt string) {
	t.Helper()
	if err := questions.Submit(lec, prompt); err != nil {
		t.Fatalf("Submit(%d, %q) failed: %v", lec, prompt, err)
	}
}

func questionCount(t *testing.T, shared *backend.Shared, lec int64) int64 {
	t.Helper()
	bg := shared.Acquire()
	rows, err := bg.Query("SELECT COUNT(*) FROM questions WHERE lec = $1", backend.Int64(lec))
	shared.Release()
	if err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	n, err := rows[0][0].Int()
	if err != nil {
		t.Fatalf("count read failed: %v", err)
	}
	return n
}

func TestRosterZeroQuestions(t *testing.T) {
	shared := newTestShared(t)
	lectures := NewLectureRepository(shared)

	mustCreateLecture(t, lectures, 1, "intro")
	mustCreateLecture(t, lectures, 2, "syntax")

	view, err := lectures.Roster(false)
	if err != nil {
		t.Fatalf("Roster failed: %v", err)
	}
	if view.Admin {
		t.Fatalf("admin flag should pass through as false")
	}
	if len(view.Lectures) != 2 {
		t.Fatalf("expected 2 lectures, got %d", len(view.Lectures))
	}
	for _, lec := range view.Lectures {
		if lec.NumQs != 0 || lec.NumAnswered != 0 {
			t.Fatalf("lecture %d counts = (%d, %d), want (0, 0)", lec.ID, lec.NumQs, lec.NumAnswered)
		}
	}
}

func TestRosterCounts(t *testing.T) {
	shared := newTestShared(t)
	lectures := NewLectureRepository(shared)
	questions := NewQuestionRepository(shared, 10)
	answers := NewAnswerRepository(shared)

	mustCreateLecture(t, lectures, 1, "intro")
	mustSubmit(t, questions, 1, "why?")
	mustSubmit(t, questions, 1, "how?")
	if err := answers.Submit(1, 1, "staff@x.edu", "because"); err != nil {
		t.Fatalf("answer submit failed: %v", err)
	}

	view, err := lectures.Roster(true)
	if err != nil {
		t.Fatalf("Roster failed: %v", err)
	}
	if !view.Admin {
		t.Fatalf("admin flag should pass through as true")
	}
	if len(view.Lectures) != 1 {
		t.Fatalf("expected 1 lecture, got %d", len(view.Lectures))
	}
	got := view.Lectures[0]
	if got.NumQs != 2 || got.NumAnswered != 1 {
		t.Fatalf("counts = (%d, %d), want (2, 1)", got.NumQs, got.NumAnswered)
	}
}

func TestStudentViewIsolation(t *testing.T) {
	shared := newTestShared(t)
	lectures := NewLectureRepository(shared)
	questions := NewQuestionRepository(shared, 10)
	answers := NewAnswerRepository(shared)

	mustCreateLecture(t, lectures, 1, "intro")
	mustSubmit(t, questions, 1, "why?")

	if err := answers.Submit(1, 1, "bob@x.edu", "bob's answer"); err != nil {
		t.Fatalf("answer submit failed: %v", err)
	}

	alice, err := lectures.StudentQuestions(1, "alice@x.edu")
	if err != nil {
		t.Fatalf("StudentQuestions failed: %v", err)
	}
	if len(alice.Questions) != 1 {
		t.Fatalf("expected 1 question, got %d", len(alice.Questions))
	}
	if alice.Questions[0].Answer != nil {
		t.Fatalf("alice sees bob's answer: %q", *alice.Questions[0].Answer)
	}

	bob, err := lectures.StudentQuestions(1, "bob@x.edu")
	if err != nil {
		t.Fatalf("StudentQuestions failed: %v", err)
	}
	if bob.Questions[0].Answer == nil || *bob.Questions[0].Answer != "bob's answer" {
		t.Fatalf("bob's own answer missing: %+v", bob.Questions[0])
	}
}

func TestStudentViewSortedAscending(t *testing.T) {
	shared := newTestShared(t)
	lectures := NewLectureRepository(shared)
	questions := NewQuestionRepository(shared, 10)

	mustCreateLecture(t, lectures, 1, "intro")
	for _, prompt := range []string{"first", "second", "third"} {
		mustSubmit(t, questions, 1, prompt)
	}

	view, err := lectures.StudentQuestions(1, "alice@x.edu")
	if err != nil {
		t.Fatalf("StudentQuestions failed: %v", err)
	}
	if len(view.Questions) != 3 {
		t.Fatalf("expected 3 questions, got %d", len(view.Questions))
	}
	for i := 1; i < len(view.Questions); i++ {
		if view.Questions[i-1].ID >= view.Questions[i].ID {
			t.Fatalf("questions not ascending by id: %+v", view.Questions)
		}
	}
	if view.Questions[0].Prompt != "first" || view.Questions[2].Prompt != "third" {
		t.Fatalf("submission order not preserved: %+v", view.Questions)
	}
}

func TestReadIdempotence(t *testing.T) {
	shared := newTestShared(t)
	lectures := NewLectureRepository(shared)
	questions := NewQuestionRepository(shared, 10)

	mustCreateLecture(t, lectures, 1, "intro")
	mustSubmit(t, questions, 1, "why?")

	first, err := lectures.StudentQuestions(1, "alice@x.edu")
	if err != nil {
		t.Fatalf("first read failed: %v", err)
	}
	second, err := lectures.StudentQuestions(1, "alice@x.edu")
	if err != nil {
		t.Fatalf("second read failed: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("reads differ without intervening writes: %+v vs %+v", first, second)
	}
}

func TestStaffAnswersView(t *testing.T) {
	shared := newTestShared(t)
	lectures := NewLectureRepository(shared)
	questions := NewQuestionRepository(shared, 10)
	answers := NewAnswerRepository(shared)

	mustCreateLecture(t, lectures, 1, "intro")
	mustSubmit(t, questions, 1, "why?")
	mustSubmit(t, questions, 1, "how?")
	if err := answers.Submit(1, 1, "staff@x.edu", "because"); err != nil {
		t.Fatalf("answer submit failed: %v", err)
	}
	if err := answers.Submit(1, 2, "other@x.edu", "like this"); err != nil {
		t.Fatalf("answer submit failed: %v", err)
	}

	view, err := lectures.StaffAnswers(1)
	if err != nil {
		t.Fatalf("StaffAnswers failed: %v", err)
	}
	if len(view.Answers) != 2 {
		t.Fatalf("expected 2 answers, got %d", len(view.Answers))
	}
	for _, a := range view.Answers {
		if a.Time == nil {
			t.Fatalf("answer timestamp missing: %+v", a)
		}
	}
}

func TestAnswerResubmissionOverwrites(t *testing.T) {
	shared := newTestShared(t)
	lectures := NewLectureRepository(shared)
	questions := NewQuestionRepository(shared, 10)
	answers := NewAnswerRepository(shared)

	mustCreateLecture(t, lectures, 1, "intro")
	mustSubmit(t, questions, 1, "why?")
	if err := answers.Submit(1, 1, "staff@x.edu", "draft"); err != nil {
		t.Fatalf("answer submit failed: %v", err)
	}
	if err := answers.Submit(1, 1, "staff@x.edu", "final"); err != nil {
		t.Fatalf("answer resubmit failed: %v", err)
	}

	view, err := lectures.StaffAnswers(1)
	if err != nil {
		t.Fatalf("StaffAnswers failed: %v", err)
	}
	if len(view.Answers) != 1 {
		t.Fatalf("expected 1 answer after resubmission, got %d", len(view.Answers))
	}
	if view.Answers[0].Text != "final" {
		t.Fatalf("answer text = %q, want %q", view.Answers[0].Text, "final")
	}
}

func TestQuotaBoundary(t *testing.T) {
	shared := newTestShared(t)
	lectures := NewLectureRepository(shared)
	questions := NewQuestionRepository(shared, 3)

	mustCreateLecture(t, lectures, 1, "intro")
	mustSubmit(t, questions, 1, "one")
	mustSubmit(t, questions, 1, "two")

	// Two existing questions: a third is admitted.
	if err := questions.Submit(1, "three"); err != nil {
		t.Fatalf("submission under quota rejected: %v", err)
	}
	if n := questionCount(t, shared, 1); n != 3 {
		t.Fatalf("question count = %d, want 3", n)
	}

	// At the quota: rejected, and no row is created.
	err := questions.Submit(1, "four")
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
	if n := questionCount(t, shared, 1); n != 3 {
		t.Fatalf("rejected submission changed the count to %d", n)
	}
}

func TestConcurrentSubmissionsAdmitExactlyOne(t *testing.T) {
	shared := newTestShared(t)
	lectures := NewLectureRepository(shared)
	questions := NewQuestionRepository(shared, 1)

	mustCreateLecture(t, lectures, 1, "intro")

	const n = 16
	results := make([]error, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			results[i] = questions.Submit(1, "race")
		}(i)
	}
	wg.Wait()

	admitted := 0
	for i, err := range results {
		switch {
		case err == nil:
			admitted++
		case errors.Is(err, ErrQuotaExceeded):
		default:
			t.Fatalf("submission %d failed unexpectedly: %v", i, err)
		}
	}
	if admitted != 1 {
		t.Fatalf("%d submissions admitted, want exactly 1", admitted)
	}
	if got := questionCount(t, shared, 1); got != 1 {
		t.Fatalf("question count = %d, want 1", got)
	}
}
