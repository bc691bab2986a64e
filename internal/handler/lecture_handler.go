package handler

import (
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"classqa/internal/middleware"
	"classqa/internal/repository"
)

// LectureHandler is the request-layer glue around the core: it resolves
// the requesting identity, calls the repositories, and renders the views
// after every guard has been released.
type LectureHandler struct {
	lectures  *repository.LectureRepository
	questions *repository.QuestionRepository
	answers   *repository.AnswerRepository
	isAdmin   func(email string) bool

	tplList      *template.Template
	tplQuestions *template.Template
	tplAnswers   *template.Template
}

func NewLectureHandler(
	lectures *repository.LectureRepository,
	questions *repository.QuestionRepository,
	answers *repository.AnswerRepository,
	isAdmin func(email string) bool,
) *LectureHandler {
	return &LectureHandler{
		lectures:     lectures,
		questions:    questions,
		answers:      answers,
		isAdmin:      isAdmin,
		tplList:      template.Must(template.ParseFiles("internal/templates/leclist.html")),
		tplQuestions: template.Must(template.ParseFiles("internal/templates/questions.html")),
		tplAnswers:   template.Must(template.ParseFiles("internal/templates/answers.html")),
	}
}

// List renders the lecture roster.
func (h *LectureHandler) List(w http.ResponseWriter, r *http.Request) {
	email, _ := middleware.Identity(r)

	view, err := h.lectures.Roster(h.isAdmin(email))
	if err != nil {
		slog.Error("roster view failed", "error", err)
		http.Error(w, "failed to load lectures", http.StatusInternalServerError)
		return
	}

	h.tplList.Execute(w, view)
}

// Questions renders a lecture's questions joined against the requesting
// identity's own answers.
func (h *LectureHandler) Questions(w http.ResponseWriter, r *http.Request) {
	email, _ := middleware.Identity(r)
	lec, err := lectureID(r)
	if err != nil {
		http.Error(w, "bad lecture id", http.StatusBadRequest)
		return
	}

	view, err := h.lectures.StudentQuestions(lec, email)
	if err != nil {
		slog.Error("questions view failed", "lec", lec, "error", err)
		http.Error(w, "failed to load questions", http.StatusInternalServerError)
		return
	}

	h.tplQuestions.Execute(w, map[string]any{
		"View":  view,
		"Error": r.URL.Query().Get("error"),
	})
}

// SubmitQuestion admits a new question against the lecture's quota.
func (h *LectureHandler) SubmitQuestion(w http.ResponseWriter, r *http.Request) {
	lec, err := lectureID(r)
	if err != nil {
		http.Error(w, "bad lecture id", http.StatusBadRequest)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	prompt := strings.TrimSpace(r.FormValue("prompt"))
	target := "/questions/" + strconv.FormatInt(lec, 10)
	if prompt == "" {
		http.Redirect(w, r, target+"?error=empty", http.StatusSeeOther)
		return
	}

	switch err := h.questions.Submit(lec, prompt); {
	case errors.Is(err, repository.ErrQuotaExceeded):
		http.Redirect(w, r, target+"?error=quota", http.StatusSeeOther)
	case err != nil:
		slog.Error("question submission failed", "lec", lec, "error", err)
		http.Error(w, "failed to submit question", http.StatusInternalServerError)
	default:
		http.Redirect(w, r, target, http.StatusSeeOther)
	}
}

// Answers renders the raw answer listing for staff triage.
func (h *LectureHandler) Answers(w http.ResponseWriter, r *http.Request) {
	email, _ := middleware.Identity(r)
	if !h.isAdmin(email) {
		http.Error(w, "admins only", http.StatusForbidden)
		return
	}
	lec, err := lectureID(r)
	if err != nil {
		http.Error(w, "bad lecture id", http.StatusBadRequest)
		return
	}

	view, err := h.lectures.StaffAnswers(lec)
	if err != nil {
		slog.Error("answers view failed", "lec", lec, "error", err)
		http.Error(w, "failed to load answers", http.StatusInternalServerError)
		return
	}

	h.tplAnswers.Execute(w, view)
}

// SubmitAnswer stores a staff answer for one question, overwriting the
// author's previous answer if any.
func (h *LectureHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	email, _ := middleware.Identity(r)
	if !h.isAdmin(email) {
		http.Error(w, "admins only", http.StatusForbidden)
		return
	}
	lec, err := lectureID(r)
	if err != nil {
		http.Error(w, "bad lecture id", http.StatusBadRequest)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	question, err := strconv.ParseInt(r.FormValue("q"), 10, 64)
	if err != nil {
		http.Error(w, "bad question id", http.StatusBadRequest)
		return
	}

	text := strings.TrimSpace(r.FormValue("answer"))
	if text == "" {
		http.Redirect(w, r, "/answers/"+strconv.FormatInt(lec, 10), http.StatusSeeOther)
		return
	}

	if err := h.answers.Submit(lec, question, email, text); err != nil {
		slog.Error("answer submission failed", "lec", lec, "q", question, "error", err)
		http.Error(w, "failed to submit answer", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/answers/"+strconv.FormatInt(lec, 10), http.StatusSeeOther)
}

// AddLecture creates a lecture row. Admin glue path.
func (h *LectureHandler) AddLecture(w http.ResponseWriter, r *http.Request) {
	email, _ := middleware.Identity(r)
	if !h.isAdmin(email) {
		http.Error(w, "admins only", http.StatusForbidden)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	id, err := strconv.ParseInt(r.FormValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "bad lecture id", http.StatusBadRequest)
		return
	}
	label := strings.TrimSpace(r.FormValue("label"))
	if label == "" {
		http.Error(w, "label required", http.StatusBadRequest)
		return
	}

	if err := h.lectures.CreateLecture(id, label); err != nil {
		slog.Error("lecture creation failed", "id", id, "error", err)
		http.Error(w, "failed to create lecture", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func lectureID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("num"), 10, 64)
}
