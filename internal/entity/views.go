package entity

// Derived read views. None of these are persisted; they are rebuilt from
// the store on every request.

// LectureListEntry is one roster line: a lecture with its question and
// answered-question counts. Lectures without questions report zero.
type LectureListEntry struct {
	ID          int64  `json:"id"`
	Label       string `json:"label"`
	NumQs       int64  `json:"num_qs"`
	NumAnswered int64  `json:"num_answered"`
}

// LectureList is the roster view. Admin reflects the requesting identity's
// administrative status as decided by the caller, never by the core.
type LectureList struct {
	Admin    bool               `json:"admin"`
	Lectures []LectureListEntry `json:"lectures"`
}

// LectureQuestion is a question joined against the requesting identity's
// own answer, if any. Answer stays nil when that identity has not answered.
type LectureQuestion struct {
	ID     int64   `json:"id"`
	Prompt string  `json:"prompt"`
	Answer *string `json:"answer,omitempty"`
}

// LectureQuestions is the per-student view for one lecture, sorted
// ascending by question id.
type LectureQuestions struct {
	LectureID int64             `json:"lec_id"`
	Questions []LectureQuestion `json:"questions"`
}

// LectureAnswers is the staff triage view: every answer row for a lecture.
type LectureAnswers struct {
	LectureID int64    `json:"lec_id"`
	Answers   []Answer `json:"answers"`
}
