package entity

import "time"

type Lecture struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
}

type Question struct {
	ID      int64  `json:"id"`
	Lecture int64  `json:"lec"`
	Prompt  string `json:"prompt"`
}

// Answer is one staff answer row, keyed by (Email, Lecture, QuestionID).
type Answer struct {
	Email      string     `json:"email"`
	Lecture    int64      `json:"lec"`
	QuestionID int64      `json:"q"`
	Text       string     `json:"answer"`
	Time       *time.Time `json:"time,omitempty"`
}
