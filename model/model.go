package model

import (
	"fmt"
	"time"
)

type User struct {
	ID             int       `json:"id"`
	FirstName      string    `json:"first_name"`
	Surname        string    `json:"surname"`
	Email          string    `json:"email"`
	IsStaff        bool      `json:"is_staff"`
	IsSuperuser    bool      `json:"is_superuser"`
	EmailConfirmed bool      `json:"email_confirmed"`
	DateJoined     time.Time `json:"date_joined"`
}

func (u User) String() string {
	return u.Email
}

type Survey struct {
	ID        int        `json:"id"`
	Title     string     `json:"title"`
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	IsOngoing bool       `json:"is_ongoing"`
	Sections  []Section  `json:"sections,omitempty"`
}

func (s Survey) String() string {
	return s.Title
}

type Section struct {
	ID        int        `json:"id"`
	SurveyID  int        `json:"survey_id"`
	Title     string     `json:"title"`
	Subtitle  string     `json:"subtitle"`
	Help      string     `json:"help"`
	Reference string     `json:"reference"`
	Questions []Question `json:"questions,omitempty"`
}

func (s Section) String() string {
	return s.Title
}

type Question struct {
	ID              int              `json:"id"`
	Text            string           `json:"text"`
	Help            string           `json:"help"`
	Reference       string           `json:"reference"`
	SurveyReference string           `json:"survey_reference"`
	Type            *QuestionType    `json:"type,omitempty"`
	Options         []QuestionOption `json:"options,omitempty"`
}

func (q Question) String() string {
	return q.Text
}

type QuestionKind string

const (
	KindFreeText       QuestionKind = "free_text"
	KindSingleChoice   QuestionKind = "single_choice"
	KindMultipleChoice QuestionKind = "multiple_choice"
	KindYesNo          QuestionKind = "yes_no"
	KindYesNoOther     QuestionKind = "yes_no_other"
	KindYesNoUncertain QuestionKind = "yes_no_uncertain"
	KindYesNoNA        QuestionKind = "yes_no_na"
)

var kindLabels = map[QuestionKind]string{
	KindFreeText:       "Free text",
	KindSingleChoice:   "Single choice",
	KindMultipleChoice: "Multiple choice",
	KindYesNo:          "Yes/No",
	KindYesNoOther:     "Yes/No/Other",
	KindYesNoUncertain: "Yes/No/Uncertain",
	KindYesNoNA:        "Yes/No/Not applicable",
}

// QuestionKinds lists every kind in display order.
func QuestionKinds() []QuestionKind {
	return []QuestionKind{
		KindFreeText,
		KindSingleChoice,
		KindMultipleChoice,
		KindYesNo,
		KindYesNoOther,
		KindYesNoUncertain,
		KindYesNoNA,
	}
}

func (k QuestionKind) Valid() bool {
	_, ok := kindLabels[k]
	return ok
}

func (k QuestionKind) String() string {
	if label, ok := kindLabels[k]; ok {
		return label
	}
	return string(k)
}

// HasOptions reports whether answers pick from QuestionOptions.
func (k QuestionKind) HasOptions() bool {
	return k == KindSingleChoice || k == KindMultipleChoice
}

type QuestionType struct {
	ID         int          `json:"id"`
	QuestionID int          `json:"question_id"`
	Kind       QuestionKind `json:"kind"`
}

func (t QuestionType) String() string {
	return t.Kind.String()
}

type QuestionOption struct {
	ID         int    `json:"id"`
	QuestionID int    `json:"question_id"`
	Text       string `json:"text"`
	Help       string `json:"help"`
	Reference  string `json:"reference"`
	Position   int    `json:"position"`
}

func (o QuestionOption) String() string {
	return o.Text
}

type Response struct {
	ID          int        `json:"id"`
	UserID      int        `json:"user_id"`
	SurveyID    int        `json:"survey_id"`
	StartedAt   time.Time  `json:"started_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	IsComplete  bool       `json:"is_complete"`
	Answers     []Answer   `json:"answers"`
}

func (r Response) String() string {
	return fmt.Sprintf("user %d – survey %d", r.UserID, r.SurveyID)
}

// Answer holds exactly one of Text, Selection or OptionID.
type Answer struct {
	ID         int     `json:"id"`
	ResponseID int     `json:"response_id"`
	QuestionID int     `json:"question_id"`
	Text       *string `json:"text,omitempty"`
	Selection  *int    `json:"selection,omitempty"`
	OptionID   *int    `json:"option_id,omitempty"`
}

func (a Answer) String() string {
	switch {
	case a.Text != nil:
		return *a.Text
	case a.Selection != nil:
		return fmt.Sprint(*a.Selection)
	case a.OptionID != nil:
		return fmt.Sprintf("option %d", *a.OptionID)
	}
	return ""
}
