package forms

import (
	"time"

	"github.com/mbolis/survey-audit/model"
)

// JSON request bodies of the /api routes.

// SurveyRequest replaces a survey's editable fields. Like the HTML form, the
// title is taken as is.
type SurveyRequest struct {
	Title     string     `json:"title"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
	IsOngoing bool       `json:"is_ongoing"`
}

// Check rejects an end date before the start date.
func (r SurveyRequest) Check(errs Errors) Errors {
	if errs == nil {
		errs = Errors{}
	}
	if r.StartDate != nil && r.EndDate != nil && r.EndDate.Before(*r.StartDate) {
		errs.Add("end_date", "End date must not be before start date.")
	}
	return errs
}

func (r SurveyRequest) Survey(id int) model.Survey {
	return model.Survey{
		ID:        id,
		Title:     r.Title,
		StartDate: r.StartDate,
		EndDate:   r.EndDate,
		IsOngoing: r.IsOngoing,
	}
}

type UserRequest struct {
	FirstName      string `json:"first_name" validate:"max=150"`
	Surname        string `json:"surname" validate:"max=150"`
	Email          string `json:"email" validate:"required,email,max=254"`
	Password       string `json:"password" validate:"omitempty,min=8,max=72"`
	IsStaff        bool   `json:"is_staff"`
	IsSuperuser    bool   `json:"is_superuser"`
	EmailConfirmed bool   `json:"email_confirmed"`
}

func (r UserRequest) User() model.User {
	return model.User{
		FirstName:      r.FirstName,
		Surname:        r.Surname,
		Email:          r.Email,
		IsStaff:        r.IsStaff,
		IsSuperuser:    r.IsSuperuser,
		EmailConfirmed: r.EmailConfirmed,
	}
}

type OptionRequest struct {
	Text      string `json:"text" validate:"required,max=100"`
	Help      string `json:"help" validate:"max=100"`
	Reference string `json:"reference" validate:"max=100"`
}

type QuestionRequest struct {
	Text            string             `json:"text" validate:"required,max=100"`
	Help            string             `json:"help" validate:"max=100"`
	Reference       string             `json:"reference" validate:"max=100"`
	SurveyReference string             `json:"survey_reference" validate:"max=100"`
	Kind            model.QuestionKind `json:"kind" validate:"required,question_kind"`
	Options         []OptionRequest    `json:"options" validate:"dive"`
}

// Check adds the rules tags cannot express: choice kinds need options,
// the others take none.
func (r QuestionRequest) Check(errs Errors) Errors {
	if errs == nil {
		errs = Errors{}
	}
	if !r.Kind.Valid() {
		return errs
	}
	if r.Kind.HasOptions() && len(r.Options) < 2 {
		errs.Add("options", "Choice questions need at least 2 options.")
	}
	if !r.Kind.HasOptions() && len(r.Options) > 0 {
		errs.Add("options", "Only choice questions take options.")
	}
	return errs
}

func (r QuestionRequest) Question() (model.Question, []model.QuestionOption) {
	opts := make([]model.QuestionOption, len(r.Options))
	for i, o := range r.Options {
		opts[i] = model.QuestionOption{Text: o.Text, Help: o.Help, Reference: o.Reference}
	}
	return model.Question{
		Text:            r.Text,
		Help:            r.Help,
		Reference:       r.Reference,
		SurveyReference: r.SurveyReference,
	}, opts
}

type AssigneeRequest struct {
	UserID int `json:"user_id" validate:"required,min=1"`
}

type AnswerRequest struct {
	QuestionID int     `json:"question_id" validate:"required,min=1"`
	Text       *string `json:"text" validate:"required_without_all=Selection OptionID,excluded_with=Selection OptionID"`
	Selection  *int    `json:"selection" validate:"required_without_all=Text OptionID,excluded_with=Text OptionID"`
	OptionID   *int    `json:"option_id" validate:"required_without_all=Text Selection,excluded_with=Text Selection"`
}

func (r AnswerRequest) Answer() model.Answer {
	return model.Answer{
		QuestionID: r.QuestionID,
		Text:       r.Text,
		Selection:  r.Selection,
		OptionID:   r.OptionID,
	}
}

type ResponseRequest struct {
	UserID  int             `json:"user_id" validate:"required,min=1"`
	Answers []AnswerRequest `json:"answers" validate:"dive"`
}

func (r ResponseRequest) ModelAnswers() []model.Answer {
	answers := make([]model.Answer, len(r.Answers))
	for i, a := range r.Answers {
		answers[i] = a.Answer()
	}
	return answers
}
