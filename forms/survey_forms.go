package forms

import (
	"strings"

	"github.com/mbolis/survey-audit/model"
)

// SurveyForm is the listing page's create form. The title is taken as is.
type SurveyForm struct {
	Title string `form:"survey-title"`
}

// SectionForm is the edit page's section-creation form.
type SectionForm struct {
	Title     string `form:"section_title" validate:"required,max=100"`
	Subtitle  string `form:"section_subtitle" validate:"max=100"`
	Help      string `form:"section_help" validate:"max=300"`
	Reference string `form:"section_reference" validate:"max=100"`
}

func (f *SectionForm) Clean() {
	f.Title = strings.TrimSpace(f.Title)
	f.Subtitle = strings.TrimSpace(f.Subtitle)
	f.Help = strings.TrimSpace(f.Help)
	f.Reference = strings.TrimSpace(f.Reference)
}

func (f SectionForm) Section(surveyID int) model.Section {
	return model.Section{
		SurveyID:  surveyID,
		Title:     f.Title,
		Subtitle:  f.Subtitle,
		Help:      f.Help,
		Reference: f.Reference,
	}
}
