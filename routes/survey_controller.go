package routes

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/mbolis/survey-audit/app"
	"github.com/mbolis/survey-audit/forms"
	"github.com/mbolis/survey-audit/httpx"
	"github.com/mbolis/survey-audit/log"
	"github.com/mbolis/survey-audit/store"
	"github.com/mbolis/survey-audit/views"
	"github.com/pkg/errors"
)

func urlID(r *http.Request, name string) (int, error) {
	return strconv.Atoi(chi.URLParam(r, name))
}

func renderPage(app app.App, w http.ResponseWriter, r *http.Request, status int, name string, data views.Context) {
	if err := app.Views.Render(w, r, status, name, data); err != nil {
		httpx.LogInternalError(w, "views.render", err)
	}
}

func renderListing(app app.App, w http.ResponseWriter, r *http.Request, code string) {
	surveys, err := app.ListSurveys(r.Context())
	if err != nil {
		httpx.LogInternalError(w, code+".list", err)
		return
	}

	renderPage(app, w, r, http.StatusOK, "home.html", views.Context{
		"surveys": surveys,
	})
}

// Index renders every survey.
func Index(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		renderListing(app, w, r, "index")
	}
}

// CreateSurvey takes the survey-title field as is, empty included, and
// renders the listing again.
func CreateSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var f forms.SurveyForm
		if _, err := forms.Bind(w, r, &f); err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_form")
			return
		}

		survey, err := app.CreateSurvey(r.Context(), f.Title)
		if err != nil {
			httpx.LogInternalError(w, "create_survey", err)
			return
		}
		log.WithFields(log.Fields{"survey_id": survey.ID}).Info("survey created")

		renderListing(app, w, r, "create_survey")
	}
}

// DeleteSurvey removes the survey if it exists and renders the listing
// either way.
func DeleteSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, err := urlID(r, "id")
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		n, err := app.DeleteSurvey(r.Context(), surveyId)
		if err != nil {
			httpx.LogInternalError(w, "delete_survey", err)
			return
		}
		if n == 0 {
			log.Debugf("delete_survey: nothing to delete (%d)", surveyId)
		} else {
			log.WithFields(log.Fields{"survey_id": surveyId}).Info("survey deleted")
		}

		renderListing(app, w, r, "delete_survey")
	}
}

// EditSurvey shows the survey with an empty section form on GET. On POST it
// validates the form, adds the section when valid, and shows the page
// again, with field errors when not.
func EditSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, err := urlID(r, "id")
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		survey, err := app.GetSurvey(r.Context(), surveyId)
		if errors.Is(err, store.ErrNotFound) {
			httpx.LogNotFound(w, "edit_survey", surveyId)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "edit_survey.get", err)
			return
		}

		var (
			form forms.SectionForm
			errs forms.Errors
		)
		if r.Method == http.MethodPost {
			errs, err = forms.Bind(w, r, &form)
			if err != nil {
				httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_form")
				return
			}

			if errs.Valid() {
				// the new section belongs to the survey being edited
				section, err := app.CreateSection(r.Context(), form.Section(survey.ID))
				if errors.Is(err, store.ErrNotFound) {
					httpx.LogNotFound(w, "edit_survey.create_section", surveyId)
					return
				}
				if err != nil {
					httpx.LogInternalError(w, "edit_survey.create_section", err)
					return
				}
				log.WithFields(log.Fields{"survey_id": survey.ID, "section_id": section.ID}).Info("section created")
				form = forms.SectionForm{}
			} else {
				log.WithError(errs.Err()).Debug("edit_survey: invalid section form")
			}
		}

		sections, err := app.ListSections(r.Context(), survey.ID)
		if err != nil {
			httpx.LogInternalError(w, "edit_survey.sections", err)
			return
		}

		renderPage(app, w, r, http.StatusOK, "edit.html", views.Context{
			"survey":   survey,
			"sections": sections,
			"form":     form,
			"errors":   errs,
		})
	}
}
