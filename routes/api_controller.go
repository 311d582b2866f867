package routes

import (
	"net/http"

	"github.com/go-chi/render"
	"github.com/mbolis/survey-audit/app"
	"github.com/mbolis/survey-audit/forms"
	"github.com/mbolis/survey-audit/httpx"
	"github.com/mbolis/survey-audit/log"
	"github.com/mbolis/survey-audit/model"
	"github.com/mbolis/survey-audit/store"
	"github.com/pkg/errors"
)

// storeError maps the store sentinels to a response. Anything else is a 500.
func storeError(w http.ResponseWriter, code string, id any, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		httpx.LogNotFound(w, code, id)
	case errors.Is(err, store.ErrDuplicateEmail):
		httpx.LogStatusMsg(w, http.StatusConflict, log.DebugLevel, code, "email already registered")
	case errors.Is(err, store.ErrInvalidAnswer):
		httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, code, "answer needs exactly one of text, selection or option_id, and option_id must be an option of the question")
	default:
		httpx.LogInternalError(w, code, err)
	}
}

func created(w http.ResponseWriter, r *http.Request, id int) {
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]int{"id": id})
}

func ListSurveys(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveys, err := app.ListSurveys(r.Context())
		if err != nil {
			httpx.LogInternalError(w, "api.list_surveys", err)
			return
		}
		render.JSON(w, r, map[string]any{"surveys": surveys})
	}
}

func GetSurveyById(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, err := urlID(r, "id")
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		survey, err := app.GetSurveyTree(r.Context(), surveyId)
		if err != nil {
			storeError(w, "api.get_survey", surveyId, err)
			return
		}
		render.JSON(w, r, survey)
	}
}

func UpdateSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, err := urlID(r, "id")
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		var req forms.SurveyRequest
		if err = render.DecodeJSON(r.Body, &req); err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if errs := req.Check(forms.Validate(req)); !errs.Valid() {
			httpx.LogInvalid(w, r, "api.update_survey", errs)
			return
		}

		if err = app.UpdateSurvey(r.Context(), req.Survey(surveyId)); err != nil {
			storeError(w, "api.update_survey", surveyId, err)
			return
		}
		log.WithFields(log.Fields{"survey_id": surveyId}).Info("survey updated")

		w.WriteHeader(http.StatusNoContent)
	}
}

type questionKind struct {
	Kind       model.QuestionKind `json:"kind"`
	Label      string             `json:"label"`
	HasOptions bool               `json:"has_options"`
}

// ListQuestionKinds describes the kinds a question can take, in display order.
func ListQuestionKinds(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kinds := []questionKind{}
		for _, k := range model.QuestionKinds() {
			kinds = append(kinds, questionKind{Kind: k, Label: k.String(), HasOptions: k.HasOptions()})
		}
		render.JSON(w, r, map[string]any{"kinds": kinds})
	}
}

// surveySection loads the section named in the URL, provided it belongs to
// the survey named in the URL.
func surveySection(app app.App, w http.ResponseWriter, r *http.Request, code string) (model.Section, bool) {
	surveyId, err := urlID(r, "id")
	if err != nil {
		httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
		return model.Section{}, false
	}
	sectionId, err := urlID(r, "sectionID")
	if err != nil {
		httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.section_id")
		return model.Section{}, false
	}

	section, err := app.GetSection(r.Context(), sectionId)
	if err == nil && section.SurveyID != surveyId {
		err = store.ErrNotFound
	}
	if err != nil {
		storeError(w, code+".section", sectionId, err)
		return model.Section{}, false
	}
	return section, true
}

// CreateQuestion adds a question to a section of the survey. The section
// must belong to the survey in the URL.
func CreateQuestion(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req forms.QuestionRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if errs := req.Check(forms.Validate(req)); !errs.Valid() {
			httpx.LogInvalid(w, r, "api.create_question", errs)
			return
		}

		section, ok := surveySection(app, w, r, "api.create_question")
		if !ok {
			return
		}

		q, opts := req.Question()
		q, err := app.CreateQuestion(r.Context(), section.ID, q, req.Kind, opts)
		if err != nil {
			storeError(w, "api.create_question", section.ID, err)
			return
		}
		log.WithFields(log.Fields{"section_id": section.ID, "question_id": q.ID}).Info("question created")

		created(w, r, q.ID)
	}
}

// LinkQuestion adds an existing question to a section of the survey.
// Linking twice is a no-op.
func LinkQuestion(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		questionId, err := urlID(r, "questionID")
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.question_id")
			return
		}

		section, ok := surveySection(app, w, r, "api.link_question")
		if !ok {
			return
		}

		if err = app.LinkQuestion(r.Context(), section.ID, questionId); err != nil {
			storeError(w, "api.link_question", questionId, err)
			return
		}
		log.WithFields(log.Fields{"section_id": section.ID, "question_id": questionId}).Info("question linked")

		w.WriteHeader(http.StatusNoContent)
	}
}

func DeleteQuestion(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		questionId, err := urlID(r, "id")
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		n, err := app.DeleteQuestion(r.Context(), questionId)
		if err != nil {
			httpx.LogInternalError(w, "api.delete_question", err)
			return
		}
		if n > 0 {
			log.WithFields(log.Fields{"question_id": questionId}).Info("question deleted")
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func CreateUser(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req forms.UserRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if errs := forms.Validate(req); !errs.Valid() {
			httpx.LogInvalid(w, r, "api.create_user", errs)
			return
		}

		u, err := app.CreateUser(r.Context(), req.User(), req.Password)
		if err != nil {
			storeError(w, "api.create_user", req.Email, err)
			return
		}
		log.WithFields(log.Fields{"user_id": u.ID}).Info("user created")

		created(w, r, u.ID)
	}
}

// FindUser looks a user up by the email query parameter, ignoring case.
func FindUser(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email := r.URL.Query().Get("email")
		if email == "" {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "request.get_query.email", "email query parameter is required")
			return
		}

		u, err := app.GetUserByEmail(r.Context(), email)
		if err != nil {
			storeError(w, "api.find_user", email, err)
			return
		}
		render.JSON(w, r, u)
	}
}

func AssignUser(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, err := urlID(r, "id")
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		var req forms.AssigneeRequest
		if err = render.DecodeJSON(r.Body, &req); err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if errs := forms.Validate(req); !errs.Valid() {
			httpx.LogInvalid(w, r, "api.assign_user", errs)
			return
		}

		if err = app.AssignUser(r.Context(), surveyId, req.UserID); err != nil {
			storeError(w, "api.assign_user", surveyId, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func ListAssignees(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, err := urlID(r, "id")
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		if _, err = app.GetSurvey(r.Context(), surveyId); err != nil {
			storeError(w, "api.list_assignees", surveyId, err)
			return
		}
		users, err := app.ListAssignees(r.Context(), surveyId)
		if err != nil {
			httpx.LogInternalError(w, "api.list_assignees", err)
			return
		}
		render.JSON(w, r, map[string]any{"users": users})
	}
}

func StartResponse(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, err := urlID(r, "id")
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		var req forms.ResponseRequest
		if err = render.DecodeJSON(r.Body, &req); err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if errs := forms.Validate(req); !errs.Valid() {
			httpx.LogInvalid(w, r, "api.start_response", errs)
			return
		}

		resp, err := app.StartResponse(r.Context(), req.UserID, surveyId, req.ModelAnswers())
		if err != nil {
			storeError(w, "api.start_response", surveyId, err)
			return
		}
		log.WithFields(log.Fields{"survey_id": surveyId, "response_id": resp.ID}).Info("response started")

		created(w, r, resp.ID)
	}
}

func AddAnswer(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responseId, err := urlID(r, "id")
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		var req forms.AnswerRequest
		if err = render.DecodeJSON(r.Body, &req); err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if errs := forms.Validate(req); !errs.Valid() {
			httpx.LogInvalid(w, r, "api.add_answer", errs)
			return
		}

		a, err := app.AddAnswer(r.Context(), responseId, req.Answer())
		if err != nil {
			storeError(w, "api.add_answer", responseId, err)
			return
		}

		created(w, r, a.ID)
	}
}

func CompleteResponse(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responseId, err := urlID(r, "id")
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		if err = app.CompleteResponse(r.Context(), responseId); err != nil {
			storeError(w, "api.complete_response", responseId, err)
			return
		}
		log.WithFields(log.Fields{"response_id": responseId}).Info("response completed")

		w.WriteHeader(http.StatusNoContent)
	}
}

func DeleteResponse(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responseId, err := urlID(r, "id")
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		if _, err = app.DeleteResponse(r.Context(), responseId); err != nil {
			httpx.LogInternalError(w, "api.delete_response", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func ListResponses(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, err := urlID(r, "id")
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		if _, err = app.GetSurvey(r.Context(), surveyId); err != nil {
			storeError(w, "api.list_responses", surveyId, err)
			return
		}
		responses, err := app.ListResponses(r.Context(), surveyId)
		if err != nil {
			httpx.LogInternalError(w, "api.list_responses", err)
			return
		}
		render.JSON(w, r, map[string]any{"responses": responses})
	}
}

// Health pings the database.
func Health(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := app.Ping(r.Context()); err != nil {
			httpx.LogStatusMsg(w, http.StatusServiceUnavailable, log.ErrorLevel, "health.db_ping", "database unavailable")
			return
		}
		render.PlainText(w, r, "OK")
	}
}
