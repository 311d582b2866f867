package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mbolis/survey-audit/app"
	"github.com/mbolis/survey-audit/routes/middlewares"
)

func Wire(app app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(middleware.RequestID, middleware.RealIP, middlewares.Logger, middleware.Recoverer)

	root.Get("/", Index(app))
	root.Get("/health", Health(app))

	root.Group(func(r chi.Router) {
		r.Use(middlewares.RequireForm)

		r.Post("/create-base-survey", CreateSurvey(app))
		r.Post(`/base-survey/{id:^\d+$}/delete`, DeleteSurvey(app))
		r.Post(`/base-survey/{id:^\d+$}/edit`, EditSurvey(app))
	})
	root.Get(`/base-survey/{id:^\d+$}/edit`, EditSurvey(app))

	root.Mount("/api", apiRouter(app))

	return root
}

func apiRouter(app app.App) http.Handler {
	api := chi.NewRouter()
	api.Use(middleware.AllowContentType("application/json"))

	api.Get("/surveys", ListSurveys(app))
	api.Get(`/surveys/{id:^\d+$}`, GetSurveyById(app))
	api.Put(`/surveys/{id:^\d+$}`, UpdateSurvey(app))

	api.Get("/question-kinds", ListQuestionKinds(app))
	api.Post(`/surveys/{id:^\d+$}/sections/{sectionID:^\d+$}/questions`, CreateQuestion(app))
	api.Post(`/surveys/{id:^\d+$}/sections/{sectionID:^\d+$}/questions/{questionID:^\d+$}`, LinkQuestion(app))
	api.Delete(`/questions/{id:^\d+$}`, DeleteQuestion(app))

	api.Get("/users", FindUser(app))
	api.Post("/users", CreateUser(app))
	api.Get(`/surveys/{id:^\d+$}/assignees`, ListAssignees(app))
	api.Post(`/surveys/{id:^\d+$}/assignees`, AssignUser(app))

	api.Get(`/surveys/{id:^\d+$}/responses`, ListResponses(app))
	api.Post(`/surveys/{id:^\d+$}/responses`, StartResponse(app))
	api.Post(`/responses/{id:^\d+$}/answers`, AddAnswer(app))
	api.Post(`/responses/{id:^\d+$}/complete`, CompleteResponse(app))
	api.Delete(`/responses/{id:^\d+$}`, DeleteResponse(app))

	return api
}
