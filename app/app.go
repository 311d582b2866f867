package app

import (
	"github.com/mbolis/survey-audit/config"
	"github.com/mbolis/survey-audit/store"
	"github.com/mbolis/survey-audit/views"
)

type App struct {
	*store.Store
	Views *views.Renderer
	config.Config
}
