// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/mbolis/survey-audit/database"
	"github.com/mbolis/survey-audit/log"
	"github.com/mbolis/survey-audit/model"
	"github.com/mbolis/survey-audit/store"
)

func init() {
	log.SetLevel(log.ErrorLevel)
}

// SetupTestDB opens a fresh, fully migrated database in a temp directory.
// It is closed when the test ends.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "test.sqlite"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return db
}

// SetupTestStore is SetupTestDB wrapped in a *store.Store.
func SetupTestStore(t *testing.T) (*store.Store, *sql.DB) {
	t.Helper()
	db := SetupTestDB(t)
	return store.New(db), db
}

func CreateTestSurvey(t *testing.T, s *store.Store, title string) model.Survey {
	t.Helper()
	survey, err := s.CreateSurvey(context.Background(), title)
	if err != nil {
		t.Fatalf("Failed to create test survey: %v", err)
	}
	return survey
}

func CreateTestSection(t *testing.T, s *store.Store, surveyID int, title string) model.Section {
	t.Helper()
	sec, err := s.CreateSection(context.Background(), model.Section{SurveyID: surveyID, Title: title})
	if err != nil {
		t.Fatalf("Failed to create test section: %v", err)
	}
	return sec
}

// CreateTestQuestion adds a single-choice question with two options to the section.
func CreateTestQuestion(t *testing.T, s *store.Store, sectionID int, text string) model.Question {
	t.Helper()
	q, err := s.CreateQuestion(context.Background(), sectionID,
		model.Question{Text: text},
		model.KindSingleChoice,
		[]model.QuestionOption{{Text: "Yes"}, {Text: "No"}},
	)
	if err != nil {
		t.Fatalf("Failed to create test question: %v", err)
	}
	return q
}

func CreateTestUser(t *testing.T, s *store.Store, email string) model.User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), model.User{Email: email}, "")
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return u
}

// Count returns the number of rows in table.
func Count(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatalf("Failed to count %s: %v", table, err)
	}
	return n
}
