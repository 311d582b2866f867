package routes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/mbolis/survey-audit/model"
	"github.com/mbolis/survey-audit/testutil"
)

func decodeID(t *testing.T, body string) int {
	t.Helper()
	var res struct {
		ID int `json:"id"`
	}
	if err := json.Unmarshal([]byte(body), &res); err != nil {
		t.Fatalf("Failed to decode response %q: %v", body, err)
	}
	return res.ID
}

func TestAPIListSurveys(t *testing.T) {
	ts := setupServer(t)
	testutil.CreateTestSurvey(t, ts.store, "A")
	testutil.CreateTestSurvey(t, ts.store, "B")

	w := ts.get("/api/surveys")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var res struct {
		Surveys []model.Survey `json:"surveys"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if len(res.Surveys) != 2 || res.Surveys[0].Title != "A" || res.Surveys[1].Title != "B" {
		t.Errorf("surveys = %+v", res.Surveys)
	}
}

func TestAPIGetSurveyTree(t *testing.T) {
	ts := setupServer(t)
	survey := testutil.CreateTestSurvey(t, ts.store, "Kitchen audit")
	sec := testutil.CreateTestSection(t, ts.store, survey.ID, "Hygiene")
	testutil.CreateTestQuestion(t, ts.store, sec.ID, "Clean?")

	w := ts.get(fmt.Sprintf("/api/surveys/%d", survey.ID))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var got model.Survey
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got.Sections) != 1 || len(got.Sections[0].Questions) != 1 {
		t.Fatalf("tree = %+v", got)
	}
	q := got.Sections[0].Questions[0]
	if q.Text != "Clean?" || q.Type == nil || q.Type.Kind != model.KindSingleChoice || len(q.Options) != 2 {
		t.Errorf("question = %+v", q)
	}

	if w := ts.get("/api/surveys/999"); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestAPICreateQuestion(t *testing.T) {
	ts := setupServer(t)
	survey := testutil.CreateTestSurvey(t, ts.store, "Kitchen audit")
	sec := testutil.CreateTestSection(t, ts.store, survey.ID, "Hygiene")
	target := fmt.Sprintf("/api/surveys/%d/sections/%d/questions", survey.ID, sec.ID)

	w := ts.postJSON(target, `{
		"text": "Floors mopped?",
		"kind": "multiple_choice",
		"options": [{"text": "Daily"}, {"text": "Weekly"}, {"text": "Never"}]
	}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	if decodeID(t, w.Body.String()) == 0 {
		t.Error("expected a question id")
	}

	if n := testutil.Count(t, ts.db, "question_option"); n != 3 {
		t.Errorf("Expected 3 options, got %d", n)
	}
	if n := testutil.Count(t, ts.db, "section_question"); n != 1 {
		t.Errorf("Expected 1 section link, got %d", n)
	}
}

func TestAPICreateQuestionInvalid(t *testing.T) {
	ts := setupServer(t)
	survey := testutil.CreateTestSurvey(t, ts.store, "Kitchen audit")
	sec := testutil.CreateTestSection(t, ts.store, survey.ID, "Hygiene")
	other := testutil.CreateTestSurvey(t, ts.store, "Other")
	target := fmt.Sprintf("/api/surveys/%d/sections/%d/questions", survey.ID, sec.ID)

	tests := []struct {
		name   string
		target string
		body   string
		status int
		field  string
	}{
		{"malformed body", target, `{"text":`, http.StatusBadRequest, ""},
		{"missing text", target, `{"kind":"yes_no"}`, http.StatusBadRequest, "text"},
		{"unknown kind", target, `{"text":"Q","kind":"essay"}`, http.StatusBadRequest, "kind"},
		{"choice without options", target, `{"text":"Q","kind":"single_choice","options":[{"text":"A"}]}`, http.StatusBadRequest, "options"},
		{"yes/no with options", target, `{"text":"Q","kind":"yes_no","options":[{"text":"A"},{"text":"B"}]}`, http.StatusBadRequest, "options"},
		{"missing section", fmt.Sprintf("/api/surveys/%d/sections/999/questions", survey.ID), `{"text":"Q","kind":"yes_no"}`, http.StatusNotFound, ""},
		{"section of another survey", fmt.Sprintf("/api/surveys/%d/sections/%d/questions", other.ID, sec.ID), `{"text":"Q","kind":"yes_no"}`, http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.postJSON(tt.target, tt.body)
			if w.Code != tt.status {
				t.Fatalf("Expected status %d, got %d: %s", tt.status, w.Code, w.Body.String())
			}
			if tt.field != "" {
				var res struct {
					Errors map[string][]string `json:"errors"`
				}
				if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
					t.Fatal(err)
				}
				if len(res.Errors[tt.field]) == 0 {
					t.Errorf("expected an error on %q, got %v", tt.field, res.Errors)
				}
			}
		})
	}

	if n := testutil.Count(t, ts.db, "question"); n != 0 {
		t.Errorf("Expected no question, got %d", n)
	}
}

func TestAPIDeleteQuestion(t *testing.T) {
	ts := setupServer(t)
	survey := testutil.CreateTestSurvey(t, ts.store, "Kitchen audit")
	sec := testutil.CreateTestSection(t, ts.store, survey.ID, "Hygiene")
	q := testutil.CreateTestQuestion(t, ts.store, sec.ID, "Clean?")

	for i := 0; i < 2; i++ {
		w := ts.do(http.MethodDelete, fmt.Sprintf("/api/questions/%d", q.ID), "", "")
		if w.Code != http.StatusNoContent {
			t.Fatalf("delete #%d: expected status 204, got %d", i+1, w.Code)
		}
	}

	for _, table := range []string{"question", "question_type", "question_option", "section_question"} {
		if n := testutil.Count(t, ts.db, table); n != 0 {
			t.Errorf("Expected %s to be empty, got %d", table, n)
		}
	}
}

func TestAPICreateUser(t *testing.T) {
	ts := setupServer(t)

	w := ts.postJSON("/api/users", `{"email":"ada@example.com","first_name":"Ada","password":"correct horse"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	w = ts.postJSON("/api/users", `{"email":"ADA@example.com"}`)
	if w.Code != http.StatusConflict {
		t.Errorf("Expected status 409, got %d", w.Code)
	}

	w = ts.postJSON("/api/users", `{"email":"not-an-email"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}

	if n := testutil.Count(t, ts.db, "user"); n != 1 {
		t.Errorf("Expected 1 user, got %d", n)
	}
}

func TestAPIRejectsNonJSON(t *testing.T) {
	ts := setupServer(t)

	w := ts.do(http.MethodPost, "/api/users", "application/x-www-form-urlencoded", "email=a%40x.com")
	if w.Code != http.StatusUnsupportedMediaType {
		t.Errorf("Expected status 415, got %d", w.Code)
	}
}

func TestAPIAssignUser(t *testing.T) {
	ts := setupServer(t)
	survey := testutil.CreateTestSurvey(t, ts.store, "Kitchen audit")
	u := testutil.CreateTestUser(t, ts.store, "ada@example.com")
	target := fmt.Sprintf("/api/surveys/%d/assignees", survey.ID)
	body := fmt.Sprintf(`{"user_id":%d}`, u.ID)

	for i := 0; i < 2; i++ {
		if w := ts.postJSON(target, body); w.Code != http.StatusNoContent {
			t.Fatalf("assign #%d: expected status 204, got %d", i+1, w.Code)
		}
	}
	if n := testutil.Count(t, ts.db, "survey_user"); n != 1 {
		t.Errorf("Expected 1 assignment, got %d", n)
	}

	w := ts.get(target)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "ada@example.com") {
		t.Errorf("assignees = %d %s", w.Code, w.Body.String())
	}

	if w := ts.postJSON(target, `{"user_id":999}`); w.Code != http.StatusNotFound {
		t.Errorf("unknown user: expected status 404, got %d", w.Code)
	}
	if w := ts.postJSON("/api/surveys/999/assignees", body); w.Code != http.StatusNotFound {
		t.Errorf("unknown survey: expected status 404, got %d", w.Code)
	}
	if w := ts.get("/api/surveys/999/assignees"); w.Code != http.StatusNotFound {
		t.Errorf("unknown survey listing: expected status 404, got %d", w.Code)
	}
}

func TestAPIResponseLifecycle(t *testing.T) {
	ts := setupServer(t)
	survey := testutil.CreateTestSurvey(t, ts.store, "Kitchen audit")
	sec := testutil.CreateTestSection(t, ts.store, survey.ID, "Hygiene")
	q := testutil.CreateTestQuestion(t, ts.store, sec.ID, "Clean?")
	u := testutil.CreateTestUser(t, ts.store, "ada@example.com")

	w := ts.postJSON(fmt.Sprintf("/api/surveys/%d/responses", survey.ID),
		fmt.Sprintf(`{"user_id":%d,"answers":[{"question_id":%d,"text":"spotless"}]}`, u.ID, q.ID))
	if w.Code != http.StatusCreated {
		t.Fatalf("start: expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	responseID := decodeID(t, w.Body.String())

	w = ts.postJSON(fmt.Sprintf("/api/responses/%d/answers", responseID),
		fmt.Sprintf(`{"question_id":%d,"selection":2}`, q.ID))
	if w.Code != http.StatusCreated {
		t.Fatalf("answer: expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	w = ts.postJSON(fmt.Sprintf("/api/responses/%d/answers", responseID),
		fmt.Sprintf(`{"question_id":%d,"selection":2,"text":"both"}`, q.ID))
	if w.Code != http.StatusBadRequest {
		t.Errorf("two values: expected status 400, got %d", w.Code)
	}

	w = ts.do(http.MethodPost, fmt.Sprintf("/api/responses/%d/complete", responseID), "", "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("complete: expected status 204, got %d", w.Code)
	}

	w = ts.get(fmt.Sprintf("/api/surveys/%d/responses", survey.ID))
	if w.Code != http.StatusOK {
		t.Fatalf("list: expected status 200, got %d", w.Code)
	}
	var res struct {
		Responses []model.Response `json:"responses"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if len(res.Responses) != 1 {
		t.Fatalf("Expected 1 response, got %d", len(res.Responses))
	}
	r := res.Responses[0]
	if !r.IsComplete || r.CompletedAt == nil || len(r.Answers) != 2 {
		t.Errorf("response = %+v", r)
	}

	w = ts.do(http.MethodDelete, fmt.Sprintf("/api/responses/%d", responseID), "", "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete: expected status 204, got %d", w.Code)
	}
	if n := testutil.Count(t, ts.db, "answer"); n != 0 {
		t.Errorf("Expected answers to cascade, got %d", n)
	}
}

func TestAPIAnswerOutsideSurvey(t *testing.T) {
	ts := setupServer(t)
	survey := testutil.CreateTestSurvey(t, ts.store, "Kitchen audit")
	sec := testutil.CreateTestSection(t, ts.store, survey.ID, "Hygiene")
	q := testutil.CreateTestQuestion(t, ts.store, sec.ID, "Clean?")
	other := testutil.CreateTestSurvey(t, ts.store, "Other")
	otherSec := testutil.CreateTestSection(t, ts.store, other.ID, "Safety")
	foreign := testutil.CreateTestQuestion(t, ts.store, otherSec.ID, "Exits clear?")
	u := testutil.CreateTestUser(t, ts.store, "ada@example.com")

	w := ts.postJSON(fmt.Sprintf("/api/surveys/%d/responses", survey.ID), fmt.Sprintf(`{"user_id":%d}`, u.ID))
	if w.Code != http.StatusCreated {
		t.Fatalf("start: expected status 201, got %d", w.Code)
	}
	target := fmt.Sprintf("/api/responses/%d/answers", decodeID(t, w.Body.String()))

	w = ts.postJSON(target, fmt.Sprintf(`{"question_id":%d,"text":"x"}`, foreign.ID))
	if w.Code != http.StatusNotFound {
		t.Errorf("foreign question: expected status 404, got %d", w.Code)
	}
	w = ts.postJSON(target, fmt.Sprintf(`{"question_id":%d,"option_id":%d}`, q.ID, foreign.Options[0].ID))
	if w.Code != http.StatusBadRequest {
		t.Errorf("foreign option: expected status 400, got %d", w.Code)
	}
	if n := testutil.Count(t, ts.db, "answer"); n != 0 {
		t.Errorf("Expected no answers, got %d", n)
	}
}

func TestAPIResponseNotFound(t *testing.T) {
	ts := setupServer(t)
	survey := testutil.CreateTestSurvey(t, ts.store, "Kitchen audit")

	if w := ts.postJSON(fmt.Sprintf("/api/surveys/%d/responses", survey.ID), `{"user_id":999}`); w.Code != http.StatusNotFound {
		t.Errorf("unknown user: expected status 404, got %d", w.Code)
	}
	if w := ts.postJSON("/api/responses/999/answers", `{"question_id":1,"text":"x"}`); w.Code != http.StatusNotFound {
		t.Errorf("unknown response: expected status 404, got %d", w.Code)
	}
	if w := ts.do(http.MethodPost, "/api/responses/999/complete", "", ""); w.Code != http.StatusNotFound {
		t.Errorf("complete unknown: expected status 404, got %d", w.Code)
	}
	if w := ts.get("/api/surveys/999/responses"); w.Code != http.StatusNotFound {
		t.Errorf("list unknown: expected status 404, got %d", w.Code)
	}
}

func TestAPIUpdateSurvey(t *testing.T) {
	ts := setupServer(t)
	survey := testutil.CreateTestSurvey(t, ts.store, "Draft")
	target := fmt.Sprintf("/api/surveys/%d", survey.ID)

	w := ts.do(http.MethodPut, target, "application/json",
		`{"title":"Q1 audit","start_date":"2026-01-01T00:00:00Z","end_date":"2026-03-31T00:00:00Z","is_ongoing":true}`)
	if w.Code != http.StatusNoContent {
		t.Fatalf("Expected status 204, got %d: %s", w.Code, w.Body.String())
	}

	got, err := ts.store.GetSurvey(context.Background(), survey.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "Q1 audit" || !got.IsOngoing || got.StartDate == nil || got.EndDate == nil {
		t.Errorf("survey = %+v", got)
	}

	w = ts.do(http.MethodPut, target, "application/json",
		`{"title":"Q1 audit","start_date":"2026-03-31T00:00:00Z","end_date":"2026-01-01T00:00:00Z"}`)
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "end_date") {
		t.Errorf("reversed dates: expected status 400 with end_date error, got %d %s", w.Code, w.Body.String())
	}

	if w := ts.do(http.MethodPut, "/api/surveys/999", "application/json", `{"title":"x"}`); w.Code != http.StatusNotFound {
		t.Errorf("unknown survey: expected status 404, got %d", w.Code)
	}
}

func TestAPIListQuestionKinds(t *testing.T) {
	ts := setupServer(t)

	w := ts.get("/api/question-kinds")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var res struct {
		Kinds []struct {
			Kind       model.QuestionKind `json:"kind"`
			Label      string             `json:"label"`
			HasOptions bool               `json:"has_options"`
		} `json:"kinds"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if len(res.Kinds) != len(model.QuestionKinds()) {
		t.Fatalf("Expected %d kinds, got %d", len(model.QuestionKinds()), len(res.Kinds))
	}
	first := res.Kinds[0]
	if first.Kind != model.KindFreeText || first.Label != "Free text" || first.HasOptions {
		t.Errorf("first kind = %+v", first)
	}
	if !res.Kinds[1].HasOptions {
		t.Errorf("single choice should take options: %+v", res.Kinds[1])
	}
}

func TestAPILinkQuestion(t *testing.T) {
	ts := setupServer(t)
	survey := testutil.CreateTestSurvey(t, ts.store, "Kitchen audit")
	first := testutil.CreateTestSection(t, ts.store, survey.ID, "Hygiene")
	second := testutil.CreateTestSection(t, ts.store, survey.ID, "Storage")
	q := testutil.CreateTestQuestion(t, ts.store, first.ID, "Clean?")
	other := testutil.CreateTestSurvey(t, ts.store, "Other")
	target := fmt.Sprintf("/api/surveys/%d/sections/%d/questions/%d", survey.ID, second.ID, q.ID)

	for i := 0; i < 2; i++ {
		if w := ts.do(http.MethodPost, target, "", ""); w.Code != http.StatusNoContent {
			t.Fatalf("link #%d: expected status 204, got %d", i+1, w.Code)
		}
	}
	if n := testutil.Count(t, ts.db, "section_question"); n != 2 {
		t.Errorf("Expected 2 section links, got %d", n)
	}

	tree, err := ts.store.GetSurveyTree(context.Background(), survey.ID)
	if err != nil {
		t.Fatal(err)
	}
	if qs := tree.Sections[1].Questions; len(qs) != 1 || qs[0].ID != q.ID {
		t.Errorf("second section questions = %+v", qs)
	}

	missing := fmt.Sprintf("/api/surveys/%d/sections/%d/questions/999", survey.ID, second.ID)
	if w := ts.do(http.MethodPost, missing, "", ""); w.Code != http.StatusNotFound {
		t.Errorf("unknown question: expected status 404, got %d", w.Code)
	}
	foreign := fmt.Sprintf("/api/surveys/%d/sections/%d/questions/%d", other.ID, second.ID, q.ID)
	if w := ts.do(http.MethodPost, foreign, "", ""); w.Code != http.StatusNotFound {
		t.Errorf("section of another survey: expected status 404, got %d", w.Code)
	}
}

func TestAPIFindUser(t *testing.T) {
	ts := setupServer(t)
	u := testutil.CreateTestUser(t, ts.store, "ada@example.com")

	w := ts.get("/api/users?email=ADA%40example.com")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var got model.User
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.ID != u.ID || got.Email != "ada@example.com" {
		t.Errorf("user = %+v", got)
	}
	if strings.Contains(w.Body.String(), "password") {
		t.Error("password hash must not be exposed")
	}

	if w := ts.get("/api/users?email=nobody%40example.com"); w.Code != http.StatusNotFound {
		t.Errorf("unknown email: expected status 404, got %d", w.Code)
	}
	if w := ts.get("/api/users"); w.Code != http.StatusBadRequest {
		t.Errorf("no email: expected status 400, got %d", w.Code)
	}
}
