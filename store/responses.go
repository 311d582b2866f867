package store

import (
	"context"
	"database/sql"

	"github.com/mbolis/survey-audit/model"
	"github.com/pkg/errors"
)

func validAnswer(a model.Answer) bool {
	n := 0
	if a.Text != nil {
		n++
	}
	if a.Selection != nil {
		n++
	}
	if a.OptionID != nil {
		n++
	}
	return n == 1
}

// insertAnswer stores a under its response. ErrNotFound means the question
// is not part of the response's survey. ErrInvalidAnswer means the option
// is not one of the question's.
func insertAnswer(ctx context.Context, tx *sql.Tx, a *model.Answer) error {
	var inSurvey bool
	err := tx.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM response r
			INNER JOIN section s ON (s.survey_id = r.survey_id)
			INNER JOIN section_question sq ON (sq.section_id = s.id)
			WHERE r.id = ? AND sq.question_id = ?
		)`,
		a.ResponseID,
		a.QuestionID,
	).Scan(&inSurvey)
	if err != nil {
		return errors.Wrap(err, "db.insert_answer.question")
	}
	if !inSurvey {
		return ErrNotFound
	}

	if a.OptionID != nil {
		var ofQuestion bool
		err = tx.QueryRowContext(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM question_option WHERE id = ? AND question_id = ?
			)`,
			*a.OptionID,
			a.QuestionID,
		).Scan(&ofQuestion)
		if err != nil {
			return errors.Wrap(err, "db.insert_answer.option")
		}
		if !ofQuestion {
			return ErrInvalidAnswer
		}
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO answer (response_id, question_id, text, selection, option_id)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`,
		a.ResponseID,
		a.QuestionID,
		a.Text,
		a.Selection,
		a.OptionID,
	).Scan(&a.ID)
	if isForeignKeyViolation(err) {
		return ErrNotFound
	}
	return errors.Wrap(err, "db.insert_answer")
}

// StartResponse opens a response by the user to the survey, storing any
// initial answers with it. ErrNotFound means the user or the survey does
// not exist, or an answered question is not part of the survey.
func (s *Store) StartResponse(ctx context.Context, userID, surveyID int, answers []model.Answer) (model.Response, error) {
	for _, a := range answers {
		if !validAnswer(a) {
			return model.Response{}, ErrInvalidAnswer
		}
	}

	started := now()
	r := model.Response{
		UserID:    userID,
		SurveyID:  surveyID,
		StartedAt: started,
		UpdatedAt: started,
		Answers:   []model.Answer{},
	}

	err := s.withTx(ctx, "db.insert_response", func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO response (user_id, survey_id, started_at, updated_at, is_complete)
			VALUES (?, ?, ?, ?, 0)
			RETURNING id`,
			userID,
			surveyID,
			started,
			started,
		).Scan(&r.ID)
		if isForeignKeyViolation(err) {
			return ErrNotFound
		}
		if err != nil {
			return errors.Wrap(err, "db.insert_response")
		}

		for _, a := range answers {
			a.ResponseID = r.ID
			if err = insertAnswer(ctx, tx, &a); err != nil {
				return err
			}
			r.Answers = append(r.Answers, a)
		}
		return nil
	})
	if err != nil {
		return model.Response{}, err
	}
	return r, nil
}

// AddAnswer stores a and bumps the response's updated_at.
func (s *Store) AddAnswer(ctx context.Context, responseID int, a model.Answer) (model.Answer, error) {
	if !validAnswer(a) {
		return model.Answer{}, ErrInvalidAnswer
	}
	a.ResponseID = responseID

	err := s.withTx(ctx, "db.insert_answer", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE response SET updated_at = ? WHERE id = ?`, now(), responseID)
		if err != nil {
			return errors.Wrap(err, "db.insert_answer.touch")
		}
		n, err := res.RowsAffected()
		if err != nil {
			return errors.Wrap(err, "db.insert_answer.touch.verify")
		}
		if n < 1 {
			return ErrNotFound
		}
		return insertAnswer(ctx, tx, &a)
	})
	if err != nil {
		return model.Answer{}, err
	}
	return a, nil
}

// CompleteResponse flags the response complete. Completing twice keeps the
// first completion time.
func (s *Store) CompleteResponse(ctx context.Context, id int) error {
	t := now()
	res, err := s.db.ExecContext(ctx, `
		UPDATE response
		SET is_complete = 1,
			completed_at = COALESCE(completed_at, ?),
			updated_at = ?
		WHERE id = ?`,
		t,
		t,
		id,
	)
	if err != nil {
		return errors.Wrap(err, "db.complete_response")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "db.complete_response.verify")
	}
	if n < 1 {
		return ErrNotFound
	}
	return nil
}

// DeleteResponse removes the response and its answers. A missing id is not
// an error.
func (s *Store) DeleteResponse(ctx context.Context, id int) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM response WHERE id = ?`, id)
	if err != nil {
		return 0, errors.Wrap(err, "db.delete_response")
	}
	n, err := res.RowsAffected()
	return n, errors.Wrap(err, "db.delete_response.verify")
}

// ListResponses returns the survey's responses, oldest first, with answers.
func (s *Store) ListResponses(ctx context.Context, surveyID int) ([]model.Response, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			r.id, r.user_id, r.survey_id, r.started_at, r.updated_at, r.completed_at, r.is_complete,
			a.id, a.question_id, a.text, a.selection, a.option_id
		FROM response r
		LEFT OUTER JOIN answer a ON (r.id = a.response_id)
		WHERE r.survey_id = ?
		ORDER BY r.id, a.id`,
		surveyID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "db.get_responses")
	}
	defer rows.Close()

	responses := []model.Response{}
	for rows.Next() {
		var (
			r          model.Response
			completed  sql.NullTime
			answerID   sql.NullInt64
			questionID sql.NullInt64
			text       sql.NullString
			selection  sql.NullInt64
			optionID   sql.NullInt64
		)
		err = rows.Scan(
			&r.ID, &r.UserID, &r.SurveyID, &r.StartedAt, &r.UpdatedAt, &completed, &r.IsComplete,
			&answerID, &questionID, &text, &selection, &optionID,
		)
		if err != nil {
			return nil, errors.Wrap(err, "db.get_responses.scan")
		}

		last := len(responses) - 1
		if last < 0 || responses[last].ID != r.ID {
			r.CompletedAt = timePtr(completed)
			r.Answers = []model.Answer{}
			responses = append(responses, r)
			last++
		}
		if !answerID.Valid {
			continue
		}

		a := model.Answer{
			ID:         int(answerID.Int64),
			ResponseID: r.ID,
			QuestionID: int(questionID.Int64),
		}
		if text.Valid {
			a.Text = &text.String
		}
		if selection.Valid {
			v := int(selection.Int64)
			a.Selection = &v
		}
		if optionID.Valid {
			v := int(optionID.Int64)
			a.OptionID = &v
		}
		responses[last].Answers = append(responses[last].Answers, a)
	}
	return responses, errors.Wrap(rows.Err(), "db.get_responses.rows")
}
