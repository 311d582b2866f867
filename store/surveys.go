package store

import (
	"context"
	"database/sql"

	"github.com/mbolis/survey-audit/model"
	"github.com/pkg/errors"
)

func scanSurvey(row interface{ Scan(...any) error }) (model.Survey, error) {
	var (
		s          model.Survey
		start, end sql.NullTime
	)
	err := row.Scan(&s.ID, &s.Title, &start, &end, &s.IsOngoing)
	s.StartDate = timePtr(start)
	s.EndDate = timePtr(end)
	return s, err
}

// ListSurveys returns every survey ordered by id.
func (s *Store) ListSurveys(ctx context.Context) ([]model.Survey, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, start_date, end_date, is_ongoing
		FROM survey
		ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(err, "db.get_surveys")
	}
	defer rows.Close()

	surveys := []model.Survey{}
	for rows.Next() {
		survey, err := scanSurvey(rows)
		if err != nil {
			return nil, errors.Wrap(err, "db.get_surveys.scan")
		}
		surveys = append(surveys, survey)
	}
	return surveys, errors.Wrap(rows.Err(), "db.get_surveys.rows")
}

// CreateSurvey inserts a survey that is not ongoing and has no dates.
// The title is stored as given, empty included.
func (s *Store) CreateSurvey(ctx context.Context, title string) (model.Survey, error) {
	survey := model.Survey{Title: title}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO survey (title, is_ongoing) VALUES (?, 0)
		RETURNING id`,
		title,
	).Scan(&survey.ID)
	if err != nil {
		return model.Survey{}, errors.Wrap(err, "db.insert_survey")
	}
	return survey, nil
}

// UpdateSurvey overwrites the title, dates and ongoing flag.
func (s *Store) UpdateSurvey(ctx context.Context, survey model.Survey) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE survey
		SET title = ?, start_date = ?, end_date = ?, is_ongoing = ?
		WHERE id = ?`,
		survey.Title,
		nullTime(survey.StartDate),
		nullTime(survey.EndDate),
		survey.IsOngoing,
		survey.ID,
	)
	if err != nil {
		return errors.Wrap(err, "db.update_survey")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "db.update_survey.verify")
	}
	if n < 1 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) GetSurvey(ctx context.Context, id int) (model.Survey, error) {
	survey, err := scanSurvey(s.db.QueryRowContext(ctx, `
		SELECT id, title, start_date, end_date, is_ongoing
		FROM survey
		WHERE id = ?`,
		id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Survey{}, ErrNotFound
	}
	if err != nil {
		return model.Survey{}, errors.Wrap(err, "db.get_survey")
	}
	return survey, nil
}

// DeleteSurvey removes the survey and, through the schema's cascades, its
// sections, assignments, responses and answers. Questions left in no
// section afterwards go too, with their types and options. Questions still
// linked from another survey's section are kept. A missing id deletes
// nothing and is not an error.
func (s *Store) DeleteSurvey(ctx context.Context, id int) (n int64, err error) {
	err = s.withTx(ctx, "db.delete_survey", func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `
			SELECT DISTINCT sq.question_id
			FROM section_question sq
			INNER JOIN section s ON (s.id = sq.section_id)
			WHERE s.survey_id = ?`,
			id,
		)
		if err != nil {
			return errors.Wrap(err, "db.delete_survey.questions")
		}
		var questionIds []int
		for rows.Next() {
			var qid int
			if err = rows.Scan(&qid); err != nil {
				rows.Close()
				return errors.Wrap(err, "db.delete_survey.questions.scan")
			}
			questionIds = append(questionIds, qid)
		}
		rows.Close()
		if err = rows.Err(); err != nil {
			return errors.Wrap(err, "db.delete_survey.questions.rows")
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM survey WHERE id = ?`, id)
		if err != nil {
			return errors.Wrap(err, "db.delete_survey")
		}
		n, err = res.RowsAffected()
		if err != nil {
			return errors.Wrap(err, "db.delete_survey.verify")
		}
		if len(questionIds) == 0 {
			return nil
		}

		stmt, err := tx.PrepareContext(ctx, `
			DELETE FROM question
			WHERE id = ?
			AND id NOT IN (SELECT question_id FROM section_question)`)
		if err != nil {
			return errors.Wrap(err, "db.delete_survey.orphans.prepare")
		}
		defer stmt.Close()

		for _, qid := range questionIds {
			if _, err = stmt.ExecContext(ctx, qid); err != nil {
				return errors.Wrap(err, "db.delete_survey.orphans")
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// GetSurveyTree loads a survey with its sections, their questions, and each
// question's type and options.
func (s *Store) GetSurveyTree(ctx context.Context, id int) (model.Survey, error) {
	survey, err := s.GetSurvey(ctx, id)
	if err != nil {
		return model.Survey{}, err
	}

	survey.Sections, err = s.ListSections(ctx, id)
	if err != nil {
		return model.Survey{}, err
	}

	questions, err := s.listSurveyQuestions(ctx, id)
	if err != nil {
		return model.Survey{}, err
	}
	for i := range survey.Sections {
		survey.Sections[i].Questions = questions[survey.Sections[i].ID]
	}

	return survey, nil
}
