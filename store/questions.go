package store

import (
	"context"
	"database/sql"

	"github.com/mbolis/survey-audit/model"
	"github.com/pkg/errors"
)

// CreateQuestion inserts q with its type and options and appends it to the
// section, all in one transaction. ErrNotFound means the section does not
// exist.
func (s *Store) CreateQuestion(ctx context.Context, sectionID int, q model.Question, kind model.QuestionKind, options []model.QuestionOption) (model.Question, error) {
	if !kind.Valid() {
		return model.Question{}, errors.Errorf("db.insert_question: unknown kind %q", kind)
	}

	err := s.withTx(ctx, "db.insert_question", func(tx *sql.Tx) error {
		var exists bool
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM section WHERE id = ?`, sectionID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return errors.Wrap(err, "db.insert_question.section")
		}

		err = tx.QueryRowContext(ctx, `
			INSERT INTO question (text, help, reference, survey_reference)
			VALUES (?, ?, ?, ?)
			RETURNING id`,
			q.Text,
			q.Help,
			q.Reference,
			q.SurveyReference,
		).Scan(&q.ID)
		if err != nil {
			return errors.Wrap(err, "db.insert_question")
		}

		qt := model.QuestionType{QuestionID: q.ID, Kind: kind}
		err = tx.QueryRowContext(ctx, `
			INSERT INTO question_type (question_id, kind) VALUES (?, ?)
			RETURNING id`,
			q.ID,
			kind,
		).Scan(&qt.ID)
		if err != nil {
			return errors.Wrap(err, "db.insert_question.type")
		}
		q.Type = &qt

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO question_option (question_id, text, help, reference, position)
			VALUES (?, ?, ?, ?, ?)
			RETURNING id`)
		if err != nil {
			return errors.Wrap(err, "db.insert_question.options.prepare")
		}
		defer stmt.Close()

		q.Options = make([]model.QuestionOption, len(options))
		for i, o := range options {
			o.QuestionID = q.ID
			o.Position = i + 1
			err = stmt.QueryRowContext(ctx, o.QuestionID, o.Text, o.Help, o.Reference, o.Position).Scan(&o.ID)
			if err != nil {
				return errors.Wrap(err, "db.insert_question.options.insert")
			}
			q.Options[i] = o
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO section_question (section_id, question_id, position)
			SELECT ?, ?, COALESCE(MAX(position), 0) + 1
			FROM section_question
			WHERE section_id = ?`,
			sectionID,
			q.ID,
			sectionID,
		)
		return errors.Wrap(err, "db.insert_question.link")
	})
	if err != nil {
		return model.Question{}, err
	}
	return q, nil
}

// LinkQuestion adds an existing question to another section. Linking twice
// is a no-op.
func (s *Store) LinkQuestion(ctx context.Context, sectionID, questionID int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO section_question (section_id, question_id, position)
		SELECT ?, ?, COALESCE(MAX(position), 0) + 1
		FROM section_question
		WHERE section_id = ?`,
		sectionID,
		questionID,
		sectionID,
	)
	if isForeignKeyViolation(err) {
		return ErrNotFound
	}
	return errors.Wrap(err, "db.link_question")
}

// DeleteQuestion removes the question along with its type, options,
// section links and answers. A missing id is not an error.
func (s *Store) DeleteQuestion(ctx context.Context, id int) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM question WHERE id = ?`, id)
	if err != nil {
		return 0, errors.Wrap(err, "db.delete_question")
	}
	n, err := res.RowsAffected()
	return n, errors.Wrap(err, "db.delete_question.verify")
}

// listSurveyQuestions returns the questions of every section of a survey,
// keyed by section id and in section order.
func (s *Store) listSurveyQuestions(ctx context.Context, surveyID int) (map[int][]model.Question, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			sq.section_id,
			q.id, q.text, q.help, q.reference, q.survey_reference,
			qt.id, qt.kind
		FROM section s
		INNER JOIN section_question sq ON (s.id = sq.section_id)
		INNER JOIN question q ON (q.id = sq.question_id)
		LEFT OUTER JOIN question_type qt ON (q.id = qt.question_id)
		WHERE s.survey_id = ?
		ORDER BY sq.section_id, sq.position`,
		surveyID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "db.get_questions")
	}
	defer rows.Close()

	type ref struct{ section, index int }
	bySection := map[int][]model.Question{}
	refs := map[int][]ref{}
	for rows.Next() {
		var (
			sectionID int
			q         model.Question
			typeID    sql.NullInt64
			kind      sql.NullString
		)
		err = rows.Scan(
			&sectionID,
			&q.ID, &q.Text, &q.Help, &q.Reference, &q.SurveyReference,
			&typeID, &kind,
		)
		if err != nil {
			return nil, errors.Wrap(err, "db.get_questions.scan")
		}
		if typeID.Valid {
			q.Type = &model.QuestionType{
				ID:         int(typeID.Int64),
				QuestionID: q.ID,
				Kind:       model.QuestionKind(kind.String),
			}
		}
		refs[q.ID] = append(refs[q.ID], ref{sectionID, len(bySection[sectionID])})
		bySection[sectionID] = append(bySection[sectionID], q)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "db.get_questions.rows")
	}
	rows.Close()

	// a question shared by two sections gets its options in both places
	optRows, err := s.db.QueryContext(ctx, `
		SELECT o.id, o.question_id, o.text, o.help, o.reference, o.position
		FROM question_option o
		WHERE o.question_id IN (
			SELECT sq.question_id
			FROM section_question sq
			INNER JOIN section s ON (s.id = sq.section_id)
			WHERE s.survey_id = ?
		)
		ORDER BY o.question_id, o.position, o.id`,
		surveyID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "db.get_questions.options")
	}
	defer optRows.Close()

	for optRows.Next() {
		var o model.QuestionOption
		err = optRows.Scan(&o.ID, &o.QuestionID, &o.Text, &o.Help, &o.Reference, &o.Position)
		if err != nil {
			return nil, errors.Wrap(err, "db.get_questions.options.scan")
		}
		for _, r := range refs[o.QuestionID] {
			q := &bySection[r.section][r.index]
			q.Options = append(q.Options, o)
		}
	}
	return bySection, errors.Wrap(optRows.Err(), "db.get_questions.options.rows")
}
