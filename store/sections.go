package store

import (
	"context"
	"database/sql"

	"github.com/mbolis/survey-audit/model"
	"github.com/pkg/errors"
)

func (s *Store) ListSections(ctx context.Context, surveyID int) ([]model.Section, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, survey_id, title, subtitle, help, reference
		FROM section
		WHERE survey_id = ?
		ORDER BY id`,
		surveyID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "db.get_sections")
	}
	defer rows.Close()

	sections := []model.Section{}
	for rows.Next() {
		var sec model.Section
		err = rows.Scan(&sec.ID, &sec.SurveyID, &sec.Title, &sec.Subtitle, &sec.Help, &sec.Reference)
		if err != nil {
			return nil, errors.Wrap(err, "db.get_sections.scan")
		}
		sections = append(sections, sec)
	}
	return sections, errors.Wrap(rows.Err(), "db.get_sections.rows")
}

// CreateSection inserts sec under sec.SurveyID. ErrNotFound means the
// survey does not exist.
func (s *Store) CreateSection(ctx context.Context, sec model.Section) (model.Section, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO section (survey_id, title, subtitle, help, reference)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`,
		sec.SurveyID,
		sec.Title,
		sec.Subtitle,
		sec.Help,
		sec.Reference,
	).Scan(&sec.ID)
	if isForeignKeyViolation(err) {
		return model.Section{}, ErrNotFound
	}
	if err != nil {
		return model.Section{}, errors.Wrap(err, "db.insert_section")
	}
	return sec, nil
}

func (s *Store) GetSection(ctx context.Context, id int) (model.Section, error) {
	var sec model.Section
	err := s.db.QueryRowContext(ctx, `
		SELECT id, survey_id, title, subtitle, help, reference
		FROM section
		WHERE id = ?`,
		id,
	).Scan(&sec.ID, &sec.SurveyID, &sec.Title, &sec.Subtitle, &sec.Help, &sec.Reference)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Section{}, ErrNotFound
	}
	if err != nil {
		return model.Section{}, errors.Wrap(err, "db.get_section")
	}
	return sec, nil
}
