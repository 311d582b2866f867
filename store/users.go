package store

import (
	"context"
	"database/sql"

	"github.com/mbolis/survey-audit/model"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

// CreateUser inserts u. Email is the login identifier and is unique without
// regard to case: a clash returns ErrDuplicateEmail. An empty password
// leaves the account without a usable password.
func (s *Store) CreateUser(ctx context.Context, u model.User, password string) (model.User, error) {
	var hash []byte
	if password != "" {
		var err error
		hash, err = bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return model.User{}, errors.Wrap(err, "db.insert_user.hash")
		}
	}

	u.DateJoined = now()
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO user (first_name, surname, email, password_hash, is_staff, is_superuser, email_confirmed, date_joined)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		u.FirstName,
		u.Surname,
		u.Email,
		hash,
		u.IsStaff,
		u.IsSuperuser,
		u.EmailConfirmed,
		u.DateJoined,
	).Scan(&u.ID)
	if isUniqueViolation(err) {
		return model.User{}, ErrDuplicateEmail
	}
	if err != nil {
		return model.User{}, errors.Wrap(err, "db.insert_user")
	}
	return u, nil
}

func scanUser(row interface{ Scan(...any) error }) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.FirstName, &u.Surname, &u.Email, &u.IsStaff, &u.IsSuperuser, &u.EmailConfirmed, &u.DateJoined)
	return u, err
}

// GetUserByEmail matches email case-insensitively.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, first_name, surname, email, is_staff, is_superuser, email_confirmed, date_joined
		FROM user
		WHERE email = ?`,
		email,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	if err != nil {
		return model.User{}, errors.Wrap(err, "db.get_user")
	}
	return u, nil
}

// AssignUser records that the user takes part in the survey. Assigning
// twice is a no-op. ErrNotFound means either side does not exist.
func (s *Store) AssignUser(ctx context.Context, surveyID, userID int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO survey_user (survey_id, user_id, assigned_at)
		VALUES (?, ?, ?)`,
		surveyID,
		userID,
		now(),
	)
	if isForeignKeyViolation(err) {
		return ErrNotFound
	}
	return errors.Wrap(err, "db.assign_user")
}

func (s *Store) ListAssignees(ctx context.Context, surveyID int) ([]model.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT u.id, u.first_name, u.surname, u.email, u.is_staff, u.is_superuser, u.email_confirmed, u.date_joined
		FROM survey_user su
		INNER JOIN user u ON (u.id = su.user_id)
		WHERE su.survey_id = ?
		ORDER BY u.id`,
		surveyID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "db.get_assignees")
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, errors.Wrap(err, "db.get_assignees.scan")
		}
		users = append(users, u)
	}
	return users, errors.Wrap(rows.Err(), "db.get_assignees.rows")
}
