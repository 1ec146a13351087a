package sqlserver

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/model"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/storage"
)

const userColumns = "id, username, password, email, first_name, last_name, profile_image_url, tipo_user, created_at, updated_at"

func scanUser(r rowScanner) (*model.User, error) {
	var u model.User
	var email, first, last, profileImage sql.NullString
	err := r.Scan(&u.ID, &u.Username, &u.Password, &email, &first, &last, &profileImage,
		&u.TipoUser, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.Email = email.String
	u.FirstName = first.String
	u.LastName = last.String
	u.ProfileImageURL = profileImage.String
	return &u, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*model.User, error) {
	return queryOne(ctx, s, scanUser, "SELECT "+userColumns+" FROM users WHERE id = @id", sql.Named("id", id))
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return queryOne(ctx, s, scanUser, "SELECT "+userColumns+" FROM users WHERE username = @username",
		sql.Named("username", username))
}

func userArgs(u *model.User) []interface{} {
	return []interface{}{
		sql.Named("id", u.ID),
		sql.Named("username", u.Username),
		sql.Named("password", u.Password),
		sql.Named("email", u.Email),
		sql.Named("first_name", u.FirstName),
		sql.Named("last_name", u.LastName),
		sql.Named("profile_image_url", u.ProfileImageURL),
		sql.Named("tipo_user", u.TipoUser),
	}
}

func withUserDefaults(u *model.User) model.User {
	row := *u
	if row.ID == "" {
		row.ID = storage.NewUserID(time.Now())
	}
	if row.TipoUser == "" {
		row.TipoUser = model.RoleTrabalhador
	}
	return row
}

var upsertUserSQL = `MERGE users AS t
USING (SELECT @id AS id) AS s ON t.id = s.id
WHEN MATCHED THEN UPDATE SET
    username = @username, password = @password, email = @email,
    first_name = @first_name, last_name = @last_name,
    profile_image_url = @profile_image_url, tipo_user = @tipo_user,
    updated_at = SYSUTCDATETIME()
WHEN NOT MATCHED THEN INSERT (id, username, password, email, first_name, last_name, profile_image_url, tipo_user)
    VALUES (@id, @username, @password, @email, @first_name, @last_name, @profile_image_url, @tipo_user)
OUTPUT ` + prefixed("INSERTED.", userColumns) + `;`

// UpsertUser inserts u, or overwrites every non-key column when the id exists.
func (s *Store) UpsertUser(ctx context.Context, u *model.User) (*model.User, error) {
	row := withUserDefaults(u)
	return s.writeUser(ctx, upsertUserSQL, userArgs(&row)...)
}

var insertUserSQL = `INSERT INTO users (id, username, password, email, first_name, last_name, profile_image_url, tipo_user)
OUTPUT ` + prefixed("INSERTED.", userColumns) + `
VALUES (@id, @username, @password, @email, @first_name, @last_name, @profile_image_url, @tipo_user)`

func (s *Store) CreateUser(ctx context.Context, u *model.User) (*model.User, error) {
	row := withUserDefaults(u)
	return s.writeUser(ctx, insertUserSQL, userArgs(&row)...)
}

// writeUser runs a statement that OUTPUTs one user row. No row means the
// target id did not exist.
func (s *Store) writeUser(ctx context.Context, query string, args ...interface{}) (*model.User, error) {
	var u *model.User
	err := s.exec(func(db *sql.DB) error {
		var err error
		u, err = scanUser(db.QueryRowContext(ctx, query, args...))
		return err
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	return u, err
}

var updateUserRoleSQL = `UPDATE users SET tipo_user = @value, updated_at = SYSUTCDATETIME()
OUTPUT ` + prefixed("INSERTED.", userColumns) + `
WHERE id = @id`

var updateUserPasswordSQL = `UPDATE users SET password = @value, updated_at = SYSUTCDATETIME()
OUTPUT ` + prefixed("INSERTED.", userColumns) + `
WHERE id = @id`

func (s *Store) UpdateUserRole(ctx context.Context, id, role string) (*model.User, error) {
	return s.writeUser(ctx, updateUserRoleSQL, sql.Named("value", role), sql.Named("id", id))
}

func (s *Store) UpdateUserPassword(ctx context.Context, id, hash string) (*model.User, error) {
	return s.writeUser(ctx, updateUserPasswordSQL, sql.Named("value", hash), sql.Named("id", id))
}

func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	return queryList(ctx, s, scanUser, "SELECT "+userColumns+" FROM users ORDER BY username ASC")
}
