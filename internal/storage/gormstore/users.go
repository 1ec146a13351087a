package gormstore

import (
	"context"
	"time"

	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/model"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/storage"

	"gorm.io/gorm/clause"
)

func (s *Store) GetUser(ctx context.Context, id string) (*model.User, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	return first[model.User](db.Where("id = ?", id))
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	return first[model.User](db.Where("username = ?", username))
}

// UpsertUser inserts u, or overwrites the profile columns when the id exists.
// created_at keeps its first value.
func (s *Store) UpsertUser(ctx context.Context, u *model.User) (*model.User, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	row := *u
	if row.ID == "" {
		row.ID = storage.NewUserID(time.Now())
	}
	if row.TipoUser == "" {
		row.TipoUser = model.RoleTrabalhador
	}
	err = db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"username", "password", "email", "first_name", "last_name",
			"profile_image_url", "tipo_user", "updated_at",
		}),
	}).Create(&row).Error
	if err != nil {
		return nil, translate(err)
	}
	return s.GetUser(ctx, row.ID)
}

func (s *Store) CreateUser(ctx context.Context, u *model.User) (*model.User, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	row := *u
	if row.ID == "" {
		row.ID = storage.NewUserID(time.Now())
	}
	if row.TipoUser == "" {
		row.TipoUser = model.RoleTrabalhador
	}
	if err := db.Create(&row).Error; err != nil {
		return nil, translate(err)
	}
	return &row, nil
}

func (s *Store) updateUser(ctx context.Context, id string, column string, value interface{}) (*model.User, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	res := db.Model(&model.User{}).Where("id = ?", id).Update(column, value)
	if res.Error != nil {
		return nil, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, storage.ErrNotFound
	}
	return s.GetUser(ctx, id)
}

func (s *Store) UpdateUserRole(ctx context.Context, id, role string) (*model.User, error) {
	return s.updateUser(ctx, id, "tipo_user", role)
}

func (s *Store) UpdateUserPassword(ctx context.Context, id, hash string) (*model.User, error) {
	return s.updateUser(ctx, id, "password", hash)
}

func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	users := make([]model.User, 0)
	err = db.Order("username ASC").Find(&users).Error
	return users, err
}
