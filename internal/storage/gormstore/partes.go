package gormstore

import (
	"context"

	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/model"
)

func (s *Store) listPartes(ctx context.Context, column string, value interface{}) ([]model.ParteDiaria, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	partes := make([]model.ParteDiaria, 0)
	err = db.Preload("Obra").Preload("User").
		Where(column+" = ?", value).
		Order("data DESC").Order("id DESC").
		Find(&partes).Error
	return partes, err
}

func (s *Store) ListPartesDiarias(ctx context.Context, userID string) ([]model.ParteDiaria, error) {
	return s.listPartes(ctx, "user_id", userID)
}

func (s *Store) ListPartesDiariasByObra(ctx context.Context, obraID int) ([]model.ParteDiaria, error) {
	return s.listPartes(ctx, "obra_id", obraID)
}

func (s *Store) CreateParteDiaria(ctx context.Context, p *model.ParteDiaria) (*model.ParteDiaria, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	if ok, err := exists(db, &model.Obra{}, p.ObraID); err != nil || !ok {
		return nil, orNotFound(err)
	}
	if ok, err := exists(db, &model.User{}, p.UserID); err != nil || !ok {
		return nil, orNotFound(err)
	}
	row := *p
	row.ID = 0
	row.Obra, row.User = nil, nil
	if err := omitRefs(db).Create(&row).Error; err != nil {
		return nil, translate(err)
	}
	return first[model.ParteDiaria](db.Preload("Obra").Preload("User").Where("id = ?", row.ID))
}
