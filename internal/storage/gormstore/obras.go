package gormstore

import (
	"context"

	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/model"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/storage"
)

func (s *Store) ListObras(ctx context.Context) ([]model.Obra, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	obras := make([]model.Obra, 0)
	err = db.Order("created_at DESC").Order("id DESC").Find(&obras).Error
	return obras, err
}

func (s *Store) GetObra(ctx context.Context, id int) (*model.Obra, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	return first[model.Obra](db.Where("id = ?", id))
}

func (s *Store) GetObraByQRCode(ctx context.Context, qrCode string) (*model.Obra, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	return first[model.Obra](db.Where("qr_code = ?", qrCode))
}

func (s *Store) CreateObra(ctx context.Context, o *model.Obra) (*model.Obra, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	row := *o
	row.ID = 0
	if row.Estado == "" {
		row.Estado = model.EstadoAtiva
	}
	if err := db.Create(&row).Error; err != nil {
		return nil, translate(err)
	}
	return &row, nil
}

func (s *Store) UpdateObra(ctx context.Context, id int, patch storage.ObraPatch) (*model.Obra, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if patch.Nome != nil {
		updates["nome"] = *patch.Nome
	}
	if patch.Estado != nil {
		updates["estado"] = *patch.Estado
	}
	if patch.Localizacao != nil {
		updates["localizacao"] = *patch.Localizacao
	}
	if len(updates) == 0 {
		o, err := s.GetObra(ctx, id)
		if err == nil && o == nil {
			return nil, storage.ErrNotFound
		}
		return o, err
	}
	res := db.Model(&model.Obra{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return nil, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, storage.ErrNotFound
	}
	return s.GetObra(ctx, id)
}
