package gormstore

import (
	"context"

	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/model"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/storage"

	"gorm.io/gorm"
)

// withEquipaRefs join-fetches the nested team shape.
func withEquipaRefs(db *gorm.DB) *gorm.DB {
	return db.Preload("Obra").Preload("Encarregado").Preload("Membros.User").Order("equipa_obra.id ASC")
}

func (s *Store) listEquipas(ctx context.Context, scope func(*gorm.DB) *gorm.DB) ([]model.Equipa, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	equipas := make([]model.Equipa, 0)
	err = withEquipaRefs(scope(db)).Find(&equipas).Error
	return equipas, err
}

func (s *Store) ListEquipas(ctx context.Context) ([]model.Equipa, error) {
	return s.listEquipas(ctx, func(db *gorm.DB) *gorm.DB { return db })
}

func (s *Store) ListEquipasByEncarregado(ctx context.Context, userID string) ([]model.Equipa, error) {
	return s.listEquipas(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Where("encarregado_id = ?", userID)
	})
}

func (s *Store) ListEquipasByMembro(ctx context.Context, userID string) ([]model.Equipa, error) {
	return s.listEquipas(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Where("id IN (?)", db.Model(&model.EquipaMembro{}).Select("equipa_id").Where("user_id = ?", userID))
	})
}

func (s *Store) GetEquipa(ctx context.Context, id int) (*model.Equipa, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	return first[model.Equipa](withEquipaRefs(db).Where("equipa_obra.id = ?", id))
}

func (s *Store) CreateEquipa(ctx context.Context, e *model.Equipa) (*model.Equipa, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	if ok, err := exists(db, &model.Obra{}, e.ObraID); err != nil || !ok {
		return nil, orNotFound(err)
	}
	if ok, err := exists(db, &model.User{}, e.EncarregadoID); err != nil || !ok {
		return nil, orNotFound(err)
	}
	row := model.Equipa{Nome: e.Nome, ObraID: e.ObraID, EncarregadoID: e.EncarregadoID}
	if err := omitRefs(db).Create(&row).Error; err != nil {
		return nil, translate(err)
	}
	return s.GetEquipa(ctx, row.ID)
}

func (s *Store) AddEquipaMembro(ctx context.Context, equipaID int, userID string) (*model.EquipaMembro, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	if ok, err := exists(db, &model.Equipa{}, equipaID); err != nil || !ok {
		return nil, orNotFound(err)
	}
	if ok, err := exists(db, &model.User{}, userID); err != nil || !ok {
		return nil, orNotFound(err)
	}
	m := model.EquipaMembro{EquipaID: equipaID, UserID: userID}
	if err := omitRefs(db).Create(&m).Error; err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

func (s *Store) RemoveEquipaMembro(ctx context.Context, equipaID int, userID string) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	res := db.Where("equipa_id = ? AND user_id = ?", equipaID, userID).Delete(&model.EquipaMembro{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}
