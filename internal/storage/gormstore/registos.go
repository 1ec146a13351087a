package gormstore

import (
	"context"

	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/model"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/storage"
)

func (s *Store) ListRegistosPonto(ctx context.Context, userID string) ([]model.RegistoPonto, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	registos := make([]model.RegistoPonto, 0)
	err = db.Where("user_id = ?", userID).Order("data DESC").Find(&registos).Error
	return registos, err
}

func (s *Store) GetRegistoPontoForDate(ctx context.Context, userID, data string) (*model.RegistoPonto, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	return first[model.RegistoPonto](db.Where("user_id = ? AND data = ?", userID, data))
}

// CreateRegistoPonto relies on the unique (user_id, data) index: a second
// insert for the same day fails with ErrDuplicate even under concurrency.
func (s *Store) CreateRegistoPonto(ctx context.Context, r *model.RegistoPonto) (*model.RegistoPonto, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	if ok, err := exists(db, &model.User{}, r.UserID); err != nil || !ok {
		return nil, orNotFound(err)
	}
	if r.ObraID != nil {
		if ok, err := exists(db, &model.Obra{}, *r.ObraID); err != nil || !ok {
			return nil, orNotFound(err)
		}
	}
	row := *r
	row.ID = 0
	if err := db.Create(&row).Error; err != nil {
		return nil, translate(err)
	}
	return &row, nil
}

// UpdateRegistoPonto applies patch as a single conditional UPDATE so the
// clock-in / clock-out preconditions are checked atomically with the write.
func (s *Store) UpdateRegistoPonto(ctx context.Context, id int, patch storage.RegistoPontoPatch) (*model.RegistoPonto, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	if patch.ObraID != nil {
		if ok, err := exists(db, &model.Obra{}, *patch.ObraID); err != nil || !ok {
			return nil, orNotFound(err)
		}
	}

	updates := registoUpdates(patch)
	q := db.Model(&model.RegistoPonto{}).Where("id = ?", id)
	if patch.OnlyIfNotClockedIn {
		q = q.Where("hora_entrada IS NULL")
	}
	if patch.OnlyIfNotClockedOut {
		q = q.Where("hora_saida IS NULL")
	}

	var affected int64
	if len(updates) > 0 {
		res := q.Updates(updates)
		if res.Error != nil {
			return nil, translate(res.Error)
		}
		affected = res.RowsAffected
	} else if err := q.Count(&affected).Error; err != nil {
		return nil, err
	}

	if affected == 0 {
		ok, err := exists(db, &model.RegistoPonto{}, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, storage.ErrNotFound
		}
		return nil, storage.ErrConflict
	}
	return first[model.RegistoPonto](db.Where("id = ?", id))
}

func registoUpdates(p storage.RegistoPontoPatch) map[string]interface{} {
	u := map[string]interface{}{}
	if p.HoraEntrada != nil {
		u["hora_entrada"] = *p.HoraEntrada
	}
	if p.HoraSaida != nil {
		u["hora_saida"] = *p.HoraSaida
	}
	if p.TotalHorasTrabalhadas != nil {
		u["total_horas_trabalhadas"] = *p.TotalHorasTrabalhadas
	}
	if p.TotalTempoIntervalo != nil {
		u["total_tempo_intervalo"] = *p.TotalTempoIntervalo
	}
	if p.LatitudeEntrada != nil {
		u["latitude_entrada"] = *p.LatitudeEntrada
	}
	if p.LongitudeEntrada != nil {
		u["longitude_entrada"] = *p.LongitudeEntrada
	}
	if p.LatitudeSaida != nil {
		u["latitude_saida"] = *p.LatitudeSaida
	}
	if p.LongitudeSaida != nil {
		u["longitude_saida"] = *p.LongitudeSaida
	}
	if p.ObraID != nil {
		u["obra_id"] = *p.ObraID
	}
	return u
}

// orNotFound passes a query error through, or reports a missing parent row.
func orNotFound(err error) error {
	if err != nil {
		return err
	}
	return storage.ErrNotFound
}
