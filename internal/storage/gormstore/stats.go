package gormstore

import (
	"context"

	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/model"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/storage"

	"github.com/shopspring/decimal"
)

func (s *Store) GetUserStats(ctx context.Context, userID string, w storage.StatsWindow) (*storage.UserStats, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	stats := &storage.UserStats{HoursToday: decimal.Zero, HoursWeek: decimal.Zero}

	today, err := first[model.RegistoPonto](db.Where("user_id = ? AND data = ?", userID, w.Today))
	if err != nil {
		return nil, err
	}
	if today != nil && today.TotalHorasTrabalhadas != nil {
		stats.HoursToday = *today.TotalHorasTrabalhadas
	}

	var week decimal.NullDecimal
	err = db.Model(&model.RegistoPonto{}).
		Select("SUM(total_horas_trabalhadas)").
		Where("user_id = ? AND data BETWEEN ? AND ?", userID, w.WeekStart, w.Today).
		Row().Scan(&week)
	if err != nil {
		return nil, err
	}
	if week.Valid {
		stats.HoursWeek = week.Decimal
	}

	var fromRecords, fromTeams []int
	err = db.Model(&model.RegistoPonto{}).
		Where("user_id = ? AND obra_id IS NOT NULL AND data BETWEEN ? AND ?", userID, w.WeekStart, w.Today).
		Distinct().Pluck("obra_id", &fromRecords).Error
	if err != nil {
		return nil, err
	}
	err = db.Model(&model.Equipa{}).
		Joins("JOIN equipa_membros ON equipa_membros.equipa_id = equipa_obra.id").
		Where("equipa_membros.user_id = ?", userID).
		Distinct().Pluck("equipa_obra.obra_id", &fromTeams).Error
	if err != nil {
		return nil, err
	}
	projects := make(map[int]struct{}, len(fromRecords)+len(fromTeams))
	for _, id := range append(fromRecords, fromTeams...) {
		projects[id] = struct{}{}
	}
	stats.ActiveProjects = len(projects)

	var members int64
	err = db.Model(&model.EquipaMembro{}).
		Joins("JOIN equipa_obra ON equipa_obra.id = equipa_membros.equipa_id").
		Where("equipa_obra.encarregado_id = ?", userID).
		Distinct("equipa_membros.user_id").
		Count(&members).Error
	if err != nil {
		return nil, err
	}
	stats.TeamMembers = int(members)
	return stats, nil
}
