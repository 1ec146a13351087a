package sqlserver

import (
	"context"
	"database/sql"

	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/storage"

	"github.com/shopspring/decimal"
)

// statsSQL computes every dashboard figure in one round trip. Active
// projects are the union of obras reached through team membership and
// obras punched into inside the window.
const statsSQL = `SELECT
    (SELECT total_horas_trabalhadas FROM registo_ponto
        WHERE user_id = @user_id AND data = @today) AS hours_today,
    (SELECT SUM(total_horas_trabalhadas) FROM registo_ponto
        WHERE user_id = @user_id AND data BETWEEN @week_start AND @today) AS hours_week,
    (SELECT COUNT(*) FROM (
        SELECT obra_id FROM registo_ponto
            WHERE user_id = @user_id AND obra_id IS NOT NULL AND data BETWEEN @week_start AND @today
        UNION
        SELECT e.obra_id FROM equipa_obra e
            JOIN equipa_membros m ON m.equipa_id = e.id
            WHERE m.user_id = @user_id
    ) AS projects) AS active_projects,
    (SELECT COUNT(DISTINCT m.user_id) FROM equipa_membros m
        JOIN equipa_obra e ON e.id = m.equipa_id
        WHERE e.encarregado_id = @user_id) AS team_members`

func (s *Store) GetUserStats(ctx context.Context, userID string, w storage.StatsWindow) (*storage.UserStats, error) {
	var today, week decimal.NullDecimal
	var projects, members int
	err := s.exec(func(db *sql.DB) error {
		return db.QueryRowContext(ctx, statsSQL,
			sql.Named("user_id", userID),
			sql.Named("today", w.Today),
			sql.Named("week_start", w.WeekStart),
		).Scan(&today, &week, &projects, &members)
	})
	if err != nil {
		return nil, err
	}
	stats := &storage.UserStats{
		HoursToday:     decimal.Zero,
		HoursWeek:      decimal.Zero,
		ActiveProjects: projects,
		TeamMembers:    members,
	}
	if today.Valid {
		stats.HoursToday = today.Decimal
	}
	if week.Valid {
		stats.HoursWeek = week.Decimal
	}
	return stats, nil
}
