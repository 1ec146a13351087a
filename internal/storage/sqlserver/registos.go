package sqlserver

import (
	"context"
	"database/sql"

	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/model"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/storage"

	"github.com/shopspring/decimal"
)

const registoColumns = "id, user_id, data, hora_entrada, hora_saida, total_horas_trabalhadas, total_tempo_intervalo, " +
	"latitude_entrada, longitude_entrada, latitude_saida, longitude_saida, obra_id, created_at, updated_at"

func scanRegisto(r rowScanner) (*model.RegistoPonto, error) {
	var rp model.RegistoPonto
	var entrada, saida sql.NullTime
	var total, intervalo, latIn, lonIn, latOut, lonOut decimal.NullDecimal
	var obraID sql.NullInt64
	err := r.Scan(&rp.ID, &rp.UserID, &rp.Data, &entrada, &saida, &total, &intervalo,
		&latIn, &lonIn, &latOut, &lonOut, &obraID, &rp.CreatedAt, &rp.UpdatedAt)
	if err != nil {
		return nil, err
	}
	rp.HoraEntrada = timePtr(entrada)
	rp.HoraSaida = timePtr(saida)
	rp.TotalHorasTrabalhadas = decPtr(total)
	rp.TotalTempoIntervalo = decPtr(intervalo)
	rp.LatitudeEntrada = decPtr(latIn)
	rp.LongitudeEntrada = decPtr(lonIn)
	rp.LatitudeSaida = decPtr(latOut)
	rp.LongitudeSaida = decPtr(lonOut)
	rp.ObraID = intPtr(obraID)
	return &rp, nil
}

func (s *Store) ListRegistosPonto(ctx context.Context, userID string) ([]model.RegistoPonto, error) {
	return queryList(ctx, s, scanRegisto,
		"SELECT "+registoColumns+" FROM registo_ponto WHERE user_id = @user_id ORDER BY data DESC",
		sql.Named("user_id", userID))
}

func (s *Store) GetRegistoPontoForDate(ctx context.Context, userID, data string) (*model.RegistoPonto, error) {
	return queryOne(ctx, s, scanRegisto,
		"SELECT "+registoColumns+" FROM registo_ponto WHERE user_id = @user_id AND data = @data",
		sql.Named("user_id", userID), sql.Named("data", data))
}

var insertRegistoSQL = `INSERT INTO registo_ponto (user_id, data, hora_entrada, hora_saida,
    total_horas_trabalhadas, total_tempo_intervalo,
    latitude_entrada, longitude_entrada, latitude_saida, longitude_saida, obra_id)
OUTPUT ` + prefixed("INSERTED.", registoColumns) + `
VALUES (@user_id, @data, @hora_entrada, @hora_saida,
    @total_horas_trabalhadas, @total_tempo_intervalo,
    @latitude_entrada, @longitude_entrada, @latitude_saida, @longitude_saida, @obra_id)`

// CreateRegistoPonto relies on uq_registo_user_data: a second insert for the
// same day fails with ErrDuplicate, and an unknown user or obra trips the
// foreign key and surfaces as ErrNotFound.
func (s *Store) CreateRegistoPonto(ctx context.Context, r *model.RegistoPonto) (*model.RegistoPonto, error) {
	row, err := queryOne(ctx, s, scanRegisto, insertRegistoSQL,
		sql.Named("user_id", r.UserID),
		sql.Named("data", r.Data),
		sql.Named("hora_entrada", nullTime(r.HoraEntrada)),
		sql.Named("hora_saida", nullTime(r.HoraSaida)),
		sql.Named("total_horas_trabalhadas", nullDecimal(r.TotalHorasTrabalhadas)),
		sql.Named("total_tempo_intervalo", nullDecimal(r.TotalTempoIntervalo)),
		sql.Named("latitude_entrada", nullDecimal(r.LatitudeEntrada)),
		sql.Named("longitude_entrada", nullDecimal(r.LongitudeEntrada)),
		sql.Named("latitude_saida", nullDecimal(r.LatitudeSaida)),
		sql.Named("longitude_saida", nullDecimal(r.LongitudeSaida)),
		sql.Named("obra_id", nullInt(r.ObraID)),
	)
	return inserted(row, err)
}

var updateRegistoSQL = `UPDATE registo_ponto SET
    hora_entrada = COALESCE(@hora_entrada, hora_entrada),
    hora_saida = COALESCE(@hora_saida, hora_saida),
    total_horas_trabalhadas = COALESCE(@total_horas_trabalhadas, total_horas_trabalhadas),
    total_tempo_intervalo = COALESCE(@total_tempo_intervalo, total_tempo_intervalo),
    latitude_entrada = COALESCE(@latitude_entrada, latitude_entrada),
    longitude_entrada = COALESCE(@longitude_entrada, longitude_entrada),
    latitude_saida = COALESCE(@latitude_saida, latitude_saida),
    longitude_saida = COALESCE(@longitude_saida, longitude_saida),
    obra_id = COALESCE(@obra_id, obra_id),
    updated_at = SYSUTCDATETIME()
OUTPUT ` + prefixed("INSERTED.", registoColumns) + `
WHERE id = @id
  AND (@only_if_not_in = 0 OR hora_entrada IS NULL)
  AND (@only_if_not_out = 0 OR hora_saida IS NULL)`

const countRegistoSQL = `SELECT COUNT(*) FROM registo_ponto WHERE id = @id`

// UpdateRegistoPonto applies patch in one conditional UPDATE. When no row
// comes back, a follow-up count tells a missing id from a failed precondition.
func (s *Store) UpdateRegistoPonto(ctx context.Context, id int, patch storage.RegistoPontoPatch) (*model.RegistoPonto, error) {
	row, err := queryOne(ctx, s, scanRegisto, updateRegistoSQL,
		sql.Named("hora_entrada", nullTime(patch.HoraEntrada)),
		sql.Named("hora_saida", nullTime(patch.HoraSaida)),
		sql.Named("total_horas_trabalhadas", nullDecimal(patch.TotalHorasTrabalhadas)),
		sql.Named("total_tempo_intervalo", nullDecimal(patch.TotalTempoIntervalo)),
		sql.Named("latitude_entrada", nullDecimal(patch.LatitudeEntrada)),
		sql.Named("longitude_entrada", nullDecimal(patch.LongitudeEntrada)),
		sql.Named("latitude_saida", nullDecimal(patch.LatitudeSaida)),
		sql.Named("longitude_saida", nullDecimal(patch.LongitudeSaida)),
		sql.Named("obra_id", nullInt(patch.ObraID)),
		sql.Named("id", id),
		sql.Named("only_if_not_in", boolBit(patch.OnlyIfNotClockedIn)),
		sql.Named("only_if_not_out", boolBit(patch.OnlyIfNotClockedOut)),
	)
	if err != nil {
		return nil, err
	}
	if row != nil {
		return row, nil
	}

	var n int
	err = s.exec(func(db *sql.DB) error {
		return db.QueryRowContext(ctx, countRegistoSQL, sql.Named("id", id)).Scan(&n)
	})
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, storage.ErrNotFound
	}
	return nil, storage.ErrConflict
}
