package sqlserver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/model"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/storage"
)

// equipaSelect loads a team together with its obra and encarregado.
var equipaSelect = "SELECT e.id, e.nome, e.obra_id, e.encarregado_id, e.created_at, e.updated_at, " +
	prefixed("o.", obraColumns) + ", " + prefixed("u.", userColumns) + `
FROM equipa_obra e
JOIN obras o ON o.id = e.obra_id
JOIN users u ON u.id = e.encarregado_id`

// membroSelect loads memberships with their user, for the teams selected by
// the same filter as equipaSelect.
var membroSelect = "SELECT m.id, m.equipa_id, m.user_id, m.created_at, " + prefixed("u.", userColumns) + `
FROM equipa_membros m
JOIN users u ON u.id = m.user_id
WHERE m.equipa_id IN (SELECT e.id FROM equipa_obra e %s)
ORDER BY m.equipa_id ASC, m.id ASC`

func scanEquipa(r rowScanner) (*model.Equipa, error) {
	var e model.Equipa
	var o model.Obra
	var localizacao sql.NullString
	var u model.User
	var email, first, last, profileImage sql.NullString
	err := r.Scan(&e.ID, &e.Nome, &e.ObraID, &e.EncarregadoID, &e.CreatedAt, &e.UpdatedAt,
		&o.ID, &o.Codigo, &o.Nome, &o.Estado, &localizacao, &o.QRCode, &o.CreatedAt, &o.UpdatedAt,
		&u.ID, &u.Username, &u.Password, &email, &first, &last, &profileImage, &u.TipoUser, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	o.Localizacao = localizacao.String
	u.Email, u.FirstName, u.LastName, u.ProfileImageURL = email.String, first.String, last.String, profileImage.String
	e.Obra = &o
	e.Encarregado = &u
	e.Membros = []model.EquipaMembro{}
	return &e, nil
}

func scanMembro(r rowScanner) (*model.EquipaMembro, error) {
	var m model.EquipaMembro
	var u model.User
	var email, first, last, profileImage sql.NullString
	err := r.Scan(&m.ID, &m.EquipaID, &m.UserID, &m.CreatedAt,
		&u.ID, &u.Username, &u.Password, &email, &first, &last, &profileImage, &u.TipoUser, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.Email, u.FirstName, u.LastName, u.ProfileImageURL = email.String, first.String, last.String, profileImage.String
	m.User = &u
	return &m, nil
}

// listEquipas runs both queries with the same WHERE clause and stitches the
// members onto their teams.
func (s *Store) listEquipas(ctx context.Context, where string, args ...interface{}) ([]model.Equipa, error) {
	equipas, err := queryList(ctx, s, scanEquipa, equipaSelect+" "+where+" ORDER BY e.id ASC", args...)
	if err != nil || len(equipas) == 0 {
		return equipas, err
	}
	membros, err := queryList(ctx, s, scanMembro, fmt.Sprintf(membroSelect, where), args...)
	if err != nil {
		return nil, err
	}
	byID := make(map[int]int, len(equipas))
	for i := range equipas {
		byID[equipas[i].ID] = i
	}
	for _, m := range membros {
		if i, ok := byID[m.EquipaID]; ok {
			equipas[i].Membros = append(equipas[i].Membros, m)
		}
	}
	return equipas, nil
}

func (s *Store) ListEquipas(ctx context.Context) ([]model.Equipa, error) {
	return s.listEquipas(ctx, "")
}

func (s *Store) ListEquipasByEncarregado(ctx context.Context, userID string) ([]model.Equipa, error) {
	return s.listEquipas(ctx, "WHERE e.encarregado_id = @user_id", sql.Named("user_id", userID))
}

func (s *Store) ListEquipasByMembro(ctx context.Context, userID string) ([]model.Equipa, error) {
	return s.listEquipas(ctx,
		"WHERE e.id IN (SELECT equipa_id FROM equipa_membros WHERE user_id = @user_id)",
		sql.Named("user_id", userID))
}

func (s *Store) GetEquipa(ctx context.Context, id int) (*model.Equipa, error) {
	equipas, err := s.listEquipas(ctx, "WHERE e.id = @id", sql.Named("id", id))
	if err != nil || len(equipas) == 0 {
		return nil, err
	}
	return &equipas[0], nil
}

const insertEquipaSQL = `INSERT INTO equipa_obra (nome, obra_id, encarregado_id)
OUTPUT INSERTED.id
VALUES (@nome, @obra_id, @encarregado_id)`

func (s *Store) CreateEquipa(ctx context.Context, e *model.Equipa) (*model.Equipa, error) {
	var id int
	err := s.exec(func(db *sql.DB) error {
		return db.QueryRowContext(ctx, insertEquipaSQL,
			sql.Named("nome", e.Nome),
			sql.Named("obra_id", e.ObraID),
			sql.Named("encarregado_id", e.EncarregadoID),
		).Scan(&id)
	})
	if err != nil {
		return nil, err
	}
	eq, err := s.GetEquipa(ctx, id)
	return inserted(eq, err)
}

const insertMembroSQL = `INSERT INTO equipa_membros (equipa_id, user_id)
OUTPUT INSERTED.id, INSERTED.equipa_id, INSERTED.user_id, INSERTED.created_at
VALUES (@equipa_id, @user_id)`

// AddEquipaMembro relies on uq_equipa_membro for duplicates and on the
// foreign keys for unknown teams or users.
func (s *Store) AddEquipaMembro(ctx context.Context, equipaID int, userID string) (*model.EquipaMembro, error) {
	var m model.EquipaMembro
	err := s.exec(func(db *sql.DB) error {
		return db.QueryRowContext(ctx, insertMembroSQL,
			sql.Named("equipa_id", equipaID),
			sql.Named("user_id", userID),
		).Scan(&m.ID, &m.EquipaID, &m.UserID, &m.CreatedAt)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errNoOutput
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

const deleteMembroSQL = `DELETE FROM equipa_membros WHERE equipa_id = @equipa_id AND user_id = @user_id`

func (s *Store) RemoveEquipaMembro(ctx context.Context, equipaID int, userID string) error {
	var affected int64
	err := s.exec(func(db *sql.DB) error {
		res, err := db.ExecContext(ctx, deleteMembroSQL,
			sql.Named("equipa_id", equipaID), sql.Named("user_id", userID))
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}
