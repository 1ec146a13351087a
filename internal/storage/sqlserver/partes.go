package sqlserver

import (
	"context"
	"database/sql"

	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/model"

	"github.com/shopspring/decimal"
)

var parteSelect = "SELECT p.id, p.categoria, p.designacao, p.quantidade, p.unidade, p.horas, p.nome, " +
	"p.especialidade, p.data, p.user_id, p.obra_id, p.created_at, p.updated_at, " +
	prefixed("o.", obraColumns) + ", " + prefixed("u.", userColumns) + `
FROM partes_diarias p
JOIN obras o ON o.id = p.obra_id
JOIN users u ON u.id = p.user_id`

const parteOrder = " ORDER BY p.data DESC, p.id DESC"

func scanParte(r rowScanner) (*model.ParteDiaria, error) {
	var p model.ParteDiaria
	var designacao, unidade, nome, especialidade sql.NullString
	var quantidade, horas decimal.NullDecimal
	var o model.Obra
	var localizacao sql.NullString
	var u model.User
	var email, first, last, profileImage sql.NullString
	err := r.Scan(&p.ID, &p.Categoria, &designacao, &quantidade, &unidade, &horas, &nome,
		&especialidade, &p.Data, &p.UserID, &p.ObraID, &p.CreatedAt, &p.UpdatedAt,
		&o.ID, &o.Codigo, &o.Nome, &o.Estado, &localizacao, &o.QRCode, &o.CreatedAt, &o.UpdatedAt,
		&u.ID, &u.Username, &u.Password, &email, &first, &last, &profileImage, &u.TipoUser, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Designacao = designacao.String
	p.Unidade = unidade.String
	p.Nome = nome.String
	p.Especialidade = especialidade.String
	p.Quantidade = decPtr(quantidade)
	p.Horas = decPtr(horas)
	o.Localizacao = localizacao.String
	u.Email, u.FirstName, u.LastName, u.ProfileImageURL = email.String, first.String, last.String, profileImage.String
	p.Obra = &o
	p.User = &u
	return &p, nil
}

func (s *Store) ListPartesDiarias(ctx context.Context, userID string) ([]model.ParteDiaria, error) {
	return queryList(ctx, s, scanParte, parteSelect+" WHERE p.user_id = @user_id"+parteOrder,
		sql.Named("user_id", userID))
}

func (s *Store) ListPartesDiariasByObra(ctx context.Context, obraID int) ([]model.ParteDiaria, error) {
	return queryList(ctx, s, scanParte, parteSelect+" WHERE p.obra_id = @obra_id"+parteOrder,
		sql.Named("obra_id", obraID))
}

const insertParteSQL = `INSERT INTO partes_diarias
    (categoria, designacao, quantidade, unidade, horas, nome, especialidade, data, user_id, obra_id)
OUTPUT INSERTED.id
VALUES (@categoria, @designacao, @quantidade, @unidade, @horas, @nome, @especialidade, @data, @user_id, @obra_id)`

// CreateParteDiaria inserts the row and reloads it with its obra and author.
func (s *Store) CreateParteDiaria(ctx context.Context, p *model.ParteDiaria) (*model.ParteDiaria, error) {
	var id int
	err := s.exec(func(db *sql.DB) error {
		return db.QueryRowContext(ctx, insertParteSQL,
			sql.Named("categoria", p.Categoria),
			sql.Named("designacao", p.Designacao),
			sql.Named("quantidade", nullDecimal(p.Quantidade)),
			sql.Named("unidade", p.Unidade),
			sql.Named("horas", nullDecimal(p.Horas)),
			sql.Named("nome", p.Nome),
			sql.Named("especialidade", p.Especialidade),
			sql.Named("data", p.Data),
			sql.Named("user_id", p.UserID),
			sql.Named("obra_id", p.ObraID),
		).Scan(&id)
	})
	if err != nil {
		return nil, err
	}
	row, err := queryOne(ctx, s, scanParte, parteSelect+" WHERE p.id = @id", sql.Named("id", id))
	return inserted(row, err)
}
