package sqlserver

import (
	"context"
	"database/sql"

	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/model"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/storage"
)

const obraColumns = "id, codigo, nome, estado, localizacao, qr_code, created_at, updated_at"

func scanObra(r rowScanner) (*model.Obra, error) {
	var o model.Obra
	var localizacao sql.NullString
	err := r.Scan(&o.ID, &o.Codigo, &o.Nome, &o.Estado, &localizacao, &o.QRCode, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	o.Localizacao = localizacao.String
	return &o, nil
}

func (s *Store) ListObras(ctx context.Context) ([]model.Obra, error) {
	return queryList(ctx, s, scanObra, "SELECT "+obraColumns+" FROM obras ORDER BY created_at DESC, id DESC")
}

func (s *Store) GetObra(ctx context.Context, id int) (*model.Obra, error) {
	return queryOne(ctx, s, scanObra, "SELECT "+obraColumns+" FROM obras WHERE id = @id", sql.Named("id", id))
}

func (s *Store) GetObraByQRCode(ctx context.Context, qrCode string) (*model.Obra, error) {
	return queryOne(ctx, s, scanObra, "SELECT "+obraColumns+" FROM obras WHERE qr_code = @qr_code",
		sql.Named("qr_code", qrCode))
}

var insertObraSQL = `INSERT INTO obras (codigo, nome, estado, localizacao, qr_code)
OUTPUT ` + prefixed("INSERTED.", obraColumns) + `
VALUES (@codigo, @nome, @estado, @localizacao, @qr_code)`

func (s *Store) CreateObra(ctx context.Context, o *model.Obra) (*model.Obra, error) {
	estado := o.Estado
	if estado == "" {
		estado = model.EstadoAtiva
	}
	row, err := queryOne(ctx, s, scanObra, insertObraSQL,
		sql.Named("codigo", o.Codigo),
		sql.Named("nome", o.Nome),
		sql.Named("estado", estado),
		sql.Named("localizacao", o.Localizacao),
		sql.Named("qr_code", o.QRCode),
	)
	return inserted(row, err)
}

var updateObraSQL = `UPDATE obras SET
    nome = COALESCE(@nome, nome),
    estado = COALESCE(@estado, estado),
    localizacao = COALESCE(@localizacao, localizacao),
    updated_at = SYSUTCDATETIME()
OUTPUT ` + prefixed("INSERTED.", obraColumns) + `
WHERE id = @id`

func (s *Store) UpdateObra(ctx context.Context, id int, patch storage.ObraPatch) (*model.Obra, error) {
	o, err := queryOne(ctx, s, scanObra, updateObraSQL,
		sql.Named("nome", nullString(patch.Nome)),
		sql.Named("estado", nullString(patch.Estado)),
		sql.Named("localizacao", nullString(patch.Localizacao)),
		sql.Named("id", id),
	)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, storage.ErrNotFound
	}
	return o, nil
}
