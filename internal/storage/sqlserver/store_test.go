package sqlserver

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/infra"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/model"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/storage"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// serverError mimics mssql.Error for translation tests.
type serverError struct{ number int32 }

func (e serverError) Error() string         { return fmt.Sprintf("mssql: error %d", e.number) }
func (e serverError) SQLErrorNumber() int32 { return e.number }

var ts = time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)

var (
	userCols  = []string{"id", "username", "password", "email", "first_name", "last_name", "profile_image_url", "tipo_user", "created_at", "updated_at"}
	obraCols  = []string{"id", "codigo", "nome", "estado", "localizacao", "qr_code", "created_at", "updated_at"}
	equipaHdr = []string{"id", "nome", "obra_id", "encarregado_id", "created_at", "updated_at"}
)

func userValues(id, username, role string) []driver.Value {
	return []driver.Value{id, username, "hash", nil, "First", "Last", nil, role, ts, ts}
}

func obraValues(id int, codigo string) []driver.Value {
	return []driver.Value{int64(id), codigo, "Obra " + codigo, model.EstadoAtiva, nil, "qr-" + codigo, ts, ts}
}

func newMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(db), mock
}

func q(fragment string) string { return regexp.QuoteMeta(fragment) }

func TestNilStoreIsNotConnected(t *testing.T) {
	s := New(nil)
	ctx := context.Background()

	_, err := s.GetUser(ctx, "admin")
	assert.ErrorIs(t, err, storage.ErrNotConnected)
	_, err = s.ListObras(ctx)
	assert.ErrorIs(t, err, storage.ErrNotConnected)
	assert.ErrorIs(t, s.Ping(ctx), storage.ErrNotConnected)
	assert.ErrorIs(t, s.EnsureSchema(ctx), storage.ErrNotConnected)
	assert.NoError(t, s.Close())
}

func TestGetUser(t *testing.T) {
	s, mock := newMock(t)
	ctx := context.Background()

	mock.ExpectQuery(q("FROM users WHERE id = @id")).
		WillReturnRows(sqlmock.NewRows(userCols))
	u, err := s.GetUser(ctx, "ghost")
	require.NoError(t, err)
	assert.Nil(t, u)

	mock.ExpectQuery(q("FROM users WHERE id = @id")).
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(userValues("admin", "admin", model.RoleDiretor)...))
	u, err = s.GetUser(ctx, "admin")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "admin", u.Username)
	assert.Equal(t, model.RoleDiretor, u.TipoUser)
	assert.Empty(t, u.Email)
	assert.Equal(t, "First", u.FirstName)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListUsersEmptyIsNonNil(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery(q("FROM users ORDER BY username ASC")).WillReturnRows(sqlmock.NewRows(userCols))

	users, err := s.ListUsers(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Empty(t, users)
}

func TestCreateObra(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery(q("INSERT INTO obras (codigo, nome, estado, localizacao, qr_code)")).
		WillReturnRows(sqlmock.NewRows(obraCols).AddRow(obraValues(1, "OBR001")...))

	o, err := s.CreateObra(context.Background(), &model.Obra{Codigo: "OBR001", Nome: "Obra OBR001", QRCode: "qr-OBR001"})
	require.NoError(t, err)
	assert.Equal(t, 1, o.ID)
	assert.Equal(t, model.EstadoAtiva, o.Estado)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateObraMissing(t *testing.T) {
	s, mock := newMock(t)
	nome := "Renamed"
	mock.ExpectQuery(q("UPDATE obras SET")).WillReturnRows(sqlmock.NewRows(obraCols))

	_, err := s.UpdateObra(context.Background(), 99, storage.ObraPatch{Nome: &nome})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestErrorTranslation(t *testing.T) {
	s, mock := newMock(t)
	ctx := context.Background()

	for _, n := range []int32{errUniqueConstraint, errUniqueIndex} {
		mock.ExpectQuery(q("INSERT INTO users")).WillReturnError(serverError{number: n})
		_, err := s.CreateUser(ctx, &model.User{Username: "dup", Password: "x"})
		assert.ErrorIs(t, err, storage.ErrDuplicate)
	}

	mock.ExpectQuery(q("INSERT INTO registo_ponto")).WillReturnError(serverError{number: errForeignKey})
	_, err := s.CreateRegistoPonto(ctx, &model.RegistoPonto{UserID: "ghost", Data: "2024-03-04"})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// Server-side errors never trip the breaker.
	assert.Equal(t, infra.CBClosed, s.BreakerState())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateRegistoPontoConflictAndNotFound(t *testing.T) {
	s, mock := newMock(t)
	ctx := context.Background()
	now := ts
	patch := storage.RegistoPontoPatch{HoraEntrada: &now, OnlyIfNotClockedIn: true}

	mock.ExpectQuery(q("UPDATE registo_ponto SET")).WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(q(countRegistoSQL)).WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(int64(1)))
	_, err := s.UpdateRegistoPonto(ctx, 7, patch)
	assert.ErrorIs(t, err, storage.ErrConflict)

	mock.ExpectQuery(q("UPDATE registo_ponto SET")).WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(q(countRegistoSQL)).WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(int64(0)))
	_, err = s.UpdateRegistoPonto(ctx, 8, patch)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetEquipaStitchesMembers(t *testing.T) {
	s, mock := newMock(t)

	cols := append(append(append([]string{}, equipaHdr...), obraCols...), userCols...)
	row := append([]driver.Value{int64(3), "Equipa A", int64(1), "user_boss", ts, ts}, obraValues(1, "OBR001")...)
	row = append(row, userValues("user_boss", "boss", model.RoleEncarregado)...)
	mock.ExpectQuery(q("FROM equipa_obra e")).WillReturnRows(sqlmock.NewRows(cols).AddRow(row...))

	membroCols := append([]string{"id", "equipa_id", "user_id", "created_at"}, userCols...)
	m1 := append([]driver.Value{int64(10), int64(3), "user_w1", ts}, userValues("user_w1", "w1", model.RoleTrabalhador)...)
	m2 := append([]driver.Value{int64(11), int64(3), "user_w2", ts}, userValues("user_w2", "w2", model.RoleTrabalhador)...)
	mock.ExpectQuery(q("FROM equipa_membros m")).WillReturnRows(sqlmock.NewRows(membroCols).AddRow(m1...).AddRow(m2...))

	e, err := s.GetEquipa(context.Background(), 3)
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, "OBR001", e.Obra.Codigo)
	assert.Equal(t, "boss", e.Encarregado.Username)
	require.Len(t, e.Membros, 2)
	assert.Equal(t, "w2", e.Membros[1].User.Username)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListEquipasEmptySkipsMemberQuery(t *testing.T) {
	s, mock := newMock(t)
	cols := append(append(append([]string{}, equipaHdr...), obraCols...), userCols...)
	mock.ExpectQuery(q("FROM equipa_obra e")).WillReturnRows(sqlmock.NewRows(cols))

	equipas, err := s.ListEquipas(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, equipas)
	assert.Empty(t, equipas)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemoveEquipaMembroMissing(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectExec(q(deleteMembroSQL)).WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.RemoveEquipaMembro(context.Background(), 1, "nobody")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestGetUserStats(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery(q("AS hours_today")).WillReturnRows(
		sqlmock.NewRows([]string{"hours_today", "hours_week", "active_projects", "team_members"}).
			AddRow("8.00", "21.75", int64(3), int64(2)))

	stats, err := s.GetUserStats(context.Background(), "user_w1", storage.StatsWindow{Today: "2024-03-04", WeekStart: "2024-02-27"})
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("8").Equal(stats.HoursToday))
	assert.True(t, decimal.RequireFromString("21.75").Equal(stats.HoursWeek))
	assert.Equal(t, 3, stats.ActiveProjects)
	assert.Equal(t, 2, stats.TeamMembers)
}

func TestGetUserStatsNullHours(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery(q("AS hours_today")).WillReturnRows(
		sqlmock.NewRows([]string{"hours_today", "hours_week", "active_projects", "team_members"}).
			AddRow(nil, nil, int64(0), int64(0)))

	stats, err := s.GetUserStats(context.Background(), "user_w1", storage.StatsWindow{Today: "2024-03-04", WeekStart: "2024-02-27"})
	require.NoError(t, err)
	assert.True(t, stats.HoursToday.IsZero())
	assert.True(t, stats.HoursWeek.IsZero())
}

func TestCircuitOpensOnConnectionFailures(t *testing.T) {
	s, mock := newMock(t)
	dial := errors.New("dial tcp 10.0.0.1:1433: connect: connection refused")
	threshold := infra.DefaultCBConfig().FailureThreshold
	for i := 0; i < threshold; i++ {
		mock.ExpectQuery(q("FROM obras")).WillReturnError(dial)
		_, err := s.ListObras(context.Background())
		assert.ErrorIs(t, err, dial)
	}
	assert.Equal(t, infra.CBOpen, s.BreakerState())

	_, err := s.ListObras(context.Background())
	assert.ErrorIs(t, err, storage.ErrNotConnected)
	assert.ErrorIs(t, err, infra.ErrCircuitOpen)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSchemaCurrentVersionIsNoop(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectExec(q("CREATE TABLE schema_meta")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(q(selectVersion)).WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(int64(schemaVersion)))

	require.NoError(t, s.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSchemaFreshDatabase(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectExec(q("CREATE TABLE schema_meta")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(q(selectVersion)).WillReturnRows(sqlmock.NewRows([]string{"version"}))
	mock.ExpectQuery(q("COL_LENGTH(N'registo_ponto', N'latitude_entrada')")).
		WillReturnRows(sqlmock.NewRows([]string{"stale"}).AddRow(int64(0)))
	for _, stmt := range createStatements {
		mock.ExpectExec(q(stmt)).WillReturnResult(sqlmock.NewResult(0, 0))
	}
	for _, m := range columnMigrations {
		mock.ExpectExec(q(addColumnSQL(m.table, m.column, m.definition))).WillReturnResult(sqlmock.NewResult(0, 0))
	}
	mock.ExpectExec(q("MERGE schema_meta")).WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSchemaDropsStaleLayout(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectExec(q("CREATE TABLE schema_meta")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(q(selectVersion)).WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(int64(1)))
	mock.ExpectQuery(q("COL_LENGTH")).WillReturnRows(sqlmock.NewRows([]string{"stale"}).AddRow(int64(1)))
	for _, stmt := range dropStatements {
		mock.ExpectExec(q(stmt)).WillReturnResult(sqlmock.NewResult(0, 0))
	}
	for _, stmt := range createStatements {
		mock.ExpectExec(q(stmt)).WillReturnResult(sqlmock.NewResult(0, 0))
	}
	for _, m := range columnMigrations {
		mock.ExpectExec(q(addColumnSQL(m.table, m.column, m.definition))).WillReturnResult(sqlmock.NewResult(0, 0))
	}
	mock.ExpectExec(q("MERGE schema_meta")).WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTranslatePassesThroughUnknownErrors(t *testing.T) {
	other := serverError{number: 1205}
	assert.Equal(t, error(other), translate(other))
	assert.Nil(t, translate(nil))
	assert.False(t, isConnFailure(sql.ErrNoRows))
	assert.False(t, isConnFailure(other))
	assert.True(t, isConnFailure(errors.New("i/o timeout")))
}
