// Package storagetest holds the behavioural contract every storage.Storage
// backend must satisfy. Backends call Run from their own _test.go files.
package storagetest

import (
	"context"
	"testing"
	"time"

	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/model"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/storage"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns a fresh, empty store that already holds the seeded admin.
type Factory func(t *testing.T) storage.Storage

// Run executes the full contract against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("Users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("Obras", func(t *testing.T) { testObras(t, newStore(t)) })
	t.Run("RegistosPonto", func(t *testing.T) { testRegistos(t, newStore(t)) })
	t.Run("Equipas", func(t *testing.T) { testEquipas(t, newStore(t)) })
	t.Run("PartesDiarias", func(t *testing.T) { testPartes(t, newStore(t)) })
	t.Run("StatsEmpty", func(t *testing.T) { testStatsEmpty(t, newStore(t)) })
	t.Run("Stats", func(t *testing.T) { testStats(t, newStore(t)) })
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func intPtr(i int) *int { return &i }

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}

// MustUser creates a user with the given username and role.
func MustUser(t *testing.T, s storage.Storage, username, role string) *model.User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), &model.User{
		ID:        "user_" + username,
		Username:  username,
		Password:  "hash",
		FirstName: username,
		TipoUser:  role,
	})
	require.NoError(t, err)
	return u
}

// MustObra creates an obra with the given codigo; the QR token is derived from it.
func MustObra(t *testing.T, s storage.Storage, codigo string) *model.Obra {
	t.Helper()
	o, err := s.CreateObra(context.Background(), &model.Obra{
		Codigo: codigo,
		Nome:   "Obra " + codigo,
		QRCode: "qr-" + codigo,
	})
	require.NoError(t, err)
	return o
}

func testUsers(t *testing.T, s storage.Storage) {
	ctx := context.Background()

	admin, err := s.GetUser(ctx, storage.AdminID)
	require.NoError(t, err)
	require.NotNil(t, admin)
	assert.Equal(t, model.RoleDiretor, admin.TipoUser)

	missing, err := s.GetUser(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)

	u := MustUser(t, s, "joao.silva", model.RoleTrabalhador)
	assert.Equal(t, "user_joao.silva", u.ID)
	assert.False(t, u.CreatedAt.IsZero())

	_, err = s.CreateUser(ctx, &model.User{ID: "other", Username: "joao.silva", Password: "x"})
	assert.ErrorIs(t, err, storage.ErrDuplicate)

	byName, err := s.GetUserByUsername(ctx, "joao.silva")
	require.NoError(t, err)
	require.NotNil(t, byName)
	assert.Equal(t, u.ID, byName.ID)

	noName, err := s.GetUserByUsername(ctx, "ghost")
	require.NoError(t, err)
	assert.Nil(t, noName)

	updated, err := s.UpdateUserRole(ctx, u.ID, model.RoleEncarregado)
	require.NoError(t, err)
	assert.Equal(t, model.RoleEncarregado, updated.TipoUser)

	_, err = s.UpdateUserRole(ctx, "nobody", model.RoleDiretor)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	pw, err := s.UpdateUserPassword(ctx, u.ID, "newhash")
	require.NoError(t, err)
	assert.Equal(t, "newhash", pw.Password)

	_, err = s.UpdateUserPassword(ctx, "nobody", "x")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	up, err := s.UpsertUser(ctx, &model.User{ID: "ext-1", Username: "maria", Password: "h", TipoUser: model.RoleTrabalhador})
	require.NoError(t, err)
	assert.Equal(t, "maria", up.Username)
	createdAt := up.CreatedAt
	up, err = s.UpsertUser(ctx, &model.User{
		ID: "ext-1", Username: "maria", Password: "h2", FirstName: "Maria",
		TipoUser: model.RoleTrabalhador, CreatedAt: createdAt.Add(time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, "Maria", up.FirstName)

	reloaded, err := s.GetUser(ctx, "ext-1")
	require.NoError(t, err)
	require.NotNil(t, reloaded)
	assert.Equal(t, "h2", reloaded.Password)
	assert.WithinDuration(t, createdAt, reloaded.CreatedAt, time.Second, "upsert must keep created_at")

	all, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func testObras(t *testing.T, s storage.Storage) {
	ctx := context.Background()

	empty, err := s.ListObras(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	absent, err := s.GetObraByQRCode(ctx, "never-issued")
	require.NoError(t, err)
	assert.Nil(t, absent)

	first := MustObra(t, s, "OBR001")
	assert.Positive(t, first.ID)
	assert.Equal(t, model.EstadoAtiva, first.Estado)
	second := MustObra(t, s, "OBR002")
	assert.NotEqual(t, first.ID, second.ID)

	_, err = s.CreateObra(ctx, &model.Obra{Codigo: "OBR001", Nome: "dup", QRCode: "qr-other"})
	assert.ErrorIs(t, err, storage.ErrDuplicate)

	byQR, err := s.GetObraByQRCode(ctx, "qr-OBR002")
	require.NoError(t, err)
	require.NotNil(t, byQR)
	assert.Equal(t, second.ID, byQR.ID)

	got, err := s.GetObra(ctx, first.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "OBR001", got.Codigo)

	none, err := s.GetObra(ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, none)

	estado, loc := model.EstadoPausada, "Porto"
	patched, err := s.UpdateObra(ctx, first.ID, storage.ObraPatch{Estado: &estado, Localizacao: &loc})
	require.NoError(t, err)
	assert.Equal(t, model.EstadoPausada, patched.Estado)
	assert.Equal(t, "Porto", patched.Localizacao)
	assert.Equal(t, "Obra OBR001", patched.Nome)

	_, err = s.UpdateObra(ctx, 9999, storage.ObraPatch{Estado: &estado})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	list, err := s.ListObras(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
}

func testRegistos(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	u := MustUser(t, s, "worker", model.RoleTrabalhador)
	o := MustObra(t, s, "OBR010")

	none, err := s.GetRegistoPontoForDate(ctx, u.ID, "2024-03-04")
	require.NoError(t, err)
	assert.Nil(t, none)

	list, err := s.ListRegistosPonto(ctx, u.ID)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	_, err = s.CreateRegistoPonto(ctx, &model.RegistoPonto{UserID: u.ID, Data: "2024-03-04", ObraID: intPtr(9999)})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	entrada := time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)
	r, err := s.CreateRegistoPonto(ctx, &model.RegistoPonto{
		UserID:          u.ID,
		Data:            "2024-03-04",
		HoraEntrada:     &entrada,
		ObraID:          &o.ID,
		LatitudeEntrada: dec("38.72225000"),
	})
	require.NoError(t, err)
	assert.Positive(t, r.ID)

	_, err = s.CreateRegistoPonto(ctx, &model.RegistoPonto{UserID: u.ID, Data: "2024-03-04", ObraID: &o.ID})
	assert.ErrorIs(t, err, storage.ErrDuplicate)

	_, err = s.UpdateRegistoPonto(ctx, r.ID, storage.RegistoPontoPatch{HoraEntrada: &entrada, OnlyIfNotClockedIn: true})
	assert.ErrorIs(t, err, storage.ErrConflict)

	saida := entrada.Add(4*time.Hour + 30*time.Minute)
	closed, err := s.UpdateRegistoPonto(ctx, r.ID, storage.RegistoPontoPatch{
		HoraSaida:             &saida,
		TotalHorasTrabalhadas: dec("4.5"),
		TotalTempoIntervalo:   dec("0"),
		OnlyIfNotClockedOut:   true,
	})
	require.NoError(t, err)
	require.NotNil(t, closed.HoraSaida)
	require.NotNil(t, closed.TotalHorasTrabalhadas)
	assertDecimal(t, "4.5", *closed.TotalHorasTrabalhadas)
	require.NotNil(t, closed.ObraID)
	assert.Equal(t, o.ID, *closed.ObraID)

	_, err = s.UpdateRegistoPonto(ctx, r.ID, storage.RegistoPontoPatch{HoraSaida: &saida, OnlyIfNotClockedOut: true})
	assert.ErrorIs(t, err, storage.ErrConflict)

	_, err = s.UpdateRegistoPonto(ctx, 9999, storage.RegistoPontoPatch{HoraSaida: &saida})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	today, err := s.GetRegistoPontoForDate(ctx, u.ID, "2024-03-04")
	require.NoError(t, err)
	require.NotNil(t, today)
	assert.Equal(t, r.ID, today.ID)
	require.NotNil(t, today.HoraEntrada)
	assert.True(t, today.HoraEntrada.Equal(entrada))

	_, err = s.CreateRegistoPonto(ctx, &model.RegistoPonto{UserID: u.ID, Data: "2024-03-05", ObraID: &o.ID})
	require.NoError(t, err)
	list, err = s.ListRegistosPonto(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "2024-03-05", list[0].Data)
}

func testEquipas(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	boss := MustUser(t, s, "boss", model.RoleEncarregado)
	w1 := MustUser(t, s, "w1", model.RoleTrabalhador)
	w2 := MustUser(t, s, "w2", model.RoleTrabalhador)
	o := MustObra(t, s, "OBR020")

	all, err := s.ListEquipas(ctx)
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)

	_, err = s.CreateEquipa(ctx, &model.Equipa{Nome: "ghost", ObraID: 9999, EncarregadoID: boss.ID})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	e, err := s.CreateEquipa(ctx, &model.Equipa{Nome: "Cofragem", ObraID: o.ID, EncarregadoID: boss.ID})
	require.NoError(t, err)
	assert.Positive(t, e.ID)

	m, err := s.AddEquipaMembro(ctx, e.ID, w1.ID)
	require.NoError(t, err)
	assert.Equal(t, w1.ID, m.UserID)
	_, err = s.AddEquipaMembro(ctx, e.ID, w2.ID)
	require.NoError(t, err)

	_, err = s.AddEquipaMembro(ctx, e.ID, w1.ID)
	assert.ErrorIs(t, err, storage.ErrDuplicate)
	_, err = s.AddEquipaMembro(ctx, 9999, w1.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = s.AddEquipaMembro(ctx, e.ID, "nobody")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	got, err := s.GetEquipa(ctx, e.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.NotNil(t, got.Obra)
	assert.Equal(t, "OBR020", got.Obra.Codigo)
	require.NotNil(t, got.Encarregado)
	assert.Equal(t, "boss", got.Encarregado.Username)
	require.Len(t, got.Membros, 2)
	for _, mm := range got.Membros {
		require.NotNil(t, mm.User)
	}

	mine, err := s.ListEquipasByMembro(ctx, w1.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, e.ID, mine[0].ID)

	supervised, err := s.ListEquipasByEncarregado(ctx, boss.ID)
	require.NoError(t, err)
	require.Len(t, supervised, 1)

	nothing, err := s.ListEquipasByEncarregado(ctx, w1.ID)
	require.NoError(t, err)
	assert.NotNil(t, nothing)
	assert.Empty(t, nothing)

	require.NoError(t, s.RemoveEquipaMembro(ctx, e.ID, w1.ID))
	assert.ErrorIs(t, s.RemoveEquipaMembro(ctx, e.ID, w1.ID), storage.ErrNotFound)

	mine, err = s.ListEquipasByMembro(ctx, w1.ID)
	require.NoError(t, err)
	assert.Empty(t, mine)

	absent, err := s.GetEquipa(ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, absent)
}

func testPartes(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	u := MustUser(t, s, "reporter", model.RoleTrabalhador)
	o := MustObra(t, s, "OBR030")

	empty, err := s.ListPartesDiarias(ctx, u.ID)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	_, err = s.CreateParteDiaria(ctx, &model.ParteDiaria{Categoria: model.CategoriaMateriais, Data: "2024-03-04", UserID: u.ID, ObraID: 9999})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	p, err := s.CreateParteDiaria(ctx, &model.ParteDiaria{
		Categoria:  model.CategoriaMateriais,
		Designacao: "Cimento",
		Quantidade: dec("12.5"),
		Unidade:    "saco",
		Data:       "2024-03-04",
		UserID:     u.ID,
		ObraID:     o.ID,
	})
	require.NoError(t, err)
	assert.Positive(t, p.ID)

	_, err = s.CreateParteDiaria(ctx, &model.ParteDiaria{
		Categoria: model.CategoriaMaoObra,
		Horas:     dec("8"),
		Nome:      "Carlos",
		Data:      "2024-03-05",
		UserID:    u.ID,
		ObraID:    o.ID,
	})
	require.NoError(t, err)

	mine, err := s.ListPartesDiarias(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "2024-03-05", mine[0].Data)
	require.NotNil(t, mine[1].Obra)
	assert.Equal(t, "OBR030", mine[1].Obra.Codigo)
	require.NotNil(t, mine[1].Quantidade)
	assertDecimal(t, "12.5", *mine[1].Quantidade)

	byObra, err := s.ListPartesDiariasByObra(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, byObra, 2)
	require.NotNil(t, byObra[0].User)
	assert.Equal(t, "reporter", byObra[0].User.Username)
}

func testStatsEmpty(t *testing.T, s storage.Storage) {
	u := MustUser(t, s, "idle", model.RoleTrabalhador)
	st, err := s.GetUserStats(context.Background(), u.ID, storage.StatsWindow{Today: "2024-03-10", WeekStart: "2024-03-04"})
	require.NoError(t, err)
	assert.True(t, st.HoursToday.IsZero())
	assert.True(t, st.HoursWeek.IsZero())
	assert.Zero(t, st.ActiveProjects)
	assert.Zero(t, st.TeamMembers)
}

func testStats(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	boss := MustUser(t, s, "chief", model.RoleEncarregado)
	w1 := MustUser(t, s, "a", model.RoleTrabalhador)
	w2 := MustUser(t, s, "b", model.RoleTrabalhador)
	o1 := MustObra(t, s, "OBR041")
	o2 := MustObra(t, s, "OBR042")
	o3 := MustObra(t, s, "OBR043")

	e1, err := s.CreateEquipa(ctx, &model.Equipa{Nome: "E1", ObraID: o1.ID, EncarregadoID: boss.ID})
	require.NoError(t, err)
	e2, err := s.CreateEquipa(ctx, &model.Equipa{Nome: "E2", ObraID: o2.ID, EncarregadoID: boss.ID})
	require.NoError(t, err)
	for _, pair := range []struct {
		equipa int
		user   string
	}{{e1.ID, w1.ID}, {e1.ID, w2.ID}, {e2.ID, w1.ID}, {e2.ID, boss.ID}} {
		_, err := s.AddEquipaMembro(ctx, pair.equipa, pair.user)
		require.NoError(t, err)
	}

	records := []model.RegistoPonto{
		{UserID: boss.ID, Data: "2024-03-10", ObraID: &o3.ID, TotalHorasTrabalhadas: dec("8")},
		{UserID: boss.ID, Data: "2024-03-08", ObraID: &o3.ID, TotalHorasTrabalhadas: dec("7.5")},
		{UserID: boss.ID, Data: "2024-03-04", ObraID: &o1.ID, TotalHorasTrabalhadas: dec("6.25")},
		{UserID: boss.ID, Data: "2024-03-01", ObraID: &o1.ID, TotalHorasTrabalhadas: dec("9")},
		{UserID: w1.ID, Data: "2024-03-10", ObraID: &o1.ID, TotalHorasTrabalhadas: dec("3")},
	}
	for i := range records {
		_, err := s.CreateRegistoPonto(ctx, &records[i])
		require.NoError(t, err)
	}

	st, err := s.GetUserStats(ctx, boss.ID, storage.StatsWindow{Today: "2024-03-10", WeekStart: "2024-03-04"})
	require.NoError(t, err)
	assertDecimal(t, "8", st.HoursToday)
	assertDecimal(t, "21.75", st.HoursWeek)
	// o3 and o1 from records in the window, o2 from membership of E2
	assert.Equal(t, 3, st.ActiveProjects)
	// a, b and chief across E1 and E2
	assert.Equal(t, 3, st.TeamMembers)

	open, err := s.CreateRegistoPonto(ctx, &model.RegistoPonto{UserID: w2.ID, Data: "2024-03-10", ObraID: &o1.ID})
	require.NoError(t, err)
	assert.Nil(t, open.TotalHorasTrabalhadas)
	st, err = s.GetUserStats(ctx, w2.ID, storage.StatsWindow{Today: "2024-03-10", WeekStart: "2024-03-04"})
	require.NoError(t, err)
	assert.True(t, st.HoursToday.IsZero())
	assert.Equal(t, 1, st.ActiveProjects)
	assert.Zero(t, st.TeamMembers)
}
