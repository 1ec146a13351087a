package service

import (
	"context"
	"testing"
	"time"

	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/apierror"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/dto"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/model"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/storage/storagetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPonto_FullDay(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(t)
	worker := storagetest.MustUser(t, store, "worker", model.RoleTrabalhador)
	obra := storagetest.MustObra(t, store, "OBR001")
	clock := newClock(2024, time.March, 4)
	svc := NewPontoService(store, time.UTC, clock.Now, nil)

	today, err := svc.Today(ctx, worker.ID)
	require.NoError(t, err)
	assert.Nil(t, today)

	r, err := svc.ClockIn(ctx, worker.ID, dto.ClockInRequest{ObraID: &obra.ID})
	require.NoError(t, err)
	assert.Equal(t, "2024-03-04", r.Data)
	require.NotNil(t, r.HoraEntrada)
	assert.Equal(t, 8, r.HoraEntrada.Hour())
	assert.Equal(t, obra.ID, *r.ObraID)
	assert.True(t, r.Working())

	_, err = svc.ClockIn(ctx, worker.ID, dto.ClockInRequest{ObraID: &obra.ID})
	assertKind(t, apierror.KindConflict, err)
	assert.Equal(t, "Already clocked in today", err.Error())

	clock.Set(12, 30)
	r, err = svc.ClockOut(ctx, worker.ID, dto.ClockOutRequest{})
	require.NoError(t, err)
	assertDecimal(t, "4.5", r.TotalHorasTrabalhadas)
	assertDecimal(t, "0", r.TotalTempoIntervalo)
	assert.False(t, r.Working())

	_, err = svc.ClockOut(ctx, worker.ID, dto.ClockOutRequest{})
	assertKind(t, apierror.KindConflict, err)
	assert.Equal(t, "Already clocked out today", err.Error())

	list, err := svc.List(ctx, worker.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestPonto_ClockOutWithoutClockIn(t *testing.T) {
	store := newMemoryStore(t)
	worker := storagetest.MustUser(t, store, "worker", model.RoleTrabalhador)
	svc := NewPontoService(store, time.UTC, newClock(2024, time.March, 4).Now, nil)

	_, err := svc.ClockOut(context.Background(), worker.ID, dto.ClockOutRequest{})
	assertKind(t, apierror.KindConflict, err)
	assert.Equal(t, "Not clocked in today", err.Error())
}

func TestPonto_ClockInValidation(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(t)
	worker := storagetest.MustUser(t, store, "worker", model.RoleTrabalhador)
	svc := NewPontoService(store, time.UTC, newClock(2024, time.March, 4).Now, nil)

	_, err := svc.ClockIn(ctx, worker.ID, dto.ClockInRequest{})
	assertKind(t, apierror.KindValidation, err)

	missing := 404
	_, err = svc.ClockIn(ctx, worker.ID, dto.ClockInRequest{ObraID: &missing})
	assertKind(t, apierror.KindNotFound, err)
}

func TestPonto_ProjectIDAliasAndCoordinates(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(t)
	worker := storagetest.MustUser(t, store, "worker", model.RoleTrabalhador)
	obra := storagetest.MustObra(t, store, "OBR002")
	clock := newClock(2024, time.March, 4)
	svc := NewPontoService(store, time.UTC, clock.Now, nil)

	lat, lng := dec("38.72225000"), dec("-9.13933300")
	r, err := svc.ClockIn(ctx, worker.ID, dto.ClockInRequest{ProjectID: &obra.ID, Latitude: lat, Longitude: lng})
	require.NoError(t, err)
	assert.Equal(t, obra.ID, *r.ObraID)
	assertDecimal(t, "38.72225", r.LatitudeEntrada)
	assertDecimal(t, "-9.139333", r.LongitudeEntrada)

	clock.Set(16, 20)
	r, err = svc.ClockOut(ctx, worker.ID, dto.ClockOutRequest{Latitude: lat, Longitude: lng, TotalTempoIntervalo: dec("1")})
	require.NoError(t, err)
	assertDecimal(t, "8.33", r.TotalHorasTrabalhadas)
	assertDecimal(t, "1", r.TotalTempoIntervalo)
	assertDecimal(t, "38.72225", r.LatitudeSaida)
}

func TestPonto_FillsStubRecord(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(t)
	worker := storagetest.MustUser(t, store, "worker", model.RoleTrabalhador)
	obra := storagetest.MustObra(t, store, "OBR003")
	stub, err := store.CreateRegistoPonto(ctx, &model.RegistoPonto{UserID: worker.ID, Data: "2024-03-04"})
	require.NoError(t, err)

	svc := NewPontoService(store, time.UTC, newClock(2024, time.March, 4).Now, nil)
	r, err := svc.ClockIn(ctx, worker.ID, dto.ClockInRequest{ObraID: &obra.ID})
	require.NoError(t, err)
	assert.Equal(t, stub.ID, r.ID)
	assert.NotNil(t, r.HoraEntrada)
}

func TestPonto_BusinessDateFollowsTimezone(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(t)
	worker := storagetest.MustUser(t, store, "worker", model.RoleTrabalhador)
	obra := storagetest.MustObra(t, store, "OBR004")

	// 23:30 UTC is already the next day two hours east.
	now := time.Date(2024, time.March, 4, 23, 30, 0, 0, time.UTC)
	svc := NewPontoService(store, time.FixedZone("UTC+2", 2*3600), func() time.Time { return now }, nil)

	r, err := svc.ClockIn(ctx, worker.ID, dto.ClockInRequest{ObraID: &obra.ID})
	require.NoError(t, err)
	assert.Equal(t, "2024-03-05", r.Data)
	assert.Equal(t, time.UTC, r.HoraEntrada.Location())
}

func TestWorkedHours(t *testing.T) {
	base := time.Date(2024, time.March, 4, 8, 0, 0, 0, time.UTC)
	cases := []struct {
		name string
		d    time.Duration
		want string
	}{
		{"full day", 8 * time.Hour, "8"},
		{"half hour", 4*time.Hour + 30*time.Minute, "4.5"},
		{"rounds to cents", 7*time.Hour + 20*time.Minute, "7.33"},
		{"clock skew", -time.Minute, "0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := WorkedHours(base, base.Add(tc.d))
			assertDecimal(t, tc.want, &got)
		})
	}
}
