package session

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IlTetta/Climate-Monitoring-App/internal/models"
	"github.com/IlTetta/Climate-Monitoring-App/pkg/metrics"
)

func newTestManager(t *testing.T) (*Manager, *clockwork.FakeClock, *metrics.Collector) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))
	m := metrics.NewCollectorWithRegistry("test", prometheus.NewRegistry())
	return NewManager(time.Hour, 0, clock, m), clock, m
}

func TestManager_CreateAndGet(t *testing.T) {
	mgr, clock, m := newTestManager(t)

	s := mgr.Create(&models.Operator{ID: 7, Username: "mrossi"})
	require.NotEmpty(t, s.Token)
	assert.Equal(t, clock.Now().Add(time.Hour), s.ExpiresAt)
	assert.False(t, s.HasCenter())

	got, err := mgr.Get(s.Token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.OperatorID)
	assert.Equal(t, "mrossi", got.Username)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActiveSessions))
}

func TestManager_TokensAreUnique(t *testing.T) {
	mgr, _, _ := newTestManager(t)
	op := &models.Operator{ID: 1}

	a := mgr.Create(op)
	b := mgr.Create(op)
	assert.NotEqual(t, a.Token, b.Token)
	assert.Equal(t, 2, mgr.Count())
}

func TestManager_Expiry(t *testing.T) {
	mgr, clock, _ := newTestManager(t)
	s := mgr.Create(&models.Operator{ID: 1})

	clock.Advance(59 * time.Minute)
	_, err := mgr.Get(s.Token)
	require.NoError(t, err)

	clock.Advance(time.Minute)
	_, err = mgr.Get(s.Token)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, mgr.Count())
}

func TestManager_SetCenter(t *testing.T) {
	mgr, _, _ := newTestManager(t)
	s := mgr.Create(&models.Operator{ID: 1})

	require.NoError(t, mgr.SetCenter(s.Token, 3))

	got, err := mgr.Get(s.Token)
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.CenterID)
	assert.True(t, got.HasCenter())

	assert.ErrorIs(t, mgr.SetCenter("missing", 3), ErrNotFound)
}

func TestManager_Delete(t *testing.T) {
	mgr, _, m := newTestManager(t)
	s := mgr.Create(&models.Operator{ID: 1})

	mgr.Delete(s.Token)
	mgr.Delete("unknown")

	_, err := mgr.Get(s.Token)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ActiveSessions))
}
