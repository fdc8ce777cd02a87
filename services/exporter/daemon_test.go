package exporter

import (
	"context"
	"testing"
	"time"

	"sbmodem-exporter/lib/scrapers/sb8200"
	"sbmodem-exporter/lib/testutil"

	"github.com/stretchr/testify/require"
)

func newTestDaemon(t *testing.T, modem *testutil.FakeModem, interval time.Duration) (*RefreshDaemon, *SnapshotStore) {
	t.Helper()
	client, err := sb8200.NewClient(sb8200.ClientOptions{
		BaseUrl:  modem.URL(),
		Username: "admin",
		Password: "hunter2",
		Timeout:  time.Second * 5,
	})
	require.NoError(t, err)
	store := NewSnapshotStore()
	return NewRefreshDaemon(client, store, interval), store
}

func TestRunCycleSuccess(t *testing.T) {
	modem := testutil.NewFakeModem()
	defer modem.Close()
	daemon, store := newTestDaemon(t, modem, time.Minute)

	daemon.RunCycle(context.Background())

	snapshot := store.Read()
	require.Equal(t, sb8200.FailureNone, snapshot.LastFailure)
	require.False(t, snapshot.LastSuccessAt.IsZero())
	require.False(t, snapshot.LastAttemptAt.IsZero())
	require.NotNil(t, snapshot.Connection)
	require.NotNil(t, snapshot.ProductInfo)
	require.Len(t, snapshot.Connection.Downstream, 4)
	require.Len(t, snapshot.Connection.Upstream, 3)
	require.Equal(t, "DOCSIS 3.1", snapshot.ProductInfo.SpecVersion)
}

func TestRunCycleFailurePreservesLastGoodData(t *testing.T) {
	modem := testutil.NewFakeModem()
	daemon, store := newTestDaemon(t, modem, time.Minute)

	daemon.RunCycle(context.Background())
	good := store.Read()
	require.Equal(t, sb8200.FailureNone, good.LastFailure)

	// Take the modem away entirely; the next cycle fails on transport
	// but the data from the good cycle stays published.
	modem.Close()
	daemon.RunCycle(context.Background())

	snapshot := store.Read()
	require.Equal(t, sb8200.FailureTransport, snapshot.LastFailure)
	require.Equal(t, good.LastSuccessAt, snapshot.LastSuccessAt)
	require.Same(t, good.Connection, snapshot.Connection)
	require.Same(t, good.ProductInfo, snapshot.ProductInfo)
	require.True(t, snapshot.LastAttemptAt.After(good.LastAttemptAt) ||
		snapshot.LastAttemptAt.Equal(good.LastAttemptAt))
}

func TestRunCycleAuthFailure(t *testing.T) {
	modem := testutil.NewFakeModem()
	defer modem.Close()
	modem.SetRefuseLogin(true)
	daemon, store := newTestDaemon(t, modem, time.Minute)

	daemon.RunCycle(context.Background())

	snapshot := store.Read()
	require.Equal(t, sb8200.FailureAuth, snapshot.LastFailure)
	require.True(t, snapshot.LastSuccessAt.IsZero())
	require.Nil(t, snapshot.Connection)
}

func TestRunCycleRecoversFromSessionInvalidation(t *testing.T) {
	modem := testutil.NewFakeModem()
	defer modem.Close()
	daemon, store := newTestDaemon(t, modem, time.Minute)

	daemon.RunCycle(context.Background())
	modem.InvalidateNextFetches(1)
	daemon.RunCycle(context.Background())

	require.Equal(t, sb8200.FailureNone, store.Read().LastFailure)
	require.Equal(t, 2, modem.LoginCount())
}

func TestDaemonCyclesNeverOverlap(t *testing.T) {
	modem := testutil.NewFakeModem()
	defer modem.Close()
	modem.SetDelay(time.Millisecond * 30)

	// Interval far below the cycle's own duration. Since the next tick
	// is armed only after a cycle completes, request concurrency at the
	// modem must stay at one.
	daemon, store := newTestDaemon(t, modem, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	daemon.Start(ctx)
	time.Sleep(time.Millisecond * 400)
	cancel()
	time.Sleep(time.Millisecond * 100)

	require.Equal(t, 1, modem.MaxConcurrent())
	require.GreaterOrEqual(t, modem.FetchCount(), 2)
	require.Equal(t, sb8200.FailureNone, store.Read().LastFailure)
}
