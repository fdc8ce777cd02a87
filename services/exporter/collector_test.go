package exporter

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"sbmodem-exporter/lib/scrapers/sb8200"
	"sbmodem-exporter/lib/testutil"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, modem *testutil.FakeModem) *Service {
	t.Helper()
	client, err := sb8200.NewClient(sb8200.ClientOptions{
		BaseUrl:  modem.URL(),
		Username: "admin",
		Password: "hunter2",
		Timeout:  time.Second * 5,
	})
	require.NoError(t, err)
	service, err := NewService(client, time.Minute)
	require.NoError(t, err)
	return service
}

func scrapeService(t *testing.T, service *Service) map[string]*dto.MetricFamily {
	t.Helper()
	rec := httptest.NewRecorder()
	service.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)

	var parser expfmt.TextParser
	families, err := parser.TextToMetricFamilies(rec.Body)
	require.NoError(t, err)
	return families
}

func gaugeValue(t *testing.T, families map[string]*dto.MetricFamily, name string, labels map[string]string) float64 {
	t.Helper()
	family, ok := families[name]
	require.True(t, ok, "metric family %s not found", name)
	for _, m := range family.GetMetric() {
		matched := true
		for wantName, wantValue := range labels {
			found := false
			for _, label := range m.GetLabel() {
				if label.GetName() == wantName && label.GetValue() == wantValue {
					found = true
				}
			}
			if !found {
				matched = false
				break
			}
		}
		if !matched {
			continue
		}
		if m.Gauge != nil {
			return m.Gauge.GetValue()
		}
		if m.Counter != nil {
			return m.Counter.GetValue()
		}
	}
	t.Fatalf("no metric in %s matching %v", name, labels)
	return 0
}

func TestMetricsBeforeFirstRefresh(t *testing.T) {
	modem := testutil.NewFakeModem()
	defer modem.Close()
	service := newTestService(t, modem)

	// The endpoint answers immediately; only meta and process series
	// exist until a cycle has run.
	families := scrapeService(t, service)
	require.Zero(t, gaugeValue(t, families, "sb8200_exporter_last_success_timestamp_seconds", nil))
	require.Zero(t, gaugeValue(t, families, "sb8200_exporter_last_attempt_timestamp_seconds", nil))
	require.Equal(t, 1.0, gaugeValue(t, families, "sb8200_exporter_last_failure_info",
		map[string]string{"kind": "none"}))

	_, hasModemSeries := families["sb8200_downstream_frequency_hz"]
	require.False(t, hasModemSeries)
	_, hasGoSeries := families["go_goroutines"]
	require.True(t, hasGoSeries)
	require.Zero(t, modem.FetchCount(), "a metrics scrape must not touch the modem")
}

func TestMetricsAfterSuccessfulRefresh(t *testing.T) {
	modem := testutil.NewFakeModem()
	defer modem.Close()
	service := newTestService(t, modem)
	service.daemon.RunCycle(context.Background())

	families := scrapeService(t, service)

	require.Positive(t, gaugeValue(t, families, "sb8200_exporter_last_success_timestamp_seconds", nil))
	require.Equal(t, 1.0, gaugeValue(t, families, "sb8200_exporter_last_failure_info",
		map[string]string{"kind": "none"}))

	require.Equal(t, 1.0, gaugeValue(t, families, "sb8200_modem_info", map[string]string{
		"docsis_version":   "DOCSIS 3.1",
		"software_version": "AB01.02.053.05_051921_193.0A.NSH",
		"mac_address":      "00:40:36:12:34:56",
		"serial_number":    "123456789012345678",
	}))
	wantUptime := (46*24*time.Hour + 12*time.Hour + 55*time.Minute + 21*time.Second).Seconds()
	require.Equal(t, wantUptime, gaugeValue(t, families, "sb8200_modem_uptime_seconds", nil))

	require.Equal(t, 363000000.0, gaugeValue(t, families, "sb8200_downstream_frequency_hz",
		map[string]string{"channel_id": "4"}))
	require.Equal(t, 6.2, gaugeValue(t, families, "sb8200_downstream_power_dbmv",
		map[string]string{"channel_id": "4"}))
	require.Equal(t, 143840.0, gaugeValue(t, families, "sb8200_downstream_corrected_total",
		map[string]string{"channel_id": "159"}))
	require.Equal(t, 4.0, gaugeValue(t, families, "sb8200_downstream_channel_lock_status_count",
		map[string]string{"lock_status": "Locked"}))
	require.Equal(t, 3.0, gaugeValue(t, families, "sb8200_downstream_modulation_count",
		map[string]string{"modulation": "QAM256"}))
	require.Equal(t, 1.0, gaugeValue(t, families, "sb8200_downstream_modulation_count",
		map[string]string{"modulation": "OFDM PLC"}))

	require.Equal(t, 10400000.0, gaugeValue(t, families, "sb8200_upstream_frequency_hz",
		map[string]string{"channel_id": "1"}))
	require.Equal(t, 3.0, gaugeValue(t, families, "sb8200_upstream_channel_type_count",
		map[string]string{"channel_type": "SC-QAM Upstream"}))

	require.Equal(t, 363000000.0, gaugeValue(t, families, "sb8200_startup_downstream_channel_hz",
		map[string]string{"comment": "Locked"}))
	require.Equal(t, 1.0, gaugeValue(t, families, "sb8200_startup_connectivity_state",
		map[string]string{"comment": "Operational"}))
	require.Equal(t, 1.0, gaugeValue(t, families, "sb8200_startup_security_state",
		map[string]string{"comment": "BPI+"}))

	wantSystime := float64(time.Date(2024, time.March, 12, 14, 20, 59, 0, time.UTC).Unix())
	require.Equal(t, wantSystime, gaugeValue(t, families, "sb8200_modem_system_timestamp_seconds", nil))

	require.Equal(t, 1.0, gaugeValue(t, families, "sb8200_refresh_cycles_total",
		map[string]string{"result": "success"}))
}

func TestMetricsAfterFailedRefresh(t *testing.T) {
	modem := testutil.NewFakeModem()
	service := newTestService(t, modem)
	service.daemon.RunCycle(context.Background())
	modem.Close()
	service.daemon.RunCycle(context.Background())

	families := scrapeService(t, service)

	require.Equal(t, 1.0, gaugeValue(t, families, "sb8200_exporter_last_failure_info",
		map[string]string{"kind": "transport"}))
	// Channel data from the good cycle is still exported.
	require.Equal(t, 363000000.0, gaugeValue(t, families, "sb8200_downstream_frequency_hz",
		map[string]string{"channel_id": "4"}))
	require.Equal(t, 1.0, gaugeValue(t, families, "sb8200_refresh_cycles_total",
		map[string]string{"result": "transport"}))
}

func TestStartupStateValues(t *testing.T) {
	for value, want := range map[string]float64{
		"OK":          1,
		"Enabled":     1,
		"Allowed":     1,
		"In Progress": 0,
		"Denied":      0,
		"":            0,
	} {
		name := value
		if name == "" {
			name = "empty"
		}
		t.Run(strings.ReplaceAll(name, " ", "_"), func(t *testing.T) {
			store := NewSnapshotStore()
			store.Publish(&Snapshot{
				Connection: &sb8200.ConnectionStatus{
					Startup: map[string]sb8200.StartupStep{
						sb8200.StartupBoot: {Value: value},
					},
				},
				LastFailure: sb8200.FailureNone,
			})

			collector := newSnapshotCollector(store)
			ch := make(chan prometheus.Metric, 64)
			collector.Collect(ch)
			close(ch)

			found := false
			for metric := range ch {
				if !strings.Contains(metric.Desc().String(), "sb8200_startup_boot_state") {
					continue
				}
				var out dto.Metric
				require.NoError(t, metric.Write(&out))
				require.Equal(t, want, out.Gauge.GetValue())
				found = true
			}
			require.True(t, found)
		})
	}
}
