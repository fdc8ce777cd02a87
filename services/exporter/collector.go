package exporter

import (
	"strconv"
	"time"

	"sbmodem-exporter/lib/scrapers/sb8200"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "sb8200"

// snapshotCollector renders whatever snapshot is currently published.
// It holds no state of its own and never talks to the modem; a scrape
// of /metrics is a read of the store and nothing else.
type snapshotCollector struct {
	store *SnapshotStore

	lastSuccess     *prometheus.Desc
	lastAttempt     *prometheus.Desc
	refreshDuration *prometheus.Desc
	lastFailure     *prometheus.Desc

	modemInfo   *prometheus.Desc
	modemUptime *prometheus.Desc
	systemTime  *prometheus.Desc

	startupFrequency *prometheus.Desc
	startupStates    map[string]*prometheus.Desc

	downFrequency       *prometheus.Desc
	downPower           *prometheus.Desc
	downSnr             *prometheus.Desc
	downCorrected       *prometheus.Desc
	downUncorrectables  *prometheus.Desc
	downLockCount       *prometheus.Desc
	downModulationCount *prometheus.Desc

	upFrequency        *prometheus.Desc
	upWidth            *prometheus.Desc
	upPower            *prometheus.Desc
	upLockCount        *prometheus.Desc
	upChannelTypeCount *prometheus.Desc
}

func newSnapshotCollector(store *SnapshotStore) *snapshotCollector {
	name := func(metric string) string {
		return prometheus.BuildFQName(namespace, "", metric)
	}
	return &snapshotCollector{
		store: store,

		lastSuccess: prometheus.NewDesc(
			name("exporter_last_success_timestamp_seconds"),
			"When the modem was last scraped successfully. 0 before the first success.",
			nil, nil),
		lastAttempt: prometheus.NewDesc(
			name("exporter_last_attempt_timestamp_seconds"),
			"When a scrape of the modem was last attempted.",
			nil, nil),
		refreshDuration: prometheus.NewDesc(
			name("exporter_refresh_duration_seconds"),
			"How long the most recent refresh cycle took.",
			nil, nil),
		lastFailure: prometheus.NewDesc(
			name("exporter_last_failure_info"),
			"Kind of the most recent refresh failure, 'none' when the last cycle succeeded.",
			[]string{"kind"}, nil),

		modemInfo: prometheus.NewDesc(
			name("modem_info"),
			"Identity of the modem as reported by its product info page.",
			[]string{"docsis_version", "software_version", "mac_address", "serial_number"}, nil),
		modemUptime: prometheus.NewDesc(
			name("modem_uptime_seconds"),
			"Uptime reported by the modem.",
			nil, nil),
		systemTime: prometheus.NewDesc(
			name("modem_system_timestamp_seconds"),
			"The modem's own clock.",
			nil, nil),

		startupFrequency: prometheus.NewDesc(
			name("startup_downstream_channel_hz"),
			"Frequency acquired during the downstream channel startup step.",
			[]string{"comment"}, nil),
		startupStates: map[string]*prometheus.Desc{
			sb8200.StartupConnectivity: prometheus.NewDesc(
				name("startup_connectivity_state"),
				"1 when the connectivity startup step reports OK.",
				[]string{"comment"}, nil),
			sb8200.StartupBoot: prometheus.NewDesc(
				name("startup_boot_state"),
				"1 when the boot startup step reports OK.",
				[]string{"comment"}, nil),
			sb8200.StartupConfigFile: prometheus.NewDesc(
				name("startup_configuration_file_state"),
				"1 when the configuration file startup step reports OK.",
				[]string{"comment"}, nil),
			sb8200.StartupSecurity: prometheus.NewDesc(
				name("startup_security_state"),
				"1 when the security startup step reports Enabled.",
				[]string{"comment"}, nil),
			sb8200.StartupNetworkAccess: prometheus.NewDesc(
				name("startup_docsis_network_access_state"),
				"1 when DOCSIS network access reports Allowed.",
				[]string{"comment"}, nil),
		},

		downFrequency: prometheus.NewDesc(
			name("downstream_frequency_hz"),
			"Downstream channel frequency.",
			[]string{"channel_id"}, nil),
		downPower: prometheus.NewDesc(
			name("downstream_power_dbmv"),
			"Downstream channel power.",
			[]string{"channel_id"}, nil),
		downSnr: prometheus.NewDesc(
			name("downstream_snr_db"),
			"Downstream channel SNR/MER.",
			[]string{"channel_id"}, nil),
		downCorrected: prometheus.NewDesc(
			name("downstream_corrected_total"),
			"Corrected codewords on a downstream channel.",
			[]string{"channel_id"}, nil),
		downUncorrectables: prometheus.NewDesc(
			name("downstream_uncorrectables_total"),
			"Uncorrectable codewords on a downstream channel.",
			[]string{"channel_id"}, nil),
		downLockCount: prometheus.NewDesc(
			name("downstream_channel_lock_status_count"),
			"Downstream channels by lock status.",
			[]string{"lock_status"}, nil),
		downModulationCount: prometheus.NewDesc(
			name("downstream_modulation_count"),
			"Downstream channels by modulation.",
			[]string{"modulation"}, nil),

		upFrequency: prometheus.NewDesc(
			name("upstream_frequency_hz"),
			"Upstream channel frequency.",
			[]string{"channel_id"}, nil),
		upWidth: prometheus.NewDesc(
			name("upstream_width_hz"),
			"Upstream channel width.",
			[]string{"channel_id"}, nil),
		upPower: prometheus.NewDesc(
			name("upstream_power_dbmv"),
			"Upstream channel power.",
			[]string{"channel_id"}, nil),
		upLockCount: prometheus.NewDesc(
			name("upstream_channel_lock_status_count"),
			"Upstream channels by lock status.",
			[]string{"lock_status"}, nil),
		upChannelTypeCount: prometheus.NewDesc(
			name("upstream_channel_type_count"),
			"Upstream channels by channel type.",
			[]string{"channel_type"}, nil),
	}
}

func (c *snapshotCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.lastSuccess
	ch <- c.lastAttempt
	ch <- c.refreshDuration
	ch <- c.lastFailure
	ch <- c.modemInfo
	ch <- c.modemUptime
	ch <- c.systemTime
	ch <- c.startupFrequency
	for _, desc := range c.startupStates {
		ch <- desc
	}
	ch <- c.downFrequency
	ch <- c.downPower
	ch <- c.downSnr
	ch <- c.downCorrected
	ch <- c.downUncorrectables
	ch <- c.downLockCount
	ch <- c.downModulationCount
	ch <- c.upFrequency
	ch <- c.upWidth
	ch <- c.upPower
	ch <- c.upLockCount
	ch <- c.upChannelTypeCount
}

func (c *snapshotCollector) Collect(ch chan<- prometheus.Metric) {
	snapshot := c.store.Read()

	ch <- prometheus.MustNewConstMetric(c.lastSuccess, prometheus.GaugeValue, ts(snapshot.LastSuccessAt))
	ch <- prometheus.MustNewConstMetric(c.lastAttempt, prometheus.GaugeValue, ts(snapshot.LastAttemptAt))
	ch <- prometheus.MustNewConstMetric(c.refreshDuration, prometheus.GaugeValue, snapshot.RefreshDuration.Seconds())
	ch <- prometheus.MustNewConstMetric(c.lastFailure, prometheus.GaugeValue, 1, string(snapshot.LastFailure))

	if info := snapshot.ProductInfo; info != nil {
		ch <- prometheus.MustNewConstMetric(c.modemInfo, prometheus.GaugeValue, 1,
			info.SpecVersion, info.SoftwareVersion, info.MacAddress, info.SerialNumber)
		ch <- prometheus.MustNewConstMetric(c.modemUptime, prometheus.GaugeValue, info.Uptime.Seconds())
	}

	if conn := snapshot.Connection; conn != nil {
		c.collectStartup(ch, conn)
		c.collectDownstream(ch, conn.Downstream)
		c.collectUpstream(ch, conn.Upstream)
		if !conn.SystemTime.IsZero() {
			ch <- prometheus.MustNewConstMetric(c.systemTime, prometheus.GaugeValue, ts(conn.SystemTime))
		}
	}
}

func (c *snapshotCollector) collectStartup(ch chan<- prometheus.Metric, conn *sb8200.ConnectionStatus) {
	if step, ok := conn.Startup[sb8200.StartupAcquireDownstream]; ok {
		if hz, err := sb8200.LeadingNumber(step.Value); err == nil {
			ch <- prometheus.MustNewConstMetric(c.startupFrequency, prometheus.GaugeValue, hz, step.Comment)
		}
	}
	for key, desc := range c.startupStates {
		step, ok := conn.Startup[key]
		if !ok {
			continue
		}
		value := 0.0
		switch step.Value {
		case "OK", "Enabled", "Allowed":
			value = 1
		}
		ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, value, step.Comment)
	}
}

func (c *snapshotCollector) collectDownstream(ch chan<- prometheus.Metric, channels []sb8200.DownstreamChannel) {
	lockCounts := map[string]int{}
	modulationCounts := map[string]int{}
	for _, channel := range channels {
		id := strconv.Itoa(channel.ChannelID)
		ch <- prometheus.MustNewConstMetric(c.downFrequency, prometheus.GaugeValue, channel.FrequencyHz, id)
		ch <- prometheus.MustNewConstMetric(c.downPower, prometheus.GaugeValue, channel.PowerDbmv, id)
		ch <- prometheus.MustNewConstMetric(c.downSnr, prometheus.GaugeValue, channel.SnrDb, id)
		ch <- prometheus.MustNewConstMetric(c.downCorrected, prometheus.CounterValue, channel.Corrected, id)
		ch <- prometheus.MustNewConstMetric(c.downUncorrectables, prometheus.CounterValue, channel.Uncorrectables, id)
		lockCounts[channel.LockStatus]++
		modulationCounts[channel.Modulation]++
	}
	for status, count := range lockCounts {
		ch <- prometheus.MustNewConstMetric(c.downLockCount, prometheus.GaugeValue, float64(count), status)
	}
	for modulation, count := range modulationCounts {
		ch <- prometheus.MustNewConstMetric(c.downModulationCount, prometheus.GaugeValue, float64(count), modulation)
	}
}

func (c *snapshotCollector) collectUpstream(ch chan<- prometheus.Metric, channels []sb8200.UpstreamChannel) {
	lockCounts := map[string]int{}
	typeCounts := map[string]int{}
	for _, channel := range channels {
		id := strconv.Itoa(channel.ChannelID)
		ch <- prometheus.MustNewConstMetric(c.upFrequency, prometheus.GaugeValue, channel.FrequencyHz, id)
		ch <- prometheus.MustNewConstMetric(c.upWidth, prometheus.GaugeValue, channel.WidthHz, id)
		ch <- prometheus.MustNewConstMetric(c.upPower, prometheus.GaugeValue, channel.PowerDbmv, id)
		lockCounts[channel.LockStatus]++
		typeCounts[channel.ChannelType]++
	}
	for status, count := range lockCounts {
		ch <- prometheus.MustNewConstMetric(c.upLockCount, prometheus.GaugeValue, float64(count), status)
	}
	for channelType, count := range typeCounts {
		ch <- prometheus.MustNewConstMetric(c.upChannelTypeCount, prometheus.GaugeValue, float64(count), channelType)
	}
}

// ts renders a timestamp the prometheus way, with the zero time as 0
// rather than a large negative number.
func ts(t time.Time) float64 {
	if t.IsZero() {
		return 0
	}
	return float64(t.Unix())
}
