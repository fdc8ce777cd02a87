// Parsing of the modem's status pages. Only tested against the SB8200's
// web interface but the markup is shared across the Arris SB family.
package sb8200

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Rows of the startup procedure table worth extracting; anything else in
// the table is ignored.
const (
	StartupAcquireDownstream = "Acquire Downstream Channel"
	StartupConnectivity      = "Connectivity State"
	StartupBoot              = "Boot State"
	StartupConfigFile        = "Configuration File"
	StartupSecurity          = "Security"
	StartupNetworkAccess     = "DOCSIS Network Access Enabled"
)

var startupRows = map[string]bool{
	StartupAcquireDownstream: true,
	StartupConnectivity:      true,
	StartupBoot:              true,
	StartupConfigFile:        true,
	StartupSecurity:          true,
	StartupNetworkAccess:     true,
}

type StartupStep struct {
	Value   string
	Comment string
}

type DownstreamChannel struct {
	ChannelID      int
	LockStatus     string
	Modulation     string
	FrequencyHz    float64
	PowerDbmv      float64
	SnrDb          float64
	Corrected      float64
	Uncorrectables float64
}

type UpstreamChannel struct {
	Channel     int
	ChannelID   int
	LockStatus  string
	ChannelType string
	FrequencyHz float64
	WidthHz     float64
	PowerDbmv   float64
}

type ConnectionStatus struct {
	Startup    map[string]StartupStep
	Downstream []DownstreamChannel
	Upstream   []UpstreamChannel
	SystemTime time.Time

	// Partial lists the page sections that could not be extracted.
	// Parsing is best effort; a missing section is not an error.
	Partial []string
}

type ProductInfo struct {
	SpecVersion     string
	SoftwareVersion string
	MacAddress      string
	SerialNumber    string
	Uptime          time.Duration

	Partial []string
}

// IsLoginPage reports whether the html is the modem's login page. Both
// a failed login and a silently dropped session hand this page back
// with HTTP 200, so this one classifier is the authentication signal
// for everything else in the package.
func IsLoginPage(html string) bool {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return false
	}
	return strings.TrimSpace(doc.Find("title").First().Text()) == "Login"
}

func ParseConnectionStatus(html string) (*ConnectionStatus, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}

	out := &ConnectionStatus{Startup: map[string]StartupStep{}}

	parseStartupProcedure(doc, out)
	if len(out.Startup) == 0 {
		out.Partial = append(out.Partial, "startup_procedure")
	}

	out.Downstream = parseDownstreamChannels(doc)
	if len(out.Downstream) == 0 {
		out.Partial = append(out.Partial, "downstream_channels")
	}

	out.Upstream = parseUpstreamChannels(doc)
	if len(out.Upstream) == 0 {
		out.Partial = append(out.Partial, "upstream_channels")
	}

	if systime, ok := parseSystemTime(doc); ok {
		out.SystemTime = systime
	} else {
		out.Partial = append(out.Partial, "system_time")
	}

	if len(out.Partial) == 4 {
		return nil, fmt.Errorf("%w: no recognizable sections in the connection status page", ErrParse)
	}
	return out, nil
}

func ParseProductInfo(html string) (*ProductInfo, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}

	// The product info page is label/value pairs, one per row.
	values := map[string]string{}
	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() != 2 {
			return
		}
		values[strings.TrimSpace(cells.Eq(0).Text())] = strings.TrimSpace(cells.Eq(1).Text())
	})

	out := &ProductInfo{}
	pick := func(dst *string, label, section string) {
		if v, ok := values[label]; ok && v != "" {
			*dst = v
			return
		}
		out.Partial = append(out.Partial, section)
	}
	pick(&out.SpecVersion, "Standard Specification Compliant", "docsis_version")
	pick(&out.SoftwareVersion, "Software Version", "software_version")
	pick(&out.MacAddress, "Cable Modem MAC Address", "mac_address")
	pick(&out.SerialNumber, "Serial Number", "serial_number")

	// When uptime is missing the rest of the page tends to be missing
	// too, which makes it a decent canary for a half-rendered page.
	if raw, ok := values["Up Time"]; ok {
		if d, err := parseUptime(raw); err == nil {
			out.Uptime = d
		} else {
			out.Partial = append(out.Partial, "up_time")
		}
	} else {
		out.Partial = append(out.Partial, "up_time")
	}

	if len(out.Partial) == 5 {
		return nil, fmt.Errorf("%w: no recognizable fields in the product info page", ErrParse)
	}
	return out, nil
}

func findTable(doc *goquery.Document, sectionTitle string) *goquery.Selection {
	var table *goquery.Selection
	doc.Find("table.simpleTable").EachWithBreak(func(_ int, t *goquery.Selection) bool {
		found := false
		t.Find("th").Each(func(_ int, th *goquery.Selection) {
			if strings.Contains(th.Text(), sectionTitle) {
				found = true
			}
		})
		if found {
			table = t
			return false
		}
		return true
	})
	return table
}

// The modem emits the header cells of the channel tables outside any row
// (the opening <tr> is closed twice), which the html5 parser recovers
// from by fostering them into an implied row. Rather than chase that
// markup, rows are accepted on shape: the right number of cells with a
// numeric first cell.
func tableRows(table *goquery.Selection, columns int) [][]string {
	var rows [][]string
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() != columns {
			return
		}
		vals := make([]string, columns)
		for i := range vals {
			vals[i] = strings.TrimSpace(cells.Eq(i).Text())
		}
		if _, err := strconv.Atoi(vals[0]); err != nil {
			return
		}
		rows = append(rows, vals)
	})
	return rows
}

func parseStartupProcedure(doc *goquery.Document, out *ConnectionStatus) {
	table := findTable(doc, "Startup Procedure")
	if table == nil {
		return
	}
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() != 3 {
			return
		}
		key := strings.TrimSpace(cells.Eq(0).Text())
		if !startupRows[key] {
			return
		}
		out.Startup[key] = StartupStep{
			Value:   strings.TrimSpace(cells.Eq(1).Text()),
			Comment: strings.TrimSpace(cells.Eq(2).Text()),
		}
	})
}

func parseDownstreamChannels(doc *goquery.Document) []DownstreamChannel {
	table := findTable(doc, "Downstream Bonded Channels")
	if table == nil {
		return nil
	}
	var channels []DownstreamChannel
	for _, row := range tableRows(table, 8) {
		id, _ := strconv.Atoi(row[0])
		freq, err1 := LeadingNumber(row[3])
		power, err2 := LeadingNumber(row[4])
		snr, err3 := LeadingNumber(row[5])
		corrected, err4 := LeadingNumber(row[6])
		uncorrectables, err5 := LeadingNumber(row[7])
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil {
			continue
		}
		channels = append(channels, DownstreamChannel{
			ChannelID:      id,
			LockStatus:     row[1],
			Modulation:     row[2],
			FrequencyHz:    freq,
			PowerDbmv:      power,
			SnrDb:          snr,
			Corrected:      corrected,
			Uncorrectables: uncorrectables,
		})
	}
	return channels
}

func parseUpstreamChannels(doc *goquery.Document) []UpstreamChannel {
	table := findTable(doc, "Upstream Bonded Channels")
	if table == nil {
		return nil
	}
	var channels []UpstreamChannel
	for _, row := range tableRows(table, 7) {
		channel, _ := strconv.Atoi(row[0])
		id, err1 := strconv.Atoi(row[1])
		freq, err2 := LeadingNumber(row[4])
		width, err3 := LeadingNumber(row[5])
		power, err4 := LeadingNumber(row[6])
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			continue
		}
		channels = append(channels, UpstreamChannel{
			Channel:     channel,
			ChannelID:   id,
			LockStatus:  row[2],
			ChannelType: row[3],
			FrequencyHz: freq,
			WidthHz:     width,
			PowerDbmv:   power,
		})
	}
	return channels
}

// Towards the very end of the page is a single <p> tag with the system time:
// <p id="systime" align="center"><strong>Current System Time:</strong> Tue Mar 12 14:20:59 2024</p>
func parseSystemTime(doc *goquery.Document) (time.Time, bool) {
	sel := doc.Find("p#systime")
	if sel.Length() == 0 {
		return time.Time{}, false
	}
	text := strings.Join(strings.Fields(sel.First().Text()), " ")
	_, after, found := strings.Cut(text, ":")
	if !found {
		return time.Time{}, false
	}
	t, err := time.Parse("Mon Jan 2 15:04:05 2006", strings.TrimSpace(after))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Uptime renders as '46 days 12h:55m:21s.00'.
var uptimeRegex = regexp.MustCompile(`(\d+) days? (\d+)h:(\d+)m:(\d+)s`)

func parseUptime(raw string) (time.Duration, error) {
	m := uptimeRegex.FindStringSubmatch(raw)
	if m == nil {
		return 0, fmt.Errorf("unrecognized uptime format: %q", raw)
	}
	days, _ := strconv.Atoi(m[1])
	hours, _ := strconv.Atoi(m[2])
	minutes, _ := strconv.Atoi(m[3])
	seconds, _ := strconv.Atoi(m[4])
	return time.Duration(days)*24*time.Hour +
		time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second, nil
}

// LeadingNumber parses the numeric prefix of cell values like
// "363000000 Hz" or "6.2 dBmV".
func LeadingNumber(s string) (float64, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0, fmt.Errorf("empty value")
	}
	return strconv.ParseFloat(fields[0], 64)
}
