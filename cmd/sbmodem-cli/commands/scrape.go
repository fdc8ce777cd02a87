package commands

import (
	"fmt"
	"os"
	"time"

	"sbmodem-exporter/lib/scrapers/sb8200"
	"sbmodem-exporter/lib/util/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	scrapeBaseUrl  *string
	scrapeUsername *string
)

func init() {
	scrapeBaseUrl = scrapeCmd.Flags().String("base-url", "https://192.168.100.1", "The modem's web interface.")
	scrapeUsername = scrapeCmd.Flags().String("username", "admin", "The modem login username.")
	rootCmd.AddCommand(scrapeCmd)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape [--base-url <url>] [--username <name>]",
	Short: "Logs into the modem once and prints everything it reports.",
	Long: "Performs the same login and page fetches the exporter daemon does, " +
		"once, and prints the parsed results. The password is read from the " +
		"MODEM_PASSWORD environment variable.",
	Run: func(cmd *cobra.Command, args []string) {
		password := os.Getenv("MODEM_PASSWORD")
		if password == "" {
			serviceutil.Fatal("missing credentials", fmt.Errorf("MODEM_PASSWORD is not set"))
		}

		client, err := sb8200.NewClient(sb8200.ClientOptions{
			BaseUrl:  *scrapeBaseUrl,
			Username: *scrapeUsername,
			Password: password,
		})
		if err != nil {
			serviceutil.Fatal("failed to create modem client", err)
		}

		ctx := cmd.Context()

		t1 := time.Now()
		statusHtml, err := client.FetchPage(ctx, sb8200.PageConnectionStatus)
		if err != nil {
			serviceutil.Fatal("failed to fetch connection status", err)
		}
		infoHtml, err := client.FetchPage(ctx, sb8200.PageProductInfo)
		if err != nil {
			serviceutil.Fatal("failed to fetch product info", err)
		}
		fetchTime := time.Since(t1)

		status, err := sb8200.ParseConnectionStatus(statusHtml)
		if err != nil {
			serviceutil.Fatal("failed to parse connection status", err)
		}
		info, err := sb8200.ParseProductInfo(infoHtml)
		if err != nil {
			serviceutil.Fatal("failed to parse product info", err)
		}

		printProductInfo(info)
		printStartup(status)
		printDownstream(status.Downstream)
		printUpstream(status.Upstream)

		if !status.SystemTime.IsZero() {
			fmt.Println("system time:", status.SystemTime.Format(time.RFC1123))
		}
		for _, section := range status.Partial {
			fmt.Println("missing section:", section)
		}
		for _, section := range info.Partial {
			fmt.Println("missing field:", section)
		}
		fmt.Printf("fetched both pages in %.1fs\n", fetchTime.Seconds())
	},
}

func printProductInfo(info *sb8200.ProductInfo) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendRow(table.Row{"DOCSIS version", info.SpecVersion})
	t.AppendRow(table.Row{"Software version", info.SoftwareVersion})
	t.AppendRow(table.Row{"MAC address", info.MacAddress})
	t.AppendRow(table.Row{"Serial number", info.SerialNumber})
	t.AppendRow(table.Row{"Uptime", info.Uptime.String()})
	t.SetStyle(table.StyleRounded)
	t.Render()
}

func printStartup(status *sb8200.ConnectionStatus) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Startup Step", "Status", "Comment"})
	for _, key := range []string{
		sb8200.StartupAcquireDownstream,
		sb8200.StartupConnectivity,
		sb8200.StartupBoot,
		sb8200.StartupConfigFile,
		sb8200.StartupSecurity,
		sb8200.StartupNetworkAccess,
	} {
		if step, ok := status.Startup[key]; ok {
			t.AppendRow(table.Row{key, step.Value, step.Comment})
		}
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}

func printDownstream(channels []sb8200.DownstreamChannel) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Channel ID", "Lock", "Modulation", "Frequency (Hz)", "Power (dBmV)", "SNR (dB)", "Corrected", "Uncorrectables"})
	for _, c := range channels {
		t.AppendRow(table.Row{
			c.ChannelID, c.LockStatus, c.Modulation,
			c.FrequencyHz, c.PowerDbmv, c.SnrDb,
			c.Corrected, c.Uncorrectables,
		})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}

func printUpstream(channels []sb8200.UpstreamChannel) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Channel", "Channel ID", "Lock", "Type", "Frequency (Hz)", "Width (Hz)", "Power (dBmV)"})
	for _, c := range channels {
		t.AppendRow(table.Row{
			c.Channel, c.ChannelID, c.LockStatus, c.ChannelType,
			c.FrequencyHz, c.WidthHz, c.PowerDbmv,
		})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}
