package main

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"sbmodem-exporter/lib/scrapers/sb8200"
	"sbmodem-exporter/lib/telemetry"
	"sbmodem-exporter/lib/util/serviceutil"
	"sbmodem-exporter/services/exporter"
)

func main() {
	config, err := LoadConfig()
	if err != nil {
		serviceutil.Fatal("failed to load config", err)
	}
	telemetry.InitSlog(config.LogLevel)

	ctx := serviceutil.SignalContext()

	t, err := telemetry.SetupFromEnv(ctx, "sbmodemd")
	if errors.Is(err, os.ErrNotExist) {
		slog.Info("no telemetry.json5 found, otlp export disabled")
	} else if err != nil {
		serviceutil.Fatal("failed to setup telemetry", err)
	} else {
		defer t.Shutdown(ctx)
		telemetry.InstrumentPerfStats(ctx)
	}

	client, err := sb8200.NewClient(sb8200.ClientOptions{
		BaseUrl:  config.BaseUrl,
		Username: config.Username,
		Password: config.Password,
	})
	if err != nil {
		serviceutil.Fatal("failed to create modem client", err)
	}

	service, err := exporter.NewService(client, time.Duration(config.PollIntervalSeconds)*time.Second)
	if err != nil {
		serviceutil.Fatal("failed to create exporter service", err)
	}
	service.Start(ctx)

	mux := http.NewServeMux()
	mux.Handle("/metrics", service.Handler())
	// Some scrape configs in the wild point at the root path.
	mux.Handle("/", service.Handler())

	slog.Info("serving metrics",
		"port", config.Port,
		"modem", config.BaseUrl,
		"poll_interval_seconds", config.PollIntervalSeconds)
	serviceutil.StartHttpServer(ctx, config.Port, mux)
}
