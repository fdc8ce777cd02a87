package main

import (
	"context"

	"sbmodem-exporter/cmd/sbmodem-cli/commands"
	"sbmodem-exporter/lib/telemetry"
)

func main() {
	telemetry.InitSlog("INFO")
	commands.ExecuteContext(context.Background())
}
