package main

import (
	"context"
	"log/slog"

	"seatwatch/cmd/seatwatch/commands"
	"seatwatch/lib/serviceutil"
	"seatwatch/lib/telemetry"
)

func main() {
	ctx := serviceutil.SignalContext()

	telemetry.InitSlog(false)
	tel, err := telemetry.SetupFromEnv(ctx, "seatwatch")
	if err != nil {
		// telemetry.json5 is optional outside deployments
		slog.Debug("telemetry export disabled", "err", err)
	} else {
		defer tel.Shutdown(context.Background())
		telemetry.InstrumentPerfStats(ctx)
	}

	commands.ExecuteContext(ctx)
}
