package commands

import (
	"context"
	"fmt"
	"os"

	"seatwatch/lib/telemetry"

	"github.com/spf13/cobra"
)

var (
	verbose  *bool
	dumpHttp *string
)

var rootCmd = &cobra.Command{
	Use:   "seatwatch",
	Short: "Watches CUNYfirst seat availability and notifies you when a section opens.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(*verbose)
	},
}

func init() {
	verbose = rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
	dumpHttp = rootCmd.PersistentFlags().String(
		"dump-http", "",
		"directory to dump every portal request/response exchange to",
	)
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
