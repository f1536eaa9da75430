package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/spf13/cobra"

	"github.com/jengzang/geopulse-go/internal/app"
	"github.com/jengzang/geopulse-go/internal/config"
	"github.com/jengzang/geopulse-go/internal/logger"
	"github.com/jengzang/geopulse-go/internal/timeline"
)

var (
	userFlag string
	tzFlag   string
	rootCmd  = &cobra.Command{
		Use:           "timelinectl",
		Short:         "Offline administration of the GeoPulse timeline database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func main() {
	logger.SetGlobal(logger.New("timelinectl", os.Getenv(config.Prefix+"_LOG_LEVEL")))

	rootCmd.PersistentFlags().StringVarP(&userFlag, "user", "u", "", "User ID (defaults to GEOPULSE_DEFAULT_USER)")
	rootCmd.PersistentFlags().StringVarP(&tzFlag, "tz", "t", "", "Timezone override, e.g. Europe/Kyiv")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// withApp loads the environment configuration and runs fn against a
// migrated database
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := config.LoadOffline()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func user(a *app.App) string {
	if userFlag != "" {
		return userFlag
	}
	return a.Config.DefaultUser
}

func rangeFlags(cmd *cobra.Command) (timeline.DateRange, error) {
	from, _ := cmd.Flags().GetString("from")
	to, _ := cmd.Flags().GetString("to")
	if to == "" {
		to = from
	}
	return timeline.ParseDateRange(from, to)
}

func addRangeFlags(cmd *cobra.Command) {
	cmd.Flags().String("from", "", "First local date, YYYY-MM-DD (required)")
	cmd.Flags().String("to", "", "Last local date, YYYY-MM-DD (defaults to --from)")
	_ = cmd.MarkFlagRequired("from")
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
