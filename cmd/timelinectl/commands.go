package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"

	"github.com/jengzang/geopulse-go/internal/app"
	"github.com/jengzang/geopulse-go/internal/config"
	"github.com/jengzang/geopulse-go/internal/middleware"
	"github.com/jengzang/geopulse-go/internal/models"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				fmt.Fprintln(os.Stdout, "database is up to date:", a.Config.DBPath)
				return nil
			})
		},
	})

	var pointsFile string
	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Import GPS points from a JSON array and regenerate the timeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(pointsFile)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", pointsFile, err)
			}
			var inputs []models.RawPointInput
			if err := json.Unmarshal(data, &inputs); err != nil {
				return fmt.Errorf("failed to parse %s: %w", pointsFile, err)
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				res, err := a.Services.Points.Ingest(ctx, user(a), inputs)
				if err != nil {
					return err
				}
				return printJSON(os.Stdout, res)
			})
		},
	}
	importCmd.Flags().StringVarP(&pointsFile, "file", "f", "", "JSON file of points (required)")
	_ = importCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(importCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "regenerate",
		Short: "Rebuild the stored timeline of a user from raw points",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				task, err := a.Services.Timeline.Regenerate(ctx, user(a), models.TriggerManual)
				if err != nil {
					return err
				}
				return printJSON(os.Stdout, task)
			})
		},
	})

	timelineCmd := &cobra.Command{
		Use:   "timeline",
		Short: "Print the day-grouped timeline for a local date range",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := rangeFlags(cmd)
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				loc, err := a.Services.Timeline.Location(ctx, user(a), tzFlag)
				if err != nil {
					return err
				}
				tl, err := a.Services.Timeline.Timeline(ctx, user(a), r, loc, "")
				if err != nil {
					return err
				}
				return printJSON(os.Stdout, tl)
			})
		},
	}
	addRangeFlags(timelineCmd)
	rootCmd.AddCommand(timelineCmd)

	dashboardCmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Print movement statistics for a local date range",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := rangeFlags(cmd)
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				loc, err := a.Services.Timeline.Location(ctx, user(a), tzFlag)
				if err != nil {
					return err
				}
				summary, err := a.Services.Timeline.Dashboard(ctx, user(a), r, loc, "")
				if err != nil {
					return err
				}
				return printJSON(os.Stdout, summary)
			})
		},
	}
	addRangeFlags(dashboardCmd)
	rootCmd.AddCommand(dashboardCmd)

	var out string
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Write stays, trips and data gaps as a zip of CSV files",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := rangeFlags(cmd)
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				loc, err := a.Services.Timeline.Location(ctx, user(a), tzFlag)
				if err != nil {
					return err
				}
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", out, err)
				}
				if err := a.Services.Timeline.ExportAll(ctx, f, user(a), r, loc); err != nil {
					f.Close()
					os.Remove(out)
					return err
				}
				return f.Close()
			})
		},
	}
	addRangeFlags(exportCmd)
	exportCmd.Flags().StringVarP(&out, "out", "o", "timeline.zip", "Output file")
	rootCmd.AddCommand(exportCmd)

	var ttl time.Duration
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token signed with GEOPULSE_JWT_SECRET",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOffline()
			if err != nil {
				return err
			}
			if cfg.JWTSecret == "" {
				return fmt.Errorf("GEOPULSE_JWT_SECRET is not set")
			}
			subject := userFlag
			if subject == "" {
				subject = cfg.DefaultUser
			}
			now := time.Now()
			token, err := middleware.IssueToken([]byte(cfg.JWTSecret), subject, jwt.RegisteredClaims{
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, token)
			return nil
		},
	}
	tokenCmd.Flags().DurationVar(&ttl, "ttl", 30*24*time.Hour, "Token lifetime")
	rootCmd.AddCommand(tokenCmd)
}
