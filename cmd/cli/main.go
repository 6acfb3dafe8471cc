package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/NicoB77/ghi/internal/config"
	"github.com/NicoB77/ghi/pkg/clients/webexclient"
	"github.com/NicoB77/ghi/pkg/clients/xlsxclient"
	"github.com/NicoB77/ghi/pkg/core/model"
	"github.com/NicoB77/ghi/pkg/core/services"
	"github.com/NicoB77/ghi/pkg/utils"
	"github.com/NicoB77/ghi/pkg/utils/logging"
)

// App holds the application dependencies
type App struct {
	cfg    *config.Config
	api    *webexclient.Client
	logger *zap.Logger
	ctx    context.Context
}

var (
	configPath string
	verbose    bool
	app        *App
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ghi",
		Short: "GHI - keep on-call forwarding in sync with the duty roster",
		Long: `A CLI tool that loads the monthly midwife duty roster from an Excel
workbook and reconciles the Webex call-forwarding configuration with it.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app != nil && app.logger != nil {
				app.logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to the config file (default: ghi_config.yaml in cwd or home)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to the console")

	rootCmd.AddCommand(viewCmd())
	rootCmd.AddCommand(checkCmd())
	rootCmd.AddCommand(syncCmd())
	rootCmd.AddCommand(assignCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initApp sets up logger, config, and the Webex client
func initApp() error {
	var err error
	app = &App{
		ctx: context.Background(),
	}

	app.logger, err = logging.InitLogger(verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.logger.Debug("Loading configuration")
	if configPath != "" {
		app.cfg, err = config.LoadFromPath(configPath)
	} else {
		app.cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	authority := utils.NewAuthority(&app.cfg.Webex)
	app.api = webexclient.NewClient(authority, app.logger)
	return nil
}

// gcCutoff is the point before which remote forwarding events are treated
// as expired and garbage collected while parsing.
func (a *App) gcCutoff() time.Time {
	past := model.DateOf(time.Now().AddDate(0, 0, -a.cfg.KeepDays))
	cutoff, _ := model.Duty{Date: past, Shift: model.ShiftNight}.Bounds()
	return cutoff
}

// resolveWorkbook returns the explicit path when given, otherwise the
// newest file matching the configured pattern.
func (a *App) resolveWorkbook(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	pattern := a.cfg.Workbook.FilenamePattern
	if strings.HasPrefix(pattern, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to resolve home directory: %w", err)
		}
		pattern = filepath.Join(homeDir, pattern[2:])
	}
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return "", fmt.Errorf("invalid workbook pattern %q: %w", pattern, err)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no workbook matches %q", pattern)
	}
	newest := matches[0]
	newestTime := time.Time{}
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil {
			continue
		}
		if info.ModTime().After(newestTime) {
			newest = match
			newestTime = info.ModTime()
		}
	}
	return newest, nil
}

func printRoster(title string, roster *model.DutyRoster) {
	fmt.Printf("\n%s\n", title)
	if len(roster.MidwifeByDuty) == 0 {
		fmt.Println("  (empty)")
		return
	}
	duties := make([]model.Duty, 0, len(roster.MidwifeByDuty))
	for duty := range roster.MidwifeByDuty {
		duties = append(duties, duty)
	}
	sort.Slice(duties, func(i, j int) bool { return duties[i].Compare(duties[j]) < 0 })
	for _, duty := range duties {
		midwife := roster.MidwifeByDuty[duty]
		fmt.Printf("  %s %-5s  %s (%s)\n", duty.Date.Format("2006-01-02"), duty.Shift, midwife.Name, midwife.Phone)
	}
}

// Command definitions

func viewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "view",
		Short: "Show the current forwarding state of the auto attendant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			attendant, err := app.api.GetAutoAttendant(app.ctx, app.gcCutoff())
			if err != nil {
				return err
			}
			forwarding, err := attendant.ForwardingRoster()
			if err != nil {
				return err
			}

			printRoster("Current call forwardings:", forwarding)
			if gaps := forwarding.Check(); len(gaps) > 0 {
				fmt.Printf("\nGaps:\n")
				for _, gap := range gaps {
					fmt.Printf("  %s\n", gap)
				}
			}
			fmt.Println()
			return nil
		},
	}
}

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check [workbook]",
		Short: "Load the duty roster from the workbook and report gaps",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := app.resolveWorkbook(args)
			if err != nil {
				return err
			}
			app.logger.Info("Loading duty roster", zap.String("workbook", path))

			roster, err := xlsxclient.LoadDutyRoster(path, &app.cfg.Workbook)
			if err != nil {
				return err
			}

			printRoster(fmt.Sprintf("Duty roster from %s:", filepath.Base(path)), roster)
			gaps := roster.Check()
			if len(gaps) == 0 {
				fmt.Printf("\n✓ Every shift is covered.\n\n")
				return nil
			}
			fmt.Printf("\n%d uncovered shifts:\n", len(gaps))
			for _, gap := range gaps {
				fmt.Printf("  %s\n", gap)
			}
			fmt.Println()
			return nil
		},
	}
}

func syncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync [workbook]",
		Short: "Reconcile the remote forwarding state with the duty roster",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dryRun, _ := cmd.Flags().GetBool("dry-run")

			path, err := app.resolveWorkbook(args)
			if err != nil {
				return err
			}
			app.logger.Info("Loading duty roster", zap.String("workbook", path))
			roster, err := xlsxclient.LoadDutyRoster(path, &app.cfg.Workbook)
			if err != nil {
				return err
			}

			attendant, err := app.api.GetAutoAttendant(app.ctx, app.gcCutoff())
			if err != nil {
				return err
			}
			forwarding, err := attendant.ForwardingRoster()
			if err != nil {
				return err
			}

			delta := services.ComputeDelta(roster, forwarding)
			if len(delta) == 0 {
				fmt.Println("\n✓ Forwarding state already matches the roster.")
				return nil
			}

			fmt.Printf("\nPlanned changes (%d):\n", len(delta))
			for _, duty := range services.SortedDuties(delta) {
				current := "nobody"
				if midwife, ok := forwarding.MidwifeByDuty[duty]; ok {
					current = midwife.Name
				}
				fmt.Printf("  %s %-5s  %s -> %s\n", duty.Date.Format("2006-01-02"), duty.Shift, current, delta[duty].Name)
			}
			if dryRun {
				fmt.Println("\nDry run, nothing applied.")
				return nil
			}

			if err := services.SyncForwardings(app.ctx, app.api, attendant, delta, app.logger); err != nil {
				return err
			}
			fmt.Printf("\n✓ Forwarding state reconciled.\n\n")
			return nil
		},
	}

	cmd.Flags().Bool("dry-run", false, "Show the planned changes without applying them")
	return cmd
}

func assignCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "assign <date> <shift> <name> [phone]",
		Short: "Forward a single duty to the named midwife",
		Long: `Forward one duty (date plus day/night shift) to a midwife. The midwife is
looked up in the current forwarding state; for someone not forwarded to
before, the phone number is required.`,
		Args: cobra.RangeArgs(3, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := time.Parse("2006-01-02", args[0])
			if err != nil {
				return fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", args[0], err)
			}
			shift, err := model.ParseShift(args[1])
			if err != nil {
				return err
			}
			duty := model.Duty{Date: model.DateOf(date), Shift: shift}

			attendant, err := app.api.GetAutoAttendant(app.ctx, app.gcCutoff())
			if err != nil {
				return err
			}
			forwarding, err := attendant.ForwardingRoster()
			if err != nil {
				return err
			}

			midwife, ok := forwarding.GetMidwife(args[2])
			if !ok {
				if len(args) < 4 {
					return fmt.Errorf("midwife %q has no forwarding rule yet; pass their phone number", args[2])
				}
				midwife = model.Midwife{Name: args[2], Phone: args[3]}
			}
			if current, ok := forwarding.MidwifeByDuty[duty]; ok && current == midwife {
				fmt.Printf("\n✓ %s is already forwarded to %s.\n", duty, midwife.Name)
				return nil
			}

			desired := map[model.Duty]model.Midwife{duty: midwife}
			if err := services.SyncForwardings(app.ctx, app.api, attendant, desired, app.logger); err != nil {
				return err
			}
			fmt.Printf("\n✓ %s now forwards to %s (%s).\n\n", duty, midwife.Name, midwife.Phone)
			return nil
		},
	}
}
