package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"shopdash/internal/config"
	"shopdash/internal/gatewayclient"
	"shopdash/internal/infrastructure/logger"
	"shopdash/internal/listing"
	"shopdash/internal/session"
)

const annotationRequiresSession = "requires-session"

// app is shared by every command once the root pre-run has finished.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	store  *session.Store
	client *gatewayclient.Client
	out    io.Writer

	gatewayURL string
	prefsFile  string
	logLevel   string
}

func newRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "shopdash",
		Short:         "Browse and manage store products through the product gateway",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&a.gatewayURL, "gateway", "", "gateway base URL (default $GATEWAY_URL or http://localhost:8000)")
	root.PersistentFlags().StringVar(&a.prefsFile, "prefs", "", "preferences file (default $PREFERENCES_FILE or ~/.shopdash.yaml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (default $LOG_LEVEL or info)")

	root.AddCommand(
		a.loginCommand(),
		a.logoutCommand(),
		a.listCommand(),
		a.createCommand(),
		a.updateCommand(),
		a.deleteCommand(),
		a.themeCommand(),
		a.watchCommand(),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if a.gatewayURL != "" {
		cfg.Dashboard.GatewayURL = a.gatewayURL
	}
	if a.prefsFile != "" {
		cfg.Dashboard.PreferencesFile = a.prefsFile
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}

	log, err := logger.NewConsole(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}

	a.cfg = cfg
	a.logger = log
	a.store = session.NewStore(cfg.Dashboard.PreferencesFile)
	a.client = gatewayclient.New(cfg.Dashboard.GatewayURL, log)
	a.out = cmd.OutOrStdout()

	if cmd.Annotations[annotationRequiresSession] != "true" {
		return nil
	}
	sess, err := a.store.Current()
	if err != nil {
		return err
	}
	cmd.SetContext(session.NewContext(cmd.Context(), sess))
	return nil
}

func (a *app) dashboard(opts ...listing.DashboardOption) *listing.Dashboard {
	return listing.NewDashboard(a.client, a.logger, opts...)
}

// loadedDashboard returns a dashboard with the catalogue fetched for q.
func (a *app) loadedDashboard(ctx context.Context, q listing.Query) (*listing.Dashboard, listing.Page, error) {
	d := a.dashboard()
	page, err := d.SetQuery(ctx, q)
	if err != nil {
		d.Close()
		return nil, listing.Page{}, err
	}
	return d, page, nil
}

func requiresSession(cmd *cobra.Command) *cobra.Command {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[annotationRequiresSession] = "true"
	return cmd
}

func (a *app) theme() session.Theme {
	prefs, err := a.store.Load()
	if err != nil {
		a.logger.Warn("could not read preferences", zap.Error(err))
		return session.ThemeLight
	}
	return prefs.Theme
}
