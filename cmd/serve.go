// cmd/serve.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/ahmedelsaid/portfolio/internal/config"
	"github.com/ahmedelsaid/portfolio/internal/portfolio"
	"github.com/ahmedelsaid/portfolio/internal/web"
)

var serverPort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the portfolio",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.Port = serverPort
		}
		return serve(cmd.Context(), cfg)
	},
}

func init() {
	serveCmd.Flags().StringVarP(&serverPort, "port", "p", "8080", "Port to serve the site on (overrides PORT)")
	rootCmd.AddCommand(serveCmd)
	// Running the binary without a subcommand serves the site.
	rootCmd.RunE = serveCmd.RunE
	rootCmd.Flags().AddFlagSet(serveCmd.Flags())
}

func serve(parent context.Context, cfg config.Config) error {
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	profile, err := portfolio.LoadProfile()
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}

	db, err := web.OpenDB(cfg.AnalyticsDB)
	if err != nil {
		return err
	}
	defer db.Close()

	analytics, err := web.NewAnalytics(ctx, db)
	if err != nil {
		return err
	}
	log.Println("Privacy-conscious visitor tracking initialized")
	go func() {
		n, err := analytics.Cleanup(ctx)
		if err != nil {
			log.Printf("Error cleaning up old visitor data: %v", err)
			return
		}
		if n > 0 {
			log.Printf("Privacy cleanup: Removed %d records older than 12 months", n)
		}
	}()

	sessions := web.NewSessions(cfg.SessionTTL)
	defer sessions.CloseAll()
	go sessions.Janitor(ctx, time.Minute)

	srv := &web.Server{
		Profile:   profile,
		Sessions:  sessions,
		Analytics: analytics,
		Admin:     web.NewAdmin(cfg.AdminUsername, cfg.AdminPassword, analytics, sessions),
	}
	router, err := srv.Router()
	if err != nil {
		return fmt.Errorf("build router: %w", err)
	}

	httpSrv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Printf("Serving portfolio on http://localhost:%s", cfg.Port)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
