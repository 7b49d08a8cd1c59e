// Package cmd implements the chemviz CLI commands.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/davrell/chemviz/internal/api"
	"github.com/davrell/chemviz/internal/config"
	"github.com/davrell/chemviz/internal/session"
	"github.com/davrell/chemviz/internal/store"

	"github.com/spf13/cobra"
)

var (
	flagBase    string
	flagUser    string
	flagPass    string
	flagNoCache bool
	flagQuiet   bool
)

var rootCmd = &cobra.Command{
	Use:   "chemviz",
	Short: "Chemical Equipment Parameter Visualizer client",
	Long:  "Upload chemical-equipment CSV readings, browse past uploads, and view summaries, tables, and PDF reports from the terminal.",
	RunE:  runHistory,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagBase, "api-base", "", "Backend base URL (default $API_BASE or http://localhost:8000)")
	rootCmd.PersistentFlags().StringVarP(&flagUser, "user", "u", "", "Username (default $CHEMVIZ_USER or config)")
	rootCmd.PersistentFlags().StringVarP(&flagPass, "password", "p", "", "Password (default $CHEMVIZ_PASS)")
	rootCmd.PersistentFlags().BoolVar(&flagNoCache, "no-cache", false, "Skip the local SQLite cache")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
}

// resolveCreds builds credentials from flags, environment, and config,
// in that order of preference. The password never comes from the config file.
func resolveCreds(cfg config.Config) (api.Credentials, error) {
	user := flagUser
	if user == "" {
		user = config.Username(cfg)
	}
	pass := flagPass
	if pass == "" {
		pass = config.Password()
	}
	if user == "" || pass == "" {
		return api.Credentials{}, errors.New("credentials required: use --user/--password or CHEMVIZ_USER/CHEMVIZ_PASS")
	}
	return api.Credentials{Username: user, Password: pass}, nil
}

func resolveBase(cfg config.Config) string {
	if flagBase != "" {
		return flagBase
	}
	return config.BaseURL(cfg)
}

// newSession builds a session against the configured backend, attaching the
// read cache unless --no-cache. The returned cleanup closes the cache.
func newSession(cfg config.Config) (*session.Session, func()) {
	s := session.New(api.NewClient(resolveBase(cfg)))
	cleanup := func() {}

	if !flagNoCache {
		cache, err := store.Open(store.CachePath())
		if err != nil {
			if !flagQuiet {
				fmt.Fprintf(os.Stderr, "  Cache unavailable: %v\n", err)
			}
		} else {
			s.AttachCache(cache)
			cleanup = func() { _ = cache.Close() }
		}
	}
	return s, cleanup
}

// signIn resolves credentials and runs the login probe.
func signIn(ctx context.Context, s *session.Session, cfg config.Config) (api.Credentials, error) {
	creds, err := resolveCreds(cfg)
	if err != nil {
		return api.Credentials{}, err
	}
	if err := s.Login(ctx, creds); err != nil {
		var apiErr *api.Error
		if errors.As(err, &apiErr) && apiErr.Unauthorized() {
			return creds, errors.New("invalid username or password")
		}
		return creds, err
	}
	return creds, nil
}

// transportFailure reports whether err is a network-level failure, i.e. the
// backend never answered. Used to decide when the cache may stand in.
func transportFailure(err error) bool {
	var apiErr *api.Error
	return errors.As(err, &apiErr) && apiErr.Status == 0
}
