package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"b2go/internal/b2"
	"b2go/internal/config"
)

// version is set at build time via ldflags.
var version = "dev"

// Global persistent flags, bound in newRootCmd().
var (
	flagConfigPath string
	flagVerbose    bool
	flagQuiet      bool
)

// loadedCfg and cfgPath hold the configuration loaded by PersistentPreRunE,
// available to all subcommands. Written back by saveState after a command
// mutates the session or bucket cache.
var (
	loadedCfg *config.Config
	cfgPath   string
)

// httpClientTimeout bounds how long a request may wait for response
// headers. Body streaming (uploads, downloads) is not subject to it, so
// the transport timeouts are configured instead of http.Client.Timeout.
const httpClientTimeout = 30 * time.Second

// defaultHTTPClient returns an HTTP client suited for long-running
// transfers: header/dial/TLS phases time out, body streaming does not.
func defaultHTTPClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = httpClientTimeout

	return &http.Client{Transport: transport}
}

// newRootCmd builds the fully-assembled root command. Called once from main().
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "b2go",
		Short:   "Backblaze B2 CLI client",
		Long:    "A command-line client for Backblaze B2: authorize, list, upload, and download.",
		Version: version,
		// Silence cobra's default error/usage printing — main handles it.
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return loadState()
		},
	}

	cmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "config file path")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress informational output")

	cmd.AddCommand(newAuthorizeCmd())
	cmd.AddCommand(newListBucketsCmd())
	cmd.AddCommand(newLsCmd())
	cmd.AddCommand(newUploadCmd())
	cmd.AddCommand(newDownloadCmd())
	cmd.AddCommand(newCatCmd())

	return cmd
}

// loadState resolves the config path and loads the persisted session state.
func loadState() error {
	cfgPath = flagConfigPath
	if cfgPath == "" {
		cfgPath = config.DefaultPath()
	}

	if cfgPath == "" {
		return fmt.Errorf("cannot determine config file location")
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	loadedCfg = cfg

	return nil
}

// newAPIClient builds a B2 client from the loaded config.
func newAPIClient() *b2.Client {
	logger := buildLogger()

	session := &b2.Session{
		KeyID:                   loadedCfg.KeyID,
		Key:                     loadedCfg.Key,
		APIURL:                  loadedCfg.APIURL,
		DownloadURL:             loadedCfg.DownloadURL,
		AuthToken:               loadedCfg.AuthToken,
		AccountID:               loadedCfg.AccountID,
		RecommendedPartSize:     loadedCfg.RecommendedPartSize,
		AbsoluteMinimumPartSize: loadedCfg.AbsoluteMinimumPartSize,
	}

	client := b2.NewClient(session, defaultHTTPClient(), logger)
	client.SeedBucketCache(loadedCfg.Buckets)

	return client
}

// saveState writes the client's session and bucket cache back to the
// config file. Called at the end of every command that may have refreshed
// the token or the bucket list.
func saveState(client *b2.Client) error {
	session := client.Session()

	loadedCfg.KeyID = session.KeyID
	loadedCfg.Key = session.Key
	loadedCfg.APIURL = session.APIURL
	loadedCfg.DownloadURL = session.DownloadURL
	loadedCfg.AuthToken = session.AuthToken
	loadedCfg.AccountID = session.AccountID
	loadedCfg.RecommendedPartSize = session.RecommendedPartSize
	loadedCfg.AbsoluteMinimumPartSize = session.AbsoluteMinimumPartSize
	loadedCfg.Buckets = client.BucketCache()

	if err := config.Save(cfgPath, loadedCfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	return nil
}

// ensureAuthorized makes the client usable: if no application key is
// stored it prompts for one interactively, and if the stored session has
// no token yet it performs the authorization exchange.
func ensureAuthorized(ctx context.Context, client *b2.Client) error {
	session := client.Session()

	if session.KeyID == "" || session.Key == "" {
		keyID, key, err := promptCredentials()
		if err != nil {
			return err
		}

		session.KeyID = keyID
		session.Key = key

		return client.Authorize(ctx)
	}

	if !client.Authorized() {
		return client.Authorize(ctx)
	}

	return nil
}

// buildLogger creates an slog.Logger for the command. A colored tint
// handler when stderr is a terminal, a plain text handler otherwise;
// --verbose and --quiet pick the level.
func buildLogger() *slog.Logger {
	level := slog.LevelInfo
	if flagVerbose {
		level = slog.LevelDebug
	}

	if flagQuiet {
		level = slog.LevelError
	}

	var handler slog.Handler
	if isatty.IsTerminal(os.Stderr.Fd()) {
		handler = tint.NewHandler(os.Stderr, &tint.Options{
			Level:      level,
			TimeFormat: "15:04:05",
		})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}

	return slog.New(handler)
}

// exitOnError prints a user-friendly error message to stderr and exits.
func exitOnError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
