package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/internal/cli"
	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/loader"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "parley",
	Short: "Parley runs conversational state machines",
	Long: `Parley loads a conversation graph (YAML or JSON) and its localized views,
and serves it to voice and chat clients.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringP("graph", "g", cli.Env(cli.EnvGraph, ""), "Graph file (YAML or JSON)")
	pf.StringSlice("views", splitList(cli.Env(cli.EnvViews, "")), "View files, merged in order")
	pf.String("locale", "", "Default locale of the views")
	pf.String("log-level", cli.Env(cli.EnvLogLevel, "info"), "Log level: debug, info, warn or error")
	pf.String("log-format", string(logging.FormatText), "Log format: text or json")
}

func newLogger(cmd *cobra.Command) (*slog.Logger, error) {
	levelStr, _ := cmd.Flags().GetString("log-level")
	format, _ := cmd.Flags().GetString("log-format")
	level, err := logging.ParseLevel(levelStr)
	if err != nil {
		return nil, err
	}
	return logging.NewWriter(os.Stderr, level, logging.Format(format)), nil
}

func buildApp(cmd *cobra.Command, logger *slog.Logger) (*parley.App, *loader.Definition, error) {
	graphPath, _ := cmd.Flags().GetString("graph")
	if graphPath == "" && len(cmd.Flags().Args()) > 0 {
		graphPath = cmd.Flags().Arg(0)
	}
	views, _ := cmd.Flags().GetStringSlice("views")
	locale, _ := cmd.Flags().GetString("locale")
	return cli.BuildApp(cli.AppOptions{
		GraphPath:     graphPath,
		ViewPaths:     views,
		DefaultLocale: locale,
		Logger:        logger,
	})
}

// addStoreFlags declares the session store flags of cmd. def is the store
// used when --store is not given; empty means no store.
func addStoreFlags(cmd *cobra.Command, def string) {
	f := cmd.Flags()
	f.String("store", cli.Env(cli.EnvStore, def), "Session store: memory, file, sqlite or redis")
	f.String("store-url", cli.Env(cli.EnvStoreURL, ""), "Store location: directory, database path or redis:// URL")
	f.Duration("store-ttl", 0, "Expire redis sessions after this long")
	f.String("encryption-key", cli.Env(cli.EnvKey, ""), "Base64 AES-256 key sealing stored attributes")
	f.StringSlice("redact", nil, "Regexp of attribute keys masked before storing")
}

// openStore opens the store selected by the flags, or returns nil when none is.
func openStore(cmd *cobra.Command) (*cli.Stores, error) {
	f := cmd.Flags()
	kind, _ := f.GetString("store")
	if kind == "" {
		return nil, nil
	}
	url, _ := f.GetString("store-url")
	ttl, _ := f.GetDuration("store-ttl")
	key, _ := f.GetString("encryption-key")
	redact, _ := f.GetStringSlice("redact")
	return cli.OpenStore(cli.StoreOptions{
		Kind:          kind,
		URL:           url,
		TTL:           ttl,
		EncryptionKey: key,
		Redact:        redact,
	})
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
