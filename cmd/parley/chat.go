package main

import (
	"os"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/internal/presentation/tui"
	"github.com/aretw0/parley/pkg/runner"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat [graph]",
	Short: "Talk to the conversation from the terminal",
	Long: `Starts a local conversation. Each line is an intent name followed by
key=value slots, a JSON intent, or a command (/help, /state, /reset, /quit).`,
	Args: cobra.MaximumNArgs(1),
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().Bool("json", false, "Read lines and write replies as NDJSON")
	chatCmd.Flags().String("session", runner.DefaultSessionID, "Session id")
	chatCmd.Flags().String("app-id", "", "Application id sent with every turn")
	chatCmd.Flags().Bool("no-launch", false, "Do not send a LaunchRequest first")
	chatCmd.Flags().Bool("no-banner", false, "Do not print the banner")
	addStoreFlags(chatCmd, "")
}

func runChat(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}
	app, _, err := buildApp(cmd, logger)
	if err != nil {
		return err
	}

	f := cmd.Flags()
	jsonMode, _ := f.GetBool("json")
	sessionID, _ := f.GetString("session")
	appID, _ := f.GetString("app-id")
	locale, _ := f.GetString("locale")

	opts := []runner.Option{
		runner.WithLogger(logger),
		runner.WithSessionID(sessionID),
		runner.WithApplicationID(appID),
	}
	if locale != "" {
		opts = append(opts, runner.WithLocale(locale))
	}
	if noLaunch, _ := f.GetBool("no-launch"); noLaunch {
		opts = append(opts, runner.WithoutLaunch())
	}

	if jsonMode {
		opts = append(opts, runner.WithHandler(runner.NewJSONHandler(os.Stdin, os.Stdout)))
	} else {
		if noBanner, _ := f.GetBool("no-banner"); !noBanner {
			tui.PrintBanner(os.Stdout, parley.Version)
		}
		var hopts []runner.TextHandlerOption
		if render, err := tui.NewRenderer(); err != nil {
			logger.Warn("markdown rendering disabled", "err", err)
		} else {
			hopts = append(hopts, runner.WithTextHandlerRenderer(render))
		}
		opts = append(opts, runner.WithHandler(runner.NewTextHandler(os.Stdin, os.Stdout, hopts...)))
	}

	stores, err := openStore(cmd)
	if err != nil {
		return err
	}
	if stores != nil {
		defer stores.Close()
		opts = append(opts, runner.WithSessions(stores.Manager(logger)))
	}

	return runner.New(app, opts...).Run(cmd.Context())
}
