package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/aretw0/parley/internal/cli"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage stored sessions",
	Long:  `List, inspect and remove sessions kept by a session store.`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List stored sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		stores, err := openSessionStore(cmd)
		if err != nil {
			return err
		}
		defer stores.Close()

		ids, err := stores.Store.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("list sessions: %w", err)
		}
		if len(ids) == 0 {
			fmt.Println("No stored sessions found.")
			return nil
		}
		for _, id := range ids {
			fmt.Println("- " + id)
		}
		return nil
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <session-id>",
	Short: "Print the attributes of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		stores, err := openSessionStore(cmd)
		if err != nil {
			return err
		}
		defer stores.Close()

		attrs, err := stores.Store.Load(cmd.Context(), args[0])
		if errors.Is(err, domain.ErrSessionNotFound) {
			return fmt.Errorf("session %q not found", args[0])
		}
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(attrs)
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <session-id>...",
	Short: "Remove sessions",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		stores, err := openSessionStore(cmd)
		if err != nil {
			return err
		}
		defer stores.Close()

		for _, id := range args {
			if err := stores.Store.Delete(cmd.Context(), id); err != nil {
				return fmt.Errorf("remove %s: %w", id, err)
			}
			fmt.Printf("Session '%s' removed.\n", id)
		}
		return nil
	},
}

func openSessionStore(cmd *cobra.Command) (*cli.Stores, error) {
	stores, err := openStore(cmd)
	if err != nil {
		return nil, err
	}
	if stores == nil {
		return nil, errors.New("no store selected (use --store)")
	}
	return stores, nil
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	for _, c := range []*cobra.Command{sessionLsCmd, sessionInspectCmd, sessionRmCmd} {
		addStoreFlags(c, cli.StoreFile)
		sessionCmd.AddCommand(c)
	}
}
