// Copyright (c) 2026 Garmin Health Data Team
// garmin-health-data - personal Garmin Connect data extractor
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/toeirei/garmin-health-data/internal/auth"
)

// stdinFd is swapped by tests; -1 means "not a terminal".
var stdinFd = func() int { return int(os.Stdin.Fd()) }

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the cached Garmin Connect tokens",
	}
	cmd.AddCommand(newAuthImportCmd(), newAuthStatusCmd(), newAuthLoginCmd())
	return cmd
}

func newAuthImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import [token-file]",
		Short: "Store an OAuth2 token in the token directory",
		Long: `Reads a Garmin Connect OAuth2 token (the JSON written to oauth2_token.json
by garth-compatible tools) and stores it in the token directory.

Either pass a file, pipe the JSON on stdin, or paste it when prompted.
A document of the form {"oauth1": {...}, "oauth2": {...}} imports both tokens.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := tokenDir()
			if err != nil {
				return err
			}
			r, err := tokenInput(cmd, args)
			if err != nil {
				return err
			}
			if err := auth.ImportToken(dir, r, time.Now()); err != nil {
				return fmt.Errorf("import token: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Token stored in %s\n", dir)
			return nil
		},
	}
}

func tokenInput(cmd *cobra.Command, args []string) (io.Reader, error) {
	if len(args) == 1 && args[0] != "-" {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return nil, fmt.Errorf("could not read token file: %w", err)
		}
		return bytes.NewReader(data), nil
	}
	fd := stdinFd()
	if fd >= 0 && term.IsTerminal(fd) {
		fmt.Fprint(cmd.OutOrStdout(), "Paste the OAuth2 token JSON (input hidden): ")
		data, err := term.ReadPassword(fd)
		fmt.Fprintln(cmd.OutOrStdout())
		if err != nil {
			return nil, fmt.Errorf("could not read token: %w", err)
		}
		return bytes.NewReader(data), nil
	}
	return cmd.InOrStdin(), nil
}

func newAuthStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether cached tokens exist and when they expire",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := tokenDir()
			if err != nil {
				return err
			}
			st, err := auth.Status(dir, time.Now())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Token directory: %s\n", st.Dir)
			if !st.HasTokens {
				fmt.Fprintln(out, "Status: not authenticated (run 'garmin-health-data auth import')")
				return nil
			}
			state := "valid"
			if st.Expired {
				state = "expired"
			}
			fmt.Fprintf(out, "Status: %s, expires %s\n", state, st.ExpiresAt.Local().Format(time.RFC3339))
			return nil
		},
	}
}

func newAuthLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Verify the cached tokens against Garmin Connect",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := garminConfig()
			if err != nil {
				return err
			}
			client, err := auth.Login(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			p, err := client.Profile(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Authenticated as %s\n", p.DisplayName)
			return nil
		},
	}
}
