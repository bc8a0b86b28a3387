package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ytget/ytqueue/internal/config"
	"github.com/ytget/ytqueue/internal/credentials"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigShowCommand(ctx))
	configCmd.AddCommand(newConfigPathCommand(ctx))
	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigSetSpotifyCommand(ctx))

	return configCmd
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withCredentials(func(cfg *config.Config, store credentials.Store) error {
				data, err := cfg.Encode()
				if err != nil {
					return err
				}
				creds, err := credentials.LoadSpotify(cmd.Context(), store)
				if err != nil {
					return fmt.Errorf("read credentials: %w", err)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "# config: %s (exists: %s)\n", ctx.configPath, yesNo(ctx.configExists))
				fmt.Fprintln(out, strings.TrimRight(string(data), "\n"))
				fmt.Fprintln(out)
				fmt.Fprintf(out, "# credentials (%s)\n", cfg.Credentials.Backend)
				fmt.Fprintf(out, "spotify_client_id = %q\n", displayValue(creds.ClientID, false))
				fmt.Fprintf(out, "spotify_client_secret = %q\n", displayValue(creds.ClientSecret, true))
				return nil
			})
		},
	}
}

func newConfigPathCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the configuration, history and credentials locations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "config:      %s (exists: %s)\n", ctx.configPath, yesNo(ctx.configExists))
			fmt.Fprintf(out, "downloads:   %s\n", cfg.Paths.DownloadsDir)
			fmt.Fprintf(out, "history:     %s\n", cfg.Paths.HistoryFile)
			fmt.Fprintf(out, "credentials: %s\n", cfg.Credentials.Path)
			if cfg.Paths.LogDir != "" {
				fmt.Fprintf(out, "logs:        %s\n", cfg.Paths.LogDir)
			}
			return nil
		},
	}
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write the default configuration to a file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if !errors.Is(err, os.ErrNotExist) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			cfg := config.Default()
			data, err := cfg.Encode()
			if err != nil {
				return err
			}
			dir := filepath.Dir(target)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create config directory %q: %w", dir, err)
			}
			if err := os.WriteFile(target, data, 0o644); err != nil {
				return fmt.Errorf("write config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote default configuration to %s\n", target)
			fmt.Fprintln(out, "Run `ytqueue config set-spotify` (or export SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET) to enable Spotify playlists.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigSetSpotifyCommand(ctx *commandContext) *cobra.Command {
	var clientID, clientSecret string

	cmd := &cobra.Command{
		Use:   "set-spotify",
		Short: "Store the Spotify client id and secret",
		Long: `Store the Spotify Web API client credentials used to read playlists.

Values not passed as flags are read from stdin, one per line.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := bufio.NewReader(cmd.InOrStdin())
			out := cmd.OutOrStdout()
			var err error
			if clientID == "" {
				if clientID, err = prompt(in, out, "Client ID: "); err != nil {
					return err
				}
			}
			if clientSecret == "" {
				if clientSecret, err = prompt(in, out, "Client Secret: "); err != nil {
					return err
				}
			}
			creds := credentials.SpotifyCredentials{ClientID: strings.TrimSpace(clientID), ClientSecret: strings.TrimSpace(clientSecret)}
			if !creds.Complete() {
				return errors.New("both client id and client secret are required")
			}

			return ctx.withCredentials(func(cfg *config.Config, store credentials.Store) error {
				if err := credentials.SaveSpotify(cmd.Context(), store, creds); err != nil {
					return fmt.Errorf("save credentials: %w", err)
				}
				fmt.Fprintf(out, "Saved Spotify credentials (secret %s) to %s\n", credentials.MaskSecret(creds.ClientSecret), cfg.Credentials.Path)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&clientID, "client-id", "", "Spotify client id")
	cmd.Flags().StringVar(&clientSecret, "client-secret", "", "Spotify client secret")
	return cmd
}

func prompt(in *bufio.Reader, out io.Writer, label string) (string, error) {
	fmt.Fprint(out, label)
	line, err := in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func displayValue(value string, secret bool) string {
	switch {
	case value == "":
		return "(not set)"
	case secret:
		return credentials.MaskSecret(value)
	default:
		return value
	}
}
