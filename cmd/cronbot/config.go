package main

import (
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/flemzord/cronbot/internal/config"
	"github.com/flemzord/cronbot/internal/security"
	"github.com/flemzord/cronbot/pkg/app"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "check <path>",
		Short: "Validate configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := app.LoadConfig(args[0])
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), cfg)
			return nil
		},
	})

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with secrets redacted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")
			cfg, _, err := app.LoadConfig(cfgPath)
			if err != nil {
				return err
			}
			return writeRedacted(cmd.OutOrStdout(), cfg)
		},
	}
	show.Flags().StringP("config", "c", "", "Path to configuration file")
	cmd.AddCommand(show)

	return cmd
}

func printSummary(w io.Writer, cfg *config.Config) {
	fmt.Fprintf(w, "Configuration OK (store: %s, channels: %d, actions: %d)\n",
		cfg.Store.Driver, len(cfg.Channels.Webhooks)+1, len(cfg.Actions))
	for _, name := range slices.Sorted(maps.Keys(cfg.Actions)) {
		fmt.Fprintf(w, "  action %s (%s)\n", name, cfg.Actions[name].Kind)
	}
	if cfg.Gateway != nil {
		fmt.Fprintf(w, "  gateway on %s\n", cfg.Gateway.Bind)
	}
}

// writeRedacted prints cfg as YAML after defaults, with every secret
// replaced by the redaction placeholder.
func writeRedacted(w io.Writer, cfg *config.Config) error {
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	var tree map[string]any
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return fmt.Errorf("decoding config: %w", err)
	}

	r := security.NewRedactor()
	r.SyncConfig(cfg)
	r.RedactMap(tree)

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(tree); err != nil {
		return err
	}
	return enc.Close()
}
