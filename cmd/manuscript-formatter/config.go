// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/manuscript-formatter/internal/container"
	"github.com/pdiddy/manuscript-formatter/pkg/types"
)

const configFileName = "manuscript-formatter.yaml"

// envKeyReplacer maps nested keys to env names:
// format.font_size -> MANUSCRIPT_FORMATTER_FORMAT_FONT_SIZE.
var envKeyReplacer = strings.NewReplacer(".", "_")

// setDefaults registers every configuration key with its default value.
func setDefaults(v *viper.Viper) {
	def := types.DefaultFormatConfig()
	v.SetDefault("format.font_size", def.FontSize)
	v.SetDefault("format.line_spacing", def.LineSpacing)
	v.SetDefault("format.figure_width", def.FigureWidth)
	v.SetDefault("source.max_size_mb", 50)
	v.SetDefault("output.pdf_proof", false)
	v.SetDefault("history.enabled", true)
	v.SetDefault("history.db_path", filepath.Join("~", ".local", "share", "manuscript-formatter", "history.db"))
	v.SetDefault("batch.jobs", 4)
	v.SetDefault("legacy.enabled", false)
	v.SetDefault("legacy.image", container.DefaultSofficeImage)
}

// loadConfig returns the effective configuration from defaults, config
// file, environment and bound flags.
func loadConfig(v *viper.Viper) (types.AppConfig, error) {
	cfg, err := decodeConfig(v)
	if err != nil {
		return cfg, err
	}
	path, err := expandHome(cfg.History.DBPath)
	if err != nil {
		return cfg, err
	}
	cfg.History.DBPath = path
	return cfg, nil
}

// expandHome replaces a leading "~" with the user's home directory.
func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~"+string(filepath.Separator)) && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, path[1:]), nil
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or initialise the formatter configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(viper.GetViper())
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(cfg)
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Long: `Init writes manuscript-formatter.yaml with the default settings to the
current directory, or to the path given with --path. An existing file is
left alone unless --force is set.`,
	RunE: runConfigInit,
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("path")
	force, _ := cmd.Flags().GetBool("force")

	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	v := viper.New()
	setDefaults(v)
	cfg, err := decodeConfig(v)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding configuration: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}

// decodeConfig decodes v without expanding "~" in paths.
func decodeConfig(v *viper.Viper) (types.AppConfig, error) {
	var cfg types.AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding configuration: %w", err)
	}
	return cfg, nil
}

func init() {
	configInitCmd.Flags().String("path", configFileName, "file to write")
	configInitCmd.Flags().Bool("force", false, "overwrite an existing file")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)

	rootCmd.AddCommand(configCmd)
}
