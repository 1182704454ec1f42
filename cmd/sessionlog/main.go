// Package main provides the sessionlog CLI, a host that drives a session log
// from command scripts and inspects what it persisted.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"sessionlog/internal/config"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var version = "dev"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:     "sessionlog",
	Short:   "Drive and inspect a bounded, session-scoped structured log",
	Version: version,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: $HOME/.sessionlog.yaml)")

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newInfoCmd())
	rootCmd.AddCommand(newLogsCmd())
	rootCmd.AddCommand(newReportCmd())
	rootCmd.AddCommand(newVersionCmd())
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigName(".sessionlog")
		viper.SetConfigType("yaml")
	}

	_ = viper.ReadInConfig()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "sessionlog: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// storeFlags are the persistence flags shared by every command.
type storeFlags struct {
	store   string
	dataDir string
}

func (f *storeFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.store, "store", "", "blob store: file, sqlite, or memory (env: SESSIONLOG_STORE)")
	flags.StringVar(&f.dataDir, "data-dir", "", "directory for persisted blobs (env: SESSIONLOG_DATA_DIR, default: $HOME/.sessionlog)")
}

func (f *storeFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("store") {
		cfg.Store = f.store
	}
	if cmd.Flags().Changed("data-dir") {
		cfg.DataDir = f.dataDir
	}
}

// loadConfig layers environment, config file, then flags applied by the
// caller through override.
func loadConfig(override func(*config.Config)) (config.Config, error) {
	var cfg config.Config
	if err := config.ParseEnv(&cfg); err != nil {
		return config.Config{}, err
	}
	applyFileConfig(&cfg)
	if override != nil {
		override(&cfg)
	}
	if cfg.DataDir == "" {
		cfg.DataDir = defaultDataDir()
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func applyFileConfig(cfg *config.Config) {
	if viper.IsSet("max_entries") {
		cfg.MaxEntries = viper.GetInt("max_entries")
	}
	if viper.IsSet("enabled") {
		cfg.Enabled = viper.GetBool("enabled")
	}
	strs := map[string]*string{
		"store":              &cfg.Store,
		"data_dir":           &cfg.DataDir,
		"listen":             &cfg.Listen,
		"log_level":          &cfg.LogLevel,
		"log_format":         &cfg.LogFormat,
		"host.build":         &cfg.Host.Build,
		"host.version":       &cfg.Host.Version,
		"host.addon_version": &cfg.Host.AddonVersion,
		"host.user":          &cfg.Host.User,
		"host.realm":         &cfg.Host.Realm,
		"host.guild":         &cfg.Host.Guild,
	}
	for key, target := range strs {
		if viper.IsSet(key) {
			*target = viper.GetString(key)
		}
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".sessionlog"
	}
	return filepath.Join(home, ".sessionlog")
}

type infoPayload struct {
	ConfigFile   string `json:"config_file"`
	MaxEntries   int    `json:"max_entries"`
	Enabled      bool   `json:"enabled"`
	Store        string `json:"store"`
	DataDir      string `json:"data_dir"`
	Listen       string `json:"listen"`
	Build        string `json:"build"`
	Version      string `json:"version"`
	AddonVersion string `json:"addon_version"`
	User         string `json:"user"`
	Realm        string `json:"realm"`
	Guild        string `json:"guild"`
}

func newInfoCmd() *cobra.Command {
	var (
		formatFlag string
		sf         storeFlags
	)

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show the resolved configuration and host facts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(func(c *config.Config) { sf.apply(cmd, c) })
			if err != nil {
				return err
			}

			payload := infoPayload{
				ConfigFile:   viper.ConfigFileUsed(),
				MaxEntries:   cfg.MaxEntries,
				Enabled:      cfg.Enabled,
				Store:        cfg.Store,
				DataDir:      cfg.DataDir,
				Listen:       cfg.Listen,
				Build:        cfg.Host.Build,
				Version:      cfg.Host.Version,
				AddonVersion: cfg.Host.AddonVersion,
				User:         cfg.Host.User,
				Realm:        cfg.Host.Realm,
				Guild:        cfg.Host.Guild,
			}

			switch strings.ToLower(formatFlag) {
			case "json":
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(payload)
			case "text":
				renderInfoText(cmd.OutOrStdout(), payload)
				return nil
			default:
				return fmt.Errorf("unsupported format: %s", formatFlag)
			}
		},
	}

	cmd.Flags().StringVar(&formatFlag, "format", "text", "output format: text or json")
	sf.register(cmd)

	return cmd
}

func renderInfoText(out io.Writer, payload infoPayload) {
	const labelWidth = 14
	writeKV(out, labelWidth, "Config File", orNone(payload.ConfigFile))
	writeKV(out, labelWidth, "Max Entries", strconv.Itoa(payload.MaxEntries))
	writeKV(out, labelWidth, "Enabled", strconv.FormatBool(payload.Enabled))
	writeKV(out, labelWidth, "Store", payload.Store)
	writeKV(out, labelWidth, "Data Dir", payload.DataDir)
	writeKV(out, labelWidth, "Listen", orNone(payload.Listen))
	writeKV(out, labelWidth, "Build", orNone(payload.Build))
	writeKV(out, labelWidth, "Version", orNone(payload.Version))
	writeKV(out, labelWidth, "Addon Version", orNone(payload.AddonVersion))
	writeKV(out, labelWidth, "User", orNone(payload.User))
	writeKV(out, labelWidth, "Realm", orNone(payload.Realm))
	writeKV(out, labelWidth, "Guild", orNone(payload.Guild))
}

func writeKV(out io.Writer, width int, label string, value string) {
	fmt.Fprintf(out, "%-*s: %s\n", width, label, value) //nolint:errcheck
}

func orNone(v string) string {
	if v == "" {
		return "-"
	}
	return v
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the sessionlog version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version) //nolint:errcheck
		},
	}
}
