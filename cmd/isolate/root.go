package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	artifactruntime "github.com/wippyai/artifact-runtime"
)

// config is the merged result of flags, ISOLATE_* variables and the config file.
type config struct {
	Root        string `mapstructure:"root"`
	LogLevel    string `mapstructure:"log-level"`
	LogFormat   string `mapstructure:"log-format"`
	MetricsAddr string `mapstructure:"metrics-addr"`
	AutoStart   bool   `mapstructure:"auto-start"`
}

var (
	cfgFile string
	cfg     config
	logger  = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:           "isolate",
	Short:         "Deploy and inspect isolated artifacts",
	Long:          `isolate deploys the domains and applications described under a deployment root and resolves resources and symbols through their regions.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := initConfig(); err != nil {
			return err
		}
		l, err := newLogger(cfg.LogLevel, cfg.LogFormat)
		if err != nil {
			return err
		}
		logger = l
		artifactruntime.SetLogger(l)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "config file (default: ./isolate.yaml)")
	flags.StringP("root", "r", ".", "deployment root holding domains/ and apps/")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "console", "log format (console, json)")
	flags.Bool("auto-start", true, "start artifacts after they deploy")

	for _, name := range []string{"root", "log-level", "log-format", "auto-start"} {
		_ = viper.BindPFlag(name, flags.Lookup(name))
	}

	rootCmd.AddCommand(deployCmd, resolveCmd, watchCmd, inspectCmd)
}

func initConfig() error {
	viper.SetEnvPrefix("ISOLATE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName("isolate")
		viper.SetConfigType("yaml")
	}
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || cfgFile != "" {
			return fmt.Errorf("reading config: %w", err)
		}
	}
	if err := viper.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("decoding config: %w", err)
	}
	return nil
}

func newLogger(level, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	var zc zap.Config
	switch format {
	case "json":
		zc = zap.NewProductionConfig()
	case "console", "":
		zc = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
	zc.Level = zap.NewAtomicLevelAt(lvl)
	return zc.Build()
}

// newRuntime builds a runtime for the configured root.
func newRuntime(opts ...func(*artifactruntime.Config)) *artifactruntime.Runtime {
	rc := artifactruntime.Config{
		Root:      cfg.Root,
		AutoStart: cfg.AutoStart,
	}
	for _, o := range opts {
		o(&rc)
	}
	return artifactruntime.New(rc)
}
