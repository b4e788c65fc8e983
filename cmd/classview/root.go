package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/skdltmxn/classfile-go/class"
	"github.com/skdltmxn/classfile-go/internal/config"
	"github.com/skdltmxn/classfile-go/names"
)

var (
	outputFile string
	configFile string
	verbose    bool

	output    io.Writer
	cfg       *config.Config
	logger    *zap.Logger
	nameCache *names.Cache
)

var rootCmd = &cobra.Command{
	Use:   "classview",
	Short: "JVM class file viewer and editor",
	Long: `classview is a command-line tool for inspecting and rewriting
JVM class files.

It can display the constant pool and members of a class, rename classes,
compact or prune the constant pool, and check the stack depth of every
method in a class file or jar.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.Load(configFile); err != nil {
			return err
		}
		if logger, err = newLogger(cfg.Log.Level, verbose); err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		if nameCache, err = names.NewCache(cfg.Names.CacheSize); err != nil {
			return fmt.Errorf("failed to create name cache: %w", err)
		}

		if outputFile != "" {
			f, err := os.Create(outputFile)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			output = f
		} else {
			output = os.Stdout
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if f, ok := output.(*os.File); ok && f != os.Stdout {
			f.Close()
		}
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&outputFile, "output", "o", "", "write output to file instead of stdout")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "configuration file (default ./"+config.FileName+")")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(membersCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(renameCmd)
	rootCmd.AddCommand(compactCmd)
	rootCmd.AddCommand(pruneCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(checkCmd)
}

func newLogger(level string, debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	zc.Encoding = "console"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return zc.Build()
}

func classOptions() []class.Option {
	return []class.Option{class.WithLogger(logger), class.WithNameCache(nameCache)}
}

func openClass(path string) (*class.Class, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read class file: %w", err)
	}
	c, err := class.Parse(data, classOptions()...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return c, nil
}

func writeClass(c *class.Class, path string) error {
	data, err := c.Bytes()
	if err != nil {
		return fmt.Errorf("failed to encode class: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
