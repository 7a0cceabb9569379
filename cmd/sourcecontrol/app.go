package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/utkarsh5026/sourcevault/pkg/common/logger"
	"github.com/utkarsh5026/sourcevault/pkg/config"
	"github.com/utkarsh5026/sourcevault/pkg/repository/scpath"
	"github.com/utkarsh5026/sourcevault/pkg/repository/sourcerepo"
)

// app carries global flags and the per-invocation environment. Tests build
// their own app so nothing leaks between commands.
type app struct {
	logLevel  string
	logFormat string
	verbose   bool
	dir       string
	settings  []string

	stderr     io.Writer
	configOpts []config.Option
	repoOpts   []sourcerepo.Option
	now        func() time.Time
	log        *slog.Logger
}

func newApp() *app {
	return &app{stderr: os.Stderr}
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "srcc",
		Short:         "SourceVault - a content-addressable version control store",
		Long:          getBanner(),
		Version:       fmt.Sprintf("%s (built: %s, commit: %s)", Version, BuildTime, CommitSHA),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setupLogging(cmd, "")
		},
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flags.StringVar(&a.logFormat, "log-format", "text", "Log format (text, json)")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose output (sets log level to debug)")
	flags.StringVarP(&a.dir, "directory", "C", "", "Run as if started in this directory")
	flags.StringArrayVarP(&a.settings, "config", "c", nil, "Override a config value (key=value)")

	rootCmd.AddCommand(
		newInitCmd(a),
		newHashObjectCmd(a),
		newCatFileCmd(a),
		newAddCmd(a),
		newRmCmd(a),
		newResetCmd(a),
		newLsFilesCmd(a),
		newWriteTreeCmd(a),
		newCommitCmd(a),
		newUpdateRefCmd(a),
		newBranchCmd(a),
		newTagCmd(a),
		newSwitchCmd(a),
		newCheckoutCmd(a),
		newRevParseCmd(a),
		newRevListCmd(a),
		newLogCmd(a),
		newReflogCmd(a),
		newGCCmd(a),
	)
	return rootCmd
}

// setupLogging builds the process logger. --verbose wins over --log-level,
// an explicit --log-level wins over core.loglevel from configLevel.
func (a *app) setupLogging(cmd *cobra.Command, configLevel string) error {
	levelName := a.logLevel
	if !cmd.Flags().Changed("log-level") && configLevel != "" {
		levelName = configLevel
	}
	level, err := logger.ParseLevel(levelName)
	if err != nil {
		return err
	}
	if a.verbose {
		level = logger.LevelDebug
	}
	format, err := logger.ParseFormat(a.logFormat)
	if err != nil {
		return err
	}

	a.log = logger.New(logger.Config{Level: level, Format: format, Output: a.stderr})
	logger.Default = a.log
	return nil
}

// workDir is the directory commands act on: -C or the process cwd.
func (a *app) workDir() (string, error) {
	if a.dir != "" {
		return filepath.Abs(a.dir)
	}
	return os.Getwd()
}

func (a *app) repoOptions() ([]sourcerepo.Option, error) {
	opts := []sourcerepo.Option{
		sourcerepo.WithLogger(a.log),
		sourcerepo.WithConfigOptions(a.configOpts...),
	}
	opts = append(opts, a.repoOpts...)
	if a.now != nil {
		opts = append(opts, sourcerepo.WithClock(a.now))
	}
	for _, kv := range a.settings {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid -c %q: expected key=value", kv)
		}
		opts = append(opts, sourcerepo.WithSetting(key, value))
	}
	return opts, nil
}

// openRepo opens the repository containing the working directory. The
// logger is rebuilt first so core.loglevel applies when no flag is given.
func (a *app) openRepo(cmd *cobra.Command) (*sourcerepo.Repository, error) {
	dir, err := a.workDir()
	if err != nil {
		return nil, err
	}
	root, err := sourcerepo.Locate(dir)
	if err != nil {
		return nil, err
	}

	cfg := config.NewManager(root, append([]config.Option{config.WithLogger(logger.Discard())}, a.configOpts...)...)
	if err := cfg.Load(cmd.Context()); err == nil {
		if err := a.setupLogging(cmd, config.NewTypedConfig(cfg).LogLevel()); err != nil {
			return nil, err
		}
	}

	opts, err := a.repoOptions()
	if err != nil {
		return nil, err
	}
	return sourcerepo.Open(ctxOf(cmd), root, opts...)
}

// relPath converts a path given on the command line to a repository
// relative slash path.
func relPath(repo *sourcerepo.Repository, base, arg string) (string, error) {
	abs := arg
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(base, arg)
	}
	rel, err := filepath.Rel(repo.Root().String(), abs)
	if err != nil {
		return "", err
	}
	if rel == "." || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%s is outside repository %s", arg, repo.Root())
	}
	if _, err := scpath.NewRelativePath(filepath.ToSlash(rel)); err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

func ctxOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
