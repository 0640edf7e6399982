package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"clippub/internal/admission"
	"clippub/internal/credentials"
	"clippub/internal/daemon"
	"clippub/internal/deps"
	"clippub/internal/history"
	"clippub/internal/logging"
	"clippub/internal/mediaprep"
	"clippub/internal/orchestrator"
	"clippub/internal/publisher"
	"clippub/internal/services/ffmpeg"
	"clippub/internal/services/tikdriver"
	"clippub/internal/session"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the publish daemon in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemonProcess(cmd.Context(), ctx, logLevel)
		},
	}
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override the configured log level")
	return cmd
}

func runDaemonProcess(cmdCtx context.Context, ctx *commandContext, logLevel string) error {
	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("clippub-%s.log", runID))
	level := cfg.Logging.Level
	if logLevel != "" {
		level = logLevel
	}
	logger, err := logging.New(logging.Options{
		Level:            level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update clippub.log link: %v\n", err)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: "clippub-*.log", Exclude: []string{logPath}},
	)

	pidPath := filepath.Join(cfg.Paths.LogDir, "clippub.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	for _, status := range deps.CheckBinaries(deps.Requirements(cfg)) {
		if status.Available {
			continue
		}
		logger.Warn("external dependency unavailable",
			logging.String("name", status.Name),
			logging.String("detail", status.Detail),
			logging.Bool("optional", status.Optional),
		)
	}

	store, err := history.Open(cfg)
	if err != nil {
		logger.Error("open history store", logging.Error(err))
		return err
	}
	defer store.Close()

	gate := admission.New(cfg.Admission.Enabled)
	sessions := session.NewManager(cfg.Paths.WorkingDir, logger)
	mixer := ffmpeg.NewCommandMixer(cfg.Mixer.FFmpegBinary, time.Duration(cfg.Mixer.Timeout)*time.Second)
	preparer := mediaprep.New(cfg.Paths.SoundDir, mixer, logger)
	driver := tikdriver.New(tikdriver.Options{
		BrowserBinary: cfg.Publish.BrowserBinary,
		UploadURL:     cfg.Publish.UploadURL,
	}, logger)
	executor := publisher.New(driver, time.Duration(cfg.Publish.Timeout)*time.Second, logger)
	orch := orchestrator.New(
		credentials.NewStore(cfg.Paths.CredentialDir),
		gate, sessions, preparer, executor, store,
		cfg.Publish.Headless, logger,
	)

	d, err := daemon.New(cfg, store, gate, sessions, orch, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		return err
	}

	<-signalCtx.Done()
	logger.Info("clippub daemon shutting down")
	return nil
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "clippub.log")
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
