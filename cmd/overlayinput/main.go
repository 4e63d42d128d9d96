package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"overlayinput/internal/adapters/linuxinput"
	"overlayinput/internal/core/overlay"
	"overlayinput/internal/screen"
	"overlayinput/internal/transport/wsfeed"
)

type config struct {
	configPath    string
	logLevel      slog.Level
	logLevelRaw   string
	screen        screen.Size
	deviceGlob    string
	legacyMice    linuxinput.LegacyMiceMode
	listen        string
	stdout        bool
	overlayWindow string
	listDevices   bool
	writeConfig   bool
}

// settings returns the persistable part of cfg.
func (c config) settings() fileSettings {
	stdout := c.stdout
	return fileSettings{
		LogLevel:      c.logLevelRaw,
		ScreenWidth:   c.screen.Width,
		ScreenHeight:  c.screen.Height,
		DeviceGlob:    c.deviceGlob,
		LegacyMice:    string(c.legacyMice),
		Listen:        c.listen,
		OverlayWindow: c.overlayWindow,
		Stdout:        &stdout,
	}
}

func newSlogLogger(level slog.Level, out io.Writer) *slog.Logger {
	if debugLogsEnabled() {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{
		Level: level,
	}))
}

func debugLogsEnabled() bool {
	return strings.TrimSpace(os.Getenv("DEBUG")) == "1"
}

func parseLogLevel(value string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warning", "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid --log-level %q (expected debug|info|warning|error)", value)
	}
}

func parseConfig(args []string, stderr io.Writer) (config, error) {
	cfg := config{stdout: true}
	flags := flag.NewFlagSet("overlayinput", flag.ContinueOnError)
	flags.SetOutput(stderr)

	var screenRaw string
	var legacyRaw string

	flags.StringVar(&cfg.configPath, "config", "", "TOML config file (default: <user config dir>/overlayinput/config.toml).")
	flags.StringVar(&cfg.logLevelRaw, "log-level", "info", "Log verbosity. Allowed: debug, info, warning, error.")
	flags.StringVar(&screenRaw, "screen", "", "Screen size as WIDTHxHEIGHT. Detected if omitted.")
	flags.StringVar(&cfg.deviceGlob, "device-glob", "", "Linux: glob of event devices to open (default: /dev/input/event*).")
	flags.StringVar(&legacyRaw, "legacy-mice", "auto", "Linux: read /dev/input/mice: auto|always|never.")
	flags.StringVar(&cfg.listen, "listen", "", "Serve the event feed and frontend commands over WebSocket on this address, e.g. 127.0.0.1:7071.")
	flags.BoolVar(&cfg.stdout, "stdout", true, "Write events to stdout as JSON lines.")
	flags.StringVar(&cfg.overlayWindow, "overlay-window", "", "Windows: title of the overlay window whose click-through is managed.")
	flags.BoolVar(&cfg.listDevices, "list-devices", false, "Print available input devices and exit.")
	flags.BoolVar(&cfg.writeConfig, "write-config", false, "Write the effective configuration to the config file and exit.")

	if err := flags.Parse(args); err != nil {
		return cfg, err
	}
	if flags.NArg() > 0 {
		return cfg, fmt.Errorf("unexpected arguments: %s", strings.Join(flags.Args(), " "))
	}

	explicit := make(map[string]bool)
	flags.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	if cfg.configPath == "" {
		path, err := defaultSettingsPath()
		if err != nil {
			return cfg, err
		}
		cfg.configPath = path
	}
	file, err := loadSettings(cfg.configPath)
	if err != nil {
		return cfg, err
	}
	if file != nil {
		applySettings(file, explicit, &cfg, &screenRaw, &legacyRaw)
	}

	level, err := parseLogLevel(cfg.logLevelRaw)
	if err != nil {
		return cfg, err
	}
	cfg.logLevel = level

	if strings.TrimSpace(screenRaw) != "" {
		size, err := screen.ParseSize(screenRaw)
		if err != nil {
			return cfg, err
		}
		cfg.screen = size
	}

	mode, err := linuxinput.ParseLegacyMiceMode(legacyRaw)
	if err != nil {
		return cfg, err
	}
	cfg.legacyMice = mode

	if !cfg.stdout && cfg.listen == "" && !cfg.listDevices && !cfg.writeConfig {
		return cfg, fmt.Errorf("--stdout=false requires --listen")
	}
	return cfg, nil
}

// applySettings copies file values into cfg for every flag the command line
// did not set.
func applySettings(file *fileSettings, explicit map[string]bool, cfg *config, screenRaw, legacyRaw *string) {
	if !explicit["log-level"] && file.LogLevel != "" {
		cfg.logLevelRaw = file.LogLevel
	}
	if !explicit["screen"] && file.ScreenWidth > 0 && file.ScreenHeight > 0 {
		*screenRaw = fmt.Sprintf("%dx%d", file.ScreenWidth, file.ScreenHeight)
	}
	if !explicit["device-glob"] && file.DeviceGlob != "" {
		cfg.deviceGlob = file.DeviceGlob
	}
	if !explicit["legacy-mice"] && file.LegacyMice != "" {
		*legacyRaw = file.LegacyMice
	}
	if !explicit["listen"] && file.Listen != "" {
		cfg.listen = file.Listen
	}
	if !explicit["stdout"] && file.Stdout != nil {
		cfg.stdout = *file.Stdout
	}
	if !explicit["overlay-window"] && file.OverlayWindow != "" {
		cfg.overlayWindow = file.OverlayWindow
	}
}

func isPermissionError(err error) bool {
	return errors.Is(err, os.ErrPermission) || errors.Is(err, syscall.EPERM) || errors.Is(err, syscall.EACCES)
}

func detectScreen(ctx context.Context, cfg config, logger *slog.Logger) screen.Size {
	override := cfg.screen
	if !override.Valid() {
		if env, ok := screen.EnvOverride(os.Getenv); ok {
			override = env
		}
	}
	detector := screen.Detector{
		Override: override,
		Probes:   screenProbes(),
		Logger:   logger,
	}
	return detector.Detect(ctx)
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg, err := parseConfig(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(stderr, err)
		return 2
	}

	if cfg.writeConfig {
		if err := saveSettings(cfg.configPath, cfg.settings()); err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		fmt.Fprintln(stderr, "Wrote", cfg.configPath)
		return 0
	}

	if cfg.listDevices {
		if err := listInputDevices(cfg, stdout); err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		return 0
	}

	logger := newSlogLogger(cfg.logLevel, stderr)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	size := detectScreen(ctx, cfg, logger)
	state := overlay.NewSharedState(size.Width, size.Height)

	var emitters overlay.MultiEmitter
	if cfg.stdout {
		out := bufio.NewWriter(stdout)
		emitters = append(emitters, overlay.NewJSONLinesEmitter(out, logger))
	}

	feedDone := make(chan error, 1)
	if cfg.listen != "" {
		fullscreen, closeFullscreen := fullscreenChecker()
		defer closeFullscreen()

		feed, err := wsfeed.NewServer(state, fullscreen, logger)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		listener, err := net.Listen("tcp", cfg.listen)
		if err != nil {
			fmt.Fprintf(stderr, "failed to listen on %s: %v\n", cfg.listen, err)
			return 1
		}
		emitters = append(emitters, feed)
		go func() { feedDone <- feed.Serve(ctx, listener) }()
	} else {
		close(feedDone)
	}

	shortcuts := overlay.DefaultShortcuts()
	for _, binding := range shortcuts.Bindings() {
		logger.Debug("Shortcut", "chord", binding.String(), "name", binding.Name)
	}
	opts := append([]overlay.Option{overlay.WithShortcuts(shortcuts)}, engineOptions(cfg, logger)...)
	engine, err := overlay.NewEngine(state, emitters, logger, opts...)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	code := 0
	if err := runCapture(ctx, cfg, engine, logger); err != nil {
		emitters.Emit(overlay.Failure{Message: err.Error()})
		if hint := permissionDeniedHint(err); hint != "" {
			fmt.Fprintln(stderr, hint)
		} else {
			fmt.Fprintln(stderr, err)
		}
		code = 1
	}

	cancel()
	if err := <-feedDone; err != nil {
		logger.Warn("Event feed stopped with error", "err", err)
	}
	return code
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
