// Package main is the kugiri CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/kugiri/internal/cli"
	"github.com/hyperjump/kugiri/internal/config"
	"github.com/hyperjump/kugiri/internal/dispatch"
	"github.com/hyperjump/kugiri/internal/extract"
	"github.com/hyperjump/kugiri/internal/models"
	"github.com/hyperjump/kugiri/internal/relay"
	"github.com/hyperjump/kugiri/internal/server"
	"github.com/hyperjump/kugiri/internal/storage"
	"github.com/hyperjump/kugiri/internal/watcher"
	"github.com/hyperjump/kugiri/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/kugiri/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used.
// When neither the default file nor a cwd config.yaml exists, built-in defaults are used
// and the returned path is empty. An explicit path that does not exist is an error.
// Returns the config and the path that was actually loaded (for saving, etc.).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
			return config.Default(), "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "split":
		runSplit()
	case "send":
		runSend()
	case "watch":
		runWatch()
	case "inbox":
		runInbox()
	case "server":
		runServer()
	case "history":
		runHistory()
	case "version", "--version", "-v":
		fmt.Printf("kugiri version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// argsReorder moves any flags (and their values) that appear after the input argument
// to the front of the slice so that flag.Parse() sees them. Go's flag package stops at
// the first non-flag argument, so "kugiri split essay.md --max 6" would otherwise leave
// --max unparsed. A lone "-" is the stdin argument, not a flag.
func argsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 1 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

// segmentFlags are the per-run segmentation overrides shared by split and send.
type segmentFlags struct {
	algorithm *string
	length    *int
	min       *int
	max       *int
	unit      *string
	policy    *string
	integrity *bool
}

func addSegmentFlags(fs *flag.FlagSet) *segmentFlags {
	return &segmentFlags{
		algorithm: fs.String("algorithm", "", "segmentation algorithm: smart, sentence or length (default from config)"),
		length:    fs.Int("length", 0, "target segment length in characters (default from config)"),
		min:       fs.Int("min", 0, "minimum number of segments (default from config)"),
		max:       fs.Int("max", 0, "maximum number of segments (default from config)"),
		unit:      fs.String("unit", "", "length unit: rune or grapheme (default from config)"),
		policy:    fs.String("merge-policy", "", "how excess segments are merged: shortest or tail (default from config)"),
		integrity: fs.Bool("keep-paragraphs", true, "never split a paragraph that fits in one segment"),
	}
}

// overrides returns the segmentation overrides of the flags that were set on the command line.
func (f *segmentFlags) overrides(fs *flag.FlagSet) *models.SegmentationOverrides {
	o := &models.SegmentationOverrides{}
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "algorithm":
			o.Algorithm = f.algorithm
		case "length":
			o.SegmentLength = f.length
		case "min":
			o.MinSegments = f.min
		case "max":
			o.MaxSegments = f.max
		case "unit":
			o.LengthUnit = f.unit
		case "merge-policy":
			o.MergePolicy = f.policy
		case "keep-paragraphs":
			o.KeepParagraphIntegrity = f.integrity
		}
	})
	return o
}

// readInput returns the text of path, or of stdin when path is "-".
func readInput(path string, stdin io.Reader, extractor *extract.Extractor) (string, error) {
	if path == "-" {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return extractor.ExtractBytes(b, ".txt")
	}
	return extractor.Extract(path)
}

// buildSender picks the delivery target: the webhook when a URL is given, else w.
func buildSender(webhookURL string, cfg *config.WebhookConfig, w io.Writer, format dispatch.WriterFormat) dispatch.Sender {
	if webhookURL == "" {
		return dispatch.NewWriterSender(w, format)
	}
	return dispatch.NewWebhookSender(webhookURL,
		dispatch.WithHTTPClient(&http.Client{Timeout: config.Seconds(cfg.Timeout)}),
		dispatch.WithHeaders(cfg.Headers))
}

func newRelay(cfg *config.Config, opts dispatch.Options, sender dispatch.Sender, logger *zap.Logger, extra ...relay.Option) *relay.Relay {
	sched := dispatch.NewScheduler(opts, dispatch.WithLogger(logger))
	ropts := append([]relay.Option{
		relay.WithLogger(logger),
		relay.WithLimits(relay.Limits{
			MinTotalLength: cfg.Delivery.MinTotalLength,
			MaxTotalLength: cfg.Delivery.MaxTotalLength,
		}),
	}, extra...)
	return relay.New(cfg.Segmentation.SegmentConfig(), sched, sender, ropts...)
}

// openHistory opens the delivery history database, or returns nil when history is disabled.
func openHistory(cfg *config.Config, logger *zap.Logger) (*storage.SQLiteStorage, error) {
	if !cfg.History.Enabled() {
		return nil, nil
	}
	store, err := storage.NewSQLiteStorage(cfg.History.DatabasePath)
	if err != nil {
		return nil, err
	}
	logger.Info("delivery history enabled", zap.String("database_path", store.Path()))
	return store, nil
}

func printSplitUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: kugiri split [flags] <file|->\n\n")
	fmt.Fprintf(fs.Output(), "Splits a document into chat-sized segments and prints them. Use - to read stdin.\n\n")
	fs.PrintDefaults()
}

func runSplit() {
	args := argsReorder(os.Args[2:])
	fs := flag.NewFlagSet("split", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	sf := addSegmentFlags(fs)
	outputFormat := fs.String("output", "text", "output format: text (human-readable), compact (segments only), or json (parseable)")
	fs.Usage = func() { printSplitUsage(fs) }
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		printSplitUsage(fs)
		os.Exit(1)
	}
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	start := time.Now()
	text, err := readInput(fs.Arg(0), os.Stdin, extract.NewExtractor())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read document: %v\n", err)
		os.Exit(1)
	}
	rl := newRelay(cfg, cfg.Delivery.DispatchOptions(), nil, logger)
	segCfg := sf.overrides(fs).Apply(rl.SegmentConfig())
	p, err := rl.Prepare(text, segCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Split failed: %v\n", err)
		os.Exit(1)
	}
	algorithm := string(segCfg.Algorithm)
	if algorithm == "" {
		algorithm = "smart"
	}
	response := &models.SegmentResponse{
		Segments:   p.Segments,
		Count:      len(p.Segments),
		Characters: p.Characters,
		Algorithm:  algorithm,
		Truncated:  p.Truncated,
		QueryTime:  time.Since(start).Milliseconds(),
	}
	if err := cli.WriteSegments(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func printSendUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: kugiri send [flags] <file|->\n\n")
	fmt.Fprintf(fs.Output(), "Splits a document and delivers the segments one by one with a delay between them,\n")
	fmt.Fprintf(fs.Output(), "to stdout or to a webhook. Ctrl-C stops before the next segment.\n\n")
	fs.PrintDefaults()
}

func runSend() {
	args := argsReorder(os.Args[2:])
	fs := flag.NewFlagSet("send", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	sf := addSegmentFlags(fs)
	webhookURL := fs.String("webhook", "", "POST each message to this URL instead of printing it (default from config)")
	format := fs.String("format", "text", "stdout format: text or ndjson")
	delay := fs.Float64("delay", -1, "seconds between segments (default from config)")
	noHint := fs.Bool("no-hint", false, "do not send the start hint")
	noProgress := fs.Bool("no-progress", false, "do not prefix segments with (i/N)")
	debug := fs.Bool("debug", false, "enable debug logging")
	fs.Usage = func() { printSendUsage(fs) }
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		printSendUsage(fs)
		os.Exit(1)
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug || *debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	opts := cfg.Delivery.DispatchOptions()
	if *delay >= 0 {
		opts.SendDelay = config.Seconds(*delay)
	}
	if *noHint {
		opts.ShowStartHint = false
	}
	if *noProgress {
		opts.ShowProgress = false
	}
	target := *webhookURL
	if target == "" {
		target = cfg.Webhook.URL
	}
	sender := buildSender(target, &cfg.Webhook, os.Stdout, dispatch.WriterFormat(*format))

	text, err := readInput(fs.Arg(0), os.Stdin, extract.NewExtractor())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read document: %v\n", err)
		os.Exit(1)
	}
	rl := newRelay(cfg, opts, sender, logger)
	segCfg := sf.overrides(fs).Apply(rl.SegmentConfig())
	p, err := rl.Prepare(text, segCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Split failed: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	sched := dispatch.NewScheduler(opts, dispatch.WithLogger(logger))
	report, err := sched.Schedule(ctx, p.Segments, sender)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "Stopped after %d of %d segments\n", report.Delivered, report.Total)
			os.Exit(130)
		}
		fmt.Fprintf(os.Stderr, "Delivery failed after %d of %d segments: %v\n", report.Delivered, report.Total, err)
		os.Exit(1)
	}
}

// inboxHandlers wires watcher callbacks to the relay. Failures are logged and the
// watcher carries on with the next document.
func inboxHandlers(ctx context.Context, rl *relay.Relay, exts []string, logger *zap.Logger) (onDocument, onRemove func(string)) {
	onDocument = func(path string) {
		report, err := rl.DeliverFile(ctx, path, exts)
		switch {
		case errors.Is(err, relay.ErrUnchanged):
			logger.Debug("inbox document unchanged", zap.String("path", path))
		case err != nil:
			logger.Warn("inbox delivery failed", zap.String("path", path), zap.Int("delivered", report.Delivered), zap.Error(err))
		default:
			logger.Info("inbox document delivered", zap.String("path", path), zap.String("run_id", report.RunID), zap.Int("segments", report.Delivered))
		}
	}
	onRemove = func(path string) {
		rl.Forget(ctx, path)
	}
	return onDocument, onRemove
}

func runWatch() {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	webhookURL := fs.String("webhook", "", "POST each message to this URL instead of printing it (default from config)")
	format := fs.String("format", "text", "stdout format: text or ndjson")
	syncExisting := fs.Bool("sync", false, "also deliver documents already in the inbox at startup")
	debug := fs.Bool("debug", false, "enable debug logging (file events, skipped documents, etc.)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	dirs := append(append([]string(nil), cfg.Inbox.Directories...), fs.Args()...)
	if len(dirs) == 0 {
		fmt.Fprintln(os.Stderr, "No inbox directories: set inbox.directories in the config or pass them as arguments")
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	logger.Info("config loaded", zap.String("config_path", resolvedConfigPath), zap.Bool("debug", debugMode))

	target := *webhookURL
	if target == "" {
		target = cfg.Webhook.URL
	}
	sender := buildSender(target, &cfg.Webhook, os.Stdout, dispatch.WriterFormat(*format))
	history, err := openHistory(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open history", zap.Error(err))
	}
	var ropts []relay.Option
	if history != nil {
		defer history.Close()
		ropts = append(ropts, relay.WithHistory(history))
	}
	rl := newRelay(cfg, cfg.Delivery.DispatchOptions(), sender, logger, ropts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	onDocument, onRemove := inboxHandlers(ctx, rl, cfg.Inbox.Extensions, logger)
	w := watcher.New(dirs, cfg.Inbox.Extensions, cfg.Inbox.RecursiveOrDefault(), onDocument, onRemove, watcher.WithLogger(logger))
	if err := w.Start(ctx); err != nil {
		logger.Fatal("Failed to start watcher", zap.Error(err))
	}
	if *syncExisting {
		go w.SyncExistingFiles()
	}
	logger.Info("watching inbox", zap.Strings("directories", w.Directories()))
	<-ctx.Done()
	logger.Info("Shutting down...")
	w.Stop()
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (requests, file events, etc.)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	// Inbox documents go to the configured webhook, or to stdout.
	sender := buildSender(cfg.Webhook.URL, &cfg.Webhook, os.Stdout, dispatch.WriteNDJSON)
	history, err := openHistory(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open history", zap.Error(err))
	}
	var ropts []relay.Option
	var sopts []server.Option
	if history != nil {
		defer history.Close()
		ropts = append(ropts, relay.WithHistory(history))
		sopts = append(sopts, server.WithHistory(history))
	}
	rl := newRelay(cfg, cfg.Delivery.DispatchOptions(), sender, logger, ropts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	onDocument, onRemove := inboxHandlers(ctx, rl, cfg.Inbox.Extensions, logger)
	inbox := watcher.New(cfg.Inbox.Directories, cfg.Inbox.Extensions, cfg.Inbox.RecursiveOrDefault(),
		onDocument, onRemove, watcher.WithLogger(logger))
	if err := inbox.Start(ctx); err != nil {
		logger.Fatal("Failed to start watcher", zap.Error(err))
	}

	sopts = append(sopts, server.WithInbox(inbox, resolvedConfigPath))
	srv := server.NewServer(rl, cfg, logger, sopts...)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")
	inbox.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(shutdownCtx)
}

func runInbox() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: kugiri inbox <add|remove|list> [path]")
		fmt.Println("  kugiri inbox add <path>     Add an inbox directory to a running server")
		fmt.Println("  kugiri inbox remove <path>  Stop watching an inbox directory")
		fmt.Println("  kugiri inbox list           List inbox directories")
		os.Exit(1)
	}
	sub := os.Args[2]
	fs := flag.NewFlagSet("inbox", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8090", "server URL")
	syncExisting := fs.Bool("sync", false, "deliver documents already in the directory")
	_ = fs.Parse(argsReorder(os.Args[3:]))
	if err := inboxRequest(http.DefaultClient, *serverURL, sub, fs.Arg(0), *syncExisting, os.Stdout); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// inboxRequest performs one inbox subcommand against the server API and prints the result to out.
func inboxRequest(client *http.Client, serverURL, sub, path string, syncExisting bool, out io.Writer) error {
	switch sub {
	case "add", "remove":
		if path == "" {
			return fmt.Errorf("usage: kugiri inbox %s <path>", sub)
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("invalid path: %w", err)
		}
		var req *http.Request
		want := http.StatusOK
		if sub == "add" {
			body, _ := json.Marshal(map[string]interface{}{"path": abs, "sync": syncExisting})
			req, _ = http.NewRequest(http.MethodPost, serverURL+"/api/v1/inbox/directories", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			want = http.StatusCreated
		} else {
			req, _ = http.NewRequest(http.MethodDelete, serverURL+"/api/v1/inbox/directories?path="+url.QueryEscape(abs), nil)
		}
		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != want {
			b, _ := io.ReadAll(resp.Body)
			return fmt.Errorf("%s failed (%d): %s", sub, resp.StatusCode, strings.TrimSpace(string(b)))
		}
		verb := "Added"
		if sub == "remove" {
			verb = "Removed"
		}
		fmt.Fprintf(out, "%s: %s\n", verb, abs)
		return nil
	case "list":
		resp, err := client.Get(serverURL + "/api/v1/inbox/directories")
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			return fmt.Errorf("list failed (%d): %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
		var list struct {
			Directories []string `json:"directories"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
			return fmt.Errorf("parse failed: %w", err)
		}
		for _, d := range list.Directories {
			fmt.Fprintln(out, d)
		}
		return nil
	default:
		return fmt.Errorf("unknown inbox subcommand: %s", sub)
	}
}

func runHistory() {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	limit := fs.Int("limit", 20, "number of deliveries to show")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if !cfg.History.Enabled() {
		fmt.Fprintln(os.Stderr, "History is disabled (history.database_path is empty)")
		os.Exit(1)
	}
	store, err := storage.NewSQLiteStorage(cfg.History.DatabasePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open history: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()
	list, err := store.ListDeliveries(context.Background(), 0, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to list deliveries: %v\n", err)
		os.Exit(1)
	}
	if err := writeHistory(os.Stdout, list, *outputFormat); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// writeHistory prints deliveries newest first, one line each, or as a JSON array.
func writeHistory(w io.Writer, list []*models.Delivery, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if list == nil {
			list = []*models.Delivery{}
		}
		return enc.Encode(list)
	case "text":
		if len(list) == 0 {
			fmt.Fprintln(w, "No deliveries recorded.")
			return nil
		}
		for _, d := range list {
			line := fmt.Sprintf("%s  %-8s %d/%d  %s  %s", d.StartedAt.Local().Format("2006-01-02 15:04:05"),
				d.Status, d.Delivered, d.Total, d.RunID, d.Source)
			if d.Error != "" {
				line += "  (" + d.Error + ")"
			}
			fmt.Fprintln(w, line)
		}
		return nil
	default:
		return fmt.Errorf("invalid output format %q (use text or json)", format)
	}
}

func printUsage() {
	fmt.Println(`kugiri - Split long answers into chat-sized messages and deliver them at a reading pace

Usage:
  kugiri split [flags] <file|->   Split a document and print the segments
  kugiri send [flags] <file|->    Deliver a document segment by segment
  kugiri watch [flags] [dir...]   Deliver documents dropped into inbox directories
  kugiri server [flags]           Start the HTTP server (with inbox watching)
  kugiri inbox <add|remove|list>  Manage inbox directories of a running server
  kugiri history [flags]          List recent deliveries
  kugiri version                  Show version
  kugiri help                     Show this help

Common Flags:
  --config string    Config file path (default: /usr/local/etc/kugiri/config.yaml, or ./config.yaml)
  --debug            Enable debug logging

Split/Send Flags:
  --algorithm string       smart, sentence or length
  --length int             Target segment length in characters
  --min int / --max int    Bounds on the number of segments
  --unit string            rune or grapheme
  --merge-policy string    shortest or tail
  --keep-paragraphs        Never split a paragraph that fits (default: true)
  --output string          split only: text, compact or json

Send/Watch Flags:
  --webhook string   POST each message as JSON to this URL
  --format string    stdout format: text or ndjson
  --delay float      send only: seconds between segments
  --no-hint          send only: skip the start hint
  --sync             watch only: deliver documents already in the inbox

Inbox Flags:
  --server string    Server URL (default: http://localhost:8090)
  --sync             Deliver documents already in an added directory

Examples:
  kugiri split answer.md
  kugiri split --max 6 --output json answer.md
  cat answer.txt | kugiri send --delay 0.5 -
  kugiri send --webhook http://localhost:3000/hook report.pdf
  kugiri watch ~/kugiri/inbox
  kugiri server
  kugiri inbox add ~/Documents/answers
  kugiri history --limit 5`)
}
