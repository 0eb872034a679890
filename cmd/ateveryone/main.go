package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/huygnguyen04/at-everyone/internal/analytics"
	"github.com/huygnguyen04/at-everyone/internal/cmdlog"
	"github.com/huygnguyen04/at-everyone/internal/config"
	"github.com/huygnguyen04/at-everyone/internal/embed"
	"github.com/huygnguyen04/at-everyone/internal/llm"
	"github.com/huygnguyen04/at-everyone/internal/metrics"
	"github.com/huygnguyen04/at-everyone/internal/model"
	"github.com/huygnguyen04/at-everyone/internal/pipeline"
	"github.com/huygnguyen04/at-everyone/internal/sentiment"
	"github.com/huygnguyen04/at-everyone/internal/store/sqlitevec"
	"github.com/huygnguyen04/at-everyone/internal/theme"
	"github.com/huygnguyen04/at-everyone/internal/topic"
	"github.com/huygnguyen04/at-everyone/internal/transcript"
)

const defaultConfigPath = "./ateveryone.yaml"

func main() {
	cmd := ""
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}
	args := []string{}
	if len(os.Args) > 2 {
		args = os.Args[2:]
	}
	var f func([]string) error
	switch cmd {
	case "init":
		f = cmdInit
	case "users":
		f = cmdUsers
	case "activity":
		f = cmdActivity
	case "analyze":
		f = cmdAnalyze
	case "show":
		f = cmdShow
	case "project":
		f = cmdProject
	case "wrapped":
		f = cmdWrapped
	case "serve-metrics":
		f = cmdServeMetrics
	default:
		printHelp()
		return
	}
	if err := cmdlog.Run(cmd, func() error { return f(args) }); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func printHelp() {
	theme.PrintBanner(os.Stdout)
	fmt.Println("Usage: ateveryone <command> [options]")
	fmt.Println("Commands:")
	fmt.Println("  init           Create a config file at ./ateveryone.yaml")
	fmt.Println("  users          List participants eligible for analysis")
	fmt.Println("  activity       Show one participant's messages per day")
	fmt.Println("  analyze        Profile every participant (or one) and store the results")
	fmt.Println("  show           Print a stored profile")
	fmt.Println("  project        Recompute 3-D coordinates for every stored profile")
	fmt.Println("  wrapped        Generate recap commentary for a stored profile")
	fmt.Println("  serve-metrics  Expose Prometheus metrics")
}

// loadConfig reads path, falling back to defaults when the default path
// does not exist.
func loadConfig(path string) (config.Config, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, os.ErrNotExist) && path == defaultConfigPath {
		cfg = config.Default()
		cfg.ResolveEnv()
		err = nil
	}
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func openStore(cfg config.Config) (*sqlitevec.DB, error) {
	db, err := sqlitevec.Open(cfg.Storage.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", cfg.Storage.DBPath, err)
	}
	return db, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func cmdInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	path := fs.String("path", defaultConfigPath, "path to write config")
	_ = fs.Parse(args)
	if err := config.Save(*path, config.Default()); err != nil {
		return err
	}
	abs, _ := filepath.Abs(*path)
	theme.PrintBanner(os.Stdout)
	fmt.Println("Config written to:", abs)
	return nil
}

func cmdUsers(args []string) error {
	fs := flag.NewFlagSet("users", flag.ExitOnError)
	in := fs.String("in", "", "transcript JSON path")
	cfgPath := fs.String("config", defaultConfigPath, "config path")
	minMsgs := fs.Int("min", 0, "minimum non-empty messages (default from config)")
	_ = fs.Parse(args)
	if *in == "" {
		return errors.New("users: -in is required")
	}
	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	if *minMsgs <= 0 {
		*minMsgs = cfg.Analysis.MinMessages
	}
	msgs, err := transcript.DecodeFile(*in)
	if err != nil {
		return err
	}
	names := transcript.QualifyingUsernames(msgs, *minMsgs)
	renderUsers(os.Stdout, msgs, names)
	return nil
}

func cmdActivity(args []string) error {
	fs := flag.NewFlagSet("activity", flag.ExitOnError)
	in := fs.String("in", "", "transcript JSON path")
	user := fs.String("user", "", "participant")
	_ = fs.Parse(args)
	if *in == "" || *user == "" {
		return errors.New("activity: -in and -user are required")
	}
	msgs, err := transcript.DecodeFile(*in)
	if err != nil {
		return err
	}
	own := transcript.ForUser(msgs, *user)
	if len(own) == 0 {
		return fmt.Errorf("%w: %s", pipeline.ErrNoMessages, *user)
	}
	renderActivity(os.Stdout, analytics.DailyActivity(own))
	return nil
}

func cmdAnalyze(args []string) error {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	in := fs.String("in", "", "transcript JSON path")
	cfgPath := fs.String("config", defaultConfigPath, "config path")
	user := fs.String("user", "", "analyze a single participant")
	out := fs.String("out", "", "write JSON here instead of stdout")
	noStore := fs.Bool("no-store", false, "do not persist profiles")
	_ = fs.Parse(args)
	if *in == "" {
		return errors.New("analyze: -in is required")
	}
	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	metrics.StartServer(cfg.Metrics.Addr)
	ctx, cancel := signalContext()
	defer cancel()

	msgs, err := transcript.DecodeFile(*in)
	if err != nil {
		return err
	}
	runner, err := newRunner(cfg)
	if err != nil {
		return err
	}

	var result any
	var batch pipeline.Batch
	if *user != "" {
		started := time.Now().UTC()
		p, err := runner.AnalyzeUser(ctx, msgs, *user)
		if err != nil {
			return err
		}
		batch = pipeline.Batch{RunID: uuid.NewString(), StartedAt: started, FinishedAt: time.Now().UTC(), Profiles: []model.Profile{p}}
		result = p
	} else {
		batch, err = runner.Run(ctx, msgs)
		if err != nil {
			return err
		}
		result = batch
	}

	if !*noStore {
		db, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := pipeline.Persist(ctx, db, batch); err != nil {
			return err
		}
	}
	return writeJSON(*out, result)
}

func newRunner(cfg config.Config) (*pipeline.Runner, error) {
	e, err := embed.New(cfg.Embedding)
	if err != nil {
		return nil, err
	}
	var lb topic.Labeler
	if strings.EqualFold(cfg.LLM.Provider, "openai") {
		c, err := llm.New(cfg.LLM)
		if err != nil {
			return nil, err
		}
		lb = llm.NewLabeler(c)
	}
	return pipeline.NewRunner(cfg.Analysis, e, sentiment.NewVader(), lb), nil
}

func writeJSON(path string, v any) error {
	var w io.Writer = os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func cmdShow(args []string) error {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	cfgPath := fs.String("config", defaultConfigPath, "config path")
	user := fs.String("user", "", "participant to show")
	asJSON := fs.Bool("json", false, "print the stored record as JSON")
	_ = fs.Parse(args)
	if *user == "" {
		return errors.New("show: -user is required")
	}
	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	rec, err := db.GetProfile(context.Background(), *user)
	if err != nil {
		return err
	}
	if *asJSON {
		return writeJSON("", rec)
	}
	renderProfile(os.Stdout, rec)
	return nil
}

func cmdProject(args []string) error {
	fs := flag.NewFlagSet("project", flag.ExitOnError)
	cfgPath := fs.String("config", defaultConfigPath, "config path")
	_ = fs.Parse(args)
	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	ctx := context.Background()
	if _, err := pipeline.Reproject(ctx, db); err != nil {
		return err
	}
	recs, err := db.ListProfiles(ctx)
	if err != nil {
		return err
	}
	if err := writeLatestRun(ctx, os.Stdout, db); err != nil {
		return err
	}
	renderProjection(os.Stdout, recs)
	return nil
}

func cmdWrapped(args []string) error {
	fs := flag.NewFlagSet("wrapped", flag.ExitOnError)
	cfgPath := fs.String("config", defaultConfigPath, "config path")
	user := fs.String("user", "", "participant to recap")
	_ = fs.Parse(args)
	if *user == "" {
		return errors.New("wrapped: -user is required")
	}
	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	if !strings.EqualFold(cfg.LLM.Provider, "openai") {
		return errors.New("wrapped: requires llm.provider openai")
	}
	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	ctx, cancel := signalContext()
	defer cancel()
	rec, err := db.GetProfile(ctx, *user)
	if err != nil {
		return err
	}
	c, err := llm.New(cfg.LLM)
	if err != nil {
		return err
	}
	comments, err := llm.NewCommentator(c).Wrapped(ctx, rec.Profile)
	if err != nil {
		return err
	}
	theme.PrintBanner(os.Stdout)
	for _, cm := range comments {
		fmt.Printf("%s\n  %s\n\n", cm.Metric, cm.Text)
	}
	return nil
}

func cmdServeMetrics(args []string) error {
	fs := flag.NewFlagSet("serve-metrics", flag.ExitOnError)
	addr := fs.String("addr", "", "listen address (default METRICS_ADDR or :9090)")
	_ = fs.Parse(args)
	if *addr == "" {
		*addr = os.Getenv("METRICS_ADDR")
	}
	if *addr == "" {
		*addr = ":9090"
	}
	metrics.StartServer(*addr)
	fmt.Println("Serving metrics on", *addr)
	ctx, cancel := signalContext()
	defer cancel()
	<-ctx.Done()
	return nil
}
