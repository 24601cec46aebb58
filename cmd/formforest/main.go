// Package main provides the formforest command. It replays scenario files
// against a form forest, or snapshots a live page with a headless browser,
// and prints the resulting browser forms.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/entrhq/formforest/pkg/autofill/form"
	"github.com/entrhq/formforest/pkg/autofill/formforest"
	"github.com/entrhq/formforest/pkg/browser"
	"github.com/entrhq/formforest/pkg/config"
	"github.com/entrhq/formforest/pkg/logging"
	"github.com/entrhq/formforest/pkg/scenario"
	"github.com/entrhq/formforest/pkg/types"
)

const version = "0.1.0"

const liveSession = "formforest"

// CLIConfig holds command-line configuration
type CLIConfig struct {
	Scenario    string
	URL         string
	ConfigFile  string
	Headless    bool
	Dump        bool
	InitConfig  bool
	ShowVersion bool
}

func main() {
	cli := parseFlags()

	if cli.ShowVersion {
		fmt.Printf("formforest v%s\n", version)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")
		cancel()
	}()

	if err := run(ctx, cli); err != nil {
		cancel()
		log.Printf("formforest: %v", err)
		os.Exit(1)
	}
	cancel()
}

func parseFlags() *CLIConfig {
	cli := &CLIConfig{}

	flag.StringVar(&cli.Scenario, "scenario", "", "Scenario file (YAML) to replay")
	flag.StringVar(&cli.URL, "url", "", "URL of a live page to snapshot")
	flag.StringVar(&cli.ConfigFile, "config", "", "Path to configuration file (default ~/.formforest/config.yaml)")
	flag.BoolVar(&cli.Headless, "headless", true, "Run the browser without a window")
	flag.BoolVar(&cli.Dump, "dump", false, "Print the forest's internal structure")
	flag.BoolVar(&cli.InitConfig, "init-config", false, "Write the default configuration file and exit")
	flag.BoolVar(&cli.ShowVersion, "version", false, "Show version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "formforest - frame-transcending form inspector\n\n")
		fmt.Fprintf(os.Stderr, "Usage: formforest [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  formforest -scenario pkg/scenario/testdata/checkout.yaml\n")
		fmt.Fprintf(os.Stderr, "  formforest -url https://shop.example/checkout -headless=false\n")
	}

	flag.Parse()
	return cli
}

func run(ctx context.Context, cli *CLIConfig) error {
	if cli.InitConfig {
		return initConfig(cli.ConfigFile)
	}
	if (cli.Scenario == "") == (cli.URL == "") {
		flag.Usage()
		return fmt.Errorf("exactly one of -scenario and -url is required")
	}

	cfg, err := config.Load(cli.ConfigFile)
	if err != nil {
		return err
	}

	var logger *logging.Logger
	if cfg.Debug() {
		logger = logging.NewWriterLogger("formforest", os.Stderr, logging.LevelDebug)
	} else {
		logging.SetDefaultLevel(logging.LevelForVerbosity(cfg.Logging.Verbosity))
		if logger, err = logging.NewLogger("formforest"); err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
	}
	defer logger.Close()

	ff := newForest(cfg, logger)

	if cli.Scenario != "" {
		err = runScenario(ctx, cli, cfg, ff, logger)
	} else {
		err = runLive(ctx, cli, cfg, ff, logger)
	}
	if err != nil {
		return err
	}

	if cli.Dump {
		fmt.Println(sectionStyle.Render("Forest"))
		fmt.Print(mutedStyle.Render(ff.String()))
		fmt.Println()
	}
	return nil
}

func newForest(cfg *config.Config, logger *logging.Logger) *formforest.FormForest {
	opts := []formforest.Option{
		formforest.WithLogger(logger),
		formforest.WithMaxTreeDepth(cfg.Autofill.MaxTreeDepth),
		formforest.WithEventSink(func(e *types.ForestEvent) {
			logger.Debugf("event %s frame=%s form=%s", e.Type, e.Frame.Short(), e.Form)
		}),
	}
	if len(cfg.Autofill.SensitiveFieldTypes) > 0 {
		opts = append(opts, formforest.WithSensitiveFieldTypes(cfg.Autofill.SensitiveFieldTypes...))
	}
	return formforest.New(opts...)
}

func runScenario(ctx context.Context, cli *CLIConfig, cfg *config.Config, ff *formforest.FormForest, logger *logging.Logger) error {
	s, err := scenario.Load(cli.Scenario)
	if err != nil {
		return err
	}
	classifier, err := cfg.Classifier()
	if err != nil {
		return fmt.Errorf("invalid classifier rules: %w", err)
	}

	runner, err := scenario.NewRunner(s, ff, scenario.RunOptions{
		Classifier:      classifier,
		TrustAllOrigins: cfg.Autofill.TrustAllOrigins,
		Logger:          logger,
	})
	if err != nil {
		return err
	}

	title := s.Name
	if title == "" {
		title = cli.Scenario
	}
	fmt.Println(titleStyle.Render(title))

	results, err := runner.Run(ctx)
	fmt.Print(renderSteps(results, runner.Tree()))
	if err != nil {
		fmt.Println(renderError(err))
		return fmt.Errorf("scenario %s failed", cli.Scenario)
	}
	fmt.Println(okStyle.Render(fmt.Sprintf("%d step(s) passed", len(results))))
	return nil
}

func runLive(ctx context.Context, cli *CLIConfig, cfg *config.Config, ff *formforest.FormForest, logger *logging.Logger) error {
	manager := browser.NewSessionManager()
	defer func() {
		if err := manager.Shutdown(); err != nil {
			logger.Warnf("browser shutdown: %v", err)
		}
	}()

	if err := manager.Initialize(); err != nil {
		return err
	}
	session, err := manager.StartSession(liveSession, browser.SessionOptions{
		Headless: cli.Headless && cfg.Browser.Headless,
		Viewport: &browser.Viewport{Width: cfg.Browser.Viewport.Width, Height: cfg.Browser.Viewport.Height},
		Timeout:  float64(cfg.Browser.Timeout / time.Millisecond),
	})
	if err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := session.Navigate(cli.URL, browser.NavigateOptions{WaitUntil: "load"}); err != nil {
		return err
	}

	snap, err := session.Snapshot(logger)
	if err != nil {
		return err
	}
	if err := manager.CloseSession(liveSession); err != nil {
		logger.Warnf("close session: %v", err)
	}
	snap.Apply(ff)
	logger.Infof("snapshot of %s: %d frame(s)", session.CurrentURL, len(snap.Frames))

	fmt.Println(titleStyle.Render(session.CurrentURL))
	fmt.Print(renderForest(ff, snap.Tree))
	return nil
}

// rootForms returns one renderer form per browser form of ff.
func rootForms(ff *formforest.FormForest) []form.FormData {
	var roots []form.FormData
	for _, frame := range ff.Frames() {
		for _, f := range frame.Forms {
			if root, ok := ff.Root(f.GlobalID()); ok && root == f.GlobalID() {
				roots = append(roots, f.FormData)
			}
		}
	}
	return roots
}

func initConfig(path string) error {
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			return err
		}
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	if err := config.DefaultConfig().Save(path); err != nil {
		return err
	}
	fmt.Println(okStyle.Render("wrote " + path))
	return nil
}
