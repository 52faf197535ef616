package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"imgexport/internal/adapter/repo"
	"imgexport/internal/app"
	"imgexport/internal/domain"
	"imgexport/internal/entitlement"
	"imgexport/internal/export"
	"imgexport/internal/infra"
	"imgexport/internal/sink"
	"imgexport/internal/storage"
)

const usage = `usage: exporter [flags] <command> <url>...

commands:
  download <url>          save one processed JPEG
  download-all <url>...   save every image into one zip
  copy <url>              place a PNG on the system clipboard

flags:
`

// fixedPlan stands in for the profile store when -plan is given.
type fixedPlan domain.UserPlan

func (p fixedPlan) LoadProfile(_ context.Context, userID string) (domain.Profile, error) {
	return domain.Profile{UserID: userID, Tier: domain.UserPlan(p)}, nil
}

func main() {
	var (
		userFlag  string
		planFlag  string
		outFlag   string
		baseFlag  string
		indexFlag int
	)
	flag.StringVar(&userFlag, "user", "", "user ID; empty exports as an anonymous visitor")
	flag.StringVar(&planFlag, "plan", "", "membership plan to assume for -user (free, pro, ultra); default looks it up in DATABASE_URL")
	flag.StringVar(&outFlag, "out", "", "output directory (default EXPORT_DIR)")
	flag.StringVar(&baseFlag, "base", "", "base file name (default EXPORT_BASE_NAME)")
	flag.IntVar(&indexFlag, "index", -1, "gallery position for download; adds a -N suffix")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	args := flag.Args()
	if len(args) < 2 {
		flag.Usage()
		os.Exit(2)
	}
	cmd, urls := args[0], args[1:]
	if cmd != "download-all" && len(urls) != 1 {
		exitWithError(fmt.Errorf("%s takes exactly one url", cmd))
	}
	if err := checkIdentity(userFlag, planFlag); err != nil {
		exitWithError(err)
	}

	_ = godotenv.Load()
	cfg, err := infra.LoadConfig()
	if err != nil {
		exitWithError(err)
	}
	logger := infra.NewLoggerTo(os.Stderr, cfg.AppEnv).With().Str("cmd", "exporter").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	profiles, closeDB, err := profileLoader(ctx, cfg, planFlag, logger)
	if err != nil {
		exitWithError(err)
	}
	defer closeDB()

	pipeline, err := app.Build(ctx, cfg, logger, app.Extras{
		Profiles: profiles,
		Notifier: export.LogNotifier{Logger: logger},
	})
	if err != nil {
		exitWithError(err)
	}

	outDir := outFlag
	if outDir == "" {
		outDir = cfg.ExportDir
	}
	out, err := storage.NewFileStore(outDir)
	if err != nil {
		exitWithError(err)
	}
	saver := sink.NewDirSaver(out, pipeline.Sources)
	session := domain.Session{UserID: strings.TrimSpace(userFlag)}

	var index *int
	if indexFlag >= 0 {
		index = &indexFlag
	}

	var rep export.Report
	switch cmd {
	case "download":
		rep = pipeline.Exporter.DownloadOne(ctx, export.SingleRequest{Session: session, URL: urls[0], Index: index, BaseName: baseFlag}, saver)
	case "download-all":
		rep = pipeline.Exporter.DownloadAll(ctx, export.BatchRequest{Session: session, URLs: urls, BaseName: baseFlag}, saver)
	case "copy":
		rep = pipeline.Exporter.CopyOne(ctx, export.SingleRequest{Session: session, URL: urls[0]}, sink.NewSystemClipboard())
	default:
		flag.Usage()
		os.Exit(2)
	}

	for _, p := range saver.Paths() {
		fmt.Println(p)
	}
	if !rep.Succeeded() {
		exitWithError(errors.New(rep.Message))
	}
}

// checkIdentity rejects -plan for anonymous exports, which always resolve to
// the free tier.
func checkIdentity(user, plan string) error {
	if strings.TrimSpace(plan) != "" && strings.TrimSpace(user) == "" {
		return errors.New("-plan requires -user")
	}
	return nil
}

func profileLoader(ctx context.Context, cfg *infra.Config, plan string, logger infra.Logger) (entitlement.ProfileLoader, func(), error) {
	noop := func() {}
	if plan != "" {
		p := domain.UserPlan(strings.ToLower(strings.TrimSpace(plan)))
		if !p.Valid() {
			return nil, noop, fmt.Errorf("unsupported plan %q", plan)
		}
		return fixedPlan(p), noop, nil
	}
	if cfg.DatabaseURL == "" {
		return nil, noop, nil
	}
	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		return nil, noop, err
	}
	return repo.NewProfileRepo(infra.NewSQLRunner(pool, logger)), pool.Close, nil
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
