package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/brianberg/taigasync/internal/config"
	"github.com/brianberg/taigasync/internal/domain/project"
	"github.com/brianberg/taigasync/internal/domain/timeline"
	"github.com/brianberg/taigasync/internal/fetch"
	"github.com/brianberg/taigasync/internal/repository"
	"github.com/brianberg/taigasync/internal/session"
	"github.com/brianberg/taigasync/internal/sqlite"
	"github.com/brianberg/taigasync/internal/taiga"
)

var errNotSignedIn = errors.New("not signed in; run `taigasync login <username> <password>` first")

type app struct {
	logger    *slog.Logger
	sessions  *session.Store
	client    *taiga.Client
	projects  *project.Service
	timelines *timeline.Service
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := ensureDBDir(cfg.DB.Path); err != nil {
		logger.Error("failed to prepare database path", "error", err)
		os.Exit(1)
	}

	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(logger); err != nil {
		logger.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}

	sessions, err := session.NewStore(ctx, sqlite.NewPreferenceRepository(db), logger)
	if err != nil {
		logger.Error("failed to load session", "error", err)
		os.Exit(1)
	}

	client := taiga.NewClient(cfg.API.BaseURL, sessions, logger)

	a := &app{
		logger:    logger,
		sessions:  sessions,
		client:    client,
		projects:  project.NewService(client, sqlite.NewProjectRepository(db), logger),
		timelines: timeline.NewService(client, sqlite.NewTimelineRepository(db), logger),
	}

	if cfg.Metrics.Addr != "" {
		go serveMetrics(logger, cfg.Metrics.Addr)
	}

	if err := a.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		logger.Error("command failed", "command", os.Args[1], "error", err)
		os.Exit(1)
	}
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "login":
		return a.runLogin(ctx, args)
	case "logout":
		return a.sessions.SignOut(ctx)
	case "projects":
		return a.runProjects(ctx, args)
	case "project":
		return a.runProject(ctx, args)
	case "search":
		return a.runSearch(ctx, args)
	case "timeline":
		return a.runTimeline(ctx, args)
	case "sync":
		return a.runSync(ctx)
	default:
		usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func (a *app) runLogin(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: taigasync login <username> <password>")
	}

	user, err := a.client.SignIn(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	if err := a.sessions.SignIn(ctx, user); err != nil {
		return err
	}

	fmt.Printf("Signed in as %s (#%d)\n", user.DisplayName, user.ID)
	return nil
}

func (a *app) runProjects(ctx context.Context, args []string) error {
	opts := repository.ListProjectsOptions{
		OrderBy:   repository.OrderProjectsByName,
		Ascending: true,
	}

	var projects []project.Project
	var err error
	if hasFlag(args, "-cached") {
		projects, err = a.projects.List(ctx, opts)
	} else {
		user, ok := a.sessions.Current()
		if !ok {
			return errNotSignedIn
		}
		projects, err = a.projects.Sync(ctx, user.ID)
	}
	if err != nil {
		return err
	}

	for _, p := range projects {
		printProject(&p)
	}
	return nil
}

func (a *app) runProject(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: taigasync project <id|name>")
	}

	var proj *project.Project
	var err error
	if id, convErr := strconv.Atoi(args[0]); convErr == nil {
		proj, err = a.projects.SyncProject(ctx, id)
	} else {
		proj, err = a.projects.GetByName(ctx, args[0])
	}
	if err != nil {
		return err
	}

	printProject(proj)
	if proj.Description != "" {
		fmt.Printf("    %s\n", proj.Description)
	}
	return nil
}

func (a *app) runSearch(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: taigasync search <name>")
	}

	projects, err := a.projects.Search(ctx, args[0])
	if err != nil {
		return err
	}
	for _, p := range projects {
		printProject(&p)
	}
	return nil
}

func (a *app) runTimeline(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: taigasync timeline <projectID> [-cached]")
	}

	projectID, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid project ID %q", args[0])
	}

	var entries []timeline.Entry
	if hasFlag(args[1:], "-cached") {
		entries, err = a.timelines.Recent(ctx, projectID, 0)
	} else {
		entries, err = a.timelines.Sync(ctx, projectID)
	}
	if err != nil {
		return err
	}

	for i := range entries {
		fmt.Printf("%s  %s by %s\n",
			entries[i].CreatedAt.Format("2006-01-02"),
			entries[i].Description(),
			entries[i].Actor.Name)
	}
	return nil
}

// runSync refreshes the project list, then every project's timeline
// concurrently through the dispatcher.
func (a *app) runSync(ctx context.Context) error {
	user, ok := a.sessions.Current()
	if !ok {
		return errNotSignedIn
	}

	projects, err := a.projects.Sync(ctx, user.ID)
	if err != nil {
		return err
	}
	fmt.Printf("Synced %d projects\n", len(projects))

	dispatcher := fetch.NewDispatcher(a.logger)
	defer dispatcher.CancelAll()

	results := make([]<-chan fetch.Result[[]timeline.Entry], len(projects))
	for i := range projects {
		projectID := projects[i].ID
		_, results[i] = fetch.Go(dispatcher, ctx, func(ctx context.Context) ([]timeline.Entry, error) {
			return a.timelines.Sync(ctx, projectID)
		})
	}

	for i := range projects {
		res := <-results[i]
		if res.Err != nil {
			a.logger.Warn("timeline sync failed", "project_id", projects[i].ID, "error", res.Err)
			continue
		}
		fmt.Printf("Synced %d timeline entries for %s\n", len(res.Value), projects[i].Name)
	}
	return nil
}

func printProject(p *project.Project) {
	visibility := "public"
	if p.IsPrivate {
		visibility = "private"
	}
	fmt.Printf("%6d  %-40s  %s\n", p.ID, p.Name, visibility)
}

func hasFlag(args []string, flag string) bool {
	for _, arg := range args {
		if arg == flag {
			return true
		}
	}
	return false
}

func serveMetrics(logger *slog.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	logger.Info("serving metrics", "addr", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("metrics server error", "error", err)
	}
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: taigasync <command> [args]

Commands:
  login <username> <password>   Sign in and persist the session
  logout                        Clear the persisted session
  projects [-cached]            List projects (remote sync, or cache only)
  project <id|name>             Show one project
  search <name>                 Search cached projects by name
  timeline <projectID> [-cached]  Show a project's timeline
  sync                          Refresh all projects and their timelines`)
}
