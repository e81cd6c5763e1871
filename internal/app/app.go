package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ccastromar/aos-research-team/internal/config"
	"github.com/ccastromar/aos-research-team/internal/guard"
	"github.com/ccastromar/aos-research-team/internal/logx"
	"github.com/ccastromar/aos-research-team/internal/runtime"
	"github.com/ccastromar/aos-research-team/internal/team"
	"github.com/ccastromar/aos-research-team/internal/tools"
	"github.com/ccastromar/aos-research-team/internal/ui"
)

const version = "0.3.0"

type App struct {
	env  *config.EnvVars
	cfg  *config.Config
	team *team.Team
	ui   *ui.UI
	rt   *runtime.Runtime
	http *HTTPServer
}

// Options tweak construction, mostly for tests.
type Options struct {
	// ConfigDir overrides env.ConfigDir.
	ConfigDir string
	// SkipToolDiscovery leaves the tool catalog empty.
	SkipToolDiscovery bool
	TeamOptions       []team.Option
}

func New(env *config.EnvVars) (*App, error) {
	return NewWithOptions(env, Options{})
}

// NewWithOptions loads and validates the definitions, discovers tools,
// resolves the team and wires the HTTP server. Any setup error is returned
// before a single request is served.
func NewWithOptions(env *config.EnvVars, opts Options) (*App, error) {
	dir := env.ConfigDir
	if opts.ConfigDir != "" {
		dir = opts.ConfigDir
	}
	cfg, err := config.LoadFromDir(dir)
	if err != nil {
		return nil, err
	}
	if err := guard.ValidateTeam(cfg); err != nil {
		return nil, err
	}

	teamOpts := append([]team.Option(nil), opts.TeamOptions...)
	if !opts.SkipToolDiscovery {
		teamOpts = append(teamOpts, team.WithCatalog(DiscoverTools(context.Background(), cfg, env.ToolsTimeout)))
	}
	tm, err := team.New(cfg, env, teamOpts...)
	if err != nil {
		return nil, err
	}

	u, err := ui.New(ui.NewRunStore(env.UIMaxRuns), tm, env.DefaultTopic)
	if err != nil {
		return nil, err
	}

	rt := runtime.New(true, tm)
	api := NewAPI(u, tm, env.APIKey)

	return &App{
		env:  env,
		cfg:  cfg,
		team: tm,
		ui:   u,
		rt:   rt,
		http: NewHTTPServer(":"+env.Port, NewRouter(api, u, rt)),
	}, nil
}

// DiscoverTools lists the tools of every declared source, in declaration order.
func DiscoverTools(ctx context.Context, cfg *config.Config, timeout time.Duration) tools.Catalog {
	sources := make([]config.ToolSource, 0, len(cfg.ToolOrder))
	for _, name := range cfg.ToolOrder {
		src := cfg.Tools[name]
		if src.Name == "" {
			src.Name = name
		}
		sources = append(sources, src)
	}
	return tools.Discover(ctx, sources, timeout)
}

// Handler is the full HTTP surface, for embedding and end-to-end tests.
func (a *App) Handler() http.Handler { return a.http.srv.Handler }

// Team exposes the resolved team, used by the CLI for one-off runs.
func (a *App) Team() *team.Team { return a.team }

func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.http.Start(gctx)
	})

	logx.Info("App", "research team v%s started (%d stages)", version, len(a.team.Members()))
	if err := g.Wait(); err != nil {
		return fmt.Errorf("app stopped: %w", err)
	}
	return nil
}
