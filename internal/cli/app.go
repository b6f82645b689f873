package cli

import (
	"context"
	"fmt"

	"github.com/soyeahso/agentconsole/internal/agents"
	"github.com/soyeahso/agentconsole/internal/creator"
	"github.com/soyeahso/agentconsole/internal/domain"
	"github.com/soyeahso/agentconsole/internal/gateway"
	"github.com/soyeahso/agentconsole/internal/hooks"
	"github.com/soyeahso/agentconsole/internal/session"
	"github.com/soyeahso/agentconsole/internal/store"
	"github.com/soyeahso/agentconsole/internal/tour"
)

// app wires the console's services for one process.
type app struct {
	api         gateway.API
	db          *store.DB
	prefs       *store.Preferences
	transcripts *store.Transcripts
	events      *hooks.Manager
	tour        *tour.Coordinator
	agents      *agents.Service
	dialog      *creator.Dialog
}

func newSession() *session.Provider {
	return session.NewProvider(paths.Session, cfg.Auth, log)
}

func openStore() (*store.DB, error) {
	if err := paths.EnsureDirs(); err != nil {
		return nil, err
	}
	dbPath := paths.Database
	if cfg.Store.Path != "" {
		dbPath = cfg.Store.Path
	}
	return store.Open(dbPath, log)
}

// newApp opens the local store and talks to the configured gateway.
func newApp() (*app, error) {
	db, err := openStore()
	if err != nil {
		return nil, fmt.Errorf("opening local store: %w", err)
	}
	return buildApp(gateway.NewClient(cfg.Gateway, newSession(), log), db), nil
}

func buildApp(api gateway.API, db *store.DB) *app {
	a := &app{
		api:         api,
		db:          db,
		prefs:       store.NewPreferences(db),
		transcripts: store.NewTranscripts(db),
		events:      hooks.NewManager(log),
	}
	for _, ev := range hooks.AllEvents {
		a.events.On(ev, "debug-log", func(_ context.Context, p hooks.Payload) error {
			log.Debug().Str("event", p.Event).Interface("data", p.Data).Msg("event")
			return nil
		})
	}
	a.tour = tour.New(a.prefs, a.events, log)
	a.agents = agents.NewService(a.api, log,
		agents.WithTranscripts(a.transcripts),
		agents.WithTour(a.tour),
		agents.WithEvents(asyncEvents{a.events}),
	)
	a.dialog = creator.New(a.api, a.tour, asyncEvents{a.events}, creator.OptionsFromConfig(cfg.Creation), log)
	a.dialog.OnCreated(func(ctx context.Context, _ domain.Agent) {
		if _, err := a.agents.Refresh(ctx); err != nil {
			log.Warn().Err(err).Msg("refreshing agent list after create")
		}
	})
	return a
}

// asyncEvents delivers agent and chat events through EmitAsync; app.Close
// waits for them. Tour events stay synchronous.
type asyncEvents struct{ m *hooks.Manager }

func (e asyncEvents) Emit(ctx context.Context, event string, data map[string]any) {
	e.m.EmitAsync(ctx, event, data)
}

func (a *app) Close() {
	a.events.Wait()
	if err := a.db.Close(); err != nil {
		log.Warn().Err(err).Msg("closing local store")
	}
}
