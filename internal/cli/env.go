package cli

import (
	"context"
	"path/filepath"

	"github.com/jrsteele09/go-user-admin/auth"
	"github.com/jrsteele09/go-user-admin/console"
	"github.com/jrsteele09/go-user-admin/gateway"
	"github.com/jrsteele09/go-user-admin/internal/config"
	"github.com/jrsteele09/go-user-admin/internal/errors"
	"github.com/jrsteele09/go-user-admin/sessions/badgerrepo"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

// Env is everything a command needs, wired once per process.
type Env struct {
	Config   config.Config
	Client   *gateway.Client
	Session  *auth.SessionController
	Console  *console.Console
	Registry *prometheus.Registry

	repo *badgerrepo.BadgerSessionRepo
}

// Open wires the session repo, gateway and controller, then restores the stored session.
func Open(ctx context.Context, cfg config.Config) (*Env, error) {
	repo, err := badgerrepo.Open(filepath.Join(cfg.GetDataFolder(), "session"))
	if err != nil {
		return nil, errors.Wrapf(err, "[cli.Open] open session store")
	}

	env := &Env{Config: cfg, Registry: prometheus.NewRegistry(), repo: repo}
	if err := env.wire(ctx); err != nil {
		_ = repo.Close()
		return nil, err
	}
	return env, nil
}

func (e *Env) wire(ctx context.Context) error {
	client, err := gateway.New(e.Config.GetBaseURL(),
		gateway.WithTimeout(e.Config.GetRequestTimeout()),
		gateway.WithMetrics(e.Registry),
	)
	if err != nil {
		return err
	}

	ctrl, err := auth.NewSessionController(e.repo, client,
		auth.WithSkew(e.Config.GetExpirySkew()),
		auth.WithCheckInterval(e.Config.GetCheckInterval()),
	)
	if err != nil {
		return err
	}
	client.SetAuthenticator(ctrl)

	con, err := console.New(client)
	if err != nil {
		return err
	}

	if err := ctrl.Restore(ctx); err != nil {
		return errors.Wrapf(err, "[cli.Open] restore session")
	}

	e.Client, e.Session, e.Console = client, ctrl, con
	return nil
}

// Close stops the session timer and closes the store. The session itself is kept.
func (e *Env) Close() error {
	if e.Session != nil {
		_ = e.Session.Close()
	}
	if err := e.repo.Close(); err != nil {
		log.Err(err).Msg("[Env.Close] close session store")
		return err
	}
	return nil
}
