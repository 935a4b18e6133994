package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jrsteele09/go-user-admin/auth"
	"github.com/jrsteele09/go-user-admin/console"
	"github.com/jrsteele09/go-user-admin/internal/errors"
	"github.com/jrsteele09/go-user-admin/users"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

// LoginCommand returns the login command.
func LoginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Log in and store the session",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "email",
				Aliases:  []string{"e"},
				Usage:    "Account email",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "password",
				Aliases:  []string{"p"},
				Usage:    "Account password",
				EnvVars:  []string{"USERADMIN_PASSWORD"},
				Required: true,
			},
		},
		Action: login,
	}
}

func login(c *cli.Context) error {
	env, err := environment(c)
	if err != nil {
		return err
	}

	user, err := env.Session.Login(c.Context, users.Credentials{
		Email:    c.String("email"),
		Password: c.String("password"),
	})
	if err != nil {
		return errors.New(console.Message(err, "Login failed"))
	}

	fmt.Fprintf(c.App.Writer, "Logged in as %s <%s> (%s)\n", user.Name, user.Email, user.Role)
	return nil
}

// LogoutCommand returns the logout command.
func LogoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "Forget the stored session",
		Action: func(c *cli.Context) error {
			env, err := environment(c)
			if err != nil {
				return err
			}
			if err := env.Session.Logout(c.Context); err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, "Logged out")
			return nil
		},
	}
}

// WhoAmICommand returns the whoami command.
func WhoAmICommand() *cli.Command {
	return &cli.Command{
		Name:  "whoami",
		Usage: "Show the logged in user",
		Action: func(c *cli.Context) error {
			env, err := environment(c)
			if err != nil {
				return err
			}

			snap := env.Session.Snapshot()
			if !snap.Authenticated() {
				fmt.Fprintln(c.App.Writer, "Not logged in")
				return nil
			}
			if c.String("output") == "json" {
				return printJSON(c.App.Writer, snap.User)
			}
			printUser(c.App.Writer, *snap.User)
			fmt.Fprintf(c.App.Writer, "Session expires\t%s\n", time.Unix(snap.ExpiresAt, 0).Format(time.RFC1123))
			return nil
		},
	}
}

// WatchCommand returns the watch command.
func WatchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Keep the session open and report changes until it ends",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "Serve prometheus metrics on this address, e.g. :9090",
			},
			&cli.DurationFlag{
				Name:  "poll",
				Usage: "Also list users at this interval so the server can reject the token",
			},
		},
		Action: watch,
	}
}

func watch(c *cli.Context) error {
	env, err := environment(c)
	if err != nil {
		return err
	}
	displayAppname(c, env.Config.GetAppName())

	ended := make(chan auth.Change, 1)
	unsubscribe := env.Session.Subscribe(func(change auth.Change) {
		fmt.Fprintf(c.App.Writer, "%s  %s -> %s (%s)\n",
			time.Now().Format(time.Kitchen), change.From, change.To, change.Reason)
		if change.LoginRequired() {
			select {
			case ended <- change:
			default:
			}
		}
	})
	defer unsubscribe()

	snap := env.Session.Snapshot()
	if !snap.Authenticated() {
		return errors.New("not logged in, run useradmin login first")
	}
	fmt.Fprintf(c.App.Writer, "Watching session of %s, expires %s\n",
		snap.User.Email, time.Unix(snap.ExpiresAt, 0).Format(time.RFC1123))

	if addr := c.String("metrics-addr"); addr != "" {
		server := &http.Server{
			Addr:    addr,
			Handler: promhttp.HandlerFor(env.Registry, promhttp.HandlerOpts{}),
		}
		go listenAndServe(server)
		defer shutdown(server)
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if poll := c.Duration("poll"); poll > 0 {
		polled := make(chan struct{})
		go func() {
			defer close(polled)
			pollUsers(ctx, env, poll)
		}()
		defer func() {
			stop()
			<-polled
		}()
	}

	select {
	case change := <-ended:
		if change.Message != "" {
			return errors.New(change.Message)
		}
		return nil
	case <-ctx.Done():
		fmt.Fprintln(c.App.Writer, "Stopped watching, session kept")
		return nil
	}
}

func pollUsers(ctx context.Context, env *Env, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := env.Client.ListUsers(ctx, users.ListFilter{}); err != nil {
				log.Warn().Err(err).Msg("poll users")
			}
		}
	}
}

func listenAndServe(server *http.Server) {
	log.Info().Str("addr", server.Addr).Msg("serving metrics")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Err(err).Msg("metrics server.ListenAndServe")
	}
}

func shutdown(server *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Err(err).Msg("metrics server.Shutdown")
	}
}
