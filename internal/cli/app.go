// Package cli defines the useradmin commands on top of urfave/cli/v2.
package cli

import (
	"fmt"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-user-admin/internal/config"
	"github.com/jrsteele09/go-user-admin/internal/logging"
	"github.com/urfave/cli/v2"
)

// Build information, set via ldflags.
var (
	Version = "dev"
	Commit  = "unknown"
)

const envKey = "env"

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:     "useradmin",
		Usage:    "Manage users of the user admin API",
		Version:  fmt.Sprintf("%s (commit: %s)", Version, Commit),
		Flags:    globalFlags(),
		Metadata: map[string]any{},
		Commands: []*cli.Command{
			LoginCommand(),
			LogoutCommand(),
			WhoAmICommand(),
			WatchCommand(),
			UsersCommand(),
			StatsCommand(),
			MetadataCommand(),
		},
		Action: func(c *cli.Context) error {
			displayAppname(c, "User Admin")
			return cli.ShowAppHelp(c)
		},
		After: func(c *cli.Context) error {
			if env, ok := c.App.Metadata[envKey].(*Env); ok {
				delete(c.App.Metadata, envKey)
				return env.Close()
			}
			return nil
		},
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "YAML configuration file",
			EnvVars: []string{"USERADMIN_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "base-url",
			Aliases: []string{"s"},
			Usage:   "API base URL (overrides api.base_url)",
		},
		&cli.StringFlag{
			Name:  "data-folder",
			Usage: "Where the session is stored (overrides app.data_folder)",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "trace, debug, info, warn or error (overrides log.level)",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json",
			Value:   "table",
		},
	}
}

// overrides turns the flags that were set into a koanf override tree.
func overrides(c *cli.Context) map[string]any {
	out := map[string]any{}
	set := func(section, key, value string) {
		m, ok := out[section].(map[string]any)
		if !ok {
			m = map[string]any{}
			out[section] = m
		}
		m[key] = value
	}
	if c.IsSet("base-url") {
		set("api", "base_url", c.String("base-url"))
	}
	if c.IsSet("data-folder") {
		set("app", "data_folder", c.String("data-folder"))
	}
	if c.IsSet("log-level") {
		set("log", "level", c.String("log-level"))
	}
	return out
}

// environment opens the Env on first use and caches it for the After hook to close.
func environment(c *cli.Context) (*Env, error) {
	if env, ok := c.App.Metadata[envKey].(*Env); ok {
		return env, nil
	}

	cfg, err := config.Load(
		config.WithConfigFile(c.String("config")),
		config.WithOverrides(overrides(c)),
	)
	if err != nil {
		return nil, err
	}
	logging.SetupWriter(c.App.ErrWriter, cfg.GetLogLevel(), cfg.GetLogPretty())

	env, err := Open(c.Context, cfg)
	if err != nil {
		return nil, err
	}
	c.App.Metadata[envKey] = env
	return env, nil
}

func displayAppname(c *cli.Context, appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	fmt.Fprintln(c.App.Writer, myFigure.String())
}
