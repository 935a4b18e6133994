package cli

import (
	"fmt"
	"strings"

	"github.com/jrsteele09/go-user-admin/console"
	"github.com/jrsteele09/go-user-admin/internal/errors"
	"github.com/jrsteele09/go-user-admin/internal/utils"
	"github.com/jrsteele09/go-user-admin/users"
	"github.com/urfave/cli/v2"
)

// UsersCommand returns the users subcommand group.
func UsersCommand() *cli.Command {
	return &cli.Command{
		Name:  "users",
		Usage: "Manage users",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List users with the dashboard totals",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "page", Value: users.DefaultPage, Usage: "Page number"},
					&cli.IntFlag{Name: "limit", Value: users.DefaultLimit, Usage: "Page size"},
					&cli.StringFlag{Name: "role", Usage: "Filter by role"},
					&cli.StringFlag{Name: "department", Usage: "Filter by department"},
					&cli.StringFlag{Name: "search", Aliases: []string{"q"}, Usage: "Search name or email"},
				},
				Action: usersList,
			},
			{
				Name:      "get",
				Usage:     "Show one user",
				ArgsUsage: "USER_ID",
				Action:    usersGet,
			},
			{
				Name:   "create",
				Usage:  "Create a user",
				Flags:  userFlags(),
				Action: usersCreate,
			},
			{
				Name:      "update",
				Usage:     "Update a user, only the given flags change",
				ArgsUsage: "[flags] USER_ID",
				Flags:     userFlags(),
				Action:    usersUpdate,
			},
			{
				Name:      "delete",
				Usage:     "Delete a user",
				ArgsUsage: "USER_ID",
				Action:    usersDelete,
			},
		},
	}
}

// StatsCommand returns the stats command.
func StatsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show user statistics",
		Action: func(c *cli.Context) error {
			env, err := environment(c)
			if err != nil {
				return err
			}
			stats, err := env.Client.Stats(c.Context)
			if err != nil {
				return errors.New(console.Message(err, "Failed to fetch stats"))
			}
			if c.String("output") == "json" {
				return printJSON(c.App.Writer, stats)
			}
			printStats(c.App.Writer, stats)
			return nil
		},
	}
}

// MetadataCommand returns the metadata command.
func MetadataCommand() *cli.Command {
	return &cli.Command{
		Name:  "metadata",
		Usage: "Show the roles and positions the backend accepts",
		Action: func(c *cli.Context) error {
			env, err := environment(c)
			if err != nil {
				return err
			}
			meta, err := env.Console.Metadata(c.Context)
			if err != nil {
				return errors.New(console.Message(err, "Failed to fetch metadata"))
			}
			if c.String("output") == "json" {
				return printJSON(c.App.Writer, meta)
			}
			printMetadata(c.App.Writer, meta)
			return nil
		},
	}
}

func userFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "name", Usage: "Full name"},
		&cli.StringFlag{Name: "email", Usage: "Email address"},
		&cli.StringFlag{Name: "password", Usage: "Password, required on create", EnvVars: []string{"USERADMIN_USER_PASSWORD"}},
		&cli.StringFlag{Name: "role", Usage: "admin, manager, supervisor, user or employee"},
		&cli.IntFlag{Name: "age", Usage: "Age, 18-100"},
		&cli.StringFlag{Name: "position", Usage: "Job position"},
		&cli.StringFlag{Name: "department", Usage: "Department"},
		&cli.StringFlag{Name: "workplace", Usage: "Workplace"},
		&cli.Float64Flag{Name: "salary", Usage: "Salary"},
		&cli.StringFlag{Name: "phone", Usage: "Phone number"},
		&cli.StringFlag{Name: "address", Usage: "Address"},
		&cli.StringFlag{Name: "hire-date", Usage: "Hire date, YYYY-MM-DD"},
		&cli.StringFlag{Name: "emergency-contact", Usage: "Emergency contact phone"},
		&cli.StringFlag{Name: "skills", Usage: "Comma separated skills"},
	}
}

// applyUserFlags copies every flag that was set onto in.
func applyUserFlags(c *cli.Context, in users.Input) users.Input {
	strs := map[string]*string{
		"name":              &in.Name,
		"email":             &in.Email,
		"password":          &in.Password,
		"position":          &in.Position,
		"department":        &in.Department,
		"workplace":         &in.Workplace,
		"phone":             &in.PhoneNumber,
		"address":           &in.Address,
		"hire-date":         &in.HireDate,
		"emergency-contact": &in.EmergencyContact,
	}
	for name, target := range strs {
		if c.IsSet(name) {
			*target = c.String(name)
		}
	}
	if c.IsSet("role") {
		in.Role = users.RoleType(c.String("role"))
	}
	if c.IsSet("age") {
		in.Age = utils.Ptr(c.Int("age"))
	}
	if c.IsSet("salary") {
		in.Salary = utils.Ptr(c.Float64("salary"))
	}
	if c.IsSet("skills") {
		in.Skills = users.SplitSkills(c.String("skills"))
	}
	if in.Skills == nil {
		in.Skills = []string{}
	}
	return in
}

func usersList(c *cli.Context) error {
	env, err := environment(c)
	if err != nil {
		return err
	}

	d := env.Console.Dashboard(c.Context, users.ListFilter{
		Page:       c.Int("page"),
		Limit:      c.Int("limit"),
		Role:       c.String("role"),
		Department: c.String("department"),
		Search:     c.String("search"),
	})
	return printDashboard(c, d)
}

func printDashboard(c *cli.Context, d *console.Dashboard) error {
	if d.UsersErr != nil {
		return errors.New(console.Message(d.UsersErr, "Failed to fetch users"))
	}
	if c.String("output") == "json" {
		return printJSON(c.App.Writer, d.Page)
	}
	if d.Stats != nil {
		printStats(c.App.Writer, d.Stats)
		fmt.Fprintln(c.App.Writer)
	} else {
		fmt.Fprintln(c.App.ErrWriter, console.Message(d.StatsErr, "Failed to fetch stats"))
	}
	printUsers(c.App.Writer, d.Page)
	return nil
}

func userID(c *cli.Context) (users.ID, error) {
	if c.NArg() > 1 && strings.HasPrefix(c.Args().Get(1), "-") {
		return "", fmt.Errorf("flags must come before USER_ID, e.g. %s --department Sales %s", c.Command.HelpName, c.Args().First())
	}
	if c.NArg() != 1 {
		return "", fmt.Errorf("expected exactly one USER_ID argument, got %d", c.NArg())
	}
	return users.ID(c.Args().First()), nil
}

func usersGet(c *cli.Context) error {
	id, err := userID(c)
	if err != nil {
		return err
	}
	env, err := environment(c)
	if err != nil {
		return err
	}

	user, err := env.Console.User(c.Context, id)
	if err != nil {
		return errors.New(console.Message(err, "Failed to fetch user"))
	}
	if c.String("output") == "json" {
		return printJSON(c.App.Writer, user)
	}
	printUser(c.App.Writer, *user)
	return nil
}

func usersCreate(c *cli.Context) error {
	env, err := environment(c)
	if err != nil {
		return err
	}

	user, err := env.Console.SaveUser(c.Context, "", applyUserFlags(c, users.Input{}))
	if err != nil {
		return errors.New(console.Message(err, "Failed to create user"))
	}
	fmt.Fprintf(c.App.Writer, "User created successfully (id %s)\n", user.ID)
	return nil
}

func usersUpdate(c *cli.Context) error {
	id, err := userID(c)
	if err != nil {
		return err
	}
	env, err := environment(c)
	if err != nil {
		return err
	}

	current, err := env.Console.User(c.Context, id)
	if err != nil {
		return errors.New(console.Message(err, "Failed to fetch user"))
	}
	if _, err := env.Console.SaveUser(c.Context, id, applyUserFlags(c, users.FromUser(*current))); err != nil {
		return errors.New(console.Message(err, "Failed to update user"))
	}
	fmt.Fprintln(c.App.Writer, "User updated successfully")
	return nil
}

func usersDelete(c *cli.Context) error {
	id, err := userID(c)
	if err != nil {
		return err
	}
	env, err := environment(c)
	if err != nil {
		return err
	}

	d, err := env.Console.DeleteUser(c.Context, id, users.ListFilter{})
	if err != nil {
		return errors.New(console.Message(err, "Failed to delete user"))
	}
	fmt.Fprintln(c.App.Writer, "User deleted successfully")
	if d.UsersErr == nil && d.Page != nil {
		fmt.Fprintf(c.App.Writer, "%d users remaining\n", d.Page.Pagination.Total)
	}
	return nil
}
