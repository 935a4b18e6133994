package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/jrsteele09/go-user-admin/users"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func printUsers(w io.Writer, page *users.Page) {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tROLE\tDEPARTMENT\tPOSITION")
	for _, u := range page.Users {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", u.ID, u.Name, u.Email, u.Role, dash(u.Department), dash(u.Position))
	}
	tw.Flush()

	p := page.Pagination
	if p.Limit > 0 {
		pages := p.TotalPages
		if pages == 0 {
			pages = (p.Total + p.Limit - 1) / p.Limit
		}
		fmt.Fprintf(w, "\nPage %d of %d, %d users\n", p.Page, pages, p.Total)
	}
}

func printUser(w io.Writer, u users.User) {
	tw := newTable(w)
	row := func(k, v string) {
		fmt.Fprintf(tw, "%s\t%s\n", k, dash(v))
	}
	row("ID", u.ID.String())
	row("Name", u.Name)
	row("Email", u.Email)
	row("Role", string(u.Role))
	if u.Age > 0 {
		row("Age", fmt.Sprint(u.Age))
	}
	row("Position", u.Position)
	row("Department", u.Department)
	row("Workplace", u.Workplace)
	if u.Salary > 0 {
		row("Salary", fmt.Sprintf("%.2f", u.Salary))
	}
	row("Phone", u.PhoneNumber)
	row("Address", u.Address)
	row("Hire date", u.HireDate)
	row("Emergency contact", u.EmergencyContact)
	row("Skills", strings.Join(u.Skills, ", "))
	tw.Flush()
}

func printStats(w io.Writer, s *users.Stats) {
	tw := newTable(w)
	fmt.Fprintf(tw, "Total users\t%d\n", s.TotalUsers)
	fmt.Fprintf(tw, "Average age\t%.1f\n", s.AverageAge)
	fmt.Fprintf(tw, "Average salary\t%.2f\n", s.AverageSalary)
	fmt.Fprintf(tw, "Departments\t%d\n", s.Departments)
	tw.Flush()
}

func printMetadata(w io.Writer, m *users.Metadata) {
	tw := newTable(w)
	fmt.Fprintf(tw, "Roles\t%s\n", strings.Join(m.Roles, ", "))
	fmt.Fprintf(tw, "Positions\t%s\n", strings.Join(m.Positions, ", "))
	if len(m.Departments) > 0 {
		fmt.Fprintf(tw, "Departments\t%s\n", strings.Join(m.Departments, ", "))
	}
	tw.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
