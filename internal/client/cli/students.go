package cli

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"text/tabwriter"

	"github.com/dmitrijs2005/regkeeper/internal/client/guards"
	"github.com/dmitrijs2005/regkeeper/internal/client/wizard"
)

func (a *App) requireToken() bool {
	if !a.allowed(guards.RequireSession(a.session.Current())) {
		return false
	}
	if !guards.RequireRegistryToken(a.tokens.Snapshot(), "", a.clock()).Allowed {
		fmt.Fprintln(a.out, "No valid registry token. Activate or issue one first.")
		return false
	}
	return true
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func field(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return fmt.Sprint(v)
		}
	}
	return ""
}

// Students lists newly registered students of an institute.
func (a *App) Students(ctx context.Context, args []string) error {
	if !a.requireToken() {
		return nil
	}

	institute := a.config.DefaultInstituteID
	if len(args) > 0 {
		id, err := parseID(args[0])
		if err != nil {
			fmt.Fprintln(a.out, red(err.Error()))
			return err
		}
		institute = id
	}

	list, err := a.registry.NewStudentList(ctx, institute)
	if err != nil {
		fmt.Fprintln(a.out, red("Student list failed: "+err.Error()))
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(a.out, "No new students.")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tEMIS\tSTATUS")
	for _, s := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			field(s, "id", "studentId"),
			field(s, "name", "studentName", "nameAsOnCertificate"),
			field(s, "emisNumber", "emisId"),
			field(s, "status", "studentApprovedType"),
		)
	}
	return tw.Flush()
}

// Student prints every field the registry holds for one student.
func (a *App) Student(ctx context.Context, args []string) error {
	if !a.requireToken() {
		return nil
	}
	if len(args) == 0 {
		fmt.Fprintln(a.out, "Usage: student <id>")
		return nil
	}
	id, err := parseID(args[0])
	if err != nil {
		fmt.Fprintln(a.out, red(err.Error()))
		return err
	}

	info, err := a.registry.StudentInfo(ctx, id)
	if err != nil {
		fmt.Fprintln(a.out, red("Student lookup failed: "+err.Error()))
		return err
	}

	keys := make([]string, 0, len(info))
	for k := range info {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	for _, k := range keys {
		fmt.Fprintf(tw, "%s\t%v\n", k, info[k])
	}
	return tw.Flush()
}

// Review approves or rejects a student: review <id> approve|reject [remark-id].
func (a *App) Review(ctx context.Context, args []string) error {
	if !a.allowed(guards.RequireAdmin(a.session.Current())) || !a.requireToken() {
		return nil
	}
	if len(args) < 2 {
		fmt.Fprintln(a.out, "Usage: review <id> approve|reject [remark-id]")
		return nil
	}
	id, err := parseID(args[0])
	if err != nil {
		fmt.Fprintln(a.out, red(err.Error()))
		return err
	}

	var approve bool
	verdict := "rejected"
	switch args[1] {
	case "approve":
		approve, verdict = true, "approved"
	case "reject":
	default:
		fmt.Fprintln(a.out, "Usage: review <id> approve|reject [remark-id]")
		return nil
	}

	var remark *int64
	if !approve && len(args) > 2 {
		r, err := parseID(args[2])
		if err != nil {
			fmt.Fprintln(a.out, red(err.Error()))
			return err
		}
		remark = &r
	}

	if err := wizard.Review(ctx, a.registry, id, approve, remark); err != nil {
		fmt.Fprintln(a.out, red("Review failed: "+err.Error()))
		return err
	}
	fmt.Fprintf(a.out, "Student %d %s.\n", id, verdict)
	return nil
}
