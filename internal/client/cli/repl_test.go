package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	loggedIn bool
	admin    bool

	calls []string
}

func (f *fakeExec) record(name string, args []string) error {
	if len(args) > 0 {
		name += " " + strings.Join(args, " ")
	}
	f.calls = append(f.calls, name)
	return nil
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }
func (f *fakeExec) isAdmin() bool    { return f.admin }
func (f *fakeExec) Login(ctx context.Context) error {
	f.loggedIn = true
	return f.record("login", nil)
}
func (f *fakeExec) Logout(ctx context.Context) error {
	f.loggedIn = false
	return f.record("logout", nil)
}
func (f *fakeExec) Tokens(ctx context.Context) error { return f.record("tokens", nil) }
func (f *fakeExec) Issue(ctx context.Context, args []string) error {
	return f.record("issue", args)
}
func (f *fakeExec) IssueManual(ctx context.Context) error { return f.record("issue-manual", nil) }
func (f *fakeExec) Activate(ctx context.Context, args []string) error {
	return f.record("activate", args)
}
func (f *fakeExec) Remove(ctx context.Context, args []string) error {
	return f.record("remove", args)
}
func (f *fakeExec) Rotate(ctx context.Context, args []string) error {
	return f.record("rotate", args)
}
func (f *fakeExec) Refresh(ctx context.Context) error { return f.record("refresh", nil) }
func (f *fakeExec) Dismiss(ctx context.Context) error { return f.record("dismiss", nil) }
func (f *fakeExec) Students(ctx context.Context, args []string) error {
	return f.record("students", args)
}
func (f *fakeExec) Student(ctx context.Context, args []string) error {
	return f.record("student", args)
}
func (f *fakeExec) Review(ctx context.Context, args []string) error {
	return f.record("review", args)
}
func (f *fakeExec) Wizard(ctx context.Context, args []string) error {
	return f.record("wizard", args)
}

// capturePrintln collects printlnFn output for one test.
func capturePrintln(t *testing.T) *[]string {
	t.Helper()
	var out []string
	orig := printlnFn
	printlnFn = func(a ...any) (int, error) {
		out = append(out, strings.TrimSuffix(fmt.Sprintln(a...), "\n"))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })
	return &out
}

func TestRunREPL_DispatchesCommands(t *testing.T) {
	out := capturePrintln(t)

	input := strings.NewReader(strings.Join([]string{
		"help",
		"login",
		"",
		"t",
		"issue svc",
		"issue-manual",
		"use 1a2b",
		"rotate 1a2b",
		"remove 1a2b --logout",
		"refresh",
		"dismiss",
		"students 5871",
		"student 42",
		"review 42 approve",
		"w save",
		"wizard goto bank",
		"foobar",
		"logout",
		"exit",
		"tokens",
	}, "\n"))

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "(status)" }, bufio.NewScanner(input))

	assert.Equal(t, []string{
		"login",
		"tokens",
		"issue svc",
		"issue-manual",
		"activate 1a2b",
		"rotate 1a2b",
		"remove 1a2b --logout",
		"refresh",
		"dismiss",
		"students 5871",
		"student 42",
		"review 42 approve",
		"wizard save",
		"wizard goto bank",
		"logout",
	}, exec.calls)

	assert.Contains(t, *out, helpGuest)
	assert.Contains(t, *out, "Unknown command: foobar")
	assert.Contains(t, *out, "rk (status)> ")
	assert.Equal(t, "Bye!", (*out)[len(*out)-1])
}

func TestRunREPL_HelpByRole(t *testing.T) {
	tests := []struct {
		name string
		exec *fakeExec
		want []string
		not  []string
	}{
		{"guest", &fakeExec{}, []string{helpGuest}, []string{helpStaff, helpAdmin}},
		{"staff", &fakeExec{loggedIn: true}, []string{helpStaff}, []string{helpAdmin}},
		{"admin", &fakeExec{loggedIn: true, admin: true}, []string{helpStaff, helpAdmin}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := capturePrintln(t)
			runREPL(context.Background(), tt.exec, func() string { return "" }, bufio.NewScanner(strings.NewReader("help\n")))
			for _, w := range tt.want {
				assert.Contains(t, *out, w)
			}
			for _, n := range tt.not {
				assert.NotContains(t, *out, n)
			}
		})
	}
}

func TestRunREPL_StopsOnEOF(t *testing.T) {
	capturePrintln(t)
	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "" }, bufio.NewScanner(strings.NewReader("")))
	assert.Empty(t, exec.calls)
}

func TestRunREPL_StopsWhenContextDone(t *testing.T) {
	capturePrintln(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	exec := &fakeExec{}
	runREPL(ctx, exec, func() string { return "" }, bufio.NewScanner(strings.NewReader("tokens\ntokens\n")))
	assert.Equal(t, []string{"tokens"}, exec.calls)
}
