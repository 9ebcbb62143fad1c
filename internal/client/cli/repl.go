package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	isAdmin() bool
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Tokens(ctx context.Context) error
	Issue(ctx context.Context, args []string) error
	IssueManual(ctx context.Context) error
	Activate(ctx context.Context, args []string) error
	Remove(ctx context.Context, args []string) error
	Rotate(ctx context.Context, args []string) error
	Refresh(ctx context.Context) error
	Dismiss(ctx context.Context) error
	Students(ctx context.Context, args []string) error
	Student(ctx context.Context, args []string) error
	Review(ctx context.Context, args []string) error
	Wizard(ctx context.Context, args []string) error
}

const (
	helpGuest = "Available commands: login, exit"
	helpStaff = "Available commands: tokens, activate <id>, dismiss, students [institute], student <id>, wizard <cmd>, logout, exit"
	helpAdmin = "Admin commands: issue [username], issue-manual, rotate <id>, remove <id> [--logout], refresh, review <id> approve|reject [remark-id]"
)

// runREPL reads commands from scanner and dispatches them to a until EOF,
// "exit" or "quit".
//
// The prompt shows statusFn's result. Command handlers report their own
// failures to the user, so their errors are dropped here.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("rk %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			switch {
			case !a.isLoggedIn():
				printlnFn(helpGuest)
			case a.isAdmin():
				printlnFn(helpStaff)
				printlnFn(helpAdmin)
			default:
				printlnFn(helpStaff)
			}

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "t", "tokens":
			_ = a.Tokens(ctx)

		case "issue":
			_ = a.Issue(ctx, args)

		case "issue-manual":
			_ = a.IssueManual(ctx)

		case "activate", "use":
			_ = a.Activate(ctx, args)

		case "remove":
			_ = a.Remove(ctx, args)

		case "rotate":
			_ = a.Rotate(ctx, args)

		case "refresh":
			_ = a.Refresh(ctx)

		case "dismiss":
			_ = a.Dismiss(ctx)

		case "students":
			_ = a.Students(ctx, args)

		case "student":
			_ = a.Student(ctx, args)

		case "review":
			_ = a.Review(ctx, args)

		case "w", "wizard":
			_ = a.Wizard(ctx, args)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if ctx.Err() != nil {
			return
		}
	}
}
