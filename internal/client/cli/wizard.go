package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/regkeeper/internal/client/guards"
	"github.com/dmitrijs2005/regkeeper/internal/client/wizard"
	"github.com/dmitrijs2005/regkeeper/internal/common"
)

const wizardUsage = "Usage: wizard load <file> | status | save | next | prev | goto <step> | ifsc <code> | student <id>"

// Wizard dispatches the registration wizard subcommands.
func (a *App) Wizard(ctx context.Context, args []string) error {
	if !a.allowed(guards.RequireSession(a.session.Current())) {
		return nil
	}
	if len(args) == 0 {
		fmt.Fprintln(a.out, wizardUsage)
		return nil
	}

	var err error
	switch sub, rest := args[0], args[1:]; sub {
	case "load":
		if len(rest) == 0 {
			fmt.Fprintln(a.out, "Usage: wizard load <file>")
			return nil
		}
		var form *wizard.StudentForm
		if form, err = wizard.LoadForm(rest[0]); err == nil {
			a.wizard.Start(form)
			a.printWizard()
		}
	case "status":
		a.printWizard()
	case "save":
		err = a.wizardSave(ctx)
	case "next":
		if err = a.wizard.Next(); err == nil {
			a.printWizard()
		}
	case "prev":
		if err = a.wizard.Previous(); err == nil {
			a.printWizard()
		}
	case "goto":
		if len(rest) == 0 {
			fmt.Fprintln(a.out, "Usage: wizard goto <step>")
			return nil
		}
		var s wizard.Step
		if s, err = wizard.ParseStep(rest[0]); err == nil {
			if err = a.wizard.Goto(s); err == nil {
				a.printWizard()
			}
		}
	case "ifsc":
		if len(rest) == 0 {
			fmt.Fprintln(a.out, "Usage: wizard ifsc <code>")
			return nil
		}
		err = a.lookupIFSC(ctx, rest[0])
	case "student":
		if len(rest) == 0 {
			fmt.Fprintln(a.out, "Usage: wizard student <id>")
			return nil
		}
		var id int64
		if id, err = parseID(rest[0]); err == nil {
			a.wizard.SetStudentID(id)
			fmt.Fprintf(a.out, "Continuing student %d.\n", id)
		}
	default:
		fmt.Fprintln(a.out, wizardUsage)
		return nil
	}

	if err != nil {
		a.printWizardError(err)
	}
	return err
}

func (a *App) wizardSave(ctx context.Context) error {
	step := a.wizard.Step()
	if err := a.wizard.Save(ctx); err != nil {
		return err
	}
	if step == wizard.StepCompleted {
		fmt.Fprintln(a.out, green("Registration submitted. Application number: "+a.wizard.ApplicationNumber()))
		return nil
	}
	fmt.Fprintf(a.out, "Saved %s.\n", step)
	return nil
}

func (a *App) lookupIFSC(ctx context.Context, code string) error {
	branches, err := a.wizard.LookupIFSC(ctx, code)
	if err != nil {
		return err
	}
	switch len(branches) {
	case 0:
		fmt.Fprintln(a.out, "No branch found.")
	case 1:
		b := branches[0]
		fmt.Fprintf(a.out, "%s, %s (%s). Bank details filled in.\n", b.BankName, b.Name, b.CityName)
	default:
		for _, b := range branches {
			fmt.Fprintf(a.out, "%s  %s, %s\n", b.IFSC, b.BankName, b.Name)
		}
	}
	return nil
}

func (a *App) printWizard() {
	var b strings.Builder
	current := a.wizard.Step()
	for i, s := range wizard.Steps() {
		if i > 0 {
			b.WriteString(" > ")
		}
		name := s.String()
		if a.wizard.Saved(s) {
			name = green(name)
		}
		if s == current {
			name = bold("[" + name + "]")
		}
		b.WriteString(name)
	}
	fmt.Fprintln(a.out, b.String())
	if id := a.wizard.StudentID(); id != 0 {
		fmt.Fprintf(a.out, "Student %d\n", id)
	}
}

func (a *App) printWizardError(err error) {
	switch {
	case errors.Is(err, common.ErrAuthRequired):
		fmt.Fprintln(a.out, red("No valid registry token. Activate or issue one first."))
	case errors.Is(err, wizard.ErrNoForm):
		fmt.Fprintln(a.out, red("Load a student form first: wizard load <file>"))
	default:
		fmt.Fprintln(a.out, red(err.Error()))
	}
}
