package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
)

// errNotInteractive means a value had to be prompted for but stdin is not
// a terminal.
var errNotInteractive = errors.New("stdin is not a terminal")

func interactive() bool {
	return isTerminal(os.Stdin)
}

// isTerminal reports whether f is a terminal. Character devices such as
// /dev/null are not.
func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func required(label string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", label)
		}
		return nil
	}
}

// promptCredentials asks for whichever of username and password is still
// empty.
func promptCredentials(title string, username, password *string) error {
	if *username != "" && *password != "" {
		return nil
	}
	if !interactive() {
		return fmt.Errorf("%w: pass --username and --password", errNotInteractive)
	}

	var fields []huh.Field
	if *username == "" {
		fields = append(fields, huh.NewInput().
			Title("Username").
			Value(username).
			Validate(required("username")))
	}
	if *password == "" {
		fields = append(fields, huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Value(password).
			Validate(required("password")))
	}

	form := huh.NewForm(huh.NewGroup(fields...).Title(title)).WithTheme(huh.ThemeCharm())
	return form.Run()
}

// confirm asks a yes/no question, labelling the yes button affirmative.
// assumeYes short-circuits to true; a non-interactive session without it
// answers no.
func confirm(title, description, affirmative string, assumeYes bool) (bool, error) {
	if assumeYes {
		return true, nil
	}
	if !interactive() {
		return false, nil
	}

	ok := false
	err := huh.NewConfirm().
		Title(title).
		Description(description).
		Affirmative(affirmative).
		Negative("Cancel").
		Value(&ok).
		Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return false, nil
	}
	return ok, err
}
