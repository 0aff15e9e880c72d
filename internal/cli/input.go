package cli

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// getPassword returns the -p flag value if set, otherwise prompts on
// the terminal without echo.
func (a *App) getPassword() (string, error) {
	if a.password != "" {
		return a.password, nil
	}

	fmt.Fprint(a.out, "Enter password: ")
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(a.out)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}
