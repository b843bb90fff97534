package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// prompter reads credentials. Passwords are read without echo when input is
// a terminal.
type prompter struct {
	in     io.Reader
	reader *bufio.Reader
	errOut io.Writer
}

func newPrompter(in io.Reader, errOut io.Writer) *prompter {
	if in == nil {
		in = os.Stdin
	}
	return &prompter{in: in, reader: bufio.NewReader(in), errOut: errOut}
}

func (p *prompter) line(label string) (string, error) {
	fmt.Fprintf(p.errOut, "%s: ", label)
	s, err := p.reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && s != "") {
		return "", fmt.Errorf("failed to read %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimRight(s, "\r\n"), nil
}

func (p *prompter) password() (string, error) {
	if f, ok := p.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(p.errOut, "Password: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(p.errOut)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(b), nil
	}
	return p.line("Password")
}

// credentials returns the email (prompting when empty) and a password.
// Both are required.
func (p *prompter) credentials(email string) (string, string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		s, err := p.line("Email")
		if err != nil {
			return "", "", err
		}
		email = strings.TrimSpace(s)
	}
	if email == "" {
		return "", "", errors.New("email required")
	}
	password, err := p.password()
	if err != nil {
		return "", "", err
	}
	if password == "" {
		return "", "", errors.New("password required")
	}
	return email, password, nil
}
