package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/newtron-network/tnmigrate/pkg/device"
)

// Password environment variables, checked before prompting.
const (
	envTn3Password = "TNMIGRATE_TN3_PASSWORD"
	envTn4Password = "TNMIGRATE_TN4_PASSWORD"
)

// prompter reads credentials interactively. Passwords are read without echo
// when stdin is a terminal.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
	fd  int
}

func newPrompter() *prompter {
	return &prompter{
		in:  bufio.NewReader(os.Stdin),
		out: os.Stderr,
		fd:  int(os.Stdin.Fd()),
	}
}

func (p *prompter) line(label string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", label)
	s, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || s == "") {
		return "", fmt.Errorf("reading %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimSpace(s), nil
}

func (p *prompter) password(label string) (string, error) {
	if !term.IsTerminal(p.fd) {
		return p.line(label)
	}
	fmt.Fprintf(p.out, "%s: ", label)
	pw, err := term.ReadPassword(p.fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", strings.ToLower(label), err)
	}
	return string(pw), nil
}

// credentials resolves one generation's credentials: user from the flag or
// settings, else prompted; password from env, else prompted.
func (p *prompter) credentials(generation, user, passwordEnv string) (device.Credentials, error) {
	var err error
	if user == "" {
		if user, err = p.line(generation + " Username"); err != nil {
			return device.Credentials{}, err
		}
	}
	if user == "" {
		return device.Credentials{}, fmt.Errorf("%s username is required", generation)
	}
	password := os.Getenv(passwordEnv)
	if password == "" {
		if password, err = p.password(generation + " Password"); err != nil {
			return device.Credentials{}, err
		}
	}
	return device.Credentials{User: user, Password: password}, nil
}
