// Package auth obtains login credentials for the CLI. Providers are tried in
// order: environment variables first, then an interactive terminal prompt.
package auth

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Credentials is a username and password pair.
type Credentials struct {
	Username string
	Password string
}

// CredentialProvider supplies credentials from one source.
type CredentialProvider interface {
	Credentials() (Credentials, error)
}

// EnvProvider reads REEL_USERNAME and REEL_PASSWORD.
type EnvProvider struct{}

// Credentials returns the environment credentials. Both variables must be set.
func (e *EnvProvider) Credentials() (Credentials, error) {
	user := os.Getenv("REEL_USERNAME")
	pass := os.Getenv("REEL_PASSWORD")
	if user == "" || pass == "" {
		return Credentials{}, errors.New("REEL_USERNAME and REEL_PASSWORD environment variables not set")
	}
	return Credentials{Username: user, Password: pass}, nil
}

// PromptProvider asks on the terminal. The password is read without echo
// when In is a terminal; otherwise it is read as a plain line, which lets
// scripts pipe it in.
type PromptProvider struct {
	In       *os.File
	Out      io.Writer
	Username string // skip the username prompt when set
}

// Credentials prompts for whatever is missing.
func (p *PromptProvider) Credentials() (Credentials, error) {
	in, out := p.In, p.Out
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stderr
	}
	reader := bufio.NewReader(in)

	user := strings.TrimSpace(p.Username)
	if user == "" {
		fmt.Fprint(out, "Username: ")
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return Credentials{}, fmt.Errorf("failed to read username: %w", err)
		}
		user = strings.TrimSpace(line)
	}
	if user == "" {
		return Credentials{}, errors.New("username is required")
	}

	fmt.Fprint(out, "Password: ")
	var pass string
	if term.IsTerminal(int(in.Fd())) {
		raw, err := term.ReadPassword(int(in.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return Credentials{}, fmt.Errorf("failed to read password: %w", err)
		}
		pass = string(raw)
	} else {
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return Credentials{}, fmt.Errorf("failed to read password: %w", err)
		}
		pass = strings.TrimRight(line, "\r\n")
	}
	if pass == "" {
		return Credentials{}, errors.New("password is required")
	}
	return Credentials{Username: user, Password: pass}, nil
}

// GetCredentials tries each provider in turn and returns the first success.
// With no providers it uses the environment, then the terminal prompt.
func GetCredentials(providers ...CredentialProvider) (Credentials, error) {
	if len(providers) == 0 {
		providers = []CredentialProvider{&EnvProvider{}, &PromptProvider{}}
	}
	var errs []error
	for _, p := range providers {
		creds, err := p.Credentials()
		if err == nil {
			return creds, nil
		}
		errs = append(errs, err)
	}
	return Credentials{}, fmt.Errorf(
		"failed to obtain credentials: %w\n"+
			"Please either:\n"+
			"  1. Run 'reel login' in a terminal, or\n"+
			"  2. Set REEL_USERNAME and REEL_PASSWORD",
		errors.Join(errs...),
	)
}
