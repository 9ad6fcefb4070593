package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/zcc135820/reqpipe/internal/config"
	"github.com/zcc135820/reqpipe/internal/util"
	"github.com/zcc135820/reqpipe/sdk/api"
)

// LoginOptions contains options for the login command.
type LoginOptions struct {
	Username string
	Password string

	// Prompt allows the caller to provide interactive input when a value is missing.
	Prompt func(prompt string) (string, error)
}

// DoLogin authenticates against the backend and persists the issued token in the configured
// credential store.
func DoLogin(ctx context.Context, cfg *config.Config, options *LoginOptions, out io.Writer) error {
	if options == nil {
		options = &LoginOptions{}
	}
	prompt := options.Prompt
	if prompt == nil {
		prompt = defaultPrompt(os.Stdin, out)
	}

	username := strings.TrimSpace(options.Username)
	if username == "" {
		value, err := prompt("Username: ")
		if err != nil {
			return err
		}
		username = strings.TrimSpace(value)
	}
	password := options.Password
	if password == "" {
		value, err := prompt("Password: ")
		if err != nil {
			return err
		}
		password = value
	}

	s, err := newSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	res, err := s.api.User.Login(ctx, api.LoginParams{Username: username, Password: password})
	if err != nil {
		return fmt.Errorf("login failed: %s", describe(err))
	}
	log.Infof("logged in as %s, token %s stored in %s store", res.User.Name, util.HideToken(res.Token), cfg.TokenStore.Type)
	_, err = fmt.Fprintf(out, "Logged in as %s\n", res.User.Name)
	return err
}

// DoWhoAmI prints the current profile.
func DoWhoAmI(ctx context.Context, cfg *config.Config, out io.Writer) error {
	s, err := newSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	info, err := s.api.User.Info(ctx)
	if err != nil {
		return fmt.Errorf("fetch profile: %s", describe(err))
	}
	return printJSON(out, info)
}

// DoLogout revokes the token and clears the credential store.
func DoLogout(ctx context.Context, cfg *config.Config, out io.Writer) error {
	s, err := newSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	if err = s.api.User.Logout(ctx); err != nil {
		return fmt.Errorf("logout: %s", describe(err))
	}
	_, err = fmt.Fprintln(out, "Logged out")
	return err
}

func defaultPrompt(in io.Reader, out io.Writer) func(string) (string, error) {
	reader := bufio.NewReader(in)
	return func(prompt string) (string, error) {
		if _, err := fmt.Fprint(out, prompt); err != nil {
			return "", err
		}
		line, err := reader.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			return "", fmt.Errorf("read input: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}
}
