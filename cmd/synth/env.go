package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/phrazzld/synth-study/internal/appctx"
	"github.com/phrazzld/synth-study/internal/auth"
	"github.com/phrazzld/synth-study/internal/backend"
	"github.com/phrazzld/synth-study/internal/config"
	"github.com/phrazzld/synth-study/internal/platform/logger"
)

// cli carries the state shared by every command: streams, flags and the
// lazily built application context and backend client.
type cli struct {
	in     *bufio.Reader
	out    io.Writer
	errOut io.Writer

	// persistent flags
	configPath      string
	backendURL      string
	credentialsPath string
	verbose         bool

	cfg     *config.Config
	logger  *slog.Logger
	session *appctx.Context
	client  *backend.Client
}

// setup loads configuration and wires the application context. The
// backend client reads its token from the context, so a login made through
// the context is immediately visible to every later call.
func (c *cli) setup() error {
	if c.session != nil {
		return nil
	}

	cfg, err := config.LoadFrom(c.configPath)
	if err != nil {
		return err
	}
	if c.backendURL != "" {
		cfg.Backend.BaseURL = c.backendURL
	}
	c.cfg = cfg

	level := "warn"
	if c.verbose {
		level = "debug"
	}
	c.logger = logger.SetupWithWriter(level, c.errOut)

	path := c.credentialsPath
	if path == "" {
		path = cfg.Auth.CredentialsFile
	}
	if path == "" {
		if path, err = appctx.DefaultCredentialsPath(); err != nil {
			return err
		}
	}

	anonymous := backend.New(cfg.Backend.BaseURL, nil,
		backend.WithRequestTimeout(cfg.Backend.RequestTimeout),
		backend.WithLogger(c.logger))
	c.session = appctx.New(anonymous, appctx.NewFileStore(path),
		auth.NewTokenInspector(auth.DefaultClockSkew, nil), c.logger)
	c.client = anonymous.WithTokenSource(c.session)
	return nil
}

// requireLogin restores the saved session or explains how to get one.
func (c *cli) requireLogin(ctx context.Context) error {
	if _, err := c.session.Restore(ctx); err != nil {
		if errors.Is(err, appctx.ErrSessionExpired) {
			return errors.New("your session has expired, run `synth login` again")
		}
		return errors.New("you are not logged in, run `synth login` first")
	}
	return nil
}

// prompt writes label and reads one line. io.EOF is returned when input
// ends before a newline.
func (c *cli) prompt(label string) (string, error) {
	if label != "" {
		fmt.Fprint(c.out, label)
	}
	line, err := c.in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// confirm asks a yes/no question; an empty answer takes def.
func (c *cli) confirm(question string, def bool) (bool, error) {
	hint := " [y/N] "
	if def {
		hint = " [Y/n] "
	}
	answer, err := c.prompt(question + hint)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "":
		return def, nil
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func (c *cli) printf(format string, args ...interface{}) {
	fmt.Fprintf(c.out, format, args...)
}

func (c *cli) println(args ...interface{}) {
	fmt.Fprintln(c.out, args...)
}
