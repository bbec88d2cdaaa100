package main

import (
	"context"
	"strings"
	"time"

	"github.com/phrazzld/synth-study/internal/domain"
	"github.com/spf13/cobra"
)

type credentialFlags struct {
	email    string
	password string
}

func (f *credentialFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.email, "email", "", "account email (prompted when omitted)")
	cmd.Flags().StringVar(&f.password, "password", "", "account password (prompted when omitted)")
}

// read fills in missing credentials from the prompt.
func (f *credentialFlags) read(c *cli) (domain.Credentials, error) {
	email, password := strings.TrimSpace(f.email), f.password

	var err error
	if email == "" {
		if email, err = c.prompt("Email: "); err != nil {
			return domain.Credentials{}, err
		}
	}
	if password == "" {
		if password, err = c.prompt("Password: "); err != nil {
			return domain.Credentials{}, err
		}
	}
	return domain.Credentials{Email: strings.TrimSpace(email), Password: password}, nil
}

func newLoginCmd(c *cli) *cobra.Command {
	var flags credentialFlags
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and remember the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.authenticate(cmd.Context(), &flags, c.session.Login, "Logged in as %s\n")
		},
	}
	flags.register(cmd)
	return cmd
}

func newRegisterCmd(c *cli) *cobra.Command {
	var flags credentialFlags
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.authenticate(cmd.Context(), &flags, c.session.Register, "Welcome, %s\n")
		},
	}
	flags.register(cmd)
	return cmd
}

func (c *cli) authenticate(
	ctx context.Context,
	flags *credentialFlags,
	call func(ctx context.Context, creds domain.Credentials) (*domain.User, error),
	greeting string,
) error {
	creds, err := flags.read(c)
	if err != nil {
		return err
	}
	user, err := call(ctx, creds)
	if err != nil {
		return userError(err)
	}
	c.printf(greeting, user.Email)
	return nil
}

func newLogoutCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.session.Logout(); err != nil {
				return err
			}
			c.println("Logged out")
			return nil
		},
	}
}

func newWhoamiCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireLogin(cmd.Context()); err != nil {
				return err
			}
			user := c.session.User()
			c.printf("%s (id %d)\n", user.Email, user.ID)
			if claims := c.session.Claims(); claims != nil && !claims.ExpiresAt.IsZero() {
				c.println(dimStyle.Render("session expires " + claims.ExpiresAt.Local().Format(time.RFC1123)))
			}
			return nil
		},
	}
}
