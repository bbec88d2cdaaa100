package main

import (
	"bufio"
	"io"

	"github.com/spf13/cobra"
)

// newRootCmd builds the command tree around the given streams.
func newRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	c := &cli{in: bufio.NewReader(in), out: out, errOut: errOut}

	root := &cobra.Command{
		Use:   "synth",
		Short: "Study AI-generated flashcards from the terminal",
		Long: `synth is a terminal client for the Synth study service.

Upload notes to generate a deck, then study it card by card. Answers are
graded by the service and progress is saved after every card, so a session
can be resumed later from the terminal or the browser.

Examples:
  # Log in and see your decks
  synth login --email sam@example.com
  synth dashboard

  # Create a deck from a file and study it
  synth upload file notes.pdf --name "Biology"
  synth study 42`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup()
		},
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	flags := root.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "config file (default ./config.yaml when present)")
	flags.StringVar(&c.backendURL, "backend", "", "backend API URL, e.g. http://localhost:8080/api")
	flags.StringVar(&c.credentialsPath, "credentials", "", "where the login token is stored")
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "log requests to stderr")

	root.AddCommand(
		newLoginCmd(c),
		newRegisterCmd(c),
		newLogoutCmd(c),
		newWhoamiCmd(c),
		newDashboardCmd(c),
		newUploadCmd(c),
		newDecksCmd(c),
		newProgressCmd(c),
		newStudyCmd(c),
		newSubscriptionCmd(c),
	)
	return root
}
