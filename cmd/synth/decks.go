package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/phrazzld/synth-study/internal/dashboard"
	"github.com/phrazzld/synth-study/internal/domain"
	"github.com/spf13/cobra"
)

func newDashboardCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "List decks with mastery and unfinished sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireLogin(cmd.Context()); err != nil {
				return err
			}
			board, err := dashboard.NewService(c.client, c.logger).Load(cmd.Context())
			if err != nil {
				return userError(err)
			}
			c.printBoard(board)
			return nil
		},
	}
}

func (c *cli) printBoard(board *dashboard.Board) {
	if len(board.Decks) == 0 {
		c.println("No decks yet. Create one with `synth upload`.")
		return
	}

	c.println(headerStyle.Render("Decks"))
	tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCARDS\tMASTERY\t")
	for _, d := range board.Decks {
		mastery := bandText(d.Band, fmt.Sprintf("%.0f%% %s", d.MasteryScore, d.Mastery))
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t\n", d.ID, d.Name, d.CardCount, mastery)
	}
	_ = tw.Flush()
	c.println(dimStyle.Render(fmt.Sprintf("%d cards, average mastery %d%%", board.TotalCards, board.AverageMastery)))

	if len(board.Active) > 0 {
		c.println()
		c.println(headerStyle.Render("Continue studying"))
		c.printProgress(board.Active)
	}
}

func (c *cli) printProgress(active []dashboard.ProgressView) {
	tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DECK\tNAME\tPROGRESS\t\t")
	for _, p := range active {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d/%d\t\n",
			p.Deck.ID, p.Deck.Name, progressBar(p.Percent, 20), p.CardsCompleted, p.TotalCards)
	}
	_ = tw.Flush()
}

func newUploadCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Create a deck from a document or pasted text",
	}

	var name, description string
	fileCmd := &cobra.Command{
		Use:   "file <path>",
		Short: "Create a deck from a PDF, DOCX or text file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireLogin(cmd.Context()); err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()

			deckName := strings.TrimSpace(name)
			if deckName == "" {
				deckName = deckNameFromPath(args[0])
			}

			c.println(dimStyle.Render("Generating cards, this can take a minute..."))
			created, err := c.client.CreateDeckFromFile(cmd.Context(), deckName, description, args[0], f)
			if err != nil {
				return userError(err)
			}
			c.printCreated(created)
			return nil
		},
	}
	fileCmd.Flags().StringVar(&name, "name", "", "deck name (defaults to the file name)")
	fileCmd.Flags().StringVar(&description, "description", "", "deck description")

	var textName, textDescription, source string
	textCmd := &cobra.Command{
		Use:   "text",
		Short: "Create a deck from text read from --from or stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireLogin(cmd.Context()); err != nil {
				return err
			}

			var content []byte
			var err error
			if source != "" && source != "-" {
				content, err = os.ReadFile(source)
			} else {
				content, err = io.ReadAll(c.in)
			}
			if err != nil {
				return err
			}

			req := domain.TextDeckRequest{
				Name:        strings.TrimSpace(textName),
				Description: strings.TrimSpace(textDescription),
				Content:     string(content),
			}
			if err := req.Validate(); err != nil {
				return userError(err)
			}

			c.println(dimStyle.Render("Generating cards, this can take a minute..."))
			created, err := c.client.CreateDeckFromText(cmd.Context(), req)
			if err != nil {
				return userError(err)
			}
			c.printCreated(created)
			return nil
		},
	}
	textCmd.Flags().StringVar(&textName, "name", "", "deck name")
	textCmd.Flags().StringVar(&textDescription, "description", "", "deck description")
	textCmd.Flags().StringVar(&source, "from", "", "read text from this file instead of stdin")
	_ = textCmd.MarkFlagRequired("name")

	cmd.AddCommand(fileCmd, textCmd)
	return cmd
}

func (c *cli) printCreated(created *domain.CreatedDeck) {
	c.printf("Created deck %d %q with %d cards\n", created.ID, created.Name, created.CardCount)
	c.println(dimStyle.Render(fmt.Sprintf("Study it with `synth study %d`", created.ID)))
}

func deckNameFromPath(path string) string {
	base := path
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	if i := strings.LastIndex(base, "."); i > 0 {
		base = base[:i]
	}
	return base
}

func newDecksCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decks",
		Short: "Manage decks",
	}

	var yes bool
	deleteCmd := &cobra.Command{
		Use:   "delete <deckID>",
		Short: "Delete a deck and its progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deckID, err := parseDeckID(args[0])
			if err != nil {
				return err
			}
			if err := c.requireLogin(cmd.Context()); err != nil {
				return err
			}
			if !yes {
				ok, err := c.confirm(fmt.Sprintf("Delete deck %d? This cannot be undone.", deckID), false)
				if err != nil {
					return err
				}
				if !ok {
					c.println("Cancelled")
					return nil
				}
			}
			if err := c.client.DeleteDeck(cmd.Context(), deckID); err != nil {
				return userError(err)
			}
			c.printf("Deleted deck %d\n", deckID)
			return nil
		},
	}
	deleteCmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")

	cmd.AddCommand(deleteCmd)
	return cmd
}

func parseDeckID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("deck id must be a positive number")
	}
	return id, nil
}

func newProgressCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Show or clear saved study progress",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List unfinished study sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireLogin(cmd.Context()); err != nil {
				return err
			}
			progress, err := c.client.ListActiveProgress(cmd.Context())
			if err != nil {
				return userError(err)
			}
			active := dashboard.Build(nil, progress).Active
			if len(active) == 0 {
				c.println("No unfinished sessions")
				return nil
			}
			c.printProgress(active)
			return nil
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear <deckID>",
		Short: "Forget saved progress so the deck starts from the first card",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deckID, err := parseDeckID(args[0])
			if err != nil {
				return err
			}
			if err := c.requireLogin(cmd.Context()); err != nil {
				return err
			}
			if err := c.client.ClearProgress(cmd.Context(), deckID); err != nil {
				return userError(err)
			}
			c.printf("Cleared progress for deck %d\n", deckID)
			return nil
		},
	}

	cmd.AddCommand(listCmd, clearCmd)
	return cmd
}
