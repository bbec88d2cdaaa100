package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/phrazzld/synth-study/internal/domain"
	"github.com/phrazzld/synth-study/internal/study"
	"github.com/spf13/cobra"
)

// quitCommand ends a study session early. Progress up to the last advanced
// card is already saved.
const quitCommand = ":q"

func newStudyCmd(c *cli) *cobra.Command {
	var resume bool
	cmd := &cobra.Command{
		Use:   "study <deckID>",
		Short: "Study a deck card by card",
		Long: `Study a deck card by card. Type your answer and press Enter to have it
graded, then press Enter again for the next card. Progress is saved after
every card; type :q to stop and continue later.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deckID, err := parseDeckID(args[0])
			if err != nil {
				return err
			}
			if err := c.requireLogin(cmd.Context()); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			ctrl := study.New(c.client, deckID,
				study.WithLogger(c.logger),
				study.WithGradingTimeout(c.cfg.Backend.GradingTimeout),
				study.WithResume(resume),
			)
			return c.runStudy(ctx, ctrl)
		},
	}
	cmd.Flags().BoolVar(&resume, "resume", false, "continue saved progress without asking")
	return cmd
}

// runStudy drives ctrl from Initializing to a terminal state, prompting on
// the terminal at each interactive state.
func (c *cli) runStudy(ctx context.Context, ctrl *study.Controller) error {
	defer ctrl.Discard()

	c.println(dimStyle.Render("Loading deck..."))
	if err := ctrl.Start(ctx); err != nil {
		var loadErr *study.LoadError
		if errors.As(err, &loadErr) {
			return fmt.Errorf("failed to load deck: %w", userError(loadErr.Err))
		}
		return userError(err)
	}

	for {
		snap := ctrl.Snapshot()
		switch snap.State {
		case study.StateEmptyDeck:
			c.println("This deck has no cards yet.")
			return nil

		case study.StateLoadError:
			return errors.New(snap.Error)

		case study.StateAwaitingResumeDecision:
			if err := c.decideResume(ctx, ctrl, snap); err != nil {
				return err
			}

		case study.StateAnswering:
			quit, err := c.answerCard(ctx, ctrl, snap)
			if err != nil || quit {
				return err
			}

		case study.StateShowingResult:
			c.showResult(snap)
			if _, err := c.prompt(dimStyle.Render("Press Enter to continue ")); err != nil && !errors.Is(err, io.EOF) {
				return err
			}
			if err := ctrl.Advance(ctx); err != nil {
				return userError(err)
			}

		case study.StateCompleted:
			c.showSummary(ctrl)
			return nil

		default:
			return fmt.Errorf("unexpected session state %s", snap.State)
		}
	}
}

func (c *cli) decideResume(ctx context.Context, ctrl *study.Controller, snap study.Snapshot) error {
	prior := snap.Prior
	c.printf("You stopped at card %d of %d (%.0f%% complete).\n",
		prior.CurrentCardIndex+1, prior.TotalCards, prior.Percent())

	resume, err := c.confirm("Continue where you left off?", true)
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	if err == nil && !resume {
		if err := ctrl.Restart(ctx); err != nil {
			return userError(err)
		}
		c.println(dimStyle.Render("Starting over from the first card."))
		return nil
	}
	if err := ctrl.Resume(ctx); err != nil {
		return userError(err)
	}
	return nil
}

// answerCard prompts for an answer and submits it. It reports quit when
// the user asked to stop or input ended.
func (c *cli) answerCard(ctx context.Context, ctrl *study.Controller, snap study.Snapshot) (bool, error) {
	c.println(questionStyle.Render(fmt.Sprintf("Card %d/%d  %s", snap.Index+1, snap.Total,
		dimStyle.Render(progressBar(snap.Percent, 20)))))
	c.println(snap.Card.Question)

	answer, err := c.prompt("> ")
	if err != nil {
		if errors.Is(err, io.EOF) {
			c.println()
			c.println(dimStyle.Render("Progress saved. Continue with `synth study " + fmt.Sprint(snap.DeckID) + "`."))
			return true, nil
		}
		return true, err
	}
	if strings.TrimSpace(answer) == quitCommand {
		c.println(dimStyle.Render("Progress saved. Continue with `synth study " + fmt.Sprint(snap.DeckID) + "`."))
		return true, nil
	}

	c.println(dimStyle.Render("Grading..."))
	if _, err := ctrl.Submit(ctx, answer); err != nil {
		switch {
		case errors.Is(err, study.ErrEmptyAnswer):
			c.println(errorStyle.Render("Please enter an answer"))
			return false, nil
		case ctx.Err() != nil:
			return true, ctx.Err()
		default:
			var gradingErr *study.GradingError
			if errors.As(err, &gradingErr) {
				c.println(errorStyle.Render(userError(err).Error()))
				return false, nil
			}
			return true, userError(err)
		}
	}
	return false, nil
}

func (c *cli) showResult(snap study.Snapshot) {
	result := snap.LastResult
	if result == nil {
		return
	}
	verdict := "Needs work"
	if result.Passed() {
		verdict = "Correct"
	}
	c.printf("%s %s\n", bandText(result.Band(), verdict), scoreText(result.Score))
	if result.Feedback != "" {
		c.println(result.Feedback)
	}
	if snap.Card != nil && snap.Card.Answer != "" {
		c.println(dimStyle.Render("Answer:"), snap.Card.Answer)
	}
}

func (c *cli) showSummary(ctrl *study.Controller) {
	summary := ctrl.Summary()

	c.println()
	c.println(headerStyle.Render("Session complete"))
	c.printf("Average score: %s\n", bandText(domain.BandForScore(summary.AverageScore),
		fmt.Sprintf("%d%%", summary.AveragePercent())))
	c.printf("Correct: %d of %d graded\n", summary.CorrectCount, summary.Graded)
	if summary.Placeholders > 0 {
		c.println(dimStyle.Render(fmt.Sprintf("%d cards were answered in an earlier session", summary.Placeholders)))
	}

	for i, entry := range ctrl.Results() {
		if !entry.Graded() {
			c.printf("%3d. %s\n", i+1, dimStyle.Render("earlier session"))
			continue
		}
		s := entry.Session()
		c.printf("%3d. %s  %s\n", i+1, scoreText(s.Score), s.Response)
	}
}
