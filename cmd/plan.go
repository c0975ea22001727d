package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wanderplan/trip-cli/internal/enrich"
	"github.com/wanderplan/trip-cli/internal/model"
	"github.com/wanderplan/trip-cli/internal/orchestrator"
	"github.com/wanderplan/trip-cli/internal/session"
)

var (
	planResume     string
	planSingleCity bool
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Plan a trip through an interactive conversation",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		var sess *session.Session
		if planResume != "" {
			sess, err = st.LoadSession(ctx, planResume)
			if err != nil {
				return eris.Wrap(err, "resume session")
			}
			fmt.Fprintf(os.Stderr, "Resuming session %s\n", sess.ID())
		} else {
			sess = session.New()
			if planSingleCity {
				err = sess.Commit(func(d *session.Data) error {
					d.Prefs.SingleCity = true
					return nil
				})
				if err != nil {
					return err
				}
			}
		}

		enricher := newEnricher(st, enrich.WithProgress(printProgress))
		orch := newOrchestrator(sess, enricher)

		card, err := orch.Start(ctx)
		if err != nil {
			return eris.Wrap(err, "start conversation")
		}
		if err := st.SaveSession(ctx, sess); err != nil {
			return eris.Wrap(err, "save session")
		}
		renderCard(card, sess.Snapshot())

		scanner := bufio.NewScanner(os.Stdin)
		for card.Type != model.CardDone {
			fmt.Print("> ")
			if !scanner.Scan() {
				break
			}
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if line == "quit" || line == "exit" {
				fmt.Fprintf(os.Stderr, "Session saved. Resume with: trip-cli plan --resume %s\n", sess.ID())
				return nil
			}

			card, err = orch.Step(ctx, parseInput(card, line))
			if err != nil {
				return eris.Wrap(err, "step")
			}
			if err := st.SaveSession(ctx, sess); err != nil {
				return eris.Wrap(err, "save session")
			}
			renderCard(card, sess.Snapshot())
		}
		if err := scanner.Err(); err != nil {
			return eris.Wrap(err, "read input")
		}

		zap.L().Info("conversation finished",
			zap.String("session", sess.ID()),
			zap.String("state", string(sess.Snapshot().State)),
		)
		return nil
	},
}

func init() {
	planCmd.Flags().StringVar(&planResume, "resume", "", "resume an existing session by id")
	planCmd.Flags().BoolVar(&planSingleCity, "single-city", false, "plan a single-base trip, skipping area discovery")
	rootCmd.AddCommand(planCmd)
}

func printProgress(p enrich.Progress) {
	switch p.Status {
	case enrich.StatusLoading:
		fmt.Fprintf(os.Stderr, "  ... %s loading\n", p.Layer)
	case enrich.StatusError:
		fmt.Fprintf(os.Stderr, "  ... %s unavailable (%s)\n", p.Layer, p.Detail)
	}
}

// parseInput translates a typed line into orchestrator input using the
// card it answers: numbered picks become entity ids, everything else
// passes through as free text. "set <field> <value>" revises an earlier
// answer.
func parseInput(last *model.ReplyCard, line string) orchestrator.Input {
	if rest, ok := strings.CutPrefix(line, "set "); ok {
		field, value, found := strings.Cut(strings.TrimSpace(rest), " ")
		if found {
			return orchestrator.Input{Field: model.FieldKey(field), Text: strings.TrimSpace(value)}
		}
	}

	switch last.Type {
	case model.CardTradeoffPrompt:
		if len(last.Tradeoffs) > 0 {
			opts := last.Tradeoffs[0].Options
			if n, err := strconv.Atoi(line); err == nil && n >= 1 && n <= len(opts) {
				return orchestrator.Input{OptionID: opts[n-1].ID}
			}
		}
		return orchestrator.Input{OptionID: line}
	case model.CardHotelShortlist:
		if ids := pickedIDs(line, len(last.Hotels), func(i int) string { return last.Hotels[i].ID }); ids != nil {
			return orchestrator.Input{EntityIDs: ids}
		}
	case model.CardDiningShortlist:
		if ids := pickedIDs(line, len(last.Dining), func(i int) string { return last.Dining[i].ID }); ids != nil {
			return orchestrator.Input{EntityIDs: ids}
		}
	}
	return orchestrator.Input{Text: line}
}

// pickedIDs parses "1, 3" style numbered picks. Returns nil unless every
// token is a valid number, so partial matches fall back to free text.
func pickedIDs(line string, n int, idAt func(int) string) []string {
	fields := strings.FieldsFunc(line, func(r rune) bool { return r == ',' || r == ' ' })
	if len(fields) == 0 {
		return nil
	}
	ids := make([]string, 0, len(fields))
	for _, f := range fields {
		num, err := strconv.Atoi(f)
		if err != nil || num < 1 || num > n {
			return nil
		}
		ids = append(ids, idAt(num-1))
	}
	return ids
}

func renderCard(card *model.ReplyCard, d session.Data) {
	out := os.Stdout
	if card.Message != "" {
		fmt.Fprintf(out, "\n%s\n", card.Message)
	}

	switch card.Type {
	case model.CardQuestion:
		if card.Question != nil {
			fmt.Fprintf(out, "\n%s\n", card.Question.Prompt)
		}
	case model.CardTradeoffPrompt:
		for _, t := range card.Tradeoffs {
			fmt.Fprintf(out, "\n%s\n", t.Description)
			for i, opt := range t.Options {
				fmt.Fprintf(out, "  %d. %s (%s)\n", i+1, opt.Label, opt.Impact)
			}
		}
	case model.CardSplitOptions:
		fmt.Fprintln(out, "\nHow would you like to split your nights?")
		for i, s := range card.Splits {
			stops := make([]string, 0, len(s.Stops))
			for _, stop := range s.Stops {
				stops = append(stops, fmt.Sprintf("%s x%d nights", areaLabel(d, stop.AreaID), stop.Nights))
			}
			fmt.Fprintf(out, "  %d. %s\n", i+1, strings.Join(stops, ", "))
		}
		fmt.Fprintln(out, "Pick a split by its number.")
	case model.CardHotelShortlist:
		fmt.Fprintln(out, "\nHotel shortlist (pick one per base, e.g. \"1, 4\"):")
		for i, h := range card.Hotels {
			fmt.Fprintf(out, "  %d. %s, %s (%s", i+1, h.Name, areaLabel(d, h.AreaID), hotelPrice(h))
			if h.Rating > 0 {
				fmt.Fprintf(out, ", rated %.1f", h.Rating)
			}
			fmt.Fprintln(out, ")")
		}
	case model.CardDiningShortlist:
		fmt.Fprintln(out, "\nWorth reserving ahead (pick any, or \"none\"):")
		for i, r := range card.Dining {
			fmt.Fprintf(out, "  %d. %s, %s", i+1, r.Name, areaLabel(d, r.AreaID))
			if r.Cuisine != "" {
				fmt.Fprintf(out, " (%s)", r.Cuisine)
			}
			fmt.Fprintln(out)
		}
	case model.CardItinerary:
		renderItinerary(out, card, d)
	case model.CardSatisfactionPrompt:
		if card.Message == "" {
			fmt.Fprintln(out, "\nAre you happy with this plan? (yes / almost / no)")
		}
	case model.CardDone:
		fmt.Fprintf(out, "\nExport it with: trip-cli export %s\n", d.ID)
	}
}

func renderItinerary(out *os.File, card *model.ReplyCard, d session.Data) {
	if card.Itinerary == nil {
		return
	}
	fmt.Fprintln(out)
	for _, day := range card.Itinerary.Days {
		fmt.Fprintf(out, "Day %d", day.Index+1)
		if day.Date != nil {
			fmt.Fprintf(out, " (%s)", day.Date.Format("Mon Jan 2"))
		}
		fmt.Fprintf(out, " - %s\n", areaLabel(d, day.AreaID))

		if day.TransitDay {
			fmt.Fprintf(out, "  travel: %s to %s\n", areaLabel(d, day.TransitFrom), areaLabel(d, day.TransitTo))
		}
		for _, block := range day.Blocks {
			fmt.Fprintf(out, "  %s: %s\n", block.Slot, block.Title)
		}
	}
	if card.Quality != nil && len(card.Quality.Constraints) > 0 {
		fmt.Fprintln(out, "\nHeads up:")
		for _, c := range card.Quality.Constraints {
			fmt.Fprintf(out, "  - %s\n", c.Detail)
		}
	}
	if card.Message == "" {
		fmt.Fprintln(out, "\nLook good? (yes / rebuild)")
	}
}

func areaLabel(d session.Data, areaID string) string {
	if area, ok := d.Areas[areaID]; ok {
		return area.Name
	}
	return areaID
}

func hotelPrice(h model.HotelCandidate) string {
	if h.PricePerNight == nil {
		return "no confirmed price"
	}
	return fmt.Sprintf("%.0f/night, %s", *h.PricePerNight, h.PriceConfidence)
}
