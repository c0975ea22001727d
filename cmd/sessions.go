package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/wanderplan/trip-cli/internal/model"
	"github.com/wanderplan/trip-cli/internal/store"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Inspect saved planning sessions",
	Long:  "Commands for listing, deleting, and viewing the history of saved sessions.",
}

// -- sessions list --

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved sessions",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		state, _ := cmd.Flags().GetString("state")
		destination, _ := cmd.Flags().GetString("destination")
		limit, _ := cmd.Flags().GetInt("limit")

		filter := store.SessionFilter{
			State:       model.State(state),
			Destination: destination,
			Limit:       limit,
		}

		sessions, err := st.ListSessions(ctx, filter)
		if err != nil {
			return eris.Wrap(err, "sessions list")
		}

		if len(sessions) == 0 {
			fmt.Fprintln(os.Stderr, "No sessions found.")
			return nil
		}

		formatSessionsList(os.Stdout, sessions)
		return nil
	},
}

// -- sessions delete --

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Delete a session and its history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		if err := st.DeleteSession(ctx, args[0]); err != nil {
			return eris.Wrap(err, "sessions delete")
		}
		fmt.Printf("Deleted session %s\n", args[0])
		return nil
	},
}

// -- sessions history --

var sessionsHistoryCmd = &cobra.Command{
	Use:   "history <session-id>",
	Short: "Show a session's state progression",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		events, err := st.SessionEvents(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "sessions history")
		}
		if len(events) == 0 {
			fmt.Fprintln(os.Stderr, "No history recorded.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "RECORDED\tSTATE\tGENERATION")
		for _, e := range events {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%d\n",
				e.RecordedAt.Format("2006-01-02 15:04:05"),
				e.State,
				e.Generation,
			)
		}
		return w.Flush()
	},
}

func init() {
	sessionsListCmd.Flags().String("state", "", "filter by conversation state")
	sessionsListCmd.Flags().String("destination", "", "filter by destination")
	sessionsListCmd.Flags().Int("limit", 50, "max number of sessions to display")

	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsDeleteCmd)
	sessionsCmd.AddCommand(sessionsHistoryCmd)
	rootCmd.AddCommand(sessionsCmd)
}

func formatSessionsList(out io.Writer, sessions []store.SessionSummary) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tDESTINATION\tNIGHTS\tSTATE\tUPDATED")
	_, _ = fmt.Fprintln(w, "--\t-----------\t------\t-----\t-------")

	for _, s := range sessions {
		dest := s.Destination
		if dest == "" {
			dest = "(not set)"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			s.ID,
			dest,
			s.Nights,
			s.State,
			s.UpdatedAt.Format("2006-01-02 15:04"),
		)
	}
	_ = w.Flush()
}
