package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/wanderplan/trip-cli/internal/export"
)

var (
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export <session-id>",
	Short: "Export a finished plan as markdown or a spreadsheet",
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

		sess, err := st.LoadSession(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "load session")
		}
		data := sess.Snapshot()

		switch exportFormat {
		case "markdown", "md":
			md, err := export.Markdown(data)
			if err != nil {
				return err
			}
			if exportOut == "" {
				fmt.Print(md)
				return nil
			}
			if err := os.WriteFile(exportOut, []byte(md), 0o644); err != nil {
				return eris.Wrapf(err, "write %s", exportOut)
			}
		case "xlsx":
			out := exportOut
			if out == "" {
				out = "trip.xlsx"
			}
			if err := export.WriteXLSX(data, out); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Wrote %s\n", out)
		default:
			return eris.Errorf("unsupported format: %s", exportFormat)
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "markdown", "output format (markdown, xlsx)")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output file (markdown defaults to stdout)")
	rootCmd.AddCommand(exportCmd)
}
