package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hupe1980/agrimesh/core"
	"github.com/hupe1980/agrimesh/pipeline"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newAskCmd() *cobra.Command {
	var (
		sessionID string
		lat, lon  float64
		langs     []string
		speak     bool
	)

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer one question through the full pipeline and print the answer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(os.Stderr)
			if err != nil {
				return err
			}
			if !speak {
				cfg.Speech.TTS = "none"
			}

			a, err := newApp(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			req := pipeline.TextRequest{
				SessionID: sessionID,
				Text:      strings.Join(args, " "),
				Languages: langs,
			}
			if cmd.Flags().Changed("lat") && cmd.Flags().Changed("lon") {
				req.Coordinates = &core.Coordinates{Lat: lat, Lon: lon}
			}

			resp, err := a.mesh.HandleText(cmd.Context(), req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, wrap(resp.Text, terminalWidth(out)))
			fmt.Fprintf(cmd.ErrOrStderr(), "language: %s  session: %s\n", resp.Language, resp.SessionID)
			if resp.AudioFile != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "audio: %s/%s\n", a.artifacts.Dir(), resp.AudioFile)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&sessionID, "session", "", "conversation key (a new one is generated when empty)")
	flags.Float64Var(&lat, "lat", 0, "latitude hint")
	flags.Float64Var(&lon, "lon", 0, "longitude hint")
	flags.StringSliceVar(&langs, "lang", nil, "allowed answer languages, e.g. --lang hi,gu")
	flags.BoolVar(&speak, "speak", false, "synthesize the answer into the output directory")

	return cmd
}

// terminalWidth returns the column count of w, or 0 when w is not a terminal.
func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !isatty.IsTerminal(f.Fd()) {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return width
}

// wrap breaks lines of text at word boundaries so none exceeds width.
// A width of 0 leaves the text unchanged.
func wrap(text string, width int) string {
	if width <= 0 {
		return text
	}

	var b strings.Builder
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			b.WriteByte('\n')
		}
		col := 0
		for j, word := range strings.Fields(line) {
			n := len([]rune(word))
			if j > 0 {
				if col+1+n > width {
					b.WriteByte('\n')
					col = 0
				} else {
					b.WriteByte(' ')
					col++
				}
			}
			b.WriteString(word)
			col += n
		}
	}
	return b.String()
}
