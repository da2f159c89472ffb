package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/daviddao/nexus/internal/display"
	"github.com/daviddao/nexus/internal/feature"
	"github.com/daviddao/nexus/internal/journal"
	"github.com/daviddao/nexus/internal/types"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type scanOutput struct {
	Summary    *types.MailSummary      `json:"summary"`
	Sentiment  *types.SentimentResult  `json:"sentiment"`
	Extraction *types.ExtractionResult `json:"extraction"`
	Activity   []journal.FeatureStats  `json:"activity"`
}

var scanFeatures = []types.Feature{types.FeatureMail, types.FeatureSentiment, types.FeatureExtract}

var scanCmd = &cobra.Command{
	Use:   "scan [FILE|-]",
	Short: "Summarize, analyze and extract deadlines from one text at once",
	Long: `Send the same text to the summarizer, the sentiment analyzer and the
deadline extractor concurrently, then print all three results.

A failed request does not stop the others; nx exits non-zero if any failed.

Examples:
  nx scan notice.txt
  nx scan - < mail.txt
  nx scan --json notice.txt`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := ""
		if len(args) == 1 {
			name = args[0]
		}
		text, err := readSource(cmd.InOrStdin(), name)
		if err != nil {
			return err
		}

		// Guards run here, before any request is issued.
		jobs := make(map[types.Feature]feature.Job, len(scanFeatures))
		for _, f := range scanFeatures {
			if err := shell.SetInput(f, text); err != nil {
				return err
			}
			job, ok := shell.Start(f)
			if !ok {
				return errEmptyInput
			}
			jobs[f] = job
		}

		var g errgroup.Group
		ctx := cmd.Context()
		for _, f := range scanFeatures {
			f := f
			job := jobs[f]
			g.Go(func() error {
				job(ctx)
				if shell.State(f) == feature.Failed {
					return fmt.Errorf("%s: %w", f, errBackend)
				}
				return nil
			})
		}
		runErr := g.Wait()

		out := scanOutput{}
		if m, ok := shell.Mail().Snapshot().Latest(); ok {
			out.Summary = &m
		}
		if r, ok := shell.Sentiment().Snapshot().Latest(); ok {
			out.Sentiment = &r
		}
		if r, ok := shell.Extraction().Snapshot().Latest(); ok {
			out.Extraction = &r
		}
		out.Activity, err = activity.Stats()
		if err != nil {
			return fmt.Errorf("journal stats: %w", err)
		}

		w := cmd.OutOrStdout()
		if jsonOutput {
			if err := writeJSON(w, out); err != nil {
				return err
			}
			return runErr
		}
		printScan(w, out)
		return runErr
	},
}

func printScan(w io.Writer, out scanOutput) {
	section := func(f types.Feature, body string) {
		display.Header(w, display.Title(f))
		if body == "" {
			body = display.ErrStyle.Render("Backend error")
		}
		fmt.Fprintln(w, indent(body))
		fmt.Fprintln(w)
	}

	var mail string
	if out.Summary != nil {
		mail = display.MailLine(*out.Summary, 0)
	}
	section(types.FeatureMail, mail)

	var sentiment string
	if out.Sentiment != nil {
		sentiment = display.SentimentBody(*out.Sentiment, true)
	}
	section(types.FeatureSentiment, sentiment)

	var extraction string
	if out.Extraction != nil {
		extraction = display.ExtractionBody(*out.Extraction, true)
	}
	section(types.FeatureExtract, extraction)

	if quietFlag {
		return
	}
	if out.Summary != nil && out.Sentiment != nil && out.Extraction != nil {
		display.SuccessMsg(w, "%d requests completed", len(scanFeatures))
	}
	if len(out.Activity) == 0 {
		return
	}
	display.SubHeader(w, "Session activity")
	fmt.Fprintln(w, activityTable(out.Activity))
}

func indent(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = "  " + l
	}
	return strings.Join(lines, "\n")
}

func init() {
	rootCmd.AddCommand(scanCmd)
}
