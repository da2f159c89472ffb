package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/daviddao/nexus/internal/display"
	"github.com/daviddao/nexus/internal/feature"
	"github.com/daviddao/nexus/internal/types"
	"github.com/spf13/cobra"
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize [TEXT|-]",
	Short: "Summarize an email into a category and action item",
	Long: `Send an email body to the summarizer and print the result.

The subject sent with the request comes from mail.subject in the config
(default "Input").

Examples:
  nx summarize "Submit the hostel form by Friday"
  pbpaste | nx summarize -
  nx summarize --json < mail.txt`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOnce(cmd, args, types.FeatureMail, func(out io.Writer) error {
			m, ok := shell.Mail().Snapshot().Latest()
			if !ok {
				return errBackend
			}
			if jsonOutput {
				return writeJSON(out, m)
			}
			fmt.Fprintln(out, display.MailLine(m, 0))
			if !quietFlag && m.IsUrgent {
				fmt.Fprintln(out, display.UrgentStyle.Render("  urgent"))
			}
			return nil
		})
	},
}

var sentimentCmd = &cobra.Command{
	Use:   "sentiment [TEXT|-]",
	Short: "Analyze the sentiment of a piece of feedback",
	Long: `Send text to the sentiment analyzer and print the result.

Examples:
  nx sentiment "Food was great!"
  nx sentiment --json "The wifi is down again"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOnce(cmd, args, types.FeatureSentiment, func(out io.Writer) error {
			r, ok := shell.Sentiment().Snapshot().Latest()
			if !ok {
				return errBackend
			}
			if jsonOutput {
				return writeJSON(out, r)
			}
			fmt.Fprintln(out, display.SentimentBody(r, true))
			return nil
		})
	},
}

var extractCmd = &cobra.Command{
	Use:   "extract [TEXT|-]",
	Short: "Extract deadlines and events from text",
	Long: `Send text to the deadline extractor and print what it found.

Examples:
  nx extract "Quiz on 12th March, submit by 5 PM"
  nx extract - < notice.txt`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOnce(cmd, args, types.FeatureExtract, func(out io.Writer) error {
			r, ok := shell.Extraction().Snapshot().Latest()
			if !ok {
				return errBackend
			}
			if jsonOutput {
				return writeJSON(out, r)
			}
			fmt.Fprintln(out, display.ExtractionBody(r, true))
			return nil
		})
	},
}

// runOnce reads input, performs one submit for f and prints the result.
func runOnce(cmd *cobra.Command, args []string, f types.Feature, print func(io.Writer) error) error {
	text, err := readText(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}
	if err := submit(cmd.Context(), f, text); err != nil {
		return err
	}
	return print(cmd.OutOrStdout())
}

// submit runs one request for f to completion on the calling goroutine.
func submit(ctx context.Context, f types.Feature, text string) error {
	if err := shell.SetInput(f, text); err != nil {
		return err
	}
	job, ok := shell.Start(f)
	if !ok {
		return errEmptyInput
	}
	job(ctx)
	if shell.State(f) == feature.Failed {
		return fmt.Errorf("%s: %w", f, errBackend)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	rootCmd.AddCommand(summarizeCmd)
	rootCmd.AddCommand(sentimentCmd)
	rootCmd.AddCommand(extractCmd)
}
