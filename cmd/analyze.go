package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/jobfit/internal/gap"
	"github.com/spigell/jobfit/internal/logger"
)

const (
	PromptExit = "exit"
)

var errMalformedRequest = errors.New("malformed request")

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Rank job descriptions from a request file and print the gap analysis as JSON",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return analyze(cmd)
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringP("input", "i", "", "request JSON file, '-' reads stdin")
	analyzeCmd.Flags().StringP("output", "o", "", "write the response to this file instead of stdout")
	analyzeCmd.Flags().Bool("interactive", false, "review the ranked jobs and their gaps interactively")

	analyzeCmd.MarkFlagRequired("input")
}

func analyze(cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer logger.Sync() //nolint:errcheck

	config, err := getConfig()
	if err != nil {
		return fmt.Errorf("getting a config: %w", err)
	}

	logger.Info("starting the analysis", zap.String("version", version))

	input, _ := cmd.Flags().GetString("input")
	in, closeIn, err := openInput(input)
	if err != nil {
		return err
	}
	defer closeIn()

	req, err := decodeRequest(in)
	if err != nil {
		return err
	}

	engine := newEngine(ctx, config.AI, logger)
	resp := engine.Analyze(ctx, req)

	output, _ := cmd.Flags().GetString("output")
	if err := writeResponse(cmd.OutOrStdout(), output, resp); err != nil {
		return err
	}

	if interactive, _ := cmd.Flags().GetBool("interactive"); interactive {
		return review(cmd.OutOrStdout(), resp)
	}
	return nil
}

func openInput(path string) (io.Reader, func(), error) {
	if path == "-" {
		return os.Stdin, func() {}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening request file: %w", err)
	}
	return f, func() { f.Close() }, nil
}

// decodeRequest reads and validates one analysis request. Shape problems wrap
// errMalformedRequest so hosts can report them as client errors.
func decodeRequest(r io.Reader) (gap.Request, error) {
	var req gap.Request

	dec := json.NewDecoder(r)
	if err := dec.Decode(&req); err != nil {
		return req, fmt.Errorf("%w: decoding json: %w", errMalformedRequest, err)
	}

	if err := req.Validate(); err != nil {
		return req, fmt.Errorf("%w: %w", errMalformedRequest, err)
	}

	return req, nil
}

func writeResponse(stdout io.Writer, path string, resp gap.Response) error {
	pretty, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding response: %w", err)
	}
	pretty = append(pretty, '\n')

	if path == "" {
		_, err = stdout.Write(pretty)
		return err
	}

	if err := os.WriteFile(path, pretty, 0o644); err != nil {
		return fmt.Errorf("writing response: %w", err)
	}
	return nil
}

func review(out io.Writer, resp gap.Response) error {
	if len(resp.Ranked) == 0 {
		return nil
	}

	items := make([]string, 0, len(resp.Ranked)+1)
	for _, item := range resp.Ranked {
		items = append(items, itemLabel(item))
	}
	items = append(items, PromptExit)

	for {
		jobPrompt := promptui.Select{
			Label: "Choose a job to review its gaps",
			Items: items,
			Size:  10,
		}

		idx, selected, err := jobPrompt.Run()
		if err != nil {
			if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
				return nil
			}
			return err
		}

		if selected == PromptExit {
			return nil
		}

		printItem(out, resp.Ranked[idx])
	}
}

func itemLabel(item gap.GapAnalysisItem) string {
	label := fmt.Sprintf("%3d %-6s %s", item.Score, item.Recommendation, item.Title)
	if item.Company != "" {
		label += " @ " + item.Company
	}
	return label + " (" + item.JobID + ")"
}

func printItem(out io.Writer, item gap.GapAnalysisItem) {
	fmt.Fprintf(out, "\n%s\n", itemLabel(item))
	fmt.Fprintf(out, "matched: %s\n", listOrDash(item.MatchedSkills))
	fmt.Fprintf(out, "missing: %s\n", listOrDash(item.MissingSkills))

	sections := []struct {
		name string
		gaps []gap.GapDetail
	}{
		{"resume gaps", item.ResumeGaps},
		{"preference gaps", item.PreferenceGaps},
		{"personality gaps", item.PersonalityGaps},
	}
	for _, s := range sections {
		if len(s.gaps) == 0 {
			continue
		}
		fmt.Fprintf(out, "%s:\n", s.name)
		for _, g := range s.gaps {
			fmt.Fprintf(out, "  [%s] %s\n", g.Severity, g.Gap)
			for _, e := range g.Evidence {
				fmt.Fprintf(out, "      - %s\n", e)
			}
			if g.HowToClose != "" {
				fmt.Fprintf(out, "      next: %s\n", g.HowToClose)
			}
		}
	}

	for _, note := range item.Notes {
		fmt.Fprintf(out, "note: %s\n", note)
	}
}

func listOrDash(values []string) string {
	if len(values) == 0 {
		return "-"
	}
	return strings.Join(values, ", ")
}
