package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/use-agent/linkpeek/browser"
	"github.com/use-agent/linkpeek/config"
	"github.com/use-agent/linkpeek/fetch"
	"github.com/use-agent/linkpeek/models"
	"github.com/use-agent/linkpeek/scrape"
	"github.com/use-agent/linkpeek/webhook"
)

var flagFile string

var rootCmd = &cobra.Command{
	Use:   "linkpeek [urls...]",
	Short: "linkpeek — extract page titles and preview images from URLs",
	Long: `linkpeek fetches each URL, parses the static markup for a title and
preview image, and escalates to a shared headless browser only when the
static parse finds neither. One JSON record is printed per URL, in input
order; a failed URL becomes an inline error record and never aborts the
batch.

Examples:
  linkpeek https://example.com
  linkpeek https://a.example https://b.example
  linkpeek --file urls.txt`,
	Args:          cobra.ArbitraryArgs,
	RunE:          runPeek,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagFile, "file", "f", "", "Read URLs from a file, one per line (# comments skipped)")
}

func runPeek(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	initLogger(cfg.Log)

	urls := append([]string(nil), args...)
	if flagFile != "" {
		fromFile, err := readURLFile(flagFile)
		if err != nil {
			return err
		}
		urls = append(urls, fromFile...)
	}
	if len(urls) == 0 {
		return errors.New("no URLs given: pass URLs as arguments or use --file")
	}

	runID := uuid.NewString()
	slog.Info("run starting", "run_id", runID, "urls", len(urls))

	orch, _ := buildPipeline(cfg)
	// Release the browser on every exit path, the panic path included.
	defer orch.Close()

	records, err := orch.Run(cmd.Context(), urls)
	if err != nil {
		return err
	}

	if cfg.Webhook.URL != "" {
		event := &webhook.Event{
			Type:      "batch.completed",
			JobID:     runID,
			Timestamp: time.Now().Unix(),
			Data:      records,
		}
		if err := webhook.Deliver(cmd.Context(), cfg.Webhook.URL, cfg.Webhook.Secret, event); err != nil {
			slog.Warn("webhook delivery failed", "run_id", runID, "error", err)
		}
	}

	encoded, err := encodeRecords(records)
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, string(encoded))

	return exitErr(records)
}

// encodeRecords renders a single record as one JSON object and a batch
// as a JSON array.
func encodeRecords(records []models.Record) ([]byte, error) {
	var out any = records
	if len(records) == 1 {
		out = records[0]
	}
	return json.MarshalIndent(out, "", "  ")
}

// exitErr surfaces the failure of a lone URL as a run error, so shell
// callers get a non-zero exit without parsing the output. Failures
// inside a batch stay inline in the records.
func exitErr(records []models.Record) error {
	if len(records) == 1 && records[0].Failed() {
		return fmt.Errorf("scrape failed: %s", records[0].Err)
	}
	return nil
}

// buildPipeline wires the static fetcher, shared browser session, and
// rendered extractor into an orchestrator.
func buildPipeline(cfg *config.Config) (*scrape.Orchestrator, *browser.Session) {
	fetcher := fetch.NewClient(cfg.Fetcher, cfg.Browser.Proxy)
	session := browser.NewSession(cfg.Browser)
	rendered := browser.NewExtractor(session, cfg)
	orch := scrape.New(fetcher, rendered, session, scrape.NewMetrics())
	return orch, session
}

// readURLFile reads one URL per line, skipping blanks and # comments.
func readURLFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read url file: %w", err)
	}
	var urls []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	return urls, nil
}
