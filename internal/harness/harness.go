// Package harness runs end-to-end transform checks across the supported
// vendors, against the built-in fixtures, the live vendor APIs, or a mix of
// both. One line per vendor, PASS or FAIL, suitable for CI and for smoke
// testing field deployments.
package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/speedwagon-io/odse/internal/fetch"
	"github.com/speedwagon-io/odse/internal/fixtures"
	"github.com/speedwagon-io/odse/internal/oem"
	"github.com/speedwagon-io/odse/internal/validate"
)

// Mode selects where each vendor's payload comes from.
type Mode string

const (
	// ModeFixture uses the built-in fixtures only.
	ModeFixture Mode = "fixture"
	// ModeLive uses live API requests only and fails vendors without
	// environment configuration.
	ModeLive Mode = "live"
	// ModeMixed prefers live when configured and falls back to fixtures.
	ModeMixed Mode = "mixed"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(s)) {
	case ModeFixture:
		return ModeFixture, nil
	case ModeLive:
		return ModeLive, nil
	case ModeMixed:
		return ModeMixed, nil
	}
	return "", fmt.Errorf("invalid mode %q (fixture, live or mixed)", s)
}

// Outcome is one vendor's check result. Input records which payload source
// actually ran, which matters in mixed mode.
type Outcome struct {
	Source string
	Pass   bool
	Input  string
	Detail string
}

const (
	inputFixture = "fixture"
	inputLive    = "live"
)

// Select resolves a comma separated vendor selection, "all" or empty for
// every supported vendor. Unknown names fail the whole selection.
func Select(raw string) ([]string, error) {
	if raw == "" || strings.EqualFold(raw, "all") {
		return fixtures.Sources(), nil
	}

	var selected []string
	var unknown []string
	for _, part := range strings.Split(raw, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" {
			continue
		}
		if _, ok := fixtures.Get(name); !ok {
			unknown = append(unknown, name)
			continue
		}
		selected = append(selected, name)
	}

	if len(unknown) > 0 {
		return nil, fmt.Errorf("unknown OEM(s): %s", strings.Join(unknown, ", "))
	}
	return selected, nil
}

// Runner executes checks. Safe for a single Run at a time.
type Runner struct {
	log    *slog.Logger
	client *fetch.Client
	mode   Mode
}

func NewRunner(log *slog.Logger, mode Mode) *Runner {
	return &Runner{
		log:    log,
		client: fetch.NewClient(log),
		mode:   mode,
	}
}

// Run checks every named source concurrently and returns outcomes in the
// order the sources were given.
func (r *Runner) Run(ctx context.Context, sources []string) []Outcome {
	outcomes := make([]Outcome, len(sources))

	var wg sync.WaitGroup
	for i, source := range sources {
		wg.Add(1)
		go func(i int, source string) {
			defer wg.Done()
			outcomes[i] = r.runOne(ctx, source)
		}(i, source)
	}
	wg.Wait()

	return outcomes
}

func (r *Runner) Close() error {
	return r.client.Close()
}

func (r *Runner) runOne(ctx context.Context, source string) Outcome {
	r.log.Debug("running harness check",
		slog.String("source", source),
		slog.String("mode", string(r.mode)))

	cfg, hasLive := fetch.LookupConfig(source)
	useLive := r.mode == ModeLive || (r.mode == ModeMixed && hasLive)

	if useLive && !hasLive {
		return Outcome{Source: source, Input: inputLive, Detail: "live config missing"}
	}

	var data string
	var opts oem.Options
	input := inputFixture

	if useLive {
		input = inputLive
		payload, err := r.client.Fetch(ctx, cfg)
		if err != nil {
			return Outcome{Source: source, Input: input, Detail: err.Error()}
		}
		data = payload
		opts = cfg.Options
	} else {
		fixture, ok := fixtures.Get(source)
		if !ok {
			return Outcome{Source: source, Input: input, Detail: "no fixture"}
		}
		data = fixture.Payload
		opts = fixture.Options
	}

	records, err := oem.Transform(data, source, opts)
	if err != nil {
		return Outcome{Source: source, Input: input, Detail: err.Error()}
	}
	if len(records) == 0 {
		return Outcome{Source: source, Input: input, Detail: "transform returned no records"}
	}

	for i, result := range validate.Records(records, validate.Options{}) {
		if !result.Valid {
			return Outcome{Source: source, Input: input,
				Detail: fmt.Sprintf("record %d: %s", i, result.Errors[0].Message)}
		}
	}

	return Outcome{Source: source, Pass: true, Input: input,
		Detail: fmt.Sprintf("%d records", len(records))}
}

// Report writes one line per outcome in run order plus a trailing summary
// and returns the failure count.
func Report(w io.Writer, outcomes []Outcome) int {
	failures := 0
	for _, o := range outcomes {
		status := "PASS"
		if !o.Pass {
			status = "FAIL"
			failures++
		}
		fmt.Fprintf(w, "[%s] %s: %s: %s\n", status, o.Source, o.Input, o.Detail)
	}

	if failures > 0 {
		fmt.Fprintf(w, "\nResult: %d failure(s)\n", failures)
	} else {
		fmt.Fprintf(w, "\nResult: all selected transforms passed\n")
	}
	return failures
}
