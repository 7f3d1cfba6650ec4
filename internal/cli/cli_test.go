package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pfrederiksen/cornwall-collections/internal/collection"
	"github.com/pfrederiksen/cornwall-collections/internal/config"
	"github.com/pfrederiksen/cornwall-collections/internal/logger"
	"github.com/pfrederiksen/cornwall-collections/internal/scraper"
)

type fakeFetcher struct {
	collections []*collection.Collection
	err         error
	got         scraper.Property
}

func (f *fakeFetcher) Fetch(ctx context.Context, p scraper.Property) ([]*collection.Collection, error) {
	f.got = p
	return f.collections, f.err
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func sampleCollections() []*collection.Collection {
	return []*collection.Collection{
		collection.New(day(2026, time.October, 28), collection.ShortRubbish),
		collection.New(day(2026, time.October, 21), collection.ShortFood),
		collection.New(day(2026, time.October, 21), collection.ShortRecycling),
		collection.New(day(2026, time.November, 4), collection.ShortGarden),
	}
}

// clearEnv blanks every variable the command reads
func clearEnv(t *testing.T) {
	t.Helper()
	vars := []string{
		config.EnvUPRN, config.EnvPostcode, config.EnvHouse,
		config.EnvOutputFile, config.EnvLogLevel,
	}
	for _, v := range config.IncludeVars {
		vars = append(vars, v)
	}
	for _, v := range vars {
		t.Setenv(v, "")
	}
}

type harness struct {
	fetcher *fakeFetcher
	stdout  bytes.Buffer
	stderr  bytes.Buffer
	dir     string
}

func newHarness(t *testing.T, fetcher *fakeFetcher) *harness {
	t.Helper()
	clearEnv(t)

	prev := logger.Default()
	t.Cleanup(func() { logger.SetDefault(prev) })

	return &harness{fetcher: fetcher, dir: t.TempDir()}
}

func (h *harness) run(args ...string) error {
	cmd := newRootCmd(&app{
		fetcher: h.fetcher,
		stdout:  &h.stdout,
		stderr:  &h.stderr,
		now: func() time.Time {
			return time.Date(2026, time.October, 14, 8, 0, 0, 0, time.UTC)
		},
	})
	base := []string{"--output-dir", h.dir, "--env-file", filepath.Join(h.dir, "none.env")}
	cmd.SetArgs(append(base, args...))
	cmd.SetOut(&h.stderr)
	cmd.SetErr(&h.stderr)
	return cmd.Execute()
}

func TestRun_PrintsAndWritesCalendar(t *testing.T) {
	h := newHarness(t, &fakeFetcher{collections: sampleCollections()})
	t.Setenv("UPRN", "100040122222")

	if err := h.run(); err != nil {
		t.Fatalf("run() error: %v", err)
	}

	want := strings.Join([]string{
		"2026-10-21 - Food Waste Collection",
		"2026-10-21 - Recycling Collection",
		"2026-10-28 - Rubbish Recycling",
		"2026-11-04 - Garden Waste Collection",
	}, "\n") + "\n"
	if got := h.stdout.String(); got != want {
		t.Errorf("stdout = %q, want %q", got, want)
	}

	if h.fetcher.got.UPRN != "100040122222" {
		t.Errorf("fetcher got UPRN %q", h.fetcher.got.UPRN)
	}

	data, err := os.ReadFile(filepath.Join(h.dir, "cornwall_collection.ics"))
	if err != nil {
		t.Fatalf("reading calendar: %v", err)
	}
	if got := strings.Count(string(data), "BEGIN:VEVENT"); got != 4 {
		t.Errorf("calendar has %d events, want 4", got)
	}

	if !strings.Contains(h.stderr.String(), "Processing complete") {
		t.Errorf("stderr missing completion log: %s", h.stderr.String())
	}
}

func TestRun_IncludeSettings(t *testing.T) {
	h := newHarness(t, &fakeFetcher{collections: sampleCollections()})
	t.Setenv("UPRN", "1")
	t.Setenv("INCLUDE_GARDEN", "false")
	t.Setenv("INCLUDE_FOOD", "no")

	if err := h.run("--no-ics"); err != nil {
		t.Fatalf("run() error: %v", err)
	}

	out := h.stdout.String()
	if strings.Contains(out, "Garden") || strings.Contains(out, "Food") {
		t.Errorf("excluded types printed:\n%s", out)
	}
	if !strings.Contains(out, "Recycling Collection") {
		t.Errorf("recycling missing:\n%s", out)
	}
	if !strings.Contains(h.stderr.String(), "Filtered out 2 collection(s) based on INCLUDE_* settings") {
		t.Errorf("stderr missing filter log: %s", h.stderr.String())
	}
	if _, err := os.Stat(filepath.Join(h.dir, "cornwall_collection.ics")); !os.IsNotExist(err) {
		t.Error("--no-ics should not write a calendar")
	}
}

func TestRun_FilterLogSeparatesCauses(t *testing.T) {
	h := newHarness(t, &fakeFetcher{collections: sampleCollections()})
	t.Setenv("UPRN", "1")
	t.Setenv("INCLUDE_GARDEN", "false")

	if err := h.run("--no-ics", "--type", "rubbish,garden"); err != nil {
		t.Fatalf("run() error: %v", err)
	}

	logs := h.stderr.String()
	if !strings.Contains(logs, "Filtered out 1 collection(s) based on INCLUDE_* settings") {
		t.Errorf("stderr missing INCLUDE_* filter log: %s", logs)
	}
	if !strings.Contains(logs, "Filtered out 2 collection(s) based on type and date options") {
		t.Errorf("stderr missing type filter log: %s", logs)
	}
	if !strings.Contains(h.stdout.String(), "Rubbish Recycling") {
		t.Errorf("rubbish missing:\n%s", h.stdout.String())
	}
}

func TestRun_FlagsOverrideEnv(t *testing.T) {
	h := newHarness(t, &fakeFetcher{collections: sampleCollections()})
	t.Setenv("UPRN", "1")
	t.Setenv("OUTPUT_FILE", "env.ics")

	err := h.run("--uprn", "", "--postcode", "TR1 2AA", "--house", "12",
		"-o", "flag.ics", "--type", "rubbish", "--days", "30")
	if err != nil {
		t.Fatalf("run() error: %v", err)
	}

	want := scraper.Property{Postcode: "TR1 2AA", HouseNumberOrName: "12"}
	if h.fetcher.got != want {
		t.Errorf("fetcher got %+v, want %+v", h.fetcher.got, want)
	}
	if got := h.stdout.String(); got != "2026-10-28 - Rubbish Recycling\n" {
		t.Errorf("stdout = %q", got)
	}
	if _, err := os.Stat(filepath.Join(h.dir, "flag.ics")); err != nil {
		t.Errorf("flag output file not written: %v", err)
	}
	if _, err := os.Stat(filepath.Join(h.dir, "env.ics")); !os.IsNotExist(err) {
		t.Error("env output file should not be written when -o is set")
	}
}

func TestRun_JSON(t *testing.T) {
	h := newHarness(t, &fakeFetcher{collections: sampleCollections()})
	t.Setenv("UPRN", "1")

	if err := h.run("--format", "json", "--json-file", "out.json", "--sort", "type", "--no-ics"); err != nil {
		t.Fatalf("run() error: %v", err)
	}

	var result OutputResult
	if err := json.Unmarshal(h.stdout.Bytes(), &result); err != nil {
		t.Fatalf("stdout is not JSON: %v\n%s", err, h.stdout.String())
	}
	if result.Count != 4 || len(result.Collections) != 4 {
		t.Fatalf("result count = %d, want 4", result.Count)
	}
	if result.Collections[0].Type != collection.TypeFood || result.Collections[3].Type != collection.TypeRubbish {
		t.Errorf("collections not sorted by type: %s .. %s", result.Collections[0].Type, result.Collections[3].Type)
	}

	data, err := os.ReadFile(filepath.Join(h.dir, "out.json"))
	if err != nil {
		t.Fatalf("reading json file: %v", err)
	}
	if !bytes.Equal(bytes.TrimSpace(data), bytes.TrimSpace(h.stdout.Bytes())) {
		t.Error("json file should match stdout")
	}
}

func TestRun_NoCollections(t *testing.T) {
	h := newHarness(t, &fakeFetcher{})
	t.Setenv("UPRN", "1")

	if err := h.run(); err != nil {
		t.Fatalf("run() error: %v", err)
	}
	if h.stdout.Len() != 0 {
		t.Errorf("stdout = %q, want empty", h.stdout.String())
	}
	if !strings.Contains(h.stderr.String(), "No collections found") {
		t.Errorf("stderr missing warning: %s", h.stderr.String())
	}
	if _, err := os.Stat(filepath.Join(h.dir, "cornwall_collection.ics")); !os.IsNotExist(err) {
		t.Error("calendar should not be written when nothing was found")
	}
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name         string
		env          map[string]string
		args         []string
		fetchErr     error
		wantCategory string
	}{
		{
			name:         "no property",
			wantCategory: "Configuration or lookup error",
		},
		{
			name:         "bad format",
			env:          map[string]string{"UPRN": "1"},
			args:         []string{"--format", "xml"},
			wantCategory: "Configuration or lookup error",
		},
		{
			name:         "bad type",
			env:          map[string]string{"UPRN": "1"},
			args:         []string{"--type", "compost"},
			wantCategory: "Configuration or lookup error",
		},
		{
			name:         "bad reminder",
			env:          map[string]string{"UPRN": "1"},
			args:         []string{"--reminder", "late"},
			wantCategory: "Configuration or lookup error",
		},
		{
			name:         "unknown flag",
			args:         []string{"--colour", "red"},
			wantCategory: "Configuration or lookup error",
		},
		{
			name:         "postcode not found",
			env:          map[string]string{"POSTCODE": "AB1 2CD"},
			fetchErr:     &scraper.ArgumentNotFoundError{Argument: "postcode", Value: "AB1 2CD"},
			wantCategory: "Configuration or lookup error",
		},
		{
			name:         "address without uprn",
			env:          map[string]string{"POSTCODE": "AB1 2CD", "HOUSE_NUMBER_OR_NAME": "1"},
			fetchErr:     fmt.Errorf("looking up UPRN: %w", scraper.ErrBlankUPRN),
			wantCategory: "Configuration or lookup error",
		},
		{
			name:         "bad status",
			env:          map[string]string{"UPRN": "1"},
			fetchErr:     &scraper.StatusError{URL: "https://example.com", StatusCode: 503},
			wantCategory: "Network error while fetching data",
		},
		{
			name: "connection failure",
			env:  map[string]string{"UPRN": "1"},
			fetchErr: fmt.Errorf("fetching page: %w", &url.Error{
				Op:  "Get",
				URL: "https://www.cornwall.gov.uk/my-area/",
				Err: errors.New("connection refused"),
			}),
			wantCategory: "Network error while fetching data",
		},
		{
			name:         "something else",
			env:          map[string]string{"UPRN": "1"},
			fetchErr:     errors.New("boom"),
			wantCategory: "Unexpected error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, &fakeFetcher{err: tt.fetchErr})
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			err := h.run(tt.args...)
			if err == nil {
				t.Fatal("run() expected error, got nil")
			}
			if got := classify(err); got != tt.wantCategory {
				t.Errorf("classify(%v) = %q, want %q", err, got, tt.wantCategory)
			}
		})
	}
}

func TestWriteOutput_Text(t *testing.T) {
	result := &OutputResult{
		Collections: []*collection.Collection{
			collection.New(day(2026, time.October, 21), collection.ShortRecycling),
		},
		Count:    1,
		Filtered: 2,
	}

	var buf bytes.Buffer
	if err := WriteOutput(&buf, result, FormatText, true); err != nil {
		t.Fatalf("WriteOutput() error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"2026-10-21 - Recycling Collection\n",
		"UID: 20261021-RecyclingCollection@https://cornwall.gov.uk",
		"Icon: mdi:recycle",
		"Total: 1 collections (2 filtered out)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	if err := WriteOutput(&buf, result, OutputFormat("yaml"), false); err == nil {
		t.Error("WriteOutput() expected error for unknown format")
	}
}

func TestWriteOutput_JSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteOutput(&buf, &OutputResult{}, FormatJSON, false); err != nil {
		t.Fatalf("WriteOutput() error: %v", err)
	}
	if !strings.Contains(buf.String(), `"collections": []`) {
		t.Errorf("empty result should encode collections as [], got %s", buf.String())
	}
}
