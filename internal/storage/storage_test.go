package storage

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/LJTian/StartupScanner/internal/aggregator"
	"github.com/LJTian/StartupScanner/internal/collector"
)

func TestToStartupMapsEntry(t *testing.T) {
	e := aggregator.EnrichedEntry{
		DirectoryEntry: collector.DirectoryEntry{
			Name:       "Acme",
			Slug:       "acme",
			BatchLabel: "Summer 2025",
			OneLiner:   strings.Repeat("x", 700),
			Stage:      "Seed",
			TeamSize:   4,
		},
		Founders: []collector.FounderDetail{{Name: "Alice Lee", Bio: "ML"}},
		Category: "Fintech",
	}

	row, err := toStartup(e)
	if err != nil {
		t.Fatalf("toStartup: %v", err)
	}
	if row.ID != "acme" || row.Batch != "Summer 2025" || row.Category != "Fintech" {
		t.Fatalf("unexpected row: %+v", row)
	}
	if n := len([]rune(row.Summary)); n != 600 {
		t.Fatalf("summary should be capped at 600 runes, got %d", n)
	}

	var founders []collector.FounderDetail
	if err := json.Unmarshal(row.Founders, &founders); err != nil {
		t.Fatalf("founders json: %v", err)
	}
	if len(founders) != 1 || founders[0].Name != "Alice Lee" {
		t.Fatalf("unexpected founders: %+v", founders)
	}
}

func TestToDigestCountsAndPayload(t *testing.T) {
	ds := &aggregator.Dataset{
		RunID:       "run-1",
		GeneratedAt: time.Date(2026, 10, 14, 8, 0, 0, 0, time.UTC),
		Entries:     []aggregator.EnrichedEntry{{}, {}},
		BlogPosts:   []collector.SignalItem{{URL: "a"}},
		HiringNews:  []collector.SignalItem{{URL: "b"}, {URL: "c"}, {URL: "d"}},
	}

	d, err := toDigest(ds)
	if err != nil {
		t.Fatalf("toDigest: %v", err)
	}
	if d.ID != "run-1" || d.StartupCount != 2 || d.BlogCount != 1 || d.FundraisingCount != 0 || d.HiringCount != 3 {
		t.Fatalf("unexpected digest counts: %+v", d)
	}

	var back aggregator.Dataset
	if err := json.Unmarshal(d.Payload, &back); err != nil {
		t.Fatalf("payload json: %v", err)
	}
	if back.RunID != "run-1" || len(back.HiringNews) != 3 {
		t.Fatalf("payload does not round-trip the dataset: %+v", back)
	}
}

func TestToValidUTF8(t *testing.T) {
	if got := toValidUTF8("ok\xffok"); got != "ok\uFFFDok" {
		t.Fatalf("toValidUTF8 = %q", got)
	}
}
