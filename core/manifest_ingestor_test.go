package core

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func validManifestJSON() string {
	return `{
		"name": "helper",
		"did": "did:plc:abc",
		"operator": "ops@example.com",
		"commands": [
			{"name": "summarize", "description": "Summarize a thread"},
			{"name": "remind", "description": "Set a reminder"}
		],
		"interaction_modes": ["mention", "reply"]
	}`
}

func newTestIngestor(t *testing.T, bots *memBotStore, manifests *memManifestStore, commands *memCommandStore) *ManifestIngestor {
	t.Helper()
	ingestor, err := NewManifestIngestor(DefaultConfig().Manifest, bots, manifests, commands,
		WithIngestorClock(fixedClock(time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC))),
	)
	if err != nil {
		t.Fatalf("NewManifestIngestor returned error: %v", err)
	}
	return ingestor
}

func ingestParams(botID, url string) map[string]any {
	return map[string]any{"bot_id": botID, "manifest_url": url}
}

func TestIngestorSuccessReplacesCommandsAndActivatesDraft(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, validManifestJSON())
	}))
	defer server.Close()

	bots := newMemBotStore(Bot{ID: "bot-1", ListingStatus: ListingStatusDraft})
	manifests := newMemManifestStore()
	commands := newMemCommandStore()
	commands.commands["bot-1"] = []CommandRecord{{BotID: "bot-1", Name: "stale"}}
	ingestor := newTestIngestor(t, bots, manifests, commands)

	if err := ingestor.Process(context.Background(), ingestParams("bot-1", server.URL)); err != nil {
		t.Fatalf("Process returned error: %v", err)
	}

	record, err := manifests.GetByBot(context.Background(), "bot-1")
	if err != nil {
		t.Fatalf("GetByBot returned error: %v", err)
	}
	if !record.Valid() {
		t.Fatalf("expected valid record, got errors %v", record.Errors)
	}
	if record.SchemaVersion != "1.0" {
		t.Fatalf("expected defaulted schema version, got %q", record.SchemaVersion)
	}
	if len(record.InteractionModes) != 2 {
		t.Fatalf("expected derived interaction modes, got %v", record.InteractionModes)
	}

	stored, _ := commands.ListForBot(context.Background(), "bot-1")
	if len(stored) != 2 || stored[0].Name != "summarize" || stored[1].Name != "remind" {
		t.Fatalf("expected full command replacement in order, got %+v", stored)
	}

	bot, _ := bots.GetByID(context.Background(), "bot-1")
	if bot.ListingStatus != ListingStatusActive {
		t.Fatalf("expected draft activated, got %s", bot.ListingStatus)
	}
}

func TestIngestorHTTPErrorRecorded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	bots := newMemBotStore(Bot{ID: "bot-1", ListingStatus: ListingStatusActive})
	manifests := newMemManifestStore()
	commands := newMemCommandStore()
	ingestor := newTestIngestor(t, bots, manifests, commands)

	if err := ingestor.Process(context.Background(), ingestParams("bot-1", server.URL)); err != nil {
		t.Fatalf("Process returned error: %v", err)
	}

	record, _ := manifests.GetByBot(context.Background(), "bot-1")
	if len(record.Errors) != 1 || record.Errors[0] != "HTTP 404: Not Found" {
		t.Fatalf("expected HTTP error recorded, got %v", record.Errors)
	}
	if record.Valid() {
		t.Fatal("error record must not be valid")
	}
	// A failed refetch leaves the listing status alone.
	bot, _ := bots.GetByID(context.Background(), "bot-1")
	if bot.ListingStatus != ListingStatusActive {
		t.Fatalf("listing status should be untouched, got %s", bot.ListingStatus)
	}
	if commands.replaces != 0 {
		t.Fatal("commands must not be replaced on failure")
	}
}

func TestIngestorNetworkErrorRecorded(t *testing.T) {
	bots := newMemBotStore(Bot{ID: "bot-1"})
	manifests := newMemManifestStore()
	ingestor := newTestIngestor(t, bots, manifests, newMemCommandStore())

	if err := ingestor.Process(context.Background(), ingestParams("bot-1", "http://127.0.0.1:1/manifest.json")); err != nil {
		t.Fatalf("Process returned error: %v", err)
	}

	record, _ := manifests.GetByBot(context.Background(), "bot-1")
	if len(record.Errors) != 1 || !strings.HasPrefix(record.Errors[0], "network error: ") {
		t.Fatalf("expected network error recorded, got %v", record.Errors)
	}
}

func TestIngestorRejectsDeclaredOversize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Length", "1048576")
		w.WriteHeader(http.StatusOK)
		w.Write(make([]byte, 1048576))
	}))
	defer server.Close()

	manifests := newMemManifestStore()
	ingestor := newTestIngestor(t, newMemBotStore(Bot{ID: "bot-1"}), manifests, newMemCommandStore())

	if err := ingestor.Process(context.Background(), ingestParams("bot-1", server.URL)); err != nil {
		t.Fatalf("Process returned error: %v", err)
	}

	record, _ := manifests.GetByBot(context.Background(), "bot-1")
	want := "manifest too large: 1048576 bytes exceeds 524288 byte limit"
	if len(record.Errors) != 1 || record.Errors[0] != want {
		t.Fatalf("expected %q, got %v", want, record.Errors)
	}
}

func TestIngestorRejectsActualOversizeWithoutHeader(t *testing.T) {
	// Chunked response: no Content-Length, so only the bounded body read can
	// catch the oversize document.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		flusher := w.(http.Flusher)
		chunk := []byte(strings.Repeat("a", 64*1024))
		for i := 0; i < 9; i++ {
			w.Write(chunk)
			flusher.Flush()
		}
	}))
	defer server.Close()

	manifests := newMemManifestStore()
	ingestor := newTestIngestor(t, newMemBotStore(Bot{ID: "bot-1"}), manifests, newMemCommandStore())

	if err := ingestor.Process(context.Background(), ingestParams("bot-1", server.URL)); err != nil {
		t.Fatalf("Process returned error: %v", err)
	}

	record, _ := manifests.GetByBot(context.Background(), "bot-1")
	want := "manifest too large: exceeds 524288 byte limit"
	if len(record.Errors) != 1 || record.Errors[0] != want {
		t.Fatalf("expected %q, got %v", want, record.Errors)
	}
}

func TestIngestorInvalidJSONRecorded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "{not json")
	}))
	defer server.Close()

	manifests := newMemManifestStore()
	ingestor := newTestIngestor(t, newMemBotStore(Bot{ID: "bot-1"}), manifests, newMemCommandStore())

	if err := ingestor.Process(context.Background(), ingestParams("bot-1", server.URL)); err != nil {
		t.Fatalf("Process returned error: %v", err)
	}

	record, _ := manifests.GetByBot(context.Background(), "bot-1")
	if len(record.Errors) != 1 || record.Errors[0] != "invalid JSON in manifest response" {
		t.Fatalf("expected invalid JSON error, got %v", record.Errors)
	}
}

func TestIngestorValidationErrorsRecordedPerField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"did": "did:plc:abc", "operator": "ops", "commands": [], "interaction_modes": ["bogus"]}`)
	}))
	defer server.Close()

	manifests := newMemManifestStore()
	ingestor := newTestIngestor(t, newMemBotStore(Bot{ID: "bot-1"}), manifests, newMemCommandStore())

	if err := ingestor.Process(context.Background(), ingestParams("bot-1", server.URL)); err != nil {
		t.Fatalf("Process returned error: %v", err)
	}

	record, _ := manifests.GetByBot(context.Background(), "bot-1")
	if len(record.Errors) != 2 {
		t.Fatalf("expected two field errors, got %v", record.Errors)
	}
	if record.Errors[0] != "name: is required" {
		t.Fatalf("expected name error first, got %q", record.Errors[0])
	}
	if !strings.HasPrefix(record.Errors[1], "interaction_modes.0: ") {
		t.Fatalf("expected interaction mode error, got %q", record.Errors[1])
	}
}

func TestIngestorReplayIsIdempotent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, validManifestJSON())
	}))
	defer server.Close()

	bots := newMemBotStore(Bot{ID: "bot-1", ListingStatus: ListingStatusDraft})
	manifests := newMemManifestStore()
	commands := newMemCommandStore()
	ingestor := newTestIngestor(t, bots, manifests, commands)

	for i := 0; i < 3; i++ {
		if err := ingestor.Process(context.Background(), ingestParams("bot-1", server.URL)); err != nil {
			t.Fatalf("Process run %d returned error: %v", i, err)
		}
	}

	if len(manifests.records) != 1 {
		t.Fatalf("expected a single manifest row, got %d", len(manifests.records))
	}
	stored, _ := commands.ListForBot(context.Background(), "bot-1")
	if len(stored) != 2 {
		t.Fatalf("expected command set replaced, not accumulated: %d", len(stored))
	}
	bot, _ := bots.GetByID(context.Background(), "bot-1")
	if bot.ListingStatus != ListingStatusActive {
		t.Fatalf("repeat activation should stay active, got %s", bot.ListingStatus)
	}
}

func TestIngestorStoreFailureSurfacesForRedelivery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, validManifestJSON())
	}))
	defer server.Close()

	manifests := newMemManifestStore()
	manifests.failOn = fmt.Errorf("connection reset")
	ingestor := newTestIngestor(t, newMemBotStore(Bot{ID: "bot-1"}), manifests, newMemCommandStore())

	if err := ingestor.Process(context.Background(), ingestParams("bot-1", server.URL)); err == nil {
		t.Fatal("store failure must surface so the queue redelivers")
	}
}

func TestIngestorDropsMalformedPayload(t *testing.T) {
	ingestor := newTestIngestor(t, newMemBotStore(), newMemManifestStore(), newMemCommandStore())
	if err := ingestor.Process(context.Background(), map[string]any{"bot_id": "bot-1"}); err != nil {
		t.Fatalf("malformed payload should be dropped, got %v", err)
	}
}
