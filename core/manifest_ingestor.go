package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	glog "github.com/goliatone/go-logger/glog"
	"github.com/google/uuid"
	"github.com/goliatone/go-botdir/manifest"
)

// HTTPDoer is the client surface the ingestor needs; *http.Client satisfies it.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ManifestIngestor handles botdir.manifest.fetch jobs: fetch, bound, decode,
// validate, and persist a manifest in one pass. Every domain failure (network,
// HTTP status, size, JSON, validation) is resolved into a ManifestRecord with
// an error list and the job returns nil; only store failures surface as
// errors so the queue redelivers.
type ManifestIngestor struct {
	config    ManifestConfig
	logger    Logger
	client    HTTPDoer
	bots      BotStore
	manifests ManifestStore
	commands  CommandStore
	now       func() time.Time
}

type ManifestIngestorOption func(*ManifestIngestor)

func WithIngestorLogger(logger Logger) ManifestIngestorOption {
	return func(i *ManifestIngestor) {
		i.logger = logger
	}
}

func WithIngestorHTTPClient(client HTTPDoer) ManifestIngestorOption {
	return func(i *ManifestIngestor) {
		i.client = client
	}
}

func WithIngestorClock(now func() time.Time) ManifestIngestorOption {
	return func(i *ManifestIngestor) {
		i.now = now
	}
}

func NewManifestIngestor(
	cfg ManifestConfig,
	bots BotStore,
	manifests ManifestStore,
	commands CommandStore,
	options ...ManifestIngestorOption,
) (*ManifestIngestor, error) {
	if bots == nil || manifests == nil || commands == nil {
		return nil, fmt.Errorf("core: manifest ingestor requires bot, manifest, and command stores")
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = DefaultConfig().Manifest.FetchTimeout
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultConfig().Manifest.MaxBytes
	}
	ingestor := &ManifestIngestor{
		config:    cfg,
		bots:      bots,
		manifests: manifests,
		commands:  commands,
		now:       time.Now,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(ingestor)
	}
	ingestor.logger = glog.Ensure(ingestor.logger)
	if ingestor.client == nil {
		ingestor.client = &http.Client{Timeout: cfg.FetchTimeout}
	}
	if ingestor.now == nil {
		ingestor.now = time.Now
	}
	return ingestor, nil
}

var _ JobHandler = (*ManifestIngestor)(nil)

func (i *ManifestIngestor) Process(ctx context.Context, params map[string]any) error {
	if i == nil {
		return fmt.Errorf("core: manifest ingestor is nil")
	}
	botID := paramString(params, "bot_id")
	manifestURL := paramString(params, "manifest_url")
	if botID == "" || manifestURL == "" {
		// Malformed payloads cannot succeed on redelivery; drop them.
		i.logger.Warn("manifest fetch job missing bot_id or manifest_url")
		return nil
	}

	document, fetchErr := i.fetch(ctx, manifestURL)
	if fetchErr != "" {
		return i.recordFailure(ctx, botID, []string{fetchErr})
	}

	validated, err := manifest.Validate(document)
	if err != nil {
		var verr *manifest.ValidationError
		if errors.As(err, &verr) {
			return i.recordFailure(ctx, botID, verr.Messages())
		}
		return i.recordFailure(ctx, botID, []string{err.Error()})
	}

	return i.recordSuccess(ctx, botID, document, validated)
}

// fetch returns the decoded JSON document, or a recordable error string.
func (i *ManifestIngestor) fetch(ctx context.Context, manifestURL string) (map[string]any, string) {
	ctx, cancel := context.WithTimeout(ctx, i.config.FetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, manifestURL, nil)
	if err != nil {
		return nil, "network error: " + err.Error()
	}
	req.Header.Set("Accept", "application/json")

	resp, err := i.client.Do(req)
	if err != nil {
		return nil, "network error: " + err.Error()
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	// Size is enforced twice: the declared length may lie or be absent, so the
	// body read is bounded independently of the header check.
	if declared := strings.TrimSpace(resp.Header.Get("Content-Length")); declared != "" {
		if length, parseErr := strconv.ParseInt(declared, 10, 64); parseErr == nil && length > i.config.MaxBytes {
			return nil, fmt.Sprintf("manifest too large: %d bytes exceeds %d byte limit", length, i.config.MaxBytes)
		}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, i.config.MaxBytes+1))
	if err != nil {
		return nil, "network error: " + err.Error()
	}
	if int64(len(body)) > i.config.MaxBytes {
		return nil, fmt.Sprintf("manifest too large: exceeds %d byte limit", i.config.MaxBytes)
	}

	var document map[string]any
	if err := json.Unmarshal(body, &document); err != nil {
		return nil, "invalid JSON in manifest response"
	}
	return document, ""
}

// recordFailure upserts an error-bearing manifest record. Listing status is
// left untouched: a bot that was active stays active on a bad refetch.
func (i *ManifestIngestor) recordFailure(ctx context.Context, botID string, errors []string) error {
	now := i.now()
	_, err := i.manifests.Upsert(ctx, ManifestRecord{
		BotID:     botID,
		Errors:    errors,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return fmt.Errorf("core: manifest failure record upsert failed: %w", err)
	}
	i.logger.Info("manifest ingestion recorded failure",
		"bot_id", botID,
		"errors", strings.Join(errors, "; "),
	)
	return nil
}

func (i *ManifestIngestor) recordSuccess(ctx context.Context, botID string, raw map[string]any, m manifest.Manifest) error {
	now := i.now()
	validatedAt := now
	record := ManifestRecord{
		BotID:            botID,
		Raw:              raw,
		SchemaVersion:    m.SchemaVersion,
		ValidatedAt:      &validatedAt,
		InteractionModes: m.InteractionModeStrings(),
		DMEnabled:        m.DMEnabled(),
		DMRetention:      m.DMRetentionValue(),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if _, err := i.manifests.Upsert(ctx, record); err != nil {
		return fmt.Errorf("core: manifest record upsert failed: %w", err)
	}

	commands := make([]CommandRecord, 0, len(m.Commands))
	for _, cmd := range m.Commands {
		commands = append(commands, CommandRecord{
			ID:               uuid.NewString(),
			BotID:            botID,
			Name:             cmd.Name,
			Description:      cmd.Description,
			ArgsSchema:       cmd.ArgsSchema,
			ExampleMention:   cmd.ExampleMention,
			ResponseContract: cmd.ResponseContract,
		})
	}
	if err := i.commands.ReplaceForBot(ctx, botID, commands); err != nil {
		return fmt.Errorf("core: command replacement failed: %w", err)
	}

	activated, err := i.bots.ActivateIfDraft(ctx, botID)
	if err != nil {
		return fmt.Errorf("core: draft activation failed: %w", err)
	}
	i.logger.Info("manifest ingestion succeeded",
		"bot_id", botID,
		"commands", len(commands),
		"activated", activated,
	)
	return nil
}

func paramString(params map[string]any, key string) string {
	if params == nil {
		return ""
	}
	value, ok := params[key]
	if !ok || value == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(value))
}

// paramInt tolerates the float64 that JSON round-trips hand back for numbers.
func paramInt(params map[string]any, key string) int {
	if params == nil {
		return 0
	}
	switch value := params[key].(type) {
	case int:
		return value
	case int64:
		return int(value)
	case float64:
		return int(value)
	case json.Number:
		if parsed, err := value.Int64(); err == nil {
			return int(parsed)
		}
	case string:
		if parsed, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return parsed
		}
	}
	return 0
}
