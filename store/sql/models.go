package sqlstore

import (
	"time"

	"github.com/goliatone/go-botdir/core"
	"github.com/uptrace/bun"
)

type botRecord struct {
	bun.BaseModel `bun:"table:bots,alias:b"`

	ID            string     `bun:"id,pk"`
	DID           string     `bun:"did,notnull,unique"`
	Handle        string     `bun:"handle,notnull"`
	DisplayName   string     `bun:"display_name"`
	Description   string     `bun:"description"`
	OperatorID    string     `bun:"operator_id,notnull"`
	Categories    []string   `bun:"categories,type:jsonb"`
	ManifestURL   string     `bun:"manifest_url"`
	ListingStatus string     `bun:"listing_status,notnull"`
	TrustBadge    string     `bun:"trust_badge,notnull"`
	ListingSecret string     `bun:"listing_secret,notnull"`
	CreatedAt     time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt     time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete"`
}

func newBotRecord(bot core.Bot) *botRecord {
	return &botRecord{
		ID:            bot.ID,
		DID:           bot.DID,
		Handle:        bot.Handle,
		DisplayName:   bot.DisplayName,
		Description:   bot.Description,
		OperatorID:    bot.OperatorID,
		Categories:    bot.Categories,
		ManifestURL:   bot.ManifestURL,
		ListingStatus: string(bot.ListingStatus),
		TrustBadge:    string(bot.TrustBadge),
		ListingSecret: bot.ListingSecret,
		CreatedAt:     bot.CreatedAt,
		UpdatedAt:     bot.UpdatedAt,
	}
}

func (r *botRecord) toDomain() core.Bot {
	if r == nil {
		return core.Bot{}
	}
	return core.Bot{
		ID:            r.ID,
		DID:           r.DID,
		Handle:        r.Handle,
		DisplayName:   r.DisplayName,
		Description:   r.Description,
		OperatorID:    r.OperatorID,
		Categories:    r.Categories,
		ManifestURL:   r.ManifestURL,
		ListingStatus: core.ListingStatus(r.ListingStatus),
		TrustBadge:    core.TrustBadge(r.TrustBadge),
		ListingSecret: r.ListingSecret,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

type operatorRecord struct {
	bun.BaseModel `bun:"table:operators,alias:o"`

	ID                 string    `bun:"id,pk"`
	Name               string    `bun:"name,notnull"`
	Email              string    `bun:"email,notnull,unique"`
	APIKey             string    `bun:"api_key,notnull,unique"`
	VerificationStatus string    `bun:"verification_status,notnull"`
	CreatedAt          time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt          time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

func newOperatorRecord(operator core.Operator) *operatorRecord {
	return &operatorRecord{
		ID:                 operator.ID,
		Name:               operator.Name,
		Email:              operator.Email,
		APIKey:             operator.APIKey,
		VerificationStatus: operator.VerificationStatus,
		CreatedAt:          operator.CreatedAt,
		UpdatedAt:          operator.UpdatedAt,
	}
}

func (r *operatorRecord) toDomain() core.Operator {
	if r == nil {
		return core.Operator{}
	}
	return core.Operator{
		ID:                 r.ID,
		Name:               r.Name,
		Email:              r.Email,
		APIKey:             r.APIKey,
		VerificationStatus: r.VerificationStatus,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}

type manifestRecord struct {
	bun.BaseModel `bun:"table:bot_manifests,alias:bm"`

	BotID            string         `bun:"bot_id,pk"`
	Raw              map[string]any `bun:"raw,type:jsonb"`
	SchemaVersion    string         `bun:"schema_version"`
	ValidatedAt      *time.Time     `bun:"validated_at,nullzero"`
	Errors           []string       `bun:"errors,type:jsonb"`
	InteractionModes []string       `bun:"interaction_modes,type:jsonb"`
	DMEnabled        bool           `bun:"dm_enabled,notnull,default:false"`
	DMRetention      string         `bun:"dm_retention"`
	CreatedAt        time.Time      `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt        time.Time      `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

func newManifestRecord(record core.ManifestRecord) *manifestRecord {
	return &manifestRecord{
		BotID:            record.BotID,
		Raw:              record.Raw,
		SchemaVersion:    record.SchemaVersion,
		ValidatedAt:      record.ValidatedAt,
		Errors:           record.Errors,
		InteractionModes: record.InteractionModes,
		DMEnabled:        record.DMEnabled,
		DMRetention:      record.DMRetention,
		CreatedAt:        record.CreatedAt,
		UpdatedAt:        record.UpdatedAt,
	}
}

func (r *manifestRecord) toDomain() core.ManifestRecord {
	if r == nil {
		return core.ManifestRecord{}
	}
	return core.ManifestRecord{
		BotID:            r.BotID,
		Raw:              r.Raw,
		SchemaVersion:    r.SchemaVersion,
		ValidatedAt:      r.ValidatedAt,
		Errors:           r.Errors,
		InteractionModes: r.InteractionModes,
		DMEnabled:        r.DMEnabled,
		DMRetention:      r.DMRetention,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

type commandRecord struct {
	bun.BaseModel `bun:"table:bot_commands,alias:bc"`

	ID               string         `bun:"id,pk"`
	BotID            string         `bun:"bot_id,notnull"`
	Position         int            `bun:"position,notnull"`
	Name             string         `bun:"name,notnull"`
	Description      string         `bun:"description,notnull"`
	ArgsSchema       map[string]any `bun:"args_schema,type:jsonb"`
	ExampleMention   string         `bun:"example_mention"`
	ResponseContract string         `bun:"response_contract"`
	CreatedAt        time.Time      `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

func newCommandRecord(command core.CommandRecord, position int, now time.Time) *commandRecord {
	return &commandRecord{
		ID:               command.ID,
		BotID:            command.BotID,
		Position:         position,
		Name:             command.Name,
		Description:      command.Description,
		ArgsSchema:       command.ArgsSchema,
		ExampleMention:   command.ExampleMention,
		ResponseContract: command.ResponseContract,
		CreatedAt:        now,
	}
}

func (r *commandRecord) toDomain() core.CommandRecord {
	if r == nil {
		return core.CommandRecord{}
	}
	return core.CommandRecord{
		ID:               r.ID,
		BotID:            r.BotID,
		Name:             r.Name,
		Description:      r.Description,
		ArgsSchema:       r.ArgsSchema,
		ExampleMention:   r.ExampleMention,
		ResponseContract: r.ResponseContract,
	}
}

type challengeRecord struct {
	bun.BaseModel `bun:"table:verification_challenges,alias:vc"`

	ID          string    `bun:"id,pk"`
	BotID       string    `bun:"bot_id,notnull"`
	Nonce       string    `bun:"nonce,notnull"`
	IssuedAt    time.Time `bun:"issued_at,nullzero,notnull"`
	ExpiresAt   time.Time `bun:"expires_at,nullzero,notnull"`
	Status      string    `bun:"status,notnull"`
	EvidenceURI string    `bun:"evidence_uri"`
	UpdatedAt   time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

func newChallengeRecord(challenge core.VerificationChallenge) *challengeRecord {
	return &challengeRecord{
		ID:          challenge.ID,
		BotID:       challenge.BotID,
		Nonce:       challenge.Nonce,
		IssuedAt:    challenge.IssuedAt,
		ExpiresAt:   challenge.ExpiresAt,
		Status:      string(challenge.Status),
		EvidenceURI: challenge.EvidenceURI,
	}
}

func (r *challengeRecord) toDomain() core.VerificationChallenge {
	if r == nil {
		return core.VerificationChallenge{}
	}
	return core.VerificationChallenge{
		ID:          r.ID,
		BotID:       r.BotID,
		Nonce:       r.Nonce,
		IssuedAt:    r.IssuedAt,
		ExpiresAt:   r.ExpiresAt,
		Status:      core.ChallengeStatus(r.Status),
		EvidenceURI: r.EvidenceURI,
	}
}

type reputationRecord struct {
	bun.BaseModel `bun:"table:bot_reputation_metrics,alias:brm"`

	BotID                   string     `bun:"bot_id,pk"`
	ResponsivenessMS        *int64     `bun:"responsiveness_ms"`
	ManifestCompletenessPct int        `bun:"manifest_completeness_pct,notnull,default:0"`
	ReportCount             int        `bun:"report_count,notnull,default:0"`
	LastSeenAt              *time.Time `bun:"last_seen_at,nullzero"`
	UpdatedAt               time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

func (r *reputationRecord) toDomain() core.ReputationMetrics {
	if r == nil {
		return core.ReputationMetrics{}
	}
	return core.ReputationMetrics{
		BotID:                   r.BotID,
		ResponsivenessMS:        r.ResponsivenessMS,
		ManifestCompletenessPct: r.ManifestCompletenessPct,
		ReportCount:             r.ReportCount,
		LastSeenAt:              r.LastSeenAt,
	}
}
