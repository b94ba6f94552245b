package core

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrBotNotFound       = errors.New("core: bot not found")
	ErrChallengeNotFound = errors.New("core: verification challenge not found")
	ErrManifestNotFound  = errors.New("core: manifest record not found")
	ErrOperatorNotFound  = errors.New("core: operator not found")
	ErrInvalidAPIKey     = errors.New("core: invalid api key")
	ErrInvalidListingSecret = errors.New("core: invalid listing secret")
)

type ListingStatus string

const (
	ListingStatusDraft     ListingStatus = "draft"
	ListingStatusActive    ListingStatus = "active"
	ListingStatusSuspended ListingStatus = "suspended"
	ListingStatusDelisted  ListingStatus = "delisted"
)

func ValidListingStatus(value string) bool {
	switch ListingStatus(strings.TrimSpace(strings.ToLower(value))) {
	case ListingStatusDraft, ListingStatusActive, ListingStatusSuspended, ListingStatusDelisted:
		return true
	}
	return false
}

type TrustBadge string

const (
	TrustBadgeNone     TrustBadge = "none"
	TrustBadgeVerified TrustBadge = "verified"
	TrustBadgeGold     TrustBadge = "gold"
)

// ChallengeStatus is the verification challenge state machine. pending is the
// only non-terminal state; the three terminal states are never left again.
//
/// failed and expired are distinct on purpose: failed means the feed could not
// be checked before the retry budget ran out, expired means the feed was
// checked and the proof never appeared (or the challenge aged out). Callers
// display the two differently, so they must not be merged.
type ChallengeStatus string

const (
	ChallengeStatusPending  ChallengeStatus = "pending"
	ChallengeStatusVerified ChallengeStatus = "verified"
	ChallengeStatusExpired  ChallengeStatus = "expired"
	ChallengeStatusFailed   ChallengeStatus = "failed"
)

func (s ChallengeStatus) Terminal() bool {
	switch s {
	case ChallengeStatusVerified, ChallengeStatusExpired, ChallengeStatusFailed:
		return true
	}
	return false
}

// Bot is a directory listing for one account on the social protocol. The
// listing secret authenticates the bot operator for self-service operations;
// it is never exposed through read paths.
type Bot struct {
	ID            string
	DID           string
	Handle        string
	DisplayName   string
	Description   string
	OperatorID    string
	Categories    []string
	ManifestURL   string
	ListingStatus ListingStatus
	TrustBadge    TrustBadge
	ListingSecret string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Operator struct {
	ID                 string
	Name               string
	Email              string
	APIKey             string
	VerificationStatus string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// VerificationChallenge tracks one proof-of-control attempt. Created by the
// issuer, mutated only by the poller, never deleted. EvidenceURI is set
// exactly once, together with the verified transition.
type VerificationChallenge struct {
	ID          string
	BotID       string
	Nonce       string
	IssuedAt    time.Time
	ExpiresAt   time.Time
	Status      ChallengeStatus
	EvidenceURI string
}

func (c VerificationChallenge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// ManifestRecord is the persisted projection of one ingestion run, unique per
// bot and replaced wholesale on every fetch. Errors is empty on success; on
// failure it carries the formatted failure list and the structured fields are
// zeroed.
type ManifestRecord struct {
	BotID            string
	Raw              map[string]any
	SchemaVersion    string
	ValidatedAt      *time.Time
	Errors           []string
	InteractionModes []string
	DMEnabled        bool
	DMRetention      string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (r ManifestRecord) Valid() bool {
	return len(r.Errors) == 0 && r.ValidatedAt != nil
}

// CommandRecord is one advertised command, owned exclusively by a bot. The
// full set for a bot is replaced atomically on each successful validation.
type CommandRecord struct {
	ID               string
	BotID            string
	Name             string
	Description      string
	ArgsSchema       map[string]any
	ExampleMention   string
	ResponseContract string
}

// ReputationMetrics is a read-only projection joined into bot detail reads.
type ReputationMetrics struct {
	BotID                   string
	ResponsivenessMS        *int64
	ManifestCompletenessPct int
	ReportCount             int
	LastSeenAt              *time.Time
}

// FeedPost is one public post read back from the subject's feed.
type FeedPost struct {
	URI       string
	Text      string
	CreatedAt time.Time
}

// ChallengeIssue is returned to the caller of IssueChallenge.
type ChallengeIssue struct {
	Nonce        string
	ExpiresAt    time.Time
	Instructions string
}

// BotFilter narrows public listing reads. ListingStatus defaults to active.
type BotFilter struct {
	Category      string
	Search        string
	TrustBadge    string
	ListingStatus string
	Limit         int
	Offset        int
}

type BotPage struct {
	Bots   []Bot
	Total  int
	Limit  int
	Offset int
}

// RegisterBotInput carries the operator-authenticated registration payload.
type RegisterBotInput struct {
	OperatorID  string
	DID         string
	Handle      string
	DisplayName string
	Description string
	Categories  []string
	ManifestURL string
}

// UpdateBotListingInput applies a partial listing update; nil fields are
// left untouched.
type UpdateBotListingInput struct {
	Handle        *string
	DisplayName   *string
	Description   *string
	Categories    *[]string
	ManifestURL   *string
	ListingStatus *string
}

type CreateOperatorInput struct {
	Name  string
	Email string
}
