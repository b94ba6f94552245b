package core

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

// VerificationPoller handles botdir.verification.check jobs. Each delivery
// advances one challenge through pending -> {verified, expired, failed}.
//
// The two exhaustion outcomes differ deliberately: a retry budget burned on
// feed-read failures ends as failed (the proof was never checkable), while a
// budget burned on nonce absence ends as expired (the proof was checked and
// never appeared).
type VerificationPoller struct {
	config     VerificationConfig
	logger     Logger
	challenges ChallengeStore
	bots       BotStore
	feed       FeedReader
	enqueuer   JobEnqueuer
	now        func() time.Time
}

type VerificationPollerOption func(*VerificationPoller)

func WithPollerLogger(logger Logger) VerificationPollerOption {
	return func(p *VerificationPoller) {
		p.logger = logger
	}
}

func WithPollerClock(now func() time.Time) VerificationPollerOption {
	return func(p *VerificationPoller) {
		p.now = now
	}
}

func NewVerificationPoller(
	cfg VerificationConfig,
	challenges ChallengeStore,
	bots BotStore,
	feed FeedReader,
	enqueuer JobEnqueuer,
	options ...VerificationPollerOption,
) (*VerificationPoller, error) {
	if challenges == nil || bots == nil || feed == nil || enqueuer == nil {
		return nil, fmt.Errorf("core: verification poller requires challenge store, bot store, feed reader, and enqueuer")
	}
	defaults := DefaultConfig().Verification
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = defaults.MaxRetries
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = defaults.RetryDelay
	}
	if cfg.FeedPageSize < 1 {
		cfg.FeedPageSize = defaults.FeedPageSize
	}
	poller := &VerificationPoller{
		config:     cfg,
		challenges: challenges,
		bots:       bots,
		feed:       feed,
		enqueuer:   enqueuer,
		now:        time.Now,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(poller)
	}
	poller.logger = glog.Ensure(poller.logger)
	if poller.now == nil {
		poller.now = time.Now
	}
	return poller, nil
}

var _ JobHandler = (*VerificationPoller)(nil)

func (p *VerificationPoller) Process(ctx context.Context, params map[string]any) error {
	if p == nil {
		return fmt.Errorf("core: verification poller is nil")
	}
	challengeID := paramString(params, "challenge_id")
	if challengeID == "" {
		p.logger.Warn("verification check job missing challenge_id")
		return nil
	}
	did := paramString(params, "did")
	nonce := paramString(params, "nonce")
	attempt := paramInt(params, "attempt")
	if attempt < 1 {
		attempt = 1
	}

	challenge, err := p.challenges.Get(ctx, challengeID)
	if err != nil {
		if errors.Is(err, ErrChallengeNotFound) {
			// Stale or duplicate delivery for a challenge that never landed.
			p.logger.Debug("verification check for unknown challenge", "challenge_id", challengeID)
			return nil
		}
		return fmt.Errorf("core: challenge load failed: %w", err)
	}
	if challenge.Status != ChallengeStatusPending {
		// Terminal transitions are single-shot; redelivery after one is a no-op.
		return nil
	}
	if nonce == "" {
		nonce = challenge.Nonce
	}
	if did == "" {
		did = paramString(params, "bot_id")
	}

	// Expiry takes precedence over the retry budget.
	if challenge.Expired(p.now()) {
		return p.finalize(ctx, challenge, ChallengeStatusExpired, "")
	}

	posts, feedErr := p.recentPosts(ctx, challenge, did)
	if feedErr != nil {
		if attempt < p.config.MaxRetries {
			return p.reschedule(ctx, challenge, did, nonce, attempt)
		}
		return p.finalize(ctx, challenge, ChallengeStatusFailed, "")
	}

	if uri, found := findNonce(posts, nonce); found {
		won, err := p.finalizeWon(ctx, challenge, ChallengeStatusVerified, uri)
		if err != nil {
			return err
		}
		if won {
			if err := p.bots.SetTrustBadge(ctx, challenge.BotID, TrustBadgeVerified); err != nil {
				return fmt.Errorf("core: trust badge update failed: %w", err)
			}
		}
		return nil
	}

	if attempt < p.config.MaxRetries {
		return p.reschedule(ctx, challenge, did, nonce, attempt)
	}
	return p.finalize(ctx, challenge, ChallengeStatusExpired, "")
}

func (p *VerificationPoller) recentPosts(ctx context.Context, challenge VerificationChallenge, did string) ([]FeedPost, error) {
	posts, err := p.feed.RecentPosts(ctx, did, p.config.FeedPageSize)
	if err != nil {
		p.logger.Warn("feed read failed",
			"challenge_id", challenge.ID,
			"did", did,
			"error", err.Error(),
		)
		return nil, err
	}
	return posts, nil
}

func (p *VerificationPoller) reschedule(ctx context.Context, challenge VerificationChallenge, did, nonce string, attempt int) error {
	next := attempt + 1
	err := p.enqueuer.Enqueue(ctx, &JobExecutionMessage{
		JobID: JobTypeVerificationCheck,
		Parameters: map[string]any{
			"challenge_id": challenge.ID,
			"bot_id":       challenge.BotID,
			"did":          did,
			"nonce":        nonce,
			"attempt":      next,
		},
		IdempotencyKey: challenge.ID + ":" + strconv.Itoa(next),
		Delay:          p.config.RetryDelay,
	})
	if err != nil {
		return fmt.Errorf("core: verification reschedule failed: %w", err)
	}
	return nil
}

// finalize performs the single terminal transition as a compare-and-swap:
// a concurrent redelivery that loses the swap observes false and discards
// its result.
func (p *VerificationPoller) finalize(ctx context.Context, challenge VerificationChallenge, next ChallengeStatus, evidenceURI string) error {
	_, err := p.finalizeWon(ctx, challenge, next, evidenceURI)
	return err
}

func (p *VerificationPoller) finalizeWon(ctx context.Context, challenge VerificationChallenge, next ChallengeStatus, evidenceURI string) (bool, error) {
	won, err := p.challenges.TransitionFromPending(ctx, challenge.ID, next, evidenceURI)
	if err != nil {
		return false, fmt.Errorf("core: challenge transition failed: %w", err)
	}
	if !won {
		p.logger.Debug("challenge already finalized by a concurrent worker",
			"challenge_id", challenge.ID,
			"status", string(next),
		)
		return false, nil
	}
	p.logger.Info("challenge finalized",
		"challenge_id", challenge.ID,
		"bot_id", challenge.BotID,
		"status", string(next),
	)
	return true, nil
}

// findNonce scans posts in delivery order and returns the URI of the first
// post whose text contains the literal nonce.
func findNonce(posts []FeedPost, nonce string) (string, bool) {
	if strings.TrimSpace(nonce) == "" {
		return "", false
	}
	for _, post := range posts {
		if strings.Contains(post.Text, nonce) {
			return post.URI, true
		}
	}
	return "", false
}
