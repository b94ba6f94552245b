package core

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// nonceBytes yields a 128-bit nonce rendered as 32 hex characters.
const nonceBytes = 16

// IssueChallenge creates a pending verification challenge for the bot and
// schedules the first poll after the configured initial delay. Multiple
// outstanding challenges per bot are allowed; status reads consult only the
// most recent one.
func (s *Service) IssueChallenge(ctx context.Context, botID string) (ChallengeIssue, error) {
	startedAt := s.clock()
	issue, challengeID, err := s.issueChallenge(ctx, botID)
	s.observeOperation(ctx, startedAt, "issue_challenge", err, map[string]any{
		"bot_id":       botID,
		"challenge_id": challengeID,
	})
	return issue, err
}

func (s *Service) issueChallenge(ctx context.Context, botID string) (ChallengeIssue, string, error) {
	if s == nil || s.bots == nil || s.challenges == nil {
		return ChallengeIssue{}, "", fmt.Errorf("core: bot and challenge stores are required")
	}
	if s.enqueuer == nil {
		return ChallengeIssue{}, "", fmt.Errorf("core: job enqueuer is required")
	}

	bot, err := s.bots.GetByID(ctx, strings.TrimSpace(botID))
	if err != nil {
		return ChallengeIssue{}, "", err
	}

	nonce, err := randomHex(nonceBytes)
	if err != nil {
		return ChallengeIssue{}, "", fmt.Errorf("core: nonce generation failed: %w", err)
	}

	now := s.clock()
	challenge := VerificationChallenge{
		ID:        uuid.NewString(),
		BotID:     bot.ID,
		Nonce:     nonce,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.config.Verification.NonceTTL),
		Status:    ChallengeStatusPending,
	}
	created, err := s.challenges.Create(ctx, challenge)
	if err != nil {
		return ChallengeIssue{}, "", err
	}

	if err := s.enqueueVerificationCheck(ctx, verificationCheckJob{
		ChallengeID: created.ID,
		BotID:       bot.ID,
		DID:         bot.DID,
		Nonce:       created.Nonce,
		Attempt:     1,
	}, s.config.Verification.InitialDelay); err != nil {
		return ChallengeIssue{}, created.ID, err
	}

	return ChallengeIssue{
		Nonce:     created.Nonce,
		ExpiresAt: created.ExpiresAt,
		Instructions: fmt.Sprintf(
			"Post a public message from @%s containing the code %s within %d minutes.",
			bot.Handle, created.Nonce, int(s.config.Verification.NonceTTL.Minutes()),
		),
	}, created.ID, nil
}

// LatestChallenge returns the bot's most recently issued challenge.
func (s *Service) LatestChallenge(ctx context.Context, botID string) (VerificationChallenge, error) {
	if s == nil || s.challenges == nil {
		return VerificationChallenge{}, fmt.Errorf("core: challenge store is required")
	}
	return s.challenges.LatestForBot(ctx, strings.TrimSpace(botID))
}

// verificationCheckJob is the poll-job payload. All fields travel in the
// queue message so the process can restart between attempts.
type verificationCheckJob struct {
	ChallengeID string
	BotID       string
	DID         string
	Nonce       string
	Attempt     int
}

func (s *Service) enqueueVerificationCheck(ctx context.Context, job verificationCheckJob, delay time.Duration) error {
	if s.enqueuer == nil {
		return fmt.Errorf("core: job enqueuer is required")
	}
	return s.enqueuer.Enqueue(ctx, &JobExecutionMessage{
		JobID: JobTypeVerificationCheck,
		Parameters: map[string]any{
			"challenge_id": job.ChallengeID,
			"bot_id":       job.BotID,
			"did":          job.DID,
			"nonce":        job.Nonce,
			"attempt":      job.Attempt,
		},
		// One key per (challenge, attempt) so an at-least-once redelivery of
		// attempt N cannot fan out into two copies of attempt N+1.
		IdempotencyKey: job.ChallengeID + ":" + strconv.Itoa(job.Attempt),
		Delay:          delay,
	})
}
