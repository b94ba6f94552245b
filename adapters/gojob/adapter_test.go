package gojob

import (
	"testing"
	"time"

	"github.com/goliatone/go-botdir/core"
)

func TestToExecutionMessageEncodesDelay(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	msg := ToExecutionMessage(&core.JobExecutionMessage{
		JobID:          core.JobTypeVerificationCheck,
		Parameters:     map[string]any{"challenge_id": "ch-1"},
		IdempotencyKey: "ch-1:2",
		Delay:          60 * time.Second,
	}, func() time.Time { return now })

	raw, ok := msg.Parameters[notBeforeParam].(string)
	if !ok {
		t.Fatal("expected not-before marker in parameters")
	}
	deadline, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		t.Fatalf("parse not-before: %v", err)
	}
	if !deadline.Equal(now.Add(60 * time.Second)) {
		t.Fatalf("expected deadline 60s out, got %s", deadline)
	}
	if got := msg.Parameters["challenge_id"]; got != "ch-1" {
		t.Fatalf("payload parameters must survive, got %v", got)
	}
}

func TestToExecutionMessageWithoutDelay(t *testing.T) {
	msg := ToExecutionMessage(&core.JobExecutionMessage{
		JobID:      core.JobTypeManifestFetch,
		Parameters: map[string]any{"bot_id": "bot-1"},
	}, nil)
	if _, ok := msg.Parameters[notBeforeParam]; ok {
		t.Fatal("no marker expected without a delay")
	}
}

func TestRemainingDelay(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	msg := &core.JobExecutionMessage{Parameters: map[string]any{
		notBeforeParam: now.Add(45 * time.Second).Format(time.RFC3339Nano),
	}}
	if got := RemainingDelay(msg, clock); got != 45*time.Second {
		t.Fatalf("expected 45s remaining, got %s", got)
	}

	msg = &core.JobExecutionMessage{Parameters: map[string]any{
		notBeforeParam: now.Add(-time.Second).Format(time.RFC3339Nano),
	}}
	if got := RemainingDelay(msg, clock); got != 0 {
		t.Fatalf("elapsed deadline should report zero, got %s", got)
	}
	if _, ok := msg.Parameters[notBeforeParam]; ok {
		t.Fatal("elapsed marker should be stripped")
	}

	if got := RemainingDelay(&core.JobExecutionMessage{}, clock); got != 0 {
		t.Fatalf("no marker means no delay, got %s", got)
	}
}

func TestRetryPolicyNormalizeAttempt(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 3, MaxDelay: 2 * time.Minute, DeadLetterOnMax: true}

	normalized := policy.NormalizeAttempt(core.JobNackOptions{Delay: 10 * time.Minute, Requeue: true}, 1)
	if normalized.Delay != 2*time.Minute {
		t.Fatalf("expected delay capped at 2m, got %s", normalized.Delay)
	}
	if !normalized.Requeue {
		t.Fatal("attempt below ceiling should requeue")
	}

	exhausted := policy.NormalizeAttempt(core.JobNackOptions{Requeue: true}, 3)
	if exhausted.Requeue {
		t.Fatal("attempt at ceiling must not requeue")
	}
	if !exhausted.DeadLetter {
		t.Fatal("expected dead-letter at the retry ceiling")
	}
}
