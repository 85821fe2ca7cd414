package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/riskibarqy/matchday-sync/internal/domain/rawdata"
)

// payloadArchiver stores raw upstream pages for audit and replay.
type payloadArchiver struct {
	repo    rawdata.Repository
	enabled bool
	now     func() time.Time
}

func newPayloadArchiver(repo rawdata.Repository, enabled bool) *payloadArchiver {
	return &payloadArchiver{repo: repo, enabled: enabled && repo != nil, now: time.Now}
}

// archive never fails the run; problems become diagnostics.
func (a *payloadArchiver) archive(ctx context.Context, run *Run, provider, entityType, entityKey string, raw []byte) {
	if a == nil || !a.enabled || run.DryRun() || len(raw) == 0 {
		return
	}
	sum := sha256.Sum256(raw)
	item := rawdata.Payload{
		Provider:    provider,
		EntityType:  entityType,
		EntityKey:   entityKey,
		RunID:       run.ID(),
		PayloadJSON: raw,
		PayloadHash: hex.EncodeToString(sum[:]),
		FetchedAt:   a.now().UTC(),
	}
	if err := a.repo.UpsertMany(ctx, []rawdata.Payload{item}); err != nil {
		run.Diagnose("archive %s %s: %v", entityType, entityKey, err)
	}
}
