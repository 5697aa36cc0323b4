package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/reunite/internal/db"
	"github.com/erazemk/reunite/internal/model"
)

func TestRecordAndListAudit(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	events := []model.AuditEvent{
		{Action: model.AuditItemUploaded, EntityType: model.EntityItem, EntityID: "item_1", Title: "Keys"},
		{Action: model.AuditItemApproved, EntityType: model.EntityItem, EntityID: "item_1", Title: "Keys", Actor: "admin"},
		{Action: model.AuditClaimSubmitted, EntityType: model.EntityClaim, EntityID: "claim_1", Details: "Claimant: Owner"},
	}
	for _, ev := range events {
		require.NoError(t, RecordAudit(ctx, database, ev))
	}

	got, err := ListAudit(ctx, database, 0)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, model.AuditClaimSubmitted, got[0].Action, "newest first")
	assert.Equal(t, "admin", got[1].Actor)
	assert.False(t, got[2].CreatedAt.IsZero(), "created_at should be set")

	limited, _ := ListAudit(ctx, database, 2)
	assert.Len(t, limited, 2)
}
