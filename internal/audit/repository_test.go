package audit_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"power-assets/internal/audit"
	"power-assets/internal/inventory/infrastructure/sqlstore"
)

func TestRepositoryLogAndRecent(t *testing.T) {
	ctx := context.Background()
	store, err := sqlstore.OpenInMemory(ctx)
	require.NoError(t, err)
	defer store.Close()

	repo := audit.NewRepository(store.DB())
	meta := audit.MustMetadata(map[string]any{"devices_created": 3})
	require.NoError(t, repo.Log(ctx, audit.Entry{
		Actor:        "admin",
		Action:       audit.ActionImport,
		ResourceType: audit.ResourceImportBatch,
		Metadata:     meta,
	}))
	require.Error(t, repo.Log(ctx, audit.Entry{Actor: "admin"}))

	entries, err := repo.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, audit.ActionImport, entries[0].Action)
	require.Equal(t, audit.DigestJSON(meta), entries[0].PayloadDigest)
	require.JSONEq(t, `{"devices_created":3}`, string(entries[0].Metadata))
}
