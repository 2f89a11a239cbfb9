package ports

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/aretw0/cerberus/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSnapshotStoreContract runs a suite of tests to verify that a SnapshotStore
// implementation adheres to the defined interface contract.
func RunSnapshotStoreContract(t *testing.T, store SnapshotStore) {
	ctx := context.Background()
	key := "contract-" + time.Now().Format("20060102150405")

	sample := func(title string) *domain.Snapshot {
		root := 1
		return &domain.Snapshot{
			Title:     title,
			Source:    "int main(void) { return 0; } // é ✓",
			Settings:  &domain.AnalysisSettings{Model: domain.ModelSymbolic, Rewrite: true},
			ActiveTab: domain.TabCore,
			Interactive: &domain.TreeSnapshot{
				LastNodeID: 2,
				TagDefs:    json.RawMessage(`{"tag":"x"}`),
				Nodes: []domain.NodeSnapshot{
					{ID: 1, Label: "init", Expanded: true},
					{ID: 2, Label: "step", State: json.RawMessage(`[1,2]`), Parent: &root},
				},
			},
		}
	}

	t.Run("Save and Load", func(t *testing.T) {
		snap := sample("main.c")
		require.NoError(t, store.Save(ctx, key, snap), "Save should not return error")

		loaded, err := store.Load(ctx, key)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, snap.Title, loaded.Title)
		assert.Equal(t, snap.Source, loaded.Source)
		assert.Equal(t, snap.Settings, loaded.Settings)
		assert.Equal(t, snap.ActiveTab, loaded.ActiveTab)
		require.NotNil(t, loaded.Interactive)
		assert.Len(t, loaded.Interactive.Nodes, 2)
		assert.JSONEq(t, `[1,2]`, string(loaded.Interactive.Nodes[1].State))
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, key, sample("renamed.c")))
		loaded, err := store.Load(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "renamed.c", loaded.Title)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+key)
		assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, key, sample("main.c")))
		require.NoError(t, store.Delete(ctx, key), "Delete should not return error")

		_, err := store.Load(ctx, key)
		assert.ErrorIs(t, err, domain.ErrSnapshotNotFound, "Load after Delete should return ErrSnapshotNotFound")
		assert.NoError(t, store.Delete(ctx, key), "Deleting twice should not fail")
	})

	t.Run("List", func(t *testing.T) {
		id1 := key + "-1"
		id2 := key + "-2"
		require.NoError(t, store.Save(ctx, id1, sample("a.c")))
		require.NoError(t, store.Save(ctx, id2, sample("b.c")))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		keys, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, keys, id1)
		assert.Contains(t, keys, id2)
	})

	t.Run("Isolation", func(t *testing.T) {
		snap := sample("iso.c")
		require.NoError(t, store.Save(ctx, key, snap))
		snap.Title = "mutated"
		snap.Settings.Rewrite = false

		loaded, err := store.Load(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "iso.c", loaded.Title)
		assert.True(t, loaded.Settings.Rewrite)
		_ = store.Delete(ctx, key)
	})
}
