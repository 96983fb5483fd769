package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partsdesk/partsdesk/internal/bom"
)

func nextUpdate(t *testing.T, updates <-chan BOMUpdate) BOMUpdate {
	t.Helper()
	select {
	case u, ok := <-updates:
		require.True(t, ok, "feed closed unexpectedly")
		return u
	case <-time.After(2 * time.Second):
		require.FailNow(t, "no BOM update received")
		return BOMUpdate{}
	}
}

// waitForVersion reads updates until one carries at least version
func waitForVersion(t *testing.T, updates <-chan BOMUpdate, version uint64) BOMUpdate {
	t.Helper()
	for {
		u := nextUpdate(t, updates)
		if u.Version >= version {
			return u
		}
	}
}

func TestBOMSync_Lifecycle(t *testing.T) {
	ts := NewTestSetup(t)
	defer ts.CleanUp()

	sync := NewBOMSync(ts.Store, "P1")
	assert.Equal(t, SyncUnsubscribed, sync.State())

	updates, err := sync.Subscribe()
	require.NoError(t, err)
	assert.Equal(t, SyncSubscribed, sync.State())

	_, err = sync.Subscribe()
	assert.ErrorIs(t, err, ErrAlreadySubscribed)

	// The first update is the state at subscription time
	first := nextUpdate(t, updates)
	assert.Equal(t, "P1", first.ProjectID)
	assert.Empty(t, first.Categories)
	assert.Equal(t, uint64(0), first.Version)

	sync.Unsubscribe()
	assert.Equal(t, SyncUnsubscribed, sync.State())
	_, ok := <-updates
	assert.False(t, ok, "feed is closed on unsubscribe")
	sync.Unsubscribe()

	// A controller can be subscribed again
	updates, err = sync.Subscribe()
	require.NoError(t, err)
	nextUpdate(t, updates)
	sync.Unsubscribe()
}

func TestBOMSync_SnapshotsReplaceTree(t *testing.T) {
	ts := NewTestSetup(t)
	defer ts.CleanUp()
	ts.addPart(t, "P1", "Sensors", "S-100")

	sync := NewBOMSync(ts.Store, "P1")
	updates, err := sync.Subscribe()
	require.NoError(t, err)
	defer sync.Unsubscribe()

	first := nextUpdate(t, updates)
	assert.Equal(t, uint64(1), first.Version)
	assert.Equal(t, 1, first.Stats.TotalParts)

	// This client's own write comes back through the feed
	itemID := ts.addPart(t, "P1", "Hardware", "H-1")
	u := waitForVersion(t, updates, 2)
	assert.Equal(t, []string{"Sensors", "Hardware"}, u.Categories.CategoryNames())
	assert.Equal(t, 2, u.Stats.TotalParts)

	// A write of another writer replaces the whole local tree
	_, err = ts.Store.Set(ts.ctx, bomPath("P1"), bom.Document{Categories: bom.Tree{{Name: "Only", Items: []bom.Item{}}}}, false)
	require.NoError(t, err)
	u = waitForVersion(t, updates, 3)
	assert.Equal(t, []string{"Only"}, u.Categories.CategoryNames())

	tree, version := sync.Tree()
	assert.Equal(t, uint64(3), version)
	assert.Equal(t, []string{"Only"}, tree.CategoryNames())
	_, found := bom.FindItem(tree, itemID)
	assert.False(t, found)
}

func TestBOMSync_SubscriptionErrorClosesFeed(t *testing.T) {
	ts := NewTestSetup(t)
	defer ts.CleanUp()

	sync := NewBOMSync(ts.Store, "P1")
	updates, err := sync.Subscribe()
	require.NoError(t, err)
	nextUpdate(t, updates)

	// A document that does not decode as a BOM fails the subscription
	_, err = ts.Store.Set(ts.ctx, bomPath("P1"), map[string]interface{}{"categories": "broken"}, false)
	require.NoError(t, err)

	select {
	case _, ok := <-updates:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		require.FailNow(t, "feed was not closed")
	}
	assert.Eventually(t, func() bool { return sync.State() == SyncUnsubscribed }, time.Second, 10*time.Millisecond)
}

func TestBOMSync_Selection(t *testing.T) {
	ts := NewTestSetup(t)
	defer ts.CleanUp()
	itemID := ts.addPart(t, "P1", "Sensors", "S-100")

	sync := NewBOMSync(ts.Store, "P1")
	sync.Select(itemID)
	assert.Equal(t, itemID, sync.SelectedItemID())

	_, err := ts.BOMService.DeletePart(ts.ctx, "P1", itemID, sync)
	require.NoError(t, err)
	assert.Empty(t, sync.SelectedItemID())
}

func TestBOMSync_RequiresProject(t *testing.T) {
	ts := NewTestSetup(t)
	defer ts.CleanUp()

	_, err := NewBOMSync(ts.Store, "").Subscribe()
	assert.ErrorIs(t, err, ErrProjectIDRequired)

	nested := NewBOMSync(ts.Store, "a/b/c")
	_, err = nested.Subscribe()
	assert.ErrorIs(t, err, ErrInvalidProjectID)
	assert.Equal(t, SyncUnsubscribed, nested.State())
}
