package services

import (
	"errors"
	"sync"

	"github.com/partsdesk/partsdesk/internal/bom"
	"github.com/partsdesk/partsdesk/internal/docstore"
	"github.com/partsdesk/partsdesk/internal/logger"
)

// ErrAlreadySubscribed is returned by Subscribe on a controller that is already subscribed
var ErrAlreadySubscribed = errors.New("BOM sync is already subscribed")

// SyncState is the lifecycle state of a BOMSync
type SyncState int

// Sync states
const (
	SyncUnsubscribed SyncState = iota
	SyncSubscribed
)

// String returns the state name
func (s SyncState) String() string {
	if s == SyncSubscribed {
		return "subscribed"
	}
	return "unsubscribed"
}

// BOMUpdate is pushed on the feed every time the stored BOM changes
type BOMUpdate struct {
	ProjectID  string    `json:"projectId"`
	Categories bom.Tree  `json:"categories"`
	Stats      bom.Stats `json:"stats"`
	Version    uint64    `json:"version"`
}

// BOMSync mirrors the stored BOM of one project. Every snapshot replaces the
// whole local tree, including snapshots caused by this client's own writes.
// The feed holds at most one pending update; a newer one replaces it.
//
// A failing subscription is logged and ends the sync: the feed is closed and
// the controller returns to the unsubscribed state. It does not retry.
type BOMSync struct {
	store     *docstore.Store
	projectID string

	mu          sync.Mutex
	state       SyncState
	tree        bom.Tree
	version     uint64
	selected    string
	unsubscribe docstore.Unsubscribe
	updates     chan BOMUpdate
}

// NewBOMSync creates an unsubscribed controller for a project
func NewBOMSync(store *docstore.Store, projectID string) *BOMSync {
	return &BOMSync{
		store:     store,
		projectID: projectID,
		tree:      bom.Tree{},
	}
}

// Subscribe starts mirroring and returns the feed. The first update carries
// the state at subscription time.
func (c *BOMSync) Subscribe() (<-chan BOMUpdate, error) {
	if err := checkProjectID(c.projectID); err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.state == SyncSubscribed {
		c.mu.Unlock()
		return nil, ErrAlreadySubscribed
	}
	updates := make(chan BOMUpdate, 1)
	c.updates = updates
	c.state = SyncSubscribed
	c.mu.Unlock()

	unsubscribe := c.store.Subscribe(bomPath(c.projectID), func(snap docstore.Snapshot, err error) {
		c.onSnapshot(updates, snap, err)
	})

	c.mu.Lock()
	if c.updates == updates && c.state == SyncSubscribed {
		c.unsubscribe = unsubscribe
		c.mu.Unlock()
	} else {
		// The subscription failed before the handle was stored
		c.mu.Unlock()
		unsubscribe()
	}

	logger.Debugf("BOM sync subscribed to project %s", c.projectID)
	return updates, nil
}

// Unsubscribe stops mirroring and closes the feed. It is a no-op when not subscribed.
func (c *BOMSync) Unsubscribe() {
	c.mu.Lock()
	unsubscribe := c.stopLocked()
	c.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

func (c *BOMSync) stopLocked() docstore.Unsubscribe {
	if c.state != SyncSubscribed {
		return nil
	}
	c.state = SyncUnsubscribed
	close(c.updates)
	c.updates = nil
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	return unsubscribe
}

func (c *BOMSync) onSnapshot(updates chan BOMUpdate, snap docstore.Snapshot, err error) {
	var tree bom.Tree
	if err == nil {
		tree, err = decodeTree(snap)
	}

	c.mu.Lock()
	if c.updates != updates || c.state != SyncSubscribed {
		c.mu.Unlock()
		return
	}
	if err != nil {
		logger.Errorf("BOM subscription for project %s failed: %v", c.projectID, err)
		unsubscribe := c.stopLocked()
		c.mu.Unlock()
		if unsubscribe != nil {
			unsubscribe()
		}
		return
	}

	c.tree = tree
	c.version = snap.Version
	update := BOMUpdate{
		ProjectID:  c.projectID,
		Categories: tree.Clone(),
		Stats:      bom.ComputeStats(tree),
		Version:    snap.Version,
	}
	select {
	case <-updates:
	default:
	}
	updates <- update
	c.mu.Unlock()
}

// State returns the lifecycle state
func (c *BOMSync) State() SyncState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Tree returns a copy of the last received tree and its version
func (c *BOMSync) Tree() (bom.Tree, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tree.Clone(), c.version
}

// Select marks an item as the one shown in detail
func (c *BOMSync) Select(itemID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = itemID
}

// SelectedItemID returns the selected item id, empty when nothing is selected
func (c *BOMSync) SelectedItemID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected
}

// ClearSelection deselects the current item
func (c *BOMSync) ClearSelection() {
	c.Select("")
}
