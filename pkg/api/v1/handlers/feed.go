package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"time"

	fiber "github.com/gofiber/fiber/v2"

	"github.com/partsdesk/partsdesk/internal/docstore"
	"github.com/partsdesk/partsdesk/internal/logger"
	"github.com/partsdesk/partsdesk/internal/services"
)

// Server-sent event settings of the BOM feed
const (
	FeedEventBOM           = "bom"
	ContentTypeEventStream = "text/event-stream"
	DefaultFeedKeepAlive   = 15 * time.Second
)

// FeedHandler streams BOM snapshots to clients as server-sent events. Each
// connection runs its own BOMSync, so every client sees the full tree after
// every committed change, its own writes included.
type FeedHandler struct {
	store     *docstore.Store
	ctx       context.Context
	keepAlive time.Duration
}

// NewFeedHandler creates a feed handler. Open streams end when ctx is done.
func NewFeedHandler(ctx context.Context, store *docstore.Store) *FeedHandler {
	return &FeedHandler{
		store:     store,
		ctx:       ctx,
		keepAlive: DefaultFeedKeepAlive,
	}
}

// WithKeepAlive sets the interval of keepalive comments
func (h *FeedHandler) WithKeepAlive(d time.Duration) *FeedHandler {
	h.keepAlive = d
	return h
}

// StreamBOM subscribes to the BOM of a project and writes one "bom" event per snapshot
func (h *FeedHandler) StreamBOM(c *fiber.Ctx) error {
	projectID := pathParam(c, "id")
	mirror := services.NewBOMSync(h.store, projectID)
	updates, err := mirror.Subscribe()
	if err != nil {
		return respondWithError(c, err, ErrMsgBOMFeedFailed)
	}

	c.Set(fiber.HeaderContentType, ContentTypeEventStream)
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	done := h.ctx.Done()
	keepAlive := h.keepAlive
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer mirror.Unsubscribe()

		ticker := time.NewTicker(keepAlive)
		defer ticker.Stop()

		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				if err := writeEvent(w, FeedEventBOM, update.Version, update); err != nil {
					logger.Debugf("BOM feed of project %s closed: %v", projectID, err)
					return
				}
			case <-ticker.C:
				if _, err := w.WriteString(": keepalive\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					logger.Debugf("BOM feed of project %s closed: %v", projectID, err)
					return
				}
			case <-done:
				return
			}
		}
	})
	return nil
}

func writeEvent(w *bufio.Writer, event string, id uint64, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", id, event, data); err != nil {
		return err
	}
	return w.Flush()
}
