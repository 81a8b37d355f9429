package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ankushKun/x402bay/internal/catalog"
	"github.com/ankushKun/x402bay/internal/content"
)

// dispatch streams the item's bytes. Entitlement was confirmed upstream;
// this path never re-checks it and never talks to the facilitator.
func (g *Gateway) dispatch(c *gin.Context, item *catalog.Item) {
	reader, size, err := g.content.Open(c.Request.Context(), item.Filename)
	if err != nil {
		if errors.Is(err, content.ErrNotFound) {
			g.logger.Error("content missing for item", "item", item.ID, "locator", item.Filename)
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found on disk"})
			return
		}
		g.logger.Error("content open failed", "item", item.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "download failed"})
		return
	}
	defer reader.Close()

	// Counter bump is best effort. Detached context: a mid-stream
	// disconnect should not lose the count for bytes already committed.
	if err := g.catalog.IncrementDownloadCount(context.WithoutCancel(c.Request.Context()), item.ID); err != nil {
		g.logger.Warn("download count not incremented", "item", item.ID, "error", err)
	}

	extraHeaders := map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", item.OriginalName),
	}
	c.DataFromReader(http.StatusOK, size, "application/octet-stream", reader, extraHeaders)
}
