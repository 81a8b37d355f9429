// Package server wires the HTTP routes. The download gateway is the core;
// the item-metadata and purchase-history endpoints are thin reads over the
// same stores.
package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ankushKun/x402bay/internal/catalog"
	"github.com/ankushKun/x402bay/internal/gateway"
	"github.com/ankushKun/x402bay/internal/identity"
	"github.com/ankushKun/x402bay/internal/ledger"
)

// Server holds the route handlers' dependencies.
type Server struct {
	gateway  *gateway.Gateway
	resolver *catalog.Resolver
	ledger   ledger.Ledger
	identity identity.Verifier
	logger   *slog.Logger
}

// New constructs a Server.
func New(gw *gateway.Gateway, store catalog.Store, l ledger.Ledger, id identity.Verifier, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		gateway:  gw,
		resolver: catalog.NewResolver(store),
		ledger:   l,
		identity: id,
		logger:   logger,
	}
}

// Router returns the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", s.health)
	router.GET("/resource/:id", s.gateway.Download)
	router.GET("/api/items/:id", s.itemMetadata)
	router.GET("/api/user/purchases", s.userPurchases)

	return router
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// itemMetadata returns the public listing view of an item. The content
// locator never leaves the service.
func (s *Server) itemMetadata(c *gin.Context) {
	item, err := s.resolver.Resolve(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrInvalidID):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item id"})
		case errors.Is(err, catalog.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
		default:
			s.logger.Error("item lookup failed", "id", c.Param("id"), "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":            item.ID,
		"name":          item.Name,
		"description":   item.Description,
		"price":         item.Price,
		"token":         item.Token,
		"originalName":  item.OriginalName,
		"size":          item.Size,
		"downloadCount": item.DownloadCount,
		"uploadedAt":    item.UploadedAt,
	})
}

// userPurchases lists the authenticated buyer's settled purchases.
func (s *Server) userPurchases(c *gin.Context) {
	address, ok := s.identity.Verify(c.Request)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized: please sign in with your wallet"})
		return
	}

	purchases, err := s.ledger.ListByBuyer(c.Request.Context(), address)
	if err != nil {
		s.logger.Error("purchase listing failed", "buyer", address, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list purchases"})
		return
	}
	if purchases == nil {
		purchases = []ledger.Purchase{}
	}
	c.JSON(http.StatusOK, gin.H{"purchases": purchases})
}
