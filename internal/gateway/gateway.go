// Package gateway decides, per request, whether a caller may download a
// paid item. Entitled callers go straight to dispatch; everyone else gets
// a payment challenge, and a retried request carrying a valid proof is
// settled through the facilitator and recorded in the purchase ledger
// before the bytes flow.
package gateway

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ankushKun/x402bay/internal/catalog"
	"github.com/ankushKun/x402bay/internal/content"
	"github.com/ankushKun/x402bay/internal/facilitator"
	"github.com/ankushKun/x402bay/internal/identity"
	"github.com/ankushKun/x402bay/internal/ledger"
	"github.com/ankushKun/x402bay/internal/x402"
)

// Gateway gates download access behind payment. All shared state lives in
// the injected stores; the Gateway itself is stateless and safe for
// concurrent use.
type Gateway struct {
	resolver    *catalog.Resolver
	catalog     catalog.Store
	checker     *ledger.Checker
	ledger      ledger.Ledger
	identity    identity.Verifier
	facilitator facilitator.Interface
	content     content.Store
	logger      *slog.Logger
}

// New constructs a Gateway. logger may be nil, in which case slog.Default
// is used.
func New(store catalog.Store, l ledger.Ledger, id identity.Verifier, fac facilitator.Interface, files content.Store, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		resolver:    catalog.NewResolver(store),
		catalog:     store,
		checker:     ledger.NewChecker(l),
		ledger:      l,
		identity:    id,
		facilitator: fac,
		content:     files,
		logger:      logger,
	}
}

// Download handles GET /resource/:id.
func (g *Gateway) Download(c *gin.Context) {
	id := c.Param("id")

	item, err := g.resolver.Resolve(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrInvalidID):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item id"})
		case errors.Is(err, catalog.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
		default:
			g.logger.Error("item lookup failed", "id", id, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		}
		return
	}

	// Entitlement first: a prior purchaser is never re-charged.
	if address, ok := g.identity.Verify(c.Request); ok {
		entitled, err := g.checker.IsEntitled(c.Request.Context(), item.ID, address)
		if err != nil {
			g.logger.Error("entitlement check failed", "item", item.ID, "buyer", address, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "entitlement check failed"})
			return
		}
		if entitled {
			g.logger.Info("entitled download", "item", item.ID, "buyer", address)
			g.dispatch(c, item)
			return
		}
	}

	challenge, err := BuildChallenge(item, c.Request.URL.Path)
	if err != nil {
		g.logger.Error("invalid payment configuration", "item", item.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "invalid payment configuration"})
		return
	}

	proofHeader := c.GetHeader(x402.PaymentHeader)
	if proofHeader == "" {
		g.logger.Info("no payment proof, issuing challenge", "item", item.ID, "path", c.Request.URL.Path)
		g.sendChallenge(c, challenge, "Payment required")
		return
	}

	proof, err := x402.DecodePayment(proofHeader)
	if err != nil {
		g.logger.Warn("malformed payment proof", "item", item.ID, "error", err)
		g.sendChallenge(c, challenge, "Invalid payment proof")
		return
	}

	// A client disconnect must not abandon an in-flight settlement: a
	// settled payment that goes unrecorded would re-charge the buyer
	// later. Verification and settlement run on a detached context.
	settleCtx := context.WithoutCancel(c.Request.Context())

	verifyResp, err := g.facilitator.Verify(settleCtx, proof, challenge)
	if err != nil {
		g.logger.Error("facilitator verification failed", "item", item.ID, "error", err)
		g.sendChallenge(c, challenge, "Payment verification failed")
		return
	}
	if !verifyResp.IsValid {
		g.logger.Warn("payment proof rejected", "item", item.ID, "reason", verifyResp.InvalidReason)
		g.sendChallenge(c, challenge, "Payment verification failed")
		return
	}

	settlement, err := g.facilitator.Settle(settleCtx, proof, challenge)
	if err != nil {
		g.logger.Error("settlement failed", "item", item.ID, "error", err)
		g.sendChallenge(c, challenge, "Payment settlement failed")
		return
	}
	if !settlement.Success {
		g.logger.Warn("settlement rejected", "item", item.ID, "reason", settlement.ErrorReason)
		g.sendChallenge(c, challenge, "Payment settlement failed")
		return
	}

	g.recordSettlement(settleCtx, item, settlement, c.Request)

	if encoded, err := x402.EncodeSettlement(*settlement); err == nil {
		c.Header(x402.PaymentResponseHeader, encoded)
	} else {
		g.logger.Warn("failed to encode settlement header", "error", err)
	}

	g.dispatch(c, item)
}

// recordSettlement writes the purchase to the ledger. The payment already
// settled on chain, so every failure here is logged as a reconciliation
// risk and the current request still succeeds.
func (g *Gateway) recordSettlement(ctx context.Context, item *catalog.Item, settlement *x402.SettlementResponse, r *http.Request) {
	buyer := strings.TrimSpace(settlement.Payer)
	if buyer == "" {
		if address, ok := g.identity.Verify(r); ok {
			buyer = address
		}
	}
	if buyer == "" {
		g.logger.Warn("settled payment has no payer address, purchase not recorded",
			"item", item.ID, "transaction", settlement.Transaction)
		return
	}

	amount := settlement.Amount
	if amount == "" {
		amount = item.Price
	}

	inserted, err := g.ledger.RecordIfAbsent(ctx, ledger.Purchase{
		ItemID:          item.ID,
		BuyerAddress:    buyer,
		TransactionHash: settlement.Transaction,
		Amount:          amount,
	})
	if err != nil {
		g.logger.Error("purchase not recorded, future re-charge possible",
			"item", item.ID, "buyer", buyer, "transaction", settlement.Transaction, "error", err)
		return
	}
	if inserted {
		g.logger.Info("purchase recorded", "item", item.ID, "buyer", buyer, "transaction", settlement.Transaction)
	} else {
		g.logger.Info("purchase already recorded", "item", item.ID, "buyer", buyer)
	}
}

// sendChallenge writes a fresh 402 response scoped to exactly one resource.
func (g *Gateway) sendChallenge(c *gin.Context, challenge x402.PaymentChallenge, message string) {
	c.JSON(http.StatusPaymentRequired, x402.PaymentRequired{
		X402Version:      x402.Version,
		Error:            message,
		PaymentChallenge: challenge,
	})
}
