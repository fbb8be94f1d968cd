package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"movie-api/internal/logger"
	"movie-api/internal/models"
	apperrors "movie-api/internal/pkg/errors"
	"movie-api/internal/services"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/webhook"
)

const (
	MaxBodyBytes = int64(65536)

	planSourceBilling = "stripe"
)

// StripeHandler turns billing events into plan changes.
type StripeHandler struct {
	planService   services.PlanService
	webhookSecret string
}

func NewStripeHandler(planService services.PlanService, webhookSecret string) *StripeHandler {
	return &StripeHandler{
		planService:   planService,
		webhookSecret: webhookSecret,
	}
}

// HandleStripeWebhook godoc
// @Summary Stripe webhook
// @Description checkout.session.completed upgrades the account named by
// @Description client_reference_id; customer.subscription.deleted downgrades
// @Description the account in metadata.account_id
// @Tags billing
// @Router /webhooks/stripe [post]
func (h *StripeHandler) HandleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		logger.LogEvent(logrus.WarnLevel, "Error reading webhook body", logrus.Fields{"error": err.Error()})
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	// Pass the request body and Stripe-Signature header to ConstructEvent, along with the webhook signing key
	event, err := webhook.ConstructEvent(payload, r.Header.Get("Stripe-Signature"), h.webhookSecret)
	if err != nil {
		logger.LogEvent(logrus.WarnLevel, "Error verifying webhook signature", logrus.Fields{"error": err.Error()})
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	switch event.Type {
	case "checkout.session.completed":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			logger.LogEvent(logrus.WarnLevel, "Error parsing webhook JSON", logrus.Fields{"error": err.Error()})
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if err := h.handleCheckoutCompleted(r, &session); err != nil {
			respondWithError(w, err)
			return
		}
	case "customer.subscription.deleted":
		var subscription stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &subscription); err != nil {
			logger.LogEvent(logrus.WarnLevel, "Error parsing webhook JSON", logrus.Fields{"error": err.Error()})
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if err := h.handleSubscriptionDeleted(r, &subscription); err != nil {
			respondWithError(w, err)
			return
		}
	default:
		logger.LogEvent(logrus.DebugLevel, "Unhandled event type", logrus.Fields{"type": event.Type})
	}

	w.WriteHeader(http.StatusOK)
}

func (h *StripeHandler) handleCheckoutCompleted(r *http.Request, session *stripe.CheckoutSession) error {
	accountID, err := uuid.Parse(session.ClientReferenceID)
	if err != nil {
		logger.LogEvent(logrus.WarnLevel, "Checkout session without account reference", logrus.Fields{"session_id": session.ID})
		return nil
	}

	tier := models.TierElevated
	if t := models.PlanTier(session.Metadata["tier"]); t.Valid() {
		tier = t
	}
	ceiling := h.planService.CeilingFor(tier)
	if v, err := strconv.Atoi(session.Metadata["daily_ceiling"]); err == nil && v > 0 {
		ceiling = v
	}

	_, err = h.planService.Upgrade(r.Context(), accountID, tier, ceiling, planSourceBilling)
	return ignoreMissingAccount(err, accountID)
}

func (h *StripeHandler) handleSubscriptionDeleted(r *http.Request, subscription *stripe.Subscription) error {
	accountID, err := uuid.Parse(subscription.Metadata["account_id"])
	if err != nil {
		logger.LogEvent(logrus.WarnLevel, "Subscription without account reference", logrus.Fields{"subscription_id": subscription.ID})
		return nil
	}

	_, err = h.planService.Downgrade(r.Context(), accountID, planSourceBilling)
	return ignoreMissingAccount(err, accountID)
}

// ignoreMissingAccount acknowledges events for deleted accounts so Stripe
// stops retrying them.
func ignoreMissingAccount(err error, accountID uuid.UUID) error {
	if errors.Is(err, apperrors.ErrNotFound) {
		logger.LogEvent(logrus.WarnLevel, "Billing event for unknown account", logrus.Fields{"account_id": accountID})
		return nil
	}
	return err
}
