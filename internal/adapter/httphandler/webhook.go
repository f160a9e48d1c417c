package httphandler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/dmarkin/storefront/internal/core/domain"
	"github.com/dmarkin/storefront/internal/core/port"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

const webhookBodyLimit = 1 << 20

// metadataProductKey is the charge metadata key the checkout flow
// stores the purchased product id under.
const metadataProductKey = "productId"

type WebhookHandler struct {
	fulfiller port.ChargeFulfiller
	secret    string
}

func RegisterWebhook(
	mux *http.ServeMux, fulfiller port.ChargeFulfiller, secret string,
) {
	h := WebhookHandler{fulfiller, secret}
	mux.HandleFunc("POST /v1/webhooks/stripe", h.PostEvent)
}

func (h WebhookHandler) PostEvent(w http.ResponseWriter, r *http.Request) {
	const op = "WebhookHandler.PostEvent"
	log := slog.With("op", op)

	// The signature covers the exact bytes on the wire, so the body
	// goes to the verifier untouched, never decoded and re-encoded.
	r.Body = http.MaxBytesReader(w, r.Body, webhookBodyLimit)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		log.Warn("failed to read body", "err", err)
		return
	}

	event, err := webhook.ConstructEventWithOptions(
		payload, r.Header.Get("Stripe-Signature"), h.secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		http.Error(w, "invalid signature", http.StatusBadRequest)
		log.Warn("rejected unverifiable payload", "err", err)
		return
	}

	if event.Type != "charge.succeeded" {
		// Unrecognized types are expected, not failures.
		w.WriteHeader(http.StatusOK)
		if _, err = w.Write([]byte("event type not handled")); err != nil {
			log.Error("failed to write response body", "err", err)
		}
		return
	}

	charge, err := h.decodeCharge(event)
	if err != nil {
		http.Error(w, "invalid charge payload", http.StatusBadRequest)
		log.Warn("failed to parse charge", "eventID", event.ID, "err", err)
		return
	}

	if err := h.fulfiller.FulfillCharge(r.Context(), charge); err != nil {
		switch {
		case errors.Is(err, domain.ErrChargeInvalid):
			http.Error(
				w, "missing productId or email", http.StatusBadRequest,
			)
		case errors.Is(err, domain.ErrNotFound):
			http.Error(w, "product not found", http.StatusBadRequest)
		default:
			http.Error(w, "webhook error", http.StatusInternalServerError)
		}
		log.Error("failed to fulfill charge", "eventID", event.ID, "err", err)
		return
	}

	w.WriteHeader(http.StatusOK)
	if _, err = w.Write([]byte("webhook processed")); err != nil {
		log.Error("failed to write response body", "err", err)
		return
	}

	log.Info("charge event processed", "eventID", event.ID)
}

func (h WebhookHandler) decodeCharge(
	event stripe.Event,
) (domain.Charge, error) {
	var charge stripe.Charge
	if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
		return domain.Charge{}, err
	}

	c := domain.Charge{
		EventID:     event.ID,
		ProductID:   charge.Metadata[metadataProductKey],
		AmountCents: charge.Amount,
	}
	if charge.BillingDetails != nil {
		c.Email = charge.BillingDetails.Email
	}
	return c, nil
}
