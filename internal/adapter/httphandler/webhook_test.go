package httphandler_test

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmarkin/storefront/internal/adapter/httphandler"
	"github.com/dmarkin/storefront/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSecret = "whsec_test"

type MockChargeFulfiller struct {
	mock.Mock
}

func (m *MockChargeFulfiller) FulfillCharge(
	ctx context.Context, c domain.Charge,
) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func signPayload(payload []byte, secret string, ts time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts.Unix(), payload)
	return fmt.Sprintf(
		"t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)),
	)
}

func chargeSucceededPayload() []byte {
	return []byte(`{
		"id": "evt_1",
		"type": "charge.succeeded",
		"data": {
			"object": {
				"amount": 14900,
				"billing_details": {"email": "buyer@example.com"},
				"metadata": {"productId": "product-1"}
			}
		}
	}`)
}

func postEvent(
	t *testing.T, fulfiller *MockChargeFulfiller, payload []byte, sig string,
) *httptest.ResponseRecorder {
	t.Helper()

	mux := http.NewServeMux()
	httphandler.RegisterWebhook(mux, fulfiller, testSecret)

	req := httptest.NewRequest(
		http.MethodPost, "/v1/webhooks/stripe", bytes.NewReader(payload),
	)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Stripe-Signature", sig)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestPostEvent(t *testing.T) {

	t.Run("ChargeSucceeded", func(t *testing.T) {
		fulfiller := new(MockChargeFulfiller)
		fulfiller.On("FulfillCharge", mock.Anything, mock.Anything).Return(nil)

		payload := chargeSucceededPayload()
		sig := signPayload(payload, testSecret, time.Now())

		rec := postEvent(t, fulfiller, payload, sig)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "webhook processed")

		wantCharge := domain.Charge{
			EventID:     "evt_1",
			ProductID:   "product-1",
			Email:       "buyer@example.com",
			AmountCents: 14900,
		}
		fulfiller.AssertCalled(t, "FulfillCharge", mock.Anything, wantCharge)
	})

	t.Run("TamperedBody", func(t *testing.T) {
		fulfiller := new(MockChargeFulfiller)

		payload := chargeSucceededPayload()
		sig := signPayload(payload, testSecret, time.Now())
		tampered := bytes.Replace(
			payload, []byte("14900"), []byte("1"), 1,
		)

		rec := postEvent(t, fulfiller, tampered, sig)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		fulfiller.AssertNotCalled(
			t, "FulfillCharge", mock.Anything, mock.Anything,
		)
	})

	t.Run("MissingSignature", func(t *testing.T) {
		fulfiller := new(MockChargeFulfiller)

		rec := postEvent(t, fulfiller, chargeSucceededPayload(), "")
		require.Equal(t, http.StatusBadRequest, rec.Code)

		fulfiller.AssertNotCalled(
			t, "FulfillCharge", mock.Anything, mock.Anything,
		)
	})

	t.Run("WrongSecret", func(t *testing.T) {
		fulfiller := new(MockChargeFulfiller)

		payload := chargeSucceededPayload()
		sig := signPayload(payload, "whsec_other", time.Now())

		rec := postEvent(t, fulfiller, payload, sig)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		fulfiller.AssertNotCalled(
			t, "FulfillCharge", mock.Anything, mock.Anything,
		)
	})

	t.Run("UnhandledEventType", func(t *testing.T) {
		fulfiller := new(MockChargeFulfiller)

		payload := []byte(`{
			"id": "evt_2",
			"type": "charge.refunded",
			"data": {"object": {"amount": 14900}}
		}`)
		sig := signPayload(payload, testSecret, time.Now())

		rec := postEvent(t, fulfiller, payload, sig)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "event type not handled")

		fulfiller.AssertNotCalled(
			t, "FulfillCharge", mock.Anything, mock.Anything,
		)
	})

	t.Run("InvalidCharge", func(t *testing.T) {
		fulfiller := new(MockChargeFulfiller)
		fulfiller.On("FulfillCharge", mock.Anything, mock.Anything).
			Return(fmt.Errorf("fulfill: %w", domain.ErrChargeInvalid))

		payload := chargeSucceededPayload()
		sig := signPayload(payload, testSecret, time.Now())

		rec := postEvent(t, fulfiller, payload, sig)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "missing productId or email")
	})

	t.Run("UnknownProduct", func(t *testing.T) {
		fulfiller := new(MockChargeFulfiller)
		fulfiller.On("FulfillCharge", mock.Anything, mock.Anything).
			Return(fmt.Errorf("fulfill: %w", domain.ErrNotFound))

		payload := chargeSucceededPayload()
		sig := signPayload(payload, testSecret, time.Now())

		rec := postEvent(t, fulfiller, payload, sig)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "product not found")
	})

	t.Run("ProcessingError", func(t *testing.T) {
		fulfiller := new(MockChargeFulfiller)
		fulfiller.On("FulfillCharge", mock.Anything, mock.Anything).
			Return(errors.New("database is down"))

		payload := chargeSucceededPayload()
		sig := signPayload(payload, testSecret, time.Now())

		rec := postEvent(t, fulfiller, payload, sig)
		require.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
