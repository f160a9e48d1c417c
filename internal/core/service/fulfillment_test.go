package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmarkin/storefront/internal/core/domain"
	"github.com/dmarkin/storefront/internal/core/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockProductsStorage struct {
	mock.Mock
}

func (m *MockProductsStorage) CreateProduct(
	ctx context.Context, draft domain.ProductDraft,
) (domain.Product, error) {
	args := m.Called(ctx, draft)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockProductsStorage) ProductByID(
	ctx context.Context, id string,
) (domain.Product, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockProductsStorage) UpdateProduct(
	ctx context.Context, id string, patch domain.ProductPatch,
) (domain.Product, error) {
	args := m.Called(ctx, id, patch)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockProductsStorage) SetAvailability(
	ctx context.Context, id string, available bool,
) error {
	args := m.Called(ctx, id, available)
	return args.Error(0)
}

func (m *MockProductsStorage) DeleteProduct(
	ctx context.Context, id string,
) (domain.Product, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Product), args.Error(1)
}

type MockOrdersStorage struct {
	mock.Mock
}

func (m *MockOrdersStorage) AppendOrder(
	ctx context.Context, c domain.Charge,
) (domain.Order, error) {
	args := m.Called(ctx, c)
	return args.Get(0).(domain.Order), args.Error(1)
}

type MockVerificationIssuer struct {
	mock.Mock
}

func (m *MockVerificationIssuer) IssueVerification(
	ctx context.Context, productID string,
) (domain.DownloadVerification, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).(domain.DownloadVerification), args.Error(1)
}

type MockReceiptSender struct {
	mock.Mock
}

func (m *MockReceiptSender) SendReceipt(
	ctx context.Context, receipt domain.Receipt,
) error {
	args := m.Called(ctx, receipt)
	return args.Error(0)
}

type MockOrderPlacedProducer struct {
	mock.Mock
}

func (m *MockOrderPlacedProducer) ProduceOrderPlaced(
	ctx context.Context, evt domain.OrderPlacedEvent,
) error {
	args := m.Called(ctx, evt)
	return args.Error(0)
}

type fulfillmentMocks struct {
	products      *MockProductsStorage
	orders        *MockOrdersStorage
	verifications *MockVerificationIssuer
	receipts      *MockReceiptSender
	orderPlaced   *MockOrderPlacedProducer
}

func newFulfillmentMocks() fulfillmentMocks {
	return fulfillmentMocks{
		products:      new(MockProductsStorage),
		orders:        new(MockOrdersStorage),
		verifications: new(MockVerificationIssuer),
		receipts:      new(MockReceiptSender),
		orderPlaced:   new(MockOrderPlacedProducer),
	}
}

func (f fulfillmentMocks) service() service.FulfillmentService {
	return service.NewFulfillment(
		f.products, f.orders, f.verifications, f.receipts, f.orderPlaced,
	)
}

var (
	testProduct = domain.Product{
		ID:         "product-1",
		Name:       "Guide",
		PriceCents: 14900,
		FileKey:    "abc-guide.pdf",
		Available:  true,
	}

	testCharge = domain.Charge{
		EventID:     "evt_1",
		ProductID:   "product-1",
		Email:       "buyer@example.com",
		AmountCents: 14900,
	}

	testOrder = domain.Order{
		ID:         "order-1",
		CustomerID: "customer-1",
		ProductID:  "product-1",
		PriceCents: 14900,
		CreatedAt:  time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC),
	}

	testVerification = domain.DownloadVerification{
		ID:        "dv-1",
		ProductID: "product-1",
		ExpiresAt: time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC),
	}
)

func TestFulfillCharge(t *testing.T) {

	t.Run("Success", func(t *testing.T) {
		m := newFulfillmentMocks()
		m.products.On("ProductByID", t.Context(), "product-1").
			Return(testProduct, nil)
		m.orders.On("AppendOrder", t.Context(), testCharge).
			Return(testOrder, nil)
		m.verifications.On("IssueVerification", t.Context(), "product-1").
			Return(testVerification, nil)
		m.receipts.On("SendReceipt", t.Context(), mock.Anything).Return(nil)
		m.orderPlaced.On("ProduceOrderPlaced", t.Context(), mock.Anything).
			Return(nil)

		err := m.service().FulfillCharge(t.Context(), testCharge)
		require.NoError(t, err)

		m.orders.AssertNumberOfCalls(t, "AppendOrder", 1)
		m.verifications.AssertNumberOfCalls(t, "IssueVerification", 1)

		wantReceipt := domain.Receipt{
			Email:          "buyer@example.com",
			ProductName:    "Guide",
			OrderID:        "order-1",
			OrderCreatedAt: testOrder.CreatedAt,
			PriceCents:     14900,
			VerificationID: "dv-1",
		}
		m.receipts.AssertCalled(t, "SendReceipt", t.Context(), wantReceipt)
	})

	t.Run("MissingProductID", func(t *testing.T) {
		m := newFulfillmentMocks()

		c := testCharge
		c.ProductID = ""
		err := m.service().FulfillCharge(t.Context(), c)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrChargeInvalid)

		m.orders.AssertNotCalled(t, "AppendOrder", mock.Anything, mock.Anything)
		m.verifications.AssertNotCalled(
			t, "IssueVerification", mock.Anything, mock.Anything,
		)
	})

	t.Run("MissingEmail", func(t *testing.T) {
		m := newFulfillmentMocks()

		c := testCharge
		c.Email = ""
		err := m.service().FulfillCharge(t.Context(), c)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrChargeInvalid)

		m.orders.AssertNotCalled(t, "AppendOrder", mock.Anything, mock.Anything)
	})

	t.Run("UnknownProduct", func(t *testing.T) {
		m := newFulfillmentMocks()
		m.products.On("ProductByID", t.Context(), "product-1").
			Return(domain.Product{}, domain.ErrNotFound)

		err := m.service().FulfillCharge(t.Context(), testCharge)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrNotFound)

		m.orders.AssertNotCalled(t, "AppendOrder", mock.Anything, mock.Anything)
		m.receipts.AssertNotCalled(t, "SendReceipt", mock.Anything, mock.Anything)
	})

	t.Run("RedeliveredEvent", func(t *testing.T) {
		m := newFulfillmentMocks()
		m.products.On("ProductByID", t.Context(), "product-1").
			Return(testProduct, nil)
		m.orders.On("AppendOrder", t.Context(), testCharge).
			Return(domain.Order{}, domain.ErrEventHandled)

		err := m.service().FulfillCharge(t.Context(), testCharge)
		require.NoError(t, err)

		m.verifications.AssertNotCalled(
			t, "IssueVerification", mock.Anything, mock.Anything,
		)
		m.receipts.AssertNotCalled(t, "SendReceipt", mock.Anything, mock.Anything)
	})

	t.Run("ReceiptFailureAborts", func(t *testing.T) {
		m := newFulfillmentMocks()
		m.products.On("ProductByID", t.Context(), "product-1").
			Return(testProduct, nil)
		m.orders.On("AppendOrder", t.Context(), testCharge).
			Return(testOrder, nil)
		m.verifications.On("IssueVerification", t.Context(), "product-1").
			Return(testVerification, nil)
		m.receipts.On("SendReceipt", t.Context(), mock.Anything).
			Return(errors.New("smtp down"))

		err := m.service().FulfillCharge(t.Context(), testCharge)
		require.Error(t, err)

		m.orderPlaced.AssertNotCalled(
			t, "ProduceOrderPlaced", mock.Anything, mock.Anything,
		)
	})

	t.Run("ProducerFailureIsNotFatal", func(t *testing.T) {
		m := newFulfillmentMocks()
		m.products.On("ProductByID", t.Context(), "product-1").
			Return(testProduct, nil)
		m.orders.On("AppendOrder", t.Context(), testCharge).
			Return(testOrder, nil)
		m.verifications.On("IssueVerification", t.Context(), "product-1").
			Return(testVerification, nil)
		m.receipts.On("SendReceipt", t.Context(), mock.Anything).Return(nil)
		m.orderPlaced.On("ProduceOrderPlaced", t.Context(), mock.Anything).
			Return(errors.New("broker unavailable"))

		err := m.service().FulfillCharge(t.Context(), testCharge)
		require.NoError(t, err)
	})

	t.Run("NoProducerConfigured", func(t *testing.T) {
		m := newFulfillmentMocks()
		m.products.On("ProductByID", t.Context(), "product-1").
			Return(testProduct, nil)
		m.orders.On("AppendOrder", t.Context(), testCharge).
			Return(testOrder, nil)
		m.verifications.On("IssueVerification", t.Context(), "product-1").
			Return(testVerification, nil)
		m.receipts.On("SendReceipt", t.Context(), mock.Anything).Return(nil)

		s := service.NewFulfillment(
			m.products, m.orders, m.verifications, m.receipts, nil,
		)
		err := s.FulfillCharge(t.Context(), testCharge)
		require.NoError(t, err)
	})
}
