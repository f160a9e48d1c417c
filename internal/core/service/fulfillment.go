package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dmarkin/storefront/internal/core/domain"
	"github.com/dmarkin/storefront/internal/core/port"
)

var _ port.ChargeFulfiller = (*FulfillmentService)(nil)

// FulfillmentService converts a verified charge into an order,
// a download verification and a receipt email.
type FulfillmentService struct {
	products      port.ProductsStorage
	orders        port.OrdersStorage
	verifications port.VerificationIssuer
	receipts      port.ReceiptSender
	orderPlaced   port.OrderPlacedProducer
}

// NewFulfillment constructs the service. orderPlaced may be nil when
// the order audit stream is not configured.
func NewFulfillment(
	products port.ProductsStorage,
	orders port.OrdersStorage,
	verifications port.VerificationIssuer,
	receipts port.ReceiptSender,
	orderPlaced port.OrderPlacedProducer,
) FulfillmentService {
	return FulfillmentService{
		products,
		orders,
		verifications,
		receipts,
		orderPlaced,
	}
}

func (s FulfillmentService) FulfillCharge(
	ctx context.Context, c domain.Charge,
) error {
	const op = "FulfillmentService.FulfillCharge"
	log := slog.With("op", op)

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if c.ProductID == "" || c.Email == "" {
		return fmt.Errorf("%s: %w", op, domain.ErrChargeInvalid)
	}

	p, err := s.products.ProductByID(ctx, c.ProductID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	order, err := s.orders.AppendOrder(ctx, c)
	if err != nil {
		if errors.Is(err, domain.ErrEventHandled) {
			log.Info("event already fulfilled", "eventID", c.EventID)
			return nil
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	dv, err := s.verifications.IssueVerification(ctx, p.ID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	receipt := domain.Receipt{
		Email:          c.Email,
		ProductName:    p.Name,
		OrderID:        order.ID,
		OrderCreatedAt: order.CreatedAt,
		PriceCents:     order.PriceCents,
		VerificationID: dv.ID,
	}
	if err := s.receipts.SendReceipt(ctx, receipt); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.produceOrderPlaced(ctx, p, order, c.Email)

	log.Info("charge fulfilled",
		"orderID", order.ID, "productID", p.ID, "verificationID", dv.ID,
	)
	return nil
}

// produceOrderPlaced is best effort: the buyer already has the receipt,
// a broken audit stream must not fail the webhook.
func (s FulfillmentService) produceOrderPlaced(
	ctx context.Context, p domain.Product, order domain.Order, email string,
) {
	const op = "FulfillmentService.produceOrderPlaced"

	if s.orderPlaced == nil {
		return
	}

	evt := domain.OrderPlacedEvent{
		OrderID:     order.ID,
		ProductID:   p.ID,
		ProductName: p.Name,
		Email:       email,
		PriceCents:  order.PriceCents,
		PlacedAt:    order.CreatedAt,
	}
	if err := s.orderPlaced.ProduceOrderPlaced(ctx, evt); err != nil {
		slog.Error("failed to produce order placed event",
			"op", op, "orderID", order.ID, "err", err,
		)
	}
}
