package port

import (
	"context"
	"io"

	"github.com/dmarkin/storefront/internal/core/domain"
)

// Inbound ports.

type ChargeFulfiller interface {
	FulfillCharge(context.Context, domain.Charge) error
}

type CatalogManager interface {
	AddProduct(context.Context, domain.ProductDraft, FileUpload, FileUpload) (domain.Product, error)
	EditProduct(ctx context.Context, id string, patch domain.ProductPatch, file, image *FileUpload) (domain.Product, error)
	SetAvailability(ctx context.Context, id string, available bool) error
	RemoveProduct(ctx context.Context, id string) error
	ProductForPurchase(ctx context.Context, id string) (domain.Product, error)
}

type AssetOpener interface {
	OpenAsset(ctx context.Context, verificationID string) (domain.Product, io.ReadCloser, error)
}

// FileUpload is one multipart form file, streamed into the blob store.
type FileUpload struct {
	Name string
	Body io.Reader
}

// Outbound ports.

type ProductsStorage interface {
	CreateProduct(context.Context, domain.ProductDraft) (domain.Product, error)
	ProductByID(ctx context.Context, id string) (domain.Product, error)
	UpdateProduct(ctx context.Context, id string, patch domain.ProductPatch) (domain.Product, error)
	SetAvailability(ctx context.Context, id string, available bool) error
	DeleteProduct(ctx context.Context, id string) (domain.Product, error)
}

// OrdersStorage appends an order for the charge's customer in one
// transaction: event-id dedup, customer upsert by email, order insert.
// A redelivered event returns domain.ErrEventHandled.
type OrdersStorage interface {
	AppendOrder(context.Context, domain.Charge) (domain.Order, error)
}

type VerificationIssuer interface {
	IssueVerification(ctx context.Context, productID string) (domain.DownloadVerification, error)
}

type VerificationProvider interface {
	VerificationByID(ctx context.Context, id string) (domain.DownloadVerification, error)
}

type ReceiptSender interface {
	SendReceipt(context.Context, domain.Receipt) error
}

type OrderPlacedProducer interface {
	ProduceOrderPlaced(context.Context, domain.OrderPlacedEvent) error
}

type BlobStore interface {
	Put(ctx context.Context, key string, src io.Reader) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}
