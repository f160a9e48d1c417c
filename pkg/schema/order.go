package schema

import "time"

const OrderPlacedSchemaTextV1 = `{
	"type": "record",
	"namespace": "storefront",
	"name": "order_placed",
	"fields": [
		{"name": "order_id", "type": "string"},
		{"name": "product_id", "type": "string"},
		{"name": "product_name", "type": "string"},
		{"name": "email", "type": "string"},
		{"name": "price_cents", "type": "long"},
		{"name": "placed_at", "type": {"type": "long", "logicalType": "timestamp-millis"}}
	]
}`

type OrderPlacedV1 struct {
	OrderID     string    `avro:"order_id"`
	ProductID   string    `avro:"product_id"`
	ProductName string    `avro:"product_name"`
	Email       string    `avro:"email"`
	PriceCents  int64     `avro:"price_cents"`
	PlacedAt    time.Time `avro:"placed_at"`
}
