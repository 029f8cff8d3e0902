package schema

import "time"

const ClientEventSchemaTextV1 = `{
	"type": "record",
	"namespace": "storefront",
	"name": "client_event",
	"fields" : [
		{"name": "kind", "type": "string"},
		{"name": "role", "type": "string"},
		{"name": "line_item_id", "type": "long"},
		{"name": "product_id", "type": "long"},
		{"name": "quantity", "type": "int"},
		{"name": "wishlisted", "type": "boolean"},
		{"name": "rollback", "type": "boolean"},
		{"name": "occurred_at", "type": {"type": "long", "logicalType": "timestamp-millis"}}
	]
}`

type ClientEventV1 struct {
	Kind       string    `avro:"kind"`
	Role       string    `avro:"role"`
	LineItemID int64     `avro:"line_item_id"`
	ProductID  int64     `avro:"product_id"`
	Quantity   int       `avro:"quantity"`
	Wishlisted bool      `avro:"wishlisted"`
	Rollback   bool      `avro:"rollback"`
	OccurredAt time.Time `avro:"occurred_at"`
}
