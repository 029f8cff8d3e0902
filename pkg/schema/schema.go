package schema

import "github.com/hamba/avro/v2"

// ClientEventV1Avro parses the client event schema. It panics on a broken
// schema text.
func ClientEventV1Avro() avro.Schema {
	return avro.MustParse(ClientEventSchemaTextV1)
}
