package engine

import (
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
)

// ItemFromStruct converts a caller's typed model to an Item using the
// SDK's struct tags ("dynamodbav"). The resulting item still needs the
// table's key attributes before it can be written.
func ItemFromStruct(v any) (Item, error) {
	raw, err := attributevalue.MarshalMap(v)
	if err != nil {
		return nil, &SerializationError{Reason: err.Error()}
	}
	return deserializeItem(raw)
}

// ItemToStruct decodes an Item into a caller's typed model using the
// SDK's struct tags.
func ItemToStruct(item Item, out any) error {
	raw, err := serializeItem(item)
	if err != nil {
		return err
	}
	if err := attributevalue.UnmarshalMap(raw, out); err != nil {
		return &SerializationError{Reason: err.Error()}
	}
	return nil
}
