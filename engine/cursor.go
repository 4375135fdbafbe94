package engine

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// tokenAttr is the explicit tagged JSON form of one key attribute inside
// a pagination token. Exactly one field is set. Key attributes can only
// be strings, numbers, or binary.
type tokenAttr struct {
	S *string `json:"s,omitempty"`
	N *string `json:"n,omitempty"`
	B []byte  `json:"b,omitempty"`
}

// encodeToken packs a raw last-evaluated key into an opaque,
// self-contained continuation token. The engine keeps no cursor state
// between calls; the token is all there is.
func encodeToken(lastKey map[string]types.AttributeValue) (string, error) {
	attrs := make(map[string]tokenAttr, len(lastKey))
	for name, av := range lastKey {
		switch a := av.(type) {
		case *types.AttributeValueMemberS:
			attrs[name] = tokenAttr{S: &a.Value}
		case *types.AttributeValueMemberN:
			attrs[name] = tokenAttr{N: &a.Value}
		case *types.AttributeValueMemberB:
			attrs[name] = tokenAttr{B: a.Value}
		default:
			return "", &SerializationError{Reason: fmt.Sprintf("key attribute %q has non-key type %T", name, av)}
		}
	}

	data, err := json.Marshal(attrs)
	if err != nil {
		return "", &SerializationError{Reason: fmt.Sprintf("encode pagination token: %v", err)}
	}
	return base64.URLEncoding.EncodeToString(data), nil
}

// decodeToken unpacks a continuation token back into the raw key it was
// encoded from. Any malformed input fails with InvalidTokenError; a
// token never silently decodes to a different or empty key.
func decodeToken(token string) (map[string]types.AttributeValue, error) {
	data, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return nil, &InvalidTokenError{cause: err}
	}

	var attrs map[string]tokenAttr
	if err := json.Unmarshal(data, &attrs); err != nil {
		return nil, &InvalidTokenError{cause: err}
	}
	if len(attrs) == 0 {
		return nil, &InvalidTokenError{cause: fmt.Errorf("token holds no key attributes")}
	}

	lastKey := make(map[string]types.AttributeValue, len(attrs))
	for name, attr := range attrs {
		switch {
		case attr.S != nil:
			lastKey[name] = &types.AttributeValueMemberS{Value: *attr.S}
		case attr.N != nil:
			lastKey[name] = &types.AttributeValueMemberN{Value: *attr.N}
		case attr.B != nil:
			lastKey[name] = &types.AttributeValueMemberB{Value: attr.B}
		default:
			return nil, &InvalidTokenError{cause: fmt.Errorf("attribute %q holds no value", name)}
		}
	}
	return lastKey, nil
}
