// Package ddb decodes DynamoDB stream events that carry directory entries.
package ddb

import (
	"encoding/base64"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/cockroachdb/errors"

	"github.com/letmevibethatforyou/toolrank"
)

// DynamoDBEvent represents a DynamoDB stream event
type DynamoDBEvent struct {
	Records []DynamoDBEventRecord `json:"Records"`
}

// DynamoDBEventRecord represents a single DynamoDB stream record
type DynamoDBEventRecord struct {
	AWSRegion      string               `json:"awsRegion"`
	Change         DynamoDBStreamRecord `json:"dynamodb"`
	EventID        string               `json:"eventID"`
	EventName      string               `json:"eventName"`
	EventSource    string               `json:"eventSource"`
	EventVersion   string               `json:"eventVersion"`
	EventSourceArn string               `json:"eventSourceARN"`
}

// DynamoDBStreamRecord represents the DynamoDB stream data
type DynamoDBStreamRecord struct {
	ApproximateCreationDateTime int64        `json:"ApproximateCreationDateTime,omitempty"`
	Keys                        AttributeMap `json:"Keys,omitempty"`
	NewImage                    AttributeMap `json:"NewImage,omitempty"`
	OldImage                    AttributeMap `json:"OldImage,omitempty"`
	SequenceNumber              string       `json:"SequenceNumber"`
	SizeBytes                   int64        `json:"SizeBytes"`
	StreamViewType              string       `json:"StreamViewType"`
}

// DynamoDBOperationType represents the type of DynamoDB operation
type DynamoDBOperationType string

const (
	DynamoDBOperationTypeInsert DynamoDBOperationType = "INSERT"
	DynamoDBOperationTypeModify DynamoDBOperationType = "MODIFY"
	DynamoDBOperationTypeRemove DynamoDBOperationType = "REMOVE"
)

// AttributeMap is an item image in DynamoDB JSON, such as {"pk": {"S": "x"}}.
type AttributeMap map[string]types.AttributeValue

// UnmarshalJSON decodes DynamoDB JSON into SDK attribute values.
func (m *AttributeMap) UnmarshalJSON(data []byte) error {
	values, err := UnmarshalAttributeValueMap(data)
	if err != nil {
		return err
	}
	*m = values
	return nil
}

// UnmarshalAttributeValueMap decodes a DynamoDB JSON object into an
// attribute value map. A JSON null yields a nil map.
func UnmarshalAttributeValueMap(data []byte) (map[string]types.AttributeValue, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "decode attribute map")
	}
	if raw == nil {
		return nil, nil
	}

	values := make(map[string]types.AttributeValue, len(raw))
	for name, field := range raw {
		v, err := unmarshalAttributeValue(field)
		if err != nil {
			return nil, errors.Wrapf(err, "attribute %q", name)
		}
		values[name] = v
	}
	return values, nil
}

// unmarshalAttributeValue decodes a single {"<type>": value} descriptor.
func unmarshalAttributeValue(data []byte) (types.AttributeValue, error) {
	var descriptor map[string]json.RawMessage
	if err := json.Unmarshal(data, &descriptor); err != nil {
		return nil, errors.Wrap(err, "decode attribute value")
	}
	if len(descriptor) != 1 {
		return nil, errors.Newf("attribute value must have exactly one type, got %d", len(descriptor))
	}

	for kind, value := range descriptor {
		switch kind {
		case "S":
			var s string
			err := json.Unmarshal(value, &s)
			return &types.AttributeValueMemberS{Value: s}, err
		case "N":
			var n string
			err := json.Unmarshal(value, &n)
			return &types.AttributeValueMemberN{Value: n}, err
		case "BOOL":
			var b bool
			err := json.Unmarshal(value, &b)
			return &types.AttributeValueMemberBOOL{Value: b}, err
		case "NULL":
			var null bool
			err := json.Unmarshal(value, &null)
			return &types.AttributeValueMemberNULL{Value: null}, err
		case "B":
			var encoded string
			if err := json.Unmarshal(value, &encoded); err != nil {
				return nil, err
			}
			b, err := base64.StdEncoding.DecodeString(encoded)
			return &types.AttributeValueMemberB{Value: b}, err
		case "SS":
			var ss []string
			err := json.Unmarshal(value, &ss)
			return &types.AttributeValueMemberSS{Value: ss}, err
		case "NS":
			var ns []string
			err := json.Unmarshal(value, &ns)
			return &types.AttributeValueMemberNS{Value: ns}, err
		case "BS":
			var encoded []string
			if err := json.Unmarshal(value, &encoded); err != nil {
				return nil, err
			}
			bs := make([][]byte, 0, len(encoded))
			for _, e := range encoded {
				b, err := base64.StdEncoding.DecodeString(e)
				if err != nil {
					return nil, err
				}
				bs = append(bs, b)
			}
			return &types.AttributeValueMemberBS{Value: bs}, nil
		case "M":
			m, err := UnmarshalAttributeValueMap(value)
			if err != nil {
				return nil, err
			}
			if m == nil {
				m = map[string]types.AttributeValue{}
			}
			return &types.AttributeValueMemberM{Value: m}, nil
		case "L":
			var items []json.RawMessage
			if err := json.Unmarshal(value, &items); err != nil {
				return nil, err
			}
			list := make([]types.AttributeValue, 0, len(items))
			for i, item := range items {
				v, err := unmarshalAttributeValue(item)
				if err != nil {
					return nil, errors.Wrapf(err, "list element %d", i)
				}
				list = append(list, v)
			}
			return &types.AttributeValueMemberL{Value: list}, nil
		default:
			return nil, errors.Newf("unsupported attribute type %q", kind)
		}
	}
	return nil, nil
}

// Record is one directory entry as stored in the source table: the entry
// object keyed by its ID and the Algolia index it belongs to.
type Record struct {
	ID        string         `dynamodbav:"pk"`
	IndexName string         `dynamodbav:"sk"`
	Object    map[string]any `dynamodbav:"object"`
}

// UnmarshalRecord converts a DynamoDB NewImage into a Record struct
func UnmarshalRecord(newImage map[string]types.AttributeValue) (Record, error) {
	var record Record
	err := attributevalue.UnmarshalMap(newImage, &record)
	if err != nil {
		return Record{}, err
	}
	return record, nil
}

// MarshalRecord builds a table item for the entry r in indexName.
func MarshalRecord(indexName string, r toolrank.SearchResult) (map[string]types.AttributeValue, error) {
	if r.ID == "" {
		return nil, errors.New("entry has no ID")
	}
	object, err := toolrank.EncodeResult(r)
	if err != nil {
		return nil, err
	}
	return attributevalue.MarshalMap(Record{ID: r.ID, IndexName: indexName, Object: object})
}

// Result decodes the record object as a directory entry. The entry ID
// always comes from the record key. The names of object attributes that
// could not be decoded are returned alongside the entry.
func (r Record) Result() (toolrank.SearchResult, []string, error) {
	if r.Object == nil {
		return toolrank.SearchResult{}, nil, errors.WithSecondaryError(toolrank.ErrMalformedRecord,
			errors.Newf("record %s has no object", r.ID))
	}
	object := make(map[string]any, len(r.Object)+1)
	for key, value := range r.Object {
		object[key] = value
	}
	object["id"] = r.ID

	result, dropped, err := toolrank.DecodeResult(object)
	if err != nil {
		return toolrank.SearchResult{}, dropped, errors.Wrapf(err, "record %s", r.ID)
	}
	return result, dropped, nil
}
