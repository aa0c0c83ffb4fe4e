package graph

import (
	"fmt"
	"strings"

	"github.com/fxamacker/cbor/v2"
)

// TagRecordID is the CBOR tag SurrealDB uses for record identifiers.
const TagRecordID = 8

// ID identifies a node or edge as "table:key".
type ID string

// NewID joins table and key.
func NewID(table, key string) ID {
	return ID(table + ":" + key)
}

// ParseID validates s and returns it as an ID.
func ParseID(s string) (ID, error) {
	table, key, ok := strings.Cut(s, ":")
	if !ok || table == "" || key == "" {
		return "", fmt.Errorf("invalid id %q: expected format is 'table:key'", s)
	}
	return NewID(table, key), nil
}

// Table returns the part before the first colon.
func (id ID) Table() string {
	table, _, _ := strings.Cut(string(id), ":")
	return table
}

// Key returns the part after the first colon.
func (id ID) Key() string {
	_, key, _ := strings.Cut(string(id), ":")
	return key
}

func (id ID) IsZero() bool { return id == "" }

func (id ID) String() string { return string(id) }

// NodeID makes a bare ID usable wherever a node reference is accepted.
func (id ID) NodeID() ID { return id }

func (id ID) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(cbor.Tag{
		Number:  TagRecordID,
		Content: []any{id.Table(), id.Key()},
	})
}

func (id *ID) UnmarshalCBOR(data []byte) error {
	var tag cbor.RawTag
	if err := cbor.Unmarshal(data, &tag); err != nil {
		return err
	}
	if tag.Number != TagRecordID {
		return fmt.Errorf("unexpected CBOR tag %d for record id", tag.Number)
	}
	var parts []any
	if err := cbor.Unmarshal(tag.Content, &parts); err != nil {
		return err
	}
	if len(parts) != 2 {
		return fmt.Errorf("record id must have 2 parts, got %d", len(parts))
	}
	table, ok := parts[0].(string)
	if !ok {
		return fmt.Errorf("record id table must be a string, got %T", parts[0])
	}
	*id = NewID(table, fmt.Sprint(parts[1]))
	return nil
}
