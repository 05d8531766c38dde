package localcart

import (
	"bytes"
	"encoding/json"
	"fmt"

	"storefront/internal/domain"
)

// SnapshotVersion is the version written by Encode
const SnapshotVersion = 1

// ParseError reports a snapshot that cannot be read back
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return "cart snapshot: " + e.Err.Error()
}

func (e *ParseError) Unwrap() []error {
	return []error{domain.ErrParse, e.Err}
}

type snapshot struct {
	Version int        `json:"version"`
	Items   []LineItem `json:"items"`
}

// Encode writes the cart as {"version":1,"items":[...]}
func Encode(c Cart) ([]byte, error) {
	items := c.items
	if items == nil {
		items = []LineItem{}
	}
	return json.Marshal(snapshot{Version: SnapshotVersion, Items: items})
}

// Decode reads a snapshot. A bare JSON array is the unversioned layout
// older clients wrote; it is accepted and reported as legacy so the next
// save rewrites it in the current layout.
func Decode(data []byte) (cart Cart, legacy bool, err error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return Cart{}, false, &ParseError{Err: fmt.Errorf("empty snapshot")}
	}

	var items []LineItem
	if data[0] == '[' {
		if err := json.Unmarshal(data, &items); err != nil {
			return Cart{}, false, &ParseError{Err: err}
		}
		legacy = true
	} else {
		var snap snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			return Cart{}, false, &ParseError{Err: err}
		}
		if snap.Version != SnapshotVersion {
			return Cart{}, false, &ParseError{Err: fmt.Errorf("unsupported version %d", snap.Version)}
		}
		items = snap.Items
	}

	for i, item := range items {
		if item.ProductID == "" {
			return Cart{}, false, &ParseError{Err: fmt.Errorf("item %d has no product id", i)}
		}
		if item.Quantity < 1 {
			return Cart{}, false, &ParseError{Err: fmt.Errorf("item %d has quantity %d", i, item.Quantity)}
		}
	}

	return New(items...), legacy, nil
}
