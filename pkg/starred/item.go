// Package starred lists the repositories an account has starred and maps
// them to the URLs used to star them again as the authenticated user.
package starred

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrDecode is returned when a listing body is not valid JSON.
var ErrDecode = errors.New("decode failure")

// FullNameField is the listing field identifying a repository as owner/name.
const FullNameField = "full_name"

// Item is one element of a starred listing. Only FullNameField is read;
// everything else is carried opaquely.
type Item map[string]any

// FullName returns the repository's owner/name when present as a string.
func (i Item) FullName() (string, bool) {
	name, ok := i[FullNameField].(string)
	return name, ok
}

// DecodeItems parses a listing body. A body that is valid JSON but not an
// array yields no items. Array elements that are not objects become empty
// items, which the mapper skips.
func DecodeItems(body []byte) ([]Item, error) {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("%w: starred listing: %w", ErrDecode, err)
	}

	elems, ok := doc.([]any)
	if !ok {
		return []Item{}, nil
	}

	items := make([]Item, 0, len(elems))
	for _, elem := range elems {
		obj, _ := elem.(map[string]any)
		items = append(items, Item(obj))
	}
	return items, nil
}
