package scanning

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

// ExtractItems pulls the grocery item list out of a model's free-text answer.
//
// The list is the span from the first '[' to the last ']'. No span means the
// model found nothing and yields an empty list; a span that isn't valid JSON
// is an ErrExtraction. Only name and quantity are kept from each element.
func ExtractItems(text string) ([]Item, error) {
	items := make([]Item, 0)

	startIdx := strings.Index(text, "[")
	if startIdx == -1 {
		return items, nil
	}
	endIdx := strings.LastIndex(text, "]")
	if endIdx < startIdx {
		return items, nil
	}

	var elements []json.RawMessage
	if err := json.Unmarshal([]byte(text[startIdx:endIdx+1]), &elements); err != nil {
		return nil, fmt.Errorf("%w: unmarshaling item list: %w", ErrExtraction, err)
	}

	for i, raw := range elements {
		item, ok := normalizeItem(raw)
		if !ok {
			slog.Warn("Skipping malformed receipt item", "index", i, "item", string(raw))
			continue
		}
		items = append(items, item)
	}

	return items, nil
}

// normalizeItem accepts an object with a non-blank string name, kept verbatim.
// Quantity falls back to 1 unless it decodes to a positive number.
func normalizeItem(raw json.RawMessage) (Item, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return Item{}, false
	}

	rawName, ok := fields["name"]
	if !ok {
		return Item{}, false
	}
	var name string
	if err := json.Unmarshal(rawName, &name); err != nil {
		return Item{}, false
	}
	if strings.TrimSpace(name) == "" {
		return Item{}, false
	}

	quantity := 1.0
	var q float64
	if rawQuantity, ok := fields["quantity"]; ok && json.Unmarshal(rawQuantity, &q) == nil && q > 0 {
		quantity = q
	}

	return Item{Name: name, Quantity: quantity}, true
}
