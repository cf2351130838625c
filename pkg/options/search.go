package options

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-formdef/pkg/schema"
)

// Search returns the items whose label contains query, case-insensitively.
// Prefix matches sort before other matches; ties keep label order.
func Search(items []any, query string, limit int, opts Options) []any {
	limit = clampLimit(limit, opts)
	if limit == 0 {
		return nil
	}

	query = strings.TrimSpace(query)
	if query == "" {
		if opts.EmptySearchMode == EmptySearchTop {
			if len(items) <= limit {
				return append([]any{}, items...)
			}
			return append([]any{}, items[:limit]...)
		}
		return nil
	}

	q := strings.ToLower(query)
	matches := make([]matchedItem, 0, 32)
	for _, item := range items {
		label := Label(item)
		lower := strings.ToLower(label)
		if !strings.Contains(lower, q) {
			continue
		}
		matches = append(matches, matchedItem{
			item:     item,
			label:    label,
			isPrefix: strings.HasPrefix(lower, q),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].isPrefix != matches[j].isPrefix {
			return matches[i].isPrefix
		}
		return matches[i].label < matches[j].label
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}

	out := make([]any, 0, len(matches))
	for _, match := range matches {
		out = append(out, match.item)
	}
	return out
}

// Static returns a ListMethod searching items in memory.
func Static(items []any, fns ...OptionFn) schema.ListMethod {
	opts := NewOptions(fns...)
	snapshot := append([]any(nil), items...)
	return func(ctx context.Context, query string) ([]any, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return Search(snapshot, query, 0, opts), nil
	}
}

// Label returns the display text of an option item: the "display" or "label"
// entry of a map, otherwise the item itself.
func Label(item any) string {
	if typed, ok := item.(map[string]any); ok {
		for _, key := range []string{"display", "label", "value"} {
			if value, ok := typed[key]; ok && value != nil {
				return fmt.Sprint(value)
			}
		}
	}
	return fmt.Sprint(item)
}

type matchedItem struct {
	item     any
	label    string
	isPrefix bool
}
