package fields

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Built-in type tags accepted in schema fragments.
const (
	TagInteger            = "integer"
	TagNumber             = "number"
	TagAsyncTextSearch    = "async-text-search"
	TagForeignKey         = "fkey"
	TagString             = "string"
	TagBoolean            = "boolean"
	TagChoices            = "choices"
	TagArray              = "array"
	TagSingleChoiceSelect = "singleChoiceSelect"
)

// Factory maps schema type tags onto field variants. The zero value is not
// usable; call NewFactory.
type Factory struct {
	mu   sync.RWMutex
	tags map[string]Kind
}

// NewFactory returns a factory with the built-in tags registered.
func NewFactory() *Factory {
	return &Factory{
		tags: map[string]Kind{
			TagInteger:            KindInteger,
			TagNumber:             KindInteger,
			TagAsyncTextSearch:    KindAsyncTextSearch,
			TagForeignKey:         KindForeignKey,
			TagString:             KindText,
			TagBoolean:            KindCheckbox,
			TagChoices:            KindCheckboxGroup,
			TagArray:              KindArray,
			TagSingleChoiceSelect: KindSingleSelect,
		},
	}
}

// Register aliases an additional type tag onto an existing variant.
// Duplicate tags return an error.
func (f *Factory) Register(tag string, kind Kind) error {
	trimmed := strings.TrimSpace(tag)
	if trimmed == "" {
		return fmt.Errorf("fields: type tag is required")
	}
	if !kind.Valid() {
		return fmt.Errorf("fields: unknown kind %q", kind)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.tags[trimmed]; exists {
		return fmt.Errorf("fields: type tag %q already registered", trimmed)
	}
	f.tags[trimmed] = kind
	return nil
}

// Kind resolves a tag without constructing a field.
func (f *Factory) Kind(tag string) (Kind, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	kind, ok := f.tags[tag]
	return kind, ok
}

// New returns a fresh, unbuilt field of the variant registered for tag. The
// model value already holds the variant default. Unknown tags return an
// *UnknownFieldTypeError.
func (f *Factory) New(tag string) (*FieldDef, error) {
	kind, ok := f.Kind(tag)
	if !ok {
		return nil, &UnknownFieldTypeError{Tag: tag}
	}
	return newField(kind), nil
}

// Tags returns the registered tags sorted alphabetically.
func (f *Factory) Tags() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	tags := make([]string, 0, len(f.tags))
	for tag := range f.tags {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

var defaultFactory = NewFactory()

// New constructs a field from the built-in tag table.
func New(tag string) (*FieldDef, error) {
	return defaultFactory.New(tag)
}
