package fields

// Kind tags the field variant a FieldDef was built as.
type Kind string

const (
	KindInteger         Kind = "integer"
	KindForeignKey      Kind = "foreign-key"
	KindText            Kind = "text"
	KindAsyncTextSearch Kind = "async-text-search"
	KindCheckbox        Kind = "checkbox"
	KindCheckboxGroup   Kind = "checkbox-group"
	KindSingleSelect    Kind = "single-select"
	KindArray           Kind = "array"
)

// Built-in widget identifiers. Renderers map these onto concrete controls;
// converters may override them per kind.
const (
	WidgetSlider        = "slider"
	WidgetTextField     = "text-field"
	WidgetAsyncSearch   = "async-search"
	WidgetCheckbox      = "checkbox"
	WidgetCheckboxGroup = "checkbox-group"
	WidgetSelect        = "select"
	WidgetArray         = "array"
)

var defaultWidgets = map[Kind]string{
	KindInteger:         WidgetSlider,
	KindForeignKey:      WidgetSlider,
	KindText:            WidgetTextField,
	KindAsyncTextSearch: WidgetAsyncSearch,
	KindCheckbox:        WidgetCheckbox,
	KindCheckboxGroup:   WidgetCheckboxGroup,
	KindSingleSelect:    WidgetSelect,
	KindArray:           WidgetArray,
}

// Kinds lists every variant in a stable order.
func Kinds() []Kind {
	return []Kind{
		KindInteger,
		KindForeignKey,
		KindText,
		KindAsyncTextSearch,
		KindCheckbox,
		KindCheckboxGroup,
		KindSingleSelect,
		KindArray,
	}
}

// Valid reports whether k names a known variant.
func (k Kind) Valid() bool {
	_, ok := defaultWidgets[k]
	return ok
}

// DefaultWidget returns the widget identifier used when no override applies.
func (k Kind) DefaultWidget() string {
	return defaultWidgets[k]
}

// SelectValue is the (value, display) pair held by single-select fields.
type SelectValue struct {
	Value   any `json:"value"`
	Display any `json:"display"`
}

// DefaultValue returns a fresh default model value for the variant.
func (k Kind) DefaultValue() any {
	switch k {
	case KindInteger:
		return 0
	case KindText, KindAsyncTextSearch:
		return ""
	case KindCheckbox:
		return false
	case KindSingleSelect:
		return SelectValue{}
	case KindArray:
		return []any{}
	default:
		// foreign keys and checkbox groups start unset
		return nil
	}
}
