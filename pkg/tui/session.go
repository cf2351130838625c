// Package tui fills field definitions interactively from a terminal. Each
// field is prompted according to its variant, checked against the field's
// own validation rules and written back through SetModelValue.
package tui

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-formdef/pkg/fields"
)

// DefaultItemTypeKey is the key recording the chosen sub-type on items of
// multi-typed arrays.
const DefaultItemTypeKey = "_type"

// ChangeFunc observes model value changes on top-level fields during Fill.
type ChangeFunc func(field *fields.FieldDef, old, new any)

// Option configures a Session.
type Option func(*Session)

// WithPromptDriver overrides the prompt driver.
func WithPromptDriver(driver PromptDriver) Option {
	return func(s *Session) {
		if driver != nil {
			s.driver = driver
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithChangeHook subscribes fn to every top-level field for the duration of
// Fill.
func WithChangeHook(fn ChangeFunc) Option {
	return func(s *Session) {
		s.onChange = fn
	}
}

// WithItemTypeKey renames the sub-type key stored on multi-typed items.
func WithItemTypeKey(key string) Option {
	return func(s *Session) {
		if key != "" {
			s.typeKey = key
		}
	}
}

// Session drives prompts for a list of field definitions.
type Session struct {
	driver   PromptDriver
	logger   *zap.Logger
	onChange ChangeFunc
	typeKey  string
}

// New constructs a Session using the survey driver unless overridden.
func New(options ...Option) *Session {
	s := &Session{
		logger:  zap.NewNop(),
		typeKey: DefaultItemTypeKey,
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	if s.driver == nil {
		s.driver = NewSurveyDriver()
	}
	return s
}

// Fill prompts for each field in order and returns the accepted values keyed
// by field key.
func (s *Session) Fill(ctx context.Context, list []*fields.FieldDef) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.onChange != nil {
		for _, field := range list {
			cancel := field.Subscribe(func(old, new any) {
				s.onChange(field, old, new)
			})
			defer cancel()
		}
	}

	for _, field := range list {
		if err := s.prompt(ctx, field, field.Key); err != nil {
			return nil, err
		}
		s.logger.Debug("field filled",
			zap.String("key", field.Key),
			zap.String("kind", string(field.Kind)),
		)
	}

	values := make(map[string]any, len(list))
	for _, field := range list {
		values[field.Key] = field.ModelValue()
	}
	return values, nil
}

func (s *Session) prompt(ctx context.Context, field *fields.FieldDef, path string) error {
	switch field.Kind {
	case fields.KindInteger, fields.KindForeignKey:
		return s.promptNumber(ctx, field, path)
	case fields.KindText:
		return s.promptText(ctx, field, path)
	case fields.KindAsyncTextSearch:
		return s.promptSearch(ctx, field, path)
	case fields.KindCheckbox:
		return s.promptConfirm(ctx, field, path)
	case fields.KindSingleSelect:
		return s.promptSelect(ctx, field, path)
	case fields.KindCheckboxGroup:
		return s.promptChoices(ctx, field, path)
	case fields.KindArray:
		return s.promptArray(ctx, field, path)
	default:
		return fmt.Errorf("tui: %s: unsupported field kind %q", path, field.Kind)
	}
}

// accept validates value against the field rules and stores it on success.
// Failures are reported through the driver so the caller can prompt again.
func (s *Session) accept(ctx context.Context, field *fields.FieldDef, path string, value any) bool {
	if messages := field.Validate(value); len(messages) > 0 {
		_ = s.driver.Info(ctx, fmt.Sprintf("Invalid %s: %s", path, strings.Join(messages, "; ")))
		return false
	}
	field.SetModelValue(value)
	return true
}

// ruleMessages checks a typed answer against the field's rules. A parse
// failure is reported as the only message.
func ruleMessages(field *fields.FieldDef, parse func(string) (any, error)) func(string) []string {
	return func(text string) []string {
		value, err := parse(text)
		if err != nil {
			return []string{err.Error()}
		}
		return field.Validate(value)
	}
}

func (s *Session) promptNumber(ctx context.Context, field *fields.FieldDef, path string) error {
	parse := func(text string) (any, error) { return parseNumber(field, text) }
	for {
		input, err := s.driver.Input(ctx, InputConfig{
			Message: displayLabel(field),
			Default: displayDefault(field.ModelValue()),
			Help:    displayHelp(field),
			Rules:   ruleMessages(field, parse),
		})
		if err != nil {
			return err
		}
		value, err := parse(input)
		if err != nil {
			_ = s.driver.Info(ctx, fmt.Sprintf("Invalid %s: %v", path, err))
			continue
		}
		if s.accept(ctx, field, path, value) {
			return nil
		}
	}
}

func (s *Session) promptText(ctx context.Context, field *fields.FieldDef, path string) error {
	parse := func(text string) (any, error) { return text, nil }
	for {
		input, err := s.driver.Input(ctx, InputConfig{
			Message: displayLabel(field),
			Default: displayDefault(field.ModelValue()),
			Help:    displayHelp(field),
			Rules:   ruleMessages(field, parse),
		})
		if err != nil {
			return err
		}
		if s.accept(ctx, field, path, input) {
			return nil
		}
	}
}

// promptSearch asks for a query and, when the field carries an options
// provider, lets the user pick one of the matches. Static option lists are
// offered directly. Without either the field behaves like text.
func (s *Session) promptSearch(ctx context.Context, field *fields.FieldDef, path string) error {
	source := field.OptionsObject
	if source == nil || (source.ListMethod == nil && len(source.Options) == 0) {
		return s.promptText(ctx, field, path)
	}

	for {
		options := source.Options
		if source.ListMethod != nil {
			query, err := s.driver.Input(ctx, InputConfig{
				Message: displayLabel(field),
				Help:    "Type to search",
			})
			if err != nil {
				return err
			}
			options, err = source.ListMethod(ctx, query)
			if err != nil {
				_ = s.driver.Info(ctx, fmt.Sprintf("Search %s failed: %v", path, err))
				continue
			}
			if len(options) == 0 {
				_ = s.driver.Info(ctx, fmt.Sprintf("No matches for %q", query))
				continue
			}
		}

		idx, err := s.driver.Select(ctx, SelectConfig{
			Message: displayLabel(field),
			Options: optionLabels(options),
		})
		if err != nil {
			return err
		}
		if idx < 0 || idx >= len(options) {
			continue
		}
		if s.accept(ctx, field, path, fmt.Sprint(optionValue(options[idx]))) {
			return nil
		}
	}
}

func (s *Session) promptConfirm(ctx context.Context, field *fields.FieldDef, path string) error {
	current, _ := field.ModelValue().(bool)
	for {
		answer, err := s.driver.Confirm(ctx, ConfirmConfig{
			Message: displayLabel(field),
			Default: current,
			Help:    displayHelp(field),
		})
		if err != nil {
			return err
		}
		if s.accept(ctx, field, path, answer) {
			return nil
		}
	}
}

func (s *Session) promptSelect(ctx context.Context, field *fields.FieldDef, path string) error {
	if field.Select == nil || len(field.Select.Items) == 0 {
		return fmt.Errorf("%w: %s", ErrNoOptions, path)
	}
	items := field.Select.Items
	labels := optionLabels(items)
	defaultIdx := -1
	if current, ok := field.ModelValue().(fields.SelectValue); ok && current.Value != nil {
		for idx, item := range items {
			if fmt.Sprint(optionValue(item)) == fmt.Sprint(current.Value) {
				defaultIdx = idx
			}
		}
	}

	for {
		idx, err := s.driver.Select(ctx, SelectConfig{
			Message:      displayLabel(field),
			Options:      labels,
			DefaultIndex: defaultIdx,
			Help:         displayHelp(field),
		})
		if err != nil {
			return err
		}
		if idx < 0 || idx >= len(items) {
			continue
		}
		value := fields.SelectValue{Value: optionValue(items[idx]), Display: labels[idx]}
		if s.accept(ctx, field, path, value) {
			return nil
		}
	}
}

func (s *Session) promptChoices(ctx context.Context, field *fields.FieldDef, path string) error {
	if len(field.Choices) == 0 {
		return fmt.Errorf("%w: %s", ErrNoOptions, path)
	}
	labels := optionLabels(field.Choices)
	defaults := indicesOf(labels, stringifySlice(field.ModelValue()))

	for {
		indices, err := s.driver.MultiSelect(ctx, SelectConfig{
			Message:  displayLabel(field),
			Options:  labels,
			Defaults: defaults,
			Help:     displayHelp(field),
		})
		if err != nil {
			return err
		}
		var selected []any
		for _, idx := range indices {
			if idx >= 0 && idx < len(field.Choices) {
				selected = append(selected, optionValue(field.Choices[idx]))
			}
		}
		var value any
		if len(selected) > 0 {
			value = selected
		}
		if s.accept(ctx, field, path, value) {
			return nil
		}
	}
}

func (s *Session) promptArray(ctx context.Context, field *fields.FieldDef, path string) error {
	spec := field.Array
	if spec == nil {
		return fmt.Errorf("tui: %s: array field was not built", path)
	}
	if !spec.SubSchema {
		return s.promptOptionItems(ctx, field, path)
	}

	items := coerceAnySlice(field.ModelValue())
	for {
		add, err := s.driver.Confirm(ctx, ConfirmConfig{
			Message: fmt.Sprintf("Add an item to %s?", displayLabel(field)),
			Default: field.Required && len(items) == 0,
		})
		if err != nil {
			return err
		}
		if add {
			item, err := s.promptItem(ctx, spec, fmt.Sprintf("%s.%d", path, len(items)))
			if err != nil {
				return err
			}
			items = append(items, item)
			continue
		}
		if s.accept(ctx, field, path, items) {
			return nil
		}
	}
}

// promptItem fills one array item using the nested field templates. The
// templates are restored afterwards so each item starts from the same
// defaults, plus the prefills of the chosen sub-type.
func (s *Session) promptItem(ctx context.Context, spec *fields.ArraySpec, path string) (map[string]any, error) {
	template := spec.SubFields
	var chosen *fields.MultiTypeDescriptor
	if spec.MultiTyped {
		if len(spec.MultiTypes) == 0 {
			return nil, fmt.Errorf("%w: %s item types", ErrNoOptions, path)
		}
		labels := make([]string, 0, len(spec.MultiTypes))
		for _, multiType := range spec.MultiTypes {
			label := multiType.Title
			if label == "" {
				label = multiType.Type
			}
			labels = append(labels, label)
		}
		idx, err := s.driver.Select(ctx, SelectConfig{Message: "Item type", Options: labels})
		if err != nil {
			return nil, err
		}
		if idx < 0 || idx >= len(spec.MultiTypes) {
			idx = 0
		}
		chosen = &spec.MultiTypes[idx]
		template = spec.TypedSubFields[chosen.Type]
	}

	snapshot := make([]any, len(template))
	for idx, nested := range template {
		snapshot[idx] = nested.ModelValue()
	}
	defer func() {
		for idx, nested := range template {
			nested.SetModelValue(snapshot[idx])
		}
	}()

	if chosen != nil {
		for _, nested := range template {
			if prefill, ok := chosen.Prefills[nested.Key]; ok {
				nested.SetModelValue(prefill)
			}
		}
	}

	item := make(map[string]any, len(template)+1)
	for _, nested := range template {
		if err := s.prompt(ctx, nested, path+"."+nested.Key); err != nil {
			return nil, err
		}
		item[nested.Key] = nested.ModelValue()
	}
	if chosen != nil {
		item[s.typeKey] = chosen.Type
	}
	return item, nil
}

// promptOptionItems handles arrays of inline options (multi-select over the
// option list) and arrays of bare primitives (comma separated input).
func (s *Session) promptOptionItems(ctx context.Context, field *fields.FieldDef, path string) error {
	spec := field.Array
	if spec.OptionsList == nil || spec.OptionsList.Len() == 0 {
		for {
			input, err := s.driver.Input(ctx, InputConfig{
				Message: displayLabel(field),
				Default: strings.Join(stringifySlice(field.ModelValue()), ", "),
				Help:    "Comma separated values",
			})
			if err != nil {
				return err
			}
			items := []any{}
			for _, part := range strings.Split(input, ",") {
				if part = strings.TrimSpace(part); part != "" {
					items = append(items, part)
				}
			}
			if s.accept(ctx, field, path, items) {
				return nil
			}
		}
	}

	var keys []any
	var labels []string
	for pair := spec.OptionsList.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
		labels = append(labels, fmt.Sprint(pair.Value))
	}
	defaults := indicesOf(stringifySlice(keys), stringifySlice(field.ModelValue()))
	for {
		indices, err := s.driver.MultiSelect(ctx, SelectConfig{
			Message:  displayLabel(field),
			Options:  labels,
			Defaults: defaults,
		})
		if err != nil {
			return err
		}
		items := []any{}
		for _, idx := range indices {
			if idx >= 0 && idx < len(keys) {
				items = append(items, keys[idx])
			}
		}
		if s.accept(ctx, field, path, items) {
			return nil
		}
	}
}

func parseNumber(field *fields.FieldDef, text string) (any, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, nil
	}
	if field.Kind == fields.KindForeignKey {
		if id, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
			return id, nil
		}
		return trimmed, nil
	}
	if field.Numeric != nil && field.Numeric.Step == 1 {
		n, err := strconv.ParseInt(trimmed, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a whole number", trimmed)
		}
		return n, nil
	}
	n, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return nil, fmt.Errorf("%q is not a number", trimmed)
	}
	return n, nil
}

func displayLabel(field *fields.FieldDef) string {
	if field.Title != "" {
		return field.Title
	}
	return field.Key
}

// displayHelp summarises the field's parameterised rules.
func displayHelp(field *fields.FieldDef) string {
	var parts []string
	for _, rule := range field.Rules {
		if value, ok := rule.Params["value"]; ok {
			parts = append(parts, rule.Kind+" "+value)
		}
	}
	sort.Strings(parts)
	return strings.Join(parts, ", ")
}

func displayDefault(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	default:
		return fmt.Sprint(typed)
	}
}

func optionLabels(options []any) []string {
	labels := make([]string, 0, len(options))
	for _, option := range options {
		labels = append(labels, optionLabel(option))
	}
	return labels
}

func optionLabel(option any) string {
	switch typed := option.(type) {
	case map[string]any:
		if display, ok := typed["display"]; ok && display != nil {
			return fmt.Sprint(display)
		}
		if value, ok := typed["value"]; ok {
			return fmt.Sprint(value)
		}
	case fields.SelectValue:
		return fmt.Sprint(typed.Display)
	}
	return fmt.Sprint(option)
}

func optionValue(option any) any {
	switch typed := option.(type) {
	case map[string]any:
		if value, ok := typed["value"]; ok {
			return value
		}
	case fields.SelectValue:
		return typed.Value
	}
	return option
}

func stringifySlice(value any) []string {
	items := coerceAnySlice(value)
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, fmt.Sprint(item))
	}
	return out
}

func coerceAnySlice(value any) []any {
	switch typed := value.(type) {
	case []any:
		return append([]any{}, typed...)
	case []string:
		out := make([]any, 0, len(typed))
		for _, item := range typed {
			out = append(out, item)
		}
		return out
	default:
		return []any{}
	}
}
