package options

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/buger/jsonparser"
	"go.uber.org/zap"

	"github.com/goliatone/go-formdef/pkg/schema"
)

const maxResponseBytes = 4 << 20

var (
	// ErrRelativeEndpoint is returned when an endpoint URL is relative and no
	// base URL was configured.
	ErrRelativeEndpoint = errors.New("options: relative endpoint requires a base url")
	// ErrUnsupportedMethod is returned for endpoints using anything but GET.
	ErrUnsupportedMethod = errors.New("options: unsupported endpoint method")
)

// Remote returns a ListMethod querying endpoint over HTTP. The query is sent
// in SearchParam (default "q") alongside the static params. Results are read
// from ResultsPath (dot separated, the document root when empty) and mapped
// to {value, display} items using ValueKey and LabelKey.
func Remote(endpoint schema.Endpoint, fns ...OptionFn) (schema.ListMethod, error) {
	opts := NewOptions(fns...)

	method := strings.ToUpper(strings.TrimSpace(endpoint.Method))
	if method != "" && method != http.MethodGet {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMethod, endpoint.Method)
	}
	target, err := resolveURL(endpoint.URL, opts.BaseURL)
	if err != nil {
		return nil, err
	}

	searchParam := endpoint.SearchParam
	if searchParam == "" {
		searchParam = "q"
	}
	valueKey := endpoint.ValueKey
	if valueKey == "" {
		valueKey = "value"
	}
	labelKey := endpoint.LabelKey
	if labelKey == "" {
		labelKey = "label"
	}
	var resultsPath []string
	if endpoint.ResultsPath != "" {
		resultsPath = strings.Split(endpoint.ResultsPath, ".")
	}

	return func(ctx context.Context, query string) ([]any, error) {
		reqURL := *target
		params := reqURL.Query()
		for key, value := range endpoint.Params {
			params.Set(key, value)
		}
		params.Set(searchParam, query)
		reqURL.RawQuery = params.Encode()

		body, err := fetch(ctx, opts, reqURL.String())
		if err != nil {
			return nil, err
		}
		items, err := extract(body, resultsPath, valueKey, labelKey)
		if err != nil {
			return nil, fmt.Errorf("options: decode %s: %w", target.String(), err)
		}
		opts.Logger.Debug("remote options fetched",
			zap.String("url", target.String()),
			zap.String("query", query),
			zap.Int("results", len(items)),
		)
		return items, nil
	}, nil
}

func resolveURL(raw, base string) (*url.URL, error) {
	target, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("options: parse endpoint url: %w", err)
	}
	if target.IsAbs() {
		return target, nil
	}
	if base == "" {
		return nil, fmt.Errorf("%w: %q", ErrRelativeEndpoint, raw)
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("options: parse base url: %w", err)
	}
	return baseURL.ResolveReference(target), nil
}

func fetch(ctx context.Context, opts Options, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("options: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := opts.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("options: fetch %s: %w", target, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("options: fetch %s: unexpected status %s", target, resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("options: read %s: %w", target, err)
	}
	return body, nil
}

func extract(body []byte, path []string, valueKey, labelKey string) ([]any, error) {
	list, dataType, _, err := jsonparser.Get(body, path...)
	if err != nil {
		return nil, err
	}
	if dataType != jsonparser.Array {
		return nil, fmt.Errorf("results are %s, not an array", dataType)
	}

	items := []any{}
	var itemErr error
	_, err = jsonparser.ArrayEach(list, func(value []byte, dataType jsonparser.ValueType, _ int, _ error) {
		if itemErr != nil {
			return
		}
		if dataType != jsonparser.Object {
			scalar := scalarValue(value, dataType)
			items = append(items, map[string]any{"value": scalar, "display": scalar})
			return
		}
		raw, valueType, _, err := jsonparser.Get(value, valueKey)
		if err != nil {
			itemErr = fmt.Errorf("item missing %q: %w", valueKey, err)
			return
		}
		item := map[string]any{"value": scalarValue(raw, valueType)}
		if rawLabel, labelType, _, err := jsonparser.Get(value, labelKey); err == nil {
			item["display"] = scalarValue(rawLabel, labelType)
		} else {
			item["display"] = item["value"]
		}
		items = append(items, item)
	})
	if err != nil {
		return nil, err
	}
	if itemErr != nil {
		return nil, itemErr
	}
	return items, nil
}

func scalarValue(raw []byte, dataType jsonparser.ValueType) any {
	switch dataType {
	case jsonparser.String:
		if value, err := jsonparser.ParseString(raw); err == nil {
			return value
		}
	case jsonparser.Number:
		if value, err := jsonparser.ParseInt(raw); err == nil {
			return value
		}
		if value, err := jsonparser.ParseFloat(raw); err == nil {
			return value
		}
	case jsonparser.Boolean:
		if value, err := jsonparser.ParseBoolean(raw); err == nil {
			return value
		}
	case jsonparser.Null:
		return nil
	}
	return string(raw)
}
