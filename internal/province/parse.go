package province

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/i474232898/cuba-rates/internal/exchange"
)

// RateData is one row read out of the province table image.
type RateData struct {
	Province string   `json:"province"`
	USD      *float64 `json:"usd,omitempty"`
	EUR      *float64 `json:"eur,omitempty"`
	MLC      *float64 `json:"mlc,omitempty"`
}

var (
	jsonFence  = regexp.MustCompile("```json\\n?")
	plainFence = regexp.MustCompile("```\\n?")
)

// stripCodeFences removes markdown code fence markers the model may add.
func stripCodeFences(content string) string {
	content = jsonFence.ReplaceAllString(content, "")
	content = plainFence.ReplaceAllString(content, "")
	return strings.TrimSpace(content)
}

// ParseRates decodes the model answer into rows. The answer must be a JSON
// array whose every element carries a non-empty string "province"; any
// violation fails the whole batch with a *exchange.ParseError.
// Currency values that are not JSON numbers are treated as absent.
func ParseRates(content string) ([]RateData, error) {
	cleaned := stripCodeFences(content)

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &items); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			err = errors.New("response is not an array")
		}
		return nil, &exchange.ParseError{Raw: content, Err: err}
	}
	if items == nil {
		return nil, &exchange.ParseError{Raw: content, Err: errors.New("response is not an array")}
	}

	rows := make([]RateData, 0, len(items))
	for _, raw := range items {
		var item struct {
			Province interface{} `json:"province"`
			USD      interface{} `json:"usd"`
			EUR      interface{} `json:"eur"`
			MLC      interface{} `json:"mlc"`
		}
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, &exchange.ParseError{Raw: content, Err: errors.New("invalid province data structure")}
		}
		name, ok := item.Province.(string)
		if !ok || name == "" {
			return nil, &exchange.ParseError{Raw: content, Err: errors.New("invalid province data structure")}
		}

		rows = append(rows, RateData{
			Province: name,
			USD:      number(item.USD),
			EUR:      number(item.EUR),
			MLC:      number(item.MLC),
		})
	}
	return rows, nil
}

// number keeps JSON numbers only; "N/A", "-", null and the like become nil.
func number(v interface{}) *float64 {
	f, ok := v.(float64)
	if !ok {
		return nil
	}
	return &f
}
