package formula

import (
	"encoding/json"
	"strconv"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ConvertValuesDict flattens a raw scouting record into the values the
// engine consumes. Booleans become 0 or 1, Go, JSON and BSON numbers
// become numbers, strings pass through as text. Nil values, nested
// documents, arrays, object ids, dates and anything else are dropped.
func ConvertValuesDict(raw map[string]any) ValueDict {
	values := make(ValueDict, len(raw))
	for key, v := range raw {
		if value, ok := convertValue(v); ok {
			values[key] = value
		}
	}
	return values
}

func convertValue(v any) (Value, bool) {
	switch val := v.(type) {
	case bool:
		if val {
			return Number(1), true
		}
		return Number(0), true
	case string:
		return Text(val), true
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return Value{}, false
		}
		return Number(f), true
	case primitive.Decimal128:
		f, err := strconv.ParseFloat(val.String(), 64)
		if err != nil {
			return Value{}, false
		}
		return Number(f), true
	}

	if f, ok := toNumber(v); ok {
		return Number(f), true
	}
	return Value{}, false
}
