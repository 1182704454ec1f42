package serialize

import "sessionlog/internal/model"

const (
	// MaxEstimateEntries caps the entries counted per list or map level.
	MaxEstimateEntries = 20

	tableOverhead = 16
	numberSize    = 8
	boolSize      = 1
	referenceSize = 8
)

// EstimateSize approximates the bytes held by v. Lists and maps cost a fixed
// overhead plus their keys and values, bounded by MaxDepth and
// MaxEstimateEntries; anything past the depth bound counts as a reference.
func EstimateSize(v model.Value) int {
	return estimate(v, 0)
}

func estimate(v model.Value, depth int) int {
	switch v.Kind() {
	case model.KindNull:
		return 0
	case model.KindString:
		return len(v.Str())
	case model.KindNumber:
		return numberSize
	case model.KindBool:
		return boolSize
	case model.KindList, model.KindMap:
		if depth >= MaxDepth {
			return referenceSize
		}
	default:
		return referenceSize
	}

	size := tableOverhead
	if v.Kind() == model.KindList {
		for i, item := range v.Items() {
			if i >= MaxEstimateEntries {
				break
			}
			size += numberSize + estimate(item, depth+1)
		}
		return size
	}
	for i, f := range v.Fields() {
		if i >= MaxEstimateEntries {
			break
		}
		size += len(f.Key) + estimate(f.Value, depth+1)
	}
	return size
}

// EstimateEntry approximates the bytes held by one stored entry, counting it
// as a map of its fields.
func EstimateEntry(e model.Entry) int {
	return EstimateSize(model.Map(
		model.F("timestamp", model.Int(e.Timestamp.Unix())),
		model.F("sessionTime", model.Int(int64(e.SessionTime.Seconds()))),
		model.F("level", model.String(string(e.Level))),
		model.F("category", model.String(e.Category)),
		model.F("message", model.String(e.Message)),
		model.F("data", e.Data),
	))
}
