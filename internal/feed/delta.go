package feed

import (
	"strconv"

	"github.com/spf13/cast"

	"coronabot/internal/models"
)

// Deltas compares freshly fetched attributes against the stored values of
// one subscription and returns the signed change per tracked field, e.g.
// "+20" or "-10". Stored values are updated in place to the fetched ones.
//
// A zero or absent fetched value is treated as "no data this cycle": the
// field keeps its stored value and produces no delta. The upstream service
// intermittently returns empty rows, and overwriting with zero would emit a
// huge negative delta followed by an equally wrong positive one.
func Deltas(stored map[string]int64, attrs map[string]any) map[string]string {
	changes := make(map[string]string)
	for _, field := range models.TrackedFields {
		fresh := cast.ToInt64(attrs[field])
		if fresh == 0 || fresh == stored[field] {
			continue
		}
		delta := fresh - stored[field]
		text := strconv.FormatInt(delta, 10)
		if delta > 0 {
			text = "+" + text
		}
		changes[field] = text
		stored[field] = fresh
	}
	return changes
}
