package protocol

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Species maps an animal name to the classifier's confidence for it.
type Species map[string]float64

// String renders the map with sorted keys so output and logs are
// deterministic for the same classification.
func (s Species) String() string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, formatConfidence(s[k])))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Meets reports whether any entry reaches the threshold recorded for it
// in want. Species absent from want never match.
func (s Species) Meets(want Species) bool {
	for animal, conf := range s {
		if threshold, ok := want[animal]; ok && conf >= threshold {
			return true
		}
	}
	return false
}

func formatConfidence(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
