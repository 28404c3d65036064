package mapping

import (
	"sort"
	"strings"
)

// Resolve maps every configured field to its header position. Headers are
// compared trimmed and case-insensitively; the first matching header wins.
// Fields whose column is absent are returned in missing, sorted by field name.
func Resolve(headers []string, columns map[Field]string) (index map[Field]int, missing []Field) {
	index = make(map[Field]int, len(columns))
	for field, name := range columns {
		if i, ok := headerIndex(headers, name); ok {
			index[field] = i
		} else {
			missing = append(missing, field)
		}
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
	return index, missing
}

func headerIndex(headers []string, name string) (int, bool) {
	want := strings.ToLower(strings.TrimSpace(name))
	for i, h := range headers {
		h = strings.ToLower(strings.TrimSpace(h))
		if h != "" && h == want {
			return i, true
		}
	}
	return 0, false
}
