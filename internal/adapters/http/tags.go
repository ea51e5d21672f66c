package http

import "sort"

type tag struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// sortedTags flattens a tag map into key order for stable output.
func sortedTags(m map[string]string) []tag {
	out := make([]tag, 0, len(m))
	for k, v := range m {
		out = append(out, tag{Key: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
