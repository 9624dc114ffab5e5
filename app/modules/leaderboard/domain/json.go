package leaderboarddomain

import "encoding/json"

// MarshalSorted encodes v as JSON with object keys sorted alphabetically at
// every level, the order the committed site artifacts were generated with.
// An empty indent produces compact output.
func MarshalSorted(v any, indent string) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	// Re-marshal through the generic tree: maps serialize with sorted keys.
	var tree any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil, err
	}
	if indent == "" {
		return json.Marshal(tree)
	}
	return json.MarshalIndent(tree, "", indent)
}
