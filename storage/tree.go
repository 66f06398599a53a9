package storage

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Leaves flattens a path -> value update map so that nested maps
// become slash-separated leaf paths. Firebase accepts nested values
// directly; the flat adapters (memory, sql, redis) store leaves only
func Leaves(updates map[string]any) map[string]any {
	out := make(map[string]any, len(updates))

	for path, value := range updates {
		flattenInto(out, strings.Trim(path, "/"), value)
	}

	return out
}

func flattenInto(out map[string]any, path string, value any) {
	switch nested := value.(type) {
	case map[string]any:
		for k, v := range nested {
			flattenInto(out, path+"/"+k, v)
		}
	default:
		out[path] = value
	}
}

// Assemble rebuilds the subtree rooted at prefix from flat leaf
// entries, and decodes it into out through JSON. Leaf values must be
// JSON-marshalable. When prefix addresses a single leaf, that value
// is decoded directly
func Assemble(leaves map[string]any, prefix string, out any) error {
	prefix = strings.Trim(prefix, "/")

	if v, ok := leaves[prefix]; ok {
		return decodeJSON(v, out)
	}

	tree := make(map[string]any)
	found := false

	for path, value := range leaves {
		if !strings.HasPrefix(path, prefix+"/") {
			continue
		}

		found = true

		insertLeaf(tree, strings.Split(strings.TrimPrefix(path, prefix+"/"), "/"), value)
	}

	if !found {
		return nil // absent, leave out untouched
	}

	return decodeJSON(tree, out)
}

func insertLeaf(tree map[string]any, parts []string, value any) {
	if len(parts) == 1 {
		tree[parts[0]] = value

		return
	}

	child, ok := tree[parts[0]].(map[string]any)
	if !ok {
		child = make(map[string]any)
		tree[parts[0]] = child
	}

	insertLeaf(child, parts[1:], value)
}

func decodeJSON(value, out any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("unable to marshal stored value: %w", err)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("unable to decode stored value: %w", err)
	}

	return nil
}
