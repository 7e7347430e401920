package mindmap

import (
	"fmt"
	"strings"

	"mindmap_backend/core"
)

// ValidationError names the first structural rule a backend document broke.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func invalidMindMap(format string, args ...any) error {
	return core.WrapError(core.KindInvalidMindMap,
		&ValidationError{Reason: fmt.Sprintf(format, args...)},
		"invalid mind map")
}

func invalidTopicList(format string, args ...any) error {
	return core.WrapError(core.KindInvalidTopicList,
		&ValidationError{Reason: fmt.Sprintf(format, args...)},
		"invalid topic list")
}

// Validate checks doc against the mind map schema and returns the typed map.
// Rules are applied in a fixed order and the first violation is reported:
// object shape, topic, nodes list, non-empty nodes, per-node field types,
// unique ids, parent references, and finally parent cycles.
func Validate(doc any) (MindMap, error) {
	obj, ok := doc.(map[string]any)
	if !ok {
		return MindMap{}, invalidMindMap("mind map must be a JSON object, got %s", describe(doc))
	}

	rawTopic, ok := obj["topic"]
	if !ok {
		return MindMap{}, invalidMindMap("mind map must have a 'topic' field")
	}
	topic, ok := rawTopic.(string)
	if !ok {
		return MindMap{}, invalidMindMap("'topic' must be a string, got %s", describe(rawTopic))
	}
	if strings.TrimSpace(topic) == "" {
		return MindMap{}, invalidMindMap("'topic' must not be empty")
	}

	rawNodes, ok := obj["nodes"]
	if !ok {
		return MindMap{}, invalidMindMap("mind map must have a 'nodes' field")
	}
	list, ok := rawNodes.([]any)
	if !ok {
		return MindMap{}, invalidMindMap("'nodes' must be a list, got %s", describe(rawNodes))
	}
	if len(list) == 0 {
		return MindMap{}, invalidMindMap("mind map must have at least one node")
	}

	nodes := make([]Node, 0, len(list))
	for i, item := range list {
		node, err := validateNode(i, item)
		if err != nil {
			return MindMap{}, err
		}
		nodes = append(nodes, node)
	}

	ids := make(map[int]int, len(nodes))
	for _, n := range nodes {
		if _, dup := ids[n.ID]; dup {
			return MindMap{}, invalidMindMap("duplicate node id %d", n.ID)
		}
		ids[n.ID] = n.Parent
	}

	for _, n := range nodes {
		if n.Parent == RootParent {
			continue
		}
		if _, ok := ids[n.Parent]; !ok {
			return MindMap{}, invalidMindMap("node %d has invalid parent reference: %d", n.ID, n.Parent)
		}
	}

	if id, found := findCycle(nodes, ids); found {
		return MindMap{}, invalidMindMap("node %d is its own ancestor", id)
	}

	return MindMap{Topic: topic, Nodes: nodes}, nil
}

func validateNode(index int, item any) (Node, error) {
	obj, ok := item.(map[string]any)
	if !ok {
		return Node{}, invalidMindMap("node %d must be an object, got %s", index, describe(item))
	}

	for _, field := range []string{"id", "parent", "text"} {
		if _, ok := obj[field]; !ok {
			return Node{}, invalidMindMap("node %d must have 'id', 'parent', and 'text' fields (missing '%s')", index, field)
		}
	}

	id, ok := asInt(obj["id"])
	if !ok {
		return Node{}, invalidMindMap("node %d: 'id' must be an integer, got %s", index, describe(obj["id"]))
	}
	parent, ok := asInt(obj["parent"])
	if !ok {
		return Node{}, invalidMindMap("node %d: 'parent' must be an integer, got %s", index, describe(obj["parent"]))
	}
	text, ok := obj["text"].(string)
	if !ok {
		return Node{}, invalidMindMap("node %d: 'text' must be a string, got %s", index, describe(obj["text"]))
	}

	return Node{ID: id, Parent: parent, Text: text}, nil
}

// findCycle walks every parent chain once. ids maps node id to parent and
// must already have every non-root parent resolved.
func findCycle(nodes []Node, ids map[int]int) (int, bool) {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[int]int, len(nodes))

	for _, n := range nodes {
		var path []int
		id := n.ID
		for state[id] == unvisited {
			state[id] = visiting
			path = append(path, id)
			parent := ids[id]
			if parent == RootParent {
				break
			}
			id = parent
		}
		if state[id] == visiting && ids[id] != RootParent {
			return id, true
		}
		for _, p := range path {
			state[p] = done
		}
	}
	return 0, false
}

// validateTopicList checks that doc is a list of strings.
func validateTopicList(doc any) ([]string, error) {
	list, ok := doc.([]any)
	if !ok {
		return nil, invalidTopicList("expected a JSON array, got %s", describe(doc))
	}

	topics := make([]string, 0, len(list))
	for i, item := range list {
		topic, ok := item.(string)
		if !ok {
			return nil, invalidTopicList("topic %d is not a string, got %s", i, describe(item))
		}
		topics = append(topics, topic)
	}
	return topics, nil
}

// asInt accepts the integer types a JSON decoder may produce. Floats and
// booleans are rejected even when they hold whole numbers.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int64:
		return int(n), true
	case int:
		return n, true
	case int32:
		return int(n), true
	default:
		return 0, false
	}
}

func describe(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case int, int32, int64:
		return "integer"
	case float32, float64:
		return "number"
	default:
		return fmt.Sprintf("%T", v)
	}
}
