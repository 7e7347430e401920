// Package mindmap turns extracted PDF text into topic lists and mind maps.
//
// The flow for every backend response is parse-then-validate: ParseResponse
// yields an untyped JSON document, and a schema pass (Validate for mind maps,
// validateTopicList for topics) either produces a typed value or fails with a
// classified error naming the first violation.
package mindmap

// Node is one labelled entry of a mind map. Parent is 0 for children of the
// root topic, otherwise the ID of another node in the same map.
type Node struct {
	ID     int    `json:"id" yaml:"id"`
	Parent int    `json:"parent" yaml:"parent"`
	Text   string `json:"text" yaml:"text"`
}

// RootParent is the parent value of top-level nodes.
const RootParent = 0

// MindMap is a rooted tree stored as a flat node list with parent pointers.
// Values returned by Validate satisfy: non-blank Topic, at least one node,
// unique IDs, every Parent resolves, and no parent chain loops.
type MindMap struct {
	Topic string `json:"topic" yaml:"topic"`
	Nodes []Node `json:"nodes" yaml:"nodes"`
}

// TopicsResult is the output of topic detection.
type TopicsResult struct {
	Topics []string `json:"topics" yaml:"topics"`
}

// MindMapResult is the output of mind map generation.
type MindMapResult struct {
	MindMap MindMap `json:"mindmap" yaml:"mindmap"`
}

// FilteredText is the output of the topic filter. An empty TopicText always
// comes with a Message explaining why nothing was kept.
type FilteredText struct {
	TopicText string `json:"topic_text" yaml:"topic_text"`
	Message   string `json:"message,omitempty" yaml:"message,omitempty"`
}

// Empty reports whether the filter found no usable content.
func (f FilteredText) Empty() bool {
	return f.TopicText == ""
}

// Document converts m back to the untyped form produced by ParseResponse.
// Validate(m.Document()) returns an equal MindMap for any validated m.
func (m MindMap) Document() map[string]any {
	nodes := make([]any, len(m.Nodes))
	for i, n := range m.Nodes {
		nodes[i] = map[string]any{
			"id":     int64(n.ID),
			"parent": int64(n.Parent),
			"text":   n.Text,
		}
	}
	return map[string]any{
		"topic": m.Topic,
		"nodes": nodes,
	}
}

// Children returns the nodes whose Parent is parent, in list order.
func (m MindMap) Children(parent int) []Node {
	var children []Node
	for _, n := range m.Nodes {
		if n.Parent == parent {
			children = append(children, n)
		}
	}
	return children
}

// Levels maps every node ID to its depth: 0 for children of the root, 1 for
// their children, and so on. m must be a validated mind map.
func (m MindMap) Levels() map[int]int {
	parents := make(map[int]int, len(m.Nodes))
	for _, n := range m.Nodes {
		parents[n.ID] = n.Parent
	}

	levels := make(map[int]int, len(m.Nodes))
	for _, n := range m.Nodes {
		var chain []int
		id := n.ID
		depth := -1
		for {
			if d, ok := levels[id]; ok {
				depth = d
				break
			}
			chain = append(chain, id)
			parent := parents[id]
			if parent == RootParent || len(chain) > len(m.Nodes) {
				break
			}
			id = parent
		}
		for i := len(chain) - 1; i >= 0; i-- {
			depth++
			levels[chain[i]] = depth
		}
	}
	return levels
}

// Depth returns the number of levels below the root topic.
func (m MindMap) Depth() int {
	max := 0
	for _, d := range m.Levels() {
		if d+1 > max {
			max = d + 1
		}
	}
	return max
}

// CountByLevel returns how many nodes sit at each depth, indexed by depth.
func (m MindMap) CountByLevel() []int {
	var counts []int
	for _, d := range m.Levels() {
		for len(counts) <= d {
			counts = append(counts, 0)
		}
		counts[d]++
	}
	return counts
}
