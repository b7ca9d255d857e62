package render

import (
	"encoding/json"

	"github.com/dkoosis/cowtree/pkg/btree"
)

// JSON renders data as indented JSON for automation.
type JSON struct{}

// NewJSON creates a JSON renderer.
func NewJSON() *JSON {
	return &JSON{}
}

type jsonNode struct {
	Offset   int64    `json:"offset"`
	Leaf     bool     `json:"leaf"`
	Root     bool     `json:"root"`
	Keys     []string `json:"keys,omitempty"`
	Children []int64  `json:"children,omitempty"`
	DataPage *int64   `json:"data_page,omitempty"`
	Pairs    []Pair   `json:"pairs,omitempty"`
}

type jsonStats struct {
	B             int   `json:"b"`
	Root          int64 `json:"root"`
	Height        int   `json:"height"`
	InternalNodes int   `json:"internal_nodes"`
	Leaves        int   `json:"leaves"`
	Keys          int   `json:"keys"`
	FilePages     int64 `json:"file_pages"`
	LogRecords    int   `json:"log_records"`
	TornBytes     int64 `json:"torn_bytes,omitempty"`
	DroppedBytes  int64 `json:"dropped_log_bytes,omitempty"`
}

// Value renders a lookup result.
func (j *JSON) Value(key, value string) string {
	return marshal(Pair{Key: key, Value: value})
}

// Pairs renders a list of pairs.
func (j *JSON) Pairs(pairs []Pair) string {
	if pairs == nil {
		pairs = []Pair{}
	}
	return marshal(pairs)
}

// Stats renders a tree summary.
func (j *JSON) Stats(s btree.Stats) string {
	return marshal(jsonStats{
		B:             s.B,
		Root:          s.Root,
		Height:        s.Height,
		InternalNodes: s.InternalNodes,
		Leaves:        s.Leaves,
		Keys:          s.Pairs,
		FilePages:     s.FilePages,
		LogRecords:    s.LogRecords,
		TornBytes:     s.TornBytes,
		DroppedBytes:  s.DroppedLogBytes,
	})
}

// Node renders one node.
func (j *JSON) Node(n btree.NodeInfo) string {
	out := jsonNode{
		Offset:   n.Offset,
		Leaf:     n.Leaf,
		Root:     n.Root,
		Keys:     n.Keys,
		Children: n.Children,
	}
	if n.Leaf {
		out.DataPage = &n.DataPage
	}
	for _, p := range n.Pairs {
		out.Pairs = append(out.Pairs, Pair{Key: p.Key, Value: p.Value})
	}
	return marshal(out)
}

// Config renders resolved settings.
func (j *JSON) Config(file string, settings []Setting) string {
	if settings == nil {
		settings = []Setting{}
	}
	return marshal(struct {
		File     string    `json:"file,omitempty"`
		Settings []Setting `json:"settings"`
	}{file, settings})
}

func marshal(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		errJSON, _ := json.Marshal(map[string]string{"error": err.Error()})
		return string(errJSON) + "\n"
	}
	return string(data) + "\n"
}
