package notes

import (
	"bytes"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Front matter keys owned by skilltree. Every other key is left untouched.
const (
	KeyID       = "skilltree-id"
	KeyExp      = "skilltree-exp"
	KeyShape    = "skilltree-shape"
	KeyRequires = "skilltree-requires"
	KeyUnlocks  = "skilltree-unlocks"
)

// Meta is the skilltree view of a document's front matter. Nil or empty
// fields were absent or unreadable.
type Meta struct {
	NodeID   *int
	Exp      *int
	Shape    string
	Requires []int
	Unlocks  []int
}

// Update describes a front matter write. ID, Requires and Unlocks are always
// written; Exp and Shape only when set, so a value the user typed is never
// replaced by an empty one.
type Update struct {
	ID       int
	Requires []int
	Unlocks  []int
	Exp      *int
	Shape    string
}

// SplitFrontMatter separates a leading "---" fenced block from the body.
func SplitFrontMatter(content string) (fm, body string, ok bool) {
	first := strings.IndexByte(content, '\n')
	if first < 0 || strings.TrimRight(content[:first], "\r") != "---" {
		return "", content, false
	}
	rest := content[first+1:]
	off := 0
	for {
		end := strings.IndexByte(rest[off:], '\n')
		line := rest[off:]
		if end >= 0 {
			line = rest[off : off+end]
		}
		if strings.TrimRight(line, "\r") == "---" {
			if end < 0 {
				return rest[:off], "", true
			}
			return rest[:off], rest[off+end+1:], true
		}
		if end < 0 {
			return "", content, false
		}
		off += end + 1
	}
}

func mappingNode(fm string) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(fm), &doc); err != nil {
		return nil, err
	}
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 && doc.Content[0].Kind == yaml.MappingNode {
		return doc.Content[0], nil
	}
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}, nil
}

func lookup(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

func set(m *yaml.Node, key string, value *yaml.Node) {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			m.Content[i+1] = value
			return
		}
	}
	m.Content = append(m.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		value,
	)
}

func intNode(v int) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(v)}
}

func intSeqNode(vs []int) *yaml.Node {
	n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Style: yaml.FlowStyle}
	for _, v := range vs {
		n.Content = append(n.Content, intNode(v))
	}
	return n
}

func decodeInt(n *yaml.Node) *int {
	if n == nil {
		return nil
	}
	var v int
	if err := n.Decode(&v); err != nil {
		return nil
	}
	return &v
}

func decodeInts(n *yaml.Node) []int {
	if n == nil {
		return nil
	}
	var vs []int
	if err := n.Decode(&vs); err != nil {
		return nil
	}
	return vs
}

// ReadMeta extracts the skilltree keys. A value of the wrong type is treated
// as absent; only unparseable YAML is an error.
func ReadMeta(content string) (Meta, error) {
	fm, _, ok := SplitFrontMatter(content)
	if !ok {
		return Meta{}, nil
	}
	m, err := mappingNode(fm)
	if err != nil {
		return Meta{}, err
	}
	meta := Meta{
		NodeID:   decodeInt(lookup(m, KeyID)),
		Exp:      decodeInt(lookup(m, KeyExp)),
		Requires: decodeInts(lookup(m, KeyRequires)),
		Unlocks:  decodeInts(lookup(m, KeyUnlocks)),
	}
	if meta.Exp != nil && *meta.Exp < 0 {
		meta.Exp = nil
	}
	if n := lookup(m, KeyShape); n != nil && n.Kind == yaml.ScalarNode {
		meta.Shape = n.Value
	}
	return meta, nil
}

// WriteMeta applies u to the front matter of content, creating the block if
// the document has none. Keys not owned by skilltree keep their order and
// values.
func WriteMeta(content string, u Update) (string, error) {
	fm, body, ok := SplitFrontMatter(content)
	if !ok {
		body = content
	}
	m, err := mappingNode(fm)
	if err != nil {
		return content, err
	}

	set(m, KeyID, intNode(u.ID))
	set(m, KeyRequires, intSeqNode(u.Requires))
	set(m, KeyUnlocks, intSeqNode(u.Unlocks))
	if u.Exp != nil {
		set(m, KeyExp, intNode(*u.Exp))
	}
	if u.Shape != "" {
		set(m, KeyShape, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: u.Shape})
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return content, err
	}
	if err := enc.Close(); err != nil {
		return content, err
	}
	return "---\n" + buf.String() + "---\n" + body, nil
}
