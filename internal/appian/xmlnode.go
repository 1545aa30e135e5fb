package appian

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"
)

// xmlNode is a schema-free XML element tree. Appian export schemas differ per
// object type and per product version, so the strategies query this tree
// instead of binding to fixed structs.
type xmlNode struct {
	Name     string
	Attrs    map[string]string
	Text     string
	Children []*xmlNode
}

func parseXMLTree(data []byte) (*xmlNode, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false

	var root *xmlNode
	var stack []*xmlNode
	for {
		tok, err := dec.Token()
		if err != nil {
			if root != nil && errors.Is(err, io.EOF) {
				break
			}
			if root == nil {
				return nil, err
			}
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			n := &xmlNode{
				Name:  strings.ToLower(t.Name.Local),
				Attrs: map[string]string{},
			}
			for _, a := range t.Attr {
				n.Attrs[strings.ToLower(a.Name.Local)] = a.Value
			}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, n)
			} else if root == nil {
				root = n
			}
			stack = append(stack, n)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].Text += string(t)
			}
		}
	}
	if root == nil {
		return nil, &xml.SyntaxError{Msg: "no root element"}
	}
	trimTree(root)
	return root, nil
}

func trimTree(n *xmlNode) {
	n.Text = strings.TrimSpace(n.Text)
	for _, c := range n.Children {
		trimTree(c)
	}
}

// firstText returns the text of the first descendant whose name matches any
// of names, in document order.
func (n *xmlNode) firstText(names ...string) string {
	found := n.first(names...)
	if found == nil {
		return ""
	}
	return found.Text
}

func (n *xmlNode) first(names ...string) *xmlNode {
	for _, name := range names {
		if f := n.findFirst(strings.ToLower(name)); f != nil {
			return f
		}
	}
	return nil
}

func (n *xmlNode) findFirst(name string) *xmlNode {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	for _, c := range n.Children {
		if f := c.findFirst(name); f != nil {
			return f
		}
	}
	return nil
}

// all collects every descendant with one of the given names, in document
// order.
func (n *xmlNode) all(names ...string) []*xmlNode {
	want := map[string]bool{}
	for _, name := range names {
		want[strings.ToLower(name)] = true
	}
	var out []*xmlNode
	var walk func(*xmlNode)
	walk = func(cur *xmlNode) {
		for _, c := range cur.Children {
			if want[c.Name] {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(n)
	return out
}

// attr returns the first non-empty attribute among names.
func (n *xmlNode) attr(names ...string) string {
	for _, name := range names {
		if v := n.Attrs[strings.ToLower(name)]; v != "" {
			return v
		}
	}
	return ""
}

// flatText flattens all descendant text into one blob, used as the fallback
// serialized content for object kinds without a code body.
func (n *xmlNode) flatText() string {
	var b strings.Builder
	var walk func(*xmlNode)
	walk = func(cur *xmlNode) {
		if cur.Text != "" {
			if b.Len() > 0 {
				b.WriteByte('\n')
			}
			b.WriteString(cur.Text)
		}
		for _, c := range cur.Children {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
