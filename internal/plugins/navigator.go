package plugins

import (
	"github.com/antchfx/xpath"
	"golang.org/x/net/html"
)

// htmlNavigator implements xpath.NodeNavigator over x/net/html nodes.
// pos tracks attribute iteration: 0 means the element itself, 1..n the
// nth attribute.
type htmlNavigator struct {
	node *html.Node
	pos  int
}

func newHTMLNavigator(root *html.Node) *htmlNavigator {
	return &htmlNavigator{node: root}
}

func (h *htmlNavigator) NodeType() xpath.NodeType {
	switch h.node.Type {
	case html.DocumentNode:
		return xpath.RootNode
	case html.ElementNode:
		if h.pos > 0 && h.pos <= len(h.node.Attr) {
			return xpath.AttributeNode
		}
		return xpath.ElementNode
	case html.TextNode:
		return xpath.TextNode
	case html.CommentNode:
		return xpath.CommentNode
	default:
		return xpath.ElementNode
	}
}

func (h *htmlNavigator) LocalName() string {
	if h.node.Type == html.ElementNode {
		if h.pos > 0 && h.pos <= len(h.node.Attr) {
			return h.node.Attr[h.pos-1].Key
		}
		return h.node.Data
	}
	return ""
}

func (h *htmlNavigator) Prefix() string { return "" }

func (h *htmlNavigator) Value() string {
	switch h.node.Type {
	case html.TextNode, html.CommentNode:
		return h.node.Data
	case html.ElementNode:
		if h.pos > 0 && h.pos <= len(h.node.Attr) {
			return h.node.Attr[h.pos-1].Val
		}
	}
	return ""
}

func (h *htmlNavigator) String() string { return h.Value() }

func (h *htmlNavigator) Copy() xpath.NodeNavigator {
	return &htmlNavigator{node: h.node, pos: h.pos}
}

func (h *htmlNavigator) MoveToRoot() {
	for h.node.Parent != nil {
		h.node = h.node.Parent
	}
	h.pos = 0
}

func (h *htmlNavigator) MoveToParent() bool {
	if h.node.Parent == nil {
		return false
	}
	h.node = h.node.Parent
	h.pos = 0
	return true
}

func (h *htmlNavigator) MoveToNextAttribute() bool {
	if h.node.Type == html.ElementNode && h.pos < len(h.node.Attr) {
		h.pos++
		return true
	}
	return false
}

func (h *htmlNavigator) MoveToChild() bool {
	if h.node.FirstChild == nil {
		return false
	}
	h.node = h.node.FirstChild
	h.pos = 0
	return true
}

func (h *htmlNavigator) MoveToFirst() bool {
	if h.node.Parent == nil || h.node.Parent.FirstChild == nil {
		return false
	}
	h.node = h.node.Parent.FirstChild
	h.pos = 0
	return true
}

func (h *htmlNavigator) MoveToNext() bool {
	if h.node.NextSibling == nil {
		return false
	}
	h.node = h.node.NextSibling
	h.pos = 0
	return true
}

func (h *htmlNavigator) MoveToPrevious() bool {
	if h.node.PrevSibling == nil {
		return false
	}
	h.node = h.node.PrevSibling
	h.pos = 0
	return true
}

func (h *htmlNavigator) MoveTo(other xpath.NodeNavigator) bool {
	o, ok := other.(*htmlNavigator)
	if !ok {
		return false
	}
	h.node = o.node
	h.pos = o.pos
	return true
}
