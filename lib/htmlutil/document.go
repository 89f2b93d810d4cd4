package htmlutil

import (
	"bytes"

	"github.com/PuerkitoBio/goquery"
)

// Node is an opaque handle to an element, only meaningful to the Document
// that produced it.
type Node any

// Document is the minimal query capability the scrapers need, it keeps
// them independent of a specific html library.
type Document interface {
	Root() Node
	// QueryAll returns every descendant of root matching a css selector in
	// document order.
	QueryAll(root Node, selector string) []Node
	// Attr returns the attribute value or "" if the node doesn't have it.
	Attr(node Node, name string) string
	// Text returns the concatenated text content of the node.
	Text(node Node) string
	// Next returns the next element sibling or nil.
	Next(node Node) Node
	// Children returns the element children of node.
	Children(node Node) []Node
}

// Parser turns a raw page body into a Document.
type Parser func(body []byte) (Document, error)

type goqueryDocument struct {
	doc *goquery.Document
}

// ParseGoquery is the default Parser.
func ParseGoquery(body []byte) (Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	return goqueryDocument{doc: doc}, nil
}

func selection(node Node) *goquery.Selection {
	sel, ok := node.(*goquery.Selection)
	if !ok || sel == nil {
		return nil
	}
	return sel
}

func (d goqueryDocument) Root() Node {
	return d.doc.Selection
}

func (d goqueryDocument) QueryAll(root Node, selector string) []Node {
	sel := selection(root)
	if sel == nil {
		return nil
	}
	found := sel.Find(selector)
	nodes := make([]Node, 0, found.Length())
	found.Each(func(_ int, s *goquery.Selection) {
		nodes = append(nodes, s)
	})
	return nodes
}

func (d goqueryDocument) Attr(node Node, name string) string {
	sel := selection(node)
	if sel == nil {
		return ""
	}
	return sel.AttrOr(name, "")
}

func (d goqueryDocument) Text(node Node) string {
	sel := selection(node)
	if sel == nil {
		return ""
	}
	return GetText(sel.Get(0))
}

func (d goqueryDocument) Next(node Node) Node {
	sel := selection(node)
	if sel == nil {
		return nil
	}
	next := sel.Next()
	if next.Length() == 0 {
		return nil
	}
	return next
}

func (d goqueryDocument) Children(node Node) []Node {
	sel := selection(node)
	if sel == nil {
		return nil
	}
	children := sel.Children()
	nodes := make([]Node, 0, children.Length())
	children.Each(func(_ int, s *goquery.Selection) {
		nodes = append(nodes, s)
	})
	return nodes
}
