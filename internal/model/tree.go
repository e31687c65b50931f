package model

import "strings"

// Descendants returns every descendant of root in pre-order, stopping below
// maxDepth. Direct children are at depth 0, so at most maxDepth+1 levels
// beneath root are visited. The root itself is not included.
func Descendants(root Element, maxDepth int) []Element {
	var out []Element
	var walk func(el Element, depth int)
	walk = func(el Element, depth int) {
		for _, c := range el.Children {
			out = append(out, c)
			if depth < maxDepth {
				walk(c, depth+1)
			}
		}
	}
	walk(root, 0)
	return out
}

// TextLines collects the trimmed, non-empty titles of text descendants of
// node within maxDepth, in traversal order.
func TextLines(node Element, maxDepth int) []string {
	var lines []string
	for _, d := range Descendants(node, maxDepth) {
		if d.Role != RoleText {
			continue
		}
		if s := strings.TrimSpace(d.Title); s != "" {
			lines = append(lines, s)
		}
	}
	return lines
}

// FlatElement is an element with a path breadcrumb instead of children.
type FlatElement struct {
	ID     int    `yaml:"i"           json:"i"`
	Role   string `yaml:"r"           json:"r"`
	Title  string `yaml:"t,omitempty" json:"t,omitempty"`
	Bounds [4]int `yaml:"b"           json:"b"`
	Path   string `yaml:"p,omitempty" json:"p,omitempty"`
}

// Flatten converts a tree into a flat list. Each element gets a path string
// of role codes joined with " > ".
func Flatten(root Element) []FlatElement {
	var result []FlatElement
	var walk func(el Element, parentPath string)
	walk = func(el Element, parentPath string) {
		path := el.Role
		if parentPath != "" {
			path = parentPath + " > " + el.Role
		}
		result = append(result, FlatElement{
			ID:     el.ID,
			Role:   el.Role,
			Title:  el.Title,
			Bounds: el.Bounds,
			Path:   path,
		})
		for _, c := range el.Children {
			walk(c, path)
		}
	}
	walk(root, "")
	return result
}
