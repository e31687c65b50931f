package model

// Element represents a node in the accessibility tree of the target window.
type Element struct {
	ID       int       `yaml:"i"           json:"i"`           // Sequential integer ID (pre-order)
	Role     string    `yaml:"r"           json:"r"`           // Compact role code
	Title    string    `yaml:"t,omitempty" json:"t,omitempty"` // Name as reported by the OS
	Value    string    `yaml:"v,omitempty" json:"v,omitempty"` // Current value, if any
	Bounds   [4]int    `yaml:"b"           json:"b"`           // [x, y, width, height]
	Children []Element `yaml:"c,omitempty" json:"c,omitempty"`
}

// Count returns the number of nodes in the subtree rooted at e, including e.
func (e Element) Count() int {
	n := 1
	for _, c := range e.Children {
		n += c.Count()
	}
	return n
}

// Renumber assigns sequential pre-order IDs starting at 1.
func Renumber(root *Element) {
	next := 1
	var walk func(el *Element)
	walk = func(el *Element) {
		el.ID = next
		next++
		for i := range el.Children {
			walk(&el.Children[i])
		}
	}
	walk(root)
}
