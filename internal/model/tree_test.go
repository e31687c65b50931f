package model

import (
	"reflect"
	"testing"
)

func txt(s string) Element { return Element{Role: RoleText, Title: s} }

func TestDescendants_DepthLimit(t *testing.T) {
	root := Element{Role: RoleWindow, Children: []Element{
		{Role: RolePane, Title: "d0", Children: []Element{
			{Role: RoleGroup, Title: "d1", Children: []Element{
				{Role: RoleList, Title: "d2"},
			}},
		}},
	}}

	tests := []struct {
		maxDepth int
		want     []string
	}{
		{0, []string{"d0"}},
		{1, []string{"d0", "d1"}},
		{2, []string{"d0", "d1", "d2"}},
		{9, []string{"d0", "d1", "d2"}},
	}
	for _, tt := range tests {
		var got []string
		for _, d := range Descendants(root, tt.maxDepth) {
			got = append(got, d.Title)
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Descendants(maxDepth=%d) = %v, want %v", tt.maxDepth, got, tt.want)
		}
	}
}

func TestTextLines(t *testing.T) {
	node := Element{Role: RoleList, Children: []Element{
		txt("  hello "),
		txt(""),
		{Role: RoleButton, Title: "Send"},
		{Role: RoleGroup, Children: []Element{txt("nested"), {Role: RoleGroup, Children: []Element{txt("too deep")}}}},
	}}

	got := TextLines(node, 1)
	want := []string{"hello", "nested"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("TextLines() = %v, want %v", got, want)
	}
}

func TestFlatten_Paths(t *testing.T) {
	root := Element{ID: 1, Role: RoleWindow, Children: []Element{
		{ID: 2, Role: RolePane, Children: []Element{{ID: 3, Role: RoleText, Title: "Hi"}}},
	}}
	got := Flatten(root)
	if len(got) != 3 {
		t.Fatalf("expected 3 flat elements, got %d", len(got))
	}
	if got[2].Path != "window > pane > txt" {
		t.Errorf("path = %q", got[2].Path)
	}
}

func TestRenumber(t *testing.T) {
	root := Element{Children: []Element{{Children: []Element{{}}}, {}}}
	Renumber(&root)
	if root.ID != 1 || root.Children[0].ID != 2 || root.Children[0].Children[0].ID != 3 || root.Children[1].ID != 4 {
		t.Errorf("unexpected ids: %+v", root)
	}
	if root.Count() != 4 {
		t.Errorf("Count() = %d, want 4", root.Count())
	}
}
