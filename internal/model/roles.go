package model

// Compact role codes used throughout the element tree.
const (
	RoleText   = "txt"
	RoleList   = "list"
	RolePane   = "pane"
	RoleGroup  = "group"
	RoleWindow = "window"
	RoleInput  = "input"
	RoleButton = "btn"
	RoleOther  = "other"
)

// ControlTypeMap maps UI Automation control type IDs to compact role codes.
var ControlTypeMap = map[int]string{
	50000: RoleButton, // Button
	50004: RoleInput,  // Edit
	50008: RoleList,   // List
	50020: RoleText,   // Text
	50026: RoleGroup,  // Group
	50032: RoleWindow, // Window
	50033: RolePane,   // Pane
}

// RoleMap maps macOS AXRole values to compact role codes.
var RoleMap = map[string]string{
	"AXButton":     RoleButton,
	"AXStaticText": RoleText,
	"AXTextField":  RoleInput,
	"AXTextArea":   RoleInput,
	"AXList":       RoleList,
	"AXTable":      RoleList,
	"AXGroup":      RoleGroup,
	"AXSplitGroup": RoleGroup,
	"AXScrollArea": RolePane,
	"AXWindow":     RoleWindow,
}

// MapControlType converts a UI Automation control type ID to a compact code.
func MapControlType(id int) string {
	if short, ok := ControlTypeMap[id]; ok {
		return short
	}
	return RoleOther
}

// MapRole converts a raw macOS accessibility role to a compact code.
func MapRole(axRole string) string {
	if short, ok := RoleMap[axRole]; ok {
		return short
	}
	return RoleOther
}
