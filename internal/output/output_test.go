package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	werrors "github.com/mj1618/wingman/internal/errors"
)

type sample struct {
	Name  string   `yaml:"name"            json:"name"`
	Lines []string `yaml:"lines,omitempty" json:"lines,omitempty"`
}

func capture(t *testing.T, format Format, pretty bool) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	oldOut, oldFmt, oldPretty := Out, OutputFormat, PrettyOutput
	Out, OutputFormat, PrettyOutput = &buf, format, pretty
	t.Cleanup(func() { Out, OutputFormat, PrettyOutput = oldOut, oldFmt, oldPretty })
	return &buf
}

func TestPrint_YAML(t *testing.T) {
	buf := capture(t, FormatYAML, false)
	if err := Print(sample{Name: "Jane", Lines: []string{"hi", "hey"}}); err != nil {
		t.Fatal(err)
	}

	// YAML output should be multi-line
	if strings.Count(buf.String(), "\n") <= 1 {
		t.Errorf("YAML output should be multi-line, got:\n%s", buf.String())
	}
	var decoded sample
	if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid YAML: %v", err)
	}
	if decoded.Name != "Jane" || len(decoded.Lines) != 2 {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestPrint_JSONCompactAndPretty(t *testing.T) {
	buf := capture(t, FormatJSON, false)
	if err := Print(sample{Name: "<b>"}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if strings.Count(out, "\n") != 1 {
		t.Errorf("compact JSON should be one line, got %q", out)
	}
	if !strings.Contains(out, "<b>") {
		t.Errorf("HTML should not be escaped: %q", out)
	}

	buf = capture(t, FormatJSON, true)
	if err := Print(sample{Name: "x", Lines: []string{"a"}}); err != nil {
		t.Fatal(err)
	}
	if strings.Count(buf.String(), "\n") <= 1 {
		t.Errorf("pretty JSON should be multi-line, got %q", buf.String())
	}
}

func TestPrint_UnsupportedFormat(t *testing.T) {
	capture(t, Format("xml"), false)
	if err := Print(sample{}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat("json"); err != nil || f != FormatJSON {
		t.Errorf("ParseFormat(json) = %q, %v", f, err)
	}
	if _, err := ParseFormat("toml"); err == nil {
		t.Error("ParseFormat(toml) should fail")
	}
}

func TestPrintError(t *testing.T) {
	buf := capture(t, FormatJSON, false)
	err := fmt.Errorf("paste: %w", werrors.NewThrottled(3))
	if !PrintError(err) {
		t.Fatal("expected structured error to be printed")
	}
	var got struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Error.Code != "THROTTLED" {
		t.Errorf("code = %q", got.Error.Code)
	}

	if PrintError(fmt.Errorf("plain")) {
		t.Error("plain errors should not be printed")
	}
}
