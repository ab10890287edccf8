package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
)

func TestTextFormatter(t *testing.T) {
	formatter := &TextFormatter{}
	data := "test message"

	output, err := formatter.Format(data)
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	expected := "test message\n"
	if string(output) != expected {
		t.Errorf("Format() = %q, want %q", string(output), expected)
	}
}

func TestTextFormatterWriter(t *testing.T) {
	formatter := &TextFormatter{}
	data := "test message"
	buf := &bytes.Buffer{}

	err := formatter.FormatTo(buf, data)
	if err != nil {
		t.Fatalf("FormatTo() error = %v", err)
	}

	expected := "test message\n"
	if buf.String() != expected {
		t.Errorf("FormatTo() = %q, want %q", buf.String(), expected)
	}
}

func TestJSONFormatter(t *testing.T) {
	tests := []struct {
		name   string
		data   interface{}
		indent bool
	}{
		{
			name:   "simple string",
			data:   "test",
			indent: false,
		},
		{
			name: "map with indent",
			data: map[string]string{
				"key": "value",
			},
			indent: true,
		},
		{
			name: "struct",
			data: struct {
				Name  string `json:"name"`
				Value int    `json:"value"`
			}{
				Name:  "test",
				Value: 42,
			},
			indent: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			formatter := &JSONFormatter{Indent: tt.indent}
			output, err := formatter.Format(tt.data)
			if err != nil {
				t.Fatalf("Format() error = %v", err)
			}

			// Verify it's valid JSON by unmarshaling
			var result interface{}
			if err := json.Unmarshal(output, &result); err != nil {
				t.Errorf("Format() produced invalid JSON: %v", err)
			}
		})
	}
}

func TestJSONFormatterWriter(t *testing.T) {
	formatter := &JSONFormatter{Indent: true}
	data := map[string]string{"test": "value"}
	buf := &bytes.Buffer{}

	err := formatter.FormatTo(buf, data)
	if err != nil {
		t.Fatalf("FormatTo() error = %v", err)
	}

	// Verify valid JSON
	var result map[string]string
	if err := json.Unmarshal(buf.Bytes(), &result); err != nil {
		t.Errorf("FormatTo() produced invalid JSON: %v", err)
	}

	if result["test"] != "value" {
		t.Errorf("FormatTo() = %v, want %v", result, data)
	}
}

func TestNewFormatter(t *testing.T) {
	tests := []struct {
		name   string
		format OutputFormat
		want   string
	}{
		{
			name:   "text formatter",
			format: FormatText,
			want:   "*cli.TextFormatter",
		},
		{
			name:   "json formatter",
			format: FormatJSON,
			want:   "*cli.JSONFormatter",
		},
		{
			name:   "csv formatter",
			format: FormatCSV,
			want:   "*cli.CSVFormatter",
		},
		{
			name:   "default to text",
			format: "unknown",
			want:   "*cli.TextFormatter",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			formatter := NewFormatter(tt.format)
			got := fmt.Sprintf("%T", formatter)
			if got != tt.want {
				t.Errorf("NewFormatter(%q) type = %v, want %v", tt.format, got, tt.want)
			}
		})
	}
}

func TestCSVFormatter(t *testing.T) {
	formatter := &CSVFormatter{}
	table := &Table{
		Title:   "ignored",
		Headers: []string{"package", "version"},
		Rows: [][]string{
			{"a-pack", "1.0.0"},
			{"b-pack", "2.0.0-rc,1"},
		},
		Footer: []string{"ignored too"},
	}

	output, err := formatter.Format(table)
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	expected := "package,version\na-pack,1.0.0\nb-pack,\"2.0.0-rc,1\"\n"
	if string(output) != expected {
		t.Errorf("Format() = %q, want %q", string(output), expected)
	}
}

func TestCSVFormatterRejectsNonTabular(t *testing.T) {
	formatter := &CSVFormatter{}

	if _, err := formatter.Format(map[string]string{"a": "b"}); err == nil {
		t.Error("Format() expected error for non-tabular data, got nil")
	}
	if _, err := formatter.Format(nil); err == nil {
		t.Error("Format() expected error for nil, got nil")
	}
}

func TestTextFormatterTable(t *testing.T) {
	formatter := &TextFormatter{}
	table := &Table{
		Title:   "Run r1 (dry-run)",
		Headers: []string{"PACKAGE", "ACTION"},
		Rows: [][]string{
			{"a-pack", "keep"},
			{"long-package-name", "delete"},
		},
		Footer: []string{"Listed: 2"},
	}

	output, err := formatter.Format(table)
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	expected := "Run r1 (dry-run)\n\n" +
		"PACKAGE            ACTION\n" +
		"a-pack             keep\n" +
		"long-package-name  delete\n" +
		"\n" +
		"Listed: 2\n"
	if string(output) != expected {
		t.Errorf("Format() =\n%s\nwant\n%s", output, expected)
	}
}

func TestTextFormatterEmptyTable(t *testing.T) {
	formatter := &TextFormatter{}

	output, err := formatter.Format(&Table{Headers: []string{"RUN"}, Footer: []string{"No runs recorded."}})
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if string(output) != "No runs recorded.\n" {
		t.Errorf("Format() = %q", string(output))
	}
}

type fixedTabular struct{}

func (fixedTabular) Table() *Table {
	return &Table{Headers: []string{"k"}, Rows: [][]string{{"v"}}}
}

func TestFormattersUseTabular(t *testing.T) {
	text, err := (&TextFormatter{}).Format(fixedTabular{})
	if err != nil {
		t.Fatalf("TextFormatter.Format() error = %v", err)
	}
	if !strings.Contains(string(text), "k\nv\n") {
		t.Errorf("TextFormatter.Format() = %q", string(text))
	}

	csvOut, err := (&CSVFormatter{}).Format(fixedTabular{})
	if err != nil {
		t.Fatalf("CSVFormatter.Format() error = %v", err)
	}
	if string(csvOut) != "k\nv\n" {
		t.Errorf("CSVFormatter.Format() = %q", string(csvOut))
	}
}

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    OutputFormat
		wantErr bool
	}{
		{"", FormatText, false},
		{"text", FormatText, false},
		{"JSON", FormatJSON, false},
		{"csv", FormatCSV, false},
		{"junit", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseOutputFormat(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseOutputFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseOutputFormat(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
