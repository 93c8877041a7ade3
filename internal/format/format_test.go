package format

import (
	"errors"
	"strings"
	"testing"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		template string
		values   []any
		want     string
		wantAnon []any
		wantErr  bool
	}{
		{
			name:     "no placeholders",
			template: "plain text",
			want:     "plain text",
		},
		{
			name:     "positional default",
			template: "user [0] logged in from [1]",
			values:   []any{"jane", "10.0.0.1"},
			want:     "user jane logged in from 10.0.0.1",
		},
		{
			name:     "explicit default formatter",
			template: "count is [0:default]",
			values:   []any{42},
			want:     "count is 42",
		},
		{
			name:     "json formatter",
			template: "payload [0:json]",
			values:   []any{map[string]int{"a": 1}},
			want:     `payload {"a":1}`,
		},
		{
			name:     "anonymize extracts value",
			template: "login failed for [0:anonymize]",
			values:   []any{"jane@example.com"},
			want:     "login failed for [0:anonymize]",
			wantAnon: []any{"jane@example.com"},
		},
		{
			name:     "anonymize indexes follow extraction order",
			template: "[1:anonymize] then [0:anonymize]",
			values:   []any{"first", "second"},
			want:     "[0:anonymize] then [1:anonymize]",
			wantAnon: []any{"second", "first"},
		},
		{
			name:     "escaped brackets",
			template: "literal [[0]] stays",
			values:   []any{"unused"},
			want:     "literal [0] stays",
		},
		{
			name:     "reused index",
			template: "[0] and [0]",
			values:   []any{"x"},
			want:     "x and x",
		},
		{
			name:     "index out of range",
			template: "[2]",
			values:   []any{"only one"},
			wantErr:  true,
		},
		{
			name:     "unknown formatter",
			template: "[0:nonsense]",
			values:   []any{"v"},
			wantErr:  true,
		},
		{
			name:     "bad index",
			template: "[abc]",
			values:   []any{"v"},
			wantErr:  true,
		},
		{
			name:     "unterminated placeholder",
			template: "broken [0",
			values:   []any{"v"},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, anon, err := Format(tt.template, tt.values)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Format() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got != tt.want {
				t.Errorf("Format() = %q, want %q", got, tt.want)
			}
			if len(anon) != len(tt.wantAnon) {
				t.Fatalf("anonymized = %v, want %v", anon, tt.wantAnon)
			}
			for i := range anon {
				if anon[i] != tt.wantAnon[i] {
					t.Errorf("anonymized[%d] = %v, want %v", i, anon[i], tt.wantAnon[i])
				}
			}
		})
	}
}

func TestFormat_ErrorValue(t *testing.T) {
	got, _, err := Format("failed: [0]", []any{errors.New("boom")})
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if got != `failed: {"message":"boom"}` {
		t.Errorf("Format() = %q", got)
	}
}

type stackedError struct{}

func (stackedError) Error() string      { return "kaput" }
func (stackedError) StackTrace() string { return "main.go:1" }

func TestFormat_ErrorValueWithStack(t *testing.T) {
	got, _, err := Format("[0]", []any{stackedError{}})
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if !strings.Contains(got, `"message":"kaput"`) || !strings.Contains(got, `"stack":"main.go:1"`) {
		t.Errorf("Format() = %q, want message and stack", got)
	}
}

func TestDefault_CompositeValues(t *testing.T) {
	got, err := Default(struct {
		Name string `json:"name"`
	}{Name: "a"})
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	if got != `{"name":"a"}` {
		t.Errorf("Default() = %q", got)
	}

	got, err = Default(nil)
	if err != nil {
		t.Fatalf("Default(nil) error = %v", err)
	}
	if got != "null" {
		t.Errorf("Default(nil) = %q, want null", got)
	}
}
