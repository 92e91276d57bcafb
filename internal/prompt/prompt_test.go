package prompt

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestStreamConfirm(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{input: "y\n", want: true},
		{input: "YES\n", want: true},
		{input: "n\n", want: false},
		{input: "\n", want: false},
		{input: "", want: false},
		{input: "yes", want: true},
	}
	for _, tc := range cases {
		var out bytes.Buffer
		got, err := NewStream(strings.NewReader(tc.input), &out).Confirm("Install Homebrew?")
		if err != nil {
			t.Fatalf("confirm(%q): %v", tc.input, err)
		}
		if got != tc.want {
			t.Fatalf("confirm(%q) = %v want %v", tc.input, got, tc.want)
		}
		if !strings.Contains(out.String(), "Install Homebrew? [y/N]") {
			t.Fatalf("unexpected question output: %q", out.String())
		}
	}
}

func TestStreamPromptSecretTrims(t *testing.T) {
	var out bytes.Buffer
	got, err := NewStream(strings.NewReader("  abc123 \r\n"), &out).PromptSecret(">")
	if err != nil {
		t.Fatalf("prompt secret: %v", err)
	}
	if got != "abc123" {
		t.Fatalf("unexpected secret: %q", got)
	}
	if out.String() != ">" {
		t.Fatalf("unexpected prompt output: %q", out.String())
	}
}

func TestStreamPromptSecretEOF(t *testing.T) {
	_, err := NewStream(strings.NewReader(""), &bytes.Buffer{}).PromptSecret(">")
	if !errors.Is(err, ErrNoInput) {
		t.Fatalf("expected ErrNoInput, got %v", err)
	}
}

func TestScriptedRecordsQuestions(t *testing.T) {
	op := &Scripted{Confirms: []bool{true}, Secrets: []string{"s3cret"}}
	if ok, _ := op.Confirm("first?"); !ok {
		t.Fatalf("expected scripted yes")
	}
	if ok, _ := op.Confirm("second?"); ok {
		t.Fatalf("expected exhausted script to refuse")
	}
	if s, _ := op.PromptSecret(">"); s != "s3cret" {
		t.Fatalf("unexpected secret: %q", s)
	}
	if len(op.Asked) != 3 {
		t.Fatalf("unexpected asked: %+v", op.Asked)
	}
}
