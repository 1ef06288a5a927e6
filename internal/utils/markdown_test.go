package utils

import "testing"

func TestEscapeMarkdown(t *testing.T) {
	got := EscapeMarkdown("**bold** _it_ `code` a|b")
	want := `\*\*bold\*\* \_it\_ \` + "`" + `code\` + "`" + ` a\|b`
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestEscapeMentions(t *testing.T) {
	got := EscapeMentions("hi @everyone and <@!123456789012345678>")
	want := "hi @\u200beveryone and <@\u200b!123456789012345678>"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
	if !HasMentions("@here") || HasMentions("mail@example.com") {
		t.Fatalf("unexpected mention detection")
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("hello", 10); got != "hello" {
		t.Fatalf("expected untouched text, got %q", got)
	}
	if got := Truncate("héllo world", 5); got != "héllo..." {
		t.Fatalf("expected rune-safe cut, got %q", got)
	}
}
