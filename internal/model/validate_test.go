package model

import "testing"

func TestClassifyPathAllowList(t *testing.T) {
	rules := NewExtensionRules(nil, nil)

	cat, ok, reason := rules.ClassifyPath("/tmp/report.pdf")
	if !ok || cat != CategoryDocuments {
		t.Fatalf("expected documents/ok, got %v %v %q", cat, ok, reason)
	}

	_, ok, reason = rules.ClassifyPath("/tmp/setup.exe")
	if ok || reason == "" {
		t.Fatalf("expected rejection with reason, got ok=%v reason=%q", ok, reason)
	}

	_, ok, _ = rules.ClassifyPath("/tmp/mystery.xyz")
	if ok {
		t.Fatalf("unknown extension should be refused, not allowed")
	}
}

func TestIsURL(t *testing.T) {
	if !IsURL("https://example.com/docs") {
		t.Fatal("expected https url to match")
	}
	if !IsURL("www.example.com") {
		t.Fatal("expected www url to match")
	}
	if IsURL("just some text") {
		t.Fatal("plain text should not match as url")
	}
}

func TestClassifyTextFallsBackToIdeas(t *testing.T) {
	if got := ClassifyText("buy milk"); got != CategoryIdeas {
		t.Fatalf("expected ideas fallback, got %v", got)
	}
}

func TestClassifyTextDetectsCode(t *testing.T) {
	snippet := "func main() {\n\tfmt.Println(\"hi\")\n}"
	if got := ClassifyText(snippet); got != CategoryCode {
		t.Fatalf("expected code, got %v", got)
	}
}

func TestClassifyTextDetectsNotes(t *testing.T) {
	long := "Met with the team today to discuss the roadmap.\nWe agreed to ship the vault search feature next.\nFollow up with design next week."
	if got := ClassifyText(long); got != CategoryNotes {
		t.Fatalf("expected notes, got %v", got)
	}
}
