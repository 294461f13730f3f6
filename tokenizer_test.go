package directives

import (
	"testing"
)

func TestTokenizeDocumentOrder(t *testing.T) {
	content := `<p>intro</p>
<!-- component:hero-banner:20 -->
<p>middle</p>
<!-- component:promo_1:10:{"content":{"title":"Sale"}} -->`

	tokens := Tokenize(content)
	if len(tokens) != 2 {
		t.Fatalf("expected 2 tokens, got %d", len(tokens))
	}
	if tokens[0].ID != "hero-banner" || tokens[0].Order != "20" || tokens[0].HasPayload {
		t.Fatalf("unexpected first token: %+v", tokens[0])
	}
	if tokens[1].ID != "promo_1" || tokens[1].Order != "10" {
		t.Fatalf("unexpected second token: %+v", tokens[1])
	}
	if tokens[1].Payload != `{"content":{"title":"Sale"}}` {
		t.Fatalf("unexpected payload %q", tokens[1].Payload)
	}
	if content[tokens[0].Start:tokens[0].End] != "<!-- component:hero-banner:20 -->" {
		t.Fatalf("token offsets do not cover the directive: %q", content[tokens[0].Start:tokens[0].End])
	}
}

func TestTokenizeIgnoresOtherComments(t *testing.T) {
	content := `<!-- just a note --><!-- component:bad id:1 --><!-- component:x:-1 -->`
	if tokens := Tokenize(content); len(tokens) != 0 {
		t.Fatalf("expected no tokens, got %+v", tokens)
	}
}

func TestTokenizeMultilinePayload(t *testing.T) {
	content := "<!-- component:text:0:{\n  \"content\": {\"body\": \"a\"}\n} -->"
	tokens := Tokenize(content)
	if len(tokens) != 1 || !tokens[0].HasPayload {
		t.Fatalf("expected one token with payload, got %+v", tokens)
	}
}

func TestFormatToken(t *testing.T) {
	if got := FormatToken("hero", 10, nil); got != "<!-- component:hero:10 -->" {
		t.Fatalf("unexpected token without payload: %q", got)
	}
	got := FormatToken("hero", 0, []byte(`{"content":null,"settings":null}`))
	want := `<!-- component:hero:0:{"content":null,"settings":null} -->`
	if got != want {
		t.Fatalf("unexpected token:\nwant %s\n got %s", want, got)
	}
}

func TestValidComponentID(t *testing.T) {
	valid := []string{"hero", "hero-banner", "promo_2024", "A1"}
	invalid := []string{"", "hero banner", "hero:1", "héro", "a/b"}
	for _, id := range valid {
		if !ValidComponentID(id) {
			t.Errorf("expected %q to be valid", id)
		}
	}
	for _, id := range invalid {
		if ValidComponentID(id) {
			t.Errorf("expected %q to be invalid", id)
		}
	}
}
