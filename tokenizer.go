package directives

import (
	"fmt"
	"regexp"
	"strconv"
)

const (
	tokenOpen   = "<!--"
	tokenClose  = "-->"
	tokenPrefix = "component"
)

// directivePattern is the single definition of the inline grammar:
//
//	<!-- component:<id>:<order>:<json> -->
//
// The JSON group is captured loosely (anything starting with "{" up to the
// closing delimiter) so that a broken payload still yields a token.
var directivePattern = regexp.MustCompile(`(?s)<!--\s*component:([\w-]+):(\d+)(?::(\{.*?))?\s*-->`)

var componentIDPattern = regexp.MustCompile(`^[\w-]+$`)

// Token is one raw inline directive match, in document order.
type Token struct {
	ID         string
	Order      string
	Payload    string
	HasPayload bool
	Start      int
	End        int
}

// Tokenize scans content for inline directives. It performs no JSON decoding.
func Tokenize(content string) []Token {
	matches := directivePattern.FindAllStringSubmatchIndex(content, -1)
	if len(matches) == 0 {
		return nil
	}
	tokens := make([]Token, 0, len(matches))
	for _, m := range matches {
		token := Token{
			ID:    content[m[2]:m[3]],
			Order: content[m[4]:m[5]],
			Start: m[0],
			End:   m[1],
		}
		if m[6] >= 0 {
			token.Payload = content[m[6]:m[7]]
			token.HasPayload = true
		}
		tokens = append(tokens, token)
	}
	return tokens
}

// FormatToken renders one directive in the inline grammar. payload may be
// empty, in which case the JSON segment is omitted.
func FormatToken(id string, order int, payload []byte) string {
	if len(payload) == 0 {
		return fmt.Sprintf("%s %s:%s:%d %s", tokenOpen, tokenPrefix, id, order, tokenClose)
	}
	return fmt.Sprintf("%s %s:%s:%d:%s %s", tokenOpen, tokenPrefix, id, order, payload, tokenClose)
}

// ValidComponentID reports whether id can be carried by the inline grammar.
func ValidComponentID(id string) bool {
	return componentIDPattern.MatchString(id)
}

func (t Token) order() (int, error) {
	order, err := strconv.Atoi(t.Order)
	if err != nil {
		return 0, fmt.Errorf("order %q: %w", t.Order, err)
	}
	return order, nil
}
