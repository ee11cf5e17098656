package jsonstream

import (
	"strconv"
	"strings"
)

// Tokenizer converts an append-only character stream into a token stream,
// deferring classification of any lexeme whose terminator has not yet
// arrived.
//
// Bytes that cannot be consumed yet (the open prefix of a string, number,
// or keyword) remain in a carry buffer and are re-scanned on the next
// [Tokenizer.Feed]. The carry buffer grows with the largest single
// incomplete lexeme, not with the whole document.
//
// Create instances with [NewTokenizer].
type Tokenizer struct {
	buf []byte
	// containers mirrors the nesting of structural tokens seen so far
	// ('o' for objects, 'a' for arrays), so the expecting-key hint stays
	// coherent across the tokens of a single feed.
	containers   []byte
	expectingKey bool
	singleQuotes bool
	unquotedKeys bool
	skipInvalid  bool
}

// TokenizerOption configures a [Tokenizer].
type TokenizerOption func(*Tokenizer)

// WithTokenizerSingleQuotes admits `'` as a string delimiter.
func WithTokenizerSingleQuotes(enabled bool) TokenizerOption {
	return func(t *Tokenizer) {
		t.singleQuotes = enabled
	}
}

// WithTokenizerUnquotedKeys lexes a bare identifier as an object key while the
// expecting-key hint is set.
func WithTokenizerUnquotedKeys(enabled bool) TokenizerOption {
	return func(t *Tokenizer) {
		t.unquotedKeys = enabled
	}
}

// WithSkipInvalid silently skips unrecognized characters instead of
// emitting [TokenError] tokens.
func WithSkipInvalid(enabled bool) TokenizerOption {
	return func(t *Tokenizer) {
		t.skipInvalid = enabled
	}
}

// NewTokenizer creates a [Tokenizer] with the given options.
func NewTokenizer(opts ...TokenizerOption) *Tokenizer {
	t := &Tokenizer{}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// SetExpectingKey records the parser's hint that the next string lexeme is
// an object key. While set, a completed quoted string is emitted as
// [TokenKey], and with unquoted keys enabled an identifier character begins
// a bare key.
func (t *Tokenizer) SetExpectingKey(expecting bool) {
	t.expectingKey = expecting
}

// Reset empties the carry buffer and clears the expecting-key hint and
// container memory.
func (t *Tokenizer) Reset() {
	t.buf = nil
	t.containers = nil
	t.expectingKey = false
}

// Buffered returns the number of carried bytes awaiting a terminator.
func (t *Tokenizer) Buffered() int {
	return len(t.buf)
}

// Feed appends chunk to the carry buffer and returns every token fully
// recognizable from the accumulated bytes. The unconsumable tail, from the
// first byte of a partial lexeme, remains buffered for the next call.
// Token positions are relative to this call's buffer.
func (t *Tokenizer) Feed(chunk string) []Token {
	t.buf = append(t.buf, chunk...)

	var tokens []Token

	pos := 0

	for pos < len(t.buf) {
		pos = t.skipWhitespace(pos)
		if pos >= len(t.buf) {
			break
		}

		tok, next, ok := t.scanToken(pos)
		if !ok {
			// Partial lexeme: everything from pos stays in the carry.
			break
		}

		pos = next

		if tok != nil {
			t.trackExpectingKey(tok.Kind)
			tokens = append(tokens, *tok)
		}
	}

	t.buf = t.buf[pos:]

	return tokens
}

// PartialToken classifies the carried tail as a partial string, key, or
// number when the classification is unambiguous. It is a read-only
// projection: the carried bytes remain buffered and repeated calls return
// the same result.
func (t *Tokenizer) PartialToken() (Token, bool) {
	pos := t.skipWhitespace(0)
	if pos >= len(t.buf) {
		return Token{}, false
	}

	c := t.buf[pos]

	switch {
	case c == '"' || (t.singleQuotes && c == '\''):
		value, _, _ := t.decodeString(pos)
		kind := TokenPartialString

		if t.expectingKey {
			kind = TokenPartialKey
		}

		return Token{
			Kind:    kind,
			Value:   value,
			Raw:     string(t.buf[pos:]),
			Pos:     pos,
			Partial: true,
		}, true

	case isNumberStart(c):
		raw := string(t.buf[pos:])

		return Token{
			Kind:    TokenPartialNumber,
			Value:   parsePartialNumber(raw),
			Raw:     raw,
			Pos:     pos,
			Partial: true,
		}, true

	case t.expectingKey && t.unquotedKeys && isIdentChar(c):
		raw := string(t.buf[pos:])

		return Token{
			Kind:    TokenPartialKey,
			Value:   raw,
			Raw:     raw,
			Pos:     pos,
			Partial: true,
		}, true
	}

	return Token{}, false
}

// scanToken recognizes one lexeme starting at pos. It returns the token
// (nil for skipped bytes), the next scan position, and whether the lexeme
// was complete. ok=false means the lexeme is partial and scanning must stop.
func (t *Tokenizer) scanToken(pos int) (*Token, int, bool) {
	c := t.buf[pos]

	switch {
	case c == '{':
		return &Token{Kind: TokenObjectStart, Raw: "{", Pos: pos}, pos + 1, true
	case c == '}':
		return &Token{Kind: TokenObjectEnd, Raw: "}", Pos: pos}, pos + 1, true
	case c == '[':
		return &Token{Kind: TokenArrayStart, Raw: "[", Pos: pos}, pos + 1, true
	case c == ']':
		return &Token{Kind: TokenArrayEnd, Raw: "]", Pos: pos}, pos + 1, true
	case c == ':':
		return &Token{Kind: TokenColon, Raw: ":", Pos: pos}, pos + 1, true
	case c == ',':
		return &Token{Kind: TokenComma, Raw: ",", Pos: pos}, pos + 1, true
	case c == '"' || (t.singleQuotes && c == '\''):
		return t.scanString(pos)
	case isNumberStart(c):
		return t.scanNumber(pos)
	// Key positions win over keywords so that bare keys like "name" or
	// "true" lex as keys, not as mangled keywords.
	case t.expectingKey && t.unquotedKeys && isIdentChar(c):
		return t.scanUnquotedKey(pos)
	case c == 't' || c == 'f' || c == 'n':
		return t.scanKeyword(pos)
	case t.skipInvalid:
		return nil, pos + 1, true
	default:
		return &Token{Kind: TokenError, Raw: string(c), Pos: pos}, pos + 1, true
	}
}

// scanString recognizes a quoted string starting at pos.
func (t *Tokenizer) scanString(pos int) (*Token, int, bool) {
	value, end, closed := t.decodeString(pos)
	if !closed {
		return nil, pos, false
	}

	kind := TokenString
	if t.expectingKey {
		kind = TokenKey
	}

	return &Token{
		Kind:  kind,
		Value: value,
		Raw:   string(t.buf[pos:end]),
		Pos:   pos,
	}, end, true
}

// decodeString decodes the string lexeme beginning at the quote at pos.
// It returns the decoded content, the position after the closing quote,
// and whether the closing quote was found.
func (t *Tokenizer) decodeString(pos int) (string, int, bool) {
	quote := t.buf[pos]

	var sb strings.Builder

	i := pos + 1

	for i < len(t.buf) {
		c := t.buf[i]

		if c == '\\' {
			if i+1 >= len(t.buf) {
				// Dangling escape: wait for the escaped character.
				return sb.String(), i, false
			}

			sb.WriteByte(decodeEscape(t.buf[i+1]))

			i += 2

			continue
		}

		if c == quote {
			return sb.String(), i + 1, true
		}

		sb.WriteByte(c)

		i++
	}

	return sb.String(), i, false
}

// decodeEscape maps the character following a backslash to its decoded
// byte. `\u` decodes as the literal character `u`; the four hex digits
// that follow are carried through as ordinary characters.
func decodeEscape(c byte) byte {
	switch c {
	case 'n':
		return '\n'
	case 'r':
		return '\r'
	case 't':
		return '\t'
	case 'b':
		return '\b'
	case 'f':
		return '\f'
	default:
		return c
	}
}

// scanNumber recognizes a number starting at pos. The number is emitted
// only once a non-continuation character follows it; at buffer end the
// lexeme is retained for the next feed.
func (t *Tokenizer) scanNumber(pos int) (*Token, int, bool) {
	end := pos + 1
	for end < len(t.buf) && isNumberChar(t.buf[end]) {
		end++
	}

	if end >= len(t.buf) {
		return nil, pos, false
	}

	raw := string(t.buf[pos:end])

	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		if t.skipInvalid {
			return nil, end, true
		}

		return &Token{Kind: TokenError, Raw: raw, Pos: pos}, end, true
	}

	return &Token{
		Kind:  TokenNumber,
		Value: f,
		Raw:   raw,
		Pos:   pos,
	}, end, true
}

// scanKeyword recognizes true, false, or null. A keyword is emitted only on
// an exact length match followed by a non-word character or buffer end; a
// strict prefix at buffer end yields no token.
func (t *Tokenizer) scanKeyword(pos int) (*Token, int, bool) {
	keywords := []struct {
		word  string
		value any
	}{
		{"true", true},
		{"false", false},
		{"null", nil},
	}

	for _, kw := range keywords {
		if !matchesPrefix(t.buf[pos:], kw.word) {
			continue
		}

		end := pos + len(kw.word)
		if end > len(t.buf) {
			// Strict prefix at buffer end: implicit partial.
			return nil, pos, false
		}

		if end < len(t.buf) && isWordChar(t.buf[end]) {
			// Part of a longer word; not this keyword.
			continue
		}

		kind := TokenBoolean
		if kw.word == "null" {
			kind = TokenNull
		}

		return &Token{
			Kind:  kind,
			Value: kw.value,
			Raw:   kw.word,
			Pos:   pos,
		}, end, true
	}

	if t.skipInvalid {
		return nil, pos + 1, true
	}

	return &Token{Kind: TokenError, Raw: string(t.buf[pos]), Pos: pos}, pos + 1, true
}

// scanUnquotedKey recognizes a bare identifier key in lenient mode.
func (t *Tokenizer) scanUnquotedKey(pos int) (*Token, int, bool) {
	end := pos
	for end < len(t.buf) && isIdentChar(t.buf[end]) {
		end++
	}

	if end >= len(t.buf) {
		// The identifier may continue in the next chunk.
		return nil, pos, false
	}

	raw := string(t.buf[pos:end])

	return &Token{
		Kind:  TokenKey,
		Value: raw,
		Raw:   raw,
		Pos:   pos,
	}, end, true
}

// trackExpectingKey keeps the expecting-key hint coherent across the tokens
// of a single feed by mirroring container nesting. The parser additionally
// re-synchronizes the hint at every feed boundary.
func (t *Tokenizer) trackExpectingKey(kind TokenKind) {
	switch kind {
	case TokenObjectStart:
		t.containers = append(t.containers, 'o')
		t.expectingKey = true
	case TokenArrayStart:
		t.containers = append(t.containers, 'a')
		t.expectingKey = false
	case TokenObjectEnd, TokenArrayEnd:
		if len(t.containers) > 0 {
			t.containers = t.containers[:len(t.containers)-1]
		}

		t.expectingKey = false
	case TokenComma:
		t.expectingKey = t.inObject()
	case TokenKey, TokenString, TokenColon:
		t.expectingKey = false
	}
}

// inObject reports whether the innermost open container is an object.
func (t *Tokenizer) inObject() bool {
	return len(t.containers) > 0 && t.containers[len(t.containers)-1] == 'o'
}

func (t *Tokenizer) skipWhitespace(pos int) int {
	for pos < len(t.buf) {
		c := t.buf[pos]
		if c != ' ' && c != '\t' && c != '\r' && c != '\n' {
			break
		}

		pos++
	}

	return pos
}

// matchesPrefix reports whether buf begins with as much of word as buf can
// hold, i.e. word is recognizable or still possible.
func matchesPrefix(buf []byte, word string) bool {
	n := len(word)
	if len(buf) < n {
		n = len(buf)
	}

	return string(buf[:n]) == word[:n]
}

// parsePartialNumber parses the numeric prefix of a partial number lexeme,
// trimming any trailing characters that cannot end a number.
func parsePartialNumber(raw string) any {
	trimmed := strings.TrimRight(raw, "eE.+-")
	if trimmed == "" {
		return nil
	}

	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return nil
	}

	return f
}

func isNumberStart(c byte) bool {
	return c == '-' || (c >= '0' && c <= '9')
}

func isNumberChar(c byte) bool {
	return (c >= '0' && c <= '9') || c == '.' || c == 'e' || c == 'E' || c == '+' || c == '-'
}

func isWordChar(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_'
}

func isIdentChar(c byte) bool {
	return isWordChar(c) || c == '$'
}
