package expr

import (
	"fmt"
	"strconv"
	"strings"
)

type tokenKind int

const (
	tokIdent tokenKind = iota
	tokString
	tokNumber
	tokBool
	tokNull
	tokEq
	tokNeq
	tokAnd
	tokOr
	tokNot
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}

func isDelimiter(ch byte) bool {
	return isSpace(ch) || strings.IndexByte("()!=&|\"'", ch) >= 0
}

func lex(input string) ([]token, error) {
	var tokens []token
	for i := 0; i < len(input); {
		ch := input[i]
		if isSpace(ch) {
			i++
			continue
		}

		start := i
		switch {
		case ch == '(':
			tokens = append(tokens, token{kind: tokLParen, text: "(", pos: start})
			i++
		case ch == ')':
			tokens = append(tokens, token{kind: tokRParen, text: ")", pos: start})
			i++
		case strings.HasPrefix(input[i:], "=="):
			tokens = append(tokens, token{kind: tokEq, text: "==", pos: start})
			i += 2
		case strings.HasPrefix(input[i:], "!="):
			tokens = append(tokens, token{kind: tokNeq, text: "!=", pos: start})
			i += 2
		case strings.HasPrefix(input[i:], "&&"):
			tokens = append(tokens, token{kind: tokAnd, text: "&&", pos: start})
			i += 2
		case strings.HasPrefix(input[i:], "||"):
			tokens = append(tokens, token{kind: tokOr, text: "||", pos: start})
			i += 2
		case ch == '!':
			tokens = append(tokens, token{kind: tokNot, text: "!", pos: start})
			i++
		case ch == '=' || ch == '&' || ch == '|':
			return nil, fmt.Errorf("expr: unexpected %q at offset %d", ch, start)
		case ch == '"' || ch == '\'':
			end, value, err := scanString(input, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, token{kind: tokString, text: value, pos: start})
			i = end
		default:
			for i < len(input) && !isDelimiter(input[i]) {
				i++
			}
			tokens = append(tokens, classifyWord(input[start:i], start))
		}
	}
	return tokens, nil
}

func scanString(input string, start int) (int, string, error) {
	quote := input[start]
	escaped := false
	for i := start + 1; i < len(input); i++ {
		c := input[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\':
			escaped = true
		case c == quote:
			body := input[start+1 : i]
			if quote == '\'' {
				body = strings.ReplaceAll(body, `\'`, `'`)
				body = strings.ReplaceAll(body, `"`, `\"`)
			}
			value, err := strconv.Unquote(`"` + body + `"`)
			if err != nil {
				return 0, "", fmt.Errorf("expr: invalid string literal at offset %d: %w", start, err)
			}
			return i + 1, value, nil
		}
	}
	return 0, "", fmt.Errorf("expr: unterminated string literal at offset %d", start)
}

func classifyWord(word string, pos int) token {
	switch strings.ToLower(word) {
	case "true", "false":
		return token{kind: tokBool, text: strings.ToLower(word), pos: pos}
	case "null", "nil":
		return token{kind: tokNull, text: "null", pos: pos}
	}
	if _, err := strconv.ParseFloat(word, 64); err == nil {
		return token{kind: tokNumber, text: word, pos: pos}
	}
	return token{kind: tokIdent, text: word, pos: pos}
}
