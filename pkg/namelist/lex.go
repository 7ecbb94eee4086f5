package namelist

import (
	"fmt"
	"strconv"
	"strings"
)

type tokenKind int

const (
	tokBare tokenKind = iota
	tokString
	tokEquals
	tokLParen
	tokRParen
	tokComma
)

type token struct {
	kind tokenKind
	text string
}

func lex(content string) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(content) {
		c := content[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n':
			i++
		case c == ',':
			tokens = append(tokens, token{kind: tokComma})
			i++
		case c == '=':
			tokens = append(tokens, token{kind: tokEquals})
			i++
		case c == '(':
			tokens = append(tokens, token{kind: tokLParen})
			i++
		case c == ')':
			tokens = append(tokens, token{kind: tokRParen})
			i++
		case c == '\'' || c == '"':
			text, next, err := lexString(content, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, token{kind: tokString, text: text})
			i = next
		default:
			start := i
			for i < len(content) && !strings.ContainsRune(" \t\n,=()'\"", rune(content[i])) {
				i++
			}
			tokens = append(tokens, token{kind: tokBare, text: content[start:i]})
		}
	}
	return tokens, nil
}

// lexString scans a quoted literal starting at i. Doubled quotes escape the
// quote character.
func lexString(content string, i int) (string, int, error) {
	quote := content[i]
	var out strings.Builder
	j := i + 1
	for j < len(content) {
		if content[j] == quote {
			if j+1 < len(content) && content[j+1] == quote {
				out.WriteByte(quote)
				j += 2
				continue
			}
			return out.String(), j + 1, nil
		}
		out.WriteByte(content[j])
		j++
	}
	return "", 0, fmt.Errorf("unterminated string literal")
}

func parseAssignments(content string) ([]Assignment, error) {
	tokens, err := lex(content)
	if err != nil {
		return nil, err
	}

	var assignments []Assignment
	i := 0
	for i < len(tokens) {
		if tokens[i].kind == tokComma {
			i++
			continue
		}
		if tokens[i].kind != tokBare || !isIdentifier(tokens[i].text) {
			return nil, fmt.Errorf("expected a variable name, got %q", tokens[i].text)
		}
		assign := Assignment{Name: strings.ToLower(tokens[i].text)}
		i++

		if i < len(tokens) && tokens[i].kind == tokLParen {
			index, next, err := parseIndex(tokens, i)
			if err != nil {
				return nil, err
			}
			assign.Index = index
			i = next
		}

		if i >= len(tokens) || tokens[i].kind != tokEquals {
			return nil, fmt.Errorf("expected '=' after %q", assign.Name)
		}
		i++

		for i < len(tokens) && !startsAssignment(tokens, i) {
			tok := tokens[i]
			switch tok.kind {
			case tokComma:
				i++
			case tokString:
				assign.Values = append(assign.Values, tok.text)
				i++
			case tokBare:
				count, prefixOnly, value, err := parseBare(tok.text)
				if err != nil {
					return nil, err
				}
				if prefixOnly {
					// n* followed by a quoted literal.
					if i+1 >= len(tokens) || tokens[i+1].kind != tokString {
						return nil, fmt.Errorf("repeat count %q must be followed by a value", tok.text)
					}
					value = tokens[i+1].text
					i++
				}
				for n := 0; n < count; n++ {
					assign.Values = append(assign.Values, value)
				}
				i++
			default:
				return nil, fmt.Errorf("unexpected token in values of %q", assign.Name)
			}
		}
		if len(assign.Values) == 0 {
			return nil, fmt.Errorf("assignment %q has no values", assign.Name)
		}
		assignments = append(assignments, assign)
	}
	return assignments, nil
}

func parseIndex(tokens []token, i int) ([]int, int, error) {
	// tokens[i] is the opening parenthesis.
	var index []int
	j := i + 1
	for j < len(tokens) {
		switch tokens[j].kind {
		case tokRParen:
			if len(index) == 0 {
				return nil, 0, fmt.Errorf("empty index list")
			}
			return index, j + 1, nil
		case tokComma:
			j++
		case tokBare:
			value, err := strconv.Atoi(tokens[j].text)
			if err != nil {
				return nil, 0, fmt.Errorf("invalid index %q", tokens[j].text)
			}
			index = append(index, value)
			j++
		default:
			return nil, 0, fmt.Errorf("invalid index list")
		}
	}
	return nil, 0, fmt.Errorf("unterminated index list")
}

// startsAssignment reports whether the token at i begins a new `name =` or
// `name(...) =` assignment.
func startsAssignment(tokens []token, i int) bool {
	if tokens[i].kind != tokBare || !isIdentifier(tokens[i].text) {
		return false
	}
	if i+1 >= len(tokens) {
		return false
	}
	if tokens[i+1].kind == tokEquals {
		return true
	}
	if tokens[i+1].kind != tokLParen {
		return false
	}
	for j := i + 2; j < len(tokens); j++ {
		if tokens[j].kind == tokRParen {
			return j+1 < len(tokens) && tokens[j+1].kind == tokEquals
		}
	}
	return false
}

// parseBare decodes an unquoted value token: integers, reals (including
// Fortran d-exponents), logicals, and n*value repeat groups. A bare repeat
// prefix like 3* reports prefixOnly so the caller can pick up a following
// quoted literal.
func parseBare(text string) (count int, prefixOnly bool, value any, err error) {
	count = 1
	if star := strings.IndexByte(text, '*'); star > 0 {
		repeat, convErr := strconv.Atoi(text[:star])
		if convErr == nil && repeat > 0 {
			count = repeat
			rest := text[star+1:]
			if rest == "" {
				return count, true, nil, nil
			}
			value, err = parseScalar(rest)
			return count, false, value, err
		}
	}
	value, err = parseScalar(text)
	return count, false, value, err
}

func parseScalar(text string) (any, error) {
	if value, err := strconv.ParseInt(text, 10, 64); err == nil {
		return value, nil
	}
	normalized := strings.Map(func(r rune) rune {
		switch r {
		case 'd', 'D':
			return 'e'
		}
		return r
	}, text)
	if value, err := strconv.ParseFloat(normalized, 64); err == nil {
		return value, nil
	}
	switch strings.ToLower(strings.Trim(text, ".")) {
	case "true", "t":
		return true, nil
	case "false", "f":
		return false, nil
	}
	return nil, fmt.Errorf("invalid value %q", text)
}

func isIdentifier(text string) bool {
	if text == "" {
		return false
	}
	for i, r := range text {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r == '_' && i > 0, r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
