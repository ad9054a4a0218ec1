package executor

import (
	"fmt"
	"strings"
)

// rewriteNamed converts :name placeholders to the driver's positional ?
// markers and returns the argument list in placeholder order. The MySQL
// driver does not accept sql.Named, so nominal binding happens here; values
// never enter the statement text. String literals, quoted identifiers and
// comments are left untouched.
func rewriteNamed(query string, params map[string]any) (string, []any, error) {
	const (
		stNormal = iota
		stSingle
		stDouble
		stBacktick
		stLineComment
		stBlockComment
	)

	var sb strings.Builder
	sb.Grow(len(query))
	var args []any
	state := stNormal

	isIdentStart := func(b byte) bool {
		return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
	}
	isIdent := func(b byte) bool {
		return isIdentStart(b) || (b >= '0' && b <= '9')
	}

	for i := 0; i < len(query); i++ {
		c := query[i]

		switch state {
		case stSingle, stDouble:
			quote := byte('\'')
			if state == stDouble {
				quote = '"'
			}
			if c == '\\' && i+1 < len(query) {
				sb.WriteByte(c)
				i++
				sb.WriteByte(query[i])
				continue
			}
			if c == quote {
				if i+1 < len(query) && query[i+1] == quote {
					sb.WriteByte(c)
					i++
					sb.WriteByte(query[i])
					continue
				}
				state = stNormal
			}
			sb.WriteByte(c)
			continue

		case stBacktick:
			if c == '`' {
				state = stNormal
			}
			sb.WriteByte(c)
			continue

		case stLineComment:
			if c == '\n' {
				state = stNormal
			}
			sb.WriteByte(c)
			continue

		case stBlockComment:
			if c == '*' && i+1 < len(query) && query[i+1] == '/' {
				sb.WriteString("*/")
				i++
				state = stNormal
				continue
			}
			sb.WriteByte(c)
			continue
		}

		switch {
		case c == '\'':
			state = stSingle
			sb.WriteByte(c)
		case c == '"':
			state = stDouble
			sb.WriteByte(c)
		case c == '`':
			state = stBacktick
			sb.WriteByte(c)
		case c == '#':
			state = stLineComment
			sb.WriteByte(c)
		case c == '-' && i+1 < len(query) && query[i+1] == '-':
			state = stLineComment
			sb.WriteString("--")
			i++
		case c == '/' && i+1 < len(query) && query[i+1] == '*':
			state = stBlockComment
			sb.WriteString("/*")
			i++
		case c == ':' && i+1 < len(query) && isIdentStart(query[i+1]):
			j := i + 1
			for j < len(query) && isIdent(query[j]) {
				j++
			}
			name := query[i+1 : j]
			value, ok := params[name]
			if !ok {
				return "", nil, fmt.Errorf("no value for placeholder :%s", name)
			}
			sb.WriteByte('?')
			args = append(args, value)
			i = j - 1
		default:
			sb.WriteByte(c)
		}
	}

	return sb.String(), args, nil
}
