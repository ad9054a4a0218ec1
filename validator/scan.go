package validator

type scanResult struct {
	leadingWord     string
	placeholders    []string // in order of appearance, duplicates kept
	extraStatements bool
}

// scanStatement walks the statement once, tracking string literals and
// comments, to find the leading keyword, the named placeholders and any
// statement separators. A single trailing semicolon is tolerated.
func scanStatement(text string) scanResult {
	const (
		stNormal = iota
		stSingle
		stDouble
		stBacktick
		stLineComment
		stBlockComment
	)

	var res scanResult
	state := stNormal
	semiAt := -1

	isIdentStart := func(b byte) bool {
		return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
	}
	isIdent := func(b byte) bool {
		return isIdentStart(b) || (b >= '0' && b <= '9')
	}

	for i := 0; i < len(text); i++ {
		c := text[i]

		switch state {
		case stSingle, stDouble:
			quote := byte('\'')
			if state == stDouble {
				quote = '"'
			}
			if c == '\\' && i+1 < len(text) {
				i++ // driver-style escape, skip the escaped byte
			} else if c == quote {
				if i+1 < len(text) && text[i+1] == quote {
					i++ // doubled quote stays inside the literal
				} else {
					state = stNormal
				}
			}
			continue

		case stBacktick:
			if c == '`' {
				state = stNormal
			}
			continue

		case stLineComment:
			if c == '\n' {
				state = stNormal
			}
			continue

		case stBlockComment:
			if c == '*' && i+1 < len(text) && text[i+1] == '/' {
				i++
				state = stNormal
			}
			continue
		}

		// normal state
		switch {
		case c == '\'':
			state = stSingle
		case c == '"':
			state = stDouble
		case c == '`':
			state = stBacktick
		case c == '#':
			state = stLineComment
		case c == '-' && i+1 < len(text) && text[i+1] == '-':
			state = stLineComment
			i++
		case c == '/' && i+1 < len(text) && text[i+1] == '*':
			state = stBlockComment
			i++
		case c == ';':
			if semiAt >= 0 {
				res.extraStatements = true
			}
			semiAt = i
		case c == ':' && i+1 < len(text) && isIdentStart(text[i+1]):
			j := i + 1
			for j < len(text) && isIdent(text[j]) {
				j++
			}
			res.placeholders = append(res.placeholders, text[i+1:j])
			if semiAt >= 0 {
				res.extraStatements = true
			}
			i = j - 1
		case isIdentStart(c):
			j := i
			for j < len(text) && isIdent(text[j]) {
				j++
			}
			if res.leadingWord == "" {
				res.leadingWord = text[i:j]
			}
			if semiAt >= 0 {
				res.extraStatements = true
			}
			i = j - 1
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			// whitespace after a semicolon is fine
		default:
			// any other executable byte after a semicolon means chaining
			if semiAt >= 0 {
				res.extraStatements = true
			}
		}
	}

	return res
}
