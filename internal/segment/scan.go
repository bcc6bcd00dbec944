package segment

// lexState carries the one piece of lexical context that outlives a line:
// an open block comment.
type lexState struct {
	block bool
}

// walk calls fn with the offset of every byte of s that is code, skipping
// comments and the contents of string and character literals. Literals do
// not continue past a newline. If fn returns false the walk stops and
// returns that offset; otherwise it returns len(s).
func (st *lexState) walk(s string, fn func(i int) bool) int {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if st.block {
			if c == '*' && i+1 < len(s) && s[i+1] == '/' {
				st.block = false
				i++
			}
			continue
		}
		switch {
		case c == '/' && i+1 < len(s) && s[i+1] == '/':
			for i+1 < len(s) && s[i+1] != '\n' {
				i++
			}
		case c == '/' && i+1 < len(s) && s[i+1] == '*':
			st.block = true
			i++
		case c == '"' || c == '\'':
			i = skipLiteral(s, i)
		default:
			if !fn(i) {
				return i
			}
		}
	}
	return len(s)
}

// skipLiteral returns the offset of the quote closing the literal opened at
// i, or the last offset before the end of the line.
func skipLiteral(s string, i int) int {
	q := s[i]
	for j := i + 1; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case q:
			return j
		case '\n':
			return j - 1
		}
	}
	return len(s) - 1
}

// skipBlank returns the first offset at or after pos that is neither
// whitespace nor comment.
func skipBlank(s string, pos int) int {
	for pos < len(s) {
		switch {
		case s[pos] == ' ' || s[pos] == '\t' || s[pos] == '\n' || s[pos] == '\r':
			pos++
		case pos+1 < len(s) && s[pos] == '/' && s[pos+1] == '/':
			for pos < len(s) && s[pos] != '\n' {
				pos++
			}
		case pos+1 < len(s) && s[pos] == '/' && s[pos+1] == '*':
			end := indexFrom(s, "*/", pos+2)
			if end < 0 {
				return len(s)
			}
			pos = end + 2
		default:
			return pos
		}
	}
	return pos
}

func indexFrom(s, sub string, from int) int {
	for i := from; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
