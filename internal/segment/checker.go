package segment

import "strings"

// BraceChecker closes a unit when its (), [] and {} are balanced and no
// block comment is open. Delimiters inside comments and literals do not
// count. A line ending in a backslash continues onto the next line.
// Surplus closers are ignored; the compiler reports them.
type BraceChecker struct {
	lines     []string
	depth     int
	lex       lexState
	continued bool
}

// NewBraceChecker creates an empty checker.
func NewBraceChecker() *BraceChecker {
	return &BraceChecker{}
}

func (c *BraceChecker) Validate(line string) Completeness {
	c.lines = append(c.lines, line)
	c.lex.walk(line, func(i int) bool {
		switch line[i] {
		case '(', '[', '{':
			c.depth++
		case ')', ']', '}':
			if c.depth > 0 {
				c.depth--
			}
		}
		return true
	})
	c.continued = strings.HasSuffix(strings.TrimRight(line, " \t"), "\\")
	if c.depth == 0 && !c.lex.block && !c.continued {
		return Complete
	}
	return Incomplete
}

func (c *BraceChecker) Take() string {
	unit := strings.Join(c.lines, "\n")
	c.Reset()
	return unit
}

func (c *BraceChecker) Pending() bool {
	return len(c.lines) > 0
}

func (c *BraceChecker) Reset() {
	c.lines = nil
	c.depth = 0
	c.lex = lexState{}
	c.continued = false
}
