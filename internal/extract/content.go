package extract

import (
	"strconv"
	"strings"
)

// tjSpaceThreshold is the TJ kerning offset, in thousandths of text space,
// beyond which a word gap is assumed.
const tjSpaceThreshold = 200

// ContentText decodes the strings shown by Tj, TJ, ' and " in a PDF content
// stream. Text moves with a vertical component and ET start a new line.
// Strings are taken byte for byte, so text in fonts with custom encodings is
// not recovered.
func ContentText(stream []byte) string {
	s := contentScanner{data: stream}
	s.run()
	s.newline()

	var lines []string
	for _, l := range s.lines {
		if l = strings.Join(strings.Fields(l), " "); l != "" {
			lines = append(lines, l)
		}
	}
	return strings.Join(lines, "\n")
}

type contentScanner struct {
	data    []byte
	pos     int
	line    strings.Builder
	lines   []string
	strs    []string
	nums    []float64
	inArray bool
}

func (s *contentScanner) run() {
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		switch {
		case isSpace(c):
			s.pos++
		case c == '%':
			s.skipComment()
		case c == '(':
			s.strs = append(s.strs, s.literal())
		case c == '<' && s.peek(1) == '<', c == '>' && s.peek(1) == '>':
			s.pos += 2
		case c == '<':
			s.strs = append(s.strs, s.hex())
		case c == '[':
			s.inArray = true
			s.pos++
		case c == ']':
			s.inArray = false
			s.pos++
		case c == '/':
			s.pos++
			s.token()
		case c == '{' || c == '}' || c == ')' || c == '>':
			s.pos++
		case isNumberStart(c):
			if f, err := strconv.ParseFloat(s.token(), 64); err == nil {
				if s.inArray && f < -tjSpaceThreshold {
					s.strs = append(s.strs, " ")
				}
				s.nums = append(s.nums, f)
			}
		default:
			s.operator(s.token())
		}
	}
}

func (s *contentScanner) operator(op string) {
	switch op {
	case "Tj", "TJ":
		s.show()
	case "'", `"`:
		s.newline()
		s.show()
	case "T*", "ET":
		s.newline()
	case "Td", "TD":
		if len(s.nums) >= 2 && s.nums[len(s.nums)-1] != 0 {
			s.newline()
		} else {
			s.line.WriteByte(' ')
		}
	case "Tm":
		s.newline()
	case "ID":
		s.skipInlineImage()
	case "":
		s.pos++
	}
	s.strs = s.strs[:0]
	s.nums = s.nums[:0]
}

// show appends the pending strings, reading bytes as Latin-1 and control
// bytes as spaces.
func (s *contentScanner) show() {
	for _, str := range s.strs {
		for i := 0; i < len(str); i++ {
			switch c := str[i]; {
			case c < 0x20:
				s.line.WriteByte(' ')
			case c < 0x80:
				s.line.WriteByte(c)
			default:
				s.line.WriteRune(rune(c))
			}
		}
	}
}

func (s *contentScanner) newline() {
	if s.line.Len() > 0 {
		s.lines = append(s.lines, s.line.String())
		s.line.Reset()
	}
}

func (s *contentScanner) peek(off int) byte {
	if s.pos+off < len(s.data) {
		return s.data[s.pos+off]
	}
	return 0
}

func (s *contentScanner) token() string {
	start := s.pos
	for s.pos < len(s.data) && !isSpace(s.data[s.pos]) && !isDelimiter(s.data[s.pos]) {
		s.pos++
	}
	return string(s.data[start:s.pos])
}

func (s *contentScanner) skipComment() {
	for s.pos < len(s.data) && s.data[s.pos] != '\n' && s.data[s.pos] != '\r' {
		s.pos++
	}
}

// literal reads a parenthesised string, honouring nesting and escapes.
func (s *contentScanner) literal() string {
	var b strings.Builder
	depth := 0
	s.pos++
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		s.pos++
		switch c {
		case '(':
			depth++
			b.WriteByte(c)
		case ')':
			if depth == 0 {
				return b.String()
			}
			depth--
			b.WriteByte(c)
		case '\\':
			s.escape(&b)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func (s *contentScanner) escape(b *strings.Builder) {
	if s.pos >= len(s.data) {
		return
	}
	c := s.data[s.pos]
	s.pos++
	switch c {
	case 'n':
		b.WriteByte('\n')
	case 'r':
		b.WriteByte('\r')
	case 't':
		b.WriteByte('\t')
	case 'b', 'f':
	case '\r':
		if s.peek(0) == '\n' {
			s.pos++
		}
	case '\n':
	case '0', '1', '2', '3', '4', '5', '6', '7':
		v := int(c - '0')
		for i := 0; i < 2 && s.pos < len(s.data) && s.data[s.pos] >= '0' && s.data[s.pos] <= '7'; i++ {
			v = v*8 + int(s.data[s.pos]-'0')
			s.pos++
		}
		b.WriteByte(byte(v))
	default:
		b.WriteByte(c)
	}
}

func (s *contentScanner) hex() string {
	s.pos++
	var digits []byte
	for s.pos < len(s.data) && s.data[s.pos] != '>' {
		if c := s.data[s.pos]; !isSpace(c) {
			digits = append(digits, c)
		}
		s.pos++
	}
	s.pos++
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	out := make([]byte, 0, len(digits)/2)
	for i := 0; i+1 < len(digits); i += 2 {
		v, err := strconv.ParseUint(string(digits[i:i+2]), 16, 8)
		if err != nil {
			return ""
		}
		out = append(out, byte(v))
	}
	return string(out)
}

func (s *contentScanner) skipInlineImage() {
	for s.pos+2 < len(s.data) {
		if isSpace(s.data[s.pos]) && s.data[s.pos+1] == 'E' && s.data[s.pos+2] == 'I' &&
			(s.pos+3 == len(s.data) || isSpace(s.data[s.pos+3])) {
			s.pos += 3
			return
		}
		s.pos++
	}
	s.pos = len(s.data)
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\n' || c == '\r' || c == '\t' || c == '\f' || c == 0
}

func isDelimiter(c byte) bool {
	return strings.IndexByte("()<>[]{}/%", c) >= 0
}

func isNumberStart(c byte) bool {
	return c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9')
}
