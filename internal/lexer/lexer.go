// Package lexer turns ECMAScript source text into a stream of tokens.
package lexer

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/juniper-lang/juniper/internal/token"
)

// Option configures a Lexer at construction time.
type Option func(*Lexer)

// WithFile sets the filename attached to every token's position.
func WithFile(name string) Option {
	return func(l *Lexer) { l.filename = name }
}

// lastSignificant classifies the previous token for regex-vs-divide and
// ASI disambiguation without retaining the whole token.
type lastSignificant int

const (
	lastNone  lastSignificant = iota
	lastValue                 // identifier, literal, `)`, `]`, `++`, `--`
	lastOperator
	lastKeyword
)

// State is an opaque snapshot of lexer position, returned by SaveState and
// consumed by RestoreState. The parser uses this to backtrack when
// speculatively trying to parse an arrow function parameter list.
type State struct {
	pos           int
	readPos       int
	ch            rune
	chWidth       int
	line          int
	lineStart     int
	last          lastSignificant
	templateStack []int
}

// Lexer scans UTF-8 source text one token at a time.
type Lexer struct {
	input    string
	filename string

	pos       int // byte offset of ch
	readPos   int // byte offset of the next rune
	ch        rune
	chWidth   int
	line      int // 0-indexed
	lineStart int // byte offset of the start of the current line

	last lastSignificant

	// templateStack tracks `${` nesting: one entry per unterminated
	// template literal, holding the open-brace depth inside its current
	// interpolation. A `}` at depth zero resumes template scanning instead
	// of being treated as a brace.
	templateStack []int
}

// New creates a Lexer over input.
func New(input string, opts ...Option) *Lexer {
	l := &Lexer{input: input}
	for _, opt := range opts {
		opt(l)
	}
	l.readRune()
	l.skipShebang()
	return l
}

// Filename returns the filename attached to tokens produced by this lexer.
func (l *Lexer) Filename() string { return l.filename }

// SetFilename updates the filename attached to tokens produced hereafter.
func (l *Lexer) SetFilename(name string) { l.filename = name }

// Position returns the current scan position.
func (l *Lexer) Position() token.Position {
	return token.Position{
		Char:      l.pos,
		LineStart: l.lineStart,
		Line:      l.line,
		Column:    l.pos - l.lineStart,
		File:      l.filename,
	}
}

// SaveState snapshots the lexer so scanning can be rewound with RestoreState.
func (l *Lexer) SaveState() State {
	return State{
		pos:           l.pos,
		readPos:       l.readPos,
		ch:            l.ch,
		chWidth:       l.chWidth,
		line:          l.line,
		lineStart:     l.lineStart,
		last:          l.last,
		templateStack: append([]int(nil), l.templateStack...),
	}
}

// RestoreState rewinds the lexer to a previously saved State.
func (l *Lexer) RestoreState(s State) {
	l.pos = s.pos
	l.readPos = s.readPos
	l.ch = s.ch
	l.chWidth = s.chWidth
	l.line = s.line
	l.lineStart = s.lineStart
	l.last = s.last
	l.templateStack = append(l.templateStack[:0], s.templateStack...)
}

// GetLineText returns the full source line containing tok.
func (l *Lexer) GetLineText(tok token.Token) string {
	start := tok.StartPosition.LineStart
	if start > len(l.input) {
		start = len(l.input)
	}
	end := start
	for end < len(l.input) && l.input[end] != '\n' && l.input[end] != '\r' {
		end++
	}
	return l.input[start:end]
}

func (l *Lexer) readRune() {
	if l.readPos >= len(l.input) {
		l.pos = len(l.input)
		l.ch = 0
		l.chWidth = 0
		return
	}
	r, w := utf8.DecodeRuneInString(l.input[l.readPos:])
	l.pos = l.readPos
	l.ch = r
	l.chWidth = w
	l.readPos += w
}

func (l *Lexer) peekRune() rune {
	if l.readPos >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPos:])
	return r
}

func (l *Lexer) peekRuneAt(offset int) rune {
	pos := l.readPos
	for i := 0; i < offset; i++ {
		if pos >= len(l.input) {
			return 0
		}
		_, w := utf8.DecodeRuneInString(l.input[pos:])
		pos += w
	}
	if pos >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[pos:])
	return r
}

func (l *Lexer) skipShebang() {
	if l.ch == '#' && l.peekRune() == '!' && l.pos == 0 {
		for l.ch != '\n' && l.ch != 0 {
			l.readRune()
		}
	}
}

func isLetter(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r)
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// Next scans and returns the next token, or an error describing why the
// input could not be tokenized.
func (l *Lexer) Next() (token.Token, error) {
	newline := l.skipWhitespaceAndComments()

	startLine := l.line
	startCol := l.pos - l.lineStart
	startChar := l.pos

	makeTok := func(typ token.Type, lit string, endCol int) token.Token {
		return token.Token{
			Type:    typ,
			Literal: lit,
			StartPosition: token.Position{
				Char: startChar, Line: startLine, LineStart: l.lineStartAt(startLine),
				Column: startCol, File: l.filename,
			},
			EndPosition: token.Position{
				Char: l.pos, Line: l.line, LineStart: l.lineStart,
				Column: endCol, File: l.filename,
			},
			PrecededByNewline: newline,
		}
	}

	if l.ch == 0 {
		tok := makeTok(token.EOF, "", startCol)
		l.last = lastNone
		return tok, nil
	}

	// A `}` at interpolation depth zero closes a `${ ... }` substitution;
	// scanning resumes inside the surrounding template literal.
	if l.ch == '}' && len(l.templateStack) > 0 && l.templateStack[len(l.templateStack)-1] == 0 {
		typ, lit, err := l.readTemplateSegment()
		if err != nil {
			return token.Token{}, err
		}
		if typ == token.TEMPLATE_TAIL {
			l.templateStack = l.templateStack[:len(l.templateStack)-1]
		}
		l.last = lastValue
		return makeTok(typ, lit, l.pos-l.lineStart-1), nil
	}

	switch {
	case isLetter(l.ch):
		lit, err := l.readIdentifier()
		if err != nil {
			return token.Token{}, err
		}
		typ := token.LookupIdentifier(lit)
		// `as` is only a contextual keyword; it is never reserved so
		// method names and bindings called `as` keep working.
		if lit == "as" {
			typ = token.IDENT
		}
		tok := makeTok(typ, lit, l.pos-l.lineStart-1)
		if typ == token.IDENT {
			l.last = lastValue
		} else {
			l.last = lastKeyword
		}
		return tok, nil
	case isDigit(l.ch):
		typ, lit, err := l.readNumber()
		if err != nil {
			return token.Token{}, err
		}
		l.last = lastValue
		return makeTok(typ, lit, l.pos-l.lineStart-1), nil
	case l.ch == '"' || l.ch == '\'':
		lit, err := l.readString(l.ch)
		if err != nil {
			return token.Token{}, err
		}
		l.last = lastValue
		return makeTok(token.STRING, lit, l.pos-l.lineStart-1), nil
	case l.ch == '`':
		typ, lit, err := l.readTemplateSegment()
		if err != nil {
			return token.Token{}, err
		}
		if typ == token.TEMPLATE_HEAD {
			l.templateStack = append(l.templateStack, 0)
		}
		l.last = lastValue
		return makeTok(typ, lit, l.pos-l.lineStart-1), nil
	case l.ch == '/' && l.regexAllowed():
		lit, err := l.readRegex()
		if err == nil {
			l.last = lastValue
			return makeTok(token.REGEXP, lit, l.pos-l.lineStart-1), nil
		}
		// Not a valid regex; fall through to treat '/' as division.
	}

	tok, err := l.readPunct(makeTok)
	if err != nil {
		return token.Token{}, err
	}
	switch tok.Type {
	case token.IDENT, token.NUMBER, token.BIGINT, token.STRING, token.REGEXP,
		token.TEMPLATE, token.TEMPLATE_TAIL, token.RPAREN, token.RBRACKET,
		token.PLUS_PLUS, token.MINUS_MINUS:
		l.last = lastValue
	default:
		l.last = lastOperator
	}
	return tok, nil
}

func (l *Lexer) lineStartAt(line int) int {
	if line == l.line {
		return l.lineStart
	}
	return l.lineStart
}

// skipWhitespaceAndComments advances past whitespace and comments, tracking
// line starts, and reports whether a line terminator was seen.
func (l *Lexer) skipWhitespaceAndComments() bool {
	sawNewline := false
	for {
		switch {
		case l.ch == '\n':
			sawNewline = true
			l.readRune()
			l.line++
			l.lineStart = l.pos
		case l.ch == '\r':
			sawNewline = true
			l.readRune()
			if l.ch == '\n' {
				l.readRune()
			}
			l.line++
			l.lineStart = l.pos
		case l.ch == ' ' || l.ch == '\t' || l.ch == '\v' || l.ch == '\f' || l.ch == 0xFEFF:
			l.readRune()
		case l.ch == '/' && l.peekRune() == '/':
			for l.ch != '\n' && l.ch != '\r' && l.ch != 0 {
				l.readRune()
			}
		case l.ch == '/' && l.peekRune() == '*':
			l.readRune()
			l.readRune()
			for {
				if l.ch == 0 {
					break
				}
				if l.ch == '\n' {
					sawNewline = true
					l.readRune()
					l.line++
					l.lineStart = l.pos
					continue
				}
				if l.ch == '*' && l.peekRune() == '/' {
					l.readRune()
					l.readRune()
					break
				}
				l.readRune()
			}
		default:
			return sawNewline
		}
	}
}

func (l *Lexer) readIdentifier() (string, error) {
	var sb strings.Builder
	for isLetter(l.ch) || isDigit(l.ch) {
		sb.WriteRune(l.ch)
		l.readRune()
	}
	if l.ch != 0 && !isValidBoundary(l.ch) {
		bad := sb.String() + string(l.ch)
		return "", fmt.Errorf("invalid identifier: %s", bad)
	}
	return sb.String(), nil
}

// isValidBoundary reports whether r may legally follow an identifier.
func isValidBoundary(r rune) bool {
	if isLetter(r) || isDigit(r) {
		return true
	}
	switch r {
	case ' ', '\t', '\n', '\r', '\v', '\f', '(', ')', '{', '}', '[', ']',
		';', ',', '.', ':', '?', '!', '=', '+', '-', '*', '/', '%', '<', '>',
		'&', '|', '^', '~', '"', '\'', '`':
		return true
	}
	return false
}

func (l *Lexer) readNumber() (token.Type, string, error) {
	var sb strings.Builder
	start := l.pos

	if l.ch == '0' && (l.peekRune() == 'x' || l.peekRune() == 'X') {
		sb.WriteRune(l.ch)
		l.readRune()
		sb.WriteRune(l.ch)
		l.readRune()
		for isHexDigit(l.ch) {
			sb.WriteRune(l.ch)
			l.readRune()
		}
		return l.finishNumberLiteral(sb, start)
	}
	if l.ch == '0' && (l.peekRune() == 'b' || l.peekRune() == 'B') {
		sb.WriteRune(l.ch)
		l.readRune()
		sb.WriteRune(l.ch)
		l.readRune()
		for l.ch == '0' || l.ch == '1' {
			sb.WriteRune(l.ch)
			l.readRune()
		}
		return l.finishNumberLiteral(sb, start)
	}
	if l.ch == '0' && (l.peekRune() == 'o' || l.peekRune() == 'O') {
		sb.WriteRune(l.ch)
		l.readRune()
		sb.WriteRune(l.ch)
		l.readRune()
		for l.ch >= '0' && l.ch <= '7' {
			sb.WriteRune(l.ch)
			l.readRune()
		}
		return l.finishNumberLiteral(sb, start)
	}

	for isDigit(l.ch) {
		sb.WriteRune(l.ch)
		l.readRune()
	}

	isFloat := false
	if l.ch == '.' && isDigit(l.peekRune()) {
		isFloat = true
		sb.WriteRune(l.ch)
		l.readRune()
		for isDigit(l.ch) {
			sb.WriteRune(l.ch)
			l.readRune()
		}
	} else if l.ch == '.' && !isLetter(l.peekRune()) && l.peekRune() != '.' {
		isFloat = true
		sb.WriteRune(l.ch)
		l.readRune()
	}
	if l.ch == 'e' || l.ch == 'E' {
		save := l.SaveState()
		sb2 := sb.String()
		sb.WriteRune(l.ch)
		l.readRune()
		if l.ch == '+' || l.ch == '-' {
			sb.WriteRune(l.ch)
			l.readRune()
		}
		if isDigit(l.ch) {
			isFloat = true
			for isDigit(l.ch) {
				sb.WriteRune(l.ch)
				l.readRune()
			}
		} else {
			l.RestoreState(save)
			sb.Reset()
			sb.WriteString(sb2)
		}
	}

	if l.ch == 'n' {
		lit := sb.String()
		if isFloat {
			// A bigint literal has no fractional or exponent form.
			return token.ILLEGAL, "", fmt.Errorf("invalid bigint literal: %sn", lit)
		}
		l.readRune()
		if isLetter(l.ch) || isDigit(l.ch) {
			bad := lit + "n" + string(l.ch)
			return token.ILLEGAL, "", fmt.Errorf("invalid decimal literal: %s", bad)
		}
		return token.BIGINT, lit, nil
	}

	if isLetter(l.ch) {
		bad := sb.String() + string(l.ch)
		return token.ILLEGAL, "", fmt.Errorf("invalid decimal literal: %s", bad)
	}
	return token.NUMBER, sb.String(), nil
}

func (l *Lexer) finishNumberLiteral(sb strings.Builder, start int) (token.Type, string, error) {
	if l.ch == 'n' {
		lit := sb.String()
		l.readRune()
		return token.BIGINT, lit, nil
	}
	if isLetter(l.ch) {
		bad := sb.String() + string(l.ch)
		return token.ILLEGAL, "", fmt.Errorf("invalid decimal literal: %s", bad)
	}
	_ = start
	return token.NUMBER, sb.String(), nil
}

func isHexDigit(r rune) bool {
	return isDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

func (l *Lexer) readString(quote rune) (string, error) {
	l.readRune() // consume opening quote
	var sb strings.Builder
	for {
		if l.ch == 0 {
			return "", fmt.Errorf("unterminated string literal")
		}
		if l.ch == '\n' || l.ch == '\r' {
			return "", fmt.Errorf("unterminated string literal")
		}
		if l.ch == quote {
			l.readRune()
			return sb.String(), nil
		}
		if l.ch == '\\' {
			l.readRune()
			r, err := l.readEscape()
			if err != nil {
				return "", err
			}
			if r >= 0 {
				sb.WriteRune(r)
			}
			continue
		}
		sb.WriteRune(l.ch)
		l.readRune()
	}
}

func (l *Lexer) readEscape() (rune, error) {
	switch l.ch {
	case 'n':
		l.readRune()
		return '\n', nil
	case 'r':
		l.readRune()
		return '\r', nil
	case 't':
		l.readRune()
		return '\t', nil
	case 'b':
		l.readRune()
		return '\b', nil
	case 'f':
		l.readRune()
		return '\f', nil
	case 'v':
		l.readRune()
		return '\v', nil
	case 'a':
		l.readRune()
		return '\a', nil
	case '0':
		l.readRune()
		return 0, nil
	case '\\', '\'', '"', '`':
		r := l.ch
		l.readRune()
		return r, nil
	case 'x':
		l.readRune()
		v := 0
		for i := 0; i < 2; i++ {
			d, ok := hexVal(l.ch)
			if !ok {
				return 0, fmt.Errorf("invalid hex escape")
			}
			v = v*16 + d
			l.readRune()
		}
		return rune(v), nil
	case 'u':
		l.readRune()
		if l.ch == '{' {
			l.readRune()
			v := 0
			for l.ch != '}' {
				d, ok := hexVal(l.ch)
				if !ok {
					return 0, fmt.Errorf("invalid unicode escape")
				}
				v = v*16 + d
				l.readRune()
			}
			l.readRune()
			return rune(v), nil
		}
		v := 0
		for i := 0; i < 4; i++ {
			d, ok := hexVal(l.ch)
			if !ok {
				return 0, fmt.Errorf("invalid unicode escape")
			}
			v = v*16 + d
			l.readRune()
		}
		return rune(v), nil
	case '\n':
		l.readRune()
		return -1, nil // line continuation, caller drops it via special-case below
	default:
		return 0, fmt.Errorf("invalid escape sequence")
	}
}

func hexVal(r rune) (int, bool) {
	switch {
	case r >= '0' && r <= '9':
		return int(r - '0'), true
	case r >= 'a' && r <= 'f':
		return int(r-'a') + 10, true
	case r >= 'A' && r <= 'F':
		return int(r-'A') + 10, true
	}
	return 0, false
}

// readTemplateSegment reads from a backtick or a closing `}` of an
// interpolation up through the next `${` or closing backtick.
func (l *Lexer) readTemplateSegment() (token.Type, string, error) {
	startedAtBacktick := l.ch == '`'
	l.readRune() // consume ` or }
	var sb strings.Builder
	for {
		if l.ch == 0 {
			return "", "", fmt.Errorf("unterminated template literal")
		}
		if l.ch == '`' {
			l.readRune()
			if startedAtBacktick {
				return token.TEMPLATE, sb.String(), nil
			}
			return token.TEMPLATE_TAIL, sb.String(), nil
		}
		if l.ch == '$' && l.peekRune() == '{' {
			l.readRune()
			l.readRune()
			if startedAtBacktick {
				return token.TEMPLATE_HEAD, sb.String(), nil
			}
			return token.TEMPLATE_MIDDLE, sb.String(), nil
		}
		if l.ch == '\\' {
			l.readRune()
			r, err := l.readEscape()
			if err != nil {
				return "", "", err
			}
			if r >= 0 {
				sb.WriteRune(r)
			}
			continue
		}
		if l.ch == '\n' {
			l.line++
			l.lineStart = l.pos + 1
		}
		sb.WriteRune(l.ch)
		l.readRune()
	}
}

func (l *Lexer) regexAllowed() bool {
	return l.last != lastValue
}

func (l *Lexer) readRegex() (string, error) {
	save := l.SaveState()
	l.readRune() // consume '/'
	var sb strings.Builder
	sb.WriteRune('/')
	inClass := false
	for {
		if l.ch == 0 || l.ch == '\n' {
			l.RestoreState(save)
			return "", fmt.Errorf("unterminated regular expression literal")
		}
		if l.ch == '\\' {
			sb.WriteRune(l.ch)
			l.readRune()
			if l.ch == 0 || l.ch == '\n' {
				l.RestoreState(save)
				return "", fmt.Errorf("unterminated regular expression literal")
			}
			sb.WriteRune(l.ch)
			l.readRune()
			continue
		}
		if l.ch == '[' {
			inClass = true
		} else if l.ch == ']' {
			inClass = false
		} else if l.ch == '/' && !inClass {
			sb.WriteRune(l.ch)
			l.readRune()
			break
		}
		sb.WriteRune(l.ch)
		l.readRune()
	}
	for isLetter(l.ch) {
		sb.WriteRune(l.ch)
		l.readRune()
	}
	return sb.String(), nil
}

// readPunct scans an operator or punctuator token.
func (l *Lexer) readPunct(makeTok func(token.Type, string, int) token.Token) (token.Token, error) {
	ch := l.ch
	col := l.pos - l.lineStart

	two := func(next rune, typ2 token.Type, typ1 token.Type, lit1 string) token.Token {
		if l.peekRune() == next {
			l.readRune()
			lit := lit1 + string(next)
			l.readRune()
			return makeTok(typ2, lit, l.pos-l.lineStart-1)
		}
		l.readRune()
		return makeTok(typ1, lit1, col)
	}

	switch ch {
	case '(':
		l.readRune()
		return makeTok(token.LPAREN, "(", col), nil
	case ')':
		l.readRune()
		return makeTok(token.RPAREN, ")", col), nil
	case '{':
		if len(l.templateStack) > 0 {
			l.templateStack[len(l.templateStack)-1]++
		}
		l.readRune()
		return makeTok(token.LBRACE, "{", col), nil
	case '}':
		if len(l.templateStack) > 0 {
			l.templateStack[len(l.templateStack)-1]--
		}
		l.readRune()
		return makeTok(token.RBRACE, "}", col), nil
	case '[':
		l.readRune()
		return makeTok(token.LBRACKET, "[", col), nil
	case ']':
		l.readRune()
		return makeTok(token.RBRACKET, "]", col), nil
	case ';':
		l.readRune()
		return makeTok(token.SEMICOLON, ";", col), nil
	case ',':
		l.readRune()
		return makeTok(token.COMMA, ",", col), nil
	case ':':
		l.readRune()
		return makeTok(token.COLON, ":", col), nil
	case '~':
		l.readRune()
		return makeTok(token.TILDE, "~", col), nil
	case '.':
		if l.peekRune() == '.' && l.peekRuneAt(1) == '.' {
			l.readRune()
			l.readRune()
			l.readRune()
			return makeTok(token.SPREAD, "...", l.pos-l.lineStart-1), nil
		}
		l.readRune()
		return makeTok(token.PERIOD, ".", col), nil
	case '?':
		if l.peekRune() == '.' {
			nxt := l.peekRuneAt(1)
			if !isDigit(nxt) {
				l.readRune()
				l.readRune()
				return makeTok(token.QUESTION_DOT, "?.", l.pos-l.lineStart-1), nil
			}
		}
		if l.peekRune() == '?' {
			l.readRune()
			l.readRune()
			if l.ch == '=' {
				l.readRune()
				return makeTok(token.NULLISH_EQUALS, "??=", l.pos-l.lineStart-1), nil
			}
			return makeTok(token.NULLISH, "??", l.pos-l.lineStart-1), nil
		}
		l.readRune()
		return makeTok(token.QUESTION, "?", col), nil
	case '+':
		if l.peekRune() == '+' {
			l.readRune()
			l.readRune()
			return makeTok(token.PLUS_PLUS, "++", l.pos-l.lineStart-1), nil
		}
		return two('=', token.PLUS_EQUALS, token.PLUS, "+"), nil
	case '-':
		if l.peekRune() == '-' {
			l.readRune()
			l.readRune()
			return makeTok(token.MINUS_MINUS, "--", l.pos-l.lineStart-1), nil
		}
		return two('=', token.MINUS_EQUALS, token.MINUS, "-"), nil
	case '*':
		if l.peekRune() == '*' {
			l.readRune()
			l.readRune()
			if l.ch == '=' {
				l.readRune()
				return makeTok(token.POW_EQUALS, "**=", l.pos-l.lineStart-1), nil
			}
			return makeTok(token.POW, "**", l.pos-l.lineStart-1), nil
		}
		return two('=', token.ASTERISK_EQUALS, token.ASTERISK, "*"), nil
	case '/':
		return two('=', token.SLASH_EQUALS, token.SLASH, "/"), nil
	case '%':
		return two('=', token.MOD_EQUALS, token.MOD, "%"), nil
	case '=':
		if l.peekRune() == '=' {
			l.readRune()
			l.readRune()
			if l.ch == '=' {
				l.readRune()
				return makeTok(token.STRICT_EQ, "===", l.pos-l.lineStart-1), nil
			}
			return makeTok(token.EQ, "==", l.pos-l.lineStart-1), nil
		}
		if l.peekRune() == '>' {
			l.readRune()
			l.readRune()
			return makeTok(token.ARROW, "=>", l.pos-l.lineStart-1), nil
		}
		l.readRune()
		return makeTok(token.ASSIGN, "=", col), nil
	case '!':
		if l.peekRune() == '=' {
			l.readRune()
			l.readRune()
			if l.ch == '=' {
				l.readRune()
				return makeTok(token.STRICT_NOT_EQ, "!==", l.pos-l.lineStart-1), nil
			}
			return makeTok(token.NOT_EQ, "!=", l.pos-l.lineStart-1), nil
		}
		l.readRune()
		return makeTok(token.BANG, "!", col), nil
	case '<':
		if l.peekRune() == '<' {
			l.readRune()
			l.readRune()
			if l.ch == '=' {
				l.readRune()
				return makeTok(token.LT_LT_EQUALS, "<<=", l.pos-l.lineStart-1), nil
			}
			return makeTok(token.LT_LT, "<<", l.pos-l.lineStart-1), nil
		}
		return two('=', token.LT_EQUALS, token.LT, "<"), nil
	case '>':
		if l.peekRune() == '>' {
			l.readRune()
			l.readRune()
			if l.ch == '>' {
				l.readRune()
				if l.ch == '=' {
					l.readRune()
					return makeTok(token.GT_GT_GT_EQUALS, ">>>=", l.pos-l.lineStart-1), nil
				}
				return makeTok(token.GT_GT_GT, ">>>", l.pos-l.lineStart-1), nil
			}
			if l.ch == '=' {
				l.readRune()
				return makeTok(token.GT_GT_EQUALS, ">>=", l.pos-l.lineStart-1), nil
			}
			return makeTok(token.GT_GT, ">>", l.pos-l.lineStart-1), nil
		}
		return two('=', token.GT_EQUALS, token.GT, ">"), nil
	case '&':
		if l.peekRune() == '&' {
			l.readRune()
			l.readRune()
			if l.ch == '=' {
				l.readRune()
				return makeTok(token.AND_AND_EQUALS, "&&=", l.pos-l.lineStart-1), nil
			}
			return makeTok(token.AND, "&&", l.pos-l.lineStart-1), nil
		}
		return two('=', token.AMPERSAND_EQUALS, token.AMPERSAND, "&"), nil
	case '|':
		if l.peekRune() == '|' {
			l.readRune()
			l.readRune()
			if l.ch == '=' {
				l.readRune()
				return makeTok(token.OR_OR_EQUALS, "||=", l.pos-l.lineStart-1), nil
			}
			return makeTok(token.OR, "||", l.pos-l.lineStart-1), nil
		}
		return two('=', token.PIPE_EQUALS, token.PIPE, "|"), nil
	case '^':
		return two('=', token.CARET_EQUALS, token.CARET, "^"), nil
	default:
		l.readRune()
		return token.Token{}, fmt.Errorf("unexpected character: '%c'", ch)
	}
}
