package lexer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/juniper-lang/juniper/internal/token"
)

type expectedTok struct {
	typ     token.Type
	literal string
}

func collect(t *testing.T, input string, expected []expectedTok) {
	t.Helper()
	l := New(input)
	for i, exp := range expected {
		tok, err := l.Next()
		require.NoError(t, err)
		require.Equalf(t, exp.typ, tok.Type, "token %d", i)
		require.Equalf(t, exp.literal, tok.Literal, "token %d", i)
	}
}

func TestAssignAndOperators(t *testing.T) {
	collect(t, "%=+(){},;?|| && ++ -- ** *= . . &", []expectedTok{
		{token.MOD_EQUALS, "%="},
		{token.PLUS, "+"},
		{token.LPAREN, "("},
		{token.RPAREN, ")"},
		{token.LBRACE, "{"},
		{token.RBRACE, "}"},
		{token.COMMA, ","},
		{token.SEMICOLON, ";"},
		{token.QUESTION, "?"},
		{token.OR, "||"},
		{token.AND, "&&"},
		{token.PLUS_PLUS, "++"},
		{token.MINUS_MINUS, "--"},
		{token.POW, "**"},
		{token.ASTERISK_EQUALS, "*="},
		{token.PERIOD, "."},
		{token.PERIOD, "."},
		{token.AMPERSAND, "&"},
		{token.EOF, ""},
	})
}

func TestKeywordsAndLiterals(t *testing.T) {
	collect(t, `let x = 5; const y = true; if (x < 10) { return false; }`, []expectedTok{
		{token.LET, "let"},
		{token.IDENT, "x"},
		{token.ASSIGN, "="},
		{token.NUMBER, "5"},
		{token.SEMICOLON, ";"},
		{token.CONST, "const"},
		{token.IDENT, "y"},
		{token.ASSIGN, "="},
		{token.TRUE, "true"},
		{token.SEMICOLON, ";"},
		{token.IF, "if"},
		{token.LPAREN, "("},
		{token.IDENT, "x"},
		{token.LT, "<"},
		{token.NUMBER, "10"},
		{token.RPAREN, ")"},
		{token.LBRACE, "{"},
		{token.RETURN, "return"},
		{token.FALSE, "false"},
		{token.SEMICOLON, ";"},
		{token.RBRACE, "}"},
		{token.EOF, ""},
	})
}

func TestNumbers(t *testing.T) {
	collect(t, "10 0x1F 0b101 0o17 1.2 0.5 10n", []expectedTok{
		{token.NUMBER, "10"},
		{token.NUMBER, "0x1F"},
		{token.NUMBER, "0b101"},
		{token.NUMBER, "0o17"},
		{token.NUMBER, "1.2"},
		{token.NUMBER, "0.5"},
		{token.BIGINT, "10"},
		{token.EOF, ""},
	})
}

func TestStrings(t *testing.T) {
	collect(t, `"foo\n" 'bar' "escaped \"quote\""`, []expectedTok{
		{token.STRING, "foo\n"},
		{token.STRING, "bar"},
		{token.STRING, "escaped \"quote\""},
		{token.EOF, ""},
	})
}

func TestUnterminatedString(t *testing.T) {
	l := New(`"foo`)
	_, err := l.Next()
	require.Error(t, err)
}

func TestTemplateLiteralNoSubstitution(t *testing.T) {
	collect(t, "`hello world`", []expectedTok{
		{token.TEMPLATE, "hello world"},
		{token.EOF, ""},
	})
}

func TestTemplateLiteralHead(t *testing.T) {
	collect(t, "`a${x}b`", []expectedTok{
		{token.TEMPLATE_HEAD, "a"},
		{token.IDENT, "x"},
		{token.TEMPLATE_TAIL, "b"},
		{token.EOF, ""},
	})
}

func TestTemplateLiteralMiddle(t *testing.T) {
	collect(t, "`a${x}-${y}b`", []expectedTok{
		{token.TEMPLATE_HEAD, "a"},
		{token.IDENT, "x"},
		{token.TEMPLATE_MIDDLE, "-"},
		{token.IDENT, "y"},
		{token.TEMPLATE_TAIL, "b"},
		{token.EOF, ""},
	})
}

func TestTemplateLiteralNestedBraces(t *testing.T) {
	collect(t, "`v=${ {a: 1}.a }!`", []expectedTok{
		{token.TEMPLATE_HEAD, "v="},
		{token.LBRACE, "{"},
		{token.IDENT, "a"},
		{token.COLON, ":"},
		{token.NUMBER, "1"},
		{token.RBRACE, "}"},
		{token.PERIOD, "."},
		{token.IDENT, "a"},
		{token.TEMPLATE_TAIL, "!"},
		{token.EOF, ""},
	})
}

func TestDivVsRegex(t *testing.T) {
	collect(t, "a = b / c;", []expectedTok{
		{token.IDENT, "a"},
		{token.ASSIGN, "="},
		{token.IDENT, "b"},
		{token.SLASH, "/"},
		{token.IDENT, "c"},
		{token.SEMICOLON, ";"},
		{token.EOF, ""},
	})
}

func TestRegexAfterAssign(t *testing.T) {
	l := New("let re = /abc/g;")
	var tok token.Token
	var err error
	for {
		tok, err = l.Next()
		require.NoError(t, err)
		if tok.Type == token.ASSIGN {
			break
		}
	}
	tok, err = l.Next()
	require.NoError(t, err)
	require.Equal(t, token.REGEXP, tok.Type)
	require.Equal(t, "/abc/g", tok.Literal)
}

func TestOptionalChainingAndNullish(t *testing.T) {
	collect(t, "a?.b ?? c", []expectedTok{
		{token.IDENT, "a"},
		{token.QUESTION_DOT, "?."},
		{token.IDENT, "b"},
		{token.NULLISH, "??"},
		{token.IDENT, "c"},
		{token.EOF, ""},
	})
}

func TestArrowFunction(t *testing.T) {
	collect(t, "(a, b) => a + b", []expectedTok{
		{token.LPAREN, "("},
		{token.IDENT, "a"},
		{token.COMMA, ","},
		{token.IDENT, "b"},
		{token.RPAREN, ")"},
		{token.ARROW, "=>"},
		{token.IDENT, "a"},
		{token.PLUS, "+"},
		{token.IDENT, "b"},
		{token.EOF, ""},
	})
}

func TestSpreadVsPeriods(t *testing.T) {
	collect(t, "[...arr]", []expectedTok{
		{token.LBRACKET, "["},
		{token.SPREAD, "..."},
		{token.IDENT, "arr"},
		{token.RBRACKET, "]"},
		{token.EOF, ""},
	})
	collect(t, "..", []expectedTok{
		{token.PERIOD, "."},
		{token.PERIOD, "."},
		{token.EOF, ""},
	})
}

func TestBitShiftAndStrictEquality(t *testing.T) {
	collect(t, "a << 2 >> 3 === 1 !== 2", []expectedTok{
		{token.IDENT, "a"},
		{token.LT_LT, "<<"},
		{token.NUMBER, "2"},
		{token.GT_GT, ">>"},
		{token.NUMBER, "3"},
		{token.STRICT_EQ, "==="},
		{token.NUMBER, "1"},
		{token.STRICT_NOT_EQ, "!=="},
		{token.NUMBER, "2"},
		{token.EOF, ""},
	})
}

func TestNewlineTrackingForASI(t *testing.T) {
	l := New("a\nb")
	tok, err := l.Next()
	require.NoError(t, err)
	require.False(t, tok.PrecededByNewline)
	tok, err = l.Next()
	require.NoError(t, err)
	require.True(t, tok.PrecededByNewline)
}

func TestShebangSkippedAtStart(t *testing.T) {
	l := New("#!/usr/bin/env juniper\nx")
	tok, err := l.Next()
	require.NoError(t, err)
	require.Equal(t, token.IDENT, tok.Type)
	require.Equal(t, "x", tok.Literal)
}

func TestComments(t *testing.T) {
	collect(t, "a // line comment\nb /* block\ncomment */ c", []expectedTok{
		{token.IDENT, "a"},
		{token.IDENT, "b"},
		{token.IDENT, "c"},
		{token.EOF, ""},
	})
}

func TestSaveRestoreState(t *testing.T) {
	l := New("let x = 1 + 2")
	_, err := l.Next()
	require.NoError(t, err)
	_, err = l.Next()
	require.NoError(t, err)

	state := l.SaveState()
	tok, err := l.Next()
	require.NoError(t, err)
	require.Equal(t, token.ASSIGN, tok.Type)

	l.RestoreState(state)
	tok, err = l.Next()
	require.NoError(t, err)
	require.Equal(t, token.ASSIGN, tok.Type)
}

func TestGetLineText(t *testing.T) {
	l := New("first line\nsecond line")
	l.Next()
	line := l.GetLineText(token.Token{StartPosition: token.Position{LineStart: 0}})
	require.Equal(t, "first line", line)
}

func TestFilenameOption(t *testing.T) {
	l := New("x", WithFile("test.js"))
	require.Equal(t, "test.js", l.Filename())
	tok, err := l.Next()
	require.NoError(t, err)
	require.Equal(t, "test.js", tok.StartPosition.File)
}

func TestInvalidIdentifier(t *testing.T) {
	l := New("\x01")
	_, err := l.Next()
	require.Error(t, err)
}

func TestInvalidNumberLiteral(t *testing.T) {
	l := New("12ab")
	_, err := l.Next()
	require.Error(t, err)
}
