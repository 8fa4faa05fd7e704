// Package parser generates the abstract syntax tree (AST) for a program.
//
// A parser is created by calling New() with a lexer as input. The parser
// should then be used only once, by calling parser.Parse() to produce the
// AST.
package parser

import (
	"context"
	"fmt"

	"github.com/juniper-lang/juniper/ast"
	"github.com/juniper-lang/juniper/errz"
	"github.com/juniper-lang/juniper/internal/lexer"
	"github.com/juniper-lang/juniper/internal/token"
)

type (
	prefixParseFn func() ast.Expr
	infixParseFn  func(ast.Expr) ast.Expr
)

// Parse the provided input as source code and return the AST. This is a
// shorthand way to create a Lexer and Parser and then call Parse on that.
func Parse(ctx context.Context, input string, options ...Option) (*ast.Program, error) {
	var probe Parser
	for _, opt := range options {
		opt(&probe)
	}
	l := lexer.New(input)
	if probe.filename != "" {
		l.SetFilename(probe.filename)
	}
	p := New(l, options...)
	return p.Parse(ctx)
}

// Option is a configuration function for a Parser.
type Option func(*Parser)

// WithFilename sets the file name reported in error locations.
func WithFilename(filename string) Option {
	return func(p *Parser) {
		p.filename = filename
	}
}

// WithMaxDepth sets the maximum nesting depth for the parser. This
// prevents stack overflow on deeply nested input. The default is 500.
func WithMaxDepth(depth int) Option {
	return func(p *Parser) {
		p.maxDepth = depth
	}
}

// DefaultMaxDepth is the default maximum nesting depth for parsing.
const DefaultMaxDepth = 500

// MaxErrors is the maximum number of errors to collect before stopping.
const MaxErrors = 10

// Parser builds an AST from the token stream of a Lexer. The parser
// reads speculatively in a few places (arrow-function parameter lists,
// for-of/for-in headers): each attempt either succeeds and keeps its
// position, or rewinds the token stream to exactly where it began.
type Parser struct {
	ctx context.Context

	l *lexer.Lexer

	// prevToken holds the previous token, which we already processed.
	prevToken token.Token

	// curToken holds the current token from the lexer.
	curToken token.Token

	// peekToken holds the next token from the lexer.
	peekToken token.Token

	// parsing errors collected during parsing
	errors []*errz.Error

	// stmtErrorCount tracks the error count at the start of the current
	// statement, so inner methods can detect whether one was added.
	stmtErrorCount int

	prefixParseFns map[token.Type]prefixParseFn
	infixParseFns  map[token.Type]infixParseFn

	filename string

	depth    int
	maxDepth int

	// generator/async nesting state, for yield/await validity
	inGenerator bool
	inAsync     bool
}

// New returns a Parser for the program provided by the given Lexer.
func New(l *lexer.Lexer, options ...Option) *Parser {
	p := &Parser{
		l:              l,
		prefixParseFns: map[token.Type]prefixParseFn{},
		infixParseFns:  map[token.Type]infixParseFn{},
		maxDepth:       DefaultMaxDepth,
	}
	for _, opt := range options {
		opt(p)
	}
	if p.filename != "" {
		l.SetFilename(p.filename)
	} else {
		p.filename = l.Filename()
	}

	// Prime the token pump
	p.nextToken() // curToken=<empty>, peekToken=token[0]
	p.nextToken() // curToken=token[0], peekToken=token[1]

	// Prefix parse functions
	p.registerPrefix(token.IDENT, p.parseIdent)
	p.registerPrefix(token.NUMBER, p.parseNumber)
	p.registerPrefix(token.BIGINT, p.parseBigInt)
	p.registerPrefix(token.STRING, p.parseString)
	p.registerPrefix(token.REGEXP, p.parseRegex)
	p.registerPrefix(token.TEMPLATE, p.parseTemplate)
	p.registerPrefix(token.TEMPLATE_HEAD, p.parseTemplate)
	p.registerPrefix(token.TRUE, p.parseBoolean)
	p.registerPrefix(token.FALSE, p.parseBoolean)
	p.registerPrefix(token.NULL, p.parseNull)
	p.registerPrefix(token.UNDEFINED, p.parseUndefined)
	p.registerPrefix(token.THIS, p.parseThis)
	p.registerPrefix(token.SUPER, p.parseSuper)
	p.registerPrefix(token.LPAREN, p.parseGroupedOrArrow)
	p.registerPrefix(token.LBRACKET, p.parseArrayLit)
	p.registerPrefix(token.LBRACE, p.parseObjectLit)
	p.registerPrefix(token.FUNCTION, p.parseFunctionExpr)
	p.registerPrefix(token.ASYNC, p.parseAsyncExpr)
	p.registerPrefix(token.CLASS, p.parseClassExpr)
	p.registerPrefix(token.NEW, p.parseNew)
	p.registerPrefix(token.BANG, p.parsePrefixExpr)
	p.registerPrefix(token.MINUS, p.parsePrefixExpr)
	p.registerPrefix(token.PLUS, p.parsePrefixExpr)
	p.registerPrefix(token.TILDE, p.parsePrefixExpr)
	p.registerPrefix(token.TYPEOF, p.parsePrefixExpr)
	p.registerPrefix(token.VOID, p.parsePrefixExpr)
	p.registerPrefix(token.DELETE, p.parsePrefixExpr)
	p.registerPrefix(token.PLUS_PLUS, p.parsePrefixUpdate)
	p.registerPrefix(token.MINUS_MINUS, p.parsePrefixUpdate)
	p.registerPrefix(token.YIELD, p.parseYield)
	p.registerPrefix(token.AWAIT, p.parseAwait)
	p.registerPrefix(token.SPREAD, p.parseSpread)
	p.registerPrefix(token.EOF, p.illegalToken)
	p.registerPrefix(token.ILLEGAL, p.illegalToken)

	// Infix parse functions
	for _, t := range []token.Type{
		token.PLUS, token.MINUS, token.ASTERISK, token.SLASH, token.MOD,
		token.POW, token.LT_LT, token.GT_GT, token.GT_GT_GT,
		token.AMPERSAND, token.PIPE, token.CARET,
		token.LT, token.LT_EQUALS, token.GT, token.GT_EQUALS,
		token.EQ, token.NOT_EQ, token.STRICT_EQ, token.STRICT_NOT_EQ,
		token.IN, token.INSTANCEOF,
	} {
		p.registerInfix(t, p.parseInfixExpr)
	}
	p.registerInfix(token.AND, p.parseLogicalExpr)
	p.registerInfix(token.OR, p.parseLogicalExpr)
	p.registerInfix(token.NULLISH, p.parseLogicalExpr)
	p.registerInfix(token.QUESTION, p.parseConditional)
	for _, t := range []token.Type{
		token.ASSIGN, token.PLUS_EQUALS, token.MINUS_EQUALS,
		token.ASTERISK_EQUALS, token.SLASH_EQUALS, token.MOD_EQUALS,
		token.POW_EQUALS, token.AMPERSAND_EQUALS, token.PIPE_EQUALS,
		token.CARET_EQUALS, token.LT_LT_EQUALS, token.GT_GT_EQUALS,
		token.GT_GT_GT_EQUALS, token.AND_AND_EQUALS, token.OR_OR_EQUALS,
		token.NULLISH_EQUALS,
	} {
		p.registerInfix(t, p.parseAssign)
	}
	p.registerInfix(token.LPAREN, p.parseCall)
	p.registerInfix(token.LBRACKET, p.parseIndex)
	p.registerInfix(token.PERIOD, p.parseGetAttr)
	p.registerInfix(token.QUESTION_DOT, p.parseOptionalChain)
	p.registerInfix(token.PLUS_PLUS, p.parsePostfixUpdate)
	p.registerInfix(token.MINUS_MINUS, p.parsePostfixUpdate)
	p.registerInfix(token.TEMPLATE, p.parseTaggedTemplate)
	p.registerInfix(token.TEMPLATE_HEAD, p.parseTaggedTemplate)

	return p
}

// snapshot captures the full parser position so a speculative parse can
// rewind as if it never happened.
type snapshot struct {
	prev, cur, peek token.Token
	lex             lexer.State
	errCount        int
}

func (p *Parser) save() snapshot {
	return snapshot{
		prev:     p.prevToken,
		cur:      p.curToken,
		peek:     p.peekToken,
		lex:      p.l.SaveState(),
		errCount: len(p.errors),
	}
}

func (p *Parser) restore(s snapshot) {
	p.prevToken = s.prev
	p.curToken = s.cur
	p.peekToken = s.peek
	p.l.RestoreState(s.lex)
	p.errors = p.errors[:s.errCount]
}

func (p *Parser) registerPrefix(tokenType token.Type, fn prefixParseFn) {
	p.prefixParseFns[tokenType] = fn
}

func (p *Parser) registerInfix(tokenType token.Type, fn infixParseFn) {
	p.infixParseFns[tokenType] = fn
}

// nextToken advances the token window, recording a syntax error if the
// lexer fails.
func (p *Parser) nextToken() {
	var err error
	p.prevToken = p.curToken
	p.curToken = p.peekToken
	p.peekToken, err = p.l.Next()
	if err != nil {
		p.addError(NewSyntaxError(ErrorOpts{
			Cause:         err,
			File:          p.l.Filename(),
			StartPosition: p.curToken.StartPosition,
			EndPosition:   p.curToken.EndPosition,
			SourceCode:    p.l.GetLineText(p.curToken),
		}))
		p.peekToken = token.Token{Type: token.EOF, StartPosition: p.curToken.EndPosition}
	}
}

// Parse the program that is provided via the lexer. Returns the AST and
// any errors encountered. If there are errors, the AST may be partial
// (containing only successfully parsed statements).
func (p *Parser) Parse(ctx context.Context) (*ast.Program, error) {
	p.ctx = ctx
	if p.hasErrors() {
		return nil, NewErrors(p.errors)
	}
	var statements []ast.Stmt
	for p.curToken.Type != token.EOF {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		if p.tooManyErrors() {
			break
		}
		p.stmtErrorCount = len(p.errors)
		stmt := p.parseStatementStrict()
		if stmt != nil {
			statements = append(statements, stmt)
		} else if p.hadNewError() {
			p.synchronize()
		}
		p.nextToken()
	}
	program := &ast.Program{Stmts: statements, Filename: p.filename}
	if p.hasErrors() {
		return program, NewErrors(p.errors)
	}
	return program, nil
}

func (p *Parser) addError(err *errz.Error) {
	p.errors = append(p.errors, err)
}

func (p *Parser) hasErrors() bool {
	return len(p.errors) > 0
}

func (p *Parser) tooManyErrors() bool {
	return len(p.errors) >= MaxErrors
}

func (p *Parser) hadNewError() bool {
	return len(p.errors) > p.stmtErrorCount
}

// synchronize skips tokens until a statement boundary is reached, so
// parsing can continue collecting errors after a failure.
func (p *Parser) synchronize() {
	for p.curToken.Type != token.EOF {
		switch p.curToken.Type {
		case token.SEMICOLON, token.RBRACE:
			return
		case token.VAR, token.LET, token.CONST, token.FUNCTION, token.CLASS,
			token.RETURN, token.IF, token.FOR, token.WHILE, token.SWITCH,
			token.TRY, token.THROW:
			return
		}
		prevPos := p.curToken.StartPosition
		p.nextToken()
		if p.curToken.StartPosition == prevPos {
			return
		}
	}
}

func (p *Parser) curTokenIs(t token.Type) bool {
	return p.curToken.Type == t
}

func (p *Parser) peekTokenIs(t token.Type) bool {
	return p.peekToken.Type == t
}

// expectPeek advances if the next token has the expected type, recording
// an error otherwise.
func (p *Parser) expectPeek(context string, t token.Type) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.peekError(context, t, p.peekToken)
	return false
}

func (p *Parser) peekError(context string, expected token.Type, got token.Token) {
	p.tokenError(got, "unexpected %s while parsing %s (expected %q)",
		tokenDescription(got), context, string(expected))
}

func (p *Parser) tokenError(tok token.Token, format string, args ...any) {
	p.addError(NewSyntaxError(ErrorOpts{
		Message:       fmt.Sprintf(format, args...),
		File:          p.l.Filename(),
		StartPosition: tok.StartPosition,
		EndPosition:   tok.EndPosition,
		SourceCode:    p.l.GetLineText(tok),
	}))
}

func (p *Parser) noPrefixParseFnError(t token.Token) {
	p.tokenError(t, "invalid syntax (unexpected %s)", tokenDescription(t))
}

func (p *Parser) illegalToken() ast.Expr {
	p.noPrefixParseFnError(p.curToken)
	return nil
}

// enterDepth guards against stack overflow on deeply nested input.
func (p *Parser) enterDepth(tok token.Token) bool {
	p.depth++
	if p.depth > p.maxDepth {
		p.tokenError(tok, "exceeded maximum expression depth")
		return false
	}
	return true
}

func (p *Parser) exitDepth() {
	p.depth--
}

// parseExpr parses an expression, attaching infix operators whose
// precedence is higher than the given floor.
func (p *Parser) parseExpr(precedence int) ast.Expr {
	if !p.enterDepth(p.curToken) {
		return nil
	}
	defer p.exitDepth()

	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.noPrefixParseFnError(p.curToken)
		return nil
	}
	left := prefix()
	if left == nil {
		return nil
	}
	for precedence < p.peekPrecedence() {
		// Postfix ++/-- never attaches across a line break; the newline
		// terminates the expression and the operator starts a new one.
		if (p.peekTokenIs(token.PLUS_PLUS) || p.peekTokenIs(token.MINUS_MINUS)) &&
			p.peekToken.PrecededByNewline {
			break
		}
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return left
		}
		p.nextToken()
		left = infix(left)
		if left == nil {
			return nil
		}
	}
	return left
}

// parseSequence parses an expression, folding `a, b, c` comma sequences
// into an ast.Sequence. Used where the sequence operator is legal:
// expression statements, grouping parentheses, and for-loop headers.
func (p *Parser) parseSequence() ast.Expr {
	expr := p.parseExpr(SEQUENCE)
	if expr == nil {
		return nil
	}
	if !p.peekTokenIs(token.COMMA) {
		return expr
	}
	exprs := []ast.Expr{expr}
	for p.peekTokenIs(token.COMMA) {
		p.nextToken() // comma
		p.nextToken()
		next := p.parseExpr(SEQUENCE)
		if next == nil {
			return nil
		}
		exprs = append(exprs, next)
	}
	return &ast.Sequence{Exprs: exprs}
}

// parseStatementStrict parses one statement and then enforces automatic
// semicolon insertion: the statement must be followed by `;`, `}`, end of
// input, or a line break.
func (p *Parser) parseStatementStrict() ast.Stmt {
	stmt := p.parseStatement()
	if stmt == nil {
		return nil
	}
	switch stmt.(type) {
	case *ast.FunctionLit, *ast.ClassLit, *ast.Block, *ast.If, *ast.While,
		*ast.For, *ast.ForIn, *ast.ForOf, *ast.Switch, *ast.Try,
		*ast.Labeled, *ast.Empty:
		// Declarations and block-shaped statements never require a
		// terminator.
		if p.peekTokenIs(token.SEMICOLON) {
			p.nextToken()
		}
		return stmt
	}
	if p.peekTokenIs(token.SEMICOLON) {
		p.nextToken()
		return stmt
	}
	if p.peekTokenIs(token.RBRACE) || p.peekTokenIs(token.EOF) || p.peekToken.PrecededByNewline {
		return stmt
	}
	p.tokenError(p.peekToken, "unexpected %s following statement", tokenDescription(p.peekToken))
	return nil
}

func (p *Parser) parseStatement() ast.Stmt {
	switch p.curToken.Type {
	case token.VAR:
		return p.parseVarDecl(ast.DeclVar)
	case token.LET:
		return p.parseVarDecl(ast.DeclLet)
	case token.CONST:
		return p.parseVarDecl(ast.DeclConst)
	case token.FUNCTION:
		return p.parseFunctionDecl(false)
	case token.ASYNC:
		if p.peekTokenIs(token.FUNCTION) && !p.peekToken.PrecededByNewline {
			p.nextToken()
			return p.parseFunctionDecl(true)
		}
		return p.parseExprStatement()
	case token.CLASS:
		return p.parseClassDecl()
	case token.IF:
		return p.parseIf()
	case token.WHILE:
		return p.parseWhile()
	case token.DO:
		return p.parseDoWhile()
	case token.FOR:
		return p.parseFor()
	case token.RETURN:
		return p.parseReturn()
	case token.BREAK:
		return p.parseBreak()
	case token.CONTINUE:
		return p.parseContinue()
	case token.SWITCH:
		return p.parseSwitch()
	case token.TRY:
		return p.parseTry()
	case token.THROW:
		return p.parseThrow()
	case token.DEBUGGER:
		return &ast.Debugger{DebuggerPos: p.curToken.StartPosition}
	case token.IMPORT:
		return p.parseImport()
	case token.EXPORT:
		return p.parseExport()
	case token.LBRACE:
		return p.parseBlock()
	case token.SEMICOLON:
		return &ast.Empty{Semi: p.curToken.StartPosition}
	case token.IDENT:
		if p.peekTokenIs(token.COLON) {
			return p.parseLabeled()
		}
		return p.parseExprStatement()
	default:
		return p.parseExprStatement()
	}
}

func (p *Parser) parseExprStatement() ast.Stmt {
	expr := p.parseSequence()
	if expr == nil {
		return nil
	}
	return &ast.ExprStmt{X: expr}
}
