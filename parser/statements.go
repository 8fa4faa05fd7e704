package parser

import (
	"github.com/juniper-lang/juniper/ast"
	"github.com/juniper-lang/juniper/internal/token"
)

func (p *Parser) parseBlock() *ast.Block {
	lbrace := p.curToken.StartPosition
	var stmts []ast.Node
	for !p.peekTokenIs(token.RBRACE) {
		if p.peekTokenIs(token.EOF) {
			p.tokenError(p.peekToken, "unterminated block (expected %q)", "}")
			return nil
		}
		if p.tooManyErrors() {
			return nil
		}
		p.nextToken()
		p.stmtErrorCount = len(p.errors)
		stmt := p.parseStatementStrict()
		if stmt != nil {
			stmts = append(stmts, stmt)
		} else if p.hadNewError() {
			p.synchronize()
			if p.curTokenIs(token.RBRACE) {
				return &ast.Block{Lbrace: lbrace, Stmts: stmts, Rbrace: p.curToken.StartPosition}
			}
		}
	}
	p.nextToken() // move onto the closing brace
	return &ast.Block{Lbrace: lbrace, Stmts: stmts, Rbrace: p.curToken.StartPosition}
}

func (p *Parser) parseVarDecl(kind ast.DeclKind) ast.Stmt {
	declPos := p.curToken.StartPosition
	var decls []ast.Declarator
	for {
		p.nextToken()
		target := p.parseBindingTarget()
		if target == nil {
			return nil
		}
		var init ast.Expr
		if p.peekTokenIs(token.ASSIGN) {
			p.nextToken()
			p.nextToken()
			init = p.parseExpr(SEQUENCE)
			if init == nil {
				return nil
			}
		} else if kind == ast.DeclConst {
			p.tokenError(p.curToken, "missing initializer in const declaration")
			return nil
		} else if _, ok := target.(*ast.Ident); !ok {
			p.tokenError(p.curToken, "missing initializer in destructuring declaration")
			return nil
		}
		decls = append(decls, ast.Declarator{Target: target, Init: init})
		if !p.peekTokenIs(token.COMMA) {
			break
		}
		p.nextToken()
	}
	return &ast.VarDecl{
		DeclPos: declPos,
		Kind:    kind,
		Decls:   decls,
		EndPos:  p.curToken.EndPosition,
	}
}

// parseBindingTarget parses an identifier, array pattern, or object
// pattern in a binding position (declaration, parameter, catch binding).
func (p *Parser) parseBindingTarget() ast.Pattern {
	switch p.curToken.Type {
	case token.IDENT:
		return &ast.Ident{NamePos: p.curToken.StartPosition, Name: p.curToken.Literal}
	case token.LBRACKET:
		return p.parseArrayPattern()
	case token.LBRACE:
		return p.parseObjectPattern()
	default:
		p.tokenError(p.curToken, "invalid binding target (unexpected %s)", tokenDescription(p.curToken))
		return nil
	}
}

// parseBindingElement parses a binding target with an optional `= default`.
func (p *Parser) parseBindingElement() ast.Pattern {
	target := p.parseBindingTarget()
	if target == nil {
		return nil
	}
	if !p.peekTokenIs(token.ASSIGN) {
		return target
	}
	p.nextToken()
	eq := p.curToken.StartPosition
	p.nextToken()
	def := p.parseExpr(SEQUENCE)
	if def == nil {
		return nil
	}
	return &ast.AssignmentPattern{Target: target, Eq: eq, Default: def}
}

func (p *Parser) parseArrayPattern() ast.Pattern {
	lbrack := p.curToken.StartPosition
	var elements []ast.Pattern
	for !p.peekTokenIs(token.RBRACKET) {
		if p.peekTokenIs(token.EOF) {
			p.tokenError(p.peekToken, "unterminated array pattern")
			return nil
		}
		if p.peekTokenIs(token.COMMA) {
			p.nextToken()
			elements = append(elements, nil) // elision
			continue
		}
		p.nextToken()
		if p.curTokenIs(token.SPREAD) {
			ellipsis := p.curToken.StartPosition
			p.nextToken()
			target := p.parseBindingTarget()
			if target == nil {
				return nil
			}
			elements = append(elements, &ast.RestElement{Ellipsis: ellipsis, Target: target})
			if !p.expectPeek("array pattern", token.RBRACKET) {
				return nil
			}
			return &ast.ArrayPattern{Lbrack: lbrack, Elements: elements, Rbrack: p.curToken.StartPosition}
		}
		elem := p.parseBindingElement()
		if elem == nil {
			return nil
		}
		elements = append(elements, elem)
		if p.peekTokenIs(token.COMMA) {
			p.nextToken()
		}
	}
	p.nextToken()
	return &ast.ArrayPattern{Lbrack: lbrack, Elements: elements, Rbrack: p.curToken.StartPosition}
}

func (p *Parser) parseObjectPattern() ast.Pattern {
	lbrace := p.curToken.StartPosition
	var props []ast.ObjectPatternProp
	var rest *ast.RestElement
	for !p.peekTokenIs(token.RBRACE) {
		if p.peekTokenIs(token.EOF) {
			p.tokenError(p.peekToken, "unterminated object pattern")
			return nil
		}
		p.nextToken()
		if p.curTokenIs(token.SPREAD) {
			ellipsis := p.curToken.StartPosition
			p.nextToken()
			target := p.parseBindingTarget()
			if target == nil {
				return nil
			}
			rest = &ast.RestElement{Ellipsis: ellipsis, Target: target}
			break
		}
		prop, ok := p.parseObjectPatternProp()
		if !ok {
			return nil
		}
		props = append(props, prop)
		if p.peekTokenIs(token.COMMA) {
			p.nextToken()
		} else {
			break
		}
	}
	if !p.expectPeek("object pattern", token.RBRACE) {
		return nil
	}
	return &ast.ObjectPattern{Lbrace: lbrace, Props: props, Rest: rest, Rbrace: p.curToken.StartPosition}
}

func (p *Parser) parseObjectPatternProp() (ast.ObjectPatternProp, bool) {
	var prop ast.ObjectPatternProp
	switch {
	case p.curTokenIs(token.LBRACKET):
		prop.Computed = true
		p.nextToken()
		prop.Key = p.parseExpr(SEQUENCE)
		if prop.Key == nil || !p.expectPeek("object pattern", token.RBRACKET) {
			return prop, false
		}
	case p.curTokenIs(token.IDENT) || p.curTokenIs(token.STRING) || p.curTokenIs(token.NUMBER) || isKeywordToken(p.curToken):
		prop.Key = p.propertyKeyExpr()
	default:
		p.tokenError(p.curToken, "invalid property key in object pattern")
		return prop, false
	}
	if p.peekTokenIs(token.COLON) {
		p.nextToken()
		p.nextToken()
		value := p.parseBindingElement()
		if value == nil {
			return prop, false
		}
		prop.Value = value
		return prop, true
	}
	// Shorthand: `{a}` or `{a = 1}`. Only a plain identifier key works.
	ident, ok := prop.Key.(*ast.Ident)
	if !ok || prop.Computed {
		p.tokenError(p.curToken, "invalid shorthand property in object pattern")
		return prop, false
	}
	prop.Shorthand = true
	if p.peekTokenIs(token.ASSIGN) {
		p.nextToken()
		eq := p.curToken.StartPosition
		p.nextToken()
		def := p.parseExpr(SEQUENCE)
		if def == nil {
			return prop, false
		}
		prop.Value = &ast.AssignmentPattern{Target: ident, Eq: eq, Default: def}
	} else {
		prop.Value = ident
	}
	return prop, true
}

// propertyKeyExpr converts the current token into a property-key
// expression, treating keywords and literals as plain names the way
// object syntax allows (`{for: 1, "a b": 2, 3: x}`).
func (p *Parser) propertyKeyExpr() ast.Expr {
	switch p.curToken.Type {
	case token.STRING:
		return &ast.StringLit{
			ValuePos: p.curToken.StartPosition,
			Raw:      p.curToken.Literal,
			Value:    p.curToken.Literal,
		}
	case token.NUMBER:
		return p.parseNumber()
	default:
		return &ast.Ident{NamePos: p.curToken.StartPosition, Name: p.curToken.Literal}
	}
}

// isKeywordToken reports whether tok is a reserved word, which is still a
// legal property key (`{for: 1}`) and member name (`a.delete`).
func isKeywordToken(tok token.Token) bool {
	return tok.Literal != "" && token.LookupIdentifier(tok.Literal) != token.IDENT
}

func (p *Parser) parseIf() ast.Stmt {
	ifPos := p.curToken.StartPosition
	if !p.expectPeek("if statement", token.LPAREN) {
		return nil
	}
	p.nextToken()
	cond := p.parseSequence()
	if cond == nil {
		return nil
	}
	if !p.expectPeek("if statement", token.RPAREN) {
		return nil
	}
	p.nextToken()
	then := p.parseStatement()
	if then == nil {
		return nil
	}
	stmt := &ast.If{IfPos: ifPos, Cond: cond, Then: then}
	if p.peekTokenIs(token.SEMICOLON) && !p.peekToken.PrecededByNewline {
		// `if (c) x; else y` - consume the terminator before checking else
		if p.peekAfterSemicolonIsElse() {
			p.nextToken()
		}
	}
	if p.peekTokenIs(token.ELSE) {
		p.nextToken()
		p.nextToken()
		stmt.Else = p.parseStatement()
		if stmt.Else == nil {
			return nil
		}
	}
	return stmt
}

func (p *Parser) peekAfterSemicolonIsElse() bool {
	s := p.save()
	defer p.restore(s)
	p.nextToken()
	return p.peekTokenIs(token.ELSE)
}

func (p *Parser) parseWhile() ast.Stmt {
	whilePos := p.curToken.StartPosition
	if !p.expectPeek("while statement", token.LPAREN) {
		return nil
	}
	p.nextToken()
	cond := p.parseSequence()
	if cond == nil {
		return nil
	}
	if !p.expectPeek("while statement", token.RPAREN) {
		return nil
	}
	p.nextToken()
	body := p.parseStatement()
	if body == nil {
		return nil
	}
	return &ast.While{WhilePos: whilePos, Cond: cond, Body: body}
}

func (p *Parser) parseDoWhile() ast.Stmt {
	doPos := p.curToken.StartPosition
	p.nextToken()
	body := p.parseStatement()
	if body == nil {
		return nil
	}
	if !p.expectPeek("do-while statement", token.WHILE) {
		return nil
	}
	if !p.expectPeek("do-while statement", token.LPAREN) {
		return nil
	}
	p.nextToken()
	cond := p.parseSequence()
	if cond == nil {
		return nil
	}
	if !p.expectPeek("do-while statement", token.RPAREN) {
		return nil
	}
	return &ast.DoWhile{DoPos: doPos, Body: body, Cond: cond, EndPos: p.curToken.EndPosition}
}

// parseFor handles all three loop forms: for-of (including `for await`),
// for-in, and the C-style three-clause loop. The of/in headers are tried
// first; on failure the token stream rewinds and the C-style reader runs.
func (p *Parser) parseFor() ast.Stmt {
	forPos := p.curToken.StartPosition
	isAwait := false
	if p.peekTokenIs(token.AWAIT) {
		p.nextToken()
		if !p.inAsync {
			p.tokenError(p.curToken, "for await is only valid inside an async function")
			return nil
		}
		isAwait = true
	}
	if !p.expectPeek("for statement", token.LPAREN) {
		return nil
	}

	if stmt := p.tryParseForOfOrIn(forPos, isAwait); stmt != nil {
		return stmt
	}
	if isAwait {
		p.tokenError(p.curToken, "for await is only valid with for-of")
		return nil
	}

	// C-style: for (init; cond; post) body
	var initNode ast.Node
	p.nextToken()
	switch p.curToken.Type {
	case token.SEMICOLON:
		// no init; curToken is the first `;`
	case token.VAR, token.LET, token.CONST:
		kind := ast.DeclVar
		switch p.curToken.Type {
		case token.LET:
			kind = ast.DeclLet
		case token.CONST:
			kind = ast.DeclConst
		}
		decl := p.parseVarDecl(kind)
		if decl == nil {
			return nil
		}
		initNode = decl
		if !p.expectPeek("for statement", token.SEMICOLON) {
			return nil
		}
	default:
		init := p.parseSequence()
		if init == nil {
			return nil
		}
		initNode = &ast.ExprStmt{X: init}
		if !p.expectPeek("for statement", token.SEMICOLON) {
			return nil
		}
	}

	var cond ast.Expr
	if !p.peekTokenIs(token.SEMICOLON) {
		p.nextToken()
		cond = p.parseSequence()
		if cond == nil {
			return nil
		}
	}
	if !p.expectPeek("for statement", token.SEMICOLON) {
		return nil
	}

	var post ast.Expr
	if !p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		post = p.parseSequence()
		if post == nil {
			return nil
		}
	}
	if !p.expectPeek("for statement", token.RPAREN) {
		return nil
	}
	p.nextToken()
	body := p.parseStatement()
	if body == nil {
		return nil
	}
	return &ast.For{ForPos: forPos, Init: initNode, Cond: cond, Post: post, Body: body}
}

// tryParseForOfOrIn attempts the `for (head of/in iterable)` forms with
// the parser positioned on the opening paren. Returns nil (with the
// position rewound) when the header is not one of those forms.
func (p *Parser) tryParseForOfOrIn(forPos token.Position, isAwait bool) ast.Stmt {
	s := p.save()
	p.nextToken()

	isDecl := false
	kind := ast.DeclVar
	var target ast.Pattern
	var lhs ast.Expr

	switch p.curToken.Type {
	case token.VAR, token.LET, token.CONST:
		isDecl = true
		switch p.curToken.Type {
		case token.LET:
			kind = ast.DeclLet
		case token.CONST:
			kind = ast.DeclConst
		}
		p.nextToken()
		target = p.parseBindingTarget()
		if target == nil {
			p.restore(s)
			return nil
		}
	case token.SEMICOLON:
		p.restore(s)
		return nil
	default:
		// An existing lvalue: parse below the `in` operator's level so the
		// header's `in` keyword is left for us to see.
		lhs = p.parseExpr(LESSGREATER)
		if lhs == nil {
			p.restore(s)
			return nil
		}
	}

	var isOf bool
	switch {
	case p.peekTokenIs(token.OF):
		isOf = true
	case p.peekTokenIs(token.IN):
		isOf = false
	default:
		p.restore(s)
		return nil
	}
	p.nextToken() // of / in
	p.nextToken()
	right := p.parseExpr(SEQUENCE)
	if right == nil {
		p.restore(s)
		return nil
	}
	if !p.expectPeek("for statement", token.RPAREN) {
		p.restore(s)
		return nil
	}
	p.nextToken()
	body := p.parseStatement()
	if body == nil {
		return nil
	}
	if isOf {
		return &ast.ForOf{
			ForPos: forPos, IsAwait: isAwait, IsDecl: isDecl, Kind: kind,
			Target: target, LHS: lhs, Right: right, Body: body,
		}
	}
	return &ast.ForIn{
		ForPos: forPos, IsDecl: isDecl, Kind: kind,
		Target: target, LHS: lhs, Right: right, Body: body,
	}
}

func (p *Parser) parseReturn() ast.Stmt {
	returnPos := p.curToken.StartPosition
	stmt := &ast.Return{ReturnPos: returnPos}
	if p.canStartExprOnSameLine() {
		p.nextToken()
		stmt.Value = p.parseSequence()
		if stmt.Value == nil {
			return nil
		}
	}
	return stmt
}

// canStartExprOnSameLine reports whether the next token can begin an
// expression operand for a restricted production (return/throw/break/
// continue labels): it must not be a terminator and must be on the same
// line.
func (p *Parser) canStartExprOnSameLine() bool {
	if p.peekToken.PrecededByNewline {
		return false
	}
	switch p.peekToken.Type {
	case token.SEMICOLON, token.RBRACE, token.RPAREN, token.RBRACKET,
		token.COMMA, token.COLON, token.EOF:
		return false
	}
	return true
}

func (p *Parser) parseBreak() ast.Stmt {
	stmt := &ast.Break{BreakPos: p.curToken.StartPosition}
	if p.peekTokenIs(token.IDENT) && !p.peekToken.PrecededByNewline {
		p.nextToken()
		stmt.Label = &ast.Ident{NamePos: p.curToken.StartPosition, Name: p.curToken.Literal}
	}
	return stmt
}

func (p *Parser) parseContinue() ast.Stmt {
	stmt := &ast.Continue{ContinuePos: p.curToken.StartPosition}
	if p.peekTokenIs(token.IDENT) && !p.peekToken.PrecededByNewline {
		p.nextToken()
		stmt.Label = &ast.Ident{NamePos: p.curToken.StartPosition, Name: p.curToken.Literal}
	}
	return stmt
}

func (p *Parser) parseLabeled() ast.Stmt {
	label := &ast.Ident{NamePos: p.curToken.StartPosition, Name: p.curToken.Literal}
	p.nextToken() // colon
	colon := p.curToken.StartPosition
	p.nextToken()
	stmt := p.parseStatement()
	if stmt == nil {
		return nil
	}
	return &ast.Labeled{Label: label, Colon: colon, Stmt: stmt}
}

func (p *Parser) parseSwitch() ast.Stmt {
	switchPos := p.curToken.StartPosition
	if !p.expectPeek("switch statement", token.LPAREN) {
		return nil
	}
	p.nextToken()
	disc := p.parseSequence()
	if disc == nil {
		return nil
	}
	if !p.expectPeek("switch statement", token.RPAREN) {
		return nil
	}
	if !p.expectPeek("switch statement", token.LBRACE) {
		return nil
	}

	var cases []*ast.SwitchCase
	seenDefault := false
	for !p.peekTokenIs(token.RBRACE) {
		if p.peekTokenIs(token.EOF) {
			p.tokenError(p.peekToken, "unterminated switch statement")
			return nil
		}
		p.nextToken()
		c := &ast.SwitchCase{CasePos: p.curToken.StartPosition}
		switch p.curToken.Type {
		case token.CASE:
			p.nextToken()
			c.Test = p.parseExpr(SEQUENCE)
			if c.Test == nil {
				return nil
			}
		case token.DEFAULT:
			if seenDefault {
				p.tokenError(p.curToken, "more than one default clause in switch statement")
				return nil
			}
			seenDefault = true
		default:
			p.tokenError(p.curToken, "expected case or default in switch statement")
			return nil
		}
		if !p.expectPeek("switch statement", token.COLON) {
			return nil
		}
		for !p.peekTokenIs(token.CASE) && !p.peekTokenIs(token.DEFAULT) &&
			!p.peekTokenIs(token.RBRACE) && !p.peekTokenIs(token.EOF) {
			p.nextToken()
			p.stmtErrorCount = len(p.errors)
			stmt := p.parseStatementStrict()
			if stmt != nil {
				c.Body = append(c.Body, stmt)
			} else if p.hadNewError() {
				return nil
			}
		}
		cases = append(cases, c)
	}
	p.nextToken() // closing brace
	return &ast.Switch{SwitchPos: switchPos, Disc: disc, Cases: cases, EndPos: p.curToken.EndPosition}
}

func (p *Parser) parseTry() ast.Stmt {
	tryPos := p.curToken.StartPosition
	if !p.expectPeek("try statement", token.LBRACE) {
		return nil
	}
	body := p.parseBlock()
	if body == nil {
		return nil
	}
	stmt := &ast.Try{TryPos: tryPos, Body: body}

	if p.peekTokenIs(token.CATCH) {
		p.nextToken()
		stmt.CatchPos = p.curToken.StartPosition
		if p.peekTokenIs(token.LPAREN) {
			p.nextToken()
			p.nextToken()
			stmt.CatchTarget = p.parseBindingTarget()
			if stmt.CatchTarget == nil {
				return nil
			}
			if !p.expectPeek("catch clause", token.RPAREN) {
				return nil
			}
		}
		if !p.expectPeek("catch clause", token.LBRACE) {
			return nil
		}
		stmt.CatchBlock = p.parseBlock()
		if stmt.CatchBlock == nil {
			return nil
		}
	}
	if p.peekTokenIs(token.FINALLY) {
		p.nextToken()
		stmt.FinallyPos = p.curToken.StartPosition
		if !p.expectPeek("finally clause", token.LBRACE) {
			return nil
		}
		stmt.FinallyBlock = p.parseBlock()
		if stmt.FinallyBlock == nil {
			return nil
		}
	}
	if stmt.CatchBlock == nil && stmt.FinallyBlock == nil {
		p.tokenError(p.curToken, "missing catch or finally after try")
		return nil
	}
	return stmt
}

func (p *Parser) parseThrow() ast.Stmt {
	throwPos := p.curToken.StartPosition
	if p.peekToken.PrecededByNewline {
		p.tokenError(p.curToken, "illegal newline after throw")
		return nil
	}
	p.nextToken()
	value := p.parseSequence()
	if value == nil {
		return nil
	}
	return &ast.Throw{ThrowPos: throwPos, Value: value}
}

func (p *Parser) parseFunctionDecl(isAsync bool) ast.Stmt {
	fn := p.parseFunction(isAsync)
	if fn == nil {
		return nil
	}
	if fn.Name == nil {
		p.tokenError(p.curToken, "function declarations require a name")
		return nil
	}
	return fn
}

func (p *Parser) parseClassDecl() ast.Stmt {
	class := p.parseClass()
	if class == nil {
		return nil
	}
	if class.Name == nil {
		p.tokenError(p.curToken, "class declarations require a name")
		return nil
	}
	return class
}

func (p *Parser) parseImport() ast.Stmt {
	importPos := p.curToken.StartPosition
	decl := &ast.ImportDecl{ImportPos: importPos}

	// `import "module"` - bare side-effect import
	if p.peekTokenIs(token.STRING) {
		p.nextToken()
		decl.Source = &ast.StringLit{
			ValuePos: p.curToken.StartPosition,
			Raw:      p.curToken.Literal,
			Value:    p.curToken.Literal,
		}
		decl.EndPos = p.curToken.EndPosition
		return decl
	}

	p.nextToken()
	switch p.curToken.Type {
	case token.IDENT:
		decl.Default = &ast.Ident{NamePos: p.curToken.StartPosition, Name: p.curToken.Literal}
		if p.peekTokenIs(token.COMMA) {
			p.nextToken()
			p.nextToken()
			if !p.parseImportClause(decl) {
				return nil
			}
		}
	default:
		if !p.parseImportClause(decl) {
			return nil
		}
	}

	if !p.expectPeek("import declaration", token.FROM) {
		return nil
	}
	if !p.expectPeek("import declaration", token.STRING) {
		return nil
	}
	decl.Source = &ast.StringLit{
		ValuePos: p.curToken.StartPosition,
		Raw:      p.curToken.Literal,
		Value:    p.curToken.Literal,
	}
	decl.EndPos = p.curToken.EndPosition
	return decl
}

// parseImportClause handles `* as ns` and `{ a, b as c }` with the
// parser positioned on `*` or `{`.
func (p *Parser) parseImportClause(decl *ast.ImportDecl) bool {
	switch p.curToken.Type {
	case token.ASTERISK:
		if !p.expectPeek("import declaration", token.IDENT) {
			return false
		}
		if p.curToken.Literal != "as" {
			p.tokenError(p.curToken, "expected `as` in namespace import")
			return false
		}
		if !p.expectPeek("import declaration", token.IDENT) {
			return false
		}
		decl.Namespace = &ast.Ident{NamePos: p.curToken.StartPosition, Name: p.curToken.Literal}
		return true
	case token.LBRACE:
		for !p.peekTokenIs(token.RBRACE) {
			if !p.expectPeek("import declaration", token.IDENT) {
				return false
			}
			spec := ast.ImportSpecifier{
				Imported: &ast.Ident{NamePos: p.curToken.StartPosition, Name: p.curToken.Literal},
			}
			spec.Local = spec.Imported
			if p.peekTokenIs(token.IDENT) && p.peekToken.Literal == "as" {
				p.nextToken()
				if !p.expectPeek("import declaration", token.IDENT) {
					return false
				}
				spec.Local = &ast.Ident{NamePos: p.curToken.StartPosition, Name: p.curToken.Literal}
			}
			decl.Named = append(decl.Named, spec)
			if p.peekTokenIs(token.COMMA) {
				p.nextToken()
			}
		}
		p.nextToken() // closing brace
		return true
	default:
		p.tokenError(p.curToken, "invalid import declaration")
		return false
	}
}

func (p *Parser) parseExport() ast.Stmt {
	exportPos := p.curToken.StartPosition
	decl := &ast.ExportDecl{ExportPos: exportPos}

	switch p.peekToken.Type {
	case token.DEFAULT:
		p.nextToken()
		decl.IsDefault = true
		p.nextToken()
		switch p.curToken.Type {
		case token.FUNCTION:
			fn := p.parseFunction(false)
			if fn == nil {
				return nil
			}
			decl.Decl = fn
		case token.CLASS:
			class := p.parseClass()
			if class == nil {
				return nil
			}
			decl.Decl = class
		default:
			decl.DefaultExp = p.parseExpr(SEQUENCE)
			if decl.DefaultExp == nil {
				return nil
			}
		}
		decl.EndPos = p.curToken.EndPosition
		return decl
	case token.VAR, token.LET, token.CONST, token.FUNCTION, token.CLASS, token.ASYNC:
		p.nextToken()
		inner := p.parseStatement()
		if inner == nil {
			return nil
		}
		decl.Decl = inner
		decl.EndPos = p.curToken.EndPosition
		return decl
	case token.LBRACE:
		p.nextToken()
		for !p.peekTokenIs(token.RBRACE) {
			if !p.expectPeek("export declaration", token.IDENT) {
				return nil
			}
			spec := ast.ExportSpecifier{
				Local: &ast.Ident{NamePos: p.curToken.StartPosition, Name: p.curToken.Literal},
			}
			spec.Exported = spec.Local
			if p.peekTokenIs(token.IDENT) && p.peekToken.Literal == "as" {
				p.nextToken()
				if !p.expectPeek("export declaration", token.IDENT) {
					return nil
				}
				spec.Exported = &ast.Ident{NamePos: p.curToken.StartPosition, Name: p.curToken.Literal}
			}
			decl.Named = append(decl.Named, spec)
			if p.peekTokenIs(token.COMMA) {
				p.nextToken()
			}
		}
		p.nextToken() // closing brace
		if p.peekTokenIs(token.FROM) {
			p.nextToken()
			if !p.expectPeek("export declaration", token.STRING) {
				return nil
			}
			decl.Source = &ast.StringLit{
				ValuePos: p.curToken.StartPosition,
				Raw:      p.curToken.Literal,
				Value:    p.curToken.Literal,
			}
		}
		decl.EndPos = p.curToken.EndPosition
		return decl
	default:
		p.tokenError(p.peekToken, "invalid export declaration")
		return nil
	}
}
