package parser

import (
	"github.com/juniper-lang/juniper/ast"
	"github.com/juniper-lang/juniper/internal/token"
)

func (p *Parser) parsePrefixExpr() ast.Expr {
	opPos := p.curToken.StartPosition
	op := p.curToken.Literal
	p.nextToken()
	x := p.parseExpr(PREFIX)
	if x == nil {
		return nil
	}
	return &ast.Prefix{OpPos: opPos, Op: op, X: x}
}

func (p *Parser) parsePrefixUpdate() ast.Expr {
	opPos := p.curToken.StartPosition
	op := p.curToken.Literal
	p.nextToken()
	x := p.parseExpr(PREFIX)
	if x == nil {
		return nil
	}
	if !isAssignable(x) {
		p.tokenError(p.curToken, "invalid %s operand", op)
		return nil
	}
	return &ast.Update{OpPos: opPos, Op: op, X: x, Prefix: true}
}

func (p *Parser) parsePostfixUpdate(left ast.Expr) ast.Expr {
	if !isAssignable(left) {
		p.tokenError(p.curToken, "invalid %s operand", p.curToken.Literal)
		return nil
	}
	return &ast.Update{
		OpPos:  p.curToken.StartPosition,
		Op:     p.curToken.Literal,
		X:      left,
		Prefix: false,
	}
}

func (p *Parser) parseInfixExpr(left ast.Expr) ast.Expr {
	opPos := p.curToken.StartPosition
	op := p.curToken.Literal
	precedence := p.curPrecedence()
	if p.curTokenIs(token.POW) {
		// ** is right-associative
		precedence--
	}
	p.nextToken()
	right := p.parseExpr(precedence)
	if right == nil {
		return nil
	}
	return &ast.Infix{X: left, OpPos: opPos, Op: op, Y: right}
}

func (p *Parser) parseLogicalExpr(left ast.Expr) ast.Expr {
	opPos := p.curToken.StartPosition
	op := p.curToken.Literal
	precedence := p.curPrecedence()
	p.nextToken()
	right := p.parseExpr(precedence)
	if right == nil {
		return nil
	}
	return &ast.Logical{X: left, OpPos: opPos, Op: op, Y: right}
}

func (p *Parser) parseConditional(cond ast.Expr) ast.Expr {
	p.nextToken()
	then := p.parseExpr(SEQUENCE)
	if then == nil {
		return nil
	}
	if !p.expectPeek("conditional expression", token.COLON) {
		return nil
	}
	p.nextToken()
	alt := p.parseExpr(SEQUENCE)
	if alt == nil {
		return nil
	}
	return &ast.Conditional{Cond: cond, Then: then, Else: alt, EndPos: p.curToken.EndPosition}
}

// isAssignable reports whether an expression can be an assignment or
// update target: an identifier, member access, or (for destructuring
// assignment) an array/object literal reinterpreted as a pattern.
func isAssignable(expr ast.Expr) bool {
	switch expr.(type) {
	case *ast.Ident, *ast.GetAttr, *ast.ArrayLit, *ast.ObjectLit:
		return true
	}
	return false
}

func (p *Parser) parseAssign(left ast.Expr) ast.Expr {
	if !isAssignable(left) {
		p.tokenError(p.curToken, "invalid assignment target")
		return nil
	}
	opPos := p.curToken.StartPosition
	op := p.curToken.Literal
	p.nextToken()
	// Right-associative: a = b = c parses as a = (b = c)
	value := p.parseExpr(ASSIGN - 1)
	if value == nil {
		return nil
	}
	return &ast.Assign{Target: left, OpPos: opPos, Op: op, Value: value}
}

func (p *Parser) parseCall(fun ast.Expr) ast.Expr {
	lparen := p.curToken.StartPosition
	args, ok := p.parseCallArgs()
	if !ok {
		return nil
	}
	return &ast.Call{Fun: fun, Lparen: lparen, Args: args, Rparen: p.curToken.StartPosition}
}

// parseCallArgs parses a parenthesized argument list with the parser on
// the opening paren, leaving it on the closing paren.
func (p *Parser) parseCallArgs() ([]ast.Expr, bool) {
	var args []ast.Expr
	for !p.peekTokenIs(token.RPAREN) {
		if p.peekTokenIs(token.EOF) {
			p.tokenError(p.peekToken, "unterminated argument list")
			return nil, false
		}
		p.nextToken()
		arg := p.parseExpr(SEQUENCE)
		if arg == nil {
			return nil, false
		}
		args = append(args, arg)
		if p.peekTokenIs(token.COMMA) {
			p.nextToken()
		} else {
			break
		}
	}
	if !p.expectPeek("argument list", token.RPAREN) {
		return nil, false
	}
	return args, true
}

func (p *Parser) parseIndex(left ast.Expr) ast.Expr {
	period := p.curToken.StartPosition
	p.nextToken()
	prop := p.parseSequence()
	if prop == nil {
		return nil
	}
	if !p.expectPeek("index expression", token.RBRACKET) {
		return nil
	}
	return &ast.GetAttr{
		X: left, Period: period, Prop: prop, Computed: true,
		EndPos: p.curToken.EndPosition,
	}
}

func (p *Parser) parseGetAttr(left ast.Expr) ast.Expr {
	period := p.curToken.StartPosition
	p.nextToken()
	if !p.curTokenIs(token.IDENT) && !isKeywordToken(p.curToken) {
		p.tokenError(p.curToken, "invalid property name (unexpected %s)", tokenDescription(p.curToken))
		return nil
	}
	attr := &ast.Ident{NamePos: p.curToken.StartPosition, Name: p.curToken.Literal}
	return &ast.GetAttr{
		X: left, Period: period, Attr: attr,
		EndPos: p.curToken.EndPosition,
	}
}

// parseOptionalChain handles the three `?.` forms: `a?.b`, `a?.(args)`,
// and `a?.[expr]`.
func (p *Parser) parseOptionalChain(left ast.Expr) ast.Expr {
	period := p.curToken.StartPosition
	switch p.peekToken.Type {
	case token.LPAREN:
		p.nextToken()
		lparen := p.curToken.StartPosition
		args, ok := p.parseCallArgs()
		if !ok {
			return nil
		}
		return &ast.Call{
			Fun: left, Lparen: lparen, Args: args,
			Rparen: p.curToken.StartPosition, Optional: true,
		}
	case token.LBRACKET:
		p.nextToken()
		p.nextToken()
		prop := p.parseSequence()
		if prop == nil {
			return nil
		}
		if !p.expectPeek("optional index expression", token.RBRACKET) {
			return nil
		}
		return &ast.GetAttr{
			X: left, Period: period, Prop: prop, Computed: true, Optional: true,
			EndPos: p.curToken.EndPosition,
		}
	default:
		p.nextToken()
		if !p.curTokenIs(token.IDENT) && !isKeywordToken(p.curToken) {
			p.tokenError(p.curToken, "invalid property name (unexpected %s)", tokenDescription(p.curToken))
			return nil
		}
		attr := &ast.Ident{NamePos: p.curToken.StartPosition, Name: p.curToken.Literal}
		return &ast.GetAttr{
			X: left, Period: period, Attr: attr, Optional: true,
			EndPos: p.curToken.EndPosition,
		}
	}
}

// parseNew parses `new Ctor(args)`. The callee may include member
// accesses but not calls: `new a.b.C(x)` constructs a.b.C, while
// `new f()(y)` parses the construction first.
func (p *Parser) parseNew() ast.Expr {
	newPos := p.curToken.StartPosition
	p.nextToken()

	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.noPrefixParseFnError(p.curToken)
		return nil
	}
	callee := prefix()
	if callee == nil {
		return nil
	}
	for p.peekTokenIs(token.PERIOD) || p.peekTokenIs(token.LBRACKET) {
		p.nextToken()
		if p.curTokenIs(token.PERIOD) {
			callee = p.parseGetAttr(callee)
		} else {
			callee = p.parseIndex(callee)
		}
		if callee == nil {
			return nil
		}
	}

	var args []ast.Expr
	endPos := p.curToken.EndPosition
	if p.peekTokenIs(token.LPAREN) {
		p.nextToken()
		var ok bool
		args, ok = p.parseCallArgs()
		if !ok {
			return nil
		}
		endPos = p.curToken.EndPosition
	}
	return &ast.New{NewPos: newPos, Callee: callee, Args: args, EndPos: endPos}
}

func (p *Parser) parseSpread() ast.Expr {
	ellipsis := p.curToken.StartPosition
	p.nextToken()
	x := p.parseExpr(SEQUENCE)
	if x == nil {
		return nil
	}
	return &ast.Spread{Ellipsis: ellipsis, X: x}
}

func (p *Parser) parseYield() ast.Expr {
	yieldPos := p.curToken.StartPosition
	if !p.inGenerator {
		p.tokenError(p.curToken, "yield is only valid inside a generator")
		return nil
	}
	node := &ast.Yield{YieldPos: yieldPos}
	if p.peekTokenIs(token.ASTERISK) && !p.peekToken.PrecededByNewline {
		p.nextToken()
		node.Delegate = true
		p.nextToken()
		node.Arg = p.parseExpr(ASSIGN - 1)
		if node.Arg == nil {
			return nil
		}
		return node
	}
	if p.canStartExprOnSameLine() {
		p.nextToken()
		node.Arg = p.parseExpr(ASSIGN - 1)
		if node.Arg == nil {
			return nil
		}
	}
	return node
}

func (p *Parser) parseAwait() ast.Expr {
	awaitPos := p.curToken.StartPosition
	if !p.inAsync {
		p.tokenError(p.curToken, "await is only valid inside an async function")
		return nil
	}
	p.nextToken()
	arg := p.parseExpr(PREFIX)
	if arg == nil {
		return nil
	}
	return &ast.Await{AwaitPos: awaitPos, Arg: arg}
}

// parseGroupedOrArrow disambiguates `(x + y)` from `(x, y) => body` by
// speculatively trying the arrow parameter list first and rewinding if it
// fails.
func (p *Parser) parseGroupedOrArrow() ast.Expr {
	if fn := p.tryParseArrowFunction(false); fn != nil {
		return fn
	}
	p.nextToken()
	if p.curTokenIs(token.RPAREN) {
		p.tokenError(p.curToken, "empty parenthesized expression")
		return nil
	}
	expr := p.parseSequence()
	if expr == nil {
		return nil
	}
	if !p.expectPeek("parenthesized expression", token.RPAREN) {
		return nil
	}
	return expr
}

// tryParseArrowFunction attempts `( params ) => body` with the parser on
// the opening paren. On failure the token stream is rewound and nil is
// returned.
func (p *Parser) tryParseArrowFunction(isAsync bool) ast.Expr {
	s := p.save()

	params, rest, ok := p.tryParseParams()
	if !ok {
		p.restore(s)
		return nil
	}
	// The => must follow on the same line; otherwise this was grouping.
	if !p.peekTokenIs(token.ARROW) || p.peekToken.PrecededByNewline {
		p.restore(s)
		return nil
	}
	p.nextToken() // the arrow
	return p.parseArrowBody(params, rest, isAsync)
}

// tryParseParams parses `( pattern, ..., ...rest )` without emitting
// errors that survive a rewind. Returns ok=false on any mismatch.
func (p *Parser) tryParseParams() ([]ast.Pattern, ast.Pattern, bool) {
	errCount := len(p.errors)
	defer func() {
		// Parameter-list speculation must not leak errors.
		p.errors = p.errors[:errCount]
	}()

	var params []ast.Pattern
	var rest ast.Pattern
	for !p.peekTokenIs(token.RPAREN) {
		if p.peekTokenIs(token.EOF) {
			return nil, nil, false
		}
		p.nextToken()
		if p.curTokenIs(token.SPREAD) {
			ellipsis := p.curToken.StartPosition
			p.nextToken()
			target := p.parseBindingTarget()
			if target == nil {
				return nil, nil, false
			}
			rest = &ast.RestElement{Ellipsis: ellipsis, Target: target}
			break
		}
		param := p.parseBindingElement()
		if param == nil || len(p.errors) > errCount {
			return nil, nil, false
		}
		params = append(params, param)
		if p.peekTokenIs(token.COMMA) {
			p.nextToken()
		} else {
			break
		}
	}
	if !p.peekTokenIs(token.RPAREN) {
		return nil, nil, false
	}
	p.nextToken()
	return params, rest, true
}

func (p *Parser) parseArrowBody(params []ast.Pattern, rest ast.Pattern, isAsync bool) ast.Expr {
	arrow := p.curToken.StartPosition
	prevAsync := p.inAsync
	prevGen := p.inGenerator
	p.inAsync = isAsync
	p.inGenerator = false
	defer func() {
		p.inAsync = prevAsync
		p.inGenerator = prevGen
	}()

	p.nextToken()
	var body ast.Node
	if p.curTokenIs(token.LBRACE) {
		block := p.parseBlock()
		if block == nil {
			return nil
		}
		body = block
	} else {
		expr := p.parseExpr(ASSIGN - 1)
		if expr == nil {
			return nil
		}
		body = expr
	}
	return &ast.ArrowFunctionLit{
		Params: params, RestParam: rest, Arrow: arrow, Body: body, IsAsync: isAsync,
	}
}

// parseIdent handles a bare identifier, including the single-parameter
// arrow shorthand `x => body`.
func (p *Parser) parseIdent() ast.Expr {
	ident := &ast.Ident{NamePos: p.curToken.StartPosition, Name: p.curToken.Literal}
	if p.peekTokenIs(token.ARROW) && !p.peekToken.PrecededByNewline {
		p.nextToken()
		return p.parseArrowBody([]ast.Pattern{ident}, nil, false)
	}
	return ident
}

// parseAsyncExpr handles the `async` keyword in expression position:
// `async function ...`, `async x => ...`, and `async (params) => ...`.
func (p *Parser) parseAsyncExpr() ast.Expr {
	if p.peekToken.PrecededByNewline {
		p.tokenError(p.curToken, "illegal newline after async")
		return nil
	}
	switch p.peekToken.Type {
	case token.FUNCTION:
		p.nextToken()
		return p.parseFunction(true)
	case token.IDENT:
		p.nextToken()
		ident := &ast.Ident{NamePos: p.curToken.StartPosition, Name: p.curToken.Literal}
		if !p.peekTokenIs(token.ARROW) {
			p.tokenError(p.peekToken, "expected => after async arrow parameter")
			return nil
		}
		p.nextToken()
		return p.parseArrowBody([]ast.Pattern{ident}, nil, true)
	case token.LPAREN:
		p.nextToken()
		if fn := p.tryParseArrowFunction(true); fn != nil {
			return fn
		}
		p.tokenError(p.curToken, "invalid async arrow function")
		return nil
	default:
		p.tokenError(p.peekToken, "unexpected token after async")
		return nil
	}
}

func (p *Parser) parseFunctionExpr() ast.Expr {
	return p.parseFunction(false)
}

// parseFunction parses a function expression or declaration with the
// parser on the `function` keyword.
func (p *Parser) parseFunction(isAsync bool) *ast.FunctionLit {
	funcPos := p.curToken.StartPosition
	isGenerator := false
	if p.peekTokenIs(token.ASTERISK) {
		p.nextToken()
		isGenerator = true
	}

	var name *ast.Ident
	if p.peekTokenIs(token.IDENT) {
		p.nextToken()
		name = &ast.Ident{NamePos: p.curToken.StartPosition, Name: p.curToken.Literal}
	}

	if !p.expectPeek("function definition", token.LPAREN) {
		return nil
	}
	params, rest, ok := p.tryParseParams()
	if !ok {
		p.tokenError(p.curToken, "invalid function parameters")
		return nil
	}

	prevGen := p.inGenerator
	prevAsync := p.inAsync
	p.inGenerator = isGenerator
	p.inAsync = isAsync
	defer func() {
		p.inGenerator = prevGen
		p.inAsync = prevAsync
	}()

	if !p.expectPeek("function definition", token.LBRACE) {
		return nil
	}
	body := p.parseBlock()
	if body == nil {
		return nil
	}
	return &ast.FunctionLit{
		FuncPos: funcPos, Name: name, Params: params, RestParam: rest,
		Body: body, IsGenerator: isGenerator, IsAsync: isAsync,
	}
}

func (p *Parser) parseClassExpr() ast.Expr {
	return p.parseClass()
}

// parseClass parses a class expression or declaration with the parser on
// the `class` keyword.
func (p *Parser) parseClass() *ast.ClassLit {
	classPos := p.curToken.StartPosition
	class := &ast.ClassLit{ClassPos: classPos}

	if p.peekTokenIs(token.IDENT) {
		p.nextToken()
		class.Name = &ast.Ident{NamePos: p.curToken.StartPosition, Name: p.curToken.Literal}
	}
	if p.peekTokenIs(token.EXTENDS) {
		p.nextToken()
		p.nextToken()
		class.Super = p.parseExpr(PREFIX)
		if class.Super == nil {
			return nil
		}
	}
	if !p.expectPeek("class body", token.LBRACE) {
		return nil
	}

	for !p.peekTokenIs(token.RBRACE) {
		if p.peekTokenIs(token.EOF) {
			p.tokenError(p.peekToken, "unterminated class body")
			return nil
		}
		if p.peekTokenIs(token.SEMICOLON) {
			p.nextToken()
			continue
		}
		p.nextToken()
		member, ok := p.parseClassMember()
		if !ok {
			return nil
		}
		class.Body = append(class.Body, member)
	}
	p.nextToken() // closing brace
	class.EndPos = p.curToken.EndPosition
	return class
}

func (p *Parser) parseClassMember() (ast.ClassMember, bool) {
	var member ast.ClassMember

	if p.curTokenIs(token.STATIC) && !p.peekTokenIs(token.LPAREN) && !p.peekTokenIs(token.ASSIGN) {
		member.Static = true
		p.nextToken()
	}

	isAsync := false
	isGenerator := false
	if p.curTokenIs(token.ASYNC) && !p.peekTokenIs(token.LPAREN) && !p.peekTokenIs(token.ASSIGN) {
		isAsync = true
		p.nextToken()
	}
	if p.curTokenIs(token.ASTERISK) {
		isGenerator = true
		p.nextToken()
	}
	if (p.curTokenIs(token.GET) || p.curTokenIs(token.SET)) &&
		!p.peekTokenIs(token.LPAREN) && !p.peekTokenIs(token.ASSIGN) {
		if p.curTokenIs(token.GET) {
			member.Kind = ast.ClassGetter
		} else {
			member.Kind = ast.ClassSetter
		}
		p.nextToken()
	}

	// The member key: identifier, keyword, string, number, or computed.
	switch {
	case p.curTokenIs(token.LBRACKET):
		member.Computed = true
		p.nextToken()
		member.Key = p.parseExpr(SEQUENCE)
		if member.Key == nil || !p.expectPeek("class member", token.RBRACKET) {
			return member, false
		}
	case p.curTokenIs(token.IDENT) || p.curTokenIs(token.STRING) ||
		p.curTokenIs(token.NUMBER) || isKeywordToken(p.curToken):
		member.Key = p.propertyKeyExpr()
	default:
		p.tokenError(p.curToken, "invalid class member (unexpected %s)", tokenDescription(p.curToken))
		return member, false
	}

	// Method or accessor: a parameter list follows the key.
	if p.peekTokenIs(token.LPAREN) {
		p.nextToken()
		fn := p.parseMethodBody(isAsync, isGenerator)
		if fn == nil {
			return member, false
		}
		if member.Kind == ast.ClassGetter && len(fn.Params) != 0 {
			p.tokenError(p.curToken, "getter must have no parameters")
			return member, false
		}
		if member.Kind == ast.ClassSetter && len(fn.Params) != 1 {
			p.tokenError(p.curToken, "setter must have exactly one parameter")
			return member, false
		}
		member.Fn = fn
		return member, true
	}

	// Field: `name = expr;` or a bare `name;`
	if member.Kind == ast.ClassGetter || member.Kind == ast.ClassSetter {
		p.tokenError(p.curToken, "accessor requires a parameter list")
		return member, false
	}
	member.Kind = ast.ClassField
	if p.peekTokenIs(token.ASSIGN) {
		p.nextToken()
		p.nextToken()
		member.Init = p.parseExpr(SEQUENCE)
		if member.Init == nil {
			return member, false
		}
	}
	if p.peekTokenIs(token.SEMICOLON) {
		p.nextToken()
	}
	return member, true
}

// parseMethodBody parses `( params ) { body }` for class methods and
// object-literal methods, with the parser on the opening paren.
func (p *Parser) parseMethodBody(isAsync, isGenerator bool) *ast.FunctionLit {
	funcPos := p.curToken.StartPosition
	params, rest, ok := p.tryParseParams()
	if !ok {
		p.tokenError(p.curToken, "invalid method parameters")
		return nil
	}

	prevGen := p.inGenerator
	prevAsync := p.inAsync
	p.inGenerator = isGenerator
	p.inAsync = isAsync
	defer func() {
		p.inGenerator = prevGen
		p.inAsync = prevAsync
	}()

	if !p.expectPeek("method definition", token.LBRACE) {
		return nil
	}
	body := p.parseBlock()
	if body == nil {
		return nil
	}
	return &ast.FunctionLit{
		FuncPos: funcPos, Params: params, RestParam: rest, Body: body,
		IsGenerator: isGenerator, IsAsync: isAsync,
	}
}
