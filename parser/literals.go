package parser

import (
	"math/big"
	"strconv"
	"strings"

	"github.com/juniper-lang/juniper/ast"
	"github.com/juniper-lang/juniper/internal/token"
)

func (p *Parser) parseNumber() ast.Expr {
	raw := p.curToken.Literal
	value, err := parseNumericLiteral(raw)
	if err != nil {
		p.tokenError(p.curToken, "invalid numeric literal %q", raw)
		return nil
	}
	return &ast.NumberLit{ValuePos: p.curToken.StartPosition, Raw: raw, Value: value}
}

// parseNumericLiteral converts a number literal's text to its double
// value, handling the 0x/0o/0b radix prefixes.
func parseNumericLiteral(raw string) (float64, error) {
	if len(raw) > 2 && raw[0] == '0' {
		switch raw[1] {
		case 'x', 'X':
			v, err := strconv.ParseUint(raw[2:], 16, 64)
			return float64(v), err
		case 'o', 'O':
			v, err := strconv.ParseUint(raw[2:], 8, 64)
			return float64(v), err
		case 'b', 'B':
			v, err := strconv.ParseUint(raw[2:], 2, 64)
			return float64(v), err
		}
	}
	return strconv.ParseFloat(raw, 64)
}

func (p *Parser) parseBigInt() ast.Expr {
	raw := p.curToken.Literal
	digits := raw
	base := 10
	if len(digits) > 2 && digits[0] == '0' {
		switch digits[1] {
		case 'x', 'X':
			base, digits = 16, digits[2:]
		case 'o', 'O':
			base, digits = 8, digits[2:]
		case 'b', 'B':
			base, digits = 2, digits[2:]
		}
	}
	value, ok := new(big.Int).SetString(digits, base)
	if !ok {
		p.tokenError(p.curToken, "invalid bigint literal %q", raw)
		return nil
	}
	return &ast.BigIntLit{ValuePos: p.curToken.StartPosition, Raw: raw + "n", Value: value}
}

func (p *Parser) parseString() ast.Expr {
	return &ast.StringLit{
		ValuePos: p.curToken.StartPosition,
		Raw:      p.curToken.Literal,
		Value:    p.curToken.Literal,
	}
}

func (p *Parser) parseRegex() ast.Expr {
	raw := p.curToken.Literal // includes the delimiting slashes and flags
	end := strings.LastIndexByte(raw, '/')
	pattern := raw[1:end]
	flags := raw[end+1:]
	return &ast.RegexLit{ValuePos: p.curToken.StartPosition, Pattern: pattern, Flags: flags}
}

func (p *Parser) parseBoolean() ast.Expr {
	return &ast.BoolLit{
		ValuePos: p.curToken.StartPosition,
		Value:    p.curTokenIs(token.TRUE),
	}
}

func (p *Parser) parseNull() ast.Expr {
	return &ast.NullLit{ValuePos: p.curToken.StartPosition}
}

func (p *Parser) parseUndefined() ast.Expr {
	return &ast.UndefinedLit{ValuePos: p.curToken.StartPosition}
}

func (p *Parser) parseThis() ast.Expr {
	return &ast.This{ThisPos: p.curToken.StartPosition}
}

func (p *Parser) parseSuper() ast.Expr {
	return &ast.Super{SuperPos: p.curToken.StartPosition}
}

// parseTemplate parses a template literal with the parser on the head (or
// full) segment token. The lexer resumes template scanning automatically
// at each interpolation's closing brace.
func (p *Parser) parseTemplate() ast.Expr {
	backtick := p.curToken.StartPosition
	if p.curTokenIs(token.TEMPLATE) {
		return &ast.TemplateLit{
			Backtick: backtick,
			Quasis:   []string{p.curToken.Literal},
			EndPos:   p.curToken.EndPosition,
		}
	}
	lit := &ast.TemplateLit{
		Backtick: backtick,
		Quasis:   []string{p.curToken.Literal},
	}
	for {
		p.nextToken()
		expr := p.parseSequence()
		if expr == nil {
			return nil
		}
		lit.Exprs = append(lit.Exprs, expr)
		p.nextToken()
		switch p.curToken.Type {
		case token.TEMPLATE_MIDDLE:
			lit.Quasis = append(lit.Quasis, p.curToken.Literal)
		case token.TEMPLATE_TAIL:
			lit.Quasis = append(lit.Quasis, p.curToken.Literal)
			lit.EndPos = p.curToken.EndPosition
			return lit
		default:
			p.tokenError(p.curToken, "unterminated template literal")
			return nil
		}
	}
}

func (p *Parser) parseTaggedTemplate(tag ast.Expr) ast.Expr {
	template := p.parseTemplate()
	if template == nil {
		return nil
	}
	return &ast.TaggedTemplate{Tag: tag, Template: template.(*ast.TemplateLit)}
}

func (p *Parser) parseArrayLit() ast.Expr {
	lbrack := p.curToken.StartPosition
	var elements []ast.Expr
	for !p.peekTokenIs(token.RBRACKET) {
		if p.peekTokenIs(token.EOF) {
			p.tokenError(p.peekToken, "unterminated array literal")
			return nil
		}
		if p.peekTokenIs(token.COMMA) {
			p.nextToken()
			elements = append(elements, nil) // elision
			continue
		}
		p.nextToken()
		elem := p.parseExpr(SEQUENCE)
		if elem == nil {
			return nil
		}
		elements = append(elements, elem)
		if p.peekTokenIs(token.COMMA) {
			p.nextToken()
		} else {
			break
		}
	}
	if !p.expectPeek("array literal", token.RBRACKET) {
		return nil
	}
	return &ast.ArrayLit{Lbrack: lbrack, Elements: elements, Rbrack: p.curToken.StartPosition}
}

func (p *Parser) parseObjectLit() ast.Expr {
	lbrace := p.curToken.StartPosition
	var props []ast.ObjectProp
	for !p.peekTokenIs(token.RBRACE) {
		if p.peekTokenIs(token.EOF) {
			p.tokenError(p.peekToken, "unterminated object literal")
			return nil
		}
		p.nextToken()
		prop, ok := p.parseObjectProp()
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
	if !p.expectPeek("object literal", token.RBRACE) {
		return nil
	}
	return &ast.ObjectLit{Lbrace: lbrace, Props: props, Rbrace: p.curToken.StartPosition}
}

func (p *Parser) parseObjectProp() (ast.ObjectProp, bool) {
	var prop ast.ObjectProp

	// Spread: `{...source}`
	if p.curTokenIs(token.SPREAD) {
		p.nextToken()
		value := p.parseExpr(SEQUENCE)
		if value == nil {
			return prop, false
		}
		prop.Kind = ast.PropertySpread
		prop.Value = value
		return prop, true
	}

	isAsync := false
	isGenerator := false
	accessor := ast.PropertyInit
	if p.curTokenIs(token.ASYNC) && !p.peekTokenIs(token.LPAREN) &&
		!p.peekTokenIs(token.COLON) && !p.peekTokenIs(token.COMMA) && !p.peekTokenIs(token.RBRACE) {
		isAsync = true
		p.nextToken()
	}
	if p.curTokenIs(token.ASTERISK) {
		isGenerator = true
		p.nextToken()
	}
	if (p.curTokenIs(token.GET) || p.curTokenIs(token.SET)) &&
		!p.peekTokenIs(token.LPAREN) && !p.peekTokenIs(token.COLON) &&
		!p.peekTokenIs(token.COMMA) && !p.peekTokenIs(token.RBRACE) {
		if p.curTokenIs(token.GET) {
			accessor = ast.PropertyGet
		} else {
			accessor = ast.PropertySet
		}
		p.nextToken()
	}

	// The property key.
	switch {
	case p.curTokenIs(token.LBRACKET):
		prop.Computed = true
		p.nextToken()
		prop.Key = p.parseExpr(SEQUENCE)
		if prop.Key == nil || !p.expectPeek("object literal", token.RBRACKET) {
			return prop, false
		}
	case p.curTokenIs(token.IDENT) || p.curTokenIs(token.STRING) ||
		p.curTokenIs(token.NUMBER) || isKeywordToken(p.curToken):
		prop.Key = p.propertyKeyExpr()
	default:
		p.tokenError(p.curToken, "invalid property key (unexpected %s)", tokenDescription(p.curToken))
		return prop, false
	}

	// Method: `key(params) { body }` including accessors.
	if p.peekTokenIs(token.LPAREN) {
		p.nextToken()
		fn := p.parseMethodBody(isAsync, isGenerator)
		if fn == nil {
			return prop, false
		}
		switch accessor {
		case ast.PropertyGet:
			if len(fn.Params) != 0 {
				p.tokenError(p.curToken, "getter must have no parameters")
				return prop, false
			}
			prop.Kind = ast.PropertyGet
		case ast.PropertySet:
			if len(fn.Params) != 1 {
				p.tokenError(p.curToken, "setter must have exactly one parameter")
				return prop, false
			}
			prop.Kind = ast.PropertySet
		default:
			prop.Kind = ast.PropertyMethod
		}
		prop.Value = fn
		return prop, true
	}
	if accessor != ast.PropertyInit {
		p.tokenError(p.curToken, "accessor requires a parameter list")
		return prop, false
	}

	// Plain `key: value`
	if p.peekTokenIs(token.COLON) {
		p.nextToken()
		p.nextToken()
		value := p.parseExpr(SEQUENCE)
		if value == nil {
			return prop, false
		}
		prop.Kind = ast.PropertyInit
		prop.Value = value
		return prop, true
	}

	// Shorthand `{a}`
	ident, ok := prop.Key.(*ast.Ident)
	if !ok || prop.Computed {
		p.tokenError(p.curToken, "invalid shorthand property")
		return prop, false
	}
	prop.Kind = ast.PropertyInit
	prop.Shorthand = true
	prop.Value = &ast.Ident{NamePos: ident.NamePos, Name: ident.Name}
	return prop, true
}
