package parser

import "github.com/juniper-lang/juniper/internal/token"

// Operator precedence levels, lowest binding first. Higher numbers bind
// tighter. The ladder follows the surface language's operator table:
// sequence < assignment < conditional < ?? < || < && < | < ^ < & <
// equality < relational < shift < additive < multiplicative < ** <
// unary < postfix < call/member.
const (
	_ int = iota
	LOWEST
	SEQUENCE    // ,
	ASSIGN      // = += -= ... &&= ||= ??=
	CONDITIONAL // ?:
	NULLISH     // ??
	OR          // ||
	AND         // &&
	BITOR       // |
	BITXOR      // ^
	BITAND      // &
	EQUALS      // == != === !==
	LESSGREATER // < <= > >= in instanceof
	SHIFT       // << >> >>>
	SUM         // + -
	PRODUCT     // * / %
	POWER       // ** (right-associative)
	PREFIX      // !x -x ~x typeof x void x delete x await x
	POSTFIX     // x++ x--
	CALL        // f(x), a.b, a[b], a?.b
)

// precedences maps each infix operator token to its level.
var precedences = map[token.Type]int{
	token.COMMA: SEQUENCE,

	token.ASSIGN:           ASSIGN,
	token.PLUS_EQUALS:      ASSIGN,
	token.MINUS_EQUALS:     ASSIGN,
	token.ASTERISK_EQUALS:  ASSIGN,
	token.SLASH_EQUALS:     ASSIGN,
	token.MOD_EQUALS:       ASSIGN,
	token.POW_EQUALS:       ASSIGN,
	token.AMPERSAND_EQUALS: ASSIGN,
	token.PIPE_EQUALS:      ASSIGN,
	token.CARET_EQUALS:     ASSIGN,
	token.LT_LT_EQUALS:     ASSIGN,
	token.GT_GT_EQUALS:     ASSIGN,
	token.GT_GT_GT_EQUALS:  ASSIGN,
	token.AND_AND_EQUALS:   ASSIGN,
	token.OR_OR_EQUALS:     ASSIGN,
	token.NULLISH_EQUALS:   ASSIGN,

	token.QUESTION: CONDITIONAL,

	token.NULLISH: NULLISH,
	token.OR:      OR,
	token.AND:     AND,

	token.PIPE:      BITOR,
	token.CARET:     BITXOR,
	token.AMPERSAND: BITAND,

	token.EQ:            EQUALS,
	token.NOT_EQ:        EQUALS,
	token.STRICT_EQ:     EQUALS,
	token.STRICT_NOT_EQ: EQUALS,

	token.LT:         LESSGREATER,
	token.LT_EQUALS:  LESSGREATER,
	token.GT:         LESSGREATER,
	token.GT_EQUALS:  LESSGREATER,
	token.IN:         LESSGREATER,
	token.INSTANCEOF: LESSGREATER,

	token.LT_LT:    SHIFT,
	token.GT_GT:    SHIFT,
	token.GT_GT_GT: SHIFT,

	token.PLUS:  SUM,
	token.MINUS: SUM,

	token.ASTERISK: PRODUCT,
	token.SLASH:    PRODUCT,
	token.MOD:      PRODUCT,

	token.POW: POWER,

	token.PLUS_PLUS:   POSTFIX,
	token.MINUS_MINUS: POSTFIX,

	token.LPAREN:        CALL,
	token.LBRACKET:      CALL,
	token.PERIOD:        CALL,
	token.QUESTION_DOT:  CALL,
	token.TEMPLATE:      CALL,
	token.TEMPLATE_HEAD: CALL,
}

func (p *Parser) peekPrecedence() int {
	if prec, ok := precedences[p.peekToken.Type]; ok {
		return prec
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if prec, ok := precedences[p.curToken.Type]; ok {
		return prec
	}
	return LOWEST
}
