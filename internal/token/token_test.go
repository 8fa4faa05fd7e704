package token

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLookupIdentifier(t *testing.T) {
	for key, val := range keywords {
		require.Equal(t, val, LookupIdentifier(key))
		// Once the keywords are uppercase they'll no longer match a
		// reserved word, so they resolve as plain identifiers.
		require.Equal(t, Type(IDENT), LookupIdentifier(strings.ToUpper(key)))
	}
	require.Equal(t, Type(IDENT), LookupIdentifier("myVariable"))
}

func TestPosition(t *testing.T) {
	tok := Token{
		Type:    IDENT,
		Literal: "foo",
		StartPosition: Position{
			Line:   2,
			Column: 0,
		},
	}
	require.Equal(t, 3, tok.StartPosition.LineNumber())
	require.Equal(t, 1, tok.StartPosition.ColumnNumber())
}

func TestIsAssignmentOperator(t *testing.T) {
	require.True(t, IsAssignmentOperator(ASSIGN))
	require.True(t, IsAssignmentOperator(PLUS_EQUALS))
	require.True(t, IsAssignmentOperator(NULLISH_EQUALS))
	require.False(t, IsAssignmentOperator(EQ))
	require.False(t, IsAssignmentOperator(PLUS))
}
