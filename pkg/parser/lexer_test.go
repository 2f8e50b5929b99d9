package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridstack-labs/gridstyle/pkg/parser"
	"github.com/gridstack-labs/gridstyle/pkg/token"
)

func TestLexer_TokenStream(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []token.TokenType
	}{
		{
			name:  "comparison with field ref",
			input: `[price] > 100`,
			want:  []token.TokenType{token.FIELDREF, token.GT, token.NUMBER, token.EOF},
		},
		{
			name:  "boolean connectives as keywords",
			input: `[a] > 1 AND [b] < 2 OR NOT [c]`,
			want: []token.TokenType{
				token.FIELDREF, token.GT, token.NUMBER,
				token.AND,
				token.FIELDREF, token.LT, token.NUMBER,
				token.OR, token.NOT, token.FIELDREF,
				token.EOF,
			},
		},
		{
			name:  "boolean connectives as symbols",
			input: `[a] && [b] || ![c]`,
			want: []token.TokenType{
				token.FIELDREF, token.AND, token.FIELDREF,
				token.OR, token.NOT, token.FIELDREF,
				token.EOF,
			},
		},
		{
			name:  "ternary",
			input: `[v] > 0 ? "up" : "down"`,
			want: []token.TokenType{
				token.FIELDREF, token.GT, token.NUMBER,
				token.QUESTION, token.STRING, token.COLON, token.STRING,
				token.EOF,
			},
		},
		{
			name:  "function call",
			input: `CONTAINS([name], "Corp")`,
			want: []token.TokenType{
				token.IDENT, token.LPAREN, token.FIELDREF,
				token.COMMA, token.STRING, token.RPAREN,
				token.EOF,
			},
		},
		{
			name:  "arithmetic",
			input: `([a] + [b]) * 2 - 1 / 4`,
			want: []token.TokenType{
				token.LPAREN, token.FIELDREF, token.PLUS, token.FIELDREF, token.RPAREN,
				token.STAR, token.NUMBER, token.MINUS, token.NUMBER,
				token.SLASH, token.NUMBER,
				token.EOF,
			},
		},
		{
			name:  "null and bool literals case-insensitive",
			input: `null NULL True FALSE`,
			want:  []token.TokenType{token.NULL, token.NULL, token.TRUE, token.FALSE, token.EOF},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens := parser.Tokenize(tt.input)
			require.Len(t, tokens, len(tt.want))
			for i, want := range tt.want {
				assert.Equal(t, want, tokens[i].Type, "token %d", i)
			}
		})
	}
}

func TestLexer_OperatorCanonicalization(t *testing.T) {
	tests := []struct {
		input   string
		want    token.TokenType
		literal string
	}{
		{"=", token.EQ, "="},
		{"==", token.EQ, "=="},
		{"!=", token.NE, "!="},
		{"<>", token.NE, "<>"},
		{"<=", token.LE, "<="},
		{">=", token.GE, ">="},
		{"&&", token.AND, "&&"},
		{"||", token.OR, "||"},
		{"!", token.NOT, "!"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tokens := parser.Tokenize(tt.input)
			require.Len(t, tokens, 2)
			assert.Equal(t, tt.want, tokens[0].Type)
			assert.Equal(t, tt.literal, tokens[0].Literal)
		})
	}
}

func TestLexer_FieldRef(t *testing.T) {
	t.Run("simple name", func(t *testing.T) {
		tokens := parser.Tokenize(`[price]`)
		require.Len(t, tokens, 2)
		assert.Equal(t, token.FIELDREF, tokens[0].Type)
		assert.Equal(t, "price", tokens[0].Literal)
	})

	t.Run("name with spaces", func(t *testing.T) {
		tokens := parser.Tokenize(`[Bid Size]`)
		require.Len(t, tokens, 2)
		assert.Equal(t, token.FIELDREF, tokens[0].Type)
		assert.Equal(t, "Bid Size", tokens[0].Literal)
	})

	t.Run("unterminated", func(t *testing.T) {
		tokens := parser.Tokenize(`[price`)
		require.NotEmpty(t, tokens)
		assert.Equal(t, token.ILLEGAL, tokens[0].Type)
	})
}

func TestLexer_Strings(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"double quoted", `"hello"`, "hello"},
		{"single quoted", `'hello'`, "hello"},
		{"escaped quote", `"say \"hi\""`, `say "hi"`},
		{"escaped backslash", `"a\\b"`, `a\b`},
		{"newline escape", `"a\nb"`, "a\nb"},
		{"empty", `""`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens := parser.Tokenize(tt.input)
			require.Len(t, tokens, 2)
			assert.Equal(t, token.STRING, tokens[0].Type)
			assert.Equal(t, tt.want, tokens[0].Literal)
		})
	}

	t.Run("unterminated", func(t *testing.T) {
		tokens := parser.Tokenize(`"oops`)
		require.NotEmpty(t, tokens)
		assert.Equal(t, token.ILLEGAL, tokens[0].Type)
	})
}

func TestLexer_Numbers(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"123", "123"},
		{"45.67", "45.67"},
		{"1e10", "1e10"},
		{"2.5E-3", "2.5E-3"},
		{"0.5", "0.5"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tokens := parser.Tokenize(tt.input)
			require.Len(t, tokens, 2)
			assert.Equal(t, token.NUMBER, tokens[0].Type)
			assert.Equal(t, tt.want, tokens[0].Literal)
		})
	}
}

func TestLexer_Positions(t *testing.T) {
	tokens := parser.Tokenize("[a] >\n 10")
	require.Len(t, tokens, 4)

	assert.Equal(t, 1, tokens[0].Pos.Line)
	assert.Equal(t, 1, tokens[0].Pos.Column)
	assert.Equal(t, 1, tokens[1].Pos.Line)
	assert.Equal(t, 2, tokens[2].Pos.Line)
}
