package token

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []Token
	}{
		{
			"empty",
			"",
			nil,
		},
		{
			"parens",
			"()",
			[]Token{{"(", LParen, 1}, {")", RParen, 1}},
		},
		{
			"keyword",
			"(dict)",
			[]Token{{"(", LParen, 1}, {"dict", Ident, 1}, {")", RParen, 1}},
		},
		{
			"whitespace",
			"  (  dict  )  ",
			[]Token{{"(", LParen, 1}, {"dict", Ident, 1}, {")", RParen, 1}},
		},
		{
			"newlines",
			"(\ndict\n)",
			[]Token{{"(", LParen, 1}, {"dict", Ident, 2}, {")", RParen, 3}},
		},
		{
			"dollar_identifier",
			"$Contact",
			[]Token{{"$Contact", Ident, 1}},
		},
		{
			"hyphenated_keyword",
			"func-binding utf8-cstr i32-to-enum",
			[]Token{{"func-binding", Ident, 1}, {"utf8-cstr", Ident, 1}, {"i32-to-enum", Ident, 1}},
		},
		{
			"dotted_host_name",
			"env.add",
			[]Token{{"env.add", Ident, 1}},
		},
		{
			"snake_case_scalar",
			"unsigned_long_long",
			[]Token{{"unsigned_long_long", Ident, 1}},
		},
		{
			"number",
			"42",
			[]Token{{"42", Number, 1}},
		},
		{
			"hex_number",
			"0xFF",
			[]Token{{"0xFF", Number, 1}},
		},
		{
			"underscore_number",
			"1_000",
			[]Token{{"1_000", Number, 1}},
		},
		{
			"string",
			`"hello"`,
			[]Token{{"hello", String, 1}},
		},
		{
			"string_quote_escape",
			`"say \"hi\""`,
			[]Token{{`say \"hi\"`, String, 1}},
		},
		{
			"line_comment",
			";; comment\n(dict)",
			[]Token{{"(", LParen, 2}, {"dict", Ident, 2}, {")", RParen, 2}},
		},
		{
			"line_comment_at_end",
			"bind ;; trailing",
			[]Token{{"bind", Ident, 1}},
		},
		{
			"block_comment",
			"(; comment ;)(dict)",
			[]Token{{"(", LParen, 1}, {"dict", Ident, 1}, {")", RParen, 1}},
		},
		{
			"nested_block_comment",
			"(; outer (; inner ;) outer ;)(dict)",
			[]Token{{"(", LParen, 1}, {"dict", Ident, 1}, {")", RParen, 1}},
		},
		{
			"multiline_block_comment",
			"(; a\nb ;) type",
			[]Token{{"type", Ident, 2}},
		},
		{
			"unterminated_string",
			`(field "name`,
			[]Token{{"(", LParen, 1}, {"field", Ident, 1}, {`"name`, Invalid, 1}},
		},
		{
			"stray_character",
			"(get #)",
			[]Token{{"(", LParen, 1}, {"get", Ident, 1}, {"#", Invalid, 1}, {")", RParen, 1}},
		},
		{
			"expression",
			`(as i64 (field 0 (get 0)))`,
			[]Token{
				{"(", LParen, 1}, {"as", Ident, 1}, {"i64", Ident, 1},
				{"(", LParen, 1}, {"field", Ident, 1}, {"0", Number, 1},
				{"(", LParen, 1}, {"get", Ident, 1}, {"0", Number, 1}, {")", RParen, 1},
				{")", RParen, 1}, {")", RParen, 1},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.expected, Tokenize(tt.input)); diff != "" {
				t.Errorf("Tokenize(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

func TestTokenTypeString(t *testing.T) {
	tests := []struct {
		want string
		typ  Type
	}{
		{"'('", LParen},
		{"')'", RParen},
		{"identifier", Ident},
		{"string", String},
		{"number", Number},
		{"invalid token", Invalid},
		{"unknown", Type(999)},
	}

	for _, tt := range tests {
		got := tt.typ.String()
		if got != tt.want {
			t.Errorf("Type(%d).String() = %q, want %q", tt.typ, got, tt.want)
		}
	}
}
