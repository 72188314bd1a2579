package token

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNewRange(t *testing.T) {
	tests := []struct {
		name    string
		start   Token
		end     Token
		wantErr bool
	}{
		{
			name:  "same line",
			start: Token{Lexeme: "a", Start: 0, End: 1, Line: 3},
			end:   Token{Lexeme: "b", Start: 4, End: 5, Line: 3},
		},
		{
			name:    "next line",
			start:   Token{Lexeme: "a", Start: 0, End: 1, Line: 1},
			end:     Token{Lexeme: "b", Start: 0, End: 1, Line: 2},
			wantErr: true,
		},
		{
			name:    "previous line",
			start:   Token{Lexeme: "a", Start: 0, End: 1, Line: 9},
			end:     Token{Lexeme: "b", Start: 0, End: 1, Line: 2},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewRange(tt.start, tt.end)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("NewRange(%v, %v) succeeded, want error", tt.start, tt.end)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewRange failed: %v", err)
			}
			if diff := cmp.Diff(Range{Start: tt.start, End: tt.end}, r); diff != "" {
				t.Errorf("range mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNewRange_AllCrossLinePairsFail(t *testing.T) {
	for a := 1; a <= 5; a++ {
		for b := 1; b <= 5; b++ {
			_, err := NewRange(Token{Line: a}, Token{Line: b})
			if (err != nil) != (a != b) {
				t.Errorf("NewRange(line %d, line %d) error = %v", a, b, err)
			}
		}
	}
}

func TestSpan(t *testing.T) {
	start := Token{Lexeme: "x", Start: 2, End: 3, Line: 1}
	end := Token{Lexeme: "y", Start: 0, End: 1, Line: 2}

	got := Span(start, end)
	if diff := cmp.Diff(RangeOf(start), got); diff != "" {
		t.Errorf("Span across lines should fall back to start (-want +got):\n%s", diff)
	}
	if got.Line() != 1 {
		t.Errorf("Line() = %d, want 1", got.Line())
	}
}

func TestLookup(t *testing.T) {
	tests := []struct {
		ident string
		want  Kind
	}{
		{"var", Var},
		{"function", Function},
		{"return", Return},
		{"typeof", Typeof},
		{"null", Null},
		{"Var", Identifier},
		{"variable", Identifier},
	}
	for _, tt := range tests {
		if got := Lookup(tt.ident); got != tt.want {
			t.Errorf("Lookup(%q) = %v, want %v", tt.ident, got, tt.want)
		}
	}
}

func TestKindString(t *testing.T) {
	if got := EqualEqual.String(); got != "EqualEqual" {
		t.Errorf("EqualEqual.String() = %q", got)
	}
	if got := Kind(999).String(); got != "Kind(999)" {
		t.Errorf("Kind(999).String() = %q", got)
	}
	if got := (Token{Lexeme: "==", Kind: EqualEqual}).String(); got != `"==" -> EqualEqual` {
		t.Errorf("Token.String() = %q", got)
	}
}
