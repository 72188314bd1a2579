package scanner

import (
	"testing"

	"github.com/canvaz-lang/canvaz/diag"
	"github.com/canvaz-lang/canvaz/token"
	"github.com/google/go-cmp/cmp"
)

type tok struct {
	Lexeme  string
	Kind    token.Kind
	Line    int
	Literal any
}

func scan(t *testing.T, src string) ([]tok, diag.List) {
	t.Helper()
	var errs diag.List
	tokens := New(&errs).Scan(src)
	got := make([]tok, len(tokens))
	for i, tk := range tokens {
		got[i] = tok{Lexeme: tk.Lexeme, Kind: tk.Kind, Line: tk.Line, Literal: tk.Literal}
	}
	return got, errs
}

func TestScan(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []tok
	}{
		{
			name:  "declarations",
			input: "var x = 1\nvar y = 2\nprint x + y",
			want: []tok{
				{"var", token.Var, 1, nil},
				{"x", token.Identifier, 1, nil},
				{"=", token.Equal, 1, nil},
				{"1", token.IntegerNumber, 1, int64(1)},
				{"var", token.Var, 2, nil},
				{"y", token.Identifier, 2, nil},
				{"=", token.Equal, 2, nil},
				{"2", token.IntegerNumber, 2, int64(2)},
				{"print", token.Print, 3, nil},
				{"x", token.Identifier, 3, nil},
				{"+", token.Plus, 3, nil},
				{"y", token.Identifier, 3, nil},
			},
		},
		{
			name:  "two character operators",
			input: "== != >= <= = > < . :",
			want: []tok{
				{"==", token.EqualEqual, 1, nil},
				{"!=", token.BangEqual, 1, nil},
				{">=", token.GreaterEqual, 1, nil},
				{"<=", token.LessEqual, 1, nil},
				{"=", token.Equal, 1, nil},
				{">", token.Greater, 1, nil},
				{"<", token.Less, 1, nil},
				{".", token.Dot, 1, nil},
				{":", token.Colon, 1, nil},
			},
		},
		{
			name:  "numbers",
			input: "1.5 2 3u 4f 7i 1.",
			want: []tok{
				{"1.5", token.FloatNumber, 1, 1.5},
				{"2", token.IntegerNumber, 1, int64(2)},
				{"3u", token.UIntegerNumber, 1, uint64(3)},
				{"4f", token.FloatNumber, 1, 4.0},
				{"7i", token.IntegerNumber, 1, int64(7)},
				{"1", token.IntegerNumber, 1, int64(1)},
				{".", token.Dot, 1, nil},
			},
		},
		{
			name:  "malformed number becomes zero",
			input: "5.5i",
			want: []tok{
				{"5.5i", token.IntegerNumber, 1, int64(0)},
			},
		},
		{
			name:  "literals",
			input: `"hi" true false null`,
			want: []tok{
				{`"hi"`, token.String, 1, "hi"},
				{"true", token.True, 1, true},
				{"false", token.False, 1, false},
				{"null", token.Null, 1, nil},
			},
		},
		{
			name:  "string spanning lines",
			input: "\"a\nb\" x",
			want: []tok{
				{"\"a\nb\"", token.String, 1, "a\nb"},
				{"x", token.Identifier, 2, nil},
			},
		},
		{
			name:  "comments",
			input: "# a comment\nprint 1 # trailing\n#< block\n#< nested >#\n>#print 2\n# at eof",
			want: []tok{
				{"print", token.Print, 2, nil},
				{"1", token.IntegerNumber, 2, int64(1)},
				{"print", token.Print, 5, nil},
				{"2", token.IntegerNumber, 5, int64(2)},
			},
		},
		{
			name:  "unicode identifiers",
			input: "var café = 1",
			want: []tok{
				{"var", token.Var, 1, nil},
				{"café", token.Identifier, 1, nil},
				{"=", token.Equal, 1, nil},
				{"1", token.IntegerNumber, 1, int64(1)},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, errs := scan(t, tt.input)
			if len(errs) != 0 {
				t.Fatalf("Scan reported errors: %v", errs)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Scan() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestScan_Columns(t *testing.T) {
	type pos struct{ Start, End, Line int }
	tests := []struct {
		name  string
		input string
		want  []pos
	}{
		{
			name:  "ascii",
			input: "var total = 10\n  print total",
			want: []pos{
				{0, 3, 1}, {4, 9, 1}, {10, 11, 1}, {12, 14, 1},
				{2, 7, 2}, {8, 13, 2},
			},
		},
		{
			name:  "multi-byte identifier",
			input: "var café = 1 + \"a\"",
			want: []pos{
				{0, 3, 1}, {4, 8, 1}, {9, 10, 1}, {11, 12, 1}, {13, 14, 1}, {15, 18, 1},
			},
		},
		{
			name:  "multi-byte string before an unclosed one",
			input: "print \"ü\" \"x\nprint 1",
			want: []pos{
				{0, 5, 1}, {6, 9, 1},
				{0, 5, 2}, {6, 7, 2},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens := New(nil).Scan(tt.input)
			var got []pos
			for _, tk := range tokens {
				got = append(got, pos{tk.Start, tk.End, tk.Line})
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("positions mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestScan_Errors(t *testing.T) {
	type report struct {
		Kind    diag.Kind
		Message string
		Line    int
		Start   int
	}
	tests := []struct {
		name    string
		input   string
		want    []tok
		reports []report
	}{
		{
			name:  "bang alone",
			input: "a ! b",
			want: []tok{
				{"a", token.Identifier, 1, nil},
				{"b", token.Identifier, 1, nil},
			},
			reports: []report{{diag.ScanError, "'!' is invalid alone.", 1, 2}},
		},
		{
			name:  "invalid character",
			input: "a @ b $",
			want: []tok{
				{"a", token.Identifier, 1, nil},
				{"b", token.Identifier, 1, nil},
			},
			reports: []report{
				{diag.ScanError, "Invalid token.", 1, 2},
				{diag.ScanError, "Invalid token.", 1, 6},
			},
		},
		{
			name:  "unclosed comment",
			input: "print 1 #< never\nclosed",
			want: []tok{
				{"print", token.Print, 1, nil},
				{"1", token.IntegerNumber, 1, int64(1)},
			},
			reports: []report{{diag.ScanError, "Unclosed comment.", 1, 8}},
		},
		{
			name:  "unclosed string on line 2",
			input: "var a = 1\nvar s = \"oops\nprint a",
			want: []tok{
				{"var", token.Var, 1, nil},
				{"a", token.Identifier, 1, nil},
				{"=", token.Equal, 1, nil},
				{"1", token.IntegerNumber, 1, int64(1)},
				{"var", token.Var, 2, nil},
				{"s", token.Identifier, 2, nil},
				{"=", token.Equal, 2, nil},
				{"print", token.Print, 3, nil},
				{"a", token.Identifier, 3, nil},
			},
			reports: []report{{diag.ScanError, "Unclosed string.", 2, 8}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, errs := scan(t, tt.input)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("tokens mismatch (-want +got):\n%s", diff)
			}
			var reports []report
			for _, e := range errs {
				reports = append(reports, report{e.Kind, e.Message, e.Range.Line(), e.Range.Start.Start})
			}
			if diff := cmp.Diff(tt.reports, reports); diff != "" {
				t.Errorf("reports mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestScan_Idempotent(t *testing.T) {
	sources := []string{
		"var x = 1\nvar y = 2\nprint x + y",
		"structure Vec2f { x: Float = 0f, y: Float }\nprint Vec2f { x: 1f, y: 2f }.x",
		"var s = \"unterminated\nprint 1 ! 2",
	}
	s := New(nil)
	for _, src := range sources {
		first := s.Scan(src)
		second := s.Scan(src)
		if diff := cmp.Diff(first, second); diff != "" {
			t.Errorf("Scan(%q) not idempotent (-first +second):\n%s", src, diff)
		}
		if diff := cmp.Diff(first, New(nil).Scan(src)); diff != "" {
			t.Errorf("Scan(%q) differs between scanners (-reused +fresh):\n%s", src, diff)
		}
	}
}
