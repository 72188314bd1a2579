package evaluator

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/canvaz-lang/canvaz/ast"
	"github.com/canvaz-lang/canvaz/diag"
	"github.com/canvaz-lang/canvaz/object"
	"github.com/canvaz-lang/canvaz/parser"
	"github.com/canvaz-lang/canvaz/scanner"
	"github.com/google/go-cmp/cmp"
)

func parse(t *testing.T, src string) []ast.Stmt {
	t.Helper()
	var errs diag.List
	tokens := scanner.New(&errs).Scan(src)
	stmts, err := parser.New(tokens, &errs).Parse()
	if err != nil || len(errs) != 0 {
		t.Fatalf("parse failed: %v %v", err, errs)
	}
	return stmts
}

// run interprets src in env (a fresh root when nil) and returns what it printed.
func run(t *testing.T, src string, env *object.Environment) (string, error) {
	t.Helper()
	var out bytes.Buffer
	e := New(Config{Stdout: &out})
	err := e.Interpret(context.Background(), parse(t, src), env)
	return out.String(), err
}

func TestInterpret(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "sum of two variables",
			input: "var x = 1\nvar y = 2\nprint x + y",
			want:  "3\n",
		},
		{
			name:  "shadowing in a nested block",
			input: "var x = 1\n{ var x = 2\n print x }\nprint x",
			want:  "2\n1\n",
		},
		{
			name:  "typed variable accepts its own type",
			input: "var x: Integer = 1\nx = 2\nprint x",
			want:  "2\n",
		},
		{
			name:  "dynamic variable changes type",
			input: "var x = 1\nx = \"one\"\nprint x",
			want:  "one\n",
		},
		{
			name:  "if then",
			input: "if true { print \"then\" }",
			want:  "then\n",
		},
		{
			name:  "if else",
			input: "if false { print \"then\" } else { print \"else\" }",
			want:  "else\n",
		},
		{
			name:  "null condition is false",
			input: "var n\nprint n\nprint n == null\nif n { print 1 } else { print 2 }",
			want:  "null\ntrue\n2\n",
		},
		{
			name:  "while",
			input: "var i = 0\nwhile i < 3 {\n  print i\n  i = i + 1\n}",
			want:  "0\n1\n2\n",
		},
		{
			name:  "default parameter",
			input: "function add(a: Integer, b: Integer = 1): Integer { return a + b }\nprint add(2)\nprint add(2, 5)",
			want:  "3\n7\n",
		},
		{
			name: "default evaluated in the defining scope at call time",
			input: `var base = 10
function f(a: Integer, b: Integer = base): Integer { return a + b }
{
  var base = 100
  print f(1)
}
base = 20
print f(1)`,
			want: "11\n21\n",
		},
		{
			name: "recursion",
			input: `function fib(n: Integer): Integer {
  if n < 2 { return n }
  return fib(n - 1) + fib(n - 2)
}
print fib(10)`,
			want: "55\n",
		},
		{
			name: "closures",
			input: `function makeCounter(): Function {
  var count = 0
  return function (): Integer {
    count = count + 1
    return count
  }
}
var next = makeCounter()
next()
print next()`,
			want: "2\n",
		},
		{
			name: "functions as arguments",
			input: `function apply(fn: Function, v: Integer): Integer { return fn(v) }
print apply(function (n: Integer): Integer { return n * 2 }, 21)`,
			want: "42\n",
		},
		{
			name: "return from nested loop",
			input: `function firstOver(limit: Integer): Integer {
  var i = 0
  while true {
    if i * i > limit { return i }
    i = i + 1
  }
}
print firstOver(10)`,
			want: "4\n",
		},
		{
			name: "bare return in a function without return type",
			input: `function f(n: Integer) {
  if n > 0 {
    print "positive"
    return
  }
  print "not positive"
}
f(1)
f(0)`,
			want: "positive\nnot positive\n",
		},
		{
			name:  "bare return from a typed function yields null",
			input: "function g(): Integer { return }\nprint g()\nprint typeof g()",
			want:  "null\nInteger\n",
		},
		{
			name:  "function without return type yields null",
			input: "function h() {}\nprint h()",
			want:  "null\n",
		},
		{
			name:  "Any parameters",
			input: "function id(x: Any): Any { return x }\nprint id(\"s\")\nprint id(1.5)",
			want:  "s\n1.5\n",
		},
		{
			name: "structures",
			input: `structure Vec2f { x: Float, y: Float }
var v = Vec2f { x: 1f, y: 2f }
print v
print v.x + v.y
v.x = 5f
print v.x`,
			want: "Vec2f { x: 1, y: 2 }\n3\n5\n",
		},
		{
			name: "member defaults evaluated in the declaring scope",
			input: `var zero = 0f
structure P { x: Float = zero, y: Float = zero }
{
  var zero = 9f
  print P { y: 1f }
}`,
			want: "P { x: 0, y: 1 }\n",
		},
		{
			name:  "structures are shared by reference",
			input: "structure Box { v }\nvar a = Box { v: 1 }\nvar b = a\nb.v = 2\nprint a.v",
			want:  "2\n",
		},
		{
			name:  "nested structures",
			input: "structure In { n: Integer }\nstructure Out { in: In }\nvar o = Out { in: In { n: 1 } }\no.in.n = 2\nprint o",
			want:  "Out { in: In { n: 2 } }\n",
		},
		{
			name:  "structure declared in a block",
			input: "{\n  structure Local { v }\n  print Local { v: \"x\" }\n}",
			want:  "Local { v: \"x\" }\n",
		},
		{
			name: "typeof",
			input: `print typeof 1
print typeof 1.5
print typeof 1u
print typeof "s"
print typeof true
print typeof null
var t: Integer
print typeof t
function f() {}
print typeof f`,
			want: "Integer\nFloat\nUInteger\nString\nBoolean\nNull\nInteger\nFunction\n",
		},
		{
			name:  "arithmetic",
			input: "print 7 / 2\nprint 7f / 2f\nprint 2u * 3u\nprint -(1 + 2) * 3\nprint 10 - 4 - 3",
			want:  "3\n3.5\n6\n-9\n3\n",
		},
		{
			name:  "strings",
			input: "print \"a\" + \"b\"\nprint \"abc\" < \"abd\"",
			want:  "ab\ntrue\n",
		},
		{
			name:  "equality",
			input: "print 1 == 1.0\nprint null == null\nprint \"a\" != \"b\"\nprint 2u == 2u",
			want:  "false\ntrue\ntrue\ntrue\n",
		},
		{
			name:  "logical operators short-circuit",
			input: "print false and 1\nprint true or 1\nprint true and false\nprint not false",
			want:  "false\ntrue\nfalse\ntrue\n",
		},
		{
			name:  "printing functions",
			input: "function f() {}\nprint f\nprint function () {}",
			want:  "<function f>\n<function anonymous>\n",
		},
		{
			name:  "assignment is an expression",
			input: "var a\nvar b\na = b = 3\nprint a + b",
			want:  "6\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := run(t, tt.input, nil)
			if err != nil {
				t.Fatalf("Interpret failed: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("output mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestInterpret_Errors(t *testing.T) {
	const add = "function add(a: Integer, b: Integer = 1): Integer { return a + b }\n"

	tests := []struct {
		name    string
		input   string
		kind    diag.Kind
		message string
		line    int
	}{
		{"duplicate declaration", "var x = 1\nvar x = 2", diag.NameError, `Identifier "x" has already been defined.`, 2},
		{"duplicate function", "var f\nfunction f() {}", diag.NameError, `Identifier "f" has already been defined.`, 2},
		{"undefined identifier", "print y", diag.NameError, `Undefined identifier "y"`, 1},
		{"assign undefined", "y = 1", diag.NameError, `Undefined identifier "y"`, 1},
		{"static type mismatch", "var x: Integer = 1\nx = \"a\"", diag.TypeError, "Can't assign a static typed variable of type 'Integer' a value of type 'String'.", 2},
		{"static type mismatch on declaration", "var x: Float = 1", diag.TypeError, "Can't assign a static typed variable of type 'Float' a value of type 'Integer'.", 1},
		{"unknown type", "var v: Nope", diag.NameError, `Type "Nope" doesn't exist.`, 1},
		{"non-boolean if", "if 1 { print 1 }", diag.TypeError, "Can't determine truthiness of 'Integer'.", 1},
		{"non-boolean while", "while \"a\" { }", diag.TypeError, "Can't determine truthiness of 'String'.", 1},
		{"non-boolean logical", "print true and 1", diag.TypeError, "Can't determine truthiness of 'Integer'.", 1},
		{"not a boolean", "print not 1", diag.TypeError, "Can't determine truthiness of 'Integer'.", 1},
		{"too few arguments", add + "add()", diag.TypeError, `Function "add" expects 1 to 2 arguments but got 0.`, 2},
		{"too many arguments", add + "add(1, 2, 3)", diag.TypeError, `Function "add" expects 1 to 2 arguments but got 3.`, 2},
		{"exact arity", "function f(a) {}\nf()", diag.TypeError, `Function "f" expects 1 argument but got 0.`, 2},
		{"argument type", add + "add(\"a\")", diag.TypeError, `Argument "a" of Function "add" expects 'Integer' but got 'String'.`, 2},
		{"return type", "function f(): Integer { return \"a\" }\nf()", diag.TypeError, `Function "f" must return 'Integer' but returned 'String'.`, 1},
		{"return at top level", "return 1", diag.TypeError, "Can't return from a function without return type.", 1},
		{"return value without return type", "function f() { return 1 }\nf()", diag.TypeError, "Can't return from a function without return type.", 1},
		{"unknown return type", "function f(): Nope {}", diag.NameError, `Type "Nope" doesn't exist.`, 1},
		{"duplicate parameter", "function f(a, a) {}\nf(1, 2)", diag.NameError, `Identifier "a" has already been defined.`, 1},
		{"division by zero", "print 1 / 0", diag.RuntimeError, "Division by zero.", 1},
		{"call a non-function", "var x = 1\nx()", diag.TypeError, "Only functions can be called, got 'Integer'.", 2},
		{"member of a non-structure", "var x = 1\nprint x.y", diag.TypeError, "Only structures have members, got 'Integer'.", 2},
		{"operator mismatch", "print 1 + \"a\"", diag.TypeError, "'+' is not applicable for 'Integer' and 'String'.", 1},
		{"unary mismatch", "print -true", diag.TypeError, "Unary '-' is not applicable for 'Boolean'.", 1},
		{"undefined structure", "print P {}", diag.NameError, `Undefined structure "P"`, 1},
		{"duplicate structure", "structure P {}\nstructure P {}", diag.NameError, `Structure "P" has already been defined.`, 2},
		{"shadowed structure assigned to outer type", "structure P { x: Integer }\nvar p: P = P { x: 1 }\n{\n  structure P { s: String }\n  p = P { s: \"a\" }\n}\nprint p", diag.TypeError, "Can't assign a static typed variable of type 'P' a value of type 'P'.", 5},
		{"shadowed structure passed as outer type", "structure P { x: Integer }\nfunction f(p: P) {}\n{\n  structure P {}\n  f(P {})\n}", diag.TypeError, `Argument "p" of Function "f" expects 'P' but got 'P'.`, 5},
		{"unknown member type", "structure S { x: Nope }", diag.NameError, `Type "Nope" doesn't exist.`, 1},
		{"missing member", "structure V { x: Float, y: Float }\nvar v = V { x: 1f }", diag.NameError, `Member "y" of "V" was not initialized.`, 2},
		{"unknown member in initializer", "structure V { x }\nvar v = V { x: 1, z: 2 }", diag.NameError, `Structure "V" has no member "z".`, 2},
		{"unknown member access", "structure V { x }\nvar v = V { x: 1 }\nprint v.z", diag.NameError, `Structure "V" has no member "z".`, 3},
		{"member type", "structure V { x: Float }\nvar v = V { x: 1f }\nv.x = 1", diag.TypeError, "Can't assign a static typed variable of type 'Float' a value of type 'Integer'.", 3},
		{"member type on initialization", "structure V { x: Float }\nvar v = V { x: 1 }", diag.TypeError, "Can't assign a static typed variable of type 'Float' a value of type 'Integer'.", 2},
		{"structure pin", "structure Box { v }\nvar b: Box = 1", diag.TypeError, "Can't assign a static typed variable of type 'Box' a value of type 'Integer'.", 2},
		{"runaway recursion", "function f() { f() }\nf()", diag.RuntimeError, "Maximum call depth of 1024 exceeded.", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.input, nil)
			if err == nil {
				t.Fatal("Interpret succeeded, want an error")
			}
			d, ok := diag.As(err)
			if !ok {
				t.Fatalf("Interpret() error = %v, want a diagnostic", err)
			}
			if d.Kind != tt.kind {
				t.Errorf("kind = %v, want %v", d.Kind, tt.kind)
			}
			if d.Message != tt.message {
				t.Errorf("message = %q, want %q", d.Message, tt.message)
			}
			if d.Range == nil {
				t.Fatalf("error has no position")
			}
			if got := d.Range.Line(); got != tt.line {
				t.Errorf("line = %d, want %d", got, tt.line)
			}
		})
	}
}

func TestInterpret_StopsAtFirstError(t *testing.T) {
	out, err := run(t, "print 1\nprint y\nprint 2", nil)
	if err == nil {
		t.Fatal("Interpret succeeded, want an error")
	}
	if out != "1\n" {
		t.Errorf("output = %q, want only the statements before the error", out)
	}
}

func TestInterpret_StructureMembers(t *testing.T) {
	env := object.NewEnvironment(nil)
	if _, err := run(t, "structure Vec2f { x: Float, y: Float }\nvar v = Vec2f { x: 1f, y: 2f }", env); err != nil {
		t.Fatalf("Interpret failed: %v", err)
	}
	v, err := env.Get("v")
	if err != nil {
		t.Fatalf("Get(v) failed: %v", err)
	}
	s, ok := v.Data().(*object.Structure)
	if !ok {
		t.Fatalf("v holds %T, want *object.Structure", v.Data())
	}
	got := map[string]any{}
	for _, name := range s.Members.Keys() {
		m, _ := s.Members.Get(name)
		got[name] = m.(*object.Value).Data()
	}
	if diff := cmp.Diff(map[string]any{"x": 1.0, "y": 2.0}, got); diff != "" {
		t.Errorf("members mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"x", "y"}, s.Members.Keys()); diff != "" {
		t.Errorf("member order mismatch (-want +got):\n%s", diff)
	}
}

func TestInterpret_PersistentEnvironment(t *testing.T) {
	env := object.NewEnvironment(nil)
	if _, err := run(t, "var count = 1", env); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	out, err := run(t, "count = count + 1\nprint count", env)
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if out != "2\n" {
		t.Errorf("output = %q, want 2", out)
	}
}

func TestInterpret_Trace(t *testing.T) {
	_, err := run(t, "function inner() { print 1 / 0 }\nfunction outer() { inner() }\nouter()", nil)
	d, ok := diag.As(err)
	if !ok {
		t.Fatalf("Interpret() error = %v, want a diagnostic", err)
	}
	var got []string
	for _, f := range d.Trace {
		got = append(got, f.String())
	}
	want := []string{"in inner at 2:20", "in outer at 3:1"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("trace mismatch (-want +got):\n%s", diff)
	}
}

func TestInterpret_Cancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e := New(Config{Stdout: &bytes.Buffer{}})
	err := e.Interpret(ctx, parse(t, "while true { }"), nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Interpret() error = %v, want context.Canceled", err)
	}
}

func TestInterpret_MaxCallDepth(t *testing.T) {
	e := New(Config{Stdout: &bytes.Buffer{}, MaxCallDepth: 10})
	err := e.Interpret(context.Background(), parse(t, "function f(n: Integer) { f(n + 1) }\nf(0)"), nil)
	d, ok := diag.As(err)
	if !ok || d.Message != "Maximum call depth of 10 exceeded." {
		t.Errorf("Interpret() error = %v", err)
	}
	if len(d.Trace) != 10 {
		t.Errorf("trace has %d frames, want 10", len(d.Trace))
	}
}

func TestInterpret_Builtins(t *testing.T) {
	env := object.NewEnvironment(nil)
	twice := &object.Builtin{
		FuncName: "twice",
		Params:   []*ast.Parameter{object.Param("n", "Integer")},
		Return:   &object.TypeInteger,
		Env:      env,
		Fn: func(ctx *object.BuiltinContext, args []*object.Value) (any, error) {
			return args[0].Data().(int64) * 2, nil
		},
	}
	fail := &object.Builtin{
		FuncName: "explode",
		Env:      env,
		Fn: func(ctx *object.BuiltinContext, args []*object.Value) (any, error) {
			return nil, errors.New("host exploded")
		},
	}
	liar := &object.Builtin{
		FuncName: "liar",
		Return:   &object.TypeBoolean,
		Env:      env,
		Fn: func(ctx *object.BuiltinContext, args []*object.Value) (any, error) {
			return "yes", nil
		},
	}
	leaky := &object.Builtin{
		FuncName: "leaky",
		Env:      env,
		Fn: func(ctx *object.BuiltinContext, args []*object.Value) (any, error) {
			return 3, nil
		},
	}
	for _, b := range []*object.Builtin{twice, fail, liar, leaky} {
		if err := env.Declare(b.FuncName, object.NewValue(b)); err != nil {
			t.Fatalf("Declare(%s) failed: %v", b.FuncName, err)
		}
	}

	out, err := run(t, "print twice(21)\nprint twice\nprint typeof twice", env)
	if err != nil {
		t.Fatalf("Interpret failed: %v", err)
	}
	if diff := cmp.Diff("42\n<function twice>\nFunction\n", out); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}

	tests := []struct {
		name    string
		input   string
		kind    diag.Kind
		message string
		lexeme  string
		line    int
	}{
		{"host failure", "print 1\n  explode()", diag.RuntimeError, "host exploded", "explode", 2},
		{"argument type", "twice(1.5)", diag.TypeError, `Argument "n" of Function "twice" expects 'Integer' but got 'Float'.`, "1.5", 1},
		{"arity", "twice()", diag.TypeError, `Function "twice" expects 1 argument but got 0.`, "twice", 1},
		{"return type", "liar()", diag.TypeError, `Function "liar" must return 'Boolean' but returned 'String'.`, "liar", 1},
		{"unsupported payload", "print 1\nprint leaky()", diag.RuntimeError, `Function "leaky" returned an unsupported value of Go type int.`, "leaky", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.input, env)
			d, ok := diag.As(err)
			if !ok {
				t.Fatalf("Interpret() error = %v, want a diagnostic", err)
			}
			if d.Kind != tt.kind || d.Message != tt.message {
				t.Errorf("got %v %q, want %v %q", d.Kind, d.Message, tt.kind, tt.message)
			}
			if d.Range == nil || d.Range.Start.Lexeme != tt.lexeme || d.Range.Line() != tt.line {
				t.Errorf("error anchored at %+v, want %q on line %d", d.Range, tt.lexeme, tt.line)
			}
		})
	}
}

func TestEval_LiteralRoundTrip(t *testing.T) {
	tests := []struct {
		source string
		want   any
	}{
		{`"hello world"`, "hello world"},
		{`""`, ""},
		{"3.25", 3.25},
		{"2f", 2.0},
		{"42", int64(42)},
		{"42i", int64(42)},
		{"7u", uint64(7)},
		{"true", true},
		{"false", false},
		{"null", nil},
	}
	e := New(Config{Stdout: &bytes.Buffer{}})
	for _, tt := range tests {
		stmts := parse(t, tt.source)
		x := stmts[0].(*ast.ExpressionStmt).X
		v, err := e.Eval(context.Background(), x, object.NewEnvironment(nil))
		if err != nil {
			t.Errorf("Eval(%s) failed: %v", tt.source, err)
			continue
		}
		if diff := cmp.Diff(tt.want, v.Data()); diff != "" {
			t.Errorf("Eval(%s) mismatch (-want +got):\n%s", tt.source, diff)
		}
		if printed := v.String(); !strings.Contains(tt.source, printed) && tt.want != "" {
			t.Errorf("print form %q of %s does not round trip", printed, tt.source)
		}
	}
}
