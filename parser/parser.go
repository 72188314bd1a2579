// Package parser builds the syntax tree from a token sequence.
//
// The parser is a recursive-descent parser with one function per precedence
// level. A syntax error is reported and the parser skips ahead to the next
// statement keyword, so a single run reports as many errors as possible.
package parser

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/canvaz-lang/canvaz/ast"
	"github.com/canvaz-lang/canvaz/diag"
	"github.com/canvaz-lang/canvaz/token"
)

// MaxArgs bounds the number of parameters and call arguments.
const MaxArgs = 32

// ErrNoTokens is returned by Parse for an empty token sequence.
var ErrNoTokens = errors.New("parser: no tokens to parse")

// Parser holds the state of a single parse.
type Parser struct {
	reporter diag.Reporter
	logger   *slog.Logger

	tokens  []token.Token
	current int
	errs    diag.List

	// noInit disables `Name { ... }` structure initialization, so that the
	// brace after an if/while condition opens the body.
	noInit bool
}

// Option configures a Parser.
type Option func(*Parser)

// WithLogger sets the logger used for debug tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) {
		p.logger = logger
	}
}

// New returns a parser over tokens. Syntax errors are sent to reporter as
// they are found; a nil reporter only collects them for Parse's result.
func New(tokens []token.Token, reporter diag.Reporter, options ...Option) *Parser {
	if reporter == nil {
		reporter = diag.Discard
	}
	p := &Parser{tokens: tokens, reporter: reporter}
	for _, opt := range options {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	}
	return p
}

// Parse parses the whole token sequence. The returned statements omit those
// that failed to parse; the error, if any, is a diag.List of every syntax
// error, or ErrNoTokens.
func (p *Parser) Parse() ([]ast.Stmt, error) {
	if len(p.tokens) == 0 {
		return nil, ErrNoTokens
	}
	p.current = 0
	p.errs = nil

	var stmts []ast.Stmt
	for !p.atEnd() {
		stmt, err := p.declaration()
		if err != nil {
			p.report(err)
			p.synchronize()
			continue
		}
		p.logger.Debug("parsed statement", "type", fmt.Sprintf("%T", stmt), "line", stmt.Pos().Line)
		stmts = append(stmts, stmt)
	}
	return stmts, p.errs.Err()
}

func (p *Parser) report(err error) {
	d, ok := diag.As(err)
	if !ok {
		d = diag.Errorf(diag.ParseError, nil, "%s", err)
	}
	p.errs.Report(d)
	p.reporter.Report(d)
}

// synchronize discards tokens until the start of the next statement.
func (p *Parser) synchronize() {
	p.advance()
	for !p.atEnd() {
		switch p.peek().Kind {
		case token.Print, token.Var, token.Function, token.Structure, token.If, token.While, token.Return:
			return
		}
		p.advance()
	}
}

// ----------------------------------------------------------------------------
// Statements

func (p *Parser) declaration() (ast.Stmt, error) {
	switch {
	case p.check(token.Var):
		keyword := p.advance()
		decl, err := p.parameter("Variable name expected.")
		if err != nil {
			return nil, err
		}
		return &ast.Var{Keyword: keyword, Decl: decl}, nil
	case p.check(token.Function) && p.checkAt(1, token.Identifier):
		return p.functionDeclaration()
	case p.check(token.Structure):
		return p.structureDeclaration()
	}
	return p.statement()
}

func (p *Parser) statement() (ast.Stmt, error) {
	switch p.peek().Kind {
	case token.Print:
		keyword := p.advance()
		x, err := p.expression()
		if err != nil {
			return nil, err
		}
		return &ast.Print{Keyword: keyword, X: x}, nil
	case token.If:
		return p.ifStatement()
	case token.While:
		return p.whileStatement()
	case token.BraceLeft:
		lbrace := p.advance()
		stmts, rbrace, err := p.block()
		if err != nil {
			return nil, err
		}
		return &ast.Block{Lbrace: lbrace, Stmts: stmts, Rbrace: rbrace}, nil
	case token.Return:
		return p.returnStatement()
	}

	x, err := p.expression()
	if err != nil {
		return nil, err
	}
	return &ast.ExpressionStmt{X: x}, nil
}

// block parses declarations up to the closing brace. The opening brace has
// been consumed.
func (p *Parser) block() ([]ast.Stmt, token.Token, error) {
	saved := p.noInit
	p.noInit = false
	defer func() { p.noInit = saved }()

	var stmts []ast.Stmt
	for !p.check(token.BraceRight) && !p.atEnd() {
		stmt, err := p.declaration()
		if err != nil {
			return nil, token.Token{}, err
		}
		stmts = append(stmts, stmt)
	}
	rbrace, err := p.expect(token.BraceRight, `Expect "}" to finish a block.`)
	if err != nil {
		return nil, token.Token{}, err
	}
	return stmts, rbrace, nil
}

// parameter parses `name[: Type][= default]`, the shape shared by variable
// declarations, parameters and structure members.
func (p *Parser) parameter(nameMessage string) (*ast.Parameter, error) {
	name, err := p.expect(token.Identifier, nameMessage)
	if err != nil {
		return nil, err
	}
	param := &ast.Parameter{Name: name}
	if p.match(token.Colon) {
		typ, err := p.expect(token.Identifier, "Type name expected.")
		if err != nil {
			return nil, err
		}
		param.Type = &typ
	}
	if p.match(token.Equal) {
		def, err := p.expression()
		if err != nil {
			return nil, err
		}
		param.Default = def
	}
	return param, nil
}

func (p *Parser) functionDeclaration() (ast.Stmt, error) {
	keyword := p.advance()
	name := p.advance()
	params, ret, body, rbrace, err := p.functionRest("function name")
	if err != nil {
		return nil, err
	}
	return &ast.Function{Keyword: keyword, Name: name, Params: params, ReturnType: ret, Body: body, Rbrace: rbrace}, nil
}

// functionRest parses `(params)[: Type] { body }`.
func (p *Parser) functionRest(after string) ([]*ast.Parameter, *token.Token, []ast.Stmt, token.Token, error) {
	var none token.Token
	if _, err := p.expect(token.ParenLeft, fmt.Sprintf(`Expect "(" after %s.`, after)); err != nil {
		return nil, nil, nil, none, err
	}

	var params []*ast.Parameter
	if !p.check(token.ParenRight) {
		for {
			if len(params) >= MaxArgs {
				return nil, nil, nil, none, p.errorAt(p.peek(), "Can't have more than %d parameters.", MaxArgs)
			}
			p.match(token.Var)
			param, err := p.parameter("Parameter name expected.")
			if err != nil {
				return nil, nil, nil, none, err
			}
			params = append(params, param)
			if !p.match(token.Comma) {
				break
			}
		}
	}
	if _, err := p.expect(token.ParenRight, `Expect ")" after parameters.`); err != nil {
		return nil, nil, nil, none, err
	}
	if err := checkDefaultsTrailing(params); err != nil {
		return nil, nil, nil, none, err
	}

	var ret *token.Token
	if p.match(token.Colon) {
		typ, err := p.expect(token.Identifier, `Expect return type after ":".`)
		if err != nil {
			return nil, nil, nil, none, err
		}
		ret = &typ
	}

	if _, err := p.expect(token.BraceLeft, `Expect "{" before function body.`); err != nil {
		return nil, nil, nil, none, err
	}
	body, rbrace, err := p.block()
	if err != nil {
		return nil, nil, nil, none, err
	}
	return params, ret, body, rbrace, nil
}

// checkDefaultsTrailing rejects a parameter without a default that follows
// one with a default.
func checkDefaultsTrailing(params []*ast.Parameter) error {
	seenDefault := false
	for _, param := range params {
		if param.HasDefault() {
			seenDefault = true
			continue
		}
		if seenDefault {
			return diag.At(diag.ParseError, param.Name,
				"Parameters with default value must be at the end of a parameter list.")
		}
	}
	return nil
}

func (p *Parser) structureDeclaration() (ast.Stmt, error) {
	keyword := p.advance()
	name, err := p.expect(token.Identifier, "Structure name expected.")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.BraceLeft, `Expect "{" after structure name.`); err != nil {
		return nil, err
	}

	var members []*ast.Parameter
	seen := make(map[string]bool)
	for !p.check(token.BraceRight) && !p.atEnd() {
		p.match(token.Var)
		member, err := p.parameter("Member name expected.")
		if err != nil {
			return nil, err
		}
		if seen[member.Name.Lexeme] {
			return nil, p.errorAt(member.Name, "Member %q is declared more than once.", member.Name.Lexeme)
		}
		seen[member.Name.Lexeme] = true
		members = append(members, member)
		p.match(token.Comma)
	}
	rbrace, err := p.expect(token.BraceRight, `Expect "}" after structure body.`)
	if err != nil {
		return nil, err
	}
	return &ast.Structure{Keyword: keyword, Name: name, Members: members, Rbrace: rbrace}, nil
}

// condition parses an if/while condition, where a bare structure
// initialization is not allowed.
func (p *Parser) condition() (ast.Expr, error) {
	saved := p.noInit
	p.noInit = true
	defer func() { p.noInit = saved }()
	return p.expression()
}

func (p *Parser) ifStatement() (ast.Stmt, error) {
	keyword := p.advance()
	cond, err := p.condition()
	if err != nil {
		return nil, err
	}
	then, err := p.statement()
	if err != nil {
		return nil, err
	}
	stmt := &ast.If{Keyword: keyword, Cond: cond, Then: then}
	if p.match(token.Else) {
		if stmt.Else, err = p.statement(); err != nil {
			return nil, err
		}
	}
	return stmt, nil
}

func (p *Parser) whileStatement() (ast.Stmt, error) {
	keyword := p.advance()
	cond, err := p.condition()
	if err != nil {
		return nil, err
	}
	body, err := p.statement()
	if err != nil {
		return nil, err
	}
	return &ast.While{Keyword: keyword, Cond: cond, Body: body}, nil
}

// returnStatement parses `return [value]`. The value must start on the same
// line as the keyword.
func (p *Parser) returnStatement() (ast.Stmt, error) {
	keyword := p.advance()
	stmt := &ast.Return{Keyword: keyword}
	if p.atEnd() || p.check(token.BraceRight) || p.peek().Line != keyword.Line {
		return stmt, nil
	}
	value, err := p.expression()
	if err != nil {
		return nil, err
	}
	stmt.Value = value
	return stmt, nil
}

// ----------------------------------------------------------------------------
// Expressions

func (p *Parser) expression() (ast.Expr, error) {
	return p.assignment()
}

func (p *Parser) assignment() (ast.Expr, error) {
	expr, err := p.logical()
	if err != nil {
		return nil, err
	}
	if !p.match(token.Equal) {
		return expr, nil
	}
	equal := p.previous()
	value, err := p.assignment()
	if err != nil {
		return nil, err
	}

	switch target := expr.(type) {
	case *ast.Identifier:
		return &ast.Assign{Name: target.Name, Equal: equal, Value: value}, nil
	case *ast.Get:
		return &ast.Set{Object: target.Object, Name: target.Name, Equal: equal, Value: value}, nil
	}
	return nil, p.errorAt(equal, "Can't assign a non-variable value.")
}

func (p *Parser) logical() (ast.Expr, error) {
	expr, err := p.equality()
	if err != nil {
		return nil, err
	}
	for p.match(token.And, token.Or) {
		op := p.previous()
		right, err := p.equality()
		if err != nil {
			return nil, err
		}
		expr = &ast.Logical{Left: expr, Operator: op, Right: right}
	}
	return expr, nil
}

// binaryLevel parses a left-associative chain of operators over next.
func (p *Parser) binaryLevel(next func() (ast.Expr, error), ops ...token.Kind) (ast.Expr, error) {
	expr, err := next()
	if err != nil {
		return nil, err
	}
	for p.match(ops...) {
		op := p.previous()
		right, err := next()
		if err != nil {
			return nil, err
		}
		expr = &ast.Binary{Left: expr, Operator: op, Right: right}
	}
	return expr, nil
}

func (p *Parser) equality() (ast.Expr, error) {
	return p.binaryLevel(p.comparison, token.EqualEqual, token.BangEqual)
}

func (p *Parser) comparison() (ast.Expr, error) {
	return p.binaryLevel(p.term, token.Greater, token.GreaterEqual, token.Less, token.LessEqual)
}

func (p *Parser) term() (ast.Expr, error) {
	return p.binaryLevel(p.factor, token.Plus, token.Minus)
}

func (p *Parser) factor() (ast.Expr, error) {
	return p.binaryLevel(p.unary, token.Asterisk, token.Slash)
}

func (p *Parser) unary() (ast.Expr, error) {
	if p.match(token.Minus, token.Not, token.Typeof) {
		op := p.previous()
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Operator: op, Right: right}, nil
	}
	return p.postfix()
}

func (p *Parser) postfix() (ast.Expr, error) {
	expr, err := p.primary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.match(token.ParenLeft):
			if expr, err = p.finishCall(expr); err != nil {
				return nil, err
			}
		case p.match(token.Dot):
			name, err := p.expect(token.Identifier, `Expect member name after ".".`)
			if err != nil {
				return nil, err
			}
			expr = &ast.Get{Object: expr, Name: name}
		default:
			return expr, nil
		}
	}
}

func (p *Parser) finishCall(callee ast.Expr) (ast.Expr, error) {
	lparen := p.previous()
	saved := p.noInit
	p.noInit = false
	defer func() { p.noInit = saved }()

	var args []ast.Expr
	if !p.check(token.ParenRight) {
		for {
			if len(args) >= MaxArgs {
				return nil, p.errorAt(p.peek(), "Can't have more than %d arguments.", MaxArgs)
			}
			arg, err := p.expression()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if !p.match(token.Comma) {
				break
			}
		}
	}
	rparen, err := p.expect(token.ParenRight, `")" expected after function arguments.`)
	if err != nil {
		return nil, err
	}
	return &ast.Call{Callee: callee, Lparen: lparen, Args: args, Rparen: rparen}, nil
}

func (p *Parser) primary() (ast.Expr, error) {
	tok := p.peek()
	switch {
	case !p.atEnd() && tok.Kind.IsLiteral():
		p.advance()
		return &ast.Literal{Token: tok, Value: tok.Literal}, nil

	case p.check(token.Identifier):
		p.advance()
		if p.startsStructureInit() {
			return p.structureInit(tok)
		}
		return &ast.Identifier{Name: tok}, nil

	case p.check(token.Function):
		p.advance()
		params, ret, body, rbrace, err := p.functionRest(`"function"`)
		if err != nil {
			return nil, err
		}
		return &ast.FunctionLiteral{Keyword: tok, Params: params, ReturnType: ret, Body: body, Rbrace: rbrace}, nil

	case p.check(token.ParenLeft):
		p.advance()
		return p.grouping(tok)
	}

	if p.atEnd() {
		return nil, p.errorAt(p.previous(), "Expression expected.")
	}
	return nil, p.errorAt(tok, "Expression expected.")
}

func (p *Parser) grouping(lparen token.Token) (ast.Expr, error) {
	saved := p.noInit
	p.noInit = false
	defer func() { p.noInit = saved }()

	inner, err := p.expression()
	if err != nil {
		return nil, err
	}
	if !p.check(token.ParenRight) {
		return nil, p.errorAt(lparen, "Unclosed parenthesis.")
	}
	rparen := p.advance()
	return &ast.Grouping{Lparen: lparen, Inner: inner, Rparen: rparen}, nil
}

// startsStructureInit reports whether the identifier just consumed is
// followed by `{ }` or `{ name :`.
func (p *Parser) startsStructureInit() bool {
	if p.noInit || !p.check(token.BraceLeft) {
		return false
	}
	if p.checkAt(1, token.BraceRight) {
		return true
	}
	return p.checkAt(1, token.Identifier) && p.checkAt(2, token.Colon)
}

func (p *Parser) structureInit(name token.Token) (ast.Expr, error) {
	p.advance() // {
	saved := p.noInit
	p.noInit = false
	defer func() { p.noInit = saved }()

	lit := &ast.StructureInit{Name: name}
	seen := make(map[string]bool)
	for !p.check(token.BraceRight) && !p.atEnd() {
		member, err := p.expect(token.Identifier, "Member name expected.")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.Colon, `Expect ":" after member name.`); err != nil {
			return nil, err
		}
		value, err := p.expression()
		if err != nil {
			return nil, err
		}
		if seen[member.Lexeme] {
			return nil, p.errorAt(member, "Member %q is initialized more than once.", member.Lexeme)
		}
		seen[member.Lexeme] = true
		lit.Members = append(lit.Members, &ast.MemberInit{Name: member, Value: value})
		if !p.match(token.Comma) {
			break
		}
	}
	rbrace, err := p.expect(token.BraceRight, `Expect "}" after structure initialization.`)
	if err != nil {
		return nil, err
	}
	lit.Rbrace = rbrace
	return lit, nil
}

// ----------------------------------------------------------------------------
// Token cursor

func (p *Parser) atEnd() bool {
	return p.current >= len(p.tokens)
}

func (p *Parser) peek() token.Token {
	return p.peekAt(0)
}

func (p *Parser) peekAt(n int) token.Token {
	if p.current+n >= len(p.tokens) {
		return token.Token{Kind: token.Invalid}
	}
	return p.tokens[p.current+n]
}

func (p *Parser) previous() token.Token {
	if p.current == 0 {
		return p.tokens[0]
	}
	return p.tokens[p.current-1]
}

func (p *Parser) advance() token.Token {
	if !p.atEnd() {
		p.current++
	}
	return p.previous()
}

func (p *Parser) check(kind token.Kind) bool {
	return !p.atEnd() && p.peek().Kind == kind
}

func (p *Parser) checkAt(n int, kind token.Kind) bool {
	return p.current+n < len(p.tokens) && p.peekAt(n).Kind == kind
}

func (p *Parser) match(kinds ...token.Kind) bool {
	for _, kind := range kinds {
		if p.check(kind) {
			p.advance()
			return true
		}
	}
	return false
}

// expect consumes a token of the given kind or fails with message, anchored
// at the offending token (or the last token at end of input).
func (p *Parser) expect(kind token.Kind, message string) (token.Token, error) {
	if p.check(kind) {
		return p.advance(), nil
	}
	if p.atEnd() {
		return token.Token{}, p.errorAt(p.previous(), "%s", message)
	}
	return token.Token{}, p.errorAt(p.peek(), "%s", message)
}

func (p *Parser) errorAt(tok token.Token, format string, args ...any) *diag.Error {
	return diag.At(diag.ParseError, tok, format, args...)
}
