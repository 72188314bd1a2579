package scanner

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/canvaz-lang/canvaz/diag"
	"github.com/canvaz-lang/canvaz/token"
)

const eof = rune(0)

// Scanner turns source text into tokens in a single left-to-right pass.
// A Scanner may be reused; each call to Scan starts from a clean state.
type Scanner struct {
	reporter diag.Reporter
	logger   *slog.Logger

	src    string
	tokens []token.Token

	start   int // absolute offset of the token being scanned
	current int // absolute byte offset of the next rune
	column  int // column of the next rune, counted in runes
	line    int

	startColumn int
	startLine   int
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithLogger sets the logger used for debug tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scanner) {
		s.logger = logger
	}
}

// New creates a scanner that reports errors to reporter.
// A nil reporter drops errors.
func New(reporter diag.Reporter, options ...Option) *Scanner {
	if reporter == nil {
		reporter = diag.Discard
	}
	s := &Scanner{reporter: reporter}
	for _, opt := range options {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	}
	return s
}

// Scan tokenizes src. Errors are reported per token and scanning resumes
// with the next token, so one bad lexeme does not hide later ones.
func (s *Scanner) Scan(src string) []token.Token {
	s.src = src
	s.tokens = nil
	s.start, s.current, s.column = 0, 0, 0
	s.line = 1

	for !s.atEnd() {
		s.start = s.current
		s.startColumn = s.column
		s.startLine = s.line
		if err := s.scanToken(); err != nil {
			s.logger.Debug("scan error", "line", err.Range.Line(), "message", err.Message)
			s.reporter.Report(err)
		}
	}
	return s.tokens
}

func (s *Scanner) scanToken() *diag.Error {
	ch := s.advance()

	switch ch {
	case ' ', '\t', '\r':
		return nil
	case '\n':
		s.newline()
		return nil
	case '#':
		if s.match('<') {
			return s.blockComment()
		}
		s.lineComment()
		return nil

	case '+':
		s.add(token.Plus, nil)
	case '-':
		s.add(token.Minus, nil)
	case '*':
		s.add(token.Asterisk, nil)
	case '/':
		s.add(token.Slash, nil)
	case '=':
		s.add(s.choose('=', token.EqualEqual, token.Equal), nil)
	case '!':
		if !s.match('=') {
			return s.errorf("'!' is invalid alone.")
		}
		s.add(token.BangEqual, nil)
	case '>':
		s.add(s.choose('=', token.GreaterEqual, token.Greater), nil)
	case '<':
		s.add(s.choose('=', token.LessEqual, token.Less), nil)

	case '(':
		s.add(token.ParenLeft, nil)
	case ')':
		s.add(token.ParenRight, nil)
	case '[':
		s.add(token.BracketLeft, nil)
	case ']':
		s.add(token.BracketRight, nil)
	case '{':
		s.add(token.BraceLeft, nil)
	case '}':
		s.add(token.BraceRight, nil)
	case ':':
		s.add(token.Colon, nil)
	case ',':
		s.add(token.Comma, nil)
	case '.':
		s.add(token.Dot, nil)

	case '"':
		return s.string()

	default:
		switch {
		case isDigit(ch):
			s.number()
		case unicode.IsLetter(ch):
			s.identifier()
		default:
			return s.errorf("Invalid token.")
		}
	}
	return nil
}

func (s *Scanner) identifier() {
	for isAlphaNumeric(s.peek()) {
		s.advance()
	}
	text := s.lexeme()
	kind := token.Lookup(text)
	switch kind {
	case token.True:
		s.add(kind, true)
	case token.False:
		s.add(kind, false)
	default:
		s.add(kind, nil)
	}
}

// string scans a double-quoted literal. The opening quote has been consumed.
// An unclosed literal is reported at the opening quote and scanning resumes
// on the line after it.
func (s *Scanner) string() *diag.Error {
	opening := s.current - 1
	openColumn, openLine := s.startColumn, s.startLine

	for s.peek() != '"' {
		if s.atEnd() {
			err := diag.Errorf(diag.ScanError, token.RangeOf(token.Token{
				Lexeme: `"`, Start: openColumn, End: openColumn + 1, Line: openLine, Kind: token.Invalid,
			}), "Unclosed string.")
			s.resumeAfterLine(opening, openColumn, openLine)
			return err
		}
		if s.advance() == '\n' {
			s.newline()
		}
	}
	s.advance() // closing quote

	value := s.src[s.start+1 : s.current-1]
	s.add(token.String, value)
	return nil
}

// resumeAfterLine rewinds the scanner to the end of the line holding offset.
func (s *Scanner) resumeAfterLine(offset, column, line int) {
	rest := s.src[offset:]
	nl := strings.IndexByte(rest, '\n')
	if nl < 0 {
		s.current = len(s.src)
		return
	}
	s.current = offset + nl
	s.column = column + utf8.RuneCountInString(rest[:nl])
	s.line = line
}

// number scans digits[.digits][f|i|u]. A value that fails to parse is
// silently stored as zero.
func (s *Scanner) number() {
	hasDot := false
	s.skipDigits()
	if s.peek() == '.' && isDigit(s.peekNext()) {
		s.advance()
		s.skipDigits()
		hasDot = true
	}

	text := s.lexeme()
	kind := kindFromSuffix(s.peek(), hasDot)
	if isNumberSuffix(s.peek()) {
		s.advance()
	}

	switch kind {
	case token.FloatNumber:
		v, _ := strconv.ParseFloat(text, 64)
		s.add(kind, v)
	case token.UIntegerNumber:
		v, _ := strconv.ParseUint(text, 10, 64)
		s.add(kind, v)
	default:
		v, _ := strconv.ParseInt(text, 10, 64)
		s.add(kind, v)
	}
}

func (s *Scanner) skipDigits() {
	for isDigit(s.peek()) {
		s.advance()
	}
}

func (s *Scanner) lineComment() {
	for s.peek() != '\n' && !s.atEnd() {
		s.advance()
	}
}

// blockComment skips a #< ... ># comment. Nested blocks must be balanced.
func (s *Scanner) blockComment() *diag.Error {
	opening := s.errorf("Unclosed comment.")
	depth := 1
	for depth > 0 {
		if s.atEnd() {
			return opening
		}
		switch {
		case s.peek() == '>' && s.peekNext() == '#':
			s.advance()
			s.advance()
			depth--
		case s.peek() == '#' && s.peekNext() == '<':
			s.advance()
			s.advance()
			depth++
		default:
			if s.advance() == '\n' {
				s.newline()
			}
		}
	}
	return nil
}

func (s *Scanner) add(kind token.Kind, literal any) {
	tok := s.makeToken(kind, literal)
	s.tokens = append(s.tokens, tok)
	s.logger.Debug("token", "lexeme", tok.Lexeme, "kind", tok.Kind.String(), "line", tok.Line)
}

// makeToken builds a token from the text scanned since s.start.
func (s *Scanner) makeToken(kind token.Kind, literal any) token.Token {
	return token.Token{
		Lexeme:  s.lexeme(),
		Start:   s.startColumn,
		End:     s.column,
		Line:    s.startLine,
		Kind:    kind,
		Literal: literal,
	}
}

func (s *Scanner) errorf(format string, args ...any) *diag.Error {
	end := s.column
	if s.line != s.startLine {
		end = s.startColumn + 1
	}
	tok := token.Token{Lexeme: s.lexeme(), Start: s.startColumn, End: end, Line: s.startLine}
	return diag.At(diag.ScanError, tok, format, args...)
}

func (s *Scanner) lexeme() string {
	return s.src[s.start:s.current]
}

func (s *Scanner) newline() {
	s.line++
	s.column = 0
}

func (s *Scanner) atEnd() bool {
	return s.current >= len(s.src)
}

func (s *Scanner) advance() rune {
	if s.atEnd() {
		return eof
	}
	r, size := utf8.DecodeRuneInString(s.src[s.current:])
	s.current += size
	s.column++
	return r
}

func (s *Scanner) match(expected rune) bool {
	if s.atEnd() || s.peek() != expected {
		return false
	}
	s.advance()
	return true
}

func (s *Scanner) choose(next rune, matched, otherwise token.Kind) token.Kind {
	if s.match(next) {
		return matched
	}
	return otherwise
}

func (s *Scanner) peek() rune {
	if s.atEnd() {
		return eof
	}
	r, _ := utf8.DecodeRuneInString(s.src[s.current:])
	return r
}

func (s *Scanner) peekNext() rune {
	if s.atEnd() {
		return eof
	}
	_, size := utf8.DecodeRuneInString(s.src[s.current:])
	if s.current+size >= len(s.src) {
		return eof
	}
	r, _ := utf8.DecodeRuneInString(s.src[s.current+size:])
	return r
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isAlphaNumeric(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) }

func isNumberSuffix(r rune) bool { return r == 'f' || r == 'i' || r == 'u' }

func kindFromSuffix(suffix rune, hasDot bool) token.Kind {
	switch suffix {
	case 'f':
		return token.FloatNumber
	case 'i':
		return token.IntegerNumber
	case 'u':
		return token.UIntegerNumber
	}
	if hasDot {
		return token.FloatNumber
	}
	return token.IntegerNumber
}
