// Package parser tokenizes raw input lines and resolves command words
// against a candidate set by exact name, abbreviation or edit distance.
package parser

import (
	"strings"
	"unicode"

	"github.com/udisondev/mudcore/internal/errs"
)

// Config controls tokenization and matching.
type Config struct {
	Quotes          []rune
	Escape          rune
	CommentPrefixes []string
	// MinAbbrev is the shortest prefix accepted as an abbreviation.
	MinAbbrev int
	// MaxEditDistance bounds fuzzy matching; 0 disables it.
	MaxEditDistance int
}

func DefaultConfig() Config {
	return Config{
		Quotes:          []rune{'"', '\''},
		Escape:          '\\',
		CommentPrefixes: []string{"#"},
		MinAbbrev:       1,
		MaxEditDistance: 2,
	}
}

// Token is one word of input.
type Token struct {
	Text   string
	Quoted bool
	// Start and End are byte offsets in the input, quotes included.
	Start int
	End   int
}

// ParsedCommand is the result of Parse.
type ParsedCommand struct {
	Raw string
	// Verb is the first word, lower-cased, as typed.
	Verb string
	// Name is the resolved candidate, or Verb when nothing matched.
	Name     string
	Match    MatchKind
	Args     []string
	Tokens   []Token
	Argument string
	Comment  bool
	Empty    bool
}

// Parser is safe for concurrent use; it holds only configuration.
type Parser struct {
	cfg Config
}

func New(cfg Config) *Parser {
	if cfg.MinAbbrev < 1 {
		cfg.MinAbbrev = 1
	}
	return &Parser{cfg: cfg}
}

func (p *Parser) Config() Config { return p.cfg }

func (p *Parser) isQuote(r rune) bool {
	for _, q := range p.cfg.Quotes {
		if q == r {
			return true
		}
	}
	return false
}

// Tokenize splits input into whitespace-separated words. A quote opening
// a word groups everything up to the closing quote into one token; quotes
// inside a word are literal. The escape character makes the next rune literal.
func (p *Parser) Tokenize(input string) ([]Token, error) {
	var (
		tokens  []Token
		buf     strings.Builder
		inToken bool
		quoted  bool
		quote   rune
		start   int
		escaped bool
	)
	flush := func(end int) {
		tokens = append(tokens, Token{Text: buf.String(), Quoted: quoted, Start: start, End: end})
		buf.Reset()
		inToken, quoted = false, false
	}

	for i, r := range input {
		switch {
		case escaped:
			buf.WriteRune(r)
			escaped = false
		case p.cfg.Escape != 0 && r == p.cfg.Escape:
			if !inToken {
				inToken, start = true, i
			}
			escaped = true
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				buf.WriteRune(r)
			}
		case p.isQuote(r) && !inToken:
			inToken, start = true, i
			quote, quoted = r, true
		case unicode.IsSpace(r):
			if inToken {
				flush(i)
			}
		default:
			if !inToken {
				inToken, start = true, i
			}
			buf.WriteRune(r)
		}
	}

	if quote != 0 {
		return nil, errs.Parsef("unterminated quote starting at position %d", start)
	}
	if escaped {
		buf.WriteRune(p.cfg.Escape)
	}
	if inToken {
		flush(len(input))
	}
	return tokens, nil
}

// Parse tokenizes a line and, when known is non-empty, resolves the verb
// against it. An unresolved verb is not an error: the caller decides.
func (p *Parser) Parse(input string, known ...string) (*ParsedCommand, error) {
	pc := &ParsedCommand{Raw: input}

	line := strings.TrimSpace(input)
	if line == "" {
		pc.Empty = true
		return pc, nil
	}
	for _, prefix := range p.cfg.CommentPrefixes {
		if prefix != "" && strings.HasPrefix(line, prefix) {
			pc.Comment = true
			return pc, nil
		}
	}

	tokens, err := p.Tokenize(line)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		pc.Empty = true
		return pc, nil
	}

	pc.Tokens = tokens
	pc.Verb = strings.ToLower(tokens[0].Text)
	pc.Name = pc.Verb
	pc.Argument = strings.TrimSpace(line[tokens[0].End:])
	pc.Args = make([]string, 0, len(tokens)-1)
	for _, t := range tokens[1:] {
		pc.Args = append(pc.Args, t.Text)
	}

	if len(known) > 0 {
		if m, ok := p.Match(pc.Verb, known); ok {
			pc.Name = m.Name
			pc.Match = m.Kind
		}
	}
	return pc, nil
}
