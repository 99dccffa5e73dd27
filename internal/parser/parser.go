package parser

import (
	"fmt"
	"strconv"

	"github.com/sipa/gramtropy/internal/graph"
)

// ParseError reports a syntax error together with the 0-based line/column
// the lexer had reached, matching the "<message> on line L, column C"
// format original_source/src/parser.cpp's Parse() produces.
type ParseError struct {
	Msg  string
	Line int
	Col  int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s on line %d, column %d", e.Msg, e.Line, e.Col)
}

type nodeKind int

const (
	kindExpr nodeKind = iota
	kindPipe
)

type seqNode struct {
	kind nodeKind
	ref  graph.Ref
}

// Parser holds the symbol table a grammar program accumulates (named
// nodes, created eagerly as UNDEF on first mention and bound later by
// Define), mirroring Parser::symbols in original_source/src/parser.cpp.
type Parser struct {
	lex     *Lexer
	g       *graph.Graph
	symbols map[string]graph.Ref
	order   []string
}

// NewParser returns a Parser reading from lex and building nodes into g.
// The implicit "empty"/"none" symbols are pre-bound, as in the original.
func NewParser(lex *Lexer, g *graph.Graph) *Parser {
	p := &Parser{lex: lex, g: g, symbols: map[string]graph.Ref{}}
	p.symbols["empty"] = g.NewEmpty()
	p.symbols["none"] = g.NewNone()
	return p
}

func (p *Parser) errorf(format string, args ...any) error {
	return &ParseError{Msg: fmt.Sprintf(format, args...), Line: p.lex.Line(), Col: p.lex.Col()}
}

func (p *Parser) symbol(name string) graph.Ref {
	if r, ok := p.symbols[name]; ok {
		return r
	}
	r := p.g.NewUndefined()
	p.symbols[name] = r
	p.order = append(p.order, name)
	return r
}

// parseDict reads a run of SYMBOL/STRING tokens (each taken literally, not
// resolved against the symbol table) into a DICT node, the atom form
// dict(a b "c" ...), per Parser::ParseDict in
// original_source/src/parser.cpp.
func (p *Parser) parseDict() (graph.Ref, error) {
	var entries []string
	for {
		t, err := p.lex.PeekType()
		if err != nil {
			return graph.Ref{}, err
		}
		if t != TokSymbol && t != TokString {
			break
		}
		tok, err := p.lex.Get()
		if err != nil {
			return graph.Ref{}, err
		}
		entries = append(entries, tok.Text)
	}
	return p.g.NewDict(entries), nil
}

// parseLenLimitArgs reads "( args... )" for a named-argument atom like
// min_length(N, expr), returning the integer N and the sub-expression ref.
func (p *Parser) parseLenLimitArgs() (n int, inner graph.Ref, err error) {
	if err = p.expect(TokOpenBrace, "'(' expected"); err != nil {
		return
	}
	t, err := p.lex.Get()
	if err != nil {
		return
	}
	if t.Type != TokInt {
		err = p.errorf("integer expected")
		return
	}
	n, convErr := strconv.Atoi(t.Text)
	if convErr != nil {
		err = p.errorf("invalid integer %q", t.Text)
		return
	}
	if err = p.expect(TokComma, "',' expected"); err != nil {
		return
	}
	inner, err = p.parseExpression()
	if err != nil {
		return
	}
	if err = p.expect(TokCloseBrace, "')' expected"); err != nil {
		return
	}
	return n, inner, nil
}

func (p *Parser) expect(t TokenType, msg string) error {
	got, err := p.lex.PeekType()
	if err != nil {
		return err
	}
	if got != t {
		return p.errorf(msg)
	}
	return p.lex.Skip()
}

// parseExpression parses a full disjunction of concatenations with postfix
// ?, *, + binding to the immediately preceding atom, mirroring
// Parser::ParseExpression in original_source/src/parser.cpp.
func (p *Parser) parseExpression() (graph.Ref, error) {
	var nodes []seqNode

	for {
		t, err := p.lex.PeekType()
		if err != nil {
			return graph.Ref{}, err
		}
		switch t {
		case TokOpenBrace:
			if err := p.lex.Skip(); err != nil {
				return graph.Ref{}, err
			}
			res, err := p.parseExpression()
			if err != nil {
				return graph.Ref{}, err
			}
			if err := p.expect(TokCloseBrace, "unbalanced braces"); err != nil {
				return graph.Ref{}, err
			}
			nodes = append(nodes, seqNode{kindExpr, res})
		case TokString:
			tok, err := p.lex.Get()
			if err != nil {
				return graph.Ref{}, err
			}
			nodes = append(nodes, seqNode{kindExpr, p.g.NewString(tok.Text)})
		case TokRegexp:
			tok, err := p.lex.Get()
			if err != nil {
				return graph.Ref{}, err
			}
			ref, err := p.compileRegexp(tok.Text)
			if err != nil {
				return graph.Ref{}, err
			}
			nodes = append(nodes, seqNode{kindExpr, ref})
		case TokSymbol:
			tok, err := p.lex.Get()
			if err != nil {
				return graph.Ref{}, err
			}
			peek, err := p.lex.PeekType()
			if err != nil {
				return graph.Ref{}, err
			}
			switch {
			case tok.Text == "dedup" && peek == TokOpenBrace:
				if err := p.lex.Skip(); err != nil {
					return graph.Ref{}, err
				}
				res, err := p.parseExpression()
				if err != nil {
					return graph.Ref{}, err
				}
				if err := p.expect(TokCloseBrace, "')' expected"); err != nil {
					return graph.Ref{}, err
				}
				nodes = append(nodes, seqNode{kindExpr, p.g.NewDedup(res)})
			case tok.Text == "dict" && peek == TokOpenBrace:
				if err := p.lex.Skip(); err != nil {
					return graph.Ref{}, err
				}
				res, err := p.parseDict()
				if err != nil {
					return graph.Ref{}, err
				}
				if err := p.expect(TokCloseBrace, "')' expected"); err != nil {
					return graph.Ref{}, err
				}
				nodes = append(nodes, seqNode{kindExpr, res})
			case tok.Text == "min_length" && peek == TokOpenBrace:
				n, inner, err := p.parseLenLimitArgs()
				if err != nil {
					return graph.Ref{}, err
				}
				nodes = append(nodes, seqNode{kindExpr, p.g.NewLenLimit(n, -1, inner)})
			case tok.Text == "max_length" && peek == TokOpenBrace:
				n, inner, err := p.parseLenLimitArgs()
				if err != nil {
					return graph.Ref{}, err
				}
				nodes = append(nodes, seqNode{kindExpr, p.g.NewLenLimit(0, n, inner)})
			default:
				nodes = append(nodes, seqNode{kindExpr, p.g.Retain(p.symbol(tok.Text))})
			}
		case TokPipe:
			if err := p.lex.Skip(); err != nil {
				return graph.Ref{}, err
			}
			nodes = append(nodes, seqNode{kindPipe, p.symbols["none"]})
		case TokAsterisk:
			if len(nodes) == 0 || nodes[len(nodes)-1].kind != kindExpr {
				goto assemble
			}
			if err := p.lex.Skip(); err != nil {
				return graph.Ref{}, err
			}
			nodes[len(nodes)-1].ref = p.star(nodes[len(nodes)-1].ref)
		case TokPlus:
			if len(nodes) == 0 || nodes[len(nodes)-1].kind != kindExpr {
				goto assemble
			}
			if err := p.lex.Skip(); err != nil {
				return graph.Ref{}, err
			}
			nodes[len(nodes)-1].ref = p.plus(nodes[len(nodes)-1].ref)
		case TokQuestion:
			if len(nodes) == 0 || nodes[len(nodes)-1].kind != kindExpr {
				goto assemble
			}
			if err := p.lex.Skip(); err != nil {
				return graph.Ref{}, err
			}
			nodes[len(nodes)-1].ref = p.g.NewDisjunct2(p.g.Retain(p.symbols["empty"]), nodes[len(nodes)-1].ref)
		default:
			goto assemble
		}
	}

assemble:
	var disj, cat []graph.Ref
	for _, n := range nodes {
		switch n.kind {
		case kindExpr:
			cat = append(cat, n.ref)
		case kindPipe:
			disj = append(disj, p.g.NewConcat(cat))
			cat = nil
		}
	}
	disj = append(disj, p.g.NewConcat(cat))
	return p.g.NewDisjunct(disj), nil
}

// star builds "inner*" as n := (empty | inner n), the same self-reference
// trick ParseExpression's ASTERISK case uses in the original: n's body
// holds one of its own two live references, the other being the handle
// this function returns.
func (p *Parser) star(inner graph.Ref) graph.Ref {
	n := p.g.NewUndefined()
	body := p.g.NewConcat2(inner, p.g.Retain(n))
	p.g.Define(n, p.g.NewDisjunct2(p.g.Retain(p.symbols["empty"]), body))
	return n
}

// plus builds "inner+" as n := (inner | inner n), consuming the caller's
// inner handle in the bare first branch and a retained copy in the
// concatenation.
func (p *Parser) plus(inner graph.Ref) graph.Ref {
	n := p.g.NewUndefined()
	innerCopy := p.g.Retain(inner)
	body := p.g.NewConcat2(innerCopy, p.g.Retain(n))
	p.g.Define(n, p.g.NewDisjunct2(inner, body))
	return n
}

// parseStatement parses one "SYMBOL = expr ;" binding.
func (p *Parser) parseStatement() error {
	t, err := p.lex.PeekType()
	if err != nil {
		return err
	}
	if t != TokSymbol {
		return p.errorf("symbol expected")
	}
	tok, err := p.lex.Get()
	if err != nil {
		return err
	}
	sym := p.symbol(tok.Text)
	if p.g.IsDefined(sym) {
		return p.errorf("duplicate definition for symbol %q", tok.Text)
	}

	if err := p.expect(TokEquals, "equals sign expected"); err != nil {
		return err
	}

	expr, err := p.parseExpression()
	if err != nil {
		return err
	}

	if err := p.expect(TokSemicolon, "semicolon expected"); err != nil {
		return err
	}

	p.g.Define(sym, expr)
	return nil
}

// ParseProgram parses a whole grammar program: a sequence of statements
// followed by end-of-input, returning the "main" symbol's Ref.
func (p *Parser) ParseProgram() (graph.Ref, error) {
	for {
		t, err := p.lex.PeekType()
		if err != nil {
			return graph.Ref{}, err
		}
		if t == TokEnd {
			break
		}
		if err := p.parseStatement(); err != nil {
			return graph.Ref{}, err
		}
	}
	for _, name := range p.order {
		if !p.g.IsDefined(p.symbols[name]) {
			return graph.Ref{}, fmt.Errorf("undefined symbol %q", name)
		}
	}
	main, ok := p.symbols["main"]
	if !ok {
		return graph.Ref{}, fmt.Errorf("no 'main' symbol defined")
	}
	return main, nil
}

// Parse parses src into g and returns the fully defined, optimized "main"
// reference, matching the contract of Parse() in
// original_source/src/parser.cpp.
func Parse(g *graph.Graph, src []byte) (graph.Ref, error) {
	lex := New(src)
	p := NewParser(lex, g)
	main, err := p.ParseProgram()
	if err != nil {
		return graph.Ref{}, err
	}
	if !g.IsDefined(main) {
		return graph.Ref{}, fmt.Errorf("main is not defined")
	}
	if !g.FullyDefined() {
		return graph.Ref{}, fmt.Errorf("undefined symbol remains")
	}
	g.Optimize()
	return main, nil
}
