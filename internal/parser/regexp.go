package parser

import (
	"fmt"

	"github.com/sipa/gramtropy/internal/graph"
)

// regexCompiler is a small recursive-descent compiler for the /.../
// sublanguage: concatenation, alternation, groups, character classes with
// ranges and escaped members, \d, \n, and postfix *, +, ?. It builds Graph
// nodes directly, the same shape as Parser.parseExpression, rather than
// an intermediate AST, since every regexp production has a direct
// Graph-node counterpart.
type regexCompiler struct {
	p   *Parser
	src []byte
	pos int
}

func (p *Parser) compileRegexp(src string) (graph.Ref, error) {
	c := &regexCompiler{p: p, src: []byte(src)}
	ref, err := c.expr()
	if err != nil {
		return graph.Ref{}, err
	}
	if c.pos != len(c.src) {
		return graph.Ref{}, p.errorf("unexpected character %q in regexp", c.src[c.pos])
	}
	return ref, nil
}

func (c *regexCompiler) peek() (byte, bool) {
	if c.pos >= len(c.src) {
		return 0, false
	}
	return c.src[c.pos], true
}

// expr := cat ('|' cat)*
func (c *regexCompiler) expr() (graph.Ref, error) {
	first, err := c.cat()
	if err != nil {
		return graph.Ref{}, err
	}
	disj := []graph.Ref{first}
	for {
		b, ok := c.peek()
		if !ok || b != '|' {
			break
		}
		c.pos++
		next, err := c.cat()
		if err != nil {
			return graph.Ref{}, err
		}
		disj = append(disj, next)
	}
	return c.p.g.NewDisjunct(disj), nil
}

// cat := postfixAtom*
func (c *regexCompiler) cat() (graph.Ref, error) {
	var parts []graph.Ref
	for {
		b, ok := c.peek()
		if !ok || b == '|' || b == ')' {
			break
		}
		ref, err := c.postfixAtom()
		if err != nil {
			return graph.Ref{}, err
		}
		parts = append(parts, ref)
	}
	return c.p.g.NewConcat(parts), nil
}

// postfixAtom := atom ('*' | '+' | '?')?
func (c *regexCompiler) postfixAtom() (graph.Ref, error) {
	ref, err := c.atom()
	if err != nil {
		return graph.Ref{}, err
	}
	b, ok := c.peek()
	if !ok {
		return ref, nil
	}
	switch b {
	case '*':
		c.pos++
		return c.p.star(ref), nil
	case '+':
		c.pos++
		return c.p.plus(ref), nil
	case '?':
		c.pos++
		return c.p.g.NewDisjunct2(c.p.g.Retain(c.p.symbols["empty"]), ref), nil
	}
	return ref, nil
}

// atom := '(' expr ')' | '[' class ']' | '\d' | '\' ESC | CHAR
func (c *regexCompiler) atom() (graph.Ref, error) {
	b, ok := c.peek()
	if !ok {
		return graph.Ref{}, c.p.errorf("unexpected end of regexp")
	}
	switch b {
	case '(':
		c.pos++
		ref, err := c.expr()
		if err != nil {
			return graph.Ref{}, err
		}
		if b2, ok := c.peek(); !ok || b2 != ')' {
			return graph.Ref{}, c.p.errorf("unbalanced parenthesis in regexp")
		}
		c.pos++
		return ref, nil
	case '[':
		c.pos++
		return c.class()
	case '\\':
		c.pos++
		e, ok := c.peek()
		if !ok {
			return graph.Ref{}, c.p.errorf("dangling escape in regexp")
		}
		c.pos++
		switch e {
		case 'd':
			return c.p.g.NewDict(digitStrings()), nil
		case 'n':
			return c.p.g.NewString("\n"), nil
		default:
			return c.p.g.NewString(string(e)), nil
		}
	default:
		c.pos++
		return c.p.g.NewString(string(b)), nil
	}
}

// class parses the body of a [...] character class, already past the
// opening bracket, and returns a DICT of its single-character members.
func (c *regexCompiler) class() (graph.Ref, error) {
	var members []string
	seen := map[byte]bool{}
	add := func(b byte) {
		if !seen[b] {
			seen[b] = true
			members = append(members, string(b))
		}
	}
	for {
		b, ok := c.peek()
		if !ok {
			return graph.Ref{}, c.p.errorf("unterminated character class")
		}
		if b == ']' {
			c.pos++
			break
		}
		var lo byte
		if b == '\\' {
			c.pos++
			e, ok := c.peek()
			if !ok {
				return graph.Ref{}, c.p.errorf("dangling escape in character class")
			}
			c.pos++
			if e == 'd' {
				for _, d := range digitStrings() {
					add(d[0])
				}
				continue
			}
			if e == 'n' {
				lo = '\n'
			} else {
				lo = e
			}
		} else {
			c.pos++
			lo = b
		}
		if nb, ok := c.peek(); ok && nb == '-' {
			if nb2, ok2 := c.peekAt(c.pos + 1); ok2 && nb2 != ']' {
				c.pos++ // consume '-'
				hi := nb2
				c.pos++
				if hi == '\\' {
					e, ok3 := c.peek()
					if !ok3 {
						return graph.Ref{}, c.p.errorf("dangling escape in character class range")
					}
					hi = e
					c.pos++
				}
				if hi < lo {
					return graph.Ref{}, c.p.errorf("invalid character range %c-%c", lo, hi)
				}
				for ch := lo; ; ch++ {
					add(ch)
					if ch == hi {
						break
					}
				}
				continue
			}
		}
		add(lo)
	}
	return c.p.g.NewDict(members), nil
}

func (c *regexCompiler) peekAt(pos int) (byte, bool) {
	if pos >= len(c.src) {
		return 0, false
	}
	return c.src[pos], true
}

func digitStrings() []string {
	out := make([]string, 10)
	for i := 0; i < 10; i++ {
		out[i] = fmt.Sprintf("%d", i)
	}
	return out
}
