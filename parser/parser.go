// Copyright 2026 The etlc Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package parser implements a recursive-descent parser for the SPSS-like
// source language: a tokenizer feeds a per-command dispatcher, the way the
// teacher's SQL parser dispatches parseStatement on the leading keyword
// token to one handler per statement kind.
package parser

import (
	"fmt"

	"github.com/spf13/cast"

	"github.com/magicspik3/etlc/ast"
	"github.com/magicspik3/etlc/ir"
	"github.com/magicspik3/etlc/ir/expression"
	"github.com/magicspik3/etlc/lexer"
	"github.com/magicspik3/etlc/token"
)

// Precedence levels for the expression Pratt parser.
const (
	_ int = iota
	lowest
	or
	and
	equals
	compare
	sum
	product
	prefix
	call
)

var precedences = map[token.Type]int{
	token.OR:    or,
	token.AND:   and,
	token.EQ:    equals,
	token.NEQ:   equals,
	token.LT:    compare,
	token.GT:    compare,
	token.LTE:   compare,
	token.GTE:   compare,
	token.PLUS:  sum,
	token.MINUS: sum,
	token.ASTERISK: product,
	token.SLASH:    product,
}

type (
	prefixParseFn func() (expression.Expression, error)
	infixParseFn  func(expression.Expression) (expression.Expression, error)
)

// Parser turns a token stream into an ordered sequence of ast.Command
// nodes. It does not recover from errors: the first one aborts.
type Parser struct {
	l *lexer.Lexer

	cur  token.Token
	peek token.Token

	prefixFns map[token.Type]prefixParseFn
	infixFns  map[token.Type]infixParseFn
}

// New creates a Parser over the tokens produced by l.
func New(l *lexer.Lexer) *Parser {
	p := &Parser{l: l}
	p.prefixFns = map[token.Type]prefixParseFn{}
	p.infixFns = map[token.Type]infixParseFn{}

	p.registerPrefix(token.INT, p.parseIntLiteral)
	p.registerPrefix(token.FLOAT, p.parseFloatLiteral)
	p.registerPrefix(token.STRING, p.parseStringLiteral)
	p.registerPrefix(token.MINUS, p.parsePrefixExpr)
	p.registerPrefix(token.NOT, p.parsePrefixExpr)
	p.registerPrefix(token.LPAREN, p.parseGroupedExpr)
	p.registerPrefix(token.IDENT, p.parseIdentOrCall)
	for _, fn := range []token.Type{token.MEAN, token.SUM, token.CONCAT, token.ABS, token.LAG} {
		p.registerPrefix(fn, p.parseIdentOrCall)
	}

	for _, t := range []token.Type{token.PLUS, token.MINUS, token.ASTERISK, token.SLASH,
		token.EQ, token.NEQ, token.LT, token.GT, token.LTE, token.GTE, token.AND, token.OR} {
		p.registerInfix(t, p.parseInfixExpr)
	}

	p.nextToken()
	p.nextToken()
	return p
}

func (p *Parser) registerPrefix(t token.Type, fn prefixParseFn) { p.prefixFns[t] = fn }
func (p *Parser) registerInfix(t token.Type, fn infixParseFn)   { p.infixFns[t] = fn }

func (p *Parser) nextToken() {
	p.cur = p.peek
	p.peek = p.l.NextToken()
}

func (p *Parser) curIs(t token.Type) bool  { return p.cur.Type == t }
func (p *Parser) peekIs(t token.Type) bool { return p.peek.Type == t }

func (p *Parser) parseErrf(format string, args ...interface{}) error {
	return ir.ErrParse.New(p.cur.Line, p.cur.Column, fmt.Sprintf(format, args...))
}

func (p *Parser) expect(t token.Type) (token.Token, error) {
	if !p.curIs(t) {
		return token.Token{}, p.parseErrf("expected %s, found %q", t, p.cur.Literal)
	}
	tok := p.cur
	p.nextToken()
	return tok, nil
}

func (p *Parser) skipComments() {
	for p.curIs(token.COMMENT) {
		p.nextToken()
	}
}

// ParseProgram parses the entire token stream into an ordered slice of
// Command nodes.
func ParseProgram(src string) ([]*ast.Command, error) {
	p := New(lexer.New(src))
	return p.ParseProgram()
}

// ParseProgram parses every statement up to EOF.
func (p *Parser) ParseProgram() ([]*ast.Command, error) {
	var cmds []*ast.Command
	p.skipComments()
	for !p.curIs(token.EOF) {
		cmd, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
		p.skipComments()
	}
	return cmds, nil
}

func (p *Parser) parseStatement() (*ast.Command, error) {
	switch p.cur.Type {
	case token.GET:
		return p.parseGet()
	case token.DATA:
		return p.parseDataListFree()
	case token.COMPUTE:
		return p.parseCompute()
	case token.RECODE:
		return p.parseRecode()
	case token.SELECT:
		return p.parseSelectIf()
	case token.SORT:
		return p.parseSortCases()
	case token.MISSING:
		return p.parseMissingValues()
	case token.LAG:
		return nil, p.parseErrf("LAG is only valid as a COMPUTE expression")
	case token.AGGREGATE:
		return p.parseAggregate()
	case token.MATCH:
		return p.parseMatchFiles()
	case token.DO:
		return p.parseDoIf()
	case token.SAVE:
		return p.parseSave()
	case token.STRINGKW:
		return p.parseStringDecl()
	default:
		return nil, p.parseErrf("unrecognized command keyword %q", p.cur.Literal)
	}
}

// ---- GET DATA / GET FILE ----

func (p *Parser) parseGet() (*ast.Command, error) {
	span := ast.TokenSpan(p.cur)
	p.nextToken() // consume GET

	if p.curIs(token.FILE) {
		// Sugar: GET FILE='x.sav'. -> LOAD_SAV
		p.nextToken()
		if _, err := p.expect(token.EQ); err != nil {
			return nil, err
		}
		file, err := p.expect(token.STRING)
		if err != nil {
			return nil, err
		}
		cmd := ast.NewCommand("GET_FILE", span)
		cmd.Sub["FILE"] = ast.Value{Literal: file.Literal}
		if _, err := p.expect(token.PERIOD); err != nil {
			return nil, err
		}
		return cmd, nil
	}

	if _, err := p.expect(token.DATA); err != nil {
		return nil, err
	}
	cmd := ast.NewCommand("GET_DATA", span)
	for p.curIs(token.SLASH) {
		p.nextToken()
		name := canonicalUpper(p.cur.Literal)
		p.nextToken()
		if _, err := p.expect(token.EQ); err != nil {
			return nil, err
		}
		switch name {
		case "TYPE":
			v := p.cur.Literal
			p.nextToken()
			cmd.Sub["TYPE"] = ast.Value{Literal: v}
		case "FILE":
			tok, err := p.expect(token.STRING)
			if err != nil {
				return nil, err
			}
			cmd.Sub["FILE"] = ast.Value{Literal: tok.Literal}
		case "FIRSTCASE":
			n, err := p.parseIntToken()
			if err != nil {
				return nil, err
			}
			cmd.Sub["FIRSTCASE"] = ast.Value{Int: n, HasInt: true}
		case "VARIABLES":
			vars, err := p.parseVarList()
			if err != nil {
				return nil, err
			}
			cmd.Sub["VARIABLES"] = ast.Value{Vars: vars}
		default:
			return nil, p.parseErrf("unrecognized GET DATA subcommand /%s", name)
		}
	}
	if _, err := p.expect(token.PERIOD); err != nil {
		return nil, err
	}
	return cmd, nil
}

func (p *Parser) parseIntToken() (int, error) {
	neg := false
	if p.curIs(token.MINUS) {
		neg = true
		p.nextToken()
	}
	tok, err := p.expect(token.INT)
	if err != nil {
		return 0, err
	}
	n := cast.ToInt(tok.Literal)
	if neg {
		n = -n
	}
	return n, nil
}

// parseVarList reads a run of `name width` pairs until the next '/' or '.'.
func (p *Parser) parseVarList() ([]ast.VarSpec, error) {
	var vars []ast.VarSpec
	for !p.curIs(token.SLASH) && !p.curIs(token.PERIOD) && !p.curIs(token.EOF) {
		nameTok, err := p.expect(token.IDENT)
		if err != nil {
			return nil, err
		}
		v := ast.VarSpec{Name: nameTok.Literal}
		parenWrapped := p.curIs(token.LPAREN)
		if parenWrapped {
			p.nextToken()
		}
		if p.curIs(token.WIDTH) {
			v.Width = p.cur.Literal
			p.nextToken()
		}
		if parenWrapped {
			if _, err := p.expect(token.RPAREN); err != nil {
				return nil, err
			}
		}
		vars = append(vars, v)
	}
	return vars, nil
}

// ---- DATA LIST FREE ----

func (p *Parser) parseDataListFree() (*ast.Command, error) {
	span := ast.TokenSpan(p.cur)
	p.nextToken() // DATA
	if _, err := p.expect(token.LIST); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.FREE); err != nil {
		return nil, err
	}
	cmd := ast.NewCommand("DATA_LIST_FREE", span)
	for p.curIs(token.SLASH) {
		p.nextToken()
		vars, err := p.parseVarList()
		if err != nil {
			return nil, err
		}
		existing := cmd.Sub["VARIABLES"]
		existing.Vars = append(existing.Vars, vars...)
		cmd.Sub["VARIABLES"] = existing
	}
	if _, err := p.expect(token.PERIOD); err != nil {
		return nil, err
	}
	return cmd, nil
}

// ---- COMPUTE ----

func (p *Parser) parseCompute() (*ast.Command, error) {
	span := ast.TokenSpan(p.cur)
	p.nextToken() // COMPUTE
	targetTok, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.EQ); err != nil {
		return nil, err
	}
	expr, err := p.parseExpression(lowest)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.PERIOD); err != nil {
		return nil, err
	}
	cmd := ast.NewCommand("COMPUTE", span)
	cmd.Sub["TARGET"] = ast.Value{Literal: targetTok.Literal}
	cmd.Sub["EXPR"] = ast.Value{Expr: expr}
	return cmd, nil
}

// ---- RECODE ----

func (p *Parser) parseRecode() (*ast.Command, error) {
	span := ast.TokenSpan(p.cur)
	p.nextToken() // RECODE
	sourceTok, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	var rules []ast.RecodeRule
	for p.curIs(token.LPAREN) {
		p.nextToken()
		// Parsed at "equals" precedence so the rule's own "=" separator
		// (pattern=value) is left for this loop rather than swallowed as
		// an equality operator by the general expression parser.
		lo, err := p.parseExpression(equals)
		if err != nil {
			return nil, err
		}
		rule := ast.RecodeRule{}
		if p.curIs(token.THRU) {
			p.nextToken()
			hi, err := p.parseExpression(equals)
			if err != nil {
				return nil, err
			}
			rule.Lo, rule.Hi = lo, hi
		} else {
			rule.Match = lo
		}
		if _, err := p.expect(token.EQ); err != nil {
			return nil, err
		}
		val, err := p.parseExpression(lowest)
		if err != nil {
			return nil, err
		}
		rule.Value = val
		if _, err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	target := sourceTok.Literal
	if p.curIs(token.INTO) {
		p.nextToken()
		targetTok, err := p.expect(token.IDENT)
		if err != nil {
			return nil, err
		}
		target = targetTok.Literal
	}
	if _, err := p.expect(token.PERIOD); err != nil {
		return nil, err
	}
	cmd := ast.NewCommand("RECODE", span)
	cmd.Sub["SOURCE"] = ast.Value{Literal: sourceTok.Literal}
	cmd.Sub["TARGET"] = ast.Value{Literal: target}
	cmd.Sub["RULES"] = ast.Value{Rules: rules}
	return cmd, nil
}

// ---- SELECT IF ----

func (p *Parser) parseSelectIf() (*ast.Command, error) {
	span := ast.TokenSpan(p.cur)
	p.nextToken() // SELECT
	if _, err := p.expect(token.IF); err != nil {
		return nil, err
	}
	expr, err := p.parseExpression(lowest)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.PERIOD); err != nil {
		return nil, err
	}
	cmd := ast.NewCommand("SELECT_IF", span)
	cmd.Sub["PREDICATE"] = ast.Value{Expr: expr}
	return cmd, nil
}

// ---- SORT CASES ----

func (p *Parser) parseSortCases() (*ast.Command, error) {
	span := ast.TokenSpan(p.cur)
	p.nextToken() // SORT
	if _, err := p.expect(token.CASES); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.BY); err != nil {
		return nil, err
	}
	var keys []ast.SortKey
	for p.curIs(token.IDENT) {
		colTok, _ := p.expect(token.IDENT)
		key := ast.SortKey{Column: colTok.Literal}
		if p.curIs(token.LPAREN) {
			p.nextToken()
			dir := p.cur.Literal
			p.nextToken()
			if upperFirst(dir) == "D" {
				key.Descending = true
			}
			if _, err := p.expect(token.RPAREN); err != nil {
				return nil, err
			}
		}
		keys = append(keys, key)
	}
	if _, err := p.expect(token.PERIOD); err != nil {
		return nil, err
	}
	cmd := ast.NewCommand("SORT_CASES", span)
	cmd.Sub["KEYS"] = ast.Value{Keys: keys}
	return cmd, nil
}

// ---- MISSING VALUES ----

func (p *Parser) parseMissingValues() (*ast.Command, error) {
	span := ast.TokenSpan(p.cur)
	p.nextToken() // MISSING
	if _, err := p.expect(token.VALUES); err != nil {
		return nil, err
	}
	colTok, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	var sentinels []expression.Expression
	for !p.curIs(token.RPAREN) {
		e, err := p.parseExpression(lowest)
		if err != nil {
			return nil, err
		}
		sentinels = append(sentinels, e)
		if p.curIs(token.COMMA) {
			p.nextToken()
		}
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.PERIOD); err != nil {
		return nil, err
	}
	cmd := ast.NewCommand("MISSING_VALUES", span)
	cmd.Sub["COLUMN"] = ast.Value{Literal: colTok.Literal}
	cmd.Sub["SENTINELS"] = ast.Value{Exprs: sentinels}
	return cmd, nil
}

// ---- AGGREGATE ----

func (p *Parser) parseAggregate() (*ast.Command, error) {
	span := ast.TokenSpan(p.cur)
	p.nextToken() // AGGREGATE
	cmd := ast.NewCommand("AGGREGATE", span)
	var breaks []string
	var reductions []ast.Reduction
	// OUTFILE may open the command without a leading slash.
	for p.curIs(token.SLASH) || p.curIs(token.OUTFILE) {
		if p.curIs(token.SLASH) {
			p.nextToken()
		}
		if p.curIs(token.BREAK) {
			p.nextToken()
			if _, err := p.expect(token.EQ); err != nil {
				return nil, err
			}
			for p.curIs(token.IDENT) {
				t, _ := p.expect(token.IDENT)
				breaks = append(breaks, t.Literal)
			}
			continue
		}
		if p.curIs(token.OUTFILE) {
			p.nextToken()
			if _, err := p.expect(token.EQ); err != nil {
				return nil, err
			}
			if p.curIs(token.ASTERISK) {
				p.nextToken()
				cmd.Sub["OUTFILE"] = ast.Value{Literal: "*"}
			} else if p.curIs(token.STRING) {
				cmd.Sub["OUTFILE"] = ast.Value{Literal: p.cur.Literal}
				p.nextToken()
			}
			continue
		}
		// target = REDUCER(source)
		targetTok, err := p.expect(token.IDENT)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.EQ); err != nil {
			return nil, err
		}
		reducerTok := p.cur
		p.nextToken()
		if _, err := p.expect(token.LPAREN); err != nil {
			return nil, err
		}
		sourceTok, err := p.expect(token.IDENT)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		reductions = append(reductions, ast.Reduction{
			Target: targetTok.Literal, Reducer: reducerTok.Literal, Source: sourceTok.Literal,
		})
	}
	if _, err := p.expect(token.PERIOD); err != nil {
		return nil, err
	}
	cmd.Sub["BREAK"] = ast.Value{List: breaks}
	cmd.Sub["REDUCTIONS"] = ast.Value{Reductions: reductions}
	return cmd, nil
}

// ---- MATCH FILES ----

func (p *Parser) parseMatchFiles() (*ast.Command, error) {
	span := ast.TokenSpan(p.cur)
	p.nextToken() // MATCH
	if _, err := p.expect(token.FILES); err != nil {
		return nil, err
	}
	cmd := ast.NewCommand("MATCH_FILES", span)
	var files []string
	var by []string
	for p.curIs(token.SLASH) {
		p.nextToken()
		if p.curIs(token.FILE) {
			p.nextToken()
			if _, err := p.expect(token.EQ); err != nil {
				return nil, err
			}
			tok, err := p.expect(token.STRING)
			if err != nil {
				return nil, err
			}
			files = append(files, tok.Literal)
			continue
		}
		if p.curIs(token.BY) {
			p.nextToken()
			for p.curIs(token.IDENT) {
				t, _ := p.expect(token.IDENT)
				by = append(by, t.Literal)
			}
			continue
		}
		return nil, p.parseErrf("unrecognized MATCH FILES subcommand /%s", p.cur.Literal)
	}
	if _, err := p.expect(token.PERIOD); err != nil {
		return nil, err
	}
	cmd.Sub["FILES"] = ast.Value{List: files}
	cmd.Sub["BY"] = ast.Value{List: by}
	return cmd, nil
}

// ---- DO IF / ELSE / END IF ----

func (p *Parser) parseDoIf() (*ast.Command, error) {
	span := ast.TokenSpan(p.cur)
	p.nextToken() // DO
	if _, err := p.expect(token.IF); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression(lowest)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.PERIOD); err != nil {
		return nil, err
	}

	thenBody, elseBody, err := p.parseDoIfBody()
	if err != nil {
		return nil, err
	}

	cmd := ast.NewCommand("DO_IF", span)
	cmd.Sub["PREDICATE"] = ast.Value{Expr: cond}
	cmd.Branches = [][]*ast.Command{thenBody}
	if elseBody != nil {
		cmd.Branches = append(cmd.Branches, elseBody)
	}
	return cmd, nil
}

func (p *Parser) parseDoIfBody() (thenBody, elseBody []*ast.Command, err error) {
	body := &thenBody
	for {
		p.skipComments()
		if p.curIs(token.ELSE) {
			p.nextToken()
			if _, err := p.expect(token.PERIOD); err != nil {
				return nil, nil, err
			}
			elseBody = []*ast.Command{}
			body = &elseBody
			continue
		}
		if p.curIs(token.END) {
			p.nextToken()
			if _, err := p.expect(token.IF); err != nil {
				return nil, nil, err
			}
			if _, err := p.expect(token.PERIOD); err != nil {
				return nil, nil, err
			}
			return thenBody, elseBody, nil
		}
		if p.curIs(token.EOF) {
			return nil, nil, p.parseErrf("unterminated DO IF block")
		}
		cmd, err := p.parseStatement()
		if err != nil {
			return nil, nil, err
		}
		*body = append(*body, cmd)
	}
}

// ---- SAVE ----

func (p *Parser) parseSave() (*ast.Command, error) {
	span := ast.TokenSpan(p.cur)
	p.nextToken() // SAVE
	if _, err := p.expect(token.OUTFILE); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.EQ); err != nil {
		return nil, err
	}
	fileTok, err := p.expect(token.STRING)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.PERIOD); err != nil {
		return nil, err
	}
	cmd := ast.NewCommand("SAVE", span)
	cmd.Sub["OUTFILE"] = ast.Value{Literal: fileTok.Literal}
	return cmd, nil
}

// ---- STRING ----

func (p *Parser) parseStringDecl() (*ast.Command, error) {
	span := ast.TokenSpan(p.cur)
	p.nextToken() // STRING
	colTok, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	widthTok := p.cur
	p.nextToken()
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.PERIOD); err != nil {
		return nil, err
	}
	cmd := ast.NewCommand("STRING_DECL", span)
	cmd.Sub["COLUMN"] = ast.Value{Literal: colTok.Literal}
	cmd.Sub["WIDTH"] = ast.Value{Literal: widthTok.Literal}
	return cmd, nil
}

// ---- Expression parsing (Pratt) ----

func (p *Parser) parseExpression(precedence int) (expression.Expression, error) {
	prefix, ok := p.prefixFns[p.cur.Type]
	if !ok {
		return nil, p.parseErrf("unexpected token %q in expression", p.cur.Literal)
	}
	left, err := prefix()
	if err != nil {
		return nil, err
	}

	// Each prefix/infix handler leaves cur positioned on the token that
	// follows the expression it just parsed, so (unlike the textbook
	// Pratt layout) the next operator to consider is cur, not peek.
	for precedence < p.curPrecedence() {
		infix, ok := p.infixFns[p.cur.Type]
		if !ok {
			return left, nil
		}
		left, err = infix(left)
		if err != nil {
			return nil, err
		}
	}
	return left, nil
}

func (p *Parser) curPrecedence() int {
	if pr, ok := precedences[p.cur.Type]; ok {
		return pr
	}
	return lowest
}

func (p *Parser) parseIntLiteral() (expression.Expression, error) {
	n := cast.ToInt(p.cur.Literal)
	p.nextToken()
	return &expression.Literal{Value: n}, nil
}

func (p *Parser) parseFloatLiteral() (expression.Expression, error) {
	f := cast.ToFloat64(p.cur.Literal)
	p.nextToken()
	return &expression.Literal{Value: f}, nil
}

func (p *Parser) parseStringLiteral() (expression.Expression, error) {
	s := p.cur.Literal
	p.nextToken()
	return &expression.Literal{Value: s}, nil
}

func (p *Parser) parsePrefixExpr() (expression.Expression, error) {
	var op string
	if p.curIs(token.NOT) {
		op = "not"
	} else {
		op = "-"
	}
	p.nextToken()
	operand, err := p.parseExpression(prefix)
	if err != nil {
		return nil, err
	}
	return &expression.UnaryOp{Op: op, Operand: operand}, nil
}

func (p *Parser) parseGroupedExpr() (expression.Expression, error) {
	p.nextToken() // consume (
	e, err := p.parseExpression(lowest)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	return e, nil
}

func (p *Parser) parseIdentOrCall() (expression.Expression, error) {
	name := p.cur.Literal
	p.nextToken()
	if p.curIs(token.LPAREN) {
		p.nextToken()
		var args []expression.Expression
		for !p.curIs(token.RPAREN) {
			arg, err := p.parseExpression(lowest)
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.curIs(token.COMMA) {
				p.nextToken()
			}
		}
		if _, err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		return &expression.Call{Name: canonicalUpper(name), Args: args}, nil
	}
	return &expression.Column{Name: name}, nil
}

func (p *Parser) parseInfixExpr(left expression.Expression) (expression.Expression, error) {
	op := opText(p.cur.Type, p.cur.Literal)
	prec := p.curPrecedence()
	p.nextToken()
	right, err := p.parseExpression(prec)
	if err != nil {
		return nil, err
	}
	return &expression.BinaryOp{Op: op, Left: left, Right: right}, nil
}

func opText(t token.Type, lit string) string {
	switch t {
	case token.AND:
		return "&"
	case token.OR:
		return "|"
	default:
		return lit
	}
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}

// canonicalUpper upper-cases a call name so the codegen's function table
// (MEAN, LAG, CONCAT, ABS, ...) can match regardless of source case.
func canonicalUpper(s string) string {
	b := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		b[i] = c
	}
	return string(b)
}
