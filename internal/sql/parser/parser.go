// Package parser implements a recursive-descent parser for BSQL's SQL
// grammar (spec.md §4.3). Grounded on the token/lexer/ast layering of the
// pack's two dedicated SQL-parser repos, ha1tch-tsqlparser and
// freeeve-machparse; unlike either, BSQL's grammar is a small closed
// statement set, so parsing is plain descent rather than Pratt-style
// expression precedence climbing (see DESIGN.md for why the teacher's own
// TiDB-parser dependency was not reused here).
package parser

import (
	"strconv"

	"bsql/internal/bsqlerr"
	"bsql/internal/codec"
	"bsql/internal/sql/ast"
	"bsql/internal/sql/lexer"
	"bsql/internal/sql/token"
)

// Parser holds a two-token lookahead window over a lexer's token stream.
type Parser struct {
	l    *lexer.Lexer
	cur  token.Token
	peek token.Token
}

// New returns a Parser over sql.
func New(sql string) *Parser {
	p := &Parser{l: lexer.New(sql)}
	p.next()
	p.next()
	return p
}

func (p *Parser) next() {
	p.cur = p.peek
	p.peek = p.l.Next()
}

// Parse parses exactly one statement (an optional trailing ';' is
// consumed if present) and returns it.
func Parse(sql string) (ast.Statement, error) {
	p := New(sql)
	stmt, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	if p.cur.Kind == token.Semicolon {
		p.next()
	}
	if p.cur.Kind != token.EOF {
		return nil, p.errorf([]string{"end of statement"})
	}
	return stmt, nil
}

func (p *Parser) errorf(expected []string) error {
	found := p.cur.Kind.String()
	if p.cur.Kind == token.Ident || p.cur.Kind == token.Int || p.cur.Kind == token.Decimal || p.cur.Kind == token.String {
		found = p.cur.Literal
	}
	return &bsqlerr.ParseError{Offset: p.cur.Offset, Found: found, Expected: expected}
}

func (p *Parser) expect(k token.Kind) (token.Token, error) {
	if p.cur.Kind != k {
		return token.Token{}, p.errorf([]string{k.String()})
	}
	tok := p.cur
	p.next()
	return tok, nil
}

func (p *Parser) parseStatement() (ast.Statement, error) {
	switch p.cur.Kind {
	case token.CREATE:
		return p.parseCreateTable()
	case token.INSERT:
		return p.parseInsert()
	case token.SELECT:
		return p.parseSelect()
	case token.UPDATE:
		return p.parseUpdate()
	case token.DELETE:
		return p.parseDelete()
	case token.SHOW:
		return p.parseShow()
	case token.USE:
		return p.parseUse()
	default:
		return nil, p.errorf([]string{"CREATE", "INSERT", "SELECT", "UPDATE", "DELETE", "SHOW", "USE"})
	}
}

func (p *Parser) parseIdent() (string, error) {
	tok, err := p.expect(token.Ident)
	if err != nil {
		return "", err
	}
	return tok.Literal, nil
}

// --- CREATE TABLE ---

func (p *Parser) parseCreateTable() (ast.Statement, error) {
	p.next() // CREATE
	if _, err := p.expect(token.TABLE); err != nil {
		return nil, err
	}
	name, err := p.parseIdent()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	var cols []ast.ColumnDef
	for {
		col, err := p.parseColumnDef()
		if err != nil {
			return nil, err
		}
		cols = append(cols, col)
		if p.cur.Kind == token.Comma {
			p.next()
			continue
		}
		break
	}
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	return &ast.CreateTable{Table: name, Columns: cols}, nil
}

func (p *Parser) parseColumnDef() (ast.ColumnDef, error) {
	name, err := p.parseIdent()
	if err != nil {
		return ast.ColumnDef{}, err
	}
	var typ codec.ColumnType
	switch p.cur.Kind {
	case token.INTEGER:
		typ = codec.TypeInteger
	case token.LONG:
		typ = codec.TypeLong
	case token.TEXT:
		typ = codec.TypeText
	case token.REAL:
		typ = codec.TypeReal
	default:
		return ast.ColumnDef{}, p.errorf([]string{"INTEGER", "LONG", "TEXT", "REAL"})
	}
	p.next()

	var flags codec.ColumnFlag
	for {
		switch p.cur.Kind {
		case token.NOT:
			p.next()
			if _, err := p.expect(token.NULL); err != nil {
				return ast.ColumnDef{}, err
			}
			flags |= codec.FlagNotNull
		case token.PRIMARY:
			p.next()
			if _, err := p.expect(token.KEY); err != nil {
				return ast.ColumnDef{}, err
			}
			flags |= codec.FlagPrimaryKey
		case token.AUTO_INCREMENT:
			p.next()
			flags |= codec.FlagAutoIncrement
		default:
			return ast.ColumnDef{Name: name, Type: typ, Flags: flags}, nil
		}
	}
}

// --- INSERT ---

func (p *Parser) parseInsert() (ast.Statement, error) {
	p.next() // INSERT
	if _, err := p.expect(token.INTO); err != nil {
		return nil, err
	}
	table, err := p.parseIdent()
	if err != nil {
		return nil, err
	}
	var cols []string
	if p.cur.Kind == token.LParen {
		p.next()
		for {
			name, err := p.parseIdent()
			if err != nil {
				return nil, err
			}
			cols = append(cols, name)
			if p.cur.Kind == token.Comma {
				p.next()
				continue
			}
			break
		}
		if _, err := p.expect(token.RParen); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(token.VALUES); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	var values []ast.Literal
	for {
		lit, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		values = append(values, lit)
		if p.cur.Kind == token.Comma {
			p.next()
			continue
		}
		break
	}
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	return &ast.Insert{Table: table, Columns: cols, Values: values}, nil
}

// parseLiteral parses NULL, a string, or an optionally-signed integer or
// decimal literal (spec.md §4.3: "signed integer").
func (p *Parser) parseLiteral() (ast.Literal, error) {
	negative := false
	if p.cur.Kind == token.Illegal && p.cur.Literal == "-" {
		negative = true
		p.next()
	}
	switch p.cur.Kind {
	case token.NULL:
		if negative {
			return ast.Literal{}, p.errorf([]string{"literal"})
		}
		p.next()
		return ast.Literal{Kind: ast.LiteralNull}, nil
	case token.Int:
		n, err := strconv.ParseInt(p.cur.Literal, 10, 64)
		if err != nil {
			return ast.Literal{}, p.errorf([]string{"integer literal"})
		}
		p.next()
		if negative {
			n = -n
		}
		return ast.Literal{Kind: ast.LiteralInt, Int: n}, nil
	case token.Decimal:
		f, err := strconv.ParseFloat(p.cur.Literal, 64)
		if err != nil {
			return ast.Literal{}, p.errorf([]string{"decimal literal"})
		}
		p.next()
		if negative {
			f = -f
		}
		return ast.Literal{Kind: ast.LiteralDecimal, Dec: f}, nil
	case token.String:
		if negative {
			return ast.Literal{}, p.errorf([]string{"literal"})
		}
		s := p.cur.Literal
		p.next()
		return ast.Literal{Kind: ast.LiteralString, Str: s}, nil
	default:
		return ast.Literal{}, p.errorf([]string{"literal"})
	}
}

// --- SELECT ---

func (p *Parser) parseSelect() (ast.Statement, error) {
	p.next() // SELECT
	sel := &ast.Select{}
	if p.cur.Kind == token.Star {
		p.next()
	} else {
		for {
			name, err := p.parseIdent()
			if err != nil {
				return nil, err
			}
			sel.Columns = append(sel.Columns, name)
			if p.cur.Kind == token.Comma {
				p.next()
				continue
			}
			break
		}
	}
	if _, err := p.expect(token.FROM); err != nil {
		return nil, err
	}
	table, err := p.parseIdent()
	if err != nil {
		return nil, err
	}
	sel.Table = table

	if p.cur.Kind == token.WHERE {
		p.next()
		where, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		sel.Where = where
	}
	if p.cur.Kind == token.ORDER {
		p.next()
		if _, err := p.expect(token.BY); err != nil {
			return nil, err
		}
		col, err := p.parseIdent()
		if err != nil {
			return nil, err
		}
		sel.HasOrder = true
		sel.OrderBy = col
		sel.OrderDir = ast.Ascending
		switch p.cur.Kind {
		case token.ASC:
			p.next()
		case token.DESC:
			sel.OrderDir = ast.Descending
			p.next()
		}
	}
	if p.cur.Kind == token.LIMIT {
		p.next()
		tok, err := p.expect(token.Int)
		if err != nil {
			return nil, err
		}
		n, err := strconv.Atoi(tok.Literal)
		if err != nil {
			return nil, p.errorf([]string{"integer literal"})
		}
		sel.HasLimit = true
		sel.Limit = n
	}
	return sel, nil
}

// --- UPDATE ---

func (p *Parser) parseUpdate() (ast.Statement, error) {
	p.next() // UPDATE
	table, err := p.parseIdent()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.SET); err != nil {
		return nil, err
	}
	var assigns []ast.Assignment
	for {
		col, err := p.parseIdent()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.Eq); err != nil {
			return nil, err
		}
		lit, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		assigns = append(assigns, ast.Assignment{Column: col, Value: lit})
		if p.cur.Kind == token.Comma {
			p.next()
			continue
		}
		break
	}
	upd := &ast.Update{Table: table, Assignments: assigns}
	if p.cur.Kind == token.WHERE {
		p.next()
		where, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		upd.Where = where
	}
	return upd, nil
}

// --- DELETE ---

func (p *Parser) parseDelete() (ast.Statement, error) {
	p.next() // DELETE
	if _, err := p.expect(token.FROM); err != nil {
		return nil, err
	}
	table, err := p.parseIdent()
	if err != nil {
		return nil, err
	}
	del := &ast.Delete{Table: table}
	if p.cur.Kind == token.WHERE {
		p.next()
		where, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		del.Where = where
	}
	return del, nil
}

// --- SHOW / USE ---

func (p *Parser) parseShow() (ast.Statement, error) {
	p.next() // SHOW
	switch p.cur.Kind {
	case token.TABLES:
		p.next()
		return &ast.ShowTables{}, nil
	case token.DATABASES:
		p.next()
		return &ast.ShowDatabases{}, nil
	default:
		return nil, p.errorf([]string{"TABLES", "DATABASES"})
	}
}

func (p *Parser) parseUse() (ast.Statement, error) {
	p.next() // USE
	name, err := p.parseIdent()
	if err != nil {
		return nil, err
	}
	return &ast.Use{Database: name}, nil
}

// --- predicate grammar: <term> (AND|OR <term>)*, AND binds tighter ---

func (p *Parser) parseExpr() (ast.Expr, error) {
	return p.parseOr()
}

func (p *Parser) parseOr() (ast.Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.cur.Kind == token.OR {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &ast.LogicalExpr{Op: ast.LogicalOr, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAnd() (ast.Expr, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.cur.Kind == token.AND {
		p.next()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = &ast.LogicalExpr{Op: ast.LogicalAnd, Left: left, Right: right}
	}
	return left, nil
}

// parseTerm parses a single `<ident> <op> <lit>` comparison, or a
// parenthesized sub-expression (accepted though not required by the
// grammar, per spec.md §4.3).
func (p *Parser) parseTerm() (ast.Expr, error) {
	if p.cur.Kind == token.LParen {
		p.next()
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RParen); err != nil {
			return nil, err
		}
		return inner, nil
	}

	col, err := p.parseIdent()
	if err != nil {
		return nil, err
	}
	op, err := p.parseCompareOp()
	if err != nil {
		return nil, err
	}
	lit, err := p.parseLiteral()
	if err != nil {
		return nil, err
	}
	return &ast.BinaryExpr{Column: col, Op: op, Value: lit}, nil
}

func (p *Parser) parseCompareOp() (ast.CompareOp, error) {
	switch p.cur.Kind {
	case token.Eq:
		p.next()
		return ast.OpEq, nil
	case token.NotEq:
		p.next()
		return ast.OpNotEq, nil
	case token.Lt:
		p.next()
		return ast.OpLt, nil
	case token.LtEq:
		p.next()
		return ast.OpLtEq, nil
	case token.Gt:
		p.next()
		return ast.OpGt, nil
	case token.GtEq:
		p.next()
		return ast.OpGtEq, nil
	case token.LIKE:
		p.next()
		return ast.OpLike, nil
	default:
		return 0, p.errorf([]string{"=", "!=", "<>", "<", "<=", ">", ">=", "LIKE"})
	}
}
