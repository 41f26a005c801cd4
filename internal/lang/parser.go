package lang

// Parser is a recursive-descent, precedence-climbing parser over the flat
// token stream the Lexer produces. Blocks are delimited by indentation
// rather than braces: a statement's governing indentation is read off the
// EndStatement token that terminates it, and a nested block is whatever
// run of statements is indented deeper than its header line (spec.md §4.2).
type Parser struct {
	tokens []Token
	idx    int
	diags  []error

	// loopDepth and lambdaDepth track nesting so break/continue/return can
	// be rejected as syntax errors when used outside a loop or function
	// body (spec.md §4.2, §7). Entering a lambda/method body resets
	// loopDepth to 0: a loop in an enclosing function does not make
	// break/continue valid inside a nested function body.
	loopDepth   int
	lambdaDepth int
}

// Parse runs the full grammar over tokens and returns the top-level
// program block together with every diagnostic collected along the way.
// A syntax error does not abort parsing: the parser resynchronises at the
// next EndStatement and keeps going, so a single run can report more than
// one mistake (spec.md §7).
func Parse(tokens []Token) (*Block, []error) {
	p := &Parser{tokens: tokens}
	prog := &Block{}
	for !p.check(EOF) {
		stmt, err := p.statement()
		if err != nil {
			p.diags = append(p.diags, err)
			p.recover()
			continue
		}
		if stmt != nil {
			prog.Children = append(prog.Children, stmt)
		}
	}
	return prog, p.diags
}

// --- token cursor helpers ---

func (p *Parser) current() Token  { return p.tokens[p.idx] }
func (p *Parser) previous() Token { return p.tokens[p.idx-1] }
func (p *Parser) atEnd() bool     { return p.current().Kind == EOF }

func (p *Parser) check(k TokenKind) bool {
	return !p.atEnd() && p.current().Kind == k
}

func (p *Parser) advance() Token {
	if !p.atEnd() {
		p.idx++
	}
	return p.previous()
}

func (p *Parser) match(kinds ...TokenKind) bool {
	for _, k := range kinds {
		if p.check(k) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *Parser) consume(k TokenKind, msg string) (Token, error) {
	if p.check(k) {
		return p.advance(), nil
	}
	return Token{}, newDiag(KindSyntax, p.current().Line, "%s (got %s)", msg, p.current().Kind)
}

// recover discards tokens up to and including the next EndStatement (or
// EOF), the same granularity errors are reported at.
func (p *Parser) recover() {
	for !p.atEnd() && p.current().Kind != EndStatement {
		p.advance()
	}
	if p.check(EndStatement) {
		p.advance()
	}
}

// peekLineIndent scans forward to the EndStatement that will terminate the
// statement starting at the cursor, without consuming anything, so the
// caller can decide whether that statement belongs to the current block.
func (p *Parser) peekLineIndent() int {
	for i := p.idx; i < len(p.tokens); i++ {
		switch p.tokens[i].Kind {
		case EndStatement:
			return p.tokens[i].Indentation
		case EOF:
			return -1
		}
	}
	return -1
}

func (p *Parser) consumeEndStatement() (int, error) {
	tok, err := p.consume(EndStatement, "expected end of statement")
	if err != nil {
		return 0, err
	}
	return tok.Indentation, nil
}

// block parses every statement more deeply indented than parentIndent.
func (p *Parser) block(parentIndent int) (*Block, error) {
	blk := &Block{}
	for {
		if p.atEnd() {
			break
		}
		if p.peekLineIndent() <= parentIndent {
			break
		}
		stmt, err := p.statement()
		if err != nil {
			p.diags = append(p.diags, err)
			p.recover()
			continue
		}
		if stmt != nil {
			blk.Children = append(blk.Children, stmt)
		}
	}
	return blk, nil
}

// --- statements ---

func (p *Parser) statement() (Node, error) {
	switch {
	case p.match(Var):
		return p.varDecl()
	case p.match(Const):
		return p.constDecl()
	case p.match(Fn):
		return p.fnDecl()
	case p.match(Class):
		return p.classDecl()
	case p.match(If):
		return p.ifStmt()
	case p.match(While):
		return p.whileStmt()
	case p.match(For):
		return p.forStmt()
	case p.match(Break):
		line := p.previous().Line
		if p.loopDepth == 0 {
			return nil, newDiag(KindSyntax, line, "'break' used outside a loop")
		}
		if _, err := p.consumeEndStatement(); err != nil {
			return nil, err
		}
		return &Break{Line: line}, nil
	case p.match(Continue):
		line := p.previous().Line
		if p.loopDepth == 0 {
			return nil, newDiag(KindSyntax, line, "'continue' used outside a loop")
		}
		if _, err := p.consumeEndStatement(); err != nil {
			return nil, err
		}
		return &Continue{Line: line}, nil
	case p.match(Return):
		return p.returnStmt()
	case p.match(Print):
		return p.printStmt()
	default:
		return p.exprStmt()
	}
}

func (p *Parser) varDecl() (Node, error) {
	line := p.previous().Line
	name, err := p.consume(Identifier, "expected a variable name")
	if err != nil {
		return nil, err
	}
	if p.match(Equal) {
		init, err := p.expression()
		if err != nil {
			return nil, err
		}
		if _, err := p.consumeEndStatement(); err != nil {
			return nil, err
		}
		return &VarInit{Name: name.Source, Init: init, Line: line}, nil
	}
	if _, err := p.consumeEndStatement(); err != nil {
		return nil, err
	}
	return &VarDecl{Name: name.Source, Line: line}, nil
}

func (p *Parser) constDecl() (Node, error) {
	line := p.previous().Line
	name, err := p.consume(Identifier, "expected a constant name")
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(Equal, "constants must be initialized"); err != nil {
		return nil, err
	}
	init, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consumeEndStatement(); err != nil {
		return nil, err
	}
	return &ConstInit{Name: name.Source, Init: init, Line: line}, nil
}

// fnDecl desugars `fn name(params) <block>` into a constant bound to a
// lambda, mirroring the teacher's own function-is-a-value treatment.
func (p *Parser) fnDecl() (Node, error) {
	line := p.previous().Line
	name, err := p.consume(Identifier, "expected a function name")
	if err != nil {
		return nil, err
	}
	lambda, err := p.lambdaTail(line, name.Source)
	if err != nil {
		return nil, err
	}
	return &ConstInit{Name: name.Source, Init: lambda, Line: line}, nil
}

// lambdaTail parses "(params)" followed by either an indented block body
// (a declaration-style lambda) or, on the same line, a single expression.
// id is the lambda's self-reference name: a named "fn" declaration's own
// name, so recursive calls by name work, or "<LAMBDA>" for anonymous ones.
func (p *Parser) lambdaTail(line int, id string) (*Lambda, error) {
	if _, err := p.consume(LeftParen, "expected '(' to begin a parameter list"); err != nil {
		return nil, err
	}
	params, varargs, err := p.paramList()
	if err != nil {
		return nil, err
	}

	outerLoopDepth := p.loopDepth
	p.loopDepth = 0
	p.lambdaDepth++
	defer func() {
		p.loopDepth = outerLoopDepth
		p.lambdaDepth--
	}()

	if p.check(EndStatement) {
		headerIndent, err := p.consumeEndStatement()
		if err != nil {
			return nil, err
		}
		body, err := p.block(headerIndent)
		if err != nil {
			return nil, err
		}
		return &Lambda{ArgNames: params, Body: body, IsVarargs: varargs, ID: id, Line: line}, nil
	}

	expr, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consumeEndStatement(); err != nil {
		return nil, err
	}
	return &Lambda{ArgNames: params, Body: expr, IsVarargs: varargs, ID: id, Line: line}, nil
}

func (p *Parser) paramList() ([]string, bool, error) {
	var params []string
	varargs := false
	if !p.check(RightParen) {
		for {
			if p.match(Star) {
				name, err := p.consume(Identifier, "expected a parameter name after '*'")
				if err != nil {
					return nil, false, err
				}
				params = append(params, name.Source)
				varargs = true
				break
			}
			name, err := p.consume(Identifier, "expected a parameter name")
			if err != nil {
				return nil, false, err
			}
			params = append(params, name.Source)
			if !p.match(Comma) {
				break
			}
		}
	}
	if _, err := p.consume(RightParen, "expected ')' after parameter list"); err != nil {
		return nil, false, err
	}
	return params, varargs, nil
}

func (p *Parser) classDecl() (Node, error) {
	line := p.previous().Line
	name, err := p.consume(Identifier, "expected a class name")
	if err != nil {
		return nil, err
	}

	super := ""
	if p.match(LeftParen) {
		superName, err := p.consume(Identifier, "expected a superclass name")
		if err != nil {
			return nil, err
		}
		super = superName.Source
		if _, err := p.consume(RightParen, "expected ')' after superclass name"); err != nil {
			return nil, err
		}
	}

	headerIndent, err := p.consumeEndStatement()
	if err != nil {
		return nil, err
	}

	decl := &ClassDecl{Name: name.Source, Super: super, Line: line}
	for {
		if p.atEnd() || p.peekLineIndent() <= headerIndent {
			break
		}
		if _, err := p.consume(Fn, "class bodies may only contain method declarations"); err != nil {
			p.diags = append(p.diags, err)
			p.recover()
			continue
		}
		isClassMethod := false
		if p.match(Class) {
			isClassMethod = true
			if _, err := p.consume(Dot, "expected '.' after 'class' in a class-method declaration"); err != nil {
				return nil, err
			}
		}
		methodName, err := p.consume(Identifier, "expected a method name")
		if err != nil {
			return nil, err
		}
		fnLine := methodName.Line
		lambda, err := p.lambdaTail(fnLine, methodName.Source)
		if err != nil {
			return nil, err
		}
		md := MethodDecl{Name: methodName.Source, Fn: lambda}
		if isClassMethod {
			decl.ClassMethods = append(decl.ClassMethods, md)
		} else {
			decl.Methods = append(decl.Methods, md)
		}
	}
	return decl, nil
}

func (p *Parser) ifStmt() (Node, error) {
	line := p.previous().Line
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	headerIndent, err := p.consumeEndStatement()
	if err != nil {
		return nil, err
	}
	then, err := p.block(headerIndent)
	if err != nil {
		return nil, err
	}

	node := &If{Cond: cond, Then: then, Line: line}
	if p.peekLineIndent() == headerIndent && p.checkAhead(Elif) {
		p.advance() // Elif
		elif, err := p.ifStmt()
		if err != nil {
			return nil, err
		}
		node.Else = elif
		return node, nil
	}
	if p.peekLineIndent() == headerIndent && p.checkAhead(Else) {
		p.advance() // Else
		elseIndent, err := p.consumeEndStatement()
		if err != nil {
			return nil, err
		}
		elseBlock, err := p.block(elseIndent)
		if err != nil {
			return nil, err
		}
		node.Else = elseBlock
	}
	return node, nil
}

// checkAhead reports whether the token at the cursor (the first token of
// the next statement) has the given kind.
func (p *Parser) checkAhead(k TokenKind) bool { return p.check(k) }

func (p *Parser) whileStmt() (Node, error) {
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	headerIndent, err := p.consumeEndStatement()
	if err != nil {
		return nil, err
	}
	p.loopDepth++
	body, err := p.block(headerIndent)
	p.loopDepth--
	if err != nil {
		return nil, err
	}
	return &While{Cond: cond, Body: body}, nil
}

func (p *Parser) forStmt() (Node, error) {
	line := p.previous().Line
	iterName, err := p.consume(Identifier, "expected a loop variable name")
	if err != nil {
		return nil, err
	}
	counterName := ""
	if p.match(Comma) {
		counter, err := p.consume(Identifier, "expected a counter variable name")
		if err != nil {
			return nil, err
		}
		counterName = counter.Source
	}
	if _, err := p.consume(In, "expected 'in' in a for loop"); err != nil {
		return nil, err
	}
	iterable, err := p.expression()
	if err != nil {
		return nil, err
	}
	headerIndent, err := p.consumeEndStatement()
	if err != nil {
		return nil, err
	}
	p.loopDepth++
	body, err := p.block(headerIndent)
	p.loopDepth--
	if err != nil {
		return nil, err
	}
	return &For{IterName: iterName.Source, CounterName: counterName, Iterable: iterable, Body: body, Line: line}, nil
}

func (p *Parser) returnStmt() (Node, error) {
	line := p.previous().Line
	if p.lambdaDepth == 0 {
		return nil, newDiag(KindSyntax, line, "'return' used outside a function")
	}
	if p.check(EndStatement) {
		if _, err := p.consumeEndStatement(); err != nil {
			return nil, err
		}
		return &Return{Line: line}, nil
	}
	expr, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consumeEndStatement(); err != nil {
		return nil, err
	}
	return &Return{Expr: expr, Line: line}, nil
}

func (p *Parser) printStmt() (Node, error) {
	expr, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consumeEndStatement(); err != nil {
		return nil, err
	}
	return &Print{Expr: expr}, nil
}

func (p *Parser) exprStmt() (Node, error) {
	expr, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consumeEndStatement(); err != nil {
		return nil, err
	}
	return expr, nil
}

// --- expressions (precedence climbing) ---

func (p *Parser) expression() (Node, error) { return p.assignment() }

func (p *Parser) assignment() (Node, error) {
	lhs, err := p.or()
	if err != nil {
		return nil, err
	}
	if !p.match(Equal) {
		return lhs, nil
	}
	line := p.previous().Line
	rhs, err := p.assignment()
	if err != nil {
		return nil, err
	}
	switch target := lhs.(type) {
	case *Identifier:
		return &Assign{Name: target.Name, Expr: rhs, Line: line}, nil
	case *MemberRef:
		return &MemberAssign{Instance: target.Instance, Member: target.Member, Expr: rhs, Line: line}, nil
	case *Binary:
		if target.Op == OpSubscript {
			return &SubscriptAssign{List: target.Lhs, Index: target.Rhs, Expr: rhs, Line: line}, nil
		}
	}
	return nil, newDiag(KindSyntax, line, "invalid assignment target")
}

func (p *Parser) or() (Node, error) {
	lhs, err := p.and()
	if err != nil {
		return nil, err
	}
	for p.match(Or) {
		line := p.previous().Line
		rhs, err := p.and()
		if err != nil {
			return nil, err
		}
		lhs = &Binary{Op: OpOr, Lhs: lhs, Rhs: rhs, Line: line}
	}
	return lhs, nil
}

func (p *Parser) and() (Node, error) {
	lhs, err := p.equality()
	if err != nil {
		return nil, err
	}
	for p.match(And) {
		line := p.previous().Line
		rhs, err := p.equality()
		if err != nil {
			return nil, err
		}
		lhs = &Binary{Op: OpAnd, Lhs: lhs, Rhs: rhs, Line: line}
	}
	return lhs, nil
}

func (p *Parser) equality() (Node, error) {
	lhs, err := p.comparison()
	if err != nil {
		return nil, err
	}
	for p.match(EqualEqual, BangEqual) {
		op := p.previous()
		rhs, err := p.comparison()
		if err != nil {
			return nil, err
		}
		if op.Kind == EqualEqual {
			lhs = &Binary{Op: OpEq, Lhs: lhs, Rhs: rhs, Line: op.Line}
		} else {
			lhs = &Unary{Op: OpNot, Expr: &Binary{Op: OpEq, Lhs: lhs, Rhs: rhs, Line: op.Line}, Line: op.Line}
		}
	}
	return lhs, nil
}

func (p *Parser) comparison() (Node, error) {
	lhs, err := p.rangeExpr()
	if err != nil {
		return nil, err
	}
	for p.match(Less, Greater, LessEqual, GreaterEqual) {
		op := p.previous()
		rhs, err := p.rangeExpr()
		if err != nil {
			return nil, err
		}
		switch op.Kind {
		case Less:
			lhs = &Binary{Op: OpLt, Lhs: lhs, Rhs: rhs, Line: op.Line}
		case Greater:
			lhs = &Binary{Op: OpGt, Lhs: lhs, Rhs: rhs, Line: op.Line}
		case LessEqual:
			lhs = &Unary{Op: OpNot, Expr: &Binary{Op: OpGt, Lhs: lhs, Rhs: rhs, Line: op.Line}, Line: op.Line}
		case GreaterEqual:
			lhs = &Unary{Op: OpNot, Expr: &Binary{Op: OpLt, Lhs: lhs, Rhs: rhs, Line: op.Line}, Line: op.Line}
		}
	}
	return lhs, nil
}

func (p *Parser) rangeExpr() (Node, error) {
	lhs, err := p.term()
	if err != nil {
		return nil, err
	}
	if p.match(DotDot, DotDotEqual) {
		op := p.previous()
		rhs, err := p.term()
		if err != nil {
			return nil, err
		}
		return &Binary{Op: OpRange, Lhs: lhs, Rhs: rhs, Inclusive: op.Kind == DotDotEqual, Line: op.Line}, nil
	}
	return lhs, nil
}

func (p *Parser) term() (Node, error) {
	lhs, err := p.factor()
	if err != nil {
		return nil, err
	}
	for p.match(Plus, Minus) {
		op := p.previous()
		rhs, err := p.factor()
		if err != nil {
			return nil, err
		}
		kind := OpAdd
		if op.Kind == Minus {
			kind = OpSub
		}
		lhs = &Binary{Op: kind, Lhs: lhs, Rhs: rhs, Line: op.Line}
	}
	return lhs, nil
}

func (p *Parser) factor() (Node, error) {
	lhs, err := p.unary()
	if err != nil {
		return nil, err
	}
	for p.match(Star, Slash) {
		op := p.previous()
		rhs, err := p.unary()
		if err != nil {
			return nil, err
		}
		kind := OpMul
		if op.Kind == Slash {
			kind = OpDiv
		}
		lhs = &Binary{Op: kind, Lhs: lhs, Rhs: rhs, Line: op.Line}
	}
	return lhs, nil
}

func (p *Parser) unary() (Node, error) {
	if p.match(Bang, Minus) {
		op := p.previous()
		expr, err := p.unary()
		if err != nil {
			return nil, err
		}
		kind := OpNot
		if op.Kind == Minus {
			kind = OpNegate
		}
		return &Unary{Op: kind, Expr: expr, Line: op.Line}, nil
	}
	return p.postfix()
}

// postfix handles the left-recursive suffixes: call `(...)`, subscript
// `[...]`, and member access `.name`.
func (p *Parser) postfix() (Node, error) {
	expr, err := p.primary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.match(LeftParen):
			line := p.previous().Line
			args, err := p.argList()
			if err != nil {
				return nil, err
			}
			callee := expr
			if mr, ok := expr.(*MemberRef); ok {
				callee = &BoundMethod{Receiver: mr.Instance, MethodName: mr.Member, Line: mr.Line}
			}
			expr = &Binary{Op: OpInvocation, Lhs: callee, Rhs: &Block{Children: args}, Line: line}
		case p.match(LeftBracket):
			line := p.previous().Line
			idx, err := p.expression()
			if err != nil {
				return nil, err
			}
			if _, err := p.consume(RightBracket, "expected ']' after subscript index"); err != nil {
				return nil, err
			}
			expr = &Binary{Op: OpSubscript, Lhs: expr, Rhs: idx, Line: line}
		case p.match(Dot):
			line := p.previous().Line
			name, err := p.consume(Identifier, "expected a member name after '.'")
			if err != nil {
				return nil, err
			}
			expr = &MemberRef{Instance: expr, Member: name.Source, Line: line}
		default:
			return expr, nil
		}
	}
}

func (p *Parser) argList() ([]Node, error) {
	var args []Node
	if !p.check(RightParen) {
		for {
			arg, err := p.expression()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if !p.match(Comma) {
				break
			}
		}
	}
	if _, err := p.consume(RightParen, "expected ')' after argument list"); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *Parser) primary() (Node, error) {
	switch {
	case p.match(LiteralNil, LiteralBool, LiteralNumber, LiteralString, LiteralChar):
		return &Literal{Val: p.previous().LiteralValue}, nil
	case p.match(Identifier):
		return &Identifier{Name: p.previous().Source, Line: p.previous().Line}, nil
	case p.match(LeftParen):
		expr, err := p.expression()
		if err != nil {
			return nil, err
		}
		if _, err := p.consume(RightParen, "expected ')' after grouped expression"); err != nil {
			return nil, err
		}
		return expr, nil
	case p.match(LeftBracket):
		return p.listLiteral()
	case p.match(Pipe):
		return p.lambdaLiteral()
	case p.match(Super):
		return p.superCall()
	}
	return nil, newDiag(KindSyntax, p.current().Line, "expected an expression (got %s)", p.current().Kind)
}

func (p *Parser) listLiteral() (Node, error) {
	var elems []Node
	if !p.check(RightBracket) {
		for {
			e, err := p.expression()
			if err != nil {
				return nil, err
			}
			elems = append(elems, e)
			if !p.match(Comma) {
				break
			}
		}
	}
	if _, err := p.consume(RightBracket, "expected ']' after list literal"); err != nil {
		return nil, err
	}
	return &ListExpr{Elements: elems}, nil
}

// lambdaLiteral parses the anonymous form: |params| body, where body is
// either a single expression on the same line or an indented block.
func (p *Parser) lambdaLiteral() (Node, error) {
	line := p.previous().Line
	var params []string
	varargs := false
	if !p.check(Pipe) {
		for {
			if p.match(Star) {
				name, err := p.consume(Identifier, "expected a parameter name after '*'")
				if err != nil {
					return nil, err
				}
				params = append(params, name.Source)
				varargs = true
				break
			}
			name, err := p.consume(Identifier, "expected a parameter name")
			if err != nil {
				return nil, err
			}
			params = append(params, name.Source)
			if !p.match(Comma) {
				break
			}
		}
	}
	if _, err := p.consume(Pipe, "expected closing '|' after lambda parameters"); err != nil {
		return nil, err
	}

	outerLoopDepth := p.loopDepth
	p.loopDepth = 0
	p.lambdaDepth++
	defer func() {
		p.loopDepth = outerLoopDepth
		p.lambdaDepth--
	}()

	if p.check(EndStatement) {
		headerIndent, err := p.consumeEndStatement()
		if err != nil {
			return nil, err
		}
		body, err := p.block(headerIndent)
		if err != nil {
			return nil, err
		}
		return &Lambda{ArgNames: params, Body: body, IsVarargs: varargs, ID: "<LAMBDA>", Line: line}, nil
	}

	body, err := p.expression()
	if err != nil {
		return nil, err
	}
	return &Lambda{ArgNames: params, Body: body, IsVarargs: varargs, ID: "<LAMBDA>", Line: line}, nil
}

func (p *Parser) superCall() (Node, error) {
	line := p.previous().Line
	if _, err := p.consume(LeftParen, "expected '(' after 'super'"); err != nil {
		return nil, err
	}
	args, err := p.argList()
	if err != nil {
		return nil, err
	}
	return &SuperCall{Args: args, Line: line}, nil
}
