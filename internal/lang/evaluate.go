package lang

import "fmt"

// Eval implementations for the node kinds that don't need their own file
// (invocation/class dispatch lives in callable.go and class.go).

func (n *Literal) Eval(env *Environment) (Value, Ctrl, error) {
	return n.Val, noCtrl, nil
}

func (n *Identifier) Eval(env *Environment) (Value, Ctrl, error) {
	v, err := env.Get(n.Name)
	if err != nil {
		return nil, noCtrl, withLine(err, n.Line)
	}
	return v, noCtrl, nil
}

// EvalProgram runs each of a parsed program's top-level statements directly
// in env, the global frame, rather than through Block.Eval — whose child
// scope would otherwise swallow every top-level var/const/fn/class into a
// frame no lambda or method body's global fallback can ever see (spec.md
// §3.4, §9). A runtime error aborts only the statement that raised it and
// is reported through onError; evaluation resumes at the next top-level
// statement (spec.md §5, §7).
func EvalProgram(prog *Block, env *Environment, onError func(error)) {
	for _, stmt := range prog.Children {
		_, _, err := stmt.Eval(env)
		if err != nil {
			onError(err)
		}
	}
}

func (n *Block) Eval(env *Environment) (Value, Ctrl, error) {
	child := NewChildEnvironment(env)
	var last Value = Nil
	for _, c := range n.Children {
		v, ctrl, err := c.Eval(child)
		if err != nil {
			return nil, noCtrl, err
		}
		if ctrl.Kind != CtrlNone {
			return nil, ctrl, nil
		}
		last = v
	}
	return last, noCtrl, nil
}

func (n *ListExpr) Eval(env *Environment) (Value, Ctrl, error) {
	child := NewChildEnvironment(env)
	elems := make([]Value, 0, len(n.Elements))
	for _, e := range n.Elements {
		v, ctrl, err := e.Eval(child)
		if err != nil {
			return nil, noCtrl, err
		}
		if ctrl.Kind != CtrlNone {
			return nil, ctrl, nil
		}
		elems = append(elems, v)
	}
	return NewList(elems), noCtrl, nil
}

func (n *Unary) Eval(env *Environment) (Value, Ctrl, error) {
	v, ctrl, err := n.Expr.Eval(env)
	if err != nil || ctrl.Kind != CtrlNone {
		return nil, ctrl, err
	}

	switch n.Op {
	case OpNot:
		b, ok := v.(BoolValue)
		if !ok {
			return nil, noCtrl, typeErr(n.Line, "operand of '!' must be a boolean")
		}
		return BoolValue(!bool(b)), noCtrl, nil
	case OpNegate:
		num, ok := v.(NumberValue)
		if !ok {
			return nil, noCtrl, typeErr(n.Line, "operand of unary '-' must be a number")
		}
		return -num, noCtrl, nil
	}
	return nil, noCtrl, internalErr("unreachable unary operator %d", n.Op)
}

func (n *Binary) Eval(env *Environment) (Value, Ctrl, error) {
	switch n.Op {
	case OpOr:
		return n.evalOr(env)
	case OpAnd:
		return n.evalAnd(env)
	case OpInvocation:
		return evalInvocation(n, env)
	}

	lhs, ctrl, err := n.Lhs.Eval(env)
	if err != nil || ctrl.Kind != CtrlNone {
		return nil, ctrl, err
	}
	rhs, ctrl, err := n.Rhs.Eval(env)
	if err != nil || ctrl.Kind != CtrlNone {
		return nil, ctrl, err
	}

	switch n.Op {
	case OpAdd, OpSub, OpMul, OpDiv:
		return n.evalArith(lhs, rhs)
	case OpEq:
		return BoolValue(Equal(lhs, rhs)), noCtrl, nil
	case OpLt:
		a, b, err := n.bothNumbers(lhs, rhs)
		if err != nil {
			return nil, noCtrl, err
		}
		return BoolValue(a < b), noCtrl, nil
	case OpGt:
		a, b, err := n.bothNumbers(lhs, rhs)
		if err != nil {
			return nil, noCtrl, err
		}
		return BoolValue(a > b), noCtrl, nil
	case OpSubscript:
		return n.evalSubscript(lhs, rhs)
	case OpRange:
		return n.evalRange(lhs, rhs)
	}

	return nil, noCtrl, internalErr("unreachable binary operator %d", n.Op)
}

func (n *Binary) evalOr(env *Environment) (Value, Ctrl, error) {
	lhs, ctrl, err := n.Lhs.Eval(env)
	if err != nil || ctrl.Kind != CtrlNone {
		return nil, ctrl, err
	}
	lb, ok := lhs.(BoolValue)
	if !ok {
		return nil, noCtrl, typeErr(n.Line, "operand of 'or' must be a boolean")
	}
	if bool(lb) {
		return lb, noCtrl, nil
	}
	rhs, ctrl, err := n.Rhs.Eval(env)
	if err != nil || ctrl.Kind != CtrlNone {
		return nil, ctrl, err
	}
	rb, ok := rhs.(BoolValue)
	if !ok {
		return nil, noCtrl, typeErr(n.Line, "operand of 'or' must be a boolean")
	}
	return rb, noCtrl, nil
}

func (n *Binary) evalAnd(env *Environment) (Value, Ctrl, error) {
	lhs, ctrl, err := n.Lhs.Eval(env)
	if err != nil || ctrl.Kind != CtrlNone {
		return nil, ctrl, err
	}
	lb, ok := lhs.(BoolValue)
	if !ok {
		return nil, noCtrl, typeErr(n.Line, "operand of 'and' must be a boolean")
	}
	if !bool(lb) {
		return lb, noCtrl, nil
	}
	rhs, ctrl, err := n.Rhs.Eval(env)
	if err != nil || ctrl.Kind != CtrlNone {
		return nil, ctrl, err
	}
	rb, ok := rhs.(BoolValue)
	if !ok {
		return nil, noCtrl, typeErr(n.Line, "operand of 'and' must be a boolean")
	}
	return rb, noCtrl, nil
}

func (n *Binary) bothNumbers(lhs, rhs Value) (NumberValue, NumberValue, error) {
	a, aok := lhs.(NumberValue)
	b, bok := rhs.(NumberValue)
	if !aok || !bok {
		return 0, 0, typeErr(n.Line, "operands must both be numbers")
	}
	return a, b, nil
}

func (n *Binary) evalArith(lhs, rhs Value) (Value, Ctrl, error) {
	a, b, err := n.bothNumbers(lhs, rhs)
	if err != nil {
		return nil, noCtrl, err
	}
	switch n.Op {
	case OpAdd:
		return a + b, noCtrl, nil
	case OpSub:
		return a - b, noCtrl, nil
	case OpMul:
		return a * b, noCtrl, nil
	case OpDiv:
		return a / b, noCtrl, nil
	}
	return nil, noCtrl, internalErr("unreachable arithmetic operator %d", n.Op)
}

func (n *Binary) evalSubscript(lhs, rhs Value) (Value, Ctrl, error) {
	list, ok := lhs.(*ListValue)
	if !ok {
		return nil, noCtrl, typeErr(n.Line, "subscript target must be a list")
	}
	idxVal, ok := rhs.(NumberValue)
	if !ok {
		return nil, noCtrl, typeErr(n.Line, "subscript index must be a number")
	}
	idx := int(idxVal)
	if idx < 0 || idx >= len(list.Elements) {
		return nil, noCtrl, indexErr(n.Line, "list index %d out of range (length %d)", idx, len(list.Elements))
	}
	return list.Elements[idx], noCtrl, nil
}

func (n *Binary) evalRange(lhs, rhs Value) (Value, Ctrl, error) {
	if a, ok := lhs.(NumberValue); ok {
		b, ok := rhs.(NumberValue)
		if !ok {
			return nil, noCtrl, typeErr(n.Line, "range bounds must both be numbers or both be chars")
		}
		return RangeValue{Start: a, End: b, Inclusive: n.Inclusive}, noCtrl, nil
	}
	if a, ok := lhs.(CharValue); ok {
		b, ok := rhs.(CharValue)
		if !ok {
			return nil, noCtrl, typeErr(n.Line, "range bounds must both be numbers or both be chars")
		}
		return RangeValue{Start: a, End: b, Inclusive: n.Inclusive}, noCtrl, nil
	}
	return nil, noCtrl, typeErr(n.Line, "range bounds must both be numbers or both be chars")
}

func (n *MemberRef) Eval(env *Environment) (Value, Ctrl, error) {
	recv, ctrl, err := n.Instance.Eval(env)
	if err != nil || ctrl.Kind != CtrlNone {
		return nil, ctrl, err
	}

	switch v := recv.(type) {
	case *InstanceValue:
		if field, ok := v.Fields[n.Member]; ok {
			return field, noCtrl, nil
		}
		return nil, noCtrl, nameErr(n.Line, "undefined field %q on instance of %s", n.Member, v.Class.Name)
	case *StringValue:
		if n.Member == "length" {
			return NumberValue(v.Len()), noCtrl, nil
		}
		return nil, noCtrl, nameErr(n.Line, "strings have no member %q", n.Member)
	case *ListValue:
		switch n.Member {
		case "length":
			return NumberValue(len(v.Elements)), noCtrl, nil
		case "capacity":
			return NumberValue(cap(v.Elements)), noCtrl, nil
		}
		return nil, noCtrl, nameErr(n.Line, "lists have no member %q", n.Member)
	}

	return nil, noCtrl, typeErr(n.Line, "cannot access member %q on a %s", n.Member, kindName(recv))
}

func (n *VarDecl) Eval(env *Environment) (Value, Ctrl, error) {
	if err := env.Define(n.Name, Nil); err != nil {
		return nil, noCtrl, withLine(err, n.Line)
	}
	return Nil, noCtrl, nil
}

func (n *VarInit) Eval(env *Environment) (Value, Ctrl, error) {
	v, ctrl, err := n.Init.Eval(env)
	if err != nil || ctrl.Kind != CtrlNone {
		return nil, ctrl, err
	}
	if err := env.Define(n.Name, v); err != nil {
		return nil, noCtrl, withLine(err, n.Line)
	}
	return Nil, noCtrl, nil
}

func (n *ConstInit) Eval(env *Environment) (Value, Ctrl, error) {
	v, ctrl, err := n.Init.Eval(env)
	if err != nil || ctrl.Kind != CtrlNone {
		return nil, ctrl, err
	}
	if err := env.DefineConst(n.Name, v); err != nil {
		return nil, noCtrl, withLine(err, n.Line)
	}
	return Nil, noCtrl, nil
}

func (n *Assign) Eval(env *Environment) (Value, Ctrl, error) {
	v, ctrl, err := n.Expr.Eval(env)
	if err != nil || ctrl.Kind != CtrlNone {
		return nil, ctrl, err
	}
	if err := env.Assign(n.Name, v); err != nil {
		return nil, noCtrl, withLine(err, n.Line)
	}
	return v, noCtrl, nil
}

func (n *SubscriptAssign) Eval(env *Environment) (Value, Ctrl, error) {
	listVal, ctrl, err := n.List.Eval(env)
	if err != nil || ctrl.Kind != CtrlNone {
		return nil, ctrl, err
	}
	list, ok := listVal.(*ListValue)
	if !ok {
		return nil, noCtrl, typeErr(n.Line, "subscript assignment target must be a list")
	}
	idxVal, ctrl, err := n.Index.Eval(env)
	if err != nil || ctrl.Kind != CtrlNone {
		return nil, ctrl, err
	}
	num, ok := idxVal.(NumberValue)
	if !ok {
		return nil, noCtrl, typeErr(n.Line, "subscript index must be a number")
	}
	idx := int(num)
	if idx < 0 || idx >= len(list.Elements) {
		return nil, noCtrl, indexErr(n.Line, "list index %d out of range (length %d)", idx, len(list.Elements))
	}
	v, ctrl, err := n.Expr.Eval(env)
	if err != nil || ctrl.Kind != CtrlNone {
		return nil, ctrl, err
	}
	list.Elements[idx] = v
	return v, noCtrl, nil
}

func (n *MemberAssign) Eval(env *Environment) (Value, Ctrl, error) {
	instVal, ctrl, err := n.Instance.Eval(env)
	if err != nil || ctrl.Kind != CtrlNone {
		return nil, ctrl, err
	}
	inst, ok := instVal.(*InstanceValue)
	if !ok {
		return nil, noCtrl, typeErr(n.Line, "member assignment target must be an instance")
	}
	v, ctrl, err := n.Expr.Eval(env)
	if err != nil || ctrl.Kind != CtrlNone {
		return nil, ctrl, err
	}
	inst.Fields[n.Member] = v
	return v, noCtrl, nil
}

func (n *If) Eval(env *Environment) (Value, Ctrl, error) {
	condVal, ctrl, err := n.Cond.Eval(env)
	if err != nil || ctrl.Kind != CtrlNone {
		return nil, ctrl, err
	}
	cond, ok := condVal.(BoolValue)
	if !ok {
		return nil, noCtrl, typeErr(n.Line, "if condition must be a boolean")
	}

	if bool(cond) {
		_, ctrl, err := n.Then.Eval(env)
		return Nil, ctrl, err
	}
	if n.Else != nil {
		_, ctrl, err := n.Else.Eval(env)
		return Nil, ctrl, err
	}
	return Nil, noCtrl, nil
}

func (n *While) Eval(env *Environment) (Value, Ctrl, error) {
	for {
		condVal, ctrl, err := n.Cond.Eval(env)
		if err != nil || ctrl.Kind != CtrlNone {
			return nil, ctrl, err
		}
		cond, ok := condVal.(BoolValue)
		if !ok {
			return nil, noCtrl, typeErr(0, "while condition must be a boolean")
		}
		if !bool(cond) {
			break
		}

		_, bctrl, err := n.Body.Eval(env)
		if err != nil {
			return nil, noCtrl, err
		}
		switch bctrl.Kind {
		case CtrlBreak:
			return Nil, noCtrl, nil
		case CtrlReturn:
			return nil, bctrl, nil
		}
		// CtrlContinue and CtrlNone both fall through to the next iteration.
	}
	return Nil, noCtrl, nil
}

func (n *For) Eval(env *Environment) (Value, Ctrl, error) {
	iterVal, ctrl, err := n.Iterable.Eval(env)
	if err != nil || ctrl.Kind != CtrlNone {
		return nil, ctrl, err
	}

	switch it := iterVal.(type) {
	case *ListValue:
		for i := range it.Elements {
			childEnv := NewChildEnvironment(env)
			if err := childEnv.Define(n.IterName, it.Elements[i]); err != nil {
				return nil, noCtrl, withLine(err, n.Line)
			}
			if n.CounterName != "" {
				if err := childEnv.Define(n.CounterName, NumberValue(i)); err != nil {
					return nil, noCtrl, withLine(err, n.Line)
				}
			}
			_, bctrl, err := n.Body.Eval(childEnv)
			if err != nil {
				return nil, noCtrl, err
			}
			// write back any mutation of the loop variable itself
			if v, gerr := childEnv.Get(n.IterName); gerr == nil {
				it.Elements[i] = v
			}
			if bctrl.Kind == CtrlBreak {
				return Nil, noCtrl, nil
			}
			if bctrl.Kind == CtrlReturn {
				return nil, bctrl, nil
			}
		}
		return Nil, noCtrl, nil

	case *StringValue:
		for i := range it.Chars {
			childEnv := NewChildEnvironment(env)
			if err := childEnv.Define(n.IterName, CharValue(it.Chars[i])); err != nil {
				return nil, noCtrl, withLine(err, n.Line)
			}
			if n.CounterName != "" {
				if err := childEnv.Define(n.CounterName, NumberValue(i)); err != nil {
					return nil, noCtrl, withLine(err, n.Line)
				}
			}
			_, bctrl, err := n.Body.Eval(childEnv)
			if err != nil {
				return nil, noCtrl, err
			}
			if v, gerr := childEnv.Get(n.IterName); gerr == nil {
				if ch, ok := v.(CharValue); ok {
					it.Chars[i] = rune(ch)
				}
			}
			if bctrl.Kind == CtrlBreak {
				return Nil, noCtrl, nil
			}
			if bctrl.Kind == CtrlReturn {
				return nil, bctrl, nil
			}
		}
		return Nil, noCtrl, nil

	case RangeValue:
		return n.evalRangeFor(env, it)
	}

	return nil, noCtrl, typeErr(n.Line, "for target must be a list, string, or range")
}

func (n *For) evalRangeFor(env *Environment, r RangeValue) (Value, Ctrl, error) {
	switch start := r.Start.(type) {
	case NumberValue:
		end, ok := r.End.(NumberValue)
		if !ok {
			return nil, noCtrl, internalErr("range with number start and non-number end")
		}
		i := 0
		for cur := start; (r.Inclusive && cur <= end) || (!r.Inclusive && cur < end); cur++ {
			childEnv := NewChildEnvironment(env)
			if err := childEnv.Define(n.IterName, cur); err != nil {
				return nil, noCtrl, withLine(err, n.Line)
			}
			if n.CounterName != "" {
				if err := childEnv.Define(n.CounterName, NumberValue(i)); err != nil {
					return nil, noCtrl, withLine(err, n.Line)
				}
			}
			_, bctrl, err := n.Body.Eval(childEnv)
			if err != nil {
				return nil, noCtrl, err
			}
			if bctrl.Kind == CtrlBreak {
				return Nil, noCtrl, nil
			}
			if bctrl.Kind == CtrlReturn {
				return nil, bctrl, nil
			}
			i++
		}
		return Nil, noCtrl, nil

	case CharValue:
		end, ok := r.End.(CharValue)
		if !ok {
			return nil, noCtrl, internalErr("range with char start and non-char end")
		}
		i := 0
		for cur := start; (r.Inclusive && cur <= end) || (!r.Inclusive && cur < end); cur++ {
			childEnv := NewChildEnvironment(env)
			if err := childEnv.Define(n.IterName, cur); err != nil {
				return nil, noCtrl, withLine(err, n.Line)
			}
			if n.CounterName != "" {
				if err := childEnv.Define(n.CounterName, NumberValue(i)); err != nil {
					return nil, noCtrl, withLine(err, n.Line)
				}
			}
			_, bctrl, err := n.Body.Eval(childEnv)
			if err != nil {
				return nil, noCtrl, err
			}
			if bctrl.Kind == CtrlBreak {
				return Nil, noCtrl, nil
			}
			if bctrl.Kind == CtrlReturn {
				return nil, bctrl, nil
			}
			i++
		}
		return Nil, noCtrl, nil
	}

	return nil, noCtrl, internalErr("unreachable range element kind")
}

func (n *Break) Eval(env *Environment) (Value, Ctrl, error) {
	return Nil, Ctrl{Kind: CtrlBreak}, nil
}

func (n *Continue) Eval(env *Environment) (Value, Ctrl, error) {
	return Nil, Ctrl{Kind: CtrlContinue}, nil
}

func (n *Return) Eval(env *Environment) (Value, Ctrl, error) {
	if n.Expr == nil {
		return nil, Ctrl{Kind: CtrlReturn, Value: Nil}, nil
	}
	v, ctrl, err := n.Expr.Eval(env)
	if err != nil || ctrl.Kind != CtrlNone {
		return nil, ctrl, err
	}
	return nil, Ctrl{Kind: CtrlReturn, Value: v}, nil
}

func (n *Print) Eval(env *Environment) (Value, Ctrl, error) {
	v, ctrl, err := n.Expr.Eval(env)
	if err != nil || ctrl.Kind != CtrlNone {
		return nil, ctrl, err
	}
	fmt.Fprintln(env.Output(), v.String())
	return Nil, noCtrl, nil
}

func (n *Lambda) Eval(env *Environment) (Value, Ctrl, error) {
	return &LambdaValue{Node: n}, noCtrl, nil
}

// withLine sets a diagnostic's Line if it isn't already set, so that
// environment-level errors (which don't know their call site) get
// attributed to the node that triggered them.
func withLine(err error, line int) error {
	if err == nil {
		return nil
	}
	if d, ok := AsDiagnostic(err); ok && d.Line == 0 {
		d.Line = line
	}
	return err
}

func kindName(v Value) string {
	switch v.Kind() {
	case KindNil:
		return "nil"
	case KindBoolean:
		return "boolean"
	case KindNumber:
		return "number"
	case KindChar:
		return "char"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindRange:
		return "range"
	case KindLambda:
		return "lambda"
	case KindClass:
		return "class"
	case KindInstance:
		return "instance"
	}
	return "value"
}
