package lang

// Invocation dispatch: lambdas, classes (construction), bound methods on
// instances and classes, and the small set of built-in methods strings and
// lists expose (concat on strings; add/insert/find/remove on lists). Bare
// calls and method calls share the same argument-evaluation and
// arity-binding machinery.

func evalInvocation(n *Binary, env *Environment) (Value, Ctrl, error) {
	argsBlock, ok := n.Rhs.(*Block)
	if !ok {
		return nil, noCtrl, internalErr("invocation argument list must be a Block")
	}

	if bm, ok := n.Lhs.(*BoundMethod); ok {
		args, ctrl, err := evalArgs(argsBlock, env)
		if err != nil || ctrl.Kind != CtrlNone {
			return nil, ctrl, err
		}
		return evalBoundMethodCall(bm, args, env)
	}

	calleeVal, ctrl, err := n.Lhs.Eval(env)
	if err != nil || ctrl.Kind != CtrlNone {
		return nil, ctrl, err
	}
	args, ctrl, err := evalArgs(argsBlock, env)
	if err != nil || ctrl.Kind != CtrlNone {
		return nil, ctrl, err
	}
	return invoke(calleeVal, args, n.Line, env)
}

func evalArgs(args *Block, env *Environment) ([]Value, Ctrl, error) {
	vals := make([]Value, 0, len(args.Children))
	for _, e := range args.Children {
		v, ctrl, err := e.Eval(env)
		if err != nil || ctrl.Kind != CtrlNone {
			return nil, ctrl, err
		}
		vals = append(vals, v)
	}
	return vals, noCtrl, nil
}

func invoke(callee Value, args []Value, line int, env *Environment) (Value, Ctrl, error) {
	switch c := callee.(type) {
	case *LambdaValue:
		v, err := callLambda(c, args, env)
		if err != nil {
			return nil, noCtrl, err
		}
		return v, noCtrl, nil
	case *ClassValue:
		inst := NewInstance(c)
		if initFn, ok := c.Methods["init"]; ok {
			v, err := callMethod(initFn, c, inst, args, env)
			if err != nil {
				return nil, noCtrl, err
			}
			if _, isNil := v.(NilValue); !isNil {
				return nil, noCtrl, typeErr(line, "init must not return a value")
			}
		} else if len(args) != 0 {
			return nil, noCtrl, arityErr(line, "class %s has no init, expected 0 arguments, got %d", c.Name, len(args))
		}
		return inst, noCtrl, nil
	}
	return nil, noCtrl, typeErr(line, "cannot invoke a %s", kindName(callee))
}

func evalBoundMethodCall(bm *BoundMethod, args []Value, env *Environment) (Value, Ctrl, error) {
	recv, ctrl, err := bm.Receiver.Eval(env)
	if err != nil || ctrl.Kind != CtrlNone {
		return nil, ctrl, err
	}

	switch r := recv.(type) {
	case *InstanceValue:
		method, ok := r.Class.Methods[bm.MethodName]
		if !ok {
			return nil, noCtrl, nameErr(bm.Line, "undefined method %q on instance of %s", bm.MethodName, r.Class.Name)
		}
		v, err := callMethod(method, r.Class, r, args, env)
		if err != nil {
			return nil, noCtrl, err
		}
		return v, noCtrl, nil
	case *ClassValue:
		method, ok := r.ClassMethods[bm.MethodName]
		if !ok {
			if _, isInstanceMethod := r.Methods[bm.MethodName]; isInstanceMethod {
				return nil, noCtrl, nameErr(bm.Line, "%q is an instance method, not a class method, on %s", bm.MethodName, r.Name)
			}
			return nil, noCtrl, nameErr(bm.Line, "undefined class method %q on %s", bm.MethodName, r.Name)
		}
		v, err := callLambda(method, args, env)
		if err != nil {
			return nil, noCtrl, err
		}
		return v, noCtrl, nil
	case *StringValue:
		return evalStringMethod(r, bm.MethodName, args, bm.Line)
	case *ListValue:
		return evalListMethod(r, bm.MethodName, args, bm.Line)
	}

	return nil, noCtrl, typeErr(bm.Line, "cannot call method %q on a %s", bm.MethodName, kindName(recv))
}

// bindParams defines each parameter in callEnv. When isVarargs, the final
// name collects every trailing argument (including zero) as a list.
func bindParams(callEnv *Environment, params []string, isVarargs bool, args []Value, line int) error {
	if !isVarargs {
		if len(args) != len(params) {
			return arityErr(line, "expected %d argument(s), got %d", len(params), len(args))
		}
		for i, p := range params {
			if err := callEnv.Define(p, args[i]); err != nil {
				return withLine(err, line)
			}
		}
		return nil
	}

	if len(params) == 0 {
		return internalErr("varargs lambda declared with no parameters")
	}
	fixed := params[:len(params)-1]
	restName := params[len(params)-1]
	if len(args) < len(fixed) {
		return arityErr(line, "expected at least %d argument(s), got %d", len(fixed), len(args))
	}
	for i, p := range fixed {
		if err := callEnv.Define(p, args[i]); err != nil {
			return withLine(err, line)
		}
	}
	rest := append([]Value{}, args[len(fixed):]...)
	return callEnv.Define(restName, NewList(rest))
}

// callLambda invokes a free (non-method) lambda. Its callee scope has no
// parent — only the global frame is reachable — since this language has no
// closure capture. The lambda registers itself as a constant under its own
// id so a recursive call by name works even when the lambda is nested
// somewhere the detached scope otherwise couldn't see.
func callLambda(fn *LambdaValue, args []Value, env *Environment) (Value, error) {
	callEnv := NewDetachedEnvironment(env.Global())
	if err := callEnv.DefineConst(fn.Node.ID, fn); err != nil {
		return nil, err
	}
	if err := bindParams(callEnv, fn.Node.ArgNames, fn.Node.IsVarargs, args, fn.Node.Line); err != nil {
		return nil, err
	}
	v, ctrl, err := fn.Node.Body.Eval(callEnv)
	if err != nil {
		return nil, err
	}
	if ctrl.Kind == CtrlReturn {
		return ctrl.Value, nil
	}
	return v, nil
}

// callMethod invokes a method body with the constant "self" bound to the
// receiving instance and the reserved constant "<ClassName>" bound to
// owner, the class whose method table this body came from — the state
// super() needs to find the superclass's copied-over init (spec.md §4.5).
// An init body yields Nil unless it returns a value explicitly, so only an
// explicit return counts as init returning a value.
func callMethod(method *LambdaValue, owner *ClassValue, self *InstanceValue, args []Value, env *Environment) (Value, error) {
	callEnv := NewDetachedEnvironment(env.Global())
	if err := callEnv.DefineConst("self", self); err != nil {
		return nil, err
	}
	if err := callEnv.DefineConst("<ClassName>", owner); err != nil {
		return nil, err
	}
	if err := bindParams(callEnv, method.Node.ArgNames, method.Node.IsVarargs, args, method.Node.Line); err != nil {
		return nil, err
	}
	v, ctrl, err := method.Node.Body.Eval(callEnv)
	if err != nil {
		return nil, err
	}
	if ctrl.Kind == CtrlReturn {
		return ctrl.Value, nil
	}
	if method.Node.ID == "init" {
		return Nil, nil
	}
	return v, nil
}

// evalStringMethod implements the one built-in string method: concat
// appends the string form of every argument, of any value kind, to the
// receiver in place.
func evalStringMethod(s *StringValue, name string, args []Value, line int) (Value, Ctrl, error) {
	switch name {
	case "concat":
		for _, a := range args {
			s.Chars = append(s.Chars, []rune(a.String())...)
		}
		return Nil, noCtrl, nil
	}
	return nil, noCtrl, nameErr(line, "strings have no method %q", name)
}

func evalListMethod(l *ListValue, name string, args []Value, line int) (Value, Ctrl, error) {
	switch name {
	case "add":
		if len(args) != 1 {
			return nil, noCtrl, arityErr(line, "add expects 1 argument, got %d", len(args))
		}
		l.Elements = append(l.Elements, args[0])
		return Nil, noCtrl, nil
	case "insert":
		if len(args) != 2 {
			return nil, noCtrl, arityErr(line, "insert expects 2 arguments, got %d", len(args))
		}
		idxVal, ok := args[0].(NumberValue)
		if !ok {
			return nil, noCtrl, typeErr(line, "insert index must be a number")
		}
		idx := int(idxVal)
		if idx < 0 || idx > len(l.Elements) {
			return nil, noCtrl, indexErr(line, "insert index %d out of range (length %d)", idx, len(l.Elements))
		}
		l.Elements = append(l.Elements, nil)
		copy(l.Elements[idx+1:], l.Elements[idx:])
		l.Elements[idx] = args[1]
		return Nil, noCtrl, nil
	case "find":
		if len(args) != 1 {
			return nil, noCtrl, arityErr(line, "find expects 1 argument, got %d", len(args))
		}
		for i, e := range l.Elements {
			if Equal(e, args[0]) {
				return NumberValue(i), noCtrl, nil
			}
		}
		return NumberValue(-1), noCtrl, nil
	case "remove":
		if len(args) != 1 {
			return nil, noCtrl, arityErr(line, "remove expects 1 argument, got %d", len(args))
		}
		idxVal, ok := args[0].(NumberValue)
		if !ok {
			return nil, noCtrl, typeErr(line, "remove index must be a number")
		}
		idx := int(idxVal)
		if idx < 0 || idx >= len(l.Elements) {
			return nil, noCtrl, indexErr(line, "remove index %d out of range (length %d)", idx, len(l.Elements))
		}
		l.Elements = append(l.Elements[:idx], l.Elements[idx+1:]...)
		return Nil, noCtrl, nil
	}
	return nil, noCtrl, nameErr(line, "lists have no method %q", name)
}
