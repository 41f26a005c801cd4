package lang

// ClassDecl.Eval implements single inheritance by copy-then-override
// (spec.md §4.5): a subclass's method table starts as a copy of its
// superclass's, an inherited init is additionally preserved under the
// reserved "<SUPER>" key so a subclass init can still reach it via
// super(...), and the subclass's own declared methods then overwrite
// whichever copied entries share a name.
func (n *ClassDecl) Eval(env *Environment) (Value, Ctrl, error) {
	var super *ClassValue
	if n.Super != "" {
		superVal, err := env.Get(n.Super)
		if err != nil {
			return nil, noCtrl, withLine(err, n.Line)
		}
		sc, ok := superVal.(*ClassValue)
		if !ok {
			return nil, noCtrl, inheritanceErr(n.Line, "%q is not a class", n.Super)
		}
		super = sc
	}

	class := NewClass(n.Name, super)

	if super != nil {
		for name, fn := range super.Methods {
			class.Methods[name] = fn
		}
		if initFn, ok := super.Methods["init"]; ok {
			class.Methods["<SUPER>"] = initFn
		}
		for name, fn := range super.ClassMethods {
			class.ClassMethods[name] = fn
		}
	}

	for _, m := range n.Methods {
		class.Methods[m.Name] = &LambdaValue{Node: m.Fn}
	}
	for _, m := range n.ClassMethods {
		class.ClassMethods[m.Name] = &LambdaValue{Node: m.Fn}
	}

	if err := env.Define(n.Name, class); err != nil {
		return nil, noCtrl, withLine(err, n.Line)
	}
	return Nil, noCtrl, nil
}

// SuperCall.Eval resolves "self" and the reserved "<ClassName>" marker
// bound when the enclosing method started running, then invokes the init
// copied under "<SUPER>" in that class's method table. The instance's
// current class view is set to the superclass for the call and back to the
// outer class on return; field and method lookups do not consult the view.
func (n *SuperCall) Eval(env *Environment) (Value, Ctrl, error) {
	selfVal, err := env.Get("self")
	if err != nil {
		return nil, noCtrl, withLine(err, n.Line)
	}
	self, ok := selfVal.(*InstanceValue)
	if !ok {
		return nil, noCtrl, internalErr("super() used outside an instance method")
	}

	classVal, err := env.Get("<ClassName>")
	if err != nil {
		return nil, noCtrl, withLine(err, n.Line)
	}
	class, ok := classVal.(*ClassValue)
	if !ok {
		return nil, noCtrl, internalErr("super() current-class marker is not a class")
	}

	superInit, ok := class.Methods["<SUPER>"]
	if !ok {
		return nil, noCtrl, inheritanceErr(n.Line, "no superclass init reachable via super()")
	}

	args := make([]Value, 0, len(n.Args))
	for _, a := range n.Args {
		v, ctrl, err := a.Eval(env)
		if err != nil || ctrl.Kind != CtrlNone {
			return nil, ctrl, err
		}
		args = append(args, v)
	}

	owner := class.Super
	if owner == nil {
		owner = class
	}
	self.view = owner
	if _, err := callMethod(superInit, owner, self, args, env); err != nil {
		return nil, noCtrl, err
	}
	self.view = class
	return self, noCtrl, nil
}
