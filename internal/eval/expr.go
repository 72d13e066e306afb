package eval

import (
	"errors"
	"fmt"

	"iterlower/internal/bound"
	"iterlower/internal/symbols"
)

var errDivisionByZero = errors.New("division by zero")

func (a *activation) eval(e bound.Expression) (any, error) {
	switch e := e.(type) {
	case *bound.Literal:
		return e.Value, nil

	case *bound.LocalRef:
		if v, ok := a.locals[e.Local]; ok {
			return v, nil
		}
		return zero(e.Local.Type), nil

	case *bound.ParameterRef:
		ordinal := e.Parameter.Ordinal
		if ordinal < 0 || ordinal >= len(a.args) {
			return nil, fmt.Errorf("%s: missing argument %s", a.p.method, e.Parameter.Name)
		}
		return a.args[ordinal], nil

	case *bound.This:
		if a.this == nil {
			return nil, fmt.Errorf("%s: no instance", a.p.method)
		}
		return a.this, nil

	case *bound.FieldRef:
		obj, err := a.object(e.Receiver)
		if err != nil {
			return nil, err
		}
		return obj.Get(e.Field), nil

	case *bound.Assignment:
		v, err := a.eval(e.Value)
		if err != nil {
			return nil, err
		}
		return v, a.store(e.Target, v)

	case *bound.Binary:
		return a.binary(e)

	case *bound.Unary:
		v, err := a.eval(e.Operand)
		if err != nil {
			return nil, err
		}
		switch e.Op {
		case bound.OpNot:
			b, err := asBool(v)
			return !b, err
		case bound.OpNeg:
			n, err := asInt(v)
			return -n, err
		}
		return nil, fmt.Errorf("unknown unary operator %s", e.Op)

	case *bound.Call:
		return a.call(e)
	}
	return nil, fmt.Errorf("cannot evaluate %T", e)
}

func (a *activation) object(e bound.Expression) (*Object, error) {
	v, err := a.eval(e)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(*Object)
	if !ok || obj == nil {
		return nil, fmt.Errorf("field access on %T", v)
	}
	return obj, nil
}

func (a *activation) store(target bound.Expression, v any) error {
	switch t := target.(type) {
	case *bound.LocalRef:
		a.locals[t.Local] = v
	case *bound.FieldRef:
		obj, err := a.object(t.Receiver)
		if err != nil {
			return err
		}
		obj.Set(t.Field, v)
	case *bound.ParameterRef:
		if t.Parameter.Ordinal < 0 || t.Parameter.Ordinal >= len(a.args) {
			return fmt.Errorf("%s: missing argument %s", a.p.method, t.Parameter.Name)
		}
		a.args[t.Parameter.Ordinal] = v
	default:
		return fmt.Errorf("cannot assign to %s", target.Kind())
	}
	return nil
}

func (a *activation) binary(e *bound.Binary) (any, error) {
	l, err := a.eval(e.Left)
	if err != nil {
		return nil, err
	}

	if e.Op.IsLogical() {
		lb, err := asBool(l)
		if err != nil {
			return nil, err
		}
		if (e.Op == bound.OpAnd) != lb {
			return lb, nil
		}
		r, err := a.eval(e.Right)
		if err != nil {
			return nil, err
		}
		return asBool(r)
	}

	r, err := a.eval(e.Right)
	if err != nil {
		return nil, err
	}

	switch e.Op {
	case bound.OpEq:
		return l == r, nil
	case bound.OpNe:
		return l != r, nil
	}

	if ls, ok := l.(string); ok {
		rs, ok := r.(string)
		if !ok {
			return nil, fmt.Errorf("operator %s on string and %T", e.Op, r)
		}
		switch e.Op {
		case bound.OpAdd:
			return ls + rs, nil
		case bound.OpLt:
			return ls < rs, nil
		case bound.OpLe:
			return ls <= rs, nil
		case bound.OpGt:
			return ls > rs, nil
		case bound.OpGe:
			return ls >= rs, nil
		}
		return nil, fmt.Errorf("operator %s not defined on strings", e.Op)
	}

	li, err := asInt(l)
	if err != nil {
		return nil, err
	}
	ri, err := asInt(r)
	if err != nil {
		return nil, err
	}
	switch e.Op {
	case bound.OpAdd:
		return li + ri, nil
	case bound.OpSub:
		return li - ri, nil
	case bound.OpMul:
		return li * ri, nil
	case bound.OpDiv:
		if ri == 0 {
			return nil, errDivisionByZero
		}
		return li / ri, nil
	case bound.OpMod:
		if ri == 0 {
			return nil, errDivisionByZero
		}
		return li % ri, nil
	case bound.OpLt:
		return li < ri, nil
	case bound.OpLe:
		return li <= ri, nil
	case bound.OpGt:
		return li > ri, nil
	case bound.OpGe:
		return li >= ri, nil
	}
	return nil, fmt.Errorf("unknown binary operator %s", e.Op)
}

func (a *activation) call(e *bound.Call) (any, error) {
	args := make([]any, len(e.Arguments))
	for i, arg := range e.Arguments {
		v, err := a.eval(arg)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	if e.Method.Kind == symbols.MethodKindHost {
		fn, ok := a.m.hosts[e.Method.Name]
		if !ok {
			return nil, fmt.Errorf("undefined host method %s", e.Method.Name)
		}
		log.Debugf("host call %s%v", e.Method.Name, args)
		return fn(args)
	}

	var this *Object
	if e.Receiver != nil {
		obj, err := a.object(e.Receiver)
		if err != nil {
			return nil, err
		}
		this = obj
	}
	return a.m.Call(e.Method, this, args...)
}

func asBool(v any) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("expected bool, got %T", v)
	}
	return b, nil
}

func asInt(v any) (int, error) {
	n, ok := v.(int)
	if !ok {
		return 0, fmt.Errorf("expected int, got %T", v)
	}
	return n, nil
}

func zero(t *symbols.Type) any {
	if t == nil {
		return nil
	}
	switch t.Special {
	case symbols.SpecialInt:
		return 0
	case symbols.SpecialBool:
		return false
	case symbols.SpecialString:
		return ""
	}
	return nil
}
