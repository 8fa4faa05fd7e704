package builtins

import (
	"context"
	"math"
	"math/rand"

	"github.com/juniper-lang/juniper/object"
)

// Math builds the Math namespace object.
func Math() *object.Map {
	ns := object.NewEmptyMap()
	ns.Set("PI", object.NewNumber(math.Pi))
	ns.Set("E", object.NewNumber(math.E))
	ns.Set("LN2", object.NewNumber(math.Ln2))
	ns.Set("SQRT2", object.NewNumber(math.Sqrt2))

	unary := func(name string, fn func(float64) float64) {
		ns.Set(name, object.NewBuiltin(name, func(ctx context.Context, this object.Object, args ...object.Object) object.Object {
			if len(args) == 0 {
				return object.NewNaN()
			}
			f, err := object.ToNumberValue(args[0])
			if err != nil {
				return object.ExceptionFromError(err)
			}
			return object.NewNumber(fn(f))
		}))
	}
	unary("abs", math.Abs)
	unary("floor", math.Floor)
	unary("ceil", math.Ceil)
	unary("round", math.Round)
	unary("trunc", math.Trunc)
	unary("sqrt", math.Sqrt)
	unary("cbrt", math.Cbrt)
	unary("sign", func(f float64) float64 {
		switch {
		case f > 0:
			return 1
		case f < 0:
			return -1
		default:
			return f
		}
	})
	unary("exp", math.Exp)
	unary("log", math.Log)
	unary("log2", math.Log2)
	unary("log10", math.Log10)
	unary("sin", math.Sin)
	unary("cos", math.Cos)
	unary("tan", math.Tan)
	unary("asin", math.Asin)
	unary("acos", math.Acos)
	unary("atan", math.Atan)

	ns.Set("pow", object.NewBuiltin("pow", func(ctx context.Context, this object.Object, args ...object.Object) object.Object {
		if len(args) < 2 {
			return object.NewNaN()
		}
		x, err := object.ToNumberValue(args[0])
		if err != nil {
			return object.ExceptionFromError(err)
		}
		y, err := object.ToNumberValue(args[1])
		if err != nil {
			return object.ExceptionFromError(err)
		}
		return object.NewNumber(math.Pow(x, y))
	}))
	ns.Set("atan2", object.NewBuiltin("atan2", func(ctx context.Context, this object.Object, args ...object.Object) object.Object {
		if len(args) < 2 {
			return object.NewNaN()
		}
		y, err := object.ToNumberValue(args[0])
		if err != nil {
			return object.ExceptionFromError(err)
		}
		x, err := object.ToNumberValue(args[1])
		if err != nil {
			return object.ExceptionFromError(err)
		}
		return object.NewNumber(math.Atan2(y, x))
	}))
	ns.Set("hypot", object.NewBuiltin("hypot", func(ctx context.Context, this object.Object, args ...object.Object) object.Object {
		sum := 0.0
		for _, arg := range args {
			f, err := object.ToNumberValue(arg)
			if err != nil {
				return object.ExceptionFromError(err)
			}
			sum += f * f
		}
		return object.NewNumber(math.Sqrt(sum))
	}))
	ns.Set("max", object.NewBuiltin("max", func(ctx context.Context, this object.Object, args ...object.Object) object.Object {
		return minMax(args, math.Inf(-1), math.Max)
	}))
	ns.Set("min", object.NewBuiltin("min", func(ctx context.Context, this object.Object, args ...object.Object) object.Object {
		return minMax(args, math.Inf(1), math.Min)
	}))
	ns.Set("random", object.NewBuiltin("random", func(ctx context.Context, this object.Object, args ...object.Object) object.Object {
		return object.NewNumber(rand.Float64())
	}))
	return ns
}

func minMax(args []object.Object, start float64, pick func(a, b float64) float64) object.Object {
	result := start
	for _, arg := range args {
		f, err := object.ToNumberValue(arg)
		if err != nil {
			return object.ExceptionFromError(err)
		}
		if math.IsNaN(f) {
			return object.NewNaN()
		}
		result = pick(result, f)
	}
	return object.NewNumber(result)
}
