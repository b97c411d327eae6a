package study

import (
	"fmt"
	"math"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/gocty"

	"gaincalc/internal/gain"
)

// maxAxisPoints bounds generated axes so a typo cannot exhaust memory.
const maxAxisPoints = 100000

func evalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Functions: map[string]function.Function{
			"linspace": spanFunction(gain.Linspace),
			"logspace": spanFunction(gain.Logspace),
			"range":    rangeFunction,
		},
	}
}

func numberList(values []float64) (cty.Value, error) {
	if len(values) == 0 {
		return cty.ListValEmpty(cty.Number), nil
	}
	return gocty.ToCtyValue(values, cty.List(cty.Number))
}

func countArg(v cty.Value) (int, error) {
	var n int
	if err := gocty.FromCtyValue(v, &n); err != nil {
		return 0, fmt.Errorf("count must be a whole number: %w", err)
	}
	if n < 1 || n > maxAxisPoints {
		return 0, fmt.Errorf("count must be between 1 and %d, got %d", maxAxisPoints, n)
	}
	return n, nil
}

func spanFunction(span func(start, stop float64, n int) ([]float64, error)) function.Function {
	return function.New(&function.Spec{
		Params: []function.Parameter{
			{Name: "start", Type: cty.Number},
			{Name: "stop", Type: cty.Number},
			{Name: "count", Type: cty.Number},
		},
		Type: function.StaticReturnType(cty.List(cty.Number)),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			start, _ := args[0].AsBigFloat().Float64()
			stop, _ := args[1].AsBigFloat().Float64()
			n, err := countArg(args[2])
			if err != nil {
				return cty.NilVal, err
			}
			values, err := span(start, stop, n)
			if err != nil {
				return cty.NilVal, err
			}
			return numberList(values)
		},
	})
}

// rangeFunction yields start, start+step, ... strictly below stop.
var rangeFunction = function.New(&function.Spec{
	Params: []function.Parameter{
		{Name: "start", Type: cty.Number},
		{Name: "stop", Type: cty.Number},
		{Name: "step", Type: cty.Number},
	},
	Type: function.StaticReturnType(cty.List(cty.Number)),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		start, _ := args[0].AsBigFloat().Float64()
		stop, _ := args[1].AsBigFloat().Float64()
		step, _ := args[2].AsBigFloat().Float64()
		if step == 0 || math.IsNaN(step) {
			return cty.NilVal, fmt.Errorf("step must not be zero")
		}
		count := math.Ceil((stop - start) / step)
		if count > maxAxisPoints {
			return cty.NilVal, fmt.Errorf("range would produce more than %d values", maxAxisPoints)
		}
		var values []float64
		for i := 0; i < int(count); i++ {
			values = append(values, start+float64(i)*step)
		}
		return numberList(values)
	},
})
