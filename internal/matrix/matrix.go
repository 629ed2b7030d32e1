// Package matrix expands a declared set of axes into concrete job specs.
//
// Expansion is the cartesian product of the axes in declaration order, with
// the outermost axis varying slowest. The order is deterministic: loading
// the same declaration twice always yields the same spec list. Because axis
// values are unique within an axis (enforced at config validation), the
// product can never contain duplicate specs.
package matrix

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"

	"github.com/gridci/gridci/internal/config"
)

// JobSpec is one concrete combination of axis values. It uniquely
// identifies one independent job instance and is never mutated after
// expansion.
type JobSpec struct {
	// Ordinal is the spec's position in deterministic expansion order.
	Ordinal int

	// Name is the human-readable job name, rendered from the pipeline's
	// name template or, by default, the axis values joined by "-".
	Name string

	// Values assigns exactly one value to every axis, keyed by axis name.
	// Treat as read-only.
	Values map[string]string
}

// Value returns the spec's value for the named axis.
func (s JobSpec) Value(axis string) string {
	return s.Values[axis]
}

// Expand produces one JobSpec per combination of axis values. An empty axis
// list, or any axis with zero values, yields zero specs: that is "nothing
// to run", not an error.
func Expand(axes []config.Axis, nameTemplate string) ([]JobSpec, error) {
	if len(axes) == 0 {
		return nil, nil
	}

	total := 1
	for _, axis := range axes {
		total *= len(axis.Values)
	}
	if total == 0 {
		return nil, nil
	}

	var tmpl hcl.Expression
	if nameTemplate != "" {
		expr, diags := hclsyntax.ParseTemplate([]byte(nameTemplate), "name_template", hcl.InitialPos)
		if diags.HasErrors() {
			return nil, fmt.Errorf("invalid name template %q: %w", nameTemplate, diags)
		}
		tmpl = expr
	}

	specs := make([]JobSpec, 0, total)
	for i := 0; i < total; i++ {
		values := make(map[string]string, len(axes))

		// Odometer decomposition of i: the last axis has stride 1, each
		// preceding axis strides by the product of the sizes after it.
		stride := total
		for _, axis := range axes {
			stride /= len(axis.Values)
			values[axis.Name] = axis.Values[(i/stride)%len(axis.Values)]
		}

		name, err := renderName(axes, values, tmpl)
		if err != nil {
			return nil, err
		}

		specs = append(specs, JobSpec{Ordinal: i, Name: name, Values: values})
	}

	return specs, nil
}

// renderName evaluates the name template with the axis values bound as
// string variables. With no template, axis values are joined by "-" in
// axis declaration order.
func renderName(axes []config.Axis, values map[string]string, tmpl hcl.Expression) (string, error) {
	if tmpl == nil {
		parts := make([]string, 0, len(axes))
		for _, axis := range axes {
			parts = append(parts, values[axis.Name])
		}
		return strings.Join(parts, "-"), nil
	}

	vars := make(map[string]cty.Value, len(values))
	for name, value := range values {
		vars[name] = cty.StringVal(value)
	}

	result, diags := tmpl.Value(&hcl.EvalContext{Variables: vars})
	if diags.HasErrors() {
		return "", fmt.Errorf("evaluating name template: %w", diags)
	}
	if result.Type() != cty.String {
		return "", fmt.Errorf("name template must produce a string, got %s", result.Type().FriendlyName())
	}
	return result.AsString(), nil
}
