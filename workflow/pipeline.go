package workflow

import (
	"context"
	"fmt"
)

// Pipeline runs its steps strictly in order against one context.
type Pipeline struct {
	name  string
	steps []Step
}

// NewPipeline creates a pipeline. An empty name becomes "pipeline".
func NewPipeline(name string, steps ...Step) *Pipeline {
	if name == "" {
		name = "pipeline"
	}
	return &Pipeline{name: name, steps: steps}
}

// Name implements Step.
func (p *Pipeline) Name() string { return p.name }

// Steps returns the steps in order.
func (p *Pipeline) Steps() []Step { return append([]Step(nil), p.steps...) }

// Run returns the last step's result. The first error aborts the pipeline and
// is returned wrapped with the failing step's name.
func (p *Pipeline) Run(ctx context.Context, wc *Context) (any, error) {
	if wc == nil {
		wc = NewContext(nil)
	}
	var last any
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result, err := Execute(ctx, step, wc)
		if err != nil {
			return nil, fmt.Errorf("pipeline %q: step %q: %w", p.name, step.Name(), err)
		}
		last = result
	}
	return last, nil
}

// -----------------------------------------------------------------------------
// Router
// -----------------------------------------------------------------------------

// Predicate decides whether a route applies.
type Predicate func(wc *Context) bool

// Route pairs a predicate with the step it selects.
type Route struct {
	When Predicate
	Step Step
}

// When is shorthand for Route{When: pred, Step: step}.
func When(pred Predicate, step Step) Route {
	return Route{When: pred, Step: step}
}

// Router runs the step of the first route whose predicate holds.
type Router struct {
	name     string
	routes   []Route
	fallback Step
}

// NewRouter creates a router. fallback may be nil. An empty name becomes "router".
func NewRouter(name string, routes []Route, fallback Step) *Router {
	if name == "" {
		name = "router"
	}
	return &Router{name: name, routes: routes, fallback: fallback}
}

// Name implements Step.
func (r *Router) Name() string { return r.name }

// Run evaluates routes in order. When none match it runs the fallback, and
// without a fallback it returns nil, nil.
func (r *Router) Run(ctx context.Context, wc *Context) (any, error) {
	if wc == nil {
		wc = NewContext(nil)
	}
	for _, route := range r.routes {
		if route.When(wc) {
			return Execute(ctx, route.Step, wc)
		}
	}
	if r.fallback != nil {
		return Execute(ctx, r.fallback, wc)
	}
	return nil, nil
}
