// Package flowchart decides whether a specification's flowchart can be drawn
// by the local deterministic generator or needs the remote one. The decision
// is pure and total; it never costs a second model call.
package flowchart

import (
	"strings"

	"github.com/babyccino/pipeline-orchestrator/internal/models"
	"github.com/babyccino/pipeline-orchestrator/internal/vocab"
)

// Route is the router's verdict.
type Route string

const (
	RouteSimple  Route = "simple"
	RouteComplex Route = "complex"
)

// Classify routes a specification. Decision order:
//  1. inherently simple name → simple, overriding everything else;
//  2. loop/recursion/multi-branch keyword in name or purpose → complex;
//  3. more edge cases than the threshold → complex;
//  4. more than two parameters, or any collection parameter → complex;
//  5. otherwise simple.
//
// Ties resolve toward complex except rule 1: a false "simple" draws a visibly
// wrong diagram, a false "complex" only costs latency.
func Classify(req models.FunctionRequirements) Route {
	name := strings.ToLower(req.Name)
	for _, simple := range vocab.SimpleFunctionNames {
		if strings.Contains(name, simple) {
			return RouteSimple
		}
	}

	text := name + " " + strings.ToLower(req.Purpose)
	for _, kw := range vocab.ComplexityKeywords {
		if strings.Contains(text, kw) {
			return RouteComplex
		}
	}

	if len(req.EdgeCases) > vocab.EdgeCaseThreshold {
		return RouteComplex
	}

	if len(req.Parameters) > vocab.MaxSimpleParams {
		return RouteComplex
	}
	for _, p := range req.Parameters {
		if vocab.IsCollectionType(p.Type) {
			return RouteComplex
		}
	}

	return RouteSimple
}
