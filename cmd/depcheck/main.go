// Command depcheck is a build-time guard: it builds the real call graph
// rooted at a package (cmd/kernel by default) and fails if anything
// reachable from main calls into a hosted-OS-only stdlib package — os,
// net, os/exec — none of which exist under a freestanding kernel with no
// syscall-serving OS beneath it. Generalized from the teacher's
// misc/depgraph/main.go, which shells out to `go mod graph` and renders
// a Graphviz dump of the syntactic import graph for a human to eyeball;
// this tool instead loads the package set with
// golang.org/x/tools/go/packages, builds its SSA form, and runs
// golang.org/x/tools/go/pointer's whole-program analysis to get the real
// call graph — catching a hosted-OS import that is merely present in a
// dependency but never actually called, which a syntactic import walk
// would flag as a false positive. SPEC_FULL.md §9.
package main

import (
	"fmt"
	"os"
	"sort"

	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/go/pointer"
	"golang.org/x/tools/go/ssa/ssautil"
)

// hostedOnly names the stdlib packages that only make sense atop a
// hosted OS. Every one of these assumes a kernel, filesystem, or process
// table this freestanding core does not provide.
var hostedOnly = map[string]bool{
	"os":      true,
	"net":     true,
	"os/exec": true,
}

func main() {
	root := "strata/cmd/kernel"
	if len(os.Args) > 1 {
		root = os.Args[1]
	}

	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedImports | packages.NeedDeps |
			packages.NeedTypes | packages.NeedSyntax | packages.NeedTypesInfo,
	}
	pkgs, err := packages.Load(cfg, root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "depcheck: loading %s: %v\n", root, err)
		os.Exit(1)
	}
	if packages.PrintErrors(pkgs) > 0 {
		os.Exit(1)
	}

	prog, ssaPkgs := ssautil.AllPackages(pkgs, 0)
	prog.Build()

	mains := ssautil.MainPackages(ssaPkgs)
	if len(mains) == 0 {
		fmt.Fprintf(os.Stderr, "depcheck: %s has no main package to analyze\n", root)
		os.Exit(1)
	}

	result, err := pointer.Analyze(&pointer.Config{
		Mains:          mains,
		BuildCallGraph: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "depcheck: call-graph analysis failed: %v\n", err)
		os.Exit(1)
	}

	violations := map[string][]string{} // offending package -> calling functions
	for fn, node := range result.CallGraph.Nodes {
		pkg := fn.Package()
		if pkg == nil {
			continue
		}
		path := pkg.Pkg.Path()
		if !hostedOnly[path] {
			continue
		}
		for _, edge := range node.In {
			caller := edge.Caller.Func
			if caller.Package() == nil {
				continue
			}
			callerPath := caller.Package().Pkg.Path()
			violations[path] = append(violations[path], fmt.Sprintf("%s.%s", callerPath, caller.Name()))
		}
	}

	if len(violations) == 0 {
		fmt.Printf("depcheck: no call into a hosted-OS stdlib package reachable from %s\n", root)
		return
	}

	var bad []string
	for path := range violations {
		bad = append(bad, path)
	}
	sort.Strings(bad)
	for _, path := range bad {
		callers := violations[path]
		sort.Strings(callers)
		for _, c := range callers {
			fmt.Fprintf(os.Stderr, "depcheck: %s calls into hosted-OS package %q\n", c, path)
		}
	}
	os.Exit(1)
}
