package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"k8s.io/utils/ptr"

	"github.com/siteforge/layout-optimizer/apis/layout/v1alpha1"
	"github.com/siteforge/layout-optimizer/pkg/sitelayout"
)

func printSummary(w io.Writer, r *sitelayout.Result, elapsed time.Duration) {
	fmt.Fprintf(w, "%s: %s generations, %s evaluations in %s\n",
		nameOr(r.Name, "layout"),
		humanize.Comma(int64(r.Generations)),
		humanize.Comma(int64(r.Evaluations)),
		elapsed.Round(time.Millisecond))
	if r.Interrupted {
		fmt.Fprintln(w, "run interrupted, reporting the last completed generation")
	}
	if total := r.RoadCacheHits + r.RoadCacheMisses; total > 0 {
		fmt.Fprintf(w, "road cache: %s hits of %s lookups\n", humanize.Comma(r.RoadCacheHits), humanize.Comma(total))
	}
	fmt.Fprintf(w, "pareto front: %d solutions\n", len(r.Solutions))
	if len(r.Solutions) == 0 {
		return
	}

	names := r.ObjectiveNames
	if len(names) == 0 {
		for i := range r.Solutions[0].Objectives {
			names = append(names, fmt.Sprintf("f%d", i+1))
		}
	}
	fmt.Fprintf(w, "  %-4s %s %12s %6s\n", "#", columns(names), "violation", "roads")
	for i, s := range r.Solutions {
		values := make([]string, len(s.Objectives))
		for j, v := range s.Objectives {
			values[j] = humanize.CommafWithDigits(v, 2)
		}
		fmt.Fprintf(w, "  %-4d %s %12s %6d\n", i+1, columns(values), humanize.CommafWithDigits(s.Violation, 2), len(s.Roads))
	}
}

func printConfig(w io.Writer, cfg *v1alpha1.LayoutOptimization) {
	spec := cfg.Spec
	g := spec.Genotype
	fmt.Fprintf(w, "%s is valid\n", nameOr(cfg.Name, "LayoutOptimization"))
	fmt.Fprintf(w, "site: %d vertices\n", len(spec.Site.Boundary))
	fmt.Fprintf(w, "genotype: %d grid, %d radial, %d buildings of %d types (%d genes)\n",
		g.GridFields, g.RadialFields, g.Buildings, g.BuildingTypes, sitelayout.Layout(g).Length())
	a := spec.Algorithm
	evals := int64(ptr.Deref(a.PopulationSize, 0)) * int64(ptr.Deref(a.Generations, 0)+1)
	fmt.Fprintf(w, "algorithm: population %d, %d generations, %s evaluations, seed %d\n",
		ptr.Deref(a.PopulationSize, 0), ptr.Deref(a.Generations, 0), humanize.Comma(evals), ptr.Deref(a.Seed, 0))
}

func columns(values []string) string {
	padded := make([]string, len(values))
	for i, v := range values {
		padded[i] = fmt.Sprintf("%14s", v)
	}
	return strings.Join(padded, " ")
}

func nameOr(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}
