// Package validator crawls a described graph from its entry state.
package validator

import (
	"fmt"
	"strings"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/inspect"
)

// Report is the result of a crawl.
type Report struct {
	// Unreachable lists declared states no static edge leads to, in
	// declaration order.
	Unreachable []string
	// Dynamic lists reachable states whose handlers compute the target at
	// run time. When it is not empty, Unreachable may hold false positives.
	Dynamic []string
}

// Err summarizes the unreachable states, or returns nil.
func (r Report) Err() error {
	if len(r.Unreachable) == 0 {
		return nil
	}
	return fmt.Errorf("found %d unreachable states:\n- %s", len(r.Unreachable), strings.Join(r.Unreachable, "\n- "))
}

// Crawl walks every static edge starting at start.
func Crawl(nodes []inspect.Node, start string) Report {
	byName := make(map[string]inspect.Node, len(nodes))
	for _, n := range nodes {
		byName[n.Name] = n
	}

	var report Report
	visited := make(map[string]bool)
	queue := []string{start}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if visited[current] {
			continue
		}
		visited[current] = true

		n, ok := byName[current]
		if !ok {
			continue
		}
		dynamic := false
		for _, e := range n.Edges {
			if e.Kind == inspect.KindDynamic {
				dynamic = true
				continue
			}
			if e.To != "" && e.To != domain.StateDie && !visited[e.To] {
				queue = append(queue, e.To)
			}
		}
		if dynamic {
			report.Dynamic = append(report.Dynamic, current)
		}
	}

	for _, n := range nodes {
		if !visited[n.Name] {
			report.Unreachable = append(report.Unreachable, n.Name)
		}
	}
	return report
}
