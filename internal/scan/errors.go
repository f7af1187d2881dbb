package scan

import (
	"fmt"
	"strings"
)

// NotFoundError reports that an entry package exports no factory under
// the requested name.
type NotFoundError struct {
	Name  string
	Entry string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("factory %q not found in %s", e.Name, e.Entry)
}

// AmbiguousError reports that one exported name resolves to more than
// one distinct declaration.
type AmbiguousError struct {
	Name      string
	Positions []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("ambiguous export %q: declared at %s", e.Name, strings.Join(e.Positions, " and "))
}

// CycleError reports a re-export chain that never reaches a concrete
// declaration within the allowed number of links.
type CycleError struct {
	Name  string
	Chain []string
	Limit int
}

func (e *CycleError) Error() string {
	if e.Limit > 0 {
		return fmt.Sprintf("export chain for %q exceeds %d links: %s", e.Name, e.Limit, strings.Join(e.Chain, " -> "))
	}
	return fmt.Sprintf("cyclic export chain for %q: %s", e.Name, strings.Join(e.Chain, " -> "))
}
