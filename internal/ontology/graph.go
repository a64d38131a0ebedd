// Package ontology parses the Turtle ontology the dashboard is built on and
// exposes its class hierarchy for semantic matching.
package ontology

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	rdf2go "github.com/deiu/rdf2go"
	"go.uber.org/zap"

	"github.com/cybernews/backend/pkg/logger"
)

const (
	rdfType      = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"
	rdfsLabel    = "http://www.w3.org/2000/01/rdf-schema#label"
	rdfsSubClass = "http://www.w3.org/2000/01/rdf-schema#subClassOf"
)

type Config struct {
	// Namespace restricts the graph to one vocabulary,
	// e.g. "http://example.org/ontology#".
	Namespace string
	// ExcludeClasses are local names that are declared as classes but are
	// structural markers rather than semantic topics.
	ExcludeClasses []string
}

// Statement is one parsed subject-predicate-object triple.
type Statement struct {
	Subject   string
	Predicate string
	Object    string
}

// ClassCount pairs a class with how many instances are typed to it.
type ClassCount struct {
	URI   string `json:"uri"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Graph is the class hierarchy of one namespace, built once at startup and
// read-only afterwards. Classes with no recorded in-namespace parent are roots.
type Graph struct {
	namespace  string
	statements []Statement
	labels     map[string]string
	classes    map[string]bool
	children   map[string][]string
	isChild    map[string]bool
	instances  map[string]int
	roots      []string
}

// Build parses ttl and derives the hierarchy. A Turtle syntax error is
// returned as-is; callers treat it as fatal.
func Build(ttl string, cfg Config) (*Graph, error) {
	if cfg.Namespace == "" {
		return nil, fmt.Errorf("ontology namespace is required")
	}

	parsed := rdf2go.NewGraph(cfg.Namespace)
	if err := parsed.Parse(strings.NewReader(ttl), "text/turtle"); err != nil {
		return nil, fmt.Errorf("failed to parse ontology: %w", err)
	}

	excluded := make(map[string]bool, len(cfg.ExcludeClasses))
	for _, name := range cfg.ExcludeClasses {
		excluded[name] = true
	}

	g := &Graph{
		namespace: cfg.Namespace,
		labels:    make(map[string]string),
		classes:   make(map[string]bool),
		children:  make(map[string][]string),
		isChild:   make(map[string]bool),
		instances: make(map[string]int),
	}

	for triple := range parsed.IterTriples() {
		subj := triple.Subject.RawValue()
		pred := triple.Predicate.RawValue()
		obj := triple.Object.RawValue()

		inNS := strings.HasPrefix(subj, cfg.Namespace) || strings.HasPrefix(obj, cfg.Namespace)
		if !inNS {
			continue
		}
		g.statements = append(g.statements, Statement{Subject: subj, Predicate: pred, Object: obj})

		switch pred {
		case rdfsLabel:
			g.labels[subj] = obj

		case rdfsSubClass:
			if strings.HasPrefix(subj, cfg.Namespace) && strings.HasPrefix(obj, cfg.Namespace) {
				g.children[obj] = append(g.children[obj], subj)
				g.isChild[subj] = true
			}

		case rdfType:
			if isClassMarker(obj) {
				if strings.HasPrefix(subj, cfg.Namespace) && !excluded[LocalName(subj)] {
					g.classes[subj] = true
				}
				continue
			}
			// Otherwise this types an instance; count it toward its class.
			if strings.HasPrefix(obj, cfg.Namespace) && !excluded[LocalName(obj)] {
				g.instances[obj]++
			}
		}
	}

	for uri := range g.classes {
		if !g.isChild[uri] {
			g.roots = append(g.roots, uri)
		}
	}
	sort.Strings(g.roots)
	for parent := range g.children {
		sort.Strings(g.children[parent])
	}

	logger.Info("Ontology graph built",
		zap.Int("statements", len(g.statements)),
		zap.Int("classes", len(g.classes)),
		zap.Int("roots", len(g.roots)),
	)

	return g, nil
}

func isClassMarker(uri string) bool {
	return strings.HasSuffix(uri, "#Class") || strings.HasSuffix(uri, "/Class")
}

// Roots returns the top-level classes in deterministic order.
func (g *Graph) Roots() []string {
	return g.roots
}

// Children returns the registered subclasses of uri, if any.
func (g *Graph) Children(uri string) []string {
	return g.children[uri]
}

// IsClass reports whether uri is a retained class of the namespace.
func (g *Graph) IsClass(uri string) bool {
	return g.classes[uri]
}

// Label returns the rdfs:label of uri, falling back to its local name.
func (g *Graph) Label(uri string) string {
	if label, ok := g.labels[uri]; ok {
		return label
	}
	return LocalName(uri)
}

// NumClasses returns how many classes were retained from the ontology.
func (g *Graph) NumClasses() int {
	return len(g.classes)
}

// Statements returns how many in-namespace statements were retained.
func (g *Graph) Statements() int {
	return len(g.statements)
}

// TopClasses returns the n classes with the most typed instances,
// most-populated first, ties broken by URI.
func (g *Graph) TopClasses(n int) []ClassCount {
	out := make([]ClassCount, 0, len(g.instances))
	for uri, count := range g.instances {
		out = append(out, ClassCount{URI: uri, Label: g.Label(uri), Count: count})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].URI < out[j].URI
	})

	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// LocalName returns the fragment after the last '#' or '/'.
func LocalName(uri string) string {
	if i := strings.LastIndex(uri, "#"); i >= 0 {
		return uri[i+1:]
	}
	if i := strings.LastIndex(uri, "/"); i >= 0 {
		return uri[i+1:]
	}
	return uri
}

var camelBoundary = regexp.MustCompile(`([a-z])([A-Z])`)

// DisplayLabel splits CamelCase class names into words for UI consumption.
func DisplayLabel(label string) string {
	return strings.TrimSpace(camelBoundary.ReplaceAllString(label, "$1 $2"))
}
