package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/cybernews/backend/internal/ontology"
)

type OntologyHandler struct {
	graph *ontology.Graph
}

func NewOntologyHandler(graph *ontology.Graph) *OntologyHandler {
	return &OntologyHandler{graph: graph}
}

// TopClasses lists the most-populated ontology classes with display labels.
func (h *OntologyHandler) TopClasses(c *fiber.Ctx) error {
	n := c.QueryInt("limit", 15)

	classes := h.graph.TopClasses(n)
	for i := range classes {
		classes[i].Label = ontology.DisplayLabel(classes[i].Label)
	}

	return c.JSON(classes)
}
