// Package template manages named page skeletons: an ordered structure of
// static sections and dynamic component zones used to scaffold new pages.
package template

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NodeType distinguishes static layout slots from component zones.
type NodeType string

const (
	NodeSection   NodeType = "section"
	NodeComponent NodeType = "component"
)

// Valid reports whether t is a known node type.
func (t NodeType) Valid() bool {
	return t == NodeSection || t == NodeComponent
}

// Node is one named slot in a template structure. AllowedComponents restricts
// a component zone to the listed component ids; empty allows any.
type Node struct {
	Name              string   `json:"name" yaml:"name"`
	Type              NodeType `json:"type" yaml:"type"`
	AllowedComponents []string `json:"allowedComponents,omitempty" yaml:"allowedComponents,omitempty"`
}

// Validate checks a single node in isolation.
func (n Node) Validate() error {
	if strings.TrimSpace(n.Name) == "" {
		return fmt.Errorf("%w: name must not be empty", ErrInvalidNode)
	}
	if !n.Type.Valid() {
		return fmt.Errorf("%w: node %q has unknown type %q", ErrInvalidNode, n.Name, n.Type)
	}
	if n.Type == NodeSection && len(n.AllowedComponents) > 0 {
		return fmt.Errorf("%w: section %q cannot restrict components", ErrInvalidNode, n.Name)
	}
	return nil
}

func (n Node) clone() Node {
	if len(n.AllowedComponents) > 0 {
		n.AllowedComponents = append([]string(nil), n.AllowedComponents...)
	}
	return n
}

// Template is a reusable page skeleton.
type Template struct {
	ID          uuid.UUID `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Structure   Structure `json:"structure" yaml:"structure"`
	IsActive    bool      `json:"isActive" yaml:"isActive"`
	CreatedBy   string    `json:"createdBy,omitempty" yaml:"createdBy,omitempty"`
	UpdatedBy   string    `json:"updatedBy,omitempty" yaml:"updatedBy,omitempty"`
	CreatedAt   time.Time `json:"createdAt" yaml:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" yaml:"updatedAt"`
}

// Clone returns a deep copy of t.
func (t Template) Clone() Template {
	t.Structure = t.Structure.clone()
	return t
}

// Allows reports whether componentID may be placed in the named zone. Unknown
// zones and section nodes allow nothing.
func (t Template) Allows(zone, componentID string) bool {
	index := t.Structure.Index(zone)
	if index < 0 {
		return false
	}
	node := t.Structure[index]
	if node.Type != NodeComponent {
		return false
	}
	if len(node.AllowedComponents) == 0 {
		return true
	}
	for _, allowed := range node.AllowedComponents {
		if allowed == componentID {
			return true
		}
	}
	return false
}

// Zones returns the component zones in structure order.
func (t Template) Zones() []Node {
	var zones []Node
	for _, node := range t.Structure {
		if node.Type == NodeComponent {
			zones = append(zones, node.clone())
		}
	}
	return zones
}
