// Package ledger holds the kernel's wire types for the product/decision
// graph: nodes, typed links, role assignments and attached materials, plus the
// link taxonomy every view derivation classifies against.
package ledger

import "time"

// Node is a vertex in the ledger graph (a goal, job, decision, policy, ...).
type Node struct {
	ID    string         `json:"node_id"`
	Title string         `json:"title"`
	Meta  map[string]any `json:"meta,omitempty"`
}

// Link is a typed, directed relationship between two nodes.
// ID is the deduplication key: the kernel may deliver the same link once per
// traversal path that reaches it.
type Link struct {
	ID          string         `json:"link_id"`
	FromNodeID  string         `json:"from_node_id"`
	ToNodeID    string         `json:"to_node_id"`
	Type        string         `json:"type"`
	NamespaceID string         `json:"namespace_id,omitempty"`
	Meta        map[string]any `json:"meta,omitempty"`
}

// Touches reports whether nodeID is either endpoint of the link.
func (l Link) Touches(nodeID string) bool {
	return l.FromNodeID == nodeID || l.ToNodeID == nodeID
}

// Counterpart returns the endpoint opposite nodeID. For a link that does not
// touch nodeID the source is returned.
func (l Link) Counterpart(nodeID string) string {
	if l.FromNodeID == nodeID {
		return l.ToNodeID
	}
	return l.FromNodeID
}

// RoleAssignment is a namespaced label attached to a node
// (e.g. "Product.Goal", "Fin.Objective").
type RoleAssignment struct {
	ID          string         `json:"role_assignment_id"`
	NodeID      string         `json:"node_id"`
	NamespaceID string         `json:"namespace_id,omitempty"`
	Role        string         `json:"role"`
	Meta        map[string]any `json:"meta,omitempty"`
}

// Material is an opaque content reference attached to a node.
type Material struct {
	ID         string         `json:"material_id"`
	NodeID     string         `json:"node_id"`
	ContentRef string         `json:"content_ref"`
	MediaType  string         `json:"media_type"`
	ByteSize   int64          `json:"byte_size,omitempty"`
	Hash       string         `json:"hash,omitempty"`
	Meta       map[string]any `json:"meta,omitempty"`
}

// ExpandResult is one batch returned by the kernel's expand query.
type ExpandResult struct {
	Nodes     []Node           `json:"nodes"`
	Roles     []RoleAssignment `json:"role_assignments"`
	Links     []Link           `json:"links"`
	Materials []Material       `json:"materials"`
}

// ExpandQuery asks the kernel for the bounded-depth subgraph around RootIDs.
type ExpandQuery struct {
	RootIDs     []string
	Depth       int
	NamespaceID string
}

// NamespaceRoot is the designated root node of a namespace.
type NamespaceRoot struct {
	NodeID string `json:"node_id"`
	Title  string `json:"title"`
	Role   string `json:"role"`
}

// Operation is an applied, append-only change record from the kernel's
// history log.
type Operation struct {
	ID           string    `json:"id"`
	Seq          int64     `json:"seq"`
	OccurredAt   time.Time `json:"occurred_at"`
	ActorID      string    `json:"actor_id"`
	Capabilities []string  `json:"capabilities,omitempty"`
	PlanID       string    `json:"plan_id,omitempty"`
	PlanHash     string    `json:"plan_hash,omitempty"`
	Class        int       `json:"class,omitempty"`
	Changes      []Change  `json:"changes"`
}

// Change is a single atomic change inside an Operation.
type Change struct {
	Kind        string         `json:"kind"`
	NamespaceID string         `json:"namespace_id,omitempty"`
	Payload     map[string]any `json:"payload,omitempty"`
}

// MetaString returns meta[key] when it holds a non-empty string.
func MetaString(meta map[string]any, key string) string {
	if meta == nil {
		return ""
	}
	s, _ := meta[key].(string)
	return s
}
