package compose

import (
	"time"

	"github.com/papercomputeco/ledgerview/pkg/intent"
	"github.com/papercomputeco/ledgerview/pkg/ledger"
	"github.com/papercomputeco/ledgerview/pkg/namespace"
	"github.com/papercomputeco/ledgerview/pkg/relations"
	"github.com/papercomputeco/ledgerview/pkg/signals"
	"github.com/papercomputeco/ledgerview/pkg/tree"
)

// TreeRequest asks for the CONTAINS hierarchy below Root. An empty Root
// starts from the namespace root; Depth <= 0 uses the configured default.
// Focus, when set, names a node to navigate to within the tree.
type TreeRequest struct {
	Root        string
	Depth       int
	NamespaceID string
	Focus       string
}

// TreeView is a product tree. Tree is nil when Root is not in the graph.
// Path holds the ids from Root down to the focused node and is empty when
// the focus is not in the tree.
type TreeView struct {
	Root        string     `json:"root"`
	NamespaceID string     `json:"namespace_id"`
	Depth       int        `json:"depth"`
	Tree        *tree.Node `json:"tree"`
	Path        []string   `json:"path,omitempty"`
}

type NodeRequest struct {
	ID          string
	Depth       int
	NamespaceID string
}

// NodeSummary is the header of a node detail view.
type NodeSummary struct {
	ID          string          `json:"node_id"`
	Title       string          `json:"title"`
	Roles       []string        `json:"roles"`
	NodeType    string          `json:"node_type,omitempty"`
	Description string          `json:"description,omitempty"`
	JTBD        string          `json:"jtbd,omitempty"`
	Signals     signals.Signals `json:"signals"`
}

// Relationships flattens the relationship groups next to the node's materials.
type Relationships struct {
	relations.Groups
	Materials []ledger.Material `json:"materials"`
}

type NodeView struct {
	Node          NodeSummary   `json:"node"`
	Relationships Relationships `json:"relationships"`
}

// IntentRequest asks for the intent view of a namespace, expanded Depth hops
// below its root.
type IntentRequest struct {
	NamespaceID string
	Depth       int
}

type IntentView struct {
	NamespaceID string               `json:"namespace_id"`
	Root        ledger.NamespaceRoot `json:"root"`
	*intent.Result
}

type NamespaceListing struct {
	Namespaces []namespace.Option `json:"namespaces"`
	Grouped    []namespace.Group  `json:"grouped"`
}

// MaterialsRequest collects materials reachable from Roots. Empty Roots
// starts from the namespace root.
type MaterialsRequest struct {
	Roots       []string
	Depth       int
	NamespaceID string
}

type MaterialItem struct {
	ID         string         `json:"material_id"`
	NodeID     string         `json:"node_id"`
	Title      string         `json:"title"`
	ContentRef string         `json:"content_ref"`
	MediaType  string         `json:"media_type"`
	Category   string         `json:"category"`
	Meta       map[string]any `json:"meta"`
}

type MaterialCategory struct {
	Category string         `json:"category"`
	Items    []MaterialItem `json:"items"`
}

type MaterialsView struct {
	Categories []MaterialCategory `json:"categories"`
}

// TimelineRequest asks for the history of Target, newest first. An empty
// Target means the default namespace; Limit <= 0 uses the configured default.
type TimelineRequest struct {
	Target string
	Limit  int
}

type TimelineEntry struct {
	ID            string          `json:"id"`
	Seq           int64           `json:"seq"`
	OccurredAt    time.Time       `json:"occurred_at"`
	ActorID       string          `json:"actor_id"`
	Summary       string          `json:"summary"`
	AffectedNodes []string        `json:"affected_nodes"`
	Changes       []ledger.Change `json:"changes"`
}

type TimelineView struct {
	Target   string          `json:"target"`
	Timeline []TimelineEntry `json:"timeline"`
}
