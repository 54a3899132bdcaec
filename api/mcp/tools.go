package mcp

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/ledgerview/pkg/compose"
	"github.com/papercomputeco/ledgerview/pkg/namespace"
	"github.com/papercomputeco/ledgerview/pkg/relations"
	"github.com/papercomputeco/ledgerview/pkg/tree"
)

var (
	treeToolName    = "ledger_tree"
	treeDescription = "Return the CONTAINS hierarchy below a node (or the namespace root when no root is given) as a flat pre-order list of nodes with their level and parent."

	nodeToolName    = "ledger_node"
	nodeDescription = "Describe one ledger node: its roles, description, job-to-be-done, relationships grouped by kind, and attached materials."

	intentToolName    = "ledger_intent"
	intentDescription = "List the intents of a namespace (strategic objectives, assurance obligations, themes or policies, depending on the namespace family) with their connected nodes."

	namespacesToolName    = "ledger_namespaces"
	namespacesDescription = "List the ledger namespaces with their display labels and root node ids."
)

type TreeInput struct {
	Root        string `json:"root,omitempty" jsonschema:"node id to start from (default: the namespace root)"`
	Depth       int    `json:"depth,omitempty" jsonschema:"maximum hops below the root (default: configured tree depth)"`
	NamespaceID string `json:"namespace_id,omitempty" jsonschema:"namespace to read (default: configured namespace)"`
}

// TreeLine is one node of a flattened tree. Level 0 is the root.
type TreeLine struct {
	NodeID   string   `json:"node_id"`
	ParentID string   `json:"parent_id,omitempty"`
	Level    int      `json:"level"`
	Title    string   `json:"title"`
	NodeType string   `json:"node_type,omitempty"`
	Roles    []string `json:"roles"`
}

type TreeOutput struct {
	Root        string     `json:"root"`
	NamespaceID string     `json:"namespace_id"`
	Found       bool       `json:"found"`
	Nodes       []TreeLine `json:"nodes"`
}

type NodeInput struct {
	NodeID      string `json:"node_id" jsonschema:"the node id to describe"`
	Depth       int    `json:"depth,omitempty" jsonschema:"neighbourhood depth to load (default: 1)"`
	NamespaceID string `json:"namespace_id,omitempty" jsonschema:"namespace to read (default: configured namespace)"`
}

// Relationship is one neighbour of the described node.
type Relationship struct {
	Group     string `json:"group"`
	Type      string `json:"type"`
	Direction string `json:"direction"`
	NodeID    string `json:"node_id"`
	Title     string `json:"title"`
}

type MaterialRef struct {
	MaterialID string `json:"material_id"`
	ContentRef string `json:"content_ref"`
	MediaType  string `json:"media_type"`
}

type NodeOutput struct {
	NodeID        string         `json:"node_id"`
	Title         string         `json:"title"`
	NodeType      string         `json:"node_type,omitempty"`
	Roles         []string       `json:"roles"`
	Description   string         `json:"description,omitempty"`
	JTBD          string         `json:"jtbd,omitempty"`
	Relationships []Relationship `json:"relationships"`
	Materials     []MaterialRef  `json:"materials"`
}

type IntentInput struct {
	NamespaceID string `json:"namespace_id,omitempty" jsonschema:"namespace to read (default: configured namespace)"`
	Depth       int    `json:"depth,omitempty" jsonschema:"hops below the namespace root to search for intents (default: 2)"`
}

type IntentItem struct {
	NodeID      string   `json:"node_id"`
	Title       string   `json:"title"`
	Roles       []string `json:"roles"`
	Connections []string `json:"connections"`
}

type IntentSection struct {
	Key     string       `json:"key"`
	Label   string       `json:"label"`
	Intents []IntentItem `json:"intents"`
}

type IntentOutput struct {
	NamespaceID string          `json:"namespace_id"`
	RootID      string          `json:"root_id"`
	RootTitle   string          `json:"root_title"`
	Family      string          `json:"family"`
	Sections    []IntentSection `json:"sections"`
}

type NamespacesInput struct{}

type NamespacesOutput struct {
	Namespaces []namespace.Option `json:"namespaces"`
	Count      int                `json:"count"`
}

func (s *Server) composer() *compose.Composer {
	return s.config.Sessions.Default().Composer
}

func (s *Server) handleTree(ctx context.Context, req *mcp.CallToolRequest, input TreeInput) (*mcp.CallToolResult, TreeOutput, error) {
	logger := s.config.Logger
	logger.Debug("MCP tree request",
		"root", input.Root,
		"depth", input.Depth,
		"namespace_id", input.NamespaceID,
	)

	view, err := s.composer().ProductTree(ctx, compose.TreeRequest{
		Root:        input.Root,
		Depth:       input.Depth,
		NamespaceID: input.NamespaceID,
	})
	if err != nil {
		logger.Error("failed to build tree", "error", err)
		return errorResult("Failed to build tree: %v", err), TreeOutput{}, nil
	}

	return textResult(logger, treeToolName, flattenTree(view))
}

func flattenTree(view *compose.TreeView) TreeOutput {
	out := TreeOutput{
		Root:        view.Root,
		NamespaceID: view.NamespaceID,
		Found:       view.Tree != nil,
		Nodes:       []TreeLine{},
	}

	var walk func(n *tree.Node, parent string, level int)
	walk = func(n *tree.Node, parent string, level int) {
		out.Nodes = append(out.Nodes, TreeLine{
			NodeID:   n.ID,
			ParentID: parent,
			Level:    level,
			Title:    n.Title,
			NodeType: n.NodeType,
			Roles:    n.Roles,
		})
		for _, c := range n.Children {
			walk(c, n.ID, level+1)
		}
	}
	if view.Tree != nil {
		walk(view.Tree, "", 0)
	}
	return out
}

func (s *Server) handleNode(ctx context.Context, req *mcp.CallToolRequest, input NodeInput) (*mcp.CallToolResult, NodeOutput, error) {
	logger := s.config.Logger
	if input.NodeID == "" {
		return errorResult("node_id is required"), NodeOutput{}, nil
	}

	view, err := s.composer().NodeDetail(ctx, compose.NodeRequest{
		ID:          input.NodeID,
		Depth:       input.Depth,
		NamespaceID: input.NamespaceID,
	})
	if err != nil {
		var nf *compose.NotFoundError
		if errors.As(err, &nf) {
			return errorResult("Node %s not found", input.NodeID), NodeOutput{}, nil
		}
		logger.Error("failed to load node", "node_id", input.NodeID, "error", err)
		return errorResult("Failed to load node: %v", err), NodeOutput{}, nil
	}

	return textResult(logger, nodeToolName, nodeOutput(view))
}

func nodeOutput(view *compose.NodeView) NodeOutput {
	out := NodeOutput{
		NodeID:        view.Node.ID,
		Title:         view.Node.Title,
		NodeType:      view.Node.NodeType,
		Roles:         view.Node.Roles,
		Description:   view.Node.Description,
		JTBD:          view.Node.JTBD,
		Relationships: []Relationship{},
		Materials:     []MaterialRef{},
	}

	g := view.Relationships.Groups
	for _, group := range []struct {
		name    string
		entries []relations.Entry
	}{
		{"children", g.Children},
		{"parents", g.Parents},
		{"alignment", g.Alignment},
		{"coherence", g.Coherence},
		{"decisions_and_evidence", g.DecisionEvidence},
		{"other", g.Other},
	} {
		for _, e := range group.entries {
			out.Relationships = append(out.Relationships, Relationship{
				Group:     group.name,
				Type:      e.Type,
				Direction: string(e.Direction),
				NodeID:    e.Node.ID,
				Title:     e.Node.Title,
			})
		}
	}

	for _, m := range view.Relationships.Materials {
		out.Materials = append(out.Materials, MaterialRef{
			MaterialID: m.ID,
			ContentRef: m.ContentRef,
			MediaType:  m.MediaType,
		})
	}
	return out
}

func (s *Server) handleIntent(ctx context.Context, req *mcp.CallToolRequest, input IntentInput) (*mcp.CallToolResult, IntentOutput, error) {
	logger := s.config.Logger

	view, err := s.composer().Intent(ctx, compose.IntentRequest{
		NamespaceID: input.NamespaceID,
		Depth:       input.Depth,
	})
	if err != nil {
		logger.Error("failed to resolve intents", "namespace_id", input.NamespaceID, "error", err)
		return errorResult("Failed to resolve intents: %v", err), IntentOutput{}, nil
	}

	return textResult(logger, intentToolName, intentOutput(view))
}

func intentOutput(view *compose.IntentView) IntentOutput {
	out := IntentOutput{
		NamespaceID: view.NamespaceID,
		RootID:      view.Root.NodeID,
		RootTitle:   view.Root.Title,
		Family:      view.Family,
		Sections:    []IntentSection{},
	}

	for _, sec := range view.Sections {
		section := IntentSection{Key: sec.Key, Label: sec.Label, Intents: []IntentItem{}}
		for _, e := range view.BySection(sec.Key) {
			item := IntentItem{
				NodeID:      e.NodeID,
				Title:       e.Title,
				Roles:       e.Roles,
				Connections: []string{},
			}
			for _, c := range e.Connections {
				item.Connections = append(item.Connections, c.Type+" "+c.Node.Title)
			}
			section.Intents = append(section.Intents, item)
		}
		out.Sections = append(out.Sections, section)
	}
	return out
}

func (s *Server) handleNamespaces(ctx context.Context, req *mcp.CallToolRequest, _ NamespacesInput) (*mcp.CallToolResult, NamespacesOutput, error) {
	logger := s.config.Logger

	listing, err := s.composer().Namespaces(ctx)
	if err != nil {
		logger.Error("failed to list namespaces", "error", err)
		return errorResult("Failed to list namespaces: %v", err), NamespacesOutput{}, nil
	}

	return textResult(logger, namespacesToolName, NamespacesOutput{
		Namespaces: listing.Namespaces,
		Count:      len(listing.Namespaces),
	})
}
