package api

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/ledgerview/pkg/compose"
	"github.com/papercomputeco/ledgerview/pkg/kernel"
	"github.com/papercomputeco/ledgerview/pkg/prefetch"
	"github.com/papercomputeco/ledgerview/pkg/session"
	"github.com/papercomputeco/ledgerview/pkg/utils"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ConfigResponse describes what the server is pointed at.
type ConfigResponse struct {
	KernelURL string `json:"kernel_url"`
	Namespace string `json:"namespace"`
	Version   string `json:"version"`
}

type SessionResponse struct {
	SessionID string `json:"session_id"`
}

// PrefetchRequest names the roots to warm. Without roots every namespace
// root is warmed.
type PrefetchRequest struct {
	Roots       []string `json:"roots"`
	Depth       int      `json:"depth"`
	NamespaceID string   `json:"namespace_id"`
}

type PrefetchResponse struct {
	Queued  int `json:"queued"`
	Dropped int `json:"dropped"`
}

func (s *Server) session(c *fiber.Ctx) *session.Session {
	return s.sessions.GetOrDefault(c.Get(SessionHeader))
}

func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

func (s *Server) handleConfig(c *fiber.Ctx) error {
	return c.JSON(ConfigResponse{
		KernelURL: s.config.KernelURL,
		Namespace: s.config.Namespace,
		Version:   utils.Version,
	})
}

func (s *Server) handleHealthz(c *fiber.Ctx) error {
	if err := s.backend.Healthz(c.Context()); err != nil {
		return s.fail(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (s *Server) handleCreateSession(c *fiber.Ctx) error {
	sess, err := s.sessions.Create()
	if err != nil {
		s.logger.Error("failed to create session", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to create session"})
	}
	return c.Status(fiber.StatusCreated).JSON(SessionResponse{SessionID: sess.ID})
}

func (s *Server) handleDeleteSession(c *fiber.Ctx) error {
	id := c.Get(SessionHeader)
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: SessionHeader + " header required"})
	}
	if !s.sessions.Delete(id) {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "session not found"})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleReset(c *fiber.Ctx) error {
	sess := s.session(c)
	sess.Composer.Reset()
	return c.JSON(fiber.Map{"ok": true, "session_id": sess.ID})
}

func (s *Server) handlePrefetch(c *fiber.Ctx) error {
	if s.config.Prefetch == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{Error: "prefetch is disabled"})
	}

	var req PrefetchRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
		}
	}

	depth := req.Depth
	if depth <= 0 {
		depth = s.config.PrefetchDepth
	}

	sess := s.session(c)
	jobs := []prefetch.Job{}
	if len(req.Roots) > 0 {
		jobs = append(jobs, prefetch.Job{Target: sess.Composer, Roots: req.Roots, Depth: depth, NamespaceID: req.NamespaceID})
	} else {
		listing, err := sess.Composer.Namespaces(c.Context())
		if err != nil {
			return s.fail(c, err)
		}
		for _, opt := range listing.Namespaces {
			if opt.RootNodeID == "" {
				continue
			}
			jobs = append(jobs, prefetch.Job{Target: sess.Composer, Roots: []string{opt.RootNodeID}, Depth: depth, NamespaceID: opt.ID})
		}
	}

	resp := PrefetchResponse{}
	for _, job := range jobs {
		if s.config.Prefetch.Enqueue(job) {
			resp.Queued++
		} else {
			resp.Dropped++
		}
	}
	return c.Status(fiber.StatusAccepted).JSON(resp)
}

func (s *Server) handleNamespaces(c *fiber.Ctx) error {
	listing, err := s.session(c).Composer.Namespaces(c.Context())
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(listing)
}

func (s *Server) handleTree(c *fiber.Ctx) error {
	depth, err := intQuery(c, "depth")
	if err != nil {
		return badRequest(c, err)
	}

	view, err := s.session(c).Composer.ProductTree(c.Context(), compose.TreeRequest{
		Root:        c.Query("root"),
		Depth:       depth,
		NamespaceID: c.Query("namespace_id"),
		Focus:       c.Query("focus"),
	})
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(view)
}

func (s *Server) handleNode(c *fiber.Ctx) error {
	nodeID := c.Params("nodeId")
	if nodeID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "nodeId parameter required"})
	}

	depth, err := intQuery(c, "depth")
	if err != nil {
		return badRequest(c, err)
	}

	view, err := s.session(c).Composer.NodeDetail(c.Context(), compose.NodeRequest{
		ID:          nodeID,
		Depth:       depth,
		NamespaceID: c.Query("namespace_id"),
	})
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(view)
}

func (s *Server) handleIntent(c *fiber.Ctx) error {
	depth, err := intQuery(c, "depth")
	if err != nil {
		return badRequest(c, err)
	}

	view, err := s.session(c).Composer.Intent(c.Context(), compose.IntentRequest{
		NamespaceID: c.Query("namespace_id"),
		Depth:       depth,
	})
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(view)
}

func (s *Server) handleLedger(c *fiber.Ctx) error {
	limit, err := intQuery(c, "limit")
	if err != nil {
		return badRequest(c, err)
	}

	view, err := s.session(c).Composer.Timeline(c.Context(), compose.TimelineRequest{
		Target: c.Query("target"),
		Limit:  limit,
	})
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(view)
}

func (s *Server) handleMaterials(c *fiber.Ctx) error {
	depth, err := intQuery(c, "depth")
	if err != nil {
		return badRequest(c, err)
	}

	var roots []string
	for _, r := range strings.Split(c.Query("root"), ",") {
		if r = strings.TrimSpace(r); r != "" {
			roots = append(roots, r)
		}
	}

	view, err := s.session(c).Composer.Materials(c.Context(), compose.MaterialsRequest{
		Roots:       roots,
		Depth:       depth,
		NamespaceID: c.Query("namespace_id"),
	})
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(view)
}

// fail maps composer errors onto statuses: unknown nodes and namespaces are
// 404, everything else came from the kernel and is 502.
func (s *Server) fail(c *fiber.Ctx, err error) error {
	var nf *compose.NotFoundError
	if errors.As(err, &nf) {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: nf.Error()})
	}

	var apiErr *kernel.APIError
	if errors.As(err, &apiErr) {
		s.logger.Warn("kernel request failed",
			"path", c.Path(),
			"status", apiErr.Status,
			"error", err,
		)
	} else {
		s.logger.Error("request failed", "path", c.Path(), "error", err)
	}
	return c.Status(fiber.StatusBadGateway).JSON(ErrorResponse{Error: err.Error()})
}

func badRequest(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
}

// intQuery parses an optional integer query parameter; absent is zero.
func intQuery(c *fiber.Ctx, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, raw)
	}
	return n, nil
}
