package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	apperrors "github.com/wk-j/dev-team-sub001/internal/errors"
	"github.com/wk-j/dev-team-sub001/internal/engine"
)

// Handlers holds the HTTP handlers for the energy API.
type Handlers struct {
	engine *engine.Engine
	logger zerolog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(eng *engine.Engine, logger zerolog.Logger) *Handlers {
	return &Handlers{
		engine: eng,
		logger: logger.With().Str("component", "api_handlers").Logger(),
	}
}

// fail maps an engine error onto a problem response.
func (h *Handlers) fail(c *fiber.Ctx, err error) error {
	code := apperrors.Code(err)
	switch code {
	case "not_found":
		return problemResponse(c, fiber.StatusNotFound, code, "Not Found", err.Error())
	case "forbidden":
		return problemResponse(c, fiber.StatusForbidden, code, "Forbidden", err.Error())
	case "invalid_state":
		return problemResponse(c, fiber.StatusConflict, code, "Conflict", err.Error())
	case "invalid_argument":
		return problemResponse(c, fiber.StatusBadRequest, code, "Bad Request", err.Error())
	case "unavailable":
		return problemResponse(c, fiber.StatusServiceUnavailable, code, "Service Unavailable",
			"The store is busy, retry later")
	default:
		h.logger.Error().Err(err).Str("path", c.Path()).Msg("request failed")
		return problemResponse(c, fiber.StatusInternalServerError, "internal_error",
			"Internal Server Error", "An internal error occurred")
	}
}

func badBody(c *fiber.Ctx, err error) error {
	return problemResponse(c, fiber.StatusBadRequest, "invalid_body", "Bad Request",
		"Invalid request body: "+err.Error())
}

// --- Streams ---

// CreateStream handles POST /api/v1/streams.
func (h *Handlers) CreateStream(c *fiber.Ctx) error {
	var req CreateStreamRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}
	stream, err := h.engine.CreateStream(c.UserContext(), actorID(c), req.Name, req.Description)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(stream)
}

// ListStreams handles GET /api/v1/streams.
func (h *Handlers) ListStreams(c *fiber.Ctx) error {
	streams, err := h.engine.ListStreams(c.UserContext(), actorID(c), c.QueryBool("include_evaporated", false))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(StreamListResponse{Streams: streams, Total: len(streams)})
}

// GetStream handles GET /api/v1/streams/:id.
func (h *Handlers) GetStream(c *fiber.Ctx) error {
	stream, err := h.engine.GetStream(c.UserContext(), actorID(c), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(stream)
}

// EvaporateStream handles POST /api/v1/streams/:id/evaporate.
func (h *Handlers) EvaporateStream(c *fiber.Ctx) error {
	stream, err := h.engine.EvaporateStream(c.UserContext(), actorID(c), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(stream)
}

// ListStreamItems handles GET /api/v1/streams/:id/items.
func (h *Handlers) ListStreamItems(c *fiber.Ctx) error {
	items, err := h.engine.ListStreamItems(c.UserContext(), actorID(c), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(ItemListResponse{Items: items, Total: len(items)})
}

// CreateWorkItem handles POST /api/v1/streams/:id/items.
func (h *Handlers) CreateWorkItem(c *fiber.Ctx) error {
	var req CreateWorkItemRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}
	item, err := h.engine.CreateWorkItem(c.UserContext(), actorID(c), engine.CreateWorkItemInput{
		StreamID:    c.Params("id"),
		Title:       req.Title,
		Description: req.Description,
		Depth:       req.Depth,
		Tags:        req.Tags,
		AfterItemID: req.AfterItemID,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

// Dive handles POST /api/v1/streams/:id/dive.
func (h *Handlers) Dive(c *fiber.Ctx) error {
	res, err := h.engine.Dive(c.UserContext(), actorID(c), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(res)
}

// Surface handles POST /api/v1/streams/:id/surface.
func (h *Handlers) Surface(c *fiber.Ctx) error {
	res, err := h.engine.Surface(c.UserContext(), actorID(c), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(res)
}

// ListDivers handles GET /api/v1/streams/:id/divers.
func (h *Handlers) ListDivers(c *fiber.Ctx) error {
	divers, err := h.engine.ListDivers(c.UserContext(), actorID(c), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(DiverListResponse{Divers: divers})
}

// --- Work items ---

// GetWorkItem handles GET /api/v1/items/:id.
func (h *Handlers) GetWorkItem(c *fiber.Ctx) error {
	detail, err := h.engine.GetWorkItem(c.UserContext(), actorID(c), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(detail)
}

// AssignWorkItem handles POST /api/v1/items/:id/assign.
func (h *Handlers) AssignWorkItem(c *fiber.Ctx) error {
	var req TransferRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}
	item, err := h.engine.AssignWorkItem(c.UserContext(), actorID(c), c.Params("id"), req.TargetUserID, req.Message)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(item)
}

// HandoffWorkItem handles POST /api/v1/items/:id/handoff.
func (h *Handlers) HandoffWorkItem(c *fiber.Ctx) error {
	var req TransferRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}
	item, err := h.engine.HandoffWorkItem(c.UserContext(), actorID(c), c.Params("id"), req.TargetUserID, req.Message)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(item)
}

// CrystallizeWorkItem handles POST /api/v1/items/:id/crystallize.
func (h *Handlers) CrystallizeWorkItem(c *fiber.Ctx) error {
	item, err := h.engine.CrystallizeWorkItem(c.UserContext(), actorID(c), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(item)
}

// ContributeEnergy handles POST /api/v1/items/:id/contribute.
func (h *Handlers) ContributeEnergy(c *fiber.Ctx) error {
	var req ContributeRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}
	item, err := h.engine.ContributeEnergy(c.UserContext(), actorID(c), c.Params("id"), req.Amount)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(item)
}

// TransitionWorkItem handles PATCH /api/v1/items/:id/state.
func (h *Handlers) TransitionWorkItem(c *fiber.Ctx) error {
	var req StateRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}
	item, err := h.engine.TransitionWorkItem(c.UserContext(), actorID(c), c.Params("id"), req.State)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(item)
}

// --- Users ---

// userParam resolves "me" to the caller.
func userParam(c *fiber.Ctx) string {
	if id := c.Params("id"); id != "me" {
		return id
	}
	return actorID(c)
}

// GetUser handles GET /api/v1/users/:id.
func (h *Handlers) GetUser(c *fiber.Ctx) error {
	user, err := h.engine.GetUser(c.UserContext(), actorID(c), userParam(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(user)
}

// UserEnergy handles GET /api/v1/users/:id/energy.
func (h *Handlers) UserEnergy(c *fiber.Ctx) error {
	report, err := h.engine.UserEnergy(c.UserContext(), actorID(c), userParam(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(report)
}

// SetOrbitalState handles PUT /api/v1/me/orbital-state.
func (h *Handlers) SetOrbitalState(c *fiber.Ctx) error {
	var req StateRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}
	res, err := h.engine.SetOrbitalState(c.UserContext(), actorID(c), req.State)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(res)
}

// ListConnections handles GET /api/v1/me/connections.
func (h *Handlers) ListConnections(c *fiber.Ctx) error {
	conns, err := h.engine.ListConnections(c.UserContext(), actorID(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(ConnectionListResponse{Connections: conns})
}

// --- Pings ---

// CreatePing handles POST /api/v1/pings.
func (h *Handlers) CreatePing(c *fiber.Ctx) error {
	var req CreatePingRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}
	ping, err := h.engine.CreatePing(c.UserContext(), actorID(c), engine.CreatePingInput{
		ToUserID:   req.ToUserID,
		Type:       req.Type,
		Message:    req.Message,
		WorkItemID: req.WorkItemID,
		StreamID:   req.StreamID,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(ping)
}

// ListPings handles GET /api/v1/pings.
func (h *Handlers) ListPings(c *fiber.Ctx) error {
	pings, err := h.engine.ListPings(c.UserContext(), actorID(c),
		c.Query("box", engine.Inbox), c.Query("status"), c.QueryInt("limit", 0))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(PingListResponse{Pings: pings, Total: len(pings)})
}

// UpdatePingStatus handles PATCH /api/v1/pings/:id.
func (h *Handlers) UpdatePingStatus(c *fiber.Ctx) error {
	var req StateRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}
	ping, err := h.engine.UpdatePingStatus(c.UserContext(), actorID(c), c.Params("id"), req.Status)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(ping)
}
