package http

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/geoplan/internal/core/domain"
	"github.com/samirrijal/geoplan/internal/core/usecases"
)

const maxQueryLength = 300

// ExecuteRequest is the body of POST /v1/plans/execute.
type ExecuteRequest struct {
	Actions []domain.Action    `json:"actions"`
	Context *domain.MapContext `json:"context,omitempty"`
}

// AssistantHandler plans and executes one utterance.
func AssistantHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Assistant == nil {
			return errUnavailable(c, "assistant not configured")
		}

		var req usecases.AssistantRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid JSON body: "+err.Error())
		}
		if strings.TrimSpace(req.Prompt) == "" {
			return errBadRequest(c, "prompt must not be empty")
		}

		resp, err := deps.Assistant.Handle(c.UserContext(), req)
		if err != nil {
			return errFromDomain(c, err)
		}
		if resp.Actions == nil {
			resp.Actions = []domain.ExecutedAction{}
		}
		return c.JSON(resp)
	}
}

// ExecutePlanHandler runs a caller-supplied plan without consulting the planner.
func ExecutePlanHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Assistant == nil {
			return errUnavailable(c, "executor not configured")
		}

		var req ExecuteRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid JSON body: "+err.Error())
		}
		if len(req.Actions) == 0 {
			return errBadRequest(c, "actions must not be empty")
		}

		outcome := deps.Assistant.ExecutePlan(c.UserContext(), req.Actions, req.Context)
		return c.JSON(outcome)
	}
}

// GeocodeHandler resolves one place: GET /v1/geocode?q=&polygon=&viewbox=
func GeocodeHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		query, err := requiredQuery(c, "q")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		mapCtx, err := mapContextFromQuery(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		action := domain.Action{
			Type: string(domain.ActionPlace),
			Params: map[string]any{
				"query":           query,
				"include_polygon": c.QueryBool("polygon", false),
			},
		}
		return runAction(c, deps, action, mapCtx)
	}
}

// SearchHandler lists candidates: GET /v1/search?q=&limit=&viewbox=
func SearchHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		query, err := requiredQuery(c, "q")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		mapCtx, err := mapContextFromQuery(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		action := domain.Action{
			Type: string(domain.ActionSearch),
			Params: map[string]any{
				"query": query,
				"limit": c.QueryInt("limit", 10),
			},
		}
		return runAction(c, deps, action, mapCtx)
	}
}

// AreaHandler returns an outline: GET /v1/area?q=
func AreaHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		query, err := requiredQuery(c, "q")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		mapCtx, err := mapContextFromQuery(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		action := domain.Action{
			Type:   string(domain.ActionArea),
			Params: map[string]any{"query": query},
		}
		return runAction(c, deps, action, mapCtx)
	}
}

// RouteHandler computes a route: GET /v1/route?from=&to=&profile=
func RouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		from, err := requiredQuery(c, "from")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		to, err := requiredQuery(c, "to")
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		action := domain.Action{
			Type: string(domain.ActionRoute),
			Params: map[string]any{
				"origin":      from,
				"destination": to,
				"profile":     c.Query("profile", string(domain.ProfileDriving)),
			},
		}
		return runAction(c, deps, action, nil)
	}
}

// ListPlansHandler pages through the plan history, newest first.
func ListPlansHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.History == nil {
			return errUnavailable(c, "plan history not configured")
		}

		page, err := deps.History.Recent(c.UserContext(), c.QueryInt("offset", 0), c.QueryInt("limit", 20))
		if err != nil {
			return errFromDomain(c, err)
		}

		pg := Pagination{Offset: page.Offset, Limit: page.Limit, Total: page.Total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: page.Records, Pagination: pg})
	}
}

// GetPlanHandler returns one recorded exchange.
func GetPlanHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.History == nil {
			return errUnavailable(c, "plan history not configured")
		}

		rec, err := deps.History.GetByID(c.UserContext(), c.Params("id"))
		if errors.Is(err, domain.ErrNotFound) {
			return errNotFound(c, "plan not found")
		}
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(rec)
	}
}

func runAction(c *fiber.Ctx, deps *Dependencies, action domain.Action, mapCtx *domain.MapContext) error {
	if deps.Actions == nil {
		return errUnavailable(c, "executor not configured")
	}
	res, err := deps.Actions.Execute(c.UserContext(), action, mapCtx)
	if err != nil {
		return errFromDomain(c, err)
	}
	return c.JSON(res)
}

func requiredQuery(c *fiber.Ctx, name string) (string, error) {
	v := strings.TrimSpace(c.Query(name))
	if v == "" {
		return "", errors.New(name + " query parameter is required")
	}
	if len(v) > maxQueryLength {
		return "", errors.New(name + " is too long (max 300 characters)")
	}
	return v, nil
}

// mapContextFromQuery reads an optional viewbox=w,s,e,n bias.
func mapContextFromQuery(c *fiber.Ctx) (*domain.MapContext, error) {
	raw := c.Query("viewbox")
	if raw == "" {
		return nil, nil
	}
	vb, err := domain.ParseViewbox(raw)
	if err != nil {
		return nil, err
	}
	return &domain.MapContext{Viewbox: &vb}, nil
}
