package http

import (
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/samirrijal/pulpuluck/internal/core/domain"
)

// FountainsResponse is the body of GET /v1/fountains.
type FountainsResponse struct {
	Count     int               `json:"count"`
	Fountains []domain.Fountain `json:"fountains"`
}

// ListFountainsHandler returns the current fountain set, falling back to the
// last snapshot when the provider is down.
func ListFountainsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fountains, err := deps.Fountains.List(c.UserContext())
		if err != nil {
			LoggerFromCtx(c.UserContext()).Warn("fountain list unavailable", "error", err)
			if errors.Is(err, domain.ErrDataUnavailable) {
				return errUnavailable(c, "fountain data unavailable, please retry later")
			}
			return errInternal(c, err.Error())
		}
		if fountains == nil {
			fountains = []domain.Fountain{}
		}

		c.Set("Cache-Control", "public, max-age=300")
		return c.JSON(FountainsResponse{Count: len(fountains), Fountains: fountains})
	}
}

// routeQuery holds the raw walking route parameters.
type routeQuery struct {
	FromLat string `query:"from_lat" validate:"required,latitude"`
	FromLon string `query:"from_lon" validate:"required,longitude"`
	ToLat   string `query:"to_lat" validate:"required,latitude"`
	ToLon   string `query:"to_lon" validate:"required,longitude"`
}

func (q routeQuery) points() (from, to domain.GeoPoint) {
	parse := func(s string) float64 {
		v, _ := strconv.ParseFloat(s, 64)
		return v
	}
	return domain.GeoPoint{Lat: parse(q.FromLat), Lon: parse(q.FromLon)},
		domain.GeoPoint{Lat: parse(q.ToLat), Lon: parse(q.ToLon)}
}

// WalkingRouteHandler proxies the routing provider. It always answers 200
// with either a provider route or a straight-line fallback.
func WalkingRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := routeQuery{
			FromLat: c.Query("from_lat"),
			FromLon: c.Query("from_lon"),
			ToLat:   c.Query("to_lat"),
			ToLon:   c.Query("to_lon"),
		}
		if err := deps.Validate.Struct(q); err != nil {
			return errBadRequest(c, validationMessage(err))
		}

		from, to := q.points()
		route := deps.Routes.WalkingRoute(c.UserContext(), from, to)

		c.Set("Cache-Control", "private, max-age=60")
		return c.JSON(route)
	}
}

// voteRequest is the body of POST /v1/feedback/:fountainId/vote.
type voteRequest struct {
	VoteType string `json:"voteType" validate:"required,oneof=running outOfService abandoned"`
}

// GetFeedbackHandler returns the vote counters of one fountain.
func GetFeedbackHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := fountainID(c)
		if id == "" {
			return errBadRequest(c, "fountain id is required")
		}
		fb, err := deps.Feedback.Get(c.UserContext(), id)
		if err != nil {
			LoggerFromCtx(c.UserContext()).Error("get feedback failed", "fountain_id", id, "error", err)
			return errInternal(c, "failed to get feedback")
		}
		c.Set("Cache-Control", "no-cache")
		return c.JSON(fb)
	}
}

// VoteHandler records one vote and returns the updated counters.
func VoteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := fountainID(c)
		if id == "" {
			return errBadRequest(c, "fountain id is required")
		}

		var req voteRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if err := deps.Validate.Struct(req); err != nil {
			return errBadRequest(c, "invalid vote type")
		}

		fb, err := deps.Feedback.Vote(c.UserContext(), id, req.VoteType)
		if err != nil {
			if errors.Is(err, domain.ErrInvalidVoteType) {
				return errBadRequest(c, "invalid vote type")
			}
			LoggerFromCtx(c.UserContext()).Error("vote failed", "fountain_id", id, "error", err)
			return errInternal(c, "failed to submit vote")
		}
		return c.JSON(fb)
	}
}

// ListFeedbackHandler returns all feedback records with offset/limit pagination.
func ListFeedbackHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		all, err := deps.Feedback.List(c.UserContext())
		if err != nil {
			LoggerFromCtx(c.UserContext()).Error("list feedback failed", "error", err)
			return errInternal(c, "failed to get feedback data")
		}

		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 100)
		if offset < 0 {
			offset = 0
		}
		if limit <= 0 || limit > 500 {
			limit = 100
		}

		total := len(all)
		page := []domain.Feedback{}
		if offset < total {
			end := offset + limit
			if end > total {
				end = total
			}
			page = all[offset:end]
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		c.Set("Cache-Control", "no-cache")
		return c.JSON(PaginatedResponse{Data: page, Pagination: pg})
	}
}

// LegacyListFeedbackHandler serves /api/feedback, which returns a bare array.
func LegacyListFeedbackHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		all, err := deps.Feedback.List(c.UserContext())
		if err != nil {
			return errInternal(c, "failed to get feedback data")
		}
		if all == nil {
			all = []domain.Feedback{}
		}
		c.Set("Cache-Control", "no-cache")
		return c.JSON(all)
	}
}

// fountainID returns the unescaped :fountainId path parameter. OSM-style
// ids such as "node/123" arrive percent-encoded. Params aliases the request
// buffer that fasthttp reuses, so the id is copied before it is stored.
func fountainID(c *fiber.Ctx) string {
	raw := utils.CopyString(c.Params("fountainId"))
	if id, err := url.PathUnescape(raw); err == nil {
		raw = id
	}
	return strings.TrimSpace(raw)
}

// validationMessage turns validator errors into "field: rule" pairs.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fe.Field()+": "+fe.Tag())
	}
	return "invalid parameters: " + strings.Join(parts, ", ")
}
