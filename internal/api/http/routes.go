package httpapi

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/kmadk/windborne-stratosphere/internal/app"
	"github.com/kmadk/windborne-stratosphere/internal/fleet"
	"github.com/kmadk/windborne-stratosphere/internal/store"
	"github.com/kmadk/windborne-stratosphere/internal/windfield"
)

var validate = validator.New()

// HourProxy returns the raw upstream body of one hour slot.
type HourProxy interface {
	FetchRaw(ctx context.Context, hour int) ([]byte, error)
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(router fiber.Router, state *app.App, proxy HourProxy) {
	api := router.Group("/api", corsMiddleware)

	// Proxy endpoints consumed by the browser map.
	api.Get("/windborne/:hour", func(c *fiber.Ctx) error {
		hour, err := parseHour(c.Params("hour"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		body, err := proxy.FetchRaw(c.UserContext(), hour)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":   "Failed to fetch balloon data",
				"details": err.Error(),
			})
		}

		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Send(body)
	})

	windHandler := func(c *fiber.Ctx) error {
		return c.JSON(state.WindField(c.UserContext()))
	}
	api.Get("/weather", windHandler)
	api.Get("/jetstream", windHandler)

	v1 := api.Group("/v1")

	v1.Get("/fleet", func(c *fiber.Ctx) error {
		latest, err := state.Store().GetLatest()
		if err != nil {
			return notFoundOr(err, "no fleet data loaded yet")
		}
		history, err := state.Store().GetRange(time.Time{}, latest.LoadedAt)
		if err != nil {
			return notFoundOr(err, "no fleet data loaded yet")
		}
		return c.JSON(fiber.Map{
			"current": latest,
			"history": history,
		})
	})

	v1.Get("/hours/:hour", func(c *fiber.Ctx) error {
		hour, err := parseHour(c.Params("hour"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		ds, _, err := state.Store().Fleet()
		if err != nil {
			return notFoundOr(err, "no fleet data loaded yet")
		}

		records := ds.Snapshot(hour)
		if records == nil {
			records = fleet.HourSnapshot{}
		}
		return c.JSON(fiber.Map{
			"hour":         hour,
			"records":      records,
			"report":       ds.Reports[hour],
			"aggregate":    ds.AggregateHour(hour),
			"interactions": windfield.Interactions(hour, records),
		})
	})

	v1.Get("/tracks/:id", func(c *fiber.Ctx) error {
		id := c.Params("id")
		track, err := state.Store().Track(id)
		if err != nil {
			return notFoundOr(err, fmt.Sprintf("no track for %q", id))
		}
		return c.JSON(fiber.Map{
			"id":       id,
			"hours":    track,
			"polyline": track.Polyline(),
		})
	})

	v1.Get("/view", func(c *fiber.Ctx) error {
		return c.JSON(state.View())
	})

	v1.Post("/cursor/hour", func(c *fiber.Ctx) error {
		var req setHourRequest
		if err := bindAndValidate(c, &req); err != nil {
			return err
		}
		if err := state.Cursor().SetHour(*req.Hour); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.JSON(state.View())
	})

	v1.Post("/cursor/play", func(c *fiber.Ctx) error {
		state.Cursor().TogglePlay()
		return c.JSON(state.View())
	})

	v1.Post("/select", func(c *fiber.Ctx) error {
		var req selectRequest
		if err := bindAndValidate(c, &req); err != nil {
			return err
		}

		sel, err := state.Select(c.UserContext(), req.ID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			return fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("unknown balloon %q", req.ID))
		case errors.Is(err, app.ErrNotInHour):
			return fiber.NewError(fiber.StatusConflict, err.Error())
		case err != nil:
			return fiber.NewError(fiber.StatusInternalServerError, "failed to select balloon")
		}
		return c.JSON(sel)
	})

	v1.Post("/reload", func(c *fiber.Ctx) error {
		ds := state.Reload(c.UserContext())
		return c.JSON(fiber.Map{
			"loadId":      ds.LoadID,
			"loadedAt":    ds.LoadedAt,
			"totalPoints": ds.TotalPoints,
			"quality":     ds.Quality,
			"status":      ds.Status,
		})
	})
}

type setHourRequest struct {
	Hour *int `json:"hour" validate:"required,min=0,max=23"`
}

type selectRequest struct {
	ID string `json:"id" validate:"required"`
}

func bindAndValidate(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return nil
}

// hourParam is a zero-padded hour slot, "00" through "23".
type hourParam struct {
	Hour string `validate:"len=2,number"`
}

func parseHour(s string) (int, error) {
	if err := validate.Struct(hourParam{Hour: s}); err != nil {
		return 0, errors.New("hour must be two digits, 00 to 23")
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n >= fleet.HoursPerDay {
		return 0, fleet.ErrHourOutOfRange
	}
	return n, nil
}

func notFoundOr(err error, msg string) error {
	if errors.Is(err, store.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, msg)
	}
	return fiber.NewError(fiber.StatusInternalServerError, err.Error())
}

// corsMiddleware answers preflight requests with an empty 200, which the
// browser map expects.
func corsMiddleware(c *fiber.Ctx) error {
	c.Set(fiber.HeaderAccessControlAllowOrigin, "*")
	c.Set(fiber.HeaderAccessControlAllowMethods, "GET, POST, OPTIONS")
	c.Set(fiber.HeaderAccessControlAllowHeaders, "Content-Type")

	if c.Method() == fiber.MethodOptions {
		c.Status(fiber.StatusOK)
		return nil
	}
	return c.Next()
}
