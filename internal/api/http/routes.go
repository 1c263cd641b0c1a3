package httpapi

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/cuba-rates/internal/exchange"
	"github.com/i474232898/cuba-rates/internal/province"
)

var validate = validator.New()

// Extractor is the vision extraction entry point used by the debug route.
type Extractor interface {
	Extract(ctx context.Context, imageSource string) (province.Extraction, error)
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *exchange.Service, extractor Extractor) {
	app.Get("/api/exchange-rate", func(c *fiber.Ctx) error {
		var q rangeQuery
		if err := q.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		quote, err := service.GetQuote(c.UserContext(), q.toRange())
		if err != nil {
			return toHTTPError(err)
		}

		setCacheHeader(c, service.CacheTTL())
		return c.JSON(quote)
	})

	v1 := app.Group("/api/v1")

	v1.Get("/rates", func(c *fiber.Ctx) error {
		summary, err := service.GetSummary(c.UserContext())
		if err != nil {
			return toHTTPError(err)
		}

		setCacheHeader(c, service.CacheTTL())
		return c.JSON(summary)
	})

	v1.Get("/provinces", func(c *fiber.Ctx) error {
		var q nationalQuery
		if err := q.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		return c.JSON(service.GetProvinces(c.UserContext(), q.National))
	})

	v1.Get("/provinces/extract", func(c *fiber.Ctx) error {
		res, err := extractor.Extract(c.UserContext(), c.Query("image_url"))
		if err != nil {
			return c.Status(statusFor(err)).JSON(extractResponse{
				Success:     false,
				Error:       err.Error(),
				RawResponse: res.RawResponse,
			})
		}

		return c.JSON(extractResponse{
			Success:     true,
			Data:        res.Rows,
			RawResponse: res.RawResponse,
		})
	})
}

type extractResponse struct {
	Success     bool                `json:"success"`
	Data        []province.RateData `json:"data,omitempty"`
	Error       string              `json:"error,omitempty"`
	RawResponse string              `json:"rawResponse,omitempty"`
}

// rangeQuery holds the optional date_from/date_to parameters.
type rangeQuery struct {
	From time.Time
	To   time.Time
}

func (r *rangeQuery) bind(c *fiber.Ctx) error {
	if s := c.Query("date_from"); s != "" {
		ts, err := parseTime(s)
		if err != nil {
			return fmt.Errorf("date_from: %w", err)
		}
		r.From = ts
	}
	if s := c.Query("date_to"); s != "" {
		ts, err := parseTime(s)
		if err != nil {
			return fmt.Errorf("date_to: %w", err)
		}
		r.To = ts
	}
	return nil
}

func (r rangeQuery) toRange() exchange.DateRange {
	return exchange.DateRange{From: r.From, To: r.To}
}

// nationalQuery holds the national rate for the provinces endpoint.
type nationalQuery struct {
	National float64 `validate:"gt=0"`
}

func (n *nationalQuery) bind(c *fiber.Ctx) error {
	s := c.Query("national")
	if s == "" {
		return errors.New("national query parameter is required")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return errors.New("national must be a number")
	}
	n.National = v
	return nil
}

// parseTime accepts the provider layout, RFC3339, ISO local time or Unix seconds.
func parseTime(s string) (time.Time, error) {
	for _, layout := range []string{exchange.ProviderTimeLayout, time.RFC3339, "2006-01-02T15:04:05"} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use YYYY-MM-DD HH:MM:SS, RFC3339 or unix seconds")
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	var (
		validErr    *exchange.ValidationError
		cfgErr      *exchange.ConfigurationError
		upstreamErr *exchange.UpstreamError
	)
	switch {
	case errors.As(err, &validErr):
		return fiber.StatusBadRequest
	case errors.As(err, &cfgErr):
		return fiber.StatusInternalServerError
	case errors.As(err, &upstreamErr):
		return upstreamErr.StatusCode
	default:
		return fiber.StatusInternalServerError
	}
}

func toHTTPError(err error) error {
	return fiber.NewError(statusFor(err), err.Error())
}

func setCacheHeader(c *fiber.Ctx, ttl time.Duration) {
	c.Set(fiber.HeaderCacheControl, fmt.Sprintf("public, max-age=%d", int(ttl.Seconds())))
}
