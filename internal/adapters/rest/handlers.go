package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"item-service/internal/domain/item"
	"item-service/internal/domain/shared"
	"item-service/internal/ports/inbound"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// HealthHandler serves the liveness and readiness probes
type HealthHandler struct {
	service inbound.HealthService
}

// Health always answers 200
func (h *HealthHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, h.service.Liveness(c.Request().Context()))
}

// Ready answers 503 with the same body shape when the store is unreachable
func (h *HealthHandler) Ready(c echo.Context) error {
	resp := h.service.Readiness(c.Request().Context())
	if !resp.IsHealthy() {
		return c.JSON(http.StatusServiceUnavailable, resp)
	}
	return c.JSON(http.StatusOK, resp)
}

// ItemHandler serves the /items resource. Input is validated before the
// service is called.
type ItemHandler struct {
	service inbound.ItemService
}

func (h *ItemHandler) ListItems(c echo.Context) error {
	req, err := parseListRequest(c)
	if err != nil {
		return err
	}

	result, err := h.service.ListItems(c.Request().Context(), req)
	if err != nil {
		return err
	}
	if result.Items == nil {
		result.Items = []*item.Item{}
	}
	return c.JSON(http.StatusOK, result)
}

func (h *ItemHandler) CreateItem(c echo.Context) error {
	var in item.Create
	if err := decodeBody(c, &in); err != nil {
		return err
	}
	if err := in.Validate(); err != nil {
		return err
	}

	it, err := h.service.CreateItem(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, it)
}

func (h *ItemHandler) GetItem(c echo.Context) error {
	id, err := parseItemID(c)
	if err != nil {
		return err
	}

	it, found, err := h.service.GetItem(c.Request().Context(), id)
	if err != nil {
		return err
	}
	if !found {
		return shared.ErrItemNotFound
	}
	return c.JSON(http.StatusOK, it)
}

func (h *ItemHandler) UpdateItem(c echo.Context) error {
	id, err := parseItemID(c)
	if err != nil {
		return err
	}

	var patch item.Update
	if err := decodeBody(c, &patch); err != nil {
		return err
	}
	if err := patch.Validate(); err != nil {
		return err
	}

	it, found, err := h.service.UpdateItem(c.Request().Context(), id, patch)
	if err != nil {
		return err
	}
	if !found {
		return shared.ErrItemNotFound
	}
	return c.JSON(http.StatusOK, it)
}

func (h *ItemHandler) DeleteItem(c echo.Context) error {
	id, err := parseItemID(c)
	if err != nil {
		return err
	}

	deleted, err := h.service.DeleteItem(c.Request().Context(), id)
	if err != nil {
		return err
	}
	if !deleted {
		return shared.ErrItemNotFound
	}
	return c.NoContent(http.StatusNoContent)
}

func parseItemID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %q", shared.ErrInvalidItemID, c.Param("id"))
	}
	return id, nil
}

func parseListRequest(c echo.Context) (inbound.ListItemsRequest, error) {
	limit, err := intParam(c, "limit", inbound.DefaultLimit)
	if err != nil || limit < 1 || limit > inbound.MaxLimit {
		return inbound.ListItemsRequest{}, shared.ErrInvalidLimit
	}

	offset, err := intParam(c, "offset", 0)
	if err != nil || offset < 0 {
		return inbound.ListItemsRequest{}, shared.ErrInvalidOffset
	}

	return inbound.ListItemsRequest{Limit: limit, Offset: offset}, nil
}

// intParam returns def when the parameter is absent. A present but empty
// value is an error.
func intParam(c echo.Context, name string, def int) (int, error) {
	values, ok := c.QueryParams()[name]
	if !ok || len(values) == 0 {
		return def, nil
	}
	return strconv.Atoi(values[0])
}

// decodeBody reads exactly one JSON object. Unknown fields are ignored.
func decodeBody(c echo.Context, dst any) error {
	var raw json.RawMessage
	dec := json.NewDecoder(c.Request().Body)
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is required", shared.ErrInvalidRequest)
		}
		return fmt.Errorf("%w: %v", shared.ErrInvalidRequest, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: unexpected data after JSON body", shared.ErrInvalidRequest)
	}
	if len(raw) == 0 || raw[0] != '{' {
		return fmt.Errorf("%w: request body must be a JSON object", shared.ErrInvalidRequest)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidRequest, err)
	}
	return nil
}
