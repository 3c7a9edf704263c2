package handler // handler defines http handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// getUserID extracts the user_id from echo.Context and converts it to uint64.
// JWT numeric claims decode as float64, so several representations are accepted.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// bindRequired decodes the request body into an untyped map and checks that
// every required field is present and non-null.  When fields are missing it
// writes a 400 response listing them and returns handled=true; the caller
// should return nil immediately.  Typed extraction from the map is left to
// the caller via the as* helpers below.
func bindRequired(c echo.Context, fields ...string) (body map[string]interface{}, handled bool) {
	if err := json.NewDecoder(c.Request().Body).Decode(&body); err != nil {
		_ = c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
		return nil, true
	}
	var missing []string
	for _, f := range fields {
		v, ok := body[f]
		if !ok || v == nil {
			missing = append(missing, f)
			continue
		}
		if s, isStr := v.(string); isStr && s == "" {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		_ = c.JSON(http.StatusBadRequest, echo.Map{
			"error":   "missing required fields",
			"missing": missing,
		})
		return nil, true
	}
	return body, false
}

// asID reads a positive integer id from an untyped body field.  JSON numbers
// decode as float64; numeric strings are accepted too.
func asID(v interface{}) (uint64, bool) {
	switch t := v.(type) {
	case float64:
		if t > 0 && t == float64(uint64(t)) {
			return uint64(t), true
		}
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil && n > 0 {
			return n, true
		}
	}
	return 0, false
}

// asString reads a string body field.
func asString(v interface{}) (string, bool) {
	s, ok := v.(string)
	return s, ok
}
