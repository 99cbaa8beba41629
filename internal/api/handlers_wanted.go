package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/slipstream/releasedecider/internal/library/store"
)

// listMissing returns a page of aired episodes without a file.
// GET /api/v1/wanted/missing
func (s *Server) listMissing(c echo.Context) error {
	opts := store.MissingOptions{
		Monitored:     true,
		Page:          1,
		PageSize:      10,
		SortKey:       c.QueryParam("sortKey"),
		SortDirection: c.QueryParam("sortDirection"),
	}
	if p := c.QueryParam("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			opts.Page = v
		}
	}
	if ps := c.QueryParam("pageSize"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 {
			opts.PageSize = v
		}
	}
	if m := c.QueryParam("monitored"); m != "" {
		v, err := strconv.ParseBool(m)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "monitored must be true or false"})
		}
		opts.Monitored = v
	}

	page, err := s.deps.Wanted.ListMissingEpisodes(c.Request().Context(), opts)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list missing episodes")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, page)
}
