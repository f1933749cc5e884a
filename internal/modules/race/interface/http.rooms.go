package transport

import (
	"net/http"
	"sort"

	"github.com/labstack/echo/v4"

	"codeDuelWs/internal/modules/race/domain"
	"codeDuelWs/internal/shared/httputil"
)

// RoomSummary is the list projection served by GET /api/rooms.
type RoomSummary struct {
	ID      string        `json:"id"`
	Players int           `json:"players"`
	Status  domain.Status `json:"status"`
}

var roomErrors = httputil.NewErrorMapper().
	WithMapping(domain.ErrSessionNotFound, http.StatusNotFound, "room not found")

// NewRoomListHandler serves a read-only summary of every active room.
func NewRoomListHandler(registry *domain.Registry) func(echo.Context) error {
	return func(c echo.Context) error {
		snapshots := registry.List()
		summaries := make([]RoomSummary, 0, len(snapshots))
		for _, s := range snapshots {
			summaries = append(summaries, RoomSummary{ID: s.ID, Players: len(s.Players), Status: s.Status})
		}
		sort.Slice(summaries, func(i, j int) bool { return summaries[i].ID < summaries[j].ID })
		return c.JSON(http.StatusOK, summaries)
	}
}

// NewRoomDetailHandler serves the full snapshot of one room.
func NewRoomDetailHandler(registry *domain.Registry) func(echo.Context) error {
	return func(c echo.Context) error {
		roomID := domain.NormalizeRoomID(c.Param("id"))
		session, ok := registry.Get(roomID)
		if !ok {
			info := roomErrors.Map(domain.ErrSessionNotFound)
			return echo.NewHTTPError(info.Status, info.Message)
		}
		return c.JSON(http.StatusOK, session.Snapshot())
	}
}
