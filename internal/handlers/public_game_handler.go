package handlers

import (
	"gametracker/internal/services"

	"github.com/gofiber/fiber/v2"
)

// PublicGameHandler handles the read-only public routes: popular/recent
// listings, cross-user search, and global stats. No identity is involved.
type PublicGameHandler struct {
	service *services.GameService
}

// NewPublicGameHandler creates a new PublicGameHandler.
func NewPublicGameHandler(service *services.GameService) *PublicGameHandler {
	return &PublicGameHandler{
		service: service,
	}
}

// RegisterRoutes registers the public game routes.
func (h *PublicGameHandler) RegisterRoutes(router fiber.Router) {
	public := router.Group("/games/public")
	public.Get("/popular", h.HandlePopular)
	public.Get("/recent", h.HandleRecent)
	public.Get("/search", h.HandleSearchByTitle)
	public.Get("/by-user", h.HandleSearchByUser)
	public.Get("/stats", h.HandleGlobalStats)
}

// HandlePopular lists games by rating and time spent, descending.
func (h *PublicGameHandler) HandlePopular(c *fiber.Ctx) error {
	result, err := h.service.GetPopularGames(c.QueryInt("page", 1), c.QueryInt("limit", 10))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// HandleRecent lists games newest first.
func (h *PublicGameHandler) HandleRecent(c *fiber.Ctx) error {
	result, err := h.service.GetRecentGames(c.QueryInt("page", 1), c.QueryInt("limit", 10))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// HandleSearchByTitle searches titles by case-insensitive substring.
func (h *PublicGameHandler) HandleSearchByTitle(c *fiber.Ctx) error {
	result, err := h.service.SearchGamesByTitle(c.Query("title"), c.QueryInt("page", 1), c.QueryInt("limit", 10))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// HandleSearchByUser searches owner emails by case-insensitive substring.
// An empty email yields an empty result set, not an error.
func (h *PublicGameHandler) HandleSearchByUser(c *fiber.Ctx) error {
	result, err := h.service.SearchGamesByUser(c.Query("email"), c.QueryInt("page", 1), c.QueryInt("limit", 10))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// HandleGlobalStats returns the aggregate summary across all users.
func (h *PublicGameHandler) HandleGlobalStats(c *fiber.Ctx) error {
	stats, err := h.service.GetGlobalStats()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}
