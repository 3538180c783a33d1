package handlers

import (
	"log"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gametracker/internal/models"
	"gametracker/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// MaxImageSize caps uploaded cover images at 5 MB.
const MaxImageSize = 5 * 1024 * 1024

// GameHandler handles the per-user game routes: listing with filters,
// CRUD, stats, and cover image upload.
type GameHandler struct {
	service   *services.GameService
	validate  *validator.Validate
	uploadDir string
}

// NewGameHandler creates a new GameHandler.
func NewGameHandler(service *services.GameService, uploadDir string) *GameHandler {
	return &GameHandler{
		service:   service,
		validate:  validator.New(),
		uploadDir: uploadDir,
	}
}

// RegisterRoutes registers the user-space game routes. The literal paths
// (/stats, /upload-image) must be registered before /:id so Fiber does not
// swallow them as an id parameter. authGuard protects only the upload route.
func (h *GameHandler) RegisterRoutes(router fiber.Router, authGuard fiber.Handler) {
	games := router.Group("/games")
	games.Get("/stats", h.HandleUserStats)
	games.Post("/upload-image", authGuard, h.HandleUploadImage)
	games.Get("/", h.HandleGetUserGames)
	games.Post("/", h.HandleCreateGame)
	games.Get("/:id", h.HandleGetGameByID)
	games.Put("/:id", h.HandleUpdateGame)
	games.Delete("/:id", h.HandleDeleteGame)
}

// HandleGetUserGames lists one owner's games with optional per-field search
// and pagination.
func (h *GameHandler) HandleGetUserGames(c *fiber.Ctx) error {
	email := c.Query("email")
	if email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing email parameter",
		})
	}

	filter := models.GameFilter{
		Field: models.SearchField(c.Query("searchField")),
		Value: c.Query("searchValue"),
	}

	result, err := h.service.GetUserGames(email, filter, c.QueryInt("page", 1), c.QueryInt("limit", 10))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// HandleCreateGame creates a new game record for the given owner.
func (h *GameHandler) HandleCreateGame(c *fiber.Ctx) error {
	var game models.Game
	if err := c.BodyParser(&game); err != nil {
		log.Printf("Error parsing create game request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	// Store-assigned fields are never taken from the request. DateAdded must
	// be zero or autoCreateTime keeps the client's value.
	game.ID = 0
	game.DateAdded = time.Time{}

	if err := h.validate.Struct(&game); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": validationMessage(err),
		})
	}

	created, err := h.service.CreateGame(&game)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// UpdateGameRequest is the partial-patch body for PUT /games/:id. Pointer
// fields distinguish "absent" from "zero"; absent fields stay unchanged.
type UpdateGameRequest struct {
	Email     string   `json:"email"`
	Title     *string  `json:"title" validate:"omitempty,max=100"`
	Rating    *float64 `json:"rating" validate:"omitempty,gte=0,lte=10"`
	TimeSpent *float64 `json:"timespent" validate:"omitempty,gte=0"`
	ImagePath *string  `json:"image_path"`
}

// HandleUpdateGame patches the provided fields of a game the caller owns.
func (h *GameHandler) HandleUpdateGame(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid game ID",
		})
	}

	var req UpdateGameRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing update game request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	// The claimed identity may arrive in the body or the query string.
	userEmail := req.Email
	if userEmail == "" {
		userEmail = c.Query("email")
	}
	if userEmail == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "User email is required",
		})
	}

	if err := h.validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": validationMessage(err),
		})
	}

	updates := make(map[string]interface{})
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Rating != nil {
		updates["rating"] = *req.Rating
	}
	if req.TimeSpent != nil {
		updates["timespent"] = *req.TimeSpent
	}
	if req.ImagePath != nil {
		updates["image_path"] = *req.ImagePath
	}

	updated, err := h.service.UpdateGame(id, updates, userEmail)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(updated)
}

// HandleDeleteGame removes a game the caller owns.
func (h *GameHandler) HandleDeleteGame(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid game ID",
		})
	}

	var body struct {
		Email string `json:"email"`
	}
	// DELETE bodies are optional; the email may come via query instead.
	_ = c.BodyParser(&body)
	userEmail := body.Email
	if userEmail == "" {
		userEmail = c.Query("email")
	}
	if userEmail == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "User email is required",
		})
	}

	if err := h.service.DeleteGame(id, userEmail); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

// HandleGetGameByID fetches one game. Without an email parameter this is a
// public read; with one, ownership is enforced.
func (h *GameHandler) HandleGetGameByID(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid game ID",
		})
	}

	game, err := h.service.GetGameByID(id, c.Query("email"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(game)
}

// HandleUserStats returns the aggregate summary for one owner.
func (h *GameHandler) HandleUserStats(c *fiber.Ctx) error {
	email := c.Query("email")
	if email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing email parameter",
		})
	}

	stats, err := h.service.GetUserStats(email)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}

// HandleUploadImage stores a cover image on disk and returns the generated
// filename for the client to attach to a game record.
func (h *GameHandler) HandleUploadImage(c *fiber.Ctx) error {
	file, err := c.FormFile("image")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No image file provided",
		})
	}
	if file.Size > MaxImageSize {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Image too large (max 5MB)",
		})
	}
	if !strings.HasPrefix(file.Header.Get("Content-Type"), "image/") {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Only image files are allowed",
		})
	}

	filename := uuid.NewString() + strings.ToLower(filepath.Ext(file.Filename))
	if err := c.SaveFile(file, filepath.Join(h.uploadDir, filename)); err != nil {
		log.Printf("Error saving uploaded image: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save image",
		})
	}

	return c.JSON(fiber.Map{"imagePath": filename})
}

// parseIDParam reads the :id route parameter as a positive integer.
func parseIDParam(c *fiber.Ctx) (int, error) {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil || id < 1 {
		return 0, fiber.ErrBadRequest
	}
	return id, nil
}
