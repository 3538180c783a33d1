package services

import (
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"gametracker/internal/apperror"
	"gametracker/internal/models"
	"gametracker/internal/repositories"
	"gametracker/pkg/rabbitmq"
)

// Validation and pagination bounds. Rating is canonically 0-10.
const (
	MaxTitleLength = 100
	MinRating      = 0
	MaxRating      = 10

	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// GameService orchestrates game listings, per-owner CRUD, and statistics.
// It normalizes pagination, enforces field rules and ownership, and leaves
// query construction to the repository.
type GameService struct {
	repo     repositories.GameRepository
	mqClient *rabbitmq.Client // optional; nil disables event publishing
}

// NewGameService creates a new GameService.
func NewGameService(repo repositories.GameRepository, mqClient *rabbitmq.Client) *GameService {
	return &GameService{
		repo:     repo,
		mqClient: mqClient,
	}
}

// normalizePagination clamps bad input to defaults instead of erroring, so
// list endpoints stay resilient to garbage query strings. The policy is
// applied application-wide: page below 1 becomes 1, limit outside [1,100]
// becomes 10.
func normalizePagination(page, limit int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 || limit > MaxLimit {
		limit = DefaultLimit
	}
	return page, limit
}

// GetPopularGames lists games by rating and time spent, descending.
func (s *GameService) GetPopularGames(page, limit int) (*models.PaginatedGames, error) {
	page, limit = normalizePagination(page, limit)
	return s.repo.GetPopular(page, limit)
}

// GetRecentGames lists games newest first.
func (s *GameService) GetRecentGames(page, limit int) (*models.PaginatedGames, error) {
	page, limit = normalizePagination(page, limit)
	return s.repo.GetRecent(page, limit)
}

// SearchGamesByTitle runs the public case-insensitive title substring
// search. An empty title is a validation error.
func (s *GameService) SearchGamesByTitle(title string, page, limit int) (*models.PaginatedGames, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperror.ValidationFailed("title", "title is required")
	}
	page, limit = normalizePagination(page, limit)
	return s.repo.SearchByTitle(title, page, limit)
}

// SearchGamesByUser runs the public owner-email substring search. An empty
// email yields an empty result set rather than an error.
func (s *GameService) SearchGamesByUser(email string, page, limit int) (*models.PaginatedGames, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return &models.PaginatedGames{Results: []models.Game{}, Total: 0}, nil
	}
	page, limit = normalizePagination(page, limit)
	return s.repo.SearchByUser(email, page, limit)
}

// GetUserGames lists one owner's games, optionally narrowed by a per-field
// filter.
func (s *GameService) GetUserGames(email string, filter models.GameFilter, page, limit int) (*models.PaginatedGames, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, apperror.ValidationFailed("email", "email is required")
	}
	page, limit = normalizePagination(page, limit)
	return s.repo.GetUserGames(email, filter, page, limit)
}

// CreateGame validates and saves a new game. The store assigns ID and
// DateAdded; everything else comes trimmed from the request.
func (s *GameService) CreateGame(game *models.Game) (*models.Game, error) {
	game.Title = strings.TrimSpace(game.Title)
	game.Email = strings.TrimSpace(game.Email)

	if game.Title == "" {
		return nil, apperror.ValidationFailed("title", "title is required")
	}
	if utf8.RuneCountInString(game.Title) > MaxTitleLength {
		return nil, apperror.ValidationFailed("title",
			fmt.Sprintf("title must be %d characters or less", MaxTitleLength))
	}
	if game.Email == "" {
		return nil, apperror.ValidationFailed("email", "email is required")
	}
	if game.Rating < MinRating || game.Rating > MaxRating {
		return nil, apperror.ValidationFailed("rating",
			fmt.Sprintf("rating must be a number between %d and %d", MinRating, MaxRating))
	}
	if game.TimeSpent < 0 {
		return nil, apperror.ValidationFailed("timespent", "time spent must be a non-negative number")
	}

	if err := s.repo.Create(game); err != nil {
		return nil, fmt.Errorf("creating game: %w", err)
	}

	s.publishGameEvent("game.created", game)
	return game, nil
}

// UpdateGame applies a partial patch to a game the caller owns. Absent
// fields stay unchanged; id, email, and dateadded are never patchable.
func (s *GameService) UpdateGame(id int, updates map[string]interface{}, userEmail string) (*models.Game, error) {
	userEmail = strings.TrimSpace(userEmail)
	if userEmail == "" {
		return nil, apperror.ValidationFailed("email", "user email is required")
	}

	if _, err := s.authorizeOwner(id, userEmail); err != nil {
		return nil, err
	}

	patch, err := validateGamePatch(updates)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(id, patch)
	if err != nil {
		// NotFound here means the row vanished between the authorization
		// read and the write.
		return nil, err
	}

	s.publishGameEvent("game.updated", updated)
	return updated, nil
}

// validateGamePatch checks the provided fields against the same rules as
// create and keeps only patchable columns.
func validateGamePatch(updates map[string]interface{}) (map[string]interface{}, error) {
	patch := make(map[string]interface{}, len(updates))
	for column, value := range updates {
		switch column {
		case "title":
			raw, ok := value.(string)
			if !ok {
				return nil, apperror.ValidationFailed("title", "title must be a string")
			}
			title := strings.TrimSpace(raw)
			if title == "" {
				return nil, apperror.ValidationFailed("title", "title cannot be empty")
			}
			if utf8.RuneCountInString(title) > MaxTitleLength {
				return nil, apperror.ValidationFailed("title",
					fmt.Sprintf("title must be %d characters or less", MaxTitleLength))
			}
			patch["title"] = title
		case "rating":
			rating, ok := value.(float64)
			if !ok {
				return nil, apperror.ValidationFailed("rating", "rating must be a number")
			}
			if rating < MinRating || rating > MaxRating {
				return nil, apperror.ValidationFailed("rating",
					fmt.Sprintf("rating must be a number between %d and %d", MinRating, MaxRating))
			}
			patch["rating"] = rating
		case "timespent":
			timeSpent, ok := value.(float64)
			if !ok {
				return nil, apperror.ValidationFailed("timespent", "time spent must be a number")
			}
			if timeSpent < 0 {
				return nil, apperror.ValidationFailed("timespent", "time spent must be a non-negative number")
			}
			patch["timespent"] = timeSpent
		case "image_path":
			path, ok := value.(string)
			if !ok {
				return nil, apperror.ValidationFailed("image_path", "image path must be a string")
			}
			patch["image_path"] = path
		}
		// Anything else (id, email, dateadded, unknown keys) is dropped.
	}
	if len(patch) == 0 {
		return nil, apperror.ValidationFailed("", "no fields to update")
	}
	return patch, nil
}

// DeleteGame removes a game the caller owns. The repository re-checks the
// (id, email) pair at the store, so a racing owner change surfaces as
// NotFound instead of deleting a foreign row.
func (s *GameService) DeleteGame(id int, userEmail string) error {
	userEmail = strings.TrimSpace(userEmail)
	if userEmail == "" {
		return apperror.ValidationFailed("email", "user email is required")
	}

	game, err := s.authorizeOwner(id, userEmail)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(id, userEmail); err != nil {
		return err
	}

	s.publishGameEvent("game.deleted", game)
	return nil
}

// GetGameByID fetches a single game. With no claimed email this is a public
// read; with one, ownership is enforced.
func (s *GameService) GetGameByID(id int, userEmail string) (*models.Game, error) {
	game, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	if userEmail != "" && game.Email != strings.TrimSpace(userEmail) {
		return nil, apperror.Unauthorized("you can only access your own games")
	}
	return game, nil
}

// GetUserStats computes aggregates over one owner's games.
func (s *GameService) GetUserStats(email string) (*models.StatsSummary, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, apperror.ValidationFailed("email", "email is required")
	}
	return s.repo.UserStats(email)
}

// GetGlobalStats computes aggregates over every game.
func (s *GameService) GetGlobalStats() (*models.StatsSummary, error) {
	return s.repo.GlobalStats()
}

// authorizeOwner fetches the record and asserts the requesting identity owns
// it. The read is not optimized away for operations that immediately write:
// the decision needs current state, and the store re-checks on delete anyway.
func (s *GameService) authorizeOwner(id int, email string) (*models.Game, error) {
	game, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if game.Email != email {
		return nil, apperror.Unauthorized("you can only modify your own games")
	}
	return game, nil
}

// publishGameEvent emits one mutation event, best effort. Event delivery is
// never allowed to fail the request that caused it.
func (s *GameService) publishGameEvent(action string, game *models.Game) {
	if s.mqClient == nil {
		return
	}

	event := map[string]interface{}{
		"action": action,
		"id":     game.ID,
		"title":  game.Title,
		"email":  game.Email,
	}
	if err := s.mqClient.PublishGameEvent(event); err != nil {
		log.Printf("Warning: failed to publish %s event for game %d: %v", action, game.ID, err)
	}
}
