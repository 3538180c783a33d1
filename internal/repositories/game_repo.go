package repositories

import "gametracker/internal/models"

// GameRepository defines the interface for game data access. Every listing
// method returns one page of rows plus the total count for the same filter.
type GameRepository interface {
	GetPopular(page, limit int) (*models.PaginatedGames, error)
	GetRecent(page, limit int) (*models.PaginatedGames, error)
	SearchByTitle(title string, page, limit int) (*models.PaginatedGames, error)
	SearchByUser(email string, page, limit int) (*models.PaginatedGames, error)
	GetUserGames(email string, filter models.GameFilter, page, limit int) (*models.PaginatedGames, error)
	GetByID(id int) (*models.Game, error)
	Create(game *models.Game) error
	Update(id int, updates map[string]interface{}) (*models.Game, error)
	Delete(id int, email string) error
	GlobalStats() (*models.StatsSummary, error)
	UserStats(email string) (*models.StatsSummary, error)
}
