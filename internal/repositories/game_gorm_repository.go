package repositories

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	"gametracker/internal/apperror"
	"gametracker/internal/models"

	"gorm.io/gorm"
)

// publicColumns is the projection for public listings: the owner email is
// deliberately left out.
const publicColumns = "id, title, rating, timespent, dateadded, image_path"

// GORMGameRepository is a GORM implementation of GameRepository.
type GORMGameRepository struct {
	db *gorm.DB
}

// NewGORMGameRepository creates a new instance of GORMGameRepository.
func NewGORMGameRepository(db *gorm.DB) *GORMGameRepository {
	return &GORMGameRepository{
		db: db,
	}
}

// findPage runs the data query and the count query concurrently, both built
// from the same scopes. The two queries are deliberately not wrapped in a
// transaction: a write landing between them can skew total against the page
// slice, which is an accepted trade-off for halving the round-trip latency.
// The count query never sees limit/offset, so total always reflects the full
// filtered set.
func (r *GORMGameRepository) findPage(scopes []gameScope, selectCols, order string, page, limit int) (*models.PaginatedGames, error) {
	offset := (page - 1) * limit

	games := make([]models.Game, 0, limit)
	var total int64
	var dataErr, countErr error

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		q := r.db.Model(&models.Game{}).Scopes(scopes...)
		if selectCols != "" {
			q = q.Select(selectCols)
		}
		dataErr = q.Order(order).Limit(limit).Offset(offset).Find(&games).Error
	}()
	go func() {
		defer wg.Done()
		countErr = r.db.Model(&models.Game{}).Scopes(scopes...).Count(&total).Error
	}()
	wg.Wait()

	if dataErr != nil {
		return nil, fmt.Errorf("failed to query games: %w", dataErr)
	}
	if countErr != nil {
		return nil, fmt.Errorf("failed to count games: %w", countErr)
	}

	return &models.PaginatedGames{Results: games, Total: total}, nil
}

// GetPopular returns games ordered by rating, then time spent, both
// descending. Unfiltered, so total is the table size.
func (r *GORMGameRepository) GetPopular(page, limit int) (*models.PaginatedGames, error) {
	return r.findPage(nil, publicColumns, "rating DESC, timespent DESC", page, limit)
}

// GetRecent returns games ordered by most recently added.
func (r *GORMGameRepository) GetRecent(page, limit int) (*models.PaginatedGames, error) {
	return r.findPage(nil, publicColumns, "dateadded DESC", page, limit)
}

// SearchByTitle returns games whose title contains the given substring,
// case-insensitively.
func (r *GORMGameRepository) SearchByTitle(title string, page, limit int) (*models.PaginatedGames, error) {
	return r.findPage([]gameScope{titleScope(title)}, publicColumns, "id", page, limit)
}

// SearchByUser returns games whose owner email contains the given substring,
// case-insensitively. The email column is included here so callers can tell
// the owners apart.
func (r *GORMGameRepository) SearchByUser(email string, page, limit int) (*models.PaginatedGames, error) {
	return r.findPage([]gameScope{emailSearchScope(email)}, publicColumns+", email", "dateadded DESC", page, limit)
}

// GetUserGames returns one owner's games, optionally narrowed by a per-field
// search filter, newest first.
func (r *GORMGameRepository) GetUserGames(email string, filter models.GameFilter, page, limit int) (*models.PaginatedGames, error) {
	scopes := []gameScope{ownerScope(email)}
	if !filter.Empty() {
		scopes = append(scopes, searchScope(filter.Field, filter.Value))
	}
	return r.findPage(scopes, "", "dateadded DESC", page, limit)
}

// GetByID retrieves a single game by its ID.
func (r *GORMGameRepository) GetByID(id int) (*models.Game, error) {
	var game models.Game
	if err := r.db.First(&game, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("game", strconv.Itoa(id))
		}
		return nil, fmt.Errorf("failed to get game by ID %d: %w", id, err)
	}
	return &game, nil
}

// Create inserts a new game. The store assigns ID and DateAdded.
func (r *GORMGameRepository) Create(game *models.Game) error {
	if err := r.db.Create(game).Error; err != nil {
		return fmt.Errorf("failed to create game: %w", err)
	}
	return nil
}

// Update applies a partial patch: only the columns present in updates change.
// Zero rows affected means the row vanished between the caller's
// authorization read and this write, which surfaces as NotFound.
func (r *GORMGameRepository) Update(id int, updates map[string]interface{}) (*models.Game, error) {
	res := r.db.Model(&models.Game{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update game %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperror.NotFound("game", strconv.Itoa(id))
	}
	return r.GetByID(id)
}

// Delete removes a game by the compound (id, email) condition. Re-checking
// the owner at the store level keeps a racing owner change from deleting a
// foreign row after the caller's authorization read.
func (r *GORMGameRepository) Delete(id int, email string) error {
	res := r.db.Where("id = ? AND email = ?", id, email).Delete(&models.Game{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete game %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("game", strconv.Itoa(id))
	}
	return nil
}

// statsRow receives the aggregate projection. Postgres returns numeric
// aggregates as strings on the wire; scanning into these typed fields is
// what coerces them back to numbers.
type statsRow struct {
	TotalGames int64
	TotalTime  float64
	AvgRating  float64
	AvgTime    float64
}

func (r *GORMGameRepository) stats(scopes ...gameScope) (*models.StatsSummary, error) {
	var row statsRow
	err := r.db.Model(&models.Game{}).Scopes(scopes...).
		Select("COUNT(*) AS total_games, " +
			"COALESCE(SUM(timespent), 0) AS total_time, " +
			"COALESCE(AVG(rating), 0) AS avg_rating, " +
			"COALESCE(AVG(timespent), 0) AS avg_time").
		Scan(&row).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute stats: %w", err)
	}
	// COALESCE already turned the empty-set NULLs into zeros.
	return &models.StatsSummary{
		TotalGames: row.TotalGames,
		TotalTime:  row.TotalTime,
		AvgRating:  row.AvgRating,
		AvgTime:    row.AvgTime,
	}, nil
}

// GlobalStats aggregates over every game in the table.
func (r *GORMGameRepository) GlobalStats() (*models.StatsSummary, error) {
	return r.stats()
}

// UserStats aggregates over one owner's games.
func (r *GORMGameRepository) UserStats(email string) (*models.StatsSummary, error) {
	return r.stats(ownerScope(email))
}
