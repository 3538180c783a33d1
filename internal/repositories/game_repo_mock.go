package repositories

import (
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"gametracker/internal/apperror"
	"gametracker/internal/models"
)

// MockGameRepository is an in-memory implementation of GameRepository. It
// mirrors the SQL semantics of the GORM implementation (same predicates,
// same ordering, same pagination math) so the layers above can be exercised
// without a database.
type MockGameRepository struct {
	games  map[int]models.Game
	nextID int
	mu     sync.RWMutex
}

// NewMockGameRepository creates a new instance of MockGameRepository.
func NewMockGameRepository() *MockGameRepository {
	return &MockGameRepository{
		games:  make(map[int]models.Game),
		nextID: 1,
	}
}

// matcher is the in-memory counterpart of a gameScope.
type matcher func(models.Game) bool

func matchOwner(email string) matcher {
	return func(g models.Game) bool { return g.Email == email }
}

func matchTitle(value string) matcher {
	needle := strings.ToLower(value)
	return func(g models.Game) bool {
		return strings.Contains(strings.ToLower(g.Title), needle)
	}
}

func matchEmailSubstring(value string) matcher {
	needle := strings.ToLower(value)
	return func(g models.Game) bool {
		return strings.Contains(strings.ToLower(g.Email), needle)
	}
}

func matchSearch(field models.SearchField, value string) matcher {
	switch field {
	case models.SearchRating:
		n := numericSearchValue(value)
		return func(g models.Game) bool { return g.Rating == n }
	case models.SearchTimeSpent:
		n := numericSearchValue(value)
		return func(g models.Game) bool { return g.TimeSpent == n }
	case models.SearchDateAdded:
		return func(g models.Game) bool {
			return g.DateAdded.Format("2006-01-02") == value
		}
	default:
		return matchTitle(value)
	}
}

// collect snapshots all rows passing every matcher. Caller must hold mu.
func (r *MockGameRepository) collect(matchers ...matcher) []models.Game {
	out := make([]models.Game, 0, len(r.games))
	for _, g := range r.games {
		ok := true
		for _, m := range matchers {
			if !m(g) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, g)
		}
	}
	return out
}

// page applies the ordered slice/total contract: total counts the whole
// filtered set, the slice covers only the requested window.
func page(rows []models.Game, less func(a, b models.Game) bool, pageNum, limit int) *models.PaginatedGames {
	sort.Slice(rows, func(i, j int) bool { return less(rows[i], rows[j]) })

	total := int64(len(rows))
	offset := (pageNum - 1) * limit
	if offset >= len(rows) {
		return &models.PaginatedGames{Results: []models.Game{}, Total: total}
	}
	end := offset + limit
	if end > len(rows) {
		end = len(rows)
	}
	return &models.PaginatedGames{Results: rows[offset:end], Total: total}
}

func byRatingDesc(a, b models.Game) bool {
	if a.Rating != b.Rating {
		return a.Rating > b.Rating
	}
	return a.TimeSpent > b.TimeSpent
}

func byDateDesc(a, b models.Game) bool {
	return a.DateAdded.After(b.DateAdded)
}

func byID(a, b models.Game) bool {
	return a.ID < b.ID
}

// GetPopular returns games ordered by rating, then time spent, descending.
func (r *MockGameRepository) GetPopular(pageNum, limit int) (*models.PaginatedGames, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return page(r.collect(), byRatingDesc, pageNum, limit), nil
}

// GetRecent returns games ordered by most recently added.
func (r *MockGameRepository) GetRecent(pageNum, limit int) (*models.PaginatedGames, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return page(r.collect(), byDateDesc, pageNum, limit), nil
}

// SearchByTitle returns games whose title contains the substring.
func (r *MockGameRepository) SearchByTitle(title string, pageNum, limit int) (*models.PaginatedGames, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return page(r.collect(matchTitle(title)), byID, pageNum, limit), nil
}

// SearchByUser returns games whose owner email contains the substring.
func (r *MockGameRepository) SearchByUser(email string, pageNum, limit int) (*models.PaginatedGames, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return page(r.collect(matchEmailSubstring(email)), byDateDesc, pageNum, limit), nil
}

// GetUserGames returns one owner's games, optionally filtered, newest first.
func (r *MockGameRepository) GetUserGames(email string, filter models.GameFilter, pageNum, limit int) (*models.PaginatedGames, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matchers := []matcher{matchOwner(email)}
	if !filter.Empty() {
		matchers = append(matchers, matchSearch(filter.Field, filter.Value))
	}
	return page(r.collect(matchers...), byDateDesc, pageNum, limit), nil
}

// GetByID returns a game by its ID.
func (r *MockGameRepository) GetByID(id int) (*models.Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	game, ok := r.games[id]
	if !ok {
		return nil, apperror.NotFound("game", strconv.Itoa(id))
	}
	return &game, nil
}

// Create adds a new game, assigning ID and DateAdded like the store would.
func (r *MockGameRepository) Create(game *models.Game) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	game.ID = r.nextID
	r.nextID++
	if game.DateAdded.IsZero() {
		game.DateAdded = time.Now()
	}
	r.games[game.ID] = *game
	return nil
}

// Update applies a partial patch to an existing game.
func (r *MockGameRepository) Update(id int, updates map[string]interface{}) (*models.Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	game, ok := r.games[id]
	if !ok {
		return nil, apperror.NotFound("game", strconv.Itoa(id))
	}
	for column, value := range updates {
		switch column {
		case "title":
			game.Title = value.(string)
		case "rating":
			game.Rating = value.(float64)
		case "timespent":
			game.TimeSpent = value.(float64)
		case "image_path":
			game.ImagePath = value.(string)
		}
	}
	r.games[id] = game
	return &game, nil
}

// Delete removes a game by the compound (id, email) condition.
func (r *MockGameRepository) Delete(id int, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	game, ok := r.games[id]
	if !ok || game.Email != email {
		return apperror.NotFound("game", strconv.Itoa(id))
	}
	delete(r.games, id)
	return nil
}

func summarize(rows []models.Game) *models.StatsSummary {
	s := &models.StatsSummary{TotalGames: int64(len(rows))}
	if len(rows) == 0 {
		return s // all zeros, never NaN
	}
	var ratingSum float64
	for _, g := range rows {
		s.TotalTime += g.TimeSpent
		ratingSum += g.Rating
	}
	s.AvgRating = ratingSum / float64(len(rows))
	s.AvgTime = s.TotalTime / float64(len(rows))
	return s
}

// GlobalStats aggregates over every stored game.
func (r *MockGameRepository) GlobalStats() (*models.StatsSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return summarize(r.collect()), nil
}

// UserStats aggregates over one owner's games.
func (r *MockGameRepository) UserStats(email string) (*models.StatsSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return summarize(r.collect(matchOwner(email))), nil
}
