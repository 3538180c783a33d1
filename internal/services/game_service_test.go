package services_test

import (
	"errors"
	"strings"
	"testing"

	"gametracker/internal/apperror"
	"gametracker/internal/models"
	"gametracker/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockGameRepository is a mock implementation of repositories.GameRepository
type MockGameRepository struct {
	mock.Mock
}

func (m *MockGameRepository) GetPopular(page, limit int) (*models.PaginatedGames, error) {
	args := m.Called(page, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaginatedGames), args.Error(1)
}

func (m *MockGameRepository) GetRecent(page, limit int) (*models.PaginatedGames, error) {
	args := m.Called(page, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaginatedGames), args.Error(1)
}

func (m *MockGameRepository) SearchByTitle(title string, page, limit int) (*models.PaginatedGames, error) {
	args := m.Called(title, page, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaginatedGames), args.Error(1)
}

func (m *MockGameRepository) SearchByUser(email string, page, limit int) (*models.PaginatedGames, error) {
	args := m.Called(email, page, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaginatedGames), args.Error(1)
}

func (m *MockGameRepository) GetUserGames(email string, filter models.GameFilter, page, limit int) (*models.PaginatedGames, error) {
	args := m.Called(email, filter, page, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaginatedGames), args.Error(1)
}

func (m *MockGameRepository) GetByID(id int) (*models.Game, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Game), args.Error(1)
}

func (m *MockGameRepository) Create(game *models.Game) error {
	args := m.Called(game)
	return args.Error(0)
}

func (m *MockGameRepository) Update(id int, updates map[string]interface{}) (*models.Game, error) {
	args := m.Called(id, updates)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Game), args.Error(1)
}

func (m *MockGameRepository) Delete(id int, email string) error {
	args := m.Called(id, email)
	return args.Error(0)
}

func (m *MockGameRepository) GlobalStats() (*models.StatsSummary, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.StatsSummary), args.Error(1)
}

func (m *MockGameRepository) UserStats(email string) (*models.StatsSummary, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.StatsSummary), args.Error(1)
}

func emptyPage() *models.PaginatedGames {
	return &models.PaginatedGames{Results: []models.Game{}, Total: 0}
}

func TestGameService_GetPopularGames_ClampsPagination(t *testing.T) {
	mockRepo := new(MockGameRepository)
	service := services.NewGameService(mockRepo, nil)

	// Garbage pagination is clamped to defaults, not rejected.
	mockRepo.On("GetPopular", 1, 10).Return(emptyPage(), nil).Once()
	_, err := service.GetPopularGames(-3, 1000)
	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)

	// Valid values pass through untouched.
	mockRepo.On("GetPopular", 2, 25).Return(emptyPage(), nil).Once()
	_, err = service.GetPopularGames(2, 25)
	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestGameService_SearchGamesByTitle(t *testing.T) {
	mockRepo := new(MockGameRepository)
	service := services.NewGameService(mockRepo, nil)

	// Empty title is a validation error and never reaches the repository.
	_, err := service.SearchGamesByTitle("   ", 1, 10)
	assert.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrValidation))
	mockRepo.AssertNotCalled(t, "SearchByTitle", mock.Anything, mock.Anything, mock.Anything)

	// The search term is trimmed before it reaches the repository.
	mockRepo.On("SearchByTitle", "celeste", 1, 10).Return(emptyPage(), nil).Once()
	_, err = service.SearchGamesByTitle("  celeste  ", 1, 10)
	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestGameService_SearchGamesByUser_EmptyEmailShortCircuits(t *testing.T) {
	mockRepo := new(MockGameRepository)
	service := services.NewGameService(mockRepo, nil)

	result, err := service.SearchGamesByUser("  ", 1, 10)
	assert.NoError(t, err)
	assert.Empty(t, result.Results)
	assert.EqualValues(t, 0, result.Total)
	mockRepo.AssertNotCalled(t, "SearchByUser", mock.Anything, mock.Anything, mock.Anything)
}

func TestGameService_GetUserGames_RequiresEmail(t *testing.T) {
	mockRepo := new(MockGameRepository)
	service := services.NewGameService(mockRepo, nil)

	_, err := service.GetUserGames("", models.GameFilter{}, 1, 10)
	assert.True(t, errors.Is(err, apperror.ErrValidation))

	filter := models.GameFilter{Field: models.SearchRating, Value: "9"}
	mockRepo.On("GetUserGames", "a@x.com", filter, 1, 10).Return(emptyPage(), nil).Once()
	_, err = service.GetUserGames(" a@x.com ", filter, 0, 0)
	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestGameService_CreateGame(t *testing.T) {
	mockRepo := new(MockGameRepository)
	service := services.NewGameService(mockRepo, nil)

	// Successful creation trims title and email before the insert.
	mockRepo.On("Create", mock.MatchedBy(func(g *models.Game) bool {
		return g.Title == "Celeste" && g.Email == "a@x.com"
	})).Return(nil).Once()

	created, err := service.CreateGame(&models.Game{
		Title:     "  Celeste  ",
		Rating:    9,
		TimeSpent: 12,
		Email:     " a@x.com ",
	})
	assert.NoError(t, err)
	assert.Equal(t, "Celeste", created.Title)
	mockRepo.AssertExpectations(t)

	// Field rules: each failure is a validation error and nothing is saved.
	cases := []models.Game{
		{Title: "", Rating: 5, TimeSpent: 1, Email: "a@x.com"},
		{Title: "Celeste", Rating: 11, TimeSpent: 1, Email: "a@x.com"},
		{Title: "Celeste", Rating: -1, TimeSpent: 1, Email: "a@x.com"},
		{Title: "Celeste", Rating: 5, TimeSpent: -2, Email: "a@x.com"},
		{Title: "Celeste", Rating: 5, TimeSpent: 1, Email: ""},
	}
	for i := range cases {
		_, err := service.CreateGame(&cases[i])
		assert.True(t, errors.Is(err, apperror.ErrValidation), "case %d", i)
	}
	mockRepo.AssertNumberOfCalls(t, "Create", 1)
}

func TestGameService_CreateGame_TitleLengthCountsRunes(t *testing.T) {
	mockRepo := new(MockGameRepository)
	service := services.NewGameService(mockRepo, nil)

	// 60 CJK characters is 180 bytes but well within the 100-character cap.
	multibyte := strings.Repeat("遊", 60)
	mockRepo.On("Create", mock.Anything).Return(nil).Once()
	created, err := service.CreateGame(&models.Game{
		Title: multibyte, Rating: 8, TimeSpent: 3, Email: "a@x.com",
	})
	assert.NoError(t, err)
	assert.Equal(t, multibyte, created.Title)

	// 101 characters is over the cap regardless of byte length.
	_, err = service.CreateGame(&models.Game{
		Title: strings.Repeat("a", 101), Rating: 8, TimeSpent: 3, Email: "a@x.com",
	})
	assert.True(t, errors.Is(err, apperror.ErrValidation))
	mockRepo.AssertNumberOfCalls(t, "Create", 1)
}

func TestGameService_UpdateGame_Ownership(t *testing.T) {
	mockRepo := new(MockGameRepository)
	service := services.NewGameService(mockRepo, nil)

	stored := &models.Game{ID: 1, Title: "Celeste", Rating: 9, TimeSpent: 12, Email: "a@x.com"}

	// A foreign identity is rejected before any write happens.
	mockRepo.On("GetByID", 1).Return(stored, nil).Once()
	_, err := service.UpdateGame(1, map[string]interface{}{"rating": 10.0}, "b@x.com")
	assert.True(t, errors.Is(err, apperror.ErrUnauthorized))
	mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)

	// The owner may patch; immutable columns are stripped from the patch.
	mockRepo.On("GetByID", 1).Return(stored, nil).Once()
	mockRepo.On("Update", 1, map[string]interface{}{"rating": 10.0}).
		Return(&models.Game{ID: 1, Title: "Celeste", Rating: 10, TimeSpent: 12, Email: "a@x.com"}, nil).Once()
	updated, err := service.UpdateGame(1, map[string]interface{}{
		"rating": 10.0,
		"email":  "evil@x.com",
		"id":     99,
	}, "a@x.com")
	assert.NoError(t, err)
	assert.Equal(t, 10.0, updated.Rating)
	mockRepo.AssertExpectations(t)

	// Missing record propagates NotFound.
	mockRepo.On("GetByID", 2).Return(nil, apperror.NotFound("game", "2")).Once()
	_, err = service.UpdateGame(2, map[string]interface{}{"rating": 5.0}, "a@x.com")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
	mockRepo.AssertExpectations(t)
}

func TestGameService_UpdateGame_Validation(t *testing.T) {
	mockRepo := new(MockGameRepository)
	service := services.NewGameService(mockRepo, nil)

	stored := &models.Game{ID: 1, Title: "Celeste", Rating: 9, TimeSpent: 12, Email: "a@x.com"}
	mockRepo.On("GetByID", 1).Return(stored, nil)

	_, err := service.UpdateGame(1, map[string]interface{}{"rating": 11.0}, "a@x.com")
	assert.True(t, errors.Is(err, apperror.ErrValidation))

	_, err = service.UpdateGame(1, map[string]interface{}{"title": "  "}, "a@x.com")
	assert.True(t, errors.Is(err, apperror.ErrValidation))

	_, err = service.UpdateGame(1, map[string]interface{}{"timespent": -1.0}, "a@x.com")
	assert.True(t, errors.Is(err, apperror.ErrValidation))

	// A patch that strips down to nothing is also rejected.
	_, err = service.UpdateGame(1, map[string]interface{}{"email": "evil@x.com"}, "a@x.com")
	assert.True(t, errors.Is(err, apperror.ErrValidation))

	// Mistyped values surface as validation errors, not panics.
	_, err = service.UpdateGame(1, map[string]interface{}{"rating": "high"}, "a@x.com")
	assert.True(t, errors.Is(err, apperror.ErrValidation))
	_, err = service.UpdateGame(1, map[string]interface{}{"title": 42}, "a@x.com")
	assert.True(t, errors.Is(err, apperror.ErrValidation))
	_, err = service.UpdateGame(1, map[string]interface{}{"timespent": "lots"}, "a@x.com")
	assert.True(t, errors.Is(err, apperror.ErrValidation))
	_, err = service.UpdateGame(1, map[string]interface{}{"image_path": 7}, "a@x.com")
	assert.True(t, errors.Is(err, apperror.ErrValidation))

	// Multibyte titles are counted in characters, not bytes.
	multibyte := strings.Repeat("遊", 60)
	mockRepo.On("Update", 1, map[string]interface{}{"title": multibyte}).
		Return(&models.Game{ID: 1, Title: multibyte, Rating: 9, TimeSpent: 12, Email: "a@x.com"}, nil).Once()
	_, err = service.UpdateGame(1, map[string]interface{}{"title": multibyte}, "a@x.com")
	assert.NoError(t, err)

	mockRepo.AssertNumberOfCalls(t, "Update", 1)
}

func TestGameService_DeleteGame(t *testing.T) {
	mockRepo := new(MockGameRepository)
	service := services.NewGameService(mockRepo, nil)

	stored := &models.Game{ID: 1, Title: "Celeste", Rating: 9, TimeSpent: 12, Email: "a@x.com"}

	mockRepo.On("GetByID", 1).Return(stored, nil).Once()
	err := service.DeleteGame(1, "b@x.com")
	assert.True(t, errors.Is(err, apperror.ErrUnauthorized))
	mockRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)

	mockRepo.On("GetByID", 1).Return(stored, nil).Once()
	mockRepo.On("Delete", 1, "a@x.com").Return(nil).Once()
	assert.NoError(t, service.DeleteGame(1, " a@x.com "))
	mockRepo.AssertExpectations(t)
}

func TestGameService_GetGameByID(t *testing.T) {
	mockRepo := new(MockGameRepository)
	service := services.NewGameService(mockRepo, nil)

	stored := &models.Game{ID: 1, Title: "Celeste", Rating: 9, TimeSpent: 12, Email: "a@x.com"}
	mockRepo.On("GetByID", 1).Return(stored, nil)

	// Public read: no claimed identity, no ownership check.
	game, err := service.GetGameByID(1, "")
	assert.NoError(t, err)
	assert.Equal(t, stored, game)

	// A claimed identity must match the owner.
	_, err = service.GetGameByID(1, "b@x.com")
	assert.True(t, errors.Is(err, apperror.ErrUnauthorized))

	game, err = service.GetGameByID(1, "a@x.com")
	assert.NoError(t, err)
	assert.Equal(t, "Celeste", game.Title)
}

func TestGameService_Stats(t *testing.T) {
	mockRepo := new(MockGameRepository)
	service := services.NewGameService(mockRepo, nil)

	_, err := service.GetUserStats("  ")
	assert.True(t, errors.Is(err, apperror.ErrValidation))
	mockRepo.AssertNotCalled(t, "UserStats", mock.Anything)

	summary := &models.StatsSummary{TotalGames: 2, TotalTime: 40, AvgRating: 7, AvgTime: 20}
	mockRepo.On("UserStats", "a@x.com").Return(summary, nil).Once()
	stats, err := service.GetUserStats(" a@x.com ")
	assert.NoError(t, err)
	assert.Equal(t, summary, stats)

	mockRepo.On("GlobalStats").Return(&models.StatsSummary{}, nil).Once()
	global, err := service.GetGlobalStats()
	assert.NoError(t, err)
	assert.EqualValues(t, 0, global.TotalGames)
	mockRepo.AssertExpectations(t)
}
