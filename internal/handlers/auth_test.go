package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Kavicki-com/gymapp/internal/auth"
	"github.com/Kavicki-com/gymapp/internal/db"
	"github.com/Kavicki-com/gymapp/internal/middleware"
	"github.com/Kavicki-com/gymapp/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MockUserCollection is a mock implementation of UserCollection
type MockUserCollection struct {
	mock.Mock
}

func (m *MockUserCollection) InsertUser(ctx context.Context, user models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserCollection) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserCollection) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserCollection) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserCollection) FindUsersByOwner(ctx context.Context, ownerID string) ([]models.User, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserCollection) UpdateUser(ctx context.Context, id string, user models.User) error {
	args := m.Called(ctx, id, user)
	return args.Error(0)
}

func (m *MockUserCollection) DeleteUser(ctx context.Context, ownerID, id string) error {
	args := m.Called(ctx, ownerID, id)
	return args.Error(0)
}

func (m *MockUserCollection) UpdateLastLogin(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserCollection) SetRefreshToken(ctx context.Context, id, hash string, expiresAt time.Time) error {
	args := m.Called(ctx, id, hash, expiresAt)
	return args.Error(0)
}

func (m *MockUserCollection) FindUserByRefreshToken(ctx context.Context, hash string) (*models.User, error) {
	args := m.Called(ctx, hash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func newTestAuthService(t *testing.T) *auth.Service {
	t.Helper()
	service, err := auth.NewService("test-secret", time.Hour)
	require.NoError(t, err)
	return service
}

func jsonBody(t *testing.T, v interface{}) *bytes.Buffer {
	t.Helper()
	body, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(body)
}

func withClaims(req *http.Request, claims *models.Claims) *http.Request {
	return req.WithContext(middleware.ContextWithUser(req.Context(), claims))
}

func TestAuthHandler_Login(t *testing.T) {
	authService := newTestAuthService(t)
	passwordHash, err := authService.HashPassword("password123")
	require.NoError(t, err)

	newUser := func(active bool) *models.User {
		id := primitive.NewObjectID()
		return &models.User{
			ID:           id,
			OwnerID:      id.Hex(),
			Username:     "testuser",
			Email:        "test@example.com",
			PasswordHash: passwordHash,
			Role:         models.RoleAdmin,
			IsActive:     active,
		}
	}

	t.Run("successful login", func(t *testing.T) {
		mockUserCollection := new(MockUserCollection)
		handler := NewAuthHandler(authService, mockUserCollection)
		user := newUser(true)

		mockUserCollection.On("FindUserByUsername", mock.Anything, "testuser").Return(user, nil)
		mockUserCollection.On("UpdateLastLogin", mock.Anything, user.ID.Hex()).Return(nil)
		mockUserCollection.On("SetRefreshToken", mock.Anything, user.ID.Hex(), mock.Anything, mock.Anything).Return(nil)

		req := httptest.NewRequest("POST", "/api/auth/login", jsonBody(t, models.LoginRequest{
			Username: "testuser",
			Password: "password123",
		}))
		w := httptest.NewRecorder()
		handler.Login(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response models.LoginResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.NotEmpty(t, response.Token)
		assert.NotEmpty(t, response.RefreshToken)
		assert.Equal(t, user.Username, response.User.Username)

		claims, err := authService.ValidateToken(response.Token)
		require.NoError(t, err)
		assert.Equal(t, user.ID.Hex(), claims.OwnerID)

		mockUserCollection.AssertExpectations(t)
	})

	t.Run("last login failure does not block login", func(t *testing.T) {
		mockUserCollection := new(MockUserCollection)
		handler := NewAuthHandler(authService, mockUserCollection)
		user := newUser(true)

		mockUserCollection.On("FindUserByUsername", mock.Anything, "testuser").Return(user, nil)
		mockUserCollection.On("UpdateLastLogin", mock.Anything, user.ID.Hex()).Return(errors.New("write failed"))
		mockUserCollection.On("SetRefreshToken", mock.Anything, user.ID.Hex(), mock.Anything, mock.Anything).Return(nil)

		req := httptest.NewRequest("POST", "/api/auth/login", jsonBody(t, models.LoginRequest{
			Username: "testuser",
			Password: "password123",
		}))
		w := httptest.NewRecorder()
		handler.Login(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("invalid credentials", func(t *testing.T) {
		mockUserCollection := new(MockUserCollection)
		handler := NewAuthHandler(authService, mockUserCollection)

		mockUserCollection.On("FindUserByUsername", mock.Anything, "testuser").Return(newUser(true), nil)

		req := httptest.NewRequest("POST", "/api/auth/login", jsonBody(t, models.LoginRequest{
			Username: "testuser",
			Password: "wrongpassword",
		}))
		w := httptest.NewRecorder()
		handler.Login(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		mockUserCollection.AssertNotCalled(t, "UpdateLastLogin", mock.Anything, mock.Anything)
	})

	t.Run("unknown user", func(t *testing.T) {
		mockUserCollection := new(MockUserCollection)
		handler := NewAuthHandler(authService, mockUserCollection)

		mockUserCollection.On("FindUserByUsername", mock.Anything, "nobody").Return(nil, db.ErrNotFound)

		req := httptest.NewRequest("POST", "/api/auth/login", jsonBody(t, models.LoginRequest{
			Username: "nobody",
			Password: "password123",
		}))
		w := httptest.NewRecorder()
		handler.Login(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("deactivated account", func(t *testing.T) {
		mockUserCollection := new(MockUserCollection)
		handler := NewAuthHandler(authService, mockUserCollection)

		mockUserCollection.On("FindUserByUsername", mock.Anything, "testuser").Return(newUser(false), nil)

		req := httptest.NewRequest("POST", "/api/auth/login", jsonBody(t, models.LoginRequest{
			Username: "testuser",
			Password: "password123",
		}))
		w := httptest.NewRecorder()
		handler.Login(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("missing fields", func(t *testing.T) {
		handler := NewAuthHandler(authService, new(MockUserCollection))

		req := httptest.NewRequest("POST", "/api/auth/login", jsonBody(t, models.LoginRequest{Username: "testuser"}))
		w := httptest.NewRecorder()
		handler.Login(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		handler := NewAuthHandler(authService, new(MockUserCollection))

		req := httptest.NewRequest("POST", "/api/auth/login", bytes.NewBufferString("{"))
		w := httptest.NewRecorder()
		handler.Login(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("wrong method", func(t *testing.T) {
		handler := NewAuthHandler(authService, new(MockUserCollection))

		req := httptest.NewRequest("GET", "/api/auth/login", nil)
		w := httptest.NewRecorder()
		handler.Login(w, req)

		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})
}

func TestAuthHandler_Refresh(t *testing.T) {
	authService := newTestAuthService(t)
	const refreshToken = "stored-refresh-token"
	hash := authService.HashRefreshToken(refreshToken)

	newUser := func(expiresIn time.Duration, active bool) *models.User {
		id := primitive.NewObjectID()
		expiresAt := time.Now().Add(expiresIn)
		return &models.User{
			ID:               id,
			OwnerID:          id.Hex(),
			Username:         "testuser",
			Role:             models.RoleManager,
			IsActive:         active,
			RefreshTokenHash: hash,
			RefreshExpiresAt: &expiresAt,
		}
	}
	refresh := func(handler *AuthHandler, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("POST", "/api/auth/refresh", jsonBody(t, models.RefreshRequest{RefreshToken: token}))
		w := httptest.NewRecorder()
		handler.Refresh(w, req)
		return w
	}

	t.Run("rotates the token pair", func(t *testing.T) {
		mockUserCollection := new(MockUserCollection)
		handler := NewAuthHandler(authService, mockUserCollection)
		user := newUser(time.Hour, true)

		mockUserCollection.On("FindUserByRefreshToken", mock.Anything, hash).Return(user, nil)
		mockUserCollection.On("SetRefreshToken", mock.Anything, user.ID.Hex(), mock.MatchedBy(func(h string) bool {
			return h != hash && len(h) == 64
		}), mock.MatchedBy(func(at time.Time) bool {
			return at.After(time.Now().Add(auth.RefreshTokenTTL - time.Minute))
		})).Return(nil)

		w := refresh(handler, refreshToken)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var response models.LoginResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.NotEqual(t, refreshToken, response.RefreshToken)
		assert.NotContains(t, w.Body.String(), hash)
		claims, err := authService.ValidateToken(response.Token)
		require.NoError(t, err)
		assert.Equal(t, user.OwnerID, claims.OwnerID)
		assert.Equal(t, models.RoleManager, claims.Role)

		mockUserCollection.AssertExpectations(t)
	})

	t.Run("unknown token", func(t *testing.T) {
		mockUserCollection := new(MockUserCollection)
		mockUserCollection.On("FindUserByRefreshToken", mock.Anything, mock.Anything).Return(nil, db.ErrNotFound)

		w := refresh(NewAuthHandler(authService, mockUserCollection), "forged")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		mockUserCollection.AssertNotCalled(t, "SetRefreshToken", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("expired token", func(t *testing.T) {
		mockUserCollection := new(MockUserCollection)
		mockUserCollection.On("FindUserByRefreshToken", mock.Anything, hash).Return(newUser(-time.Minute, true), nil)

		w := refresh(NewAuthHandler(authService, mockUserCollection), refreshToken)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "expired")
	})

	t.Run("deactivated account", func(t *testing.T) {
		mockUserCollection := new(MockUserCollection)
		mockUserCollection.On("FindUserByRefreshToken", mock.Anything, hash).Return(newUser(time.Hour, false), nil)

		w := refresh(NewAuthHandler(authService, mockUserCollection), refreshToken)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("lookup failure", func(t *testing.T) {
		mockUserCollection := new(MockUserCollection)
		mockUserCollection.On("FindUserByRefreshToken", mock.Anything, hash).Return(nil, errors.New("timeout"))

		w := refresh(NewAuthHandler(authService, mockUserCollection), refreshToken)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("missing token", func(t *testing.T) {
		w := refresh(NewAuthHandler(authService, new(MockUserCollection)), "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAuthHandler_LoginFailsWhenRefreshTokenCannotBeStored(t *testing.T) {
	authService := newTestAuthService(t)
	passwordHash, err := authService.HashPassword("password123")
	require.NoError(t, err)
	id := primitive.NewObjectID()
	user := &models.User{ID: id, OwnerID: id.Hex(), Username: "testuser", PasswordHash: passwordHash, Role: models.RoleAdmin, IsActive: true}

	mockUserCollection := new(MockUserCollection)
	mockUserCollection.On("FindUserByUsername", mock.Anything, "testuser").Return(user, nil)
	mockUserCollection.On("UpdateLastLogin", mock.Anything, id.Hex()).Return(nil)
	mockUserCollection.On("SetRefreshToken", mock.Anything, id.Hex(), mock.Anything, mock.Anything).Return(errors.New("write failed"))

	req := httptest.NewRequest("POST", "/api/auth/login", jsonBody(t, models.LoginRequest{Username: "testuser", Password: "password123"}))
	w := httptest.NewRecorder()
	NewAuthHandler(authService, mockUserCollection).Login(w, req)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestAuthHandler_Register(t *testing.T) {
	authService := newTestAuthService(t)

	registerReq := models.RegisterRequest{
		Username:  "newowner",
		Email:     "owner@example.com",
		Password:  "password123",
		FirstName: "Ana",
		LastName:  "Souza",
		GymName:   "Academia Central",
		Role:      models.RoleReceptionist,
	}

	t.Run("successful registration creates an owner admin", func(t *testing.T) {
		mockUserCollection := new(MockUserCollection)
		handler := NewAuthHandler(authService, mockUserCollection)

		mockUserCollection.On("FindUserByUsername", mock.Anything, "newowner").Return(nil, db.ErrNotFound)
		mockUserCollection.On("FindUserByEmail", mock.Anything, "owner@example.com").Return(nil, db.ErrNotFound)
		mockUserCollection.On("InsertUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
			return u.Role == models.RoleAdmin && u.OwnerID == u.ID.Hex() && u.GymName == "Academia Central"
		})).Return(nil)
		mockUserCollection.On("SetRefreshToken", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

		req := httptest.NewRequest("POST", "/api/auth/register", jsonBody(t, registerReq))
		w := httptest.NewRecorder()
		handler.Register(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)

		var response models.LoginResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, models.RoleAdmin, response.User.Role)
		assert.Equal(t, response.User.ID.Hex(), response.User.OwnerID)
		assert.NotEmpty(t, response.Token)

		mockUserCollection.AssertExpectations(t)
	})

	t.Run("username already exists", func(t *testing.T) {
		mockUserCollection := new(MockUserCollection)
		handler := NewAuthHandler(authService, mockUserCollection)

		mockUserCollection.On("FindUserByUsername", mock.Anything, "newowner").Return(&models.User{Username: "newowner"}, nil)

		req := httptest.NewRequest("POST", "/api/auth/register", jsonBody(t, registerReq))
		w := httptest.NewRecorder()
		handler.Register(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
		mockUserCollection.AssertNotCalled(t, "InsertUser", mock.Anything, mock.Anything)
	})

	t.Run("email already exists", func(t *testing.T) {
		mockUserCollection := new(MockUserCollection)
		handler := NewAuthHandler(authService, mockUserCollection)

		mockUserCollection.On("FindUserByUsername", mock.Anything, "newowner").Return(nil, db.ErrNotFound)
		mockUserCollection.On("FindUserByEmail", mock.Anything, "owner@example.com").Return(&models.User{Email: "owner@example.com"}, nil)

		req := httptest.NewRequest("POST", "/api/auth/register", jsonBody(t, registerReq))
		w := httptest.NewRecorder()
		handler.Register(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("lookup failure", func(t *testing.T) {
		mockUserCollection := new(MockUserCollection)
		handler := NewAuthHandler(authService, mockUserCollection)

		mockUserCollection.On("FindUserByUsername", mock.Anything, "newowner").Return(nil, errors.New("connection reset"))

		req := httptest.NewRequest("POST", "/api/auth/register", jsonBody(t, registerReq))
		w := httptest.NewRecorder()
		handler.Register(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("invalid input", func(t *testing.T) {
		handler := NewAuthHandler(authService, new(MockUserCollection))

		for name, mutate := range map[string]func(*models.RegisterRequest){
			"short username": func(r *models.RegisterRequest) { r.Username = "ab" },
			"bad email":      func(r *models.RegisterRequest) { r.Email = "not-an-email" },
			"short password": func(r *models.RegisterRequest) { r.Password = "123" },
		} {
			t.Run(name, func(t *testing.T) {
				bad := registerReq
				mutate(&bad)
				req := httptest.NewRequest("POST", "/api/auth/register", jsonBody(t, bad))
				w := httptest.NewRecorder()
				handler.Register(w, req)
				assert.Equal(t, http.StatusBadRequest, w.Code)
			})
		}
	})
}

func TestAuthHandler_Staff(t *testing.T) {
	authService := newTestAuthService(t)
	ownerID := primitive.NewObjectID().Hex()
	owner := &models.Claims{UserID: ownerID, OwnerID: ownerID, Username: "owner", Role: models.RoleAdmin}

	t.Run("create staff under the owner's gym", func(t *testing.T) {
		mockUserCollection := new(MockUserCollection)
		handler := NewAuthHandler(authService, mockUserCollection)

		mockUserCollection.On("FindUserByUsername", mock.Anything, "recep").Return(nil, db.ErrNotFound)
		mockUserCollection.On("FindUserByEmail", mock.Anything, "recep@example.com").Return(nil, db.ErrNotFound)
		mockUserCollection.On("InsertUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
			return u.OwnerID == ownerID && u.Role == models.RoleReceptionist && u.OwnerID != u.ID.Hex()
		})).Return(nil)

		req := httptest.NewRequest("POST", "/api/staff", jsonBody(t, models.RegisterRequest{
			Username: "recep",
			Email:    "recep@example.com",
			Password: "password123",
			Role:     models.RoleReceptionist,
		}))
		w := httptest.NewRecorder()
		handler.CreateStaff(w, withClaims(req, owner))

		assert.Equal(t, http.StatusCreated, w.Code)
		mockUserCollection.AssertExpectations(t)
	})

	t.Run("staff cannot be admin", func(t *testing.T) {
		handler := NewAuthHandler(authService, new(MockUserCollection))

		req := httptest.NewRequest("POST", "/api/staff", jsonBody(t, models.RegisterRequest{
			Username: "boss2",
			Email:    "boss2@example.com",
			Password: "password123",
			Role:     models.RoleAdmin,
		}))
		w := httptest.NewRecorder()
		handler.CreateStaff(w, withClaims(req, owner))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("invalid role", func(t *testing.T) {
		handler := NewAuthHandler(authService, new(MockUserCollection))

		req := httptest.NewRequest("POST", "/api/staff", jsonBody(t, models.RegisterRequest{
			Username: "janitor",
			Email:    "janitor@example.com",
			Password: "password123",
			Role:     "janitor",
		}))
		w := httptest.NewRecorder()
		handler.CreateStaff(w, withClaims(req, owner))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("list staff", func(t *testing.T) {
		mockUserCollection := new(MockUserCollection)
		handler := NewAuthHandler(authService, mockUserCollection)

		mockUserCollection.On("FindUsersByOwner", mock.Anything, ownerID).Return([]models.User{
			{Username: "owner"}, {Username: "recep"},
		}, nil)

		req := httptest.NewRequest("GET", "/api/staff", nil)
		w := httptest.NewRecorder()
		handler.ListStaff(w, withClaims(req, owner))

		assert.Equal(t, http.StatusOK, w.Code)
		var users []models.User
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &users))
		assert.Len(t, users, 2)
	})

	t.Run("delete staff", func(t *testing.T) {
		mockUserCollection := new(MockUserCollection)
		handler := NewAuthHandler(authService, mockUserCollection)
		staffID := primitive.NewObjectID().Hex()

		mockUserCollection.On("DeleteUser", mock.Anything, ownerID, staffID).Return(nil)

		req := httptest.NewRequest("DELETE", "/api/staff/"+staffID, nil)
		req.SetPathValue("id", staffID)
		w := httptest.NewRecorder()
		handler.DeleteStaff(w, withClaims(req, owner))

		assert.Equal(t, http.StatusNoContent, w.Code)
		mockUserCollection.AssertExpectations(t)
	})

	t.Run("delete unknown staff", func(t *testing.T) {
		mockUserCollection := new(MockUserCollection)
		handler := NewAuthHandler(authService, mockUserCollection)
		staffID := primitive.NewObjectID().Hex()

		mockUserCollection.On("DeleteUser", mock.Anything, ownerID, staffID).Return(db.ErrNotFound)

		req := httptest.NewRequest("DELETE", "/api/staff/"+staffID, nil)
		req.SetPathValue("id", staffID)
		w := httptest.NewRecorder()
		handler.DeleteStaff(w, withClaims(req, owner))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("owner cannot delete itself", func(t *testing.T) {
		handler := NewAuthHandler(authService, new(MockUserCollection))

		req := httptest.NewRequest("DELETE", "/api/staff/"+ownerID, nil)
		req.SetPathValue("id", ownerID)
		w := httptest.NewRecorder()
		handler.DeleteStaff(w, withClaims(req, owner))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAuthHandler_GetProfile(t *testing.T) {
	authService := newTestAuthService(t)

	t.Run("successful get profile", func(t *testing.T) {
		mockUserCollection := new(MockUserCollection)
		handler := NewAuthHandler(authService, mockUserCollection)

		userID := primitive.NewObjectID()
		user := &models.User{
			ID:       userID,
			OwnerID:  userID.Hex(),
			Username: "testuser",
			Email:    "test@example.com",
			Role:     models.RoleAdmin,
			GymName:  "Academia Central",
		}
		mockUserCollection.On("FindUserByID", mock.Anything, userID.Hex()).Return(user, nil)

		req := httptest.NewRequest("GET", "/api/auth/profile", nil)
		req = withClaims(req, &models.Claims{UserID: userID.Hex(), OwnerID: userID.Hex(), Username: "testuser", Role: models.RoleAdmin})
		w := httptest.NewRecorder()
		handler.GetProfile(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response models.User
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, user.Username, response.Username)
		assert.Equal(t, user.GymName, response.GymName)
		assert.NotContains(t, w.Body.String(), "password_hash")
	})

	t.Run("no user context", func(t *testing.T) {
		handler := NewAuthHandler(authService, new(MockUserCollection))

		req := httptest.NewRequest("GET", "/api/auth/profile", nil)
		w := httptest.NewRecorder()
		handler.GetProfile(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestAuthHandler_UpdateProfile(t *testing.T) {
	authService := newTestAuthService(t)

	t.Run("successful update", func(t *testing.T) {
		mockUserCollection := new(MockUserCollection)
		handler := NewAuthHandler(authService, mockUserCollection)

		userID := primitive.NewObjectID()
		user := &models.User{
			ID:        userID,
			OwnerID:   userID.Hex(),
			Username:  "testuser",
			Email:     "test@example.com",
			FirstName: "Old",
			GymName:   "Old Gym",
		}
		mockUserCollection.On("FindUserByID", mock.Anything, userID.Hex()).Return(user, nil)
		mockUserCollection.On("FindUserByEmail", mock.Anything, "new@example.com").Return(nil, db.ErrNotFound)
		mockUserCollection.On("UpdateUser", mock.Anything, userID.Hex(), mock.MatchedBy(func(u models.User) bool {
			return u.FirstName == "New" && u.Email == "new@example.com" && u.GymName == "New Gym"
		})).Return(nil)

		req := httptest.NewRequest("PUT", "/api/auth/profile", jsonBody(t, map[string]string{
			"first_name": "New",
			"email":      "new@example.com",
			"gym_name":   "New Gym",
		}))
		req = withClaims(req, &models.Claims{UserID: userID.Hex(), OwnerID: userID.Hex()})
		w := httptest.NewRecorder()
		handler.UpdateProfile(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		mockUserCollection.AssertExpectations(t)
	})

	t.Run("email taken by another user", func(t *testing.T) {
		mockUserCollection := new(MockUserCollection)
		handler := NewAuthHandler(authService, mockUserCollection)

		userID := primitive.NewObjectID()
		mockUserCollection.On("FindUserByID", mock.Anything, userID.Hex()).Return(&models.User{ID: userID}, nil)
		mockUserCollection.On("FindUserByEmail", mock.Anything, "taken@example.com").Return(&models.User{ID: primitive.NewObjectID()}, nil)

		req := httptest.NewRequest("PUT", "/api/auth/profile", jsonBody(t, map[string]string{"email": "taken@example.com"}))
		req = withClaims(req, &models.Claims{UserID: userID.Hex(), OwnerID: userID.Hex()})
		w := httptest.NewRecorder()
		handler.UpdateProfile(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestAuthHandler_ChangePassword(t *testing.T) {
	authService := newTestAuthService(t)
	currentHash, err := authService.HashPassword("oldpassword")
	require.NoError(t, err)

	t.Run("successful password change", func(t *testing.T) {
		mockUserCollection := new(MockUserCollection)
		handler := NewAuthHandler(authService, mockUserCollection)

		userID := primitive.NewObjectID()
		mockUserCollection.On("FindUserByID", mock.Anything, userID.Hex()).Return(&models.User{ID: userID, PasswordHash: currentHash}, nil)
		mockUserCollection.On("UpdateUser", mock.Anything, userID.Hex(), mock.MatchedBy(func(u models.User) bool {
			return authService.CheckPassword("newpassword123", u.PasswordHash)
		})).Return(nil)

		req := httptest.NewRequest("POST", "/api/auth/change-password", jsonBody(t, map[string]string{
			"current_password": "oldpassword",
			"new_password":     "newpassword123",
		}))
		req = withClaims(req, &models.Claims{UserID: userID.Hex(), OwnerID: userID.Hex()})
		w := httptest.NewRecorder()
		handler.ChangePassword(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		mockUserCollection.AssertExpectations(t)
	})

	t.Run("wrong current password", func(t *testing.T) {
		mockUserCollection := new(MockUserCollection)
		handler := NewAuthHandler(authService, mockUserCollection)

		userID := primitive.NewObjectID()
		mockUserCollection.On("FindUserByID", mock.Anything, userID.Hex()).Return(&models.User{ID: userID, PasswordHash: currentHash}, nil)

		req := httptest.NewRequest("POST", "/api/auth/change-password", jsonBody(t, map[string]string{
			"current_password": "not-it",
			"new_password":     "newpassword123",
		}))
		req = withClaims(req, &models.Claims{UserID: userID.Hex(), OwnerID: userID.Hex()})
		w := httptest.NewRecorder()
		handler.ChangePassword(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		mockUserCollection.AssertNotCalled(t, "UpdateUser", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("weak new password", func(t *testing.T) {
		handler := NewAuthHandler(authService, new(MockUserCollection))

		req := httptest.NewRequest("POST", "/api/auth/change-password", jsonBody(t, map[string]string{
			"current_password": "oldpassword",
			"new_password":     "short",
		}))
		req = withClaims(req, &models.Claims{UserID: "x", OwnerID: "x"})
		w := httptest.NewRecorder()
		handler.ChangePassword(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
