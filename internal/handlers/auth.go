package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/Kavicki-com/gymapp/internal/auth"
	"github.com/Kavicki-com/gymapp/internal/db"
	"github.com/Kavicki-com/gymapp/internal/middleware"
	"github.com/Kavicki-com/gymapp/internal/models"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuthHandler handles authentication and account requests
type AuthHandler struct {
	authService    *auth.Service
	userCollection db.UserCollection
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(authService *auth.Service, userCollection db.UserCollection) *AuthHandler {
	return &AuthHandler{
		authService:    authService,
		userCollection: userCollection,
	}
}

// Login handles user login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var loginReq models.LoginRequest
	if !decodeBody(w, r, &loginReq) {
		return
	}

	// Validate input
	if loginReq.Username == "" || loginReq.Password == "" {
		http.Error(w, "Username and password are required", http.StatusBadRequest)
		return
	}

	// Find user by username
	user, err := h.userCollection.FindUserByUsername(r.Context(), loginReq.Username)
	if err != nil {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	// Check if user is active
	if !user.IsActive {
		http.Error(w, "Account is deactivated", http.StatusUnauthorized)
		return
	}

	// Verify password
	if !h.authService.CheckPassword(loginReq.Password, user.PasswordHash) {
		log.WithField("username", loginReq.Username).Info("Failed login attempt")
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	// Update last login
	if err := h.userCollection.UpdateLastLogin(r.Context(), user.ID.Hex()); err != nil {
		// Log error but don't fail the login
		log.WithError(err).WithField("user_id", user.ID.Hex()).Warn("Failed to update last login")
	}

	h.writeTokens(w, r, http.StatusOK, user)
}

// Refresh exchanges a stored refresh token for a new token pair. The used
// refresh token stops working.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req models.RefreshRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.RefreshToken == "" {
		http.Error(w, "Refresh token is required", http.StatusBadRequest)
		return
	}

	user, err := h.userCollection.FindUserByRefreshToken(r.Context(), h.authService.HashRefreshToken(req.RefreshToken))
	switch {
	case errors.Is(err, db.ErrNotFound):
		http.Error(w, "Invalid refresh token", http.StatusUnauthorized)
		return
	case err != nil:
		log.WithError(err).Error("Failed to look up refresh token")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if user.RefreshExpiresAt == nil || !time.Now().Before(*user.RefreshExpiresAt) {
		http.Error(w, "Refresh token expired", http.StatusUnauthorized)
		return
	}
	if !user.IsActive {
		http.Error(w, "Account is deactivated", http.StatusUnauthorized)
		return
	}

	h.writeTokens(w, r, http.StatusOK, user)
}

// Register creates a new gym owner account. The account becomes its own gym
// profile and always gets the admin role.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var registerReq models.RegisterRequest
	if !decodeBody(w, r, &registerReq) {
		return
	}
	registerReq.Role = models.RoleAdmin

	id := primitive.NewObjectID()
	user, ok := h.newUser(w, r, registerReq, id.Hex(), id)
	if !ok {
		return
	}
	user.GymName = registerReq.GymName

	if err := h.userCollection.InsertUser(r.Context(), *user); err != nil {
		log.WithError(err).Error("Failed to create user")
		http.Error(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	log.WithFields(log.Fields{"user_id": user.ID.Hex(), "gym_name": user.GymName}).Info("Registered gym owner")
	h.writeTokens(w, r, http.StatusCreated, user)
}

// CreateStaff creates an account working for the caller's gym profile.
func (h *AuthHandler) CreateStaff(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}

	var registerReq models.RegisterRequest
	if !decodeBody(w, r, &registerReq) {
		return
	}
	if registerReq.Role == models.RoleAdmin {
		http.Error(w, "Staff accounts cannot be admins", http.StatusBadRequest)
		return
	}

	user, ok := h.newUser(w, r, registerReq, claims.OwnerID, primitive.NewObjectID())
	if !ok {
		return
	}
	if err := h.userCollection.InsertUser(r.Context(), *user); err != nil {
		log.WithError(err).Error("Failed to create staff account")
		http.Error(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	log.WithFields(log.Fields{"user_id": user.ID.Hex(), "owner_id": claims.OwnerID, "role": user.Role}).Info("Created staff account")
	writeJSON(w, http.StatusCreated, user)
}

// ListStaff lists the accounts of the caller's gym profile.
func (h *AuthHandler) ListStaff(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}
	users, err := h.userCollection.FindUsersByOwner(r.Context(), claims.OwnerID)
	if err != nil {
		writeError(w, err, "user")
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// DeleteStaff removes a staff account of the caller's gym profile.
func (h *AuthHandler) DeleteStaff(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}
	id := r.PathValue("id")
	if id == claims.UserID || id == claims.OwnerID {
		http.Error(w, "Cannot delete the owner account", http.StatusBadRequest)
		return
	}
	if err := h.userCollection.DeleteUser(r.Context(), claims.OwnerID, id); err != nil {
		writeError(w, err, "user")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// newUser validates a registration request and builds the account. It writes
// the error response itself and returns false on failure.
func (h *AuthHandler) newUser(w http.ResponseWriter, r *http.Request, req models.RegisterRequest, ownerID string, id primitive.ObjectID) (*models.User, bool) {
	if err := h.authService.ValidateUsername(req.Username); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}
	if err := h.authService.ValidateEmail(req.Email); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}
	if err := h.authService.ValidatePassword(req.Password); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}
	if !models.IsValidRole(req.Role) {
		http.Error(w, "Invalid role", http.StatusBadRequest)
		return nil, false
	}

	// Check if username or email already exists
	if !h.available(w, r, "Username", func() error {
		_, err := h.userCollection.FindUserByUsername(r.Context(), req.Username)
		return err
	}) {
		return nil, false
	}
	if !h.available(w, r, "Email", func() error {
		_, err := h.userCollection.FindUserByEmail(r.Context(), req.Email)
		return err
	}) {
		return nil, false
	}

	passwordHash, err := h.authService.HashPassword(req.Password)
	if err != nil {
		http.Error(w, "Failed to hash password", http.StatusInternalServerError)
		return nil, false
	}

	now := time.Now()
	return &models.User{
		ID:           id,
		OwnerID:      ownerID,
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: passwordHash,
		Role:         req.Role,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, true
}

func (h *AuthHandler) available(w http.ResponseWriter, r *http.Request, what string, lookup func() error) bool {
	err := lookup()
	switch {
	case err == nil:
		http.Error(w, what+" already exists", http.StatusConflict)
		return false
	case errors.Is(err, db.ErrNotFound):
		return true
	default:
		log.WithError(err).Error("Failed to look up user")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return false
	}
}

// writeTokens issues a token pair. The new refresh token replaces any
// previous one of the user.
func (h *AuthHandler) writeTokens(w http.ResponseWriter, r *http.Request, code int, user *models.User) {
	token, err := h.authService.GenerateToken(user)
	if err != nil {
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	refreshToken, err := h.authService.GenerateRefreshToken()
	if err != nil {
		http.Error(w, "Failed to generate refresh token", http.StatusInternalServerError)
		return
	}
	hash := h.authService.HashRefreshToken(refreshToken)
	expiresAt := time.Now().Add(auth.RefreshTokenTTL)
	if err := h.userCollection.SetRefreshToken(r.Context(), user.ID.Hex(), hash, expiresAt); err != nil {
		log.WithError(err).WithField("user_id", user.ID.Hex()).Error("Failed to store refresh token")
		http.Error(w, "Failed to generate refresh token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, code, models.LoginResponse{
		Token:        token,
		RefreshToken: refreshToken,
		User:         *user,
	})
}

// GetProfile returns the current user's profile
func (h *AuthHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}

	user, err := h.userCollection.FindUserByID(r.Context(), claims.UserID)
	if err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// UpdateProfile updates the current user's profile
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}

	var updateReq struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Email     string `json:"email"`
		GymName   string `json:"gym_name"`
	}
	if !decodeBody(w, r, &updateReq) {
		return
	}

	// Get current user
	user, err := h.userCollection.FindUserByID(r.Context(), claims.UserID)
	if err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	// Update fields if provided
	if updateReq.FirstName != "" {
		user.FirstName = updateReq.FirstName
	}
	if updateReq.LastName != "" {
		user.LastName = updateReq.LastName
	}
	if updateReq.GymName != "" && user.OwnerID == user.ID.Hex() {
		user.GymName = updateReq.GymName
	}
	if updateReq.Email != "" {
		// Validate email
		if err := h.authService.ValidateEmail(updateReq.Email); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		// Check if email is already taken by another user
		existingUser, err := h.userCollection.FindUserByEmail(r.Context(), updateReq.Email)
		if err == nil && existingUser.ID.Hex() != claims.UserID {
			http.Error(w, "Email already exists", http.StatusConflict)
			return
		}
		user.Email = updateReq.Email
	}

	// Update user
	if err := h.userCollection.UpdateUser(r.Context(), claims.UserID, *user); err != nil {
		http.Error(w, "Failed to update user", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Profile updated successfully"})
}

// ChangePassword changes the current user's password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}

	var passwordReq struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if !decodeBody(w, r, &passwordReq) {
		return
	}

	if passwordReq.CurrentPassword == "" || passwordReq.NewPassword == "" {
		http.Error(w, "Current password and new password are required", http.StatusBadRequest)
		return
	}

	// Validate new password
	if err := h.authService.ValidatePassword(passwordReq.NewPassword); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Get current user
	user, err := h.userCollection.FindUserByID(r.Context(), claims.UserID)
	if err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	// Verify current password
	if !h.authService.CheckPassword(passwordReq.CurrentPassword, user.PasswordHash) {
		http.Error(w, "Current password is incorrect", http.StatusUnauthorized)
		return
	}

	// Hash new password
	newPasswordHash, err := h.authService.HashPassword(passwordReq.NewPassword)
	if err != nil {
		http.Error(w, "Failed to hash password", http.StatusInternalServerError)
		return
	}

	// Update password
	user.PasswordHash = newPasswordHash
	if err := h.userCollection.UpdateUser(r.Context(), claims.UserID, *user); err != nil {
		http.Error(w, "Failed to update password", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Password changed successfully"})
}
