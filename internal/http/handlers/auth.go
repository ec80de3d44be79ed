package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/taskhub-dev/taskhub/internal/auth"
	"github.com/taskhub-dev/taskhub/internal/config"
	"github.com/taskhub-dev/taskhub/internal/domain/user"
	"github.com/taskhub-dev/taskhub/internal/http/middlewares"
	"github.com/taskhub-dev/taskhub/internal/observability"
	"github.com/taskhub-dev/taskhub/internal/repo/postgres"
	"github.com/taskhub-dev/taskhub/internal/security"
)

type UsersStore interface {
	Create(ctx context.Context, email, passwordHash string, role user.Role) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id int64) (user.User, error)
	List(ctx context.Context) ([]user.User, error)
}

type AuthHandler struct {
	users UsersStore
	jwt   *auth.Manager
	prom  *observability.Prom
}

func NewAuthHandler(users UsersStore, jwtManager *auth.Manager, prom *observability.Prom) *AuthHandler {
	return &AuthHandler{
		users: users,
		jwt:   jwtManager,
		prom:  prom,
	}
}

func (h *AuthHandler) countAuth(op, result string) {
	if h.prom != nil {
		h.prom.CountAuth(op, result)
	}
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req user.RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// default role for new users
	role := req.Role
	if role == "" {
		role = user.RoleUser
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		h.countAuth("register", "error")
		RespondInternal(ctx, "Could not create user")
		return
	}

	u, err := h.users.Create(cctx, req.Email, hash, role)

	if err != nil {
		if errors.Is(err, postgres.ErrEmailTaken) {
			h.countAuth("register", "rejected")
			RespondBadRequest(ctx, "Email already registered")
			return
		}

		h.countAuth("register", "error")
		RespondInternal(ctx, "Could not create user")
		return
	}

	token, err := h.jwt.GenerateToken(u)

	if err != nil {
		h.countAuth("register", "error")
		RespondInternal(ctx, "Could not generate token")
		return
	}

	h.countAuth("register", "ok")

	RespondData(ctx, http.StatusCreated, "User registered successfully", gin.H{
		"user":  u,
		"token": token,
	})
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req user.LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// short timeout for DB lookup
	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	foundUser, err := h.users.GetByEmail(cctx, req.Email)
	if err != nil {
		// same response for unknown email and wrong password
		h.countAuth("login", "rejected")
		RespondUnauthorized(ctx, "Invalid email or password")
		return
	}

	err = security.CheckPassword(foundUser.PasswordHash, req.Password)

	if err != nil {
		h.countAuth("login", "rejected")
		RespondUnauthorized(ctx, "Invalid email or password")
		return
	}

	token, err := h.jwt.GenerateToken(foundUser)

	if err != nil {
		h.countAuth("login", "error")
		RespondInternal(ctx, "Could not generate token")
		return
	}

	h.countAuth("login", "ok")

	RespondData(ctx, http.StatusOK, "Login successful", gin.H{
		"user":  foundUser,
		"token": token,
	})
}

// Me returns the account behind the presented token. The account may have
// been deleted after issuance, tokens are not invalidated by deletion.
func (h *AuthHandler) Me(ctx *gin.Context) {
	claims, ok := middlewares.ClaimsFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "Missing identity context")
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	u, err := h.users.GetByID(cctx, claims.UserID)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}

		RespondInternal(ctx, "Could not fetch user")
		return
	}

	RespondData(ctx, http.StatusOK, "", gin.H{"user": u})
}

// ListUsers is admin-only; the role check happens in the router.
func (h *AuthHandler) ListUsers(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	users, err := h.users.List(cctx)

	if err != nil {
		RespondInternal(ctx, "Could not list users")
		return
	}

	RespondList(ctx, len(users), gin.H{"users": users})
}
