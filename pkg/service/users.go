package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/gemora/pkg/apperr"
	"github.com/example/gemora/pkg/audit"
	"github.com/example/gemora/pkg/auth"
	"github.com/example/gemora/pkg/metrics"
	"github.com/example/gemora/pkg/models"
	"github.com/example/gemora/pkg/repository"
	"github.com/example/gemora/pkg/storage"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const minPasswordLength = 6

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UserView struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Email        string      `json:"email"`
	Role         models.Role `json:"role"`
	ProfileImage string      `json:"profileImage,omitempty"`
}

func NewUserView(u *models.User) UserView {
	return UserView{ID: u.ID.Hex(), Name: u.Name, Email: u.Email, Role: u.Role, ProfileImage: u.ProfileImage}
}

type AuthResult struct {
	Token string   `json:"token"`
	User  UserView `json:"user"`
}

type UserService struct {
	store        repository.UserStore
	tokens       *auth.TokenManager
	cache        repository.Cache
	uploader     storage.Uploader
	folder       string
	recorder     audit.Recorder
	principalTTL time.Duration
	now          clock
	logger       *zap.Logger
}

func NewUserService(
	store repository.UserStore,
	tokens *auth.TokenManager,
	cache repository.Cache,
	uploader storage.Uploader,
	folder string,
	recorder audit.Recorder,
	principalTTL time.Duration,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		store:        store,
		tokens:       tokens,
		cache:        cache,
		uploader:     uploader,
		folder:       strings.Trim(folder, "/") + "/profiles",
		recorder:     recorder,
		principalTTL: principalTTL,
		now:          time.Now,
		logger:       logger.Named("users"),
	}
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	name := strings.TrimSpace(in.Name)
	email := models.NormalizeEmail(in.Email)
	if name == "" || email == "" || in.Password == "" {
		return nil, apperr.InvalidInput("Name, email and password are required")
	}
	if len(in.Password) < minPasswordLength {
		return nil, apperr.InvalidInput(fmt.Sprintf("Password must be at least %d characters", minPasswordLength))
	}

	if _, err := s.store.FindByEmail(ctx, email); err == nil {
		return nil, apperr.InvalidInput("Email already exists")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.Dependency("Registration failed", err)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Dependency("Registration failed", err)
	}

	now := s.now()
	user := &models.User{
		ID:           primitive.NewObjectID(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.InvalidInput("Email already exists")
		}
		return nil, apperr.Dependency("Registration failed", err)
	}

	return s.issue(user)
}

func (s *UserService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	user, err := s.store.FindByEmail(ctx, in.Email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.Unauthenticated("Invalid credentials")
	}
	if err != nil {
		return nil, apperr.Dependency("Login failed", err)
	}
	if !auth.CheckPassword(user.PasswordHash, in.Password) {
		return nil, apperr.Unauthenticated("Invalid credentials")
	}
	return s.issue(user)
}

func (s *UserService) issue(user *models.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, apperr.Dependency("Failed to issue token", err)
	}
	return &AuthResult{Token: token, User: NewUserView(user)}, nil
}

type cachedPrincipal struct {
	Role models.Role `json:"role"`
}

func principalKey(id primitive.ObjectID) string {
	return "principal:" + id.Hex()
}

// Authenticate resolves a bearer token to the principal it names. Role
// lookups are cached; role changes invalidate the entry.
func (s *UserService) Authenticate(ctx context.Context, token string) (auth.Principal, error) {
	if token == "" {
		return auth.Principal{}, apperr.Unauthenticated("No token provided")
	}
	id, err := s.tokens.Verify(token)
	if errors.Is(err, auth.ErrTokenExpired) {
		return auth.Principal{}, apperr.Unauthenticated("Token expired")
	}
	if err != nil {
		return auth.Principal{}, apperr.Unauthenticated("Invalid token")
	}

	if s.cache != nil {
		var cp cachedPrincipal
		hit, err := s.cache.GetJSON(ctx, principalKey(id), &cp)
		if err != nil {
			s.logger.Warn("Principal cache read failed", zap.Error(err))
		}
		metrics.ObserveCache("principal", hit && err == nil)
		if hit && err == nil {
			return auth.Principal{UserID: id, Role: cp.Role}, nil
		}
	}

	user, err := s.store.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return auth.Principal{}, apperr.Unauthenticated("User not found")
	}
	if err != nil {
		return auth.Principal{}, apperr.Dependency("Authentication error", err)
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, principalKey(id), cachedPrincipal{Role: user.Role}, s.principalTTL); err != nil {
			s.logger.Warn("Principal cache write failed", zap.Error(err))
		}
	}
	return auth.Principal{UserID: user.ID, Role: user.Role}, nil
}

func (s *UserService) Profile(ctx context.Context, p auth.Principal) (*models.User, error) {
	user, err := s.store.FindByID(ctx, p.UserID)
	if err != nil {
		return nil, storeErr(err, "User not found", "Failed to load profile")
	}
	return user, nil
}

// UpdateProfile changes the display name and/or profile image. Nil fields are left alone.
func (s *UserService) UpdateProfile(ctx context.Context, p auth.Principal, name *string, image *storage.File) (*models.User, error) {
	user, err := s.Profile(ctx, p)
	if err != nil {
		return nil, err
	}
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return nil, apperr.InvalidInput("Name cannot be empty")
		}
		user.Name = trimmed
	}
	if image != nil {
		url, err := s.uploader.Upload(ctx, s.folder, *image)
		if err != nil {
			return nil, apperr.Dependency("Failed to upload image", err)
		}
		user.ProfileImage = url
	}
	user.UpdatedAt = s.now()

	if err := s.store.Update(ctx, user); err != nil {
		return nil, storeErr(err, "User not found", "Failed to update profile")
	}
	return user, nil
}

func (s *UserService) ChangePassword(ctx context.Context, p auth.Principal, current, next string) error {
	if len(next) < minPasswordLength {
		return apperr.InvalidInput(fmt.Sprintf("Password must be at least %d characters", minPasswordLength))
	}
	user, err := s.Profile(ctx, p)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(user.PasswordHash, current) {
		return apperr.Unauthenticated("Current password is incorrect")
	}

	hash, err := auth.HashPassword(next)
	if err != nil {
		return apperr.Dependency("Failed to update password", err)
	}
	user.PasswordHash = hash
	user.UpdatedAt = s.now()
	if err := s.store.Update(ctx, user); err != nil {
		return storeErr(err, "User not found", "Failed to update password")
	}
	return nil
}

func (s *UserService) List(ctx context.Context, p auth.Principal) ([]*models.User, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	users, err := s.store.List(ctx)
	if err != nil {
		return nil, apperr.Dependency("Failed to load users", err)
	}
	return users, nil
}

// SetRole changes a user's role. p is nil when called by operator tooling.
func (s *UserService) SetRole(ctx context.Context, p *auth.Principal, rawID, rawRole string) (*models.User, error) {
	if p != nil {
		if err := requireAdmin(*p); err != nil {
			return nil, err
		}
	}
	role, ok := models.ParseRole(rawRole)
	if !ok {
		return nil, apperr.InvalidInput("Invalid role")
	}
	id, err := parseID(rawID, "user")
	if err != nil {
		return nil, err
	}
	user, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "User not found", "Failed to update role")
	}
	previous := user.Role
	user.Role = role
	user.UpdatedAt = s.now()
	if err := s.store.Update(ctx, user); err != nil {
		return nil, storeErr(err, "User not found", "Failed to update role")
	}

	if s.cache != nil {
		if err := s.cache.Del(ctx, principalKey(id)); err != nil {
			s.logger.Warn("Failed to invalidate principal cache", zap.Error(err))
		}
	}

	actor := "operator"
	if p != nil {
		actor = p.UserID.Hex()
	}
	s.recorder.Record(audit.Entry{
		Action:   audit.ActionUserRole,
		EntityID: id.Hex(),
		ActorID:  actor,
		Data:     bson.M{"from": string(previous), "to": string(role)},
	})
	return user, nil
}

// FindByEmail looks a user up for operator tooling.
func (s *UserService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return nil, storeErr(err, "User not found", "Failed to load user")
	}
	return user, nil
}

