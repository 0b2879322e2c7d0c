package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4" // Import JWT library
	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt" // Import bcrypt

	"alcyxob/fitness-content/internal/domain"
	"alcyxob/fitness-content/internal/repository"
)

// --- Error Definitions ---
var (
	ErrUserAlreadyExists    = errors.Wrap(domain.ErrAlreadyExists, "user with this email or phone already exists")
	ErrAuthenticationFailed = errors.New("Invalid email or password.")
	ErrHashingFailed        = errors.New("failed to hash password")
	ErrTokenGeneration      = errors.New("failed to generate authentication token")
	ErrInvalidToken         = errors.New("Unauthorised User")
)

type RegisterInput struct {
	Name            string  `json:"name" form:"name" validate:"required"`
	Email           string  `json:"email" form:"email" validate:"required,email"`
	Phone           string  `json:"phone" form:"phone" validate:"required,min=10,max=12"`
	Password        string  `json:"password" form:"password" validate:"required,min=6"`
	ConfirmPassword string  `json:"confirm_password" form:"confirm_password" validate:"required,min=6,eqfield=Password"`
	ImageURL        *string `json:"image_url" form:"image_url"`
	FCMToken        *string `json:"fcm_token" form:"fcm_token"`
}

type LoginInput struct {
	Email    string  `json:"email" form:"email" validate:"required,email"`
	Password string  `json:"password" form:"password" validate:"required,min=6"`
	FCMToken *string `json:"fcm_token" form:"fcm_token"`
}

// Claims is the JWT payload issued on register and login.
type Claims struct {
	UserID  int64 `json:"uid"`
	IsAdmin bool  `json:"is_admin"`
	jwt.RegisteredClaims
}

// --- Service Interface ---
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (token string, user *domain.User, err error)
	Login(ctx context.Context, in LoginInput) (token string, user *domain.User, err error)
	// RegisterAdmin creates a user that may use the administration routes.
	RegisterAdmin(ctx context.Context, in RegisterInput) (token string, user *domain.User, err error)
	// AdminLogin is Login restricted to administrators.
	AdminLogin(ctx context.Context, in LoginInput) (token string, user *domain.User, err error)
	// User loads the account behind a token.
	User(ctx context.Context, id int64) (*domain.User, error)
	// Logout revokes the token until it would have expired anyway.
	Logout(ctx context.Context, claims *Claims)
	// ParseToken verifies signature, expiry and revocation.
	ParseToken(tokenString string) (*Claims, error)
}

// --- Service Implementation ---

// authService implements the AuthService interface.
type authService struct {
	userRepo      repository.EntityRepository[domain.User]
	jwtSecret     string
	jwtExpiration time.Duration
	revoked       *gocache.Cache
	now           func() time.Time
}

// NewAuthService creates a new instance of authService.
func NewAuthService(userRepo repository.EntityRepository[domain.User], jwtSecret string, jwtExpiration time.Duration) AuthService {
	if jwtSecret == "" {
		panic("JWT secret cannot be empty") // Critical configuration
	}
	if jwtExpiration <= 0 {
		jwtExpiration = time.Hour * 1 // Default to 1 hour if not set properly
	}
	return &authService{
		userRepo:      userRepo,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
		revoked:       gocache.New(jwtExpiration, 10*time.Minute),
		now:           time.Now,
	}
}

// Register handles new user registration.
func (s *authService) Register(ctx context.Context, in RegisterInput) (string, *domain.User, error) {
	return s.register(ctx, in, false)
}

func (s *authService) RegisterAdmin(ctx context.Context, in RegisterInput) (string, *domain.User, error) {
	return s.register(ctx, in, true)
}

func (s *authService) register(ctx context.Context, in RegisterInput, isAdmin bool) (string, *domain.User, error) {
	// 1. Validate the request
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	err := validateInput(in)
	var ve *domain.ValidationError
	if err != nil && !errors.As(err, &ve) {
		return "", nil, err
	}

	// 2. Email and phone must be unused
	taken, err := s.takenFields(ctx, in.Email, in.Phone)
	if err != nil {
		return "", nil, err
	}
	if len(taken) > 0 {
		if ve == nil {
			ve = &domain.ValidationError{Fields: map[string][]string{}}
		}
		if ve.Fields == nil {
			ve.Fields = map[string][]string{}
		}
		for _, field := range taken {
			ve.Fields[field] = append(ve.Fields[field], "The "+field+" has already been taken.")
		}
	}
	if ve != nil {
		return "", nil, ve
	}

	// 3. Hash the password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return "", nil, ErrHashingFailed
	}

	// 4. Save the user
	user := &domain.User{
		Name:                 in.Name,
		Email:                in.Email,
		Phone:                in.Phone,
		ImageURL:             in.ImageURL,
		FCMToken:             in.FCMToken,
		PasswordHash:         string(hashedPassword),
		IsAdmin:              isAdmin,
		IsNotificationEnable: true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// A concurrent registration can still win the unique index.
		if errors.Is(err, domain.ErrAlreadyExists) {
			return "", nil, ErrUserAlreadyExists
		}
		return "", nil, err
	}

	// 5. Issue a token
	token, err := s.generateJWT(user)
	if err != nil {
		return "", nil, ErrTokenGeneration
	}
	return token, user, nil
}

// Login handles user authentication and JWT generation.
func (s *authService) Login(ctx context.Context, in LoginInput) (token string, user *domain.User, err error) {
	// 1. Validate the request
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err = validateInput(in); err != nil {
		return
	}

	// 2. Fetch user by email
	user, err = s.userRepo.FindBy(ctx, "email", in.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			err = ErrAuthenticationFailed // User not found maps to auth failure
		}
		return "", nil, err
	}

	// 3. Compare the provided password with the stored hash
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)) != nil {
		return "", nil, ErrAuthenticationFailed
	}

	// 4. Remember the device token when one was sent
	if in.FCMToken != nil {
		user.FCMToken = in.FCMToken
		if err = s.userRepo.Update(ctx, user); err != nil {
			return "", nil, err
		}
	}

	// 5. Generate JWT
	token, err = s.generateJWT(user)
	if err != nil {
		return "", nil, ErrTokenGeneration
	}
	return token, user, nil
}

// AdminLogin rejects valid credentials of a non-admin like wrong ones.
func (s *authService) AdminLogin(ctx context.Context, in LoginInput) (string, *domain.User, error) {
	token, user, err := s.Login(ctx, in)
	if err != nil {
		return "", nil, err
	}
	if !user.IsAdmin {
		return "", nil, ErrAuthenticationFailed
	}
	return token, user, nil
}

func (s *authService) User(ctx context.Context, id int64) (*domain.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

func (s *authService) Logout(ctx context.Context, claims *Claims) {
	if claims == nil || claims.ID == "" {
		return
	}
	ttl := gocache.DefaultExpiration
	if claims.ExpiresAt != nil {
		ttl = claims.ExpiresAt.Sub(s.now())
		if ttl <= 0 {
			return
		}
	}
	s.revoked.Set(claims.ID, struct{}{}, ttl)
}

func (s *authService) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if _, revoked := s.revoked.Get(claims.ID); revoked {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// takenFields reports which of email and phone already belong to a user.
func (s *authService) takenFields(ctx context.Context, email, phone string) ([]string, error) {
	var taken []string
	for _, f := range []struct{ field, value string }{{"email", email}, {"phone", phone}} {
		if f.value == "" {
			continue
		}
		_, err := s.userRepo.FindBy(ctx, f.field, f.value)
		switch {
		case err == nil:
			taken = append(taken, f.field)
		case !errors.Is(err, domain.ErrNotFound):
			return nil, err
		}
	}
	return taken, nil
}

// --- JWT Helper ---

// generateJWT creates a new JWT token for the given user.
func (s *authService) generateJWT(user *domain.User) (string, error) {
	now := s.now()
	claims := &Claims{
		UserID:  user.ID,
		IsAdmin: user.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(), // Lets a single token be revoked on logout
			Subject:   strconv.FormatInt(user.ID, 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtExpiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "fitness-content",
		},
	}

	// Create the token object with the claims and signing method
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	// Sign the token with the secret key
	return token.SignedString([]byte(s.jwtSecret))
}
