package service

import (
    "context"
    "errors"
    "strings"
    "time"

    "github.com/sirupsen/logrus"

    "github.com/iliyamo/game-storefront/internal/metrics"
    "github.com/iliyamo/game-storefront/internal/model"
    "github.com/iliyamo/game-storefront/internal/repository"
    "github.com/iliyamo/game-storefront/internal/utils"
)

// UserStore is the credential store the identity service reads and writes.
// *repository.UserRepo satisfies it.
type UserStore interface {
    FindByEmail(ctx context.Context, email string) (*model.User, error)
    FindByUsername(ctx context.Context, username string) (*model.User, error)
    Insert(ctx context.Context, u *model.User) (uint64, error)
    UpdateToken(ctx context.Context, id uint64, token string) error
    ListAll(ctx context.Context) ([]model.UserProfile, error)
    HasRole(ctx context.Context, role string) (bool, error)
    FindWithPurchases(ctx context.Context, id uint64) (*model.UserProfile, []model.PurchaseHistoryEntry, error)
}

// IdentityConfig carries the token and hashing settings.
type IdentityConfig struct {
    Secret     string
    BcryptCost int
    SessionTTL time.Duration // login and refresh tokens
    LongTTL    time.Duration // registration and admin tokens
}

// IdentityService registers users, checks credentials and issues tokens.
type IdentityService struct {
    users UserStore
    cfg   IdentityConfig
    log   logrus.FieldLogger
}

func NewIdentityService(users UserStore, cfg IdentityConfig, log logrus.FieldLogger) *IdentityService {
    return &IdentityService{users: users, cfg: cfg, log: log}
}

// RegisterInput is the sign-up form.  Every field is required.
type RegisterInput struct {
    Username string `json:"username"`
    Email    string `json:"email"`
    Phone    string `json:"phone"`
    Country  string `json:"country"`
    Gender   string `json:"gender"`
    Password string `json:"password"`
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
    Token  string
    UserID uint64
}

// AdminSession is returned by AdminLogin.
type AdminSession struct {
    Token   string
    Profile model.UserProfile
}

// Principal is the identity carried by a verified token.
type Principal struct {
    UserID uint64
    Role   string
}

// IsAdmin reports whether the token was minted by AdminLogin.
func (p Principal) IsAdmin() bool { return p.Role == model.RoleAdmin }

// Me is the "who am I" view: profile plus active-game purchase history.
type Me struct {
    model.UserProfile
    PurchasedGames []model.PurchaseHistoryEntry `json:"purchasedGames"`
}

func blank(vals ...string) bool {
    for _, v := range vals {
        if strings.TrimSpace(v) == "" {
            return true
        }
    }
    return false
}

// Register creates an account and returns a long-lived token for it.  The
// email check and the insert are not atomic; two concurrent sign-ups with
// the same email can both succeed.
func (s *IdentityService) Register(ctx context.Context, in RegisterInput) (AuthResult, error) {
    if blank(in.Username, in.Email, in.Phone, in.Country, in.Gender, in.Password) {
        return AuthResult{}, newError(KindValidation, "All fields are required")
    }

    _, err := s.users.FindByEmail(ctx, in.Email)
    switch {
    case err == nil:
        return AuthResult{}, newError(KindConflict, "Email is already registered")
    case !errors.Is(err, repository.ErrUserNotFound):
        return AuthResult{}, internalError(err, "Registration failed")
    }

    hash, err := utils.HashPassword(in.Password, s.cfg.BcryptCost)
    if err != nil {
        return AuthResult{}, internalError(err, "Registration failed")
    }
    u := &model.User{
        Username: in.Username,
        Email:    in.Email,
        Password: hash,
        Phone:    in.Phone,
        Country:  in.Country,
        Gender:   in.Gender,
    }
    id, err := s.users.Insert(ctx, u)
    if err != nil {
        return AuthResult{}, internalError(err, "Registration failed")
    }

    tok, err := utils.IssueSessionToken(s.cfg.Secret, id, "", s.cfg.LongTTL)
    if err != nil {
        return AuthResult{}, internalError(err, "Registration failed")
    }
    if err := s.users.UpdateToken(ctx, id, tok.Token); err != nil {
        return AuthResult{}, internalError(err, "Registration failed")
    }

    metrics.Registrations.Inc()
    s.log.WithFields(logrus.Fields{"user_id": id}).Info("user registered")
    return AuthResult{Token: tok.Token, UserID: id}, nil
}

// Login verifies the password.  A token already persisted on the account is
// returned as is; otherwise a short-lived one is minted and persisted.
func (s *IdentityService) Login(ctx context.Context, email, password string) (AuthResult, error) {
    if blank(email, password) {
        return AuthResult{}, newError(KindValidation, "Email and password are required")
    }

    u, err := s.users.FindByEmail(ctx, email)
    if err != nil {
        if errors.Is(err, repository.ErrUserNotFound) {
            return AuthResult{}, newError(KindNotFound, "User not found")
        }
        return AuthResult{}, internalError(err, "Login failed")
    }
    ok, err := utils.CheckPassword(u.Password, password)
    if err != nil {
        return AuthResult{}, internalError(err, "Login failed")
    }
    if !ok {
        return AuthResult{}, newError(KindAuth, "Invalid password")
    }

    metrics.Logins.WithLabelValues("user").Inc()
    if u.HasToken() {
        return AuthResult{Token: *u.Token, UserID: u.ID}, nil
    }

    tok, err := utils.IssueSessionToken(s.cfg.Secret, u.ID, "", s.cfg.SessionTTL)
    if err != nil {
        return AuthResult{}, internalError(err, "Login failed")
    }
    if err := s.users.UpdateToken(ctx, u.ID, tok.Token); err != nil {
        return AuthResult{}, internalError(err, "Login failed")
    }
    return AuthResult{Token: tok.Token, UserID: u.ID}, nil
}

// AdminLogin authenticates an administrator by username.  The role is
// checked before the password, so a non-admin always gets KindForbidden.
// Admin tokens are not persisted.
func (s *IdentityService) AdminLogin(ctx context.Context, username, password string) (AdminSession, error) {
    if blank(username, password) {
        return AdminSession{}, newError(KindValidation, "Username and password are required")
    }

    u, err := s.users.FindByUsername(ctx, username)
    if err != nil {
        if errors.Is(err, repository.ErrUserNotFound) {
            return AdminSession{}, newError(KindNotFound, "User not found")
        }
        return AdminSession{}, internalError(err, "Login failed")
    }
    if strings.TrimSpace(u.Role) != model.RoleAdmin {
        return AdminSession{}, newError(KindForbidden, "Access denied: administrators only")
    }
    ok, err := utils.CheckPassword(u.Password, password)
    if err != nil {
        return AdminSession{}, internalError(err, "Login failed")
    }
    if !ok {
        return AdminSession{}, newError(KindAuth, "Invalid password")
    }

    tok, err := utils.IssueSessionToken(s.cfg.Secret, u.ID, model.RoleAdmin, s.cfg.LongTTL)
    if err != nil {
        return AdminSession{}, internalError(err, "Login failed")
    }
    metrics.Logins.WithLabelValues("admin").Inc()
    s.log.WithFields(logrus.Fields{"user_id": u.ID}).Info("admin logged in")
    return AdminSession{Token: tok.Token, Profile: u.Profile()}, nil
}

// Authenticate verifies a raw token and returns who it belongs to.
func (s *IdentityService) Authenticate(raw string) (Principal, error) {
    if strings.TrimSpace(raw) == "" {
        return Principal{}, newError(KindUnauthenticated, "Token not provided")
    }
    claims, err := utils.ParseSessionToken(s.cfg.Secret, raw)
    if err != nil || claims.UserID == 0 {
        return Principal{}, newError(KindInvalidToken, "Invalid or expired token")
    }
    return Principal{UserID: claims.UserID, Role: claims.Role}, nil
}

// RefreshToken exchanges any valid token for a fresh short-lived one that
// carries only the user id.  Nothing is looked up or persisted.
func (s *IdentityService) RefreshToken(oldToken string) (string, error) {
    p, err := s.Authenticate(oldToken)
    if err != nil {
        return "", err
    }
    tok, err := utils.IssueSessionToken(s.cfg.Secret, p.UserID, "", s.cfg.SessionTTL)
    if err != nil {
        return "", internalError(err, "Token refresh failed")
    }
    return tok.Token, nil
}

// WhoAmI resolves a token to the caller's profile and purchase history.
func (s *IdentityService) WhoAmI(ctx context.Context, raw string) (*Me, error) {
    p, err := s.Authenticate(raw)
    if err != nil {
        return nil, err
    }
    profile, history, err := s.users.FindWithPurchases(ctx, p.UserID)
    if err != nil {
        if errors.Is(err, repository.ErrUserNotFound) {
            return nil, newError(KindNotFound, "User not found")
        }
        return nil, internalError(err, "Failed to load user")
    }
    return &Me{UserProfile: *profile, PurchasedGames: history}, nil
}

// ListUsers returns every user's public profile.
func (s *IdentityService) ListUsers(ctx context.Context) ([]model.UserProfile, error) {
    users, err := s.users.ListAll(ctx)
    if err != nil {
        return nil, internalError(err, "Failed to load users")
    }
    return users, nil
}
