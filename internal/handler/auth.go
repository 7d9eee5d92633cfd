package handler

import (
    "context"   // provides context with cancellation for DB and cache calls
    "errors"    // sentinel error checks against repository errors
    "log"       // server-side log of collapsed token failure modes
    "net/http"  // HTTP status codes and cookie primitives
    "strings"   // string manipulation utilities
    "time"      // timeouts for DB calls and cookie lifetimes

    "github.com/labstack/echo/v4" // Echo framework for HTTP routing

    "github.com/valelectronic/dera-backend/internal/config"     // app configuration
    "github.com/valelectronic/dera-backend/internal/middleware" // resolved session user
    "github.com/valelectronic/dera-backend/internal/model"      // user record
    "github.com/valelectronic/dera-backend/internal/repository" // sentinel errors
    "github.com/valelectronic/dera-backend/internal/utils"      // token issuing and parsing
)

// UserStore is the slice of the user repository the auth flows need.
type UserStore interface {
    Create(ctx context.Context, name, email, password, role string, cost int) (uint64, error)
    GetByEmail(ctx context.Context, email string) (model.User, error)
}

// RefreshStore is the key-value mapping of user identity to the currently
// valid refresh token.  The redis TokenStore satisfies it in production.
type RefreshStore interface {
    Put(ctx context.Context, userID uint64, token string) error
    Get(ctx context.Context, userID uint64) (string, error)
    Delete(ctx context.Context, userID uint64) error
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
    Cfg    config.Config
    Users  UserStore
    Tokens RefreshStore
}

func NewAuthHandler(cfg config.Config, u UserStore, t RefreshStore) *AuthHandler {
    return &AuthHandler{Cfg: cfg, Users: u, Tokens: t}
}

// ----- DTOs -----

type signUpReq struct {
    Name     string `json:"name"`
    Email    string `json:"email"`
    Password string `json:"password"`
}
type logInReq struct {
    Email    string `json:"email"`
    Password string `json:"password"`
}
type userPart struct {
    ID    uint64 `json:"id"`
    Name  string `json:"name"`
    Email string `json:"email"`
    Role  string `json:"role"`
}

func publicUser(u model.User) userPart {
    return userPart{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

// SignUp: create the user and start a session immediately.  The password
// is hashed by the repository; the response never includes it.
func (h *AuthHandler) SignUp(c echo.Context) error {
    var req signUpReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"message": "Please fill all fields"})
    }
    req.Email = strings.ToLower(strings.TrimSpace(req.Email))
    if req.Name == "" || req.Email == "" || req.Password == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"message": "Please fill all fields"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    uid, err := h.Users.Create(ctx, req.Name, req.Email, req.Password, "customer", h.Cfg.BcryptCost)
    if err != nil {
        if errors.Is(err, repository.ErrEmailExists) {
            return c.JSON(http.StatusBadRequest, echo.Map{"message": "User already exists"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error"})
    }

    if err := h.startSession(c, ctx, uid); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error"})
    }
    return c.JSON(http.StatusCreated, echo.Map{
        "user":    userPart{ID: uid, Name: req.Name, Email: req.Email, Role: "customer"},
        "message": "User created successfully",
    })
}

// LogIn: verify credentials and start a session.  Unknown email and wrong
// password produce the same response to avoid user enumeration.
func (h *AuthHandler) LogIn(c echo.Context) error {
    var req logInReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"message": "Please fill all fields"})
    }
    req.Email = strings.ToLower(strings.TrimSpace(req.Email))
    if req.Email == "" || req.Password == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"message": "Please fill all fields"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    u, err := h.Users.GetByEmail(ctx, req.Email)
    if err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid email or password"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error"})
    }
    if !utils.VerifyPassword(u.PasswordHash, req.Password) {
        return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid email or password"})
    }

    if err := h.startSession(c, ctx, u.ID); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error"})
    }
    return c.JSON(http.StatusOK, publicUser(u))
}

// LogOut: revoke the stored refresh token if one is presented, then clear
// both cookies.  Calling it without a session is still a success, which
// keeps the endpoint idempotent.
func (h *AuthHandler) LogOut(c echo.Context) error {
    if ck, err := c.Cookie("refreshToken"); err == nil && ck.Value != "" {
        // Only a token that verifies against the refresh secret names a
        // user whose store entry we should drop.
        if uid, err := utils.ParseSubject(h.Cfg.RefreshSecret, ck.Value); err == nil {
            ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
            defer cancel()
            if err := h.Tokens.Delete(ctx, uid); err != nil {
                return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error"})
            }
        }
    }
    clearAuthCookies(c)
    return c.JSON(http.StatusOK, echo.Map{"message": "Logged out successfully"})
}

// Refresh: exchange a valid refresh token for a new access token.  The
// refresh token itself is not rotated.  Every failure mode is a 401; the
// expired-vs-malformed distinction is logged only.
func (h *AuthHandler) Refresh(c echo.Context) error {
    ck, err := c.Cookie("refreshToken")
    if err != nil || ck.Value == "" {
        return c.JSON(http.StatusUnauthorized, echo.Map{"message": "No refresh token provided"})
    }
    uid, err := utils.ParseSubject(h.Cfg.RefreshSecret, ck.Value)
    if err != nil {
        if errors.Is(err, utils.ErrTokenExpired) {
            log.Printf("auth: expired refresh token presented")
        }
        return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Invalid or expired refresh token"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    stored, err := h.Tokens.Get(ctx, uid)
    if err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            // Store miss: prior logout, a newer login's overwrite, or eviction.
            return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Refresh token not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error"})
    }
    if stored != ck.Value {
        // A superseded token replayed after a newer login.
        return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Invalid refresh token"})
    }

    access, err := utils.NewAccessToken(h.Cfg.AccessSecret, uid, h.Cfg.AccessTTLMin)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error"})
    }
    setAuthCookie(c, "accessToken", access.Value, h.Cfg.AccessTTLMin*60)
    return c.JSON(http.StatusOK, echo.Map{"message": "Token refreshed successfully"})
}

// Profile returns the user the session middleware already resolved; no
// additional lookup happens here.
func (h *AuthHandler) Profile(c echo.Context) error {
    u, ok := middleware.CurrentUser(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Unauthorized"})
    }
    return c.JSON(http.StatusOK, publicUser(u))
}

// startSession issues the token pair, stores the refresh token (overwriting
// any prior session for the user) and sets both cookies.
func (h *AuthHandler) startSession(c echo.Context, ctx context.Context, uid uint64) error {
    pair, err := utils.IssueTokenPair(h.Cfg.AccessSecret, h.Cfg.RefreshSecret, uid,
        h.Cfg.AccessTTLMin, h.Cfg.RefreshTTLDays)
    if err != nil {
        return err
    }
    if err := h.Tokens.Put(ctx, uid, pair.Refresh.Value); err != nil {
        return err
    }
    setAuthCookie(c, "accessToken", pair.Access.Value, h.Cfg.AccessTTLMin*60)
    setAuthCookie(c, "refreshToken", pair.Refresh.Value, h.Cfg.RefreshTTLDays*24*60*60)
    return nil
}

// setAuthCookie writes an httpOnly, secure, cross-site cookie so the
// browser front end on another origin can carry it.
func setAuthCookie(c echo.Context, name, value string, maxAge int) {
    c.SetCookie(&http.Cookie{
        Name:     name,
        Value:    value,
        Path:     "/",
        MaxAge:   maxAge,
        HttpOnly: true,
        Secure:   true,
        SameSite: http.SameSiteNoneMode,
    })
}

func clearAuthCookies(c echo.Context) {
    for _, name := range []string{"accessToken", "refreshToken"} {
        c.SetCookie(&http.Cookie{
            Name:     name,
            Value:    "",
            Path:     "/",
            MaxAge:   -1,
            HttpOnly: true,
            Secure:   true,
            SameSite: http.SameSiteNoneMode,
        })
    }
}
