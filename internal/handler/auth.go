package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/uncoverstore/api/internal/auth"
	"github.com/uncoverstore/api/internal/domain/user"
)

// sessionKey is the gin context key holding the verified auth.Session.
const sessionKey = "auth.session"

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

func (s *Server) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "email and password required")
		return
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		writeInternalError(c, err)
		return
	}

	u := &user.User{
		ID:           uuid.New().String(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
	}
	if err := s.users.Create(c.Request.Context(), u); err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			writeError(c, http.StatusConflict, "user already exists")
			return
		}
		writeInternalError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": u.ID, "email": u.Email})
}

type signInRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) signIn(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "missing fields")
		return
	}

	u, err := s.users.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			writeError(c, http.StatusUnauthorized, "invalid credentials")
			return
		}
		writeInternalError(c, err)
		return
	}
	if !s.hasher.Compare(u.PasswordHash, req.Password) {
		writeError(c, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := s.sessions.Sign(auth.Session{UserID: u.ID, Email: u.Email})
	if err != nil {
		writeInternalError(c, err)
		return
	}
	s.setSessionCookie(c, token, int(s.sessions.TTL().Seconds()))

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    gin.H{"id": u.ID, "email": u.Email, "name": u.Name},
	})
}

func (s *Server) session(c *gin.Context) {
	sess, ok := s.currentSession(c)
	if !ok {
		writeError(c, http.StatusUnauthorized, "no session")
		return
	}

	u, err := s.users.GetByID(c.Request.Context(), sess.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			writeError(c, http.StatusUnauthorized, "no session")
			return
		}
		writeInternalError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": u.ID, "email": u.Email, "name": u.Name})
}

func (s *Server) logout(c *gin.Context) {
	s.setSessionCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// requireSession aborts with 401 unless the request carries a valid session
// cookie. The verified session is stored on the gin context.
func (s *Server) requireSession(c *gin.Context) {
	sess, ok := s.currentSession(c)
	if !ok {
		writeError(c, http.StatusUnauthorized, "not authenticated")
		c.Abort()
		return
	}
	c.Set(sessionKey, sess)
	c.Next()
}

func (s *Server) currentSession(c *gin.Context) (*auth.Session, bool) {
	token, err := c.Cookie(auth.CookieName)
	if err != nil || token == "" {
		return nil, false
	}
	sess, err := s.sessions.Verify(token)
	if err != nil {
		return nil, false
	}
	return sess, true
}

func mustSession(c *gin.Context) *auth.Session {
	return c.MustGet(sessionKey).(*auth.Session)
}

func (s *Server) setSessionCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.CookieName, token, maxAge, "/", "", s.secureCookies, true)
}
