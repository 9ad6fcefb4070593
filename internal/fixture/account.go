package fixture

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// CodeInvalidCredentials is the envelope code returned for a failed login. The HTTP status
// stays 200 so clients exercise their business-failure path.
const CodeInvalidCredentials = 1001

type user struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar,omitempty"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userUpdate struct {
	Name   *string `json:"name"`
	Email  *string `json:"email"`
	Avatar *string `json:"avatar"`
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusOK, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.RLock()
	username := s.username
	hash := s.passwordHash
	s.mu.RUnlock()

	if strings.TrimSpace(req.Username) != username || bcrypt.CompareHashAndPassword(hash, []byte(req.Password)) != nil {
		log.WithField("code", CodeInvalidCredentials).Warnf("fixture: login rejected for %q", req.Username)
		fail(c, http.StatusOK, CodeInvalidCredentials, "invalid username or password")
		return
	}

	token := uuid.NewString()
	s.mu.Lock()
	s.tokens[token] = username
	profile := s.profile
	s.mu.Unlock()
	ok(c, "login success", gin.H{"token": token, "user": profile})
}

func (s *Server) handleLogout(c *gin.Context) {
	if token := bearerToken(c); token != "" {
		s.mu.Lock()
		delete(s.tokens, token)
		s.mu.Unlock()
	}
	ok(c, "logged out", nil)
}

func bearerToken(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

// requireToken rejects requests without a bearer token issued by handleLogin.
func (s *Server) requireToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		s.mu.RLock()
		_, found := s.tokens[token]
		s.mu.RUnlock()
		if token == "" || !found {
			fail(c, http.StatusUnauthorized, http.StatusUnauthorized, "unauthorized")
			return
		}
		c.Next()
	}
}

func (s *Server) handleUserInfo(c *gin.Context) {
	s.mu.RLock()
	profile := s.profile
	s.mu.RUnlock()
	ok(c, "success", profile)
}

func (s *Server) handleUserUpdate(c *gin.Context) {
	var in userUpdate
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusOK, http.StatusBadRequest, "invalid request body")
		return
	}
	s.mu.Lock()
	if in.Name != nil && strings.TrimSpace(*in.Name) != "" {
		s.profile.Name = strings.TrimSpace(*in.Name)
	}
	if in.Email != nil {
		s.profile.Email = strings.TrimSpace(*in.Email)
	}
	if in.Avatar != nil {
		s.profile.Avatar = strings.TrimSpace(*in.Avatar)
	}
	profile := s.profile
	s.mu.Unlock()
	ok(c, "updated", profile)
}

func (s *Server) handleAvatar(c *gin.Context) {
	stored, valid := s.receiveUpload(c, "avatar-")
	if !valid {
		return
	}
	s.mu.Lock()
	s.profile.Avatar = stored.URL
	s.mu.Unlock()
	ok(c, "uploaded", gin.H{"avatar": stored.URL})
}
