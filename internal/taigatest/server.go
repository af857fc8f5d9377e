// Package taigatest fakes the subset of the Taiga v1 API the client
// consumes, for use in client and integration tests.
package taigatest

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/brianberg/taigasync/internal/domain/project"
	"github.com/brianberg/taigasync/internal/domain/timeline"
	"github.com/brianberg/taigasync/internal/session"
)

const tokenTTL = time.Hour

// Server serves fake auth, project, and timeline endpoints over httptest.
// Fixtures can be swapped between requests to simulate remote edits.
type Server struct {
	URL      string
	Username string
	User     session.User

	httpServer   *httptest.Server
	passwordHash []byte
	secret       []byte

	mu        sync.Mutex
	projects  []project.Project
	timelines map[int][]timeline.Entry
}

// New starts a fake API server whose only valid credentials are the given
// username and password. The server closes itself when the test ends.
func New(t *testing.T, username, password string, user session.User) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	s := &Server{
		Username:     username,
		User:         user,
		passwordHash: hash,
		secret:       []byte("taigatest-secret"),
		timelines:    make(map[int][]timeline.Entry),
	}

	router := gin.New()
	router.POST("/auth", s.handleAuth)

	authorized := router.Group("/", s.requireAuth)
	authorized.GET("/projects", s.handleListProjects)
	authorized.GET("/projects/:id", s.handleGetProject)
	authorized.GET("/timeline/project/:id", s.handleTimeline)

	s.httpServer = httptest.NewServer(router)
	s.URL = s.httpServer.URL
	t.Cleanup(s.httpServer.Close)

	return s
}

// Close shuts the server down early, simulating an unreachable network.
func (s *Server) Close() {
	s.httpServer.Close()
}

// SetProjects replaces the project fixtures.
func (s *Server) SetProjects(projects ...project.Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects = projects
}

// SetTimeline replaces the timeline fixtures for a project.
func (s *Server) SetTimeline(projectID int, entries ...timeline.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timelines[projectID] = entries
}

type authRequest struct {
	Type     string `json:"type"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleAuth(c *gin.Context) {
	var req authRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"_error_message": "malformed auth request"})
		return
	}

	if req.Username != s.Username ||
		bcrypt.CompareHashAndPassword(s.passwordHash, []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"_error_message": "invalid credentials"})
		return
	}

	token, err := s.issueToken()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"_error_message": "token signing failed"})
		return
	}

	user := s.User
	user.AuthToken = token
	c.JSON(http.StatusOK, user)
}

func (s *Server) issueToken() (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   strconv.Itoa(s.User.ID),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *Server) requireAuth(c *gin.Context) {
	header := c.GetHeader("Authorization")
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"_error_message": "missing bearer token"})
		return
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"_error_message": "invalid bearer token"})
		return
	}
}

func (s *Server) handleListProjects(c *gin.Context) {
	if _, err := strconv.Atoi(c.Query("member")); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"_error_message": "invalid member filter"})
		return
	}

	s.mu.Lock()
	projects := make([]project.Project, len(s.projects))
	copy(projects, s.projects)
	s.mu.Unlock()

	c.JSON(http.StatusOK, projects)
}

func (s *Server) handleGetProject(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"_error_message": "invalid project id"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.projects {
		if s.projects[i].ID == id {
			c.JSON(http.StatusOK, s.projects[i])
			return
		}
	}

	c.JSON(http.StatusNotFound, gin.H{"_error_message": "project not found"})
}

func (s *Server) handleTimeline(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"_error_message": "invalid project id"})
		return
	}

	s.mu.Lock()
	entries := make([]timeline.Entry, len(s.timelines[id]))
	copy(entries, s.timelines[id])
	s.mu.Unlock()

	c.JSON(http.StatusOK, entries)
}
