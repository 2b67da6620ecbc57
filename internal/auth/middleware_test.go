package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/headless-pm/taskflow/internal/database"
	"github.com/headless-pm/taskflow/internal/models"
	tokens "github.com/headless-pm/taskflow/pkg/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T) (*gin.Engine, *database.Database, *tokens.TokenManager) {
	gin.SetMode(gin.TestMode)
	db, err := database.NewDatabase(t.TempDir())
	require.NoError(t, err)
	manager, err := tokens.NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)

	router := gin.New()
	group := router.Group("/", Middleware(db, manager))
	group.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": CurrentUser(c).ID})
	})
	group.GET("/admin", RequireRole(models.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return router, db, manager
}

func request(router *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestMiddleware(t *testing.T) {
	router, db, manager := setupRouter(t)
	user := &models.User{Email: "e@example.com", Username: "e", Password: "x", Role: models.RoleEmployee, IsActive: true}
	require.NoError(t, db.CreateUser(user))
	token, _, err := manager.Issue(user.ID, string(user.Role))
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, request(router, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, request(router, "/me", "garbage").Code)
	assert.Equal(t, http.StatusOK, request(router, "/me", token).Code)
	assert.Equal(t, http.StatusForbidden, request(router, "/admin", token).Code)

	user.IsArchived = true
	require.NoError(t, db.UpdateUser(user))
	assert.Equal(t, http.StatusUnauthorized, request(router, "/me", token).Code)
}

func TestRequireRoleAllowsListedRole(t *testing.T) {
	router, db, manager := setupRouter(t)
	admin := &models.User{Email: "a@example.com", Username: "a", Password: "x", Role: models.RoleAdmin, IsActive: true}
	require.NoError(t, db.CreateUser(admin))
	token, _, err := manager.Issue(admin.ID, string(admin.Role))
	require.NoError(t, err)

	assert.Equal(t, http.StatusNoContent, request(router, "/admin", token).Code)
}
