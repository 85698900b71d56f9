package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"agri-broker/broker-portal/broker-portal-backend/internal/session"
	"agri-broker/broker-portal/broker-portal-backend/internal/users"
	"agri-broker/broker-portal/broker-portal-backend/pkg/apperrors"
	"agri-broker/broker-portal/broker-portal-backend/pkg/database"
)

func newTestService(t *testing.T) (*Service, *TokenManager) {
	t.Helper()
	db, err := database.OpenMemory(strings.ReplaceAll(t.Name(), "/", "_"))
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&users.User{}))

	tokens := NewTokenManager("test-secret", 24*time.Hour)
	return NewService(users.NewRepository(db), tokens, zap.NewNop()), tokens
}

func TestRegisterAndLogin(t *testing.T) {
	svc, tokens := newTestService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, RegisterRequest{
		Email:    "Broker@Example.com",
		Password: "secret123",
		Role:     users.RoleBroker,
		FirmName: "Mandi Traders",
		Phone:    "9876543210",
	})
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", registered.User.Password)

	claims, err := tokens.Parse(registered.Token)
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, claims.ID)
	assert.Equal(t, users.RoleBroker, claims.Role)

	loggedIn, err := svc.Login(ctx, LoginRequest{Email: "broker@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, loggedIn.User.ID)

	_, err = svc.Login(ctx, LoginRequest{Email: "broker@example.com", Password: "wrong"})
	assert.True(t, apperrors.Is(err, apperrors.KindUnauthorized))
	assert.Equal(t, "Invalid credentials", apperrors.Message(err))

	_, err = svc.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: "secret123"})
	assert.True(t, apperrors.Is(err, apperrors.KindUnauthorized))

	_, err = svc.Register(ctx, RegisterRequest{
		Email: "broker@example.com", Password: "secret123", Role: users.RoleBroker, FirmName: "Dup", Phone: "9876543211",
	})
	assert.True(t, apperrors.Is(err, apperrors.KindConflict))
}

func TestRegisterRejectsUnknownRole(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email: "x@example.com", Password: "secret123", Role: "admin", FirmName: "X", Phone: "9876543210",
	})
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
}

func TestUserJSONHidesPassword(t *testing.T) {
	data, err := json.Marshal(users.User{ID: "u1", Password: "hash"})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hash")
}

func TestTokenExpiry(t *testing.T) {
	tokens := NewTokenManager("test-secret", time.Hour)
	issuedAt := time.Now()
	tokens.now = func() time.Time { return issuedAt }

	token, err := tokens.Issue("u1", users.RoleSupplier)
	require.NoError(t, err)

	tokens.now = func() time.Time { return issuedAt.Add(2 * time.Hour) }
	_, err = tokens.Parse(token)
	assert.Error(t, err)

	other := NewTokenManager("other-secret", time.Hour)
	_, err = other.Parse(token)
	assert.Error(t, err)
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tokens := NewTokenManager("test-secret", time.Hour)

	router := gin.New()
	broker := router.Group("/broker", tokens.Authenticate(), RequireRole(users.RoleBroker))
	broker.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": session.UserID(c)})
	})

	do := func(token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/broker/me", nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusUnauthorized, do("").Code)
	assert.Equal(t, http.StatusUnauthorized, do("garbage").Code)

	supplierToken, err := tokens.Issue("s1", users.RoleSupplier)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, do(supplierToken).Code)

	brokerToken, err := tokens.Issue("b1", users.RoleBroker)
	require.NoError(t, err)
	w := do(brokerToken)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"b1"`)
}
