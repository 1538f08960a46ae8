package ginauth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authmiddleware "github.com/coreauth/go-auth-middleware"
	"github.com/coreauth/go-auth-middleware/identity"
	"github.com/coreauth/go-auth-middleware/token"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newTestMiddleware(t *testing.T) (*authmiddleware.Middleware, *token.Codec) {
	t.Helper()

	codec, err := token.NewCodec(token.WithSecret(testSecret))
	require.NoError(t, err)

	m, err := authmiddleware.New(authmiddleware.WithCodec(codec))
	require.NoError(t, err)
	return m, codec
}

func Test_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	m, codec := newTestMiddleware(t)

	validToken, err := codec.IssueAccessToken("testuser", []string{"ROLE_USER"})
	require.NoError(t, err)

	testCases := []struct {
		name         string
		authHeader   string
		wantIdentity bool
	}{
		{
			name:         "it mirrors the identity into the gin context",
			authHeader:   "Bearer " + validToken,
			wantIdentity: true,
		},
		{
			name: "it continues anonymously without a token",
		},
		{
			name:       "it continues anonymously with a garbage token",
			authHeader: "Bearer not.a.token",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			router := gin.New()
			router.Use(Middleware(m))
			router.GET("/", func(c *gin.Context) {
				id, ok := IdentityFromContext(c)
				assert.Equal(t, testCase.wantIdentity, ok)

				_, requestOK := identity.FromContext(c.Request.Context())
				assert.Equal(t, testCase.wantIdentity, requestOK, "the request context must agree with the gin context")

				if testCase.wantIdentity {
					assert.Equal(t, "testuser", id.Subject)
					assert.True(t, id.HasRole("ROLE_USER"))
				}
				c.String(http.StatusOK, "ok")
			})

			request := httptest.NewRequest(http.MethodGet, "/", nil)
			if testCase.authHeader != "" {
				request.Header.Set("Authorization", testCase.authHeader)
			}
			recorder := httptest.NewRecorder()

			router.ServeHTTP(recorder, request)

			assert.Equal(t, http.StatusOK, recorder.Code)
			assert.Equal(t, "ok", recorder.Body.String())
		})
	}
}

func Test_Middleware_CustomIdentityKey(t *testing.T) {
	gin.SetMode(gin.TestMode)

	m, codec := newTestMiddleware(t)

	validToken, err := codec.IssueAccessToken("testuser", []string{"ROLE_USER"})
	require.NoError(t, err)

	router := gin.New()
	router.Use(Middleware(m, WithIdentityKey("principal")))
	router.GET("/", func(c *gin.Context) {
		value, exists := c.Get("principal")
		require.True(t, exists)
		id, ok := value.(identity.Identity)
		require.True(t, ok)
		assert.Equal(t, "testuser", id.Subject)
		c.Status(http.StatusOK)
	})

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.Header.Set("Authorization", "Bearer "+validToken)
	recorder := httptest.NewRecorder()

	router.ServeHTTP(recorder, request)
	assert.Equal(t, http.StatusOK, recorder.Code)
}
