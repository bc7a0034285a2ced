package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ConfSphere/conference_layer/internal/database"
	"github.com/ConfSphere/conference_layer/internal/identity"
	"github.com/ConfSphere/conference_layer/internal/logging"
	"github.com/ConfSphere/conference_layer/internal/metrics"
	"github.com/ConfSphere/conference_layer/internal/middleware"
	"github.com/ConfSphere/conference_layer/services/dashboard"
	"github.com/ConfSphere/conference_layer/services/notify"
	"github.com/ConfSphere/conference_layer/services/payment"
	"github.com/ConfSphere/conference_layer/services/registration"
	"github.com/ConfSphere/conference_layer/services/review"
	"github.com/ConfSphere/conference_layer/services/submission"
	"github.com/ConfSphere/conference_layer/supabase/client"
)

const (
	testJWTSecret      = "session-secret"
	testCheckoutSecret = "checkout-secret"
)

type testEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type testEnv struct {
	repo   *database.MockRepository
	router http.Handler
	user   *database.User
	admin  database.Admin
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	repo := database.NewMockRepository()
	logger := logging.New("httpapi-test", "error", "text")
	m := metrics.New("httpapi_test")

	gotrue := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/auth/v1/signup":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"user": {"id": "auth-new", "email": "new@example.org"}}`))
		case r.Method == http.MethodDelete:
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{}`))
		default:
			t.Fatalf("unexpected auth request: %s %s", r.Method, r.URL.Path)
		}
	}))
	t.Cleanup(gotrue.Close)

	sb, err := client.New(client.Config{URL: gotrue.URL, APIKey: "test-key"})
	require.NoError(t, err)

	ids := identity.NewService(sb, repo, logger)
	notifier := notify.NewService(repo, logger, "", "", 0)
	bucket := sb.Storage().From("papers")

	user, err := repo.CreateUser(context.Background(), database.UserCreate{
		AuthID:          "auth-user",
		FullName:        "Jane Doe",
		Email:           "jane@example.org",
		Category:        "student",
		RegistrationFee: 150,
		Currency:        "USD",
	})
	require.NoError(t, err)

	admin := database.Admin{
		ID:       "admin-1",
		AuthID:   "auth-admin",
		FullName: "Ada Admin",
		Email:    "ada@example.org",
		Role:     "admin",
		IsActive: true,
	}
	repo.SeedAdmin(admin)

	server := NewServer(Config{
		Identity:     ids,
		Registration: registration.NewService(ids, repo, notifier, logger, m),
		Submission:   submission.NewService(repo, bucket, notifier, logger, m),
		Review:       review.NewService(repo, bucket, notifier, logger, m),
		Payment:      payment.NewService(repo, logger, m, testCheckoutSecret),
		Dashboard:    dashboard.NewService(repo, nil, logger),
		Logger:       logger,
	})

	auth := middleware.NewAuthMiddleware(testJWTSecret, ids, logger, PublicPaths)
	cors := middleware.NewCORSMiddleware([]string{"*"})
	limiter := middleware.NewRateLimiter(1000, 1000, logger)
	router := server.Router(auth, cors, limiter, m)

	return &testEnv{repo: repo, router: router, user: user, admin: admin}
}

func signToken(t *testing.T, authID, email string) string {
	t.Helper()
	claims := middleware.SessionClaims{
		Email: email,
		Role:  "authenticated",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   authID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return signed
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, testEnvelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	var env testEnvelope
	if rec.Body.Len() > 0 && rec.Header().Get("Content-Type") == "application/json" {
		_ = json.Unmarshal(rec.Body.Bytes(), &env)
	}
	return rec, env
}

func TestHealthEndpointIsPublic(t *testing.T) {
	env := newTestEnv(t)

	rec, _ := env.do(t, http.MethodGet, "/healthz", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestProtectedRouteRequiresToken(t *testing.T) {
	env := newTestEnv(t)

	rec, body := env.do(t, http.MethodGet, "/api/v1/papers", "", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NotNil(t, body.Error)
	assert.Equal(t, "NOT_AUTHENTICATED", body.Error.Code)
}

func TestCurrentProfile_User(t *testing.T) {
	env := newTestEnv(t)
	token := signToken(t, "auth-user", "jane@example.org")

	rec, body := env.do(t, http.MethodGet, "/api/v1/me", token, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, body.Success)

	var data struct {
		Role    string         `json:"role"`
		Profile *database.User `json:"profile"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &data))
	assert.Equal(t, "user", data.Role)
	require.NotNil(t, data.Profile)
	assert.Equal(t, "jane@example.org", data.Profile.Email)
}

func TestCurrentProfile_Unresolved(t *testing.T) {
	env := newTestEnv(t)
	token := signToken(t, "auth-stranger", "stranger@example.org")

	rec, body := env.do(t, http.MethodGet, "/api/v1/me", token, nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var data struct {
		Role string `json:"role"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &data))
	assert.Equal(t, "unresolved", data.Role)
}

func TestRegisterNormalizesCategory(t *testing.T) {
	env := newTestEnv(t)

	rec, body := env.do(t, http.MethodPost, "/api/v1/register", "", map[string]any{
		"email":            "new@example.org",
		"password":         "secret123",
		"full_name":        "New Author",
		"category":         "scholar",
		"registration_fee": 150,
		"currency":         "USD",
	})

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var user database.User
	require.NoError(t, json.Unmarshal(body.Data, &user))
	assert.Equal(t, "student", user.Category)
	assert.Equal(t, "new@example.org", user.Email)
}

func TestRegisterValidationErrorEnvelope(t *testing.T) {
	env := newTestEnv(t)

	rec, body := env.do(t, http.MethodPost, "/api/v1/register", "", map[string]any{
		"email":    "new@example.org",
		"password": "",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, body.Error)
	assert.Equal(t, "VALIDATION_ERROR", body.Error.Code)
}

func TestPaymentFlowThroughRouter(t *testing.T) {
	env := newTestEnv(t)
	token := signToken(t, "auth-user", "jane@example.org")

	rec, body := env.do(t, http.MethodPost, "/api/v1/payments/intent", token, map[string]any{
		"amount":   150.0,
		"currency": "USD",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var intent payment.Intent
	require.NoError(t, json.Unmarshal(body.Data, &intent))
	require.NotEmpty(t, intent.OrderID)

	rec, _ = env.do(t, http.MethodPost, "/api/v1/payments/confirm", token, payment.ConfirmRequest{
		OrderID:   intent.OrderID,
		PaymentID: "pay_123",
		Signature: payment.Sign(intent.OrderID, "pay_123", testCheckoutSecret),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	user, err := env.repo.GetUserByID(context.Background(), env.user.ID)
	require.NoError(t, err)
	assert.True(t, user.PaymentCompleted)
}

func TestPaymentConfirmBadSignature(t *testing.T) {
	env := newTestEnv(t)
	token := signToken(t, "auth-user", "jane@example.org")

	_, body := env.do(t, http.MethodPost, "/api/v1/payments/intent", token, map[string]any{
		"amount":   150.0,
		"currency": "USD",
	})
	var intent payment.Intent
	require.NoError(t, json.Unmarshal(body.Data, &intent))

	rec, body := env.do(t, http.MethodPost, "/api/v1/payments/confirm", token, payment.ConfirmRequest{
		OrderID:   intent.OrderID,
		PaymentID: "pay_123",
		Signature: "deadbeef",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, body.Error)
	assert.Equal(t, "VALIDATION_ERROR", body.Error.Code)
}

func TestPaymentCancelSurfacesCancellation(t *testing.T) {
	env := newTestEnv(t)
	token := signToken(t, "auth-user", "jane@example.org")

	_, body := env.do(t, http.MethodPost, "/api/v1/payments/intent", token, map[string]any{
		"amount":   150.0,
		"currency": "USD",
	})
	var intent payment.Intent
	require.NoError(t, json.Unmarshal(body.Data, &intent))

	rec, body := env.do(t, http.MethodPost, "/api/v1/payments/"+intent.OrderID+"/cancel", token, nil)

	assert.Equal(t, http.StatusConflict, rec.Code)
	require.NotNil(t, body.Error)
	assert.Equal(t, "PAYMENT_CANCELLED", body.Error.Code)
}

func TestAdminStatusUpdate(t *testing.T) {
	env := newTestEnv(t)

	paper, err := env.repo.CreatePaper(context.Background(), database.PaperCreate{
		UserID:     env.user.ID,
		UserName:   env.user.FullName,
		UserEmail:  env.user.Email,
		PaperTitle: "Deep Learning for Protein Folding",
		FileName:   "paper.pdf",
		FileURL:    env.user.ID + "/1_paper.pdf",
		Status:     database.PaperStatusPending,
	})
	require.NoError(t, err)

	token := signToken(t, "auth-admin", "ada@example.org")
	rec, body := env.do(t, http.MethodPut, "/api/v1/admin/papers/"+paper.ID+"/status", token, map[string]string{
		"status":   database.PaperStatusAccepted,
		"comments": "strong contribution",
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var updated database.Paper
	require.NoError(t, json.Unmarshal(body.Data, &updated))
	assert.Equal(t, database.PaperStatusAccepted, updated.Status)
	require.NotNil(t, updated.ReviewerName)
	assert.Equal(t, "Ada Admin", *updated.ReviewerName)
}

func TestAdminStatusUpdateRejectsUnknownStatus(t *testing.T) {
	env := newTestEnv(t)

	paper, err := env.repo.CreatePaper(context.Background(), database.PaperCreate{
		UserID:     env.user.ID,
		UserName:   env.user.FullName,
		UserEmail:  env.user.Email,
		PaperTitle: "Deep Learning for Protein Folding",
		FileName:   "paper.pdf",
		Status:     database.PaperStatusPending,
	})
	require.NoError(t, err)

	token := signToken(t, "auth-admin", "ada@example.org")
	rec, body := env.do(t, http.MethodPut, "/api/v1/admin/papers/"+paper.ID+"/status", token, map[string]string{
		"status": "approved",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, body.Error)
	assert.Equal(t, "VALIDATION_ERROR", body.Error.Code)
}

func TestAdminRoutesRejectRegularUser(t *testing.T) {
	env := newTestEnv(t)
	token := signToken(t, "auth-user", "jane@example.org")

	rec, body := env.do(t, http.MethodGet, "/api/v1/admin/stats", token, nil)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	require.NotNil(t, body.Error)
	assert.Equal(t, "UNAUTHORIZED", body.Error.Code)
}

func TestAdminDeleteAllReturnsCount(t *testing.T) {
	env := newTestEnv(t)

	for i := 0; i < 3; i++ {
		_, err := env.repo.CreatePaper(context.Background(), database.PaperCreate{
			UserID:     env.user.ID,
			UserName:   env.user.FullName,
			UserEmail:  env.user.Email,
			PaperTitle: "Submission",
			FileName:   "paper.pdf",
			Status:     database.PaperStatusPending,
		})
		require.NoError(t, err)
	}

	token := signToken(t, "auth-admin", "ada@example.org")
	rec, body := env.do(t, http.MethodDelete, "/api/v1/admin/papers", token, nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var data struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &data))
	assert.Equal(t, 3, data.Count)
}

func TestPapersFeedRejectsRegularUser(t *testing.T) {
	env := newTestEnv(t)
	token := signToken(t, env.user.AuthID, env.user.Email)

	rec, body := env.do(t, http.MethodGet, "/api/v1/admin/papers/feed", token, nil)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	require.NotNil(t, body.Error)
	assert.Equal(t, "UNAUTHORIZED", body.Error.Code)
}

func TestPapersFeedWithoutRealtimeFailsCleanly(t *testing.T) {
	env := newTestEnv(t)
	token := signToken(t, env.admin.AuthID, env.admin.Email)

	rec, body := env.do(t, http.MethodGet, "/api/v1/admin/papers/feed", token, nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotNil(t, body.Error)
	assert.Equal(t, "INTERNAL_ERROR", body.Error.Code)
}
