package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"ledger-service/internal/adapter/http/dto"
	"ledger-service/internal/adapter/http/middleware"
	"ledger-service/internal/core/domain"
	"ledger-service/internal/core/ports"
	"ledger-service/internal/core/ports/mocks"
	"ledger-service/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func jsonContext(t *testing.T, method, target string, body any) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	var raw []byte
	switch b := body.(type) {
	case nil:
	case string:
		raw = []byte(b)
	default:
		var err error
		raw, err = json.Marshal(b)
		require.NoError(t, err)
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, target, bytes.NewReader(raw))
	c.Request.Header.Set("Content-Type", "application/json")
	return c, w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data, ok := resp["data"].(map[string]interface{})
	require.True(t, ok, "body: %s", w.Body.String())
	return data
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Error.Code
}

// --- Auth Handler Tests ---

func TestCreateClient_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockAuth := mocks.NewMockAuthService(ctrl)
	h := NewAuthHandler(mockAuth)

	mockAuth.EXPECT().Register(gomock.Any(), "alice", "s3cret").Return(int64(7), nil)

	c, w := jsonContext(t, http.MethodPost, "/clients", dto.CreateClientRequest{Username: "alice", Password: "s3cret"})
	h.CreateClient(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, float64(7), data["id"])
	assert.Equal(t, "alice", data["username"])
	assert.Equal(t, "0.00", data["balance"])
}

func TestCreateClient_ValidationError(t *testing.T) {
	ctrl := gomock.NewController(t)
	h := NewAuthHandler(mocks.NewMockAuthService(ctrl))

	for _, body := range []string{`{}`, `{"username":" alice","password":"x"}`, `{"username":"alice"}`, `not json`} {
		c, w := jsonContext(t, http.MethodPost, "/clients", body)
		h.CreateClient(c)

		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.Equal(t, "ACC_002", errorCode(t, w), body)
	}
}

func TestCreateClient_HandleTaken(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockAuth := mocks.NewMockAuthService(ctrl)
	h := NewAuthHandler(mockAuth)

	mockAuth.EXPECT().Register(gomock.Any(), gomock.Any(), gomock.Any()).Return(int64(0), apperror.ErrHandleTaken())

	c, w := jsonContext(t, http.MethodPost, "/clients", dto.CreateClientRequest{Username: "taken", Password: "pw"})
	h.CreateClient(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "ACC_001", errorCode(t, w))
}

func TestGetClient(t *testing.T) {
	ctrl := gomock.NewController(t)
	h := NewAuthHandler(mocks.NewMockAuthService(ctrl))

	c, w := jsonContext(t, http.MethodGet, "/clients", nil)
	c.Set(middleware.CtxAccount, &domain.Account{ID: 3, Handle: "bob", SecretHash: "hash", Balance: decimal.RequireFromString("12.5")})
	h.GetClient(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, "bob", data["username"])
	assert.Equal(t, "12.50", data["balance"])
	assert.NotContains(t, w.Body.String(), "hash")
}

func TestGetClient_NoActor(t *testing.T) {
	ctrl := gomock.NewController(t)
	h := NewAuthHandler(mocks.NewMockAuthService(ctrl))

	c, w := jsonContext(t, http.MethodGet, "/clients", nil)
	h.GetClient(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestToken_JSON(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockAuth := mocks.NewMockAuthService(ctrl)
	h := NewAuthHandler(mockAuth)

	expiry := time.Now().Add(24 * time.Hour)
	mockAuth.EXPECT().Login(gomock.Any(), "alice", "pw").Return(&ports.Session{Token: "jwt-token-123", ExpiresAt: expiry}, nil)

	c, w := jsonContext(t, http.MethodPost, "/auth/token", dto.TokenRequest{Username: "alice", Password: "pw"})
	h.Token(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, "jwt-token-123", data["access_token"])
	assert.Equal(t, "bearer", data["token_type"])
	assert.Equal(t, float64(expiry.Unix()), data["expires_at"])
}

func TestToken_Form(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockAuth := mocks.NewMockAuthService(ctrl)
	h := NewAuthHandler(mockAuth)

	mockAuth.EXPECT().Login(gomock.Any(), "alice", "pw").Return(&ports.Session{Token: "tok", ExpiresAt: time.Now()}, nil)

	form := url.Values{"grant_type": {"password"}, "username": {"alice"}, "password": {"pw"}}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(form.Encode()))
	c.Request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	h.Token(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "tok", decodeData(t, w)["access_token"])
}

func TestToken_AuthFailed(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockAuth := mocks.NewMockAuthService(ctrl)
	h := NewAuthHandler(mockAuth)

	mockAuth.EXPECT().Login(gomock.Any(), "alice", "wrong").Return(nil, apperror.ErrAuthFailed())

	c, w := jsonContext(t, http.MethodPost, "/auth/token", dto.TokenRequest{Username: "alice", Password: "wrong"})
	h.Token(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "AUTH_002", errorCode(t, w))
}

func TestToken_MissingFields(t *testing.T) {
	ctrl := gomock.NewController(t)
	h := NewAuthHandler(mocks.NewMockAuthService(ctrl))

	c, w := jsonContext(t, http.MethodPost, "/auth/token", `{"username":"alice"}`)
	h.Token(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// --- Ledger Handler Tests ---

func newLedgerHandler(t *testing.T) (*LedgerHandler, *mocks.MockLedgerService, *mocks.MockHistoryReader) {
	ctrl := gomock.NewController(t)
	ledger := mocks.NewMockLedgerService(ctrl)
	history := mocks.NewMockHistoryReader(ctrl)
	return NewLedgerHandler(ledger, history), ledger, history
}

type decimalMatcher struct{ want decimal.Decimal }

func (m decimalMatcher) Matches(x any) bool {
	d, ok := x.(decimal.Decimal)
	return ok && d.Equal(m.want)
}

func (m decimalMatcher) String() string { return "is decimal " + m.want.String() }

func TestTopup_Success(t *testing.T) {
	h, ledger, _ := newLedgerHandler(t)

	ledger.EXPECT().Topup(gomock.Any(), "bob", decimalMatcher{decimal.RequireFromString("100.5")}).
		Return(&domain.Movement{ID: 11}, nil)

	c, w := jsonContext(t, http.MethodPost, "/topup", `{"to":"bob","amount":"100.50"}`)
	h.Topup(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, true, data["status"])
	assert.Equal(t, float64(11), data["movement_id"])
}

func TestTopup_Errors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"unknown handle", apperror.ErrNotFound("account"), http.StatusNotFound, "LED_003"},
		{"bad amount", apperror.ErrInvalidAmount("amount must be positive"), http.StatusBadRequest, "LED_001"},
		{"store fault", apperror.InternalError(errors.New("db down")), http.StatusInternalServerError, "SYS_001"},
		{"timeout", apperror.ErrTimeout(errors.New("deadline")), http.StatusServiceUnavailable, "SYS_002"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, ledger, _ := newLedgerHandler(t)
			ledger.EXPECT().Topup(gomock.Any(), "bob", gomock.Any()).Return(nil, tt.err)

			c, w := jsonContext(t, http.MethodPost, "/topup", `{"to":"bob","amount":1}`)
			h.Topup(c)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, errorCode(t, w))
		})
	}
}

func TestTopup_MalformedAmount(t *testing.T) {
	h, _, _ := newLedgerHandler(t)

	c, w := jsonContext(t, http.MethodPost, "/topup", `{"to":"bob","amount":"ten"}`)
	h.Topup(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTransfer_Success(t *testing.T) {
	h, ledger, _ := newLedgerHandler(t)
	actor := &domain.Account{ID: 1, Handle: "alice", Balance: decimal.NewFromInt(50)}

	ledger.EXPECT().Transfer(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req ports.TransferRequest) (*domain.Movement, error) {
			assert.Same(t, actor, req.Actor)
			assert.True(t, req.Amount.Equal(decimal.NewFromInt(30)))
			require.NotNil(t, req.To.Handle)
			assert.Equal(t, "bob", *req.To.Handle)
			assert.Nil(t, req.To.ID)
			return &domain.Movement{ID: 5}, nil
		})

	c, w := jsonContext(t, http.MethodPost, "/transfers", `{"to":"bob","amount":30}`)
	c.Set(middleware.CtxAccount, actor)
	h.Transfer(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decodeData(t, w)["status"])
}

func TestTransfer_InsufficientFunds(t *testing.T) {
	h, ledger, _ := newLedgerHandler(t)

	ledger.EXPECT().Transfer(gomock.Any(), gomock.Any()).Return(nil, apperror.ErrInsufficientFunds())

	c, w := jsonContext(t, http.MethodPost, "/transfers", `{"to":"bob","amount":"100.01"}`)
	c.Set(middleware.CtxAccount, &domain.Account{ID: 1})
	h.Transfer(c)

	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	assert.Equal(t, "LED_002", errorCode(t, w))
}

func TestTransfer_NoActor(t *testing.T) {
	h, _, _ := newLedgerHandler(t)

	c, w := jsonContext(t, http.MethodPost, "/transfers", `{"to":"bob","amount":1}`)
	h.Transfer(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestListTransfers(t *testing.T) {
	h, _, history := newLedgerHandler(t)
	alice := "alice"
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	history.EXPECT().ListMovements(gomock.Any(), int64(1), 2).Return([]domain.MovementView{
		{ID: 9, Amount: decimal.NewFromInt(5), FromHandle: &alice, ToHandle: "bob", CreatedAt: at},
		{ID: 8, Amount: decimal.NewFromInt(10), ToHandle: "alice", CreatedAt: at},
	}, nil)

	c, w := jsonContext(t, http.MethodGet, "/transfers?page_num=2", nil)
	c.Set(middleware.CtxAccount, &domain.Account{ID: 1})
	h.ListTransfers(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data []dto.TransferResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "alice", *resp.Data[0].FromUsername)
	assert.Nil(t, resp.Data[1].FromUsername)
	assert.Equal(t, "10.00", resp.Data[1].Amount)
}

func TestListTransfers_DefaultsToFirstPage(t *testing.T) {
	h, _, history := newLedgerHandler(t)

	history.EXPECT().ListMovements(gomock.Any(), int64(1), 0).Return([]domain.MovementView{}, nil)

	c, w := jsonContext(t, http.MethodGet, "/transfers", nil)
	c.Set(middleware.CtxAccount, &domain.Account{ID: 1})
	h.ListTransfers(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, string(mustField(t, w.Body.Bytes(), "data")))
}

func TestListTransfers_BadPageNum(t *testing.T) {
	h, _, _ := newLedgerHandler(t)

	for _, q := range []string{"page_num=-1", "page_num=abc"} {
		c, w := jsonContext(t, http.MethodGet, "/transfers?"+q, nil)
		c.Set(middleware.CtxAccount, &domain.Account{ID: 1})
		h.ListTransfers(c)

		assert.Equal(t, http.StatusBadRequest, w.Code, q)
		assert.Equal(t, "ACC_002", errorCode(t, w), q)
	}
}

func mustField(t *testing.T, body []byte, field string) json.RawMessage {
	t.Helper()
	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(body, &m))
	return m[field]
}

// --- Health Check Tests ---

func TestHealthCheck(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)

	HealthCheck()(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
}

func TestHealthCheck_Degraded(t *testing.T) {
	ctrl := gomock.NewController(t)
	pg := mocks.NewMockHealthChecker(ctrl)
	rd := mocks.NewMockHealthChecker(ctrl)

	pg.EXPECT().Ping(gomock.Any()).Return(nil)
	pg.EXPECT().Name().Return("postgresql").AnyTimes()
	rd.EXPECT().Ping(gomock.Any()).Return(errors.New("connection refused"))
	rd.EXPECT().Name().Return("redis").AnyTimes()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)

	HealthCheck(pg, rd)(c)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
	assert.Contains(t, w.Body.String(), `"degraded"`)
}
