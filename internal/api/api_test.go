package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"prize_wheel/internal/db"
	"prize_wheel/internal/domain"
	"prize_wheel/internal/identity"
	"prize_wheel/internal/jackpot"
	"prize_wheel/internal/ledger"
	"prize_wheel/internal/outbox"
	"prize_wheel/internal/prize"
	"prize_wheel/internal/store"
	"prize_wheel/internal/withdrawal"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type lowestSource struct{}

func (lowestSource) Float64() float64 { return 0 }

type testEnv struct {
	router  *gin.Engine
	records *store.CachedRecords
	gdb     *gorm.DB
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))

	log, _ := logtest.NewNullLogger()
	records := store.NewCachedRecords(store.NewRecords(gdb), nil, log)
	engine := jackpot.NewEngine(store.NewJackpot(gdb), 0, log)
	rec := outbox.NewReconciler(outbox.NewMemoryQueue(), records, 3, log)
	svc := ledger.NewService(ledger.Deps{
		Records:  records,
		Jackpot:  engine,
		Selector: prize.NewSelector(lowestSource{}),
		Outbox:   rec,
		Log:      log,
	})
	srv := &Server{
		Identity:   identity.NewProvider(records, "api-test", log).WithCost(bcrypt.MinCost),
		Ledger:     svc,
		Withdrawal: withdrawal.NewProcessor(withdrawal.DefaultPolicy(), svc, 0, log),
		Jackpot:    engine,
		Records:    records,
		Reconciler: rec,
		Log:        log,
	}
	r := gin.New()
	srv.Register(r)
	return &testEnv{router: r, records: records, gdb: gdb}
}

func (e *testEnv) call(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var req *http.Request
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		req = httptest.NewRequest(method, path, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func (e *testEnv) signIn(t *testing.T, referral string) (string, string) {
	t.Helper()
	var body any
	if referral != "" {
		body = gin.H{"referral_code": referral}
	}
	w, out := e.call(t, http.MethodPost, "/session/anonymous", "", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return out["token"].(string), out["user_id"].(string)
}

func (e *testEnv) setBalance(t *testing.T, userID string, balance int64) {
	t.Helper()
	_, err := e.records.Mutate(context.Background(), userID, func(rec *domain.LedgerRecord) error {
		rec.Balance = balance
		return nil
	})
	require.NoError(t, err)
}

func TestSpinFlow(t *testing.T) {
	e := newEnv(t)
	token, userID := e.signIn(t, "")

	w, out := e.call(t, http.MethodGet, "/ledger", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	rec := out["record"].(map[string]any)
	assert.Equal(t, userID, rec["user_id"])
	assert.EqualValues(t, 0, rec["balance"])

	w, out = e.call(t, http.MethodPost, "/ledger/spin", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, out["persisted"])
	rec = out["record"].(map[string]any)
	assert.EqualValues(t, 2, rec["balance"])
	assert.Len(t, rec["notifications"], 1)
	assert.Len(t, out["events"], 1)

	stored, err := e.records.Get(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stored.Balance)

	w, out = e.call(t, http.MethodDelete, "/ledger/notifications", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, out["record"].(map[string]any)["notifications"])
}

func TestLedgerRequiresToken(t *testing.T) {
	e := newEnv(t)
	w, _ := e.call(t, http.MethodPost, "/ledger/spin", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w, _ = e.call(t, http.MethodGet, "/ledger", "nonsense", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWithdrawalFlow(t *testing.T) {
	e := newEnv(t)
	token, userID := e.signIn(t, "")
	e.setBalance(t, userID, 600)

	w, out := e.call(t, http.MethodPost, "/withdrawals/quote", token, gin.H{"amount": 7})
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 700, out["required"])
	assert.EqualValues(t, 12, out["gamepass_amount"])
	assert.Equal(t, false, out["affordable"])

	w, out = e.call(t, http.MethodPost, "/withdrawals", token, gin.H{"amount_requested": 7, "reward_account_handle": "bob"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.EqualValues(t, domain.CodeInsufficientBalance, out["code"])
	assert.EqualValues(t, 100, out["deficit"])

	w, out = e.call(t, http.MethodPost, "/withdrawals", token, gin.H{"amount_requested": 6, "reward_account_handle": "bob"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.EqualValues(t, domain.CodeInvalidAmount, out["code"])

	e.setBalance(t, userID, 700)
	w, out = e.call(t, http.MethodPost, "/withdrawals", token, gin.H{"amount_requested": 7, "reward_account_handle": "bob"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	conf := out["confirmation"].(map[string]any)
	assert.EqualValues(t, 700, conf["deducted"])
	assert.EqualValues(t, 12, conf["gamepass_amount"])

	stored, err := e.records.Get(context.Background(), userID)
	require.NoError(t, err)
	assert.Zero(t, stored.Balance)
	require.Len(t, stored.Notifications, 1)
}

func TestWithdrawalFractionalAmount(t *testing.T) {
	e := newEnv(t)
	token, userID := e.signIn(t, "")
	e.setBalance(t, userID, 1000)

	for _, amount := range []any{7.5, "seven"} {
		w, out := e.call(t, http.MethodPost, "/withdrawals", token, gin.H{"amount_requested": amount, "reward_account_handle": "bob"})
		require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		assert.EqualValues(t, domain.CodeInvalidAmount, out["code"])
	}

	w, out := e.call(t, http.MethodPost, "/withdrawals/quote", token, gin.H{"amount": 7.5})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.EqualValues(t, domain.CodeInvalidAmount, out["code"])

	// a body that is not JSON at all stays a plain bad request
	w, out = e.call(t, http.MethodPost, "/withdrawals", token, "not json")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.EqualValues(t, domain.CodeInvalidRequest, out["code"])

	stored, err := e.records.Get(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), stored.Balance)
}

func TestWithdrawalCreditsReferrer(t *testing.T) {
	e := newEnv(t)
	_, referrerID := e.signIn(t, "")
	referrer, err := e.records.Get(context.Background(), referrerID)
	require.NoError(t, err)

	token, userID := e.signIn(t, referrer.ReferralCode)
	e.setBalance(t, userID, 700)

	w, out := e.call(t, http.MethodPost, "/withdrawals", token, gin.H{"amount_requested": 7, "reward_account_handle": "bob"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	conf := out["confirmation"].(map[string]any)
	assert.EqualValues(t, 70, conf["referral_bonus"])
	assert.Equal(t, true, conf["referrer_credited"])

	referrer, err = e.records.Get(context.Background(), referrerID)
	require.NoError(t, err)
	assert.Equal(t, int64(70), referrer.Balance)
}

func TestUnknownReferralCode(t *testing.T) {
	e := newEnv(t)
	w, out := e.call(t, http.MethodPost, "/session/anonymous", "", gin.H{"referral_code": "ZZZZZZZZ"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.EqualValues(t, domain.CodeInvalidReferral, out["code"])
}

func TestRegisterLogin(t *testing.T) {
	e := newEnv(t)
	w, _ := e.call(t, http.MethodPost, "/user", "", gin.H{"username": "wheelie", "password": "password123"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w, _ = e.call(t, http.MethodPost, "/user", "", gin.H{"username": "wheelie", "password": "password123"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, out := e.call(t, http.MethodGet, "/user", "", gin.H{"username": "wheelie", "password": "password123"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, out["token"])

	w, _ = e.call(t, http.MethodGet, "/user", "", gin.H{"username": "wheelie", "password": "nope-nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPublicEndpoints(t *testing.T) {
	e := newEnv(t)

	w, out := e.call(t, http.MethodGet, "/jackpot", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, out["jackpot"])
	assert.Equal(t, "Jackpot: 0 XD", out["label"])

	w, out = e.call(t, http.MethodGet, "/wheel", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, out["segments"], prize.DefaultTable().Len())
	assert.EqualValues(t, 45, out["arc"])
}

func TestAdminRoutes(t *testing.T) {
	e := newEnv(t)
	token, userID := e.signIn(t, "")

	w, _ := e.call(t, http.MethodGet, "/admin/records", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	require.NoError(t, e.gdb.Model(&domain.LedgerRecord{}).Where("user_id = ?", userID).Update("role", domain.RoleAdmin).Error)

	w, out := e.call(t, http.MethodGet, "/admin/records?page_size=10", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, out["total"])
	assert.EqualValues(t, 10, out["page_size"])

	w, out = e.call(t, http.MethodGet, "/admin/outbox", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, out["pending"])

	w, _ = e.call(t, http.MethodPost, "/admin/outbox/drain", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
