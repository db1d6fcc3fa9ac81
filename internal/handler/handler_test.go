package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

func httpDo(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		b, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// newMockDB gorm over sqlmock with the postgres dialector
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func setupMockRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db, mock := newMockDB(t)

	r := gin.New()
	deposits := NewDepositHandler(db)
	r.GET("/api/deposits", deposits.GetDeposits)
	r.POST("/api/deposits", deposits.CreateDeposit)
	projects := NewProjectHandler(db)
	r.GET("/api/projects/:id", projects.GetProject)
	ledger := NewLedgerHandler(db)
	r.GET("/api/audit", ledger.GetAuditTrail)
	return r, mock
}

func TestDatabaseFailureReturnsGenericMessage(t *testing.T) {
	r, mock := setupMockRouter(t)

	mock.ExpectQuery(`SELECT \* FROM "vault_deposits"`).WillReturnError(errors.New("connection refused"))
	w := httpDo(r, http.MethodGet, "/api/deposits", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"message":"Failed to fetch deposits"}`, w.Body.String())

	mock.ExpectQuery(`FROM "projects"`).WillReturnError(errors.New("connection refused"))
	w = httpDo(r, http.MethodGet, "/api/projects/1", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")

	mock.ExpectQuery(`FROM "audit_trail"`).WillReturnError(errors.New("connection refused"))
	w = httpDo(r, http.MethodGet, "/api/audit", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateDepositRollsBackOnInsertFailure(t *testing.T) {
	r, mock := setupMockRouter(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "vault_deposits"`).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	w := httpDo(r, http.MethodPost, "/api/deposits", gin.H{
		"walletAddress": "0xabc",
		"amount":        "10",
		"txHash":        "0x01",
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"message":"Failed to create deposit"}`, w.Body.String())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateDepositValidation(t *testing.T) {
	r, mock := setupMockRouter(t)

	cases := []gin.H{
		{"walletAddress": "0xabc", "amount": "abc", "txHash": "0x01"},
		{"walletAddress": "0xabc", "amount": -5, "txHash": "0x01"},
		{"walletAddress": "0xabc", "amount": 0, "txHash": "0x01"},
		{"walletAddress": "0xabc", "amount": "1e-10000000", "txHash": "0x01"},
		{"walletAddress": "0xabc", "amount": "1e400", "txHash": "0x01"},
		{"walletAddress": "0xabc", "txHash": "0x01"},
		{"amount": "10", "txHash": "0x01"},
		{"walletAddress": "0xabc", "amount": "10"},
	}
	for _, body := range cases {
		w := httpDo(r, http.MethodPost, "/api/deposits", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "%v", body)
		assert.Contains(t, w.Body.String(), `"message"`)
	}

	// nothing reaches the database
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetProjectInvalidId(t *testing.T) {
	r, _ := setupMockRouter(t)

	w := httpDo(r, http.MethodGet, "/api/projects/abc", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"message":"Project not found"}`, w.Body.String())
}
