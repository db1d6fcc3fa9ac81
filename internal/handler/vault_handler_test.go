package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/cleyfe/chaincare/internal/vault"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeVault struct {
	signer  bool
	err     error
	amounts []string
}

func (f *fakeVault) HasSigner() bool { return f.signer }

func (f *fakeVault) TotalAssets(context.Context) (string, error) { return "1000.5", f.err }

func (f *fakeVault) PricePerShare(context.Context) (string, error) { return "1.02", f.err }

func (f *fakeVault) Balance(_ context.Context, addr common.Address) (string, error) {
	return "12.5", f.err
}

func (f *fakeVault) MaxDeposit(context.Context, common.Address) (string, error) { return "500", f.err }

func (f *fakeVault) Allowance(context.Context, common.Address) (string, error) { return "75", f.err }

func (f *fakeVault) EstimateGas(_ context.Context, from common.Address, amount string) (*vault.GasEstimate, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &vault.GasEstimate{Approval: 46000, Deposit: 120000, Total: 166000}, nil
}

func (f *fakeVault) tx(amount string) (*vault.TxResult, error) {
	f.amounts = append(f.amounts, amount)
	if f.err != nil {
		return nil, f.err
	}
	return &vault.TxResult{Hash: common.HexToHash("0x01")}, nil
}

func (f *fakeVault) Deposit(_ context.Context, amount string) (*vault.TxResult, error) {
	return f.tx(amount)
}

func (f *fakeVault) Withdraw(_ context.Context, amount string) (*vault.TxResult, error) {
	return f.tx(amount)
}

func (f *fakeVault) Approve(_ context.Context, amount string) (*vault.TxResult, error) {
	return f.tx(amount)
}

func (f *fakeVault) ApproveWithPermit(_ context.Context, amount string) (*vault.TxResult, error) {
	return f.tx(amount)
}

type fixedAPY float64

func (f fixedAPY) APY(context.Context) float64 { return float64(f) }

func setupVaultRouter(v VaultService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewVaultHandler(v, fixedAPY(8))
	r.GET("/apy", h.GetAPY)
	r.GET("/impact", h.GetImpact)
	r.GET("/total-assets", h.GetTotalAssets)
	r.GET("/price-per-share", h.GetPricePerShare)
	r.GET("/balance/:address", h.GetBalance)
	r.GET("/max-deposit/:address", h.GetMaxDeposit)
	r.GET("/allowance/:address", h.GetAllowance)
	r.GET("/estimate", h.GetGasEstimate)
	r.POST("/deposit", h.Deposit)
	r.POST("/withdraw", h.Withdraw)
	r.POST("/permit", h.Permit)
	r.POST("/approve", h.Approve)
	return r
}

func TestVaultReads(t *testing.T) {
	r := setupVaultRouter(&fakeVault{})
	addr := "0x00000000000000000000000000000000000A11cE"

	w := httpDo(r, http.MethodGet, "/apy", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"apy":8}`, w.Body.String())

	w = httpDo(r, http.MethodGet, "/total-assets", nil)
	assert.JSONEq(t, `{"value":"1000.5"}`, w.Body.String())

	w = httpDo(r, http.MethodGet, "/price-per-share", nil)
	assert.JSONEq(t, `{"value":"1.02"}`, w.Body.String())

	w = httpDo(r, http.MethodGet, "/balance/"+addr, nil)
	assert.JSONEq(t, `{"value":"12.5"}`, w.Body.String())

	w = httpDo(r, http.MethodGet, "/max-deposit/"+addr, nil)
	assert.JSONEq(t, `{"value":"500"}`, w.Body.String())

	w = httpDo(r, http.MethodGet, "/allowance/"+addr, nil)
	assert.JSONEq(t, `{"value":"75"}`, w.Body.String())

	w = httpDo(r, http.MethodGet, "/balance/not-an-address", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httpDo(r, http.MethodGet, "/estimate?amount=10&from="+addr, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"approval":46000,"deposit":120000,"total":166000}`, w.Body.String())
}

func TestVaultImpact(t *testing.T) {
	r := setupVaultRouter(nil)

	w := httpDo(r, http.MethodGet, "/impact?amount=1000", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"amount":"1000","apy":8,"yearlyYield":"80","depositorReturn":"40","estimatedImpact":"40"}`, w.Body.String())

	for _, amount := range []string{"lots", "-1", "1e-10000000", "1e400"} {
		w = httpDo(r, http.MethodGet, "/impact?amount="+amount, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, amount)
	}
}

func TestVaultNotConfigured(t *testing.T) {
	r := setupVaultRouter(nil)

	for _, path := range []string{"/total-assets", "/price-per-share", "/estimate?amount=1"} {
		w := httpDo(r, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code, path)
	}
	w := httpDo(r, http.MethodPost, "/deposit", gin.H{"amount": "1"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	// APY is served without a chain
	w = httpDo(r, http.MethodGet, "/apy", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestVaultOperations(t *testing.T) {
	readOnly := &fakeVault{}
	r := setupVaultRouter(readOnly)
	w := httpDo(r, http.MethodPost, "/withdraw", gin.H{"amount": "1"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"message":"Server signer is not configured"}`, w.Body.String())

	v := &fakeVault{signer: true}
	r = setupVaultRouter(v)
	for _, path := range []string{"/deposit", "/withdraw", "/permit", "/approve"} {
		w = httpDo(r, http.MethodPost, path, gin.H{"amount": "2.5"})
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
	assert.Equal(t, []string{"2.5", "2.5", "2.5", "2.5"}, v.amounts)

	w = httpDo(r, http.MethodPost, "/deposit", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVaultErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{fmt.Errorf("%w: too many decimals", vault.ErrInvalidAmount), http.StatusBadRequest},
		{vault.ErrNoSigner, http.StatusServiceUnavailable},
		{fmt.Errorf("deposit: %w", vault.ErrReverted), http.StatusBadGateway},
		{errors.New("execution reverted: ERC20: transfer amount exceeds balance"), http.StatusBadGateway},
	}
	for _, tc := range cases {
		r := setupVaultRouter(&fakeVault{signer: true, err: tc.err})
		w := httpDo(r, http.MethodPost, "/deposit", gin.H{"amount": "1"})
		assert.Equal(t, tc.code, w.Code, tc.err.Error())
		assert.Contains(t, w.Body.String(), tc.err.Error())
	}
}
