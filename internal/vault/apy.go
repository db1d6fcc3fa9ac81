package vault

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/cleyfe/chaincare/internal/cache"
	"github.com/cleyfe/chaincare/internal/config"
	"github.com/cleyfe/chaincare/internal/logger"
	"github.com/cleyfe/chaincare/internal/metrics"
	"github.com/tidwall/gjson"
)

const (
	DefaultAPY   = 4.2
	apyCacheKey  = "vault:apy"
	maxAPYBodyMB = 1
)

// APYProvider 年化收益率来源
type APYProvider interface {
	APY(ctx context.Context) float64
}

type apyError struct {
	reason string
	err    error
}

func (e *apyError) Error() string { return e.reason + ": " + e.err.Error() }
func (e *apyError) Unwrap() error { return e.err }

// APYClient 从金库索引接口读取 APY，失败时返回兜底值
type APYClient struct {
	url       string
	vaultName string
	fallback  float64
	ttl       time.Duration
	client    *http.Client
	store     cache.Store
}

// NewAPYClient 创建 APY 客户端，store 为 nil 时不缓存
func NewAPYClient(cfg config.APYConfig, store cache.Store) *APYClient {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	fallback := cfg.Fallback
	if fallback == 0 {
		fallback = DefaultAPY
	}
	return &APYClient{
		url:       cfg.URL,
		vaultName: cfg.VaultName,
		fallback:  fallback,
		ttl:       time.Duration(cfg.CacheSeconds) * time.Second,
		client:    &http.Client{Timeout: timeout},
		store:     store,
	}
}

// APY 返回缓存值，缓存缺失时请求接口
func (a *APYClient) APY(ctx context.Context) float64 {
	if a.store != nil && a.ttl > 0 {
		if raw, ok, err := a.store.Get(ctx, apyCacheKey); err == nil && ok {
			if v, err := strconv.ParseFloat(raw, 64); err == nil {
				return v
			}
		}
	}
	return a.Refresh(ctx)
}

// Refresh 请求接口并更新缓存，兜底值不写入缓存
func (a *APYClient) Refresh(ctx context.Context) float64 {
	v, err := a.fetch(ctx)
	if err != nil {
		reason := "unknown"
		var ae *apyError
		if errors.As(err, &ae) {
			reason = ae.reason
		}
		metrics.RecordAPYFallback(reason)
		logger.Warn("Failed to fetch APY, using fallback %.2f: %v", a.fallback, err)
		return a.fallback
	}

	if a.store != nil && a.ttl > 0 {
		if err := a.store.Set(ctx, apyCacheKey, strconv.FormatFloat(v, 'f', -1, 64), a.ttl); err != nil {
			logger.Warn("Failed to cache APY: %v", err)
		}
	}
	return v
}

func (a *APYClient) fetch(ctx context.Context) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.url, nil)
	if err != nil {
		return 0, &apyError{"request", err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return 0, &apyError{"transport", err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, &apyError{"status", fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxAPYBodyMB<<20))
	if err != nil {
		return 0, &apyError{"transport", err}
	}
	if !gjson.ValidBytes(body) {
		return 0, &apyError{"decode", errors.New("response is not valid JSON")}
	}

	entry := gjson.GetBytes(body, fmt.Sprintf(`vaults.#(name==%q)`, a.vaultName))
	if !entry.Exists() {
		return 0, &apyError{"missing", fmt.Errorf("vault %q not found", a.vaultName)}
	}

	apy := entry.Get("apy")
	var v float64
	switch apy.Type {
	case gjson.Number:
		v = apy.Float()
	case gjson.String:
		v, err = strconv.ParseFloat(apy.Str, 64)
		if err != nil {
			return 0, &apyError{"value", fmt.Errorf("apy %q is not numeric", apy.Str)}
		}
	default:
		return 0, &apyError{"value", fmt.Errorf("apy has type %s", apy.Type)}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &apyError{"value", fmt.Errorf("apy %v is not finite", v)}
	}
	return v, nil
}
