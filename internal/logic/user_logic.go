package logic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cleyfe/chaincare/internal/cache"
	"github.com/cleyfe/chaincare/internal/config"
	"github.com/cleyfe/chaincare/internal/model"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	tokenIssuer      = "chaincare"
	minPasswordLen   = 8
	nonceKeyPrefix   = "auth:nonce:"
	revokedKeyPrefix = "auth:revoked:"
)

// Claims 会话令牌。Subject 为用户名或钱包地址
type Claims struct {
	UserId int64  `json:"uid,omitempty"`
	Wallet string `json:"wallet,omitempty"`
	jwt.RegisteredClaims
}

// Session 签发的会话
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Claims    *Claims   `json:"-"`
}

// UserLogic 用户与会话业务逻辑
type UserLogic struct {
	db       *gorm.DB
	store    cache.Store
	secret   []byte
	tokenTTL time.Duration
	nonceTTL time.Duration
	now      func() time.Time
}

// NewUserLogic 创建用户业务逻辑
func NewUserLogic(db *gorm.DB, store cache.Store, cfg config.AuthConfig) *UserLogic {
	tokenTTL := time.Duration(cfg.TokenTTLMinutes) * time.Minute
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	nonceTTL := time.Duration(cfg.NonceTTLSeconds) * time.Second
	if nonceTTL <= 0 {
		nonceTTL = 5 * time.Minute
	}
	return &UserLogic{
		db:       db,
		store:    store,
		secret:   []byte(cfg.JWTSecret),
		tokenTTL: tokenTTL,
		nonceTTL: nonceTTL,
		now:      time.Now,
	}
}

// Register 注册用户名密码账户
func (u *UserLogic) Register(ctx context.Context, username, password, wallet string) (*model.UserModel, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidInput)
	}
	if len(password) < minPasswordLen {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLen)
	}
	wallet = strings.TrimSpace(wallet)
	if wallet != "" && !common.IsHexAddress(wallet) {
		return nil, ErrInvalidAddress
	}

	db := u.db.WithContext(ctx)
	var count int64
	if err := db.Model(&model.UserModel{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}
	if count > 0 {
		return nil, ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("生成密码哈希失败: %w", err)
	}
	user := &model.UserModel{Username: username, PasswordHash: string(hash), WalletAddress: wallet}
	if err := db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("创建用户失败: %w", err)
	}
	return user, nil
}

// Login 校验用户名密码
func (u *UserLogic) Login(ctx context.Context, username, password string) (*model.UserModel, error) {
	var user model.UserModel
	if err := u.db.WithContext(ctx).Where("username = ?", strings.TrimSpace(username)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// GetUser 获取用户
func (u *UserLogic) GetUser(ctx context.Context, id int64) (*model.UserModel, error) {
	var user model.UserModel
	if err := u.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("获取用户失败: %w", err)
	}
	return &user, nil
}

// IssueSession 为用户或钱包签发令牌
func (u *UserLogic) IssueSession(subject string, userId int64, wallet string) (*Session, error) {
	now := u.now()
	expiresAt := now.Add(u.tokenTTL)
	claims := &Claims{
		UserId: userId,
		Wallet: wallet,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    tokenIssuer,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(u.secret)
	if err != nil {
		return nil, fmt.Errorf("签发令牌失败: %w", err)
	}
	return &Session{Token: token, ExpiresAt: expiresAt, Claims: claims}, nil
}

// ParseToken 校验令牌签名、有效期与注销状态
func (u *UserLogic) ParseToken(ctx context.Context, token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return u.secret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithTimeFunc(u.now))
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	if claims.ID != "" {
		_, revoked, err := u.store.Get(ctx, revokedKeyPrefix+claims.ID)
		if err != nil {
			return nil, fmt.Errorf("查询令牌状态失败: %w", err)
		}
		if revoked {
			return nil, ErrInvalidToken
		}
	}
	return claims, nil
}

// Logout 注销令牌直到其过期
func (u *UserLogic) Logout(ctx context.Context, claims *Claims) error {
	if claims == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}
	ttl := claims.ExpiresAt.Time.Sub(u.now())
	if ttl <= 0 {
		return nil
	}
	return u.store.Set(ctx, revokedKeyPrefix+claims.ID, "1", ttl)
}

// LoginMessage 钱包登录需要签名的消息
func LoginMessage(address common.Address, nonce string) string {
	return fmt.Sprintf("Sign in to ChainCare\nAddress: %s\nNonce: %s", address.Hex(), nonce)
}

// CreateNonce 为钱包生成一次性登录 nonce，返回待签名消息
func (u *UserLogic) CreateNonce(ctx context.Context, address string) (string, error) {
	if !common.IsHexAddress(address) {
		return "", ErrInvalidAddress
	}
	addr := common.HexToAddress(address)
	nonce := uuid.NewString()
	if err := u.store.Set(ctx, nonceKeyPrefix+addr.Hex(), nonce, u.nonceTTL); err != nil {
		return "", fmt.Errorf("保存登录 nonce 失败: %w", err)
	}
	return LoginMessage(addr, nonce), nil
}

// VerifyWallet 校验 personal_sign 签名，成功后 nonce 失效，返回校验和格式地址
func (u *UserLogic) VerifyWallet(ctx context.Context, address, signature string) (common.Address, error) {
	if !common.IsHexAddress(address) {
		return common.Address{}, ErrInvalidAddress
	}
	addr := common.HexToAddress(address)
	key := nonceKeyPrefix + addr.Hex()

	nonce, ok, err := u.store.Get(ctx, key)
	if err != nil {
		return common.Address{}, fmt.Errorf("读取登录 nonce 失败: %w", err)
	}
	if !ok {
		return common.Address{}, ErrNonceNotFound
	}

	sig, err := hexutil.Decode(signature)
	if err != nil || len(sig) != crypto.SignatureLength {
		return common.Address{}, ErrInvalidSignature
	}
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}

	pub, err := crypto.SigToPub(accounts.TextHash([]byte(LoginMessage(addr, nonce))), sig)
	if err != nil || crypto.PubkeyToAddress(*pub) != addr {
		return common.Address{}, ErrInvalidSignature
	}

	if err := u.store.Delete(ctx, key); err != nil {
		return common.Address{}, fmt.Errorf("删除登录 nonce 失败: %w", err)
	}
	return addr, nil
}
