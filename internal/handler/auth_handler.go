package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/cleyfe/chaincare/internal/logic"
	"github.com/cleyfe/chaincare/internal/middleware"
	"github.com/gin-gonic/gin"
)

// AuthHandler 用户名密码与钱包签名登录
type AuthHandler struct {
	userLogic    *logic.UserLogic
	secureCookie bool
}

func NewAuthHandler(userLogic *logic.UserLogic, secureCookie bool) *AuthHandler {
	return &AuthHandler{
		userLogic:    userLogic,
		secureCookie: secureCookie,
	}
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, session *logic.Session) {
	maxAge := int(time.Until(session.ExpiresAt).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, session.Token, maxAge, "/", "", h.secureCookie, true)
}

// Register 注册并直接登录
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Username and password are required")
		return
	}

	user, err := h.userLogic.Register(c.Request.Context(), req.Username, req.Password, req.WalletAddress)
	if err != nil {
		switch {
		case errors.Is(err, logic.ErrUserExists):
			ErrorResponse(c, http.StatusConflict, err.Error())
		case errors.Is(err, logic.ErrInvalidInput), errors.Is(err, logic.ErrInvalidAddress):
			ErrorResponse(c, http.StatusBadRequest, err.Error())
		default:
			InternalError(c, "Failed to register", err)
		}
		return
	}

	session, err := h.userLogic.IssueSession(user.Username, user.Id, user.WalletAddress)
	if err != nil {
		InternalError(c, "Failed to create session", err)
		return
	}
	h.setSessionCookie(c, session)
	c.JSON(http.StatusCreated, SessionResponse{User: user, Token: session.Token, ExpiresAt: session.ExpiresAt})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Username and password are required")
		return
	}

	user, err := h.userLogic.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, logic.ErrInvalidCredentials) {
			ErrorResponse(c, http.StatusUnauthorized, err.Error())
			return
		}
		InternalError(c, "Failed to log in", err)
		return
	}

	session, err := h.userLogic.IssueSession(user.Username, user.Id, user.WalletAddress)
	if err != nil {
		InternalError(c, "Failed to create session", err)
		return
	}
	h.setSessionCookie(c, session)
	c.JSON(http.StatusOK, SessionResponse{User: user, Token: session.Token, ExpiresAt: session.ExpiresAt})
}

// Logout 注销当前令牌并清除 cookie
func (h *AuthHandler) Logout(c *gin.Context) {
	claims, _ := middleware.ClaimsFrom(c)
	if err := h.userLogic.Logout(c.Request.Context(), claims); err != nil {
		InternalError(c, "Failed to log out", err)
		return
	}
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", h.secureCookie, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// GetUser 当前会话的用户；钱包会话只返回地址
func (h *AuthHandler) GetUser(c *gin.Context) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		ErrorResponse(c, http.StatusUnauthorized, "Not authenticated")
		return
	}
	if claims.UserId == 0 {
		c.JSON(http.StatusOK, gin.H{"walletAddress": claims.Wallet})
		return
	}

	user, err := h.userLogic.GetUser(c.Request.Context(), claims.UserId)
	if err != nil {
		if errors.Is(err, logic.ErrUserNotFound) {
			ErrorResponse(c, http.StatusUnauthorized, "Not authenticated")
			return
		}
		InternalError(c, "Failed to fetch user", err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// Nonce 生成钱包登录待签名消息
func (h *AuthHandler) Nonce(c *gin.Context) {
	var req NonceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Address is required")
		return
	}

	message, err := h.userLogic.CreateNonce(c.Request.Context(), req.Address)
	if err != nil {
		if errors.Is(err, logic.ErrInvalidAddress) {
			ErrorResponse(c, http.StatusBadRequest, err.Error())
			return
		}
		InternalError(c, "Failed to create nonce", err)
		return
	}
	c.JSON(http.StatusOK, NonceResponse{Message: message})
}

// WalletLogin 校验签名后签发以钱包地址为主体的会话
func (h *AuthHandler) WalletLogin(c *gin.Context) {
	var req WalletLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Address and signature are required")
		return
	}

	addr, err := h.userLogic.VerifyWallet(c.Request.Context(), req.Address, req.Signature)
	if err != nil {
		switch {
		case errors.Is(err, logic.ErrInvalidAddress):
			ErrorResponse(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, logic.ErrNonceNotFound), errors.Is(err, logic.ErrInvalidSignature):
			ErrorResponse(c, http.StatusUnauthorized, err.Error())
		default:
			InternalError(c, "Failed to verify wallet", err)
		}
		return
	}

	session, err := h.userLogic.IssueSession(addr.Hex(), 0, addr.Hex())
	if err != nil {
		InternalError(c, "Failed to create session", err)
		return
	}
	h.setSessionCookie(c, session)
	c.JSON(http.StatusOK, SessionResponse{Wallet: addr.Hex(), Token: session.Token, ExpiresAt: session.ExpiresAt})
}
