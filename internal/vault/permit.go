package vault

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// USDC EIP-2612 域
const (
	PermitDomainName    = "USD Coin"
	PermitDomainVersion = "2"
	permitValidity      = 3600 // 秒
)

// PermitTypedData 构造 EIP-2612 permit 的 EIP-712 结构化数据
func PermitTypedData(chainID *big.Int, token, owner, spender common.Address, value, nonce, deadline *big.Int) apitypes.TypedData {
	return apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": {
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
				{Name: "verifyingContract", Type: "address"},
			},
			"Permit": {
				{Name: "owner", Type: "address"},
				{Name: "spender", Type: "address"},
				{Name: "value", Type: "uint256"},
				{Name: "nonce", Type: "uint256"},
				{Name: "deadline", Type: "uint256"},
			},
		},
		PrimaryType: "Permit",
		Domain: apitypes.TypedDataDomain{
			Name:              PermitDomainName,
			Version:           PermitDomainVersion,
			ChainId:           (*math.HexOrDecimal256)(new(big.Int).Set(chainID)),
			VerifyingContract: token.Hex(),
		},
		Message: apitypes.TypedDataMessage{
			"owner":    owner.Hex(),
			"spender":  spender.Hex(),
			"value":    value.String(),
			"nonce":    nonce.String(),
			"deadline": deadline.String(),
		},
	}
}

// SplitSignature 拆分 65 字节签名，v 统一为 27/28
func SplitSignature(sig []byte) (v uint8, r, s [32]byte, err error) {
	if len(sig) != 65 {
		return 0, r, s, fmt.Errorf("signature must be 65 bytes, got %d", len(sig))
	}
	copy(r[:], sig[:32])
	copy(s[:], sig[32:64])
	v = sig[64]
	if v < 27 {
		v += 27
	}
	if v != 27 && v != 28 {
		return 0, r, s, fmt.Errorf("invalid signature recovery id %d", sig[64])
	}
	return v, r, s, nil
}

// ApproveWithPermit 签名 permit 授权金库使用 amount，并在代币合约上提交 permit
func (v *Vault) ApproveWithPermit(ctx context.Context, amount string) (*TxResult, error) {
	if v.signer == nil {
		return nil, ErrNoSigner
	}
	value, err := parsePositive(amount, v.decimals)
	if err != nil {
		return nil, err
	}

	owner := v.signer.Address()
	nonce, err := v.callUint(ctx, v.token, "nonces", owner)
	if err != nil {
		return nil, err
	}
	chainID, err := v.backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("get chain id: %w", err)
	}
	deadline := big.NewInt(v.now().Unix() + permitValidity)

	data := PermitTypedData(chainID, v.tokenAddr, owner, v.vaultAddr, value, nonce, deadline)
	sig, err := v.signer.SignTypedData(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSignatureRejected, err)
	}
	sv, r, s, err := SplitSignature(sig)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSignatureRejected, err)
	}

	return v.transact(ctx, v.token, "permit", owner, v.vaultAddr, value, deadline, sv, r, s)
}
