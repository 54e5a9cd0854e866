package wallet

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/untilthen/untilthen-go/internal/content/eciesenc"
	"github.com/untilthen/untilthen-go/internal/errs"
)

// Well-known anvil/hardhat dev key, account 0.
const devKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

func TestFromHexKey_Address(t *testing.T) {
	w, err := FromHexKey("0x"+devKey, nil, zap.NewNop())
	require.NoError(t, err)
	require.Equal(t, "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266", w.Address().Hex())

	_, err = FromHexKey("zz", nil, zap.NewNop())
	require.Error(t, err)
}

func TestEncryptionRoundTripThroughWallet(t *testing.T) {
	w, err := FromHexKey(devKey, nil, zap.NewNop())
	require.NoError(t, err)

	ct, err := eciesenc.New().Encrypt([]byte("open me in 2031"), w.EncryptionPublicKey())
	require.NoError(t, err)

	pt, err := w.Decrypt(context.Background(), w.Address(), ct)
	require.NoError(t, err)
	require.Equal(t, "open me in 2031", string(pt))
}

func TestDecrypt_Declined(t *testing.T) {
	declineAll := func(context.Context, string) bool { return false }
	w, err := FromHexKey(devKey, declineAll, zap.NewNop())
	require.NoError(t, err)

	_, err = w.Decrypt(context.Background(), w.Address(), "deadbeef")
	require.True(t, errors.Is(err, errs.ErrDecryptionDeclined))
}

func TestDecrypt_GarbageWrapsUnknown(t *testing.T) {
	w, err := FromHexKey(devKey, nil, zap.NewNop())
	require.NoError(t, err)

	_, err = w.Decrypt(context.Background(), w.Address(), "deadbeef")
	require.True(t, errors.Is(err, errs.ErrUnknown), "got %v", err)
}

func TestSignerFn(t *testing.T) {
	w, err := FromHexKey(devKey, nil, zap.NewNop())
	require.NoError(t, err)

	sign := w.SignerFn(big.NewInt(11155111))
	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   big.NewInt(11155111),
		Nonce:     0,
		Gas:       21000,
		GasFeeCap: big.NewInt(1),
		GasTipCap: big.NewInt(1),
		Value:     big.NewInt(1),
	})

	signed, err := sign(w.Address(), tx)
	require.NoError(t, err)
	require.NotEqual(t, tx.Hash(), signed.Hash())

	_, err = sign(common.Address{}, tx)
	require.Error(t, err)
}

func TestSignerFn_Declined(t *testing.T) {
	declineAll := func(context.Context, string) bool { return false }
	w, err := FromHexKey(devKey, declineAll, zap.NewNop())
	require.NoError(t, err)

	sign := w.SignerFn(big.NewInt(1))
	_, err = sign(w.Address(), types.NewTx(&types.LegacyTx{Gas: 21000, GasPrice: big.NewInt(1)}))
	require.True(t, errors.Is(err, errs.ErrUserRejected))
}
