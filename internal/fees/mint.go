// internal/fees/mint.go
package fees

import (
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go/programs/token"

	"github.com/rovshanmuradov/solana-paymaster/internal/utils/binary"
)

// Смещения полей в записи минта SPL Token
const (
	mintAuthorityTagOffset   = 0
	mintInitializedOffset    = 45
	freezeAuthorityTagOffset = 46
)

var errMintNotInitialized = errors.New("mint is not initialized")

// decodeMint разбирает данные аккаунта минта с теми же проверками, что и программа токенов:
// точный размер, валидные теги COption, флаг инициализации.
func decodeMint(data []byte) (*token.Mint, error) {
	if len(data) != token.MINT_SIZE {
		return nil, fmt.Errorf("unexpected mint data length %d (expected %d)", len(data), token.MINT_SIZE)
	}

	for _, offset := range []int{mintAuthorityTagOffset, freezeAuthorityTagOffset} {
		if _, err := binary.ReadCOptionTag(data, offset); err != nil {
			return nil, err
		}
	}

	initialized, err := binary.ReadUint8(data, mintInitializedOffset)
	if err != nil {
		return nil, err
	}
	switch initialized {
	case 0:
		return nil, errMintNotInitialized
	case 1:
	default:
		return nil, fmt.Errorf("invalid initialized flag %d", initialized)
	}

	var mint token.Mint
	if err := mint.UnmarshalWithDecoder(bin.NewBinDecoder(data)); err != nil {
		return nil, err
	}
	return &mint, nil
}
