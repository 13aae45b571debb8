// internal/fees/ata.go
package fees

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-paymaster/internal/blockchain"
)

// Позиции аккаунтов в инструкции Create программы Associated Token Account.
// Раскладка задана самой программой.
const (
	ataPayerIndex = iota
	ataAddressIndex
	ataOwnerIndex
	ataMintIndex

	ataMinAccounts
)

// CreateATAView - аккаунты инструкции создания ATA.
type CreateATAView struct {
	Payer   solana.PublicKey
	Address solana.PublicKey
	Owner   solana.PublicKey
	Mint    solana.PublicKey
}

// DecodeCreateATA читает инструкцию как создание ATA.
// ok == false, если инструкция адресована другой программе.
func DecodeCreateATA(message *solana.Message, ix solana.CompiledInstruction) (view CreateATAView, ok bool, err error) {
	programID, err := accountAt(message, ix.ProgramIDIndex)
	if err != nil {
		return CreateATAView{}, false, fmt.Errorf("program id: %w", err)
	}
	if !programID.Equals(solana.SPLAssociatedTokenAccountProgramID) {
		return CreateATAView{}, false, nil
	}

	if len(ix.Accounts) < ataMinAccounts {
		return CreateATAView{}, false, fmt.Errorf("invalid number of accounts: %d (expected at least %d)", len(ix.Accounts), ataMinAccounts)
	}

	keys := make([]solana.PublicKey, ataMinAccounts)
	for i := range keys {
		if keys[i], err = accountAt(message, ix.Accounts[i]); err != nil {
			return CreateATAView{}, false, fmt.Errorf("account #%d: %w", i, err)
		}
	}

	return CreateATAView{
		Payer:   keys[ataPayerIndex],
		Address: keys[ataAddressIndex],
		Owner:   keys[ataOwnerIndex],
		Mint:    keys[ataMintIndex],
	}, true, nil
}

// IsCanonical проверяет, что Address совпадает с адресом, выведенным из (Owner, Mint).
func (v CreateATAView) IsCanonical() (bool, error) {
	expected, _, err := solana.FindAssociatedTokenAddress(v.Owner, v.Mint)
	if err != nil {
		return false, err
	}
	return expected.Equals(v.Address), nil
}

func accountAt(message *solana.Message, index uint16) (solana.PublicKey, error) {
	if int(index) >= len(message.AccountKeys) {
		return solana.PublicKey{}, fmt.Errorf("account index %d out of range (%d keys)", index, len(message.AccountKeys))
	}
	return message.AccountKeys[index], nil
}

// AccountCreationFee считает стоимость ATA, которые транзакция создаст неявно.
// Учитываются только канонические адреса, которых еще нет в сети.
// Несколько инструкций для одного и того же адреса учитываются один раз.
// Ошибка запроса, отличная от "not found", прерывает расчет.
func AccountCreationFee(ctx context.Context, client blockchain.ChainClient, message *solana.Message, rent Rent, logger *zap.Logger) (uint64, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	seen := make(map[solana.PublicKey]struct{})
	var count uint64

	for i, ix := range message.Instructions {
		view, ok, err := DecodeCreateATA(message, ix)
		if err != nil {
			return 0, newError(ErrInvalidTransaction, fmt.Sprintf("instruction #%d", i), err)
		}
		if !ok {
			continue
		}

		canonical, err := view.IsCanonical()
		if err != nil {
			return 0, newError(ErrInvalidTransaction, fmt.Sprintf("derive ATA for instruction #%d", i), err)
		}
		if !canonical {
			logger.Debug("Skipping non-canonical ATA instruction",
				zap.Int("instruction", i),
				zap.Stringer("address", view.Address),
				zap.Stringer("owner", view.Owner),
				zap.Stringer("mint", view.Mint))
			continue
		}

		// Один и тот же ATA создается не более одного раза
		if _, dup := seen[view.Address]; dup {
			continue
		}
		seen[view.Address] = struct{}{}

		_, err = client.GetAccount(ctx, view.Address)
		switch {
		case err == nil:
			continue
		case blockchain.IsAccountNotFound(err):
			count++
		default:
			return 0, newError(ErrRPC, fmt.Sprintf("lookup ATA %s", view.Address), err)
		}
	}

	if count == 0 {
		return 0, nil
	}

	fee, ok := checkedMul(count, rent.MinimumBalance(TokenAccountSize))
	if !ok {
		return 0, newError(ErrFeeOverflow, "account creation fee", nil)
	}

	logger.Debug("ATA creation fee computed",
		zap.Uint64("accounts", count),
		zap.Uint64("fee", fee))

	return fee, nil
}
