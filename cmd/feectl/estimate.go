package main

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"

	"github.com/rovshanmuradov/solana-paymaster/internal/fees"
)

func runEstimate(ctx context.Context, args []string) error {
	fs, configPath := commonFlags("estimate")
	rawTx := fs.String("tx", "", "serialized transaction, base64 or base58")
	encoding := fs.String("encoding", "auto", "transaction encoding: auto, base64, base58")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *rawTx == "" {
		return errors.New("--tx is required")
	}

	tx, err := decodeTransaction(*rawTx, *encoding)
	if err != nil {
		return err
	}

	a, err := newApp(*configPath, fs)
	if err != nil {
		return err
	}
	defer a.close()

	done := a.log.TrackPerformance("estimate")
	defer done()

	estimator := fees.NewEstimator(a.client, a.log.Logger, fees.WithEstimatorMetrics(a.metrics))
	components, err := estimator.EstimateFeeComponents(ctx, tx)
	if err != nil {
		a.log.LogError("Fee estimation failed", err)
		return err
	}

	return printComponents(os.Stdout, components)
}

func printComponents(w io.Writer, c fees.FeeComponents) error {
	total, err := c.Total()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w,
		"base_fee:             %d\npriority_fee:         %d\naccount_creation_fee: %d\ntotal:                %d\n",
		c.BaseFee, c.PriorityFee, c.AccountCreationFee, total)
	return err
}

// decodeTransaction разбирает транзакцию; в режиме auto сначала пробуется base64
func decodeTransaction(raw, encoding string) (*solana.Transaction, error) {
	raw = strings.TrimSpace(raw)

	switch encoding {
	case "base64":
		data, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid base64: %w", err)
		}
		return parseTransaction(data)
	case "base58":
		data, err := base58.Decode(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid base58: %w", err)
		}
		return parseTransaction(data)
	case "auto":
		if tx, err := decodeTransaction(raw, "base64"); err == nil {
			return tx, nil
		}
		tx, err := decodeTransaction(raw, "base58")
		if err != nil {
			return nil, fmt.Errorf("transaction is neither base64 nor base58: %w", err)
		}
		return tx, nil
	default:
		return nil, fmt.Errorf("unknown encoding %q", encoding)
	}
}

func parseTransaction(data []byte) (*solana.Transaction, error) {
	decoder := bin.NewBinDecoder(data)
	tx, err := solana.TransactionFromDecoder(decoder)
	if err != nil {
		return nil, fmt.Errorf("failed to decode transaction: %w", err)
	}
	if decoder.Remaining() != 0 {
		return nil, fmt.Errorf("failed to decode transaction: %d trailing bytes", decoder.Remaining())
	}
	return tx, nil
}
