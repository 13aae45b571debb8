package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-paymaster/internal/fees"
)

func runConvert(ctx context.Context, args []string) error {
	fs, configPath := commonFlags("convert")
	amount := fs.Uint64("amount", 0, "token amount in base units")
	mintAddr := fs.String("mint", "", "token mint address")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *mintAddr == "" {
		return errors.New("--mint is required")
	}

	mint, err := solana.PublicKeyFromBase58(*mintAddr)
	if err != nil {
		return fmt.Errorf("invalid mint address: %w", err)
	}

	a, err := newApp(*configPath, fs)
	if err != nil {
		return err
	}
	defer a.close()

	log := a.log.WithMint(mint)
	converter := fees.NewConverter(a.client, a.prices, log, fees.WithConverterMetrics(a.metrics))

	lamports, err := converter.TokenValueInLamports(ctx, *amount, mint)
	if err != nil {
		log.Error("Token conversion failed", zap.Uint64("amount", *amount), zap.Error(err))
		return err
	}

	_, err = fmt.Fprintln(os.Stdout, lamports)
	return err
}
