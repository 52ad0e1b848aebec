// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-keyrecover.
//
// go-keyrecover is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package cli

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/jeremyhahn/go-keyrecover/pkg/keys"
	"github.com/jeremyhahn/go-keyrecover/pkg/share"
	"github.com/jeremyhahn/go-keyrecover/pkg/validation"
	"github.com/spf13/cobra"
)

func newSplitCmd(cfg *Config) *cobra.Command {
	var (
		threshold    int
		total        int
		network       string
		uncompressed  bool
		deterministic bool
	)

	cmd := &cobra.Command{
		Use:   "split [wif]",
		Short: "Split a private key into shares",
		Long: `Split deals a WIF private key into --shares shares, any --threshold of
which recover it. Without a WIF argument a fresh key is generated for
--network and only its shares and address are printed.

With --deterministic the coefficients are derived from the key itself,
the way paper wallet devices deal them, so the same key always yields
the same shares.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				k   *keys.PrivateKey
				err error
			)
			if len(args) == 1 {
				if err := validation.ValidateWIF(args[0]); err != nil {
					return err
				}
				k, err = keys.ParseWIF(args[0])
			} else {
				k, err = generateKey(network, !uncompressed)
				cfg.printVerbose(cmd, "generated a new %s key", network)
			}
			if err != nil {
				return err
			}
			defer k.Zero()

			secret := k.Bytes()
			var shares []*share.Share
			if deterministic {
				shares, err = share.DealDeterministic(secret, threshold, total)
			} else {
				shares, err = share.Deal(secret, threshold, total, nil)
			}
			zero(secret)
			if err != nil {
				return err
			}

			info, err := newKeyInfo(k, false)
			if err != nil {
				return err
			}
			res := SplitResult{
				SetID:     shares[0].SetIDHex(),
				Threshold: threshold,
				Total:     total,
				Address:   info.Address,
				Network:   info.Network,
				Shares:    make([]string, len(shares)),
			}
			for i, s := range shares {
				res.Shares[i] = s.String()
			}
			return cfg.printer(cmd).PrintSplit(res)
		},
	}

	cmd.Flags().IntVarP(&threshold, "threshold", "m", 2, "shares needed to recover the key")
	cmd.Flags().IntVarP(&total, "shares", "n", 3, "shares to deal")
	cmd.Flags().StringVar(&network, "network", "mainnet", "network of a generated key (mainnet, testnet3, regtest, signet)")
	cmd.Flags().BoolVar(&uncompressed, "uncompressed", false, "generate a key without the compression flag")
	cmd.Flags().BoolVar(&deterministic, "deterministic", false, "derive coefficients from the key so shares are reproducible")
	return cmd
}

func generateKey(network string, compressed bool) (*keys.PrivateKey, error) {
	n, err := keys.NetworkByName(network)
	if err != nil {
		return nil, err
	}
	priv, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	defer priv.Zero()

	scalar := priv.Serialize()
	defer zero(scalar)
	return keys.NewPrivateKey(n.PrivateKeyID, scalar, compressed)
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
