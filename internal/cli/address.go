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
	"github.com/jeremyhahn/go-keyrecover/pkg/keys"
	"github.com/jeremyhahn/go-keyrecover/pkg/validation"
	"github.com/spf13/cobra"
)

func newAddressCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "address <wif>",
		Short: "Derive the public key and address of a WIF key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validation.ValidateWIF(args[0]); err != nil {
				return err
			}
			k, err := keys.ParseWIF(args[0])
			if err != nil {
				return err
			}
			defer k.Zero()

			info, err := newKeyInfo(k, false)
			if err != nil {
				return err
			}
			return cfg.printer(cmd).PrintKey(info)
		},
	}
}
