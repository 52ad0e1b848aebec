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
	"github.com/jeremyhahn/go-keyrecover/pkg/share"
	"github.com/jeremyhahn/go-keyrecover/pkg/validation"
	"github.com/spf13/cobra"
)

func newInspectCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <share>",
		Short: "Decode a share header",
		Long:  `Inspect verifies a share's checksum and prints its set id, threshold and index.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validation.ValidateShareText(args[0]); err != nil {
				return err
			}
			s, err := share.Parse(args[0])
			if err != nil {
				return err
			}
			return cfg.printer(cmd).PrintShareInfo(s)
		},
	}
}
