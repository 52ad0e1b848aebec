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
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jeremyhahn/go-keyrecover/pkg/shareset"
	"github.com/jeremyhahn/go-keyrecover/pkg/validation"
	"github.com/spf13/cobra"
)

func newCombineCmd(cfg *Config) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "combine [share...]",
		Short: "Recover a private key from shares",
		Long: `Combine reads "SSS-" shares and recovers the private key once the
threshold is met. Shares are taken from the arguments, from --file, or
from stdin, one per line. Blank lines and lines starting with # are
ignored, so the output of split can be piped straight back in.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			texts := args
			if len(texts) == 0 {
				var err error
				texts, err = readSharesFrom(cmd, file)
				if err != nil {
					return err
				}
			}
			if len(texts) == 0 {
				return fmt.Errorf("no shares given")
			}

			set := shareset.New()
			defer set.Reset()

			for i, text := range texts {
				if err := validation.ValidateShareText(text); err != nil {
					return fmt.Errorf("share %d: %w", i+1, err)
				}
				res, err := set.AddText(text)
				if err != nil {
					return fmt.Errorf("share %d: %w", i+1, err)
				}
				switch {
				case res.Duplicate:
					cfg.printVerbose(cmd, "share %d is a duplicate, ignored", i+1)
				case res.Recovered:
					cfg.printVerbose(cmd, "threshold of %d reached", res.Threshold)
				default:
					cfg.printVerbose(cmd, "accepted share %d (%d of %d)", i+1, res.Count, res.Threshold)
				}
			}

			st := set.Snapshot()
			if !st.Complete {
				return fmt.Errorf("%w: have %d of %d shares",
					shareset.ErrNotComplete, len(st.Indices), st.Threshold)
			}
			if st.Err != nil {
				return st.Err
			}
			defer st.Key.Zero()

			info, err := newKeyInfo(st.Key, true)
			if err != nil {
				return err
			}
			info.SetID = fmt.Sprintf("%04x", st.SetID)
			return cfg.printer(cmd).PrintKey(info)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", `read shares from a file ("-" for stdin)`)
	return cmd
}

func readSharesFrom(cmd *cobra.Command, file string) ([]string, error) {
	if file == "" || file == "-" {
		return readShares(cmd.InOrStdin())
	}
	// #nosec G304 - share file path is provided by the user
	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open share file: %w", err)
	}
	defer f.Close()
	return readShares(f)
}

// readShares returns the non-blank, non-comment lines of r.
func readShares(r io.Reader) ([]string, error) {
	var out []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read shares: %w", err)
	}
	return out, nil
}
