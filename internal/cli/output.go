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
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"

	"github.com/jeremyhahn/go-keyrecover/pkg/keys"
	"github.com/jeremyhahn/go-keyrecover/pkg/share"
)

// OutputFormat defines the output format type
type OutputFormat string

const (
	OutputFormatText OutputFormat = "text"
	OutputFormatJSON OutputFormat = "json"
)

// KeyInfo describes a recovered or parsed key.
type KeyInfo struct {
	WIF        string `json:"wif,omitempty"`
	Address    string `json:"address"`
	PublicKey  string `json:"public_key"`
	Compressed bool   `json:"compressed"`
	Network    string `json:"network"`
	SetID      string `json:"set_id,omitempty"`
}

func newKeyInfo(k *keys.PrivateKey, withWIF bool) (KeyInfo, error) {
	if err := k.Err(); err != nil {
		return KeyInfo{}, err
	}
	info := KeyInfo{
		Address:    k.Address(),
		PublicKey:  hex.EncodeToString(k.PublicKey()),
		Compressed: k.Compressed(),
		Network:    "unknown",
	}
	if n, ok := k.Network(); ok {
		info.Network = n.Name
	}
	if withWIF {
		info.WIF = k.WIF()
	}
	return info, nil
}

// ShareInfo describes a decoded share header.
type ShareInfo struct {
	Version       int    `json:"version"`
	SetID         string `json:"set_id"`
	Threshold     int    `json:"threshold"`
	Index         int    `json:"index"`
	PayloadLength int    `json:"payload_length"`
}

// SplitResult lists freshly dealt shares.
type SplitResult struct {
	SetID     string   `json:"set_id"`
	Threshold int      `json:"threshold"`
	Total     int      `json:"total"`
	Address   string   `json:"address"`
	Network   string   `json:"network"`
	Shares    []string `json:"shares"`
}

// Printer handles formatted output
type Printer struct {
	format OutputFormat
	writer io.Writer
}

// NewPrinter creates a new Printer
func NewPrinter(format string, writer io.Writer) *Printer {
	return &Printer{
		format: OutputFormat(format),
		writer: writer,
	}
}

// PrintKey prints key details
func (p *Printer) PrintKey(info KeyInfo) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(info)
	case OutputFormatText:
		if info.WIF != "" {
			fmt.Fprintf(p.writer, "WIF:        %s\n", info.WIF)
		}
		fmt.Fprintf(p.writer, "Address:    %s\n", info.Address)
		fmt.Fprintf(p.writer, "Public key: %s\n", info.PublicKey)
		fmt.Fprintf(p.writer, "Compressed: %t\n", info.Compressed)
		fmt.Fprintf(p.writer, "Network:    %s\n", info.Network)
		if info.SetID != "" {
			fmt.Fprintf(p.writer, "Set ID:     %s\n", info.SetID)
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintShareInfo prints a decoded share header
func (p *Printer) PrintShareInfo(s *share.Share) error {
	info := ShareInfo{
		Version:       int(s.Version()),
		SetID:         s.SetIDHex(),
		Threshold:     s.Threshold(),
		Index:         s.Index(),
		PayloadLength: len(s.Payload()),
	}
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(info)
	case OutputFormatText:
		fmt.Fprintf(p.writer, "Version:   %d\n", info.Version)
		fmt.Fprintf(p.writer, "Set ID:    %s\n", info.SetID)
		fmt.Fprintf(p.writer, "Share:     %d of %d needed\n", info.Index, info.Threshold)
		fmt.Fprintf(p.writer, "Payload:   %d bytes\n", info.PayloadLength)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintSplit prints dealt shares, one per line in text mode
func (p *Printer) PrintSplit(res SplitResult) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(res)
	case OutputFormatText:
		fmt.Fprintf(p.writer, "# set %s, %d of %d, %s (%s)\n",
			res.SetID, res.Threshold, res.Total, res.Address, res.Network)
		for _, s := range res.Shares {
			fmt.Fprintln(p.writer, s)
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintError prints an error message
func (p *Printer) PrintError(err error) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"status": "error",
			"error":  err.Error(),
		})
	default:
		fmt.Fprintf(p.writer, "Error: %v\n", err)
		return nil
	}
}

func (p *Printer) printJSON(v interface{}) error {
	enc := json.NewEncoder(p.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
