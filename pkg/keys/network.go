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

package keys

import (
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/chaincfg"
)

// Network names the version bytes used by a chain.
type Network struct {
	Name             string
	PrivateKeyID     byte
	PubKeyHashAddrID byte
}

// Only networks whose address version is the WIF version minus 0x80 are
// listed; simnet does not follow that convention.
var networks = []*Network{
	fromParams(&chaincfg.MainNetParams),
	fromParams(&chaincfg.TestNet3Params),
	fromParams(&chaincfg.RegressionNetParams),
	fromParams(&chaincfg.SigNetParams),
}

func fromParams(p *chaincfg.Params) *Network {
	return &Network{
		Name:             p.Name,
		PrivateKeyID:     p.PrivateKeyID,
		PubKeyHashAddrID: p.PubKeyHashAddrID,
	}
}

// Networks returns the supported networks, mainnet first.
func Networks() []Network {
	out := make([]Network, len(networks))
	for i, n := range networks {
		out[i] = *n
	}
	return out
}

// NetworkByName looks a network up by its chaincfg name
// ("mainnet", "testnet3", "regtest", "signet"). "testnet" is accepted for
// testnet3.
func NetworkByName(name string) (*Network, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "testnet" {
		name = chaincfg.TestNet3Params.Name
	}
	for _, n := range networks {
		if n.Name == name {
			c := *n
			return &c, nil
		}
	}
	return nil, fmt.Errorf("keys: unknown network %q", name)
}

// NetworkForVersion returns the first network using the WIF version byte.
// Test networks share 0xEF, so testnet3 is reported for all of them.
func NetworkForVersion(version byte) (*Network, bool) {
	for _, n := range networks {
		if n.PrivateKeyID == version {
			c := *n
			return &c, true
		}
	}
	return nil, false
}
