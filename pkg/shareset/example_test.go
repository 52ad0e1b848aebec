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

package shareset_test

import (
	"fmt"

	"github.com/jeremyhahn/go-keyrecover/pkg/share"
	"github.com/jeremyhahn/go-keyrecover/pkg/shareset"
)

func Example() {
	secret := make([]byte, 34)
	secret[0] = 0x80
	secret[32] = 0x01
	secret[33] = 0x01

	shares, err := share.Deal(secret, 2, 3, nil)
	if err != nil {
		panic(err)
	}

	set := shareset.New()
	for _, s := range []*share.Share{shares[2], shares[2], shares[0]} {
		res, err := set.AddText(s.String())
		if err != nil {
			panic(err)
		}
		fmt.Printf("count=%d duplicate=%v recovered=%v\n", res.Count, res.Duplicate, res.Recovered)
	}

	key, err := set.Key()
	if err != nil {
		panic(err)
	}
	defer key.Zero()
	fmt.Println(key.Address())
	// Output:
	// count=1 duplicate=false recovered=false
	// count=1 duplicate=true recovered=false
	// count=2 duplicate=false recovered=true
	// 1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMH
}
