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

package base58check_test

import (
	"fmt"

	"github.com/jeremyhahn/go-keyrecover/pkg/base58check"
)

func ExampleEncode() {
	fmt.Println(base58check.Encode(make([]byte, 21)))
	// Output: 1111111111111111111114oLvT2
}

func ExampleDecode() {
	payload, err := base58check.Decode("1111111111111111111114oLvT2")
	fmt.Println(len(payload), err)

	_, err = base58check.Decode("1111111111111111111114oLvT3")
	fmt.Println(err != nil)
	// Output:
	// 21 <nil>
	// true
}
