// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build !race

package coal_test

import "testing"

func skipRace(tb testing.TB) {
	tb.Helper()
}
