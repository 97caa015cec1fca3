// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package coal

import "code.hybscloud.com/atomix"

// Serial is a monotonically increasing session identifier.
// Each call to NewActivity assigns the next serial value; the serial
// namespaces that session's tokens so a token minted by one session
// can never validate against another.
type Serial = uint32

// counter is the global monotonic counter for session serials.
var counter atomix.Uint32

// nextSerial returns the next monotonically increasing serial.
// Serials start at 1, so the zero Token never carries a live serial.
func nextSerial() Serial {
	return counter.Add(1)
}
