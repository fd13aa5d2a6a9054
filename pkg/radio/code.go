package radio

import "fmt"

// CodeType selects how a sub-audible code is signalled.
type CodeType uint8

const (
	CodeNone CodeType = iota
	CodeCTCSS
	CodeDCS
	CodeDCSReverse
)

// Code is a sub-audible tone or digital code. Value indexes the CTCSS or
// DCS table depending on Type.
type Code struct {
	Type  CodeType
	Value uint8
}

// Pack encodes c for the generic parameter interface.
func (c Code) Pack() uint32 {
	return uint32(c.Type)<<8 | uint32(c.Value)
}

// UnpackCode is the inverse of Pack.
func UnpackCode(v uint32) Code {
	return Code{Type: CodeType(v >> 8 & 0xFF), Value: uint8(v)}
}

// Valid reports whether c names an existing table entry.
func (c Code) Valid() bool {
	switch c.Type {
	case CodeNone:
		return c.Value == 0
	case CodeCTCSS:
		return int(c.Value) < len(CTCSSTones)
	case CodeDCS, CodeDCSReverse:
		return int(c.Value) < len(DCSCodes)
	}
	return false
}

func (c Code) String() string {
	switch c.Type {
	case CodeCTCSS:
		if int(c.Value) < len(CTCSSTones) {
			t := CTCSSTones[c.Value]
			return fmt.Sprintf("CT:%d.%d", t/10, t%10)
		}
	case CodeDCS:
		if int(c.Value) < len(DCSCodes) {
			return fmt.Sprintf("DCS:D%03oN", DCSCodes[c.Value])
		}
	case CodeDCSReverse:
		if int(c.Value) < len(DCSCodes) {
			return fmt.Sprintf("DCS:D%03oI", DCSCodes[c.Value])
		}
	}
	return "No code"
}

// CTCSSTones in tenths of a hertz.
var CTCSSTones = [...]uint16{
	670, 693, 719, 744, 770, 797, 825, 854, 885, 915,
	948, 974, 1000, 1035, 1072, 1109, 1148, 1188, 1230, 1273,
	1318, 1365, 1413, 1462, 1598, 1622, 1655, 1679, 1713, 1738,
	1773, 1799, 1835, 1862, 1899, 1928, 1966, 1995, 2035, 2065,
	2107, 2181, 2257, 2291, 2336, 2418, 2503, 2541,
}

// DCSCodes as octal code words.
var DCSCodes = [...]uint16{
	0o023, 0o025, 0o026, 0o031, 0o032, 0o036, 0o043, 0o047, 0o051, 0o053,
	0o054, 0o065, 0o071, 0o072, 0o073, 0o074, 0o114, 0o115, 0o116, 0o122,
	0o125, 0o131, 0o132, 0o134, 0o143, 0o145, 0o152, 0o155, 0o156, 0o162,
	0o165, 0o172, 0o174, 0o205, 0o212, 0o223, 0o225, 0o226, 0o243, 0o244,
	0o245, 0o246, 0o251, 0o252, 0o255, 0o261, 0o263, 0o265, 0o266, 0o271,
	0o274, 0o306, 0o311, 0o315, 0o325, 0o331, 0o332, 0o343, 0o346, 0o351,
	0o356, 0o364, 0o365, 0o371, 0o411, 0o412, 0o413, 0o423, 0o431, 0o432,
	0o445, 0o446, 0o452, 0o454, 0o455, 0o462, 0o464, 0o465, 0o466, 0o503,
	0o506, 0o516, 0o523, 0o526, 0o532, 0o546, 0o565, 0o606, 0o612, 0o624,
	0o627, 0o631, 0o632, 0o654, 0o662, 0o664, 0o703, 0o712, 0o723, 0o731,
	0o732, 0o734, 0o743, 0o754,
}
