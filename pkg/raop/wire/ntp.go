package wire

// ntp64Frac is 2^32, the number of fractional NTP ticks per second.
const ntp64Frac = 4294967296.0

// SecondsToNTP64 packs an NTP-style seconds-since-1900 value into the
// standard 64-bit fixed-point NTP timestamp: the upper 32 bits are
// whole seconds, the lower 32 bits are a fraction of a second in units
// of 1/2^32s.
func SecondsToNTP64(seconds float64) uint64 {
	if seconds < 0 {
		seconds = 0
	}
	whole := uint64(seconds)
	frac := uint64((seconds - float64(whole)) * ntp64Frac)
	return whole<<32 | frac
}

// NTP64ToSeconds unpacks a 64-bit fixed-point NTP timestamp back into
// NTP-style seconds since 1900.
func NTP64ToSeconds(ntp uint64) float64 {
	whole := ntp >> 32
	frac := ntp & 0xFFFFFFFF
	return float64(whole) + float64(frac)/ntp64Frac
}
