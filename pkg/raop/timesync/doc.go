// Package timesync implements the NTP-style round-trip timing
// exchange that estimates the clock offset to the sender, weighting
// each sample by its measured transit time, and the Sync-message
// handler that retargets an audio clock from that estimate.
package timesync
