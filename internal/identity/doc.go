// Package identity defines the canonical file identity used to correlate
// artifacts across pipeline stages.
//
// A recording produces differently named artifacts as it moves through the
// pipeline (talk1.mov, talk1.wav, talk1.txt, talk1_SRT.srt,
// 2026-01-02_153000_talk1.md). All of them normalize to the single identity
// "talk1". The ledger, the presence oracle, and the sequencer all key on
// this value rather than on raw filenames.
package identity
