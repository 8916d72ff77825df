// Command lectern processes batches of recorded lectures into structured
// markdown notes. It extracts audio, transcribes it, restructures the
// transcript with a chat-completion model, and tracks per-file progress in a
// CSV ledger so interrupted runs resume where they left off.
package main
