// Package secrets detects and redacts credentials in free text.
//
// The router runs every sentence through a Scrubber before it leaves the
// process, so a token pasted into "remind me to rotate ghp_..." never reaches
// the model provider. Findings keep rule IDs and positions for logging while
// the matched text is replaced.
package secrets
