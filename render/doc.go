// Package render drives a processing chain over a complete decoded buffer.
//
// Rendering is offline: the chain is cloned so the pass starts from a clean
// state, each channel runs through its own lane of node state and the
// result is a new buffer with the same frame and channel count. The input
// buffer is never modified. Start runs the same pass in the background and
// returns a Task to await.
package render
