// Package playback implements the real-time audition engine.
//
// An Engine holds one loaded buffer, a playhead, and a live processing
// chain built with every node present so effects can be toggled without a
// rebuild. Output is pull based: the Device calls Engine.Process from its
// own goroutine for every block, and transport commands and parameter
// updates take the same lock for the duration of a call.
//
// States move Idle → Loaded → Playing ⇄ Paused; Stop and end of track
// return to Loaded with the playhead at zero.
package playback
