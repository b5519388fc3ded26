// Package buffer provides the immutable multi-channel [Audio] buffer passed
// between the codec, the renderer and the live engine.
package buffer
