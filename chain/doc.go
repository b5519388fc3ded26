// Package chain assembles the fixed vocal processing chain from a preset.
//
// Order is fixed: high-pass (100 Hz) -> de-esser -> compressor -> low shelf
// -> mid peak -> high shelf -> saturator -> reverb -> delay -> limiter.
//
// Two topologies are supported. TopologyConditional omits saturator,
// reverb and delay when their amount is zero, so enabling one later needs a
// rebuild. TopologyBypass keeps every node and skips disabled ones with a
// per-node bypass flag, which lets a live chain toggle effects without
// rebuilding.
//
// A Chain keeps one independent lane of node state per audio channel.
// Lanes are created on first use; a Chain is not safe for concurrent use,
// but distinct lanes may be driven from different goroutines once
// EnsureLanes has returned.
package chain
