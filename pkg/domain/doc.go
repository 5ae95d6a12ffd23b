/*
Package domain holds the value types shared by the flow interpreter and its
adapters: the flow graph (nodes and edges authored in the visual editor), the
per-conversation context carried between turns, and the result record every
turn produces.

Types here are plain values. The graph is read-only once loaded; the context is
immutable and every mutation helper returns a copy, so a single graph can serve
any number of concurrent conversations without coordination.
*/
package domain
