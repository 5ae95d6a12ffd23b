/*
Package atendo is a deterministic flow engine for customer support bots on
messaging channels such as WhatsApp and Instagram.

A flow is a graph of nodes (trigger, message, input, condition, menu,
transfer, end) authored in a visual editor and stored as JSON. The engine
interprets one conversation turn at a time: given the inbound text and the
conversation's persisted context, it walks the active graph and produces a
reply, a hand-off to a human operator, or the end of the conversation.

# Architecture

The core follows a hexagonal layout. The interpreter only sees two ports, a
FlowStore for graph definitions and a ContextStore for per-conversation
state; adapters provide SQLite and in-memory flow stores, Redis and
in-memory context stores, and an HTTP API. Channel integrations implement
the ChannelAdapter port and feed inbound messages to the handler.

Misconfigured flows never crash a conversation: the interpreter degrades to
a fallback reply, leaves the context untouched and reports the problem
through logs and lifecycle hooks, so fixing the flow in the editor takes
effect on the very next message.

# Usage

	package main

	import (
		"context"
		"log"

		"github.com/atendo/atendo"
		"github.com/atendo/atendo/pkg/schema"
	)

	func main() {
		eng := atendo.New()

		graph, err := schema.Decode(flowJSON)
		if err != nil {
			log.Fatal(err)
		}
		ctx := context.Background()
		if err := eng.Flows().Save(ctx, graph); err != nil {
			log.Fatal(err)
		}
		if err := eng.Flows().Activate(ctx, graph.ID); err != nil {
			log.Fatal(err)
		}

		res, err := eng.HandleMessage(ctx, "wa:5511999990000", "oi")
		if err != nil {
			log.Fatal(err)
		}
		log.Println(res.Reply)
	}
*/
package atendo
