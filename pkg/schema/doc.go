// Package schema is the wire codec for flow graphs.
//
// The visual editor persists a flow as an ordinary JSON document:
//
//	{
//	  "id": "...", "name": "...", "isActive": true,
//	  "nodes": [{"id": "...", "type": "input", "content": "...",
//	             "options": [...], "data": {"variableName": "nome"}}],
//	  "edges": [{"source": "...", "target": "...", "label": "Sim"}]
//	}
//
// Each node carries a free-form "data" bag whose meaning depends on the node
// type. Decode maps that bag into the typed configs of domain.Node at this
// boundary, so the interpreter never touches untyped maps. Lint reports
// authoring mistakes (dangling edges, trigger without an exit) as warnings;
// the interpreter tolerates all of them at runtime.
package schema
