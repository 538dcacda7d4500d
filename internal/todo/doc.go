// Package todo models tasks and the task collection, and encodes the
// collection to and from its persisted JSON form.
//
// The persisted document is a single JSON object keyed by task id:
//
//	{
//	  "0d1f3c2e-6f5b-11ee-8c99-0242ac120002": {
//	    "id": "0d1f3c2e-6f5b-11ee-8c99-0242ac120002",
//	    "text": "buy milk",
//	    "isCompleted": false,
//	    "createdAt": 1697650000000
//	  }
//	}
//
// createdAt is a unix timestamp in milliseconds.
//
// # Ordering
//
// A Collection remembers insertion order. Encoding writes keys in that
// order and decoding keeps the order of the document, so a saved list
// comes back displayed the way it was left.
//
// # Validation
//
// Decode checks the document against the embedded JSON Schema
// (todos.schema.json, draft 2020-12) and then requires every key to equal
// the id of its task. The literal document null decodes to an empty
// collection.
package todo
