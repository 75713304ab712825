/*
Package csvio is the streaming chunk codec for GTFS tables.

The decoder turns an ordered sequence of text chunks of arbitrary size into
typed records. Chunks do not need to align with rows: a quoted field may
contain commas and newlines and may be cut anywhere by a chunk boundary.
Memory is bounded by the longest logical row, not by the table size.

The decoding algorithm is a pure step function over DecodeState:

	state := csvio.NewDecodeState(table, csvio.DecodeOptions{})
	for _, chunk := range chunks {
	    var recs []csvio.Record
	    state, recs, err = state.Step(chunk)
	    ...
	}
	state, recs, err = state.Finish()

Decode and DecodeAsync drive the same step function from a synchronous or a
context-aware chunk stream. Encode and EncodeAsync do the reverse: the first
block is always the header row, then one block per BufferSize records.

# Values

Each decoded cell is coerced by its column type. A blank int or float cell
is absent from the record; a blank int-or-empty cell is the Empty sentinel:

	rec["pickup_type"].IsEmpty() // blank cell
	v, ok := rec["pickup_type"].Int64() // "0" -> 0, true
*/
package csvio
