/*
Package schema declares the fixed set of GTFS static tables.

Each table has a file name inside the feed and an ordered list of columns.
Every column carries a type tag that tells the decoder how to coerce the
raw cell text:

  - string: passed through unchanged
  - int: parsed as an integer, absent when blank
  - float: parsed as a floating point number, absent when blank
  - int-or-empty: parsed as an integer, the empty sentinel when blank

The registry is built once at package initialization and never mutated.
Column order is the wire contract: the encoder writes headers in exactly
this order.

# Usage

	tbl, err := schema.Lookup(schema.Stops)
	if err != nil {
	    return err
	}
	fmt.Println(tbl.FileName, tbl.ColumnNames())

	for _, t := range schema.All() {
	    fmt.Println(t.Name)
	}
*/
package schema
