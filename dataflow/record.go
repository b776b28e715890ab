package dataflow

import "strings"

// Record is a signed row: a row of column values tagged as either an
// insertion (positive) or a retraction (negative). A positive and a negative
// record carrying the same row cancel each other out downstream. There is no
// neutral sign.
type Record struct {
	Row      Row
	Positive bool
}

func PositiveRecord(row Row) Record {
	return Record{Row: row, Positive: true}
}

func NegativeRecord(row Row) Record {
	return Record{Row: row}
}

// Equal reports sign and row equality.
func (r Record) Equal(o Record) bool {
	return r.Positive == o.Positive && r.Row.Equal(o.Row)
}

func (r Record) String() string {
	if r.Positive {
		return "+" + r.Row.String()
	}
	return "-" + r.Row.String()
}

// Update is a batch of records flowing along one graph edge. An update is
// owned by whichever operator currently holds it; operators may rewrite the
// records in place before forwarding but must not retain them across calls.
type Update struct {
	Records []Record
}

// UpdateOf wraps records into an update batch.
func UpdateOf(records ...Record) *Update {
	return &Update{Records: records}
}

// Clone deep-copies the update, rows included. Updates are single-owner;
// fanning one out to several consumers requires independent copies since the
// receiving operator may rewrite rows in place.
func (u *Update) Clone() *Update {
	records := make([]Record, len(u.Records))
	for i, r := range u.Records {
		records[i] = Record{Row: r.Row.Clone(), Positive: r.Positive}
	}
	return &Update{Records: records}
}

func (u *Update) String() string {
	parts := make([]string, len(u.Records))
	for i, r := range u.Records {
		parts[i] = r.String()
	}
	return strings.Join(parts, " ")
}

// Message is one update tagged with the address of the node that produced
// it. The scheduler delivers messages to an operator's OnInput; From must be
// one of the operator's current ancestors.
type Message struct {
	From NodeAddress
	Data *Update
}
