// Package datapage stores the values of a single leaf node.
//
// A data page is a page holding a 4-byte big-endian payload length followed
// by a deterministic CBOR array of text strings. Leaf pairs refer to values by
// their index in that array.
package datapage

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/dkoosis/cowtree/internal/page"
)

const (
	lengthSize = 4

	// PayloadCapacity is the number of bytes available for the CBOR payload.
	PayloadCapacity = page.Size - lengthSize

	// maxHeaderSize bounds a CBOR array or text string header for the item
	// counts and lengths that fit in a page.
	maxHeaderSize = 3
)

var (
	// ErrOverflow is returned when the values do not fit a page.
	ErrOverflow = errors.New("datapage: values exceed page capacity")

	// ErrIndex is returned for indexes outside the value list.
	ErrIndex = errors.New("datapage: index out of range")

	// ErrCorrupt is returned when a page does not hold a valid payload.
	ErrCorrupt = errors.New("datapage: corrupt payload")
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("datapage: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{
		MaxArrayElements: page.Size,
	}.DecMode()
	if err != nil {
		panic("datapage: CBOR decoder initialization failed: " + err.Error())
	}
}

// MaxValueSize returns the largest value, in bytes, for which a leaf holding
// 2b-1 values is guaranteed to fit a data page.
func MaxValueSize(b int) int {
	slots := 2*b - 1
	if slots <= 0 {
		return 0
	}
	return (PayloadCapacity-maxHeaderSize)/slots - maxHeaderSize
}

// DataPage is the in-memory form of a data page.
type DataPage struct {
	Values []string
}

// New returns an empty data page.
func New(values ...string) *DataPage {
	return &DataPage{Values: append([]string(nil), values...)}
}

// Len returns the number of values.
func (d *DataPage) Len() int {
	return len(d.Values)
}

// Insert appends v and returns its index.
func (d *DataPage) Insert(v string) int {
	d.Values = append(d.Values, v)
	return len(d.Values) - 1
}

// Get returns the value at i.
func (d *DataPage) Get(i int) (string, error) {
	if i < 0 || i >= len(d.Values) {
		return "", fmt.Errorf("%w: %d of %d", ErrIndex, i, len(d.Values))
	}
	return d.Values[i], nil
}

// Set replaces the value at i.
func (d *DataPage) Set(i int, v string) error {
	if i < 0 || i >= len(d.Values) {
		return fmt.Errorf("%w: %d of %d", ErrIndex, i, len(d.Values))
	}
	d.Values[i] = v
	return nil
}

// Remove deletes the value at i. Values after i shift down by one.
func (d *DataPage) Remove(i int) (string, error) {
	if i < 0 || i >= len(d.Values) {
		return "", fmt.Errorf("%w: %d of %d", ErrIndex, i, len(d.Values))
	}
	v := d.Values[i]
	d.Values = append(d.Values[:i], d.Values[i+1:]...)
	return v, nil
}

// Encode serializes the data page.
func (d *DataPage) Encode() (*page.Page, error) {
	values := d.Values
	if values == nil {
		values = []string{}
	}
	payload, err := encMode.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("encode data page: %w", err)
	}
	if len(payload) > PayloadCapacity {
		return nil, fmt.Errorf("%w: %d bytes for %d values", ErrOverflow, len(payload), len(values))
	}

	pg := page.New()
	if err := pg.PutUint32At(0, uint32(len(payload))); err != nil {
		return nil, err
	}
	if err := pg.PutBytes(lengthSize, len(payload), payload); err != nil {
		return nil, err
	}
	return pg, nil
}

// Decode reads a data page.
func Decode(pg *page.Page) (*DataPage, error) {
	n, err := pg.Uint32At(0)
	if err != nil {
		return nil, err
	}
	if n == 0 || n > PayloadCapacity {
		return nil, fmt.Errorf("%w: payload length %d", ErrCorrupt, n)
	}
	payload, err := pg.Slice(lengthSize, int(n))
	if err != nil {
		return nil, err
	}

	var values []string
	if err := decMode.Unmarshal(payload, &values); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return &DataPage{Values: values}, nil
}
