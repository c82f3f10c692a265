package ticketing

import (
	"encoding/binary"
	"fmt"

	"github.com/iliyamo/ticket-escrow/internal/model"
)

// RecordSize is the size of an encoded ticket record:
// token_id(8) | owner(32) | status(1) | resale_price(8), big-endian.
const RecordSize = 8 + model.AddressLen + 1 + 8

const (
	offToken  = 0
	offOwner  = 8
	offStatus = offOwner + model.AddressLen
	offResale = offStatus + 1
)

// EncodeRecord renders t in the fixed-width record layout.
func EncodeRecord(t model.Ticket) []byte {
	b := make([]byte, RecordSize)
	binary.BigEndian.PutUint64(b[offToken:], t.TokenID)
	copy(b[offOwner:offStatus], t.Owner[:])
	b[offStatus] = byte(t.Status)
	binary.BigEndian.PutUint64(b[offResale:], t.ResalePrice)
	return b
}

// DecodeRecord parses a fixed-width record.  It rejects records of the wrong
// size and unknown status bytes.
func DecodeRecord(b []byte) (model.Ticket, error) {
	if len(b) != RecordSize {
		return model.Ticket{}, fmt.Errorf("ticket record: got %d bytes, want %d", len(b), RecordSize)
	}
	s := model.Status(b[offStatus])
	if !s.Valid() {
		return model.Ticket{}, fmt.Errorf("ticket record: unknown status %d", b[offStatus])
	}
	var t model.Ticket
	t.TokenID = binary.BigEndian.Uint64(b[offToken:])
	copy(t.Owner[:], b[offOwner:offStatus])
	t.Status = s
	t.ResalePrice = binary.BigEndian.Uint64(b[offResale:])
	return t, nil
}

// SetRecordStatus rewrites the status byte of an encoded record in place.
func SetRecordStatus(b []byte, s model.Status) error {
	if len(b) != RecordSize {
		return fmt.Errorf("ticket record: got %d bytes, want %d", len(b), RecordSize)
	}
	if !s.Valid() {
		return fmt.Errorf("ticket record: unknown status %d", s)
	}
	b[offStatus] = byte(s)
	return nil
}
