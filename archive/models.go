package archive

import "time"

// Event is one committed event line. ProposalID is set for lines that carry an id field.
type Event struct {
	ID         uint   `gorm:"primarykey"`
	TxID       string `gorm:"index"`
	Seq        int
	Kind       string  `gorm:"index"`
	ProposalID *uint64 `gorm:"index"`
	Sender     string
	Timestamp  int64
	Line       string
	ArchivedAt time.Time
}

func (Event) TableName() string {
	return "event"
}

// TxHeader is the committed receipt header.
type TxHeader struct {
	ID        uint   `gorm:"primarykey"`
	TxID      string `gorm:"uniqueIndex"`
	Sender    string
	Timestamp int64
	Events    int
}

func (TxHeader) TableName() string {
	return "tx_header"
}

var migrateModels = []any{
	&TxHeader{},
	&Event{},
}
