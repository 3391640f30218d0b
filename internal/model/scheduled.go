package model

import "time"

// ScheduledTransaction is a deferred financial event awaiting user
// confirmation on its target day. The reminder engine advances its
// notification flags; it terminates either by promotion to a Transaction or
// by deletion.
type ScheduledTransaction struct {
	TargetDate         time.Time
	RemoteID           string
	Note               string
	PhotoRef           string
	Category           Category
	Direction          Direction
	Location           *Location
	Amount             float64
	ID                 int64
	Confirmed          bool
	ReminderSent       bool
	ExpirationNotified bool
	Synced             bool
}

// Validate checks the scheduled transaction's own invariants.
func (s *ScheduledTransaction) Validate() error {
	txn := Transaction{
		Amount:    s.Amount,
		Direction: s.Direction,
		Category:  s.Category,
		Date:      s.TargetDate,
	}
	return txn.Validate()
}

// ToTransaction builds the committed transaction a confirmation produces.
// The new record is dated now, not at the original target, and starts
// unsynced with no remote identifier of its own.
func (s *ScheduledTransaction) ToTransaction(now time.Time) Transaction {
	return Transaction{
		Amount:    s.Amount,
		Direction: s.Direction,
		Category:  s.Category,
		Note:      s.Note,
		Date:      now,
		PhotoRef:  s.PhotoRef,
		Location:  s.Location,
	}
}
