package sync

import (
	"time"

	"github.com/centsible/centsible/internal/model"
	"github.com/centsible/centsible/internal/remote"
)

// Remote field names shared with every other client of the document store.
const (
	fieldAmount             = "amount"
	fieldDirection          = "direction"
	fieldCategory           = "category"
	fieldNote               = "note"
	fieldDate               = "date"
	fieldPhotoRef           = "photoRef"
	fieldLocationFull       = "locationFull"
	fieldLocationShort      = "locationShort"
	fieldLatitude           = "latitude"
	fieldLongitude          = "longitude"
	fieldTargetDate         = "targetDate"
	fieldConfirmed          = "confirmed"
	fieldReminderSent       = "reminderSent"
	fieldExpirationNotified = "expirationNotified"
	fieldKind               = "kind"
	fieldLimitPercent       = "limitPercent"
)

// transactionFields encodes a transaction for a remote write. Every field is
// present so merge writes fully overwrite the document's known keys.
func transactionFields(txn *model.Transaction) map[string]any {
	fields := map[string]any{
		fieldAmount:    txn.Amount,
		fieldDirection: string(txn.Direction),
		fieldCategory:  string(txn.Category),
		fieldNote:      txn.Note,
		fieldDate:      txn.Date.UTC(),
		fieldPhotoRef:  txn.PhotoRef,
	}
	putLocation(fields, txn.Location)
	return fields
}

// scheduledFields encodes a scheduled transaction for a remote write.
func scheduledFields(sched *model.ScheduledTransaction) map[string]any {
	fields := map[string]any{
		fieldAmount:             sched.Amount,
		fieldDirection:          string(sched.Direction),
		fieldCategory:           string(sched.Category),
		fieldNote:               sched.Note,
		fieldTargetDate:         sched.TargetDate.UTC(),
		fieldPhotoRef:           sched.PhotoRef,
		fieldConfirmed:          sched.Confirmed,
		fieldReminderSent:       sched.ReminderSent,
		fieldExpirationNotified: sched.ExpirationNotified,
	}
	putLocation(fields, sched.Location)
	return fields
}

// budgetRuleFields encodes a budget rule for a remote write.
func budgetRuleFields(rule *model.BudgetRule) map[string]any {
	return map[string]any{
		fieldKind:         string(rule.Kind),
		fieldCategory:     string(rule.Category),
		fieldAmount:       rule.Amount,
		fieldLimitPercent: rule.LimitPercent,
	}
}

func putLocation(fields map[string]any, loc *model.Location) {
	if loc == nil {
		return
	}
	fields[fieldLocationFull] = loc.Full
	fields[fieldLocationShort] = loc.Short
	fields[fieldLatitude] = loc.Latitude
	fields[fieldLongitude] = loc.Longitude
}

// decodeTransaction builds a transaction from a remote document, falling back
// to prev for any field the document omits or nulls. prev may be nil.
func decodeTransaction(doc remote.Document, prev *model.Transaction) *model.Transaction {
	txn := &model.Transaction{RemoteID: doc.ID, Synced: true}
	if prev != nil {
		clone := *prev
		txn = &clone
		txn.RemoteID = doc.ID
		txn.Synced = true
	}

	txn.Amount = getFloat(doc.Fields, fieldAmount, txn.Amount)
	txn.Direction = model.Direction(getString(doc.Fields, fieldDirection, string(txn.Direction)))
	txn.Category = model.Category(getString(doc.Fields, fieldCategory, string(txn.Category)))
	txn.Note = getString(doc.Fields, fieldNote, txn.Note)
	txn.Date = getTime(doc.Fields, fieldDate, txn.Date)
	txn.PhotoRef = getString(doc.Fields, fieldPhotoRef, txn.PhotoRef)
	txn.Location = decodeLocation(doc.Fields, txn.Location)
	return txn
}

// decodeScheduled builds a scheduled transaction from a remote document,
// falling back to prev for omitted fields. prev may be nil.
func decodeScheduled(doc remote.Document, prev *model.ScheduledTransaction) *model.ScheduledTransaction {
	sched := &model.ScheduledTransaction{RemoteID: doc.ID, Synced: true}
	if prev != nil {
		clone := *prev
		sched = &clone
		sched.RemoteID = doc.ID
		sched.Synced = true
	}

	sched.Amount = getFloat(doc.Fields, fieldAmount, sched.Amount)
	sched.Direction = model.Direction(getString(doc.Fields, fieldDirection, string(sched.Direction)))
	sched.Category = model.Category(getString(doc.Fields, fieldCategory, string(sched.Category)))
	sched.Note = getString(doc.Fields, fieldNote, sched.Note)
	sched.TargetDate = getTime(doc.Fields, fieldTargetDate, sched.TargetDate)
	sched.PhotoRef = getString(doc.Fields, fieldPhotoRef, sched.PhotoRef)
	sched.Confirmed = getBool(doc.Fields, fieldConfirmed, sched.Confirmed)
	sched.ReminderSent = getBool(doc.Fields, fieldReminderSent, sched.ReminderSent)
	sched.ExpirationNotified = getBool(doc.Fields, fieldExpirationNotified, sched.ExpirationNotified)
	sched.Location = decodeLocation(doc.Fields, sched.Location)
	return sched
}

// decodeBudgetRule builds a budget rule from a remote document, falling back
// to prev for omitted fields. prev may be nil.
func decodeBudgetRule(doc remote.Document, prev *model.BudgetRule) *model.BudgetRule {
	rule := &model.BudgetRule{RemoteID: doc.ID, Synced: true}
	if prev != nil {
		clone := *prev
		rule = &clone
		rule.RemoteID = doc.ID
		rule.Synced = true
	}

	rule.Kind = model.BudgetKind(getString(doc.Fields, fieldKind, string(rule.Kind)))
	rule.Category = model.Category(getString(doc.Fields, fieldCategory, string(rule.Category)))
	rule.Amount = getFloat(doc.Fields, fieldAmount, rule.Amount)
	rule.LimitPercent = getFloat(doc.Fields, fieldLimitPercent, rule.LimitPercent)
	return rule
}

func decodeLocation(fields map[string]any, prev *model.Location) *model.Location {
	_, hasFull := fields[fieldLocationFull]
	_, hasLat := fields[fieldLatitude]
	if !hasFull && !hasLat {
		return prev
	}

	loc := &model.Location{}
	if prev != nil {
		clone := *prev
		loc = &clone
	}
	loc.Full = getString(fields, fieldLocationFull, loc.Full)
	loc.Short = getString(fields, fieldLocationShort, loc.Short)
	loc.Latitude = getFloat(fields, fieldLatitude, loc.Latitude)
	loc.Longitude = getFloat(fields, fieldLongitude, loc.Longitude)
	return loc
}

// Field getters tolerate missing keys, explicit nulls, and the numeric type
// variety the document store hands back.

func getString(fields map[string]any, key, fallback string) string {
	if v, ok := fields[key].(string); ok {
		return v
	}
	return fallback
}

func getFloat(fields map[string]any, key string, fallback float64) float64 {
	switch v := fields[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	}
	return fallback
}

func getBool(fields map[string]any, key string, fallback bool) bool {
	if v, ok := fields[key].(bool); ok {
		return v
	}
	return fallback
}

func getTime(fields map[string]any, key string, fallback time.Time) time.Time {
	if v, ok := fields[key].(time.Time); ok {
		return v
	}
	return fallback
}
