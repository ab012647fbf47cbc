package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Care board lists
const (
	CareListMedicines         = "medicines"
	CareListDoctors           = "doctors"
	CareListBills             = "bills"
	CareListEmergencyContacts = "emergency_contacts"
	CareListActivities        = "activities"
	CareListMessages          = "messages"
)

const (
	BillStatusPending = "pending"
	BillStatusPaid    = "paid"
)

var (
	ErrUnknownCareList = errors.New("unknown care list")
	ErrCareItemInvalid = errors.New("invalid care item")
	ErrCareConflict    = errors.New("care board changed concurrently")
	ErrCareItemMissing = errors.New("care item not found")
)

type Senior struct {
	Name       string    `json:"name"`
	Relation   string    `json:"relation"`
	Phone      string    `json:"phone"`
	LivingType string    `json:"living_type"` // home / assisted / facility
	CreatedAt  time.Time `json:"created_at"`
}

type Medicine struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Dosage string `json:"dosage"`
	Time   string `json:"time"`
	Time2  string `json:"time2,omitempty"`
}

type Doctor struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
	Phone     string `json:"phone"`
	Email     string `json:"email,omitempty"`
}

type Bill struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Amount  string `json:"amount"`
	DueDate string `json:"due_date"`
	Status  string `json:"status"`
}

type EmergencyContact struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Relation string `json:"relation"`
}

type Activity struct {
	ID        int       `json:"id"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

type CareMessage struct {
	ID        int       `json:"id"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

func (m *Medicine) itemID() *int         { return &m.ID }
func (d *Doctor) itemID() *int           { return &d.ID }
func (b *Bill) itemID() *int             { return &b.ID }
func (c *EmergencyContact) itemID() *int { return &c.ID }
func (a *Activity) itemID() *int         { return &a.ID }
func (m *CareMessage) itemID() *int      { return &m.ID }

func (m *Medicine) validate(time.Time) error {
	if strings.TrimSpace(m.Name) == "" || strings.TrimSpace(m.Time) == "" {
		return fmt.Errorf("%w: medicine name and time are required", ErrCareItemInvalid)
	}
	return nil
}

func (d *Doctor) validate(time.Time) error {
	if strings.TrimSpace(d.Name) == "" || strings.TrimSpace(d.Phone) == "" {
		return fmt.Errorf("%w: doctor name and phone are required", ErrCareItemInvalid)
	}
	return nil
}

func (b *Bill) validate(time.Time) error {
	if strings.TrimSpace(b.Name) == "" || strings.TrimSpace(b.Amount) == "" {
		return fmt.Errorf("%w: bill name and amount are required", ErrCareItemInvalid)
	}
	if b.Status != BillStatusPaid {
		b.Status = BillStatusPending
	}
	return nil
}

func (c *EmergencyContact) validate(time.Time) error {
	if strings.TrimSpace(c.Name) == "" || strings.TrimSpace(c.Phone) == "" {
		return fmt.Errorf("%w: contact name and phone are required", ErrCareItemInvalid)
	}
	return nil
}

func (a *Activity) validate(now time.Time) error {
	a.Text = strings.TrimSpace(a.Text)
	if a.Text == "" {
		return fmt.Errorf("%w: activity text is required", ErrCareItemInvalid)
	}
	if a.Timestamp.IsZero() {
		a.Timestamp = now
	}
	return nil
}

func (m *CareMessage) validate(now time.Time) error {
	m.Text = strings.TrimSpace(m.Text)
	if m.Text == "" {
		return fmt.Errorf("%w: message text is required", ErrCareItemInvalid)
	}
	m.Timestamp = now
	return nil
}

type careItem[T any] interface {
	*T
	itemID() *int
	validate(now time.Time) error
}

// CareBoard is the whole family coordination document for one user.
type CareBoard struct {
	FamilyName        string             `json:"family_name"`
	Senior            *Senior            `json:"senior,omitempty"`
	Medicines         []Medicine         `json:"medicines"`
	Doctors           []Doctor           `json:"doctors"`
	Bills             []Bill             `json:"bills"`
	EmergencyContacts []EmergencyContact `json:"emergency_contacts"`
	Activities        []Activity         `json:"activities"`
	Messages          []CareMessage      `json:"messages"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

// NewCareBoard returns an empty board with non-nil lists.
func NewCareBoard() *CareBoard {
	return &CareBoard{
		Medicines:         []Medicine{},
		Doctors:           []Doctor{},
		Bills:             []Bill{},
		EmergencyContacts: []EmergencyContact{},
		Activities:        []Activity{},
		Messages:          []CareMessage{},
	}
}

// Normalize replaces nil lists with empty ones after decoding.
func (b *CareBoard) Normalize() {
	if b.Medicines == nil {
		b.Medicines = []Medicine{}
	}
	if b.Doctors == nil {
		b.Doctors = []Doctor{}
	}
	if b.Bills == nil {
		b.Bills = []Bill{}
	}
	if b.EmergencyContacts == nil {
		b.EmergencyContacts = []EmergencyContact{}
	}
	if b.Activities == nil {
		b.Activities = []Activity{}
	}
	if b.Messages == nil {
		b.Messages = []CareMessage{}
	}
}

// Push decodes raw into the item type of list, assigns the next id and
// appends it. Returns the stored item.
func (b *CareBoard) Push(list string, raw json.RawMessage, now time.Time) (any, error) {
	var (
		item any
		err  error
	)
	switch list {
	case CareListMedicines:
		b.Medicines, item, err = pushCareItem(b.Medicines, raw, now)
	case CareListDoctors:
		b.Doctors, item, err = pushCareItem(b.Doctors, raw, now)
	case CareListBills:
		b.Bills, item, err = pushCareItem(b.Bills, raw, now)
	case CareListEmergencyContacts:
		b.EmergencyContacts, item, err = pushCareItem(b.EmergencyContacts, raw, now)
	case CareListActivities:
		b.Activities, item, err = pushCareItem(b.Activities, raw, now)
	case CareListMessages:
		b.Messages, item, err = pushCareItem(b.Messages, raw, now)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownCareList, list)
	}
	if err != nil {
		return nil, err
	}
	b.UpdatedAt = now
	return item, nil
}

// Remove deletes the item with id from list.
func (b *CareBoard) Remove(list string, id int, now time.Time) error {
	var found bool
	switch list {
	case CareListMedicines:
		b.Medicines, found = removeCareItem(b.Medicines, id)
	case CareListDoctors:
		b.Doctors, found = removeCareItem(b.Doctors, id)
	case CareListBills:
		b.Bills, found = removeCareItem(b.Bills, id)
	case CareListEmergencyContacts:
		b.EmergencyContacts, found = removeCareItem(b.EmergencyContacts, id)
	case CareListActivities:
		b.Activities, found = removeCareItem(b.Activities, id)
	case CareListMessages:
		b.Messages, found = removeCareItem(b.Messages, id)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownCareList, list)
	}
	if !found {
		return ErrCareItemMissing
	}
	b.UpdatedAt = now
	return nil
}

// Replace swaps a whole list, e.g. after reordering on the client. Every
// item goes through the same checks as Push. Missing or repeated ids are
// renumbered past the highest id in the list, and message timestamps are
// kept from the stored copy or set to now.
func (b *CareBoard) Replace(list string, raw json.RawMessage, now time.Time) error {
	var err error
	switch list {
	case CareListMedicines:
		b.Medicines, err = replaceCareItems(b.Medicines, raw, now)
	case CareListDoctors:
		b.Doctors, err = replaceCareItems(b.Doctors, raw, now)
	case CareListBills:
		b.Bills, err = replaceCareItems(b.Bills, raw, now)
	case CareListEmergencyContacts:
		b.EmergencyContacts, err = replaceCareItems(b.EmergencyContacts, raw, now)
	case CareListActivities:
		b.Activities, err = replaceCareItems(b.Activities, raw, now)
	case CareListMessages:
		stored := make(map[int]time.Time, len(b.Messages))
		for _, m := range b.Messages {
			stored[m.ID] = m.Timestamp
		}
		var msgs []CareMessage
		msgs, err = replaceCareItems(b.Messages, raw, now)
		if err == nil {
			for i := range msgs {
				if ts, ok := stored[msgs[i].ID]; ok {
					msgs[i].Timestamp = ts
				}
			}
			b.Messages = msgs
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnknownCareList, list)
	}
	if err != nil {
		return err
	}
	b.Normalize()
	b.UpdatedAt = now
	return nil
}

// ToggleBill flips a bill between pending and paid.
func (b *CareBoard) ToggleBill(id int, now time.Time) (*Bill, error) {
	for i := range b.Bills {
		if b.Bills[i].ID != id {
			continue
		}
		if b.Bills[i].Status == BillStatusPaid {
			b.Bills[i].Status = BillStatusPending
		} else {
			b.Bills[i].Status = BillStatusPaid
		}
		b.UpdatedAt = now
		bill := b.Bills[i]
		return &bill, nil
	}
	return nil, ErrCareItemMissing
}

func pushCareItem[T any, PT careItem[T]](list []T, raw json.RawMessage, now time.Time) ([]T, any, error) {
	var item T
	if err := json.Unmarshal(raw, &item); err != nil {
		return list, nil, fmt.Errorf("%w: %v", ErrCareItemInvalid, err)
	}
	if err := PT(&item).validate(now); err != nil {
		return list, nil, err
	}

	next := 1
	for i := range list {
		if id := *PT(&list[i]).itemID(); id >= next {
			next = id + 1
		}
	}
	*PT(&item).itemID() = next

	return append(list, item), item, nil
}

// replaceCareItems decodes and validates a full list. On error the current
// list is returned unchanged.
func replaceCareItems[T any, PT careItem[T]](current []T, raw json.RawMessage, now time.Time) ([]T, error) {
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return current, fmt.Errorf("%w: %v", ErrCareItemInvalid, err)
	}

	next := 1
	for i := range items {
		if err := PT(&items[i]).validate(now); err != nil {
			return current, fmt.Errorf("item %d: %w", i, err)
		}
		if id := *PT(&items[i]).itemID(); id >= next {
			next = id + 1
		}
	}

	seen := make(map[int]bool, len(items))
	for i := range items {
		id := PT(&items[i]).itemID()
		if *id <= 0 || seen[*id] {
			*id = next
			next++
		}
		seen[*id] = true
	}
	return items, nil
}

func removeCareItem[T any, PT careItem[T]](list []T, id int) ([]T, bool) {
	out := make([]T, 0, len(list))
	found := false
	for i := range list {
		if *PT(&list[i]).itemID() == id {
			found = true
			continue
		}
		out = append(out, list[i])
	}
	return out, found
}
