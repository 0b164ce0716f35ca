package shipping

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/venpus/mjshop-sub003/internal/domain/shared"
)

// KoreaArrival is a quantity of a packing list item received in Korea
type KoreaArrival struct {
	shared.BaseEntity
	PackingListItemID uuid.UUID `gorm:"type:uuid;not null;index"`
	ArrivalDate       time.Time `gorm:"not null"`
	Quantity          int64     `gorm:"not null"`
	Note              string    `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (KoreaArrival) TableName() string {
	return "korea_arrivals"
}

// NewKoreaArrival records an arrival against a packing list item
func NewKoreaArrival(packingListItemID uuid.UUID, arrivalDate time.Time, quantity int64, note string) (*KoreaArrival, error) {
	if packingListItemID == uuid.Nil {
		return nil, invalid("INVALID_PACKING_LIST_ITEM", "Packing list item is required")
	}
	a := &KoreaArrival{
		BaseEntity:        shared.NewBaseEntity(),
		PackingListItemID: packingListItemID,
	}
	if err := a.Update(arrivalDate, quantity, note); err != nil {
		return nil, err
	}
	return a, nil
}

// Update corrects the arrival's date, quantity and note
func (a *KoreaArrival) Update(arrivalDate time.Time, quantity int64, note string) error {
	if quantity <= 0 {
		return invalid("INVALID_QUANTITY", "Arrival quantity must be positive")
	}
	if arrivalDate.IsZero() {
		return invalid("INVALID_ARRIVAL_DATE", "Arrival date is required")
	}
	a.ArrivalDate = arrivalDate
	a.Quantity = quantity
	a.Note = strings.TrimSpace(note)
	a.Touch()
	return nil
}
