package domain

import "time"

// ProcessedMessage records that a queue message already produced a
// notification. With at-least-once delivery the same message can be seen
// again (for example when the delete after a successful send failed); the
// record lets the consumer skip the duplicate email until ExpiresAt.
type ProcessedMessage struct {
	ID           string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	MessageID    string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_processed_message"`
	Cuisine      string    `gorm:"type:TEXT NOT NULL"`
	RestaurantID string    `gorm:"type:TEXT NOT NULL"`
	CreatedAt    time.Time `gorm:"not null;autoCreateTime"`
	ExpiresAt    time.Time `gorm:"not null;index"`
}

// TableName implements the GORM tabler interface.
func (ProcessedMessage) TableName() string { return "processed_messages" }

// DialogSession is the persisted slot state of one conversation when the
// built-in dialog engine is used instead of a managed one.
//
// Fields:
//   - ID: session identifier supplied by the front end.
//   - Intent: the intent being filled.
//   - Slots: JSON object of slot name to slot value wrapper.
//   - Attributes: JSON object of session attributes.
//   - ElicitSlot: slot the last bot turn asked for, empty when none.
type DialogSession struct {
	ID         string    `json:"id"          gorm:"type:varchar(64);primaryKey"`
	Intent     string    `json:"intent"      gorm:"type:varchar(64);not null"`
	Slots      string    `json:"slots"       gorm:"type:text;not null;default:'{}'"`
	Attributes string    `json:"attributes"  gorm:"type:text;not null;default:'{}'"`
	ElicitSlot string    `json:"elicit_slot" gorm:"type:varchar(32)"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"  gorm:"index"`
}

// TableName returns the database table name for DialogSession.
func (DialogSession) TableName() string { return "dialog_sessions" }
