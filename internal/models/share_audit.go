package models

import "gorm.io/datatypes"

// ShareAudit records one applied sharing update.
type ShareAudit struct {
	BaseModel

	EntityGRN string         `gorm:"column:entity_grn;type:varchar(255);not null;index" json:"entity"`
	UserID    string         `gorm:"type:varchar(36);not null;index" json:"user_id"`
	Username  string         `json:"username"`
	IPAddress string         `gorm:"type:varchar(64)" json:"ip_address,omitempty"`
	UserAgent string         `gorm:"type:varchar(255)" json:"user_agent,omitempty"`
	RequestID string         `gorm:"type:varchar(64);index" json:"request_id,omitempty"`
	Created   int            `json:"created"`
	Updated   int            `json:"updated"`
	Deleted   int            `json:"deleted"`
	Changes   datatypes.JSON `json:"changes"`
}
