package signage

type NotificationType string

const (
	NotifyWelcome         NotificationType = "welcome"
	NotifyUserJoined      NotificationType = "user_joined"
	NotifyUserLeft        NotificationType = "user_left"
	NotifyPing            NotificationType = "ping"
	NotifyPong            NotificationType = "pong"
	NotifySettingsUpdated NotificationType = "settings_updated"
	NotifySectionUpdated  NotificationType = "section_updated"
	NotifyBroadcast       NotificationType = "broadcast"
)

type SectionAction string

const (
	ActionUpload      SectionAction = "upload"
	ActionDelete      SectionAction = "delete"
	ActionAssign      SectionAction = "assign"
	ActionUnassign    SectionAction = "unassign"
	ActionGroupUpdate SectionAction = "group_update"
)

// Notification is one frame of the streaming protocol, in either direction.
// Only the fields relevant to Type are populated.
type Notification struct {
	Type        NotificationType `json:"type"`
	Count       *int             `json:"count,omitempty"`
	Timestamp   int64            `json:"timestamp,omitempty"`
	SectionKey  SectionKey       `json:"section_key,omitempty"`
	Action      SectionAction    `json:"action,omitempty"`
	ContentType ContentType      `json:"content_type,omitempty"`
	ContentID   string           `json:"content_id,omitempty"`
	Content     string           `json:"content,omitempty"`
	Style       string           `json:"style,omitempty"`
}

func Welcome(count int) Notification {
	return Notification{Type: NotifyWelcome, Count: &count}
}

func UserJoined(count int) Notification {
	return Notification{Type: NotifyUserJoined, Count: &count}
}

func UserLeft(count int) Notification {
	return Notification{Type: NotifyUserLeft, Count: &count}
}

func Ping(unixMillis int64) Notification {
	return Notification{Type: NotifyPing, Timestamp: unixMillis}
}

func Pong(unixMillis int64) Notification {
	return Notification{Type: NotifyPong, Timestamp: unixMillis}
}

func SettingsUpdated() Notification {
	return Notification{Type: NotifySettingsUpdated}
}

func SectionUpdated(key SectionKey, action SectionAction, contentType ContentType, contentID string) Notification {
	return Notification{
		Type:        NotifySectionUpdated,
		SectionKey:  key,
		Action:      action,
		ContentType: contentType,
		ContentID:   contentID,
	}
}

const DefaultAnnouncementStyle = "is-info"

func Announcement(content, style string) Notification {
	if style == "" {
		style = DefaultAnnouncementStyle
	}
	return Notification{Type: NotifyBroadcast, Content: content, Style: style}
}

// IsGlobal reports whether the notification invalidates more than one section.
func (n Notification) IsGlobal() bool {
	return n.Type == NotifySettingsUpdated
}
