package protocol

import "encoding/json"

// Outbound message tags sent to a single connection.
const (
	TypeAuthOK                   Type = "auth-ok"
	TypeAuthFailed               Type = "auth-failed"
	TypeDMStatus                 Type = "dm-status"
	TypeDMElevationFailed        Type = "dm-elevation-failed"
	TypeDMPasswordUpdated        Type = "dm-password-updated"
	TypeDMPasswordUpdateFailed   Type = "dm-password-update-failed"
	TypeRoomPasswordUpdated      Type = "room-password-updated"
	TypeRoomPasswordUpdateFailed Type = "room-password-update-failed"
	TypeState                    Type = "state"
)

type AuthOK struct {
	T    Type   `json:"t"`
	UID  string `json:"uid"`
	IsDM bool   `json:"isDM"`
}

type Failure struct {
	T      Type   `json:"t"`
	Reason string `json:"reason"`
}

type DMStatus struct {
	T    Type `json:"t"`
	IsDM bool `json:"isDM"`
}

type PasswordUpdated struct {
	T         Type   `json:"t"`
	UpdatedAt int64  `json:"updatedAt"`
	Source    string `json:"source,omitempty"`
}

// RTCRelay is the forwarded signal; From is always the authenticated sender.
type RTCRelay struct {
	T      Type            `json:"t"`
	From   string          `json:"from"`
	Signal json.RawMessage `json:"signal"`
}

// Encode marshals an outbound message. Outbound types are plain structs so
// an error here is a programming error; callers log and drop.
func Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}
