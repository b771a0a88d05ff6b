package projects

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const groupIDAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewGroupID returns "<DEPT>-S<SEM>-<YY>-<RAND4>", e.g. "CSE-S5-25-K3Z9".
// RAND4 is four uppercase base-36 characters; uniqueness is enforced by the
// store's unique index and callers retry on collision.
func NewGroupID(dept string, semester int, now time.Time) string {
	u := uuid.New()
	var sb strings.Builder
	for i := 0; i < 4; i++ {
		sb.WriteByte(groupIDAlphabet[int(u[i])%len(groupIDAlphabet)])
	}
	return fmt.Sprintf("%s-S%d-%02d-%s", dept, semester, now.Year()%100, sb.String())
}

// ChatRoomID is the realtime room of a group.
func ChatRoomID(groupID string) string { return "grp_" + groupID }
