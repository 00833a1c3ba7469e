package joints

import (
	"fmt"
	"strings"

	"github.com/chazu/joinery/pkg/model"
)

// JoinError is the single error kind raised by joint construction and
// geometry computation. It carries the beams involved, the joint instance
// and optionally debug geometry for visualization.
type JoinError struct {
	Beams           []*model.Beam
	Joint           Joint
	Msg             string
	DebugGeometries []any
}

func (e *JoinError) Error() string {
	var keys []string
	for _, b := range e.Beams {
		if b != nil {
			keys = append(keys, fmt.Sprintf("%d", b.Key))
		}
	}
	kind := "joint"
	if e.Joint != nil {
		kind = e.Joint.Kind()
	}
	if len(keys) == 0 {
		return fmt.Sprintf("%s: %s", kind, e.Msg)
	}
	return fmt.Sprintf("%s on beams [%s]: %s", kind, strings.Join(keys, " "), e.Msg)
}

// joinErrorf builds a JoinError for the given joint with a formatted message.
func joinErrorf(j Joint, format string, args ...any) *JoinError {
	return &JoinError{Beams: j.Beams(), Joint: j, Msg: fmt.Sprintf(format, args...)}
}
