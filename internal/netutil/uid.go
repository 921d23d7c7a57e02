package netutil

import "github.com/rs/xid"

// Uid is an opaque, sortable identifier used for sessions.
type Uid string

const EmptyUid Uid = ""

func NewUid() Uid { return Uid(xid.New().String()) }

func (u Uid) String() string { return string(u) }

// Short renders a compact form for log lines.
func (u Uid) Short() string {
	s := string(u)
	if len(s) <= 6 {
		return s
	}
	return s[:3] + "." + s[len(s)-3:]
}
