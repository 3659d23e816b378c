package gen

import (
	"fmt"
	"hash/crc32"
)

// Atom is a name of a node or a registered process.
type Atom string

// CRC32 returns the checksum of the atom. It is used to shorten the node
// name in the textual representation of PID and Ref.
func (a Atom) CRC32() string {
	return fmt.Sprintf("%08X", crc32.Checksum([]byte(a), crc32.IEEETable))
}

// PID is the process identifier. PIDs are minted by the node on spawn and
// never reused within the node incarnation (Creation).
type PID struct {
	Node     Atom
	ID       uint64
	Creation int64
}

func (p PID) String() string {
	return fmt.Sprintf("<%s.0.%d>", p.Node.CRC32(), p.ID)
}

// IsZero returns true for the empty PID value.
func (p PID) IsZero() bool {
	return p.ID == 0 && p.Node == ""
}

// Ref is a unique reference within the node. It tags the requests made with
// Call so the response can be picked out of the mailbox.
type Ref struct {
	Node     Atom
	Creation int64
	ID       uint64
}

func (r Ref) String() string {
	return fmt.Sprintf("Ref#<%s.%d.%d>", r.Node.CRC32(), r.Creation, r.ID)
}

// Version
type Version struct {
	Name    string
	Release string
	License string
}

func (v Version) String() string {
	return fmt.Sprintf("%s:%s", v.Name, v.Release)
}
