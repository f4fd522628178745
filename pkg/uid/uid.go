package uid

import (
	"fmt"
	"time"

	"github.com/sony/sonyflake"
)

// UID generates unique uint64 identifiers.
// Sortable by generation time so it is safe to use as a primary key.
type UID interface {
	NextID() (uint64, error)
}

type Sonyflake struct {
	gen *sonyflake.Sonyflake
}

var _ UID = (*Sonyflake)(nil)

func NewSonyflake(startTime time.Time) (*Sonyflake, error) {
	gen := sonyflake.NewSonyflake(sonyflake.Settings{
		StartTime: startTime,
	})

	if gen == nil {
		return nil, fmt.Errorf("sonyflake generator is nil, check machine id resolution")
	}

	return &Sonyflake{gen: gen}, nil
}

func (s *Sonyflake) NextID() (uint64, error) {
	return s.gen.NextID()
}
