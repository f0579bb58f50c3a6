package artifact

import (
	"github.com/vk/pipegridgo/internal/iotype"
	"github.com/zclconf/go-cty/cty"
)

// Artifact is the output of one block run and the input of the next.
type Artifact interface {
	IOType() iotype.IOType
}

// Scalar carries a single value between blocks.
type Scalar struct {
	Value cty.Value
}

func (*Scalar) IOType() iotype.IOType { return iotype.Primitive }
