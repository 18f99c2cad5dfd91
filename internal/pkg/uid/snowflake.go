package uid

import "github.com/bwmarrin/snowflake"

// Snowflake generates time-ordered 63-bit identifiers.
type Snowflake struct {
	node *snowflake.Node
}

// NewSnowflake creates a generator for the given node (0-1023).
func NewSnowflake(node int64) (*Snowflake, error) {
	n, err := snowflake.NewNode(node)
	if err != nil {
		return nil, err
	}
	return &Snowflake{node: n}, nil
}

// Generate returns the next identifier.
func (s *Snowflake) Generate() int64 {
	return s.node.Generate().Int64()
}
