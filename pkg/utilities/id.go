package utilities

import (
	"os"
	"strconv"
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/segmentio/ksuid"
)

var (
	nodeOnce sync.Once
	node     *snowflake.Node
)

// NewKSUID generates a new globally unique, time-sortable KSUID string.
func NewKSUID() string {
	return ksuid.New().String()
}

// NewUUID returns a random v4 UUID string, used for session identifiers.
func NewUUID() string {
	return uuid.NewString()
}

// NewSnowflakeID generates a snowflake ID string using a node ID from
// the environment variable SNOWFLAKE_NODE. The node is built once per process
// so IDs generated in the same millisecond stay distinct. If node setup fails
// it falls back to a KSUID string.
func NewSnowflakeID() string {
	nodeOnce.Do(func() {
		nodeID := int64(1)
		if nodeEnv := os.Getenv("SNOWFLAKE_NODE"); nodeEnv != "" {
			if v, err := strconv.ParseInt(nodeEnv, 10, 64); err == nil {
				nodeID = v
			}
		}
		node, _ = snowflake.NewNode(nodeID)
	})
	if node == nil {
		return NewKSUID()
	}
	return node.Generate().String()
}
