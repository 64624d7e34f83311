package id

import (
	"fmt"
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	node *snowflake.Node
	once sync.Once
)

// Init initializes the Snowflake node with the given node ID.
// Each relay replica needs a distinct node ID (RELAY_NODE_ID).
func Init(nodeID int64) error {
	var err error
	once.Do(func() {
		node, err = snowflake.NewNode(nodeID)
	})
	if err != nil {
		return fmt.Errorf("snowflake node %d: %w", nodeID, err)
	}
	return nil
}

// New returns a time-ordered id, used to tag each inbound webhook delivery.
// Falls back to node 0 if Init was never called (tests, stravactl).
func New() int64 {
	_ = Init(0)
	return node.Generate().Int64()
}

// Time returns the unix-millisecond timestamp embedded in an id.
func Time(id int64) int64 {
	return snowflake.ParseInt64(id).Time()
}
