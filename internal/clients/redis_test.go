package clients

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKeyPrefix(t *testing.T) {
	assert.Equal(t, DefaultRedisPrefix, keyPrefix(""))
	assert.Equal(t, "staging_", keyPrefix("staging_"))

	c := &RedisClient{prefix: keyPrefix("")}
	assert.Equal(t, "liquidation_export_records_snapshot:abc", c.key("records_snapshot:abc"))
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	_, err := NewRedisClient(RedisConfig{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		Timeout:     200 * time.Millisecond,
	})
	assert.Error(t, err)
}
