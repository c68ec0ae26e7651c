package kafka

import (
	"testing"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
)

func TestCompressionFromString(t *testing.T) {
	assert.Equal(t, kafkago.Gzip, CompressionFromString("GZIP"))
	assert.Equal(t, kafkago.Lz4, CompressionFromString("lz4"))
	assert.Equal(t, kafkago.Zstd, CompressionFromString("zstd"))
	assert.Equal(t, kafkago.Snappy, CompressionFromString("unknown"))
}

func TestNewMessageCarriesHeaders(t *testing.T) {
	msg := newMessage([]byte("k"), []byte("v"), map[string]string{"event_type": "thumbnail.created"})

	assert.Equal(t, []byte("k"), msg.Key)
	assert.Equal(t, []byte("v"), msg.Value)
	assert.False(t, msg.Time.IsZero())
	assert.Equal(t, []kafkago.Header{{Key: "event_type", Value: []byte("thumbnail.created")}}, msg.Headers)
}
