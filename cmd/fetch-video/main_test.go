package main

import (
	"testing"

	assert_ "github.com/stretchr/testify/assert"
)

func TestCheckOutput(t *testing.T) {
	assert := assert_.New(t)
	assert.NoError(checkOutput("", []string{"https://a.example/1", "https://a.example/2"}))
	assert.NoError(checkOutput("out.mp4", []string{"https://a.example/1"}))
	assert.ErrorContains(checkOutput("out.mp4", []string{"https://a.example/1", "https://a.example/2"}), "2 URLs")
}

func TestProgressBars_ResetBetweenURLs(t *testing.T) {
	assert := assert_.New(t)
	bars := &progressBars{}

	bars.onSegments(1, 3)
	bars.onBytes(100, 1000)
	assert.NotNil(bars.segments)
	assert.Nil(bars.bytes)

	bars.reset()
	assert.Nil(bars.segments)
	bars.onBytes(100, 1000)
	if assert.NotNil(bars.bytes) {
		assert.Equal(int64(1000), bars.bytes.GetMax64())
	}
}
