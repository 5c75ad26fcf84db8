package video_fetcher

import (
	"errors"
	"testing"

	assert_ "github.com/stretchr/testify/assert"
)

func TestPage_LoadOnce(t *testing.T) {
	assert := assert_.New(t)
	var page Page
	calls := 0
	fetch := func() (string, error) {
		calls++
		return `<html><head><title>Hello</title></head></html>`, nil
	}

	doc, err := page.HTML(fetch)
	assert.NoError(err)
	assert.Equal("Hello", doc.Find("title").Text())
	_, err = page.Load(fetch)
	assert.NoError(err)
	assert.Equal(1, calls)

	_, err = page.JSON(fetch)
	assert.ErrorIs(err, ErrInvalidJSON)
}

func TestPage_LoadError(t *testing.T) {
	assert := assert_.New(t)
	var page Page
	failure := errors.New("boom")
	_, err := page.Load(func() (string, error) { return "", failure })
	assert.ErrorIs(err, failure)
	assert.Empty(page.Document)

	result, err := page.JSON(func() (string, error) { return `{"a":{"b":[1,2,3]}}`, nil })
	assert.NoError(err)
	assert.Equal(int64(3), result.Get("a.b.#").Int())
}

func TestPage_LoadValue(t *testing.T) {
	assert := assert_.New(t)
	var page Page
	calls := 0
	for i := 0; i < 3; i++ {
		v, err := page.LoadValue(func() (any, error) {
			calls++
			return "decoded", nil
		})
		assert.NoError(err)
		assert.Equal("decoded", v)
	}
	assert.Equal(1, calls)
}
