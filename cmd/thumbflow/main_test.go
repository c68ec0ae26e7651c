package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseResourceAttributes(t *testing.T) {
	assert.Equal(t, map[string]string{}, parseResourceAttributes(""))
	assert.Equal(t, map[string]string{
		"service.namespace": "thumbflow",
		"deployment":        "prod",
	}, parseResourceAttributes(" service.namespace=thumbflow, ,novalue, deployment = prod"))
}
