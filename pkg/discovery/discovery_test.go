package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstanceKey(t *testing.T) {
	instance := Instance{Name: "gemora-api", Host: "10.0.0.7", Port: 5000}
	assert.Equal(t, "/gemora/services/gemora-api/10.0.0.7:5000", InstanceKey("/gemora/services/", instance))

	v6 := Instance{Name: "gemora-api", Host: "::1", Port: 5000}
	assert.Equal(t, "[::1]:5000", v6.Addr())
}

func TestParseInstance(t *testing.T) {
	got, err := parseInstance("gemora-api", "10.0.0.7:5000")
	require.NoError(t, err)
	assert.Equal(t, Instance{Name: "gemora-api", Host: "10.0.0.7", Port: 5000}, got)

	_, err = parseInstance("gemora-api", "10.0.0.7")
	assert.Error(t, err)

	_, err = parseInstance("gemora-api", "10.0.0.7:http")
	assert.Error(t, err)
}
