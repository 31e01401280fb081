package currentmeter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeRegister(t *testing.T) {
	cfg := DefaultModbusMeterConfig()

	r := cfg.decode(1625)
	assert.True(t, r.Valid)
	assert.Equal(t, 16.25, r.Value)

	r = cfg.decode(0)
	assert.True(t, r.Valid)
	assert.Equal(t, 0.0, r.Value)

	r = cfg.decode(0xFFFF)
	assert.False(t, r.Valid)
}

func TestDecodeRegisterCustomScale(t *testing.T) {
	cfg := ModbusMeterConfig{Scale: 10, InvalidValue: 0xFFFF}

	r := cfg.decode(163)
	assert.True(t, r.Valid)
	assert.Equal(t, 16.3, r.Value)
}
