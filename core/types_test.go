package core

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDate_JSON(t *testing.T) {
	d := NewDate(time.Date(2024, time.September, 2, 15, 4, 5, 0, time.Local))
	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2024-09-02"`, string(data))

	var parsed Date
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.True(t, parsed.Equal(d.Time))

	assert.Error(t, json.Unmarshal([]byte(`"02/09/2024"`), &parsed))
}

func TestJSONMap_ScanValue(t *testing.T) {
	m := JSONMap{"onboarding": map[string]interface{}{"completed": []interface{}{"profile"}}}
	v, err := m.Value()
	require.NoError(t, err)

	var scanned JSONMap
	require.NoError(t, scanned.Scan(v))
	assert.Equal(t, m, scanned)

	require.NoError(t, scanned.Scan(nil))
	assert.Empty(t, scanned)
}
