package backup

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iepapp/iep/core"
)

func TestDiff(t *testing.T) {
	want := Manifest{"students": 10, "grades": 4, "classes": 2}

	assert.Empty(t, diff(want, Manifest{"students": 10, "grades": 4, "classes": 2}))

	got := diff(want, Manifest{"students": 11, "grades": 4, "files": 1})
	assert.Equal(t, []core.FieldError{
		{Field: "manifest.classes", Error: "expected 2 rows, found 0"},
		{Field: "manifest.files", Error: "expected 0 rows, found 1"},
		{Field: "manifest.students", Error: "expected 10 rows, found 11"},
	}, got)
}

func TestManifestScan(t *testing.T) {
	var m Manifest
	assert.NoError(t, m.Scan([]byte(`{"students": 3}`)))
	assert.Equal(t, Manifest{"students": 3}, m)
	assert.NoError(t, m.Scan(nil))
	assert.Nil(t, m)
	assert.Error(t, m.Scan(42))
}
