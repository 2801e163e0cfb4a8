package pdf

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planlens/blueprint-qa/internal/domain"
)

func TestValidatePDFPath(t *testing.T) {
	dir := t.TempDir()
	pdfPath := filepath.Join(dir, "plans.pdf")
	require.NoError(t, os.WriteFile(pdfPath, []byte("%PDF-1.4"), 0o644))
	txtPath := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(txtPath, []byte("hi"), 0o644))

	assert.NoError(t, validatePDFPath(pdfPath))

	tests := []struct {
		name     string
		path     string
		wantType domain.ErrorType
	}{
		{"empty path", "", domain.ErrorTypeInvalidRequest},
		{"missing file", filepath.Join(dir, "nope.pdf"), domain.ErrorTypeIO},
		{"directory", dir, domain.ErrorTypeInvalidRequest},
		{"wrong extension", txtPath, domain.ErrorTypeInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validatePDFPath(tt.path)
			require.Error(t, err)
			assert.Equal(t, tt.wantType, domain.TypeOf(err))
		})
	}
}

func TestRender_RejectsInvalidPath(t *testing.T) {
	c := NewConverter(1280, 82)
	_, err := c.Render(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"), nil)
	require.Error(t, err)
	assert.Equal(t, domain.ErrorTypeIO, domain.TypeOf(err))
}
