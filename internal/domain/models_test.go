package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToSheetType(t *testing.T) {
	assert.Equal(t, SheetElectrical, ToSheetType("electrical"))
	assert.Equal(t, SheetCover, ToSheetType("cover"))
	assert.Equal(t, SheetUnknown, ToSheetType(""))
	assert.Equal(t, SheetUnknown, ToSheetType("landscape"))
}

func TestSheetTypeLabels(t *testing.T) {
	for _, st := range []SheetType{
		SheetArchitectural, SheetElectrical, SheetMechanical, SheetStructural,
		SheetPlumbing, SheetCivil, SheetCover, SheetSchedule, SheetUnknown,
	} {
		assert.NotEmpty(t, SheetTypeLabels[st], "missing label for %s", st)
	}
}
