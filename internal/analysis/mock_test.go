package analysis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planlens/blueprint-qa/internal/domain"
)

func TestMockProvider_OutputPassesMapping(t *testing.T) {
	p := NewMockProvider()
	m := NewMapper(0.7)
	counter := NewIssueCounter()

	odd, err := p.AnalyzePage(context.Background(), PageInput{PageNumber: 1, Image: testImage})
	require.NoError(t, err)
	mapped, err := m.MapPageResult(1, odd, counter, 0)
	require.NoError(t, err)
	require.Len(t, mapped.Issues, 1)
	assert.Equal(t, domain.CategoryMissingLabel, mapped.Issues[0].Category)
	assert.Equal(t, domain.SheetElectrical, mapped.Issues[0].SheetType)
	assert.Equal(t, domain.ResultFail, mapped.Criteria[0].Result)

	even, err := p.AnalyzePage(context.Background(), PageInput{PageNumber: 2, Image: testImage})
	require.NoError(t, err)
	mapped, err = m.MapPageResult(2, even, counter, 0)
	require.NoError(t, err)
	assert.Empty(t, mapped.Issues)
	assert.Equal(t, domain.ResultPass, mapped.Criteria[0].Result)
	assert.Equal(t, domain.PageOK, mapped.Outcome.Status)
}
