package catalog

import (
	"testing"
	"time"

	"revtrack/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()
	assert.Len(t, c.Categories, 8)
	assert.Len(t, c.GoalTemplates, 7)

	calls, ok := c.Category(core.CallsCategory)
	require.True(t, ok)
	assert.Equal(t, "Calls", calls.Name)

	tpl, ok := c.Template("weekly_clients_3")
	require.True(t, ok)
	assert.Equal(t, core.Weekly, tpl.Type)
	assert.Equal(t, core.GoalClients, tpl.GoalType)
	assert.Equal(t, "3", tpl.TargetAmount.String())

	_, ok = c.Template("nope")
	assert.False(t, ok)
}

func TestTemplateNewGoal(t *testing.T) {
	tpl, ok := Default().Template("weekly_sales_1k")
	require.True(t, ok)

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	g := tpl.NewGoal("g1", now)
	require.NoError(t, g.Validate())
	assert.Equal(t, core.BucketKey("2024-W09"), g.Period)
	assert.Equal(t, "1000", g.TargetAmount.String())
	assert.Equal(t, core.GoalRevenue, g.GoalType)
}

func TestParseRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"no calls category":  "categories:\n  - id: other\n",
		"duplicate category": "categories:\n  - id: calls\n  - id: calls\n",
		"bad granularity":    "categories:\n  - id: calls\ngoalTemplates:\n  - id: t\n    type: hourly\n    targetAmount: 1\n    goalType: revenue\n",
		"zero target":        "categories:\n  - id: calls\ngoalTemplates:\n  - id: t\n    type: daily\n    targetAmount: 0\n    goalType: revenue\n",
		"not yaml":           "categories: [",
	}
	for name, doc := range cases {
		if _, err := Parse([]byte(doc)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}
