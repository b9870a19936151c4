package jira

import (
    "context"
    "net/http"
    "testing"

    "github.com/gin-gonic/gin"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestFieldsDiscovery(t *testing.T) {
    r := gin.New()
    r.GET("/rest/api/3/field", func(c *gin.Context) {
        c.JSON(http.StatusOK, []gin.H{
            {"id": "summary", "name": "Summary", "custom": false},
            {"id": "customfield_10106", "name": "Story Points", "custom": true},
            {"id": "customfield_10200", "name": "Story point estimate", "custom": true},
            {"id": "customfield_10100", "name": "Epic Link", "custom": true,
                "schema": gin.H{"type": "any", "custom": "com.pyxis.greenhopper.jira:gh-epic-link"}},
            {"id": "customfield_10300", "name": "Feature Link", "custom": true,
                "schema": gin.H{"type": "any", "custom": "com.pyxis.greenhopper.jira:gh-epic-link"}},
            {"id": "customfield_10101", "name": "Sprint", "custom": true,
                "schema": gin.H{"type": "array", "custom": "com.pyxis.greenhopper.jira:gh-sprint"}},
            {"id": "customfield_10500", "name": "Team", "custom": true},
        })
    })
    c := fakeJira(t, r, nil)

    defs, err := c.Fields(context.Background())
    require.NoError(t, err)
    require.Len(t, defs, 7)

    fc := DiscoverCandidates(defs)
    assert.Equal(t, []string{"customfield_10106", "customfield_10200"}, fc.StoryPoints)
    assert.Equal(t, []string{"customfield_10100", "customfield_10300"}, fc.Epic)
    assert.Equal(t, []string{"customfield_10101"}, fc.Sprint)
}

func TestDiscoverCandidatesIgnoresSystemFields(t *testing.T) {
    fc := DiscoverCandidates([]FieldDef{{ID: "sprint", Name: "Sprint"}})
    assert.Empty(t, fc.Sprint)
}
