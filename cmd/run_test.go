package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowassist/flow-cli/internal/model"
)

func TestParsePlatforms(t *testing.T) {
	platforms, err := parsePlatforms([]string{"instagram", "facebook"})
	require.NoError(t, err)
	assert.Equal(t, []model.Platform{model.PlatformInstagram, model.PlatformFacebook}, platforms)
}

func TestParsePlatformsEmpty(t *testing.T) {
	platforms, err := parsePlatforms(nil)
	require.NoError(t, err)
	assert.Empty(t, platforms)
}

func TestParsePlatformsUnknown(t *testing.T) {
	_, err := parsePlatforms([]string{"instagram", "myspace"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "myspace")
}

func TestDiscardSaverCountsWithoutPersisting(t *testing.T) {
	n, err := discardSaver{}.UpsertLeads(context.Background(), make([]model.Lead, 3))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}
