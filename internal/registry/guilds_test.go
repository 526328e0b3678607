package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jshumphrey/full-course-yellow/internal/config"
)

func testGuildsConfig() config.GuildsConfig {
	return config.GuildsConfig{
		Monitored: []config.MonitoredGuildConfig{
			{ID: "100", Name: "zulu", Enabled: true, Classifier: "always"},
			{ID: "101", Name: "Alpha", Enabled: true, Classifier: "always"},
			{ID: "102", Name: "mike", Enabled: true, Testing: true, Classifier: "always"},
			{ID: "103", Name: "Disabled Ring", Enabled: false, Classifier: "placeholder"},
		},
		Alert: []config.AlertGuildConfig{
			{ID: "200", Name: "Staff Hub", Enabled: true, ChannelID: "900",
				OriginRoles: map[string]string{"101": "501", "100": "502"}},
			{ID: "102", Name: "mike", Enabled: true, Testing: true, ChannelID: "901",
				GeneralRoleID: "600"},
			{ID: "201", Name: "Old Hub", Enabled: false, ChannelID: "902"},
		},
	}
}

func mustRegistry(t *testing.T) *Registry {
	t.Helper()
	reg, err := FromConfig(testGuildsConfig(), config.ClassifiersConfig{})
	require.NoError(t, err)
	return reg
}

func guildNames[T interface{ String() string }](guilds []T) []string {
	names := make([]string, len(guilds))
	for i, g := range guilds {
		names[i] = g.String()
	}
	return names
}

func TestRegistryViewsAreNameSorted(t *testing.T) {
	reg := mustRegistry(t)

	monitored := reg.Monitored(FilterAll)
	assert.Equal(t, []string{"Alpha", "mike", "zulu"}, guildNames(monitored),
		"views must be case-insensitive alphabetical")

	alerts := reg.Alerts(FilterAll)
	assert.Equal(t, []string{"mike", "Staff Hub"}, guildNames(alerts))
}

func TestRegistryTestingFilters(t *testing.T) {
	reg := mustRegistry(t)

	assert.Equal(t, []string{"Alpha", "zulu"}, guildNames(reg.Monitored(FilterProduction)))
	assert.Equal(t, []string{"mike"}, guildNames(reg.Monitored(FilterTesting)))
	assert.Equal(t, []string{"Staff Hub"}, guildNames(reg.Alerts(FilterProduction)))
	assert.Equal(t, []string{"mike"}, guildNames(reg.Alerts(FilterTesting)))
}

func TestRegistryAllIncludesDisabled(t *testing.T) {
	reg := mustRegistry(t)

	all := reg.All(FilterAll)
	names := make([]string, len(all))
	for i, g := range all {
		names[i] = g.Name
	}
	assert.Contains(t, names, "Disabled Ring")
	assert.Contains(t, names, "Old Hub")
	// A guild configured in both roles appears once.
	assert.Equal(t, 1, countOf(names, "mike"))
}

func countOf(names []string, want string) int {
	n := 0
	for _, name := range names {
		if name == want {
			n++
		}
	}
	return n
}

func TestRegistryLookups(t *testing.T) {
	reg := mustRegistry(t)

	mg, ok := reg.MonitoredGuild("101")
	require.True(t, ok)
	assert.Equal(t, "Alpha", mg.Name)

	_, ok = reg.MonitoredGuild("103")
	assert.False(t, ok, "disabled guilds do not resolve")

	ag, ok := reg.AlertGuild("200")
	require.True(t, ok)
	assert.Equal(t, "900", ag.ChannelID)

	_, ok = reg.Installed("102")
	assert.True(t, ok)
	_, ok = reg.Installed("999")
	assert.False(t, ok)
}

func TestRegistryDuplicateEnabledGuildIsFatal(t *testing.T) {
	cfg := testGuildsConfig()
	cfg.Monitored = append(cfg.Monitored, config.MonitoredGuildConfig{
		ID: "101", Name: "Alpha Again", Enabled: true, Classifier: "always",
	})

	_, err := FromConfig(cfg, config.ClassifiersConfig{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateGuild)
}

func TestRegistryDuplicateDisabledGuildIsTolerated(t *testing.T) {
	cfg := testGuildsConfig()
	cfg.Monitored = append(cfg.Monitored, config.MonitoredGuildConfig{
		ID: "101", Name: "Alpha Again", Enabled: false, Classifier: "placeholder",
	})

	_, err := FromConfig(cfg, config.ClassifiersConfig{})
	assert.NoError(t, err)
}

func TestRegistryUnknownClassifierIsFatal(t *testing.T) {
	cfg := testGuildsConfig()
	cfg.Monitored[0].Classifier = "sometimes"

	_, err := FromConfig(cfg, config.ClassifiersConfig{})
	assert.Error(t, err)
}

func TestDefaultConfigBuildsValidRegistry(t *testing.T) {
	defaults := config.DefaultConfig()
	reg, err := FromConfig(defaults.Guilds, defaults.Classifiers)
	require.NoError(t, err)

	assert.NotEmpty(t, reg.Monitored(FilterAll))
	assert.NotEmpty(t, reg.Alerts(FilterAll))
}
